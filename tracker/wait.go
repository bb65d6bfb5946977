package tracker

import "time"

// WaitForFirst blocks until the tracker has a selection and returns its
// value. A zero timeout waits indefinitely; a positive timeout bounds the
// wait, after which ok=false is returned; a negative timeout fails with
// ErrNegativeTimeout without blocking. On a tracker that is not open (or one
// closed while waiting) it returns ok=false immediately.
//
// The value returned is the selection at the moment the wait completed; a
// higher-ranking reference tracked afterwards does not retroactively change
// it.
func (t *Tracker[T]) WaitForFirst(timeout time.Duration) (T, bool, error) {
	var zero T
	if timeout < 0 {
		return zero, false, ErrNegativeTimeout
	}

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		tr := t.engine.Load()
		if tr == nil {
			return zero, false, nil
		}

		// Capture the broadcast channel before checking the selection: a
		// commit landing between the two closes exactly this channel, so
		// the wait below cannot sleep through it.
		ch := tr.waitChan()

		if v, ok := t.Selected(); ok {
			return v, true, nil
		}
		if tr.closed.Load() {
			return zero, false, nil
		}

		if timeout == 0 {
			<-ch
			continue
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return zero, false, nil
		}
		timer := time.NewTimer(remaining)
		select {
		case <-ch:
			timer.Stop()
			// Woken by a commit (or a spurious broadcast such as a
			// remove); loop and re-check the selection.
		case <-timer.C:
			if v, ok := t.Selected(); ok {
				return v, true, nil
			}
			return zero, false, nil
		}
	}
}
