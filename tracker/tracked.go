package tracker

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/roach88/svctrack/registry"
)

// tracked is the engine behind a Tracker: the committed map, the pending-add
// set, and the track/untrack state machine. One tracked instance lives per
// open/close cycle; Close discards it and a later Open builds a fresh one.
//
// Thread-safety model:
//   - mu guards entries, pending, and signal. Critical sections are pure
//     bookkeeping: no customizer hook and no registry call ever runs under mu.
//   - dispatch() may be called from any goroutine (the registry's delivery
//     path); queries come from arbitrary caller goroutines.
//   - signal is closed to broadcast "the committed set changed" to waiters
//     and replaced under mu, so a waiter that captures the channel before
//     re-checking the selection can never miss a commit.
//
// INVARIANTS:
//   - entries and pending never both contain the same reference.
//   - a reference is in entries iff it matched the criterion and its Adding
//     hook returned ok at commit time.
//   - every committed add or remove advances the owner's revision exactly
//     once, under mu, before waiters are woken.
type tracked[T any] struct {
	owner *Tracker[T]

	mu      sync.Mutex
	entries map[registry.Reference]T
	pending []registry.Reference
	signal  chan struct{}

	closed atomic.Bool
}

func newTracked[T any](owner *Tracker[T]) *tracked[T] {
	return &tracked[T]{
		owner:   owner,
		entries: make(map[registry.Reference]T),
		signal:  make(chan struct{}),
	}
}

// dispatch is the subscription listener: it classifies one registry event and
// drives the add/remove state machine. It never blocks on another goroutine's
// hook; mu is only taken for bookkeeping.
func (tr *tracked[T]) dispatch(ev registry.Event) {
	// A delayed event can arrive after Close; drop it.
	if tr.closed.Load() {
		return
	}

	switch ev.Kind {
	case registry.Registered, registry.Modified:
		// Re-match unconditionally. For reference and type criteria the
		// subscription filter already narrowed delivery, but a re-check is
		// cheap and makes liberal registries safe.
		if tr.owner.filter.Matches(ev.Ref) {
			tr.track(ev.Ref)
		} else {
			tr.untrack(ev.Ref)
		}
	case registry.Unregistering:
		tr.untrack(ev.Ref)
	}
}

// track adds a matching reference to the tracked set, or reports a
// modification if it is already committed.
//
// The Adding hook runs with mu released. The pending set is what keeps that
// safe: a concurrent untrack for the same reference removes the pending entry
// instead of touching the map, and the commit step below notices the miss and
// releases the freshly adopted value instead of committing it.
func (tr *tracked[T]) track(ref registry.Reference) {
	tr.mu.Lock()
	value, committed := tr.entries[ref]
	tr.mu.Unlock()

	if committed {
		slog.Debug("tracker: reference modified", "id", registry.ID(ref))
		tr.owner.customizer.Modified(ref, value)
		return
	}

	tr.mu.Lock()
	if tr.isPending(ref) {
		// An adoption for this reference is already in flight; a second
		// racing event must not trigger a second Adding call.
		tr.mu.Unlock()
		return
	}
	tr.pending = append(tr.pending, ref)
	tr.mu.Unlock()

	var adopted T
	var ok bool
	becameUntracked := false

	func() {
		// The deferred commit runs even if Adding panics, so a failed hook
		// cannot leave the reference stuck in the pending set.
		defer func() {
			tr.mu.Lock()
			if tr.removePending(ref) {
				if ok {
					tr.entries[ref] = adopted
					tr.committedLocked()
					slog.Debug("tracker: reference tracked", "id", registry.ID(ref))
				}
			} else {
				// untrack ran during the Adding call and took the pending
				// entry: the registry already considers this reference gone.
				becameUntracked = true
			}
			tr.mu.Unlock()
		}()
		adopted, ok = tr.owner.customizer.Adding(ref)
	}()

	if becameUntracked && ok {
		slog.Debug("tracker: reference untracked during adoption", "id", registry.ID(ref))
		tr.owner.customizer.Removed(ref, adopted)
	}
}

// untrack removes a reference from the tracked set, cancelling an in-flight
// adoption if one exists.
func (tr *tracked[T]) untrack(ref registry.Reference) {
	tr.mu.Lock()
	if tr.removePending(ref) {
		// The in-flight adoption self-cancels via the release-on-miss path
		// in track; nothing was committed, so nothing else to do.
		tr.mu.Unlock()
		return
	}
	value, committed := tr.entries[ref]
	if !committed {
		tr.mu.Unlock()
		return
	}
	delete(tr.entries, ref)
	tr.committedLocked()
	tr.mu.Unlock()

	slog.Debug("tracker: reference untracked", "id", registry.ID(ref))
	tr.owner.customizer.Removed(ref, value)
}

// committedLocked records one committed structural change: advance the
// revision, drop the selection snapshot, and wake waiters. Caller holds mu.
//
// During close the revision stays at its sentinel and the signal channel is
// already closed, so the final untrack sweep skips both.
func (tr *tracked[T]) committedLocked() {
	if tr.closed.Load() {
		return
	}
	tr.owner.revision.Add(1)
	tr.owner.cache.Store(nil)
	close(tr.signal)
	tr.signal = make(chan struct{})
}

// close marks the engine terminal and wakes every waiter so blocked
// WaitForFirst calls can observe the shutdown.
func (tr *tracked[T]) close() {
	tr.mu.Lock()
	if !tr.closed.Swap(true) {
		// Clearing the pending set makes every in-flight adoption observe
		// the miss path and release its value instead of committing into a
		// discarded engine.
		tr.pending = nil
		close(tr.signal)
	}
	tr.mu.Unlock()
}

// waitChan returns the current broadcast channel. Capture it before checking
// the selection: a commit between the capture and the check closes exactly
// this channel, so the subsequent wait returns immediately.
func (tr *tracked[T]) waitChan() <-chan struct{} {
	tr.mu.Lock()
	ch := tr.signal
	tr.mu.Unlock()
	return ch
}

func (tr *tracked[T]) isPending(ref registry.Reference) bool {
	for _, p := range tr.pending {
		if p == ref {
			return true
		}
	}
	return false
}

// removePending removes ref from the pending set, reporting whether it was
// present. Caller holds mu.
func (tr *tracked[T]) removePending(ref registry.Reference) bool {
	for i, p := range tr.pending {
		if p == ref {
			tr.pending[i] = tr.pending[len(tr.pending)-1]
			tr.pending[len(tr.pending)-1] = nil
			tr.pending = tr.pending[:len(tr.pending)-1]
			return true
		}
	}
	return false
}

func (tr *tracked[T]) size() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return len(tr.entries)
}

func (tr *tracked[T]) references() []registry.Reference {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if len(tr.entries) == 0 {
		return nil
	}
	refs := make([]registry.Reference, 0, len(tr.entries))
	for ref := range tr.entries {
		refs = append(refs, ref)
	}
	return refs
}

func (tr *tracked[T]) value(ref registry.Reference) (T, bool) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	v, ok := tr.entries[ref]
	return v, ok
}

func (tr *tracked[T]) values() []T {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if len(tr.entries) == 0 {
		return nil
	}
	vals := make([]T, 0, len(tr.entries))
	for _, v := range tr.entries {
		vals = append(vals, v)
	}
	return vals
}
