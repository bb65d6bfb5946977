package tracker

import "github.com/roach88/svctrack/registry"

// selection is the immutable "best reference" snapshot. It is published as a
// whole through an atomic pointer so readers never see a reference paired
// with a value from a different instant.
type selection[T any] struct {
	ref   registry.Reference
	value T
}

// selected returns the current best selection, recomputing and re-publishing
// the snapshot on a cache miss. Returns nil with zero tracked references or
// while the tracker is not open.
func (t *Tracker[T]) selected() *selection[T] {
	if s := t.cache.Load(); s != nil {
		return s
	}

	tr := t.engine.Load()
	if tr == nil {
		return nil
	}

	// The scan, the value lookup, and the publish all happen under the
	// engine lock, so a concurrent commit cannot invalidate the snapshot
	// after it is stored: commits take the same lock and clear the cache.
	tr.mu.Lock()
	defer tr.mu.Unlock()

	var best registry.Reference
	var bestRanking int
	var bestID int64
	for ref := range tr.entries {
		ranking, id := registry.Ranking(ref), registry.ID(ref)
		switch {
		case best == nil:
		case ranking > bestRanking:
		case ranking == bestRanking && id < bestID:
		default:
			continue
		}
		best, bestRanking, bestID = ref, ranking, id
	}
	if best == nil {
		return nil
	}

	s := &selection[T]{ref: best, value: tr.entries[best]}
	t.cache.Store(s)
	return s
}
