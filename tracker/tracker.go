package tracker

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/roach88/svctrack/registry"
)

// Tracker maintains the set of registry services matching one fixed
// Criterion. All methods are safe for concurrent use. Query methods on a
// tracker that is not open report "nothing tracked" rather than erroring:
// not-open is a valid, queryable state.
type Tracker[T any] struct {
	client       registry.Client
	criterion    Criterion
	customizer   Customizer[T]
	subscription string          // filter expression used for Subscribe
	filter       registry.Filter // compiled criterion, used to re-match events

	// mu serializes Open and Close against each other. Queries never take
	// it; they read the engine through the atomic pointer.
	mu     sync.Mutex
	handle registry.Handle

	engine   atomic.Pointer[tracked[T]]
	revision atomic.Int64
	cache    atomic.Pointer[selection[T]]
}

// New builds a tracker over client for the given criterion. The criterion is
// validated immediately: a malformed shape or a filter expression the
// registry rejects fails with ErrInvalidCriterion. The customizer must be
// non-nil; use NewDefault to track the registry's own service objects.
func New[T any](client registry.Client, criterion Criterion, customizer Customizer[T]) (*Tracker[T], error) {
	if client == nil {
		return nil, fmt.Errorf("tracker: nil registry client")
	}
	if customizer == nil {
		return nil, fmt.Errorf("tracker: nil customizer")
	}

	expr, err := criterion.expr()
	if err != nil {
		return nil, err
	}
	compiled, err := client.CompileFilter(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCriterion, err)
	}

	t := &Tracker[T]{
		client:       client,
		criterion:    criterion,
		customizer:   customizer,
		subscription: expr,
		filter:       compiled,
	}
	t.revision.Store(-1)
	return t, nil
}

// NewDefault builds a tracker whose values are the registry's service objects:
// Adding fetches the object, Removed releases it.
func NewDefault(client registry.Client, criterion Criterion) (*Tracker[any], error) {
	return New[any](client, criterion, defaultCustomizer{client: client})
}

// Open subscribes to the registry's change stream and reconciles against the
// registrations that currently match the criterion. Idempotent: opening an
// open tracker is a no-op. A tracker may be reopened after Close; the
// revision counter restarts at 0 and nothing from the previous cycle is
// implicitly tracked.
//
// The subscription is installed before the initial query so a registration
// landing between the two is not missed; the pending-set logic deduplicates a
// reference seen by both paths down to a single Adding call.
func (t *Tracker[T]) Open() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.engine.Load() != nil {
		return nil
	}

	tr := newTracked(t)
	t.revision.Store(0)

	handle, err := t.client.Subscribe(t.subscription, tr.dispatch)
	if err != nil {
		t.revision.Store(-1)
		return fmt.Errorf("tracker: subscribe: %w", err)
	}
	t.handle = handle
	t.engine.Store(tr)

	refs, err := t.criterion.initialReferences(t.client, t.subscription)
	if err != nil {
		// Roll back to the not-open state; a failed open must not leave a
		// live subscription behind.
		tr.close()
		t.engine.Store(nil)
		t.revision.Store(-1)
		if uerr := t.client.Unsubscribe(handle); uerr != nil {
			slog.Debug("tracker: unsubscribe after failed open", "error", uerr)
		}
		return fmt.Errorf("tracker: initial query: %w", err)
	}

	for _, ref := range refs {
		// Skip registrations that vanished between query and track.
		if ref == nil || !ref.Live() {
			continue
		}
		tr.track(ref)
	}

	slog.Info("tracker: open", "criterion", t.criterion.String(), "initial", tr.size())
	return nil
}

// Close stops tracking: it unsubscribes from the registry (tolerating a
// registry that is already torn down) and drives Removed for every still
// committed reference. Idempotent. After Close all queries report nothing
// tracked and Revision reads -1.
func (t *Tracker[T]) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	tr := t.engine.Load()
	if tr == nil {
		return
	}

	tr.close()
	refs := tr.references()

	t.engine.Store(nil)
	t.revision.Store(-1)
	t.cache.Store(nil)

	if err := t.client.Unsubscribe(t.handle); err != nil {
		// Best-effort cleanup: the registry may already be gone.
		slog.Debug("tracker: unsubscribe during close", "error", err)
	}

	for _, ref := range refs {
		tr.untrack(ref)
	}

	slog.Info("tracker: closed", "criterion", t.criterion.String(), "released", len(refs))
}

// References returns every tracked reference, in no particular order, or nil
// if nothing is tracked.
func (t *Tracker[T]) References() []registry.Reference {
	tr := t.engine.Load()
	if tr == nil {
		return nil
	}
	return tr.references()
}

// Reference returns the best tracked reference: highest ranking, ties broken
// by lowest identity id.
func (t *Tracker[T]) Reference() (registry.Reference, bool) {
	s := t.selected()
	if s == nil {
		return nil, false
	}
	return s.ref, true
}

// Value returns the tracked value for a specific reference.
func (t *Tracker[T]) Value(ref registry.Reference) (T, bool) {
	tr := t.engine.Load()
	if tr == nil {
		var zero T
		return zero, false
	}
	return tr.value(ref)
}

// Values returns every tracked value, in no particular order, or nil if
// nothing is tracked.
func (t *Tracker[T]) Values() []T {
	tr := t.engine.Load()
	if tr == nil {
		return nil
	}
	return tr.values()
}

// Selected returns the value tracked for the best reference.
func (t *Tracker[T]) Selected() (T, bool) {
	s := t.selected()
	if s == nil {
		var zero T
		return zero, false
	}
	return s.value, true
}

// Remove force-untracks a specific reference, driving its Removed hook. The
// reference may be rediscovered by a later registry event.
func (t *Tracker[T]) Remove(ref registry.Reference) {
	tr := t.engine.Load()
	if tr == nil {
		return
	}
	tr.untrack(ref)
}

// Size returns the number of tracked references.
func (t *Tracker[T]) Size() int {
	tr := t.engine.Load()
	if tr == nil {
		return 0
	}
	return tr.size()
}

// Revision returns the modification counter: 0 at Open, advanced by every
// committed add or remove, -1 while not open. Two equal readings bracket a
// window with no structural change; readings from different open/close
// cycles are not comparable.
func (t *Tracker[T]) Revision() int64 {
	return t.revision.Load()
}
