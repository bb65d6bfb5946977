package tracker

import "github.com/roach88/svctrack/registry"

// Customizer adapts services as they enter and leave the tracked set. The
// tracker invokes every hook outside its internal lock, so hook code may call
// back into the registry or the tracker. A panicking hook is not recovered;
// it propagates to whatever triggered the transition.
type Customizer[T any] interface {
	// Adding is called when a matching reference is about to be tracked.
	// It returns the value to track and ok=true, or ok=false to decline
	// tracking this reference.
	Adding(ref registry.Reference) (T, bool)

	// Modified is called when a tracked reference's registration changes
	// while it still matches the criterion.
	Modified(ref registry.Reference, value T)

	// Removed is called when a tracked reference leaves the set, with the
	// value Adding returned for it.
	Removed(ref registry.Reference, value T)
}

// FuncCustomizer assembles a Customizer from individual functions. Nil
// functions get default behavior: a nil OnAdding tracks the zero value of T
// (useful for pure reference tracking), nil OnModified and OnRemoved do
// nothing.
type FuncCustomizer[T any] struct {
	OnAdding   func(ref registry.Reference) (T, bool)
	OnModified func(ref registry.Reference, value T)
	OnRemoved  func(ref registry.Reference, value T)
}

func (f FuncCustomizer[T]) Adding(ref registry.Reference) (T, bool) {
	if f.OnAdding == nil {
		var zero T
		return zero, true
	}
	return f.OnAdding(ref)
}

func (f FuncCustomizer[T]) Modified(ref registry.Reference, value T) {
	if f.OnModified != nil {
		f.OnModified(ref, value)
	}
}

func (f FuncCustomizer[T]) Removed(ref registry.Reference, value T) {
	if f.OnRemoved != nil {
		f.OnRemoved(ref, value)
	}
}

// defaultCustomizer tracks the registry's own service object: Adding fetches
// it, Removed releases it, Modified does nothing. Used by NewDefault.
type defaultCustomizer struct {
	client registry.Client
}

func (d defaultCustomizer) Adding(ref registry.Reference) (any, bool) {
	return d.client.Service(ref)
}

func (d defaultCustomizer) Modified(ref registry.Reference, value any) {}

func (d defaultCustomizer) Removed(ref registry.Reference, value any) {
	d.client.ReleaseService(ref)
}
