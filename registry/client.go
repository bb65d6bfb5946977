package registry

// Handle identifies one change-stream subscription for later cancellation.
type Handle string

// Filter is a compiled selection predicate over reference properties. The
// filter language belongs to the registry; consumers only compile and match.
type Filter interface {
	// Matches reports whether the reference's current properties satisfy
	// the filter.
	Matches(ref Reference) bool

	// String returns the source expression the filter was compiled from.
	String() string
}

// Client is the registry surface the tracker consumes.
//
// Implementations must not invoke subscription listeners synchronously from
// Subscribe or Unsubscribe. Listeners may be invoked from arbitrary
// goroutines and must be prepared for that.
type Client interface {
	// CompileFilter parses a filter expression. A syntactically invalid
	// expression fails with an error wrapping ErrInvalidFilter.
	CompileFilter(expr string) (Filter, error)

	// Subscribe registers a listener for change events. An empty filter
	// subscribes to all events; a non-empty filter narrows delivery, though
	// registries may deliver liberally and rely on consumers re-matching.
	Subscribe(filter string, listener func(Event)) (Handle, error)

	// Unsubscribe cancels a subscription. Unknown handles fail with an
	// error wrapping ErrUnknownSubscription.
	Unsubscribe(h Handle) error

	// References queries current registrations. Either argument may be
	// empty: typeName narrows to one capability type, filter applies a
	// compiled predicate. A bad filter fails with ErrInvalidFilter.
	References(typeName, filter string) ([]Reference, error)

	// Service returns the service object behind a reference, or ok=false
	// if the registration is gone.
	Service(ref Reference) (any, bool)

	// ReleaseService tells the registry the caller no longer uses the
	// service object obtained via Service.
	ReleaseService(ref Reference)
}
