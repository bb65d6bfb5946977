package registry

// EventKind classifies a registry change notification.
type EventKind int

const (
	// Registered signals a new service registration.
	Registered EventKind = iota + 1
	// Modified signals a property change on an existing registration.
	Modified
	// Unregistering signals a registration that is about to disappear. The
	// service object is still retrievable while the event is being delivered.
	Unregistering
)

// String returns the lowercase kind name for logs and traces.
func (k EventKind) String() string {
	switch k {
	case Registered:
		return "registered"
	case Modified:
		return "modified"
	case Unregistering:
		return "unregistering"
	default:
		return "unknown"
	}
}

// Event is one registry change notification. Each event carries exactly one
// reference; the registry may deliver events from any goroutine.
type Event struct {
	Kind EventKind
	Ref  Reference
}
