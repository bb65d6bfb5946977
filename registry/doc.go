// Package registry defines the contracts a service registry must satisfy for
// the tracker to observe it.
//
// The registry itself lives elsewhere: it owns service storage, filter
// evaluation, and event delivery. This package only names the surface the
// tracker consumes - references, change events, filters, and the Client
// interface - plus the well-known property keys every conforming registry
// publishes on its references.
//
// A minimal in-memory implementation suitable for tests and local tooling is
// provided by the registrytest subpackage.
package registry
