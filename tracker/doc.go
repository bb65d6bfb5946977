// Package tracker maintains a live, internally consistent view of the
// services in a registry that match a fixed selection criterion.
//
// A Tracker is built from a registry client, a Criterion (single reference,
// type name, or filter expression), and a Customizer whose hooks adapt
// services as they enter and leave the tracked set. Open subscribes to the
// registry's change stream and reconciles against the current registrations;
// from then on the tracker converts asynchronous change events into a
// coherent, queryable snapshot.
//
// GUARANTEES:
//
// Hook discipline:
// For any single reference, Adding and Removed calls alternate - never a
// Removed before an Adding, never two outstanding Addings - regardless of how
// registration and unregistration events interleave with hook execution.
// Hooks always run outside the tracker's internal lock, so hook code may call
// back into the registry or the tracker without deadlocking against the
// event-delivery goroutine.
//
// Selection:
// Among tracked references, the best is the one with the highest ranking;
// ties go to the lowest identity id (earliest registered). The selection is
// cached as an atomically published snapshot: reads are lock-free, a stale
// snapshot is never served after a committed add or remove.
//
// Revision counter:
// Every committed add or remove advances Revision by one. The counter starts
// at 0 on Open and reads -1 while the tracker is not open; values from
// different open/close cycles are not comparable.
package tracker
