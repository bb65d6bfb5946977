// Package harness runs YAML-scripted tracker scenarios.
//
// A scenario describes a registry population, a tracker criterion, a sequence
// of registry mutations, and assertions over the resulting hook trace and
// tracker state. Scenarios execute deterministically: the in-memory registry
// delivers events synchronously and assigns identity ids in registration
// order, so the hook trace for a given scenario is byte-stable and can be
// pinned with golden files.
//
// The harness backs both the package's own conformance tests and the replay
// and trace CLI commands.
package harness
