// Package fixtures contains deliberately broken and correctly guarded
// concurrent types used to exercise the harness.
//
// Each hazard comes in a failing and a passing flavour:
//
//   - Deadlock: a lock that is never released vs. a deferred unlock
//   - Concurrent modification: fail-fast iteration racing writers vs.
//     snapshot iteration
//   - Nil race: clear-then-assign without a guard vs. under a mutex
//   - Semaphore: an unguarded critical section vs. a try-acquire guard
//
// The Registry exposes every fixture by name for the CLI and scenario files.
package fixtures
