// Package harness provides a concurrency stress-testing harness.
//
// The harness runs an action many times concurrently on a bounded worker
// pool, waits for every invocation to finish within a deadline, and reports
// whether any invocation failed, whether all of them finished, and,
// optionally, whether a caller-supplied post-condition holds.
//
// # Usage
//
//	err := harness.Execute(func() error {
//	    list.Add("test")
//	    return list.Iterate()
//	}).Repeat(1000).Verify()
//
// # Verification Order
//
// After the wait returns (all done, or Timeout elapsed) the verifier checks,
// in order:
//
//  1. Failure: the first error or panic raised by any invocation is returned
//     verbatim. Panics are returned as *PanicError.
//  2. Completion: if invocations are outstanding and CompleteExecution is
//     set, an *IncompleteExecutionError reports how many.
//  3. Post-condition: VerifyWith/VerifyFunc checks run last and fail with a
//     *CustomVerificationError.
//
// # Failure Policy
//
// When several invocations fail concurrently the first recorded failure
// wins (atomic compare-and-swap). The total number of failures is available
// in Result.Failures.
//
// # Timeouts
//
// The harness stops waiting at the deadline but never kills invocations.
// Invocations blocked forever (a lock that is never released, for example)
// stay alive after Verify returns. Actions created with ExecuteContext get a
// context that is cancelled when verification returns so they can stop.
package harness
