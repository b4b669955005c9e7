// Package fault defines the failure taxonomy shared by the executor and the
// schema applier.
//
// Two separate concepts live here:
//
//   - Class describes how a raw driver error should be treated by the retry
//     loop (transient, connection, or permanent). Backends implement the
//     Classifier interface to map their native error types onto a Class.
//   - Kind describes a terminal failure handed back to callers once the
//     executor has given up (or decided retrying makes no sense). Terminal
//     failures are always *Error values that wrap the original cause.
//
// # Usage Example
//
//	result, err := executor.Perform(ctx, exec, func(tc *executor.TaskContext) (int, error) {
//		return countRows(ctx, tc.Session())
//	})
//	switch {
//	case fault.IsKind(err, fault.KindConnection):
//		// the database could not be reached after all reconnect attempts
//	case fault.IsKind(err, fault.KindTransient):
//		// deadlocks kept happening until the retry budget ran out
//	case err != nil:
//		// anything else, the cause is available through errors.Cause
//	}
package fault
