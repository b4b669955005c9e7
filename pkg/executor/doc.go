// Package executor runs units of work inside database transactions and
// retries them transparently when the failure is one a replay can fix.
//
// # Core Components
//
//   - Executor: acquires sessions, opens and ends transactions, and applies
//     the retry policy
//   - TaskContext: per attempt carrier of the live session and of the
//     actions deferred until the transaction outcome is known
//   - Metrics: prometheus counters for attempts, outcomes and retries
//
// # Retry Model
//
// Each PerformTask call walks the following states:
//
//	AcquireSession -> BeginAttempt -> RunTask -> Commit  -> Succeed
//	      ^               ^              |          |
//	      |               |              v          v
//	      |          RetryAttempt <-- Rollback <----+
//	      |                              |
//	      +------- RetryConnection <-----+---------------> Fail
//
// Failing to acquire a session, or losing the connection during an attempt,
// costs one unit of the call's connection budget (Retry.MaxConnectionRetries)
// and restarts from AcquireSession after an exponential backoff. Transient
// faults cost one unit of the session's transaction budget
// (Retry.MaxTransactionRetries) and replay the task on the same session with
// a fresh TaskContext. Everything else fails immediately.
//
// # Deferred Actions
//
// Tasks must not perform external side effects directly because they may be
// replayed. Instead they register them on the TaskContext:
//
//	err := exec.Run(ctx, func(tc *executor.TaskContext) error {
//		if _, err := tc.Session().ExecContext(ctx, "UPDATE accounts SET balance = balance - 10 WHERE id = ?", id); err != nil {
//			return err
//		}
//
//		tc.Queue(func(ctx context.Context) error { return notify(ctx, id) })
//		tc.OnRollback(func(ctx context.Context) error { return audit(ctx, id) })
//		return nil
//	})
//
// Queued actions run only after commit, rollback actions only after
// rollback. Each queue runs in registration order and stops at the first
// failing action. Queues of a retried attempt that was rolled back have only
// their rollback actions run; the commit actions are discarded.
package executor
