package executor

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/pseudomuto/txkeeper/pkg/config"
	"github.com/pseudomuto/txkeeper/pkg/fault"
	"github.com/pseudomuto/txkeeper/pkg/session"
)

type (
	// Task is a unit of work run inside a transaction. It may be invoked more
	// than once, each time with a fresh TaskContext, so any side effect that
	// must happen at most once belongs in a queued Action.
	Task func(*TaskContext) (any, error)

	// Executor runs tasks in transactions, retrying transient and connection
	// faults within the configured budgets.
	//
	// Two budgets are tracked independently. The connection budget is shared
	// by a whole PerformTask call and is consumed every time a session cannot
	// be acquired or is lost mid attempt. The transaction budget belongs to a
	// single session and is consumed by transient faults (deadlocks,
	// serialization failures, lock wait timeouts); reacquiring a session
	// resets it.
	//
	// Example usage:
	//
	//	exec := executor.New(executor.Config{
	//		Provider:   session.NewSQLProvider(db, nil),
	//		Classifier: d,
	//		Retry:      cfg.Retry,
	//	})
	//
	//	id, err := executor.Perform(ctx, exec, func(tc *executor.TaskContext) (int64, error) {
	//		res, err := tc.Session().ExecContext(ctx, "INSERT INTO players (name) VALUES (?)", name)
	//		if err != nil {
	//			return 0, err
	//		}
	//
	//		tc.Queue(func(ctx context.Context) error {
	//			return cache.Invalidate(ctx, name)
	//		})
	//
	//		return res.LastInsertId()
	//	})
	//
	// An Executor holds no per-call state and is safe for concurrent use.
	Executor struct {
		provider   session.Provider
		classifier fault.Classifier
		retry      config.Retry
		logger     *slog.Logger
		metrics    *Metrics
	}

	// Config contains configuration options for creating a new Executor.
	Config struct {
		// Provider supplies sessions and transactions
		Provider session.Provider

		// Classifier sorts task and commit errors into retry classes. When nil
		// every error is permanent.
		Classifier fault.Classifier

		// Retry holds the connection and transaction retry budgets
		Retry config.Retry

		// Logger defaults to slog.Default()
		Logger *slog.Logger

		// Metrics defaults to an unregistered set of collectors
		Metrics *Metrics
	}

	step int
)

const (
	stepDone step = iota
	stepRetryAttempt
	stepRetryConnection
)

// New creates a new Executor with the provided configuration.
func New(cfg Config) *Executor {
	e := &Executor{
		provider:   cfg.Provider,
		classifier: cfg.Classifier,
		retry:      cfg.Retry,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}

	if e.classifier == nil {
		e.classifier = fault.ClassifierFunc(func(error) fault.Class { return fault.ClassPermanent })
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}

	if e.metrics == nil {
		e.metrics = NewMetrics()
	}

	return e
}

// Perform is the typed form of PerformTask.
func Perform[T any](ctx context.Context, e *Executor, fn func(*TaskContext) (T, error)) (T, error) {
	var zero T

	res, err := e.PerformTask(ctx, func(tc *TaskContext) (any, error) {
		return fn(tc)
	})
	if err != nil {
		return zero, err
	}

	v, ok := res.(T)
	if !ok {
		return zero, nil
	}

	return v, nil
}

// Run executes a task that produces no value.
func (e *Executor) Run(ctx context.Context, fn func(*TaskContext) error) error {
	_, err := e.PerformTask(ctx, func(tc *TaskContext) (any, error) {
		return nil, fn(tc)
	})

	return err
}

// PerformTask runs task inside a transaction and returns its result once the
// transaction has committed and the commit queue has been drained.
//
// Terminal failures are returned as *fault.Error values carrying the original
// cause:
//
//   - fault.KindConnection when the connection budget is exhausted
//   - fault.KindTransient when the transaction budget is exhausted
//   - fault.KindTask for any other task, begin, commit or rollback failure
//   - fault.KindDeferredAction when a queued action fails
func (e *Executor) PerformTask(ctx context.Context, task Task) (any, error) {
	log := e.logger.With("call_id", uuid.NewString())
	reconnect := e.reconnectBackOff()

	for connFaults := 0; ; {
		result, next, err := e.withSession(ctx, log, task)
		if next != stepRetryConnection {
			if err != nil {
				e.metrics.failed(err)
			}

			return result, err
		}

		connFaults++
		if connFaults > e.retry.MaxConnectionRetries {
			err = fault.New(fault.KindConnection, "connect", connFaults, err)
			log.Error("connection retries exhausted", "attempts", connFaults, "err", err)
			e.metrics.failed(err)
			return nil, err
		}

		log.Warn("connection fault, reacquiring session", "attempt", connFaults, "err", err)
		if werr := wait(ctx, reconnect); werr != nil {
			err = fault.New(fault.KindConnection, "connect", connFaults, errors.Wrapf(werr, "gave up reconnecting after: %v", err))
			e.metrics.failed(err)
			return nil, err
		}

		e.metrics.ConnectionRetries.Inc()
	}
}

// withSession acquires a session and runs attempts on it until one succeeds,
// fails terminally or loses the connection. The session is always released.
func (e *Executor) withSession(ctx context.Context, log *slog.Logger, task Task) (any, step, error) {
	s, err := e.provider.Acquire(ctx)
	if err != nil {
		return nil, stepRetryConnection, err
	}

	defer func() {
		if err := e.provider.Release(s); err != nil {
			log.Warn("failed to release session", "err", err)
		}
	}()

	for attempts := 0; ; {
		result, next, err := e.attempt(ctx, log, s, task)
		if next != stepRetryAttempt {
			return result, next, err
		}

		attempts++
		if attempts > e.retry.MaxTransactionRetries {
			log.Error("transaction retries exhausted", "attempts", attempts, "err", err)
			return nil, stepDone, fault.New(fault.KindTransient, "task", attempts, err)
		}

		log.Warn("transient fault, retrying transaction", "attempt", attempts, "err", err)
		e.metrics.TransactionRetries.Inc()
	}
}

// attempt runs a single transaction. For the retry steps the returned error
// is the raw cause; for stepDone it is nil or a *fault.Error.
func (e *Executor) attempt(ctx context.Context, log *slog.Logger, s session.Session, task Task) (any, step, error) {
	e.metrics.Attempts.Inc()

	tx, err := e.provider.Begin(ctx, s)
	if err != nil {
		if e.classifier.Classify(err) == fault.ClassConnection {
			return nil, stepRetryConnection, err
		}

		return nil, stepDone, fault.New(fault.KindTask, "begin", 0, err)
	}

	tc := NewTaskContext(s)
	op := "task"

	result, err := invoke(tx, tc, task)
	if err == nil {
		op = "commit"
		if err = tx.Commit(); err == nil {
			e.metrics.Commits.Inc()

			if err := tc.ExecuteTasks(ctx); err != nil {
				return nil, stepDone, fault.New(fault.KindDeferredAction, "commit", 0, err)
			}

			return result, stepDone, nil
		}
	}

	class := e.classifier.Classify(err)
	if tx.Active() {
		if rerr := tx.Rollback(); rerr != nil {
			if class != fault.ClassConnection && e.classifier.Classify(rerr) != fault.ClassConnection {
				return nil, stepDone, fault.New(fault.KindTask, "rollback", 0, errors.Wrapf(err, "rollback failed: %v", rerr))
			}

			// The server discards the transaction with the connection.
			class = fault.ClassConnection
		}
	} else if op != "commit" {
		return nil, stepDone, fault.New(fault.KindTask, op, 0, errors.Wrap(err, "transaction ended by task"))
	}

	e.metrics.Rollbacks.Inc()
	log.Debug("transaction rolled back", "op", op, "class", class.String(), "err", err)

	if err := tc.ExecuteRollbackTasks(ctx); err != nil {
		return nil, stepDone, fault.New(fault.KindDeferredAction, "rollback", 0, err)
	}

	switch class {
	case fault.ClassTransient:
		return nil, stepRetryAttempt, err
	case fault.ClassConnection:
		return nil, stepRetryConnection, err
	}

	return nil, stepDone, fault.New(fault.KindTask, op, 0, err)
}

func (e *Executor) reconnectBackOff() backoff.BackOff {
	if e.retry.ReconnectBackoff <= 0 {
		return &backoff.ZeroBackOff{}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.retry.ReconnectBackoff
	b.MaxElapsedTime = 0
	b.Reset()

	return b
}

// invoke runs the task, rolling back if it panics.
func invoke(tx session.Transaction, tc *TaskContext, task Task) (any, error) {
	defer func() {
		if r := recover(); r != nil {
			if tx.Active() {
				_ = tx.Rollback()
			}

			panic(r)
		}
	}()

	return task(tc)
}

func wait(ctx context.Context, b backoff.BackOff) error {
	d := b.NextBackOff()
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
