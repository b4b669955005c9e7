package executor

import (
	"context"

	"github.com/pkg/errors"
	"github.com/pseudomuto/txkeeper/pkg/session"
)

type (
	// Action is a deferred side effect that runs once the outcome of the
	// surrounding transaction is final.
	Action func(context.Context) error

	// TaskContext is handed to every transaction attempt. It exposes the live
	// session and collects the actions to run after commit or rollback.
	//
	// A TaskContext belongs to exactly one attempt and must not be retained
	// by the task once it returns.
	TaskContext struct {
		session    session.Session
		onCommit   []Action
		onRollback []Action
		drained    bool
	}
)

// ErrContextDrained is returned when a TaskContext's queues are drained a
// second time.
var ErrContextDrained = errors.New("task context already drained")

// NewTaskContext creates an empty context bound to s.
func NewTaskContext(s session.Session) *TaskContext {
	return &TaskContext{session: s}
}

// Session returns the session the current transaction is running on.
func (tc *TaskContext) Session() session.Session {
	return tc.session
}

// Queue registers an action to run after the transaction commits.
func (tc *TaskContext) Queue(a Action) {
	tc.onCommit = append(tc.onCommit, a)
}

// OnRollback registers an action to run after the transaction rolls back.
func (tc *TaskContext) OnRollback(a Action) {
	tc.onRollback = append(tc.onRollback, a)
}

// ExecuteTasks runs the commit queue in the order the actions were queued,
// stopping at the first failure.
func (tc *TaskContext) ExecuteTasks(ctx context.Context) error {
	return tc.drain(ctx, "commit", tc.onCommit)
}

// ExecuteRollbackTasks runs the rollback queue in the order the actions were
// registered, stopping at the first failure.
func (tc *TaskContext) ExecuteRollbackTasks(ctx context.Context) error {
	return tc.drain(ctx, "rollback", tc.onRollback)
}

// Pending returns the number of queued commit and rollback actions.
func (tc *TaskContext) Pending() (commit, rollback int) {
	return len(tc.onCommit), len(tc.onRollback)
}

func (tc *TaskContext) drain(ctx context.Context, queue string, actions []Action) error {
	if tc.drained {
		return ErrContextDrained
	}

	tc.drained = true
	tc.onCommit, tc.onRollback = nil, nil

	for i, action := range actions {
		if err := action(ctx); err != nil {
			return errors.Wrapf(err, "%s action %d of %d failed", queue, i+1, len(actions))
		}
	}

	return nil
}
