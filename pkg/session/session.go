package session

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type (
	// Session is one checked out database connection together with its
	// current unit of work. A Session is owned by a single caller from
	// Acquire until Release.
	Session interface {
		sqlx.ExtContext
	}

	// Transaction is the unit of work opened on a Session. It ends in exactly
	// one of committed or rolled back.
	Transaction interface {
		Commit() error
		Rollback() error

		// Active reports whether the transaction can still be committed or
		// rolled back.
		Active() bool
	}

	// Provider supplies sessions and opens transactions on them.
	Provider interface {
		// Acquire checks out a session. Any error is treated as a connection
		// fault by the executor.
		Acquire(context.Context) (Session, error)

		// Release returns the session to its pool. It must be safe to call on
		// every exit path, including after the connection has failed.
		Release(Session) error

		// Begin opens a new transaction on the session.
		Begin(context.Context, Session) (Transaction, error)
	}
)
