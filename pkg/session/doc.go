// Package session defines the capability set the transactional executor
// depends on and provides the database/sql implementation of it.
//
// A Provider hands out Sessions, each bound to exactly one pooled connection
// for as long as the caller holds it, and opens Transactions on them. The
// executor never talks to a driver directly; swapping the backend means
// supplying a different Provider.
//
// Session satisfies sqlx.ExtContext, so task bodies can use the usual sqlx
// helpers against it:
//
//	var names []string
//	err := sqlx.SelectContext(ctx, tc.Session(), &names, "SELECT name FROM players")
//
// While a transaction is open on a session every statement issued through
// the session runs inside that transaction.
package session
