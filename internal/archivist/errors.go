package archivist

import (
	"errors"
	"fmt"
)

// Transaction state errors.
var (
	// ErrTransactionLive is returned by StartTransaction when a
	// transaction is already open on this store.
	ErrTransactionLive = errors.New("a transaction is already live")

	// ErrNoTransactionToCommit is returned by CommitTransaction when
	// no transaction is open.
	ErrNoTransactionToCommit = errors.New("no transaction to commit")

	// ErrNoTransactionToRollback is returned by RollbackTransaction
	// when no transaction is open.
	ErrNoTransactionToRollback = errors.New("no transaction to rollback")
)

// MissingIDError reports a lookup of an id that does not exist.
type MissingIDError struct {
	Table Table
	ID    int64
}

func (e *MissingIDError) Error() string {
	return fmt.Sprintf("there is no entry with id %d in table %q", e.ID, e.Table)
}

// AlreadyExistsError reports a uniqueness collision: the serialized
// values of the rejected entity, the table, and the id of the row it
// collided with.
type AlreadyExistsError struct {
	Values string
	Table  Table
	ID     int64
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf(
		"(%s) conflicts with preexisting entry (id = %d) in %s",
		e.Values, e.ID, e.Table,
	)
}
