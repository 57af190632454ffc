// Package archivist is the single gateway to persisted metadata. Every
// mutating operation runs inside a transaction; the store holds at most
// one live transaction at a time and auto-starts one (with a warning)
// for mutations issued outside an explicit transaction.
//
// Read operations always query the shared connection pool directly and
// never the pending transaction, so a caller cannot observe its own
// uncommitted writes. This boundary is load-bearing; see the tests.
package archivist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SGullin/arpa/internal/logging"
)

// Store keeps a live connection pool to the database and routes all
// reads and writes. It is not safe for concurrent use across runs that
// need transactions; transactional sections must be serialized.
type Store struct {
	db             *sql.DB
	driver         string
	acquireTimeout time.Duration
	logger         logging.Logger

	tx *sql.Tx
}

// New wraps an open connection pool. driver must match the driver the
// pool was opened with ("sqlite3" or "pgx"); it selects the placeholder
// style. acquireTimeout bounds connection checkout for transactions.
func New(db *sql.DB, driver string, acquireTimeout time.Duration, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Store{
		db:             db,
		driver:         driver,
		acquireTimeout: acquireTimeout,
		logger:         logger,
	}
}

// DB exposes the underlying pool for read-only collaborators.
func (s *Store) DB() *sql.DB { return s.db }

// Live reports whether a transaction is currently open.
func (s *Store) Live() bool { return s.tx != nil }

// StartTransaction opens a new transaction. It fails with
// ErrTransactionLive if one is already open.
func (s *Store) StartTransaction(ctx context.Context) error {
	if s.tx != nil {
		return ErrTransactionLive
	}
	return s.begin(ctx)
}

// CommitTransaction commits the live transaction. It fails with
// ErrNoTransactionToCommit if none is open.
func (s *Store) CommitTransaction() error {
	if s.tx == nil {
		return ErrNoTransactionToCommit
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// RollbackTransaction discards the live transaction. It fails with
// ErrNoTransactionToRollback if none is open.
func (s *Store) RollbackTransaction() error {
	if s.tx == nil {
		return ErrNoTransactionToRollback
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Rollback(); err != nil {
		return fmt.Errorf("rolling back transaction: %w", err)
	}
	return nil
}

// Abandon rolls back any live transaction, ignoring errors. Deferring
// it guarantees release semantics: a transaction never outlives the
// scope that opened it unless committed first.
func (s *Store) Abandon() {
	if s.tx == nil {
		return
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		s.logger.Warn("abandoning transaction", "error", err)
	}
}

// Close abandons any live transaction and closes the pool.
func (s *Store) Close() error {
	s.Abandon()
	return s.db.Close()
}

// IDExists reports whether a row with id exists in table.
func (s *Store) IDExists(ctx context.Context, table Table, id int64) (bool, error) {
	query := s.rebind(fmt.Sprintf(
		"SELECT EXISTS (SELECT 1 FROM %s WHERE id = ?)", table,
	))

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking id %d in %s: %w", id, table, err)
	}
	return exists, nil
}

// AssertID fails with a MissingIDError if id is absent from table.
func (s *Store) AssertID(ctx context.Context, table Table, id int64) error {
	exists, err := s.IDExists(ctx, table, id)
	if err != nil {
		return err
	}
	if !exists {
		return &MissingIDError{Table: table, ID: id}
	}
	return nil
}

// AssertUnique fails with an AlreadyExistsError if any persisted row
// matches the entity on any one of its declared unique columns. An
// empty unique set always passes.
func (s *Store) AssertUnique(ctx context.Context, e Entity) error {
	cols := e.UniqueColumns()
	if len(cols) == 0 {
		return nil
	}

	preds := make([]string, len(cols))
	for i, c := range cols {
		preds[i] = c + " = ?"
	}
	query := s.rebind(fmt.Sprintf(
		"SELECT id FROM %s WHERE %s",
		e.Table(), strings.Join(preds, " OR "),
	))

	var id int64
	err := s.db.QueryRowContext(ctx, query, e.UniqueValues()...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking uniqueness in %s: %w", e.Table(), err)
	}

	return &AlreadyExistsError{
		Values: serializeValues(e.InsertValues()),
		Table:  e.Table(),
		ID:     id,
	}
}

// Insert adds a new row for the entity, making sure no unique fields
// collide, and returns the assigned id. The entity's id is set too.
// Runs in the live transaction, auto-starting one if none is open.
func (s *Store) Insert(ctx context.Context, e Entity) (int64, error) {
	if err := s.AssertUnique(ctx, e); err != nil {
		return 0, err
	}

	cols := e.InsertColumns()
	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = "?"
	}
	query := s.rebind(fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		e.Table(),
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
	))

	tx, err := s.transaction(ctx)
	if err != nil {
		return 0, err
	}

	var id int64
	if err := tx.QueryRowContext(ctx, query, e.InsertValues()...).Scan(&id); err != nil {
		return 0, fmt.Errorf("inserting into %s: %w", e.Table(), err)
	}

	e.SetID(id)
	return id, nil
}

// Update sets the given assignment (e.g. "n_channels = ?") on the row
// with id. The id must exist. Runs in the live transaction.
func (s *Store) Update(ctx context.Context, table Table, id int64, assignment string, args ...any) error {
	if err := s.AssertID(ctx, table, id); err != nil {
		return err
	}

	query := s.rebind(fmt.Sprintf(
		"UPDATE %s SET %s WHERE id = ?", table, assignment,
	))
	args = append(args, id)

	tx, err := s.transaction(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("updating %s id %d: %w", table, id, err)
	}
	return nil
}

// UpdateFromCache overwrites every insert column of the row with id
// using the entity's current in-memory values.
func (s *Store) UpdateFromCache(ctx context.Context, e Entity, id int64) error {
	if err := s.AssertID(ctx, e.Table(), id); err != nil {
		return err
	}

	cols := e.InsertColumns()
	assignments := make([]string, len(cols))
	for i, c := range cols {
		assignments[i] = c + " = ?"
	}
	query := s.rebind(fmt.Sprintf(
		"UPDATE %s SET %s WHERE id = ?",
		e.Table(), strings.Join(assignments, ", "),
	))
	args := append(e.InsertValues(), id)

	tx, err := s.transaction(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("updating %s id %d from cache: %w", e.Table(), id, err)
	}
	return nil
}

// Delete removes the row with id from table. A missing id is logged
// and treated as success, so deletes are idempotent.
func (s *Store) Delete(ctx context.Context, table Table, id int64) error {
	exists, err := s.IDExists(ctx, table, id)
	if err != nil {
		return err
	}
	if !exists {
		s.logger.Warn("entry does not exist, nothing to remove", "table", table, "id", id)
		return nil
	}

	query := s.rebind(fmt.Sprintf("DELETE FROM %s WHERE id = ?", table))

	tx, err := s.transaction(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("deleting from %s: %w", table, err)
	}
	return nil
}

// SelectWhere reads the given columns for the first row of table
// matching the predicate into dests. Returns false if no row matches.
// This is for values not present in any entity struct.
func (s *Store) SelectWhere(ctx context.Context, table Table, columns []string, predicate string, args []any, dests ...any) (bool, error) {
	query := s.rebind(fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s LIMIT 1",
		strings.Join(columns, ", "), table, predicate,
	))

	err := s.db.QueryRowContext(ctx, query, args...).Scan(dests...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("selecting from %s: %w", table, err)
	}
	return true, nil
}

// transaction returns the live transaction, starting one first (with a
// warning, not an error) if none is open.
func (s *Store) transaction(ctx context.Context) (*sql.Tx, error) {
	if s.tx == nil {
		s.logger.Warn("started implicit transaction")
		if err := s.begin(ctx); err != nil {
			return nil, err
		}
	}
	return s.tx, nil
}

func (s *Store) begin(ctx context.Context) error {
	// Connection checkout is bounded by the configured acquire
	// timeout; the transaction itself is not.
	if s.acquireTimeout > 0 {
		pingCtx, cancel := context.WithTimeout(ctx, s.acquireTimeout)
		defer cancel()
		if err := s.db.PingContext(pingCtx); err != nil {
			return fmt.Errorf("acquiring connection: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	s.tx = tx
	return nil
}

// rebind rewrites ? placeholders to the $n style when the store talks
// to postgres. Queries are written with ? throughout.
func (s *Store) rebind(query string) string {
	if s.driver != "pgx" && s.driver != "postgres" {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func serializeValues(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%v", v)
	}
	return strings.Join(parts, ", ")
}
