package archivist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ptr constrains P to a pointer to T that implements Entity, so the
// generic read paths can allocate results themselves.
type ptr[T any] interface {
	*T
	Entity
}

// Get reads the row with id into a fresh entity. Fails with a
// MissingIDError if the id is absent.
func Get[T any, P ptr[T]](ctx context.Context, s *Store, id int64) (*T, error) {
	var e T
	p := P(&e)

	if err := s.AssertID(ctx, p.Table(), id); err != nil {
		return nil, err
	}

	query := s.rebind(fmt.Sprintf(
		"SELECT %s FROM %s WHERE id = ?",
		strings.Join(p.SelectColumns(), ", "), p.Table(),
	))

	if err := s.db.QueryRowContext(ctx, query, id).Scan(p.ScanDests()...); err != nil {
		return nil, fmt.Errorf("getting id %d from %s: %w", id, p.Table(), err)
	}
	return &e, nil
}

// Find returns the first entity matching the predicate (written with ?
// placeholders), or nil if none does.
func Find[T any, P ptr[T]](ctx context.Context, s *Store, predicate string, args ...any) (*T, error) {
	var e T
	p := P(&e)

	query := s.rebind(fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s LIMIT 1",
		strings.Join(p.SelectColumns(), ", "), p.Table(), predicate,
	))

	err := s.db.QueryRowContext(ctx, query, args...).Scan(p.ScanDests()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding in %s: %w", p.Table(), err)
	}
	return &e, nil
}

// GetAll reads every row of the entity's table.
func GetAll[T any, P ptr[T]](ctx context.Context, s *Store) ([]*T, error) {
	var probe T
	p := P(&probe)

	query := fmt.Sprintf(
		"SELECT %s FROM %s",
		strings.Join(p.SelectColumns(), ", "), p.Table(),
	)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("getting all from %s: %w", p.Table(), err)
	}
	defer rows.Close()

	var items []*T
	for rows.Next() {
		var e T
		if err := rows.Scan(P(&e).ScanDests()...); err != nil {
			return nil, fmt.Errorf("scanning row from %s: %w", p.Table(), err)
		}
		items = append(items, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", p.Table(), err)
	}
	return items, nil
}
