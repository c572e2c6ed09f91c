// Package store implements a generic typed persistence layer over Bun:
// uniform CRUD semantics, error normalization, and a transaction
// boundary shared by every entity kind.
package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Stable text codes for persistence failures.
const (
	TextCodeRecordNotFound  = "RECORD_NOT_FOUND"
	TextCodeUniqueViolation = "UNIQUE_VIOLATION"
	TextCodePersistence     = "PERSISTENCE_ERROR"
)

// ModelHandlers teaches the store how to mint and identify records of
// a given model type.
type ModelHandlers[T any] struct {
	NewRecord func() T
	GetID     func(T) uuid.UUID
	SetID     func(T, uuid.UUID)
}

// SelectCriteria narrows a select query.
type SelectCriteria func(*bun.SelectQuery) *bun.SelectQuery

// UpdateCriteria narrows an update query.
type UpdateCriteria func(*bun.UpdateQuery) *bun.UpdateQuery

// SelectBy matches a single column against a value.
func SelectBy(column string, value any) SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias."+column+" = ?", value)
	}
}

// UpdateBy matches a single column against a value.
func UpdateBy(column string, value any) UpdateCriteria {
	return func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Where("?TableAlias."+column+" = ?", value)
	}
}

// Store is a typed repository over a single Bun model. All reads after
// writes go back through the database so callers always see the
// persisted row.
type Store[T any] struct {
	db       *bun.DB
	handlers ModelHandlers[T]
}

// New creates a Store for the given model type.
func New[T any](db *bun.DB, handlers ModelHandlers[T]) *Store[T] {
	return &Store[T]{db: db, handlers: handlers}
}

// DB exposes the underlying handle for specialized queries.
func (s *Store[T]) DB() *bun.DB {
	return s.db
}

// Create inserts the record and returns it re-read from the database.
func (s *Store[T]) Create(ctx context.Context, record T) (T, error) {
	return s.CreateTx(ctx, s.db, record)
}

// CreateTx is Create inside an existing transaction.
func (s *Store[T]) CreateTx(ctx context.Context, tx bun.IDB, record T) (T, error) {
	s.ensureID(record)

	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		var zero T
		return zero, normalizeError(err, "create")
	}

	return s.GetByIDTx(ctx, tx, s.handlers.GetID(record))
}

// GetByID fetches a record by primary key.
func (s *Store[T]) GetByID(ctx context.Context, id uuid.UUID) (T, error) {
	return s.GetByIDTx(ctx, s.db, id)
}

// GetByIDTx is GetByID inside an existing transaction.
func (s *Store[T]) GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (T, error) {
	record := s.handlers.NewRecord()

	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		var zero T
		return zero, normalizeError(err, "get_by_id")
	}

	return record, nil
}

// Find returns the single record matching the criteria. When several
// rows match, an arbitrary one is returned; absence is a not-found
// error.
func (s *Store[T]) Find(ctx context.Context, criteria ...SelectCriteria) (T, error) {
	return s.FindTx(ctx, s.db, criteria...)
}

// FindTx is Find inside an existing transaction.
func (s *Store[T]) FindTx(ctx context.Context, tx bun.IDB, criteria ...SelectCriteria) (T, error) {
	record := s.handlers.NewRecord()

	q := tx.NewSelect().Model(record)
	for _, c := range criteria {
		q = c(q)
	}

	if err := q.Limit(1).Scan(ctx); err != nil {
		var zero T
		return zero, normalizeError(err, "find")
	}

	return record, nil
}

// List returns every record matching the criteria; no match yields an
// empty slice, not an error.
func (s *Store[T]) List(ctx context.Context, criteria ...SelectCriteria) ([]T, error) {
	return s.ListTx(ctx, s.db, criteria...)
}

// ListTx is List inside an existing transaction.
func (s *Store[T]) ListTx(ctx context.Context, tx bun.IDB, criteria ...SelectCriteria) ([]T, error) {
	records := []T{}

	q := tx.NewSelect().Model(&records)
	for _, c := range criteria {
		q = c(q)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, normalizeError(err, "list")
	}

	return records, nil
}

// Update applies the record's non-zero fields to the row with the
// given id and returns the re-read row. A missing id is a not-found
// error.
func (s *Store[T]) Update(ctx context.Context, id uuid.UUID, record T) (T, error) {
	return s.UpdateTx(ctx, s.db, id, record)
}

// UpdateTx is Update inside an existing transaction.
func (s *Store[T]) UpdateTx(ctx context.Context, tx bun.IDB, id uuid.UUID, record T) (T, error) {
	var zero T

	s.handlers.SetID(record, id)

	res, err := tx.NewUpdate().
		Model(record).
		OmitZero().
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return zero, normalizeError(err, "update")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return zero, normalizeError(err, "update")
	}

	if affected == 0 {
		return zero, NewRecordNotFound().WithMetadata(map[string]any{
			"id": id.String(),
		})
	}

	return s.GetByIDTx(ctx, tx, id)
}

// Delete removes the row with the given id and reports whether a row
// was actually removed. Deleting a missing id is not an error.
func (s *Store[T]) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.DeleteTx(ctx, s.db, id)
}

// DeleteTx is Delete inside an existing transaction.
func (s *Store[T]) DeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (bool, error) {
	record := s.handlers.NewRecord()

	res, err := tx.NewDelete().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return false, normalizeError(err, "delete")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, normalizeError(err, "delete")
	}

	return affected > 0, nil
}

// CreateMany inserts each record with the same semantics as Create.
func (s *Store[T]) CreateMany(ctx context.Context, records []T) ([]T, error) {
	return s.CreateManyTx(ctx, s.db, records)
}

// CreateManyTx is CreateMany inside an existing transaction.
func (s *Store[T]) CreateManyTx(ctx context.Context, tx bun.IDB, records []T) ([]T, error) {
	out := make([]T, 0, len(records))
	for _, record := range records {
		created, err := s.CreateTx(ctx, tx, record)
		if err != nil {
			return nil, err
		}
		out = append(out, created)
	}
	return out, nil
}

// UpdateMany applies the record's non-zero fields to every row
// matching the criteria and reports whether at least one row changed.
func (s *Store[T]) UpdateMany(ctx context.Context, record T, criteria ...UpdateCriteria) (bool, error) {
	return s.UpdateManyTx(ctx, s.db, record, criteria...)
}

// UpdateManyTx is UpdateMany inside an existing transaction.
func (s *Store[T]) UpdateManyTx(ctx context.Context, tx bun.IDB, record T, criteria ...UpdateCriteria) (bool, error) {
	q := tx.NewUpdate().Model(record).OmitZero()
	for _, c := range criteria {
		q = c(q)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return false, normalizeError(err, "update_many")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, normalizeError(err, "update_many")
	}

	return affected > 0, nil
}

// Raw runs a raw query and scans the result rows into model records.
func (s *Store[T]) Raw(ctx context.Context, query string, args ...any) ([]T, error) {
	return s.RawTx(ctx, s.db, query, args...)
}

// RawTx is Raw inside an existing transaction.
func (s *Store[T]) RawTx(ctx context.Context, tx bun.IDB, query string, args ...any) ([]T, error) {
	records := []T{}
	if err := tx.NewRaw(query, args...).Scan(ctx, &records); err != nil {
		return nil, normalizeError(err, "raw")
	}
	return records, nil
}

// Transaction runs the operation atomically: every write inside either
// commits as one unit or is rolled back, and the original error is
// re-raised. Bun scopes the connection to the transaction and releases
// it on every exit path.
func (s *Store[T]) Transaction(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	return s.db.RunInTx(ctx, nil, fn)
}

func (s *Store[T]) ensureID(record T) {
	if s.handlers.GetID(record) == uuid.Nil {
		s.handlers.SetID(record, uuid.New())
	}
}

// NewRecordNotFound builds the canonical not-found persistence error.
func NewRecordNotFound() *errors.Error {
	return errors.New("record not found", errors.CategoryNotFound).
		WithCode(errors.CodeNotFound).
		WithTextCode(TextCodeRecordNotFound)
}

// IsRecordNotFound reports whether err represents a missing row.
func IsRecordNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sql.ErrNoRows) {
		return true
	}
	return errors.IsNotFound(err)
}

// IsUniqueViolation reports whether err is a unique constraint
// violation surfaced by the driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeUniqueViolation {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

func normalizeError(err error, operation string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return NewRecordNotFound().WithMetadata(map[string]any{
			"operation": operation,
		})
	}

	if IsUniqueViolation(err) {
		return errors.Wrap(err, errors.CategoryConflict, "unique constraint violation").
			WithCode(errors.CodeConflict).
			WithTextCode(TextCodeUniqueViolation).
			WithMetadata(map[string]any{
				"operation": operation,
			})
	}

	return errors.Wrap(err, errors.CategoryInternal, "persistence operation failed").
		WithTextCode(TextCodePersistence).
		WithMetadata(map[string]any{
			"operation": operation,
		})
}
