package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Logger mirrors the root package logger interface without creating an
// import cycle.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Service wraps a Store with structured diagnostic logging. Every
// method mirrors the store 1:1 and always re-raises the underlying
// error unchanged: this layer observes, it never recovers.
type Service[T any] struct {
	store  *Store[T]
	name   string
	logger Logger
}

// NewService creates a logging service around the given store. The
// name tags every log line so entity types share one code path but
// stay distinguishable in output.
func NewService[T any](store *Store[T], name string, logger Logger) *Service[T] {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Service[T]{store: store, name: name, logger: logger}
}

// Store exposes the wrapped store for specialized queries.
func (s *Service[T]) Store() *Store[T] {
	return s.store
}

// Create persists a new record.
func (s *Service[T]) Create(ctx context.Context, record T) (T, error) {
	return s.CreateTx(ctx, s.store.DB(), record)
}

// CreateTx is Create inside an existing transaction.
func (s *Service[T]) CreateTx(ctx context.Context, tx bun.IDB, record T) (T, error) {
	s.logger.Debug("%s create", s.name)
	created, err := s.store.CreateTx(ctx, tx, record)
	if err != nil {
		s.logger.Error("%s create error: %v", s.name, err)
		return created, err
	}
	return created, nil
}

// GetByID fetches a record by primary key.
func (s *Service[T]) GetByID(ctx context.Context, id uuid.UUID) (T, error) {
	record, err := s.store.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("%s get by id %s error: %v", s.name, id, err)
		return record, err
	}
	return record, nil
}

// Find returns the single record matching the criteria.
func (s *Service[T]) Find(ctx context.Context, criteria ...SelectCriteria) (T, error) {
	record, err := s.store.Find(ctx, criteria...)
	if err != nil {
		s.logger.Error("%s find error: %v", s.name, err)
		return record, err
	}
	return record, nil
}

// List returns every record matching the criteria.
func (s *Service[T]) List(ctx context.Context, criteria ...SelectCriteria) ([]T, error) {
	records, err := s.store.List(ctx, criteria...)
	if err != nil {
		s.logger.Error("%s list error: %v", s.name, err)
		return nil, err
	}
	return records, nil
}

// Update applies a partial update and returns the re-read row.
func (s *Service[T]) Update(ctx context.Context, id uuid.UUID, record T) (T, error) {
	return s.UpdateTx(ctx, s.store.DB(), id, record)
}

// UpdateTx is Update inside an existing transaction.
func (s *Service[T]) UpdateTx(ctx context.Context, tx bun.IDB, id uuid.UUID, record T) (T, error) {
	s.logger.Debug("%s update %s", s.name, id)
	updated, err := s.store.UpdateTx(ctx, tx, id, record)
	if err != nil {
		s.logger.Error("%s update %s error: %v", s.name, id, err)
		return updated, err
	}
	return updated, nil
}

// Delete removes a record, reporting whether a row was removed.
func (s *Service[T]) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	s.logger.Debug("%s delete %s", s.name, id)
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		s.logger.Error("%s delete %s error: %v", s.name, id, err)
		return deleted, err
	}
	return deleted, nil
}

// CreateMany inserts each record with Create semantics.
func (s *Service[T]) CreateMany(ctx context.Context, records []T) ([]T, error) {
	s.logger.Debug("%s create many (%d records)", s.name, len(records))
	created, err := s.store.CreateMany(ctx, records)
	if err != nil {
		s.logger.Error("%s create many error: %v", s.name, err)
		return nil, err
	}
	return created, nil
}

// UpdateMany updates by criteria, reporting whether rows changed.
func (s *Service[T]) UpdateMany(ctx context.Context, record T, criteria ...UpdateCriteria) (bool, error) {
	s.logger.Debug("%s update many", s.name)
	changed, err := s.store.UpdateMany(ctx, record, criteria...)
	if err != nil {
		s.logger.Error("%s update many error: %v", s.name, err)
		return changed, err
	}
	return changed, nil
}

// Transaction delegates to the store's transaction boundary, logging
// failures before re-raising them untouched.
func (s *Service[T]) Transaction(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	if err := s.store.Transaction(ctx, fn); err != nil {
		s.logger.Error("%s transaction failed: %v", s.name, err)
		return err
	}
	return nil
}
