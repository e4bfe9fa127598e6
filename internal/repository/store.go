package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories so a service can run several of them inside
// one transaction.
type Store interface {
	Users() UserRepository
	Requests() RequestRepository
	Trailers() TrailerRepository
	Logs() RequestLogRepository
	Parts() PartRepository
	// WithTransaction executes fn within a database transaction. The Store
	// passed to fn is bound to the transaction; returning an error rolls it back.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

type store struct {
	db *gorm.DB
}

// NewStore builds a GORM-backed store.
func NewStore(db *gorm.DB) Store {
	return &store{db: db}
}

func (s *store) Users() UserRepository       { return NewUserRepository(s.db) }
func (s *store) Requests() RequestRepository { return NewRequestRepository(s.db) }
func (s *store) Trailers() TrailerRepository { return NewTrailerRepository(s.db) }
func (s *store) Logs() RequestLogRepository  { return NewRequestLogRepository(s.db) }
func (s *store) Parts() PartRepository       { return NewPartRepository(s.db) }

func (s *store) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &store{db: tx})
	})
}
