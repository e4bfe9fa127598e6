package repository

import (
	"context"

	"gorm.io/gorm"

	"mgtrako/internal/model"
)

// RequestLogRepository defines audit log persistence operations. Entries are
// only ever appended.
type RequestLogRepository interface {
	Create(ctx context.Context, log *model.RequestLog) error
	CreateBatch(ctx context.Context, logs []model.RequestLog) error
}

type requestLogRepository struct {
	db *gorm.DB
}

// NewRequestLogRepository creates a new request log repository.
func NewRequestLogRepository(db *gorm.DB) RequestLogRepository {
	return &requestLogRepository{db: db}
}

// Create appends one log entry.
func (r *requestLogRepository) Create(ctx context.Context, log *model.RequestLog) error {
	return r.db.WithContext(ctx).Omit("Performer").Create(log).Error
}

// CreateBatch appends multiple log entries.
func (r *requestLogRepository) CreateBatch(ctx context.Context, logs []model.RequestLog) error {
	if len(logs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit("Performer").CreateInBatches(logs, 100).Error
}
