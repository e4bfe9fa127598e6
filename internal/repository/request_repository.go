package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mgtrako/internal/model"
)

// RequestFilter narrows a request listing. Zero values mean "no restriction".
type RequestFilter struct {
	Status         *model.RequestStatus
	Search         string
	CreatedBy      *uuid.UUID
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// StatusCount is the number of requests in one status.
type StatusCount struct {
	Status model.RequestStatus `json:"status"`
	Count  int64               `json:"count"`
}

// RequestRepository defines must-go request persistence operations.
type RequestRepository interface {
	Create(ctx context.Context, req *model.MustGoRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.MustGoRequest, error)
	List(ctx context.Context, filter RequestFilter) ([]model.MustGoRequest, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	ClearContents(ctx context.Context, id uuid.UUID) error
	LinkTrailers(ctx context.Context, requestID uuid.UUID, trailers []model.Trailer) error
	CreateParts(ctx context.Context, parts []model.PartDetail) error
	// Reporting. Soft-deleted requests are not counted.
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) ([]StatusCount, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	AveragePalletCount(ctx context.Context) (decimal.Decimal, error)
	Recent(ctx context.Context, limit int) ([]model.MustGoRequest, error)
	HasPartNumber(ctx context.Context, partNumber string) (bool, error)
}

type requestRepository struct {
	db *gorm.DB
}

// NewRequestRepository creates a new request repository.
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

// Create inserts the request row only. Trailers, parts and logs are written
// through their own calls.
func (r *requestRepository) Create(ctx context.Context, req *model.MustGoRequest) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(req).Error
}

// FindByID loads the full aggregate: creator, trailers, parts with their
// trailer, and the audit trail newest first.
func (r *requestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.MustGoRequest, error) {
	var req model.MustGoRequest
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Preload("Trailers.Trailer").
		Preload("PartDetails", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("PartDetails.Trailer").
		Preload("Logs", func(db *gorm.DB) *gorm.DB {
			return db.Order("timestamp DESC")
		}).
		Preload("Logs.Performer").
		Where("id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// List returns matching requests newest first, with creator and parts loaded.
func (r *requestRepository) List(ctx context.Context, filter RequestFilter) ([]model.MustGoRequest, error) {
	q := r.db.WithContext(ctx).Model(&model.MustGoRequest{})

	if !filter.IncludeDeleted {
		q = q.Where("deleted = ?", false)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.CreatedBy != nil {
		q = q.Where("created_by = ?", *filter.CreatedBy)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		byPart := r.db.Model(&model.PartDetail{}).
			Select("request_id").
			Where("LOWER(part_number) LIKE ?", pattern)
		byTrailer := r.db.Model(&model.PartDetail{}).
			Select("part_details.request_id").
			Joins("JOIN trailers ON trailers.id = part_details.trailer_id").
			Where("LOWER(trailers.trailer_number) LIKE ?", pattern)
		q = q.Where(
			r.db.Where("LOWER(shipment_number) LIKE ?", pattern).
				Or("id IN (?)", byPart).
				Or("id IN (?)", byTrailer),
		)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var requests []model.MustGoRequest
	err := q.
		Preload("Creator").
		Preload("PartDetails", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("PartDetails.Trailer").
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

// UpdateFields writes the given columns. It returns gorm.ErrRecordNotFound
// when the request does not exist.
func (r *requestRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.MustGoRequest{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ClearContents deletes the request's parts and trailer links. Trailers
// themselves are shared and stay.
func (r *requestRepository) ClearContents(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("request_id = ?", id).Delete(&model.PartDetail{}).Error; err != nil {
		return err
	}
	return db.Where("request_id = ?", id).Delete(&model.RequestTrailer{}).Error
}

// LinkTrailers attaches trailers to a request, ignoring links that already exist.
func (r *requestRepository) LinkTrailers(ctx context.Context, requestID uuid.UUID, trailers []model.Trailer) error {
	if len(trailers) == 0 {
		return nil
	}
	links := make([]model.RequestTrailer, 0, len(trailers))
	for _, t := range trailers {
		links = append(links, model.RequestTrailer{RequestID: requestID, TrailerID: t.ID})
	}
	return r.db.WithContext(ctx).
		Omit("Trailer").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "request_id"}, {Name: "trailer_id"}},
			DoNothing: true,
		}).
		Create(&links).Error
}

func (r *requestRepository) CreateParts(ctx context.Context, parts []model.PartDetail) error {
	if len(parts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit("Trailer").CreateInBatches(parts, 100).Error
}

func (r *requestRepository) active(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.MustGoRequest{}).Where("deleted = ?", false)
}

func (r *requestRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.active(ctx).Count(&n).Error
	return n, err
}

func (r *requestRepository) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	var counts []StatusCount
	err := r.active(ctx).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status").
		Scan(&counts).Error
	return counts, err
}

func (r *requestRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.active(ctx).Where("created_at >= ?", since).Count(&n).Error
	return n, err
}

// AveragePalletCount is zero when there are no requests.
func (r *requestRepository) AveragePalletCount(ctx context.Context) (decimal.Decimal, error) {
	var avg decimal.NullDecimal
	if err := r.active(ctx).Select("AVG(pallet_count)").Row().Scan(&avg); err != nil {
		return decimal.Zero, err
	}
	if !avg.Valid {
		return decimal.Zero, nil
	}
	return avg.Decimal, nil
}

func (r *requestRepository) Recent(ctx context.Context, limit int) ([]model.MustGoRequest, error) {
	var requests []model.MustGoRequest
	err := r.active(ctx).
		Preload("Creator").
		Order("created_at DESC").
		Limit(limit).
		Find(&requests).Error
	return requests, err
}

// HasPartNumber reports whether any request, deleted or not, carries the part.
func (r *requestRepository) HasPartNumber(ctx context.Context, partNumber string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.PartDetail{}).
		Where("part_number = ?", partNumber).
		Count(&n).Error
	return n > 0, err
}
