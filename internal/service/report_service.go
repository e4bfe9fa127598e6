package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"mgtrako/internal/cache"
	apperrors "mgtrako/internal/errors"
	"mgtrako/internal/model"
	"mgtrako/internal/policy"
	"mgtrako/internal/repository"
)

const (
	summaryCacheKey = "report:summary"
	summaryCacheTTL = time.Minute
	recentLimit     = 10
	recentWindow    = 30 * 24 * time.Hour
)

// Summary is the reporting dashboard.
type Summary struct {
	RecentRequests     []model.MustGoRequest    `json:"recent_requests"`
	RoleDistribution   []repository.RoleCount   `json:"role_distribution"`
	StatusDistribution []repository.StatusCount `json:"status_distribution"`
	RequestsLast30Days int64                    `json:"requests_last_30_days"`
	AveragePalletCount decimal.Decimal          `json:"average_pallet_count"`
	GeneratedAt        time.Time                `json:"generated_at"`
}

// AdminStats are the headline numbers on the admin dashboard.
type AdminStats struct {
	TotalUsers        int64 `json:"total_users"`
	TotalRequests     int64 `json:"total_requests"`
	PendingRequests   int64 `json:"pending_requests"`
	CompletedRequests int64 `json:"completed_requests"`
}

// ReportService computes read-only aggregates over requests and users.
type ReportService interface {
	Summary(ctx context.Context, actor policy.Actor) (*Summary, error)
	AdminStats(ctx context.Context, actor policy.Actor) (*AdminStats, error)
}

type reportService struct {
	store  repository.Store
	cache  *cache.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewReportService creates a new report service.
func NewReportService(store repository.Store, cache *cache.Client, logger *zap.Logger) ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &reportService{store: store, cache: cache, logger: logger, now: time.Now}
}

// Summary is cached for a minute, so new requests may take that long to show.
func (s *reportService) Summary(ctx context.Context, actor policy.Actor) (*Summary, error) {
	if !policy.CanViewReports(actor) {
		return nil, apperrors.ErrForbidden
	}

	var cached Summary
	if s.cache.GetJSON(ctx, summaryCacheKey, &cached) {
		return &cached, nil
	}

	now := s.now()
	requests := s.store.Requests()

	recent, err := requests.Recent(ctx, recentLimit)
	if err != nil {
		return nil, fmt.Errorf("recent requests: %w", err)
	}
	roles, err := s.store.Users().CountByRole(ctx)
	if err != nil {
		return nil, fmt.Errorf("role distribution: %w", err)
	}
	statuses, err := requests.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("status distribution: %w", err)
	}
	lastMonth, err := requests.CountSince(ctx, now.Add(-recentWindow))
	if err != nil {
		return nil, fmt.Errorf("recent request count: %w", err)
	}
	avg, err := requests.AveragePalletCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("average pallet count: %w", err)
	}

	summary := &Summary{
		RecentRequests:     recent,
		RoleDistribution:   roles,
		StatusDistribution: statuses,
		RequestsLast30Days: lastMonth,
		AveragePalletCount: avg.Round(2),
		GeneratedAt:        now,
	}
	if err := s.cache.SetJSON(ctx, summaryCacheKey, summary, summaryCacheTTL); err != nil {
		s.logger.Warn("cache report summary", zap.Error(err))
	}
	return summary, nil
}

func (s *reportService) AdminStats(ctx context.Context, actor policy.Actor) (*AdminStats, error) {
	if !policy.IsAdmin(actor) {
		return nil, apperrors.ErrForbidden
	}

	users, err := s.store.Users().Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	total, err := s.store.Requests().Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count requests: %w", err)
	}
	statuses, err := s.store.Requests().CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count requests by status: %w", err)
	}

	stats := &AdminStats{TotalUsers: users, TotalRequests: total}
	for _, sc := range statuses {
		switch sc.Status {
		case model.RequestStatusPending:
			stats.PendingRequests = sc.Count
		case model.RequestStatusCompleted:
			stats.CompletedRequests = sc.Count
		}
	}
	return stats, nil
}
