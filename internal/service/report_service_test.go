package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "mgtrako/internal/errors"
	"mgtrako/internal/model"
)

func TestReportService(t *testing.T) {
	f := newRequestFixture(t)
	svc := NewReportService(f.store, nil, nil)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, f.cs, sampleInput()) // 3 pallets
	require.NoError(t, err)
	second := sampleInput()
	second.ShipmentNumber = "SHP-2002"
	second.PalletCount = intPtr(4)
	_, err = f.svc.Create(ctx, f.cs, second)
	require.NoError(t, err)
	third := sampleInput()
	third.ShipmentNumber = "SHP-3003"
	third.PalletCount = intPtr(100)
	deleted, err := f.svc.Create(ctx, f.cs, third)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, f.warehouse, first.Request.ID, UpdateStatusInput{Status: "COMPLETED"})
	require.NoError(t, err)
	_, err = f.svc.SoftDelete(ctx, f.admin, deleted.Request.ID)
	require.NoError(t, err)

	t.Run("summary", func(t *testing.T) {
		_, err := svc.Summary(ctx, f.warehouse)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)

		summary, err := svc.Summary(ctx, f.reporter)
		require.NoError(t, err)
		assert.Len(t, summary.RecentRequests, 2)
		assert.NotEmpty(t, summary.RecentRequests[0].Creator.Email)
		assert.Equal(t, int64(2), summary.RequestsLast30Days)
		assert.Equal(t, "3.5", summary.AveragePalletCount.String())
		assert.Len(t, summary.RoleDistribution, len(model.Roles()))
		assert.Len(t, summary.StatusDistribution, 2)
	})

	t.Run("admin stats", func(t *testing.T) {
		_, err := svc.AdminStats(ctx, f.reporter)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)

		stats, err := svc.AdminStats(ctx, f.admin)
		require.NoError(t, err)
		assert.Equal(t, &AdminStats{
			TotalUsers:        6,
			TotalRequests:     2,
			PendingRequests:   1,
			CompletedRequests: 1,
		}, stats)
	})
}
