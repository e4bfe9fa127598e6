package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "mgtrako/internal/errors"
)

func TestPartService(t *testing.T) {
	f := newRequestFixture(t)
	svc := NewPartService(f.store, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, f.warehouse, PartInput{
		PartNumber:  " P1 ",
		Description: "Bracket, left",
		Weight:      decimal.RequireFromString("1.250"),
		Dimensions:  "10x4x2",
	})
	require.NoError(t, err)
	assert.Equal(t, "P1", created.PartNumber)

	other, err := svc.Create(ctx, f.cs, PartInput{PartNumber: "P9", Description: "Hinge"})
	require.NoError(t, err)

	t.Run("rejects duplicates and bad input", func(t *testing.T) {
		_, err := svc.Create(ctx, f.cs, PartInput{PartNumber: "P1"})
		assert.ErrorIs(t, err, apperrors.ErrConflict)

		var verr *apperrors.ValidationError
		_, err = svc.Create(ctx, f.cs, PartInput{PartNumber: "  "})
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "part_number", verr.Fields[0].Field)

		_, err = svc.Create(ctx, f.cs, PartInput{PartNumber: "P2", Weight: decimal.NewFromInt(-1)})
		assert.ErrorAs(t, err, &verr)

		_, err = svc.Create(ctx, f.pending, PartInput{PartNumber: "P3"})
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("list and search", func(t *testing.T) {
		parts, err := svc.List(ctx, f.reporter, "")
		require.NoError(t, err)
		require.Len(t, parts, 2)
		assert.Equal(t, "P1", parts[0].PartNumber)

		parts, err = svc.List(ctx, f.reporter, "hinge")
		require.NoError(t, err)
		require.Len(t, parts, 1)
		assert.Equal(t, other.ID, parts[0].ID)
	})

	t.Run("update", func(t *testing.T) {
		_, err := svc.Update(ctx, f.cs, created.ID, PartInput{PartNumber: "P9"})
		assert.ErrorIs(t, err, apperrors.ErrConflict)

		updated, err := svc.Update(ctx, f.cs, created.ID, PartInput{PartNumber: "P1", Description: "Bracket, right"})
		require.NoError(t, err)
		assert.Equal(t, "Bracket, right", updated.Description)

		got, err := svc.Get(ctx, f.cs, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Bracket, right", got.Description)

		_, err = svc.Update(ctx, f.cs, uuid.New(), PartInput{PartNumber: "P5"})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("delete refuses referenced parts", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.cs, sampleInput())
		require.NoError(t, err)

		err = svc.Delete(ctx, f.admin, created.ID)
		assert.ErrorIs(t, err, apperrors.ErrConflict)

		require.NoError(t, svc.Delete(ctx, f.admin, other.ID))
		_, err = svc.Get(ctx, f.admin, other.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		assert.ErrorIs(t, svc.Delete(ctx, f.admin, other.ID), apperrors.ErrNotFound)
	})
}
