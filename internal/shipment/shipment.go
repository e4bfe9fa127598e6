// Package shipment converts a request's contents between the flat rows stored
// in the database and the trailer-grouped shape used by forms and diffs.
package shipment

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"mgtrako/internal/model"
)

// PartsPerPallet is how many pieces of a part fit on one pallet.
const PartsPerPallet = 24

// MaxQuantity is the largest quantity accepted on one part line. It must
// match the lte bound on PartLine.Quantity.
const MaxQuantity = 1000000

// UnknownTrailer groups part rows whose trailer reference is missing.
const UnknownTrailer = "Unknown"

// PartLine is one part number and quantity on a trailer.
type PartLine struct {
	PartNumber string `json:"part_number" validate:"required"`
	Quantity   int    `json:"quantity" validate:"gt=0,lte=1000000"`
}

// TrailerGroup lists the parts carried by one trailer.
type TrailerGroup struct {
	TrailerNumber string     `json:"trailer_number" validate:"required"`
	Parts         []PartLine `json:"parts" validate:"required,min=1,dive"`
}

// TrailerResolver returns the trailer with the given number, creating it when needed.
type TrailerResolver func(ctx context.Context, trailerNumber string) (*model.Trailer, error)

// Group partitions part rows by trailer number, keeping first-seen order of
// trailers and the original order of parts inside each trailer.
func Group(rows []model.PartDetail) []TrailerGroup {
	groups := make([]TrailerGroup, 0)
	index := make(map[string]int)

	for _, row := range rows {
		number := UnknownTrailer
		if row.Trailer != nil && row.Trailer.TrailerNumber != "" {
			number = row.Trailer.TrailerNumber
		}

		i, ok := index[number]
		if !ok {
			i = len(groups)
			index[number] = i
			groups = append(groups, TrailerGroup{TrailerNumber: number})
		}
		groups[i].Parts = append(groups[i].Parts, PartLine{
			PartNumber: row.PartNumber,
			Quantity:   row.Quantity,
		})
	}

	return groups
}

// Flatten resolves every trailer once and emits one part row per part line,
// owned by requestID and numbered in input order. The distinct trailers are
// returned in group order.
func Flatten(ctx context.Context, requestID uuid.UUID, groups []TrailerGroup, resolve TrailerResolver) ([]model.PartDetail, []model.Trailer, error) {
	parts := make([]model.PartDetail, 0, PartCount(groups))
	trailers := make([]model.Trailer, 0, len(groups))
	resolved := make(map[string]*model.Trailer)

	for _, group := range groups {
		trailer, ok := resolved[group.TrailerNumber]
		if !ok {
			var err error
			trailer, err = resolve(ctx, group.TrailerNumber)
			if err != nil {
				return nil, nil, fmt.Errorf("resolve trailer %s: %w", group.TrailerNumber, err)
			}
			resolved[group.TrailerNumber] = trailer
			trailers = append(trailers, *trailer)
		}

		for _, line := range group.Parts {
			parts = append(parts, model.PartDetail{
				PartNumber: line.PartNumber,
				Quantity:   line.Quantity,
				Position:   len(parts),
				RequestID:  requestID,
				TrailerID:  trailer.ID,
				Trailer:    trailer,
			})
		}
	}

	return parts, trailers, nil
}

// PalletCount is the sum over all parts of ceil(quantity / PartsPerPallet).
// The total saturates at math.MaxInt.
func PalletCount(groups []TrailerGroup) int {
	total := 0
	for _, group := range groups {
		for _, line := range group.Parts {
			n := pallets(line.Quantity)
			if total > math.MaxInt-n {
				return math.MaxInt
			}
			total += n
		}
	}
	return total
}

func pallets(quantity int) int {
	if quantity <= 0 {
		return 0
	}
	n := quantity / PartsPerPallet
	if quantity%PartsPerPallet != 0 {
		n++
	}
	return n
}

// PartCount is the number of part lines across all trailers.
func PartCount(groups []TrailerGroup) int {
	n := 0
	for _, group := range groups {
		n += len(group.Parts)
	}
	return n
}
