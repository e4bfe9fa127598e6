package reconcile

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mgtrako/internal/model"
	"mgtrako/internal/shipment"
)

func trailer(number string, parts ...shipment.PartLine) shipment.TrailerGroup {
	return shipment.TrailerGroup{TrailerNumber: number, Parts: parts}
}

func part(number string, qty int) shipment.PartLine {
	return shipment.PartLine{PartNumber: number, Quantity: qty}
}

func TestPartChanges(t *testing.T) {
	tests := []struct {
		name string
		old  []shipment.TrailerGroup
		new  []shipment.TrailerGroup
		want []string
	}{
		{
			name: "nothing changed",
			old:  []shipment.TrailerGroup{trailer("T1", part("P1", 5), part("P2", 3))},
			new:  []shipment.TrailerGroup{trailer("T1", part("P1", 5), part("P2", 3))},
			want: nil,
		},
		{
			name: "quantity change",
			old:  []shipment.TrailerGroup{trailer("T1", part("P1", 5))},
			new:  []shipment.TrailerGroup{trailer("T1", part("P1", 8))},
			want: []string{"updated part P1 quantity from 5 to 8 in trailer T1"},
		},
		{
			name: "trailer move",
			old:  []shipment.TrailerGroup{trailer("T1", part("P1", 5))},
			new:  []shipment.TrailerGroup{trailer("T2", part("P1", 5))},
			want: []string{"moved parts from trailer T1 to T2"},
		},
		{
			name: "removal",
			old:  []shipment.TrailerGroup{trailer("T1", part("P1", 5))},
			new:  nil,
			want: []string{"removed part P1 from trailer T1"},
		},
		{
			name: "addition",
			old:  []shipment.TrailerGroup{trailer("T1", part("P1", 5))},
			new:  []shipment.TrailerGroup{trailer("T1", part("P1", 5), part("P2", 12))},
			want: []string{"updated part P2 quantity to 12 in trailer T1"},
		},
		{
			name: "move with quantity change",
			old:  []shipment.TrailerGroup{trailer("T1", part("P1", 5))},
			new:  []shipment.TrailerGroup{trailer("T2", part("P1", 9))},
			want: []string{
				"moved parts from trailer T1 to T2",
				"updated part P1 quantity from 5 to 9 in trailer T2",
			},
		},
		{
			name: "move reported once per trailer pair",
			old:  []shipment.TrailerGroup{trailer("T1", part("P1", 5), part("P2", 6))},
			new:  []shipment.TrailerGroup{trailer("T2", part("P1", 5), part("P2", 6))},
			want: []string{"moved parts from trailer T1 to T2"},
		},
		{
			name: "duplicate lines are matched one by one",
			old:  []shipment.TrailerGroup{trailer("T1", part("P1", 5), part("P1", 5))},
			new:  []shipment.TrailerGroup{trailer("T1", part("P1", 5))},
			want: []string{"removed part P1 from trailer T1"},
		},
		{
			name: "ordering moves then updates then removals",
			old: []shipment.TrailerGroup{
				trailer("T1", part("P1", 5)),
				trailer("T3", part("P7", 1), part("P8", 2)),
				trailer("T4", part("P9", 4)),
			},
			new: []shipment.TrailerGroup{
				trailer("T3", part("P7", 3)),
				trailer("T2", part("P1", 5)),
				trailer("T4", part("P9", 4), part("P10", 1)),
			},
			want: []string{
				"moved parts from trailer T1 to T2",
				"updated part P7 quantity from 1 to 3 in trailer T3",
				"updated part P10 quantity to 1 in trailer T4",
				"removed part P8 from trailer T3",
			},
		},
		{
			name: "vanished trailer without matching parts is a removal",
			old:  []shipment.TrailerGroup{trailer("T1", part("P1", 5)), trailer("T5", part("P5", 2))},
			new:  []shipment.TrailerGroup{trailer("T1", part("P1", 5))},
			want: []string{"removed part P5 from trailer T5"},
		},
		{
			name: "leftovers on a moved trailer are not reported",
			old:  []shipment.TrailerGroup{trailer("T1", part("P1", 5), part("P2", 1))},
			new:  []shipment.TrailerGroup{trailer("T2", part("P1", 5))},
			want: []string{"moved parts from trailer T1 to T2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nilIfEmpty(PartChanges(tt.old, tt.new)))
		})
	}
}

func TestFieldChanges(t *testing.T) {
	base := Snapshot{ShipmentNumber: "S1", PalletCount: 2}

	assert.Empty(t, FieldChanges(base, base))

	updated := base
	updated.ShipmentNumber = "S2"
	updated.Plant = "AB12"
	updated.PalletCount = 3
	updated.RouteInfo = ""

	assert.Equal(t, []string{
		"shipmentNumber from S1 to S2",
		"plant from none to AB12",
		"palletCount from 2 to 3",
	}, FieldChanges(base, updated))

	cleared := Snapshot{ShipmentNumber: "S1", PalletCount: 2, AdditionalNotes: "dock 4"}
	assert.Equal(t, []string{"additionalNotes from dock 4 to none"}, FieldChanges(cleared, base))
}

func TestDiff_Messages(t *testing.T) {
	old := Snapshot{
		ShipmentNumber: "S1",
		PalletCount:    1,
		Trailers:       []shipment.TrailerGroup{trailer("T1", part("P1", 5))},
	}

	t.Run("no change emits nothing", func(t *testing.T) {
		res := Diff(old, old)
		assert.True(t, res.Empty())
		assert.Empty(t, res.Messages())
	})

	t.Run("both blocks", func(t *testing.T) {
		updated := old
		updated.RouteInfo = "R9"
		updated.Trailers = []shipment.TrailerGroup{trailer("T1", part("P1", 8)), trailer("T2", part("P2", 1))}

		msgs := Diff(old, updated).Messages()
		require.Len(t, msgs, 2)
		assert.Equal(t, "Request details changed: routeInfo from none to R9", msgs[0])
		assert.Equal(t, "Part changes: updated part P1 quantity from 5 to 8 in trailer T1; "+
			"updated part P2 quantity to 1 in trailer T2", msgs[1])
	})
}

func TestSnapshotOf(t *testing.T) {
	plant := "AB12"
	t1 := &model.Trailer{ID: uuid.New(), TrailerNumber: "T1"}
	req := &model.MustGoRequest{
		ShipmentNumber: "S1",
		Plant:          &plant,
		PalletCount:    2,
		PartDetails: []model.PartDetail{
			{PartNumber: "P1", Quantity: 30, TrailerID: t1.ID, Trailer: t1},
		},
	}

	snap := SnapshotOf(req)
	assert.Equal(t, "AB12", snap.Plant)
	assert.Equal(t, "", snap.RouteInfo)
	assert.Equal(t, []shipment.TrailerGroup{trailer("T1", part("P1", 30))}, snap.Trailers)
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}
