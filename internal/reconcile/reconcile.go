// Package reconcile compares two versions of a request and describes what
// changed in the words written to the request's audit log.
//
// Part lines are matched on (part number, trailer number). A trailer that
// disappears from the new version is treated as moved when one of its part
// numbers shows up on a trailer of the new version; the move is reported once
// per trailer pair and the parts it carried are not reported as removed.
// Matching on part number alone misattributes a move when two trailers
// legitimately carry the same part.
package reconcile

import (
	"fmt"
	"strconv"
	"strings"

	"mgtrako/internal/model"
	"mgtrako/internal/shipment"
)

const (
	detailsPrefix = "Request details changed: "
	partsPrefix   = "Part changes: "
	none          = "none"
)

// Snapshot is the editable state of a request.
type Snapshot struct {
	ShipmentNumber  string
	Plant           string
	PalletCount     int
	RouteInfo       string
	AdditionalNotes string
	Trailers        []shipment.TrailerGroup
}

// SnapshotOf captures the current state of a loaded request. PartDetails must
// be preloaded with their trailers.
func SnapshotOf(req *model.MustGoRequest) Snapshot {
	return Snapshot{
		ShipmentNumber:  req.ShipmentNumber,
		Plant:           deref(req.Plant),
		PalletCount:     req.PalletCount,
		RouteInfo:       deref(req.RouteInfo),
		AdditionalNotes: deref(req.AdditionalNotes),
		Trailers:        shipment.Group(req.PartDetails),
	}
}

// Result holds the change descriptions of one edit.
type Result struct {
	Fields []string
	Parts  []string
}

// Empty reports whether the edit changed nothing.
func (r Result) Empty() bool {
	return len(r.Fields) == 0 && len(r.Parts) == 0
}

// Messages renders the result as log actions, at most one per block.
func (r Result) Messages() []string {
	var out []string
	if len(r.Fields) > 0 {
		out = append(out, detailsPrefix+strings.Join(r.Fields, ", "))
	}
	if len(r.Parts) > 0 {
		out = append(out, partsPrefix+strings.Join(r.Parts, "; "))
	}
	return out
}

// Diff compares old against updated.
func Diff(old, updated Snapshot) Result {
	return Result{
		Fields: FieldChanges(old, updated),
		Parts:  PartChanges(old.Trailers, updated.Trailers),
	}
}

// FieldChanges lists the scalar fields that differ, in a fixed order.
func FieldChanges(old, updated Snapshot) []string {
	fields := []struct {
		name     string
		old, new string
	}{
		{"shipmentNumber", old.ShipmentNumber, updated.ShipmentNumber},
		{"plant", old.Plant, updated.Plant},
		{"palletCount", strconv.Itoa(old.PalletCount), strconv.Itoa(updated.PalletCount)},
		{"routeInfo", old.RouteInfo, updated.RouteInfo},
		{"additionalNotes", old.AdditionalNotes, updated.AdditionalNotes},
	}

	var changes []string
	for _, f := range fields {
		if f.old == f.new {
			continue
		}
		changes = append(changes, fmt.Sprintf("%s from %s to %s", f.name, orNone(f.old), orNone(f.new)))
	}
	return changes
}

type partKey struct {
	part    string
	trailer string
}

type oldEntry struct {
	part     string
	trailer  string
	quantity int
	consumed bool
}

type movePair struct {
	from, to string
}

// PartChanges lists trailer moves, then additions and quantity updates in the
// order of the new state, then removals in the order of the old state.
func PartChanges(old, updated []shipment.TrailerGroup) []string {
	entries := make([]*oldEntry, 0, shipment.PartCount(old))
	lookup := make(map[partKey][]*oldEntry)
	for _, group := range old {
		for _, line := range group.Parts {
			e := &oldEntry{part: line.PartNumber, trailer: group.TrailerNumber, quantity: line.Quantity}
			entries = append(entries, e)
			k := partKey{e.part, e.trailer}
			lookup[k] = append(lookup[k], e)
		}
	}

	present := make(map[string]bool, len(updated))
	for _, group := range updated {
		present[group.TrailerNumber] = true
	}

	var moves []string
	seenMoves := make(map[movePair]bool)
	remapped := make(map[string]bool)

	for _, e := range entries {
		if present[e.trailer] {
			continue
		}
		target, ok := findTrailerWithPart(updated, e.part)
		if !ok {
			continue
		}
		pair := movePair{e.trailer, target}
		if !seenMoves[pair] {
			seenMoves[pair] = true
			moves = append(moves, fmt.Sprintf("moved parts from trailer %s to %s", e.trailer, target))
		}
		remapped[e.trailer] = true

		from := partKey{e.part, e.trailer}
		lookup[from] = removeEntry(lookup[from], e)
		to := partKey{e.part, target}
		lookup[to] = append(lookup[to], e)
	}

	var updates []string
	for _, group := range updated {
		for _, line := range group.Parts {
			k := partKey{line.PartNumber, group.TrailerNumber}
			e := nextUnconsumed(lookup[k])
			if e == nil {
				updates = append(updates, fmt.Sprintf("updated part %s quantity to %d in trailer %s",
					line.PartNumber, line.Quantity, group.TrailerNumber))
				continue
			}
			e.consumed = true
			if e.quantity != line.Quantity {
				updates = append(updates, fmt.Sprintf("updated part %s quantity from %d to %d in trailer %s",
					line.PartNumber, e.quantity, line.Quantity, group.TrailerNumber))
			}
		}
	}

	var removals []string
	for _, e := range entries {
		if e.consumed || remapped[e.trailer] {
			continue
		}
		removals = append(removals, fmt.Sprintf("removed part %s from trailer %s", e.part, e.trailer))
	}

	changes := make([]string, 0, len(moves)+len(updates)+len(removals))
	changes = append(changes, moves...)
	changes = append(changes, updates...)
	return append(changes, removals...)
}

func findTrailerWithPart(groups []shipment.TrailerGroup, partNumber string) (string, bool) {
	for _, group := range groups {
		for _, line := range group.Parts {
			if line.PartNumber == partNumber {
				return group.TrailerNumber, true
			}
		}
	}
	return "", false
}

func nextUnconsumed(queue []*oldEntry) *oldEntry {
	for _, e := range queue {
		if !e.consumed {
			return e
		}
	}
	return nil
}

func removeEntry(queue []*oldEntry, target *oldEntry) []*oldEntry {
	for i, e := range queue {
		if e == target {
			return append(queue[:i:i], queue[i+1:]...)
		}
	}
	return queue
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orNone(s string) string {
	if s == "" {
		return none
	}
	return s
}
