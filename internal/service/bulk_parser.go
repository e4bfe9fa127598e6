package service

import (
	"fmt"
	"io"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "mgtrako/internal/errors"
	"mgtrako/internal/shipment"
)

// SplitCriteria selects how bulk rows are grouped into requests.
type SplitCriteria string

const (
	SplitByShipment SplitCriteria = "shipment"
	SplitByTrailer  SplitCriteria = "trailer"
	SplitByRoute    SplitCriteria = "route"
	SplitByPart     SplitCriteria = "part"
)

// ParseSplitCriteria defaults to shipment when s is empty.
func ParseSplitCriteria(s string) (SplitCriteria, error) {
	switch c := SplitCriteria(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return SplitByShipment, nil
	case SplitByShipment, SplitByTrailer, SplitByRoute, SplitByPart:
		return c, nil
	}
	return "", apperrors.NewValidationError("split_criteria", "must be one of shipment, trailer, route, part")
}

// Spreadsheet column headers.
const (
	colShipment = "SHIPMENT"
	colPlant    = "PLANT"
	colTrailer  = "1ST truck #"
	colRoute    = "INSTRUCTIONS"
	colPart     = "DELPHI P/N"
	colMGQty    = "MG QTY"
	colQty      = "qty"
)

var (
	lineSplit = regexp.MustCompile(`[\r\n]+`)
	cellSplit = regexp.MustCompile(`[\t,]+`)
)

// BulkRecord is one usable line of a bulk upload.
type BulkRecord struct {
	ShipmentNumber string
	Plant          string
	TrailerNumber  string
	RouteInfo      string
	PartNumber     string
	Quantity       int
}

// BulkGroup is the set of records that becomes one request.
type BulkGroup struct {
	ShipmentNumber string
	Plant          string
	RouteInfo      string
	Records        []BulkRecord
}

// ParseSpreadsheet reads the first sheet of an xlsx workbook. The first row
// holds the column headers; lines without a part number or a positive
// quantity are skipped.
func ParseSpreadsheet(r io.Reader) ([]BulkRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.NewValidationError("file", "could not read spreadsheet: "+err.Error())
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	header := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		name = strings.TrimSpace(name)
		if _, seen := header[name]; !seen {
			header[name] = i
		}
	}
	cell := func(row []string, name string) string {
		i, ok := header[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []BulkRecord
	for _, row := range rows[1:] {
		qty := cell(row, colMGQty)
		if qty == "" {
			qty = cell(row, colQty)
		}
		if rec, ok := newRecord(cell(row, colShipment), cell(row, colPlant), cell(row, colTrailer),
			cell(row, colRoute), cell(row, colPart), qty); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// ParseText reads URL-encoded delimited text pasted from a spreadsheet. The
// first line is a header. Cells are separated by tabs or commas in the order
// shipment, delivery, plant, customer P/N, delphi P/N, MG qty, instructions,
// trailer, qty.
func ParseText(text string) ([]BulkRecord, error) {
	decoded, err := url.PathUnescape(text)
	if err != nil {
		return nil, apperrors.NewValidationError("text", "is not valid URL-encoded text")
	}

	var lines []string
	for _, line := range lineSplit.Split(decoded, -1) {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 2 {
		return nil, nil
	}

	var records []BulkRecord
	for _, line := range lines[1:] {
		cells := cellSplit.Split(line, -1)
		at := func(i int) string {
			if i >= len(cells) {
				return ""
			}
			return strings.TrimSpace(cells[i])
		}
		qty := at(5)
		if qty == "" {
			qty = at(8)
		}
		if rec, ok := newRecord(at(0), at(2), at(7), at(6), at(4), qty); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

func newRecord(shipmentNumber, plant, trailer, route, part, qty string) (BulkRecord, bool) {
	quantity := parseQuantity(qty)
	if part == "" || quantity <= 0 {
		return BulkRecord{}, false
	}
	return BulkRecord{
		ShipmentNumber: shipmentNumber,
		Plant:          plant,
		TrailerNumber:  trailer,
		RouteInfo:      route,
		PartNumber:     part,
		Quantity:       quantity,
	}, true
}

// parseQuantity accepts integers and truncates decimals such as "12.0"
// written by spreadsheet exports. Anything else is zero. Decimals above
// shipment.MaxQuantity come back as MaxQuantity+1 so validation rejects them.
func parseQuantity(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f > shipment.MaxQuantity {
		return shipment.MaxQuantity + 1
	}
	return int(f)
}

// GroupRows splits records into requests in first-seen order. Part groups
// are named after the part number.
func GroupRows(records []BulkRecord, criteria SplitCriteria) []BulkGroup {
	index := make(map[string]int)
	var groups []BulkGroup

	for _, rec := range records {
		key := groupKey(rec, criteria)
		i, ok := index[key]
		if !ok {
			shipmentNumber := rec.ShipmentNumber
			if criteria == SplitByPart {
				shipmentNumber = rec.PartNumber + "-group"
			}
			groups = append(groups, BulkGroup{
				ShipmentNumber: shipmentNumber,
				Plant:          rec.Plant,
				RouteInfo:      rec.RouteInfo,
			})
			i = len(groups) - 1
			index[key] = i
		}
		groups[i].Records = append(groups[i].Records, rec)
	}
	return groups
}

func groupKey(rec BulkRecord, criteria SplitCriteria) string {
	switch criteria {
	case SplitByTrailer:
		return orDefault(rec.TrailerNumber, "no-trailer") + "-" + rec.ShipmentNumber
	case SplitByRoute:
		return orDefault(rec.RouteInfo, "no-route") + "-" + rec.ShipmentNumber
	case SplitByPart:
		return rec.PartNumber
	default:
		return rec.ShipmentNumber
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// Problems lists everything wrong with a group before it is submitted.
func (g BulkGroup) Problems() []string {
	var problems []string
	if g.ShipmentNumber == "" {
		problems = append(problems, "Shipment number is required")
	}
	if len(g.Records) == 0 {
		problems = append(problems, "At least one part with quantity is required")
	}
	for i, rec := range g.Records {
		if rec.PartNumber == "" {
			problems = append(problems, fmt.Sprintf("Part number is required for part %d", i+1))
		}
		if rec.Quantity <= 0 {
			problems = append(problems, fmt.Sprintf("Valid quantity is required for part %d", i+1))
		}
		if rec.TrailerNumber == "" {
			problems = append(problems, fmt.Sprintf("Trailer number is required for part %d", i+1))
		}
	}
	return problems
}

// Input converts the group into a create payload, keeping trailers and
// their parts in first-seen order. The pallet count is left to be computed.
func (g BulkGroup) Input() RequestInput {
	index := make(map[string]int)
	var trailers []shipment.TrailerGroup
	for _, rec := range g.Records {
		i, ok := index[rec.TrailerNumber]
		if !ok {
			trailers = append(trailers, shipment.TrailerGroup{TrailerNumber: rec.TrailerNumber})
			i = len(trailers) - 1
			index[rec.TrailerNumber] = i
		}
		trailers[i].Parts = append(trailers[i].Parts, shipment.PartLine{
			PartNumber: rec.PartNumber,
			Quantity:   rec.Quantity,
		})
	}
	return RequestInput{
		ShipmentNumber: g.ShipmentNumber,
		Plant:          g.Plant,
		RouteInfo:      g.RouteInfo,
		Trailers:       trailers,
	}
}
