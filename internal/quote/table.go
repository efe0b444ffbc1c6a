package quote

import (
	"strings"

	"github.com/garyjia/quote-validator/internal/domain/entity"
	"github.com/garyjia/quote-validator/internal/sheet"
)

// MaxHeaderScanRows bounds the search for the line-item header row
const MaxHeaderScanRows = 20

type scanState int

const (
	stateSeekingHeader scanState = iota
	stateReadingRows
	stateDone
)

func (s scanState) String() string {
	switch s {
	case stateSeekingHeader:
		return "seeking-header"
	case stateReadingRows:
		return "reading-rows"
	default:
		return "done"
	}
}

// tableScan is the line-item table state machine. Each step consumes one
// grid row.
type tableScan struct {
	grid    *sheet.Grid
	state   scanState
	row     int
	header  int
	end     int
	columns map[string]int
	items   []entity.LineItem
}

// TableResult is the outcome of scanning a grid for the line-item table
type TableResult struct {
	Items []entity.LineItem
	// HeaderRow is 0 when no header row was found
	HeaderRow int
	// EndRow is the row that terminated the table: the trailer, the first
	// blank row, or one past the last grid row
	EndRow  int
	Columns map[string]int
}

// ScanTable locates the line-item table and reads its rows
func ScanTable(g *sheet.Grid) TableResult {
	s := &tableScan{grid: g, row: 1, columns: map[string]int{}}
	for s.state != stateDone {
		s.step()
	}
	items := s.items
	if items == nil {
		items = []entity.LineItem{}
	}
	return TableResult{Items: items, HeaderRow: s.header, EndRow: s.end, Columns: s.columns}
}

func (s *tableScan) step() {
	switch s.state {
	case stateSeekingHeader:
		if s.row > MaxHeaderScanRows || s.row > s.grid.MaxRow() {
			s.state = stateDone
			return
		}
		if isHeaderRow(s.grid.Row(s.row)) {
			s.header = s.row
			s.columns = mapColumns(s.grid.Row(s.row))
			s.state = stateReadingRows
		}
		s.row++

	case stateReadingRows:
		if s.row > s.grid.MaxRow() {
			s.end = s.row
			s.state = stateDone
			return
		}
		cells := s.grid.Row(s.row)
		if isBlankRow(cells) || isTrailerRow(cells) {
			s.end = s.row
			s.state = stateDone
			return
		}
		if item, ok := s.readItem(); ok {
			item.ItemNumber = len(s.items) + 1
			s.items = append(s.items, item)
		}
		s.row++
	}
}

func (s *tableScan) cell(role string) string {
	col, ok := s.columns[role]
	if !ok {
		return ""
	}
	return s.grid.Cell(s.row, col)
}

// readItem builds a line item from the current row. Rows without a
// description, quantity and unit price are not items.
func (s *tableScan) readItem() (entity.LineItem, bool) {
	desc := s.cell(sheet.ColumnDescription)
	qtyRaw := s.cell(sheet.ColumnQuantity)
	priceRaw := s.cell(sheet.ColumnUnitPrice)
	if desc == "" || qtyRaw == "" || priceRaw == "" {
		return entity.LineItem{}, false
	}

	item := entity.LineItem{Description: desc}
	if v, ok := ParseAmount(qtyRaw); ok {
		item.Quantity = entity.Float(v)
	}
	if v, ok := ParseAmount(priceRaw); ok {
		item.UnitPrice = entity.Float(v)
	}

	if v, ok := ParseAmount(s.cell(sheet.ColumnLineTotal)); ok {
		item.LineTotal = v
	} else {
		item.LineTotal = item.QuantityValue() * item.UnitPriceValue()
	}

	if raw := s.cell(sheet.ColumnDiscount); raw != "" {
		if strings.Contains(raw, "%") {
			if v, ok := ParsePercent(raw); ok {
				item.DiscountPercent = entity.Float(v)
			}
		} else if v, ok := ParseAmount(raw); ok {
			item.DiscountAmount = entity.Float(v)
		}
	}
	return item, true
}

func isHeaderRow(cells []string) bool {
	for _, c := range cells {
		for _, tok := range sheet.HeaderTokens {
			if strings.Contains(c, tok) {
				return true
			}
		}
	}
	return false
}

// mapColumns assigns each header cell at most one role; the leftmost cell
// claiming a role keeps it
func mapColumns(cells []string) map[string]int {
	cols := map[string]int{}
	for i, c := range cells {
		role, ok := sheet.MatchColumnRole(c)
		if !ok {
			continue
		}
		if _, taken := cols[role]; taken {
			continue
		}
		cols[role] = i + 1
	}
	return cols
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

func isTrailerRow(cells []string) bool {
	if len(cells) == 0 {
		return false
	}
	for _, tok := range sheet.TrailerTokens {
		if strings.Contains(cells[0], tok) {
			return true
		}
	}
	return false
}
