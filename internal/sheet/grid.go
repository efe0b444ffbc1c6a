package sheet

import (
	"bytes"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Address is a 1-based cell position
type Address struct {
	Row int
	Col int
}

// String returns the A1-style name of the address
func (a Address) String() string {
	name, err := excelize.CoordinatesToCellName(a.Col, a.Row)
	if err != nil {
		return ""
	}
	return name
}

// Grid is an immutable snapshot of the first sheet of a workbook.
// Cells hold raw values: numbers as written by the producer, dates as
// Excel serial numbers.
type Grid struct {
	sheetName string
	rows      [][]string
	maxCol    int
}

// Read loads the first sheet of an xlsx/xlsm workbook into a Grid
func Read(data []byte) (*Grid, error) {
	if len(data) == 0 {
		return nil, &ParseError{Reason: "empty file"}
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Reason: "not a spreadsheet", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Reason: "workbook has no sheets"}
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &ParseError{Reason: "read sheet " + sheets[0], Err: err}
	}

	g := NewGrid(rows)
	g.sheetName = sheets[0]
	return g, nil
}

// NewGrid builds a Grid from row-major values, row 1 first
func NewGrid(rows [][]string) *Grid {
	g := &Grid{rows: make([][]string, len(rows))}
	for i, row := range rows {
		g.rows[i] = append([]string(nil), row...)
		if len(row) > g.maxCol {
			g.maxCol = len(row)
		}
	}
	return g
}

// SheetName is the name of the sheet the grid was read from
func (g *Grid) SheetName() string { return g.sheetName }

// MaxRow is the last row of the bounding range
func (g *Grid) MaxRow() int { return len(g.rows) }

// MaxCol is the last column of the bounding range
func (g *Grid) MaxCol() int { return g.maxCol }

// Cell returns the trimmed value at (row, col), or "" outside the grid
func (g *Grid) Cell(row, col int) string {
	if row < 1 || row > len(g.rows) {
		return ""
	}
	r := g.rows[row-1]
	if col < 1 || col > len(r) {
		return ""
	}
	return strings.TrimSpace(r[col-1])
}

// Row returns the trimmed values of row, padded to MaxCol
func (g *Grid) Row(row int) []string {
	out := make([]string, g.maxCol)
	for c := 1; c <= g.maxCol; c++ {
		out[c-1] = g.Cell(row, c)
	}
	return out
}

// FindLabel returns the first cell, in row-major order, whose value contains text
func (g *Grid) FindLabel(text string) (Address, bool) {
	return g.FindLabelFrom(text, 1, nil)
}

// FindLabelFrom is FindLabel starting at fromRow and skipping cells that
// contain any of the exclude fragments
func (g *Grid) FindLabelFrom(text string, fromRow int, exclude []string) (Address, bool) {
	var found Address
	ok := false
	g.scan(text, fromRow, exclude, func(a Address) bool {
		found, ok = a, true
		return false
	})
	return found, ok
}

// ValueRightOf returns the non-empty cell to the right of a
func (g *Grid) ValueRightOf(a Address) (string, bool) {
	v := g.Cell(a.Row, a.Col+1)
	return v, v != ""
}

// ValueBelow returns the non-empty cell directly below a
func (g *Grid) ValueBelow(a Address) (string, bool) {
	v := g.Cell(a.Row+1, a.Col)
	return v, v != ""
}

// LabelValue returns the value associated with a label cell: the cell to
// the right, falling back to the cell below
func (g *Grid) LabelValue(a Address) (string, bool) {
	if v, ok := g.ValueRightOf(a); ok {
		return v, true
	}
	return g.ValueBelow(a)
}

// FindValue returns the value of the first cell containing label that has
// an associated value. Matching cells without a value are skipped.
func (g *Grid) FindValue(label string) (string, Address, bool) {
	return g.FindValueFrom(label, 1, nil)
}

// FindValueFrom is FindValue restricted to rows >= fromRow, skipping cells
// that contain any of the exclude fragments
func (g *Grid) FindValueFrom(label string, fromRow int, exclude []string) (string, Address, bool) {
	return g.FindValueBetween(label, fromRow, 0, exclude)
}

// FindValueBetween is FindValueFrom further restricted to rows < toRow.
// A toRow of 0 leaves the search unbounded.
func (g *Grid) FindValueBetween(label string, fromRow, toRow int, exclude []string) (string, Address, bool) {
	var (
		value string
		at    Address
		ok    bool
	)
	g.scanRows(label, fromRow, toRow, exclude, func(a Address) bool {
		if v, found := g.LabelValue(a); found {
			value, at, ok = v, a, true
			return false
		}
		return true
	})
	return value, at, ok
}

// scan visits matching cells in reading order until visit returns false
func (g *Grid) scan(text string, fromRow int, exclude []string, visit func(Address) bool) {
	g.scanRows(text, fromRow, 0, exclude, visit)
}

// scanRows is scan over rows [fromRow, toRow); toRow 0 means the last row
func (g *Grid) scanRows(text string, fromRow, toRow int, exclude []string, visit func(Address) bool) {
	if text == "" {
		return
	}
	if fromRow < 1 {
		fromRow = 1
	}
	last := len(g.rows)
	if toRow > 0 && toRow-1 < last {
		last = toRow - 1
	}
	for r := fromRow; r <= last; r++ {
		for c := 1; c <= len(g.rows[r-1]); c++ {
			v := g.Cell(r, c)
			if v == "" || !strings.Contains(v, text) || containsAny(v, exclude) {
				continue
			}
			if !visit(Address{Row: r, Col: c}) {
				return
			}
		}
	}
}

func containsAny(s string, fragments []string) bool {
	for _, f := range fragments {
		if f != "" && strings.Contains(s, f) {
			return true
		}
	}
	return false
}
