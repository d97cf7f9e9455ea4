package grid

import (
	"math"
	"strconv"
	"strings"
)

// Snapshot is the flat mapping of every cell key ("row-col") to its raw text.
type Snapshot map[string]string

// Text returns the raw text of a cell, or "" when the cell is absent.
func (s Snapshot) Text(a Address) string {
	return s[a.Key()]
}

// RangeTexts returns the raw text of every cell in the range, in enumeration order.
func (s Snapshot) RangeTexts(r Range) []string {
	cells := r.Cells()
	texts := make([]string, 0, len(cells))
	for _, a := range cells {
		texts = append(texts, s.Text(a))
	}
	return texts
}

// RangeNumbers returns the cells of the range that hold a finite number.
// Empty and non-numeric cells are skipped.
func (s Snapshot) RangeNumbers(r Range) []float64 {
	var values []float64
	for _, a := range r.Cells() {
		if v, ok := ParseNumber(s.Text(a)); ok {
			values = append(values, v)
		}
	}
	return values
}

// Clone returns an independent copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Bounds returns the largest row and column index present, or -1, -1 for an
// empty snapshot. Keys that are not "row-col" are ignored.
func (s Snapshot) Bounds() (maxRow, maxCol int) {
	maxRow, maxCol = -1, -1
	for k := range s {
		a, err := ParseKey(k)
		if err != nil {
			continue
		}
		maxRow = max(maxRow, a.Row)
		maxCol = max(maxCol, a.Col)
	}
	return maxRow, maxCol
}

// ParseNumber reports whether text is a finite decimal number.
// Surrounding whitespace is ignored; empty text is not a number.
// Hex floats and digit separators are not decimal numbers.
func ParseNumber(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	if text == "" || strings.ContainsRune(text, '_') {
		return 0, false
	}
	digits := strings.TrimLeft(text, "+-")
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		return 0, false
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
