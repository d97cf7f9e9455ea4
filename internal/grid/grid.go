package grid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidAddress = errors.New("invalid cell address")
	ErrInvalidRange   = errors.New("invalid cell range")
	ErrInvalidKey     = errors.New("invalid cell key")
)

// MaxCol is the last column an address can name ("Z").
const MaxCol = 25

// Address is a zero-based (row, column) cell coordinate.
type Address struct {
	Row int
	Col int
}

// String formats the address as a column letter plus 1-based row, e.g. {2, 1} -> "B3".
func (a Address) String() string {
	return ColToName(a.Col) + strconv.Itoa(a.Row+1)
}

// Key returns the snapshot key of the address.
func (a Address) Key() string {
	return Key(a.Row, a.Col)
}

// ColToName: 0 -> A, 25 -> Z, 26 -> AA and so on
func ColToName(col int) string {
	if col < 0 {
		return "?"
	}
	result := ""
	n := col + 1
	for n > 0 {
		n--
		result = string(rune('A'+(n%26))) + result
		n /= 26
	}
	return result
}

// ParseAddress parses one uppercase letter followed by a positive row number ("A1", "C12").
func ParseAddress(text string) (Address, error) {
	if len(text) < 2 || !isUpper(text[0]) {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, text)
	}
	digits := text[1:]
	for i := 0; i < len(digits); i++ {
		if !isDigit(digits[i]) {
			return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, text)
		}
	}
	rowNum, err := strconv.Atoi(digits)
	if err != nil || rowNum < 1 {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, text)
	}
	return Address{Row: rowNum - 1, Col: int(text[0] - 'A')}, nil
}

// Range is an inclusive rectangular block between two corner addresses.
type Range struct {
	Start Address
	End   Address
}

func (r Range) String() string {
	return r.Start.String() + ":" + r.End.String()
}

// ParseRange parses "<start>:<end>", e.g. "A1:B3".
func ParseRange(text string) (Range, error) {
	left, right, ok := strings.Cut(text, ":")
	if !ok {
		return Range{}, fmt.Errorf("%w: %q has no ':'", ErrInvalidRange, text)
	}
	start, err := ParseAddress(left)
	if err != nil {
		return Range{}, fmt.Errorf("%w: %w", ErrInvalidRange, err)
	}
	end, err := ParseAddress(right)
	if err != nil {
		return Range{}, fmt.Errorf("%w: %w", ErrInvalidRange, err)
	}
	return Range{Start: start, End: end}, nil
}

// Cells enumerates the range row by row. A range whose end precedes its
// start on either axis is empty; it is not reversed.
func (r Range) Cells() []Address {
	if r.End.Row < r.Start.Row || r.End.Col < r.Start.Col {
		return nil
	}
	cells := make([]Address, 0, (r.End.Row-r.Start.Row+1)*(r.End.Col-r.Start.Col+1))
	for row := r.Start.Row; row <= r.End.Row; row++ {
		for col := r.Start.Col; col <= r.End.Col; col++ {
			cells = append(cells, Address{Row: row, Col: col})
		}
	}
	return cells
}

// Key builds the "<row>-<col>" snapshot key.
func Key(row, col int) string {
	return strconv.Itoa(row) + "-" + strconv.Itoa(col)
}

// ParseKey is the inverse of Key.
func ParseKey(key string) (Address, error) {
	rowPart, colPart, ok := strings.Cut(key, "-")
	if !ok {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	row, err := strconv.Atoi(rowPart)
	if err != nil || row < 0 || strings.HasPrefix(rowPart, "+") {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	col, err := strconv.Atoi(colPart)
	if err != nil || col < 0 || strings.HasPrefix(colPart, "+") {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return Address{Row: row, Col: col}, nil
}

func isUpper(b byte) bool {
	return b >= 'A' && b <= 'Z'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
