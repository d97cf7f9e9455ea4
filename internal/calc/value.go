package calc

import (
	"strconv"

	json "github.com/bytedance/sonic"
)

// Value is the result of evaluating a cell: a number or a text.
type Value struct {
	num    float64
	text   string
	number bool
}

func Number(v float64) Value { return Value{num: v, number: true} }

func Text(s string) Value { return Value{text: s} }

func (v Value) IsNumber() bool { return v.number }

// Float returns the numeric value; it is 0 for text values.
func (v Value) Float() float64 { return v.num }

// String renders the value the way it is stored back into the sheet.
func (v Value) String() string {
	if v.number {
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return v.text
}

// MarshalJSON encodes numbers as JSON numbers and texts as JSON strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.number {
		return []byte(v.String()), nil
	}
	return json.Marshal(v.text)
}
