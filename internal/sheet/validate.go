package sheet

import "sheets/internal/grid"

const (
	KindText   = "text"
	KindNumber = "number"

	InvalidNumber = "Invalid Number"
)

// ValidateCellData checks a value against the declared cell kind. A value
// declared as a number that does not parse as one is replaced by
// InvalidNumber; anything else passes through, including an empty value.
func ValidateCellData(value, kind string) string {
	if kind == KindNumber && value != "" {
		if _, ok := grid.ParseNumber(value); !ok {
			return InvalidNumber
		}
	}
	return value
}
