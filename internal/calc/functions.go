package calc

import (
	"math"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"sheets/internal/grid"
)

type function struct {
	minArgs int
	maxArgs int // -1: no upper bound
	call    func(args []Arg, snap grid.Snapshot) (Value, error)
}

var library = map[string]function{
	"SUM":               {1, 1, sum},
	"AVERAGE":           {1, 1, average},
	"MAX":               {1, 1, maximum},
	"MIN":               {1, 1, minimum},
	"COUNT":             {1, 1, count},
	"TRIM":              {1, 1, trim},
	"UPPER":             {1, 1, upper},
	"LOWER":             {1, 1, lower},
	"CONCAT":            {1, -1, concat},
	"LEN":               {1, 1, length},
	"LEFT":              {2, 2, left},
	"RIGHT":             {2, 2, right},
	"MID":               {3, 3, mid},
	"FIND_AND_REPLACE":  {3, 3, findAndReplace},
	"REMOVE_DUPLICATES": {1, 1, removeDuplicates},
}

// Functions lists the supported function names in alphabetical order.
func Functions() []string {
	names := make([]string, 0, len(library))
	for name := range library {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (f function) checkArity(n int) error {
	if n < f.minArgs || (f.maxArgs >= 0 && n > f.maxArgs) {
		switch {
		case f.maxArgs < 0:
			return evalErrorf(ErrArgument, "want at least %d arguments, got %d", f.minArgs, n)
		case f.minArgs == f.maxArgs:
			return evalErrorf(ErrArgument, "want %d arguments, got %d", f.minArgs, n)
		default:
			return evalErrorf(ErrArgument, "want %d to %d arguments, got %d", f.minArgs, f.maxArgs, n)
		}
	}
	return nil
}

// ----------------------------- argument helpers -----------------------------

// rangeOf accepts a range or a single address (a one-cell range).
func rangeOf(arg Arg) (grid.Range, error) {
	switch arg.Kind {
	case ArgRange:
		return arg.Range, nil
	case ArgAddress:
		return grid.Range{Start: arg.Address, End: arg.Address}, nil
	}
	return grid.Range{}, evalErrorf(ErrArgument, "want a range, got %s %q", arg.Kind, arg.Raw)
}

func cellText(arg Arg, snap grid.Snapshot) (string, error) {
	if arg.Kind != ArgAddress {
		return "", evalErrorf(ErrArgument, "want a cell address, got %s %q", arg.Kind, arg.Raw)
	}
	return snap.Text(arg.Address), nil
}

// integer accepts a numeral or an address holding a number; fractions are
// truncated toward zero.
func integer(arg Arg, snap grid.Snapshot) (int, error) {
	var v float64
	switch arg.Kind {
	case ArgNumber:
		v = arg.Number
	case ArgAddress:
		n, ok := grid.ParseNumber(snap.Text(arg.Address))
		if !ok {
			return 0, evalErrorf(ErrArgument, "cell %s is not a number", arg.Address)
		}
		v = n
	default:
		return 0, evalErrorf(ErrArgument, "want a number, got %s %q", arg.Kind, arg.Raw)
	}
	v = math.Trunc(v)
	switch {
	case v > math.MaxInt32:
		return math.MaxInt32, nil
	case v < math.MinInt32:
		return math.MinInt32, nil
	}
	return int(v), nil
}

func literal(arg Arg) (string, error) {
	switch arg.Kind {
	case ArgText:
		return arg.Text, nil
	case ArgNumber:
		return arg.Raw, nil
	}
	return "", evalErrorf(ErrArgument, "want a quoted text, got %s %q", arg.Kind, arg.Raw)
}

// ----------------------------- aggregates -----------------------------

func numbers(args []Arg, snap grid.Snapshot) ([]float64, error) {
	r, err := rangeOf(args[0])
	if err != nil {
		return nil, err
	}
	return snap.RangeNumbers(r), nil
}

func sum(args []Arg, snap grid.Snapshot) (Value, error) {
	values, err := numbers(args, snap)
	if err != nil {
		return Value{}, err
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return Number(total), nil
}

func average(args []Arg, snap grid.Snapshot) (Value, error) {
	values, err := numbers(args, snap)
	if err != nil {
		return Value{}, err
	}
	if len(values) == 0 {
		return Number(0), nil
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return Number(total / float64(len(values))), nil
}

func maximum(args []Arg, snap grid.Snapshot) (Value, error) {
	values, err := numbers(args, snap)
	if err != nil {
		return Value{}, err
	}
	if len(values) == 0 {
		return Value{}, evalErrorf(ErrEmptyAggregate, "%s", args[0].Raw)
	}
	return Number(slices.Max(values)), nil
}

func minimum(args []Arg, snap grid.Snapshot) (Value, error) {
	values, err := numbers(args, snap)
	if err != nil {
		return Value{}, err
	}
	if len(values) == 0 {
		return Value{}, evalErrorf(ErrEmptyAggregate, "%s", args[0].Raw)
	}
	return Number(slices.Min(values)), nil
}

func count(args []Arg, snap grid.Snapshot) (Value, error) {
	values, err := numbers(args, snap)
	if err != nil {
		return Value{}, err
	}
	return Number(float64(len(values))), nil
}

// ----------------------------- text -----------------------------

func trim(args []Arg, snap grid.Snapshot) (Value, error) {
	text, err := cellText(args[0], snap)
	if err != nil {
		return Value{}, err
	}
	return Text(strings.TrimSpace(text)), nil
}

func upper(args []Arg, snap grid.Snapshot) (Value, error) {
	text, err := cellText(args[0], snap)
	if err != nil {
		return Value{}, err
	}
	return Text(cases.Upper(language.Und).String(text)), nil
}

func lower(args []Arg, snap grid.Snapshot) (Value, error) {
	text, err := cellText(args[0], snap)
	if err != nil {
		return Value{}, err
	}
	return Text(cases.Lower(language.Und).String(text)), nil
}

func concat(args []Arg, snap grid.Snapshot) (Value, error) {
	var b strings.Builder
	for _, arg := range args {
		if arg.Kind == ArgText {
			b.WriteString(arg.Text)
			continue
		}
		text, err := cellText(arg, snap)
		if err != nil {
			return Value{}, err
		}
		b.WriteString(text)
	}
	return Text(b.String()), nil
}

func length(args []Arg, snap grid.Snapshot) (Value, error) {
	text, err := cellText(args[0], snap)
	if err != nil {
		return Value{}, err
	}
	return Number(float64(len([]rune(text)))), nil
}

func left(args []Arg, snap grid.Snapshot) (Value, error) {
	text, err := cellText(args[0], snap)
	if err != nil {
		return Value{}, err
	}
	n, err := integer(args[1], snap)
	if err != nil {
		return Value{}, err
	}
	runes := []rune(text)
	if n <= 0 {
		return Text(""), nil
	}
	return Text(string(runes[:min(n, len(runes))])), nil
}

func right(args []Arg, snap grid.Snapshot) (Value, error) {
	text, err := cellText(args[0], snap)
	if err != nil {
		return Value{}, err
	}
	n, err := integer(args[1], snap)
	if err != nil {
		return Value{}, err
	}
	runes := []rune(text)
	if n <= 0 {
		return Text(""), nil
	}
	return Text(string(runes[len(runes)-min(n, len(runes)):])), nil
}

// mid takes a 1-based start; a start outside the text yields "".
func mid(args []Arg, snap grid.Snapshot) (Value, error) {
	text, err := cellText(args[0], snap)
	if err != nil {
		return Value{}, err
	}
	start, err := integer(args[1], snap)
	if err != nil {
		return Value{}, err
	}
	n, err := integer(args[2], snap)
	if err != nil {
		return Value{}, err
	}
	runes := []rune(text)
	if start < 1 || start > len(runes) || n <= 0 {
		return Text(""), nil
	}
	from := start - 1
	to := from + min(n, len(runes)-from)
	return Text(string(runes[from:to])), nil
}

// findAndReplace leaves the text unchanged when the searched text is empty.
func findAndReplace(args []Arg, snap grid.Snapshot) (Value, error) {
	text, err := cellText(args[0], snap)
	if err != nil {
		return Value{}, err
	}
	old, err := literal(args[1])
	if err != nil {
		return Value{}, err
	}
	replacement, err := literal(args[2])
	if err != nil {
		return Value{}, err
	}
	if old == "" {
		return Text(text), nil
	}
	return Text(strings.ReplaceAll(text, old, replacement)), nil
}

func removeDuplicates(args []Arg, snap grid.Snapshot) (Value, error) {
	r, err := rangeOf(args[0])
	if err != nil {
		return Value{}, err
	}
	texts := snap.RangeTexts(r)
	seen := make(map[string]bool, len(texts))
	unique := make([]string, 0, len(texts))
	for _, text := range texts {
		if seen[text] {
			continue
		}
		seen[text] = true
		unique = append(unique, text)
	}
	return Text(strings.Join(unique, ", ")), nil
}
