package calc

import (
	"errors"
	"fmt"
	"strings"

	"sheets/internal/grid"
)

// Display values written into a cell when a formula cannot be evaluated.
const (
	DisplayError           = "Error"
	DisplayUnknownFunction = "Unknown Function"
)

var (
	ErrUnknownFunction = errors.New("unknown function")
	ErrEmptyAggregate  = errors.New("aggregate over a range with no numbers")
	ErrSyntax          = errors.New("malformed formula")
	ErrArgument        = errors.New("invalid argument")
	ErrNotFinite       = errors.New("result is not a finite number")
	ErrRuntime         = errors.New("evaluation fault")
)

// EvalError describes a failed evaluation. Kind is one of the sentinels above
// or grid.ErrInvalidAddress / grid.ErrInvalidRange.
type EvalError struct {
	Kind error
	Func string
	Msg  string
}

func (e *EvalError) Error() string {
	if e == nil {
		return ""
	}
	prefix := e.Kind.Error()
	if e.Func != "" {
		prefix = e.Func + ": " + prefix
	}
	if e.Msg == "" {
		return prefix
	}
	return prefix + ": " + e.Msg
}

func (e *EvalError) Unwrap() error { return e.Kind }

func evalErrorf(kind error, format string, args ...any) error {
	return &EvalError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// withFunc attaches the function name to an evaluation error, wrapping
// reference errors coming from the grid package on the way.
func withFunc(name string, err error) error {
	var evalErr *EvalError
	if errors.As(err, &evalErr) {
		if evalErr.Func == "" {
			evalErr.Func = name
		}
		return evalErr
	}
	out := &EvalError{Kind: err, Func: name}
	for _, kind := range []error{grid.ErrInvalidRange, grid.ErrInvalidAddress} {
		if errors.Is(err, kind) {
			out.Kind = kind
			out.Msg = strings.TrimPrefix(err.Error(), kind.Error()+": ")
			break
		}
	}
	return out
}

// display maps an evaluation error to the text shown in the cell.
func display(err error) string {
	if errors.Is(err, ErrUnknownFunction) {
		return DisplayUnknownFunction
	}
	return DisplayError
}
