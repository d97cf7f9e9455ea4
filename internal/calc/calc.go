package calc

import (
	"fmt"
	"math"

	"sheets/internal/grid"
)

// Evaluate computes the display value of cell text against a snapshot.
// Text without the formula marker is returned unchanged. It never fails:
// an unknown function yields "Unknown Function", any other failure "Error".
func Evaluate(text string, snap grid.Snapshot) Value {
	v, err := Eval(text, snap)
	if err != nil {
		return Text(display(err))
	}
	return v
}

// Eval is Evaluate with the failure reported as an error (an *EvalError)
// instead of a display value.
func Eval(text string, snap grid.Snapshot) (v Value, err error) {
	if !IsFormula(text) {
		return Text(text), nil
	}

	defer func() {
		if r := recover(); r != nil {
			v, err = Value{}, &EvalError{Kind: ErrRuntime, Msg: fmt.Sprint(r)}
		}
	}()

	name := functionName(text)
	fn, ok := library[name]
	if !ok {
		return Value{}, &EvalError{Kind: ErrUnknownFunction, Func: name}
	}

	call, err := Tokenize(text)
	if err != nil {
		return Value{}, withFunc(name, err)
	}
	if err = fn.checkArity(len(call.Args)); err != nil {
		return Value{}, withFunc(name, err)
	}

	v, err = fn.call(call.Args, snap)
	if err != nil {
		return Value{}, withFunc(name, err)
	}
	// avoid NaN/Inf leaking into the sheet
	if v.IsNumber() && (math.IsNaN(v.Float()) || math.IsInf(v.Float(), 0)) {
		return Value{}, &EvalError{Kind: ErrNotFinite, Func: name}
	}
	return v, nil
}
