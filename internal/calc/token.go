package calc

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/xuri/efp"

	"sheets/internal/grid"
)

// FormulaPrefix marks cell text as a formula.
const FormulaPrefix = "="

// ArgKind tags a tokenized formula argument.
type ArgKind uint8

const (
	ArgAddress ArgKind = iota + 1
	ArgRange
	ArgText
	ArgNumber
)

func (k ArgKind) String() string {
	switch k {
	case ArgAddress:
		return "address"
	case ArgRange:
		return "range"
	case ArgText:
		return "text"
	case ArgNumber:
		return "number"
	default:
		return "unknown"
	}
}

// Arg is one argument of a formula call. Only the field matching Kind is set.
type Arg struct {
	Kind    ArgKind
	Raw     string
	Address grid.Address
	Range   grid.Range
	Text    string
	Number  float64
}

// Call is a tokenized formula: the upper-cased function name and its arguments.
type Call struct {
	Name string
	Args []Arg
}

// IsFormula reports whether cell text is a formula.
func IsFormula(text string) bool {
	return strings.HasPrefix(text, FormulaPrefix)
}

// functionName returns the upper-cased text between the marker and the first "(".
func functionName(text string) string {
	name, _, _ := strings.Cut(strings.TrimPrefix(text, FormulaPrefix), "(")
	return strings.ToUpper(strings.TrimSpace(name))
}

// Tokenize splits a formula of the form =NAME(arg, ...) into its function
// name and tagged arguments. Commas inside quoted literals do not split.
// Nested calls, parentheses and operators between arguments are rejected.
func Tokenize(text string) (Call, error) {
	if !IsFormula(text) {
		return Call{}, evalErrorf(ErrSyntax, "missing %q marker", FormulaPrefix)
	}
	body := strings.TrimSpace(strings.TrimPrefix(text, FormulaPrefix))
	if body == "" {
		return Call{}, evalErrorf(ErrSyntax, "empty formula")
	}

	ps := efp.ExcelParser()
	tokens := significant(ps.Parse(compact(body)))
	if len(tokens) < 2 {
		return Call{}, evalErrorf(ErrSyntax, "expected a function call in %q", body)
	}
	first, last := tokens[0], tokens[len(tokens)-1]
	if first.TType != efp.TokenTypeFunction || first.TSubType != efp.TokenSubTypeStart {
		return Call{}, evalErrorf(ErrSyntax, "expected a function call in %q", body)
	}
	if last.TType != efp.TokenTypeFunction || last.TSubType != efp.TokenSubTypeStop {
		return Call{}, evalErrorf(ErrSyntax, "unexpected text after the argument list in %q", body)
	}

	call := Call{Name: strings.ToUpper(strings.TrimSpace(first.TValue))}
	inner := tokens[1 : len(tokens)-1]
	if len(inner) == 0 {
		return call, nil
	}

	var group []efp.Token
	for _, tk := range inner {
		switch tk.TType {
		case efp.TokenTypeArgument:
			arg, err := classify(group)
			if err != nil {
				return Call{}, err
			}
			call.Args = append(call.Args, arg)
			group = group[:0]
		case efp.TokenTypeFunction, efp.TokenTypeSubexpression:
			return Call{}, evalErrorf(ErrSyntax, "nested expressions are not supported")
		default:
			group = append(group, tk)
		}
	}
	arg, err := classify(group)
	if err != nil {
		return Call{}, err
	}
	call.Args = append(call.Args, arg)
	return call, nil
}

// compact drops whitespace before "(" and around ":" outside quoted
// literals, so "SUM (A1 : A2)" tokenizes like "SUM(A1:A2)".
func compact(body string) string {
	var b strings.Builder
	b.Grow(len(body))
	quoted := false
	runes := []rune(body)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '"' {
			quoted = !quoted
		}
		if quoted || !unicode.IsSpace(r) {
			b.WriteRune(r)
			continue
		}
		j := i
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		prevColon := strings.HasSuffix(b.String(), ":")
		nextTight := j < len(runes) && (runes[j] == '(' || runes[j] == ':')
		if !prevColon && !nextTight {
			b.WriteString(string(runes[i:j]))
		}
		i = j - 1
	}
	return b.String()
}

func significant(tokens []efp.Token) []efp.Token {
	out := make([]efp.Token, 0, len(tokens))
	for _, tk := range tokens {
		if tk.TType == efp.TokenTypeWhitespace || tk.TType == efp.TokenTypeNoop {
			continue
		}
		out = append(out, tk)
	}
	return out
}

// classify turns the tokens between two argument separators into an Arg.
func classify(group []efp.Token) (Arg, error) {
	switch len(group) {
	case 0:
		return Arg{}, evalErrorf(ErrSyntax, "empty argument")
	case 1:
		return classifyOperand(group[0])
	case 2:
		sign, operand := group[0], group[1]
		if sign.TType == efp.TokenTypeOperatorPrefix && (sign.TValue == "-" || sign.TValue == "+") &&
			operand.TType == efp.TokenTypeOperand && operand.TSubType == efp.TokenSubTypeNumber {
			arg, err := classifyOperand(operand)
			if err != nil {
				return Arg{}, err
			}
			if sign.TValue == "-" {
				arg.Number = -arg.Number
			}
			arg.Raw = sign.TValue + arg.Raw
			return arg, nil
		}
	}
	return Arg{}, evalErrorf(ErrSyntax, "unsupported expression in argument")
}

func classifyOperand(tk efp.Token) (Arg, error) {
	if tk.TType != efp.TokenTypeOperand {
		return Arg{}, evalErrorf(ErrSyntax, "unexpected %q", tk.TValue)
	}
	switch tk.TSubType {
	case efp.TokenSubTypeText:
		return Arg{Kind: ArgText, Raw: tk.TValue, Text: tk.TValue}, nil
	case efp.TokenSubTypeNumber:
		v, err := strconv.ParseFloat(tk.TValue, 64)
		if err != nil {
			return Arg{}, evalErrorf(ErrSyntax, "bad number %q", tk.TValue)
		}
		return Arg{Kind: ArgNumber, Raw: tk.TValue, Number: v}, nil
	case efp.TokenSubTypeRange:
		ref := strings.ToUpper(tk.TValue)
		if strings.Contains(ref, ":") {
			r, err := grid.ParseRange(ref)
			if err != nil {
				return Arg{}, err
			}
			return Arg{Kind: ArgRange, Raw: ref, Range: r}, nil
		}
		a, err := grid.ParseAddress(ref)
		if err != nil {
			return Arg{}, err
		}
		return Arg{Kind: ArgAddress, Raw: ref, Address: a}, nil
	}
	return Arg{}, evalErrorf(ErrArgument, "unsupported operand %q", tk.TValue)
}
