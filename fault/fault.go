package fault

import (
	"errors"
	"fmt"
)

type Code string

const (
	UnknownCode  Code = "unknown"
	NotFoundCode Code = "not_found"
	BadInputCode Code = "bad_input"

	// LexicalCode marks a malformed variable token, e.g. unbalanced curly
	// brackets inside a `[name{` opening.
	LexicalCode Code = "lexical"
	// StructuralCode marks a token stream that does not satisfy the grammar.
	StructuralCode Code = "structural"
)

type FieldErrorsMetadata map[string][]string

// PositionMetadata locates an error in the query text. Offset is counted in
// runes, Line and Column start at 1.
type PositionMetadata struct {
	Offset int `json:"offset"`
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (p PositionMetadata) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

type Fault struct {
	code     Code
	message  string
	metadata any
	original error
}

func New(code Code, message string) Fault {
	return Fault{
		code:    code,
		message: message,
	}
}

func Newf(code Code, format string, args ...any) Fault {
	return New(code, fmt.Sprintf(format, args...))
}

func (f Fault) WithMetadata(metadata any) Fault {
	e := f
	e.metadata = metadata
	return e
}

func (f Fault) WithOriginal(original error) Fault {
	e := f
	e.original = original
	return e
}

func (f Fault) Code() Code {
	return f.code
}

func (f Fault) Message() string {
	return f.message
}

func (f Fault) Metadata() any {
	return f.metadata
}

func (f Fault) Original() error {
	return f.original
}

// Position returns the position metadata if the fault carries one.
func (f Fault) Position() (PositionMetadata, bool) {
	p, ok := f.metadata.(PositionMetadata)
	return p, ok
}

func (f Fault) Unwrap() error {
	return f.original
}

func (f Fault) Error() string {
	msg := f.message
	if p, ok := f.Position(); ok {
		msg = fmt.Sprintf("%s error at %s: %s", f.code, p, f.message)
	}
	if f.original != nil {
		return fmt.Sprintf("%s: %v", msg, f.original)
	}
	return msg
}

// CodeOf returns the code of the first fault in err's chain, or UnknownCode.
func CodeOf(err error) Code {
	var f Fault
	if errors.As(err, &f) {
		return f.code
	}
	return UnknownCode
}

// Is reports whether err's chain contains a fault with the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
