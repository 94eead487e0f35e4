package agent

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsafe is returned for input that fails IsArithmetic. It is never tokenized.
	ErrUnsafe         = errors.New("expression is not arithmetic")
	ErrSyntax         = errors.New("invalid syntax")
	ErrDivisionByZero = errors.New("division by zero")
	ErrOverflow       = errors.New("numeric overflow")
	ErrType           = errors.New("unsupported operand type")
)

// EvalError describes why a local evaluation failed. Pos is a byte offset into
// the expression, or -1 when the failure is not tied to a position.
type EvalError struct {
	Err    error
	Pos    int
	Detail string
}

func (e *EvalError) Error() string {
	msg := e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Pos >= 0 {
		msg = fmt.Sprintf("%s (at %d)", msg, e.Pos)
	}
	return msg
}

func (e *EvalError) Unwrap() error { return e.Err }

func evalErr(err error, pos int, format string, args ...any) *EvalError {
	return &EvalError{Err: err, Pos: pos, Detail: fmt.Sprintf(format, args...)}
}
