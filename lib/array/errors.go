package array

import "fmt"

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

// RetCode classifies an Error.
type RetCode int

const (
	RetCIndexOutOfRange RetCode = iota + 1 // checked access with index >= size
	RetCLengthMismatch                     // batch arguments of different length
	RetCIncompatible                       // two containers cannot be combined (e.g. swap)
	RetCUnsupported                        // engine does not provide the requested operation
)

func (c RetCode) String() string {
	switch c {
	case RetCIndexOutOfRange:
		return "IndexOutOfRange"
	case RetCLengthMismatch:
		return "LengthMismatch"
	case RetCIncompatible:
		return "Incompatible"
	case RetCUnsupported:
		return "Unsupported"
	default:
		return "Unknown"
	}
}

// --------------------------------------------------------------------------
// Error type
// --------------------------------------------------------------------------

// Error is the error type returned by container operations.
// Two Errors match with errors.Is when their codes are equal, so callers
// can test against the sentinels below regardless of the message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("array (code %s): %s", e.Code, e.Msg)
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// Sentinels for errors.Is.
var (
	ErrIndexOutOfRange = NewError(RetCIndexOutOfRange, "index out of range")
	ErrLengthMismatch  = NewError(RetCLengthMismatch, "length mismatch")
	ErrIncompatible    = NewError(RetCIncompatible, "incompatible containers")
	ErrUnsupported     = NewError(RetCUnsupported, "unsupported operation")
)

// OutOfRange builds the IndexOutOfRange error for index i against size n.
func OutOfRange(i, n int) *Error {
	return NewError(RetCIndexOutOfRange, fmt.Sprintf("index %d out of range [0, %d)", i, n))
}

// LengthMismatch builds the LengthMismatch error for a batch call.
func LengthMismatch(idxs, vals int) *Error {
	return NewError(RetCLengthMismatch, fmt.Sprintf("%d indices but %d values", idxs, vals))
}
