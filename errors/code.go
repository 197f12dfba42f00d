package errors

import (
	"fmt"
)

const (
	// SuccessCode is returned for a nil error.
	SuccessCode uint32 = 0

	// All unclassified errors that do not provide a code are clubbed under
	// an internal error code and a generic message instead of detailed
	// error string.
	internalCode uint32 = 1
	internalLog         = "internal error"
)

type coder interface {
	Code() uint32
}

// Code returns the code of the root error that given error wraps. Errors
// that are not registered are reported as internal (code 1).
func Code(err error) uint32 {
	if isNilErr(err) {
		return SuccessCode
	}

	for {
		if c, ok := err.(coder); ok {
			return c.Code()
		}
		if c, ok := err.(causer); ok {
			err = c.Cause()
		} else {
			return internalCode
		}
	}
}

// Info returns the code and the message of given error, safe to be exposed to
// a client. When not running in a debug mode all messages of errors that do
// not provide a code are replaced with generic "internal error".
func Info(err error, debug bool) (uint32, string) {
	if isNilErr(err) {
		return SuccessCode, ""
	}

	code := Code(err)
	switch {
	case debug:
		return code, fmt.Sprintf("%+v", err)
	case code == internalCode || code == ErrPanic.code:
		return internalCode, internalLog
	default:
		return code, err.Error()
	}
}
