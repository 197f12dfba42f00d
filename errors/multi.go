package errors

import (
	"fmt"
	"strings"
)

// Append clubs together all provided errors. Nil values are ignored.
//
// If more than one non nil error is provided, a multi error is returned. Its
// code is the code of the first error. Multi errors are flattened.
func Append(errs ...error) error {
	var res multiErr
	for _, e := range errs {
		if isNilErr(e) {
			continue
		}
		if m, ok := e.(multiErr); ok {
			res = append(res, m...)
		} else {
			res = append(res, e)
		}
	}
	switch len(res) {
	case 0:
		return nil
	case 1:
		return res[0]
	default:
		return res
	}
}

type multiErr []error

func (e multiErr) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = fmt.Sprintf("* %s", err)
	}
	return fmt.Sprintf("%d errors occurred:\n\t%s", len(e), strings.Join(msgs, "\n\t"))
}

func (e multiErr) Unpack() []error {
	return e
}

// Code returns the code of the first error.
func (e multiErr) Code() uint32 {
	return Code(e[0])
}

type unpacker interface {
	Unpack() []error
}
