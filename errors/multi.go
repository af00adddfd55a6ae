package errors

import (
	"fmt"
	"strings"
)

// Append clubs together all provided errors. Nil values are ignored.
//
// If given errors contain a multi error instance, it is flattened so that the
// final result is never a nested collection of errors.
// Append returns nil if all given errors are nil. It never returns a multi
// error with a single element.
func Append(errs ...error) error {
	var res multiError
	for _, err := range errs {
		switch e := err.(type) {
		case nil:
			continue
		case multiError:
			res = append(res, e...)
		default:
			if isNilErr(err) {
				continue
			}
			res = append(res, err)
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

// multiError is a collection of errors that acts as a single error. It is a
// flat structure and must never contain another multi error instance.
type multiError []error

func (e multiError) Error() string {
	switch len(e) {
	case 0:
		return "<nil>"
	case 1:
		return e[0].Error()
	}

	points := make([]string, len(e))
	for i, err := range e {
		points[i] = fmt.Sprintf("* %s", err)
	}
	return fmt.Sprintf("%d errors occurred:\n\t%s", len(e), strings.Join(points, "\n\t"))
}

// Unpack splits this error into the collection of errors it was created from.
func (e multiError) Unpack() []error {
	return e
}

// ABCICode returns the code of the first error, consistent with the fail-fast
// approach of transaction processing.
func (e multiError) ABCICode() uint32 {
	if len(e) == 0 {
		return internalABCICode
	}
	return ABCICode(e[0])
}

var (
	_ error    = (multiError)(nil)
	_ unpacker = (multiError)(nil)
	_ coder    = (multiError)(nil)
)
