// Package assert provides a minimal set of test helpers used across all
// packages of this repository.
package assert

import (
	"reflect"
	"testing"

	"github.com/splitchain/bsplit/errors"
)

// Nil fails the test if given value is not nil.
func Nil(t testing.TB, value interface{}) {
	t.Helper()

	if !isNil(value) {
		// Use %+v so that if the value implements a stack trace
		// providing interface the full information is printed.
		t.Fatalf("want a nil value, got %+v", value)
	}
}

func isNil(value interface{}) bool {
	if value == nil {
		return true
	}
	switch v := reflect.ValueOf(value); v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface,
		reflect.Map, reflect.Ptr, reflect.Slice:
		return v.IsNil()
	}
	return false
}

// Equal fails the test if the two values are not equal.
func Equal(t testing.TB, want, got interface{}) {
	t.Helper()

	if !reflect.DeepEqual(want, got) {
		t.Logf("want %v", want)
		t.Logf(" got %v", got)
		t.Fatal("values not equal")
	}
}

// Panics runs given function and fails the test if it does not panic.
func Panics(t testing.TB, fn func()) {
	t.Helper()

	defer func() {
		t.Helper()
		if recover() == nil {
			t.Fatal("panic expected")
		}
	}()
	fn()
}

// IsErr fails the test if the error does not belong to the wanted class.
func IsErr(t testing.TB, want *errors.Error, err error) {
	t.Helper()

	if !want.Is(err) {
		t.Fatalf("want %q error, got %+v", want, err)
	}
}

// FieldError ensures that given error contains a single error for the named
// field and that it belongs to the wanted class. Use nil as the wanted error
// to require that no error for that field is present.
func FieldError(t testing.TB, err error, fieldName string, want *errors.Error) {
	t.Helper()

	errs := errors.FieldErrors(err, fieldName)

	if want == nil {
		if len(errs) != 0 {
			t.Fatalf("want no errors for field %q, got %+v", fieldName, errs)
		}
		return
	}

	if len(errs) != 1 {
		t.Fatalf("want one error for field %q, got %d: %+v", fieldName, len(errs), errs)
	}
	if !want.Is(errs[0]) {
		t.Fatalf("want %q error for field %q, got %+v", want, fieldName, errs[0])
	}
}
