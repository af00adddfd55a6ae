package errors

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
)

func TestCause(t *testing.T) {
	std := fmt.Errorf("this is a stdlib error")

	cases := map[string]struct {
		err  error
		root error
	}{
		"Errors are self-causing": {
			err:  ErrUnauthorized,
			root: ErrUnauthorized,
		},
		"Wrap reveals root cause": {
			err:  Wrap(ErrUnauthorized, "foo"),
			root: ErrUnauthorized,
		},
		"Cause works for stderr as root": {
			err:  Wrap(std, "Some helpful text"),
			root: std,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := errors.Cause(tc.err); got != tc.root {
				t.Fatal("unexpected result")
			}
		})
	}
}

func TestErrorIs(t *testing.T) {
	cases := map[string]struct {
		a      *Error
		b      error
		wantIs bool
	}{
		"instance of the same error": {
			a:      ErrUnauthorized,
			b:      ErrUnauthorized,
			wantIs: true,
		},
		"two different coded errors": {
			a:      ErrUnauthorized,
			b:      ErrNotFound,
			wantIs: false,
		},
		"successful comparison to a wrapped error": {
			a:      ErrUnauthorized,
			b:      Wrap(ErrUnauthorized, "gone"),
			wantIs: true,
		},
		"unsuccessful comparison to a wrapped error": {
			a:      ErrUnauthorized,
			b:      Wrap(ErrNotFound, "banana"),
			wantIs: false,
		},
		"not equal to stdlib error": {
			a:      ErrUnauthorized,
			b:      fmt.Errorf("stdlib error"),
			wantIs: false,
		},
		"not equal to wrapped stdlib error": {
			a:      ErrUnauthorized,
			b:      Wrap(fmt.Errorf("stdlib error"), "wrapped"),
			wantIs: false,
		},
		"nil is nil": {
			a:      nil,
			b:      nil,
			wantIs: true,
		},
		"nil is any error nil": {
			a:      nil,
			b:      (*customError)(nil),
			wantIs: true,
		},
		"nil is not a non-nil error": {
			a:      nil,
			b:      ErrNotFound,
			wantIs: false,
		},
		"multi error with the same error": {
			a:      ErrNotFound,
			b:      Append(ErrNotFound, ErrNotFound),
			wantIs: true,
		},
		"multi error with a different error": {
			a:      ErrNotFound,
			b:      Append(ErrNotFound, ErrState),
			wantIs: false,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := tc.a.Is(tc.b); got != tc.wantIs {
				t.Fatalf("unexpected result - got:%v want: %v", got, tc.wantIs)
			}
		})
	}
}

type customError struct{}

func (customError) Error() string {
	return "custom error"
}

func TestWrapEmpty(t *testing.T) {
	if err := Wrap(nil, "wrapping <nil>"); err != nil {
		t.Fatal(err)
	}
}

func TestWrappedIs(t *testing.T) {
	err := Wrap(ErrNotFound, "banana")
	if !ErrNotFound.Is(err) {
		t.Fatal("expected error to be ErrNotFound")
	}

	err = Wrap(err, "only one banana")
	if !ErrNotFound.Is(err) {
		t.Fatal("expected wrapped error to be ErrNotFound")
	}
}

func TestABCICode(t *testing.T) {
	cases := map[string]struct {
		err  error
		want uint32
	}{
		"registered error code": {
			err:  ErrNotFound,
			want: 3,
		},
		"wrapped registered error code": {
			err:  Wrap(Wrap(ErrNotFound, "foo"), "bar"),
			want: 3,
		},
		"stdlib is internal error": {
			err:  fmt.Errorf("stdlib"),
			want: internalABCICode,
		},
		"wrapped stdlib is internal error": {
			err:  Wrap(fmt.Errorf("stdlib"), "wrapped"),
			want: internalABCICode,
		},
		"field error inherits the code": {
			err:  Field("Name", ErrEmpty, "name is required"),
			want: 9,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := ABCICode(tc.err); got != tc.want {
				t.Fatalf("want %d code, got %d", tc.want, got)
			}
		})
	}
}

func TestRegisterDuplicateCodePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate error code registration")
		}
	}()
	Register(2, "duplicate of unauthorized")
}

func TestAppend(t *testing.T) {
	if err := Append(nil, nil); err != nil {
		t.Fatalf("append of nils must be nil, got %+v", err)
	}

	if err := Append(nil, ErrNotFound); !ErrNotFound.Is(err) {
		t.Fatalf("single error append must pass through, got %+v", err)
	}

	err := Append(ErrNotFound, ErrState)
	u, ok := err.(unpacker)
	if !ok {
		t.Fatalf("two errors must create a multi error, got %T", err)
	}
	if n := len(u.Unpack()); n != 2 {
		t.Fatalf("want 2 errors, got %d", n)
	}

	// Nested multi errors are flattened.
	err = Append(err, ErrEmpty)
	if n := len(err.(unpacker).Unpack()); n != 3 {
		t.Fatalf("want 3 errors, got %d", n)
	}
}

func TestFieldErrors(t *testing.T) {
	err := Append(
		Field("Name", ErrEmpty, "required"),
		Field("Age", ErrInput, "must be positive"),
	)

	if got := FieldErrors(err, "Name"); len(got) != 1 {
		t.Fatalf("want a single Name error, got %v", got)
	}
	if got := FieldErrors(err, "Surname"); len(got) != 0 {
		t.Fatalf("want no Surname errors, got %v", got)
	}
	if got := FieldErrors(nil, "Name"); got != nil {
		t.Fatalf("want no errors for nil, got %v", got)
	}
}

func TestRecover(t *testing.T) {
	var err error
	func() {
		defer Recover(&err)
		panic("totally unexpected")
	}()
	if !ErrPanic.Is(err) {
		t.Fatalf("want ErrPanic, got %+v", err)
	}
}
