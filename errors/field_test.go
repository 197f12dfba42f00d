package errors

import (
	"reflect"
	"testing"
)

func TestFieldErrors(t *testing.T) {
	// Declare errors upfront so that DeepEqual can be used for comparison.
	var (
		unauthorizedNameErr = Field("name", ErrUnauthorized, "a")
		humanNameErr        = Field("name", ErrHuman, "b")
		emptyGenderErr      = Field("gender", ErrEmpty, "gender is required")
		userMultiErr        = Field("user", Append(
			humanNameErr,
			Append(emptyGenderErr, ErrState),
		), "user data invalid")
	)

	cases := map[string]struct {
		Err   error
		Field string
		Want  []error
	}{
		"a single error found by the name": {
			Err:   unauthorizedNameErr,
			Field: "name",
			Want:  []error{unauthorizedNameErr},
		},
		"two error found by the name": {
			Err:   Append(unauthorizedNameErr, humanNameErr),
			Field: "name",
			Want:  []error{unauthorizedNameErr, humanNameErr},
		},
		"field can contain a multierror": {
			Err:   userMultiErr,
			Field: "user",
			Want:  []error{userMultiErr},
		},
		"field can inspect errors tree to find match": {
			Err:   userMultiErr,
			Field: "gender",
			Want:  []error{emptyGenderErr},
		},
		"nil error returns nothing": {
			Err:   nil,
			Field: "foo",
			Want:  nil,
		},
		"no match": {
			Err:   unauthorizedNameErr,
			Field: "age",
			Want:  nil,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			got := FieldErrors(tc.Err, tc.Field)
			if !reflect.DeepEqual(got, tc.Want) {
				t.Fatalf("unexpected result\n got %v\nwant %v", got, tc.Want)
			}
		})
	}
}

func TestAppendField(t *testing.T) {
	var errs error
	errs = AppendField(errs, "Seller", nil)
	if errs != nil {
		t.Fatalf("nil field error must be ignored: %v", errs)
	}
	errs = AppendField(errs, "Seller", ErrEmpty)
	errs = AppendField(errs, "Value", ErrAmount)
	if n := len(FieldErrors(errs, "Value")); n != 1 {
		t.Fatalf("want one Value error, got %d", n)
	}
	if !ErrAmount.Is(errs) || !ErrEmpty.Is(errs) {
		t.Fatalf("multi error lost a root: %v", errs)
	}
}
