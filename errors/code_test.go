package errors

import (
	stdlib "errors"
	"testing"
)

func TestCode(t *testing.T) {
	cases := map[string]struct {
		err  error
		want uint32
	}{
		"nil":               {err: nil, want: SuccessCode},
		"root":              {err: ErrNotFound, want: 3},
		"wrapped":           {err: Wrap(ErrAmount, "negative"), want: 13},
		"field":             {err: Field("Seller", ErrEmpty, "required"), want: 9},
		"stdlib":            {err: stdlib.New("boom"), want: 1},
		"wrapped stdlib":    {err: Wrap(stdlib.New("boom"), "io"), want: 1},
		"multi takes first": {err: Append(ErrState, ErrNotFound), want: 10},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := Code(tc.err); got != tc.want {
				t.Fatalf("want %d, got %d", tc.want, got)
			}
		})
	}
}

func TestInfo(t *testing.T) {
	cases := map[string]struct {
		err      error
		debug    bool
		wantCode uint32
		wantLog  string
	}{
		"nil": {
			err:      nil,
			wantCode: 0,
			wantLog:  "",
		},
		"registered error message is exposed": {
			err:      Wrap(ErrNotFound, "trade"),
			wantCode: 3,
			wantLog:  "trade: not found",
		},
		"stdlib error is redacted": {
			err:      stdlib.New("secret path /var/db"),
			wantCode: 1,
			wantLog:  "internal error",
		},
		"panic is redacted": {
			err:      Wrap(ErrPanic, "index out of range"),
			wantCode: 1,
			wantLog:  "internal error",
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			code, log := Info(tc.err, tc.debug)
			if code != tc.wantCode {
				t.Errorf("want code %d, got %d", tc.wantCode, code)
			}
			if log != tc.wantLog {
				t.Errorf("want log %q, got %q", tc.wantLog, log)
			}
		})
	}
}
