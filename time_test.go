package weave

import (
	"encoding/json"
	"testing"
	"time"
)

func TestUnixTimeUnmarshal(t *testing.T) {
	cases := map[string]struct {
		raw     string
		want    UnixTime
		wantErr bool
	}{
		"number":       {raw: `1500000000`, want: 1500000000},
		"rfc3339":      {raw: `"2017-07-14T02:40:00Z"`, want: 1500000000},
		"before epoch": {raw: `-4`, wantErr: true},
		"garbage":      {raw: `"yesterday"`, wantErr: true},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var got UnixTime
			err := json.Unmarshal([]byte(tc.raw), &got)
			if tc.wantErr != (err != nil) {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("want %d, got %d", tc.want, got)
			}
		})
	}
}

func TestUnixTimeAdd(t *testing.T) {
	base := UnixTime(1000)
	if got := base.Add(90 * time.Second); got != 1090 {
		t.Fatalf("want 1090, got %d", got)
	}
	if got := base.Add(1500 * time.Millisecond); got != 1001 {
		t.Fatalf("want 1001, got %d", got)
	}
}

func TestUnixDurationJSON(t *testing.T) {
	cases := map[string]struct {
		raw     string
		want    UnixDuration
		wantErr bool
	}{
		"seconds":        {raw: `60`, want: 60},
		"duration":       {raw: `"720h"`, want: 720 * 3600},
		"invalid string": {raw: `"a month"`, wantErr: true},
		"invalid type":   {raw: `true`, wantErr: true},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var got UnixDuration
			err := json.Unmarshal([]byte(tc.raw), &got)
			if tc.wantErr != (err != nil) {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("want %d, got %d", tc.want, got)
			}
		})
	}

	raw, err := json.Marshal(UnixDuration(90))
	if err != nil {
		t.Fatalf("cannot marshal: %s", err)
	}
	if string(raw) != `"1m30s"` {
		t.Fatalf("unexpected serialization: %s", raw)
	}
}
