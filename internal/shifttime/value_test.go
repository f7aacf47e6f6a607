package shifttime

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		kind    Kind
		render  string
		wantErr error
	}{
		{name: "local", input: "09:30", kind: KindLocal, render: "09:30"},
		{name: "local trimmed", input: " 23:59 ", kind: KindLocal, render: "23:59"},
		{name: "rfc3339", input: "2024-01-01T09:00:00Z", kind: KindInstant, render: "2024-01-01T09:00:00Z"},
		{name: "offset", input: "2024-01-01T09:00:00+01:00", kind: KindInstant, render: "2024-01-01T09:00:00+01:00"},
		{name: "zoneless", input: "2024-01-01T09:00", kind: KindInstant, render: "2024-01-01T09:00"},
		{name: "empty", input: "", wantErr: ErrMissingValue},
		{name: "hour out of range", input: "24:00", wantErr: ErrInvalidValue},
		{name: "unpadded", input: "9:00", wantErr: ErrInvalidValue},
		{name: "garbage", input: "noon", wantErr: ErrInvalidValue},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := Parse(tc.input)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v.Kind() != tc.kind {
				t.Fatalf("kind = %v, want %v", v.Kind(), tc.kind)
			}
			if v.String() != tc.render {
				t.Fatalf("String() = %q, want %q", v.String(), tc.render)
			}
		})
	}
}

func TestValueJSON(t *testing.T) {
	type doc struct {
		Start Value `json:"start"`
		End   Value `json:"end"`
	}

	var d doc
	if err := json.Unmarshal([]byte(`{"start":"22:00","end":"2024-01-02T06:00:00Z"}`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !d.Start.IsLocal() || !d.End.IsInstant() {
		t.Fatalf("unexpected kinds: %v %v", d.Start.Kind(), d.End.Kind())
	}

	out, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"start":"22:00","end":"2024-01-02T06:00:00Z"}` {
		t.Fatalf("unexpected json %s", out)
	}

	var empty doc
	if err := json.Unmarshal([]byte(`{"start":null,"end":""}`), &empty); err != nil {
		t.Fatalf("unmarshal empty: %v", err)
	}
	if !empty.Start.IsZero() || !empty.End.IsZero() {
		t.Fatalf("expected unset values")
	}

	if err := json.Unmarshal([]byte(`{"start":"25:00"}`), &empty); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}

func TestResolveLocalUsesLocation(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	day := time.Date(2024, time.March, 4, 0, 0, 0, 0, loc)
	got := MustParse("08:15").Resolve(day, loc)
	want := time.Date(2024, time.March, 4, 7, 15, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("Resolve = %v, want %v", got, want)
	}
}

func TestResolveZonelessTimestampUsesLocation(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	got := MustParse("2024-03-04T08:15").Resolve(time.Time{}, loc)
	want := time.Date(2024, time.March, 4, 7, 15, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("Resolve = %v, want %v", got, want)
	}

	offset := MustParse("2024-03-04T08:15:00Z").Resolve(time.Time{}, loc)
	if !offset.Equal(time.Date(2024, time.March, 4, 8, 15, 0, 0, time.UTC)) {
		t.Fatalf("timestamp with offset moved to %v", offset)
	}
}
