package settings

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestCandidateFromJSON(t *testing.T) {
	cases := []struct {
		in   any
		want Candidate
	}{
		{in: nil, want: NoValue()},
		{in: "hi", want: Text("hi")},
		{in: true, want: Bool(true)},
		{in: float64(7), want: Number(7)},
		{in: json.Number("-3"), want: Number(-3)},
		{in: 5, want: Number(5)},
		{in: uint64(9), want: Number(9)},
		{in: float64(-1 << 63), want: Number(math.MinInt64)},
		{in: float64(1 << 62), want: Number(1 << 62)},
	}
	for _, tc := range cases {
		got, err := CandidateFromJSON(tc.in)
		if err != nil {
			t.Fatalf("%v: unexpected error %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%v: expected %+v, got %+v", tc.in, tc.want, got)
		}
	}

	tooLarge := []any{
		float64(math.MaxInt64),
		math.Nextafter(float64(math.MinInt64), math.Inf(-1)),
		math.Inf(1),
		math.NaN(),
		uint64(math.MaxUint64),
		json.Number("9223372036854775808"),
	}
	for _, bad := range append([]any{1.5, json.Number("2.5"), map[string]any{}, []any{1}}, tooLarge...) {
		if _, err := CandidateFromJSON(bad); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%v: expected ErrInvalidInput, got %v", bad, err)
		}
	}
}

func TestCandidateString(t *testing.T) {
	cases := map[string]Candidate{
		"<none>": NoValue(),
		"text":   Text("text"),
		"12":     Number(12),
		"false":  Bool(false),
		"#100":   ChannelRef("100"),
	}
	for want, c := range cases {
		if got := c.String(); got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
	if NoValue().IsSet() || !Text("").IsSet() {
		t.Fatalf("an empty text candidate is still a write intent")
	}
}
