package subtitles

import (
	"math"
	"testing"
)

func TestFormatTimestamp(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00,000"},
		{1.5, "00:00:01,500"},
		{61.042, "00:01:01,042"},
		{3661.999, "01:01:01,999"},
		{-5, "00:00:00,000"},
	}
	for _, tc := range cases {
		if got := FormatTimestamp(tc.seconds); got != tc.want {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestParseTimestampSeparators(t *testing.T) {
	comma, err := ParseTimestamp("00:01:02,345")
	if err != nil {
		t.Fatalf("comma form: %v", err)
	}
	dot, err := ParseTimestamp("00:01:02.345")
	if err != nil {
		t.Fatalf("dot form: %v", err)
	}
	if comma != dot {
		t.Fatalf("separator mismatch: %v vs %v", comma, dot)
	}
	if math.Abs(comma-62.345) > 0.001 {
		t.Fatalf("got %v, want 62.345", comma)
	}
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	for _, bad := range []string{"", "not a time", "1:2", "aa:bb:cc,ddd"} {
		if _, err := ParseTimestamp(bad); err == nil {
			t.Errorf("ParseTimestamp(%q) should fail", bad)
		}
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	for _, seconds := range []float64{0, 0.001, 1.042, 59.999, 61.5, 3723.456, 86399.999} {
		parsed, err := ParseTimestamp(FormatTimestamp(seconds))
		if err != nil {
			t.Fatalf("round trip of %v: %v", seconds, err)
		}
		if math.Abs(parsed-seconds) > 0.001 {
			t.Errorf("round trip of %v drifted to %v", seconds, parsed)
		}
	}
}
