package wallet

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	good := map[string]int64{
		"15":     1500,
		"15.5":   1550,
		"15.00":  1500,
		"0.01":   1,
		"49":     4900,
		"2.50":   250,
		"100000": 10000000,
		"12.500": 1250,
		"1.0000": 100,
		"1e2":    10000,
	}
	for in, want := range good {
		got, err := ParseAmount(in)
		if err != nil || got != want {
			t.Fatalf("ParseAmount(%q) = %d, %v; want %d", in, got, err, want)
		}
	}

	for _, in := range []string{"", "abc", "0", "-1", "0.00", "1.005", "12.5001", "1e-3", "NaN"} {
		if _, err := ParseAmount(in); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("ParseAmount(%q): expected ErrInvalidAmount, got %v", in, err)
		}
	}
}

func TestFormatMinor(t *testing.T) {
	cases := map[int64]string{0: "0.00", 1: "0.01", 1550: "15.50", -250: "-2.50"}
	for in, want := range cases {
		if got := FormatMinor(in); got != want {
			t.Fatalf("FormatMinor(%d) = %q, want %q", in, got, want)
		}
	}
}
