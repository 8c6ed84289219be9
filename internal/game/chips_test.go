package game

import "testing"

func TestFormatChips(t *testing.T) {
	cases := map[int64]string{0: "0", 999: "999", 1000: "1,000", 1234567: "1,234,567", -2500: "-2,500"}
	for in, want := range cases {
		if got := FormatChips(in); got != want {
			t.Fatalf("FormatChips(%d) = %q, want %q", in, got, want)
		}
	}
}
