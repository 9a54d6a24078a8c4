package format

import "testing"

func TestAmount(t *testing.T) {
	cases := []struct {
		minor int64
		want  string
	}{
		{0, "0.00"},
		{1, "0.01"},
		{99, "0.99"},
		{100, "1.00"},
		{50000, "500.00"},
		{150000, "1500.00"},
		{999999, "9999.99"},
		{-2500, "-25.00"},
	}

	for _, tc := range cases {
		if got := Amount(tc.minor); got != tc.want {
			t.Fatalf("Amount(%d) = %q, want %q", tc.minor, got, tc.want)
		}
	}
}
