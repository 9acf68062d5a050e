package units

import (
	"math"
	"testing"
)

func TestMgDlToUmol(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{1, 60.5},
		{2, 121.1},
		{6.5, 393.5},
		{10, 605.4},
	}
	for _, tc := range cases {
		if got := MgDlToUmol(tc.in); got != tc.want {
			t.Fatalf("MgDlToUmol(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestUmolToMgDl(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{60.54, 1},
		{360, 5.9},
		{605.4, 10},
	}
	for _, tc := range cases {
		if got := UmolToMgDl(tc.in); got != tc.want {
			t.Fatalf("UmolToMgDl(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestRoundTripWithinTolerance(t *testing.T) {
	for v := 0.0; v <= 20.0; v += 0.3 {
		back := UmolToMgDl(MgDlToUmol(v))
		if math.Abs(back-v) > 0.1 {
			t.Fatalf("round trip of %v drifted to %v", v, back)
		}
	}
}
