package utils

import "testing"

func TestRomanize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"아메리카노", "amerikano"},
		{"카페라떼", "kaperatte"},
		{"홍길동", "honggildong"},
		{"바닐라 라떼", "banilla ratte"},
		{"ICE 아메리카노 2잔", "ICE amerikano 2jan"},
		{"덜 달게", "deol dalge"},
		{"latte", "latte"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Romanize(tc.in); got != tc.want {
			t.Fatalf("Romanize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRomanizeDropsNonLatinNonHangul(t *testing.T) {
	if got := Romanize("☆라떼☆"); got != "ratte" {
		t.Fatalf("got %q", got)
	}
}
