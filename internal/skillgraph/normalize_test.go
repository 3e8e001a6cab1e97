package skillgraph

import (
	"errors"
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Data Analysis", "data analysis"},
		{"  data   ANALYSIS \t", "data analysis"},
		{"SQL", "sql"},
		{"Straße", "strasse"},
		{"STRASSE", "strasse"},
		{"ÉCONOMIE", "économie"},
	}
	for _, tc := range cases {
		got, err := Normalize(tc.in)
		if err != nil || got != tc.want {
			t.Fatalf("Normalize(%q): want=%q got=%q err=%v", tc.in, tc.want, got, err)
		}
	}
	for _, bad := range []string{"", "   ", "\n\t"} {
		if _, err := Normalize(bad); !errors.Is(err, ErrInvalidSkillName) {
			t.Fatalf("Normalize(%q): want ErrInvalidSkillName, got=%v", bad, err)
		}
	}
	if got := DisplayName("  Machine   Learning "); got != "Machine Learning" {
		t.Fatalf("DisplayName: got=%q", got)
	}
}

func TestNormalizeCategory(t *testing.T) {
	cases := map[string]string{
		"technical":    "Technical",
		" Technical ":  "Technical",
		"transferable": "Soft",
		"Soft":         "Soft",
		"Domain":       "Domain",
		"":             "Domain",
	}
	for in, want := range cases {
		if got := NormalizeCategory(in); got != want {
			t.Fatalf("NormalizeCategory(%q): want=%q got=%q", in, want, got)
		}
	}
}

func TestClampConfidence(t *testing.T) {
	if ClampConfidence(1.7) != 1 || ClampConfidence(-0.2) != 0 || ClampConfidence(0.4) != 0.4 {
		t.Fatalf("ClampConfidence bounds wrong")
	}
	if ClampConfidence(math.NaN()) != 0 {
		t.Fatalf("ClampConfidence(NaN) should be 0")
	}
}
