package core

import (
	"errors"
	"testing"
)

func TestNormalizeBuckets(t *testing.T) {
	cases := []struct {
		attr            Attribution
		income, vr, fix int64
	}{
		{AttrIncome, 8500, 0, 0},
		{AttrFixed, 0, 0, 8500},
		{AttrVariable, 0, 8500, 0},
		{"", 0, 8500, 0},
		{"refund", 0, 8500, 0},
	}
	for _, tc := range cases {
		r, err := Normalize(StructuredInput{Date: "2024-05-10", Desc: "x", Amount: "85", Attr: tc.attr}, "2024-05-11")
		if err != nil {
			t.Fatalf("attr %q: unexpected error %v", tc.attr, err)
		}
		if r.Income.Cents != tc.income || r.Var.Cents != tc.vr || r.Fix.Cents != tc.fix {
			t.Fatalf("attr %q: got income=%d var=%d fix=%d", tc.attr, r.Income.Cents, r.Var.Cents, r.Fix.Cents)
		}
		if err := r.Validate(); err != nil {
			t.Fatalf("attr %q: normalized record invalid: %v", tc.attr, err)
		}
		if r.ID != 0 {
			t.Fatalf("attr %q: normalize assigned id %d", tc.attr, r.ID)
		}
	}
}

func TestNormalizeMissingAmount(t *testing.T) {
	for _, amount := range []string{"", "NaN", "abc", "0", "  "} {
		_, err := Normalize(StructuredInput{Desc: "lunch", Amount: amount}, "2024-05-10")
		if !errors.Is(err, ErrMissingAmount) {
			t.Fatalf("amount %q: expected ErrMissingAmount, got %v", amount, err)
		}
	}
}

func TestNormalizeDefaults(t *testing.T) {
	r, err := Normalize(StructuredInput{Desc: "   ", Cat: "交通", Amount: "12.5"}, "2024-05-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Desc != UnnamedPlaceholder {
		t.Fatalf("expected placeholder description, got %q", r.Desc)
	}
	if r.Date != "2024-05-10" {
		t.Fatalf("expected today's date, got %q", r.Date)
	}
	if r.Cat != "交通" {
		t.Fatalf("category not passed through: %q", r.Cat)
	}
	if r.Var.Cents != 1250 {
		t.Fatalf("expected var 1250, got %d", r.Var.Cents)
	}
}
