package sheets

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"voicebook/internal/core"
	"voicebook/internal/csvio"
)

func TestRows(t *testing.T) {
	records := []core.Record{
		{ID: 2, Date: "2024-03-15", Desc: "午餐", Cat: "餐飲", Var: core.Money{Cents: 4050}},
		{ID: 1, Date: "2024-03-01", Desc: "薪水", Income: core.Money{Cents: 10000}},
	}

	rows := Rows(records)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}

	var header []string
	for _, v := range rows[0] {
		header = append(header, fmt.Sprint(v))
	}
	if strings.Join(header, ",") != csvio.Header {
		t.Errorf("header = %v, want %q", header, csvio.Header)
	}

	want := []any{"2024-03-15", "午餐", "餐飲", json.Number("0"), json.Number("40.5"), json.Number("0")}
	for i, v := range want {
		if rows[1][i] != v {
			t.Errorf("rows[1][%d] = %v, want %v", i, rows[1][i], v)
		}
	}
	if rows[2][3] != json.Number("100") {
		t.Errorf("income cell = %v, want 100", rows[2][3])
	}
}

func TestRowsEmpty(t *testing.T) {
	rows := Rows(nil)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want header only", len(rows))
	}
}
