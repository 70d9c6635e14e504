package csvio

import (
	"bytes"
	"slices"
	"strings"
	"testing"

	"voicebook/internal/core"
)

func TestWrite(t *testing.T) {
	records := []core.Record{
		{ID: 2, Date: "2024-03-15", Desc: "午餐", Cat: "餐飲", Var: core.Money{Cents: 4050}},
		{ID: 1, Date: "2024-03-01", Desc: "薪水", Income: core.Money{Cents: 10000}},
	}
	var buf bytes.Buffer
	if err := Write(&buf, records); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := Header + "\n" +
		"2024-03-15,午餐,餐飲,0,40.5,0\n" +
		"2024-03-01,薪水,,100,0,0"
	if buf.String() != want {
		t.Fatalf("got\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.String() != Header {
		t.Fatalf("expected header only, got %q", buf.String())
	}
}

func TestRead(t *testing.T) {
	in := "whatever header\r\n" +
		"2024-03-15,午餐,餐飲,0,40.5,0\r\n" +
		"\r\n" +
		"2024-03-01,薪水,,100,abc\n" +
		"broken\n"
	got, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := []core.Record{
		{Date: "2024-03-15", Desc: "午餐", Cat: "餐飲", Var: core.Money{Cents: 4050}},
		{Date: "2024-03-01", Desc: "薪水", Income: core.Money{Cents: 10000}},
		{Date: "broken"},
	}
	if !slices.Equal(got, want) {
		t.Fatalf("got %+v\nwant %+v", got, want)
	}
}

func TestReadHeaderOnly(t *testing.T) {
	got, err := Read(strings.NewReader(Header + "\n"))
	if err != nil || len(got) != 0 {
		t.Fatalf("expected no records, got %v (err=%v)", got, err)
	}
}

func TestRoundTrip(t *testing.T) {
	records := []core.Record{
		{ID: 3, Date: "2024-05-09", Desc: "昨天 午餐", Cat: "餐飲", Var: core.Money{Cents: 8500}},
		{ID: 2, Date: "2024-05-01", Desc: "房租", Cat: "租金", Fix: core.Money{Cents: 1200000}},
		{ID: 1, Date: "2024-04-30", Desc: "收入", Income: core.Money{Cents: 1}},
	}
	var buf bytes.Buffer
	if err := Write(&buf, records); err != nil {
		t.Fatalf("write: %v", err)
	}
	back, err := Read(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(back) != len(records) {
		t.Fatalf("expected %d records, got %d", len(records), len(back))
	}
	for i := range records {
		want := records[i]
		want.ID = 0
		if back[i] != want {
			t.Fatalf("record %d: got %+v, want %+v", i, back[i], want)
		}
	}
}
