package worker

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"voicebook/internal/amqp"
	"voicebook/internal/core"
	"voicebook/internal/ledger"
	"voicebook/internal/ledger/memory"
)

type recordingExporter struct {
	got [][]core.Record
	err error
}

func (e *recordingExporter) Export(_ context.Context, records []core.Record) (int, error) {
	e.got = append(e.got, records)
	return len(records), e.err
}

type brokenStore struct{ *memory.Store }

func (brokenStore) ScanAll(context.Context) ([]core.Record, error) {
	return nil, errors.New("disk gone")
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func seed(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.New()
	ctx := context.Background()
	for _, r := range []core.Record{
		{Date: "2024-03-01", Desc: "薪水", Income: core.Money{Cents: 10000}},
		{Date: "2024-03-15", Desc: "午餐", Var: core.Money{Cents: 4000}},
		{Date: "2024-05-02", Desc: "房租", Fix: core.Money{Cents: 2000}},
	} {
		if _, err := s.Insert(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func TestHandleChange_LogsShareText(t *testing.T) {
	logs := captureLogs(t)
	w := NewSummaryWorker(seed(t), nil, nil)

	msg := amqp.NewLedgerChangeMessage(ledger.OpCreate, 2, "2024-03")
	if err := w.HandleChange(context.Background(), msg); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}
	if !strings.Contains(logs.String(), "【2024-03 收支】收入:100 變動:40 固定:0 淨額:60") {
		t.Errorf("share text not logged: %s", logs.String())
	}
}

func TestHandleChange_DefaultsToCurrentPeriod(t *testing.T) {
	logs := captureLogs(t)
	now := func() time.Time { return time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC) }
	w := NewSummaryWorker(seed(t), nil, now)

	if err := w.HandleChange(context.Background(), amqp.NewLedgerChangeMessage(ledger.OpClear, 0, "")); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(logs.String(), "淨額:-20") {
		t.Errorf("expected May summary in logs: %s", logs.String())
	}
}

func TestHandleChange_ExportsSortedRecords(t *testing.T) {
	captureLogs(t)
	exp := &recordingExporter{}
	w := NewSummaryWorker(seed(t), exp, nil)

	if err := w.HandleChange(context.Background(), amqp.NewLedgerChangeMessage(ledger.OpImport, 0, "")); err != nil {
		t.Fatal(err)
	}
	if len(exp.got) != 1 || len(exp.got[0]) != 3 {
		t.Fatalf("export calls = %v", exp.got)
	}
	if exp.got[0][0].Date != "2024-05-02" {
		t.Errorf("records not sorted newest first: %+v", exp.got[0])
	}
}

func TestHandleChange_Errors(t *testing.T) {
	captureLogs(t)
	msg := amqp.NewLedgerChangeMessage(ledger.OpUpdate, 1, "2024-03")

	w := NewSummaryWorker(brokenStore{memory.New()}, nil, nil)
	if err := w.HandleChange(context.Background(), msg); err == nil {
		t.Error("expected scan error")
	}

	w = NewSummaryWorker(seed(t), &recordingExporter{err: errors.New("quota")}, nil)
	if err := w.HandleChange(context.Background(), msg); err == nil || !strings.Contains(err.Error(), "export to sheets") {
		t.Errorf("unexpected error: %v", err)
	}
}
