package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"voicebook/internal/capture"
	"voicebook/internal/core"
	"voicebook/internal/ledger"
	"voicebook/internal/ledger/memory"
)

type publishedChange struct {
	op     string
	id     int64
	period string
}

type fakeNotifier struct {
	mu      sync.Mutex
	changes []publishedChange
	err     error
	closed  bool
}

func (n *fakeNotifier) PublishLedgerChange(_ context.Context, op string, id int64, period string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, publishedChange{op, id, period})
	return n.err
}

func (n *fakeNotifier) Close() error {
	n.closed = true
	return nil
}

type failingStore struct {
	*memory.Store
	scanErr   error
	insertErr error
	failAfter int
	inserts   int
}

func (s *failingStore) Insert(ctx context.Context, r core.Record) (int64, error) {
	if s.insertErr != nil && s.inserts >= s.failAfter {
		return 0, s.insertErr
	}
	s.inserts++
	return s.Store.Insert(ctx, r)
}

func (s *failingStore) ScanAll(ctx context.Context) ([]core.Record, error) {
	if s.scanErr != nil {
		return nil, s.scanErr
	}
	return s.Store.ScanAll(ctx)
}

var fixedNow = func() time.Time {
	return time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
}

func newTestService(t *testing.T) (*LedgerService, *fakeNotifier) {
	t.Helper()
	n := &fakeNotifier{}
	return NewLedgerService(memory.New(), n, fixedNow), n
}

func TestAddTranscript(t *testing.T) {
	svc, n := newTestService(t)
	ctx := context.Background()

	v, err := svc.AddTranscript(ctx, "昨天 午餐 85")
	if err != nil {
		t.Fatalf("AddTranscript: %v", err)
	}
	if len(v.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(v.Records))
	}
	r := v.Records[0]
	if r.Date != "2024-05-09" || r.Desc != "昨天 午餐" || r.Cat != "餐飲" || r.Var.Cents != 8500 {
		t.Errorf("unexpected record %+v", r)
	}
	if v.Summary.Period != "2024-05" || v.Summary.VariableExpense.Cents != 8500 || v.Summary.Net != -8500 {
		t.Errorf("unexpected summary %+v", v.Summary)
	}
	if len(n.changes) != 1 || n.changes[0] != (publishedChange{ledger.OpCreate, r.ID, "2024-05"}) {
		t.Errorf("notifications = %+v", n.changes)
	}
}

func TestAddTranscriptIncomeAndFixed(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.AddTranscript(ctx, "收入 薪水 30000"); err != nil {
		t.Fatal(err)
	}
	v, err := svc.AddTranscript(ctx, "固定 房租 12000")
	if err != nil {
		t.Fatal(err)
	}

	s := v.Summary
	if s.Income.Cents != 3000000 || s.FixedExpense.Cents != 1200000 || s.Net != 1800000 {
		t.Errorf("unexpected summary %+v", s)
	}
}

func TestAddTranscriptWithoutAmount(t *testing.T) {
	svc, n := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddTranscript(ctx, "午餐")
	if !errors.Is(err, core.ErrMissingAmount) {
		t.Fatalf("err = %v, want ErrMissingAmount", err)
	}
	v, err := svc.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Records) != 0 {
		t.Errorf("store should be untouched, got %d records", len(v.Records))
	}
	if len(n.changes) != 0 {
		t.Errorf("no notification expected, got %+v", n.changes)
	}
}

func TestAddRecordDefaults(t *testing.T) {
	svc, _ := newTestService(t)

	v, err := svc.AddRecord(context.Background(), core.StructuredInput{Desc: "   ", Amount: "12.5"})
	if err != nil {
		t.Fatal(err)
	}
	r := v.Records[0]
	if r.Date != "2024-05-10" {
		t.Errorf("Date = %q, want today", r.Date)
	}
	if r.Desc != core.UnnamedPlaceholder {
		t.Errorf("Desc = %q, want placeholder", r.Desc)
	}
	if r.Var.Cents != 1250 {
		t.Errorf("Var = %d, want 1250", r.Var.Cents)
	}
}

func TestNotifierFailureDoesNotFailMutation(t *testing.T) {
	n := &fakeNotifier{err: errors.New("broker down")}
	svc := NewLedgerService(memory.New(), n, fixedNow)

	v, err := svc.AddTranscript(context.Background(), "午餐 85")
	if err != nil {
		t.Fatalf("AddTranscript: %v", err)
	}
	if len(v.Records) != 1 {
		t.Fatalf("record not stored")
	}
}

func TestCapture(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		src     capture.Source
		wantErr error
	}{
		{"nil source", nil, capture.ErrUnavailable},
		{"unavailable reader", capture.NewReaderSource(nil), capture.ErrUnavailable},
		{"blank", capture.StaticSource("   "), capture.ErrEmpty},
		{"ok", capture.StaticSource("車 30"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Capture(ctx, tt.src)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	v, _ := svc.List(ctx)
	if len(v.Records) != 1 || v.Records[0].Cat != "交通" {
		t.Errorf("expected one 交通 record, got %+v", v.Records)
	}
}

func TestEdit(t *testing.T) {
	svc, n := newTestService(t)
	ctx := context.Background()

	v, err := svc.AddTranscript(ctx, "午餐 85")
	if err != nil {
		t.Fatal(err)
	}
	id := v.Records[0].ID

	v, err = svc.Edit(ctx, id, EditForm{
		Date: "2024-05-01", Desc: " 晚餐 ", Cat: "餐飲", Income: "", Var: "1,200", Fix: "abc",
	})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	want := core.Record{ID: id, Date: "2024-05-01", Desc: "晚餐", Cat: "餐飲", Var: core.Money{Cents: 120000}}
	if v.Records[0] != want {
		t.Errorf("edited = %+v, want %+v", v.Records[0], want)
	}
	if last := n.changes[len(n.changes)-1]; last.op != ledger.OpUpdate || last.period != "2024-05" {
		t.Errorf("last notification = %+v", last)
	}
}

func TestEditRejectsTwoBuckets(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	v, _ := svc.AddTranscript(ctx, "午餐 85")
	before := v.Records[0]

	_, err := svc.Edit(ctx, before.ID, EditForm{Date: before.Date, Desc: before.Desc, Var: "85", Fix: "10"})
	if !errors.Is(err, core.ErrBucketConflict) {
		t.Fatalf("err = %v, want ErrBucketConflict", err)
	}

	v, _ = svc.List(ctx)
	if v.Records[0] != before {
		t.Errorf("stored record changed: %+v", v.Records[0])
	}
}

func TestEditRequiresDateAndAmount(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	v, _ := svc.AddTranscript(ctx, "午餐 85")
	before := v.Records[0]

	tests := []struct {
		name string
		form EditForm
		want error
	}{
		{"description only", EditForm{Desc: "x"}, core.ErrInvalidDate},
		{"bad date", EditForm{Date: "2024-13-01", Var: "85"}, core.ErrInvalidDate},
		{"no amount", EditForm{Date: before.Date, Desc: "x"}, core.ErrMissingAmount},
		{"zero amount", EditForm{Date: before.Date, Var: "0"}, core.ErrMissingAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Edit(ctx, before.ID, tt.form)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			v, _ := svc.List(ctx)
			if v.Records[0] != before {
				t.Errorf("stored record changed: %+v", v.Records[0])
			}
		})
	}
}

func TestEditUnknownRecord(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Edit(context.Background(), 42, EditForm{Var: "1"})
	if !errors.Is(err, core.ErrRecordNotFound) {
		t.Fatalf("err = %v, want ErrRecordNotFound", err)
	}
}

func TestDeleteAndClear(t *testing.T) {
	svc, n := newTestService(t)
	ctx := context.Background()

	svc.AddTranscript(ctx, "午餐 85")
	v, _ := svc.AddTranscript(ctx, "車 30")
	if len(v.Records) != 2 {
		t.Fatalf("records = %d", len(v.Records))
	}

	v, err := svc.Delete(ctx, v.Records[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Records) != 1 || v.Records[0].Desc != "午餐" {
		t.Errorf("after delete: %+v", v.Records)
	}

	if _, err := svc.Delete(ctx, 999); err != nil {
		t.Errorf("delete of unknown id should be a no-op, got %v", err)
	}

	v, err = svc.Clear(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Records) != 0 || v.Summary.Net != 0 {
		t.Errorf("after clear: %+v", v)
	}
	if last := n.changes[len(n.changes)-1]; last.op != ledger.OpClear {
		t.Errorf("last op = %q, want clear", last.op)
	}
}

func TestListOrdering(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.AddRecord(ctx, core.StructuredInput{Date: "2024-05-01", Desc: "a", Amount: "1"})
	svc.AddRecord(ctx, core.StructuredInput{Date: "2024-05-03", Desc: "b", Amount: "1"})
	svc.AddRecord(ctx, core.StructuredInput{Date: "2024-05-03", Desc: "c", Amount: "1"})

	v, err := svc.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, r := range v.Records {
		got = append(got, r.Desc)
	}
	if strings.Join(got, "") != "cba" {
		t.Errorf("order = %v, want [c b a]", got)
	}
}

func TestSummaryAndShare(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.AddRecord(ctx, core.StructuredInput{Date: "2024-03-01", Desc: "薪水", Amount: "100", Attr: core.AttrIncome})
	svc.AddRecord(ctx, core.StructuredInput{Date: "2024-03-15", Desc: "午餐", Amount: "40"})
	svc.AddRecord(ctx, core.StructuredInput{Date: "2024-04-02", Desc: "車", Amount: "10"})

	s, err := svc.Summary(ctx, "2024-03")
	if err != nil {
		t.Fatal(err)
	}
	if s.Income.Cents != 10000 || s.VariableExpense.Cents != 4000 || s.Net != 6000 {
		t.Errorf("summary = %+v", s)
	}

	text, err := svc.Share(ctx, "2024-03")
	if err != nil {
		t.Fatal(err)
	}
	if text != "【2024-03 收支】收入:100 變動:40 固定:0 淨額:60" {
		t.Errorf("share = %q", text)
	}

	cur, err := svc.Summary(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if cur.Period != "2024-05" || cur.Net != 0 {
		t.Errorf("current summary = %+v", cur)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	src, _ := newTestService(t)
	ctx := context.Background()

	src.AddRecord(ctx, core.StructuredInput{Date: "2024-03-01", Desc: "薪水", Amount: "100", Attr: core.AttrIncome})
	src.AddRecord(ctx, core.StructuredInput{Date: "2024-03-15", Desc: "午餐", Cat: "餐飲", Amount: "40.5"})

	var buf bytes.Buffer
	if err := src.Export(ctx, &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	want := "Date,Description,Category,Income,Variable Expense,Fixed Expense\n" +
		"2024-03-01,薪水,,100,0,0\n" +
		"2024-03-15,午餐,餐飲,0,40.5,0"
	if buf.String() != want {
		t.Fatalf("export =\n%s\nwant\n%s", buf.String(), want)
	}

	dst, n := newTestService(t)
	count, v, err := dst.Import(ctx, strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if count != 2 || len(v.Records) != 2 {
		t.Fatalf("imported %d, view has %d", count, len(v.Records))
	}
	if v.Records[0].Desc != "午餐" || v.Records[0].Var.Cents != 4050 {
		t.Errorf("first record = %+v", v.Records[0])
	}
	if len(n.changes) != 1 || n.changes[0].op != ledger.OpImport {
		t.Errorf("notifications = %+v", n.changes)
	}
}

func TestImportStopsAtFirstFailure(t *testing.T) {
	store := &failingStore{Store: memory.New(), insertErr: errors.New("disk full"), failAfter: 1}
	svc := NewLedgerService(store, nil, fixedNow)

	csv := "Date,Description,Category,Income,Variable Expense,Fixed Expense\n" +
		"2024-03-01,a,,0,1,0\n" +
		"2024-03-02,b,,0,2,0\n"
	count, _, err := svc.Import(context.Background(), strings.NewReader(csv))
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Fatalf("err = %v, want failure on line 3", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestScanFailureSurfaces(t *testing.T) {
	store := &failingStore{Store: memory.New(), scanErr: errors.New("io")}
	svc := NewLedgerService(store, nil, fixedNow)

	if _, err := svc.AddTranscript(context.Background(), "午餐 85"); err == nil {
		t.Fatal("expected rescan error")
	}
	if _, err := svc.Share(context.Background(), ""); err == nil {
		t.Fatal("expected scan error")
	}
}

func TestClose(t *testing.T) {
	n := &fakeNotifier{}
	svc := NewLedgerService(memory.New(), n, nil)
	if err := svc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !n.closed {
		t.Error("notifier not closed")
	}

	empty := &LedgerService{}
	if err := empty.Close(); err != nil {
		t.Fatalf("Close with nil components: %v", err)
	}
}
