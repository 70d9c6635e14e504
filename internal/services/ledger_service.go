package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"voicebook/internal/capture"
	"voicebook/internal/core"
	"voicebook/internal/csvio"
	"voicebook/internal/ledger"
	applog "voicebook/internal/log"
	"voicebook/internal/parser"
)

// View is what every operation hands back: the full record collection in
// display order plus the current period's summary, both freshly read from
// the store.
type View struct {
	Records []core.Record
	Summary core.Summary
}

// EditForm is the user's mutable copy of a record, amounts still as typed.
type EditForm struct {
	Date   string
	Desc   string
	Cat    string
	Income string
	Var    string
	Fix    string
}

// LedgerService orchestrates parse, normalize, persist, rescan and
// summarize. It keeps no copy of the records between calls.
type LedgerService struct {
	store    ledger.Store
	notifier ledger.Notifier
	parser   *parser.Parser
	now      func() time.Time
}

// NewLedgerService wires a service. notifier may be nil; now defaults to
// time.Now.
func NewLedgerService(store ledger.Store, notifier ledger.Notifier, now func() time.Time) *LedgerService {
	if now == nil {
		now = time.Now
	}
	return &LedgerService{
		store:    store,
		notifier: notifier,
		parser:   parser.New(now),
		now:      now,
	}
}

func (s *LedgerService) today() string  { return core.Today(s.now()) }
func (s *LedgerService) period() string { return core.PeriodOf(s.now()) }

// Parse exposes the transcript parser so callers can prefill a form.
func (s *LedgerService) Parse(text string) core.StructuredInput {
	return s.parser.Parse(text)
}

// AddRecord normalizes and stores one entry. Returns core.ErrMissingAmount
// without touching the store when the amount is absent.
func (s *LedgerService) AddRecord(ctx context.Context, in core.StructuredInput) (View, error) {
	rec, err := core.Normalize(in, s.today())
	if err != nil {
		slog.WarnContext(ctx, "Record rejected",
			applog.FieldComponent, applog.ComponentLedger,
			applog.FieldOperation, applog.OpValidate,
			applog.FieldError, err)
		return View{}, err
	}

	id, err := s.store.Insert(ctx, rec)
	if err != nil {
		return View{}, fmt.Errorf("save record: %w", err)
	}

	slog.InfoContext(ctx, "Record created",
		applog.NewFields().
			WithComponent(applog.ComponentLedger).
			WithOperation(applog.OpCreate).
			WithRecord(id, rec.Date, rec.Cat).
			ToSlice()...)

	s.notify(ctx, ledger.OpCreate, id, periodOfDate(rec.Date))
	return s.refresh(ctx)
}

// AddTranscript parses free text and stores the result.
func (s *LedgerService) AddTranscript(ctx context.Context, text string) (View, error) {
	return s.AddRecord(ctx, s.parser.Parse(text))
}

// Capture asks src for one transcript and stores it. capture.ErrUnavailable
// and capture.ErrEmpty are returned as is; nothing is stored.
func (s *LedgerService) Capture(ctx context.Context, src capture.Source) (View, error) {
	if src == nil {
		return View{}, capture.ErrUnavailable
	}
	text, err := src.Transcript(ctx)
	if err != nil {
		slog.InfoContext(ctx, "No transcript captured",
			applog.FieldComponent, applog.ComponentCapture,
			applog.FieldError, err)
		return View{}, err
	}
	return s.AddTranscript(ctx, text)
}

// Edit replaces record id with the values in form. The stored record stays
// untouched unless the edited copy validates.
func (s *LedgerService) Edit(ctx context.Context, id int64, form EditForm) (View, error) {
	current, err := s.find(ctx, id)
	if err != nil {
		return View{}, err
	}

	edited := current
	edited.Date = strings.TrimSpace(form.Date)
	edited.Desc = strings.TrimSpace(form.Desc)
	edited.Cat = strings.TrimSpace(form.Cat)
	edited.Income = core.ParseLenient(form.Income)
	edited.Var = core.ParseLenient(form.Var)
	edited.Fix = core.ParseLenient(form.Fix)

	if err := edited.Validate(); err != nil {
		return View{}, fmt.Errorf("edit record %d: %w", id, err)
	}
	if err := s.store.Update(ctx, edited); err != nil {
		if errors.Is(err, core.ErrRecordNotFound) {
			return View{}, err
		}
		return View{}, fmt.Errorf("update record %d: %w", id, err)
	}

	slog.InfoContext(ctx, "Record updated",
		applog.NewFields().
			WithComponent(applog.ComponentLedger).
			WithOperation(applog.OpUpdate).
			WithRecord(id, edited.Date, edited.Cat).
			ToSlice()...)

	s.notify(ctx, ledger.OpUpdate, id, periodOfDate(edited.Date))
	return s.refresh(ctx)
}

// Delete removes one record by ID.
func (s *LedgerService) Delete(ctx context.Context, id int64) (View, error) {
	if err := s.store.Delete(ctx, id); err != nil {
		return View{}, fmt.Errorf("delete record %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Record deleted",
		applog.FieldComponent, applog.ComponentLedger,
		applog.FieldRecordID, id)
	s.notify(ctx, ledger.OpDelete, id, "")
	return s.refresh(ctx)
}

// Clear removes every record.
func (s *LedgerService) Clear(ctx context.Context) (View, error) {
	if err := s.store.Clear(ctx); err != nil {
		return View{}, fmt.Errorf("clear records: %w", err)
	}
	s.notify(ctx, ledger.OpClear, 0, "")
	return s.refresh(ctx)
}

// List reads the current state.
func (s *LedgerService) List(ctx context.Context) (View, error) {
	return s.refresh(ctx)
}

// Summary aggregates period ("" means the current month).
func (s *LedgerService) Summary(ctx context.Context, period string) (core.Summary, error) {
	if period == "" {
		period = s.period()
	}
	records, err := s.store.ScanAll(ctx)
	if err != nil {
		return core.Summary{}, fmt.Errorf("scan records: %w", err)
	}
	return core.Summarize(records, period), nil
}

// Share renders the share text for period ("" means the current month).
func (s *LedgerService) Share(ctx context.Context, period string) (string, error) {
	sum, err := s.Summary(ctx, period)
	if err != nil {
		return "", err
	}
	return core.ShareText(sum), nil
}

// Export writes every record, in store order, as CSV.
func (s *LedgerService) Export(ctx context.Context, w io.Writer) error {
	records, err := s.store.ScanAll(ctx)
	if err != nil {
		return fmt.Errorf("scan records: %w", err)
	}
	return csvio.Write(w, records)
}

// Import inserts one record per CSV data line. The first failing insert
// stops the import; records inserted before it stay.
func (s *LedgerService) Import(ctx context.Context, r io.Reader) (int, View, error) {
	records, err := csvio.Read(r)
	if err != nil {
		return 0, View{}, err
	}

	imported := 0
	for i, rec := range records {
		if _, err := s.store.Insert(ctx, rec); err != nil {
			return imported, View{}, fmt.Errorf("import line %d: %w", i+2, err)
		}
		imported++
	}

	slog.InfoContext(ctx, "CSV import completed",
		applog.FieldComponent, applog.ComponentLedger,
		applog.FieldOperation, applog.OpImport,
		"count", imported)

	if imported > 0 {
		s.notify(ctx, ledger.OpImport, 0, "")
	}
	v, err := s.refresh(ctx)
	return imported, v, err
}

// Close closes the store and, when it holds a connection, the notifier.
func (s *LedgerService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}

	if c, ok := s.notifier.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("notifier: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %w", errors.Join(errs...))
	}
	return nil
}

func (s *LedgerService) refresh(ctx context.Context) (View, error) {
	records, err := s.store.ScanAll(ctx)
	if err != nil {
		return View{}, fmt.Errorf("scan records: %w", err)
	}
	core.SortRecords(records)
	return View{Records: records, Summary: core.Summarize(records, s.period())}, nil
}

func (s *LedgerService) find(ctx context.Context, id int64) (core.Record, error) {
	records, err := s.store.ScanAll(ctx)
	if err != nil {
		return core.Record{}, fmt.Errorf("scan records: %w", err)
	}
	for _, r := range records {
		if r.ID == id {
			return r, nil
		}
	}
	return core.Record{}, core.ErrRecordNotFound
}

// notify never fails the caller: the local write is already done.
func (s *LedgerService) notify(ctx context.Context, op string, id int64, period string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishLedgerChange(ctx, op, id, period); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger change",
			applog.FieldComponent, applog.ComponentAMQP,
			applog.FieldOperation, op,
			applog.FieldRecordID, id,
			applog.FieldError, err)
	}
}

func periodOfDate(date string) string {
	if len(date) < 7 {
		return ""
	}
	return date[:7]
}
