package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"voicebook/internal/core"
	applog "voicebook/internal/log"
	ports "voicebook/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Config selects the target sheet and the service account used to write it.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// Ensure interface conformance
var _ ports.Exporter = (*Client)(nil)

// DefaultSheetName is used when Config.SheetName is empty.
const DefaultSheetName = "Records"

// New creates a Sheets client authenticated with a service account.
// Extra options are appended after the credentials.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, spreadsheetID, cfg.SheetName), nil
}

// NewWithService wraps an already configured Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string) *Client {
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = DefaultSheetName
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}
}

// newSheetsService initializes a Sheets Service from inline service
// account JSON, a key file, or GOOGLE_APPLICATION_CREDENTIALS, in that order.
func newSheetsService(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.ServiceAccountJSON)
	serviceAccountFile := strings.TrimSpace(cfg.ServiceAccountFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	all := append([]goption.ClientOption{
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, opts...)

	service, err := gsheet.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Export implements sheets.Exporter. The sheet is cleared first, so a
// shrinking ledger leaves no stale rows behind. Values are written RAW so a
// description such as "=SUM(A1)" stays text.
func (c *Client) Export(ctx context.Context, records []core.Record) (int, error) {
	if c.svc == nil {
		return 0, errors.New("sheets service not initialized")
	}

	if _, err := c.svc.Spreadsheets.Values.
		Clear(c.spreadsheetID, c.sheetName, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return 0, fmt.Errorf("clear sheet %q: %w", c.sheetName, err)
	}

	rows := ports.Rows(records)
	rng := fmt.Sprintf("%s!A1", c.sheetName)
	vr := &gsheet.ValueRange{Range: rng, Values: rows}

	resp, err := c.svc.Spreadsheets.Values.
		Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("write sheet %q: %w", c.sheetName, err)
	}

	slog.InfoContext(ctx, "Ledger exported to Google Sheets",
		applog.FieldComponent, applog.ComponentSheets,
		applog.FieldOperation, applog.OpExport,
		"sheet", c.sheetName,
		"updated_rows", resp.UpdatedRows,
		"records", len(records))

	return len(records), nil
}
