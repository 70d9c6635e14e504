// Package sheets mirrors the ledger into a spreadsheet. The mirror is
// write-only: nothing is ever read back into the store.
package sheets

import (
	"context"
	"encoding/json"
	"strings"

	"voicebook/internal/core"
	"voicebook/internal/csvio"
)

// Ports for outbound adapters.
type (
	// Exporter replaces the contents of the target sheet with records.
	Exporter interface {
		Export(ctx context.Context, records []core.Record) (rows int, err error)
	}
)

// HeaderRow matches the CSV export columns.
var HeaderRow = func() []any {
	cols := strings.Split(csvio.Header, ",")
	row := make([]any, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	return row
}()

// Rows builds the value matrix for an export: the header followed by one
// row per record in the order given. Amounts are JSON numbers so the sheet
// stores them as numbers even though values are written raw.
func Rows(records []core.Record) [][]any {
	out := make([][]any, 0, len(records)+1)
	out = append(out, HeaderRow)
	for _, r := range records {
		out = append(out, []any{
			r.Date, r.Desc, r.Cat,
			json.Number(r.Income.String()),
			json.Number(r.Var.String()),
			json.Number(r.Fix.String()),
		})
	}
	return out
}
