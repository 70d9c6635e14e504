// Package csvio reads and writes the ledger's flat CSV layout:
//
//	Date,Description,Category,Income,Variable Expense,Fixed Expense
//
// Fields are joined with bare commas and never quoted, so a description
// containing a comma shifts the remaining columns on import. Files written
// by older versions of the app rely on this layout.
package csvio

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"voicebook/internal/core"
)

// Header is the first line of every export.
const Header = "Date,Description,Category,Income,Variable Expense,Fixed Expense"

// Filename is the suggested name for a download.
const Filename = "voice-expense.csv"

var lineSplit = regexp.MustCompile(`\r?\n`)

// FormatLine renders one record in column order.
func FormatLine(r core.Record) string {
	return strings.Join([]string{
		r.Date, r.Desc, r.Cat,
		r.Income.String(), r.Var.String(), r.Fix.String(),
	}, ",")
}

// Write emits the header and one line per record, newline separated with
// no trailing newline.
func Write(w io.Writer, records []core.Record) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		if _, err := bw.WriteString("\n" + FormatLine(r)); err != nil {
			return fmt.Errorf("write csv line: %w", err)
		}
	}
	return bw.Flush()
}

// ParseLine splits one data line positionally. Missing trailing columns are
// empty and amounts that do not parse are zero.
func ParseLine(line string) core.Record {
	var cols [6]string
	copy(cols[:], strings.Split(line, ","))
	return core.Record{
		Date:   cols[0],
		Desc:   cols[1],
		Cat:    cols[2],
		Income: core.ParseLenient(cols[3]),
		Var:    core.ParseLenient(cols[4]),
		Fix:    core.ParseLenient(cols[5]),
	}
}

// Read parses a whole file. Empty lines are dropped and the first
// remaining line is treated as the header without looking at it.
func Read(r io.Reader) ([]core.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	var lines []string
	for _, l := range lineSplit.Split(string(data), -1) {
		if l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) < 2 {
		return nil, nil
	}

	out := make([]core.Record, 0, len(lines)-1)
	for _, l := range lines[1:] {
		out = append(out, ParseLine(l))
	}
	return out, nil
}
