package core

import (
	"fmt"
	"slices"
	"strings"
)

// Summary holds the totals of one YYYY-MM period.
type Summary struct {
	Period          string
	Income          Money
	VariableExpense Money
	FixedExpense    Money
	Net             int64 // signed cents
}

// Summarize folds every record whose date starts with periodKey.
// The match is a plain string prefix, so malformed dates match nothing.
func Summarize(records []Record, periodKey string) Summary {
	s := Summary{Period: periodKey}
	for _, r := range records {
		if len(r.Date) < 7 || r.Date[:7] != periodKey {
			continue
		}
		s.Income.Cents += r.Income.Cents
		s.VariableExpense.Cents += r.Var.Cents
		s.FixedExpense.Cents += r.Fix.Cents
	}
	s.Net = s.Income.Cents - s.VariableExpense.Cents - s.FixedExpense.Cents
	return s
}

// ShareText renders the one-line summary meant for the clipboard or a
// share sheet.
func ShareText(s Summary) string {
	return fmt.Sprintf("【%s 收支】收入:%s 變動:%s 固定:%s 淨額:%s",
		s.Period, s.Income, s.VariableExpense, s.FixedExpense, FormatCents(s.Net))
}

// Compare orders records newest date first, then highest ID first.
// Dates compare as strings; this relies on the YYYY-MM-DD layout.
func Compare(a, b Record) int {
	if c := strings.Compare(b.Date, a.Date); c != 0 {
		return c
	}
	switch {
	case a.ID > b.ID:
		return -1
	case a.ID < b.ID:
		return 1
	}
	return 0
}

// SortRecords sorts in place using Compare.
func SortRecords(records []Record) {
	slices.SortFunc(records, Compare)
}
