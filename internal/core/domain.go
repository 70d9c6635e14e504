package core

import (
	"errors"
	"time"
)

const (
	AttrIncome   Attribution = "income"
	AttrFixed    Attribution = "fixed"
	AttrVariable Attribution = "variable"
)

// DateLayout is the fixed-width calendar date format stored on every record.
const DateLayout = "2006-01-02"

// UnnamedPlaceholder replaces an empty description.
const UnnamedPlaceholder = "未命名"

type (
	// Attribution decides which amount bucket a new record fills.
	Attribution string

	Money struct {
		Cents int64
	}

	// Record is a single ledger entry. Exactly one of Income, Var and Fix
	// is non-zero once the record has been normalized.
	Record struct {
		ID     int64 // assigned by the store, 0 before first insert
		Date   string
		Desc   string
		Cat    string
		Income Money
		Var    Money // variable expense
		Fix    Money // fixed expense
	}

	// StructuredInput is what the transcript parser (or a form) hands to
	// Normalize. Amount is raw text; empty means unset.
	StructuredInput struct {
		Date   string
		Desc   string
		Cat    string
		Amount string
		Attr   Attribution
	}
)

var (
	ErrMissingAmount  = errors.New("missing amount")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrBucketConflict = errors.New("record has more than one non-zero amount")
	ErrRecordNotFound = errors.New("record not found")
	ErrInvalidDate    = errors.New("date must be YYYY-MM-DD")
)

// ParseAttribution maps a raw tag to an Attribution. Unknown values fall
// through to AttrVariable.
func ParseAttribution(s string) Attribution {
	switch Attribution(s) {
	case AttrIncome:
		return AttrIncome
	case AttrFixed:
		return AttrFixed
	default:
		return AttrVariable
	}
}

// Today formats t as a record date.
func Today(t time.Time) string {
	return t.Format(DateLayout)
}

// PeriodOf returns the YYYY-MM period key containing t.
func PeriodOf(t time.Time) string {
	return t.Format("2006-01")
}

func (m Money) IsZero() bool {
	return m.Cents == 0
}

// Validate checks a record about to replace a stored one: a calendar date
// in DateLayout and exactly one positive amount bucket.
func (r Record) Validate() error {
	if _, err := time.Parse(DateLayout, r.Date); err != nil {
		return ErrInvalidDate
	}
	nonZero := 0
	for _, m := range []Money{r.Income, r.Var, r.Fix} {
		if m.Cents < 0 {
			return ErrInvalidAmount
		}
		if m.Cents > 0 {
			nonZero++
		}
	}
	switch {
	case nonZero == 0:
		return ErrMissingAmount
	case nonZero > 1:
		return ErrBucketConflict
	}
	return nil
}
