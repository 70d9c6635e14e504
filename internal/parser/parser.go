// Package parser turns a free-form transcript such as "昨天 午餐 85" into
// the structured input consumed by core.Normalize.
//
// Every field is filled from an ordered rule table (see rules.go). Parsing
// never fails: a transcript without digits yields an empty Amount and the
// caller reports core.ErrMissingAmount after normalization.
package parser

import (
	"strings"
	"time"

	"voicebook/internal/core"
)

type Parser struct {
	// Now supplies the reference day. Defaults to time.Now.
	Now func() time.Time

	DateRules        []DateRule
	AttributionRules []AttributionRule
	CategoryRules    []CategoryRule
}

// New returns a parser using the default rule tables.
func New(now func() time.Time) *Parser {
	if now == nil {
		now = time.Now
	}
	return &Parser{
		Now:              now,
		DateRules:        DefaultDateRules,
		AttributionRules: DefaultAttributionRules,
		CategoryRules:    DefaultCategoryRules,
	}
}

func (p *Parser) Parse(text string) core.StructuredInput {
	now := p.Now()
	if offset := matchDate(p.DateRules, text); offset != 0 {
		now = now.AddDate(0, 0, offset)
	}

	in := core.StructuredInput{
		Date: core.Today(now),
		Attr: matchAttribution(p.AttributionRules, text),
		Cat:  matchCategory(p.CategoryRules, text),
	}

	desc := text
	if loc := AmountPattern.FindStringIndex(text); loc != nil {
		in.Amount = text[loc[0]:loc[1]]
		desc = text[:loc[0]] + text[loc[1]:]
	}
	in.Desc = strings.TrimSpace(desc)
	return in
}
