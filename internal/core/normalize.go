package core

import "strings"

// Normalize turns a structured input into a record ready for insertion.
// The amount lands in the bucket chosen by the attribution; unknown tags
// count as variable expense. today fills in a missing date.
func Normalize(in StructuredInput, today string) (Record, error) {
	cents, err := ParseDecimalToCents(in.Amount)
	if err != nil {
		return Record{}, ErrMissingAmount
	}

	r := Record{
		Date: in.Date,
		Desc: strings.TrimSpace(in.Desc),
		Cat:  in.Cat,
	}
	if r.Date == "" {
		r.Date = today
	}
	if r.Desc == "" {
		r.Desc = UnnamedPlaceholder
	}

	amount := Money{Cents: cents}
	switch ParseAttribution(string(in.Attr)) {
	case AttrIncome:
		r.Income = amount
	case AttrFixed:
		r.Fix = amount
	default:
		r.Var = amount
	}
	return r, nil
}
