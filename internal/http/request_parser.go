// Package http provides HTTP server and handler implementations.
//
// This file holds request decoding: record IDs from the path, period keys
// from the query, and record fields from JSON or form-encoded bodies.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"voicebook/internal/core"
	"voicebook/internal/services"
)

// maxBodyBytes caps record bodies; CSV imports get maxImportBytes.
const (
	maxBodyBytes   = 64 << 10
	maxImportBytes = 5 << 20
)

var (
	errInvalidID     = errors.New("invalid record id")
	errInvalidPeriod = errors.New("period must be YYYY-MM")

	periodPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
)

// RequestBodyParser reads a JSON object or a form-encoded body once and
// exposes its fields as trimmed, sanitized strings.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser creates a parser for the given request. The body is
// read once, up to limit bytes.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request, limit int64) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	body := strings.TrimSpace(string(p.body))
	if body == "" {
		p.formData = url.Values{}
		return nil
	}

	if body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(body), &p.jsonData); err != nil {
			p.err = fmt.Errorf("decode json body: %w", err)
		}
		return p.err
	}

	p.formData, p.err = url.ParseQuery(body)
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// stringValue renders JSON scalars as text so numeric amounts keep their
// written form.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, then trims whitespace.
func sanitizeInput(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// structuredInput maps a create-record body onto the normalizer's input.
func structuredInput(p *RequestBodyParser) core.StructuredInput {
	return core.StructuredInput{
		Date:   p.Get("date"),
		Desc:   p.Get("desc"),
		Cat:    p.Get("cat"),
		Amount: p.Get("amount"),
		Attr:   core.ParseAttribution(p.Get("attr")),
	}
}

// editForm maps an edit body onto the service's form copy.
func editForm(p *RequestBodyParser) services.EditForm {
	return services.EditForm{
		Date:   p.Get("date"),
		Desc:   p.Get("desc"),
		Cat:    p.Get("cat"),
		Income: p.Get("income"),
		Var:    p.Get("var"),
		Fix:    p.Get("fix"),
	}
}

// parseRecordID reads the {id} path segment.
func parseRecordID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// parsePeriod reads ?period=; empty means the current month.
func parsePeriod(query url.Values) (string, error) {
	period := strings.TrimSpace(query.Get("period"))
	if period == "" {
		return "", nil
	}
	if !periodPattern.MatchString(period) {
		return "", errInvalidPeriod
	}
	return period, nil
}
