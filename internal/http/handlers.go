package http

import (
	"bytes"
	"encoding/json"
	"net/http"

	"voicebook/internal/capture"
	"voicebook/internal/core"
	"voicebook/internal/csvio"
	"voicebook/internal/services"
)

// Wire shapes. Amounts are JSON numbers rendered from cents, so they never
// pass through a float.
type (
	recordJSON struct {
		ID     int64       `json:"id"`
		Date   string      `json:"date"`
		Desc   string      `json:"desc"`
		Cat    string      `json:"cat"`
		Income json.Number `json:"income"`
		Var    json.Number `json:"var"`
		Fix    json.Number `json:"fix"`
	}

	summaryJSON struct {
		Period          string      `json:"period"`
		Income          json.Number `json:"income"`
		VariableExpense json.Number `json:"variable_expense"`
		FixedExpense    json.Number `json:"fixed_expense"`
		Net             json.Number `json:"net"`
	}

	viewJSON struct {
		Records []recordJSON `json:"records"`
		Summary summaryJSON  `json:"summary"`
	}

	parsedJSON struct {
		Date   string `json:"date"`
		Desc   string `json:"desc"`
		Cat    string `json:"cat"`
		Amount string `json:"amount"`
		Attr   string `json:"attr"`
	}

	importJSON struct {
		Imported int      `json:"imported"`
		View     viewJSON `json:"view"`
	}
)

func toRecordJSON(r core.Record) recordJSON {
	return recordJSON{
		ID:     r.ID,
		Date:   r.Date,
		Desc:   r.Desc,
		Cat:    r.Cat,
		Income: json.Number(r.Income.String()),
		Var:    json.Number(r.Var.String()),
		Fix:    json.Number(r.Fix.String()),
	}
}

func toSummaryJSON(s core.Summary) summaryJSON {
	return summaryJSON{
		Period:          s.Period,
		Income:          json.Number(s.Income.String()),
		VariableExpense: json.Number(s.VariableExpense.String()),
		FixedExpense:    json.Number(s.FixedExpense.String()),
		Net:             json.Number(core.FormatCents(s.Net)),
	}
}

func toViewJSON(v services.View) viewJSON {
	out := viewJSON{
		Records: make([]recordJSON, 0, len(v.Records)),
		Summary: toSummaryJSON(v.Summary),
	}
	for _, r := range v.Records {
		out.Records = append(out.Records, toRecordJSON(r))
	}
	return out
}

func writeView(w http.ResponseWriter, status int, v services.View) {
	NewResponse().Status(status).JSON(toViewJSON(v)).Write(w)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	NewResponse().Text("ok").Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.svc.Summary(r.Context(), ""); err != nil {
		ErrorResponse(http.StatusServiceUnavailable, "store unavailable").Write(w)
		return
	}
	NewResponse().Text("ready").Write(w)
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	v, err := s.svc.List(r.Context())
	if err != nil {
		serviceError(r, err).Write(w)
		return
	}
	writeView(w, http.StatusOK, v)
}

// handleCreateRecord accepts the manual entry form: date, desc, cat,
// amount and attr (income|fixed|variable).
func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r, maxBodyBytes)
	if err := p.Parse(); err != nil {
		bodyError(err).Write(w)
		return
	}

	v, err := s.svc.AddRecord(r.Context(), structuredInput(p))
	if err != nil {
		serviceError(r, err).Write(w)
		return
	}
	writeView(w, http.StatusCreated, v)
}

// handleCreateFromTranscript parses {"text": "..."} and stores the result.
// A blank transcript is a capture failure, not a missing amount.
func (s *Server) handleCreateFromTranscript(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r, maxBodyBytes)
	if err := p.Parse(); err != nil {
		bodyError(err).Write(w)
		return
	}

	v, err := s.svc.Capture(r.Context(), capture.StaticSource(p.Get("text")))
	if err != nil {
		serviceError(r, err).Write(w)
		return
	}
	writeView(w, http.StatusCreated, v)
}

// handleParseTranscript returns the parsed fields without storing them, so
// the front end can prefill its form.
func (s *Server) handleParseTranscript(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r, maxBodyBytes)
	if err := p.Parse(); err != nil {
		bodyError(err).Write(w)
		return
	}

	in := s.svc.Parse(p.Get("text"))
	NewResponse().JSON(parsedJSON{
		Date:   in.Date,
		Desc:   in.Desc,
		Cat:    in.Cat,
		Amount: in.Amount,
		Attr:   string(in.Attr),
	}).Write(w)
}

func (s *Server) handleEditRecord(w http.ResponseWriter, r *http.Request) {
	id, err := parseRecordID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	p := NewRequestBodyParser(w, r, maxBodyBytes)
	if err := p.Parse(); err != nil {
		bodyError(err).Write(w)
		return
	}

	v, err := s.svc.Edit(r.Context(), id, editForm(p))
	if err != nil {
		serviceError(r, err).Write(w)
		return
	}
	writeView(w, http.StatusOK, v)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := parseRecordID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	v, err := s.svc.Delete(r.Context(), id)
	if err != nil {
		serviceError(r, err).Write(w)
		return
	}
	writeView(w, http.StatusOK, v)
}

func (s *Server) handleClearRecords(w http.ResponseWriter, r *http.Request) {
	v, err := s.svc.Clear(r.Context())
	if err != nil {
		serviceError(r, err).Write(w)
		return
	}
	writeView(w, http.StatusOK, v)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	sum, err := s.svc.Summary(r.Context(), period)
	if err != nil {
		serviceError(r, err).Write(w)
		return
	}
	NewResponse().JSON(toSummaryJSON(sum)).Write(w)
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	text, err := s.svc.Share(r.Context(), period)
	if err != nil {
		serviceError(r, err).Write(w)
		return
	}
	NewResponse().Text(text).Write(w)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.svc.Export(r.Context(), &buf); err != nil {
		serviceError(r, err).Write(w)
		return
	}
	NewResponse().
		Header("Content-Type", "text/csv; charset=utf-8").
		Header("Content-Disposition", `attachment; filename="`+csvio.Filename+`"`).
		Write(w)
	_, _ = w.Write(buf.Bytes())
}

// handleImport takes the CSV text as the raw request body.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxImportBytes)
	n, v, err := s.svc.Import(r.Context(), body)
	if err != nil {
		serviceError(r, err).Write(w)
		return
	}
	NewResponse().JSON(importJSON{Imported: n, View: toViewJSON(v)}).Write(w)
}
