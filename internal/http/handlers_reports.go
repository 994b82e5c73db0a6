package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/rates"
	"fintrack/internal/report"
)

var errRatesUnavailable = errors.New("exchange rates are not configured")

// handleExport renders the filtered ledger in the requested format. It takes
// the same filters as the transaction listing but has no default limit.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, userID int64) error {
	format, err := report.ParseFormat(r.PathValue("format"))
	if err != nil {
		return err
	}
	f, err := transactionFilter(r, 0)
	if err != nil {
		return err
	}
	txs, _, err := s.deps.Transactions.List(r.Context(), userID, f)
	if err != nil {
		return err
	}
	categories, err := s.deps.Categories.List(r.Context(), userID)
	if err != nil {
		return err
	}
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	title := "Transactions report"
	if f.From != nil && f.To != nil && f.To.Equal(f.From.NextMonthStart()) {
		title += " " + f.From.MonthKey()
	}
	rep := report.Build(title, s.deps.Clock.Now(), txs, names)
	body, err := report.Render(format, rep)
	if err != nil {
		return fmt.Errorf("render %s report: %w", format, err)
	}
	atomic.AddInt64(&s.appMetrics.reportsExported, 1)

	log.FromContext(r.Context()).InfoContext(r.Context(), "Report exported",
		log.FieldComponent, log.ComponentReport,
		log.FieldOperation, log.OpExport,
		"format", string(format),
		"lines", len(rep.Lines),
		"bytes", len(body))

	NewResponse().
		Body(format.ContentType(), body).
		Attachment(rep.Filename(format)).
		Write(w)
	return nil
}

// handleRate answers GET /api/rates/{currency}, converting ?amount= when given.
func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	if s.deps.Rates == nil {
		ErrorResponse(http.StatusServiceUnavailable, log.ErrorTypeConfiguration, errRatesUnavailable.Error()).Write(w)
		return
	}
	currency := strings.TrimSpace(r.PathValue("currency"))
	if len(currency) != 3 {
		writeError(w, r, fmt.Errorf("%w: currency must be a three letter code", errBadRequest))
		return
	}

	var (
		q   rates.Quote
		err error
	)
	if raw := r.URL.Query().Get("amount"); raw != "" {
		amount, perr := core.ParseAmount(raw)
		if perr != nil {
			writeError(w, r, perr)
			return
		}
		q, err = s.deps.Rates.Convert(r.Context(), amount, currency)
	} else {
		q, err = s.deps.Rates.Rate(r.Context(), currency)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}
