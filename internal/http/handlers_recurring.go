package http

import (
	"net/http"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type recurringRequest struct {
	Name        string               `json:"name"`
	Amount      decimal.Decimal      `json:"amount"`
	Kind        core.TransactionKind `json:"transaction_type"`
	CategoryID  *int64               `json:"category_id"`
	Frequency   core.Frequency       `json:"frequency"`
	StartDate   core.Date            `json:"start_date"`
	EndDate     *core.Date           `json:"end_date"`
	Description string               `json:"description"`
}

func (req recurringRequest) recurring() core.RecurringTransaction {
	end := req.EndDate
	if end != nil && end.IsZero() {
		end = nil
	}
	return core.RecurringTransaction{
		Name:        sanitizeInput(req.Name),
		Amount:      req.Amount,
		Kind:        req.Kind,
		CategoryID:  req.CategoryID,
		Frequency:   req.Frequency,
		StartDate:   req.StartDate,
		EndDate:     end,
		Description: sanitizeInput(req.Description),
	}
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request, userID int64) error {
	defs, err := s.deps.Recurring.List(r.Context(), userID)
	if err != nil {
		return err
	}
	if defs == nil {
		defs = []core.RecurringTransaction{}
	}
	writeJSON(w, http.StatusOK, defs)
	return nil
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request, userID int64) error {
	var req recurringRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	created, err := s.deps.Recurring.Create(r.Context(), userID, req.recurring())
	if err != nil {
		return err
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Recurring transaction created",
		log.FieldRecurringID, created.ID,
		"frequency", string(created.Frequency),
		"next_occurrence", created.NextOccurrence.String())
	writeJSON(w, http.StatusCreated, created)
	return nil
}

func (s *Server) handleGetRecurring(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	def, err := s.deps.Recurring.Get(r.Context(), userID, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, def)
	return nil
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	var req recurringRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	def := req.recurring()
	def.ID = id
	updated, err := s.deps.Recurring.Update(r.Context(), userID, def)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, updated)
	return nil
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if err := s.deps.Recurring.Delete(r.Context(), userID, id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// handleProcessRecurring materialises the definition's current occurrence.
func (s *Server) handleProcessRecurring(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	t, err := s.deps.Recurring.Materialize(r.Context(), userID, id)
	if err != nil {
		return err
	}
	atomic.AddInt64(&s.appMetrics.recurringProcessed, 1)
	writeJSON(w, http.StatusCreated, t)
	return nil
}

func (s *Server) handleToggleRecurring(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	def, err := s.deps.Recurring.Toggle(r.Context(), userID, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, def)
	return nil
}
