package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

type budgetRequest struct {
	CategoryID int64           `json:"category_id"`
	Amount     decimal.Decimal `json:"amount"`
	// Month is YYYY-MM or any date within the month. Empty means the current month.
	Month string `json:"month"`
}

func (req budgetRequest) budget(today core.Date) (core.Budget, error) {
	month := today.MonthStart()
	if raw := strings.TrimSpace(req.Month); raw != "" {
		if len(raw) == len("2006-01") {
			raw += "-01"
		}
		d, err := core.ParseDate(raw)
		if err != nil {
			return core.Budget{}, fmt.Errorf("month %q: %w", req.Month, core.ErrInvalidDate)
		}
		month = d.MonthStart()
	}
	return core.Budget{CategoryID: req.CategoryID, Amount: req.Amount, Month: month}, nil
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request, userID int64) error {
	month, err := queryMonth(r, "month")
	if err != nil {
		return err
	}
	statuses, err := s.deps.Budgets.List(r.Context(), userID, month)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, statuses)
	return nil
}

func (s *Server) handleCurrentBudgets(w http.ResponseWriter, r *http.Request, userID int64) error {
	summary, err := s.deps.Budgets.Current(r.Context(), userID)
	if err != nil {
		return err
	}
	if summary.Budgets == nil {
		summary.Budgets = []core.BudgetStatus{}
	}
	writeJSON(w, http.StatusOK, summary)
	return nil
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request, userID int64) error {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	b, err := req.budget(s.deps.Clock.Today())
	if err != nil {
		return err
	}
	created, err := s.deps.Budgets.Create(r.Context(), userID, b)
	if err != nil {
		return err
	}
	st, err := s.deps.Budgets.Status(r.Context(), created)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, st)
	return nil
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	st, err := s.deps.Budgets.Get(r.Context(), userID, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, st)
	return nil
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	b, err := req.budget(s.deps.Clock.Today())
	if err != nil {
		return err
	}
	b.ID = id
	updated, err := s.deps.Budgets.Update(r.Context(), userID, b)
	if err != nil {
		return err
	}
	st, err := s.deps.Budgets.Status(r.Context(), updated)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, st)
	return nil
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if err := s.deps.Budgets.Delete(r.Context(), userID, id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
