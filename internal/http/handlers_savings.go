package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

type goalRequest struct {
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	TargetDate    core.Date       `json:"target_date"`
	Description   string          `json:"description"`
	Icon          string          `json:"icon"`
	Color         string          `json:"color"`
}

func (req goalRequest) goal() core.SavingsGoal {
	return core.SavingsGoal{
		Name:          sanitizeInput(req.Name),
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
		TargetDate:    req.TargetDate,
		Description:   sanitizeInput(req.Description),
		Icon:          sanitizeInput(req.Icon),
		Color:         sanitizeInput(req.Color),
	}
}

type contributionRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type activeGoals struct {
	Goals   []services.GoalView `json:"goals"`
	Summary core.GoalSummary    `json:"summary"`
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request, userID int64) error {
	achieved, err := queryBool(r, "achieved")
	if err != nil {
		return err
	}
	goals, err := s.deps.Savings.List(r.Context(), userID, achieved)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, goals)
	return nil
}

func (s *Server) handleActiveGoals(w http.ResponseWriter, r *http.Request, userID int64) error {
	goals, summary, err := s.deps.Savings.Active(r.Context(), userID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, activeGoals{Goals: goals, Summary: summary})
	return nil
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request, userID int64) error {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	created, err := s.deps.Savings.Create(r.Context(), userID, req.goal())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, created)
	return nil
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	g, err := s.deps.Savings.Get(r.Context(), userID, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, g)
	return nil
}

// handleUpdateGoal ignores current_amount; contributions change the saved amount.
func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	g := req.goal()
	g.ID = id
	updated, err := s.deps.Savings.Update(r.Context(), userID, g)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, updated)
	return nil
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if err := s.deps.Savings.Delete(r.Context(), userID, id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	var req contributionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	g, err := s.deps.Savings.Contribute(r.Context(), userID, id, req.Amount)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, g)
	return nil
}
