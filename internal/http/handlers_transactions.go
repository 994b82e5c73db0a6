package http

import (
	"net/http"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/ports"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000

	defaultTrendMonths = 6
)

type transactionRequest struct {
	Amount      decimal.Decimal      `json:"amount"`
	Description string               `json:"description"`
	Date        core.Date            `json:"date"`
	Kind        core.TransactionKind `json:"transaction_type"`
	CategoryID  *int64               `json:"category_id"`
	TagIDs      []int64              `json:"tag_ids"`
}

// transaction converts the request; a missing date means today.
func (req transactionRequest) transaction(today core.Date) core.Transaction {
	date := req.Date
	if date.IsZero() {
		date = today
	}
	return core.Transaction{
		Amount:      req.Amount,
		Description: sanitizeInput(req.Description),
		Date:        date,
		Kind:        req.Kind,
		CategoryID:  req.CategoryID,
		TagIDs:      req.TagIDs,
	}
}

type transactionList struct {
	Transactions []core.Transaction `json:"transactions"`
	Summary      core.LedgerSummary `json:"summary"`
}

// transactionFilter reads kind, category_id, month or from/to, and limit.
// A month wins over an explicit range.
func transactionFilter(r *http.Request, defaultLimit int) (ports.TransactionFilter, error) {
	var f ports.TransactionFilter
	if kind := core.TransactionKind(r.URL.Query().Get("kind")); kind != "" {
		if err := kind.Validate(); err != nil {
			return f, err
		}
		f.Kind = kind
	}
	category, err := queryID(r, "category_id")
	if err != nil {
		return f, err
	}
	f.CategoryID = category

	month, err := queryMonth(r, "month")
	if err != nil {
		return f, err
	}
	if month != nil {
		next := month.NextMonthStart()
		f.From, f.To = month, &next
	} else {
		if f.From, err = queryDate(r, "from"); err != nil {
			return f, err
		}
		if f.To, err = queryDate(r, "to"); err != nil {
			return f, err
		}
	}

	f.Search = sanitizeInput(r.URL.Query().Get("search"))

	if f.Limit, err = queryInt(r, "limit", defaultLimit, maxListLimit); err != nil {
		return f, err
	}
	return f, nil
}

// handleTransactionStats reports monthly income and expense for the last
// months months, or years when period=year.
func (s *Server) handleTransactionStats(w http.ResponseWriter, r *http.Request, userID int64) error {
	months, err := queryInt(r, "months", defaultTrendMonths, 0)
	if err != nil {
		return err
	}
	trends, err := s.deps.Stats.Trends(r.Context(), userID, r.URL.Query().Get("period"), months)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, trends)
	return nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, userID int64) error {
	f, err := transactionFilter(r, defaultListLimit)
	if err != nil {
		return err
	}
	txs, summary, err := s.deps.Transactions.List(r.Context(), userID, f)
	if err != nil {
		return err
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, transactionList{Transactions: txs, Summary: summary})
	return nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, userID int64) error {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	created, err := s.deps.Transactions.Create(r.Context(), userID, req.transaction(s.deps.Clock.Today()))
	if err != nil {
		return err
	}
	atomic.AddInt64(&s.appMetrics.transactionsCreated, 1)

	fields := log.NewFields().WithComponent(log.ComponentLedger).WithTransaction(created)
	log.FromContext(r.Context()).InfoContext(r.Context(), "Transaction created", fields.ToSlice()...)

	writeJSON(w, http.StatusCreated, created)
	return nil
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	t, err := s.deps.Transactions.Get(r.Context(), userID, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, t)
	return nil
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	t := req.transaction(s.deps.Clock.Today())
	t.ID = id
	updated, err := s.deps.Transactions.Update(r.Context(), userID, t)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, updated)
	return nil
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if err := s.deps.Transactions.Delete(r.Context(), userID, id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
