package amqp

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// TransactionCreatedMessage carries a full ledger row so consumers need no
// access to the database.
type TransactionCreatedMessage struct {
	ID          int64                `json:"id"`
	UserID      int64                `json:"user_id"`
	Date        core.Date            `json:"date"`
	Kind        core.TransactionKind `json:"transaction_type"`
	Amount      decimal.Decimal      `json:"amount"`
	Description string               `json:"description"`
	CategoryID  *int64               `json:"category_id,omitempty"`
	RecurringID *int64               `json:"recurring_id,omitempty"`
	Timestamp   time.Time            `json:"timestamp"`
}

func NewTransactionCreatedMessage(t core.Transaction) *TransactionCreatedMessage {
	return &TransactionCreatedMessage{
		ID:          t.ID,
		UserID:      t.UserID,
		Date:        t.Date,
		Kind:        t.Kind,
		Amount:      t.Amount,
		Description: t.Description,
		CategoryID:  t.CategoryID,
		RecurringID: t.RecurringID,
		Timestamp:   time.Now(),
	}
}

// Transaction rebuilds the ledger row the message was created from.
func (m *TransactionCreatedMessage) Transaction() core.Transaction {
	return core.Transaction{
		ID:          m.ID,
		UserID:      m.UserID,
		Date:        m.Date,
		Kind:        m.Kind,
		Amount:      m.Amount,
		Description: m.Description,
		CategoryID:  m.CategoryID,
		RecurringID: m.RecurringID,
	}
}

func (m *TransactionCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionCreatedMessageFromJSON(data []byte) (*TransactionCreatedMessage, error) {
	var msg TransactionCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
