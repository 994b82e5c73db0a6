package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionKind = "income"
	Expense TransactionKind = "expense"
)

const (
	CategoryIncome  CategoryKind = "income"
	CategoryExpense CategoryKind = "expense"
	CategoryBoth    CategoryKind = "both"
)

const (
	DefaultCategoryColor = "#007bff"
	DefaultCategoryIcon  = "fas fa-tag"
	DefaultTagColor      = "#6c757d"
	DefaultGoalColor     = "#28a745"
	DefaultGoalIcon      = "fas fa-piggy-bank"
)

type (
	TransactionKind string
	CategoryKind    string

	User struct {
		ID        int64     `json:"id"`
		Username  string    `json:"username"`
		Email     string    `json:"email"`
		CreatedAt time.Time `json:"created_at"`
	}

	Profile struct {
		UserID    int64     `json:"user_id"`
		Role      Role      `json:"role"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	Category struct {
		ID        int64        `json:"id"`
		UserID    int64        `json:"user_id"`
		Name      string       `json:"name"`
		Kind      CategoryKind `json:"transaction_type"`
		Color     string       `json:"color"`
		Icon      string       `json:"icon"`
		IsDefault bool         `json:"is_default"`
	}

	Tag struct {
		ID     int64  `json:"id"`
		UserID int64  `json:"user_id"`
		Name   string `json:"name"`
		Color  string `json:"color"`
	}

	Transaction struct {
		ID          int64           `json:"id"`
		UserID      int64           `json:"user_id"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
		Date        Date            `json:"date"`
		Kind        TransactionKind `json:"transaction_type"`
		CategoryID  *int64          `json:"category_id,omitempty"`
		TagIDs      []int64         `json:"tag_ids,omitempty"`
		RecurringID *int64          `json:"recurring_id,omitempty"`
		CreatedAt   time.Time       `json:"created_at"`
		UpdatedAt   time.Time       `json:"updated_at"`
	}

	// Budget caps expense spending for one category in one calendar month.
	// Month is always the first day of that month.
	Budget struct {
		ID         int64           `json:"id"`
		UserID     int64           `json:"user_id"`
		CategoryID int64           `json:"category_id"`
		Amount     decimal.Decimal `json:"amount"`
		Month      Date            `json:"month"`
	}

	SavingsGoal struct {
		ID            int64           `json:"id"`
		UserID        int64           `json:"user_id"`
		Name          string          `json:"name"`
		TargetAmount  decimal.Decimal `json:"target_amount"`
		CurrentAmount decimal.Decimal `json:"current_amount"`
		TargetDate    Date            `json:"target_date"`
		Description   string          `json:"description"`
		Icon          string          `json:"icon"`
		Color         string          `json:"color"`
		IsAchieved    bool            `json:"is_achieved"`
	}

	RecurringTransaction struct {
		ID             int64           `json:"id"`
		UserID         int64           `json:"user_id"`
		Name           string          `json:"name"`
		Amount         decimal.Decimal `json:"amount"`
		Kind           TransactionKind `json:"transaction_type"`
		CategoryID     *int64          `json:"category_id,omitempty"`
		Frequency      Frequency       `json:"frequency"`
		StartDate      Date            `json:"start_date"`
		EndDate        *Date           `json:"end_date,omitempty"`
		IsActive       bool            `json:"is_active"`
		Description    string          `json:"description"`
		NextOccurrence Date            `json:"next_occurrence"`
	}
)

var (
	ErrNotFound             = errors.New("not found")
	ErrDuplicate            = errors.New("already exists")
	ErrNotDue               = errors.New("recurring transaction is not due")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidDate          = errors.New("invalid date")
	ErrFutureDate           = errors.New("date cannot be in the future")
	ErrEmptyName            = errors.New("empty name")
	ErrInvalidKind          = errors.New("invalid transaction type")
	ErrInvalidFrequency     = errors.New("invalid frequency")
	ErrCategoryKindMismatch = errors.New("category does not accept this transaction type")
	ErrForbidden            = errors.New("forbidden")
	// ErrInvalid marks any other rejected input.
	ErrInvalid = errors.New("invalid input")
)

func (k TransactionKind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidKind, string(k))
}

func (k CategoryKind) Validate() error {
	switch k {
	case CategoryIncome, CategoryExpense, CategoryBoth:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidKind, string(k))
}

// Accepts reports whether a transaction of the given kind may use the category.
func (c Category) Accepts(kind TransactionKind) bool {
	return c.Kind == CategoryBoth || string(c.Kind) == string(kind)
}

func validateName(name string, max int) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if len(name) > max {
		return fmt.Errorf("%w: name too long (max %d characters)", ErrInvalid, max)
	}
	return nil
}

// ValidateAmount accepts amounts above zero and at most MaxAmount.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return validateMax(amount)
}

func validateMax(amount decimal.Decimal) error {
	if amount.GreaterThan(MaxAmount) {
		return fmt.Errorf("%w: must not exceed %s", ErrInvalidAmount, FormatAmount(MaxAmount))
	}
	return nil
}

func (c Category) Validate() error {
	if err := validateName(c.Name, 100); err != nil {
		return err
	}
	return c.Kind.Validate()
}

func (t Tag) Validate() error {
	return validateName(t.Name, 50)
}

func (t Transaction) Validate() error {
	if err := ValidateAmount(t.Amount); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	return t.Kind.Validate()
}

func (b Budget) Validate() error {
	if err := ValidateAmount(b.Amount); err != nil {
		return err
	}
	if b.CategoryID == 0 {
		return fmt.Errorf("%w: budget requires a category", ErrInvalid)
	}
	return b.Month.Validate()
}

func (g SavingsGoal) Validate() error {
	if err := validateName(g.Name, 100); err != nil {
		return err
	}
	if err := ValidateAmount(g.TargetAmount); err != nil {
		return err
	}
	if g.CurrentAmount.IsNegative() {
		return ErrInvalidAmount
	}
	if err := validateMax(g.CurrentAmount); err != nil {
		return err
	}
	return g.TargetDate.Validate()
}

func (r RecurringTransaction) Validate() error {
	if err := validateName(r.Name, 100); err != nil {
		return err
	}
	if err := ValidateAmount(r.Amount); err != nil {
		return err
	}
	if err := r.Kind.Validate(); err != nil {
		return err
	}
	if err := r.Frequency.Validate(); err != nil {
		return err
	}
	if err := r.StartDate.Validate(); err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	if r.EndDate != nil {
		if err := r.EndDate.Validate(); err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}
		if r.EndDate.Before(r.StartDate) {
			return fmt.Errorf("%w: end date must not be before start date", ErrInvalid)
		}
	}
	return nil
}
