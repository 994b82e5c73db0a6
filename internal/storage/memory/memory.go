// Package memory is an in-process implementation of ports.Store. It keeps the
// same uniqueness and atomicity rules as the SQLite store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

var _ ports.Store = (*Store)(nil)

type Store struct {
	mu     sync.Mutex
	lastID int64
	now    func() time.Time

	users        map[int64]core.User
	profiles     map[int64]core.Profile
	categories   map[int64]core.Category
	tags         map[int64]core.Tag
	transactions map[int64]core.Transaction
	budgets      map[int64]core.Budget
	goals        map[int64]core.SavingsGoal
	recurring    map[int64]core.RecurringTransaction
}

func New() *Store {
	return &Store{
		now:          func() time.Time { return time.Now().UTC() },
		users:        map[int64]core.User{},
		profiles:     map[int64]core.Profile{},
		categories:   map[int64]core.Category{},
		tags:         map[int64]core.Tag{},
		transactions: map[int64]core.Transaction{},
		budgets:      map[int64]core.Budget{},
		goals:        map[int64]core.SavingsGoal{},
		recurring:    map[int64]core.RecurringTransaction{},
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) nextID() int64 {
	s.lastID++
	return s.lastID
}

func notFound(kind string, id int64) error {
	return fmt.Errorf("%s %d: %w", kind, id, core.ErrNotFound)
}

func duplicate(kind, key string) error {
	return fmt.Errorf("%s %q: %w", kind, key, core.ErrDuplicate)
}

// storable rejects amounts the SQLite store could not hold as int64 cents.
func storable(kind string, amounts ...decimal.Decimal) error {
	for _, a := range amounts {
		if _, err := core.ToCents(a); err != nil {
			return fmt.Errorf("%s: %w", kind, err)
		}
	}
	return nil
}

// Users

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return core.User{}, duplicate("user", u.Username)
		}
	}
	u.ID = s.nextID()
	u.CreatedAt = s.now()
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id int64) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, notFound("user", id)
	}
	return u, nil
}

func (s *Store) ListUsers(_ context.Context) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SaveProfile(_ context.Context, p core.Profile) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[p.UserID]; !ok {
		return core.Profile{}, notFound("user", p.UserID)
	}
	now := s.now()
	if existing, ok := s.profiles[p.UserID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	s.profiles[p.UserID] = p
	return p, nil
}

func (s *Store) GetProfile(_ context.Context, userID int64) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return core.Profile{}, notFound("profile", userID)
	}
	return p, nil
}

// Categories

func (s *Store) categoryNameTaken(c core.Category) bool {
	for _, existing := range s.categories {
		if existing.UserID == c.UserID && existing.ID != c.ID && existing.Name == c.Name {
			return true
		}
	}
	return false
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.categoryNameTaken(c) {
		return core.Category{}, duplicate("category", c.Name)
	}
	c.ID = s.nextID()
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) GetCategory(_ context.Context, userID, id int64) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok || c.UserID != userID {
		return core.Category{}, notFound("category", id)
	}
	return c, nil
}

func (s *Store) ListCategories(_ context.Context, userID int64) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Category
	for _, c := range s.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.categories[c.ID]
	if !ok || existing.UserID != c.UserID {
		return core.Category{}, notFound("category", c.ID)
	}
	if s.categoryNameTaken(c) {
		return core.Category{}, duplicate("category", c.Name)
	}
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) DeleteCategory(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok || c.UserID != userID {
		return notFound("category", id)
	}
	delete(s.categories, id)
	for tid, t := range s.transactions {
		if t.CategoryID != nil && *t.CategoryID == id {
			t.CategoryID = nil
			s.transactions[tid] = t
		}
	}
	for rid, r := range s.recurring {
		if r.CategoryID != nil && *r.CategoryID == id {
			r.CategoryID = nil
			s.recurring[rid] = r
		}
	}
	for bid, b := range s.budgets {
		if b.CategoryID == id {
			delete(s.budgets, bid)
		}
	}
	return nil
}

// Tags

func (s *Store) CreateTag(_ context.Context, t core.Tag) (core.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.tags {
		if existing.UserID == t.UserID && existing.Name == t.Name {
			return core.Tag{}, duplicate("tag", t.Name)
		}
	}
	t.ID = s.nextID()
	s.tags[t.ID] = t
	return t, nil
}

func (s *Store) ListTags(_ context.Context, userID int64) ([]core.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Tag
	for _, t := range s.tags {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpdateTag(_ context.Context, t core.Tag) (core.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tags[t.ID]
	if !ok || existing.UserID != t.UserID {
		return core.Tag{}, notFound("tag", t.ID)
	}
	for _, other := range s.tags {
		if other.ID != t.ID && other.UserID == t.UserID && other.Name == t.Name {
			return core.Tag{}, duplicate("tag", t.Name)
		}
	}
	s.tags[t.ID] = t
	return t, nil
}

func (s *Store) DeleteTag(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tags[id]
	if !ok || t.UserID != userID {
		return notFound("tag", id)
	}
	delete(s.tags, id)
	for tid, tx := range s.transactions {
		kept := tx.TagIDs[:0:0]
		for _, tag := range tx.TagIDs {
			if tag != id {
				kept = append(kept, tag)
			}
		}
		tx.TagIDs = kept
		s.transactions[tid] = tx
	}
	return nil
}

// Transactions

func cloneTx(t core.Transaction) core.Transaction {
	t.TagIDs = append([]int64(nil), t.TagIDs...)
	return t
}

func (s *Store) insertTransaction(t core.Transaction) (core.Transaction, error) {
	if err := storable("transaction", t.Amount); err != nil {
		return core.Transaction{}, err
	}
	if t.RecurringID != nil {
		for _, existing := range s.transactions {
			if existing.RecurringID != nil && *existing.RecurringID == *t.RecurringID && existing.Date.Equal(t.Date) {
				return core.Transaction{}, duplicate("occurrence", t.Date.String())
			}
		}
	}
	now := s.now()
	t.ID = s.nextID()
	t.CreatedAt, t.UpdatedAt = now, now
	s.transactions[t.ID] = cloneTx(t)
	return cloneTx(t), nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertTransaction(t)
}

func (s *Store) GetTransaction(_ context.Context, userID, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok || t.UserID != userID {
		return core.Transaction{}, notFound("transaction", id)
	}
	return cloneTx(t), nil
}

func matches(t core.Transaction, f ports.TransactionFilter) bool {
	if f.Kind != "" && t.Kind != f.Kind {
		return false
	}
	if f.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *f.CategoryID) {
		return false
	}
	if f.From != nil && t.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && !t.Date.Before(*f.To) {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(t.Description), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

func (s *Store) ListTransactions(_ context.Context, userID int64, f ports.TransactionFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.transactions {
		if t.UserID == userID && matches(t, f) {
			out = append(out, cloneTx(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.transactions[t.ID]
	if !ok || existing.UserID != t.UserID {
		return core.Transaction{}, notFound("transaction", t.ID)
	}
	if err := storable("transaction", t.Amount); err != nil {
		return core.Transaction{}, err
	}
	t.RecurringID = existing.RecurringID
	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = s.now()
	s.transactions[t.ID] = cloneTx(t)
	return cloneTx(t), nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok || t.UserID != userID {
		return notFound("transaction", id)
	}
	delete(s.transactions, id)
	return nil
}

func (s *Store) SumExpenses(_ context.Context, userID, categoryID int64, from, to core.Date) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	f := ports.TransactionFilter{Kind: core.Expense, CategoryID: &categoryID, From: &from, To: &to}
	for _, t := range s.transactions {
		if t.UserID == userID && matches(t, f) {
			total = total.Add(t.Amount)
		}
	}
	return total, nil
}

// Budgets

func (s *Store) budgetTaken(b core.Budget) bool {
	for _, existing := range s.budgets {
		if existing.ID != b.ID && existing.UserID == b.UserID && existing.CategoryID == b.CategoryID && existing.Month.Equal(b.Month) {
			return true
		}
	}
	return false
}

func (s *Store) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := storable("budget", b.Amount); err != nil {
		return core.Budget{}, err
	}
	b.Month = b.Month.MonthStart()
	if s.budgetTaken(b) {
		return core.Budget{}, duplicate("budget", b.Month.MonthKey())
	}
	b.ID = s.nextID()
	s.budgets[b.ID] = b
	return b, nil
}

func (s *Store) GetBudget(_ context.Context, userID, id int64) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return core.Budget{}, notFound("budget", id)
	}
	return b, nil
}

func (s *Store) ListBudgets(_ context.Context, userID int64, month *core.Date) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if b.UserID != userID {
			continue
		}
		if month != nil && !b.Month.Equal(month.MonthStart()) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Month.Equal(out[j].Month) {
			return out[i].Month.After(out[j].Month)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) UpdateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.budgets[b.ID]
	if !ok || existing.UserID != b.UserID {
		return core.Budget{}, notFound("budget", b.ID)
	}
	if err := storable("budget", b.Amount); err != nil {
		return core.Budget{}, err
	}
	b.Month = b.Month.MonthStart()
	if s.budgetTaken(b) {
		return core.Budget{}, duplicate("budget", b.Month.MonthKey())
	}
	s.budgets[b.ID] = b
	return b, nil
}

func (s *Store) DeleteBudget(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return notFound("budget", id)
	}
	delete(s.budgets, id)
	return nil
}

// Savings goals

func (s *Store) CreateGoal(_ context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := storable("savings goal", g.TargetAmount, g.CurrentAmount); err != nil {
		return core.SavingsGoal{}, err
	}
	g.ID = s.nextID()
	s.goals[g.ID] = g
	return g, nil
}

func (s *Store) GetGoal(_ context.Context, userID, id int64) (core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok || g.UserID != userID {
		return core.SavingsGoal{}, notFound("savings goal", id)
	}
	return g, nil
}

func (s *Store) ListGoals(_ context.Context, userID int64, achieved *bool) ([]core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.SavingsGoal
	for _, g := range s.goals {
		if g.UserID != userID {
			continue
		}
		if achieved != nil && g.IsAchieved != *achieved {
			continue
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) UpdateGoal(_ context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.goals[g.ID]
	if !ok || existing.UserID != g.UserID {
		return core.SavingsGoal{}, notFound("savings goal", g.ID)
	}
	if err := storable("savings goal", g.TargetAmount); err != nil {
		return core.SavingsGoal{}, err
	}
	existing.Name = g.Name
	existing.TargetAmount = g.TargetAmount
	existing.TargetDate = g.TargetDate
	existing.Description = g.Description
	existing.Icon = g.Icon
	existing.Color = g.Color
	if existing.CurrentAmount.GreaterThanOrEqual(existing.TargetAmount) {
		existing.CurrentAmount = existing.TargetAmount
		existing.IsAchieved = true
	}
	s.goals[g.ID] = existing
	return existing, nil
}

func (s *Store) DeleteGoal(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok || g.UserID != userID {
		return notFound("savings goal", id)
	}
	delete(s.goals, id)
	return nil
}

func (s *Store) AddToGoal(_ context.Context, userID, id int64, amount decimal.Decimal) (core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok || g.UserID != userID {
		return core.SavingsGoal{}, notFound("savings goal", id)
	}
	if err := storable("savings goal", amount); err != nil {
		return core.SavingsGoal{}, err
	}
	g.CurrentAmount = g.CurrentAmount.Add(amount)
	if g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount) {
		g.CurrentAmount = g.TargetAmount
		g.IsAchieved = true
	}
	s.goals[id] = g
	return g, nil
}

// Recurring transactions

func cloneRecurring(r core.RecurringTransaction) core.RecurringTransaction {
	if r.EndDate != nil {
		end := *r.EndDate
		r.EndDate = &end
	}
	if r.CategoryID != nil {
		cat := *r.CategoryID
		r.CategoryID = &cat
	}
	return r
}

func sortRecurring(out []core.RecurringTransaction) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].NextOccurrence.Equal(out[j].NextOccurrence) {
			return out[i].NextOccurrence.Before(out[j].NextOccurrence)
		}
		return out[i].ID < out[j].ID
	})
}

func (s *Store) CreateRecurring(_ context.Context, r core.RecurringTransaction) (core.RecurringTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := storable("recurring transaction", r.Amount); err != nil {
		return core.RecurringTransaction{}, err
	}
	r.ID = s.nextID()
	s.recurring[r.ID] = cloneRecurring(r)
	return cloneRecurring(r), nil
}

func (s *Store) GetRecurring(_ context.Context, userID, id int64) (core.RecurringTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recurring[id]
	if !ok || r.UserID != userID {
		return core.RecurringTransaction{}, notFound("recurring transaction", id)
	}
	return cloneRecurring(r), nil
}

func (s *Store) ListRecurring(_ context.Context, userID int64) ([]core.RecurringTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.RecurringTransaction
	for _, r := range s.recurring {
		if r.UserID == userID {
			out = append(out, cloneRecurring(r))
		}
	}
	sortRecurring(out)
	return out, nil
}

func (s *Store) ListDueRecurring(_ context.Context, today core.Date) ([]core.RecurringTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.RecurringTransaction
	for _, r := range s.recurring {
		if r.IsActive && !r.NextOccurrence.After(today) {
			out = append(out, cloneRecurring(r))
		}
	}
	sortRecurring(out)
	return out, nil
}

func (s *Store) UpdateRecurring(_ context.Context, r core.RecurringTransaction, reschedule bool) (core.RecurringTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.recurring[r.ID]
	if !ok || existing.UserID != r.UserID {
		return core.RecurringTransaction{}, notFound("recurring transaction", r.ID)
	}
	if err := storable("recurring transaction", r.Amount); err != nil {
		return core.RecurringTransaction{}, err
	}
	r.IsActive = existing.IsActive
	if !reschedule {
		r.NextOccurrence = existing.NextOccurrence
	}
	s.recurring[r.ID] = cloneRecurring(r)
	return cloneRecurring(r), nil
}

func (s *Store) SetRecurringActive(_ context.Context, userID, id int64, active bool) (core.RecurringTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recurring[id]
	if !ok || r.UserID != userID {
		return core.RecurringTransaction{}, notFound("recurring transaction", id)
	}
	r.IsActive = active
	s.recurring[id] = r
	return cloneRecurring(r), nil
}

func (s *Store) DeleteRecurring(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recurring[id]
	if !ok || r.UserID != userID {
		return notFound("recurring transaction", id)
	}
	delete(s.recurring, id)
	for tid, t := range s.transactions {
		if t.RecurringID != nil && *t.RecurringID == id {
			t.RecurringID = nil
			s.transactions[tid] = t
		}
	}
	return nil
}

func (s *Store) CommitOccurrence(_ context.Context, o ports.Occurrence) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recurring[o.RecurringID]
	if !ok {
		return core.Transaction{}, notFound("recurring transaction", o.RecurringID)
	}
	if !r.IsActive || !r.NextOccurrence.Equal(o.ExpectedNext) {
		return core.Transaction{}, core.ErrNotDue
	}
	tx := o.Transaction
	tx.RecurringID = &o.RecurringID
	created, err := s.insertTransaction(tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %v", core.ErrNotDue, err)
	}
	r.NextOccurrence = o.NextOccurrence
	r.IsActive = o.Active
	s.recurring[r.ID] = r
	return created, nil
}
