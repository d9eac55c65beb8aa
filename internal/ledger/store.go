// Package ledger implements the in-memory expense/income/budget store and
// the derived figures computed from it (balance, available budget, weekly
// buckets). One store per process; all state lives for the process lifetime.
package ledger

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/tmore/finance-agent-go/internal/domain"

	"github.com/google/uuid"
)

// Store is the single mutable ledger. All mutating operations serialize
// behind one mutex so the chat path and the direct API path can never
// interleave a partial write.
type Store struct {
	mu       sync.RWMutex
	expenses []domain.Expense
	incomes  []domain.Income
	budget   float64
}

// NewStore creates an empty ledger: no records, zero budget.
func NewStore() *Store {
	return &Store{}
}

// AddExpense validates and appends a new expense record. The id is freshly
// assigned and the date captured at add time.
func (s *Store) AddExpense(name string, amount float64) (domain.Expense, error) {
	if err := validateNameAmount(name, amount); err != nil {
		return domain.Expense{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e := domain.Expense{
		ID:     uuid.New().String(),
		Name:   name,
		Amount: amount,
		Date:   time.Now(),
	}
	s.expenses = append(s.expenses, e)
	return e, nil
}

// AddIncome validates and appends a new income record.
func (s *Store) AddIncome(name string, amount float64) (domain.Income, error) {
	if err := validateNameAmount(name, amount); err != nil {
		return domain.Income{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	in := domain.Income{
		Name:   name,
		Amount: amount,
		Date:   time.Now(),
	}
	s.incomes = append(s.incomes, in)
	return in, nil
}

// SetBudget replaces the monthly budget wholesale. Zero is a valid budget;
// negative and non-finite values are rejected.
func (s *Store) SetBudget(value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return &domain.ErrValidation{Field: "budget", Message: "must be a finite number"}
	}
	if value < 0 {
		return &domain.ErrValidation{Field: "budget", Message: "must not be negative"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.budget = value
	return nil
}

// Budget returns the current monthly budget.
func (s *Store) Budget() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.budget
}

// UpdateExpense replaces name and amount of the expense with the given id,
// preserving its id and original date.
func (s *Store) UpdateExpense(id, name string, amount float64) (domain.Expense, error) {
	if err := validateNameAmount(name, amount); err != nil {
		return domain.Expense{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.expenses {
		if s.expenses[i].ID != id {
			continue
		}
		s.expenses[i].Name = name
		s.expenses[i].Amount = amount
		return s.expenses[i], nil
	}
	return domain.Expense{}, &domain.ErrNotFound{Resource: "expense", ID: id}
}

// DeleteExpenseByID removes at most one record and reports whether a
// removal occurred. Deleting an absent id is not an error.
func (s *Store) DeleteExpenseByID(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.expenses {
		if s.expenses[i].ID == id {
			s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
			return true
		}
	}
	return false
}

// DeleteExpenseByNameAmount removes the FIRST record (in insertion order)
// whose name matches case-insensitively and whose amount matches exactly.
// At most one record is removed so a single chat command cannot wipe out
// duplicate (name, amount) pairs.
func (s *Store) DeleteExpenseByNameAmount(name string, amount float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.expenses {
		if strings.EqualFold(s.expenses[i].Name, name) && s.expenses[i].Amount == amount {
			s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
			return true
		}
	}
	return false
}

// ListExpenses returns a copy of all expenses in insertion order.
func (s *Store) ListExpenses() []domain.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Expense, len(s.expenses))
	copy(out, s.expenses)
	return out
}

// ListIncomes returns a copy of all incomes in insertion order.
func (s *Store) ListIncomes() []domain.Income {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Income, len(s.incomes))
	copy(out, s.incomes)
	return out
}

// Counts reports the number of expense and income records.
func (s *Store) Counts() (expenses, incomes int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.expenses), len(s.incomes)
}

func validateNameAmount(name string, amount float64) error {
	if strings.TrimSpace(name) == "" {
		return &domain.ErrValidation{Field: "name", Message: "must not be empty"}
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return &domain.ErrValidation{Field: "amount", Message: "must be a finite number"}
	}
	if amount <= 0 {
		return &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}
	return nil
}
