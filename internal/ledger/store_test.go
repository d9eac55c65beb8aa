package ledger_test

import (
	"errors"
	"math"
	"testing"

	"github.com/tmore/finance-agent-go/internal/domain"
	"github.com/tmore/finance-agent-go/internal/ledger"
)

func TestAddExpense_AdjustsBalance(t *testing.T) {
	s := ledger.NewStore()

	before := s.Balance()
	if _, err := s.AddExpense("chai", 100); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := s.Balance(); got != before-100 {
		t.Errorf("expected balance %v, got %v", before-100, got)
	}

	if _, err := s.AddIncome("salary", 500); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := s.Balance(); got != before-100+500 {
		t.Errorf("expected balance %v, got %v", before-100+500, got)
	}
}

func TestAddExpense_Validation(t *testing.T) {
	tests := []struct {
		name    string
		expense string
		amount  float64
	}{
		{"empty name", "", 10},
		{"blank name", "   ", 10},
		{"zero amount", "chai", 0},
		{"negative amount", "chai", -5},
		{"nan amount", "chai", math.NaN()},
		{"infinite amount", "chai", math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ledger.NewStore()
			_, err := s.AddExpense(tt.expense, tt.amount)
			var verr *domain.ErrValidation
			if !errors.As(err, &verr) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if len(s.ListExpenses()) != 0 {
				t.Error("rejected add must not mutate the store")
			}
		})
	}
}

func TestSetBudget(t *testing.T) {
	s := ledger.NewStore()

	if err := s.SetBudget(1000); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	// Overwritten wholesale, not accumulated.
	if err := s.SetBudget(300); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := s.Budget(); got != 300 {
		t.Errorf("expected budget 300, got %v", got)
	}

	if err := s.SetBudget(-1); err == nil {
		t.Error("expected error for negative budget")
	}
	if err := s.SetBudget(math.NaN()); err == nil {
		t.Error("expected error for NaN budget")
	}
	if got := s.Budget(); got != 300 {
		t.Errorf("rejected set must leave budget at 300, got %v", got)
	}

	if err := s.SetBudget(0); err != nil {
		t.Errorf("zero is a valid budget, got %v", err)
	}
}

func TestUpdateExpense(t *testing.T) {
	s := ledger.NewStore()
	e, err := s.AddExpense("chai", 100)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	updated, err := s.UpdateExpense(e.ID, "coffee", 150)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.ID != e.ID {
		t.Error("update must preserve the id")
	}
	if !updated.Date.Equal(e.Date) {
		t.Error("update must preserve the original date")
	}
	if updated.Name != "coffee" || updated.Amount != 150 {
		t.Errorf("unexpected record after update: %+v", updated)
	}

	_, err = s.UpdateExpense("missing-id", "x", 1)
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	_, err = s.UpdateExpense(e.ID, "coffee", -1)
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if got := s.ListExpenses()[0].Amount; got != 150 {
		t.Errorf("rejected update must not mutate, amount is %v", got)
	}
}

func TestAddUpdateDelete_RoundTrip(t *testing.T) {
	s := ledger.NewStore()
	if _, err := s.AddExpense("rent", 800); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	balanceBefore := s.Balance()
	countBefore := len(s.ListExpenses())

	e, err := s.AddExpense("chai", 100)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := s.UpdateExpense(e.ID, "coffee", 120); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !s.DeleteExpenseByID(e.ID) {
		t.Fatal("expected delete to remove the record")
	}

	if got := len(s.ListExpenses()); got != countBefore {
		t.Errorf("expected %d expenses after round trip, got %d", countBefore, got)
	}
	if got := s.Balance(); got != balanceBefore {
		t.Errorf("expected balance %v after round trip, got %v", balanceBefore, got)
	}

	// Deleting again is a no-op, not an error.
	if s.DeleteExpenseByID(e.ID) {
		t.Error("second delete must report no removal")
	}
}

func TestDeleteExpenseByNameAmount_FirstMatchOnly(t *testing.T) {
	s := ledger.NewStore()
	first, _ := s.AddExpense("chai", 100)
	second, _ := s.AddExpense("chai", 100)
	s.AddExpense("chai", 50)

	if !s.DeleteExpenseByNameAmount("CHAI", 100) {
		t.Fatal("expected a removal")
	}

	remaining := s.ListExpenses()
	if len(remaining) != 2 {
		t.Fatalf("expected 2 records, got %d", len(remaining))
	}
	// The first record in store order is removed; the duplicate survives.
	if remaining[0].ID != second.ID {
		t.Errorf("expected the duplicate %s to survive, got %s", second.ID, remaining[0].ID)
	}
	if remaining[0].ID == first.ID {
		t.Error("first matching record must be the one removed")
	}

	if s.DeleteExpenseByNameAmount("chai", 999) {
		t.Error("expected no removal for non-matching amount")
	}
}

func TestBudgetScenario_DuplicateChai(t *testing.T) {
	s := ledger.NewStore()
	if err := s.SetBudget(1000); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	s.AddExpense("chai", 100)
	s.AddExpense("chai", 100)

	if !s.DeleteExpenseByNameAmount("chai", 100) {
		t.Fatal("expected a removal")
	}

	remaining := s.ListExpenses()
	if len(remaining) != 1 || remaining[0].Name != "chai" || remaining[0].Amount != 100 {
		t.Fatalf("expected exactly one chai/100 expense, got %+v", remaining)
	}
	if got := s.Balance(); got != 900 {
		t.Errorf("expected balance 900, got %v", got)
	}
}

func TestAvailableBudget_FlooredAtZero(t *testing.T) {
	s := ledger.NewStore()
	s.SetBudget(100)
	s.AddExpense("laptop", 900)
	s.AddIncome("salary", 50)

	if got := s.AvailableBudget(); got != 0 {
		t.Errorf("expected available budget 0, got %v", got)
	}
	// Balance is allowed to go negative; available budget is not.
	if got := s.Balance(); got != 100+50-900 {
		t.Errorf("expected balance %v, got %v", 100+50-900, got)
	}

	s.SetBudget(1000)
	if got := s.AvailableBudget(); got != 100 {
		t.Errorf("expected available budget 100, got %v", got)
	}
}

func TestListExpenses_InsertionOrderAndCopy(t *testing.T) {
	s := ledger.NewStore()
	s.AddExpense("a", 1)
	s.AddExpense("b", 2)
	s.AddExpense("c", 3)

	list := s.ListExpenses()
	for i, want := range []string{"a", "b", "c"} {
		if list[i].Name != want {
			t.Errorf("position %d: expected %q, got %q", i, want, list[i].Name)
		}
	}

	// Mutating the returned slice must not touch the store.
	list[0].Amount = 999
	if got := s.ListExpenses()[0].Amount; got != 1 {
		t.Errorf("store record mutated through returned slice: %v", got)
	}
}

func TestListIncomes(t *testing.T) {
	s := ledger.NewStore()
	s.AddIncome("salary", 500)
	s.AddIncome("refund", 20)

	incomes := s.ListIncomes()
	if len(incomes) != 2 {
		t.Fatalf("expected 2 incomes, got %d", len(incomes))
	}
	if incomes[0].Name != "salary" || incomes[1].Name != "refund" {
		t.Errorf("unexpected order: %+v", incomes)
	}
	if incomes[0].Date.IsZero() {
		t.Error("income date must be captured at add time")
	}
}
