// Package service provides the business logic layer (use cases).
// Ledger wraps the store with tracing and logging; Dispatcher turns chat
// messages into ledger mutations.
package service

import (
	"context"

	"github.com/tmore/finance-agent-go/internal/domain"
	"github.com/tmore/finance-agent-go/internal/infra/observability"
	"github.com/tmore/finance-agent-go/internal/ledger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var ledgerTracer = otel.Tracer("service/ledger")

// Ledger is the single mutation/query surface shared by the direct HTTP
// API and the chat dispatcher. Both paths go through these methods, so the
// two entry points can never diverge in accepted values.
type Ledger struct {
	store   *ledger.Store
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewLedger creates the ledger service.
func NewLedger(store *ledger.Store, metrics *observability.Metrics, logger *zap.Logger) *Ledger {
	return &Ledger{store: store, metrics: metrics, logger: logger}
}

// AddExpense records a new expense.
func (s *Ledger) AddExpense(ctx context.Context, name string, amount float64) (domain.Expense, error) {
	_, span := ledgerTracer.Start(ctx, "Ledger.AddExpense")
	defer span.End()
	span.SetAttributes(attribute.Float64("expense.amount", amount))

	e, err := s.store.AddExpense(name, amount)
	if err != nil {
		return domain.Expense{}, err
	}
	s.logger.Info("expense added",
		zap.String("id", e.ID),
		zap.String("name", e.Name),
		zap.Float64("amount", e.Amount),
	)
	return e, nil
}

// AddIncome records a new income.
func (s *Ledger) AddIncome(ctx context.Context, name string, amount float64) (domain.Income, error) {
	_, span := ledgerTracer.Start(ctx, "Ledger.AddIncome")
	defer span.End()

	in, err := s.store.AddIncome(name, amount)
	if err != nil {
		return domain.Income{}, err
	}
	s.logger.Info("income added",
		zap.String("name", in.Name),
		zap.Float64("amount", in.Amount),
	)
	return in, nil
}

// SetBudget replaces the monthly budget.
func (s *Ledger) SetBudget(ctx context.Context, value float64) error {
	_, span := ledgerTracer.Start(ctx, "Ledger.SetBudget")
	defer span.End()

	if err := s.store.SetBudget(value); err != nil {
		return err
	}
	s.logger.Info("budget set", zap.Float64("budget", value))
	return nil
}

// Budget returns the current monthly budget.
func (s *Ledger) Budget(ctx context.Context) float64 {
	_, span := ledgerTracer.Start(ctx, "Ledger.Budget")
	defer span.End()

	return s.store.Budget()
}

// UpdateExpense replaces name and amount of an existing expense.
func (s *Ledger) UpdateExpense(ctx context.Context, id, name string, amount float64) (domain.Expense, error) {
	_, span := ledgerTracer.Start(ctx, "Ledger.UpdateExpense")
	defer span.End()
	span.SetAttributes(attribute.String("expense.id", id))

	return s.store.UpdateExpense(id, name, amount)
}

// DeleteExpenseByID removes one expense by id; absent ids are a no-op.
func (s *Ledger) DeleteExpenseByID(ctx context.Context, id string) bool {
	_, span := ledgerTracer.Start(ctx, "Ledger.DeleteExpenseByID")
	defer span.End()
	span.SetAttributes(attribute.String("expense.id", id))

	return s.store.DeleteExpenseByID(id)
}

// DeleteExpenseByNameAmount removes the first (name, amount) match.
func (s *Ledger) DeleteExpenseByNameAmount(ctx context.Context, name string, amount float64) bool {
	_, span := ledgerTracer.Start(ctx, "Ledger.DeleteExpenseByNameAmount")
	defer span.End()

	return s.store.DeleteExpenseByNameAmount(name, amount)
}

// ListExpenses returns all expenses in insertion order.
func (s *Ledger) ListExpenses(ctx context.Context) []domain.Expense {
	_, span := ledgerTracer.Start(ctx, "Ledger.ListExpenses")
	defer span.End()

	return s.store.ListExpenses()
}

// Balance returns budget + Σincome − Σexpense.
func (s *Ledger) Balance(ctx context.Context) float64 {
	_, span := ledgerTracer.Start(ctx, "Ledger.Balance")
	defer span.End()

	return s.store.Balance()
}

// AvailableBudget returns max(budget − Σexpense, 0).
func (s *Ledger) AvailableBudget(ctx context.Context) float64 {
	_, span := ledgerTracer.Start(ctx, "Ledger.AvailableBudget")
	defer span.End()

	return s.store.AvailableBudget()
}

// WeeklyExpenses groups expenses into within-month week buckets.
func (s *Ledger) WeeklyExpenses(ctx context.Context) map[string][]domain.Expense {
	_, span := ledgerTracer.Start(ctx, "Ledger.WeeklyExpenses")
	defer span.End()

	return s.store.WeeklyExpenses()
}

// Counts reports record counts for the health endpoint.
func (s *Ledger) Counts(ctx context.Context) (expenses, incomes int) {
	return s.store.Counts()
}
