package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tmore/finance-agent-go/internal/domain"
	"github.com/tmore/finance-agent-go/internal/handler"
	"github.com/tmore/finance-agent-go/internal/infra/cache"
	"github.com/tmore/finance-agent-go/internal/infra/observability"
	"github.com/tmore/finance-agent-go/internal/ledger"
	"github.com/tmore/finance-agent-go/internal/service"

	"go.uber.org/zap"
)

type stubResolver struct {
	intent *domain.Intent
	err    error
}

func (s *stubResolver) Resolve(_ context.Context, _ string) (*domain.Intent, error) {
	return s.intent, s.err
}

func newTestRouter(t *testing.T, resolver *stubResolver) (http.Handler, *ledger.Store) {
	t.Helper()

	store := ledger.NewStore()
	metrics := observability.NewMetrics()
	logger := zap.NewNop()
	ledgerSvc := service.NewLedger(store, metrics, logger)
	dispatcher := service.NewDispatcher(
		resolver,
		ledgerSvc,
		cache.New[*domain.Intent](time.Minute),
		metrics,
		logger,
	)
	return handler.NewRouter(ledgerSvc, dispatcher, metrics, logger, []string{"*"}), store
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not JSON: %v (body %q)", err, rec.Body.String())
	}
	return out
}

func TestHealthz(t *testing.T) {
	h, _ := newTestRouter(t, &stubResolver{})

	rec := doJSON(t, h, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", body["status"])
	}
}

func TestReadyz(t *testing.T) {
	h, _ := newTestRouter(t, &stubResolver{})

	rec := doJSON(t, h, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestPing(t *testing.T) {
	h, _ := newTestRouter(t, &stubResolver{})

	rec := doJSON(t, h, http.MethodGet, "/ping", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestRouter(t, &stubResolver{})

	rec := doJSON(t, h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "finagent_") {
		t.Error("expected application metrics in exposition output")
	}
}

func TestAgentMetricsEndpoint(t *testing.T) {
	h, _ := newTestRouter(t, &stubResolver{})

	rec := doJSON(t, h, http.MethodGet, "/metrics/agent", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["period"] != "all_time" {
		t.Errorf("unexpected snapshot: %v", body)
	}
}

func TestAddExpenseAndBalance(t *testing.T) {
	h, _ := newTestRouter(t, &stubResolver{})

	rec := doJSON(t, h, http.MethodPost, "/set-budget", `{"budget": 1000}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("set-budget: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, h, http.MethodPost, "/add-expense", `{"name": "chai", "amount": 100}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("add-expense: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, h, http.MethodPost, "/add-income", `{"name": "salary", "amount": 500}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("add-income: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/get-balance", "")
	body := decodeBody(t, rec)
	if got := body["balance"].(float64); got != 1400 {
		t.Errorf("expected balance 1400, got %v", got)
	}
	if got := body["availableBudget"].(float64); got != 900 {
		t.Errorf("expected availableBudget 900, got %v", got)
	}
}

func TestAddExpenseValidation(t *testing.T) {
	h, store := newTestRouter(t, &stubResolver{})

	tests := []struct {
		name string
		body string
	}{
		{"empty name", `{"name": "", "amount": 100}`},
		{"zero amount", `{"name": "chai", "amount": 0}`},
		{"negative amount", `{"name": "chai", "amount": -5}`},
		{"malformed body", `{"name":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/add-expense", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
	if n, _ := store.Counts(); n != 0 {
		t.Errorf("rejected requests must not mutate the store, got %d expenses", n)
	}
}

func TestGetBudget(t *testing.T) {
	h, store := newTestRouter(t, &stubResolver{})
	store.SetBudget(750)

	rec := doJSON(t, h, http.MethodGet, "/get-budget", "")
	body := decodeBody(t, rec)
	if got := body["budget"].(float64); got != 750 {
		t.Errorf("expected budget 750, got %v", got)
	}
}

func TestSetBudgetRejectsNegative(t *testing.T) {
	h, _ := newTestRouter(t, &stubResolver{})

	rec := doJSON(t, h, http.MethodPost, "/set-budget", `{"budget": -100}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestGetWeeklyExpense(t *testing.T) {
	h, store := newTestRouter(t, &stubResolver{})
	store.AddExpense("chai", 100)

	rec := doJSON(t, h, http.MethodGet, "/get-weekly-expense", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var weekly map[string][]domain.Expense
	if err := json.Unmarshal(rec.Body.Bytes(), &weekly); err != nil {
		t.Fatalf("response is not a week map: %v", err)
	}
	total := 0
	for _, bucket := range weekly {
		total += len(bucket)
	}
	if total != 1 {
		t.Errorf("expected 1 bucketed expense, got %d", total)
	}
}

func TestDeleteExpenseByID(t *testing.T) {
	h, store := newTestRouter(t, &stubResolver{})
	e, _ := store.AddExpense("chai", 100)

	rec := doJSON(t, h, http.MethodPost, "/delete-expense", `{"id": "`+e.ID+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if n, _ := store.Counts(); n != 0 {
		t.Errorf("expected empty store, got %d expenses", n)
	}

	// Absent id still reports success.
	rec = doJSON(t, h, http.MethodPost, "/delete-expense", `{"id": "`+e.ID+`"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("repeat delete: expected 200, got %d", rec.Code)
	}
}

func TestDeleteExpenseByName(t *testing.T) {
	h, store := newTestRouter(t, &stubResolver{})
	store.AddExpense("Chai", 100)

	rec := doJSON(t, h, http.MethodPost, "/delete-expense-by-name", `{"name": "chai", "amount": 100}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if n, _ := store.Counts(); n != 0 {
		t.Errorf("case-insensitive match should have deleted, got %d expenses", n)
	}
}

func TestUpdateExpense(t *testing.T) {
	h, store := newTestRouter(t, &stubResolver{})
	e, _ := store.AddExpense("chai", 100)

	rec := doJSON(t, h, http.MethodPost, "/update-expense",
		`{"id": "`+e.ID+`", "name": "coffee", "amount": 150}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	got := store.ListExpenses()[0]
	if got.Name != "coffee" || got.Amount != 150 {
		t.Errorf("expense not updated: %+v", got)
	}

	rec = doJSON(t, h, http.MethodPost, "/update-expense",
		`{"id": "missing", "name": "coffee", "amount": 150}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing id: expected 404, got %d", rec.Code)
	}
}

func TestChat(t *testing.T) {
	h, store := newTestRouter(t, &stubResolver{
		intent: &domain.Intent{Action: domain.ActionAdd, Name: "chai", Amount: 100},
	})

	rec := doJSON(t, h, http.MethodPost, "/", `{"message": "Add 100 for chai"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["reply"] != "Added ₹100 for chai." {
		t.Errorf("unexpected reply: %v", body["reply"])
	}
	if n, _ := store.Counts(); n != 1 {
		t.Errorf("expected 1 expense, got %d", n)
	}
}

func TestChatEmptyMessage(t *testing.T) {
	h, _ := newTestRouter(t, &stubResolver{})

	rec := doJSON(t, h, http.MethodPost, "/", `{"message": ""}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestChatAgentDown(t *testing.T) {
	h, _ := newTestRouter(t, &stubResolver{
		err: &domain.ErrAgentUnavailable{},
	})

	rec := doJSON(t, h, http.MethodPost, "/", `{"message": "add 100 for chai"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["reply"] != service.ReplyError {
		t.Errorf("unexpected reply: %v", body["reply"])
	}
}
