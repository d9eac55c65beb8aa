package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/tmore/finance-agent-go/internal/domain"
	"github.com/tmore/finance-agent-go/internal/infra/observability"
	"github.com/tmore/finance-agent-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
// The route set matches the dashboard contract: flat paths, JSON bodies,
// chat on POST /.
func NewRouter(ledgerSvc *service.Ledger, dispatcher *service.Dispatcher, metrics *observability.Metrics, logger *zap.Logger, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(ledgerSvc))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	r.Get("/metrics/agent", agentMetricsHandler(metrics))

	// --- Ledger API ---
	r.Post("/add-expense", addExpenseHandler(ledgerSvc, logger))
	r.Post("/add-income", addIncomeHandler(ledgerSvc, logger))
	r.Post("/set-budget", setBudgetHandler(ledgerSvc, logger))
	r.Get("/get-budget", getBudgetHandler(ledgerSvc))
	r.Get("/get-balance", getBalanceHandler(ledgerSvc))
	r.Get("/get-weekly-expense", getWeeklyExpenseHandler(ledgerSvc))
	r.Post("/delete-expense", deleteExpenseHandler(ledgerSvc, logger))
	r.Post("/delete-expense-by-name", deleteExpenseByNameHandler(ledgerSvc, logger))
	r.Post("/update-expense", updateExpenseHandler(ledgerSvc, logger))

	// --- Chat ---
	r.Post("/", chatHandler(dispatcher, logger))

	return r
}

// ============================================================
// Ledger API
// ============================================================

func addExpenseHandler(svc *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /add-expense")
		defer span.End()

		var req struct {
			Name   string  `json:"name"`
			Amount float64 `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if _, err := svc.AddExpense(ctx, req.Name, req.Amount); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, successResponse{Success: true})
	}
}

func addIncomeHandler(svc *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /add-income")
		defer span.End()

		var req struct {
			Name   string  `json:"name"`
			Amount float64 `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if _, err := svc.AddIncome(ctx, req.Name, req.Amount); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, successResponse{Success: true})
	}
}

func setBudgetHandler(svc *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /set-budget")
		defer span.End()

		var req struct {
			Budget float64 `json:"budget"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := svc.SetBudget(ctx, req.Budget); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, successResponse{Success: true})
	}
}

func getBudgetHandler(svc *service.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /get-budget")
		defer span.End()

		writeJSON(w, http.StatusOK, map[string]any{
			"budget": svc.Budget(ctx),
		})
	}
}

func getBalanceHandler(svc *service.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /get-balance")
		defer span.End()

		writeJSON(w, http.StatusOK, map[string]any{
			"balance":         svc.Balance(ctx),
			"availableBudget": svc.AvailableBudget(ctx),
		})
	}
}

func getWeeklyExpenseHandler(svc *service.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /get-weekly-expense")
		defer span.End()

		writeJSON(w, http.StatusOK, svc.WeeklyExpenses(ctx))
	}
}

func deleteExpenseHandler(svc *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /delete-expense")
		defer span.End()

		var req struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		// Idempotent: deleting an absent id still succeeds.
		if !svc.DeleteExpenseByID(ctx, req.ID) {
			logger.Debug("delete-expense matched nothing", zap.String("id", req.ID))
		}
		writeJSON(w, http.StatusOK, successResponse{Success: true})
	}
}

func deleteExpenseByNameHandler(svc *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /delete-expense-by-name")
		defer span.End()

		var req struct {
			Name   string  `json:"name"`
			Amount float64 `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if !svc.DeleteExpenseByNameAmount(ctx, req.Name, req.Amount) {
			logger.Debug("delete-expense-by-name matched nothing",
				zap.String("name", req.Name),
				zap.Float64("amount", req.Amount),
			)
		}
		writeJSON(w, http.StatusOK, successResponse{Success: true})
	}
}

func updateExpenseHandler(svc *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /update-expense")
		defer span.End()

		var req struct {
			ID     string  `json:"id"`
			Name   string  `json:"name"`
			Amount float64 `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if _, err := svc.UpdateExpense(ctx, req.ID, req.Name, req.Amount); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, successResponse{Success: true})
	}
}

// ============================================================
// Chat
// ============================================================

func chatHandler(dispatcher *service.Dispatcher, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /")
		defer span.End()

		var req struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Message == "" {
			writeError(w, http.StatusBadRequest, "message is required")
			return
		}

		reply, err := dispatcher.Dispatch(ctx, req.Message)
		if err != nil {
			// Agent transport failure: the chat contract still answers with
			// a reply string, just at 500.
			logger.Error("chat dispatch failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"reply": service.ReplyError,
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
	}
}

// ============================================================
// Operational
// ============================================================

func healthzHandler(svc *service.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "finance-agent-api", Status: "healthy", LastChecked: now},
		}
		if svc != nil {
			// The ledger is in-process memory; reachable means healthy.
			svc.Counts(r.Context())
			services = append(services, domain.ServiceHealth{
				Name: "ledger", Status: "healthy", LastChecked: now,
			})
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   "healthy",
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func agentMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetAgentSnapshot())
	}
}
