package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/tmore/finance-agent-go/internal/domain"
	"github.com/tmore/finance-agent-go/internal/infra/observability"
	"github.com/tmore/finance-agent-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var dispatchTracer = otel.Tracer("service/dispatcher")

// User-facing reply strings. The ₹ prefix is part of the chat contract.
const (
	ReplyUnknown       = "Sorry, I couldn't understand that."
	ReplyInvalidBudget = "⚠️ Budget value is invalid."
	ReplyError         = "Something went wrong."
)

// Dispatcher maps a resolved chat intent to exactly one ledger mutation
// and produces the human-readable reply. It is the only consumer of the
// intent resolver.
type Dispatcher struct {
	resolver port.IntentResolver
	ledger   *Ledger
	cache    port.Cache[*domain.Intent]
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewDispatcher creates the dispatcher with all dependencies injected.
func NewDispatcher(
	resolver port.IntentResolver,
	ledger *Ledger,
	cache port.Cache[*domain.Intent],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		resolver: resolver,
		ledger:   ledger,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
	}
}

// Dispatch resolves the message to an intent and applies it. The returned
// reply is always user-facing; a non-nil error means the language-model
// service was unreachable and the transport should answer with its own
// fallback. Malformed model output never returns an error — it degrades to
// the unknown reply with no mutation.
func (d *Dispatcher) Dispatch(ctx context.Context, message string) (string, error) {
	ctx, span := dispatchTracer.Start(ctx, "Dispatcher.Dispatch")
	defer span.End()

	start := time.Now()
	defer func() {
		d.metrics.RecordRequestDuration("chat", time.Since(start))
	}()

	d.logger.Info("chat message received", zap.Int("length", len(message)))

	intent, err := d.resolveIntent(ctx, message)
	if err != nil {
		var parseErr *domain.ErrIntentParse
		if errors.As(err, &parseErr) {
			d.logger.Warn("model output failed intent validation",
				zap.String("reason", parseErr.Reason),
			)
			d.metrics.IncrChat("error")
			return ReplyUnknown, nil
		}
		d.metrics.IncrChat("error")
		return "", err
	}

	span.SetAttributes(attribute.String("intent.action", string(intent.Action)))
	d.metrics.IncrIntent(string(intent.Action))

	reply := d.apply(ctx, intent)
	d.metrics.IncrChat("success")
	return reply, nil
}

// resolveIntent consults the intent cache before calling the resolver.
// Identical phrasings within the TTL skip the model round trip; only the
// intent is cached, never the mutation result.
func (d *Dispatcher) resolveIntent(ctx context.Context, message string) (*domain.Intent, error) {
	key := strings.ToLower(strings.TrimSpace(message))

	if cached, ok := d.cache.Get(key); ok {
		d.metrics.IncrCacheHit("intent")
		return cached, nil
	}
	d.metrics.IncrCacheMiss("intent")

	intent, err := d.resolver.Resolve(ctx, message)
	if err != nil {
		return nil, err
	}
	d.cache.Set(key, intent)
	return intent, nil
}

// apply performs at most one ledger mutation for the intent.
func (d *Dispatcher) apply(ctx context.Context, intent *domain.Intent) string {
	switch intent.Action {
	case domain.ActionAdd:
		if _, err := d.ledger.AddExpense(ctx, intent.Name, intent.Amount); err != nil {
			d.logger.Warn("chat add rejected", zap.Error(err))
			return ReplyUnknown
		}
		return "Added ₹" + formatAmount(intent.Amount) + " for " + intent.Name + "."

	case domain.ActionSetBudget:
		if intent.BudgetInvalid {
			return ReplyInvalidBudget
		}
		if err := d.ledger.SetBudget(ctx, intent.Budget); err != nil {
			d.logger.Warn("chat set_budget rejected", zap.Error(err))
			return ReplyInvalidBudget
		}
		return "Monthly budget set to ₹" + formatAmount(intent.Budget)

	case domain.ActionDelete:
		removed := d.ledger.DeleteExpenseByNameAmount(ctx, intent.Name, intent.Amount)
		if !removed {
			// Reply still reports success — the original behavior. The
			// boolean stays available here should a stricter reply be wanted.
			d.logger.Debug("chat delete matched nothing",
				zap.String("name", intent.Name),
				zap.Float64("amount", intent.Amount),
			)
		}
		return "Deleted ₹" + formatAmount(intent.Amount) + " of " + intent.Name + "."
	}

	return ReplyUnknown
}

// formatAmount renders a money value the way JSON numbers print: no
// exponent, trailing zeros trimmed.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
