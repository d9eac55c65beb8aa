// Package port defines the interfaces (ports) for external dependencies.
// They decouple the service layer from concrete implementations: the real
// language-model client in production, plain mocks in tests.
package port

import (
	"context"

	"github.com/tmore/finance-agent-go/internal/domain"
)

// IntentResolver turns one free-text chat message into a structured intent.
//
// Implementations must validate the external service's output themselves: a
// reply that is not intent JSON surfaces as *domain.ErrIntentParse, a
// transport failure or timeout as *domain.ErrAgentUnavailable. Resolvers
// never retry; each request gets exactly one upstream call.
type IntentResolver interface {
	Resolve(ctx context.Context, message string) (*domain.Intent, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
