// Package client holds HTTP clients for external services.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tmore/finance-agent-go/internal/domain"
	"github.com/tmore/finance-agent-go/internal/infra/observability"
	"github.com/tmore/finance-agent-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("infra/client")

// intentPrompt is the fixed instruction sent with every chat message. The
// model must answer with one of exactly four JSON shapes; anything else is
// treated as unknown downstream.
const intentPrompt = `You are a smart finance assistant. Your job is to extract user's intent and return ONLY JSON. No explanations.

Examples:
1. Add expense: "Add 100 for chai"
{
  "action": "add",
  "name": "chai",
  "amount": 100
}

2. Set budget: "Set my monthly budget to 500"
{
  "action": "set_budget",
  "budget": 500
}

3. Delete: "Delete 100 of chai"
{
  "action": "delete",
  "name": "chai",
  "amount": 100
}

If unclear or unsupported, return:
{ "action": "unknown" }

User: %s`

// GroqResolver resolves chat intents through the Groq chat-completions API
// (OpenAI-compatible). It implements port.IntentResolver.
type GroqResolver struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	timeout    time.Duration
	cb         *gobreaker.CircuitBreaker
	metrics    *observability.Metrics
}

// NewGroqResolver creates the resolver. baseURL is the API root without the
// /openai/v1/chat/completions suffix.
func NewGroqResolver(httpClient *http.Client, baseURL, apiKey, model string, timeout time.Duration, cb *gobreaker.CircuitBreaker, metrics *observability.Metrics) *GroqResolver {
	return &GroqResolver{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		timeout:    timeout,
		cb:         cb,
		metrics:    metrics,
	}
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Resolve sends the message to the model and validates the reply against
// the intent schema. The upstream call is made exactly once per request —
// a failure or deadline expiry surfaces as *domain.ErrAgentUnavailable and
// is never retried here.
func (c *GroqResolver) Resolve(ctx context.Context, message string) (*domain.Intent, error) {
	ctx, span := tracer.Start(ctx, "GroqResolver.Resolve")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", c.model))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.cb.Execute(func() (any, error) {
		return c.complete(ctx, message)
	})
	if err != nil {
		c.metrics.IncrExternalError("groq")
		if resilience.IsOpen(err) {
			return nil, &domain.ErrCircuitOpen{Service: "groq"}
		}
		return nil, &domain.ErrAgentUnavailable{Err: err}
	}

	raw := result.(string)
	return domain.ParseIntent(raw)
}

// complete performs the single chat-completions round trip and returns the
// first choice's content.
func (c *GroqResolver) complete(ctx context.Context, message string) (string, error) {
	body, err := json.Marshal(chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: fmt.Sprintf(intentPrompt, message)},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	url := fmt.Sprintf("%s/openai/v1/chat/completions", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("groq API returned status %d: %s", resp.StatusCode, snippet)
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("completion has no choices")
	}

	c.metrics.RecordTokens(completion.Usage.PromptTokens, completion.Usage.CompletionTokens)
	return completion.Choices[0].Message.Content, nil
}
