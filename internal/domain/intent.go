package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ============================================================
// Intent — the structured command extracted from free text
// ============================================================

// IntentAction enumerates the commands the language model may return.
type IntentAction string

const (
	ActionAdd       IntentAction = "add"
	ActionSetBudget IntentAction = "set_budget"
	ActionDelete    IntentAction = "delete"
	ActionUnknown   IntentAction = "unknown"
)

// Intent is a validated command derived from a chat message.
//
// BudgetInvalid is set when the model returned a set_budget action whose
// budget field could not be coerced to a finite number. The action is kept
// as set_budget so the dispatcher can answer with the dedicated
// invalid-budget reply instead of the generic fallback.
type Intent struct {
	Action        IntentAction `json:"action"`
	Name          string       `json:"name,omitempty"`
	Amount        float64      `json:"amount,omitempty"`
	Budget        float64      `json:"budget,omitempty"`
	BudgetInvalid bool         `json:"-"`
}

// ParseIntent validates raw model output against the intent schema.
//
// The model is instructed to return ONLY JSON, but completions routinely
// arrive wrapped in prose or a markdown fence, so the first {...} object in
// the text is extracted before decoding. Anything that does not decode as a
// JSON object is an *ErrIntentParse. An action outside the known set, or an
// add/delete with a missing name or non-positive amount, degrades to
// ActionUnknown — never to an error.
func ParseIntent(raw string) (*Intent, error) {
	obj, ok := extractJSONObject(raw)
	if !ok {
		return nil, &ErrIntentParse{Raw: raw, Reason: "no JSON object in model output"}
	}

	var fields map[string]any
	dec := json.NewDecoder(strings.NewReader(obj))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, &ErrIntentParse{Raw: raw, Reason: err.Error()}
	}

	action, _ := fields["action"].(string)
	intent := &Intent{Action: ActionUnknown}

	switch IntentAction(action) {
	case ActionAdd, ActionDelete:
		name, _ := fields["name"].(string)
		amount, amountOK := coerceNumber(fields["amount"])
		if strings.TrimSpace(name) == "" || !amountOK || amount <= 0 {
			return intent, nil
		}
		intent.Action = IntentAction(action)
		intent.Name = name
		intent.Amount = amount

	case ActionSetBudget:
		raw, present := fields["budget"]
		if !present {
			return intent, nil
		}
		intent.Action = ActionSetBudget
		budget, ok := coerceNumber(raw)
		if !ok {
			intent.BudgetInvalid = true
			return intent, nil
		}
		intent.Budget = budget

	case ActionUnknown:
		// explicit unknown from the model
	}

	return intent, nil
}

// extractJSONObject returns the first balanced top-level {...} in s.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// coerceNumber converts a decoded JSON value to a finite float64.
// Accepts json.Number and numeric strings (the model sometimes quotes
// numbers); everything else fails the coercion.
func coerceNumber(v any) (float64, bool) {
	var (
		f   float64
		err error
	)
	switch n := v.(type) {
	case json.Number:
		f, err = n.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(n), 64)
	case float64:
		f = n
	default:
		return 0, false
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
