package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// Provider describes a generative model that, given a natural language
// instruction and context, returns a structured JSON object. Malformed or
// non-object output is an error, never silently defaulted.
type Provider interface {
	GenerateJSON(ctx context.Context, system, user string) (map[string]interface{}, error)
}

// DecodeObject parses model output into a JSON object. Some models answer
// a request for a single object with a one-element array instead; in that
// case the first object element is used. Any other shape is rejected.
func DecodeObject(content string) (map[string]interface{}, error) {
	var value interface{}
	if err := json.Unmarshal([]byte(content), &value); err != nil {
		return nil, fmt.Errorf("parse model json: %w", err)
	}

	switch typed := value.(type) {
	case map[string]interface{}:
		return typed, nil
	case []interface{}:
		if len(typed) > 0 {
			if object, ok := typed[0].(map[string]interface{}); ok {
				return object, nil
			}
		}
	}

	return nil, fmt.Errorf("model returned %T, expected a json object", value)
}
