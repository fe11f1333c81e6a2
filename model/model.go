package model

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Request captures one structured-completion call against a model backend.
// Generation code always expects a JSON document conforming to Schema; plain
// text generation passes a nil Schema and reads the raw text.
type Request struct {
	// Model optionally overrides the adapter's configured model id.
	Model string `json:"model,omitempty"`
	// Instructions is the system-level prompt framing the task.
	Instructions string `json:"instructions,omitempty"`
	// Prompt is the user-level prompt.
	Prompt string `json:"prompt"`
	// Temperature overrides the adapter default when non-nil.
	Temperature *float64 `json:"temperature,omitempty"`
	// SchemaName names the expected structure (e.g. "decision", "word_block").
	SchemaName string `json:"schema_name,omitempty"`
	// Schema is a JSON Schema object constraining the model output.
	Schema map[string]interface{} `json:"schema,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the final output of a structured completion. Text contains the
// raw model output; for schema-constrained requests it is a JSON document.
type Response struct {
	Text  string      `json:"text"`
	Usage *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name               string `json:"name"`
	Provider           string `json:"provider"` // "openai", "anthropic", "gemini", "mock"
	SupportsJSONSchema bool   `json:"supports_json_schema"`
}

// Model is the minimal interface the generation service needs from a
// provider backend: one blocking structured completion per call.
type Model interface {
	Complete(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
// Canned responses are registered per schema name; unknown schema names get
// an empty JSON object so decoding still succeeds.
type MockModel struct {
	mu        sync.Mutex
	info      Info
	responses map[string]string
	failures  map[string]error
	calls     []Request
}

// NewMockModel constructs a MockModel.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock", SupportsJSONSchema: true},
		responses: make(map[string]string),
		failures:  make(map[string]error),
	}
}

// AddResponse registers a deterministic canned structured response for a
// schema name. Non-string payloads are marshalled to JSON.
func (m *MockModel) AddResponse(schemaName string, payload interface{}) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := payload.(type) {
	case string:
		m.responses[schemaName] = v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			panic(fmt.Sprintf("mock response for %s not marshalable: %v", schemaName, err))
		}
		m.responses[schemaName] = string(data)
	}
	return m
}

// FailWith makes all completions for the schema name return err.
func (m *MockModel) FailWith(schemaName string, err error) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[schemaName] = err
	return m
}

// Calls returns a copy of all requests seen so far.
func (m *MockModel) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]Request, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// Complete implements Model.
func (m *MockModel) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	if err, ok := m.failures[req.SchemaName]; ok {
		return nil, err
	}
	text, ok := m.responses[req.SchemaName]
	if !ok {
		text = "{}"
	}
	return &Response{Text: text}, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
