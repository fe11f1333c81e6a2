// Package anthropic provides an implementation of model.Model backed by the
// Anthropic Messages API. Structured outputs are obtained by forcing a single
// tool call whose input schema is the requested JSON schema; the tool input is
// returned verbatim as the response text.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/hupe1980/wordmesh/model"
)

// Options configure the Anthropic model adapter.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Model wraps the Anthropic Messages API behind the generic model.Model interface.
type Model struct {
	client *anthropic.Client
	opts   Options
}

// NewModel creates a new Anthropic model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       string(anthropic.ModelClaudeSonnet4_0),
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)
	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new Anthropic model from an existing client.
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       string(anthropic.ModelClaudeSonnet4_0),
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Info returns metadata describing this Anthropic model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:               m.opts.Model,
		Provider:           "anthropic",
		SupportsJSONSchema: true,
	}
}

// Complete implements model.Model with a single blocking message call.
func (m *Model) Complete(ctx context.Context, req model.Request) (*model.Response, error) {
	params, err := m.buildParams(req)
	if err != nil {
		return nil, err
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	out := &model.Response{
		Usage: &model.TokenUsage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}

	for _, block := range resp.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			out.Text += variant.Text
		case anthropic.ToolUseBlock:
			// Forced structured output arrives as the tool input.
			out.Text = string(variant.JSON.Input.Raw())
		}
	}
	return out, nil
}

func (m *Model) buildParams(req model.Request) (anthropic.MessageNewParams, error) {
	modelID := m.opts.Model
	if req.Model != "" {
		modelID = req.Model
	}
	temperature := m.opts.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(modelID),
		MaxTokens:   m.opts.MaxTokens,
		Temperature: anthropic.Float(temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.Instructions != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.Instructions},
		}
	}

	if req.Schema != nil {
		name := req.SchemaName
		if name == "" {
			name = "structured_output"
		}
		inputSchema, err := toInputSchema(req.Schema)
		if err != nil {
			return anthropic.MessageNewParams{}, err
		}
		params.Tools = []anthropic.ToolUnionParam{
			anthropic.ToolUnionParamOfTool(inputSchema, name),
		}
		params.ToolChoice = anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: name},
		}
	}
	return params, nil
}

// toInputSchema converts a generic JSON schema into the tool input schema
// shape the Messages API expects.
func toInputSchema(schema map[string]interface{}) (anthropic.ToolInputSchemaParam, error) {
	out := anthropic.ToolInputSchemaParam{}
	if props, ok := schema["properties"]; ok {
		out.Properties = props
	}
	if req, ok := schema["required"]; ok {
		items, err := toStringSlice(req)
		if err != nil {
			return out, fmt.Errorf("invalid required list in schema: %w", err)
		}
		out.Required = items
	}
	return out, nil
}

func toStringSlice(v interface{}) ([]string, error) {
	switch items := v.(type) {
	case []string:
		return items, nil
	case []interface{}:
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("non-string entry %v", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		var out []string
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
}
