// Package gen turns model completions into typed generation results. It owns
// the prompt templates, the JSON schemas sent to structured-output capable
// models, the bounded retry loop around model calls and the parsing of model
// text back into core types.
//
// The orchestrator never retries; all retry policy lives here.
package gen
