// Package model defines the provider-neutral structured-completion interface
// used by the generation service, plus a deterministic MockModel for tests.
// Concrete backends live in the subpackages openai, anthropic and gemini;
// each adapts its vendor SDK so that a Request with a JSON Schema yields a
// Response whose Text is a conforming JSON document.
package model
