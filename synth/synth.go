// Package synth renders the media of a memory card. Synthesizers take the
// typed plans produced by the generation layer, produce actual bytes through
// a provider and park them in the artifact store, returning the artifact URL
// the card will carry.
package synth

import (
	"context"
	"sync"

	"github.com/hupe1980/wordmesh/core"
)

// ImageSynthesizer renders an illustration from an image plan.
type ImageSynthesizer interface {
	// Image renders the plan and returns the URL of the stored image.
	Image(ctx context.Context, sessionID string, plan *core.ImagePlan, style *core.ImageStyle) (string, error)
}

// SpeechSynthesizer renders narration audio from a speech plan.
type SpeechSynthesizer interface {
	// Speech renders the plan and returns the URL of the stored clip.
	Speech(ctx context.Context, sessionID string, plan *core.SpeechPlan) (string, error)
}

// MockImageSynthesizer returns canned URLs or a fixed error. It records every
// plan it was handed.
type MockImageSynthesizer struct {
	mu    sync.Mutex
	URL   string
	Err   error
	Plans []*core.ImagePlan
}

// Image implements ImageSynthesizer.
func (m *MockImageSynthesizer) Image(_ context.Context, _ string, plan *core.ImagePlan, _ *core.ImageStyle) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Plans = append(m.Plans, plan)
	if m.Err != nil {
		return "", m.Err
	}
	if m.URL == "" {
		return "artifact://mock/image", nil
	}
	return m.URL, nil
}

// Calls returns how many renders were requested.
func (m *MockImageSynthesizer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Plans)
}

// MockSpeechSynthesizer returns canned URLs or a fixed error. It records
// every plan it was handed.
type MockSpeechSynthesizer struct {
	mu    sync.Mutex
	URL   string
	Err   error
	Plans []*core.SpeechPlan
}

// Speech implements SpeechSynthesizer.
func (m *MockSpeechSynthesizer) Speech(_ context.Context, _ string, plan *core.SpeechPlan) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Plans = append(m.Plans, plan)
	if m.Err != nil {
		return "", m.Err
	}
	if m.URL == "" {
		return "artifact://mock/audio", nil
	}
	return m.URL, nil
}

// Calls returns how many renders were requested.
func (m *MockSpeechSynthesizer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Plans)
}
