// Package openai implements image and speech synthesis through the OpenAI
// Images and Audio APIs, storing the resulting bytes in an artifact store.
package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/wordmesh/artifact"
	"github.com/hupe1980/wordmesh/core"
	"github.com/hupe1980/wordmesh/logging"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Options configure the OpenAI synthesizer pair.
type Options struct {
	ImageModel  string
	ImageSize   openai.ImageGenerateParamsSize
	SpeechModel string
	APIKey      string
	Logger      logging.Logger
}

// Synthesizer renders images and narration audio via OpenAI and hosts the
// bytes in an artifact store. It implements both synth.ImageSynthesizer and
// synth.SpeechSynthesizer.
type Synthesizer struct {
	client *openai.Client
	store  artifact.Store
	opts   Options
}

// New creates an OpenAI-backed synthesizer writing into store.
func New(store artifact.Store, optFns ...func(o *Options)) *Synthesizer {
	opts := Options{
		ImageModel:  openai.ImageModelDallE3,
		ImageSize:   openai.ImageGenerateParamsSize1024x1024,
		SpeechModel: openai.SpeechModelTTS1,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := openai.NewClient(clientOpts...)
	return &Synthesizer{client: &client, store: store, opts: opts}
}

// NewFromClient creates an OpenAI-backed synthesizer from an existing client.
func NewFromClient(client *openai.Client, store artifact.Store, optFns ...func(o *Options)) *Synthesizer {
	opts := Options{
		ImageModel:  openai.ImageModelDallE3,
		ImageSize:   openai.ImageGenerateParamsSize1024x1024,
		SpeechModel: openai.SpeechModelTTS1,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Synthesizer{client: client, store: store, opts: opts}
}

// Image implements synth.ImageSynthesizer. The negative prompt has no native
// slot in the Images API, so it is appended as an avoidance instruction.
func (s *Synthesizer) Image(ctx context.Context, sessionID string, plan *core.ImagePlan, _ *core.ImageStyle) (string, error) {
	prompt := plan.ImagePrompt
	if plan.NegativePrompt != "" {
		prompt = fmt.Sprintf("%s. Avoid: %s.", prompt, plan.NegativePrompt)
	}

	start := time.Now()
	resp, err := s.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          s.opts.ImageModel,
		Size:           s.opts.ImageSize,
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
		N:              openai.Int(1),
	})
	if err != nil {
		s.opts.Logger.Warn("image synthesis failed", "session_id", sessionID, "duration", time.Since(start), "error", err)
		return "", fmt.Errorf("openai image generation: %w", err)
	}
	if len(resp.Data) == 0 {
		return "", fmt.Errorf("openai image generation returned no data")
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return "", fmt.Errorf("decode image payload: %w", err)
	}

	artifactID := "img-" + uuid.NewString()
	if err := s.store.Save(sessionID, artifactID, artifact.Media{Data: data, ContentType: "image/png"}); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	s.opts.Logger.Info("image synthesized", "session_id", sessionID, "artifact_id", artifactID, "duration", time.Since(start))
	return artifact.URL(sessionID, artifactID), nil
}

// Speech implements synth.SpeechSynthesizer.
func (s *Synthesizer) Speech(ctx context.Context, sessionID string, plan *core.SpeechPlan) (string, error) {
	speed := plan.SpeedRate
	if speed <= 0 {
		speed = 1.0
	}

	start := time.Now()
	resp, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          s.opts.SpeechModel,
		Input:          plan.TextToSpeak,
		Voice:          voiceFor(plan.VoicePresetID),
		Speed:          openai.Float(speed),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		s.opts.Logger.Warn("speech synthesis failed", "session_id", sessionID, "duration", time.Since(start), "error", err)
		return "", fmt.Errorf("openai speech synthesis: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read speech payload: %w", err)
	}

	artifactID := "aud-" + uuid.NewString()
	if err := s.store.Save(sessionID, artifactID, artifact.Media{Data: data, ContentType: "audio/mpeg"}); err != nil {
		return "", fmt.Errorf("store audio: %w", err)
	}
	s.opts.Logger.Info("speech synthesized", "session_id", sessionID, "artifact_id", artifactID, "duration", time.Since(start))
	return artifact.URL(sessionID, artifactID), nil
}

// voiceFor maps the planner's preset vocabulary onto OpenAI voice names.
func voiceFor(presetID string) openai.AudioSpeechNewParamsVoice {
	switch presetID {
	case "male_dynamic":
		return openai.AudioSpeechNewParamsVoice("onyx")
	case "female_soothing", "female_soft":
		return openai.AudioSpeechNewParamsVoice("nova")
	case "standard_neutral", "neutral_standard":
		return openai.AudioSpeechNewParamsVoiceAlloy
	default:
		return openai.AudioSpeechNewParamsVoiceAlloy
	}
}
