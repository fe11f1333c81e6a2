package gen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/wordmesh/core"
	"github.com/hupe1980/wordmesh/logging"
	"github.com/hupe1980/wordmesh/model"
)

var (
	// ErrEmptyWord is returned when a stage is invoked without a target word.
	ErrEmptyWord = errors.New("gen: empty word")
	// ErrInvalidResponse is returned when the model output cannot be parsed
	// into the expected structure after all retries.
	ErrInvalidResponse = errors.New("gen: invalid model response")
)

// Service produces the typed generation results of each orchestration stage.
// Implementations own retrying; callers treat a returned error as final.
type Service interface {
	// Decide resolves the raw decision for one user turn from the current
	// session snapshot and the user's utterance.
	Decide(ctx context.Context, snapshot *core.SessionState, utterance string) (*core.Decision, error)
	// Mnemonic generates the homophone word block for a word in a style.
	Mnemonic(ctx context.Context, word string, style *core.MnemonicStyle) (*core.WordBlock, error)
	// PlanImage turns a word and its scene story into an illustration plan.
	PlanImage(ctx context.Context, word, story string, style *core.ImageStyle) (*core.ImagePlan, error)
	// PlanSpeech turns narration text into a speech plan with a voice preset.
	PlanSpeech(ctx context.Context, word, text string, style *core.VoiceStyle) (*core.SpeechPlan, error)
	// Reply writes the persona reply line for a finished turn.
	Reply(ctx context.Context, intent core.Intent, word string, profile core.StyleProfileID) (string, error)
}

// Options configure a model-backed generation service.
type Options struct {
	// MaxRetries bounds how often a failed or unparseable model call is
	// reattempted. The total attempt count is MaxRetries+1.
	MaxRetries int
	// RetryBaseDelay is the first backoff delay; it doubles per attempt up
	// to maxRetryDelay.
	RetryBaseDelay time.Duration
	// RequestTimeout bounds each individual model call. Zero disables the
	// per-call timeout; the caller's context still applies.
	RequestTimeout time.Duration

	// MaxStoryLength caps the mnemonic story length in runes. Longer
	// stories are cut; downstream image and narration prompts stay bounded.
	MaxStoryLength int

	// DecisionTemperature keeps the decision call deterministic.
	DecisionTemperature float64
	// CreativeTemperature is used for mnemonic and reply generation.
	CreativeTemperature float64
	// PlanTemperature is used for image and speech planning.
	PlanTemperature float64

	Logger logging.Logger
}

// ModelService implements Service over a structured-completion model.
type ModelService struct {
	model model.Model
	opts  Options
}

var _ Service = (*ModelService)(nil)

// NewService creates a generation service on top of a model.
func NewService(m model.Model, optFns ...func(o *Options)) *ModelService {
	opts := Options{
		MaxRetries:          3,
		RetryBaseDelay:      500 * time.Millisecond,
		RequestTimeout:      30 * time.Second,
		MaxStoryLength:      300,
		DecisionTemperature: 0.2,
		CreativeTemperature: 0.9,
		PlanTemperature:     0.4,
		Logger:              logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &ModelService{model: m, opts: opts}
}

// stateView is the trimmed session snapshot embedded into the decision
// prompt. It carries what the resolver rules need and nothing bulky.
type stateView struct {
	Word             string              `json:"word,omitempty"`
	Mnemonic         string              `json:"mnemonic,omitempty"`
	SceneText        string              `json:"scene_text,omitempty"`
	ImageURL         string              `json:"image_url,omitempty"`
	AudioURL         string              `json:"audio_url,omitempty"`
	StyleProfileID   core.StyleProfileID `json:"style_profile_id,omitempty"`
	UserMnemonicPref *core.MnemonicStyle `json:"user_mnemonic_pref,omitempty"`
	UserImagePref    *core.ImageStyle    `json:"user_image_pref,omitempty"`
	UserVoicePref    *core.VoiceStyle    `json:"user_voice_pref,omitempty"`
	LastDecision     *core.Decision      `json:"last_decision,omitempty"`
}

// Decide implements Service.
func (s *ModelService) Decide(ctx context.Context, snapshot *core.SessionState, utterance string) (*core.Decision, error) {
	view := stateView{}
	if snapshot != nil {
		view = stateView{
			Word:             snapshot.Word,
			Mnemonic:         snapshot.Mnemonic,
			SceneText:        snapshot.SceneText,
			ImageURL:         snapshot.ImageURL,
			AudioURL:         snapshot.AudioURL,
			StyleProfileID:   snapshot.StyleProfileID,
			UserMnemonicPref: snapshot.UserMnemonicPref,
			UserImagePref:    snapshot.UserImagePref,
			UserVoicePref:    snapshot.UserVoicePref,
			LastDecision:     snapshot.LastDecision,
		}
	}
	stateJSON, err := json.Marshal(view)
	if err != nil {
		return nil, fmt.Errorf("marshal state snapshot: %w", err)
	}

	prompt, err := renderTemplate(decisionPrompt, map[string]string{
		"UserInput": utterance,
		"StateJSON": string(stateJSON),
	})
	if err != nil {
		return nil, err
	}

	var decision core.Decision
	err = s.complete(ctx, "decision", completion{
		Prompt:      prompt,
		SchemaName:  "decision",
		Schema:      decisionSchema(),
		Temperature: s.opts.DecisionTemperature,
		Validate: func() error {
			if !decision.Intent.Valid() {
				return fmt.Errorf("intent %q outside the closed set", decision.Intent)
			}
			return nil
		},
	}, &decision)
	if err != nil {
		return nil, err
	}

	// Normalize lenient fields; intent validity was enforced above.
	if decision.Difficulty == "" {
		decision.Difficulty = core.DifficultyUnknown
	}
	if !decision.AudioFlow.Valid() {
		decision.AudioFlow = core.AudioFlowParallel
	}
	if decision.Scope != core.ScopeSessionDefault {
		decision.Scope = core.ScopeThisTurn
	}
	return &decision, nil
}

// Mnemonic implements Service.
func (s *ModelService) Mnemonic(ctx context.Context, word string, style *core.MnemonicStyle) (*core.WordBlock, error) {
	if strings.TrimSpace(word) == "" {
		return nil, ErrEmptyWord
	}
	styleJSON, err := json.Marshal(style)
	if err != nil {
		return nil, fmt.Errorf("marshal mnemonic style: %w", err)
	}
	prompt, err := renderTemplate(mnemonicPrompt, map[string]string{
		"Word":      word,
		"StyleJSON": string(styleJSON),
	})
	if err != nil {
		return nil, err
	}

	var block core.WordBlock
	err = s.complete(ctx, "mnemonic", completion{
		Prompt:      prompt,
		SchemaName:  "word_block",
		Schema:      wordBlockSchema(),
		Temperature: s.opts.CreativeTemperature,
		Validate: func() error {
			if block.Homophone.Text == "" || block.Story == "" {
				return fmt.Errorf("word block missing homophone or story")
			}
			return nil
		},
	}, &block)
	if err != nil {
		return nil, err
	}
	if block.Word == "" {
		block.Word = word
	}
	if s.opts.MaxStoryLength > 0 {
		if r := []rune(block.Story); len(r) > s.opts.MaxStoryLength {
			block.Story = string(r[:s.opts.MaxStoryLength])
		}
	}
	return &block, nil
}

// PlanImage implements Service.
func (s *ModelService) PlanImage(ctx context.Context, word, story string, style *core.ImageStyle) (*core.ImagePlan, error) {
	if strings.TrimSpace(word) == "" {
		return nil, ErrEmptyWord
	}
	styleJSON, err := json.Marshal(style)
	if err != nil {
		return nil, fmt.Errorf("marshal image style: %w", err)
	}
	prompt, err := renderTemplate(imagePrompt, map[string]string{
		"Word":      word,
		"Story":     story,
		"StyleJSON": string(styleJSON),
	})
	if err != nil {
		return nil, err
	}

	var plan core.ImagePlan
	err = s.complete(ctx, "image_plan", completion{
		Prompt:      prompt,
		SchemaName:  "image_plan",
		Schema:      imagePlanSchema(),
		Temperature: s.opts.PlanTemperature,
		Validate: func() error {
			if plan.ImagePrompt == "" {
				return fmt.Errorf("image plan missing prompt")
			}
			return nil
		},
	}, &plan)
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// PlanSpeech implements Service.
func (s *ModelService) PlanSpeech(ctx context.Context, word, text string, style *core.VoiceStyle) (*core.SpeechPlan, error) {
	if strings.TrimSpace(word) == "" {
		return nil, ErrEmptyWord
	}
	styleJSON, err := json.Marshal(style)
	if err != nil {
		return nil, fmt.Errorf("marshal voice style: %w", err)
	}
	prompt, err := renderTemplate(speechPrompt, map[string]string{
		"Word":      word,
		"Text":      text,
		"StyleJSON": string(styleJSON),
	})
	if err != nil {
		return nil, err
	}

	var plan core.SpeechPlan
	err = s.complete(ctx, "speech_plan", completion{
		Prompt:      prompt,
		SchemaName:  "speech_plan",
		Schema:      speechPlanSchema(),
		Temperature: s.opts.PlanTemperature,
		Validate: func() error {
			if plan.TextToSpeak == "" {
				return fmt.Errorf("speech plan missing narration text")
			}
			return nil
		},
	}, &plan)
	if err != nil {
		return nil, err
	}
	if plan.SpeedRate <= 0 {
		plan.SpeedRate = 1.0
	}
	return &plan, nil
}

// Reply implements Service.
func (s *ModelService) Reply(ctx context.Context, intent core.Intent, word string, profile core.StyleProfileID) (string, error) {
	prompt, err := renderTemplate(replyPrompt, map[string]string{
		"Intent":       string(intent),
		"Word":         word,
		"StyleProfile": string(profile),
	})
	if err != nil {
		return "", err
	}

	var out struct {
		ReplyText string `json:"reply_text"`
	}
	err = s.complete(ctx, "reply", completion{
		Prompt:      prompt,
		SchemaName:  "reply",
		Schema:      replySchema(),
		Temperature: s.opts.CreativeTemperature,
		Validate: func() error {
			if out.ReplyText == "" {
				return fmt.Errorf("empty reply text")
			}
			return nil
		},
	}, &out)
	if err != nil {
		return "", err
	}
	return out.ReplyText, nil
}

// completion bundles the per-call parameters of the retry loop.
type completion struct {
	Prompt      string
	SchemaName  string
	Schema      map[string]interface{}
	Temperature float64
	// Validate is run after unmarshaling into the output value; an error
	// counts as an unparseable response and triggers a retry.
	Validate func() error
}

// complete calls the model with bounded exponential backoff, extracts a JSON
// object from the response text and unmarshals it into out. Both transport
// errors and unparseable responses are retried; models are flaky in both
// modes and a fresh sample usually recovers.
func (s *ModelService) complete(ctx context.Context, purpose string, c completion, out interface{}) error {
	delay := s.opts.RetryBaseDelay
	var lastErr error

	for attempt := 0; attempt <= s.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			s.opts.Logger.Warn("retrying model call", "purpose", purpose, "attempt", attempt+1, "error", lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = nextDelay(delay)
		}

		start := time.Now()
		resp, err := s.completeOnce(ctx, c)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			s.logCall(purpose, time.Since(start), false, err)
			continue
		}

		if err := unmarshalObject(resp.Text, out); err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrInvalidResponse, err)
			s.logCall(purpose, time.Since(start), false, lastErr)
			continue
		}
		if c.Validate != nil {
			if err := c.Validate(); err != nil {
				lastErr = fmt.Errorf("%w: %v", ErrInvalidResponse, err)
				s.logCall(purpose, time.Since(start), false, lastErr)
				continue
			}
		}
		s.logCall(purpose, time.Since(start), true, nil)
		return nil
	}
	return fmt.Errorf("model call %s failed after %d attempts: %w", purpose, s.opts.MaxRetries+1, lastErr)
}

// maxRetryDelay caps the exponential backoff between attempts.
const maxRetryDelay = 8 * time.Second

// nextDelay doubles the backoff delay up to maxRetryDelay.
func nextDelay(delay time.Duration) time.Duration {
	delay *= 2
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}

// completeOnce issues a single model call under the per-call timeout.
func (s *ModelService) completeOnce(ctx context.Context, c completion) (*model.Response, error) {
	if s.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RequestTimeout)
		defer cancel()
	}
	return s.model.Complete(ctx, model.Request{
		Prompt:      c.Prompt,
		SchemaName:  c.SchemaName,
		Schema:      c.Schema,
		Temperature: &c.Temperature,
	})
}

func (s *ModelService) logCall(purpose string, dur time.Duration, success bool, err error) {
	if wl, ok := s.opts.Logger.(*logging.WordMeshLogger); ok {
		wl.LogModelCall(s.model.Info().Name, purpose, dur, success, err)
		return
	}
	if success {
		s.opts.Logger.Debug("model call completed", "purpose", purpose, "duration", dur)
	} else {
		s.opts.Logger.Warn("model call failed", "purpose", purpose, "duration", dur, "error", err)
	}
}

// unmarshalObject tolerates models that wrap JSON in code fences or prose by
// slicing from the first '{' to the last '}'.
func unmarshalObject(text string, out interface{}) error {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object in response")
	}
	return json.Unmarshal([]byte(text[start:end+1]), out)
}
