package core

import (
	"context"
	"sync"
	"time"
)

// SessionState is the long-lived, per-conversation record mutated turn by
// turn. It holds the current card content, the active decision, the user's
// long-term style preferences and the output of the most recent turn.
//
// Contract:
//   - One turn at a time mutates a session (single writer per session,
//     enforced by the runner); within a turn the parallel image/audio
//     branches write disjoint fields through the guarded setters.
//   - Clone returns a deep copy safe for independent mutation, which is how
//     stores hand state out and take it back.
//   - Mutations update the Updated timestamp.
type SessionState struct {
	ID string `json:"id"`

	// Current card content.
	Word      string `json:"word,omitempty"`
	Mnemonic  string `json:"mnemonic,omitempty"`
	SceneText string `json:"scene_text,omitempty"`
	Meaning   string `json:"meaning,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
	AudioURL  string `json:"audio_url,omitempty"`

	// AudioVoiceProfileID is the preset the audio stage actually used.
	AudioVoiceProfileID string `json:"audio_voice_profile_id,omitempty"`

	// Decision is the active decision of the in-flight turn; LastDecision is
	// the snapshot kept for the next turn's context.
	Decision     *Decision `json:"decision,omitempty"`
	LastDecision *Decision `json:"last_decision,omitempty"`

	StyleProfileID StyleProfileID `json:"style_profile_id,omitempty"`

	// Long-term user style preferences (scope=session_default write-back).
	UserMnemonicPref *MnemonicStyle `json:"user_mnemonic_pref,omitempty"`
	UserImagePref    *ImageStyle    `json:"user_image_pref,omitempty"`
	UserVoicePref    *VoiceStyle    `json:"user_voice_pref,omitempty"`

	// PrefHistory records adopted preference changes, newest last, bounded
	// by the configured history limit.
	PrefHistory []PreferenceRecord `json:"pref_history,omitempty"`

	// WordBlockPartial is the structured mnemonic-stage output of the current
	// turn, consumed by the final assembler.
	WordBlockPartial *WordBlock `json:"word_block_partial,omitempty"`

	ReplyText   string            `json:"reply_text,omitempty"`
	FinalOutput *WordMemoryResult `json:"final_output,omitempty"`

	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`

	mu sync.RWMutex
}

// NewSessionState creates an empty session state for the given session id.
func NewSessionState(id string) *SessionState {
	now := time.Now().UTC()
	return &SessionState{ID: id, Created: now, Updated: now}
}

// SetImageURL records the image stage result.
func (s *SessionState) SetImageURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ImageURL = url
	s.Updated = time.Now().UTC()
}

// SetAudioURL records the audio stage result and the preset used.
func (s *SessionState) SetAudioURL(url, voiceProfileID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.AudioURL = url
	s.AudioVoiceProfileID = voiceProfileID
	s.Updated = time.Now().UTC()
}

// SetReply records the user-facing reply text for this turn.
func (s *SessionState) SetReply(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ReplyText = text
	s.Updated = time.Now().UTC()
}

// SetWordBlock records the structured mnemonic-stage output together with
// the flat fields derived from it.
func (s *SessionState) SetWordBlock(word string, block *WordBlock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Word = word
	s.WordBlockPartial = block.Clone()
	if block != nil {
		s.Mnemonic = block.Homophone.Text
		s.SceneText = block.Story
		s.Meaning = block.Meaning.CN
	}
	s.Updated = time.Now().UTC()
}

// ApplyDecision installs the resolved decision for the turn together with
// its observable side effects: the resolved word, the active style profile
// and the last-decision snapshot kept for the next turn's context.
func (s *SessionState) ApplyDecision(d *Decision, resolvedWord string, profile StyleProfileID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Decision = d
	s.LastDecision = d.Clone()
	s.Word = resolvedWord
	s.StyleProfileID = profile
	s.Updated = time.Now().UTC()
}

// PreferenceRecord is one adopted session-default style change, kept as a
// bounded trail of how the long-term preferences evolved.
type PreferenceRecord struct {
	Adopted       time.Time      `json:"adopted"`
	MnemonicStyle *MnemonicStyle `json:"mnemonic_style,omitempty"`
	ImageStyle    *ImageStyle    `json:"image_style,omitempty"`
	VoiceStyle    *VoiceStyle    `json:"voice_style,omitempty"`
}

// AdoptPreferences copies each non-nil style override of the decision into
// the corresponding long-term user preference and appends a history record.
// The history keeps at most maxHistory entries, oldest dropped first; zero
// disables the history entirely.
func (s *SessionState) AdoptPreferences(d *Decision, maxHistory int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.MnemonicStyle != nil {
		s.UserMnemonicPref = d.MnemonicStyle.Clone()
	}
	if d.ImageStyle != nil {
		s.UserImagePref = d.ImageStyle.Clone()
	}
	if d.VoiceStyle != nil {
		s.UserVoicePref = d.VoiceStyle.Clone()
	}
	if maxHistory > 0 {
		s.PrefHistory = append(s.PrefHistory, PreferenceRecord{
			Adopted:       time.Now().UTC(),
			MnemonicStyle: d.MnemonicStyle.Clone(),
			ImageStyle:    d.ImageStyle.Clone(),
			VoiceStyle:    d.VoiceStyle.Clone(),
		})
		if len(s.PrefHistory) > maxHistory {
			s.PrefHistory = s.PrefHistory[len(s.PrefHistory)-maxHistory:]
		}
	}
	s.Updated = time.Now().UTC()
}

// FinishTurn records the assembled output of the turn.
func (s *SessionState) FinishTurn(reply string, out *WordMemoryResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ReplyText = reply
	s.FinalOutput = out
	s.Updated = time.Now().UTC()
}

// Snapshot returns a read-consistent deep copy for prompt building and
// final assembly.
func (s *SessionState) Snapshot() *SessionState {
	return s.Clone()
}

// Clone returns a deep copy of the state safe for independent mutation.
func (s *SessionState) Clone() *SessionState {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := &SessionState{
		ID:                  s.ID,
		Word:                s.Word,
		Mnemonic:            s.Mnemonic,
		SceneText:           s.SceneText,
		Meaning:             s.Meaning,
		ImageURL:            s.ImageURL,
		AudioURL:            s.AudioURL,
		AudioVoiceProfileID: s.AudioVoiceProfileID,
		Decision:            s.Decision.Clone(),
		LastDecision:        s.LastDecision.Clone(),
		StyleProfileID:      s.StyleProfileID,
		UserMnemonicPref:    s.UserMnemonicPref.Clone(),
		UserImagePref:       s.UserImagePref.Clone(),
		UserVoicePref:       s.UserVoicePref.Clone(),
		WordBlockPartial:    s.WordBlockPartial.Clone(),
		ReplyText:           s.ReplyText,
		Created:             s.Created,
		Updated:             s.Updated,
	}
	if len(s.PrefHistory) > 0 {
		cp.PrefHistory = make([]PreferenceRecord, len(s.PrefHistory))
		for i, rec := range s.PrefHistory {
			cp.PrefHistory[i] = PreferenceRecord{
				Adopted:       rec.Adopted,
				MnemonicStyle: rec.MnemonicStyle.Clone(),
				ImageStyle:    rec.ImageStyle.Clone(),
				VoiceStyle:    rec.VoiceStyle.Clone(),
			}
		}
	}
	if s.FinalOutput != nil {
		out := *s.FinalOutput
		cp.FinalOutput = &out
	}
	return cp
}

// BeginTurn clears the per-turn fields before a new decision is resolved.
// Card content and long-term preferences survive across turns.
func (s *SessionState) BeginTurn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Decision = nil
	s.WordBlockPartial = nil
	s.ReplyText = ""
	s.FinalOutput = nil
	s.Updated = time.Now().UTC()
}

// SessionStore persists session state keyed by session id. The exact medium
// (memory, file, database) is an implementation concern; callers only rely
// on Get returning an empty state for unknown ids.
type SessionStore interface {
	// Get loads the state for the session, creating an empty one lazily.
	Get(ctx context.Context, sessionID string) (*SessionState, error)
	// Put stores a snapshot of the state under the session id.
	Put(ctx context.Context, sessionID string, state *SessionState) error
}
