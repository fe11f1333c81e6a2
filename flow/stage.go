// Package flow is the turn state machine. A turn enters at MAIN, runs zero or
// more generation stages according to the decision's need-flags and audio
// flow mode, and terminates at FINAL where the result is assembled. The
// transition function is total: every (stage, decision) pair maps to a
// defined successor set, and the only fan-out is the explicit parallel
// image/audio fork.
package flow

import "github.com/hupe1980/wordmesh/core"

// Stage is one node of the turn state machine.
type Stage string

// The closed set of stages. StageFinal is the only terminal stage.
const (
	StageMain     Stage = "main"
	StageMnemonic Stage = "mnemonic"
	StageImage    Stage = "image"
	StageTTS      Stage = "tts"
	StageFinal    Stage = "final"
)

// Next returns the stages that run after `from` completes, given the turn
// decision. Two stages mean a concurrent fork whose branches all join before
// FINAL. From StageFinal it returns nil.
//
// The (image, audio) ladder is shared by MAIN (when no mnemonic is needed)
// and MNEMONIC: both route into media generation the same way.
func Next(from Stage, d *core.Decision) []Stage {
	switch from {
	case StageMain:
		if d.NeedNewMnemonic {
			return []Stage{StageMnemonic}
		}
		return routeMedia(d)
	case StageMnemonic:
		return routeMedia(d)
	case StageImage:
		if d.NeedNewAudio && d.AudioFlow == core.AudioFlowAfterImage {
			return []Stage{StageTTS}
		}
		return []Stage{StageFinal}
	case StageTTS:
		return []Stage{StageFinal}
	case StageFinal:
		return nil
	}
	return []Stage{StageFinal}
}

// routeMedia resolves the (image, audio) pair into the next stage set.
func routeMedia(d *core.Decision) []Stage {
	switch {
	case d.NeedNewImage && d.NeedNewAudio:
		switch d.AudioFlow {
		case core.AudioFlowParallel:
			return []Stage{StageImage, StageTTS}
		case core.AudioFlowAfterImage:
			return []Stage{StageImage}
		case core.AudioFlowAudioOnly:
			// Conflicting request; audio_only wins and the image is skipped.
			return []Stage{StageTTS}
		}
		return []Stage{StageImage, StageTTS}
	case d.NeedNewImage:
		return []Stage{StageImage}
	case d.NeedNewAudio:
		return []Stage{StageTTS}
	default:
		return []Stage{StageFinal}
	}
}
