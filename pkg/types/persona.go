// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// VoiceSettings are the rendering knobs passed to the speech service.
// Lower stability is more expressive; higher style exaggerates delivery.
type VoiceSettings struct {
	// Stability is in [0, 1].
	Stability float64 `json:"stability" yaml:"stability"`

	// SimilarityBoost is in [0, 1].
	SimilarityBoost float64 `json:"similarity_boost" yaml:"similarity_boost"`

	// Style is in [0, 1].
	Style float64 `json:"style" yaml:"style"`

	// Speed is in [0.5, 2.0]; 1.0 is the voice's natural pace.
	Speed float64 `json:"speed" yaml:"speed"`
}

// Persona is a named character profile: a prompt template that shapes the
// generated text plus the synthetic voice used to read it aloud.
type Persona struct {
	Name          string         `json:"name" yaml:"name"`
	SystemPrompt  string         `json:"system_prompt" yaml:"system_prompt"`
	VoiceID       string         `json:"voice_id" yaml:"voice_id"`
	VoiceSettings *VoiceSettings `json:"voice_settings,omitempty" yaml:"voice_settings,omitempty"`
	Emoji         string         `json:"emoji" yaml:"emoji"`
}

// Label returns the "emoji name" form used in persona pickers.
func (p Persona) Label() string {
	if p.Emoji == "" {
		return p.Name
	}
	return p.Emoji + " " + p.Name
}
