// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout bounds each outbound request, including reading the body.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "explainor/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SearchConfig holds settings for the research stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the DuckDuckGo Instant Answer endpoint.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// MaxRelated caps how many related entries join the research text (default 3).
	MaxRelated int `json:"max_related" yaml:"max_related" mapstructure:"max_related"`
}

// GenerationConfig holds settings for the explanation stage.
type GenerationConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the OpenAI-compatible API root (e.g. "https://api.studio.nebius.com/v1/").
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Model is the chat model identifier.
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey authenticates against the generation service. Usually left empty
	// in files and resolved from NEBIUS_API_KEY.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// MaxTokens is the completion token budget (default 1500).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// Temperature on the 0-2 scale (default 0.8).
	Temperature float64 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`
}

// SpeechConfig holds settings for the text-to-speech adapter.
type SpeechConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the ElevenLabs API root.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// ModelID selects the synthesis model (default "eleven_multilingual_v2").
	ModelID string `json:"model_id" yaml:"model_id" mapstructure:"model_id"`

	// OutputFormat is the encoded audio format (default "mp3_44100_128").
	OutputFormat string `json:"output_format" yaml:"output_format" mapstructure:"output_format"`

	// APIKey authenticates against the speech service. Usually resolved
	// from ELEVENLABS_API_KEY.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`
}

// PersonaConfig selects the persona catalog.
type PersonaConfig struct {
	// File is an optional YAML catalog replacing the built-in personas.
	File string `json:"file,omitempty" yaml:"file,omitempty" mapstructure:"file"`

	// Default names the fallback persona for empty or unknown selections.
	Default string `json:"default" yaml:"default" mapstructure:"default"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	// Addr is the listen address (default ":7860").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// LogConfig selects the logger level and encoding.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is console or json.
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups every component configuration.
type Config struct {
	Search     SearchConfig     `json:"search" yaml:"search" mapstructure:"search"`
	Generation GenerationConfig `json:"generation" yaml:"generation" mapstructure:"generation"`
	Speech     SpeechConfig     `json:"speech" yaml:"speech" mapstructure:"speech"`
	Personas   PersonaConfig    `json:"personas" yaml:"personas" mapstructure:"personas"`
	Server     ServerConfig     `json:"server" yaml:"server" mapstructure:"server"`
	Log        LogConfig        `json:"log" yaml:"log" mapstructure:"log"`
}
