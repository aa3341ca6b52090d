// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/explainor/internal/explain"
	"github.com/pdiddy/explainor/internal/httputil"
	"github.com/pdiddy/explainor/internal/logging"
	"github.com/pdiddy/explainor/internal/persona"
	"github.com/pdiddy/explainor/internal/pipeline"
	"github.com/pdiddy/explainor/internal/research"
	"github.com/pdiddy/explainor/internal/secrets"
	"github.com/pdiddy/explainor/internal/speech"
	"github.com/pdiddy/explainor/pkg/types"
)

// bindEnv maps EXPLAINOR_SECTION_KEY variables onto section.key settings.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("EXPLAINOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// setDefaults registers every configuration key so environment overrides
// reach keys absent from the config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("search.base_url", research.DuckDuckGoAPIBase)
	v.SetDefault("search.timeout", 10*time.Second)
	v.SetDefault("search.user_agent", httputil.DefaultUserAgent)
	v.SetDefault("search.max_related", 3)

	v.SetDefault("generation.base_url", explain.NebiusAPIBase)
	v.SetDefault("generation.model", explain.DefaultModel)
	v.SetDefault("generation.timeout", 60*time.Second)
	v.SetDefault("generation.user_agent", httputil.DefaultUserAgent)
	v.SetDefault("generation.api_key", "")
	v.SetDefault("generation.max_tokens", explain.DefaultMaxTokens)
	v.SetDefault("generation.temperature", explain.DefaultTemperature)

	v.SetDefault("speech.base_url", speech.ElevenLabsAPIBase)
	v.SetDefault("speech.model_id", speech.DefaultModelID)
	v.SetDefault("speech.output_format", speech.DefaultOutputFormat)
	v.SetDefault("speech.timeout", 60*time.Second)
	v.SetDefault("speech.user_agent", httputil.DefaultUserAgent)
	v.SetDefault("speech.api_key", "")

	v.SetDefault("personas.file", "")
	// Empty keeps the catalog's own default.
	v.SetDefault("personas.default", "")

	v.SetDefault("server.addr", ":7860")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// loadConfig decodes v and fills API keys left empty from the environment
// or the secrets files.
func loadConfig(v *viper.Viper, files map[string]string) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.Generation.APIKey == "" {
		cfg.Generation.APIKey, _ = secrets.Lookup(secrets.NebiusAPIKey, files)
	}
	if cfg.Speech.APIKey == "" {
		cfg.Speech.APIKey, _ = secrets.Lookup(secrets.ElevenLabsAPIKey, files)
	}
	return cfg, nil
}

// app holds the components a command needs.
type app struct {
	cfg      types.Config
	log      *zap.Logger
	personas *persona.Catalog
	pipeline *pipeline.Orchestrator
	speaker  *speech.Client
}

func newApp(v *viper.Viper, files map[string]string) (*app, error) {
	cfg, err := loadConfig(v, files)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	cat, err := loadPersonas(cfg.Personas)
	if err != nil {
		return nil, err
	}

	r := research.New(research.NewDuckDuckGoClient(cfg.Search), log.Named("research"))
	if cfg.Search.MaxRelated > 0 {
		r.MaxRelated = cfg.Search.MaxRelated
	}
	e := explain.New(explain.NewChatCompleter(cfg.Generation), log.Named("explain"))
	if cfg.Generation.MaxTokens > 0 {
		e.MaxTokens = cfg.Generation.MaxTokens
	}
	e.Temperature = cfg.Generation.Temperature

	return &app{
		cfg:      cfg,
		log:      log,
		personas: cat,
		pipeline: pipeline.New(r, e, cat, log.Named("pipeline")),
		speaker:  speech.NewClient(cfg.Speech, log.Named("speech")),
	}, nil
}

func loadPersonas(cfg types.PersonaConfig) (*persona.Catalog, error) {
	cat := persona.Default()
	if cfg.File != "" {
		var err error
		if cat, err = persona.Load(cfg.File); err != nil {
			return nil, err
		}
	}
	if cfg.Default == "" || cfg.Default == cat.Fallback() {
		return cat, nil
	}
	return cat.WithFallback(cfg.Default)
}
