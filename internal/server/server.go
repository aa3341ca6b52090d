// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the explanation pipeline and speech rendering over
// HTTP. Explanations stream as server-sent events; each pipeline event becomes
// one frame.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pdiddy/explainor/internal/logging"
	"github.com/pdiddy/explainor/internal/persona"
	"github.com/pdiddy/explainor/internal/pipeline"
	"github.com/pdiddy/explainor/internal/report"
	"github.com/pdiddy/explainor/internal/secrets"
	"github.com/pdiddy/explainor/pkg/types"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Speaker renders text to audio in a persona's voice.
type Speaker interface {
	Render(ctx context.Context, text, voiceID string, settings *types.VoiceSettings) ([]byte, error)
}

// Server is the HTTP adapter over the pipeline.
type Server struct {
	Pipeline pipeline.Runner
	Personas *persona.Catalog
	Speaker  Speaker
	Logger   *zap.Logger
}

// Handler returns the routed handler with request IDs and metrics applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":   true,
			"time": time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/personas", s.handlePersonas)
	mux.HandleFunc("GET /api/audiences", s.handleAudiences)
	mux.HandleFunc("POST /api/explain", s.handleExplain)
	mux.HandleFunc("POST /api/speech", s.handleSpeech)

	return withRequestID(s.logger(), withMetrics(mux))
}

func (s *Server) logger() *zap.Logger { return logging.OrNop(s.Logger) }

type personaView struct {
	Name          string               `json:"name"`
	Emoji         string               `json:"emoji"`
	Label         string               `json:"label"`
	VoiceID       string               `json:"voice_id"`
	VoiceSettings *types.VoiceSettings `json:"voice_settings,omitempty"`
	Default       bool                 `json:"default"`
}

func (s *Server) handlePersonas(w http.ResponseWriter, r *http.Request) {
	if s.Personas == nil {
		writeError(w, http.StatusInternalServerError, "server misconfigured: no persona catalog")
		return
	}
	fallback := s.Personas.Fallback()
	all := s.Personas.All()
	items := make([]personaView, 0, len(all))
	for _, p := range all {
		items = append(items, personaView{
			Name:          p.Name,
			Emoji:         p.Emoji,
			Label:         p.Label(),
			VoiceID:       p.VoiceID,
			VoiceSettings: p.VoiceSettings,
			Default:       p.Name == fallback,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"default":   fallback,
		"personas":  items,
		"audiences": persona.AudienceChoices(),
	})
}

func (s *Server) handleAudiences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "audiences": persona.Audiences()})
}

// explainRequest accepts persona and audience as names or picker labels.
type explainRequest struct {
	Topic    string `json:"topic"`
	Persona  string `json:"persona"`
	Audience string `json:"audience"`
}

// explainDocument is the ?format=json response body.
type explainDocument struct {
	OK       bool               `json:"ok"`
	Error    string             `json:"error,omitempty"`
	Steps    []types.StepEvent  `json:"steps"`
	Result   *types.ResultEvent `json:"result,omitempty"`
	Markdown *markdownViews     `json:"markdown,omitempty"`
}

type markdownViews struct {
	Sources string `json:"sources"`
	Tools   string `json:"tools"`
	Trace   string `json:"trace"`
	HTML    string `json:"html,omitempty"`
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	if s.Pipeline == nil {
		writeError(w, http.StatusInternalServerError, "server misconfigured: no pipeline")
		return
	}
	var body explainRequest
	if err := readJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	topic := strings.TrimSpace(body.Topic)
	if topic == "" {
		writeError(w, http.StatusBadRequest, pipeline.NoTopicMessage)
		return
	}
	body.Audience = persona.NormalizeAudience(body.Audience)

	if r.URL.Query().Get("format") == "json" {
		s.explainJSON(w, r, topic, body)
		return
	}
	s.explainStream(w, r, topic, body)
}

func (s *Server) explainJSON(w http.ResponseWriter, r *http.Request, topic string, body explainRequest) {
	out, err := pipeline.Explain(r.Context(), s.Pipeline, topic, body.Persona, body.Audience, nil)
	doc := explainDocument{OK: err == nil, Steps: out.Steps, Result: out.Result}
	if doc.Steps == nil {
		doc.Steps = []types.StepEvent{}
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		doc.Error = err.Error()
		writeJSON(w, failureStatus(err), doc)
		return
	}

	views := &markdownViews{
		Sources: report.Sources(out.Result.Sources),
		Tools:   report.Tools(out.Result.Tools),
		Trace:   report.Steps(out.Steps),
	}
	if html, herr := report.HTML(report.Document(topic, out.Steps, *out.Result)); herr == nil {
		views.HTML = html
	} else {
		s.logger().Warn("rendering html", zap.Error(herr))
	}
	doc.Markdown = views
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) explainStream(w http.ResponseWriter, r *http.Request, topic string, body explainRequest) {
	rc := http.NewResponseController(w)
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	log := s.logger().With(zap.String("request_id", w.Header().Get(RequestIDHeader)))
	for ev, err := range s.Pipeline.Run(r.Context(), topic, body.Persona, body.Audience) {
		if err != nil {
			if r.Context().Err() != nil {
				return
			}
			log.Warn("explain stream failed", zap.Error(err))
			_ = writeFrame(w, "error", map[string]any{"error": err.Error(), "kind": errorKind(err)})
			_ = rc.Flush()
			return
		}
		var ferr error
		switch ev.Kind {
		case types.EventStep:
			ferr = writeFrame(w, "step", ev.Step)
		case types.EventResult:
			ferr = writeFrame(w, "result", ev.Result)
		}
		if ferr == nil {
			ferr = rc.Flush()
		}
		if ferr != nil {
			log.Debug("client went away", zap.Error(ferr))
			return
		}
	}
}

type speechRequest struct {
	Text    string `json:"text"`
	Persona string `json:"persona"`
}

func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request) {
	if s.Speaker == nil || s.Personas == nil {
		writeError(w, http.StatusInternalServerError, "server misconfigured: speech disabled")
		return
	}
	var body speechRequest
	if err := readJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(body.Text) == "" {
		writeError(w, http.StatusBadRequest, "missing text")
		return
	}

	p := s.Personas.Get(body.Persona)
	audio, err := s.Speaker.Render(r.Context(), body.Text, p.VoiceID, p.VoiceSettings)
	if err != nil {
		s.logger().Warn("speech render failed", zap.String("persona", p.Name), zap.Error(err))
		writeError(w, failureStatus(err), err.Error())
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", fmt.Sprint(len(audio)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

// failureStatus maps a pipeline or speech error to a response code. A missing
// credential is a server problem; upstream failures are gateway errors.
func failureStatus(err error) int {
	var missing *secrets.MissingError
	if errors.As(err, &missing) {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}

func errorKind(err error) string {
	var missing *secrets.MissingError
	switch {
	case errors.As(err, &missing):
		return "configuration"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "generation"
	}
}

func writeFrame(w io.Writer, event string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s frame: %w", event, err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, b)
	return err
}

func readJSON(r *http.Request, dst any) error {
	if r == nil || r.Body == nil {
		return errors.New("empty request body")
	}
	defer r.Body.Close()

	b, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed reading request body: %w", err)
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		b = []byte("{}")
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	b, err := json.Marshal(v)
	if err != nil {
		_, _ = w.Write([]byte(`{"ok":false,"error":"failed to marshal json"}`))
		return
	}
	_, _ = w.Write(append(b, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": msg})
}
