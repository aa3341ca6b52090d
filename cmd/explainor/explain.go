// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/explainor/internal/persona"
	"github.com/pdiddy/explainor/internal/pipeline"
	"github.com/pdiddy/explainor/internal/report"
	"github.com/pdiddy/explainor/internal/speech"
	"github.com/pdiddy/explainor/pkg/types"
)

var explainCmd = &cobra.Command{
	Use:   "explain <topic...>",
	Short: "Explain a topic in a persona's voice",
	Long: `Explain researches the topic, then generates an explanation in the voice of
the chosen persona. Progress steps are printed to stderr as they happen; the
explanation goes to stdout.

With --audio the explanation is also rendered to an MP3 file in the persona's
voice. A failed render is reported after the explanation is printed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExplain,
}

// outputFormats are the values --format accepts.
var outputFormats = []string{"text", "markdown", "json", "yaml"}

func init() {
	addExplainFlags(explainCmd)
	rootCmd.AddCommand(explainCmd)
}

func addExplainFlags(cmd *cobra.Command) {
	var presets []string
	for _, a := range persona.Audiences() {
		presets = append(presets, a.Name)
	}
	cmd.Flags().StringP("persona", "p", "", "persona name (default: the catalog default)")
	cmd.Flags().StringP("audience", "a", "", fmt.Sprintf("who the explanation is for: a preset (%s) or free text", strings.Join(presets, ", ")))
	cmd.Flags().Bool("json", false, "output the run as JSON (same as --format json)")
	cmd.Flags().String("format", "text", "output format: "+strings.Join(outputFormats, ", "))
	cmd.Flags().String("audio", "", "also render the explanation to this MP3 file")
}

func checkFormat(format string) error {
	if !slices.Contains(outputFormats, format) {
		return fmt.Errorf("unknown format %q (want %s)", format, strings.Join(outputFormats, ", "))
	}
	return nil
}

func runExplain(cmd *cobra.Command, args []string) error {
	personaName, _ := cmd.Flags().GetString("persona")
	audience, _ := cmd.Flags().GetString("audience")
	format, _ := cmd.Flags().GetString("format")
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		format = "json"
	}
	if err := checkFormat(format); err != nil {
		return err
	}
	audioPath, _ := cmd.Flags().GetString("audio")

	a, err := newApp(viper.GetViper(), loadedSecrets)
	if err != nil {
		return err
	}
	defer func() { _ = a.log.Sync() }()

	topic := strings.Join(args, " ")
	stderr := cmd.ErrOrStderr()

	var onStep func(types.StepEvent)
	if format == "text" || format == "markdown" {
		onStep = func(s types.StepEvent) { fmt.Fprintln(stderr, s.Title) }
	}

	out, err := pipeline.Explain(cmd.Context(), a.pipeline, topic, personaName, persona.NormalizeAudience(audience), onStep)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoTopic) {
			return errors.New(pipeline.NoTopicMessage)
		}
		return fmt.Errorf("explaining %q: %w", topic, err)
	}

	if err := writeOutcome(cmd.OutOrStdout(), format, topic, out, isTerminal(cmd.OutOrStdout())); err != nil {
		return err
	}

	if audioPath == "" {
		return nil
	}
	res := out.Result
	audio, err := a.speaker.Render(cmd.Context(), res.Explanation, res.VoiceID, res.VoiceSettings)
	if err != nil {
		return fmt.Errorf("explanation ready, audio not saved: %w", err)
	}
	if err := os.WriteFile(audioPath, audio, 0o644); err != nil {
		return &speech.RenderError{Cause: fmt.Errorf("writing %s: %w", audioPath, err)}
	}
	fmt.Fprintf(stderr, "Audio saved to %s (%d bytes)\n", audioPath, len(audio))
	return nil
}

// writeOutcome renders a finished run. Text output on a terminal uses tables;
// piped text output falls back to Markdown.
func writeOutcome(w io.Writer, format, topic string, out pipeline.Outcome, tty bool) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(out)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case "markdown":
		_, err := io.WriteString(w, report.Document(topic, out.Steps, *out.Result))
		return err
	case "text":
		if !tty {
			_, err := io.WriteString(w, report.Document(topic, nil, *out.Result))
			return err
		}
		res := out.Result
		fmt.Fprintf(w, "\n%s explains: %s\n\n%s\n\n", res.PersonaEmoji+" "+res.Persona, topic, strings.TrimSpace(res.Explanation))
		report.WriteSourcesTable(w, res.Sources)
		report.WriteToolsTable(w, res.Tools)
		return nil
	default:
		return checkFormat(format)
	}
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
