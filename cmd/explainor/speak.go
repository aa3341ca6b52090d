// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var speakCmd = &cobra.Command{
	Use:   "speak [text...]",
	Short: "Render text to speech in a persona's voice",
	Long: `Speak renders text to an MP3 file using the persona's ElevenLabs voice.
The text comes from the arguments, or from stdin when none are given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		personaName, _ := cmd.Flags().GetString("persona")

		text := strings.Join(args, " ")
		if len(args) == 0 {
			b, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			text = string(b)
		}
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("nothing to speak: pass text or pipe it on stdin")
		}

		a, err := newApp(viper.GetViper(), loadedSecrets)
		if err != nil {
			return err
		}
		defer func() { _ = a.log.Sync() }()

		p := a.personas.Get(personaName)
		audio, err := a.speaker.Render(cmd.Context(), text, p.VoiceID, p.VoiceSettings)
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, audio, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d bytes in the voice of %s\n", out, len(audio), p.Label())
		return nil
	},
}

func init() {
	speakCmd.Flags().StringP("persona", "p", "", "persona whose voice to use")
	speakCmd.Flags().StringP("out", "o", "explanation.mp3", "output MP3 file")
	rootCmd.AddCommand(speakCmd)
}
