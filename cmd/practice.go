package cmd

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/abhisek/lingoquiz/internal/app"
	"github.com/abhisek/lingoquiz/internal/audio"
	"github.com/abhisek/lingoquiz/internal/llm"
	"github.com/abhisek/lingoquiz/internal/pronunciation"
	"github.com/abhisek/lingoquiz/internal/screens/practice"
)

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Practise pronunciation with scored sentences",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		level, _ := cmd.Flags().GetString("level")
		if level == "" {
			level = d.cfg.Practice.Level
		}
		if !slices.Contains(practice.Levels, level) {
			return fmt.Errorf("unknown level %q (want easy, medium or hard)", level)
		}
		text, _ := cmd.Flags().GetString("text")
		if text != "" {
			if err := pronunciation.ValidateCustomText(text); err != nil {
				return err
			}
		}

		backend := pronunciation.NewAPIBackend(d.client, uuid.NewString)
		var source pronunciation.SampleSource = backend
		if d.cfg.Practice.SampleSource == "llm" {
			provider, err := llm.NewProvider(ctx, d.cfg.LLM, d.store.EventRepo(), d.logger)
			if err != nil {
				return fmt.Errorf("practice sentences: %w", err)
			}
			source = pronunciation.NewLLMSampleSource(provider, uuid.NewString)
		}

		recorder := pronunciation.NewRecorder(audio.NewCommandDevice(d.cfg.Audio.RecordCommand))
		s := pronunciation.NewSession(source, recorder, pronunciation.NewProcessor(backend, backend), d.journal, level)
		defer s.Close()

		d.logger.Info("practice started", "level", level, "source", d.cfg.Practice.SampleSource)
		return app.Run(practice.New(ctx, s, text))
	},
}

func init() {
	practiceCmd.Flags().String("level", "", "Sentence difficulty: easy, medium or hard (default from config)")
	practiceCmd.Flags().String("text", "", "Practise your own sentence of up to 20 words")
}
