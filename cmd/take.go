package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/abhisek/lingoquiz/internal/api"
	"github.com/abhisek/lingoquiz/internal/app"
	"github.com/abhisek/lingoquiz/internal/attempt"
	"github.com/abhisek/lingoquiz/internal/audio"
	"github.com/abhisek/lingoquiz/internal/journal"
	"github.com/abhisek/lingoquiz/internal/pronunciation"
	"github.com/abhisek/lingoquiz/internal/quiz"
	attemptscreen "github.com/abhisek/lingoquiz/internal/screens/attempt"
	"github.com/abhisek/lingoquiz/internal/screens/notice"
)

var takeCmd = &cobra.Command{
	Use:   "take <quiz-id>",
	Short: "Start a new attempt of a quiz",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAttempt(cmd, args[0], "")
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume <attempt-id>",
	Short: "Continue an attempt you left open",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAttempt(cmd, "", args[0])
	},
}

// runAttempt opens quizID with a fresh attempt, or the quiz of attemptID
// when resuming.
func runAttempt(cmd *cobra.Command, quizID, attemptID string) error {
	d, err := openDeps(cmd)
	if err != nil {
		return err
	}
	defer d.Close()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		a      *quiz.Attempt
		action = journal.ActionStarted
	)
	if attemptID != "" {
		action = journal.ActionResumed
		a, err = d.client.Attempt(ctx, attemptID)
		if api.IsNotFound(err) {
			return app.Run(notice.NotFound("attempt", attemptID))
		}
		if err != nil {
			return friendly(err)
		}
		if a.Completed() {
			return app.Run(notice.New("Attempt", "Already submitted",
				fmt.Sprintf("Attempt %s was submitted on %s.", a.ID, a.CompletedAt.Local().Format("Jan 2 15:04"))))
		}
		quizID = a.QuizID
	}

	q, err := d.client.Quiz(ctx, quizID)
	if api.IsNotFound(err) {
		return app.Run(notice.NotFound("quiz", quizID))
	}
	if err != nil {
		return friendly(err)
	}

	if a == nil {
		a, err = d.client.StartAttempt(ctx, q.ID)
		if err != nil {
			d.journal.RecordAttempt(ctx, *q, "", action, nil, err)
			return friendly(err)
		}
	}
	d.journal.RecordAttempt(ctx, *q, a.ID, action, nil, nil)

	var recorder *pronunciation.Recorder
	if q.HasType(quiz.Pronunciation) {
		recorder = pronunciation.NewRecorder(audio.NewCommandDevice(d.cfg.Audio.RecordCommand))
		defer recorder.Close()
	}

	s, err := attempt.New(*q, *a, attempt.Deps{
		Backend:  d.client,
		Recorder: recorder,
		Journal:  d.journal,
		Events:   d.journal,
		Logger:   d.logger,
	})
	if err != nil {
		return err
	}

	d.logger.Info("attempt opened", "quiz_id", q.ID, "attempt_id", a.ID, "action", action)
	return app.Run(attemptscreen.New(ctx, s, attemptscreen.Deps{
		Uploader: pronunciation.NewAPIBackend(d.client, uuid.NewString),
		Player:   audio.NewCommandPlayer(d.cfg.Audio.PlayCommand),
		Fetcher:  d.client,
		Logger:   d.logger,
	}))
}
