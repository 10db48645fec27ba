package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/lingoquiz/internal/config"
	"github.com/abhisek/lingoquiz/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent attempts, answers and practice from the local journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		kinds, _ := cmd.Flags().GetStringSlice("kind")
		attemptID, _ := cmd.Flags().GetString("attempt")

		cfgPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		dbPath, err := resolveDBPath(cmd, cfg)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		s, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		opts := store.QueryOpts{Limit: limit, AttemptID: attemptID}
		for _, k := range kinds {
			opts.Kinds = append(opts.Kinds, store.EventKind(k))
		}

		ctx := commandContext(cmd)
		events, err := s.EventRepo().Query(ctx, opts)
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No events found.")
		} else {
			printEvents(out, events)
		}

		sum, err := s.EventRepo().PracticeSummary(ctx)
		if err != nil {
			return err
		}
		if sum.Count > 0 {
			fmt.Fprintf(out, "\nPronunciation practice: %d scored, average %.0f%%\n", sum.Count, sum.Average)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of events to show (0 for all)")
	historyCmd.Flags().StringSlice("kind", nil, "Only these kinds: attempt, answer, practice, llm_request")
	historyCmd.Flags().String("attempt", "", "Only events of this attempt")
}

func printEvents(w io.Writer, events []store.Event) {
	fmt.Fprintf(w, "%-5s  %-19s  %-11s  %-12s  %-7s  %-2s  %s\n",
		"Seq", "Timestamp", "Kind", "Attempt", "Score", "OK", "Detail")
	fmt.Fprintln(w, strings.Repeat("─", 100))

	for _, e := range events {
		ok := "✓"
		if !e.Success {
			ok = "✗"
		}
		score := "-"
		if e.Score != nil {
			score = fmt.Sprintf("%.4g", *e.Score)
		}
		fmt.Fprintf(w, "%-5d  %-19s  %-11s  %-12s  %-7s  %-2s  %s\n",
			e.Sequence,
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			e.Kind,
			truncate(e.AttemptID, 12),
			score,
			ok,
			truncate(eventDetail(e), 40),
		)
	}
}

// eventDetail summarizes an event's payload in a few words.
func eventDetail(e store.Event) string {
	switch e.Kind {
	case store.KindAttempt:
		var d store.AttemptEventData
		if json.Unmarshal(e.Payload, &d) != nil {
			return ""
		}
		detail := d.Action + " " + orDefault(d.QuizTitle, d.QuizID)
		if d.Percent != nil {
			detail += fmt.Sprintf(" (%.0f%%)", *d.Percent)
		}
		return detail
	case store.KindAnswer:
		var d store.AnswerEventData
		if json.Unmarshal(e.Payload, &d) != nil {
			return ""
		}
		detail := d.QuestionType + " " + d.QuestionID + " " + d.Status
		if d.Error != "" {
			detail += ": " + d.Error
		}
		return detail
	case store.KindPractice:
		var d store.PracticeEventData
		if json.Unmarshal(e.Payload, &d) != nil {
			return ""
		}
		return fmt.Sprintf("%.0f%% %q", d.Accuracy, d.Text)
	case store.KindLLMRequest:
		var d store.LLMRequestEventData
		if json.Unmarshal(e.Payload, &d) != nil {
			return ""
		}
		return fmt.Sprintf("%s %s %dms", d.Purpose, d.Model, d.LatencyMs)
	}
	return ""
}

func orDefault(s, def string) string {
	if s != "" {
		return s
	}
	return def
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
