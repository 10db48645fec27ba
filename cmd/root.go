package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lingoquiz",
	Short: "English quizzes and pronunciation practice in the terminal",
	Long: "LingoQuiz: take English-learning quizzes from a learning platform,\n" +
		"record pronunciation answers, and practise speaking between lessons.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default $XDG_CONFIG_HOME/lingoquiz/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides LINGOQUIZ_DB env var)")

	rootCmd.AddCommand(takeCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(practiceCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(sandboxCmd)
	rootCmd.AddCommand(versionCmd)
}
