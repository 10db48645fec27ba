package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/lingoquiz/internal/config"
	"github.com/abhisek/lingoquiz/internal/logging"
	"github.com/abhisek/lingoquiz/internal/sandbox"
)

var sandboxCmd = &cobra.Command{
	Use:   "sandbox",
	Short: "Serve a local fake of the learning platform for demos and testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		logger, lc, err := logging.New(logging.Options{Path: cfg.Log.Path, Level: cfg.Log.Level, Debug: cfg.Log.Debug})
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		defer lc.Close()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.Sandbox.Addr
		}

		srv, err := sandbox.New(sandbox.Options{
			JWTSecret: cfg.Sandbox.JWTSecret,
			Logger:    logger.With("component", "sandbox"),
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Sandbox platform on http://%s%s\n", addr, sandbox.DefaultBasePath)
		fmt.Fprintf(out, "  sign in:   lingoquiz login --email %s   (password: %s)\n", sandbox.DemoAccount.Email, sandbox.DemoAccount.Password)
		fmt.Fprintf(out, "  take quiz: lingoquiz take %s\n", sandbox.DemoQuizID)
		fmt.Fprintln(out, "Press Ctrl+C to stop.")

		if err := srv.ListenAndServe(ctx, addr); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

func init() {
	sandboxCmd.Flags().String("addr", "", "Listen address (default from config, 127.0.0.1:8787)")
}
