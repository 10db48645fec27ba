package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/lingoquiz/internal/auth"
)

var errPromptCancelled = errors.New("login cancelled")

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the learning platform",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		fromStdin, _ := cmd.Flags().GetBool("password-stdin")

		var err error
		if email == "" {
			if email, err = prompt("Email", false); err != nil {
				return err
			}
		}
		var password string
		if fromStdin {
			password, err = readPassword(cmd.InOrStdin())
		} else {
			password, err = prompt("Password", true)
		}
		if err != nil {
			return err
		}

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		u, err := d.auth.Login(commandContext(cmd), email, password)
		if err != nil {
			d.logger.Warn("login failed", "email", email, "error", err)
			return friendly(err)
		}
		d.logger.Info("signed in", "user_id", u.ID)
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s).\n", displayName(u.Name, u.Email), u.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored sign-in",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		if err := d.auth.Logout(commandContext(cmd)); err != nil {
			return fmt.Errorf("logout: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in learner",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		u, err := d.auth.Whoami(commandContext(cmd))
		if errors.Is(err, auth.ErrNotSignedIn) {
			fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
			return nil
		}
		if err != nil {
			return friendly(err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Name:   %s\n", displayName(u.Name, u.Email))
		fmt.Fprintf(out, "Email:  %s\n", u.Email)
		if u.Level != "" {
			fmt.Fprintf(out, "Level:  %s\n", u.Level)
		}
		fmt.Fprintf(out, "ID:     %s\n", u.ID)
		return nil
	},
}

func init() {
	loginCmd.Flags().String("email", "", "Account email")
	loginCmd.Flags().Bool("password-stdin", false, "Read the password from standard input")
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func displayName(name, email string) string {
	if name != "" {
		return name
	}
	return email
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptModel asks for a single line inline, without the full-screen frame.
type promptModel struct {
	label     string
	input     textinput.Model
	done      bool
	cancelled bool
}

func (m promptModel) Init() tea.Cmd {
	return nil
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			m.done = true
			return m, tea.Quit
		case "esc", "ctrl+c":
			m.cancelled = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) View() tea.View {
	if m.done || m.cancelled {
		return tea.NewView("")
	}
	return tea.NewView(m.label + ": " + m.input.View() + "\n")
}

func prompt(label string, secret bool) (string, error) {
	ti := textinput.New()
	ti.Prompt = ""
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	ti.Focus()
	final, err := tea.NewProgram(promptModel{label: label, input: ti}).Run()
	if err != nil {
		return "", err
	}
	m := final.(promptModel)
	if m.cancelled {
		return "", errPromptCancelled
	}
	if secret {
		return m.input.Value(), nil
	}
	return strings.TrimSpace(m.input.Value()), nil
}
