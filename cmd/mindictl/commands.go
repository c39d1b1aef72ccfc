package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sazalo101/mindis/internal/config"
	"github.com/sazalo101/mindis/internal/models"
	"github.com/sazalo101/mindis/internal/store"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return config.Write(cmd.OutOrStdout(), cfg)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context(), models.SystemClock{}, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			version, err := store.SchemaVersion(cmd.Context(), e.store)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema version %d (%s)\n", version, e.cfg.DatabaseDriver)
			return nil
		},
	}
}

func newUserCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			email, _ := cmd.Flags().GetString("email")

			password, err := promptPassword(cmd)
			if err != nil {
				return err
			}

			e, err := newEnv(cmd.Context(), models.SystemClock{}, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			id, err := e.services.Users.CreateUser(cmd.Context(), username, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (id %d)\n", strings.TrimSpace(username), id)
			return nil
		},
	}
	cmd.Flags().StringP("username", "u", "", "Username")
	cmd.Flags().StringP("email", "e", "", "Email address")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// promptPassword reads without echo from a terminal, or one line from
// piped input.
func promptPassword(cmd *cobra.Command) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		raw, err := readPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(raw), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func lookupUser(cmd *cobra.Command, e *env) (models.User, error) {
	username, _ := cmd.Flags().GetString("user")
	user, err := e.store.UserByUsername(cmd.Context(), strings.TrimSpace(username))
	if errors.Is(err, models.ErrNotFound) {
		return models.User{}, fmt.Errorf("no user named %q", username)
	}
	return user, err
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show a user's mood statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			days, _ := cmd.Flags().GetInt("days")

			e, err := newEnv(cmd.Context(), models.SystemClock{}, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			user, err := lookupUser(cmd, e)
			if err != nil {
				return err
			}
			stats, err := e.services.History.MoodStats(cmd.Context(), user.ID, days)
			if err != nil {
				return err
			}
			if len(stats) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No moods in the last %d day(s).\n", days)
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MOOD\tCOUNT\tAVG INTENSITY")
			for _, s := range stats {
				fmt.Fprintf(w, "%s\t%d\t%.1f\n", s.MoodType, s.Count, s.AvgIntensity)
			}
			return w.Flush()
		},
	}
	cmd.Flags().String("user", "", "Username")
	cmd.Flags().IntP("days", "d", 7, "Window in days")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newInsightCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insight",
		Short: "Generate and store an insight for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context(), models.SystemClock{}, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			user, err := lookupUser(cmd, e)
			if err != nil {
				return err
			}
			result, err := e.services.Insights.GenerateMoodInsight(cmd.Context(), user.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Insight #%d", result.InsightID)
			if result.Degraded {
				fmt.Fprint(out, " (fallback)")
			}
			fmt.Fprintf(out, " related entries %v\n\n%s\n", result.RelatedEntries, result.Text)
			return nil
		},
	}
	cmd.Flags().String("user", "", "Username")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newSuggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest MOOD",
		Short: "Ask for a one-off suggestion for a mood",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			intensity, _ := cmd.Flags().GetInt("intensity")
			if intensity < models.MinIntensity || intensity > models.MaxIntensity {
				return fmt.Errorf("intensity must be between %d and %d", models.MinIntensity, models.MaxIntensity)
			}

			e, err := newEnv(cmd.Context(), models.SystemClock{}, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			fmt.Fprintln(cmd.OutOrStdout(), e.services.Insights.SuggestForMood(cmd.Context(), args[0], intensity))
			return nil
		},
	}
	cmd.Flags().IntP("intensity", "i", 5, "Intensity from 1 to 10")
	return cmd
}
