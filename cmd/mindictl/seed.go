package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sazalo101/mindis/internal/models"
)

type seedMood struct {
	MoodType  string
	Intensity int
	Notes     string
}

var seedMoodCycle = []seedMood{
	{"calm", 6, "slow morning with coffee"},
	{"anxious", 7, "presentation coming up"},
	{"happy", 8, "dinner with friends"},
	{"tired", 4, "slept badly"},
	{"grateful", 7, ""},
	{"sad", 3, "missing home"},
	{"motivated", 8, "finished a long task"},
}

var seedJournalCycle = []string{
	"Work felt heavy today but I managed to finish the report before the deadline.",
	"Went for a long walk after lunch. It helped me clear my head more than I expected.",
	"Had an argument with my sister. I wish I had stayed calmer, I want to apologise tomorrow.",
	"Tried the breathing exercise before bed and fell asleep faster than usual.",
}

// seedDay is the history written for one day of the backfill.
type seedDay struct {
	Offset  int
	Moods   []seedMood
	Journal string
}

// seedPlan lays out days of history ending today: two moods a day and a
// journal entry every other day, cycling through fixed samples.
func seedPlan(days int) []seedDay {
	plan := make([]seedDay, 0, days)
	for d := 0; d < days; d++ {
		day := seedDay{
			Offset: days - 1 - d,
			Moods: []seedMood{
				seedMoodCycle[(2*d)%len(seedMoodCycle)],
				seedMoodCycle[(2*d+1)%len(seedMoodCycle)],
			},
		}
		if d%2 == 0 {
			day.Journal = seedJournalCycle[(d/2)%len(seedJournalCycle)]
		}
		plan = append(plan, day)
	}
	return plan
}

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Backfill demo history for a user, creating the user if needed",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("user")
			password, _ := cmd.Flags().GetString("password")
			days, _ := cmd.Flags().GetInt("days")
			if days < 1 {
				return errors.New("days must be at least 1")
			}

			// each day's moods land 12h and 6h before the same time of day
			// today, so the newest is never in the future
			anchor := models.Stamp(time.Now()).Add(-12 * time.Hour)
			clock := models.NewManualClock(anchor.AddDate(0, 0, -(days - 1)))

			e, err := newEnv(cmd.Context(), clock, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			ctx := cmd.Context()
			user, err := e.store.UserByUsername(ctx, username)
			switch {
			case errors.Is(err, models.ErrNotFound):
				id, err := e.services.Users.CreateUser(ctx, username, username+"@example.com", password)
				if err != nil {
					return fmt.Errorf("create user: %w", err)
				}
				user.ID = id
				fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (id %d)\n", username, id)
			case err != nil:
				return err
			}

			moods, entries := 0, 0
			for _, day := range seedPlan(days) {
				clock.Set(anchor.AddDate(0, 0, -day.Offset))
				for _, m := range day.Moods {
					if _, err := e.services.History.AddMood(ctx, user.ID, m.MoodType, m.Intensity, m.Notes); err != nil {
						return err
					}
					moods++
					clock.Advance(6 * time.Hour)
				}
				if day.Journal != "" {
					if _, err := e.services.History.AddJournalEntry(ctx, user.ID, day.Journal, []string{day.Moods[1].MoodType}); err != nil {
						return err
					}
					entries++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d moods and %d journal entries over %d days for %s\n", moods, entries, days, username)
			return nil
		},
	}
	cmd.Flags().String("user", "demo", "Username to seed")
	cmd.Flags().String("password", "mindi-demo", "Password used when the user is created")
	cmd.Flags().IntP("days", "d", 14, "Days of history ending today")
	return cmd
}
