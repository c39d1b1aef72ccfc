// Package history validates and records the append-only mood, journal and
// insight time series for each user.
package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/sazalo101/mindis/internal/models"
)

const MaxLimit = 100

// Store is the persistence contract. Every read is scoped to userID in the
// query itself. The limited List reads order rows by created_at DESC, id DESC;
// ListMoodsInWindow is chronological.
type Store interface {
	InsertMood(ctx context.Context, userID int64, moodType string, intensity int, notes string) (int64, error)
	ListMoods(ctx context.Context, userID int64, limit int) ([]models.MoodEntry, error)
	ListMoodsInWindow(ctx context.Context, userID int64, windowDays int) ([]models.MoodEntry, error)
	MoodStatsSince(ctx context.Context, userID int64, windowDays int) ([]models.MoodStat, error)
	InsertJournalEntry(ctx context.Context, userID int64, content string, moodTags []string) (int64, error)
	ListJournalEntries(ctx context.Context, userID int64, limit int) ([]models.JournalEntry, error)
	InsertInsight(ctx context.Context, userID int64, text string, relatedEntries []int64) (int64, error)
	ListInsights(ctx context.Context, userID int64, limit int) ([]models.Insight, error)
}

type Repository struct {
	store Store
}

func NewRepository(store Store) *Repository {
	return &Repository{store: store}
}

func (r *Repository) AddMood(ctx context.Context, userID int64, moodType string, intensity int, notes string) (int64, error) {
	if err := checkUser(userID); err != nil {
		return 0, err
	}
	moodType = strings.TrimSpace(moodType)
	if moodType == "" {
		return 0, fmt.Errorf("%w: mood type is required", models.ErrInvalidArgument)
	}
	if intensity < models.MinIntensity || intensity > models.MaxIntensity {
		return 0, fmt.Errorf("%w: intensity %d outside %d-%d", models.ErrInvalidArgument, intensity, models.MinIntensity, models.MaxIntensity)
	}
	id, err := r.store.InsertMood(ctx, userID, moodType, intensity, strings.TrimSpace(notes))
	if err != nil {
		return 0, fmt.Errorf("insert mood: %w", err)
	}
	return id, nil
}

// RecentMoods returns at most limit entries, newest first.
func (r *Repository) RecentMoods(ctx context.Context, userID int64, limit int) ([]models.MoodEntry, error) {
	limit, err := checkRead(userID, limit)
	if err != nil {
		return nil, err
	}
	moods, err := r.store.ListMoods(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list moods: %w", err)
	}
	return moods, nil
}

// MoodsInWindow returns every entry of the last windowDays days in
// chronological order.
func (r *Repository) MoodsInWindow(ctx context.Context, userID int64, windowDays int) ([]models.MoodEntry, error) {
	if err := checkWindow(userID, windowDays); err != nil {
		return nil, err
	}
	moods, err := r.store.ListMoodsInWindow(ctx, userID, windowDays)
	if err != nil {
		return nil, fmt.Errorf("list moods in window: %w", err)
	}
	return moods, nil
}

// MoodStats groups the entries of the last windowDays days by label.
func (r *Repository) MoodStats(ctx context.Context, userID int64, windowDays int) ([]models.MoodStat, error) {
	if err := checkWindow(userID, windowDays); err != nil {
		return nil, err
	}
	stats, err := r.store.MoodStatsSince(ctx, userID, windowDays)
	if err != nil {
		return nil, fmt.Errorf("mood stats: %w", err)
	}
	return stats, nil
}

func (r *Repository) AddJournalEntry(ctx context.Context, userID int64, content string, moodTags []string) (int64, error) {
	if err := checkUser(userID); err != nil {
		return 0, err
	}
	if strings.TrimSpace(content) == "" {
		return 0, fmt.Errorf("%w: journal content is required", models.ErrInvalidArgument)
	}
	id, err := r.store.InsertJournalEntry(ctx, userID, content, cleanTags(moodTags))
	if err != nil {
		return 0, fmt.Errorf("insert journal entry: %w", err)
	}
	return id, nil
}

func (r *Repository) RecentJournalEntries(ctx context.Context, userID int64, limit int) ([]models.JournalEntry, error) {
	limit, err := checkRead(userID, limit)
	if err != nil {
		return nil, err
	}
	entries, err := r.store.ListJournalEntries(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	return entries, nil
}

func (r *Repository) AddInsight(ctx context.Context, userID int64, text string, relatedEntries []int64) (int64, error) {
	if err := checkUser(userID); err != nil {
		return 0, err
	}
	if strings.TrimSpace(text) == "" {
		return 0, fmt.Errorf("%w: insight text is required", models.ErrInvalidArgument)
	}
	if relatedEntries == nil {
		relatedEntries = []int64{}
	}
	id, err := r.store.InsertInsight(ctx, userID, text, relatedEntries)
	if err != nil {
		return 0, fmt.Errorf("insert insight: %w", err)
	}
	return id, nil
}

func (r *Repository) RecentInsights(ctx context.Context, userID int64, limit int) ([]models.Insight, error) {
	limit, err := checkRead(userID, limit)
	if err != nil {
		return nil, err
	}
	insights, err := r.store.ListInsights(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list insights: %w", err)
	}
	return insights, nil
}

func checkUser(userID int64) error {
	if userID < 1 {
		return fmt.Errorf("%w: user id must be positive", models.ErrInvalidArgument)
	}
	return nil
}

func checkWindow(userID int64, windowDays int) error {
	if err := checkUser(userID); err != nil {
		return err
	}
	if windowDays < 1 {
		return fmt.Errorf("%w: window must be at least one day", models.ErrInvalidArgument)
	}
	return nil
}

func checkRead(userID int64, limit int) (int, error) {
	if err := checkUser(userID); err != nil {
		return 0, err
	}
	if limit < 1 {
		return 0, fmt.Errorf("%w: limit must be at least 1", models.ErrInvalidArgument)
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return limit, nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
