package models

import "time"

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// MoodEntry is a single self-reported mood observation.
type MoodEntry struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	MoodType  string    `json:"mood_type"`
	Intensity int       `json:"intensity"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

type JournalEntry struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Content   string    `json:"content"`
	MoodTags  []string  `json:"mood_tags"`
	CreatedAt time.Time `json:"created_at"`
}

// Insight is a persisted completion result. RelatedEntries holds the ids of
// the journal entries that were rendered into its prompt, in prompt order.
type Insight struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	Text           string    `json:"insight_text"`
	RelatedEntries []int64   `json:"related_entries"`
	CreatedAt      time.Time `json:"created_at"`
}

type MoodStat struct {
	MoodType     string  `json:"mood_type"`
	Count        int     `json:"count"`
	AvgIntensity float64 `json:"avg_intensity"`
}

const (
	MinIntensity = 1
	MaxIntensity = 10
)
