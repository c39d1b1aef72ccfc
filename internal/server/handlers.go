package server

import (
	"encoding/json"

	"github.com/sazalo101/mindis/internal/completion"
	"github.com/sazalo101/mindis/internal/models"
)

const (
	defaultIntensity     = 5
	defaultListLimit     = 10
	defaultInsightLimit  = 5
	defaultStatsDays     = 7
	defaultExportDays    = 30
	dashboardMoodLimit   = 20
	dashboardJournalSize = 5
	dashboardInsightSize = 3
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userView struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type moodRequest struct {
	MoodType  string `json:"mood_type"`
	Intensity *int   `json:"intensity"`
	Notes     string `json:"notes"`
}

type journalRequest struct {
	Content  string   `json:"content"`
	MoodTags []string `json:"mood_tags"`
}

type journalReplyRequest struct {
	Content      string               `json:"content"`
	Thread       []completion.Message `json:"thread"`
	Continuation json.RawMessage      `json:"continuation"`
}

type journalReplyResponse struct {
	Response     string               `json:"response"`
	Continuation json.RawMessage      `json:"continuation"`
	Thread       []completion.Message `json:"thread"`
	Degraded     bool                 `json:"degraded"`
}

type dashboardResponse struct {
	Moods          []models.MoodEntry    `json:"moods"`
	JournalEntries []models.JournalEntry `json:"journal_entries"`
	Insights       []models.Insight      `json:"insights"`
	Stats          []models.MoodStat     `json:"stats"`
}

func toUserView(user models.User) userView {
	return userView{ID: user.ID, Username: user.Username, Email: user.Email}
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
