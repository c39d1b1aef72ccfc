// Package prompt renders user history into completion prompts. Everything
// here is pure and deterministic.
package prompt

import (
	"fmt"
	"strings"

	"github.com/sazalo101/mindis/internal/models"
)

const (
	MoodWindow    = 5
	JournalWindow = 3
	ExcerptLength = 200

	NoMoodData       = "No recent mood data"
	NoJournalEntries = "No recent journal entries"
)

// SummarizeMoods renders the first MoodWindow moods, newest first as given.
func SummarizeMoods(moods []models.MoodEntry) string {
	if len(moods) == 0 {
		return NoMoodData
	}
	parts := make([]string, 0, MoodWindow)
	for _, m := range moods[:min(MoodWindow, len(moods))] {
		parts = append(parts, fmt.Sprintf("%s (intensity: %d/10)", m.MoodType, m.Intensity))
	}
	return strings.Join(parts, ", ")
}

// SummarizeJournal renders the first JournalWindow entries as a bullet list.
func SummarizeJournal(entries []models.JournalEntry) string {
	if len(entries) == 0 {
		return NoJournalEntries
	}
	lines := make([]string, 0, JournalWindow)
	for _, e := range entries[:min(JournalWindow, len(entries))] {
		lines = append(lines, "- "+Excerpt(e.Content))
	}
	return strings.Join(lines, "\n")
}

// Excerpt cuts content to ExcerptLength characters, marking the cut with "...".
func Excerpt(content string) string {
	runes := []rune(content)
	if len(runes) <= ExcerptLength {
		return content
	}
	return string(runes[:ExcerptLength]) + "..."
}

// Insight is a rendered insight prompt and the journal entries it quotes.
type Insight struct {
	Text       string
	JournalIDs []int64
}

func MoodInsight(moods []models.MoodEntry, entries []models.JournalEntry) Insight {
	ids := make([]int64, 0, JournalWindow)
	for _, e := range entries[:min(JournalWindow, len(entries))] {
		ids = append(ids, e.ID)
	}

	text := fmt.Sprintf(`You are Mindi, an empathetic AI mental health companion. Analyze the user's recent emotional patterns and provide supportive, actionable insights.

Recent Moods: %s

Recent Journal Entries:
%s

Provide a warm, empathetic insight that:
1. Acknowledges their emotional patterns
2. Highlights any positive trends or strengths
3. Offers gentle, actionable suggestions for emotional well-being
4. Keeps the tone supportive and non-judgmental

Keep your response concise (2-3 paragraphs) and personal.`, SummarizeMoods(moods), SummarizeJournal(entries))

	return Insight{Text: text, JournalIDs: ids}
}

// JournalReply quotes the whole entry; it is never excerpted.
func JournalReply(content string) string {
	return fmt.Sprintf(`As Mindi, an empathetic mental health companion, respond to this journal entry with warmth and understanding:

"%s"

Provide a supportive response that validates their feelings and offers gentle encouragement. Keep it brief and personal (2-3 sentences).`, content)
}

func MoodSuggestion(moodType string, intensity int) string {
	return fmt.Sprintf(`The user is feeling %s with an intensity of %d/10.

As Mindi, provide ONE brief, actionable suggestion (1-2 sentences) to support their emotional well-being right now. Be warm and encouraging.`, moodType, intensity)
}
