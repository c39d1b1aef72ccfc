package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sazalo101/mindis/internal/models"
)

func moods(labels ...string) []models.MoodEntry {
	out := make([]models.MoodEntry, 0, len(labels))
	for i, label := range labels {
		out = append(out, models.MoodEntry{ID: int64(len(labels) - i), MoodType: label, Intensity: i + 1})
	}
	return out
}

func TestSummarizeMoodsTakesFirstFive(t *testing.T) {
	got := SummarizeMoods(moods("happy", "sad", "calm", "anxious", "tired", "angry", "excited"))

	assert.Equal(t,
		"happy (intensity: 1/10), sad (intensity: 2/10), calm (intensity: 3/10), anxious (intensity: 4/10), tired (intensity: 5/10)",
		got)
	assert.NotContains(t, got, "angry")
	assert.NotContains(t, got, "excited")
}

func TestSummarizeMoodsFewerThanWindow(t *testing.T) {
	assert.Equal(t, "calm (intensity: 1/10)", SummarizeMoods(moods("calm")))
}

func TestSummariesUsePlaceholdersWhenEmpty(t *testing.T) {
	assert.Equal(t, "No recent mood data", SummarizeMoods(nil))
	assert.Equal(t, "No recent journal entries", SummarizeJournal(nil))

	rendered := MoodInsight(nil, nil)
	assert.Contains(t, rendered.Text, "Recent Moods: No recent mood data")
	assert.Contains(t, rendered.Text, "Recent Journal Entries:\nNo recent journal entries")
	assert.Empty(t, rendered.JournalIDs)
}

func TestSummarizeJournalTruncatesLongEntries(t *testing.T) {
	long := strings.Repeat("a", 250)
	exact := strings.Repeat("b", 200)

	got := SummarizeJournal([]models.JournalEntry{
		{ID: 3, Content: long},
		{ID: 2, Content: exact},
		{ID: 1, Content: "short"},
		{ID: 0, Content: "dropped"},
	})

	lines := strings.Split(got, "\n")
	assert.Len(t, lines, 3)
	assert.Equal(t, "- "+strings.Repeat("a", 200)+"...", lines[0])
	assert.Equal(t, "- "+exact, lines[1])
	assert.Equal(t, "- short", lines[2])
}

func TestExcerptCountsCharactersNotBytes(t *testing.T) {
	content := strings.Repeat("é", 201)
	got := Excerpt(content)
	assert.Equal(t, strings.Repeat("é", 200)+"...", got)
}

func TestMoodInsightReportsRenderedJournalIDs(t *testing.T) {
	entries := []models.JournalEntry{{ID: 9, Content: "x"}, {ID: 7, Content: "y"}, {ID: 4, Content: "z"}, {ID: 1, Content: "w"}}

	rendered := MoodInsight(moods("happy"), entries)

	assert.Equal(t, []int64{9, 7, 4}, rendered.JournalIDs)
	assert.True(t, strings.HasPrefix(rendered.Text, "You are Mindi, an empathetic AI mental health companion."))
	assert.Contains(t, rendered.Text, "Recent Moods: happy (intensity: 1/10)")
	assert.Contains(t, rendered.Text, "1. Acknowledges their emotional patterns")
	assert.Contains(t, rendered.Text, "4. Keeps the tone supportive and non-judgmental")
	assert.True(t, strings.HasSuffix(rendered.Text, "Keep your response concise (2-3 paragraphs) and personal."))
}

func TestMoodInsightIsDeterministic(t *testing.T) {
	m := moods("happy", "sad")
	e := []models.JournalEntry{{ID: 1, Content: "Today was fine."}}
	assert.Equal(t, MoodInsight(m, e), MoodInsight(m, e))
}

func TestJournalReplyQuotesWholeEntry(t *testing.T) {
	content := strings.Repeat("long thought ", 40)
	got := JournalReply(content)

	assert.Contains(t, got, `"`+content+`"`)
	assert.Contains(t, got, "Keep it brief and personal (2-3 sentences).")
}

func TestMoodSuggestion(t *testing.T) {
	got := MoodSuggestion("anxious", 7)

	assert.True(t, strings.HasPrefix(got, "The user is feeling anxious with an intensity of 7/10."))
	assert.Contains(t, got, "provide ONE brief, actionable suggestion (1-2 sentences)")
}
