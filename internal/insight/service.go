// Package insight turns a user's recent history into supportive feedback.
package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sazalo101/mindis/internal/completion"
	"github.com/sazalo101/mindis/internal/models"
	"github.com/sazalo101/mindis/internal/prompt"
)

const (
	InsightMoodCount    = 10
	InsightJournalCount = 5
	MaxThreadMessages   = 40
)

type History interface {
	RecentMoods(ctx context.Context, userID int64, limit int) ([]models.MoodEntry, error)
	RecentJournalEntries(ctx context.Context, userID int64, limit int) ([]models.JournalEntry, error)
	AddInsight(ctx context.Context, userID int64, text string, relatedEntries []int64) (int64, error)
}

type Completer interface {
	Complete(ctx context.Context, site completion.Site, messages []completion.Message, continuation json.RawMessage) completion.Reply
}

type Service struct {
	history   History
	completer Completer
	logger    *slog.Logger
}

func NewService(history History, completer Completer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{history: history, completer: completer, logger: logger}
}

// Result is a generated insight. InsightID is zero when it could not be
// persisted.
type Result struct {
	InsightID      int64
	Text           string
	RelatedEntries []int64
	Degraded       bool
}

// GenerateMoodInsight summarises recent moods and journal entries, asks for
// an insight and records it. Only a bad user id is reported as an error.
func (s *Service) GenerateMoodInsight(ctx context.Context, userID int64) (Result, error) {
	if userID < 1 {
		return Result{}, fmt.Errorf("%w: user id must be positive", models.ErrInvalidArgument)
	}
	log := s.logger.With("user_id", userID, "site", completion.MoodInsightSite.Name)

	moods, err := s.history.RecentMoods(ctx, userID, InsightMoodCount)
	if err != nil {
		log.Error("load moods for insight", "error", err)
		return Result{Text: completion.MoodInsightSite.Fallback(err), Degraded: true}, nil
	}
	entries, err := s.history.RecentJournalEntries(ctx, userID, InsightJournalCount)
	if err != nil {
		log.Error("load journal entries for insight", "error", err)
		return Result{Text: completion.MoodInsightSite.Fallback(err), Degraded: true}, nil
	}

	rendered := prompt.MoodInsight(moods, entries)
	reply := s.completer.Complete(ctx, completion.MoodInsightSite, []completion.Message{
		{Role: completion.RoleUser, Content: rendered.Text},
	}, nil)

	result := Result{
		Text:           reply.Text,
		RelatedEntries: rendered.JournalIDs,
		Degraded:       reply.Degraded,
	}
	id, err := s.history.AddInsight(ctx, userID, reply.Text, rendered.JournalIDs)
	if err != nil {
		log.Error("persist insight", "error", err)
		return result, nil
	}
	result.InsightID = id
	log.Info("insight generated", "insight_id", id, "degraded", reply.Degraded, "related", len(rendered.JournalIDs))
	return result, nil
}

// JournalReply is one turn of a journal conversation. Thread is the prior
// thread extended with this turn's prompt and reply; pass it back together
// with Continuation to continue the conversation.
type JournalReply struct {
	Text         string
	Continuation json.RawMessage
	Thread       []completion.Message
	Degraded     bool
}

func (s *Service) AnalyzeJournalEntry(ctx context.Context, content string, priorThread []completion.Message, continuation json.RawMessage) (JournalReply, error) {
	if strings.TrimSpace(content) == "" {
		return JournalReply{}, fmt.Errorf("%w: journal content is required", models.ErrInvalidArgument)
	}
	if len(priorThread) > 0 {
		if err := completion.ValidateThread(priorThread); err != nil {
			return JournalReply{}, err
		}
	}
	if len(priorThread)+2 > MaxThreadMessages {
		return JournalReply{}, fmt.Errorf("%w: thread longer than %d messages", models.ErrInvalidArgument, MaxThreadMessages)
	}

	thread := make([]completion.Message, 0, len(priorThread)+2)
	thread = append(thread, priorThread...)
	thread = append(thread, completion.Message{Role: completion.RoleUser, Content: prompt.JournalReply(content)})

	reply := s.completer.Complete(ctx, completion.JournalReplySite, thread, continuation)

	thread = append(thread, completion.Message{
		Role:             completion.RoleAssistant,
		Content:          reply.Text,
		ReasoningDetails: reply.Continuation,
	})
	return JournalReply{
		Text:         reply.Text,
		Continuation: reply.Continuation,
		Thread:       thread,
		Degraded:     reply.Degraded,
	}, nil
}

// SuggestForMood asks for one short suggestion in a fresh thread. It always
// returns text.
func (s *Service) SuggestForMood(ctx context.Context, moodType string, intensity int) string {
	reply := s.completer.Complete(ctx, completion.MoodSuggestionSite, []completion.Message{
		{Role: completion.RoleUser, Content: prompt.MoodSuggestion(moodType, intensity)},
	}, nil)
	return reply.Text
}
