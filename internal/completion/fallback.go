package completion

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/sazalo101/mindis/internal/config"
)

// Site names a place that asks for completions, with its own deadline and
// fallback texts.
type Site struct {
	Name        string
	Timeout     time.Duration
	Unavailable string
	Empty       string
	Malformed   string
}

var (
	MoodInsightSite = Site{
		Name:        "mood_insight",
		Timeout:     30 * time.Second,
		Unavailable: "I'm having trouble connecting right now, but I'm here for you. Your feelings are valid, and taking time to reflect is a powerful step toward well-being.",
		Empty:       "I'm here to support you on your journey. Keep tracking your moods and journaling - every entry helps build a clearer picture of your emotional well-being.",
		Malformed:   "Thank you for sharing your thoughts. Remember, emotional well-being is a journey, and you're doing great by staying mindful of your feelings.",
	}
	JournalReplySite = Site{
		Name:        "journal_reply",
		Timeout:     30 * time.Second,
		Unavailable: "I appreciate you opening up. Remember, you're not alone in this journey.",
		Empty:       "Thank you for sharing. Your feelings matter, and I'm here to support you.",
		Malformed:   "I appreciate you opening up. Remember, you're not alone in this journey.",
	}
	MoodSuggestionSite = Site{
		Name:        "mood_suggestion",
		Timeout:     20 * time.Second,
		Unavailable: "Remember to be kind to yourself today. Small steps count.",
		Empty:       "Take a moment to breathe deeply. You're doing great by checking in with yourself.",
		Malformed:   "Remember to be kind to yourself today. Small steps count.",
	}
)

// SiteTimeouts maps each site to its configured deadline.
func SiteTimeouts(cfg config.Config) map[string]time.Duration {
	return map[string]time.Duration{
		MoodInsightSite.Name:    cfg.AITimeout(),
		JournalReplySite.Name:   cfg.AITimeout(),
		MoodSuggestionSite.Name: cfg.AISuggestionTimeout(),
	}
}

// Fallback picks the site text matching the kind of failure in err.
func (s Site) Fallback(err error) string {
	switch {
	case errors.Is(err, ErrEmpty):
		return s.Empty
	case errors.Is(err, ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return s.Unavailable
	default:
		return s.Malformed
	}
}

// Completer runs a Chatter under per-site deadlines and never fails: any
// error becomes the site's fallback text.
type Completer struct {
	chatter  Chatter
	timeouts map[string]time.Duration
	logger   *slog.Logger
}

// NewCompleter wraps chatter. timeouts overrides Site.Timeout by site name.
func NewCompleter(chatter Chatter, timeouts map[string]time.Duration, logger *slog.Logger) *Completer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Completer{chatter: chatter, timeouts: timeouts, logger: logger}
}

func (c *Completer) Complete(ctx context.Context, site Site, messages []Message, continuation json.RawMessage) Reply {
	callCtx, cancel := context.WithTimeout(ctx, c.timeoutFor(site))
	defer cancel()

	started := time.Now()
	reply, err := c.chatter.Chat(callCtx, messages, continuation)
	elapsed := time.Since(started)
	if err != nil {
		c.logger.Warn("completion degraded",
			"site", site.Name,
			"error", err,
			"elapsed_ms", elapsed.Milliseconds(),
		)
		return Reply{Text: site.Fallback(err), Degraded: true}
	}

	c.logger.Debug("completion ok",
		"site", site.Name,
		"elapsed_ms", elapsed.Milliseconds(),
		"continuation", reply.Continuation != nil,
	)
	return reply
}

func (c *Completer) timeoutFor(site Site) time.Duration {
	if d, ok := c.timeouts[site.Name]; ok && d > 0 {
		return d
	}
	if site.Timeout > 0 {
		return site.Timeout
	}
	return 30 * time.Second
}
