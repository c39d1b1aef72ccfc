// Package completion talks to an OpenRouter-compatible chat-completions
// endpoint and collapses its failures into per-call-site fallback replies.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sazalo101/mindis/internal/config"
	"github.com/sazalo101/mindis/internal/models"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"

	maxResponseBytes = 4 << 20
)

var (
	ErrUnavailable = fmt.Errorf("%w: completion service unavailable", models.ErrDegraded)
	ErrEmpty       = fmt.Errorf("%w: completion was empty", models.ErrDegraded)
	ErrMalformed   = fmt.Errorf("%w: completion response malformed", models.ErrDegraded)
)

// Message is one turn of a conversation thread. ReasoningDetails is the
// provider's opaque reasoning artifact for an assistant turn.
type Message struct {
	Role             string          `json:"role"`
	Content          string          `json:"content"`
	ReasoningDetails json.RawMessage `json:"reasoning_details,omitempty"`
}

// Reply is a completion result. Continuation is absent whenever Degraded
// is set.
type Reply struct {
	Text         string
	Continuation json.RawMessage
	Degraded     bool
}

// Chatter performs one raw completion call.
type Chatter interface {
	Chat(ctx context.Context, messages []Message, continuation json.RawMessage) (Reply, error)
}

type OpenRouterClient struct {
	apiKey     string
	baseURL    string
	model      string
	appName    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewOpenRouterClient(cfg config.Config, logger *slog.Logger) *OpenRouterClient {
	timeout := cfg.AITimeout()
	if s := cfg.AISuggestionTimeout(); s > timeout {
		timeout = s
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenRouterClient{
		apiKey:  strings.TrimSpace(cfg.OpenRouterAPIKey),
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.OpenRouterBaseURL), "/"),
		model:   strings.TrimSpace(cfg.OpenRouterModel),
		appName: strings.TrimSpace(cfg.AppName),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []Message     `json:"messages"`
	Reasoning reasoningFlag `json:"reasoning"`
}

type reasoningFlag struct {
	Enabled bool `json:"enabled"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content          *string         `json:"content"`
			ReasoningDetails json.RawMessage `json:"reasoning_details"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *OpenRouterClient) Chat(ctx context.Context, messages []Message, continuation json.RawMessage) (Reply, error) {
	thread, err := prepareThread(messages, continuation)
	if err != nil {
		return Reply{}, err
	}
	if c.apiKey == "" {
		return Reply{}, fmt.Errorf("%w: OPENROUTER_API_KEY is not configured", ErrUnavailable)
	}
	if c.baseURL == "" || c.model == "" {
		return Reply{}, fmt.Errorf("%w: OPENROUTER_BASE_URL and OPENROUTER_MODEL are required", ErrUnavailable)
	}

	bodyRaw, err := json.Marshal(chatRequest{
		Model:     c.model,
		Messages:  thread,
		Reasoning: reasoningFlag{Enabled: true},
	})
	if err != nil {
		return Reply{}, fmt.Errorf("%w: encode request: %v", ErrMalformed, err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyRaw))
	if err != nil {
		return Reply{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	request.Header.Set("Authorization", "Bearer "+c.apiKey)
	request.Header.Set("Content-Type", "application/json")
	if c.appName != "" {
		request.Header.Set("X-Title", c.appName)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return Reply{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return Reply{}, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return Reply{}, fmt.Errorf("%w: status %d: %s", ErrUnavailable, response.StatusCode, truncateForLog(string(responseBody), 300))
	}

	var parsed chatResponse
	if err := json.Unmarshal(responseBody, &parsed); err != nil {
		c.logger.Debug("undecodable completion body", "body", truncateForLog(string(responseBody), 1200))
		return Reply{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if parsed.Error != nil {
		return Reply{}, fmt.Errorf("%w: provider error: %s", ErrUnavailable, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return Reply{}, fmt.Errorf("%w: no choices", ErrEmpty)
	}
	message := parsed.Choices[0].Message
	if message.Content == nil || strings.TrimSpace(*message.Content) == "" {
		return Reply{}, fmt.Errorf("%w: no content", ErrEmpty)
	}

	return Reply{
		Text:         strings.TrimSpace(*message.Content),
		Continuation: normalizeContinuation(message.ReasoningDetails),
	}, nil
}

// prepareThread validates roles and attaches continuation to the most recent
// assistant turn. The caller's slice is not modified.
func prepareThread(messages []Message, continuation json.RawMessage) ([]Message, error) {
	if err := ValidateThread(messages); err != nil {
		return nil, err
	}
	thread := make([]Message, len(messages))
	copy(thread, messages)

	lastAssistant := -1
	for i, m := range thread {
		if m.Role == RoleAssistant {
			lastAssistant = i
		}
	}

	continuation = normalizeContinuation(continuation)
	if continuation != nil && lastAssistant >= 0 {
		thread[lastAssistant].ReasoningDetails = continuation
	}
	return thread, nil
}

// ValidateThread rejects empty threads and unknown roles.
func ValidateThread(messages []Message) error {
	if len(messages) == 0 {
		return fmt.Errorf("%w: thread is empty", models.ErrInvalidArgument)
	}
	for _, m := range messages {
		switch m.Role {
		case RoleUser, RoleAssistant, RoleSystem:
		default:
			return fmt.Errorf("%w: unsupported role %q", models.ErrInvalidArgument, m.Role)
		}
	}
	return nil
}

func normalizeContinuation(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return raw
}

func truncateForLog(value string, limit int) string {
	trimmed := strings.TrimSpace(value)
	if limit <= 0 || len(trimmed) <= limit {
		return trimmed
	}
	return trimmed[:limit] + "...(truncated)"
}
