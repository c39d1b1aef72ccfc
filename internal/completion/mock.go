package completion

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// MockClient answers offline with canned replies chosen from the prompt.
// Each reply carries a continuation numbering the turn.
type MockClient struct{}

func (MockClient) Chat(_ context.Context, messages []Message, continuation json.RawMessage) (Reply, error) {
	thread, err := prepareThread(messages, continuation)
	if err != nil {
		return Reply{}, err
	}
	last := thread[len(thread)-1]
	lowered := strings.ToLower(last.Content)

	answer := "Mock response: thank you for checking in."
	switch {
	case strings.Contains(lowered, "recent moods:"):
		answer = strings.Join([]string{
			"Mock insight: your recent entries show you are paying close attention to how you feel.",
			"Keep a short evening note about what lifted your mood, and be gentle with yourself on harder days.",
		}, "\n\n")
	case strings.Contains(lowered, "journal entry"):
		answer = "Mock reply: that sounds like a lot to carry. It makes sense to feel this way, and writing it down is a good step."
	case strings.Contains(lowered, "with an intensity of"):
		answer = "Mock suggestion: take three slow breaths and step outside for five minutes."
	}

	turn := 0
	for _, m := range thread {
		if m.Role == RoleAssistant {
			turn++
		}
	}
	details, err := json.Marshal([]map[string]any{{
		"type": "reasoning.text",
		"text": fmt.Sprintf("mock reasoning for turn %d", turn+1),
	}})
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: answer, Continuation: details}, nil
}
