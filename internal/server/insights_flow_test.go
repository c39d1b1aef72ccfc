package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sazalo101/mindis/internal/completion"
	"github.com/sazalo101/mindis/internal/logging"
	"github.com/sazalo101/mindis/internal/models"
)

type insightResponse struct {
	Success        bool    `json:"success"`
	InsightID      int64   `json:"insight_id"`
	Insight        string  `json:"insight"`
	RelatedEntries []int64 `json:"related_entries"`
	Degraded       bool    `json:"degraded"`
}

func TestEndToEndInsightFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	registerUser(t, env, "alice")

	rec := performRequest(t, env.router, http.MethodPost, env.api("/login"), "", map[string]any{
		"username": "alice", "password": "secret-pass",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token, _ := decodeJSONMap(t, rec)["token"].(string)
	require.NotEmpty(t, token)

	rec = performRequest(t, env.router, http.MethodPost, env.api("/mood"), token, map[string]any{"mood_type": "anxious", "intensity": 7}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	suggestion, _ := decodeJSONMap(t, rec)["suggestion"].(string)
	assert.NotEmpty(t, suggestion)

	env.clock.Advance(time.Minute)
	rec = performRequest(t, env.router, http.MethodPost, env.api("/journal"), token, map[string]any{"content": "Work has been overwhelming this week."}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var journal struct {
		EntryID int64 `json:"entry_id"`
	}
	decodeJSON(t, rec, &journal)

	env.clock.Advance(time.Minute)
	rec = performRequest(t, env.router, http.MethodPost, env.api("/insights"), token, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var generated insightResponse
	decodeJSON(t, rec, &generated)
	assert.True(t, generated.Success)
	assert.False(t, generated.Degraded)
	assert.Positive(t, generated.InsightID)
	assert.True(t, strings.HasPrefix(generated.Insight, "Mock insight"), generated.Insight)
	assert.Equal(t, []int64{journal.EntryID}, generated.RelatedEntries)

	rec = performRequest(t, env.router, http.MethodGet, env.api("/insights?limit=1"), token, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Insights []models.Insight `json:"insights"`
	}
	decodeJSON(t, rec, &listed)
	require.Len(t, listed.Insights, 1)
	assert.Equal(t, generated.InsightID, listed.Insights[0].ID)
	assert.Equal(t, generated.Insight, listed.Insights[0].Text)
	assert.Equal(t, []int64{journal.EntryID}, listed.Insights[0].RelatedEntries)

	rec = performRequest(t, env.router, http.MethodGet, env.api("/dashboard"), token, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var dash dashboardResponse
	decodeJSON(t, rec, &dash)
	assert.Len(t, dash.Moods, 1)
	assert.Len(t, dash.JournalEntries, 1)
	assert.Len(t, dash.Insights, 1)
	assert.Equal(t, []models.MoodStat{{MoodType: "anxious", Count: 1, AvgIntensity: 7}}, dash.Stats)
}

func TestInsightFallsBackWhenUpstreamFails(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	cfg := newTestConfig()
	cfg.AIMock = false
	cfg.OpenRouterAPIKey = "test-key"
	cfg.OpenRouterBaseURL = upstream.URL
	env := newTestEnvWithConfig(t, cfg, completion.NewOpenRouterClient(cfg, logging.Discard()))
	_, token := registerUser(t, env, "alice")

	rec := performRequest(t, env.router, http.MethodPost, env.api("/insights"), token, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var generated insightResponse
	decodeJSON(t, rec, &generated)
	assert.True(t, generated.Degraded)
	assert.Equal(t, completion.MoodInsightSite.Unavailable, generated.Insight)
	assert.Equal(t, []int64{}, generated.RelatedEntries)

	rec = performRequest(t, env.router, http.MethodPost, env.api("/journal/reply"), token, map[string]any{"content": "hello"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	reply := decodeJSONMap(t, rec)
	assert.Equal(t, true, reply["degraded"])
	assert.Equal(t, completion.JournalReplySite.Unavailable, reply["response"])
	assert.Nil(t, reply["continuation"])
}
