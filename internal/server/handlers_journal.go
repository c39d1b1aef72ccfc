package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *App) addJournalEntry(c *gin.Context) {
	user, ok := authUserFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	var req journalRequest
	if !mustJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	entryID, err := a.history.AddJournalEntry(ctx, user.ID, req.Content, req.MoodTags)
	if err != nil {
		writeServiceError(c, err, "Failed to add journal entry")
		return
	}
	reply, err := a.insights.AnalyzeJournalEntry(ctx, req.Content, nil, nil)
	if err != nil {
		writeServiceError(c, err, "Failed to add journal entry")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"entry_id":     entryID,
		"ai_response":  reply.Text,
		"continuation": reply.Continuation,
		"thread":       reply.Thread,
	})
}

// journalReply continues a journal conversation without persisting it. The
// client echoes back the thread and continuation of the previous turn.
func (a *App) journalReply(c *gin.Context) {
	if _, ok := authUserFromContext(c); !ok {
		writeError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	var req journalReplyRequest
	if !mustJSON(c, &req) {
		return
	}

	reply, err := a.insights.AnalyzeJournalEntry(c.Request.Context(), req.Content, req.Thread, req.Continuation)
	if err != nil {
		writeServiceError(c, err, "Failed to reply to journal entry")
		return
	}
	c.JSON(http.StatusOK, journalReplyResponse{
		Response:     reply.Text,
		Continuation: reply.Continuation,
		Thread:       reply.Thread,
		Degraded:     reply.Degraded,
	})
}

func (a *App) listJournalEntries(c *gin.Context) {
	user, ok := authUserFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	limit, ok := queryInt(c, "limit", defaultListLimit)
	if !ok {
		return
	}

	entries, err := a.history.RecentJournalEntries(c.Request.Context(), user.ID, limit)
	if err != nil {
		writeServiceError(c, err, "Failed to retrieve journal entries")
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": nonNil(entries)})
}
