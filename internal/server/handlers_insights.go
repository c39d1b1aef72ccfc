package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *App) generateInsight(c *gin.Context) {
	user, ok := authUserFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	result, err := a.insights.GenerateMoodInsight(c.Request.Context(), user.ID)
	if err != nil {
		writeServiceError(c, err, "Failed to generate insights")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"insight_id":      result.InsightID,
		"insight":         result.Text,
		"related_entries": nonNil(result.RelatedEntries),
		"degraded":        result.Degraded,
	})
}

func (a *App) listInsights(c *gin.Context) {
	user, ok := authUserFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	limit, ok := queryInt(c, "limit", defaultInsightLimit)
	if !ok {
		return
	}

	insights, err := a.history.RecentInsights(c.Request.Context(), user.ID, limit)
	if err != nil {
		writeServiceError(c, err, "Failed to retrieve insights")
		return
	}
	c.JSON(http.StatusOK, gin.H{"insights": nonNil(insights)})
}

func (a *App) dashboard(c *gin.Context) {
	user, ok := authUserFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	ctx := c.Request.Context()
	const failed = "Failed to retrieve dashboard data"

	moods, err := a.history.RecentMoods(ctx, user.ID, dashboardMoodLimit)
	if err != nil {
		writeServiceError(c, err, failed)
		return
	}
	entries, err := a.history.RecentJournalEntries(ctx, user.ID, dashboardJournalSize)
	if err != nil {
		writeServiceError(c, err, failed)
		return
	}
	insights, err := a.history.RecentInsights(ctx, user.ID, dashboardInsightSize)
	if err != nil {
		writeServiceError(c, err, failed)
		return
	}
	stats, err := a.history.MoodStats(ctx, user.ID, defaultStatsDays)
	if err != nil {
		writeServiceError(c, err, failed)
		return
	}

	c.JSON(http.StatusOK, dashboardResponse{
		Moods:          nonNil(moods),
		JournalEntries: nonNil(entries),
		Insights:       nonNil(insights),
		Stats:          nonNil(stats),
	})
}
