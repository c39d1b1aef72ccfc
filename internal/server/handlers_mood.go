package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *App) addMood(c *gin.Context) {
	user, ok := authUserFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	var req moodRequest
	if !mustJSON(c, &req) {
		return
	}
	intensity := defaultIntensity
	if req.Intensity != nil {
		intensity = *req.Intensity
	}

	ctx := c.Request.Context()
	moodID, err := a.history.AddMood(ctx, user.ID, req.MoodType, intensity, req.Notes)
	if err != nil {
		writeServiceError(c, err, "Failed to add mood")
		return
	}
	suggestion := a.insights.SuggestForMood(ctx, req.MoodType, intensity)

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"mood_id":    moodID,
		"suggestion": suggestion,
	})
}

func (a *App) listMoods(c *gin.Context) {
	user, ok := authUserFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	limit, ok := queryInt(c, "limit", defaultListLimit)
	if !ok {
		return
	}

	moods, err := a.history.RecentMoods(c.Request.Context(), user.ID, limit)
	if err != nil {
		writeServiceError(c, err, "Failed to retrieve moods")
		return
	}
	c.JSON(http.StatusOK, gin.H{"moods": nonNil(moods)})
}

func (a *App) moodStats(c *gin.Context) {
	user, ok := authUserFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	days, ok := queryInt(c, "days", defaultStatsDays)
	if !ok {
		return
	}

	stats, err := a.history.MoodStats(c.Request.Context(), user.ID, days)
	if err != nil {
		writeServiceError(c, err, "Failed to retrieve mood statistics")
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": nonNil(stats)})
}
