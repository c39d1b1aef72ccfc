package server

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sazalo101/mindis/internal/models"
)

var moodCSVHeader = []string{
	"mood_id",
	"mood_type",
	"intensity",
	"notes",
	"created_at_utc",
}

func sanitizeCSVFilename(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "user"
	}
	var b strings.Builder
	for _, r := range trimmed {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	sanitized := strings.Trim(b.String(), "_")
	if sanitized == "" {
		return "user"
	}
	return sanitized
}

func writeMoodCSV(out *bytes.Buffer, moods []models.MoodEntry) error {
	writer := csv.NewWriter(out)
	if err := writer.Write(moodCSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, m := range moods {
		if err := writer.Write([]string{
			strconv.FormatInt(m.ID, 10),
			m.MoodType,
			strconv.Itoa(m.Intensity),
			m.Notes,
			m.CreatedAt.UTC().Format(time.RFC3339),
		}); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// exportMoodsCSV downloads the moods of the last ?days= days (30 by
// default), oldest first.
func (a *App) exportMoodsCSV(c *gin.Context) {
	user, ok := authUserFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	days, ok := queryInt(c, "days", defaultExportDays)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	account, err := a.users.GetUser(ctx, user.ID)
	if err != nil {
		writeServiceError(c, err, "Failed to load user")
		return
	}
	moods, err := a.history.MoodsInWindow(ctx, user.ID, days)
	if err != nil {
		writeServiceError(c, err, "Failed to load moods")
		return
	}

	var out bytes.Buffer
	if err := writeMoodCSV(&out, moods); err != nil {
		writeServiceError(c, err, "Failed to build CSV")
		return
	}

	filename := fmt.Sprintf(
		"mindi_moods_%s_%s.csv",
		sanitizeCSVFilename(account.Username),
		time.Now().UTC().Format("20060102_150405"),
	)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.String(http.StatusOK, out.String())
}
