package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sazalo101/mindis/internal/models"
)

func TestSanitizeCSVFilename(t *testing.T) {
	cases := map[string]string{
		"alice":         "alice",
		"  bob.smith  ": "bob_smith",
		"__***__":       "user",
		"":              "user",
		"kim-yuna_01":   "kim-yuna_01",
	}
	for input, want := range cases {
		if got := sanitizeCSVFilename(input); got != want {
			t.Fatalf("sanitizeCSVFilename(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestWriteMoodCSVQuotesFields(t *testing.T) {
	var out bytes.Buffer
	err := writeMoodCSV(&out, []models.MoodEntry{{
		ID:        4,
		MoodType:  "calm",
		Intensity: 3,
		Notes:     `said "hi", left`,
		CreatedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}})
	if err != nil {
		t.Fatalf("writeMoodCSV: %v", err)
	}
	want := "mood_id,mood_type,intensity,notes,created_at_utc\n4,calm,3,\"said \"\"hi\"\", left\",2026-03-02T09:00:00Z\n"
	if out.String() != want {
		t.Fatalf("unexpected csv:\n%s", out.String())
	}
}

func TestWriteServiceErrorMapping(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantBody   string
	}{
		{fmt.Errorf("%w: mood type is required", models.ErrInvalidArgument), http.StatusBadRequest, `{"error":"Mood type is required"}`},
		{models.ErrAuthFailure, http.StatusUnauthorized, `{"error":"Invalid username or password"}`},
		{fmt.Errorf("load user: %w", models.ErrNotFound), http.StatusNotFound, `{"error":"Not found"}`},
		{models.ErrDuplicateIdentity, http.StatusConflict, `{"error":"Username or email already exists"}`},
		{errors.New("disk on fire"), http.StatusInternalServerError, `{"error":"Failed to add mood"}`},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		writeServiceError(c, tc.err, "Failed to add mood")
		if rec.Code != tc.wantStatus || rec.Body.String() != tc.wantBody {
			t.Fatalf("%v: got %d %s", tc.err, rec.Code, rec.Body.String())
		}
	}
}

func TestQueryInt(t *testing.T) {
	cases := []struct {
		query  string
		want   int
		wantOK bool
	}{
		{"", 10, true},
		{"?limit=25", 25, true},
		{"?limit=%20", 10, true},
		{"?limit=0", 0, false},
		{"?limit=-3", 0, false},
		{"?limit=ten", 0, false},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodGet, "/mood"+tc.query, nil)

		got, ok := queryInt(c, "limit", 10)
		if got != tc.want || ok != tc.wantOK {
			t.Fatalf("queryInt(%q) = %d, %v", tc.query, got, ok)
		}
		if !ok && rec.Code != http.StatusBadRequest {
			t.Fatalf("queryInt(%q) should answer 400, got %d", tc.query, rec.Code)
		}
	}
}

func TestNonNil(t *testing.T) {
	var empty []models.Insight
	if got := nonNil(empty); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}
