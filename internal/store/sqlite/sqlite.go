// Package sqlite stores users and their history in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/sazalo101/mindis/internal/models"
)

// Timestamps are stored as fixed-width UTC text so that string order is
// chronological order.
const timeLayout = "2006-01-02T15:04:05Z"

type Store struct {
	db    *sql.DB
	clock models.Clock
}

func New(db *sql.DB, clock models.Clock) *Store {
	if clock == nil {
		clock = models.SystemClock{}
	}
	return &Store{db: db, clock: clock}
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) now() string {
	return formatTime(s.clock.Now())
}

func (s *Store) CreateUser(ctx context.Context, username, email, passwordHash string) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		username, email, passwordHash, s.now(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, models.ErrDuplicateIdentity
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) UserByUsername(ctx context.Context, username string) (models.User, error) {
	return s.scanUser(s.db.QueryRowContext(
		ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE username = ?`,
		username,
	))
}

func (s *Store) UserByID(ctx context.Context, id int64) (models.User, error) {
	return s.scanUser(s.db.QueryRowContext(
		ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE id = ?`,
		id,
	))
}

func (s *Store) scanUser(row *sql.Row) (models.User, error) {
	var (
		user      models.User
		createdAt string
	)
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, models.ErrNotFound
		}
		return models.User{}, fmt.Errorf("scan user: %w", err)
	}
	var err error
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *Store) InsertMood(ctx context.Context, userID int64, moodType string, intensity int, notes string) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO mood_entries (user_id, mood_type, intensity, notes, created_at) VALUES (?, ?, ?, ?, ?)`,
		userID, moodType, intensity, notes, s.now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) ListMoods(ctx context.Context, userID int64, limit int) ([]models.MoodEntry, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, user_id, mood_type, intensity, notes, created_at
		 FROM mood_entries
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	return scanMoods(rows)
}

func (s *Store) ListMoodsInWindow(ctx context.Context, userID int64, windowDays int) ([]models.MoodEntry, error) {
	since, until := s.window(windowDays)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, user_id, mood_type, intensity, notes, created_at
		 FROM mood_entries
		 WHERE user_id = ? AND created_at >= ? AND created_at <= ?
		 ORDER BY created_at ASC, id ASC`,
		userID, since, until,
	)
	if err != nil {
		return nil, err
	}
	return scanMoods(rows)
}

func scanMoods(rows *sql.Rows) ([]models.MoodEntry, error) {
	defer rows.Close()
	moods := make([]models.MoodEntry, 0)
	for rows.Next() {
		var (
			m         models.MoodEntry
			createdAt string
		)
		if err := rows.Scan(&m.ID, &m.UserID, &m.MoodType, &m.Intensity, &m.Notes, &createdAt); err != nil {
			return nil, fmt.Errorf("scan mood: %w", err)
		}
		var err error
		if m.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		moods = append(moods, m)
	}
	return moods, rows.Err()
}

func (s *Store) MoodStatsSince(ctx context.Context, userID int64, windowDays int) ([]models.MoodStat, error) {
	since, until := s.window(windowDays)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT mood_type, COUNT(*), AVG(intensity)
		 FROM mood_entries
		 WHERE user_id = ? AND created_at >= ? AND created_at <= ?
		 GROUP BY mood_type
		 ORDER BY COUNT(*) DESC, mood_type ASC`,
		userID, since, until,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make([]models.MoodStat, 0)
	for rows.Next() {
		var st models.MoodStat
		if err := rows.Scan(&st.MoodType, &st.Count, &st.AvgIntensity); err != nil {
			return nil, fmt.Errorf("scan mood stat: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

func (s *Store) window(windowDays int) (string, string) {
	now := models.Stamp(s.clock.Now())
	since := now.Add(-time.Duration(windowDays) * 24 * time.Hour)
	return formatTime(since), formatTime(now)
}

func (s *Store) InsertJournalEntry(ctx context.Context, userID int64, content string, moodTags []string) (int64, error) {
	tags, err := json.Marshal(moodTags)
	if err != nil {
		return 0, fmt.Errorf("encode mood tags: %w", err)
	}
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO journal_entries (user_id, content, mood_tags, created_at) VALUES (?, ?, ?, ?)`,
		userID, content, string(tags), s.now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) ListJournalEntries(ctx context.Context, userID int64, limit int) ([]models.JournalEntry, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, user_id, content, mood_tags, created_at
		 FROM journal_entries
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.JournalEntry, 0)
	for rows.Next() {
		var (
			e         models.JournalEntry
			tags      string
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Content, &tags, &createdAt); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &e.MoodTags); err != nil {
			return nil, fmt.Errorf("decode mood tags of entry %d: %w", e.ID, err)
		}
		if e.MoodTags == nil {
			e.MoodTags = []string{}
		}
		var err error
		if e.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) InsertInsight(ctx context.Context, userID int64, text string, relatedEntries []int64) (int64, error) {
	related, err := json.Marshal(relatedEntries)
	if err != nil {
		return 0, fmt.Errorf("encode related entries: %w", err)
	}
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO insights (user_id, insight_text, related_entries, created_at) VALUES (?, ?, ?, ?)`,
		userID, text, string(related), s.now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) ListInsights(ctx context.Context, userID int64, limit int) ([]models.Insight, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, user_id, insight_text, related_entries, created_at
		 FROM insights
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	insights := make([]models.Insight, 0)
	for rows.Next() {
		var (
			in        models.Insight
			related   string
			createdAt string
		)
		if err := rows.Scan(&in.ID, &in.UserID, &in.Text, &related, &createdAt); err != nil {
			return nil, fmt.Errorf("scan insight: %w", err)
		}
		if err := json.Unmarshal([]byte(related), &in.RelatedEntries); err != nil {
			return nil, fmt.Errorf("decode related entries of insight %d: %w", in.ID, err)
		}
		if in.RelatedEntries == nil {
			in.RelatedEntries = []int64{}
		}
		var err error
		if in.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		insights = append(insights, in)
	}
	return insights, rows.Err()
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint &&
			(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
	}
	return false
}

func formatTime(t time.Time) string {
	return models.Stamp(t).Format(timeLayout)
}

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return t.UTC(), nil
}
