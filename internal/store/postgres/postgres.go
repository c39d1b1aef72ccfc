// Package postgres stores users and their history in PostgreSQL through a
// pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sazalo101/mindis/internal/models"
)

const uniqueViolation = "23505"

type dbQuerier interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type Store struct {
	pool  *pgxpool.Pool
	q     dbQuerier
	clock models.Clock
}

func New(pool *pgxpool.Pool, clock models.Clock) *Store {
	if clock == nil {
		clock = models.SystemClock{}
	}
	return &Store{pool: pool, q: pool, clock: clock}
}

func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) now() time.Time {
	return models.Stamp(s.clock.Now())
}

func (s *Store) CreateUser(ctx context.Context, username, email, passwordHash string) (int64, error) {
	var id int64
	err := s.q.QueryRow(
		ctx,
		`INSERT INTO users (username, email, password_hash, created_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		username, email, passwordHash, s.now(),
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, models.ErrDuplicateIdentity
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

func (s *Store) UserByUsername(ctx context.Context, username string) (models.User, error) {
	return scanUser(s.q.QueryRow(
		ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE username = $1`,
		username,
	))
}

func (s *Store) UserByID(ctx context.Context, id int64) (models.User, error) {
	return scanUser(s.q.QueryRow(
		ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE id = $1`,
		id,
	))
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, models.ErrNotFound
		}
		return models.User{}, fmt.Errorf("scan user: %w", err)
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}

func (s *Store) InsertMood(ctx context.Context, userID int64, moodType string, intensity int, notes string) (int64, error) {
	var id int64
	err := s.q.QueryRow(
		ctx,
		`INSERT INTO mood_entries (user_id, mood_type, intensity, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		userID, moodType, intensity, notes, s.now(),
	).Scan(&id)
	return id, err
}

func (s *Store) ListMoods(ctx context.Context, userID int64, limit int) ([]models.MoodEntry, error) {
	rows, err := s.q.Query(
		ctx,
		`SELECT id, user_id, mood_type, intensity, notes, created_at
		 FROM mood_entries
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	return scanMoods(rows)
}

func (s *Store) ListMoodsInWindow(ctx context.Context, userID int64, windowDays int) ([]models.MoodEntry, error) {
	since, until := s.window(windowDays)
	rows, err := s.q.Query(
		ctx,
		`SELECT id, user_id, mood_type, intensity, notes, created_at
		 FROM mood_entries
		 WHERE user_id = $1 AND created_at >= $2 AND created_at <= $3
		 ORDER BY created_at ASC, id ASC`,
		userID, since, until,
	)
	if err != nil {
		return nil, err
	}
	return scanMoods(rows)
}

func scanMoods(rows pgx.Rows) ([]models.MoodEntry, error) {
	defer rows.Close()
	moods := make([]models.MoodEntry, 0)
	for rows.Next() {
		var m models.MoodEntry
		if err := rows.Scan(&m.ID, &m.UserID, &m.MoodType, &m.Intensity, &m.Notes, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan mood: %w", err)
		}
		m.CreatedAt = m.CreatedAt.UTC()
		moods = append(moods, m)
	}
	return moods, rows.Err()
}

func (s *Store) MoodStatsSince(ctx context.Context, userID int64, windowDays int) ([]models.MoodStat, error) {
	since, until := s.window(windowDays)
	rows, err := s.q.Query(
		ctx,
		`SELECT mood_type, COUNT(*)::int, AVG(intensity)::float8
		 FROM mood_entries
		 WHERE user_id = $1 AND created_at >= $2 AND created_at <= $3
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

func (s *Store) window(windowDays int) (time.Time, time.Time) {
	now := s.now()
	return now.Add(-time.Duration(windowDays) * 24 * time.Hour), now
}

func (s *Store) InsertJournalEntry(ctx context.Context, userID int64, content string, moodTags []string) (int64, error) {
	if moodTags == nil {
		moodTags = []string{}
	}
	var id int64
	err := s.q.QueryRow(
		ctx,
		`INSERT INTO journal_entries (user_id, content, mood_tags, created_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		userID, content, moodTags, s.now(),
	).Scan(&id)
	return id, err
}

func (s *Store) ListJournalEntries(ctx context.Context, userID int64, limit int) ([]models.JournalEntry, error) {
	rows, err := s.q.Query(
		ctx,
		`SELECT id, user_id, content, mood_tags, created_at
		 FROM journal_entries
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.JournalEntry, 0)
	for rows.Next() {
		var e models.JournalEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Content, &e.MoodTags, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		if e.MoodTags == nil {
			e.MoodTags = []string{}
		}
		e.CreatedAt = e.CreatedAt.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) InsertInsight(ctx context.Context, userID int64, text string, relatedEntries []int64) (int64, error) {
	if relatedEntries == nil {
		relatedEntries = []int64{}
	}
	var id int64
	err := s.q.QueryRow(
		ctx,
		`INSERT INTO insights (user_id, insight_text, related_entries, created_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		userID, text, relatedEntries, s.now(),
	).Scan(&id)
	return id, err
}

func (s *Store) ListInsights(ctx context.Context, userID int64, limit int) ([]models.Insight, error) {
	rows, err := s.q.Query(
		ctx,
		`SELECT id, user_id, insight_text, related_entries, created_at
		 FROM insights
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	insights := make([]models.Insight, 0)
	for rows.Next() {
		var in models.Insight
		if err := rows.Scan(&in.ID, &in.UserID, &in.Text, &in.RelatedEntries, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan insight: %w", err)
		}
		if in.RelatedEntries == nil {
			in.RelatedEntries = []int64{}
		}
		in.CreatedAt = in.CreatedAt.UTC()
		insights = append(insights, in)
	}
	return insights, rows.Err()
}
