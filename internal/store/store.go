package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/tapegrade/tapegrade/pkg/rating"
)

// Recording is a stored recording with its raw review set. Dates and source
// types stay raw here; normalization and classification happen at
// generation time so a rerun picks up rule changes.
type Recording struct {
	Identifier  string          `db:"identifier"`
	Title       string          `db:"title"`
	Description string          `db:"description"`
	Date        string          `db:"date"`
	Venue       string          `db:"venue"`
	CollectedAt time.Time       `db:"collected_at"`
	Reviews     []rating.Review `db:"-"`
}

// RecordingRatingRow is a persisted per-recording rating.
type RecordingRatingRow struct {
	Identifier  string    `db:"identifier" json:"identifier"`
	Rating      float64   `db:"rating" json:"rating"`
	ReviewCount int       `db:"review_count" json:"review_count"`
	SourceType  string    `db:"source_type" json:"source_type"`
	Confidence  float64   `db:"confidence" json:"confidence"`
	ComputedAt  time.Time `db:"computed_at" json:"computed_at"`
}

// ShowRatingRow is a persisted per-show rating.
type ShowRatingRow struct {
	ShowKey        string    `db:"show_key" json:"show_key"`
	Date           string    `db:"date" json:"date"`
	Venue          string    `db:"venue" json:"venue"`
	Rating         float64   `db:"rating" json:"rating"`
	Confidence     float64   `db:"confidence" json:"confidence"`
	BestRecording  string    `db:"best_recording" json:"best_recording"`
	RecordingCount int       `db:"recording_count" json:"recording_count"`
	ComputedAt     time.Time `db:"computed_at" json:"computed_at"`
}

// ListOpts controls recording listing.
type ListOpts struct {
	Limit int
}

// ShowListOpts controls show rating listing.
type ShowListOpts struct {
	MinConfidence float64
	Limit         int
}

// Store is the persistence interface.
type Store interface {
	UpsertRecording(ctx context.Context, rec *Recording) error
	ListRecordings(ctx context.Context, opts ListOpts) ([]Recording, error)
	CountRecordings(ctx context.Context) (int, error)

	ReplaceRecordingRatings(ctx context.Context, rows []RecordingRatingRow) error
	ReplaceShowRatings(ctx context.Context, rows []ShowRatingRow) error
	ListRecordingRatings(ctx context.Context, limit int) ([]RecordingRatingRow, error)
	ListShowRatings(ctx context.Context, opts ShowListOpts) ([]ShowRatingRow, error)

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertRecording stores a recording and replaces its review set. Reviews
// are replaced wholesale so a re-collect converges to the upstream state.
func (s *SQLiteStore) UpsertRecording(ctx context.Context, rec *Recording) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert %s: %w", rec.Identifier, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO recordings (identifier, title, description, date, venue, collected_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(identifier) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			date = excluded.date,
			venue = excluded.venue,
			collected_at = excluded.collected_at
	`, rec.Identifier, rec.Title, rec.Description, rec.Date, rec.Venue, rec.CollectedAt)
	if err != nil {
		return fmt.Errorf("upsert recording %s: %w", rec.Identifier, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM reviews WHERE identifier = ?", rec.Identifier); err != nil {
		return fmt.Errorf("clear reviews %s: %w", rec.Identifier, err)
	}
	for _, r := range rec.Reviews {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO reviews (identifier, stars, text, review_date)
			VALUES (?, ?, ?, ?)
		`, rec.Identifier, r.Stars, r.Text, r.Date)
		if err != nil {
			return fmt.Errorf("insert review %s: %w", rec.Identifier, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert %s: %w", rec.Identifier, err)
	}
	return nil
}

// ListRecordings returns stored recordings with their reviews, ordered by
// date then identifier so generation runs are deterministic.
func (s *SQLiteStore) ListRecordings(ctx context.Context, opts ListOpts) ([]Recording, error) {
	query := "SELECT * FROM recordings ORDER BY date, identifier"
	var args []any
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	var recs []Recording
	if err := s.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}

	for i := range recs {
		reviews, err := s.listReviews(ctx, recs[i].Identifier)
		if err != nil {
			return nil, err
		}
		recs[i].Reviews = reviews
	}
	return recs, nil
}

func (s *SQLiteStore) listReviews(ctx context.Context, identifier string) ([]rating.Review, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT stars, text, review_date FROM reviews WHERE identifier = ? ORDER BY id",
		identifier)
	if err != nil {
		return nil, fmt.Errorf("list reviews %s: %w", identifier, err)
	}
	defer rows.Close()

	var reviews []rating.Review
	for rows.Next() {
		var r rating.Review
		if err := rows.Scan(&r.Stars, &r.Text, &r.Date); err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

func (s *SQLiteStore) CountRecordings(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM recordings"); err != nil {
		return 0, fmt.Errorf("count recordings: %w", err)
	}
	return count, nil
}

// ReplaceRecordingRatings clears and rewrites the computed recording
// ratings. Generation always recomputes the full table.
func (s *SQLiteStore) ReplaceRecordingRatings(ctx context.Context, rows []RecordingRatingRow) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace recording ratings: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM recording_ratings"); err != nil {
		return fmt.Errorf("clear recording ratings: %w", err)
	}
	for _, row := range rows {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO recording_ratings (identifier, rating, review_count, source_type, confidence, computed_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, row.Identifier, row.Rating, row.ReviewCount, row.SourceType, row.Confidence, row.ComputedAt)
		if err != nil {
			return fmt.Errorf("insert recording rating %s: %w", row.Identifier, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit recording ratings: %w", err)
	}
	return nil
}

// ReplaceShowRatings clears and rewrites the computed show ratings.
func (s *SQLiteStore) ReplaceShowRatings(ctx context.Context, rows []ShowRatingRow) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace show ratings: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM show_ratings"); err != nil {
		return fmt.Errorf("clear show ratings: %w", err)
	}
	for _, row := range rows {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO show_ratings (show_key, date, venue, rating, confidence, best_recording, recording_count, computed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, row.ShowKey, row.Date, row.Venue, row.Rating, row.Confidence,
			row.BestRecording, row.RecordingCount, row.ComputedAt)
		if err != nil {
			return fmt.Errorf("insert show rating %s: %w", row.ShowKey, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit show ratings: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListRecordingRatings(ctx context.Context, limit int) ([]RecordingRatingRow, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []RecordingRatingRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM recording_ratings ORDER BY rating DESC, identifier LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list recording ratings: %w", err)
	}
	return rows, nil
}

func (s *SQLiteStore) ListShowRatings(ctx context.Context, opts ShowListOpts) ([]ShowRatingRow, error) {
	query := "SELECT * FROM show_ratings WHERE confidence >= ? ORDER BY rating DESC, show_key"
	args := []any{opts.MinConfidence}

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ?"
	args = append(args, limit)

	var rows []ShowRatingRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list show ratings: %w", err)
	}
	return rows, nil
}
