package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Outcome labels a terminal job state.
type Outcome string

const (
	OutcomePublished Outcome = "published"
	OutcomeFailed    Outcome = "failed"
)

// Entry is one terminal outcome.
type Entry struct {
	ID              int64     `json:"id"`
	JobID           string    `json:"job_id"`
	VideoID         string    `json:"video_id"`
	Language        string    `json:"language"`
	Outcome         Outcome   `json:"outcome"`
	FailedStage     string    `json:"failed_stage,omitempty"`
	ErrorKind       string    `json:"error_kind,omitempty"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	PublishedURL    string    `json:"published_url,omitempty"`
	TranslatedTitle string    `json:"translated_title,omitempty"`
	SubmittedAt     time.Time `json:"submitted_at"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
}

// Stats summarises the ledger.
type Stats struct {
	Published int `json:"published"`
	Failed    int `json:"failed"`
}

const timeLayout = time.RFC3339Nano

// Record inserts a terminal outcome. Recording the same job twice is an error.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if strings.TrimSpace(e.JobID) == "" {
		return fmt.Errorf("record outcome: job id is required")
	}
	if e.Outcome != OutcomePublished && e.Outcome != OutcomeFailed {
		return fmt.Errorf("record outcome: unknown outcome %q", e.Outcome)
	}
	if e.FinishedAt.IsZero() {
		e.FinishedAt = time.Now().UTC()
	}
	err := retryOnBusy(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx, `INSERT INTO outcomes (
			job_id, video_id, language, outcome, failed_stage, error_kind, error_message,
			published_url, translated_title, submitted_at, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.JobID, e.VideoID, e.Language, string(e.Outcome), e.FailedStage, e.ErrorKind, e.ErrorMessage,
			e.PublishedURL, e.TranslatedTitle,
			e.SubmittedAt.UTC().Format(timeLayout),
			e.StartedAt.UTC().Format(timeLayout),
			e.FinishedAt.UTC().Format(timeLayout),
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("record outcome for job %s: %w", e.JobID, err)
	}
	return nil
}

// List returns the most recent outcomes, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, job_id, video_id, language, outcome, failed_stage, error_kind, error_message,
		published_url, translated_title, submitted_at, started_at, finished_at
		FROM outcomes ORDER BY finished_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return entries, nil
}

// Stats counts outcomes by kind.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT outcome, COUNT(1) FROM outcomes GROUP BY outcome")
	if err != nil {
		return Stats{}, fmt.Errorf("outcome stats: %w", err)
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var (
			outcome string
			count   int
		)
		if err := rows.Scan(&outcome, &count); err != nil {
			return Stats{}, fmt.Errorf("scan outcome stats: %w", err)
		}
		switch Outcome(outcome) {
		case OutcomePublished:
			stats.Published = count
		case OutcomeFailed:
			stats.Failed = count
		}
	}
	return stats, rows.Err()
}

// Prune deletes outcomes that finished before cutoff and returns how many
// rows were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx, "DELETE FROM outcomes WHERE finished_at < ?", cutoff.UTC().Format(timeLayout))
		return execErr
	})
	if err != nil {
		return 0, fmt.Errorf("prune outcomes: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		e                            Entry
		outcome                      string
		submitted, started, finished string
	)
	if err := row.Scan(&e.ID, &e.JobID, &e.VideoID, &e.Language, &outcome, &e.FailedStage, &e.ErrorKind,
		&e.ErrorMessage, &e.PublishedURL, &e.TranslatedTitle, &submitted, &started, &finished); err != nil {
		return Entry{}, fmt.Errorf("scan outcome: %w", err)
	}
	e.Outcome = Outcome(outcome)
	e.SubmittedAt = parseTime(submitted)
	e.StartedAt = parseTime(started)
	e.FinishedAt = parseTime(finished)
	return e, nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
