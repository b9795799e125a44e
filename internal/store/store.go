package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/autofyn/linkedgen/internal/agent"
	"github.com/autofyn/linkedgen/models"
)

type Store struct {
	DB *sql.DB
}

// Run kinds distinguish what an agent run produced.
const (
	RunKindIdeas = "ideas"
	RunKindPost  = "post"
)

// Run statuses.
const (
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusError   = "error"
)

// Run triggers record where a run was started from.
const (
	TriggerAPI      = "api"
	TriggerCLI      = "cli"
	TriggerSchedule = "schedule"
)

// DSNFromEnv assembles a Postgres DSN from DATABASE_URL, falling back to
// the discrete POSTGRES_* variables.
func DSNFromEnv() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	host := getenvDefault("POSTGRES_HOST", "localhost")
	port := getenvDefault("POSTGRES_PORT", "5432")
	user := os.Getenv("POSTGRES_USER")
	pass := os.Getenv("POSTGRES_PASSWORD")
	db := os.Getenv("POSTGRES_DB")
	ssl := getenvDefault("POSTGRES_SSLMODE", "disable")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, ssl)
}

func New(ctx context.Context) (*Store, error) {
	return NewWithDSN(ctx, DSNFromEnv())
}

// NewWithDSN constructs the Store using an explicit Postgres DSN.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

// RunRecord is one agent run as persisted, including the loop counters
// reported by the engine.
type RunRecord struct {
	ID           string     `json:"id"`
	Kind         string     `json:"kind"`
	Trigger      string     `json:"trigger"`
	Status       string     `json:"status"`
	Model        string     `json:"model"`
	Error        *string    `json:"error,omitempty"`
	Iterations   int        `json:"iterations"`
	ToolCalls    int        `json:"tool_calls"`
	InputTokens  int        `json:"input_tokens"`
	OutputTokens int        `json:"output_tokens"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// CreateRun inserts a run in the running state and returns its id. IDs are
// generated client side so callers can log them before the row lands.
func (s *Store) CreateRun(ctx context.Context, kind, trigger, model string) (string, error) {
	id := uuid.NewString()
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO runs (id, kind, triggered_by, status, model)
VALUES ($1,$2,$3,$4,$5)
`, id, kind, trigger, RunStatusRunning, model)
	if err != nil {
		return "", err
	}
	return id, nil
}

// FinishRun closes a run with its final status and the counters accumulated
// over every phase of the operation. errMsg is stored only for failed runs.
func (s *Store) FinishRun(ctx context.Context, id, status, errMsg string, stats agent.RunStats) error {
	if id == "" {
		return fmt.Errorf("run id required")
	}
	_, err := s.DB.ExecContext(ctx, `
UPDATE runs
SET status=$2, error=$3, iterations=$4, tool_calls=$5, input_tokens=$6, output_tokens=$7, finished_at=NOW()
WHERE id=$1
`, id, status, nullableString(errMsg), stats.Iterations, stats.ToolCalls, stats.InputTokens, stats.OutputTokens)
	return err
}

// SaveIdeas stores a generated idea batch under its run. The batch is
// written in one transaction; a failed insert rolls the whole batch back.
func (s *Store) SaveIdeas(ctx context.Context, runID string, ideas []models.Idea) error {
	if runID == "" {
		return fmt.Errorf("run id required")
	}
	if len(ideas) == 0 {
		return nil
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for _, idea := range ideas {
		if _, err = tx.ExecContext(ctx, `
INSERT INTO ideas (run_id, idea_no, title, hook, angle, source, source_url, source_title, estimated_tone, post_format)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`, runID, idea.ID, idea.Title, idea.Hook, idea.Angle, string(idea.Source), idea.SourceURL, idea.SourceTitle, string(idea.EstimatedTone), string(idea.PostFormat)); err != nil {
			return err
		}
	}
	err = tx.Commit()
	return err
}

// SavePost stores one finished post under its run and returns the row id.
func (s *Store) SavePost(ctx context.Context, runID string, res models.PostResult) (int64, error) {
	if runID == "" {
		return 0, fmt.Errorf("run id required")
	}
	var id int64
	err := s.DB.QueryRowContext(ctx, `
INSERT INTO posts (run_id, idea_no, idea_title, body, word_count)
VALUES ($1,$2,$3,$4,$5)
RETURNING id
`, runID, res.IdeaID, res.IdeaTitle, res.Post, res.WordCount).Scan(&id)
	return id, err
}

// GetRun fetches one run. The bool reports whether it exists.
func (s *Store) GetRun(ctx context.Context, id string) (RunRecord, bool, error) {
	if id == "" {
		return RunRecord{}, false, fmt.Errorf("run id required")
	}
	row := s.DB.QueryRowContext(ctx, `
SELECT id, kind, triggered_by, status, model, error, iterations, tool_calls, input_tokens, output_tokens, started_at, finished_at
FROM runs
WHERE id=$1
`, id)
	var rec RunRecord
	if err := row.Scan(&rec.ID, &rec.Kind, &rec.Trigger, &rec.Status, &rec.Model, &rec.Error,
		&rec.Iterations, &rec.ToolCalls, &rec.InputTokens, &rec.OutputTokens, &rec.StartedAt, &rec.FinishedAt); err != nil {
		if err == sql.ErrNoRows {
			return RunRecord{}, false, nil
		}
		return RunRecord{}, false, err
	}
	return rec, true, nil
}

// ListRuns returns recent runs, newest first. kind filters to one run kind
// when non-empty.
func (s *Store) ListRuns(ctx context.Context, kind string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, kind, triggered_by, status, model, error, iterations, tool_calls, input_tokens, output_tokens, started_at, finished_at
FROM runs
WHERE $1 = '' OR kind = $1
ORDER BY started_at DESC
LIMIT $2
`, kind, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		if err := rows.Scan(&rec.ID, &rec.Kind, &rec.Trigger, &rec.Status, &rec.Model, &rec.Error,
			&rec.Iterations, &rec.ToolCalls, &rec.InputTokens, &rec.OutputTokens, &rec.StartedAt, &rec.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// IdeaRecord is a stored idea row. IdeaNo is the model-assigned number
// within its batch, the one shown in Slack and echoed back by buttons.
type IdeaRecord struct {
	ID            int64     `json:"id"`
	RunID         string    `json:"run_id"`
	IdeaNo        int       `json:"idea_no"`
	Title         string    `json:"title"`
	Hook          string    `json:"hook"`
	Angle         string    `json:"angle"`
	Source        string    `json:"source"`
	SourceURL     string    `json:"source_url,omitempty"`
	SourceTitle   string    `json:"source_title,omitempty"`
	EstimatedTone string    `json:"estimated_tone"`
	PostFormat    string    `json:"post_format"`
	CreatedAt     time.Time `json:"created_at"`
}

func (s *Store) ListIdeasByRun(ctx context.Context, runID string) ([]IdeaRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, run_id, idea_no, title, hook, angle, source, source_url, source_title, estimated_tone, post_format, created_at
FROM ideas
WHERE run_id=$1
ORDER BY idea_no ASC
`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []IdeaRecord
	for rows.Next() {
		var rec IdeaRecord
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.IdeaNo, &rec.Title, &rec.Hook, &rec.Angle, &rec.Source,
			&rec.SourceURL, &rec.SourceTitle, &rec.EstimatedTone, &rec.PostFormat, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// PostRecord is a stored finished post.
type PostRecord struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	IdeaNo    int       `json:"idea_no"`
	IdeaTitle string    `json:"idea_title"`
	Body      string    `json:"body"`
	WordCount int       `json:"word_count"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Store) ListPostsByRun(ctx context.Context, runID string) ([]PostRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, run_id, idea_no, idea_title, body, word_count, created_at
FROM posts
WHERE run_id=$1
ORDER BY created_at ASC
`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PostRecord
	for rows.Next() {
		var rec PostRecord
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.IdeaNo, &rec.IdeaTitle, &rec.Body, &rec.WordCount, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// LatestRunTime reports when the newest successful run of the given kind
// finished. Nil when none exists.
func (s *Store) LatestRunTime(ctx context.Context, kind string) (*time.Time, error) {
	var ts *time.Time
	err := s.DB.QueryRowContext(ctx, `
SELECT MAX(COALESCE(finished_at, started_at)) FROM runs WHERE kind=$1 AND status=$2
`, kind, RunStatusSuccess).Scan(&ts)
	return ts, err
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
