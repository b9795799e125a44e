package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/autofyn/linkedgen/internal/agent"
	"github.com/autofyn/linkedgen/models"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &Store{DB: db}, mock
}

func TestCreateRun(t *testing.T) {
	st, mock := newMockStore(t)

	query := regexp.QuoteMeta(`
INSERT INTO runs (id, kind, triggered_by, status, model)
VALUES ($1,$2,$3,$4,$5)
`)
	mock.ExpectExec(query).
		WithArgs(sqlmock.AnyArg(), RunKindIdeas, TriggerAPI, RunStatusRunning, "claude-sonnet-4").
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := st.CreateRun(context.Background(), RunKindIdeas, TriggerAPI, "claude-sonnet-4")
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated run id")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFinishRun(t *testing.T) {
	st, mock := newMockStore(t)

	stats := agent.RunStats{Iterations: 4, ToolCalls: 7, InputTokens: 1200, OutputTokens: 800}
	mock.ExpectExec(`UPDATE runs`).
		WithArgs("run-1", RunStatusSuccess, nil, 4, 7, 1200, 800).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := st.FinishRun(context.Background(), "run-1", RunStatusSuccess, "", stats); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFinishRunStoresError(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE runs`).
		WithArgs("run-1", RunStatusError, "synthesis phase produced no topics", 2, 1, 300, 40).
		WillReturnResult(sqlmock.NewResult(0, 1))

	stats := agent.RunStats{Iterations: 2, ToolCalls: 1, InputTokens: 300, OutputTokens: 40}
	if err := st.FinishRun(context.Background(), "run-1", RunStatusError, "synthesis phase produced no topics", stats); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFinishRunRequiresID(t *testing.T) {
	st, _ := newMockStore(t)
	if err := st.FinishRun(context.Background(), "", RunStatusSuccess, "", agent.RunStats{}); err == nil {
		t.Fatal("expected error for empty run id")
	}
}

func TestSaveIdeas(t *testing.T) {
	st, mock := newMockStore(t)

	ideas := []models.Idea{
		{ID: 1, Title: "Agents statt Chatbots", Hook: "H1", Angle: "A1", Source: models.SourceRSSOpenAI, SourceURL: "https://example.com/1", EstimatedTone: models.ToneDirekt, PostFormat: models.FormatErklaerer},
		{ID: 2, Title: "KI-Budget im Mittelstand", Hook: "H2", Angle: "A2", Source: models.SourceWebResearch, EstimatedTone: models.TonePragmatisch, PostFormat: models.FormatZahlenAnalyse},
	}

	insert := regexp.QuoteMeta(`
INSERT INTO ideas (run_id, idea_no, title, hook, angle, source, source_url, source_title, estimated_tone, post_format)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`)
	mock.ExpectBegin()
	mock.ExpectExec(insert).
		WithArgs("run-1", 1, "Agents statt Chatbots", "H1", "A1", "rss_openai", "https://example.com/1", "", "direkt", "erklärer").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(insert).
		WithArgs("run-1", 2, "KI-Budget im Mittelstand", "H2", "A2", "web_research", "", "", "pragmatisch", "zahlen_analyse").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	if err := st.SaveIdeas(context.Background(), "run-1", ideas); err != nil {
		t.Fatalf("SaveIdeas: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveIdeasRollsBackOnFailure(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO ideas`).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	err := st.SaveIdeas(context.Background(), "run-1", []models.Idea{{ID: 1, Title: "T"}})
	if err == nil {
		t.Fatal("expected insert failure")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveIdeasEmptyBatchIsNoop(t *testing.T) {
	st, mock := newMockStore(t)

	if err := st.SaveIdeas(context.Background(), "run-1", nil); err != nil {
		t.Fatalf("SaveIdeas: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSavePost(t *testing.T) {
	st, mock := newMockStore(t)

	query := regexp.QuoteMeta(`
INSERT INTO posts (run_id, idea_no, idea_title, body, word_count)
VALUES ($1,$2,$3,$4,$5)
RETURNING id
`)
	mock.ExpectQuery(query).
		WithArgs("run-1", 3, "Feature-Fatigue", "Der fertige Post.", 3).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	id, err := st.SavePost(context.Background(), "run-1", models.PostResult{
		Status:    "success",
		Post:      "Der fertige Post.",
		IdeaID:    3,
		IdeaTitle: "Feature-Fatigue",
		WordCount: 3,
	})
	if err != nil {
		t.Fatalf("SavePost: %v", err)
	}
	if id != 42 {
		t.Fatalf("id = %d, want 42", id)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetRun(t *testing.T) {
	st, mock := newMockStore(t)

	started := time.Date(2026, 1, 5, 7, 0, 0, 0, time.UTC)
	finished := started.Add(90 * time.Second)
	errMsg := "model call failed"
	mock.ExpectQuery(`SELECT id, kind, triggered_by`).
		WithArgs("run-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "kind", "triggered_by", "status", "model", "error",
			"iterations", "tool_calls", "input_tokens", "output_tokens", "started_at", "finished_at",
		}).AddRow("run-1", RunKindIdeas, TriggerSchedule, RunStatusError, "claude-sonnet-4", errMsg, 3, 5, 900, 100, started, finished))

	rec, ok, err := st.GetRun(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if !ok {
		t.Fatal("expected run to exist")
	}
	if rec.Kind != RunKindIdeas || rec.Trigger != TriggerSchedule || rec.Status != RunStatusError {
		t.Fatalf("record = %+v", rec)
	}
	if rec.Error == nil || *rec.Error != errMsg {
		t.Fatalf("Error = %v, want %q", rec.Error, errMsg)
	}
	if rec.FinishedAt == nil || !rec.FinishedAt.Equal(finished) {
		t.Fatalf("FinishedAt = %v, want %v", rec.FinishedAt, finished)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetRunMissing(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, kind, triggered_by`).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "kind", "triggered_by", "status", "model", "error",
			"iterations", "tool_calls", "input_tokens", "output_tokens", "started_at", "finished_at",
		}))

	_, ok, err := st.GetRun(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if ok {
		t.Fatal("expected run to be missing")
	}
}

func TestListRuns(t *testing.T) {
	st, mock := newMockStore(t)

	started := time.Date(2026, 1, 5, 7, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT id, kind, triggered_by`).
		WithArgs(RunKindPost, 10).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "kind", "triggered_by", "status", "model", "error",
			"iterations", "tool_calls", "input_tokens", "output_tokens", "started_at", "finished_at",
		}).
			AddRow("run-2", RunKindPost, TriggerAPI, RunStatusSuccess, "m", nil, 2, 1, 100, 50, started.Add(time.Hour), started.Add(time.Hour)).
			AddRow("run-1", RunKindPost, TriggerAPI, RunStatusRunning, "m", nil, 0, 0, 0, 0, started, nil))

	runs, err := st.ListRuns(context.Background(), RunKindPost, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-2" {
		t.Fatalf("runs = %+v, want run-2 first", runs)
	}
	if runs[1].FinishedAt != nil || runs[1].Error != nil {
		t.Fatalf("running entry = %+v, want open run", runs[1])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListRunsDefaultLimit(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, kind, triggered_by`).
		WithArgs("", 20).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "kind", "triggered_by", "status", "model", "error",
			"iterations", "tool_calls", "input_tokens", "output_tokens", "started_at", "finished_at",
		}))

	if _, err := st.ListRuns(context.Background(), "", 0); err != nil {
		t.Fatalf("ListRuns: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListIdeasByRun(t *testing.T) {
	st, mock := newMockStore(t)

	created := time.Date(2026, 1, 5, 7, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT id, run_id, idea_no`).
		WithArgs("run-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "run_id", "idea_no", "title", "hook", "angle", "source",
			"source_url", "source_title", "estimated_tone", "post_format", "created_at",
		}).
			AddRow(int64(1), "run-1", 1, "T1", "H1", "A1", "rss_openai", "https://example.com/1", "S1", "direkt", "story", created).
			AddRow(int64(2), "run-1", 2, "T2", "H2", "A2", "web_research", "", "", "ironisch", "hot_take", created))

	ideas, err := st.ListIdeasByRun(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("ListIdeasByRun: %v", err)
	}
	if len(ideas) != 2 || ideas[0].IdeaNo != 1 || ideas[1].PostFormat != "hot_take" {
		t.Fatalf("ideas = %+v", ideas)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListPostsByRun(t *testing.T) {
	st, mock := newMockStore(t)

	created := time.Date(2026, 1, 6, 9, 30, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT id, run_id, idea_no, idea_title, body, word_count`).
		WithArgs("run-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "run_id", "idea_no", "idea_title", "body", "word_count", "created_at",
		}).AddRow(int64(7), "run-1", 3, "Feature-Fatigue", "Der fertige Post.", 3, created))

	posts, err := st.ListPostsByRun(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("ListPostsByRun: %v", err)
	}
	if len(posts) != 1 || posts[0].Body != "Der fertige Post." || posts[0].WordCount != 3 {
		t.Fatalf("posts = %+v", posts)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestLatestRunTime(t *testing.T) {
	st, mock := newMockStore(t)

	latest := time.Date(2026, 1, 5, 7, 2, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT MAX`).
		WithArgs(RunKindIdeas, RunStatusSuccess).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(latest))

	ts, err := st.LatestRunTime(context.Background(), RunKindIdeas)
	if err != nil {
		t.Fatalf("LatestRunTime: %v", err)
	}
	if ts == nil || !ts.Equal(latest) {
		t.Fatalf("ts = %v, want %v", ts, latest)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestLatestRunTimeNone(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT MAX`).
		WithArgs(RunKindPost, RunStatusSuccess).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))

	ts, err := st.LatestRunTime(context.Background(), RunKindPost)
	if err != nil {
		t.Fatalf("LatestRunTime: %v", err)
	}
	if ts != nil {
		t.Fatalf("ts = %v, want nil", ts)
	}
}
