package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/autofyn/linkedgen/internal/agent"
	"github.com/autofyn/linkedgen/internal/runtime"
	"github.com/autofyn/linkedgen/internal/store"
	"github.com/autofyn/linkedgen/models"
)

// runTimeout bounds one background pipeline run.
const runTimeout = 15 * time.Minute

// RunsHandler serves the two pipeline triggers and the stored run history.
type RunsHandler struct {
	rt     *runtime.Runtime
	logger *log.Logger
}

func (h *RunsHandler) Register(g *echo.Group) {
	g.POST("/generate-ideas", h.generateIdeas)
	g.POST("/generate-post", h.generatePost)
	g.GET("/runs", h.list)
	g.GET("/runs/:id", h.get)
}

type acceptedResponse struct {
	Status string `json:"status"`
	RunID  string `json:"run_id,omitempty"`
}

type runDetail struct {
	store.RunRecord
	Ideas []store.IdeaRecord `json:"ideas,omitempty"`
	Posts []store.PostRecord `json:"posts,omitempty"`
}

// generateIdeas replies 202 immediately and runs the idea pipeline in the
// background; results land in Slack, not in this response.
func (h *RunsHandler) generateIdeas(c echo.Context) error {
	var in models.GenerateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	runID := h.rt.BeginRun(c.Request().Context(), store.RunKindIdeas, store.TriggerAPI)
	h.logger.Printf("generate-ideas accepted (subject=%q run=%q)", in.Subject, runID)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		if err := processIdeas(ctx, h.rt, runID, store.TriggerAPI, false, in); err != nil {
			h.logger.Printf("idea run failed: %v", err)
		}
	}()

	return c.JSON(http.StatusAccepted, acceptedResponse{Status: "accepted", RunID: runID})
}

// generatePost replies 202 and writes the full post for one idea in the
// background.
func (h *RunsHandler) generatePost(c echo.Context) error {
	var in models.PostInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if in.Idea == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing 'idea' in request body")
	}

	runID := h.rt.BeginRun(c.Request().Context(), store.RunKindPost, store.TriggerAPI)
	h.logger.Printf("generate-post accepted (idea=%q run=%q)", in.Idea.Title, runID)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		if err := processPost(ctx, h.rt, runID, store.TriggerAPI, in); err != nil {
			h.logger.Printf("post run failed: %v", err)
		}
	}()

	return c.JSON(http.StatusAccepted, acceptedResponse{Status: "accepted", RunID: runID})
}

// list returns stored runs, newest first. kind and limit are optional
// query filters.
func (h *RunsHandler) list(c echo.Context) error {
	if h.rt.Store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "run history disabled")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	runs, err := h.rt.Store.ListRuns(c.Request().Context(), c.QueryParam("kind"), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, runs)
}

// get returns one run with the ideas and posts it produced.
func (h *RunsHandler) get(c echo.Context) error {
	if h.rt.Store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "run history disabled")
	}
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "run not found")
	}

	ctx := c.Request().Context()
	rec, ok, err := h.rt.Store.GetRun(ctx, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "run not found")
	}

	detail := runDetail{RunRecord: rec}
	if detail.Ideas, err = h.rt.Store.ListIdeasByRun(ctx, rec.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if detail.Posts, err = h.rt.Store.ListPostsByRun(ctx, rec.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, detail)
}

// processIdeas executes the idea pipeline end to end: generate, record,
// deliver. Shared by the HTTP trigger and the scheduler. Delivery and
// recording failures are logged, never returned; only generation itself
// fails a run.
func processIdeas(ctx context.Context, rt *runtime.Runtime, runID, trigger string, twoPhase bool, in models.GenerateInput) error {
	started := time.Now()
	runsStarted.WithLabelValues(store.RunKindIdeas, trigger).Inc()

	var (
		res   *models.IdeasResult
		stats agent.RunStats
		err   error
	)
	if twoPhase {
		res, stats, err = rt.Service.GenerateIdeasTwoPhase(ctx, in)
	} else {
		res, stats, err = rt.Service.GenerateIdeas(ctx, in)
	}
	observeRun(store.RunKindIdeas, started, err)
	if err != nil {
		rt.FinishRun(runID, store.RunStatusError, err.Error(), stats)
		notifyError(rt, in.ChannelID, fmt.Sprintf("Ideen-Generierung fehlgeschlagen: %v", err))
		return err
	}

	rt.FinishRun(runID, store.RunStatusSuccess, "", stats)
	if rt.Store != nil && runID != "" {
		if serr := rt.Store.SaveIdeas(ctx, runID, res.Ideas); serr != nil {
			rt.Logger.Printf("run %s: idea batch not recorded: %v", runID, serr)
		}
	}
	if derr := rt.Slack.WithChannel(in.ChannelID).PostIdeas(ctx, res.Ideas); derr != nil {
		rt.Logger.Printf("slack delivery failed: %v", derr)
	}
	return nil
}

// processPost writes the full post for one idea, records it and delivers
// it to Slack.
func processPost(ctx context.Context, rt *runtime.Runtime, runID, trigger string, in models.PostInput) error {
	started := time.Now()
	runsStarted.WithLabelValues(store.RunKindPost, trigger).Inc()

	res, stats, err := rt.Service.WritePost(ctx, *in.Idea)
	observeRun(store.RunKindPost, started, err)
	if err != nil {
		rt.FinishRun(runID, store.RunStatusError, err.Error(), stats)
		notifyError(rt, in.ChannelID, fmt.Sprintf("Post-Generierung fehlgeschlagen für '%s': %v", in.Idea.Title, err))
		return err
	}

	rt.FinishRun(runID, store.RunStatusSuccess, "", stats)
	if rt.Store != nil && runID != "" {
		if _, serr := rt.Store.SavePost(ctx, runID, *res); serr != nil {
			rt.Logger.Printf("run %s: post not recorded: %v", runID, serr)
		}
	}
	if derr := rt.Slack.WithChannel(in.ChannelID).PostResult(ctx, res.Post, *in.Idea, in.ResponseURL); derr != nil {
		rt.Logger.Printf("slack delivery failed: %v", derr)
	}
	return nil
}

// notifyError posts a short failure notice to Slack on a fresh context;
// the pipeline context is usually dead by the time a failure is reported.
func notifyError(rt *runtime.Runtime, channelID, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := rt.Slack.WithChannel(channelID).PostError(ctx, message); err != nil {
		rt.Logger.Printf("error notice undelivered: %v", err)
	}
}
