package agent

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/autofyn/linkedgen/internal/capability"
	"github.com/autofyn/linkedgen/internal/dedup"
	"github.com/autofyn/linkedgen/internal/helpers"
	"github.com/autofyn/linkedgen/models"
)

// RunStats aggregates loop counters across every run that made up one
// operation, so callers can persist them. Two-phase generation sums both
// phases. Counters from failed runs are included; tokens were still spent.
type RunStats struct {
	Iterations   int
	ToolCalls    int
	InputTokens  int
	OutputTokens int
}

func (st *RunStats) absorb(res *RunResult) {
	if res == nil {
		return
	}
	st.Iterations += res.Iterations
	st.ToolCalls += res.ToolCalls
	st.InputTokens += res.InputTokens
	st.OutputTokens += res.OutputTokens
}

// Service composes loop runs into the three public operations: single-phase
// idea generation, the two-phase synthesis/ideation pipeline, and writing
// one post from a chosen idea. Each operation is an independent run with
// its own conversation.
type Service struct {
	engine  *Engine
	feeds   []models.FeedSource
	dedup   *dedup.Deduper
	budgets Budgets
	logger  *log.Logger
	now     func() time.Time
}

// NewService builds the orchestrator. feeds is the RSS catalogue the
// synthesis phase works through; it may be empty for single-phase use.
// deduper may be nil, which keeps every topic.
func NewService(engine *Engine, feeds []models.FeedSource, deduper *dedup.Deduper, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(log.Writer(), "[AGENT] ", log.LstdFlags)
	}
	return &Service{
		engine:  engine,
		feeds:   feeds,
		dedup:   deduper,
		budgets: DefaultBudgets(),
		logger:  logger,
		now:     time.Now,
	}
}

// UseBudgets replaces the per-phase budgets, for callers overriding the
// defaults from configuration. Invalid loop bounds surface on the next run.
func (s *Service) UseBudgets(b Budgets) {
	s.budgets = b
}

// Model names the provider model the service runs on.
func (s *Service) Model() string {
	return s.engine.Model()
}

// GenerateIdeas runs the single-phase generator: one loop over the full
// tool catalogue, fed with whatever source material the caller supplied.
func (s *Service) GenerateIdeas(ctx context.Context, in models.GenerateInput) (*models.IdeasResult, RunStats, error) {
	s.logger.Printf("starting idea generation (%s)", s.engine.Model())
	var stats RunStats
	res, err := s.engine.Run(ctx, RunSpec{
		System:    IdeaGenerationSystemPrompt,
		UserMsg:   buildIdeasMessage(in, s.now()),
		Tools:     []string{capability.ToolFetchRSS, capability.ToolFetchArticle, capability.ToolWebSearch},
		Budget:    s.budgets.Ideas.Loop,
		MaxTokens: s.budgets.Ideas.MaxTokens,
		Nudge:     IdeasNudge,
	})
	stats.absorb(res)
	if err != nil {
		return nil, stats, err
	}
	ideas, err := s.parseIdeas(res.Text)
	if err != nil {
		return nil, stats, err
	}
	s.dedup.MarkSurfaced(ctx, ideas)
	s.logger.Printf("generated %d ideas in %d iterations (%d tool calls)", len(ideas), res.Iterations, res.ToolCalls)
	return s.ideasResult(ideas), stats, nil
}

// GenerateIdeasTwoPhase splits the work: synthesis gathers and deduplicates
// the feed catalogue into topics, ideation turns the topics into ideas. The
// parsed topic list is the only data carried across the phase boundary.
func (s *Service) GenerateIdeasTwoPhase(ctx context.Context, in models.GenerateInput) (*models.IdeasResult, RunStats, error) {
	s.logger.Printf("starting two-phase idea generation (%s)", s.engine.Model())

	var stats RunStats
	synth, err := s.engine.Run(ctx, RunSpec{
		System:    SynthesisSystemPrompt,
		UserMsg:   buildSynthesisMessage(s.feeds, in, s.now()),
		Tools:     []string{capability.ToolFetchRSS},
		Budget:    s.budgets.Synthesis.Loop,
		MaxTokens: s.budgets.Synthesis.MaxTokens,
		Nudge:     TopicsNudge,
	})
	stats.absorb(synth)
	if err != nil {
		return nil, stats, fmt.Errorf("synthesis phase: %w", err)
	}
	var topics []models.Topic
	if err := helpers.UnmarshalArray(synth.Text, &topics); err != nil {
		return nil, stats, fmt.Errorf("synthesis phase: %w", err)
	}
	if len(topics) == 0 {
		return nil, stats, fmt.Errorf("synthesis phase produced no topics")
	}
	s.logger.Printf("synthesis produced %d topics in %d iterations (%d tool calls)",
		len(topics), synth.Iterations, synth.ToolCalls)

	topics = s.dedup.FilterTopics(ctx, topics)
	if len(topics) == 0 {
		return nil, stats, fmt.Errorf("every topic was already surfaced by an earlier run")
	}

	userMsg, err := buildIdeationMessage(topics, s.now())
	if err != nil {
		return nil, stats, fmt.Errorf("ideation phase: %w", err)
	}
	ideation, err := s.engine.Run(ctx, RunSpec{
		System:    IdeaGenerationSystemPrompt,
		UserMsg:   userMsg,
		Tools:     []string{capability.ToolFetchArticle, capability.ToolWebSearch},
		Budget:    s.budgets.Ideation.Loop,
		MaxTokens: s.budgets.Ideation.MaxTokens,
		Nudge:     IdeasNudge,
	})
	stats.absorb(ideation)
	if err != nil {
		return nil, stats, fmt.Errorf("ideation phase: %w", err)
	}
	ideas, err := s.parseIdeas(ideation.Text)
	if err != nil {
		return nil, stats, fmt.Errorf("ideation phase: %w", err)
	}
	s.dedup.MarkSurfaced(ctx, ideas)
	s.logger.Printf("generated %d ideas in %d iterations (%d tool calls)",
		len(ideas), ideation.Iterations, ideation.ToolCalls)
	return s.ideasResult(ideas), stats, nil
}

// WritePost expands one idea into a finished post. The final turn's text is
// the artifact itself; no array extraction applies here.
func (s *Service) WritePost(ctx context.Context, idea models.Idea) (*models.PostResult, RunStats, error) {
	s.logger.Printf("generating post for idea: %s (%s)", idea.Title, s.engine.Model())
	var stats RunStats
	res, err := s.engine.Run(ctx, RunSpec{
		System:    PostGenerationSystemPrompt,
		UserMsg:   buildPostMessage(idea),
		Tools:     []string{capability.ToolFetchArticle, capability.ToolWebSearch},
		Budget:    s.budgets.Post.Loop,
		MaxTokens: s.budgets.Post.MaxTokens,
		Nudge:     PostNudge,
	})
	stats.absorb(res)
	if err != nil {
		return nil, stats, err
	}
	text := strings.TrimSpace(res.Text)
	if text == "" {
		return nil, stats, fmt.Errorf("post writer returned empty text")
	}
	s.logger.Printf("post finished: %d words in %d iterations (%d tool calls)",
		countWords(text), res.Iterations, res.ToolCalls)
	return &models.PostResult{
		Status:    "success",
		Post:      text,
		IdeaID:    idea.ID,
		IdeaTitle: idea.Title,
		WordCount: countWords(text),
	}, stats, nil
}

// parseIdeas extracts the idea array from the final turn. Invalid enum
// values are logged but kept; the formatter downstream falls back to
// neutral labels for them.
func (s *Service) parseIdeas(text string) ([]models.Idea, error) {
	var ideas []models.Idea
	if err := helpers.UnmarshalArray(text, &ideas); err != nil {
		return nil, err
	}
	for _, idea := range ideas {
		if err := idea.Validate(); err != nil {
			s.logger.Printf("idea %d failed validation: %v", idea.ID, err)
		}
	}
	return ideas, nil
}

func (s *Service) ideasResult(ideas []models.Idea) *models.IdeasResult {
	now := s.now()
	if loc, err := time.LoadLocation("Europe/Berlin"); err == nil {
		now = now.In(loc)
	}
	return &models.IdeasResult{
		Status:      "success",
		Ideas:       ideas,
		GeneratedAt: now,
		Model:       s.engine.Model(),
	}
}

func countWords(text string) int {
	return len(strings.Fields(text))
}
