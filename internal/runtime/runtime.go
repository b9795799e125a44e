// Package runtime wires configuration into running components. The server
// and the CLI both build their pipelines through it, so the construction
// order lives in exactly one place.
package runtime

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/autofyn/linkedgen/config"
	"github.com/autofyn/linkedgen/internal/agent"
	"github.com/autofyn/linkedgen/internal/capability"
	"github.com/autofyn/linkedgen/internal/dedup"
	"github.com/autofyn/linkedgen/internal/slack"
	"github.com/autofyn/linkedgen/internal/store"
	"github.com/autofyn/linkedgen/models"
	"github.com/autofyn/linkedgen/provider"
	"github.com/autofyn/linkedgen/tools/article_fetch"
	"github.com/autofyn/linkedgen/tools/feed_fetch"
	"github.com/autofyn/linkedgen/tools/web_search"
)

// Runtime bundles the wired components of one process. Store and Redis are
// nil when their backing services are not configured; the pipelines run
// stateless then.
type Runtime struct {
	Config  *config.Config
	Service *agent.Service
	Store   *store.Store
	Slack   *slack.Client
	Redis   *redis.Client
	Logger  *log.Logger
}

// New builds every component the configuration asks for. The LLM key is
// checked here rather than at config load, so commands that never talk to
// the model keep working without one.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Runtime, error) {
	if logger == nil {
		logger = log.New(log.Writer(), "[AGENT] ", log.LstdFlags)
	}

	prov, err := provider.NewProvider(provider.Anthropic, provider.Options{
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("building LLM provider: %w", err)
	}

	registry, err := buildRegistry(cfg.Tools)
	if err != nil {
		return nil, fmt.Errorf("building tool registry: %w", err)
	}

	rt := &Runtime{Config: cfg, Logger: logger}

	if cfg.Storage.Redis.Enabled() {
		client, err := dedup.NewClient(ctx, cfg.Storage.Redis.Addr, cfg.Storage.Redis.Password, cfg.Storage.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		rt.Redis = client
	}

	// The title index works without Redis; only the cross-run seen-URL
	// guard needs it.
	var seen *dedup.SeenStore
	if rt.Redis != nil {
		seen = dedup.NewSeenStore(rt.Redis, 0)
	}
	deduper := dedup.New(seen, nil)

	engine := agent.NewEngine(prov, registry, logger)
	svc := agent.NewService(engine, feedSources(cfg.Feeds), deduper, logger)
	svc.UseBudgets(budgetsFromConfig(cfg.Agent))
	rt.Service = svc

	if cfg.Storage.Postgres.Enabled() {
		st, err := store.NewWithDSN(ctx, cfg.Storage.Postgres.DSN())
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		rt.Store = st
	}

	rt.Slack = slack.NewClient(cfg.Slack.BotToken, cfg.Slack.ChannelID, nil)
	return rt, nil
}

// Close releases the runtime's connections.
func (rt *Runtime) Close() error {
	var first error
	if rt.Store != nil {
		if err := rt.Store.DB.Close(); err != nil {
			first = err
		}
	}
	if rt.Redis != nil {
		if err := rt.Redis.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// BeginRun opens a run record when history is enabled. An empty id means
// the run proceeds unrecorded; recording trouble never blocks a pipeline.
func (rt *Runtime) BeginRun(ctx context.Context, kind, trigger string) string {
	if rt.Store == nil {
		return ""
	}
	id, err := rt.Store.CreateRun(ctx, kind, trigger, rt.Service.Model())
	if err != nil {
		rt.Logger.Printf("run not recorded: %v", err)
		return ""
	}
	return id
}

// FinishRun closes the record on its own context; the pipeline context may
// already be past its deadline when a run fails.
func (rt *Runtime) FinishRun(runID, status, errMsg string, stats agent.RunStats) {
	if rt.Store == nil || runID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := rt.Store.FinishRun(ctx, runID, status, errMsg, stats); err != nil {
		rt.Logger.Printf("run %s: close failed: %v", runID, err)
	}
}

// buildRegistry constructs the fixed tool set from configuration.
func buildRegistry(cfg config.ToolsConfig) (*capability.Registry, error) {
	feeds, err := feed_fetch.NewFeedFetcher(feed_fetch.GofeedFetcherType, cfg.FeedTimeout)
	if err != nil {
		return nil, err
	}
	articles, err := article_fetch.NewArticleFetcher(article_fetch.FetcherType(cfg.ArticleFetcher), cfg.ArticleTimeout, cfg.ArticleMaxChars)
	if err != nil {
		return nil, fmt.Errorf("article fetcher %q: %w", cfg.ArticleFetcher, err)
	}
	search := web_search.NewClient(cfg.BraveAPIKey)
	return capability.NewRegistry(feeds, articles, search, nil)
}

func feedSources(feeds []config.FeedConfig) []models.FeedSource {
	out := make([]models.FeedSource, 0, len(feeds))
	for _, f := range feeds {
		out = append(out, models.FeedSource{Name: f.Name, URL: f.URL})
	}
	return out
}

func budgetsFromConfig(cfg config.AgentConfig) agent.Budgets {
	return agent.Budgets{
		Ideas:     phaseBudget(cfg.Ideas),
		Synthesis: phaseBudget(cfg.Synthesis),
		Ideation:  phaseBudget(cfg.Ideation),
		Post:      phaseBudget(cfg.Post),
	}
}

func phaseBudget(b config.BudgetConfig) agent.PhaseBudget {
	return agent.PhaseBudget{
		Loop:      agent.LoopBudget{MaxIterations: b.MaxIterations, ForceOutputAfter: b.ForceOutputAfter},
		MaxTokens: b.MaxTokens,
	}
}
