package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	provmodels "github.com/autofyn/linkedgen/provider/models"
	"github.com/autofyn/linkedgen/tools/article_fetch"
	"github.com/autofyn/linkedgen/tools/feed_fetch"
	searchmodels "github.com/autofyn/linkedgen/tools/web_search/models"
)

// The closed tool set. There is deliberately no way to register more.
const (
	ToolFetchRSS     = "fetch_rss"
	ToolFetchArticle = "fetch_article"
	ToolWebSearch    = "web_search"
)

// ToolCard describes one callable tool to the model.
type ToolCard struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

// DefaultToolCards returns the built-in catalogue in its canonical order.
func DefaultToolCards() []ToolCard {
	return []ToolCard{
		{
			Name: ToolFetchRSS,
			Description: "Fetches and parses an RSS feed, returning the latest articles " +
				"with title, link, summary, and published date. Use this to get " +
				"fresh content from OpenAI Blog, Anthropic Blog, or other feeds.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"url": map[string]interface{}{
						"type":        "string",
						"description": "The RSS feed URL",
					},
					"max_items": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of items to return (default: 8)",
						"default":     8,
					},
				},
				"required": []string{"url"},
			},
		},
		{
			Name: ToolFetchArticle,
			Description: "Fetches and extracts the main text content from a web article URL. " +
				"Use this to get the full article text when the RSS summary is too short " +
				"to understand what the article is about. Returns the first ~3000 characters.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"url": map[string]interface{}{
						"type":        "string",
						"description": "The article URL to read",
					},
				},
				"required": []string{"url"},
			},
		},
		{
			Name: ToolWebSearch,
			Description: "Searches the web for current information. Use to find context, reactions, " +
				"German market perspective, or additional details on a topic. " +
				"Good for finding: recent stats, expert reactions, German-language coverage.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "Search query in German or English",
					},
					"max_results": map[string]interface{}{
						"type":        "integer",
						"description": "Number of results to return (default: 5)",
						"default":     5,
					},
				},
				"required": []string{"query"},
			},
		},
	}
}

// ErrToolMissing is returned when the registry is built without one of the
// fixed tool implementations.
var ErrToolMissing = fmt.Errorf("tool implementation missing")

// Searcher is the query side of the web_search tool.
type Searcher interface {
	Search(ctx context.Context, q string, k int) searchmodels.ResultSet
}

// Registry owns the fixed tool set and executes model tool calls against it.
// Execution failures never surface as Go errors; they come back as error
// payloads the model can read.
type Registry struct {
	cards    []ToolCard
	feeds    feed_fetch.FeedFetcher
	articles article_fetch.ArticleFetcher
	search   Searcher
	logger   *log.Logger
}

func NewRegistry(feeds feed_fetch.FeedFetcher, articles article_fetch.ArticleFetcher, search Searcher, logger *log.Logger) (*Registry, error) {
	if feeds == nil || articles == nil || search == nil {
		return nil, ErrToolMissing
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[TOOLS] ", log.LstdFlags)
	}
	return &Registry{
		cards:    DefaultToolCards(),
		feeds:    feeds,
		articles: articles,
		search:   search,
		logger:   logger,
	}, nil
}

// Definitions serializes the catalogue for the LLM wire. Passing names
// restricts and orders the catalogue; no names means every tool.
func (r *Registry) Definitions(names ...string) []provmodels.ToolDefinition {
	cards := r.cards
	if len(names) > 0 {
		sel := make([]ToolCard, 0, len(names))
		for _, n := range names {
			for _, c := range r.cards {
				if c.Name == n {
					sel = append(sel, c)
					break
				}
			}
		}
		cards = sel
	}
	defs := make([]provmodels.ToolDefinition, 0, len(cards))
	for _, c := range cards {
		defs = append(defs, provmodels.ToolDefinition{
			Name:        c.Name,
			Description: c.Description,
			InputSchema: c.InputSchema,
		})
	}
	return defs
}

// Execute dispatches one tool call and returns the JSON payload for the
// tool_result turn. Unknown names and bad input become error payloads.
func (r *Registry) Execute(ctx context.Context, name string, input json.RawMessage) string {
	t0 := time.Now()
	defer func() {
		r.logger.Printf("tool %s finished in %s", name, time.Since(t0).Round(time.Millisecond))
	}()

	switch name {
	case ToolFetchRSS:
		var args struct {
			URL      string `json:"url"`
			MaxItems int    `json:"max_items"`
		}
		if payload, ok := decodeArgs(input, &args); !ok {
			return payload
		}
		if args.URL == "" {
			return errorPayload("missing required parameter: url")
		}
		res, err := r.feeds.Fetch(ctx, args.URL, args.MaxItems)
		if err != nil {
			return errorPayload(err.Error())
		}
		return marshalPayload(res)

	case ToolFetchArticle:
		var args struct {
			URL string `json:"url"`
		}
		if payload, ok := decodeArgs(input, &args); !ok {
			return payload
		}
		if args.URL == "" {
			return errorPayload("missing required parameter: url")
		}
		res, err := r.articles.Exec(ctx, args.URL)
		if err != nil {
			return errorPayload(err.Error())
		}
		return marshalPayload(res)

	case ToolWebSearch:
		var args struct {
			Query      string `json:"query"`
			MaxResults int    `json:"max_results"`
		}
		if payload, ok := decodeArgs(input, &args); !ok {
			return payload
		}
		if args.Query == "" {
			return errorPayload("missing required parameter: query")
		}
		return marshalPayload(r.search.Search(ctx, args.Query, args.MaxResults))

	default:
		return errorPayload(fmt.Sprintf("Unknown tool: %s", name))
	}
}

func decodeArgs(input json.RawMessage, v interface{}) (string, bool) {
	if len(input) == 0 {
		return "", true
	}
	if err := json.Unmarshal(input, v); err != nil {
		return errorPayload("invalid tool input: " + err.Error()), false
	}
	return "", true
}

func errorPayload(msg string) string {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return string(b)
}

func marshalPayload(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return errorPayload("failed to encode tool result: " + err.Error())
	}
	return string(b)
}
