package agent

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/autofyn/linkedgen/internal/capability"
	"github.com/autofyn/linkedgen/internal/dedup"
	"github.com/autofyn/linkedgen/internal/helpers"
	"github.com/autofyn/linkedgen/models"
	provmodels "github.com/autofyn/linkedgen/provider/models"
)

const ideasFixture = "```json\n" + `[
  {
    "id": 1,
    "title": "Agents statt Chatbots",
    "hook": "Dein Chatbot beantwortet Fragen. Ein Agent erledigt Arbeit.",
    "angle": "Der Unterschied liegt im Prozess, nicht im Modell.",
    "source": "rss_openai",
    "source_url": "https://example.com/agents",
    "source_title": "Agents Announcement",
    "estimated_tone": "direkt",
    "post_format": "erklärer"
  },
  {
    "id": 2,
    "title": "KI-Budget im Mittelstand",
    "hook": "80% der KI-Budgets versickern in Pilotprojekten.",
    "angle": "Ohne Prozessanschluss bleibt jedes Pilotprojekt ein Pilot.",
    "source": "web_research",
    "source_url": "https://example.com/studie",
    "source_title": "Studie",
    "estimated_tone": "pragmatisch",
    "post_format": "zahlen_analyse"
  }
]` + "\n```"

func newTestService(model *scriptedModel, feeds []models.FeedSource) *Service {
	logger := log.New(io.Discard, "", 0)
	engine := NewEngine(model, &recordingTools{}, logger)
	return NewService(engine, feeds, nil, logger)
}

func toolNames(defs []provmodels.ToolDefinition) []string {
	names := make([]string, 0, len(defs))
	for _, def := range defs {
		names = append(names, def.Name)
	}
	return names
}

func TestGenerateIdeas(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{replies: []*provmodels.Response{textReply(ideasFixture)}}
	svc := newTestService(model, nil)

	res, stats, err := svc.GenerateIdeas(context.Background(), models.GenerateInput{
		EmailContent: "Neues aus der Startup-Welt.",
	})
	if err != nil {
		t.Fatalf("GenerateIdeas returned error: %v", err)
	}
	if res.Status != "success" || res.Model != "test-model" {
		t.Fatalf("envelope = %+v, want success from test-model", res)
	}
	if len(res.Ideas) != 2 || res.Ideas[0].Title != "Agents statt Chatbots" {
		t.Fatalf("ideas = %+v, want the two fixture ideas", res.Ideas)
	}
	if res.GeneratedAt.IsZero() {
		t.Fatal("GeneratedAt is zero")
	}
	if stats.Iterations != 1 || stats.InputTokens != 10 || stats.OutputTokens != 5 {
		t.Fatalf("stats = %+v, want the single run's counters", stats)
	}

	req := model.requests[0]
	if req.System != IdeaGenerationSystemPrompt {
		t.Fatal("single-phase run must use the idea generation prompt")
	}
	if req.MaxTokens != ideasMaxTokens {
		t.Fatalf("MaxTokens = %d, want %d", req.MaxTokens, ideasMaxTokens)
	}
	want := []string{capability.ToolFetchRSS, capability.ToolFetchArticle, capability.ToolWebSearch}
	got := toolNames(req.Tools)
	if len(got) != len(want) {
		t.Fatalf("catalogue = %v, want full set %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("catalogue[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestGenerateIdeasParseFailure(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{replies: []*provmodels.Response{textReply("Heute leider keine Ideen.")}}
	svc := newTestService(model, nil)

	_, _, err := svc.GenerateIdeas(context.Background(), models.GenerateInput{})
	var noArray *helpers.NoArrayError
	if !errors.As(err, &noArray) {
		t.Fatalf("error = %v, want NoArrayError", err)
	}
	if !strings.Contains(noArray.Prefix, "keine Ideen") {
		t.Fatalf("diagnostic prefix = %q, want the offending text", noArray.Prefix)
	}
}

func TestGenerateIdeasTwoPhase(t *testing.T) {
	t.Parallel()

	synthesisReply := textReply("Meine Analyse der Feeds ist fertig.\n```json\n" + `[
  {
    "topic_id": 1,
    "title": "Topic Alpha",
    "age_hours": 6,
    "primary_url": "https://example.com/alpha",
    "sources": ["techcrunch", "heise"],
    "summary": "Story Alpha in zwei Sätzen."
  }
]` + "\n```")
	model := &scriptedModel{replies: []*provmodels.Response{synthesisReply, textReply(ideasFixture)}}
	feeds := []models.FeedSource{{Name: "openai", URL: "https://openai.com/news/rss.xml"}}
	svc := newTestService(model, feeds)

	res, stats, err := svc.GenerateIdeasTwoPhase(context.Background(), models.GenerateInput{})
	if err != nil {
		t.Fatalf("GenerateIdeasTwoPhase returned error: %v", err)
	}
	if len(res.Ideas) != 2 {
		t.Fatalf("got %d ideas, want 2", len(res.Ideas))
	}
	if stats.Iterations != 2 || stats.InputTokens != 20 || stats.OutputTokens != 10 {
		t.Fatalf("stats = %+v, want counters summed over both phases", stats)
	}

	synthesis := model.requests[0]
	if synthesis.System != SynthesisSystemPrompt {
		t.Fatal("phase 1 must use the synthesis prompt")
	}
	if got := toolNames(synthesis.Tools); len(got) != 1 || got[0] != capability.ToolFetchRSS {
		t.Fatalf("phase 1 catalogue = %v, want only fetch_rss", got)
	}
	if !strings.Contains(synthesis.Messages[0].Content[0].Text, "https://openai.com/news/rss.xml") {
		t.Fatal("phase 1 user message misses the feed catalogue")
	}

	ideation := model.requests[1]
	if ideation.System != IdeaGenerationSystemPrompt {
		t.Fatal("phase 2 must use the idea generation prompt")
	}
	got := toolNames(ideation.Tools)
	if len(got) != 2 || got[0] != capability.ToolFetchArticle || got[1] != capability.ToolWebSearch {
		t.Fatalf("phase 2 catalogue = %v, want fetch_article and web_search", got)
	}

	// The parsed topics are the only data crossing the phase boundary.
	if len(ideation.Messages) != 1 {
		t.Fatalf("phase 2 starts with %d turns, want a fresh conversation of 1", len(ideation.Messages))
	}
	phase2Text := ideation.Messages[0].Content[0].Text
	if !strings.Contains(phase2Text, `"title": "Topic Alpha"`) {
		t.Fatalf("phase 2 input misses the topics:\n%s", phase2Text)
	}
	if strings.Contains(phase2Text, "Meine Analyse der Feeds") {
		t.Fatalf("phase 1 conversation text leaked into phase 2:\n%s", phase2Text)
	}
}

func TestGenerateIdeasTwoPhaseFiltersDuplicateTopics(t *testing.T) {
	t.Parallel()

	synthesisReply := textReply(`[
  {"topic_id": 1, "title": "OpenAI stellt GPT-5 vor", "summary": "Erste Meldung."},
  {"topic_id": 2, "title": "OpenAI stellt GPT-5 vor", "summary": "Gleiche Story, zweiter Feed."}
]`)
	model := &scriptedModel{replies: []*provmodels.Response{synthesisReply, textReply(ideasFixture)}}
	logger := log.New(io.Discard, "", 0)
	engine := NewEngine(model, &recordingTools{}, logger)
	svc := NewService(engine, nil, dedup.New(nil, logger), logger)

	if _, _, err := svc.GenerateIdeasTwoPhase(context.Background(), models.GenerateInput{}); err != nil {
		t.Fatalf("GenerateIdeasTwoPhase returned error: %v", err)
	}

	phase2Text := model.requests[1].Messages[0].Content[0].Text
	if got := strings.Count(phase2Text, "OpenAI stellt GPT-5 vor"); got != 1 {
		t.Fatalf("duplicate topic reached ideation %d times, want 1:\n%s", got, phase2Text)
	}
	if strings.Contains(phase2Text, "zweiter Feed") {
		t.Fatalf("filtered topic leaked into ideation input:\n%s", phase2Text)
	}
}

func TestGenerateIdeasTwoPhaseEmptyTopics(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{replies: []*provmodels.Response{textReply("[]")}}
	svc := newTestService(model, nil)

	_, _, err := svc.GenerateIdeasTwoPhase(context.Background(), models.GenerateInput{})
	if err == nil || !strings.Contains(err.Error(), "no topics") {
		t.Fatalf("error = %v, want empty-topics failure", err)
	}
	if len(model.requests) != 1 {
		t.Fatalf("model called %d times, want synthesis only", len(model.requests))
	}
}

func TestWritePost(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{replies: []*provmodels.Response{
		textReply("\n\nDer fertige Post.\n\n#KI #Automatisierung\n"),
	}}
	svc := newTestService(model, nil)

	idea := models.Idea{
		ID:        3,
		Title:     "Feature-Fatigue",
		Hook:      "Hook",
		Angle:     "Winkel",
		Source:    models.SourceRSSOpenAI,
		SourceURL: "https://example.com/artikel",
	}
	res, _, err := svc.WritePost(context.Background(), idea)
	if err != nil {
		t.Fatalf("WritePost returned error: %v", err)
	}
	if res.Post != "Der fertige Post.\n\n#KI #Automatisierung" {
		t.Fatalf("Post = %q, want trimmed text", res.Post)
	}
	if res.IdeaID != 3 || res.IdeaTitle != "Feature-Fatigue" {
		t.Fatalf("idea echo = %d/%q, want 3/Feature-Fatigue", res.IdeaID, res.IdeaTitle)
	}
	if res.WordCount != 5 {
		t.Fatalf("WordCount = %d, want 5", res.WordCount)
	}

	req := model.requests[0]
	if req.System != PostGenerationSystemPrompt {
		t.Fatal("post run must use the ghostwriter prompt")
	}
	if req.MaxTokens != postMaxTokens {
		t.Fatalf("MaxTokens = %d, want %d", req.MaxTokens, postMaxTokens)
	}
	if got := toolNames(req.Tools); len(got) != 2 || got[0] != capability.ToolFetchArticle || got[1] != capability.ToolWebSearch {
		t.Fatalf("catalogue = %v, want fetch_article and web_search", got)
	}
	if !strings.Contains(req.Messages[0].Content[0].Text, "**Quell-URL**: https://example.com/artikel") {
		t.Fatal("user message misses the source url")
	}
}

func TestWritePostEmptyText(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{replies: []*provmodels.Response{textReply("   \n ")}}
	svc := newTestService(model, nil)

	_, _, err := svc.WritePost(context.Background(), models.Idea{ID: 1, Title: "T"})
	if err == nil || !strings.Contains(err.Error(), "empty") {
		t.Fatalf("error = %v, want empty-text failure", err)
	}
}
