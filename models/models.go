package models

import (
	"fmt"
	"strings"
	"time"
)

// IdeaSource identifies where an idea was researched from.
type IdeaSource string

const (
	SourceRSSOpenAI    IdeaSource = "rss_openai"
	SourceRSSAnthropic IdeaSource = "rss_anthropic"
	SourceEmailPodcast IdeaSource = "email_podcast"
	SourceWebResearch  IdeaSource = "web_research"
)

// Tone is the voice a post should be written in.
type Tone string

const (
	ToneDirekt        Tone = "direkt"
	ToneIronisch      Tone = "ironisch"
	TonePragmatisch   Tone = "pragmatisch"
	ToneThoughtLeader Tone = "thought_leader"
)

// PostFormat selects one of the fixed post templates.
type PostFormat string

const (
	FormatStory         PostFormat = "story"
	FormatErklaerer     PostFormat = "erklärer"
	FormatHotTake       PostFormat = "hot_take"
	FormatZahlenAnalyse PostFormat = "zahlen_analyse"
	FormatMiniFramework PostFormat = "mini_framework"
)

// Topic is one deduplicated news item produced by the synthesis phase.
type Topic struct {
	TopicID    int      `json:"topic_id"`
	Title      string   `json:"title"`
	AgeHours   float64  `json:"age_hours"`
	PrimaryURL string   `json:"primary_url"`
	Sources    []string `json:"sources"`
	Summary    string   `json:"summary"`
}

// Idea is one LinkedIn post idea as emitted by the model.
type Idea struct {
	ID            int        `json:"id"`
	Title         string     `json:"title"`
	Hook          string     `json:"hook"`
	Angle         string     `json:"angle"`
	Source        IdeaSource `json:"source"`
	SourceURL     string     `json:"source_url"`
	SourceTitle   string     `json:"source_title,omitempty"`
	EstimatedTone Tone       `json:"estimated_tone"`
	PostFormat    PostFormat `json:"post_format"`
}

// Validate checks the fields the downstream pipeline depends on. The model
// occasionally invents enum values; those surface here instead of deep in
// the Slack formatter.
func (i Idea) Validate() error {
	if strings.TrimSpace(i.Title) == "" {
		return fmt.Errorf("idea %d: empty title", i.ID)
	}
	switch i.Source {
	case SourceRSSOpenAI, SourceRSSAnthropic, SourceEmailPodcast, SourceWebResearch:
	default:
		return fmt.Errorf("idea %d: unknown source %q", i.ID, i.Source)
	}
	switch i.EstimatedTone {
	case ToneDirekt, ToneIronisch, TonePragmatisch, ToneThoughtLeader:
	default:
		return fmt.Errorf("idea %d: unknown tone %q", i.ID, i.EstimatedTone)
	}
	switch i.PostFormat {
	case FormatStory, FormatErklaerer, FormatHotTake, FormatZahlenAnalyse, FormatMiniFramework:
	default:
		return fmt.Errorf("idea %d: unknown post_format %q", i.ID, i.PostFormat)
	}
	return nil
}

// FeedItem is one entry of an input RSS list embedded into the user message.
type FeedItem struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Summary string `json:"summary,omitempty"`
}

// FeedSource names one RSS feed the synthesis phase gathers itself.
type FeedSource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// GenerateInput is the request payload for the idea pipeline. All fields are
// optional; an empty input still produces ideas from web research alone.
type GenerateInput struct {
	Subject      string     `json:"subject,omitempty"`
	EmailContent string     `json:"email_content,omitempty"`
	RSSOpenAI    []FeedItem `json:"rss_openai,omitempty"`
	RSSAnthropic []FeedItem `json:"rss_anthropic,omitempty"`
	ResponseURL  string     `json:"response_url,omitempty"`
	ChannelID    string     `json:"channel_id,omitempty"`
}

// PostInput is the request payload for the post pipeline.
type PostInput struct {
	Idea        *Idea  `json:"idea"`
	ResponseURL string `json:"response_url,omitempty"`
	ChannelID   string `json:"channel_id,omitempty"`
}

// IdeasResult is the success envelope for an idea run.
type IdeasResult struct {
	Status      string    `json:"status"`
	Ideas       []Idea    `json:"ideas"`
	GeneratedAt time.Time `json:"generated_at"`
	Model       string    `json:"model"`
}

// PostResult is the success envelope for a post run.
type PostResult struct {
	Status    string `json:"status"`
	Post      string `json:"post"`
	IdeaID    int    `json:"idea_id"`
	IdeaTitle string `json:"idea_title"`
	WordCount int    `json:"word_count"`
}

// ErrorResult is the user-facing failure envelope. Message stays short and
// free of internals.
type ErrorResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
