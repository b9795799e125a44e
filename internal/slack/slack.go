// Package slack delivers idea lists, finished posts, and error notices to
// the team channel via Block Kit. Delivery failures are reported to the
// caller and never retried; the generation pipeline does not depend on
// Slack being reachable.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/autofyn/linkedgen/internal/helpers"
	"github.com/autofyn/linkedgen/models"
)

const (
	defaultAPIURL = "https://slack.com/api/chat.postMessage"

	apiTimeout      = 15 * time.Second
	callbackTimeout = 10 * time.Second
)

var toneEmoji = map[models.Tone]string{
	models.ToneDirekt:        "🎯",
	models.ToneIronisch:      "😏",
	models.TonePragmatisch:   "🔧",
	models.ToneThoughtLeader: "💡",
}

var formatEmoji = map[models.PostFormat]string{
	models.FormatStory:         "📖",
	models.FormatErklaerer:     "📚",
	models.FormatHotTake:       "🔥",
	models.FormatZahlenAnalyse: "📊",
	models.FormatMiniFramework: "🔧",
}

var sourceLabels = map[models.IdeaSource]string{
	models.SourceRSSOpenAI:    "OpenAI Blog",
	models.SourceRSSAnthropic: "Anthropic News",
	models.SourceEmailPodcast: "Startup Insider",
	models.SourceWebResearch:  "Web-Recherche",
}

// TextObject is a Block Kit text element.
type TextObject struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

// Button is the accessory that hands an idea back through an interaction.
type Button struct {
	Type     string      `json:"type"`
	Text     *TextObject `json:"text"`
	Value    string      `json:"value"`
	ActionID string      `json:"action_id"`
	Style    string      `json:"style,omitempty"`
}

// Block is one Block Kit layout block. Type selects which fields apply.
type Block struct {
	Type      string       `json:"type"`
	Text      *TextObject  `json:"text,omitempty"`
	Elements  []TextObject `json:"elements,omitempty"`
	Accessory *Button      `json:"accessory,omitempty"`
}

func mrkdwn(text string) *TextObject {
	return &TextObject{Type: "mrkdwn", Text: text}
}

func plainText(text string) *TextObject {
	return &TextObject{Type: "plain_text", Text: text, Emoji: true}
}

func divider() Block {
	return Block{Type: "divider"}
}

// Client posts Block Kit messages with a bot token. A single-use callback
// URL, when present, is preferred over the channel API.
type Client struct {
	token      string
	channel    string
	apiURL     string
	httpClient *http.Client
	logger     *log.Logger
	now        func() time.Time
}

// NewClient builds a Slack client for one bot token and channel.
func NewClient(token, channel string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(log.Writer(), "[SLACK] ", log.LstdFlags)
	}
	return &Client{
		token:      token,
		channel:    channel,
		apiURL:     defaultAPIURL,
		httpClient: &http.Client{Timeout: apiTimeout},
		logger:     logger,
		now:        time.Now,
	}
}

// WithChannel returns a copy of the client posting to the given channel.
// Requests may name their own target; an empty channel keeps the default.
func (c *Client) WithChannel(channel string) *Client {
	if channel == "" || channel == c.channel {
		return c
	}
	clone := *c
	clone.channel = channel
	return &clone
}

// PostIdeas renders the idea list with one Ausarbeiten button per idea and
// posts it to the channel.
func (c *Client) PostIdeas(ctx context.Context, ideas []models.Idea) error {
	blocks := []Block{
		{Type: "header", Text: plainText(fmt.Sprintf("🟣 LinkedIn Post Ideen – %s", helpers.BerlinDate(c.now())))},
		{Type: "context", Elements: []TextObject{
			{Type: "mrkdwn", Text: fmt.Sprintf("%d Ideen · Klicke *Ausarbeiten* für einen vollständigen Post", len(ideas))},
		}},
		divider(),
	}
	for _, idea := range ideas {
		block, err := ideaBlock(idea)
		if err != nil {
			return err
		}
		blocks = append(blocks, block, divider())
	}
	return c.postBlocks(ctx, blocks)
}

// PostResult delivers a finished post. The callback URL takes precedence;
// on any callback failure the channel API is used instead.
func (c *Client) PostResult(ctx context.Context, post string, idea models.Idea, responseURL string) error {
	blocks := []Block{
		{Type: "header", Text: plainText("✍️ Dein LinkedIn Post ist fertig!")},
		{Type: "section", Text: mrkdwn(fmt.Sprintf("*Idee:* %s · %d Wörter", idea.Title, len(strings.Fields(post))))},
		divider(),
		{Type: "section", Text: mrkdwn("```\n" + post + "\n```")},
		{Type: "context", Elements: []TextObject{
			{Type: "mrkdwn", Text: "_Kopiere den Text oben und paste ihn direkt in LinkedIn_ 👆"},
		}},
	}

	if responseURL != "" {
		err := c.postCallback(ctx, responseURL, blocks)
		if err == nil {
			c.logger.Printf("post delivered via response_url")
			return nil
		}
		c.logger.Printf("response_url failed (%v), falling back to Slack API", err)
	}
	return c.postBlocks(ctx, blocks)
}

// PostError sends a short failure notice to the channel.
func (c *Client) PostError(ctx context.Context, message string) error {
	return c.postBlocks(ctx, []Block{
		{Type: "section", Text: mrkdwn("❌ " + message)},
	})
}

func ideaBlock(idea models.Idea) (Block, error) {
	tone, ok := toneEmoji[idea.EstimatedTone]
	if !ok {
		tone = "🟣"
	}
	prefix := tone
	if fmtEmoji, ok := formatEmoji[idea.PostFormat]; ok {
		prefix = fmtEmoji + " " + tone
	}
	label, ok := sourceLabels[idea.Source]
	if !ok {
		label = string(idea.Source)
	}
	sourceText := "📌 " + label
	if idea.SourceURL != "" {
		sourceText += fmt.Sprintf(" · <%s|Link>", idea.SourceURL)
	}
	formatTag := ""
	if idea.PostFormat != "" {
		formatTag = fmt.Sprintf("  `%s`", idea.PostFormat)
	}

	value, err := json.Marshal(struct {
		IdeaID int         `json:"idea_id"`
		Idea   models.Idea `json:"idea"`
	}{IdeaID: idea.ID, Idea: idea})
	if err != nil {
		return Block{}, fmt.Errorf("failed to encode idea %d for button value: %w", idea.ID, err)
	}

	text := fmt.Sprintf("%s *%d. %s*%s\n> %s\n_%s_\n%s",
		prefix, idea.ID, idea.Title, formatTag, idea.Hook, idea.Angle, sourceText)
	return Block{
		Type: "section",
		Text: mrkdwn(text),
		Accessory: &Button{
			Type:     "button",
			Text:     plainText("Ausarbeiten ✍️"),
			Value:    string(value),
			ActionID: fmt.Sprintf("ausarbeiten_%d", idea.ID),
			Style:    "primary",
		},
	}, nil
}

// postCallback hits a single-use response URL. Its payload replaces nothing
// so the original idea message stays visible.
func (c *Client) postCallback(ctx context.Context, responseURL string, blocks []Block) error {
	body, err := json.Marshal(map[string]interface{}{
		"blocks":           blocks,
		"replace_original": false,
	})
	if err != nil {
		return fmt.Errorf("failed to encode callback payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, callbackTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, responseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("callback request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("callback returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) postBlocks(ctx context.Context, blocks []Block) error {
	if c.token == "" || c.channel == "" {
		return fmt.Errorf("slack bot token or channel id missing")
	}

	body, err := json.Marshal(map[string]interface{}{
		"channel": c.channel,
		"blocks":  blocks,
	})
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("slack request failed: %w", err)
	}
	defer resp.Body.Close()

	var reply struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&reply); err != nil {
		return fmt.Errorf("failed to decode slack response: %w", err)
	}
	if !reply.OK {
		if reply.Error == "" {
			reply.Error = "unknown"
		}
		return fmt.Errorf("slack API error: %s", reply.Error)
	}
	c.logger.Printf("posted to slack channel %s", c.channel)
	return nil
}
