package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/autofyn/linkedgen/provider"
	provmodels "github.com/autofyn/linkedgen/provider/models"
)

// State classifies how a loop run ended.
type State string

const (
	// StateComplete means the model signalled natural completion.
	StateComplete State = "complete"
	// StateExhausted means the run hit its iteration budget, or the model
	// returned a stop reason the engine does not understand.
	StateExhausted State = "exhausted"
)

// ToolRunner is the slice of the capability registry the engine needs: a
// catalogue to advertise and an executor that never fails out of band.
type ToolRunner interface {
	Definitions(names ...string) []provmodels.ToolDefinition
	Execute(ctx context.Context, name string, input json.RawMessage) string
}

// RunSpec describes one loop invocation. Tools lists the catalogue subset by
// name; Nudge is the user turn injected once the tool-call budget is spent.
type RunSpec struct {
	System    string
	UserMsg   string
	Tools     []string
	Budget    LoopBudget
	MaxTokens int
	Nudge     string
}

// RunResult reports what a finished run produced and what it cost. Text is
// the concatenated text content of the model's final turn.
type RunResult struct {
	Text          string
	State         State
	Iterations    int
	ToolCalls     int
	NudgeInjected bool
	InputTokens   int
	OutputTokens  int
}

// BudgetExhaustedError reports a run that ended without a final answer.
type BudgetExhaustedError struct {
	Iterations int
}

func (e *BudgetExhaustedError) Error() string {
	return fmt.Sprintf("agent did not produce output after %d iterations", e.Iterations)
}

// refusalPayload answers tool requests issued after the catalogue was
// withdrawn. Such requests are never executed and never counted.
const refusalPayload = `{"error": "tool unavailable: final output required"}`

// Engine drives the model/tool loop for one phase at a time. It owns no
// state between runs; every Run builds a fresh conversation.
type Engine struct {
	provider provider.Provider
	tools    ToolRunner
	logger   *log.Logger
}

// NewEngine builds an engine on top of a provider and a tool runner. The
// provider is wrapped so every invocation retries transient overload.
func NewEngine(p provider.Provider, tools ToolRunner, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(log.Writer(), "[AGENT] ", log.LstdFlags)
	}
	return &Engine{provider: withOverloadRetry(p, logger), tools: tools, logger: logger}
}

// Model names the underlying provider model, for result envelopes.
func (e *Engine) Model() string {
	return e.provider.Model()
}

// Run executes the loop until the model completes naturally, the iteration
// budget runs out, or a model call fails. Once ForceOutputAfter tool calls
// have executed, the nudge is injected exactly once and the tool catalogue
// is omitted from every following request (an empty tool list upsets the
// API, so the field is dropped entirely).
//
// On exhaustion the partial result is returned alongside the error so
// callers can still record iterations and token spend.
func (e *Engine) Run(ctx context.Context, spec RunSpec) (*RunResult, error) {
	if err := spec.Budget.Validate(); err != nil {
		return nil, fmt.Errorf("invalid loop budget: %w", err)
	}

	conv := NewConversation()
	conv.AddUserText(spec.UserMsg)
	defs := e.tools.Definitions(spec.Tools...)

	result := &RunResult{}
	nudgeSent := false
	toolCalls := 0

	for iteration := 1; iteration <= spec.Budget.MaxIterations; iteration++ {
		result.Iterations = iteration
		e.logger.Printf("iteration %d/%d", iteration, spec.Budget.MaxIterations)

		forceOutput := toolCalls >= spec.Budget.ForceOutputAfter
		if forceOutput && !nudgeSent {
			e.logger.Printf("forcing output: injecting nudge, removing tools")
			conv.AddUserText(spec.Nudge)
			nudgeSent = true
			result.NudgeInjected = true
		}

		req := provmodels.Request{
			System:    spec.System,
			Messages:  conv.Messages(),
			MaxTokens: spec.MaxTokens,
		}
		if !forceOutput {
			req.Tools = defs
		}

		resp, err := e.provider.CreateMessage(ctx, req)
		if err != nil {
			result.ToolCalls = toolCalls
			return result, fmt.Errorf("model call failed on iteration %d: %w", iteration, err)
		}
		result.InputTokens += resp.Usage.InputTokens
		result.OutputTokens += resp.Usage.OutputTokens
		e.logger.Printf("stop reason: %s, tokens: %d in / %d out",
			resp.StopReason, resp.Usage.InputTokens, resp.Usage.OutputTokens)

		switch resp.StopReason {
		case provmodels.StopEndTurn:
			result.Text = resp.TextContent()
			result.State = StateComplete
			result.ToolCalls = toolCalls
			return result, nil

		case provmodels.StopToolUse:
			conv.AddAssistant(resp.Content)
			uses := resp.ToolUses()
			results := make([]provmodels.ContentBlock, 0, len(uses))
			for _, use := range uses {
				if forceOutput {
					e.logger.Printf("refusing tool call after forcing: %s", use.Name)
					results = append(results, provmodels.ContentBlock{
						Type:      provmodels.BlockToolResult,
						ToolUseID: use.ID,
						Content:   refusalPayload,
						IsError:   true,
					})
					continue
				}
				e.logger.Printf("tool call: %s(%s)", use.Name, previewArgs(use.Input))
				out := e.tools.Execute(ctx, use.Name, use.Input)
				toolCalls++
				results = append(results, provmodels.ContentBlock{
					Type:      provmodels.BlockToolResult,
					ToolUseID: use.ID,
					Content:   out,
				})
			}
			conv.AddToolResults(results)

		default:
			e.logger.Printf("unexpected stop reason: %s", resp.StopReason)
			result.State = StateExhausted
			result.ToolCalls = toolCalls
			return result, &BudgetExhaustedError{Iterations: spec.Budget.MaxIterations}
		}
	}

	result.State = StateExhausted
	result.ToolCalls = toolCalls
	return result, &BudgetExhaustedError{Iterations: spec.Budget.MaxIterations}
}

// previewArgs bounds logged tool arguments to roughly one log line.
func previewArgs(input json.RawMessage) string {
	const max = 100
	s := string(input)
	if len(s) > max {
		return s[:max]
	}
	return s
}
