package agent

import "fmt"

// LoopBudget bounds a single loop run: how many model calls it may make in
// total, and after how many executed tool calls the engine stops offering
// tools and forces the final answer.
type LoopBudget struct {
	MaxIterations    int
	ForceOutputAfter int
}

// Validate ensures the budget values are sane before use.
func (b LoopBudget) Validate() error {
	if b.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive")
	}
	if b.ForceOutputAfter <= 0 {
		return fmt.Errorf("force_output_after must be positive")
	}
	if b.ForceOutputAfter > b.MaxIterations {
		return fmt.Errorf("force_output_after (%d) cannot exceed max_iterations (%d)", b.ForceOutputAfter, b.MaxIterations)
	}
	return nil
}

// Per-phase defaults. Synthesis gets the widest budget because fanning out
// over many feeds is expected before forcing; post writing gets the smallest
// because one article fetch is usually enough.
var (
	IdeasBudget     = LoopBudget{MaxIterations: 10, ForceOutputAfter: 6}
	SynthesisBudget = LoopBudget{MaxIterations: 12, ForceOutputAfter: 8}
	IdeationBudget  = LoopBudget{MaxIterations: 8, ForceOutputAfter: 4}
	PostBudget      = LoopBudget{MaxIterations: 6, ForceOutputAfter: 3}
)

// Output caps per phase. Idea lists need room; a single post does not.
const (
	ideasMaxTokens = 4096
	postMaxTokens  = 2048
)

// PhaseBudget pairs the loop bounds of one pipeline with its output cap.
type PhaseBudget struct {
	Loop      LoopBudget
	MaxTokens int
}

// Budgets carries the budget of every pipeline the service runs.
type Budgets struct {
	Ideas     PhaseBudget
	Synthesis PhaseBudget
	Ideation  PhaseBudget
	Post      PhaseBudget
}

// DefaultBudgets returns the stock per-phase budgets.
func DefaultBudgets() Budgets {
	return Budgets{
		Ideas:     PhaseBudget{Loop: IdeasBudget, MaxTokens: ideasMaxTokens},
		Synthesis: PhaseBudget{Loop: SynthesisBudget, MaxTokens: ideasMaxTokens},
		Ideation:  PhaseBudget{Loop: IdeationBudget, MaxTokens: ideasMaxTokens},
		Post:      PhaseBudget{Loop: PostBudget, MaxTokens: postMaxTokens},
	}
}
