package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/autofyn/linkedgen/config"
	"github.com/autofyn/linkedgen/internal/agent"
	"github.com/autofyn/linkedgen/internal/runtime"
	"github.com/autofyn/linkedgen/internal/store"
	"github.com/autofyn/linkedgen/models"
)

func generateCMD() *cobra.Command {
	var twoPhase bool
	cmd := &cobra.Command{
		Use:   "generate [input]",
		Short: "Generate LinkedIn post ideas and print them as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in models.GenerateInput
			if err := readInput(args, &in); err != nil {
				return emitError(err)
			}

			cfg := config.LoadConfig(cfgPath)
			ctx := context.Background()
			rt, err := runtime.New(ctx, cfg, log.New(os.Stderr, "[AGENT] ", log.LstdFlags))
			if err != nil {
				return emitError(err)
			}
			defer rt.Close()

			runID := rt.BeginRun(ctx, store.RunKindIdeas, store.TriggerCLI)

			var (
				res   *models.IdeasResult
				stats agent.RunStats
			)
			if twoPhase {
				res, stats, err = rt.Service.GenerateIdeasTwoPhase(ctx, in)
			} else {
				res, stats, err = rt.Service.GenerateIdeas(ctx, in)
			}
			if err != nil {
				rt.FinishRun(runID, store.RunStatusError, err.Error(), stats)
				return emitError(err)
			}
			rt.FinishRun(runID, store.RunStatusSuccess, "", stats)
			if rt.Store != nil && runID != "" {
				if serr := rt.Store.SaveIdeas(ctx, runID, res.Ideas); serr != nil {
					rt.Logger.Printf("run %s: idea batch not recorded: %v", runID, serr)
				}
			}
			return emit(res)
		},
	}
	cmd.Flags().BoolVar(&twoPhase, "two-phase", false, "split research and ideation into two agent runs")
	return cmd
}

// readInput decodes the optional argument: a file path when it looks like
// one, inline JSON otherwise. No argument means an empty input.
func readInput(args []string, dst interface{}) error {
	if len(args) == 0 {
		return nil
	}
	raw := args[0]
	if strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "./") {
		b, err := os.ReadFile(raw)
		if err != nil {
			return fmt.Errorf("reading input file: %w", err)
		}
		if err := json.Unmarshal(b, dst); err != nil {
			return fmt.Errorf("parsing input file: %w", err)
		}
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("parsing input: %w", err)
	}
	return nil
}

// emit prints one single-line JSON envelope on stdout; everything else in
// this process logs to stderr.
func emit(v interface{}) error {
	return json.NewEncoder(os.Stdout).Encode(v)
}

// emitError prints the failure envelope and returns the error so the
// process exits non-zero.
func emitError(err error) error {
	_ = emit(models.ErrorResult{Status: "error", Message: err.Error()})
	return err
}
