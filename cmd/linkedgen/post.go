package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/autofyn/linkedgen/config"
	"github.com/autofyn/linkedgen/internal/runtime"
	"github.com/autofyn/linkedgen/internal/store"
	"github.com/autofyn/linkedgen/models"
)

func postCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "post [input]",
		Short: "Write the full LinkedIn post for one idea",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in models.PostInput
			if err := readInput(args, &in); err != nil {
				return emitError(err)
			}
			if in.Idea == nil {
				return emitError(fmt.Errorf("input must contain an idea"))
			}

			cfg := config.LoadConfig(cfgPath)
			ctx := context.Background()
			rt, err := runtime.New(ctx, cfg, log.New(os.Stderr, "[AGENT] ", log.LstdFlags))
			if err != nil {
				return emitError(err)
			}
			defer rt.Close()

			runID := rt.BeginRun(ctx, store.RunKindPost, store.TriggerCLI)
			res, stats, err := rt.Service.WritePost(ctx, *in.Idea)
			if err != nil {
				rt.FinishRun(runID, store.RunStatusError, err.Error(), stats)
				return emitError(err)
			}
			rt.FinishRun(runID, store.RunStatusSuccess, "", stats)
			if rt.Store != nil && runID != "" {
				if _, serr := rt.Store.SavePost(ctx, runID, *res); serr != nil {
					rt.Logger.Printf("run %s: post not recorded: %v", runID, serr)
				}
			}
			return emit(res)
		},
	}
}
