package main

import (
	"github.com/spf13/cobra"

	"github.com/autofyn/linkedgen/config"
	srv "github.com/autofyn/linkedgen/internal/server"
	"github.com/autofyn/linkedgen/internal/store"
)

func migrateCMD() *cobra.Command {
	var dir string
	var dsn string
	var direction string
	var steps int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				cfg := config.LoadConfig(cfgPath)
				dsn = cfg.Storage.Postgres.DSN()
			}
			if dsn == "" {
				dsn = store.DSNFromEnv()
			}
			return srv.Migrate(dir, dsn, direction, steps)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "file://migrations", "migrations source (file://migrations)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "postgres DSN (defaults to config, then POSTGRES_* env)")
	cmd.Flags().StringVar(&direction, "direction", "up", "up or down")
	cmd.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")
	return cmd
}
