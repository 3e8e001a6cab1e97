package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/yungbote/skillbridge-backend/internal/app"
)

func newRootCmd() *cobra.Command {
	var envFile string
	cmd := &cobra.Command{
		Use:           "skillbridge",
		Short:         "Skill knowledge-graph service and batch tools",
		Long:          "Builds a skill knowledge graph from programme modules, serves suggestions and degree matching, and runs the extraction pipeline.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnv(envFile, cmd.Flags().Changed("env-file"))
		},
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading configuration")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newProcessModulesCmd())
	cmd.AddCommand(newRebuildGraphCmd())
	cmd.AddCommand(newGenerateRelationsCmd())
	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newSeedCmd())
	return cmd
}

// loadEnv reads the dotenv file without overriding the process environment. A missing
// default file is fine; a missing explicit one is not.
func loadEnv(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil || (!explicit && errors.Is(err, fs.ErrNotExist)) {
		return nil
	}
	return fmt.Errorf("load env file %s: %w", path, err)
}

// withApp builds the application from the environment, applies overrides, and closes it
// after fn returns.
func withApp(ctx context.Context, override func(*app.Config), fn func(*app.App) error) error {
	cfg := app.LoadConfig()
	if override != nil {
		override(&cfg)
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
