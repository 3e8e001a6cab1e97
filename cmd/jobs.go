package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/skillbridge-backend/internal/app"
	types "github.com/yungbote/skillbridge-backend/internal/domain"
	"github.com/yungbote/skillbridge-backend/internal/pipeline"
	"github.com/yungbote/skillbridge-backend/internal/services"
)

func newProcessModulesCmd() *cobra.Command {
	var (
		limit       int
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "process-modules",
		Short: "Extract and persist skills for unprocessed modules",
		RunE: func(cmd *cobra.Command, args []string) error {
			// First signal stops new units; in-flight units still finish.
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			override := func(cfg *app.Config) {
				if concurrency > 0 {
					cfg.Pipeline.Concurrency = concurrency
				}
			}
			return withApp(ctx, override, func(a *app.App) error {
				var rep pipeline.Report
				payload := map[string]int{"limit": limit, "concurrency": concurrency}
				_, err := a.Services.Jobs.Track(ctx, types.JobTypeProcessModules, "cli", payload, func(ctx context.Context) (any, error) {
					var err error
					rep, err = a.Services.Processor.Run(ctx, limit)
					return rep, err
				})
				if err != nil {
					return err
				}
				if err := printJSON(cmd.OutOrStdout(), rep); err != nil {
					return err
				}
				if len(rep.Failed) > 0 || len(rep.Malformed) > 0 {
					return fmt.Errorf("%d of %d modules failed", len(rep.Failed)+len(rep.Malformed), rep.Attempted)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum modules to select (0 = PIPELINE_BATCH_LIMIT)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "units in flight (0 = PIPELINE_CONCURRENCY)")
	return cmd
}

func newRebuildGraphCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild-graph",
		Short: "Sync relational skills into the graph store and recompute co-occurrence",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), nil, func(a *app.App) error {
				var rep *services.RebuildReport
				_, err := a.Services.Jobs.Track(cmd.Context(), types.JobTypeRebuildGraph, "cli", nil, func(ctx context.Context) (any, error) {
					var err error
					rep, err = a.Services.Graph.Rebuild(ctx)
					return rep, err
				})
				if rep != nil {
					if perr := printJSON(cmd.OutOrStdout(), rep); perr != nil && err == nil {
						err = perr
					}
				}
				return err
			})
		},
	}
}

func newGenerateRelationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate-relations <programme-id|programme-code>",
		Short: "Propose, validate and store typed skill relations for a programme",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), nil, func(a *app.App) error {
				id, err := resolveProgramme(cmd, a, args[0])
				if err != nil {
					return err
				}
				var rep *services.RelationsReport
				payload := map[string]string{"programme_id": id.String()}
				_, err = a.Services.Jobs.Track(cmd.Context(), types.JobTypeGenerateRelations, "cli", payload, func(ctx context.Context) (any, error) {
					var err error
					rep, err = a.Services.Generation.GenerateProgrammeRelations(ctx, id)
					return rep, err
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rep)
			})
		},
	}
}

func resolveProgramme(cmd *cobra.Command, a *app.App, ref string) (uuid.UUID, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}
	progs, err := a.Services.Catalog.ListProgrammes(cmd.Context())
	if err != nil {
		return uuid.Nil, err
	}
	for _, p := range progs {
		if p.Code == ref {
			return p.ID, nil
		}
	}
	return uuid.Nil, fmt.Errorf("programme %q not found", ref)
}
