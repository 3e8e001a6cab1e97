package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/skillbridge-backend/internal/app"
	"github.com/yungbote/skillbridge-backend/internal/ingestion"
)

func newIngestCmd() *cobra.Command {
	var (
		programme string
		pattern   string
		dryRun    bool
	)
	cmd := &cobra.Command{
		Use:   "ingest <path|gs://bucket/object>",
		Short: "Split a module handbook into records and load them into a programme",
		Long: `Reads a module handbook text dump (or a JSON array of records), splits it on
module codes and upserts the modules into the given programme. The source may be a
local path or a Cloud Storage object.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			splitter, err := ingestion.NewSplitter(pattern)
			if err != nil {
				return err
			}
			if dryRun && !ingestion.IsRemote(args[0]) {
				b, err := ingestion.ReadSource(cmd.Context(), nil, args[0])
				if err != nil {
					return err
				}
				recs, err := ingestion.ParseRecords(b, splitter)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), recs)
			}
			return withApp(cmd.Context(), nil, func(a *app.App) error {
				var objects ingestion.ObjectReader
				if ingestion.IsRemote(args[0]) {
					if objects, err = a.Objects(cmd.Context()); err != nil {
						return err
					}
				}
				b, err := ingestion.ReadSource(cmd.Context(), objects, args[0])
				if err != nil {
					return err
				}
				recs, err := ingestion.ParseRecords(b, splitter)
				if err != nil {
					return err
				}
				if dryRun {
					return printJSON(cmd.OutOrStdout(), recs)
				}
				if programme == "" {
					return fmt.Errorf("--programme is required unless --dry-run is set")
				}
				rep, err := a.Services.Catalog.ImportRecords(cmd.Context(), programme, recs)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rep)
			})
		},
	}
	cmd.Flags().StringVar(&programme, "programme", "", "programme code to load the modules into")
	cmd.Flags().StringVar(&pattern, "pattern", ingestion.DefaultCodePattern, "module-code regex with one capture group")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the split records without writing")
	return cmd
}
