package main

import (
	"github.com/spf13/cobra"

	"github.com/yungbote/skillbridge-backend/internal/app"
	"github.com/yungbote/skillbridge-backend/internal/ingestion"
	"github.com/yungbote/skillbridge-backend/internal/services"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file>...",
		Short: "Load programmes with modules and degrees with requirements from YAML or JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files := make([]ingestion.SeedFile, 0, len(args))
			for _, path := range args {
				b, err := ingestion.ReadSource(cmd.Context(), nil, path)
				if err != nil {
					return err
				}
				sf, err := ingestion.ParseSeed(b)
				if err != nil {
					return err
				}
				files = append(files, sf)
			}
			return withApp(cmd.Context(), nil, func(a *app.App) error {
				var total services.SeedReport
				for _, sf := range files {
					rep, err := a.Services.Catalog.SeedProgrammes(cmd.Context(), sf.Programmes)
					if err != nil {
						return err
					}
					n, err := a.Services.Degrees.Seed(cmd.Context(), sf.Degrees)
					if err != nil {
						return err
					}
					total.Programmes += rep.Programmes
					total.Modules += rep.Modules
					total.Degrees += n
				}
				return printJSON(cmd.OutOrStdout(), total)
			})
		},
	}
}
