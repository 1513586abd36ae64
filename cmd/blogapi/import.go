package main

import (
	"blogapi/internal/blog"
	"blogapi/internal/importer"
	"blogapi/internal/media"
	"blogapi/internal/telemetry"
	"fmt"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric/noop"
)

const dirFlag = "dir"

func newImportCommand() *cobra.Command {
	flags := newConfigFlags()
	flags[dirFlag] = &cobraflags.StringFlag{
		Name:  dirFlag,
		Value: "./sources",
		Usage: "Directory holding the markdown files to import",
	}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Create posts from markdown files with optional front matter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(flags)
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			store, err := openPostStore(ctx, cfg.DB)
			if err != nil {
				return fmt.Errorf("could not open %s store: %w", cfg.DB.Driver, err)
			}
			defer store.Close()

			objects, _, err := openObjectStore(cfg)
			if err != nil {
				return fmt.Errorf("could not open media store: %w", err)
			}
			uploader, err := media.NewStoreUploader(objects, cfg.Media, logger)
			if err != nil {
				return err
			}

			metrics, err := telemetry.NewMetrics(noop.NewMeterProvider().Meter(""))
			if err != nil {
				return err
			}

			service := blog.NewService(store, uploader, metrics, logger)
			res, err := importer.New(service, cfg.Media.TempDir, logger).ImportDir(ctx, flags[dirFlag].GetString())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d, skipped %d, failed %d\n", res.Imported, res.Skipped, res.Failed)
			if res.Failed > 0 {
				return fmt.Errorf("%d files failed to import", res.Failed)
			}
			return nil
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}
