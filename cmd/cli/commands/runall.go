package commands

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inferloop/agripipe/internal/ingestion"
	"github.com/inferloop/agripipe/internal/observability/metrics"
	"github.com/inferloop/agripipe/internal/pipeline"
	"github.com/inferloop/agripipe/internal/storage"
	"github.com/inferloop/agripipe/internal/transform"
	"github.com/inferloop/agripipe/internal/validation"
)

// NewRunAllCmd builds the command that runs all four stages in order.
func NewRunAllCmd(logger *logrus.Logger) *cobra.Command {
	var metricsPort int

	cmd := &cobra.Command{
		Use:   "run-all",
		Short: "Run ingest, transform, validate and load in sequence",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := pipeline.NewContext(logger, true)
			if err != nil {
				return err
			}
			log := ctx.Logger.WithField("run_id", ctx.RunID)

			if metricsPort > 0 {
				serverCtx, cancel := context.WithCancel(cmd.Context())
				defer cancel()
				go func() {
					if err := metrics.NewServer(metricsPort, ctx.Logger).Start(serverCtx); err != nil {
						ctx.Logger.WithError(err).Error("Metrics server stopped")
					}
				}()
			}

			log.Info("Starting ingestion stage")
			if err := ingestion.NewRunner(ctx.Paths, ctx.Logger).Run(); err != nil {
				return err
			}

			log.Info("Starting transformation stage")
			if err := transform.NewRunner(ctx.Paths, ctx.Sensors, ctx.Logger).Run(); err != nil {
				return err
			}

			log.Info("Starting validation stage")
			if err := validation.NewQualityValidator(ctx.Paths, ctx.Sensors, ctx.Logger).Run(); err != nil {
				return err
			}

			log.Info("Starting load stage")
			if err := storage.NewLoader(ctx.Paths, ctx.Logger).Run(); err != nil {
				return err
			}

			log.Info("Pipeline complete")
			return nil
		},
	}

	cmd.Flags().IntVar(&metricsPort, "metrics-port", 0, "expose Prometheus metrics on this port (0 disables)")

	return cmd
}
