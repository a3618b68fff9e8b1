package commands

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inferloop/agripipe/internal/pipeline"
	"github.com/inferloop/agripipe/internal/transform"
)

// NewTransformCmd builds the transform stage command.
func NewTransformCmd(logger *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "transform",
		Short: "Clean, calibrate and enrich processed files",
		Long: `Pipes every processed file through deduplication, imputation and
outlier correction, per-type calibration, timestamp normalization, and
feature derivation, writing the _transformed outputs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := pipeline.NewContext(logger, true)
			if err != nil {
				return err
			}
			ctx.Logger.WithField("run_id", ctx.RunID).Info("Starting transformation stage")
			return transform.NewRunner(ctx.Paths, ctx.Sensors, ctx.Logger).Run()
		},
	}
}
