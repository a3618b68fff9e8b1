package commands

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inferloop/agripipe/internal/pipeline"
	"github.com/inferloop/agripipe/internal/validation"
)

// NewValidateCmd builds the validate stage command.
func NewValidateCmd(logger *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Run data quality checks over transformed files",
		Long: `Checks every transformed file for type validity, configured range
coverage, missing values and hourly gaps, and writes the consolidated
quality report CSV.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := pipeline.NewContext(logger, true)
			if err != nil {
				return err
			}
			ctx.Logger.WithField("run_id", ctx.RunID).Info("Starting validation stage")
			return validation.NewQualityValidator(ctx.Paths, ctx.Sensors, ctx.Logger).Run()
		},
	}
}
