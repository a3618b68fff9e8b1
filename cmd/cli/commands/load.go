package commands

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inferloop/agripipe/internal/pipeline"
	"github.com/inferloop/agripipe/internal/storage"
)

// NewLoadCmd builds the load stage command.
func NewLoadCmd(logger *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Append transformed files to the analytics dataset",
		Long: `Reads every transformed file and appends its rows to the partitioned
analytics dataset, laid out by date and sensor_id with Snappy compression.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := pipeline.NewContext(logger, false)
			if err != nil {
				return err
			}
			ctx.Logger.WithField("run_id", ctx.RunID).Info("Starting load stage")
			return storage.NewLoader(ctx.Paths, ctx.Logger).Run()
		},
	}
}
