package commands

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inferloop/agripipe/internal/ingestion"
	"github.com/inferloop/agripipe/internal/pipeline"
)

// NewIngestCmd builds the ingest stage command.
func NewIngestCmd(logger *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Ingest new raw parquet files",
		Long: `Scans the raw directory for parquet files not yet checkpointed,
validates their schema, quarantines unreadable or mismatched files, and
republishes valid batches under the processed directory.`,
		Example: `  # Ingest everything new under data/raw
  agripipe ingest

  # Ingest from a relocated tree
  RAW_DATA_PATH=/mnt/ingest/raw agripipe ingest`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := pipeline.NewContext(logger, false)
			if err != nil {
				return err
			}
			ctx.Logger.WithField("run_id", ctx.RunID).Info("Starting ingestion stage")
			return ingestion.NewRunner(ctx.Paths, ctx.Logger).Run()
		},
	}
}
