package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inferloop/agripipe/cmd/cli/commands"
)

var verbose bool

func main() {
	// .env overrides are optional; a missing file is not an error.
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	rootCmd := &cobra.Command{
		Use:   "agripipe",
		Short: "Agricultural IoT sensor data pipeline",
		Long: `A batch pipeline for agricultural IoT sensor readings: incremental
ingestion with quarantine and checkpointing, cleaning and calibration,
data quality validation, and partitioned analytics storage.`,
		Version: "0.1.0",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger.SetLevel(logrus.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(commands.NewIngestCmd(logger))
	rootCmd.AddCommand(commands.NewTransformCmd(logger))
	rootCmd.AddCommand(commands.NewValidateCmd(logger))
	rootCmd.AddCommand(commands.NewLoadCmd(logger))
	rootCmd.AddCommand(commands.NewRunAllCmd(logger))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
