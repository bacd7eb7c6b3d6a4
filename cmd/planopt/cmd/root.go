package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/flumeopt/optimizer/pkg/utils"
)

var (
	verbose    bool
	configPath string
	logger     utils.Logger
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "planopt",
	Short: "Optimize lazy dataflow graphs into staged MSCR execution plans",
	Long: `planopt loads a lazy dataflow graph (collections and deferred ops)
from a JSON workflow description, rewrites it into a fusion-friendly shape,
groups its shuffles into MapShuffleCombineReduce units, and emits the
resulting staged execution plan.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logLevel := utils.LevelInfo
		if verbose {
			logLevel = utils.LevelDebug
		}
		logger = utils.NewDefaultLogger(logLevel, os.Stdout)
		return nil
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a planopt config file")

	binName := BinName()
	rootCmd.Example = `  # Optimize a workflow description and print the staged plan
  ` + binName + ` plan -i ./workflow.json

  # Optimize with an explicit config file and a populated plan cache
  ` + binName + ` plan -i ./workflow.json -c ./planopt.yaml --cache-key nightly-etl

  # Print the plan as JSON instead of a tree
  ` + binName + ` plan -i ./workflow.json --format json`
}

// GetLogger returns the configured logger.
func GetLogger() utils.Logger {
	return logger
}

// BinName returns the base name of the current executable.
func BinName() string {
	return filepath.Base(os.Args[0])
}
