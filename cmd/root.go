package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tenancy-graphx/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "tenancy-graphx [command]",
	Short: "Build relationship graphs and diagrams from tenancy resource records",
	Long: `tenancy-graphx turns exported tenancy resource records (JSONL) into a
typed relationship graph and renders it as a family of Mermaid diagrams.
The graph can also be exported as JSONL, Cypher, or DOT, or pushed to a
Neo4j database.`,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")
}

func newLogger(cmd *cobra.Command) (*zap.SugaredLogger, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	log, err := logging.New(verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}
