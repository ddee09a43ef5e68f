package cmd

import (
	"tenancy-graphx/internal/config"
	"tenancy-graphx/internal/runner"

	"github.com/spf13/cobra"
)

var pushCmd = &cobra.Command{
	Use:   "push [records_file]",
	Short: "Build the tenancy graph and push it to Neo4j",
	Long: `tenancy-graphx push rebuilds the relationship graph from the records
file and synchronizes it into a Neo4j database: obsolete nodes and stale
relationships are removed, current ones are merged in.

The graph artifacts are written to the output directory as with build.`,
	RunE: runPush,
}

func runPush(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadAndMerge(cmd, args)
	if err != nil {
		return err
	}
	cfg.Push = true

	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	return runner.Run(cfg, log)
}

func init() {
	rootCmd.AddCommand(pushCmd)
	registerGraphFlags(pushCmd)
}
