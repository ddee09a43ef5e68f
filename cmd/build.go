package cmd

import (
	"tenancy-graphx/internal/config"
	"tenancy-graphx/internal/runner"

	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build [records_file]",
	Short: "Build the tenancy graph and render its diagrams",
	Long: `tenancy-graphx build reads a tenancy resource records file (JSONL),
assembles the relationship graph, exports it as JSONL (plus any extra
format selected with --format), and renders the Mermaid diagram family
into the output directory.

Examples:
  # Build from a records file into the default output directory
  tenancy-graphx build resources.jsonl

  # Export Cypher statements alongside the JSONL artifacts
  tenancy-graphx build resources.jsonl --format=cypher

  # Build and push the graph to Neo4j
  tenancy-graphx build resources.jsonl --push`,
	RunE: runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadAndMerge(cmd, args)
	if err != nil {
		return err
	}

	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	return runner.Run(cfg, log)
}

func init() {
	rootCmd.AddCommand(buildCmd)
	registerGraphFlags(buildCmd)
	buildCmd.Flags().Bool("push", false, "Push the graph to Neo4j after the build")
}

func registerGraphFlags(cmd *cobra.Command) {
	cmd.Flags().String("records", "", "Path to the tenancy resource records JSONL file")
	cmd.Flags().String("out", "", "Directory for generated artifacts")
	cmd.Flags().Int("depth", 3, "Maximum compartment nesting depth shown in diagrams")
	cmd.Flags().String("format", "jsonl", "Extra export format (jsonl, cypher, dot, mermaid-raw)")
	registerNeo4jFlags(cmd)
}

func registerNeo4jFlags(cmd *cobra.Command) {
	cmd.Flags().String("neo4j-uri", "neo4j://localhost:7687", "URI for the Neo4j database")
	cmd.Flags().String("neo4j-user", "neo4j", "Username for the Neo4j database")
	cmd.Flags().String("neo4j-pass", "", "Password for the Neo4j database")
}
