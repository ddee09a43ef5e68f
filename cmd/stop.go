package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"tenancy-graphx/internal/docker"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the Neo4j Docker container",
	Long: `Stop and remove the Neo4j container started with 'tenancy-graphx start'.

Graph data is preserved in the named Docker volume, so a subsequent
start picks up where the stopped container left off.

Example:
  tenancy-graphx stop`,
	RunE: runStop,
}

func runStop(cmd *cobra.Command, args []string) error {
	return docker.StopContainer(context.Background())
}

func init() {
	rootCmd.AddCommand(stopCmd)
}
