package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"tenancy-graphx/internal/config"
	"tenancy-graphx/internal/docker"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start Neo4j database in Docker",
	Long: `Start a Neo4j database container using Docker with the settings from
the .tenancy-graphx.yaml file. Graph data is kept in a named Docker
volume so it survives container restarts.

This command will:
  - Pull the Neo4j image if not already downloaded
  - Start a Neo4j container in the background
  - Use the credentials from the configuration file
  - Mount a named volume for data persistence

Example:
  tenancy-graphx start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx := context.Background()
	return docker.StartContainer(ctx, docker.StartContainerOptions{
		Config: cfg,
	})
}

func init() {
	rootCmd.AddCommand(startCmd)
}
