package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"tenancy-graphx/internal/config"
	"tenancy-graphx/internal/neo4j"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate tenancy-graphx configuration and Neo4j connectivity",
	Long: `Verify that tenancy-graphx can connect to the Neo4j database using
the settings from the configuration file (.tenancy-graphx.yaml).

This command will:
  1. Load the configuration from .tenancy-graphx.yaml
  2. Print the resolved settings
  3. Attempt to connect to the Neo4j database
  4. Report the connection status

Example:
  tenancy-graphx check`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if !config.Exists() {
		fmt.Println("⚠ Warning: No configuration file found.")
		fmt.Println("  Run 'tenancy-graphx init' to create one.")
		fmt.Println("  Using default values...")
		fmt.Println()
	}

	recordsFile := cfg.RecordsFile
	if recordsFile == "" {
		recordsFile = "(not set)"
	}

	fmt.Println("Resolved settings:")
	fmt.Printf("  records_file:  %s\n", recordsFile)
	fmt.Printf("  output_dir:    %s\n", cfg.OutputDir)
	fmt.Printf("  diagram_depth: %d\n", cfg.DiagramDepth)
	fmt.Printf("  format:        %s\n", cfg.Format)
	fmt.Printf("  push:          %t\n", cfg.Push)
	fmt.Println()

	// Display connection info (without password)
	fmt.Println("Neo4j Connection Settings:")
	fmt.Printf("  URI:  %s\n", cfg.Neo4j.URI)
	fmt.Printf("  User: %s\n", cfg.Neo4j.User)
	fmt.Println()

	if cfg.Neo4j.Password == "" {
		return fmt.Errorf("neo4j password is not set in configuration file")
	}

	fmt.Printf("Connecting to Neo4j at %s...\n", cfg.Neo4j.URI)
	ctx := context.Background()

	client, err := neo4j.NewClient(cfg.Neo4j.URI, cfg.Neo4j.User, cfg.Neo4j.Password)
	if err != nil {
		return fmt.Errorf("failed to create neo4j client: %w", err)
	}
	defer client.Close(ctx)

	if err := client.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("failed to connect to neo4j: %w", err)
	}

	fmt.Println()
	fmt.Println("✓ Successfully connected to Neo4j database!")
	fmt.Println("  The database is ready to use.")

	return nil
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
