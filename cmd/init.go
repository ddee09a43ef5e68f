package cmd

import (
	"crypto/rand"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tenancy-graphx/internal/config"
	"tenancy-graphx/internal/git"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize tenancy-graphx configuration",
	Long: `Initialize tenancy-graphx configuration and settings.

Creates a .tenancy-graphx.yaml configuration file in the current directory
with default values and a randomly generated Neo4j password. Also creates
the output directory for generated artifacts.

The configuration file will be created with the following default values:
  - output_dir: tenancy-graphx-data
  - diagram_depth: 3
  - format: jsonl
  - neo4j.uri: neo4j://localhost:7687
  - neo4j.username: neo4j
  - neo4j.password: (randomly generated)

Example:
  tenancy-graphx init`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := fmt.Sprintf("%s.%s", config.ConfigFileName, config.ConfigFileType)

	// Check if config file already exists
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	cfg := config.DefaultConfig()

	password, err := generateRandomPassword(24)
	if err != nil {
		return fmt.Errorf("failed to generate random password: %w", err)
	}
	cfg.Neo4j.Password = password

	if err := config.Save(cfg, configPath); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	fmt.Printf("✓ Created configuration file: %s\n\n", configPath)
	fmt.Println("Default configuration:")
	fmt.Printf("  output_dir: %s\n", cfg.OutputDir)
	fmt.Printf("  diagram_depth: %d\n", cfg.DiagramDepth)
	fmt.Printf("  format: %s\n", cfg.Format)
	fmt.Printf("  neo4j.uri: %s\n", cfg.Neo4j.URI)
	fmt.Printf("  neo4j.username: %s\n", cfg.Neo4j.User)
	fmt.Printf("  neo4j.password: %s\n\n", cfg.Neo4j.Password)
	fmt.Printf("✓ Created output directory: %s\n", cfg.OutputDir)

	updateGitignore(configPath, cfg.OutputDir+"/")

	return nil
}

// generateRandomPassword generates a random alphanumeric password of the specified length
func generateRandomPassword(length int) (string, error) {
	// Use only alphanumeric characters to avoid issues with special characters in Neo4j auth string
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	for i := range bytes {
		bytes[i] = charset[int(bytes[i])%len(charset)]
	}
	return string(bytes), nil
}

// updateGitignore keeps credentials and generated artifacts out of version
// control when the working directory is a git repository. Failures are
// reported but never fail init.
func updateGitignore(entries ...string) {
	if !git.IsRepository() {
		fmt.Println("\nNote: Not inside a Git repository. If you initialize one later,")
		fmt.Printf("remember to add '%s' to your .gitignore\n", strings.Join(entries, "' and '"))
		return
	}

	added, err := git.UpdateGitignore(entries)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to update .gitignore: %v\n", err)
		fmt.Printf("Please manually add '%s' to your .gitignore file.\n", strings.Join(entries, "' and '"))
		return
	}

	if len(added) > 0 {
		fmt.Printf("\n✓ Added the following entries to .gitignore: %s\n", strings.Join(added, ", "))
	} else {
		fmt.Println("\n✓ .gitignore already contains the necessary entries.")
	}
	fmt.Println("This prevents committing credentials and generated artifacts.")
}

func init() {
	rootCmd.AddCommand(initCmd)
}
