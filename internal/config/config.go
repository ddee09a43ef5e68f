package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	ConfigFileName = ".tenancy-graphx"
	ConfigFileType = "yaml"
)

// Config holds the configuration for tenancy-graphx.
type Config struct {
	RecordsFile  string      `mapstructure:"records_file"`
	OutputDir    string      `mapstructure:"output_dir"`
	DiagramDepth int         `mapstructure:"diagram_depth"`
	Format       string      `mapstructure:"format"`
	Push         bool        `mapstructure:"push"`
	Neo4j        Neo4jConfig `mapstructure:"neo4j"`
}

// Neo4jConfig holds the Neo4j connection settings.
type Neo4jConfig struct {
	URI         string `mapstructure:"uri"`
	User        string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	DockerImage string `mapstructure:"docker_image"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		RecordsFile:  "",
		OutputDir:    "tenancy-graphx-data",
		DiagramDepth: 3,
		Format:       "jsonl",
		Push:         false,
		Neo4j: Neo4jConfig{
			URI:         "neo4j://localhost:7687",
			User:        "neo4j",
			Password:    "",
			DockerImage: "neo4j:5",
		},
	}
}

// Load reads the configuration from the .tenancy-graphx.yaml file. It
// searches the current directory first, then the home directory, and
// falls back to defaults when no file exists.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType(ConfigFileType)
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME")

	defaults := DefaultConfig()
	v.SetDefault("records_file", defaults.RecordsFile)
	v.SetDefault("output_dir", defaults.OutputDir)
	v.SetDefault("diagram_depth", defaults.DiagramDepth)
	v.SetDefault("format", defaults.Format)
	v.SetDefault("push", defaults.Push)
	v.SetDefault("neo4j.uri", defaults.Neo4j.URI)
	v.SetDefault("neo4j.username", defaults.Neo4j.User)
	v.SetDefault("neo4j.password", defaults.Neo4j.Password)
	v.SetDefault("neo4j.docker_image", defaults.Neo4j.DockerImage)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaults, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadAndMerge loads configuration from file and merges it with CLI
// flags. Priority: flags > config file > defaults.
func LoadAndMerge(cmd *cobra.Command, args []string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if len(args) > 0 {
		cfg.RecordsFile = args[0]
	} else if cmd.Flags().Changed("records") {
		cfg.RecordsFile, _ = cmd.Flags().GetString("records")
	}

	if cmd.Flags().Changed("out") {
		cfg.OutputDir, _ = cmd.Flags().GetString("out")
	}

	if cmd.Flags().Changed("depth") {
		cfg.DiagramDepth, _ = cmd.Flags().GetInt("depth")
	}

	if cmd.Flags().Changed("format") {
		cfg.Format, _ = cmd.Flags().GetString("format")
	}

	if cmd.Flags().Changed("push") {
		cfg.Push, _ = cmd.Flags().GetBool("push")
	}

	if cmd.Flags().Changed("neo4j-uri") {
		cfg.Neo4j.URI, _ = cmd.Flags().GetString("neo4j-uri")
	}

	if cmd.Flags().Changed("neo4j-user") {
		cfg.Neo4j.User, _ = cmd.Flags().GetString("neo4j-user")
	}

	if cmd.Flags().Changed("neo4j-pass") {
		cfg.Neo4j.Password, _ = cmd.Flags().GetString("neo4j-pass")
	}

	return cfg, nil
}

// Save writes the configuration to a .tenancy-graphx.yaml file in the
// current directory, or to the given path.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = fmt.Sprintf("%s.%s", ConfigFileName, ConfigFileType)
	}

	v := viper.New()
	v.Set("records_file", cfg.RecordsFile)
	v.Set("output_dir", cfg.OutputDir)
	v.Set("diagram_depth", cfg.DiagramDepth)
	v.Set("format", cfg.Format)
	v.Set("push", cfg.Push)
	v.Set("neo4j.uri", cfg.Neo4j.URI)
	v.Set("neo4j.username", cfg.Neo4j.User)
	v.Set("neo4j.password", cfg.Neo4j.Password)
	v.Set("neo4j.docker_image", cfg.Neo4j.DockerImage)

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	// The file carries the Neo4j password.
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set secure permissions on config file: %w", err)
	}

	return nil
}

// Exists checks if a config file exists in the current directory.
func Exists() bool {
	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType(ConfigFileType)
	v.AddConfigPath(".")

	err := v.ReadInConfig()
	return err == nil
}
