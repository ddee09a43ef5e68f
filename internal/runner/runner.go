package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"tenancy-graphx/internal/builder"
	"tenancy-graphx/internal/config"
	"tenancy-graphx/internal/diagram"
	"tenancy-graphx/internal/formatter"
	"tenancy-graphx/internal/graph"
	"tenancy-graphx/internal/neo4j"
	"tenancy-graphx/internal/parser"
	"tenancy-graphx/internal/store"
)

// SummaryFile is the diagram summary artifact written next to the
// diagrams themselves.
const SummaryFile = "diagram_summary.json"

// Run executes one full build: parse records, assemble the graph in a
// fresh store, export the graph artifacts, render the diagram
// projections, and optionally push the result to Neo4j.
func Run(cfg *config.Config, log *zap.SugaredLogger) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}
	ctx := context.Background()

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// A fresh store per run; stale rows from a previous run must never
	// leak into the export.
	dbFile, err := os.CreateTemp("", "tenancy-graphx-*.db")
	if err != nil {
		return fmt.Errorf("failed to create store file: %w", err)
	}
	dbPath := dbFile.Name()
	dbFile.Close()
	defer os.Remove(dbPath)

	st, err := store.New(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("failed to construct graph store: %w", err)
	}
	defer st.Close()

	log.Infow("parsing records", "file", cfg.RecordsFile)
	records, skipped, err := parser.Parse(cfg.RecordsFile)
	if err != nil {
		return fmt.Errorf("failed to parse records: %w", err)
	}
	if skipped > 0 {
		log.Warnw("skipped malformed records", "count", skipped)
	}
	log.Infow("records parsed", "count", len(records))

	builder.Build(ctx, st, records, log)
	nodeCount, err := st.NodeCount(ctx)
	if err != nil {
		return fmt.Errorf("failed to count nodes: %w", err)
	}
	edgeCount, err := st.EdgeCount(ctx)
	if err != nil {
		return fmt.Errorf("failed to count edges: %w", err)
	}
	log.Infow("graph built", "nodes", nodeCount, "edges", edgeCount)

	g, err := exportGraph(ctx, st)
	if err != nil {
		return err
	}

	log.Infow("exporting graph artifacts", "format", cfg.Format)
	if err := formatter.WriteJSONL(cfg.OutputDir, g); err != nil {
		return fmt.Errorf("failed to export graph: %w", err)
	}
	if cfg.Format != "" && cfg.Format != formatter.FormatJSONL {
		if err := formatter.Write(cfg.OutputDir, cfg.Format, g); err != nil {
			return fmt.Errorf("failed to export graph: %w", err)
		}
	}

	log.Infow("rendering diagram projections", "depth", cfg.DiagramDepth)
	summary, err := diagram.WriteProjections(cfg.OutputDir, g.Nodes, g.Edges, cfg.DiagramDepth, log)
	if err != nil {
		return fmt.Errorf("failed to render diagrams: %w", err)
	}
	if err := writeSummary(cfg.OutputDir, summary); err != nil {
		return err
	}
	log.Infow("diagrams rendered",
		"skipped", len(summary.Skipped), "split", len(summary.Split), "violations", len(summary.Violations))

	if cfg.Push {
		return pushGraph(ctx, g, &cfg.Neo4j, log)
	}
	return nil
}

func validateConfig(cfg *config.Config) error {
	if cfg.RecordsFile == "" {
		return fmt.Errorf("records file is required; pass it as an argument or set records_file in %s.%s",
			config.ConfigFileName, config.ConfigFileType)
	}
	if cfg.Push && (cfg.Neo4j.URI == "" || cfg.Neo4j.User == "" || cfg.Neo4j.Password == "") {
		return fmt.Errorf("neo4j uri, username, and password are required when pushing; configure them in %s.%s or pass them as flags",
			config.ConfigFileName, config.ConfigFileType)
	}
	return nil
}

// exportGraph snapshots the store in its iteration order: nodes by id,
// edges by (source, relation, target) with dangling edges dropped.
func exportGraph(ctx context.Context, st *store.Store) (*graph.Graph, error) {
	nodes, err := st.AllNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read nodes: %w", err)
	}
	edges, err := st.AllEdges(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to read edges: %w", err)
	}
	return &graph.Graph{Nodes: nodes, Edges: edges}, nil
}

func writeSummary(outDir string, summary *diagram.Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode diagram summary: %w", err)
	}
	path := filepath.Join(outDir, SummaryFile)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write diagram summary: %w", err)
	}
	return nil
}

func pushGraph(ctx context.Context, g *graph.Graph, neo4jCfg *config.Neo4jConfig, log *zap.SugaredLogger) error {
	log.Infow("connecting to neo4j", "uri", neo4jCfg.URI)
	client, err := neo4j.NewClient(neo4jCfg.URI, neo4jCfg.User, neo4jCfg.Password)
	if err != nil {
		return fmt.Errorf("failed to create neo4j client: %w", err)
	}
	defer client.Close(ctx)

	if err := client.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("failed to connect to neo4j: %w", err)
	}

	log.Infow("updating neo4j database")
	if err := client.UpdateGraph(ctx, g); err != nil {
		return fmt.Errorf("failed to update neo4j graph: %w", err)
	}
	log.Infow("neo4j database updated")
	return nil
}
