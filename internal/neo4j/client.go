package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"tenancy-graphx/internal/formatter"
	"tenancy-graphx/internal/graph"
)

// Client handles the connection and communication with a Neo4j database.
type Client struct {
	Driver neo4j.DriverWithContext
}

// NewClient creates a new Neo4j client and establishes a connection.
func NewClient(uri, user, pass string) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, pass, ""))
	if err != nil {
		return nil, fmt.Errorf("could not create neo4j driver: %w", err)
	}

	return &Client{Driver: driver}, nil
}

// Close gracefully shuts down the driver.
func (c *Client) Close(ctx context.Context) error {
	return c.Driver.Close(ctx)
}

// VerifyConnectivity checks if a connection can be established with the database.
func (c *Client) VerifyConnectivity(ctx context.Context) error {
	return c.Driver.VerifyConnectivity(ctx)
}

// UpdateGraph synchronizes the Neo4j database with the current graph
// state. It removes nodes that no longer exist, upserts the current
// nodes, drops relationships that are no longer present, and merges the
// current ones, all inside a single write transaction.
func (c *Client) UpdateGraph(ctx context.Context, g *graph.Graph) error {
	session := c.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		existingIDs, err := c.fetchExistingNodeIDs(ctx, tx)
		if err != nil {
			return nil, err
		}

		if err := c.deleteObsoleteNodes(ctx, tx, existingIDs, g); err != nil {
			return nil, err
		}

		stmts := formatter.ToCypherStatements(g)
		if _, err := tx.Run(ctx, stmts[0].Query, stmts[0].Params); err != nil {
			return nil, fmt.Errorf("failed to upsert nodes: %w", err)
		}

		if err := c.deleteStaleRelationships(ctx, tx, g); err != nil {
			return nil, err
		}

		for _, stmt := range stmts[1:] {
			if _, err := tx.Run(ctx, stmt.Query, stmt.Params); err != nil {
				return nil, fmt.Errorf("failed to upsert edges: %w", err)
			}
		}
		return nil, nil
	})

	if err != nil {
		return fmt.Errorf("failed to update graph: %w", err)
	}

	return nil
}

// fetchExistingNodeIDs retrieves all node IDs currently in Neo4j.
func (c *Client) fetchExistingNodeIDs(ctx context.Context, tx neo4j.ManagedTransaction) (map[string]bool, error) {
	result, err := tx.Run(ctx, "MATCH (n:Resource) RETURN n.nodeId AS nodeId", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing nodes: %w", err)
	}

	existingIDs := make(map[string]bool)
	for result.Next(ctx) {
		if id, ok := result.Record().Get("nodeId"); ok {
			if idStr, ok := id.(string); ok {
				existingIDs[idStr] = true
			}
		}
	}

	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate existing nodes: %w", err)
	}

	return existingIDs, nil
}

// deleteObsoleteNodes removes nodes that exist in Neo4j but not in the
// new graph, together with their relationships.
func (c *Client) deleteObsoleteNodes(ctx context.Context, tx neo4j.ManagedTransaction, existingIDs map[string]bool, g *graph.Graph) error {
	newIDs := make(map[string]bool, len(g.Nodes))
	for _, node := range g.Nodes {
		newIDs[node.NodeID] = true
	}

	var idsToDelete []string
	for existingID := range existingIDs {
		if !newIDs[existingID] {
			idsToDelete = append(idsToDelete, existingID)
		}
	}

	if len(idsToDelete) > 0 {
		query := "UNWIND $obsoleteIds AS obsoleteId MATCH (n:Resource {nodeId: obsoleteId}) DETACH DELETE n"
		params := map[string]any{"obsoleteIds": idsToDelete}

		if _, err := tx.Run(ctx, query, params); err != nil {
			return fmt.Errorf("failed to delete obsolete nodes: %w", err)
		}
	}

	return nil
}

// deleteStaleRelationships drops every relationship whose
// (source, type, target) triple is absent from the new edge set.
func (c *Client) deleteStaleRelationships(ctx context.Context, tx neo4j.ManagedTransaction, g *graph.Graph) error {
	keep := make([]any, len(g.Edges))
	for i, edge := range g.Edges {
		keep[i] = []any{edge.SourceOCID, edge.RelationType, edge.TargetOCID}
	}

	query := "MATCH (from:Resource)-[r]->(to:Resource)\n" +
		"WHERE NOT [from.nodeId, type(r), to.nodeId] IN $keep\n" +
		"DELETE r"
	if _, err := tx.Run(ctx, query, map[string]any{"keep": keep}); err != nil {
		return fmt.Errorf("failed to delete stale relationships: %w", err)
	}

	return nil
}
