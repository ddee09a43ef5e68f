package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"tenancy-graphx/internal/graph"
)

// maxNodeMetaCache bounds the in-process node metadata cache. The cache is
// cleared wholesale when it would grow past this size.
const maxNodeMetaCache = 10000

type nodeMeta struct {
	nodeType string
	region   string
}

// Store is a SQLite-backed graph store for one build run.
type Store struct {
	db        *sql.DB
	closed    bool
	metaCache map[string]nodeMeta
}

// New opens (or creates) the SQLite database at dbPath and prepares the
// schema. Construction failure is fatal to the run; callers must treat a
// returned error as unrecoverable for this store.
func New(ctx context.Context, dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Verify connectivity
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to sqlite: %w", err)
	}

	// Apply pragmas for optimal performance
	for _, pragma := range allPragmas() {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma: %w", err)
		}
	}

	// Create schema
	for _, stmt := range allSchemaStatements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	return &Store{db: db, metaCache: make(map[string]nodeMeta)}, nil
}

// Close closes the underlying database. It is safe to call more than once.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// InsertNode writes a node. With replace=true an existing row with the same
// node_id is overwritten (authoritative record data); with replace=false an
// existing row wins (placeholder data). An empty node ID is a silent no-op.
func (s *Store) InsertNode(ctx context.Context, node graph.Node, replace bool) error {
	if node.NodeID == "" {
		return nil
	}

	metadataJSON, err := json.Marshal(node.Metadata)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	tagsJSON, err := json.Marshal(node.Tags)
	if err != nil {
		return fmt.Errorf("marshaling tags: %w", err)
	}

	query := `
		INSERT INTO nodes (node_id, node_type, node_category, name, region, compartment_id, metadata, tags, enrich_status, enrich_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(node_id) DO UPDATE SET
			node_type = excluded.node_type,
			node_category = excluded.node_category,
			name = excluded.name,
			region = excluded.region,
			compartment_id = excluded.compartment_id,
			metadata = excluded.metadata,
			tags = excluded.tags,
			enrich_status = excluded.enrich_status,
			enrich_error = excluded.enrich_error
	`
	if !replace {
		query = `
			INSERT OR IGNORE INTO nodes (node_id, node_type, node_category, name, region, compartment_id, metadata, tags, enrich_status, enrich_error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
	}

	_, err = s.db.ExecContext(ctx, query,
		node.NodeID,
		node.NodeType,
		node.NodeCategory,
		node.Name,
		node.Region,
		node.CompartmentID,
		string(metadataJSON),
		string(tagsJSON),
		node.EnrichStatus,
		node.EnrichError,
	)
	if err != nil {
		return fmt.Errorf("inserting node: %w", err)
	}

	delete(s.metaCache, node.NodeID)
	return nil
}

// InsertEdge writes an edge, replacing any existing edge with the same
// (source, relation, target) key. Edges with an empty endpoint are a
// silent no-op; dangling references are filtered at query time instead.
func (s *Store) InsertEdge(ctx context.Context, edge graph.Edge) error {
	if edge.SourceOCID == "" || edge.TargetOCID == "" {
		return nil
	}

	query := `
		INSERT INTO edges (source_ocid, target_ocid, relation_type, source_type, target_type, region)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_ocid, relation_type, target_ocid) DO UPDATE SET
			source_type = excluded.source_type,
			target_type = excluded.target_type,
			region = excluded.region
	`
	_, err := s.db.ExecContext(ctx, query,
		edge.SourceOCID,
		edge.TargetOCID,
		edge.RelationType,
		edge.SourceType,
		edge.TargetType,
		edge.Region,
	)
	if err != nil {
		return fmt.Errorf("inserting edge: %w", err)
	}
	return nil
}

// NodeMeta returns the type and region of a stored node. Lookups go through
// a bounded cache; a miss of any kind reports ok=false.
func (s *Store) NodeMeta(ctx context.Context, ocid string) (nodeType, region string, ok bool) {
	if ocid == "" {
		return "", "", false
	}
	if meta, hit := s.metaCache[ocid]; hit {
		return meta.nodeType, meta.region, true
	}

	row := s.db.QueryRowContext(ctx, `SELECT node_type, region FROM nodes WHERE node_id = ?`, ocid)
	var t, r sql.NullString
	if err := row.Scan(&t, &r); err != nil {
		return "", "", false
	}

	if len(s.metaCache) >= maxNodeMetaCache {
		s.metaCache = make(map[string]nodeMeta)
	}
	s.metaCache[ocid] = nodeMeta{nodeType: t.String, region: r.String}
	return t.String, r.String, true
}

// NodeCount returns the number of stored nodes.
func (s *Store) NodeCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes`).Scan(&count)
	return count, err
}

// EdgeCount returns the number of stored edges, including dangling ones.
func (s *Store) EdgeCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM edges`).Scan(&count)
	return count, err
}

// IterNodes iterates all nodes ordered by node_id.
func (s *Store) IterNodes(ctx context.Context) (*NodeIter, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT node_id, node_type, node_category, name, region, compartment_id, metadata, tags, enrich_status, enrich_error
		FROM nodes
		ORDER BY node_id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying nodes: %w", err)
	}
	return &NodeIter{rows: rows}, nil
}

// IterEdges iterates edges ordered by (source, relation, target). With
// filtered=true, edges whose endpoints are not both present in the nodes
// table never surface.
func (s *Store) IterEdges(ctx context.Context, filtered bool) (*EdgeIter, error) {
	query := `
		SELECT source_ocid, target_ocid, relation_type, source_type, target_type, region
		FROM edges
		ORDER BY source_ocid, relation_type, target_ocid
	`
	if filtered {
		query = `
			SELECT e.source_ocid, e.target_ocid, e.relation_type, e.source_type, e.target_type, e.region
			FROM edges e
			JOIN nodes src ON src.node_id = e.source_ocid
			JOIN nodes dst ON dst.node_id = e.target_ocid
			ORDER BY e.source_ocid, e.relation_type, e.target_ocid
		`
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying edges: %w", err)
	}
	return &EdgeIter{rows: rows}, nil
}

// NodeIter lazily yields stored nodes.
type NodeIter struct {
	rows *sql.Rows
	cur  graph.Node
	err  error
}

// Next advances the iterator. It returns false when no rows remain or a
// scan fails; check Err afterwards.
func (it *NodeIter) Next() bool {
	if !it.rows.Next() {
		return false
	}

	var metadataStr, tagsStr sql.NullString
	var name, region, compartmentID, enrichStatus, enrichError sql.NullString
	node := graph.Node{}
	if err := it.rows.Scan(
		&node.NodeID,
		&node.NodeType,
		&node.NodeCategory,
		&name,
		&region,
		&compartmentID,
		&metadataStr,
		&tagsStr,
		&enrichStatus,
		&enrichError,
	); err != nil {
		it.err = err
		return false
	}

	node.Name = name.String
	node.Region = region.String
	node.CompartmentID = compartmentID.String
	node.EnrichStatus = enrichStatus.String
	node.EnrichError = enrichError.String
	node.Metadata = map[string]any{}
	node.Tags = map[string]any{}
	if metadataStr.Valid && metadataStr.String != "" {
		json.Unmarshal([]byte(metadataStr.String), &node.Metadata)
	}
	if tagsStr.Valid && tagsStr.String != "" {
		json.Unmarshal([]byte(tagsStr.String), &node.Tags)
	}

	it.cur = node
	return true
}

// Node returns the current node.
func (it *NodeIter) Node() graph.Node { return it.cur }

// Err returns the first error hit during iteration.
func (it *NodeIter) Err() error {
	if it.err != nil {
		return it.err
	}
	return it.rows.Err()
}

// Close releases the underlying rows.
func (it *NodeIter) Close() error { return it.rows.Close() }

// EdgeIter lazily yields stored edges.
type EdgeIter struct {
	rows *sql.Rows
	cur  graph.Edge
	err  error
}

// Next advances the iterator.
func (it *EdgeIter) Next() bool {
	if !it.rows.Next() {
		return false
	}

	var sourceType, targetType, region sql.NullString
	edge := graph.Edge{}
	if err := it.rows.Scan(
		&edge.SourceOCID,
		&edge.TargetOCID,
		&edge.RelationType,
		&sourceType,
		&targetType,
		&region,
	); err != nil {
		it.err = err
		return false
	}

	edge.SourceType = sourceType.String
	edge.TargetType = targetType.String
	edge.Region = region.String

	it.cur = edge
	return true
}

// Edge returns the current edge.
func (it *EdgeIter) Edge() graph.Edge { return it.cur }

// Err returns the first error hit during iteration.
func (it *EdgeIter) Err() error {
	if it.err != nil {
		return it.err
	}
	return it.rows.Err()
}

// Close releases the underlying rows.
func (it *EdgeIter) Close() error { return it.rows.Close() }

// AllNodes drains IterNodes into a slice.
func (s *Store) AllNodes(ctx context.Context) ([]graph.Node, error) {
	it, err := s.IterNodes(ctx)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var nodes []graph.Node
	for it.Next() {
		nodes = append(nodes, it.Node())
	}
	return nodes, it.Err()
}

// AllEdges drains IterEdges into a slice.
func (s *Store) AllEdges(ctx context.Context, filtered bool) ([]graph.Edge, error) {
	it, err := s.IterEdges(ctx, filtered)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var edges []graph.Edge
	for it.Next() {
		edges = append(edges, it.Edge())
	}
	return edges, it.Err()
}
