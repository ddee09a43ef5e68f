package store

// SQLite schema DDL constants

const schemaNodes = `
CREATE TABLE IF NOT EXISTS nodes (
    node_id TEXT PRIMARY KEY,
    node_type TEXT NOT NULL,
    node_category TEXT NOT NULL,
    name TEXT,
    region TEXT,
    compartment_id TEXT,
    metadata TEXT,
    tags TEXT,
    enrich_status TEXT,
    enrich_error TEXT
)`

const schemaEdges = `
CREATE TABLE IF NOT EXISTS edges (
    source_ocid TEXT NOT NULL,
    target_ocid TEXT NOT NULL,
    relation_type TEXT NOT NULL,
    source_type TEXT,
    target_type TEXT,
    region TEXT,
    PRIMARY KEY (source_ocid, relation_type, target_ocid)
)`

// Index definitions
const indexNodesType = `CREATE INDEX IF NOT EXISTS idx_nodes_type ON nodes(node_type)`
const indexNodesCompartment = `CREATE INDEX IF NOT EXISTS idx_nodes_compartment ON nodes(compartment_id)`
const indexEdgesSource = `CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_ocid)`
const indexEdgesTarget = `CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_ocid)`

// SQLite pragmas for optimal performance
const pragmaWAL = `PRAGMA journal_mode=WAL`
const pragmaFK = `PRAGMA foreign_keys=ON`
const pragmaBusyTimeout = `PRAGMA busy_timeout=5000`
const pragmaSynchronous = `PRAGMA synchronous=NORMAL`

// allSchemaStatements returns all schema DDL in order
func allSchemaStatements() []string {
	return []string{
		schemaNodes,
		schemaEdges,
		indexNodesType,
		indexNodesCompartment,
		indexEdgesSource,
		indexEdgesTarget,
	}
}

// allPragmas returns all pragma statements
func allPragmas() []string {
	return []string{
		pragmaWAL,
		pragmaFK,
		pragmaBusyTimeout,
		pragmaSynchronous,
	}
}
