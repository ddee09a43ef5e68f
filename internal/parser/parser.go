package parser

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"tenancy-graphx/internal/graph"
)

// maxLineBytes bounds a single JSONL record; enriched policy and DNS
// records can carry large statement lists.
const maxLineBytes = 8 * 1024 * 1024

// Parse reads a JSONL stream of resource records from the given file.
// Malformed lines are skipped, never fatal; the skipped count is returned
// so callers can report it.
func Parse(path string) ([]graph.Record, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open records file: %w", err)
	}
	defer f.Close()

	return ParseRecords(f)
}

// ParseRecords decodes resource records from a JSONL reader.
func ParseRecords(r io.Reader) ([]graph.Record, int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var records []graph.Record
	skipped := 0

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var rec graph.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			skipped++
			continue
		}
		// A record without an OCID cannot participate in the graph.
		if rec.OCID == "" {
			skipped++
			continue
		}
		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read records: %w", err)
	}

	return records, skipped, nil
}

// ParseFromData decodes resource records from an in-memory JSONL document.
// This is exported for testing purposes.
func ParseFromData(data []byte) ([]graph.Record, int, error) {
	return ParseRecords(bytes.NewReader(data))
}
