package builder

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"tenancy-graphx/internal/graph"
	"tenancy-graphx/internal/relate"
	"tenancy-graphx/internal/store"
)

// Build assembles the graph for one run: an authoritative node per
// record, placeholder compartments for every compartment referenced but
// never discovered, containment edges, derived relationships, and the
// relationships the records already carry. Per-record failures are
// logged and skipped; a bad record never aborts the run.
func Build(ctx context.Context, st *store.Store, records []graph.Record, log *zap.SugaredLogger) {
	for i := range records {
		rec := &records[i]
		if rec.OCID == "" {
			log.Debugw("skipping record without ocid", "resourceType", rec.ResourceType, "name", rec.DisplayName)
			continue
		}
		if err := st.InsertNode(ctx, graph.NodeFromRecord(rec), true); err != nil {
			log.Warnw("node insert failed", "ocid", rec.OCID, "error", err)
		}
	}

	insertCompartments(ctx, st, records, log)

	for _, edge := range relate.Derive(records) {
		if srcType, srcRegion, ok := st.NodeMeta(ctx, edge.SourceOCID); ok {
			edge.SourceType = srcType
			edge.Region = srcRegion
		}
		if dstType, _, ok := st.NodeMeta(ctx, edge.TargetOCID); ok {
			edge.TargetType = dstType
		}
		if err := st.InsertEdge(ctx, edge); err != nil {
			log.Warnw("derived edge insert failed", "source", edge.SourceOCID, "relation", edge.RelationType, "error", err)
		}
	}

	insertRecordRelationships(ctx, st, records, log)
}

// insertCompartments synthesizes a placeholder node for every referenced
// compartment and links each resource to its compartment. Placeholders
// never overwrite a compartment that was discovered as a record.
func insertCompartments(ctx context.Context, st *store.Store, records []graph.Record, log *zap.SugaredLogger) {
	referenced := make(map[string]bool)
	for i := range records {
		if records[i].OCID != "" && records[i].CompartmentID != "" {
			referenced[records[i].CompartmentID] = true
		}
	}

	ids := make([]string, 0, len(referenced))
	for id := range referenced {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if err := st.InsertNode(ctx, graph.PlaceholderCompartment(id), false); err != nil {
			log.Warnw("compartment placeholder insert failed", "ocid", id, "error", err)
		}
	}

	for i := range records {
		rec := &records[i]
		if rec.OCID == "" || rec.CompartmentID == "" {
			continue
		}
		resourceType := rec.ResourceType
		if resourceType == "" {
			resourceType = "Unknown"
		}
		edge := graph.Edge{
			SourceOCID:   rec.OCID,
			TargetOCID:   rec.CompartmentID,
			RelationType: graph.RelationInCompartment,
			SourceType:   graph.TypeOf(resourceType),
			TargetType:   "Compartment",
			Region:       rec.Region,
		}
		if err := st.InsertEdge(ctx, edge); err != nil {
			log.Warnw("containment edge insert failed", "source", rec.OCID, "error", err)
		}
	}
}

// insertRecordRelationships stores the pre-resolved relationship tuples
// carried on the records, dropping any whose endpoints are unknown.
func insertRecordRelationships(ctx context.Context, st *store.Store, records []graph.Record, log *zap.SugaredLogger) {
	for i := range records {
		for _, rel := range records[i].Relationships {
			srcType, srcRegion, srcOK := st.NodeMeta(ctx, rel.SourceOCID)
			dstType, _, dstOK := st.NodeMeta(ctx, rel.TargetOCID)
			if !srcOK || !dstOK {
				log.Debugw("skipping relationship with unknown endpoint",
					"source", rel.SourceOCID, "relation", rel.RelationType, "target", rel.TargetOCID)
				continue
			}
			edge := graph.Edge{
				SourceOCID:   rel.SourceOCID,
				TargetOCID:   rel.TargetOCID,
				RelationType: rel.RelationType,
				SourceType:   srcType,
				TargetType:   dstType,
				Region:       srcRegion,
			}
			if err := st.InsertEdge(ctx, edge); err != nil {
				log.Warnw("relationship insert failed", "source", rel.SourceOCID, "relation", rel.RelationType, "error", err)
			}
		}
	}
}
