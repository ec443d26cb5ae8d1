package entities

import (
	"context"
	"strings"

	"documind/internal/contextutil"
	"documind/internal/graphstore"
)

// ChunkInput identifies a chunk already stored in the graph.
type ChunkInput struct {
	UserID  string
	DocID   string
	ChunkID string
	Text    string
}

// ChunkResult reports what was written for one chunk.
type ChunkResult struct {
	Entities          []graphstore.EntityNode
	Relationships     int
	CooccurrenceEdges int
}

// Processor extracts entities for a chunk and writes them to the graph.
type Processor struct {
	extractor *Extractor
	graph     graphstore.GraphStore
	resolver  *Resolver
}

// NewProcessor wires an extractor and resolver to a graph.
func NewProcessor(extractor *Extractor, graph graphstore.GraphStore, resolver *Resolver) *Processor {
	return &Processor{extractor: extractor, graph: graph, resolver: resolver}
}

// ProcessChunk extracts entities from the chunk, merges them under the chunk
// via MENTIONS, then writes RELATED_TO and co-occurrence edges. Individual
// write failures are logged and skipped; only context cancellation is returned.
func (p *Processor) ProcessChunk(ctx context.Context, in ChunkInput) (ChunkResult, error) {
	logger := contextutil.LoggerFromContext(ctx).With("chunk_id", in.ChunkID)
	var res ChunkResult

	extraction := p.extractor.Extract(ctx, in.Text)
	if len(extraction.Entities) == 0 {
		return res, ctx.Err()
	}

	ids := make(map[string]string, len(extraction.Entities))
	for _, ent := range extraction.Entities {
		node := graphstore.EntityNode{
			EntityID:   EntityID(in.DocID, ent.Category, ent.Name),
			UserID:     in.UserID,
			DocID:      in.DocID,
			Name:       ent.Name,
			Category:   string(ent.Category),
			Confidence: ent.Confidence,
		}
		if err := p.graph.UpsertEntity(ctx, in.ChunkID, node); err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			logger.WarnContext(ctx, "failed to create entity node", "entity", ent.Name, "error", err)
			continue
		}
		ids[strings.ToLower(ent.Name)] = node.EntityID
		res.Entities = append(res.Entities, node)
	}

	for _, rel := range extraction.Relationships {
		src, okS := ids[strings.ToLower(rel.Source)]
		dst, okD := ids[strings.ToLower(rel.Target)]
		if !okS || !okD {
			continue
		}
		if err := p.graph.CreateRelatedEdge(ctx, src, dst, in.UserID, rel.RelationType, rel.Confidence); err != nil {
			logger.WarnContext(ctx, "failed to create relationship edge", "relation", rel.RelationType, "error", err)
			continue
		}
		res.Relationships++
	}

	n, err := p.resolver.LinkCooccurrences(ctx, in.UserID, in.Text, res.Entities)
	res.CooccurrenceEdges = n
	if err != nil {
		logger.WarnContext(ctx, "failed to link co-occurrences", "error", err)
	}
	return res, ctx.Err()
}
