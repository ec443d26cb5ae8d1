package entities

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"documind/internal/contextutil"
	"documind/internal/graphstore"
)

// proximityWindow is the character distance at which the co-occurrence bonus halves.
const proximityWindow = 100.0

// ResolverConfig holds the resolution thresholds.
type ResolverConfig struct {
	// SameAsThreshold: similarity strictly above it creates SAME_AS.
	SameAsThreshold float64
	// SimilarThreshold: similarity strictly above it (and not above
	// SameAsThreshold) creates SIMILAR_TO.
	SimilarThreshold float64
	// CooccurrenceMaxBonus caps the proximity bonus.
	CooccurrenceMaxBonus float64
}

// DefaultResolverConfig returns the standard thresholds.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{SameAsThreshold: 0.8, SimilarThreshold: 0.6, CooccurrenceMaxBonus: 0.3}
}

// ResolveStats counts edges written by cross-document resolution.
type ResolveStats struct {
	SameAs  int
	Similar int
}

// ClusterStats counts edges written by the clustering pass.
type ClusterStats struct {
	Entities int `json:"entities"`
	Edges    int `json:"edges"`
}

// Resolver links entities by co-occurrence and name similarity.
type Resolver struct {
	graph graphstore.GraphStore
	cfg   ResolverConfig
}

// NewResolver creates a resolver writing to graph.
func NewResolver(graph graphstore.GraphStore, cfg ResolverConfig) *Resolver {
	return &Resolver{graph: graph, cfg: cfg}
}

// CooccurrenceConfidence scores two entities found in the same chunk.
// distance is the character distance between their first occurrences.
func CooccurrenceConfidence(confA, confB float64, distance int, maxBonus float64) float64 {
	if distance < 0 {
		distance = -distance
	}
	bonus := maxBonus * proximityWindow / (float64(distance) + proximityWindow)
	return math.Max(0, math.Min(1, math.Min(confA, confB)+bonus))
}

// LinkCooccurrences creates or increments a COOCCURS_WITH edge for every pair
// of entities that can both be located in chunkText.
func (r *Resolver) LinkCooccurrences(ctx context.Context, userID, chunkText string, entities []graphstore.EntityNode) (int, error) {
	lower := strings.ToLower(chunkText)
	positions := make([]int, len(entities))
	for i, e := range entities {
		positions[i] = strings.Index(lower, strings.ToLower(e.Name))
	}

	created := 0
	for i := 0; i < len(entities); i++ {
		for j := i + 1; j < len(entities); j++ {
			if positions[i] < 0 || positions[j] < 0 || entities[i].EntityID == entities[j].EntityID {
				continue
			}
			conf := CooccurrenceConfidence(entities[i].Confidence, entities[j].Confidence, positions[i]-positions[j], r.cfg.CooccurrenceMaxBonus)
			if err := r.graph.CreateCooccurrenceEdge(ctx, entities[i].EntityID, entities[j].EntityID, userID, conf, true); err != nil {
				return created, fmt.Errorf("failed to create co-occurrence edge: %w", err)
			}
			created++
		}
	}
	return created, nil
}

// ResolveCrossDocument compares each fresh entity with the user's existing
// entities of the same category in other documents.
func (r *Resolver) ResolveCrossDocument(ctx context.Context, userID string, fresh []graphstore.EntityNode) (ResolveStats, error) {
	logger := contextutil.LoggerFromContext(ctx)
	var stats ResolveStats

	byCategory := make(map[string][]graphstore.EntityNode)
	for _, e := range fresh {
		byCategory[e.Category] = append(byCategory[e.Category], e)
	}
	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	seen := make(map[string]struct{})
	for _, category := range categories {
		existing, err := r.graph.ListEntities(ctx, userID, category)
		if err != nil {
			return stats, fmt.Errorf("failed to list %s entities: %w", category, err)
		}

		for _, f := range byCategory[category] {
			for _, e := range existing {
				if e.EntityID == f.EntityID || e.DocID == f.DocID {
					continue
				}
				a, b := f.EntityID, e.EntityID
				if b < a {
					a, b = b, a
				}
				if _, ok := seen[a+"|"+b]; ok {
					continue
				}
				seen[a+"|"+b] = struct{}{}

				score := NameSimilarity(f.Name, Category(f.Category), e.Name, Category(e.Category))
				switch {
				case score > r.cfg.SameAsThreshold:
					if err := r.graph.CreateSameAsEdge(ctx, f.EntityID, e.EntityID, userID, score); err != nil {
						return stats, fmt.Errorf("failed to create SAME_AS edge: %w", err)
					}
					stats.SameAs++
				case score > r.cfg.SimilarThreshold:
					if err := r.graph.CreateSimilarityEdge(ctx, f.EntityID, e.EntityID, userID, score, graphstore.RelSimilarTo); err != nil {
						return stats, fmt.Errorf("failed to create SIMILAR_TO edge: %w", err)
					}
					stats.Similar++
				}
			}
		}
	}

	logger.InfoContext(ctx, "cross-document resolution completed", "entities", len(fresh), "same_as", stats.SameAs, "similar", stats.Similar)
	return stats, nil
}

// Cluster runs the category-specific heuristics over all of the user's
// entities and adds weak SIMILAR_TO edges.
func (r *Resolver) Cluster(ctx context.Context, userID string) (ClusterStats, error) {
	logger := contextutil.LoggerFromContext(ctx)
	var stats ClusterStats

	for _, category := range []Category{CategoryPerson, CategoryOrganization, CategoryLocation} {
		list, err := r.graph.ListEntities(ctx, userID, string(category))
		if err != nil {
			return stats, fmt.Errorf("failed to list %s entities: %w", category, err)
		}
		stats.Entities += len(list)

		for i := 0; i < len(list); i++ {
			for j := i + 1; j < len(list); j++ {
				score := clusterScore(list[i].Name, list[j].Name, category)
				if score == 0 {
					continue
				}
				if err := r.graph.CreateSimilarityEdge(ctx, list[i].EntityID, list[j].EntityID, userID, score, graphstore.RelSimilarTo); err != nil {
					return stats, fmt.Errorf("failed to create cluster edge: %w", err)
				}
				stats.Edges++
			}
		}
	}

	logger.InfoContext(ctx, "entity clustering completed", "entities", stats.Entities, "edges", stats.Edges)
	return stats, nil
}
