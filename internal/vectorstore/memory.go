package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStore is an in-process VectorStore using brute-force cosine
// similarity. It backs tests and the local import CLI's --dry-run mode.
type MemoryStore struct {
	mu         sync.RWMutex
	vectorSize int
	points     map[string]Point
	ready      bool
}

// NewMemoryStore creates an empty store for vectors of the given size.
func NewMemoryStore(vectorSize int) *MemoryStore {
	return &MemoryStore{vectorSize: vectorSize, points: make(map[string]Point)}
}

func (s *MemoryStore) EnsureCollection(ctx context.Context) error {
	if s.vectorSize <= 0 {
		return fmt.Errorf("invalid vector size %d", s.vectorSize)
	}
	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Upsert(ctx context.Context, points []Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range points {
		if len(p.Vector) != s.vectorSize {
			return fmt.Errorf("point %s has %d dimensions, collection expects %d", p.ID, len(p.Vector), s.vectorSize)
		}
	}
	for _, p := range points {
		vec := make([]float32, len(p.Vector))
		copy(vec, p.Vector)
		p.Vector = vec
		s.points[p.ID] = p
	}
	return nil
}

func (s *MemoryStore) Search(ctx context.Context, req SearchRequest) ([]SearchResult, error) {
	if err := validateSearch(req); err != nil {
		return nil, err
	}
	allowed := make(map[string]bool, len(req.DocIDs))
	for _, id := range req.DocIDs {
		allowed[id] = true
	}

	s.mu.RLock()
	results := make([]SearchResult, 0, len(s.points))
	for id, p := range s.points {
		if p.Payload.UserID != req.UserID {
			continue
		}
		if len(allowed) > 0 && !allowed[p.Payload.DocID] {
			continue
		}
		score := float32(cosine(p.Vector, req.Vector))
		if req.ScoreThreshold > 0 && score < req.ScoreThreshold {
			continue
		}
		results = append(results, SearchResult{PointID: id, Score: score, Payload: p.Payload})
	}
	s.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].PointID < results[j].PointID
	})
	if len(results) > req.Limit {
		results = results[:req.Limit]
	}
	return results, nil
}

func (s *MemoryStore) DeleteByDocument(ctx context.Context, docID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.points {
		if p.Payload.DocID == docID && p.Payload.UserID == userID {
			delete(s.points, id)
		}
	}
	return nil
}

func (s *MemoryStore) CountByDocument(ctx context.Context, docID, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.points {
		if p.Payload.DocID == docID && p.Payload.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) ListDocumentChunks(ctx context.Context, docID, userID string) ([]Payload, error) {
	s.mu.RLock()
	var out []Payload
	for _, p := range s.points {
		if p.Payload.DocID == docID && p.Payload.UserID == userID {
			out = append(out, p.Payload)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ChunkIndex < out[j].ChunkIndex })
	return out, nil
}

func (s *MemoryStore) ListDocumentIDs(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	seen := make(map[string]struct{})
	for _, p := range s.points {
		if p.Payload.UserID == userID {
			seen[p.Payload.DocID] = struct{}{}
		}
	}
	s.mu.RUnlock()
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Len returns the total number of stored points.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

var _ VectorStore = (*MemoryStore)(nil)
var _ VectorStore = (*QdrantStore)(nil)
