package graphstore

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"
)

type memKey struct {
	userID string
	id     string
}

type memEdge struct {
	rel    RelType
	userID string
	from   string
	to     string
	props  map[string]any
}

// MemoryStore is an in-process GraphStore with the same merge and cascade
// semantics as the Neo4j adapter.
type MemoryStore struct {
	mu        sync.RWMutex
	documents map[memKey]DocumentNode
	chunks    map[memKey]ChunkNode
	entities  map[memKey]EntityNode
	topics    map[memKey]TopicNode
	edges     map[string]*memEdge
}

// NewMemoryStore creates an empty graph.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		documents: make(map[memKey]DocumentNode),
		chunks:    make(map[memKey]ChunkNode),
		entities:  make(map[memKey]EntityNode),
		topics:    make(map[memKey]TopicNode),
		edges:     make(map[string]*memEdge),
	}
}

func (s *MemoryStore) EnsureSchema(ctx context.Context) error        { return nil }
func (s *MemoryStore) VerifyConnectivity(ctx context.Context) error { return nil }

func (s *MemoryStore) UpsertDocument(ctx context.Context, doc DocumentNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := memKey{doc.UserID, doc.DocID}
	if existing, ok := s.documents[k]; ok {
		doc.CreatedAt = existing.CreatedAt
	} else if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	s.documents[k] = doc
	return nil
}

func (s *MemoryStore) UpsertChunk(ctx context.Context, chunk ChunkNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[memKey{chunk.UserID, chunk.DocID}]; !ok {
		return nil
	}
	s.chunks[memKey{chunk.UserID, chunk.ChunkID}] = chunk
	s.mergeEdge(RelContains, chunk.UserID, chunk.DocID, chunk.ChunkID)
	return nil
}

func (s *MemoryStore) UpsertEntity(ctx context.Context, chunkID string, entity EntityNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chunks[memKey{entity.UserID, chunkID}]; !ok {
		return nil
	}
	k := memKey{entity.UserID, entity.EntityID}
	if existing, ok := s.entities[k]; ok {
		entity.DocID = existing.DocID
		if existing.Confidence > entity.Confidence {
			entity.Confidence = existing.Confidence
		}
	}
	s.entities[k] = entity
	s.mergeEdge(RelMentions, entity.UserID, chunkID, entity.EntityID)
	return nil
}

func (s *MemoryStore) UpsertTopic(ctx context.Context, topic TopicNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topics[memKey{topic.UserID, topic.TopicID}] = topic
	return nil
}

func (s *MemoryStore) CreateSimilarityEdge(ctx context.Context, a, b, userID string, score float64, rel RelType) error {
	if rel != RelSimilarTo {
		return fmt.Errorf("unsupported entity similarity relationship %q", rel)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.entitiesExist(userID, a, b) {
		return nil
	}
	e := s.mergeEdge(RelSimilarTo, userID, a, b)
	if prev, ok := e.props["score"].(float64); !ok || score > prev {
		e.props["score"] = score
	}
	return nil
}

func (s *MemoryStore) CreateCooccurrenceEdge(ctx context.Context, a, b, userID string, confidence float64, increment bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.entitiesExist(userID, a, b) {
		return nil
	}
	e := s.mergeEdge(RelCooccursWith, userID, a, b)
	count, ok := e.props["count"].(int)
	switch {
	case !ok:
		e.props["count"] = 1
		e.props["confidence"] = confidence
	default:
		if increment {
			e.props["count"] = count + 1
		}
		if prev, _ := e.props["confidence"].(float64); confidence > prev {
			e.props["confidence"] = confidence
		}
	}
	return nil
}

func (s *MemoryStore) CreateSameAsEdge(ctx context.Context, duplicate, primary, userID string, confidence float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.entitiesExist(userID, duplicate, primary) {
		return nil
	}
	e := s.mergeEdge(RelSameAs, userID, duplicate, primary)
	e.props["confidence"] = confidence
	return nil
}

func (s *MemoryStore) CreateRelatedEdge(ctx context.Context, source, target, userID, relationType string, confidence float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.entitiesExist(userID, source, target) {
		return nil
	}
	key := edgeKey(RelRelatedTo, source, target) + "|" + userID + "|" + relationType
	e, ok := s.edges[key]
	if !ok {
		e = &memEdge{rel: RelRelatedTo, userID: userID, from: source, to: target, props: map[string]any{"relationType": relationType}}
		s.edges[key] = e
	}
	e.props["confidence"] = confidence
	return nil
}

func (s *MemoryStore) CreateDocumentSimilarityEdge(ctx context.Context, docA, docB, userID string, similarity float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, okA := s.documents[memKey{userID, docA}]
	_, okB := s.documents[memKey{userID, docB}]
	if !okA || !okB {
		return nil
	}
	e := s.mergeEdge(RelDocumentSimilarTo, userID, docA, docB)
	e.props["similarity"] = similarity
	return nil
}

func (s *MemoryStore) CreateTopicEdge(ctx context.Context, topicID, docID, userID string, relevance float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, okT := s.topics[memKey{userID, topicID}]
	_, okD := s.documents[memKey{userID, docID}]
	if !okT || !okD {
		return nil
	}
	e := s.mergeEdge(RelCategorizes, userID, topicID, docID)
	e.props["relevance"] = relevance
	return nil
}

func (s *MemoryStore) ListEntities(ctx context.Context, userID, category string) ([]EntityNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []EntityNode
	for k, e := range s.entities {
		if k.userID == userID && (category == "" || e.Category == category) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out, nil
}

func (s *MemoryStore) ListDocuments(ctx context.Context, userID string) ([]DocumentNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listDocuments(userID), nil
}

func (s *MemoryStore) CountChunks(ctx context.Context, docID, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.edges {
		if e.rel == RelContains && e.userID == userID && e.from == docID {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) GetGraph(ctx context.Context, userID string, docIDs []string) (Graph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b := newBuilder()
	for _, d := range s.listDocuments(userID) {
		if len(docIDs) > 0 && !slices.Contains(docIDs, d.DocID) {
			continue
		}
		b.addNode(documentGraphNode(d))
	}

	edges := s.sortedEdges(userID)
	for _, e := range edges {
		if e.rel == RelContains && b.hasNode(e.from) {
			b.addNode(chunkGraphNode(s.chunks[memKey{userID, e.to}]))
			b.addEdge(Edge{Type: RelContains, Source: e.from, Target: e.to})
		}
	}
	for _, e := range edges {
		if e.rel == RelMentions && b.hasNode(e.from) {
			b.addNode(entityGraphNode(s.entities[memKey{userID, e.to}]))
			b.addEdge(Edge{Type: RelMentions, Source: e.from, Target: e.to})
		}
	}
	for _, e := range edges {
		if e.rel == RelCategorizes && b.hasNode(e.to) {
			b.addNode(topicGraphNode(s.topics[memKey{userID, e.from}]))
			b.addEdge(Edge{Type: RelCategorizes, Source: e.from, Target: e.to, Properties: copyProps(e.props)})
		}
	}
	for _, e := range edges {
		switch e.rel {
		case RelContains, RelMentions, RelCategorizes:
			continue
		}
		if b.hasNode(e.from) && b.hasNode(e.to) {
			b.addEdge(Edge{Type: e.rel, Source: e.from, Target: e.to, Properties: copyProps(e.props)})
		}
	}
	return b.graph(), nil
}

func (s *MemoryStore) DeleteDocumentSubgraph(ctx context.Context, docID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.documents, memKey{userID, docID})
	s.detach(userID, docID)

	for k := range s.chunks {
		if k.userID == userID && !s.hasIncoming(RelContains, userID, k.id) {
			delete(s.chunks, k)
			s.detach(userID, k.id)
		}
	}
	for k := range s.entities {
		if k.userID == userID && !s.hasIncoming(RelMentions, userID, k.id) {
			delete(s.entities, k)
			s.detach(userID, k.id)
		}
	}
	return nil
}

func (s *MemoryStore) listDocuments(userID string) []DocumentNode {
	var out []DocumentNode
	for k, d := range s.documents {
		if k.userID == userID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocID < out[j].DocID })
	return out
}

func (s *MemoryStore) mergeEdge(rel RelType, userID, from, to string) *memEdge {
	if rel.Symmetric() {
		from, to = canonicalPair(from, to)
	}
	key := edgeKey(rel, from, to) + "|" + userID
	e, ok := s.edges[key]
	if !ok {
		e = &memEdge{rel: rel, userID: userID, from: from, to: to, props: map[string]any{}}
		s.edges[key] = e
	}
	return e
}

func (s *MemoryStore) entitiesExist(userID string, ids ...string) bool {
	for _, id := range ids {
		if _, ok := s.entities[memKey{userID, id}]; !ok {
			return false
		}
	}
	return true
}

func (s *MemoryStore) hasIncoming(rel RelType, userID, id string) bool {
	for _, e := range s.edges {
		if e.rel == rel && e.userID == userID && e.to == id {
			return true
		}
	}
	return false
}

func (s *MemoryStore) detach(userID, id string) {
	for key, e := range s.edges {
		if e.userID == userID && (e.from == id || e.to == id) {
			delete(s.edges, key)
		}
	}
}

func (s *MemoryStore) sortedEdges(userID string) []*memEdge {
	keys := make([]string, 0, len(s.edges))
	for k, e := range s.edges {
		if e.userID == userID {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := make([]*memEdge, len(keys))
	for i, k := range keys {
		out[i] = s.edges[k]
	}
	return out
}

func copyProps(p map[string]any) map[string]any {
	if len(p) == 0 {
		return nil
	}
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

var _ GraphStore = (*MemoryStore)(nil)
