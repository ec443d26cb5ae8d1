package graphstore

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"documind/internal/contextutil"
)

// Neo4jConfig configures the Neo4j adapter.
type Neo4jConfig struct {
	URI      string
	Username string
	Password string
	Database string
	// Timeout bounds each transaction.
	Timeout time.Duration
}

// Neo4jStore implements GraphStore on Neo4j.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
	timeout  time.Duration
}

// NewNeo4jStore creates a driver. It does not contact the server; call
// VerifyConnectivity for that.
func NewNeo4jStore(cfg Neo4jConfig) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Neo4jStore{driver: driver, database: cfg.Database, timeout: timeout}, nil
}

// Close closes the driver.
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Neo4jStore) VerifyConnectivity(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("failed to reach Neo4j: %w", err)
	}
	return nil
}

var schemaStatements = []string{
	"CREATE CONSTRAINT document_docid_userid IF NOT EXISTS FOR (d:Document) REQUIRE (d.docId, d.userId) IS UNIQUE",
	"CREATE CONSTRAINT chunk_chunkid_userid IF NOT EXISTS FOR (c:Chunk) REQUIRE (c.chunkId, c.userId) IS UNIQUE",
	"CREATE CONSTRAINT entity_entityid_userid IF NOT EXISTS FOR (e:Entity) REQUIRE (e.entityId, e.userId) IS UNIQUE",
	"CREATE CONSTRAINT topic_topicid_userid IF NOT EXISTS FOR (t:Topic) REQUIRE (t.topicId, t.userId) IS UNIQUE",
	"CREATE INDEX document_userid IF NOT EXISTS FOR (d:Document) ON (d.userId)",
	"CREATE INDEX chunk_userid IF NOT EXISTS FOR (c:Chunk) ON (c.userId)",
	"CREATE INDEX entity_userid IF NOT EXISTS FOR (e:Entity) ON (e.userId)",
	"CREATE INDEX entity_category IF NOT EXISTS FOR (e:Entity) ON (e.category)",
}

func (s *Neo4jStore) EnsureSchema(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)
	for _, stmt := range schemaStatements {
		// Schema statements cannot share a transaction with each other.
		if err := s.write(ctx, stmt, nil); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	logger.InfoContext(ctx, "neo4j schema ensured", "statements", len(schemaStatements))
	return nil
}

func (s *Neo4jStore) UpsertDocument(ctx context.Context, doc DocumentNode) error {
	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return s.write(ctx, `
		MERGE (d:Document {docId: $docId, userId: $userId})
		ON CREATE SET d.createdAt = datetime($createdAt)
		SET d.filename = $filename, d.title = $title`,
		map[string]any{
			"docId":     doc.DocID,
			"userId":    doc.UserID,
			"filename":  doc.Filename,
			"title":     doc.Title,
			"createdAt": createdAt.UTC().Format(time.RFC3339),
		})
}

func (s *Neo4jStore) UpsertChunk(ctx context.Context, chunk ChunkNode) error {
	return s.write(ctx, `
		MATCH (d:Document {docId: $docId, userId: $userId})
		MERGE (c:Chunk {chunkId: $chunkId, userId: $userId})
		ON CREATE SET c.createdAt = datetime()
		SET c.text = $text, c.chunkIndex = $chunkIndex, c.docId = $docId
		MERGE (d)-[:CONTAINS]->(c)`,
		map[string]any{
			"docId":      chunk.DocID,
			"userId":     chunk.UserID,
			"chunkId":    chunk.ChunkID,
			"text":       chunk.Text,
			"chunkIndex": int64(chunk.ChunkIndex),
		})
}

func (s *Neo4jStore) UpsertEntity(ctx context.Context, chunkID string, entity EntityNode) error {
	return s.write(ctx, `
		MATCH (c:Chunk {chunkId: $chunkId, userId: $userId})
		MERGE (e:Entity {entityId: $entityId, userId: $userId})
		ON CREATE SET e.createdAt = datetime(), e.docId = $docId
		SET e.name = $name,
		    e.category = $category,
		    e.confidence = CASE WHEN e.confidence IS NULL OR $confidence > e.confidence THEN $confidence ELSE e.confidence END,
		    e.updatedAt = datetime()
		MERGE (c)-[:MENTIONS]->(e)`,
		map[string]any{
			"chunkId":    chunkID,
			"userId":     entity.UserID,
			"entityId":   entity.EntityID,
			"docId":      entity.DocID,
			"name":       entity.Name,
			"category":   entity.Category,
			"confidence": entity.Confidence,
		})
}

func (s *Neo4jStore) UpsertTopic(ctx context.Context, topic TopicNode) error {
	keywords := topic.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return s.write(ctx, `
		MERGE (t:Topic {topicId: $topicId, userId: $userId})
		ON CREATE SET t.createdAt = datetime()
		SET t.name = $name, t.description = $description, t.keywords = $keywords, t.confidence = $confidence`,
		map[string]any{
			"topicId":     topic.TopicID,
			"userId":      topic.UserID,
			"name":        topic.Name,
			"description": topic.Description,
			"keywords":    keywords,
			"confidence":  topic.Confidence,
		})
}

func (s *Neo4jStore) CreateSimilarityEdge(ctx context.Context, a, b, userID string, score float64, rel RelType) error {
	if rel != RelSimilarTo {
		return fmt.Errorf("unsupported entity similarity relationship %q", rel)
	}
	a, b = canonicalPair(a, b)
	return s.write(ctx, `
		MATCH (a:Entity {entityId: $a, userId: $userId}), (b:Entity {entityId: $b, userId: $userId})
		MERGE (a)-[r:SIMILAR_TO]->(b)
		SET r.score = CASE WHEN r.score IS NULL OR $score > r.score THEN $score ELSE r.score END`,
		map[string]any{"a": a, "b": b, "userId": userID, "score": score})
}

func (s *Neo4jStore) CreateCooccurrenceEdge(ctx context.Context, a, b, userID string, confidence float64, increment bool) error {
	a, b = canonicalPair(a, b)
	return s.write(ctx, `
		MATCH (a:Entity {entityId: $a, userId: $userId}), (b:Entity {entityId: $b, userId: $userId})
		MERGE (a)-[r:COOCCURS_WITH]->(b)
		ON CREATE SET r.count = 1, r.confidence = $confidence
		ON MATCH SET r.count = CASE WHEN $increment THEN r.count + 1 ELSE r.count END,
		             r.confidence = CASE WHEN $confidence > r.confidence THEN $confidence ELSE r.confidence END`,
		map[string]any{"a": a, "b": b, "userId": userID, "confidence": confidence, "increment": increment})
}

func (s *Neo4jStore) CreateSameAsEdge(ctx context.Context, duplicate, primary, userID string, confidence float64) error {
	return s.write(ctx, `
		MATCH (d:Entity {entityId: $duplicate, userId: $userId}), (p:Entity {entityId: $primary, userId: $userId})
		MERGE (d)-[r:SAME_AS]->(p)
		SET r.confidence = $confidence, d.primaryId = $primary`,
		map[string]any{"duplicate": duplicate, "primary": primary, "userId": userID, "confidence": confidence})
}

func (s *Neo4jStore) CreateRelatedEdge(ctx context.Context, source, target, userID, relationType string, confidence float64) error {
	return s.write(ctx, `
		MATCH (a:Entity {entityId: $source, userId: $userId}), (b:Entity {entityId: $target, userId: $userId})
		MERGE (a)-[r:RELATED_TO {relationType: $relationType}]->(b)
		SET r.confidence = $confidence`,
		map[string]any{"source": source, "target": target, "userId": userID, "relationType": relationType, "confidence": confidence})
}

func (s *Neo4jStore) CreateDocumentSimilarityEdge(ctx context.Context, docA, docB, userID string, similarity float64) error {
	docA, docB = canonicalPair(docA, docB)
	return s.write(ctx, `
		MATCH (a:Document {docId: $a, userId: $userId}), (b:Document {docId: $b, userId: $userId})
		MERGE (a)-[r:DOCUMENT_SIMILAR_TO]->(b)
		SET r.similarity = $similarity, r.updatedAt = datetime()`,
		map[string]any{"a": docA, "b": docB, "userId": userID, "similarity": similarity})
}

func (s *Neo4jStore) CreateTopicEdge(ctx context.Context, topicID, docID, userID string, relevance float64) error {
	return s.write(ctx, `
		MATCH (t:Topic {topicId: $topicId, userId: $userId}), (d:Document {docId: $docId, userId: $userId})
		MERGE (t)-[r:CATEGORIZES]->(d)
		SET r.relevance = $relevance`,
		map[string]any{"topicId": topicID, "docId": docID, "userId": userID, "relevance": relevance})
}

func (s *Neo4jStore) ListEntities(ctx context.Context, userID, category string) ([]EntityNode, error) {
	records, err := s.read(ctx, `
		MATCH (e:Entity {userId: $userId})
		WHERE $category = '' OR e.category = $category
		RETURN e
		ORDER BY e.entityId`,
		map[string]any{"userId": userID, "category": category})
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	entities := make([]EntityNode, 0, len(records))
	for _, rec := range records {
		if n, ok := recordNode(rec, "e"); ok {
			entities = append(entities, entityFromProps(n.Props))
		}
	}
	return entities, nil
}

func (s *Neo4jStore) ListDocuments(ctx context.Context, userID string) ([]DocumentNode, error) {
	records, err := s.read(ctx, `
		MATCH (d:Document {userId: $userId})
		RETURN d
		ORDER BY d.docId`,
		map[string]any{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	docs := make([]DocumentNode, 0, len(records))
	for _, rec := range records {
		if n, ok := recordNode(rec, "d"); ok {
			docs = append(docs, documentFromProps(n.Props))
		}
	}
	return docs, nil
}

func (s *Neo4jStore) CountChunks(ctx context.Context, docID, userID string) (int, error) {
	records, err := s.read(ctx, `
		MATCH (:Document {docId: $docId, userId: $userId})-[:CONTAINS]->(c:Chunk {userId: $userId})
		RETURN count(c) AS n`,
		map[string]any{"docId": docID, "userId": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}
	v, _ := records[0].Get("n")
	n, _ := v.(int64)
	return int(n), nil
}

func (s *Neo4jStore) GetGraph(ctx context.Context, userID string, docIDs []string) (Graph, error) {
	logger := contextutil.LoggerFromContext(ctx)
	params := map[string]any{"userId": userID, "docIds": docIDs, "filter": len(docIDs) > 0}
	b := newBuilder()

	docs, err := s.read(ctx, `
		MATCH (d:Document {userId: $userId})
		WHERE NOT $filter OR d.docId IN $docIds
		RETURN d`, params)
	if err != nil {
		return Graph{}, fmt.Errorf("failed to read documents: %w", err)
	}
	scopedDocs := []string{}
	for _, rec := range docs {
		if n, ok := recordNode(rec, "d"); ok {
			d := documentFromProps(n.Props)
			b.addNode(documentGraphNode(d))
			scopedDocs = append(scopedDocs, d.DocID)
		}
	}
	params["scoped"] = scopedDocs

	chunks, err := s.read(ctx, `
		MATCH (d:Document {userId: $userId})-[:CONTAINS]->(c:Chunk {userId: $userId})
		WHERE d.docId IN $scoped
		RETURN d.docId AS docId, c`, params)
	if err != nil {
		return Graph{}, fmt.Errorf("failed to read chunks: %w", err)
	}
	for _, rec := range chunks {
		n, ok := recordNode(rec, "c")
		if !ok {
			continue
		}
		c := chunkFromProps(n.Props)
		b.addNode(chunkGraphNode(c))
		b.addEdge(Edge{Type: RelContains, Source: recordString(rec, "docId"), Target: c.ChunkID})
	}

	mentions, err := s.read(ctx, `
		MATCH (d:Document {userId: $userId})-[:CONTAINS]->(c:Chunk {userId: $userId})-[:MENTIONS]->(e:Entity {userId: $userId})
		WHERE d.docId IN $scoped
		RETURN DISTINCT c.chunkId AS chunkId, e`, params)
	if err != nil {
		return Graph{}, fmt.Errorf("failed to read entities: %w", err)
	}
	entityIDs := []string{}
	for _, rec := range mentions {
		n, ok := recordNode(rec, "e")
		if !ok {
			continue
		}
		e := entityFromProps(n.Props)
		if !b.hasNode(e.EntityID) {
			entityIDs = append(entityIDs, e.EntityID)
		}
		b.addNode(entityGraphNode(e))
		b.addEdge(Edge{Type: RelMentions, Source: recordString(rec, "chunkId"), Target: e.EntityID})
	}
	params["entityIds"] = entityIDs

	topics, err := s.read(ctx, `
		MATCH (t:Topic {userId: $userId})-[r:CATEGORIZES]->(d:Document {userId: $userId})
		WHERE d.docId IN $scoped
		RETURN t, d.docId AS docId, r.relevance AS relevance`, params)
	if err != nil {
		return Graph{}, fmt.Errorf("failed to read topics: %w", err)
	}
	for _, rec := range topics {
		n, ok := recordNode(rec, "t")
		if !ok {
			continue
		}
		t := topicFromProps(n.Props)
		b.addNode(topicGraphNode(t))
		relevance, _ := rec.Get("relevance")
		b.addEdge(Edge{Type: RelCategorizes, Source: t.TopicID, Target: recordString(rec, "docId"),
			Properties: map[string]any{"relevance": relevance}})
	}

	links, err := s.read(ctx, `
		MATCH (a:Entity {userId: $userId})-[r:COOCCURS_WITH|SIMILAR_TO|SAME_AS|RELATED_TO]-(b:Entity {userId: $userId})
		WHERE a.entityId IN $entityIds AND b.entityId IN $entityIds
		RETURN startNode(r).entityId AS source, endNode(r).entityId AS target, type(r) AS type, properties(r) AS props
		UNION
		MATCH (a:Document {userId: $userId})-[r:DOCUMENT_SIMILAR_TO]-(b:Document {userId: $userId})
		WHERE a.docId IN $scoped AND b.docId IN $scoped
		RETURN startNode(r).docId AS source, endNode(r).docId AS target, type(r) AS type, properties(r) AS props`, params)
	if err != nil {
		return Graph{}, fmt.Errorf("failed to read relationships: %w", err)
	}
	for _, rec := range links {
		props, _ := rec.Get("props")
		m, _ := props.(map[string]any)
		b.addEdge(Edge{
			Type:       RelType(recordString(rec, "type")),
			Source:     recordString(rec, "source"),
			Target:     recordString(rec, "target"),
			Properties: m,
		})
	}

	g := b.graph()
	logger.DebugContext(ctx, "graph loaded", "user_id", userID, "nodes", len(g.Nodes), "edges", len(g.Edges))
	return g, nil
}

func (s *Neo4jStore) DeleteDocumentSubgraph(ctx context.Context, docID, userID string) error {
	params := map[string]any{"docId": docID, "userId": userID}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite, DatabaseName: s.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		steps := []string{
			`MATCH (d:Document {docId: $docId, userId: $userId}) DETACH DELETE d`,
			`MATCH (c:Chunk {userId: $userId}) WHERE NOT ()-[:CONTAINS]->(c) DETACH DELETE c`,
			`MATCH (e:Entity {userId: $userId}) WHERE NOT ()-[:MENTIONS]->(e) DETACH DELETE e`,
		}
		for _, q := range steps {
			res, err := tx.Run(ctx, q, params)
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete document subgraph: %w", err)
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "deleted document subgraph", "doc_id", docID)
	return nil
}

func (s *Neo4jStore) write(ctx context.Context, query string, params map[string]any) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite, DatabaseName: s.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	return err
}

func (s *Neo4jStore) read(ctx context.Context, query string, params map[string]any) ([]*neo4j.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead, DatabaseName: s.database})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	records, _ := out.([]*neo4j.Record)
	return records, nil
}

func recordNode(rec *neo4j.Record, key string) (neo4j.Node, bool) {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return neo4j.Node{}, false
	}
	n, ok := v.(neo4j.Node)
	return n, ok
}

func recordString(rec *neo4j.Record, key string) string {
	v, _ := rec.Get(key)
	s, _ := v.(string)
	return s
}

func propString(props map[string]any, key string) string {
	s, _ := props[key].(string)
	return s
}

func propFloat(props map[string]any, key string) float64 {
	switch v := props[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}

func propInt(props map[string]any, key string) int {
	switch v := props[key].(type) {
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func documentFromProps(p map[string]any) DocumentNode {
	d := DocumentNode{
		DocID:    propString(p, "docId"),
		UserID:   propString(p, "userId"),
		Filename: propString(p, "filename"),
		Title:    propString(p, "title"),
	}
	if t, ok := p["createdAt"].(time.Time); ok {
		d.CreatedAt = t
	}
	return d
}

func chunkFromProps(p map[string]any) ChunkNode {
	return ChunkNode{
		ChunkID:    propString(p, "chunkId"),
		DocID:      propString(p, "docId"),
		UserID:     propString(p, "userId"),
		Text:       propString(p, "text"),
		ChunkIndex: propInt(p, "chunkIndex"),
	}
}

func entityFromProps(p map[string]any) EntityNode {
	return EntityNode{
		EntityID:   propString(p, "entityId"),
		UserID:     propString(p, "userId"),
		DocID:      propString(p, "docId"),
		Name:       propString(p, "name"),
		Category:   propString(p, "category"),
		Confidence: propFloat(p, "confidence"),
	}
}

func topicFromProps(p map[string]any) TopicNode {
	t := TopicNode{
		TopicID:     propString(p, "topicId"),
		UserID:      propString(p, "userId"),
		Name:        propString(p, "name"),
		Description: propString(p, "description"),
		Confidence:  propFloat(p, "confidence"),
	}
	if kws, ok := p["keywords"].([]any); ok {
		for _, k := range kws {
			if s, ok := k.(string); ok {
				t.Keywords = append(t.Keywords, s)
			}
		}
	}
	return t
}

var _ GraphStore = (*Neo4jStore)(nil)
