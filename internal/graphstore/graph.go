package graphstore

import (
	"fmt"
	"slices"
)

// DefaultMaxNodes bounds the visualization graph when the caller sets no limit.
const DefaultMaxNodes = 500

// builder accumulates nodes and edges, dropping repeats. Symmetric edges are
// keyed on their sorted endpoints so a pair matched from both sides counts once.
// RELATED_TO edges are also keyed on their relationType.
type builder struct {
	nodes     []Node
	nodeIndex map[string]int
	edges     []Edge
	edgeSeen  map[string]struct{}
}

func newBuilder() *builder {
	return &builder{nodeIndex: make(map[string]int), edgeSeen: make(map[string]struct{})}
}

func (b *builder) addNode(n Node) {
	if _, ok := b.nodeIndex[n.ID]; ok {
		return
	}
	b.nodeIndex[n.ID] = len(b.nodes)
	b.nodes = append(b.nodes, n)
}

func (b *builder) hasNode(id string) bool {
	_, ok := b.nodeIndex[id]
	return ok
}

func (b *builder) addEdge(e Edge) {
	key := edgeKey(e.Type, e.Source, e.Target)
	if e.Type == RelRelatedTo {
		key += fmt.Sprintf("|%v", e.Properties["relationType"])
	}
	if _, ok := b.edgeSeen[key]; ok {
		return
	}
	b.edgeSeen[key] = struct{}{}
	b.edges = append(b.edges, e)
}

func (b *builder) graph() Graph {
	g := Graph{Nodes: b.nodes, Edges: b.edges}
	if g.Nodes == nil {
		g.Nodes = []Node{}
	}
	if g.Edges == nil {
		g.Edges = []Edge{}
	}
	return g
}

func edgeKey(rel RelType, source, target string) string {
	if rel.Symmetric() {
		source, target = canonicalPair(source, target)
	}
	return fmt.Sprintf("%s|%s|%s", rel, source, target)
}

// canonicalPair orders two ids so symmetric edges are stored one way.
func canonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

func documentGraphNode(d DocumentNode) Node {
	label := d.Title
	if label == "" {
		label = d.Filename
	}
	return Node{ID: d.DocID, Type: NodeDocument, Label: label, Properties: map[string]any{
		"filename": d.Filename,
		"title":    d.Title,
	}}
}

func chunkGraphNode(c ChunkNode) Node {
	return Node{ID: c.ChunkID, Type: NodeChunk, Label: fmt.Sprintf("Chunk %d", c.ChunkIndex), Properties: map[string]any{
		"docId":      c.DocID,
		"chunkIndex": c.ChunkIndex,
		"text":       c.Text,
	}}
}

func entityGraphNode(e EntityNode) Node {
	return Node{ID: e.EntityID, Type: NodeEntity, Label: e.Name, Properties: map[string]any{
		"category":   e.Category,
		"confidence": e.Confidence,
		"docId":      e.DocID,
	}}
}

func topicGraphNode(t TopicNode) Node {
	return Node{ID: t.TopicID, Type: NodeTopic, Label: t.Name, Properties: map[string]any{
		"description": t.Description,
		"keywords":    t.Keywords,
		"confidence":  t.Confidence,
	}}
}

var nodePriority = []NodeType{NodeDocument, NodeTopic, NodeEntity, NodeChunk}

// Prune filters entity nodes by category and caps the node count, keeping
// documents first, then topics, entities, and chunks. Edges whose endpoints
// were dropped are removed. maxNodes <= 0 means DefaultMaxNodes.
func (g Graph) Prune(entityTypes []string, maxNodes int) Graph {
	if maxNodes <= 0 {
		maxNodes = DefaultMaxNodes
	}

	nodes := make([]Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.Type == NodeEntity && len(entityTypes) > 0 {
			category, _ := n.Properties["category"].(string)
			if !slices.Contains(entityTypes, category) {
				continue
			}
		}
		nodes = append(nodes, n)
	}

	if len(nodes) > maxNodes {
		ordered := make([]Node, 0, len(nodes))
		for _, t := range nodePriority {
			for _, n := range nodes {
				if n.Type == t {
					ordered = append(ordered, n)
				}
			}
		}
		nodes = ordered[:maxNodes]
	}

	keep := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		keep[n.ID] = struct{}{}
	}
	edges := make([]Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		_, src := keep[e.Source]
		_, dst := keep[e.Target]
		if src && dst {
			edges = append(edges, e)
		}
	}
	return Graph{Nodes: nodes, Edges: edges}
}
