package topics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"documind/internal/contextutil"
	"documind/internal/graphstore"
	"documind/internal/llm"
)

const (
	DefaultMaxTopics          = 8
	DefaultRelevanceThreshold = 0.3

	maxKeywords = 10
)

// Completer is the LLM capability the modeler needs.
type Completer interface {
	CompleteJSON(ctx context.Context, req llm.CompletionRequest, schemaName string, out any) error
}

// Topic is a theme shared by some of a user's documents.
type Topic struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	Confidence  float64  `json:"confidence"`
}

// Assignment scores how well a document fits a topic.
type Assignment struct {
	DocID     string  `json:"docId"`
	TopicID   string  `json:"topicId"`
	Relevance float64 `json:"relevance"`
}

// Result is the outcome of one modeling run.
type Result struct {
	Topics      []Topic      `json:"topics"`
	Assignments []Assignment `json:"assignments"`
}

type topicItem struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	Confidence  float64  `json:"confidence" jsonschema:"minimum=0,maximum=1"`
}

type topicResponse struct {
	Topics []topicItem `json:"topics"`
}

const topicSystemPrompt = `You are an expert topic modeling system. The user lists document titles. Identify up to %d distinct topics they cover.

Guidelines:
- Create broad, meaningful, non-overlapping topic categories such as "Technology & Software", "Business & Finance" or "Legal Documents".
- Include 3-5 relevant keywords per topic.
- Give each topic a brief description.
- confidence (0.0-1.0) reflects how well-defined the topic is.`

var placeholderNames = map[string]bool{
	"":               true,
	"untitled topic": true,
	"topic name":     true,
	"untitled":       true,
}

// Modeler extracts topics from document titles and links them to documents.
type Modeler struct {
	llm       Completer
	graph     graphstore.GraphStore
	threshold float64
}

// NewModeler creates a modeler. threshold <= 0 uses DefaultRelevanceThreshold.
func NewModeler(c Completer, graph graphstore.GraphStore, threshold float64) *Modeler {
	if threshold <= 0 {
		threshold = DefaultRelevanceThreshold
	}
	return &Modeler{llm: c, graph: graph, threshold: threshold}
}

// ExtractTopics asks the model for topics over the user's document titles
// and scores every document against every topic. Unparseable model output
// yields an empty result.
func (m *Modeler) ExtractTopics(ctx context.Context, userID string, maxTopics int) (Result, error) {
	logger := contextutil.LoggerFromContext(ctx)
	if maxTopics <= 0 {
		maxTopics = DefaultMaxTopics
	}

	docs, err := m.graph.ListDocuments(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list documents: %w", err)
	}

	type docText struct{ id, text string }
	var texts []docText
	for _, d := range docs {
		text := d.Title
		if text == "" {
			text = d.Filename
		}
		if strings.TrimSpace(text) != "" {
			texts = append(texts, docText{d.DocID, text})
		}
	}
	if len(texts) == 0 {
		return Result{}, nil
	}

	var prompt strings.Builder
	prompt.WriteString("Document titles:\n")
	for i, t := range texts {
		fmt.Fprintf(&prompt, "%d. %s\n", i+1, t.text)
	}

	var resp topicResponse
	err = m.llm.CompleteJSON(ctx, llm.CompletionRequest{
		SystemPrompt: fmt.Sprintf(topicSystemPrompt, maxTopics),
		UserPrompt:   prompt.String(),
		Temperature:  0.3,
		MaxTokens:    1500,
	}, "topic_modeling", &resp)
	if errors.Is(err, llm.ErrLLMParseFailed) {
		logger.WarnContext(ctx, "topic output unparseable, no topics extracted", "error", err)
		return Result{}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("failed to extract topics: %w", err)
	}

	var res Result
	for _, item := range resp.Topics {
		name := strings.TrimSpace(item.Name)
		if placeholderNames[strings.ToLower(name)] {
			continue
		}
		if len(res.Topics) == maxTopics {
			break
		}
		keywords := make([]string, 0, len(item.Keywords))
		for _, k := range item.Keywords {
			if k = strings.TrimSpace(k); k != "" && len(keywords) < maxKeywords {
				keywords = append(keywords, k)
			}
		}
		conf := item.Confidence
		if conf == 0 || math.IsNaN(conf) {
			conf = 0.5
		}
		res.Topics = append(res.Topics, Topic{
			ID:          uuid.NewString(),
			Name:        name,
			Description: strings.TrimSpace(item.Description),
			Keywords:    keywords,
			Confidence:  math.Max(0, math.Min(1, conf)),
		})
	}

	for _, d := range texts {
		for _, t := range res.Topics {
			if rel := Relevance(d.text, t); rel > m.threshold {
				res.Assignments = append(res.Assignments, Assignment{DocID: d.id, TopicID: t.ID, Relevance: rel})
			}
		}
	}
	return res, nil
}

// Run extracts topics and persists them as Topic nodes with CATEGORIZES edges.
func (m *Modeler) Run(ctx context.Context, userID string, maxTopics int) (Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	res, err := m.ExtractTopics(ctx, userID, maxTopics)
	if err != nil {
		return Result{}, err
	}

	for _, t := range res.Topics {
		err := m.graph.UpsertTopic(ctx, graphstore.TopicNode{
			TopicID:     t.ID,
			UserID:      userID,
			Name:        t.Name,
			Description: t.Description,
			Keywords:    t.Keywords,
			Confidence:  t.Confidence,
		})
		if err != nil {
			return res, fmt.Errorf("failed to create topic %q: %w", t.Name, err)
		}
	}
	for _, a := range res.Assignments {
		if err := m.graph.CreateTopicEdge(ctx, a.TopicID, a.DocID, userID, a.Relevance); err != nil {
			return res, fmt.Errorf("failed to link topic to document: %w", err)
		}
	}

	logger.InfoContext(ctx, "topic modeling completed", "topics", len(res.Topics), "assignments", len(res.Assignments))
	return res, nil
}

// Relevance scores docText against a topic: 0.5 when the topic name occurs in
// the text, plus 0.4 times the fraction of keywords present, plus 0.1 times
// the share of description words that have four or more characters and occur
// in the text.
func Relevance(docText string, t Topic) float64 {
	doc := strings.ToLower(docText)
	var rel float64

	if name := strings.ToLower(strings.TrimSpace(t.Name)); name != "" && strings.Contains(doc, name) {
		rel += 0.5
	}

	if len(t.Keywords) > 0 {
		matches := 0
		for _, k := range t.Keywords {
			if strings.Contains(doc, strings.ToLower(k)) {
				matches++
			}
		}
		rel += 0.4 * float64(matches) / float64(len(t.Keywords))
	}

	words := strings.Fields(strings.ToLower(t.Description))
	present := 0
	for _, w := range words {
		if len([]rune(w)) >= 4 && strings.Contains(doc, w) {
			present++
		}
	}
	if len(words) > 0 {
		rel += 0.1 * float64(present) / float64(len(words))
	}

	return math.Max(0, math.Min(1, rel))
}
