package entities

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_completer.go -package=mocks documind/internal/entities Completer

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"documind/internal/contextutil"
	"documind/internal/llm"
)

// Category is a named-entity class.
type Category string

const (
	CategoryPerson       Category = "PERSON"
	CategoryOrganization Category = "ORGANIZATION"
	CategoryLocation     Category = "LOCATION"
	CategoryDate         Category = "DATE"
	CategoryMoney        Category = "MONEY"
	CategoryOther        Category = "OTHER"
)

// ParseCategory normalizes s, mapping anything unrecognized to OTHER.
func ParseCategory(s string) Category {
	switch c := Category(strings.ToUpper(strings.TrimSpace(s))); c {
	case CategoryPerson, CategoryOrganization, CategoryLocation, CategoryDate, CategoryMoney:
		return c
	}
	return CategoryOther
}

const (
	DefaultMinChunkChars = 50
	DefaultMaxPerChunk   = 10

	defaultConfidence = 0.5
	defaultRelation   = "RELATED_TO"
)

// Entity is a named entity found in a chunk.
type Entity struct {
	Name       string
	Category   Category
	Confidence float64
	Context    string
}

// Relationship links two extracted entities by name.
type Relationship struct {
	Source       string
	Target       string
	RelationType string
	Confidence   float64
	Context      string
}

// Extraction is the cleaned result for one chunk.
type Extraction struct {
	Entities      []Entity
	Relationships []Relationship
}

// Completer is the LLM capability the extractor needs.
type Completer interface {
	CompleteJSON(ctx context.Context, req llm.CompletionRequest, schemaName string, out any) error
}

type extractedEntity struct {
	Name       string  `json:"name" jsonschema:"description=Entity name as written in the text"`
	Category   string  `json:"category" jsonschema:"enum=PERSON,enum=ORGANIZATION,enum=LOCATION,enum=DATE,enum=MONEY,enum=OTHER"`
	Confidence float64 `json:"confidence" jsonschema:"minimum=0,maximum=1"`
	Context    string  `json:"context"`
}

type extractedRelationship struct {
	Source       string  `json:"source"`
	Target       string  `json:"target"`
	RelationType string  `json:"relationType"`
	Confidence   float64 `json:"confidence" jsonschema:"minimum=0,maximum=1"`
	Context      string  `json:"context"`
}

type extractionResponse struct {
	Entities      []extractedEntity       `json:"entities"`
	Relationships []extractedRelationship `json:"relationships"`
}

const extractionSystemPrompt = `You are an expert entity extraction system. Extract named entities and the relationships between them from the user's text.

Guidelines:
- Only extract clearly identifiable entities.
- Be conservative with confidence scores (0.0-1.0).
- category is one of PERSON, ORGANIZATION, LOCATION, DATE, MONEY, OTHER.
- relationType is an upper-case verb phrase such as WORKS_AT, LOCATED_IN or RELATED_TO.
- Relationship source and target must be names of extracted entities.
- Give a brief context for each entity and relationship.
- Return at most %d entities, the most significant ones.`

// Extractor turns chunk text into cleaned entities and relationships.
type Extractor struct {
	llm           Completer
	minChunkChars int
	maxPerChunk   int
}

// NewExtractor creates an extractor. Non-positive limits take the defaults.
func NewExtractor(c Completer, minChunkChars, maxPerChunk int) *Extractor {
	if minChunkChars <= 0 {
		minChunkChars = DefaultMinChunkChars
	}
	if maxPerChunk <= 0 {
		maxPerChunk = DefaultMaxPerChunk
	}
	return &Extractor{llm: c, minChunkChars: minChunkChars, maxPerChunk: maxPerChunk}
}

// Extract asks the model for entities in text. Short chunks are skipped, and
// model or parse failures yield an empty result rather than an error.
func (e *Extractor) Extract(ctx context.Context, text string) Extraction {
	logger := contextutil.LoggerFromContext(ctx)

	if len(strings.TrimSpace(text)) < e.minChunkChars {
		return Extraction{}
	}

	var resp extractionResponse
	err := e.llm.CompleteJSON(ctx, llm.CompletionRequest{
		SystemPrompt: fmt.Sprintf(extractionSystemPrompt, e.maxPerChunk),
		UserPrompt:   text,
		Temperature:  0.1,
		MaxTokens:    1500,
	}, "entity_extraction", &resp)
	if err != nil {
		logger.WarnContext(ctx, "entity extraction failed, continuing without entities", "error", err)
		return Extraction{}
	}

	return clean(resp, e.maxPerChunk)
}

func clean(resp extractionResponse, maxPerChunk int) Extraction {
	var out Extraction
	index := make(map[string]int)

	for _, raw := range resp.Entities {
		name := strings.TrimSpace(raw.Name)
		if name == "" {
			continue
		}
		ent := Entity{
			Name:       name,
			Category:   ParseCategory(raw.Category),
			Confidence: clampConfidence(raw.Confidence),
			Context:    strings.TrimSpace(raw.Context),
		}
		key := strings.ToLower(name)
		if i, ok := index[key]; ok {
			if ent.Confidence > out.Entities[i].Confidence {
				out.Entities[i].Confidence = ent.Confidence
			}
			continue
		}
		if len(out.Entities) == maxPerChunk {
			continue
		}
		index[key] = len(out.Entities)
		out.Entities = append(out.Entities, ent)
	}

	for _, raw := range resp.Relationships {
		si, okS := index[strings.ToLower(strings.TrimSpace(raw.Source))]
		ti, okT := index[strings.ToLower(strings.TrimSpace(raw.Target))]
		if !okS || !okT || si == ti {
			continue
		}
		relType := normalizeRelation(raw.RelationType)
		out.Relationships = append(out.Relationships, Relationship{
			Source:       out.Entities[si].Name,
			Target:       out.Entities[ti].Name,
			RelationType: relType,
			Confidence:   clampConfidence(raw.Confidence),
			Context:      strings.TrimSpace(raw.Context),
		})
	}
	return out
}

func clampConfidence(c float64) float64 {
	if math.IsNaN(c) || c == 0 {
		return defaultConfidence
	}
	return math.Max(0, math.Min(1, c))
}

func normalizeRelation(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	}), "_")
	if s == "" {
		return defaultRelation
	}
	return s
}

var entityNamespace = uuid.MustParse("8f0e4c52-6f4b-4a8e-9a43-6ac8c0b6d3a1")

// EntityID derives a stable id so repeated mentions of the same entity
// within one document merge into one node.
func EntityID(docID string, category Category, name string) string {
	key := docID + "|" + string(category) + "|" + strings.ToLower(strings.TrimSpace(name))
	return uuid.NewSHA1(entityNamespace, []byte(key)).String()
}
