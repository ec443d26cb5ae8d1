package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"documind/internal/contextutil"
)

const scrollPageSize = 256

// QdrantConfig configures the Qdrant adapter.
type QdrantConfig struct {
	// URL is the HTTP endpoint, e.g. "http://localhost:6333". The gRPC port is
	// derived as HTTP port + 1.
	URL        string
	APIKey     string
	Collection string
	VectorSize int
	// Timeout bounds each call.
	Timeout time.Duration
}

// QdrantStore implements VectorStore using Qdrant.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	vectorSize int
	timeout    time.Duration
}

// NewQdrantStore creates a new Qdrant vector store client.
func NewQdrantStore(cfg QdrantConfig) (*QdrantStore, error) {
	host, port, useTLS, err := grpcEndpoint(cfg.URL)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &QdrantStore{
		client:     client,
		collection: cfg.Collection,
		vectorSize: cfg.VectorSize,
		timeout:    timeout,
	}, nil
}

// grpcEndpoint derives the gRPC host and port from the HTTP URL.
func grpcEndpoint(raw string) (string, int, bool, error) {
	parsedURL, err := url.Parse(raw)
	if err != nil {
		return "", 0, false, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	port := 6334
	if parsedURL.Port() != "" {
		httpPort, err := strconv.Atoi(parsedURL.Port())
		if err == nil {
			port = httpPort + 1
		}
	}
	return host, port, parsedURL.Scheme == "https", nil
}

// Close releases the gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// EnsureCollection ensures the collection exists with the configured vector
// size and cosine distance, and that userId/docId are indexed as keywords.
func (s *QdrantStore) EnsureCollection(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return classify("failed to check collection existence", err)
	}

	if !exists {
		logger.InfoContext(ctx, "creating collection", "collection", s.collection, "vector_size", s.vectorSize)
		err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(s.vectorSize),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return classify("failed to create collection", err)
		}
		for _, field := range []string{"userId", "docId"} {
			_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
				CollectionName: s.collection,
				FieldName:      field,
				FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
			})
			if err != nil {
				return classify("failed to create payload index on "+field, err)
			}
		}
		logger.InfoContext(ctx, "collection created", "collection", s.collection)
		return nil
	}

	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return classify("failed to get collection info", err)
	}
	params := info.GetConfig().GetParams().GetVectorsConfig().GetParams()
	if params == nil || params.Size == 0 {
		return fmt.Errorf("could not determine collection vector size")
	}
	if int(params.Size) != s.vectorSize {
		return fmt.Errorf("collection vector size mismatch: expected %d, got %d", s.vectorSize, params.Size)
	}

	logger.DebugContext(ctx, "collection validated", "collection", s.collection, "vector_size", s.vectorSize)
	return nil
}

// CollectionExists reports whether the collection exists. Used by health checks.
func (s *QdrantStore) CollectionExists(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return false, classify("failed to check collection existence", err)
	}
	return exists, nil
}

// Upsert inserts or updates points in the collection.
func (s *QdrantStore) Upsert(ctx context.Context, points []Point) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(points) == 0 {
		return nil
	}

	qdrantPoints := make([]*qdrant.PointStruct, 0, len(points))
	for _, point := range points {
		if len(point.Vector) != s.vectorSize {
			return fmt.Errorf("point %s has %d dimensions, collection expects %d", point.ID, len(point.Vector), s.vectorSize)
		}
		qdrantPoints = append(qdrantPoints, &qdrant.PointStruct{
			Id:      qdrant.NewID(point.ID),
			Vectors: qdrant.NewVectors(point.Vector...),
			Payload: qdrant.NewValueMap(point.Payload.ToMap()),
		})
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	wait := true
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         qdrantPoints,
		Wait:           &wait,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to upsert points", "collection", s.collection, "count", len(points), "error", err)
		return classify("failed to upsert points", err)
	}

	logger.InfoContext(ctx, "upserted points", "collection", s.collection, "count", len(points))
	return nil
}

// Search performs a filtered similarity search.
func (s *QdrantStore) Search(ctx context.Context, req SearchRequest) ([]SearchResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := validateSearch(req); err != nil {
		return nil, err
	}

	limit := uint64(req.Limit)
	query := &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(req.Vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
		Filter:         documentFilter(req.UserID, req.DocIDs...),
	}
	if req.ScoreThreshold > 0 {
		threshold := req.ScoreThreshold
		query.ScoreThreshold = &threshold
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	scoredPoints, err := s.client.Query(ctx, query)
	if err != nil {
		logger.ErrorContext(ctx, "failed to search points", "collection", s.collection, "limit", req.Limit, "error", err)
		return nil, classify("failed to search points", err)
	}

	results := make([]SearchResult, 0, len(scoredPoints))
	for _, sp := range scoredPoints {
		payload := PayloadFromMap(convertPayloadToMap(sp.GetPayload()))
		// Defence against a misconfigured filter: never leak another user's chunk.
		if payload.UserID != req.UserID {
			continue
		}
		results = append(results, SearchResult{
			PointID: sp.GetId().GetUuid(),
			Score:   sp.GetScore(),
			Payload: payload,
		})
	}

	logger.DebugContext(ctx, "search completed", "collection", s.collection, "limit", req.Limit, "results", len(results))
	return results, nil
}

// DeleteByDocument removes all points whose payload matches docID and userID.
func (s *QdrantStore) DeleteByDocument(ctx context.Context, docID, userID string) error {
	logger := contextutil.LoggerFromContext(ctx)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	wait := true
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points:         qdrant.NewPointsSelectorFilter(documentFilter(userID, docID)),
		Wait:           &wait,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to delete document points", "doc_id", docID, "error", err)
		return classify("failed to delete document points", err)
	}

	logger.InfoContext(ctx, "deleted document points", "collection", s.collection, "doc_id", docID)
	return nil
}

// CountByDocument returns the exact number of points stored for a document.
func (s *QdrantStore) CountByDocument(ctx context.Context, docID, userID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	exact := true
	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Filter:         documentFilter(userID, docID),
		Exact:          &exact,
	})
	if err != nil {
		return 0, classify("failed to count document points", err)
	}
	return int(count), nil
}

// ListDocumentChunks scrolls every point of a document and returns the
// payloads sorted by chunk index.
func (s *QdrantStore) ListDocumentChunks(ctx context.Context, docID, userID string) ([]Payload, error) {
	var payloads []Payload
	err := s.scroll(ctx, documentFilter(userID, docID), qdrant.NewWithPayload(true), func(p *qdrant.RetrievedPoint) {
		payloads = append(payloads, PayloadFromMap(convertPayloadToMap(p.GetPayload())))
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(payloads, func(i, j int) bool { return payloads[i].ChunkIndex < payloads[j].ChunkIndex })
	return payloads, nil
}

// ListDocumentIDs returns the distinct docIds stored for a user.
func (s *QdrantStore) ListDocumentIDs(ctx context.Context, userID string) ([]string, error) {
	seen := make(map[string]struct{})
	err := s.scroll(ctx, documentFilter(userID), qdrant.NewWithPayloadInclude("docId"), func(p *qdrant.RetrievedPoint) {
		if id := asString(convertPayloadToMap(p.GetPayload())["docId"]); id != "" {
			seen[id] = struct{}{}
		}
	})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// scroll pages through the filtered points. Qdrant's offset is inclusive, so
// every page after the first starts with the previous page's last point.
func (s *QdrantStore) scroll(ctx context.Context, filter *qdrant.Filter, withPayload *qdrant.WithPayloadSelector, fn func(*qdrant.RetrievedPoint)) error {
	limit := uint32(scrollPageSize)
	var offset *qdrant.PointId
	for {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		points, err := s.client.Scroll(callCtx, &qdrant.ScrollPoints{
			CollectionName: s.collection,
			Filter:         filter,
			Limit:          &limit,
			Offset:         offset,
			WithPayload:    withPayload,
		})
		cancel()
		if err != nil {
			return classify("failed to scroll points", err)
		}

		page := points
		if offset != nil && len(page) > 0 && page[0].GetId().GetUuid() == offset.GetUuid() {
			page = page[1:]
		}
		for _, p := range page {
			fn(p)
		}
		if len(points) < scrollPageSize || len(page) == 0 {
			return nil
		}
		offset = points[len(points)-1].GetId()
	}
}

func documentFilter(userID string, docIDs ...string) *qdrant.Filter {
	must := []*qdrant.Condition{qdrant.NewMatch("userId", userID)}
	switch len(docIDs) {
	case 0:
	case 1:
		must = append(must, qdrant.NewMatch("docId", docIDs[0]))
	default:
		must = append(must, qdrant.NewMatchKeywords("docId", docIDs...))
	}
	return &qdrant.Filter{Must: must}
}

// classify wraps err, marking connection-level failures as ErrStoreUnavailable.
func classify(msg string, err error) error {
	if isUnavailable(err) {
		return fmt.Errorf("%s: %w: %w", msg, ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded:
		return true
	}
	return false
}

// convertPayloadToMap converts Qdrant payload to map[string]any.
func convertPayloadToMap(payload map[string]*qdrant.Value) map[string]any {
	result := make(map[string]any, len(payload))
	for k, v := range payload {
		if v == nil {
			continue
		}
		result[k] = convertValue(v)
	}
	return result
}

// convertValue converts a Qdrant Value to Go any type.
func convertValue(v *qdrant.Value) any {
	switch val := v.Kind.(type) {
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_ListValue:
		list := make([]any, len(val.ListValue.Values))
		for i, item := range val.ListValue.Values {
			list[i] = convertValue(item)
		}
		return list
	case *qdrant.Value_StructValue:
		return convertPayloadToMap(val.StructValue.Fields)
	default:
		return nil
	}
}
