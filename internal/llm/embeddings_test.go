package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

type embeddingRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingItem struct {
	Object    string    `json:"object"`
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}

// stubEmbedding is a deterministic function of the text.
func stubEmbedding(text string, dims int) []float64 {
	vec := make([]float64, dims)
	for i, r := range text {
		vec[i%dims] += float64(r)
	}
	return vec
}

func newEmbeddingServer(t *testing.T, dims int, calls *int32, reverse bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("expected /v1/embeddings, got %s", r.URL.Path)
		}
		atomic.AddInt32(calls, 1)

		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		data := make([]embeddingItem, 0, len(req.Input))
		for i, text := range req.Input {
			data = append(data, embeddingItem{Object: "embedding", Index: i, Embedding: stubEmbedding(text, dims)})
		}
		if reverse {
			for i, j := 0, len(data)-1; i < j; i, j = i+1, j-1 {
				data[i], data[j] = data[j], data[i]
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  req.Model,
			"data":   data,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
}

func newTestEmbeddingsClient(url string, dims, batch int) *EmbeddingsClient {
	return NewEmbeddingsClient(EmbeddingsConfig{
		APIKey:     "test-key",
		BaseURL:    url + "/v1/",
		Model:      "test-embedding",
		Dimensions: dims,
		BatchSize:  batch,
		MaxRetries: 0,
	})
}

func TestEmbeddingsClient_EmbedBatch_PreservesOrder(t *testing.T) {
	var calls int32
	server := newEmbeddingServer(t, 8, &calls, true)
	defer server.Close()

	client := newTestEmbeddingsClient(server.URL, 8, 100)
	ctx := context.Background()

	batch, err := client.EmbedBatch(ctx, []string{"alpha", "beta", "gamma"})
	if err != nil {
		t.Fatalf("EmbedBatch() error = %v", err)
	}
	single, err := client.Embed(ctx, "beta")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	if len(batch) != 3 {
		t.Fatalf("EmbedBatch() returned %d vectors, want 3", len(batch))
	}
	for i := range single {
		if batch[1][i] != single[i] {
			t.Fatalf("EmbedBatch()[1] differs from Embed(b) at %d: %v vs %v", i, batch[1][i], single[i])
		}
	}
	if CosineSimilarity(batch[0], batch[1]) == 1 {
		t.Error("distinct inputs should not produce identical vectors")
	}
}

func TestEmbeddingsClient_EmbedBatch_Batches(t *testing.T) {
	var calls int32
	server := newEmbeddingServer(t, 4, &calls, false)
	defer server.Close()

	client := newTestEmbeddingsClient(server.URL, 4, 2)
	vecs, err := client.EmbedBatch(context.Background(), []string{"a", "b", "c", "d", "e"})
	if err != nil {
		t.Fatalf("EmbedBatch() error = %v", err)
	}
	if len(vecs) != 5 {
		t.Errorf("EmbedBatch() returned %d vectors, want 5", len(vecs))
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 3 provider calls, got %d", got)
	}
}

func TestEmbeddingsClient_EmbedBatch_Errors(t *testing.T) {
	tests := []struct {
		name       string
		texts      []string
		serverResp func(w http.ResponseWriter, r *http.Request)
	}{
		{
			name:       "empty input",
			texts:      []string{},
			serverResp: func(w http.ResponseWriter, r *http.Request) {},
		},
		{
			name:  "wrong vector size",
			texts: []string{"hello"},
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(map[string]any{
					"object": "list",
					"data":   []embeddingItem{{Object: "embedding", Index: 0, Embedding: make([]float64, 3)}},
				})
			},
		},
		{
			name:  "wrong embedding count",
			texts: []string{"hello", "world"},
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(map[string]any{
					"object": "list",
					"data":   []embeddingItem{{Object: "embedding", Index: 0, Embedding: make([]float64, 8)}},
				})
			},
		},
		{
			name:  "server error",
			texts: []string{"hello"},
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":{"message":"boom"}}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResp))
			defer server.Close()

			client := newTestEmbeddingsClient(server.URL, 8, 100)
			_, err := client.EmbedBatch(context.Background(), tt.texts)
			if !errors.Is(err, ErrEmbeddingFailed) {
				t.Errorf("EmbedBatch() error = %v, want ErrEmbeddingFailed", err)
			}
		})
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero magnitude", []float32{0, 0}, []float32{1, 1}, 0},
		{"length mismatch", []float32{1}, []float32{1, 2}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMeanVector(t *testing.T) {
	got := MeanVector([][]float32{{1, 2}, {3, 4}})
	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Errorf("MeanVector() = %v, want [2 3]", got)
	}
	if MeanVector(nil) != nil {
		t.Error("MeanVector(nil) should be nil")
	}
	if MeanVector([][]float32{{1}, {1, 2}}) != nil {
		t.Error("MeanVector() with mismatched lengths should be nil")
	}
}
