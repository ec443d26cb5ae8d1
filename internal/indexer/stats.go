package indexer

import (
	"math"
	"sort"

	"documind/internal/storage"
)

// ComputeChunkStats computes min, max, mean, and p95 word counts.
func ComputeChunkStats(chunks []Chunk) storage.ChunkStats {
	if len(chunks) == 0 {
		return storage.ChunkStats{}
	}

	sorted := make([]int, len(chunks))
	sum := 0
	for i, c := range chunks {
		sorted[i] = c.WordCount
		sum += c.WordCount
	}
	sort.Ints(sorted)

	p95Index := int(math.Ceil(float64(len(sorted))*0.95)) - 1
	if p95Index < 0 {
		p95Index = 0
	}

	mean := float64(sum) / float64(len(chunks))
	return storage.ChunkStats{
		MinWords: sorted[0],
		MaxWords: sorted[len(sorted)-1],
		Mean:     math.Round(mean*100) / 100,
		P95Words: sorted[p95Index],
	}
}
