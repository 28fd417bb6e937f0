package storage

import (
	"errors"

	"docrag/internal/models"
)

var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Record is one stored chunk with its embedding.
type Record struct {
	ID        string
	Text      string
	Embedding []float32
	Metadata  models.ChunkMetadata
}

// Match is a query hit. Distance is squared euclidean; lower is closer.
type Match struct {
	ID       string
	Text     string
	Metadata models.ChunkMetadata
	Distance float64
}

func squaredL2(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum, nil
}
