// Package embedding stores fixed-dimension word vectors keyed by token.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrUnavailable is returned when the vector store cannot be read.
	ErrUnavailable = errors.New("embedding store unavailable")
	// ErrDimensionMismatch is returned when a vector's length differs from
	// the store's dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Vector is one token's embedding.
type Vector struct {
	Token  string
	Values []float32
}

// Store looks up token vectors. A missing token is not an error.
type Store interface {
	Lookup(ctx context.Context, token string) ([]float32, bool, error)
	Dimension() int
}

// Writer receives imported vectors in batches.
type Writer interface {
	PutBatch(vectors []Vector) error
}

// MemoryStore is an in-memory Store, used for demo mode and tests.
type MemoryStore struct {
	dim     int
	vectors map[string][]float32
}

// NewMemoryStore builds a store of the given dimension.
func NewMemoryStore(dim int) *MemoryStore {
	return &MemoryStore{dim: dim, vectors: make(map[string][]float32)}
}

// PutBatch adds vectors, replacing existing tokens. It is not safe to call
// concurrently with Lookup.
func (m *MemoryStore) PutBatch(vectors []Vector) error {
	for _, v := range vectors {
		if len(v.Values) != m.dim {
			return fmt.Errorf("%w: %q has %d values, want %d", ErrDimensionMismatch, v.Token, len(v.Values), m.dim)
		}
		m.vectors[v.Token] = slices.Clone(v.Values)
	}
	return nil
}

func (m *MemoryStore) Lookup(ctx context.Context, token string) ([]float32, bool, error) {
	v, ok := m.vectors[token]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(v), true, nil
}

func (m *MemoryStore) Dimension() int { return m.dim }

func (m *MemoryStore) Len() int { return len(m.vectors) }

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }
