package embedding

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"go.etcd.io/bbolt"
)

var (
	bucketVectors = []byte("vectors")
	bucketMeta    = []byte("meta")
	keyDimension  = []byte("dimension")
)

// BoltStore persists vectors in a bbolt file. Values are little-endian
// float32 arrays; the dimension is fixed by the first batch written.
type BoltStore struct {
	db  *bbolt.DB
	dim int
}

// OpenBolt opens the vector file at path. A read-only store must already
// exist and have a dimension.
func OpenBolt(path string, readOnly bool) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second, ReadOnly: readOnly})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrUnavailable, path, err)
	}

	s := &BoltStore{db: db}
	if !readOnly {
		err = db.Update(func(tx *bbolt.Tx) error {
			for _, b := range [][]byte{bucketVectors, bucketMeta} {
				if _, err := tx.CreateBucketIfNotExists(b); err != nil {
					return fmt.Errorf("create bucket %s: %w", b, err)
				}
			}
			return nil
		})
		if err != nil {
			db.Close()
			return nil, err
		}
	}

	err = db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if meta == nil || tx.Bucket(bucketVectors) == nil {
			return fmt.Errorf("%w: %s is not a vector store", ErrUnavailable, path)
		}
		raw := meta.Get(keyDimension)
		if raw == nil {
			if readOnly {
				return fmt.Errorf("%w: %s has no vectors", ErrUnavailable, path)
			}
			return nil
		}
		dim, err := strconv.Atoi(string(raw))
		if err != nil {
			return fmt.Errorf("%w: bad dimension %q", ErrUnavailable, raw)
		}
		s.dim = dim
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// PutBatch writes vectors in a single transaction.
func (s *BoltStore) PutBatch(vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if s.dim == 0 {
			dim := len(vectors[0].Values)
			if dim == 0 {
				return fmt.Errorf("%w: %q has no values", ErrDimensionMismatch, vectors[0].Token)
			}
			if err := meta.Put(keyDimension, []byte(strconv.Itoa(dim))); err != nil {
				return err
			}
			s.dim = dim
		}

		b := tx.Bucket(bucketVectors)
		for _, v := range vectors {
			if len(v.Values) != s.dim {
				return fmt.Errorf("%w: %q has %d values, want %d", ErrDimensionMismatch, v.Token, len(v.Values), s.dim)
			}
			if err := b.Put([]byte(v.Token), encode(v.Values)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) Lookup(ctx context.Context, token string) ([]float32, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	var out []float32
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketVectors).Get([]byte(token))
		if raw == nil {
			return nil
		}
		// raw is only valid inside the transaction.
		v, err := decode(raw, s.dim)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return out, out != nil, nil
}

func (s *BoltStore) Dimension() int { return s.dim }

// Len returns the number of stored tokens.
func (s *BoltStore) Len() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketVectors).Stats().KeyN
		return nil
	})
	return n, err
}

func (s *BoltStore) Ping(ctx context.Context) error {
	if s.dim == 0 {
		return fmt.Errorf("%w: empty store", ErrUnavailable)
	}
	return nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func encode(values []float32) []byte {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decode(raw []byte, dim int) ([]float32, error) {
	if len(raw) != 4*dim {
		return nil, errors.New("corrupt vector record")
	}
	out := make([]float32, dim)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return out, nil
}
