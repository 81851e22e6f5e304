package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
)

var (
	// ErrDatasetNotFound is returned for names missing from the catalog.
	ErrDatasetNotFound = errors.New("dataset not found")
	// ErrInsufficientSamples is returned when a source yields no records.
	ErrInsufficientSamples = errors.New("dataset has no samples")
	// ErrSourceUnavailable wraps I/O and decoding failures of a source.
	ErrSourceUnavailable = errors.New("dataset source unavailable")
)

// Record is one (label, text) pair of a dataset.
type Record struct {
	Label string
	Text  string
}

// Iterator yields records lazily. Next returns io.EOF after the last record.
type Iterator interface {
	Next(ctx context.Context) (Record, error)
	Close() error
}

// Source opens a fresh iterator positioned at the start of the dataset on
// every call.
type Source interface {
	Open(ctx context.Context) (Iterator, error)
}

// Entry binds a dataset name to its source.
type Entry struct {
	Name   string
	Source Source
}

// Catalog is the fixed, ordered set of known datasets.
type Catalog struct {
	names   []string
	sources map[string]Source
}

func NewCatalog(entries ...Entry) (*Catalog, error) {
	c := &Catalog{sources: make(map[string]Source, len(entries))}
	for _, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("dataset: empty name")
		}
		if e.Source == nil {
			return nil, fmt.Errorf("dataset: %s: nil source", e.Name)
		}
		if _, dup := c.sources[e.Name]; dup {
			return nil, fmt.Errorf("dataset: duplicate name %q", e.Name)
		}
		c.names = append(c.names, e.Name)
		c.sources[e.Name] = e.Source
	}
	return c, nil
}

// Names returns dataset names in registration order.
func (c *Catalog) Names() []string {
	return slices.Clone(c.names)
}

func (c *Catalog) Lookup(name string) (Source, error) {
	src, ok := c.sources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, name)
	}
	return src, nil
}

// Ping checks every source that can report its own health.
func (c *Catalog) Ping(ctx context.Context) error {
	for _, name := range c.names {
		p, ok := c.sources[name].(interface{ Ping(context.Context) error })
		if !ok {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// MemorySource serves a fixed slice of records.
type MemorySource struct {
	Records []Record
}

func (m *MemorySource) Open(ctx context.Context) (Iterator, error) {
	return &sliceIterator{records: m.Records}, nil
}

type sliceIterator struct {
	records []Record
	pos     int
}

func (it *sliceIterator) Next(ctx context.Context) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if it.pos >= len(it.records) {
		return Record{}, io.EOF
	}
	rec := it.records[it.pos]
	it.pos++
	return rec, nil
}

func (it *sliceIterator) Close() error { return nil }
