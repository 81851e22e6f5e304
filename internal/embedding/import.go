package embedding

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const importBatchSize = 1000

// Import reads GloVe text format (`token v1 v2 ... vN` per line) from r and
// writes it to w in batches. progress, if set, receives the running count
// after each batch. Lines whose width differs from the first are rejected.
func Import(ctx context.Context, r io.Reader, w Writer, progress func(done int)) (int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		batch = make([]Vector, 0, importBatchSize)
		total int
		dim   int
		line  int
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := w.PutBatch(batch); err != nil {
			return err
		}
		total += len(batch)
		batch = batch[:0]
		if progress != nil {
			progress(total)
		}
		return nil
	}

	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return total, fmt.Errorf("embedding: line %d: no values", line)
		}
		if dim == 0 {
			dim = len(fields) - 1
		}
		if len(fields)-1 != dim {
			return total, fmt.Errorf("%w: line %d has %d values, want %d", ErrDimensionMismatch, line, len(fields)-1, dim)
		}

		values := make([]float32, dim)
		for i, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return total, fmt.Errorf("embedding: line %d: %w", line, err)
			}
			values[i] = float32(v)
		}
		batch = append(batch, Vector{Token: fields[0], Values: values})

		if len(batch) == importBatchSize {
			if err := ctx.Err(); err != nil {
				return total, err
			}
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return total, fmt.Errorf("embedding: read: %w", err)
	}
	if err := flush(); err != nil {
		return total, err
	}
	return total, nil
}
