package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ravipanchani-tomtom/data-processing-demo/internal/augment"
	"github.com/ravipanchani-tomtom/data-processing-demo/internal/metrics"
)

// Augmenter applies an augmentation operation to text.
type Augmenter interface {
	Augment(ctx context.Context, text string, op augment.Operation) (string, error)
}

func Augment(a Augmenter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		req, ok := decodeTextRequest(w, r)
		if !ok {
			return
		}
		op, err := augment.ParseOperation(req.Dataset)
		if err != nil {
			writeOpError(w, err)
			return
		}

		slog.Info("augmenting text", "op", op, "chars", len(req.Text))
		metrics.InputChars.Observe(float64(len(req.Text)))

		start := time.Now()
		out, err := a.Augment(r.Context(), req.Text, op)
		metrics.OperationDuration.WithLabelValues("augment", string(op)).Observe(time.Since(start).Seconds())
		if err != nil {
			slog.Warn("augment failed", "op", op, "error", err)
			writeOpError(w, err)
			return
		}

		writeJSON(w, textResponse{OriginalText: req.Text, ProcessedText: out})
	}
}
