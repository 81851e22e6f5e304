package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ravipanchani-tomtom/data-processing-demo/internal/metrics"
	"github.com/ravipanchani-tomtom/data-processing-demo/internal/preprocess"
)

type Preprocessor interface {
	Process(ctx context.Context, text string, opt preprocess.Option) (string, error)
}

func Preprocess(p Preprocessor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		req, ok := decodeTextRequest(w, r)
		if !ok {
			return
		}
		opt, err := preprocess.ParseOption(req.Dataset)
		if err != nil {
			writeOpError(w, err)
			return
		}

		slog.Info("preprocessing text", "option", opt, "chars", len(req.Text))
		metrics.InputChars.Observe(float64(len(req.Text)))

		start := time.Now()
		out, err := p.Process(r.Context(), req.Text, opt)
		metrics.OperationDuration.WithLabelValues("preprocess", string(opt)).Observe(time.Since(start).Seconds())
		if err != nil {
			slog.Warn("preprocess failed", "option", opt, "error", err)
			writeOpError(w, err)
			return
		}

		writeJSON(w, textResponse{OriginalText: req.Text, ProcessedText: out})
	}
}
