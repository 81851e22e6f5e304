package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ravipanchani-tomtom/data-processing-demo/internal/augment"
	"github.com/ravipanchani-tomtom/data-processing-demo/internal/dataset"
	"github.com/ravipanchani-tomtom/data-processing-demo/internal/preprocess"
)

const maxTextLength = 10000

type errorResponse struct {
	Error string `json:"error"`
}

// textRequest is shared by augment and preprocess. The operation travels in
// the "dataset" field for compatibility with the existing front end.
type textRequest struct {
	Dataset string `json:"dataset"`
	Text    string `json:"text"`
}

type textResponse struct {
	OriginalText  string `json:"original_text"`
	ProcessedText string `json:"processed_text"`
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(errorResponse{Error: msg})
}

// decodeBody decodes a JSON request body, writing the error response itself
// when it fails.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// decodeTextRequest validates the augment/preprocess request shape.
func decodeTextRequest(w http.ResponseWriter, r *http.Request) (textRequest, bool) {
	var req textRequest
	if !decodeBody(w, r, &req) {
		return req, false
	}
	if req.Dataset == "" {
		writeError(w, http.StatusBadRequest, "dataset is required")
		return req, false
	}
	if len(req.Text) > maxTextLength {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("text too long: %d characters (max %d)", len(req.Text), maxTextLength))
		return req, false
	}
	return req, true
}

// writeOpError maps domain errors onto HTTP status codes. Server-side
// failures get a fixed message; callers log the cause.
func writeOpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, augment.ErrInvalidOperation):
		writeError(w, http.StatusBadRequest, "invalid augmentation option")
	case errors.Is(err, preprocess.ErrInvalidOption):
		writeError(w, http.StatusBadRequest, "invalid preprocessing option")
	case errors.Is(err, dataset.ErrDatasetNotFound):
		writeError(w, http.StatusNotFound, "dataset not found")
	case errors.Is(err, dataset.ErrInsufficientSamples):
		writeError(w, http.StatusServiceUnavailable, "dataset has no samples")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, http.StatusGatewayTimeout, "request cancelled")
	case errors.Is(err, augment.ErrLookupUnavailable):
		writeError(w, http.StatusBadGateway, "synonym lookup unavailable")
	case errors.Is(err, dataset.ErrSourceUnavailable):
		writeError(w, http.StatusBadGateway, "sample source unavailable")
	case errors.Is(err, preprocess.ErrEmbeddingUnavailable):
		writeError(w, http.StatusBadGateway, "embeddings unavailable")
	default:
		writeError(w, http.StatusBadGateway, "backend unavailable")
	}
}
