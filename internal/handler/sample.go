package handler

import (
	"context"
	"log/slog"
	"net/http"
)

// Sampler serves example texts from named datasets.
type Sampler interface {
	ListDatasets() []string
	GetSample(ctx context.Context, name string) (string, error)
}

type datasetsResponse struct {
	Datasets []string `json:"datasets"`
}

type sampleRequest struct {
	Dataset string `json:"dataset"`
}

type sampleResponse struct {
	Text string `json:"text"`
}

func Datasets(s Sampler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, datasetsResponse{Datasets: s.ListDatasets()})
	}
}

func FetchSample(s Sampler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req sampleRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Dataset == "" {
			writeError(w, http.StatusBadRequest, "dataset is required")
			return
		}

		slog.Info("fetching sample", "dataset", req.Dataset)
		text, err := s.GetSample(r.Context(), req.Dataset)
		if err != nil {
			slog.Warn("fetch sample failed", "dataset", req.Dataset, "error", err)
			writeOpError(w, err)
			return
		}

		writeJSON(w, sampleResponse{Text: text})
	}
}
