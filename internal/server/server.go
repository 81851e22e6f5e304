package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ravipanchani-tomtom/data-processing-demo/internal/handler"
	"github.com/ravipanchani-tomtom/data-processing-demo/internal/middleware"
)

// Deps are the domain services behind the HTTP API.
type Deps struct {
	Augmenter    handler.Augmenter
	Preprocessor handler.Preprocessor
	Sampler      handler.Sampler
	// Backends are reported by /api/health, keyed by name.
	Backends map[string]handler.Checker
}

// SetupMux wires handlers with the full middleware chain.
func SetupMux(deps Deps, opts middleware.Options) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", handler.Health(deps.Backends))
	mux.HandleFunc("/api/datasets", handler.Datasets(deps.Sampler))
	mux.HandleFunc("/api/fetch_sample", handler.FetchSample(deps.Sampler))
	mux.HandleFunc("/api/augment", handler.Augment(deps.Augmenter))
	mux.HandleFunc("/api/preprocess", handler.Preprocess(deps.Preprocessor))
	mux.Handle("/metrics", promhttp.Handler())

	return middleware.Chain(mux, opts)
}
