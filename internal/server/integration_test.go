package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ravipanchani-tomtom/data-processing-demo/internal/augment"
	"github.com/ravipanchani-tomtom/data-processing-demo/internal/dataset"
	"github.com/ravipanchani-tomtom/data-processing-demo/internal/embedding"
	"github.com/ravipanchani-tomtom/data-processing-demo/internal/handler"
	"github.com/ravipanchani-tomtom/data-processing-demo/internal/lexicon"
	"github.com/ravipanchani-tomtom/data-processing-demo/internal/middleware"
	"github.com/ravipanchani-tomtom/data-processing-demo/internal/preprocess"
)

type failingLexicon struct{}

func (failingLexicon) Synonyms(ctx context.Context, word string) ([]string, error) {
	return nil, fmt.Errorf("intentional failure")
}

type stallingSource struct{}

func (stallingSource) Open(ctx context.Context) (dataset.Iterator, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type textRequest struct {
	Dataset string `json:"dataset"`
	Text    string `json:"text"`
}

type textResponse struct {
	OriginalText  string `json:"original_text"`
	ProcessedText string `json:"processed_text"`
}

type healthResponse struct {
	Status   string                     `json:"status"`
	Backends map[string]json.RawMessage `json:"backends"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func newsRecords(n int) []dataset.Record {
	recs := make([]dataset.Record, n)
	for i := range recs {
		recs[i] = dataset.Record{Label: "business", Text: fmt.Sprintf("headline number %d", i)}
	}
	return recs
}

func testDeps(t *testing.T, lex augment.Lexicon, extra ...dataset.Entry) Deps {
	t.Helper()

	entries := append([]dataset.Entry{
		{Name: "AG_NEWS", Source: &dataset.MemorySource{Records: newsRecords(150)}},
		{Name: "IMDB", Source: &dataset.MemorySource{Records: []dataset.Record{{Label: "1", Text: "A wonderful film."}}}},
	}, extra...)
	catalog, err := dataset.NewCatalog(entries...)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	cache, err := dataset.NewSampleCache(catalog, nil, dataset.Options{BuildTimeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("NewSampleCache: %v", err)
	}

	vectors := embedding.NewMemoryStore(2)
	vectors.PutBatch([]embedding.Vector{{Token: "fox", Values: []float32{1, 0.5}}})

	if lex == nil {
		lex = lexicon.NewMapLexicon(map[string][]string{"quick": {"fast", "speedy"}})
	}
	engine := augment.New(lex, lexicon.DefaultStopwords(), nil, augment.DefaultOptions())

	return Deps{
		Augmenter:    engine,
		Preprocessor: preprocess.New(vectors, 0),
		Sampler:      cache,
		Backends: map[string]handler.Checker{
			"embeddings": vectors,
			"datasets":   catalog,
		},
	}
}

func newTestServer(t *testing.T, deps Deps, opts middleware.Options) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(SetupMux(deps, opts))
	t.Cleanup(ts.Close)
	return ts
}

func defaultTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newTestServer(t, testDeps(t, nil), middleware.Options{})
}

func unlimited() middleware.Options {
	return middleware.Options{RateLimiter: middleware.NewRateLimiter(0, time.Minute)}
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	return resp
}

func TestIntegration_AugmentFullFlow(t *testing.T) {
	ts := defaultTestServer(t)

	resp := postJSON(t, ts.URL+"/api/augment", textRequest{Dataset: "synonym_replacement", Text: "the quick brown fox"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("CORS Allow-Origin: got %q, want %q", got, "*")
	}
	if reqID := resp.Header.Get("X-Request-ID"); len(reqID) != 32 {
		t.Errorf("X-Request-ID length: got %d, want 32", len(reqID))
	}

	var tr textResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tr.OriginalText != "the quick brown fox" {
		t.Errorf("original_text: got %q", tr.OriginalText)
	}
	if tr.ProcessedText != "the fast brown fox" {
		t.Errorf("processed_text: got %q, want %q", tr.ProcessedText, "the fast brown fox")
	}
}

func TestIntegration_AugmentRandomOperations(t *testing.T) {
	ts := newTestServer(t, testDeps(t, nil), unlimited())

	for i := 0; i < 20; i++ {
		resp := postJSON(t, ts.URL+"/api/augment", textRequest{Dataset: "random_insertion", Text: "quick quick fox"})
		var tr textResponse
		json.NewDecoder(resp.Body).Decode(&tr)
		resp.Body.Close()

		words := strings.Fields(tr.ProcessedText)
		if len(words) != 4 {
			t.Fatalf("random_insertion: got %q, want 4 words", tr.ProcessedText)
		}
		if !strings.Contains(tr.ProcessedText, "fast") {
			t.Errorf("random_insertion: %q missing inserted synonym", tr.ProcessedText)
		}

		resp = postJSON(t, ts.URL+"/api/augment", textRequest{Dataset: "random_deletion", Text: "one two three four five"})
		json.NewDecoder(resp.Body).Decode(&tr)
		resp.Body.Close()
		if tr.ProcessedText == "" {
			t.Error("random_deletion returned empty output")
		}
	}
}

func TestIntegration_FetchSampleFromPool(t *testing.T) {
	ts := defaultTestServer(t)

	pool := make(map[string]bool)
	for _, r := range newsRecords(100) {
		pool[r.Text] = true
	}

	for i := 0; i < 2; i++ {
		resp := postJSON(t, ts.URL+"/api/fetch_sample", map[string]string{"dataset": "AG_NEWS"})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("call %d status: got %d", i, resp.StatusCode)
		}
		var body struct {
			Text string `json:"text"`
		}
		json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()
		if !pool[body.Text] {
			t.Errorf("call %d: %q is not from the first 100 records", i, body.Text)
		}
	}
}

func TestIntegration_FetchSampleUnknownDataset(t *testing.T) {
	ts := defaultTestServer(t)

	resp := postJSON(t, ts.URL+"/api/fetch_sample", map[string]string{"dataset": "SQUAD"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	var er errorResponse
	json.NewDecoder(resp.Body).Decode(&er)
	if er.Error != "dataset not found" {
		t.Errorf("error: got %q, want %q", er.Error, "dataset not found")
	}
}

func TestIntegration_DatasetsStable(t *testing.T) {
	ts := defaultTestServer(t)

	var lists [2][]string
	for i := range lists {
		resp, err := http.Get(ts.URL + "/api/datasets")
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		var body struct {
			Datasets []string `json:"datasets"`
		}
		json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()
		lists[i] = body.Datasets
	}

	want := "AG_NEWS,IMDB"
	for i, l := range lists {
		if got := strings.Join(l, ","); got != want {
			t.Errorf("call %d: got %q, want %q", i, got, want)
		}
	}
}

func TestIntegration_Preprocess(t *testing.T) {
	ts := defaultTestServer(t)

	tests := []struct {
		option string
		want   string
	}{
		{"tokenize", "the fox ."},
		{"pad", "the fox . <pad> <pad> <pad> <pad> <pad> <pad> <pad>"},
		{"embed", "[[0,0],[1,0.5],[0,0]]"},
	}
	for _, tt := range tests {
		t.Run(tt.option, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/api/preprocess", textRequest{Dataset: tt.option, Text: "The fox."})
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status: got %d, want %d", resp.StatusCode, http.StatusOK)
			}
			var tr textResponse
			json.NewDecoder(resp.Body).Decode(&tr)
			if tr.ProcessedText != tt.want {
				t.Errorf("got %q, want %q", tr.ProcessedText, tt.want)
			}
		})
	}
}

func TestIntegration_HealthFullFlow(t *testing.T) {
	ts := defaultTestServer(t)

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var hr healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&hr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if hr.Status != "ok" {
		t.Errorf("status: got %q, want ok", hr.Status)
	}
	if len(hr.Backends) != 2 {
		t.Errorf("backends: got %d, want 2", len(hr.Backends))
	}
}

func TestIntegration_OptionsPreflightCORS(t *testing.T) {
	ts := defaultTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/augment", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status: got %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	if got := resp.Header.Get("Access-Control-Allow-Headers"); !strings.Contains(got, "X-API-Key") {
		t.Errorf("Allow-Headers: got %q, want to contain X-API-Key", got)
	}
}

func TestIntegration_UnknownRoute(t *testing.T) {
	ts := defaultTestServer(t)

	resp, err := http.Get(ts.URL + "/nonexistent")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestIntegration_ConcurrentRequests(t *testing.T) {
	ts := newTestServer(t, testDeps(t, nil), unlimited())

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var path string
			var body any
			if i%2 == 0 {
				path, body = "/api/augment", textRequest{Dataset: "random_insertion", Text: fmt.Sprintf("quick message %d", i)}
			} else {
				path, body = "/api/fetch_sample", map[string]string{"dataset": "AG_NEWS"}
			}
			buf, _ := json.Marshal(body)
			resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(buf))
			if err != nil {
				errs <- fmt.Errorf("request %d: %w", i, err)
				return
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				errs <- fmt.Errorf("request %d: status %d", i, resp.StatusCode)
			}
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestIntegration_ContextCancellation(t *testing.T) {
	deps := testDeps(t, nil, dataset.Entry{Name: "SLOW", Source: stallingSource{}})
	ts := newTestServer(t, deps, middleware.Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	body, _ := json.Marshal(map[string]string{"dataset": "SLOW"})
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, ts.URL+"/api/fetch_sample", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	_, err := http.DefaultClient.Do(req)
	if err == nil {
		t.Fatal("expected error from cancelled context, got nil")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got: %v", err)
	}
}

func TestIntegration_LookupErrorPropagation(t *testing.T) {
	ts := newTestServer(t, testDeps(t, failingLexicon{}), middleware.Options{})

	resp := postJSON(t, ts.URL+"/api/augment", textRequest{Dataset: "synonym_replacement", Text: "hello world"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status: got %d, want %d", resp.StatusCode, http.StatusBadGateway)
	}
	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if er.Error != "synonym lookup unavailable" {
		t.Errorf("error: got %q, want %q", er.Error, "synonym lookup unavailable")
	}
}

func TestIntegration_RateLimit(t *testing.T) {
	ts := defaultTestServer(t)

	for i := 0; i < 11; i++ {
		resp, err := http.Get(ts.URL + "/api/health")
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		resp.Body.Close()

		if i < 10 {
			if resp.StatusCode != http.StatusOK {
				t.Errorf("request %d: got %d, want %d", i, resp.StatusCode, http.StatusOK)
			}
		} else if resp.StatusCode != http.StatusTooManyRequests {
			t.Errorf("request %d: got %d, want %d", i, resp.StatusCode, http.StatusTooManyRequests)
		}
	}
}

func TestIntegration_OversizedBody(t *testing.T) {
	ts := defaultTestServer(t)

	payload := fmt.Sprintf(`{"text":"%s","dataset":"synonym_replacement"}`, strings.Repeat("x", 100*1024))
	resp, err := http.Post(ts.URL+"/api/augment", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status: got %d, want %d", resp.StatusCode, http.StatusRequestEntityTooLarge)
	}
}

func TestIntegration_TextTooLong(t *testing.T) {
	ts := defaultTestServer(t)

	resp := postJSON(t, ts.URL+"/api/augment", textRequest{Dataset: "synonym_replacement", Text: strings.Repeat("a", 10001)})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	var er errorResponse
	json.NewDecoder(resp.Body).Decode(&er)
	if !strings.Contains(er.Error, "too long") {
		t.Errorf("error: got %q, want to contain 'too long'", er.Error)
	}
}

func TestIntegration_APIKeyRequired(t *testing.T) {
	ts := newTestServer(t, testDeps(t, nil), middleware.Options{APIKey: "test-key-123"})

	augmentReq := func(key string) *http.Request {
		body, _ := json.Marshal(textRequest{Dataset: "synonym_replacement", Text: "hello"})
		req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/augment", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if key != "" {
			req.Header.Set("X-API-Key", key)
		}
		return req
	}

	tests := []struct {
		name string
		req  *http.Request
		want int
	}{
		{"augment without key", augmentReq(""), http.StatusUnauthorized},
		{"augment with valid key", augmentReq("test-key-123"), http.StatusOK},
		{"augment with wrong key", augmentReq("wrong-key"), http.StatusUnauthorized},
	}
	health, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/health", nil)
	datasets, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/datasets", nil)
	tests = append(tests,
		struct {
			name string
			req  *http.Request
			want int
		}{"health exempt", health, http.StatusOK},
		struct {
			name string
			req  *http.Request
			want int
		}{"datasets without key", datasets, http.StatusUnauthorized},
	)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.DefaultClient.Do(tt.req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status: got %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestIntegration_MetricsAfterRequests(t *testing.T) {
	ts := newTestServer(t, testDeps(t, nil), middleware.Options{APIKey: "secret-key"})

	body, _ := json.Marshal(textRequest{Dataset: "synonym_replacement", Text: "quick test"})
	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/augment", bytes.NewReader(body))
	req.Header.Set("X-API-Key", "secret-key")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("augment request: %v", err)
	}
	resp.Body.Close()

	body, _ = json.Marshal(map[string]string{"dataset": "IMDB"})
	req, _ = http.NewRequest(http.MethodPost, ts.URL+"/api/fetch_sample", bytes.NewReader(body))
	req.Header.Set("X-API-Key", "secret-key")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("sample request: %v", err)
	}
	resp.Body.Close()

	// /metrics needs no key.
	resp, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want %d", resp.StatusCode, http.StatusOK)
	}

	metricsBody, _ := io.ReadAll(resp.Body)
	text := string(metricsBody)
	for _, name := range []string{
		"textlab_requests_total",
		"textlab_operation_duration_seconds",
		"textlab_input_chars",
		"textlab_sample_requests_total",
		"textlab_sample_pool_builds_total",
		"go_goroutines",
	} {
		if !strings.Contains(text, name) {
			t.Errorf("metrics body missing %s", name)
		}
	}
}
