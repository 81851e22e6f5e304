package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

type textRequest struct {
	Dataset string `json:"dataset"`
	Text    string `json:"text"`
}

type textResponse struct {
	OriginalText  string `json:"original_text"`
	ProcessedText string `json:"processed_text"`
}

type sampleResponse struct {
	Text string `json:"text"`
}

// task is one endpoint/selector pair under test.
type task struct {
	Endpoint string
	Op       string
}

var allTasks = []task{
	{"augment", "synonym_replacement"},
	{"augment", "random_insertion"},
	{"augment", "random_deletion"},
	{"preprocess", "tokenize"},
	{"preprocess", "pad"},
	{"preprocess", "embed"},
}

type result struct {
	Sample   string `json:"sample"`
	Chars    int    `json:"chars"`
	Endpoint string `json:"endpoint"`
	Op       string `json:"op"`
	Run      int    `json:"run"`
	WallMs   int64  `json:"wall_ms"`
	OutChars int    `json:"out_chars"`
	Error    string `json:"error,omitempty"`
}

type client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

func main() {
	url := flag.String("url", "http://localhost:8000", "API base URL")
	apiKey := flag.String("api-key", "", "API key (optional)")
	runs := flag.Int("runs", 3, "Number of runs per sample and operation")
	op := flag.String("op", "", "Only run this operation (e.g. random_insertion, embed)")
	fromDataset := flag.String("dataset", "", "Benchmark texts fetched from this dataset instead of built-in samples")
	quality := flag.Bool("quality", false, "Quality mode: show input/output for each sample (1 run, no timing table)")
	jsonOut := flag.String("json", "", "Write results to JSON file (e.g. results.json)")
	warmup := flag.Bool("warmup", false, "Run one warmup request per sample before measuring")
	flag.Parse()

	c := &client{
		http:    &http.Client{Timeout: 70 * time.Second},
		baseURL: strings.TrimRight(*url, "/"),
		apiKey:  *apiKey,
	}

	tasks := selectTasks(*op)
	if len(tasks) == 0 {
		fmt.Fprintf(os.Stderr, "Unknown operation %q\n", *op)
		os.Exit(2)
	}

	samples := Samples
	if *fromDataset != "" {
		var err error
		samples, err = c.datasetSamples(*fromDataset, 4)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error fetching samples: %v\n", err)
			os.Exit(1)
		}
	}

	if *quality {
		runQualityMode(c, tasks, samples)
		return
	}

	fmt.Printf("Benchmarking against %s (%d operations, %d runs per sample", c.baseURL, len(tasks), *runs)
	if *warmup {
		fmt.Print(", warmup enabled")
	}
	fmt.Println(")")

	var results []result
	var failures int
	for _, t := range tasks {
		for _, sample := range samples {
			if *warmup {
				fmt.Printf("  Warming up %s/%s...", t.Op, sample.Name)
				w := c.benchmark(t, sample, 0)
				if w.Error != "" {
					fmt.Printf(" FAILED (%s)\n", w.Error)
				} else {
					fmt.Printf(" %dms (discarded)\n", w.WallMs)
				}
			}
			for run := 1; run <= *runs; run++ {
				fmt.Printf("  Running %s/%s (run %d/%d)...", t.Op, sample.Name, run, *runs)
				r := c.benchmark(t, sample, run)
				results = append(results, r)
				if r.Error != "" {
					fmt.Printf(" FAILED (%s)\n", r.Error)
					failures++
				} else {
					fmt.Printf(" %dms\n", r.WallMs)
				}
			}
		}
	}

	fmt.Println()
	printTable(results)
	printSummary(results)

	if *jsonOut != "" {
		if err := writeJSON(*jsonOut, results, c.baseURL); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON: %v\n", err)
		} else {
			fmt.Printf("\nResults written to %s\n", *jsonOut)
		}
	}

	if failures > 0 {
		os.Exit(1)
	}
}

func selectTasks(op string) []task {
	if op == "" {
		return allTasks
	}
	for _, t := range allTasks {
		if t.Op == op {
			return []task{t}
		}
	}
	return nil
}

func (c *client) post(path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// datasetSamples pulls n texts from the server's sample pool.
func (c *client) datasetSamples(name string, n int) ([]Sample, error) {
	samples := make([]Sample, 0, n)
	for i := 1; i <= n; i++ {
		var sr sampleResponse
		if err := c.post("/api/fetch_sample", map[string]string{"dataset": name}, &sr); err != nil {
			return nil, err
		}
		samples = append(samples, Sample{Name: fmt.Sprintf("%s#%d", name, i), Text: sr.Text})
	}
	return samples, nil
}

func (c *client) benchmark(t task, sample Sample, run int) result {
	r := result{Sample: sample.Name, Chars: len(sample.Text), Endpoint: t.Endpoint, Op: t.Op, Run: run}

	var tr textResponse
	start := time.Now()
	err := c.post("/api/"+t.Endpoint, textRequest{Dataset: t.Op, Text: sample.Text}, &tr)
	r.WallMs = time.Since(start).Milliseconds()
	if err != nil {
		r.Error = err.Error()
		return r
	}
	r.OutChars = len(tr.ProcessedText)
	return r
}

func printTable(results []result) {
	fmt.Println("| Operation | Sample | Chars | Run | Wall (ms) | Out Chars | Ratio |")
	fmt.Println("|-----------|--------|-------|-----|-----------|-----------|-------|")
	for _, r := range results {
		if r.Error != "" {
			fmt.Printf("| %-19s | %-8s | %5d | %d | %9s | %9s | %5s |\n",
				r.Op, r.Sample, r.Chars, r.Run, "FAIL", "-", "-")
			continue
		}
		ratio := 0.0
		if r.Chars > 0 {
			ratio = float64(r.OutChars) / float64(r.Chars)
		}
		fmt.Printf("| %-19s | %-8s | %5d | %d | %9d | %9d | %5.2f |\n",
			r.Op, r.Sample, r.Chars, r.Run, r.WallMs, r.OutChars, ratio)
	}
}

func runQualityMode(c *client, tasks []task, samples []Sample) {
	fmt.Printf("Quality test against %s\n", c.baseURL)
	fmt.Println(strings.Repeat("=", 72))

	var total, failures int
	for _, sample := range samples {
		fmt.Printf("\n--- %s (%d chars) ---\n", sample.Name, len(sample.Text))
		fmt.Printf("IN:  %s\n", sample.Text)
		for _, t := range tasks {
			total++
			var tr textResponse
			start := time.Now()
			err := c.post("/api/"+t.Endpoint, textRequest{Dataset: t.Op, Text: sample.Text}, &tr)
			if err != nil {
				fmt.Printf("%-19s ERR: %s\n", t.Op, err)
				failures++
				continue
			}
			fmt.Printf("%-19s %s\n", t.Op, tr.ProcessedText)
			fmt.Printf("%-19s [%dms, %d->%d chars]\n", "", time.Since(start).Milliseconds(), len(sample.Text), len(tr.ProcessedText))
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 72))
	fmt.Printf("Done: %d/%d passed\n", total-failures, total)
	if failures > 0 {
		os.Exit(1)
	}
}

func printSummary(results []result) {
	var ok []result
	for _, r := range results {
		if r.Error == "" {
			ok = append(ok, r)
		}
	}

	failed := len(results) - len(ok)

	if len(ok) == 0 {
		fmt.Printf("\nSummary: all %d runs failed\n", len(results))
		return
	}

	type agg struct {
		n     int
		total int64
		max   int64
	}
	byOp := make(map[string]*agg)
	var order []string
	for _, r := range ok {
		a, seen := byOp[r.Op]
		if !seen {
			a = &agg{}
			byOp[r.Op] = a
			order = append(order, r.Op)
		}
		a.n++
		a.total += r.WallMs
		a.max = max(a.max, r.WallMs)
	}

	fmt.Printf("\nSummary:\n")
	for _, op := range order {
		a := byOp[op]
		fmt.Printf("- %-19s avg %.1fms, max %dms over %d runs\n", op, float64(a.total)/float64(a.n), a.max, a.n)
	}
	fmt.Printf("- Total runs: %d (%d ok, %d failed)\n", len(results), len(ok), failed)
}

type jsonReport struct {
	Timestamp string   `json:"timestamp"`
	URL       string   `json:"url"`
	Results   []result `json:"results"`
}

func writeJSON(path string, results []result, baseURL string) error {
	report := jsonReport{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		URL:       baseURL,
		Results:   results,
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
