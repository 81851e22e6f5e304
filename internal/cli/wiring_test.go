package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ravipanchani-tomtom/data-processing-demo/internal/augment"
	"github.com/ravipanchani-tomtom/data-processing-demo/internal/config"
	"github.com/ravipanchani-tomtom/data-processing-demo/internal/embedding"
	"github.com/ravipanchani-tomtom/data-processing-demo/internal/lexicon"
	"github.com/ravipanchani-tomtom/data-processing-demo/internal/preprocess"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeVectors(t *testing.T, path string) {
	t.Helper()
	store, err := embedding.OpenBolt(path, false)
	if err != nil {
		t.Fatalf("OpenBolt: %v", err)
	}
	defer store.Close()
	err = store.PutBatch([]embedding.Vector{
		{Token: "fox", Values: []float32{1, 2}},
	})
	if err != nil {
		t.Fatalf("PutBatch: %v", err)
	}
}

// testConfig points every store at files under a temp dir.
func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()

	c, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	c.Lexicon.Path = writeFile(t, dir, "synonyms.yaml", "quick: [fast]\nfox: [vixen]\n")
	c.VectorsPath = filepath.Join(dir, "vectors.db")
	writeVectors(t, c.VectorsPath)

	writeFile(t, dir, "ag/train.csv", "3,quick fox,jumps\n")
	writeFile(t, dir, "imdb/pos/a.jsonl", `{"label":"pos","text":"great film"}`+"\n")
	c.Datasets = []config.DatasetConfig{
		{Name: "AG_NEWS", Format: "csv", Path: filepath.Join(dir, "ag", "*.csv")},
		{Name: "IMDB", Format: "jsonl", Path: filepath.Join(dir, "imdb", "**", "*.jsonl")},
	}
	return c
}

func TestBuildApp(t *testing.T) {
	a, err := buildApp(testConfig(t))
	if err != nil {
		t.Fatalf("buildApp: %v", err)
	}
	defer a.Close()
	ctx := context.Background()

	for _, name := range []string{"lexicon", "embeddings", "datasets"} {
		b, ok := a.backends[name]
		if !ok {
			t.Errorf("backend %q not registered", name)
			continue
		}
		if err := b.Ping(ctx); err != nil {
			t.Errorf("%s ping: %v", name, err)
		}
	}

	got, err := a.engine.Augment(ctx, "the quick fox", augment.OpSynonymReplacement)
	if err != nil || got != "the fast vixen" {
		t.Errorf("augment: got %q, %v", got, err)
	}

	got, err = a.processor.Process(ctx, "fox", preprocess.OptEmbed)
	if err != nil || got != "[[1,2]]" {
		t.Errorf("embed: got %q, %v", got, err)
	}

	got, err = a.samples.GetSample(ctx, "AG_NEWS")
	if err != nil || got != "quick fox jumps" {
		t.Errorf("AG_NEWS sample: got %q, %v", got, err)
	}
	got, err = a.samples.GetSample(ctx, "IMDB")
	if err != nil || got != "great film" {
		t.Errorf("IMDB sample: got %q, %v", got, err)
	}
}

func TestBuildAppWithoutVectors(t *testing.T) {
	c := testConfig(t)
	c.VectorsPath = ""

	a, err := buildApp(c)
	if err != nil {
		t.Fatalf("buildApp: %v", err)
	}
	defer a.Close()

	if _, ok := a.backends["embeddings"]; ok {
		t.Error("embeddings backend registered without vectors_path")
	}
	_, err = a.processor.Process(context.Background(), "fox", preprocess.OptEmbed)
	if !errors.Is(err, preprocess.ErrEmbeddingUnavailable) {
		t.Errorf("embed: got %v, want ErrEmbeddingUnavailable", err)
	}
}

func TestBuildAppSQLiteLexicon(t *testing.T) {
	c := testConfig(t)
	c.Lexicon = config.LexiconConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "lexicon.db")}

	lex, err := lexicon.OpenSQLite(c.Lexicon.Path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if _, err := lex.Import(context.Background(), map[string][]string{"quick": {"rapid"}}, nil); err != nil {
		t.Fatalf("Import: %v", err)
	}
	lex.Close()

	a, err := buildApp(c)
	if err != nil {
		t.Fatalf("buildApp: %v", err)
	}
	defer a.Close()

	got, err := a.engine.Augment(context.Background(), "quick", augment.OpSynonymReplacement)
	if err != nil || got != "rapid" {
		t.Errorf("augment: got %q, %v", got, err)
	}
}

func TestBuildAppNoLexicon(t *testing.T) {
	c := testConfig(t)
	c.Lexicon = config.LexiconConfig{Driver: "none"}

	a, err := buildApp(c)
	if err != nil {
		t.Fatalf("buildApp: %v", err)
	}
	defer a.Close()

	got, err := a.engine.Augment(context.Background(), "the quick fox", augment.OpSynonymReplacement)
	if err != nil || got != "the quick fox" {
		t.Errorf("augment: got %q, %v", got, err)
	}
}

func TestBuildAppErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{"missing lexicon file", func(c *config.Config) { c.Lexicon.Path = filepath.Join(t.TempDir(), "nope.yaml") }},
		{"unknown lexicon driver", func(c *config.Config) { c.Lexicon.Driver = "redis" }},
		{"missing stopwords file", func(c *config.Config) { c.StopwordsPath = filepath.Join(t.TempDir(), "nope.txt") }},
		{"missing vectors file", func(c *config.Config) { c.VectorsPath = filepath.Join(t.TempDir(), "nope.db") }},
		{"unknown dataset format", func(c *config.Config) { c.Datasets[0].Format = "parquet" }},
		{"duplicate dataset", func(c *config.Config) { c.Datasets[1].Name = c.Datasets[0].Name }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testConfig(t)
			tt.mutate(&c)
			if a, err := buildApp(c); err == nil {
				a.Close()
				t.Fatal("expected error")
			}
		})
	}
}

func TestBuildDemoApp(t *testing.T) {
	c, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	a, err := buildDemoApp(c)
	if err != nil {
		t.Fatalf("buildDemoApp: %v", err)
	}
	defer a.Close()
	ctx := context.Background()

	if got := a.samples.ListDatasets(); strings.Join(got, ",") != "AG_NEWS,IMDB" {
		t.Errorf("datasets: got %v", got)
	}
	for _, name := range a.samples.ListDatasets() {
		if text, err := a.samples.GetSample(ctx, name); err != nil || text == "" {
			t.Errorf("%s sample: got %q, %v", name, text, err)
		}
	}
	for name, b := range a.backends {
		if err := b.Ping(ctx); err != nil {
			t.Errorf("%s ping: %v", name, err)
		}
	}

	got, err := a.engine.Augment(ctx, "a good movie", augment.OpSynonymReplacement)
	if err != nil || got != "a fine film" {
		t.Errorf("augment: got %q, %v", got, err)
	}
	got, err = a.processor.Process(ctx, "Good movie!", preprocess.OptEmbed)
	if err != nil || !strings.HasPrefix(got, "[[0.8,0.1,0,0.3],") {
		t.Errorf("embed: got %q, %v", got, err)
	}
}

// execute runs the command tree with flag-bound globals reset.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgFile, envFile, servePort, serveDemo = "", "", 0, false
	vectorsOut, lexiconOut = "", ""
	datasetsCheck, sampleCount = false, 1

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVectorsCommands(t *testing.T) {
	dir := t.TempDir()
	glove := writeFile(t, dir, "glove.txt", "the 0.1 0.2 0.3\nfox 1 2 3\n")
	store := filepath.Join(dir, "vectors.db")

	out, err := execute(t, "vectors", "import", glove, "--out", store)
	if err != nil {
		t.Fatalf("vectors import: %v", err)
	}
	if !strings.Contains(out, "Imported 2 words (dimension 3)") {
		t.Errorf("import output: %q", out)
	}

	out, err = execute(t, "vectors", "info", "--out", store)
	if err != nil {
		t.Fatalf("vectors info: %v", err)
	}
	if !strings.Contains(out, "Words:     2") || !strings.Contains(out, "Dimension: 3") {
		t.Errorf("info output: %q", out)
	}
}

func TestLexiconCommands(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "synonyms.yaml", "quick: [fast, speedy]\nslow: [sluggish]\n")
	db := filepath.Join(dir, "lexicon.db")
	conf := writeFile(t, dir, "textlab.yaml", "lexicon:\n  driver: sqlite\n  path: "+db+"\n")

	out, err := execute(t, "--config", conf, "lexicon", "import", src)
	if err != nil {
		t.Fatalf("lexicon import: %v", err)
	}
	if !strings.Contains(out, "Imported 2 words") {
		t.Errorf("import output: %q", out)
	}

	out, err = execute(t, "--config", conf, "lexicon", "lookup", "quick", "zebra")
	if err != nil {
		t.Fatalf("lexicon lookup: %v", err)
	}
	want := "quick: fast, speedy\nzebra: (none)\n"
	if out != want {
		t.Errorf("lookup output: got %q, want %q", out, want)
	}
}

func TestDatasetsCommands(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ag/train.csv", "1,only row\n")
	conf := writeFile(t, dir, "textlab.yaml", `datasets:
  - name: AG_NEWS
    format: csv
    path: `+filepath.Join(dir, "ag", "*.csv")+`
  - name: EMPTY
    format: jsonl
    path: `+filepath.Join(dir, "missing", "*.jsonl")+`
`)

	out, err := execute(t, "--config", conf, "datasets", "list", "--check")
	if err != nil {
		t.Fatalf("datasets list: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("list output: %q", out)
	}
	if !strings.HasPrefix(lines[1], "AG_NEWS") || !strings.HasSuffix(lines[1], "ok") {
		t.Errorf("AG_NEWS row: %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "EMPTY") || strings.HasSuffix(lines[2], "ok") {
		t.Errorf("EMPTY row: %q", lines[2])
	}

	out, err = execute(t, "--config", conf, "datasets", "sample", "AG_NEWS", "-n", "2")
	if err != nil {
		t.Fatalf("datasets sample: %v", err)
	}
	if out != "only row\nonly row\n" {
		t.Errorf("sample output: %q", out)
	}

	if _, err := execute(t, "--config", conf, "datasets", "sample", "NOPE"); err == nil {
		t.Error("sample of unknown dataset: expected error")
	}
}

func TestEnvFile(t *testing.T) {
	dir := t.TempDir()
	env := writeFile(t, dir, "textlab.env", "TEXTLAB_RATE_LIMIT=3\nTEXTLAB_LOG_FORMAT=json\n")
	t.Cleanup(func() {
		os.Unsetenv("TEXTLAB_RATE_LIMIT")
		os.Unsetenv("TEXTLAB_LOG_FORMAT")
	})

	if _, err := execute(t, "--env-file", env, "datasets", "list"); err != nil {
		t.Fatalf("datasets list: %v", err)
	}
	if cfg.RateLimit != 3 || cfg.LogFormat != "json" {
		t.Errorf("config: rate_limit=%d log_format=%q", cfg.RateLimit, cfg.LogFormat)
	}

	if _, err := execute(t, "--env-file", filepath.Join(dir, "missing.env"), "datasets", "list"); err == nil {
		t.Error("missing env file: expected error")
	}
}
