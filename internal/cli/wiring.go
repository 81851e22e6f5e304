package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ravipanchani-tomtom/data-processing-demo/internal/augment"
	"github.com/ravipanchani-tomtom/data-processing-demo/internal/config"
	"github.com/ravipanchani-tomtom/data-processing-demo/internal/dataset"
	"github.com/ravipanchani-tomtom/data-processing-demo/internal/embedding"
	"github.com/ravipanchani-tomtom/data-processing-demo/internal/handler"
	"github.com/ravipanchani-tomtom/data-processing-demo/internal/lexicon"
	"github.com/ravipanchani-tomtom/data-processing-demo/internal/preprocess"
	"github.com/ravipanchani-tomtom/data-processing-demo/internal/server"
)

// app holds the services behind the API and the stores they keep open.
type app struct {
	engine    *augment.Engine
	processor *preprocess.Processor
	samples   *dataset.SampleCache
	backends  map[string]handler.Checker
	closers   []io.Closer
}

func (a *app) deps() server.Deps {
	return server.Deps{
		Augmenter:    a.engine,
		Preprocessor: a.processor,
		Sampler:      a.samples,
		Backends:     a.backends,
	}
}

func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// buildApp opens every configured store. On error, anything already opened
// is closed.
func buildApp(c config.Config) (_ *app, err error) {
	a := &app{backends: make(map[string]handler.Checker)}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	lex, err := openLexicon(a, c.Lexicon)
	if err != nil {
		return nil, err
	}

	stop := lexicon.DefaultStopwords()
	if c.StopwordsPath != "" {
		if stop, err = lexicon.LoadStopwords(c.StopwordsPath); err != nil {
			return nil, err
		}
	}

	// A typed nil *BoltStore must not reach the processor.
	var vectors embedding.Store
	if c.VectorsPath != "" {
		bolt, err := embedding.OpenBolt(c.VectorsPath, true)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, bolt)
		a.backends["embeddings"] = bolt
		vectors = bolt
		slog.Info("embeddings: bolt store", "path", c.VectorsPath, "dimension", bolt.Dimension())
	} else {
		slog.Info("embeddings: disabled (no vectors_path configured)")
	}

	catalog, err := buildCatalog(c.Datasets)
	if err != nil {
		return nil, err
	}
	a.backends["datasets"] = catalog

	if err := a.finish(c, lex, stop, vectors, catalog); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) finish(c config.Config, lex augment.Lexicon, stop augment.Stopwords, vectors embedding.Store, catalog *dataset.Catalog) error {
	samples, err := dataset.NewSampleCache(catalog, nil, dataset.Options{
		PoolSize:     c.Sample.PoolSize,
		Capacity:     c.Sample.Capacity,
		BuildTimeout: c.Sample.BuildTimeout,
	})
	if err != nil {
		return err
	}
	a.samples = samples
	a.engine = augment.New(lex, stop, nil, augment.Options{
		InsertionRounds:      c.Augment.InsertionRounds,
		DeletionProbability:  c.Augment.DeletionProbability,
		MaxInsertionAttempts: c.Augment.MaxInsertionAttempts,
	})
	a.processor = preprocess.New(vectors, c.Preprocess.PadLength)
	return nil
}

func openLexicon(a *app, lc config.LexiconConfig) (augment.Lexicon, error) {
	switch lc.Driver {
	case "yaml":
		lex, err := lexicon.LoadYAML(lc.Path)
		if err != nil {
			return nil, err
		}
		a.backends["lexicon"] = lex
		slog.Info("lexicon: yaml", "path", lc.Path, "words", lex.Len())
		return lex, nil
	case "sqlite":
		lex, err := lexicon.OpenSQLite(lc.Path)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, lex)
		a.backends["lexicon"] = lex
		slog.Info("lexicon: sqlite", "path", lc.Path)
		return lex, nil
	case "none":
		slog.Info("lexicon: disabled, augmentations will leave text unchanged")
		return lexicon.NewMapLexicon(nil), nil
	}
	return nil, fmt.Errorf("unknown lexicon driver %q", lc.Driver)
}

func buildCatalog(datasets []config.DatasetConfig) (*dataset.Catalog, error) {
	entries := make([]dataset.Entry, 0, len(datasets))
	for _, d := range datasets {
		var src dataset.Source
		switch d.Format {
		case "csv":
			src = &dataset.CSVSource{Pattern: d.Path}
		case "jsonl":
			src = &dataset.JSONLSource{Pattern: d.Path, LabelField: d.LabelField, TextField: d.TextField}
		default:
			return nil, fmt.Errorf("dataset %s: unknown format %q", d.Name, d.Format)
		}
		entries = append(entries, dataset.Entry{Name: d.Name, Source: src})
	}
	return dataset.NewCatalog(entries...)
}
