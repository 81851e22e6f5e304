package dataset

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// CSVSource reads `label,text[,text...]` rows from every file matching
// Pattern, in lexical path order. Trailing text columns (AG_NEWS title and
// description) are joined with a space.
type CSVSource struct {
	Pattern string
}

func (s *CSVSource) Open(ctx context.Context) (Iterator, error) {
	paths, err := matchFiles(s.Pattern)
	if err != nil {
		return nil, err
	}
	return &fileIterator{paths: paths, newReader: newCSVRows}, nil
}

func (s *CSVSource) Ping(ctx context.Context) error {
	_, err := matchFiles(s.Pattern)
	return err
}

// JSONLSource reads one JSON object per line from every file matching
// Pattern. LabelField and TextField default to "label" and "text".
type JSONLSource struct {
	Pattern    string
	LabelField string
	TextField  string
}

func (s *JSONLSource) Open(ctx context.Context) (Iterator, error) {
	paths, err := matchFiles(s.Pattern)
	if err != nil {
		return nil, err
	}
	labelField, textField := s.LabelField, s.TextField
	if labelField == "" {
		labelField = "label"
	}
	if textField == "" {
		textField = "text"
	}
	return &fileIterator{paths: paths, newReader: func(r io.Reader) rowReader {
		return newJSONLRows(r, labelField, textField)
	}}, nil
}

func (s *JSONLSource) Ping(ctx context.Context) error {
	_, err := matchFiles(s.Pattern)
	return err
}

func matchFiles(pattern string) ([]string, error) {
	paths, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("%w: glob %q: %v", ErrSourceUnavailable, pattern, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no files match %q", ErrSourceUnavailable, pattern)
	}
	sort.Strings(paths)
	return paths, nil
}

type rowReader interface {
	Read() (Record, error)
}

type fileIterator struct {
	paths     []string
	newReader func(io.Reader) rowReader
	file      *os.File
	rows      rowReader
	line      int
}

func (it *fileIterator) Next(ctx context.Context) (Record, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Record{}, err
		}
		if it.rows == nil {
			if len(it.paths) == 0 {
				return Record{}, io.EOF
			}
			f, err := os.Open(it.paths[0])
			it.paths = it.paths[1:]
			if err != nil {
				return Record{}, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
			}
			it.file, it.rows, it.line = f, it.newReader(bufio.NewReader(f)), 0
		}

		rec, err := it.rows.Read()
		if errors.Is(err, io.EOF) {
			it.file.Close()
			it.file, it.rows = nil, nil
			continue
		}
		it.line++
		if err != nil {
			return Record{}, fmt.Errorf("%w: %s record %d: %v", ErrSourceUnavailable, it.file.Name(), it.line, err)
		}
		return rec, nil
	}
}

func (it *fileIterator) Close() error {
	if it.file == nil {
		return nil
	}
	err := it.file.Close()
	it.file, it.rows = nil, nil
	return err
}

type csvRows struct {
	r *csv.Reader
}

func newCSVRows(r io.Reader) rowReader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return &csvRows{r: cr}
}

func (c *csvRows) Read() (Record, error) {
	row, err := c.r.Read()
	if err != nil {
		return Record{}, err
	}
	if len(row) < 2 {
		return Record{}, fmt.Errorf("want at least 2 fields, got %d", len(row))
	}
	parts := make([]string, 0, len(row)-1)
	for _, col := range row[1:] {
		if col = strings.TrimSpace(col); col != "" {
			parts = append(parts, col)
		}
	}
	return Record{Label: strings.TrimSpace(row[0]), Text: strings.Join(parts, " ")}, nil
}

type jsonlRows struct {
	sc         *bufio.Scanner
	labelField string
	textField  string
}

func newJSONLRows(r io.Reader, labelField, textField string) rowReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	return &jsonlRows{sc: sc, labelField: labelField, textField: textField}
}

func (j *jsonlRows) Read() (Record, error) {
	for j.sc.Scan() {
		line := strings.TrimSpace(j.sc.Text())
		if line == "" {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			return Record{}, err
		}
		text, ok := obj[j.textField].(string)
		if !ok {
			return Record{}, fmt.Errorf("missing string field %q", j.textField)
		}
		var label string
		if v, ok := obj[j.labelField]; ok && v != nil {
			label = fmt.Sprint(v)
		}
		return Record{Label: label, Text: text}, nil
	}
	if err := j.sc.Err(); err != nil {
		return Record{}, err
	}
	return Record{}, io.EOF
}
