// Package preprocess turns raw text into model-ready forms: token strings,
// fixed-length token windows, and embedding matrices.
package preprocess

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ravipanchani-tomtom/data-processing-demo/internal/embedding"
)

var (
	ErrInvalidOption        = errors.New("invalid preprocessing option")
	ErrEmbeddingUnavailable = errors.New("embeddings unavailable")
)

type Option string

const (
	OptTokenize Option = "tokenize"
	OptPad      Option = "pad"
	OptEmbed    Option = "embed"
)

// PadToken fills windows shorter than the pad length.
const PadToken = "<pad>"

const DefaultPadLength = 10

func Options() []Option {
	return []Option{OptTokenize, OptPad, OptEmbed}
}

func ParseOption(s string) (Option, error) {
	switch o := Option(s); o {
	case OptTokenize, OptPad, OptEmbed:
		return o, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOption, s)
}

// basicEnglish separates punctuation and drops quotes, line breaks and
// colons, matching the basic_english normalization used by common text
// classification pipelines.
var basicEnglish = strings.NewReplacer(
	`'`, ` '  `,
	`"`, ``,
	`.`, ` . `,
	`<br />`, ` `,
	`,`, ` , `,
	`(`, ` ( `,
	`)`, ` ) `,
	`!`, ` ! `,
	`?`, ` ? `,
	`;`, ` `,
	`:`, ` `,
)

// Tokenize lower-cases text and splits it into basic-English tokens.
func Tokenize(text string) []string {
	// cases.Caser is stateful, so one per call.
	lower := cases.Lower(language.Und).String(text)
	return strings.Fields(basicEnglish.Replace(lower))
}

// Pad right-pads tokens with PadToken to exactly length entries, truncating
// longer input.
func Pad(tokens []string, length int) []string {
	out := make([]string, length)
	n := copy(out, tokens)
	for i := n; i < length; i++ {
		out[i] = PadToken
	}
	return out
}

// Processor applies a preprocessing option to text.
type Processor struct {
	vectors   embedding.Store
	padLength int
}

// New builds a Processor. vectors may be nil, in which case embed fails
// with ErrEmbeddingUnavailable; a non-positive padLength uses
// DefaultPadLength.
func New(vectors embedding.Store, padLength int) *Processor {
	if padLength <= 0 {
		padLength = DefaultPadLength
	}
	return &Processor{vectors: vectors, padLength: padLength}
}

func (p *Processor) PadLength() int { return p.padLength }

func (p *Processor) Process(ctx context.Context, text string, opt Option) (string, error) {
	switch opt {
	case OptTokenize:
		return strings.Join(Tokenize(text), " "), nil
	case OptPad:
		return strings.Join(Pad(Tokenize(text), p.padLength), " "), nil
	case OptEmbed:
		matrix, err := p.Embed(ctx, Tokenize(text))
		if err != nil {
			return "", err
		}
		out, err := json.Marshal(matrix)
		if err != nil {
			return "", fmt.Errorf("preprocess: encode embeddings: %w", err)
		}
		return string(out), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOption, opt)
}

// Embed returns one vector per token. Tokens missing from the store map to
// a zero vector.
func (p *Processor) Embed(ctx context.Context, tokens []string) ([][]float32, error) {
	if p.vectors == nil {
		return nil, fmt.Errorf("%w: no vector store configured", ErrEmbeddingUnavailable)
	}
	dim := p.vectors.Dimension()
	matrix := make([][]float32, 0, len(tokens))
	for _, tok := range tokens {
		v, ok, err := p.vectors.Lookup(ctx, tok)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrEmbeddingUnavailable, tok, err)
		}
		if !ok {
			v = make([]float32, dim)
		}
		matrix = append(matrix, v)
	}
	return matrix, nil
}
