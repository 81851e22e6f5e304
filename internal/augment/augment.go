package augment

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
)

var (
	// ErrInvalidOperation is returned for an unrecognized augmentation selector.
	ErrInvalidOperation = errors.New("invalid augmentation option")
	// ErrLookupUnavailable wraps failures of the synonym source.
	ErrLookupUnavailable = errors.New("synonym lookup unavailable")
)

// Operation selects one of the word-level transformations.
type Operation string

const (
	OpSynonymReplacement Operation = "synonym_replacement"
	OpRandomInsertion    Operation = "random_insertion"
	OpRandomDeletion     Operation = "random_deletion"
)

// Operations returns the supported selectors in a stable order.
func Operations() []Operation {
	return []Operation{OpSynonymReplacement, OpRandomInsertion, OpRandomDeletion}
}

// ParseOperation maps a request selector onto an Operation.
func ParseOperation(s string) (Operation, error) {
	op := Operation(s)
	if slices.Contains(Operations(), op) {
		return op, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOperation, s)
}

// Lexicon returns ranked synonym candidates for a word. The first candidate
// is the one the engine uses.
type Lexicon interface {
	Synonyms(ctx context.Context, word string) ([]string, error)
}

// Stopwords reports whether a lower-cased word is excluded from replacement.
type Stopwords interface {
	Contains(word string) bool
}

// Rand is the entropy source. It must be safe for concurrent use when the
// Engine is shared between requests.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

type globalRand struct{}

func (globalRand) IntN(n int) int   { return rand.IntN(n) }
func (globalRand) Float64() float64 { return rand.Float64() }

type noStopwords struct{}

func (noStopwords) Contains(string) bool { return false }

// Options tunes the randomized operations.
type Options struct {
	InsertionRounds      int
	DeletionProbability  float64
	MaxInsertionAttempts int
}

// DefaultOptions returns one insertion round, p=0.2 deletion and ten
// attempts to find a word with synonyms.
func DefaultOptions() Options {
	return Options{
		InsertionRounds:      1,
		DeletionProbability:  0.2,
		MaxInsertionAttempts: 10,
	}
}

// Engine applies word-level augmentations to whitespace-separated text.
type Engine struct {
	lexicon   Lexicon
	stopwords Stopwords
	rng       Rand
	opts      Options
}

// New builds an Engine. A nil stopword set disables the stopword filter and
// a nil rng falls back to the math/rand/v2 global source. Non-positive
// InsertionRounds and MaxInsertionAttempts take their defaults.
// DeletionProbability is used as given, so a zero value disables deletion;
// start from DefaultOptions to get p=0.2.
func New(lexicon Lexicon, stopwords Stopwords, rng Rand, opts Options) *Engine {
	def := DefaultOptions()
	if opts.InsertionRounds <= 0 {
		opts.InsertionRounds = def.InsertionRounds
	}
	if opts.MaxInsertionAttempts <= 0 {
		opts.MaxInsertionAttempts = def.MaxInsertionAttempts
	}
	if stopwords == nil {
		stopwords = noStopwords{}
	}
	if rng == nil {
		rng = globalRand{}
	}
	return &Engine{lexicon: lexicon, stopwords: stopwords, rng: rng, opts: opts}
}

// Options returns the effective options.
func (e *Engine) Options() Options { return e.opts }

// Augment applies op to text with the engine's configured parameters.
func (e *Engine) Augment(ctx context.Context, text string, op Operation) (string, error) {
	switch op {
	case OpSynonymReplacement:
		return e.SynonymReplacement(ctx, text)
	case OpRandomInsertion:
		return e.RandomInsertion(ctx, text, e.opts.InsertionRounds)
	case OpRandomDeletion:
		return e.RandomDeletion(text, e.opts.DeletionProbability), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOperation, op)
	}
}

// SynonymReplacement swaps every non-stopword for its first synonym
// candidate. Word count and order are preserved.
func (e *Engine) SynonymReplacement(ctx context.Context, text string) (string, error) {
	words := strings.Fields(text)
	for i, w := range words {
		if e.stopwords.Contains(strings.ToLower(w)) {
			continue
		}
		candidates, err := e.synonyms(ctx, w)
		if err != nil {
			return "", err
		}
		if len(candidates) > 0 && candidates[0] != w {
			words[i] = candidates[0]
		}
	}
	return strings.Join(words, " "), nil
}

// RandomInsertion runs n rounds, each inserting the first synonym of a
// randomly chosen word at a random position. A round that finds no word
// with synonyms within MaxInsertionAttempts draws is skipped.
func (e *Engine) RandomInsertion(ctx context.Context, text string, n int) (string, error) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return "", nil
	}
	for round := 0; round < n; round++ {
		synonym, err := e.randomSynonym(ctx, words)
		if err != nil {
			return "", err
		}
		if synonym == "" {
			continue
		}
		pos := e.rng.IntN(len(words) + 1)
		words = slices.Insert(words, pos, synonym)
	}
	return strings.Join(words, " "), nil
}

func (e *Engine) randomSynonym(ctx context.Context, words []string) (string, error) {
	for attempt := 0; attempt < e.opts.MaxInsertionAttempts; attempt++ {
		w := words[e.rng.IntN(len(words))]
		candidates, err := e.synonyms(ctx, w)
		if err != nil {
			return "", err
		}
		if len(candidates) > 0 {
			return candidates[0], nil
		}
	}
	return "", nil
}

// RandomDeletion drops each word with probability p. Single-word input is
// returned as is, and the result is never empty for non-empty input.
func (e *Engine) RandomDeletion(text string, p float64) string {
	words := strings.Fields(text)
	if len(words) <= 1 {
		return strings.Join(words, " ")
	}

	kept := make([]string, 0, len(words))
	for _, w := range words {
		if e.rng.Float64() > p {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		return words[e.rng.IntN(len(words))]
	}
	return strings.Join(kept, " ")
}

func (e *Engine) synonyms(ctx context.Context, word string) ([]string, error) {
	candidates, err := e.lexicon.Synonyms(ctx, word)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrLookupUnavailable, word, err)
	}
	return candidates, nil
}
