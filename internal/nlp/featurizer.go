// Package nlp scores review sentiment and derives lexical features from review text.
package nlp

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"ReviewPipeline/internal/domain"
	"ReviewPipeline/internal/ports"
)

// ErrEmptyText is returned for bodies that are blank after trimming.
var ErrEmptyText = errors.New("review text is empty")

const minTokenLength = 3

// Engine is the language model behind the featurizer. Implementations must be
// safe for concurrent use.
type Engine interface {
	Tokenize(text string) []string
	// Entities tags the tokens and returns one string per named-entity span.
	Entities(tokens []string) []string
	Polarity(text string) domain.SentimentScore
}

// Featurizer applies an Engine plus token filtering to review bodies.
type Featurizer struct {
	engine    Engine
	stopWords map[string]struct{}
}

var _ ports.Featurizer = (*Featurizer)(nil)

// NewFeaturizer wires the engine; nil falls back to the prose/VADER engine.
func NewFeaturizer(engine Engine) *Featurizer {
	if engine == nil {
		engine = NewProseEngine()
	}
	return &Featurizer{engine: engine, stopWords: englishStopWords}
}

// Featurize scores body and extracts its filtered tokens, bag of words and entities.
func (f *Featurizer) Featurize(body string) (domain.SentimentScore, domain.TextFeatures, error) {
	if strings.TrimSpace(body) == "" {
		return domain.SentimentScore{}, domain.TextFeatures{}, ErrEmptyText
	}

	sentiment := f.engine.Polarity(body)
	tokens := f.filterTokens(f.engine.Tokenize(body))

	bag := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		bag[tok] = struct{}{}
	}

	var entities []string
	if len(tokens) > 0 {
		entities = f.engine.Entities(tokens)
	}

	return sentiment, domain.TextFeatures{
		Tokens:        tokens,
		BagOfWords:    bag,
		NamedEntities: entities,
	}, nil
}

// filterTokens lowercases and keeps alphabetic, non-stop-word tokens longer than two letters.
func (f *Featurizer) filterTokens(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		tok = strings.ToLower(tok)
		if !isAlphabetic(tok) {
			continue
		}
		if _, stop := f.stopWords[tok]; stop {
			continue
		}
		if utf8.RuneCountInString(tok) < minTokenLength {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func isAlphabetic(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
