package nlp

import (
	"strings"

	"github.com/jdkato/prose/v2"
	"github.com/jonreiter/govader"

	"ReviewPipeline/internal/domain"
)

// ProseEngine tokenizes, POS-tags and chunks entities with prose and scores
// sentiment with the VADER lexicon. It holds no per-call state.
type ProseEngine struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

var _ Engine = (*ProseEngine)(nil)

// NewProseEngine loads the VADER lexicon once; reuse the engine for a whole run.
func NewProseEngine() *ProseEngine {
	return &ProseEngine{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (e *ProseEngine) Tokenize(text string) []string {
	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return strings.Fields(text)
	}

	tokens := doc.Tokens()
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, tok.Text)
	}
	return out
}

func (e *ProseEngine) Entities(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}

	doc, err := prose.NewDocument(strings.Join(tokens, " "), prose.WithSegmentation(false))
	if err != nil {
		return nil
	}

	tagged := make([]taggedToken, 0, len(doc.Tokens()))
	for _, tok := range doc.Tokens() {
		tagged = append(tagged, taggedToken{Text: tok.Text, Tag: tok.Tag, Label: tok.Label})
	}
	return chunkEntities(tagged)
}

func (e *ProseEngine) Polarity(text string) domain.SentimentScore {
	s := e.analyzer.PolarityScores(text)
	return domain.SentimentScore{
		Positive: s.Positive,
		Neutral:  s.Neutral,
		Negative: s.Negative,
		Compound: s.Compound,
	}
}
