package nlp

import "strings"

// taggedToken is a token with its POS tag and IOB entity label ("B-GPE", "I-GPE", "O").
type taggedToken struct {
	Text  string
	Tag   string
	Label string
}

// chunkEntities groups contiguous entity-labelled tokens into spans. A "B-"
// label or a change of entity type starts a new span.
func chunkEntities(tokens []taggedToken) []string {
	var (
		spans   []string
		current []string
		kind    string
	)

	flush := func() {
		if len(current) > 0 {
			spans = append(spans, strings.Join(current, " "))
		}
		current = nil
		kind = ""
	}

	for _, tok := range tokens {
		label := strings.TrimSpace(tok.Label)
		if label == "" || label == "O" {
			flush()
			continue
		}

		prefix, entityType := splitLabel(label)
		if prefix == "B" || entityType != kind {
			flush()
		}
		current = append(current, tok.Text)
		kind = entityType
	}
	flush()

	return spans
}

func splitLabel(label string) (string, string) {
	if i := strings.IndexByte(label, '-'); i > 0 {
		return label[:i], label[i+1:]
	}
	return "I", label
}
