package enrichment

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/zatekoja/fellowship/backend/internal/domain/entities"
	"github.com/zatekoja/fellowship/backend/pkg/scripture"
)

const (
	maxEmotionalClimate = 8
	maxCrossReferences  = 6
	maxKeywords         = 8
)

// Document is the untyped structured output of a generative provider.
type Document map[string]any

// ParseDocument decodes provider output into a Document. Markdown code fences
// around the JSON are tolerated; anything that is not a JSON object is not.
func ParseDocument(text string) (Document, error) {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimSuffix(cleaned, "```")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
	}
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return nil, errors.New("empty output")
	}

	var doc Document
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.New("output is not a JSON object")
	}
	return doc, nil
}

// Normalize coerces a Document into an Enrichment. Missing or wrong-typed
// strings become "", lists keep only non-empty strings and are capped, and
// only the keyword list for the given testament is attached.
func Normalize(doc Document, testament scripture.Testament) *entities.Enrichment {
	e := &entities.Enrichment{
		AuthorName:            doc.str("author_name"),
		AuthorRole:            doc.str("author_role"),
		SettingContext:        doc.str("setting_context"),
		SimplifiedExplanation: doc.str("simplified_explanation"),
		BookContextSummary:    doc.str("book_context_summary"),
		Classification:        doc.str("classification"),
		Tags:                  doc.strList("tags", 0),
		HeartSnapshot:         doc.str("heart_snapshot"),
		EmotionalClimate:      doc.strList("emotional_climate", maxEmotionalClimate),
		ThenNowBridge:         doc.str("then_now_bridge"),
		CrossReferences:       doc.strList("cross_references", maxCrossReferences),
	}

	if testament == scripture.TestamentOld {
		e.HebrewKeywords = doc.keywords("hebrew_keywords")
	} else {
		e.GreekKeywords = doc.keywords("greek_keywords")
	}
	return e
}

func (d Document) str(key string) string {
	s, _ := d[key].(string)
	return strings.TrimSpace(s)
}

// strList returns the non-empty string elements of an array field. A limit
// of zero leaves the list uncapped.
func (d Document) strList(key string, limit int) []string {
	out := []string{}
	raw, ok := d[key].([]any)
	if !ok {
		return out
	}
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		out = append(out, s)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// keywords accepts objects ({"term","gloss"} or the looser
// {"word"/"transliteration","meaning"/"definition"}) and bare strings.
func (d Document) keywords(key string) []entities.Keyword {
	out := []entities.Keyword{}
	raw, ok := d[key].([]any)
	if !ok {
		return out
	}
	for _, item := range raw {
		var kw entities.Keyword
		switch v := item.(type) {
		case string:
			kw.Term = strings.TrimSpace(v)
		case map[string]any:
			obj := Document(v)
			kw.Term = firstNonEmpty(obj.str("term"), obj.str("transliteration"), obj.str("word"))
			kw.Gloss = firstNonEmpty(obj.str("gloss"), obj.str("meaning"), obj.str("definition"))
		}
		if kw.Term == "" {
			continue
		}
		out = append(out, kw)
		if len(out) == maxKeywords {
			break
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
