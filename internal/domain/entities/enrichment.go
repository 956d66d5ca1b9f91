package entities

import (
	"strings"

	"github.com/zatekoja/fellowship/backend/pkg/scripture"
)

const (
	// MaxListTerms caps tag-like lists: tags, emotional climate and keywords.
	MaxListTerms = 8
	// MaxCrossReferences caps the cross reference list.
	MaxCrossReferences = 6
)

// Keyword is an original-language word with a short English gloss.
type Keyword struct {
	Term  string `json:"term"`
	Gloss string `json:"gloss"`
}

// Enrichment is the generated study material attached to a verse.
type Enrichment struct {
	AuthorName            string    `json:"author_name"`
	AuthorRole            string    `json:"author_role"`
	SettingContext        string    `json:"setting_context"`
	SimplifiedExplanation string    `json:"simplified_explanation"`
	BookContextSummary    string    `json:"book_context_summary"`
	Classification        string    `json:"classification"`
	Tags                  []string  `json:"tags"`
	HeartSnapshot         string    `json:"heart_snapshot"`
	EmotionalClimate      []string  `json:"emotional_climate"`
	ThenNowBridge         string    `json:"then_now_bridge"`
	CrossReferences       []string  `json:"cross_references"`
	HebrewKeywords        []Keyword `json:"hebrew_keywords,omitempty"`
	GreekKeywords         []Keyword `json:"greek_keywords,omitempty"`
}

// Finalize dedupes every list case-insensitively (first-seen casing wins),
// applies the list caps, and keeps only the keyword list that matches the
// testament. The matching list is never nil afterwards; the other one is.
func (e *Enrichment) Finalize(testament scripture.Testament) {
	e.Tags = capStrings(dedupeStrings(e.Tags), MaxListTerms)
	e.EmotionalClimate = capStrings(dedupeStrings(e.EmotionalClimate), MaxListTerms)
	e.CrossReferences = capStrings(dedupeStrings(e.CrossReferences), MaxCrossReferences)

	switch testament {
	case scripture.TestamentOld:
		e.HebrewKeywords = capKeywords(dedupeKeywords(e.HebrewKeywords))
		e.GreekKeywords = nil
	default:
		e.GreekKeywords = capKeywords(dedupeKeywords(e.GreekKeywords))
		e.HebrewKeywords = nil
	}
}

// Keywords returns whichever testament keyword list is populated.
func (e *Enrichment) Keywords() []Keyword {
	if e.HebrewKeywords != nil {
		return e.HebrewKeywords
	}
	return e.GreekKeywords
}

func dedupeStrings(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

func capStrings(values []string, limit int) []string {
	if len(values) > limit {
		return values[:limit]
	}
	return values
}

func dedupeKeywords(values []Keyword) []Keyword {
	out := make([]Keyword, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, k := range values {
		k.Term = strings.TrimSpace(k.Term)
		k.Gloss = strings.TrimSpace(k.Gloss)
		if k.Term == "" {
			continue
		}
		key := strings.ToLower(k.Term)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, k)
	}
	return out
}

func capKeywords(values []Keyword) []Keyword {
	if len(values) > MaxListTerms {
		return values[:MaxListTerms]
	}
	return values
}
