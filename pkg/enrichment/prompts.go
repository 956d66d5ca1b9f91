package enrichment

import (
	"fmt"
	"strings"

	"github.com/zatekoja/fellowship/backend/pkg/scripture"
)

const baseSystemPrompt = `You are a careful Bible study assistant for small fellowship groups. Return ONLY valid JSON, no prose and no markdown, with this schema:
{
  "author_name": string (traditional author of the book),
  "author_role": string (who the author was, e.g. "apostle", "prophet", "king of Israel"),
  "setting_context": string (2-3 sentences on the historical setting and audience),
  "simplified_explanation": string (2-3 sentences in plain modern language),
  "book_context_summary": string (1-2 sentences on where this passage sits in the book),
  "classification": string (one label: law, history, wisdom, poetry, prophecy, gospel, epistle, apocalyptic),
  "tags": string[] (3-8 short theme tags),
  "heart_snapshot": string (exactly one sentence summarizing the theological heart of the verse),
  "emotional_climate": string[] (2-5 words describing the emotional tone),
  "then_now_bridge": string (1-2 sentences connecting the original setting to life today),
  "cross_references": string[] (2-6 related citations formatted like "Book Chapter:Verse"),
%s
}
Stay faithful to mainstream scholarship. Do not invent quotations.`

const hebrewKeywordManifest = `  "hebrew_keywords": [{"term": string (transliterated Hebrew), "gloss": string (short English meaning)}] (2-8 items)`

const greekKeywordManifest = `  "greek_keywords": [{"term": string (transliterated Greek), "gloss": string (short English meaning)}] (2-8 items)`

// SystemPrompt returns the schema instructions for a testament. Old Testament
// verses ask for Hebrew keywords and New Testament verses for Greek ones.
func SystemPrompt(testament scripture.Testament) string {
	manifest := greekKeywordManifest
	if testament == scripture.TestamentOld {
		manifest = hebrewKeywordManifest
	}
	return fmt.Sprintf(baseSystemPrompt, manifest)
}

// UserPrompt returns the per-verse request body.
func UserPrompt(reference, verseText string, testament scripture.Testament) string {
	language := "Greek"
	if testament == scripture.TestamentOld {
		language = "Hebrew"
	}
	return fmt.Sprintf(
		"Reference: %s\nTestament: %s\nVerse text: %s\nKeyword language: %s\n",
		strings.TrimSpace(reference), testament, strings.TrimSpace(verseText), language,
	)
}
