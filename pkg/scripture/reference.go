package scripture

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Reference is a parsed scripture citation such as "1 John 3:16-18".
type Reference struct {
	// Book is the book name exactly as written, including any ordinal prefix.
	Book string
	// Chapter is the chapter number.
	Chapter int
	// VerseSpec is the verse part exactly as written: "16", "28-29" or "1,3,5".
	VerseSpec string
}

// ParseError reports a citation that does not match the reference grammar.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid scripture reference %q", e.Input)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

//nolint:govet // participle grammar tags are not standard struct tags
type citation struct {
	Book    string `parser:"@Book"`
	Chapter int    `parser:"@Int \":\""`
	Verses  string `parser:"@(VerseList | Int)"`
}

// The Book token swallows the ordinal prefix and every book word so the
// parsed value is the exact substring the user typed. VerseList is listed
// before Int so that "28-29" and "1,3" stay a single token.
var citationLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "VerseList", Pattern: `\d+(?:[-,]\d+)+`},
	{Name: "Book", Pattern: `(?:(?:\d{1,3}|III|II|I)\s*)?[A-Za-z]+(?:\s+[A-Za-z]+)*`},
	{Name: "Int", Pattern: `\d+`},
	{Name: "Colon", Pattern: `:`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var citationParser = participle.MustBuild[citation](
	participle.Lexer(citationLexer),
	participle.Elide("Whitespace"),
)

// ParseReference parses a free-text citation into book, chapter and verse spec.
// Supported formats:
//   - "John 3:16"
//   - "1 John 3:18", "I John 3:18"
//   - "Song of Solomon 2:4"
//   - "Romans 8:28-29"
//   - "Psalms 1:1,3,5"
func ParseReference(s string) (Reference, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Reference{}, &ParseError{Input: s}
	}

	parsed, err := citationParser.ParseString("", trimmed)
	if err != nil {
		return Reference{}, &ParseError{Input: s, Err: err}
	}

	return Reference{
		Book:      parsed.Book,
		Chapter:   parsed.Chapter,
		VerseSpec: parsed.Verses,
	}, nil
}

// FirstVerse returns the leading verse number of the verse spec. Ranges and
// lists are not expanded; "28-29" yields 28.
func (r Reference) FirstVerse() int {
	end := 0
	for end < len(r.VerseSpec) && r.VerseSpec[end] >= '0' && r.VerseSpec[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(r.VerseSpec[:end])
	if err != nil {
		return 0
	}
	return n
}

// String renders the reference back as "Book Chapter:VerseSpec".
func (r Reference) String() string {
	return fmt.Sprintf("%s %d:%s", r.Book, r.Chapter, r.VerseSpec)
}
