package scripture

import "strings"

// Testament is the Old/New Testament classification of a book.
type Testament string

const (
	TestamentOld Testament = "old"
	TestamentNew Testament = "new"
)

// Valid reports whether t is one of the two known testaments.
func (t Testament) Valid() bool {
	return t == TestamentOld || t == TestamentNew
}

// Book names are stored in their normalized form, so "Song Of Solomon"
// keeps the title-cased "Of".
var oldTestamentBooks = map[string]struct{}{
	"Genesis": {}, "Exodus": {}, "Leviticus": {}, "Numbers": {}, "Deuteronomy": {},
	"Joshua": {}, "Judges": {}, "Ruth": {}, "1 Samuel": {}, "2 Samuel": {},
	"1 Kings": {}, "2 Kings": {}, "1 Chronicles": {}, "2 Chronicles": {}, "Ezra": {},
	"Nehemiah": {}, "Esther": {}, "Job": {}, "Psalms": {}, "Proverbs": {},
	"Ecclesiastes": {}, "Song Of Solomon": {}, "Isaiah": {}, "Jeremiah": {}, "Lamentations": {},
	"Ezekiel": {}, "Daniel": {}, "Hosea": {}, "Joel": {}, "Amos": {},
	"Obadiah": {}, "Jonah": {}, "Micah": {}, "Nahum": {}, "Habakkuk": {},
	"Zephaniah": {}, "Haggai": {}, "Zechariah": {}, "Malachi": {},
}

var newTestamentBooks = map[string]struct{}{
	"Matthew": {}, "Mark": {}, "Luke": {}, "John": {}, "Acts": {},
	"Romans": {}, "1 Corinthians": {}, "2 Corinthians": {}, "Galatians": {}, "Ephesians": {},
	"Philippians": {}, "Colossians": {}, "1 Thessalonians": {}, "2 Thessalonians": {}, "1 Timothy": {},
	"2 Timothy": {}, "Titus": {}, "Philemon": {}, "Hebrews": {}, "James": {},
	"1 Peter": {}, "2 Peter": {}, "1 John": {}, "2 John": {}, "3 John": {},
	"Jude": {}, "Revelation": {},
}

// NormalizeBookName title-cases each whitespace-separated word and joins them
// with single spaces: "song  of SOLOMON" becomes "Song Of Solomon".
func NormalizeBookName(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[:1])) + strings.ToLower(string(r[1:]))
	}
	return strings.Join(words, " ")
}

// ClassifyTestament maps a book name to its testament. Names found in neither
// canon list are classified as New Testament.
func ClassifyTestament(book string) Testament {
	normalized := NormalizeBookName(book)
	if _, ok := oldTestamentBooks[normalized]; ok {
		return TestamentOld
	}
	if _, ok := newTestamentBooks[normalized]; ok {
		return TestamentNew
	}
	return TestamentNew
}
