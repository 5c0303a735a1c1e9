// Package document holds the canonical diary body and its addressing.
//
// Every offset in this module is a UTF-16 code unit index. Length, tokenization,
// slicing and persisted annotation offsets all use that one unit.
package document

import (
	"unicode"
	"unicode/utf16"
)

// Document is an immutable snapshot of a diary body.
type Document struct {
	text  string
	units []uint16
}

// New builds a Document from text.
func New(text string) Document {
	return Document{
		text:  text,
		units: utf16.Encode([]rune(text)),
	}
}

// String returns the text the document was built from.
func (d Document) String() string {
	return d.text
}

// Len returns the document length in UTF-16 code units.
func (d Document) Len() int {
	return len(d.units)
}

// Unit returns the code unit at index i.
func (d Document) Unit(i int) uint16 {
	return d.units[i]
}

// Slice returns the text covered by [start, end), clamped to the document.
func (d Document) Slice(start, end int) string {
	start = clamp(start, 0, len(d.units))
	end = clamp(end, 0, len(d.units))
	if start >= end {
		return ""
	}
	return string(utf16.Decode(d.units[start:end]))
}

// SliceRange is Slice over a Range.
func (d Document) SliceRange(r Range) string {
	return d.Slice(r.Start, r.End)
}

// Equal reports whether two documents hold the same text.
func (d Document) Equal(o Document) bool {
	return d.text == o.text
}

// Token is one whitespace-delimited word with its UTF-16 offsets.
type Token struct {
	Text  string
	Start int
	End   int
}

// Len returns the token length in code units.
func (t Token) Len() int {
	return t.End - t.Start
}

// Tokens splits the document on runs of whitespace (newlines included).
// Leading and trailing whitespace never produce empty tokens.
func (d Document) Tokens() []Token {
	var tokens []Token
	offset := 0
	start := -1
	byteStart := 0

	for i, r := range d.text {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		if unicode.IsSpace(r) {
			if start >= 0 {
				tokens = append(tokens, Token{Text: d.text[byteStart:i], Start: start, End: offset})
				start = -1
			}
		} else if start < 0 {
			start = offset
			byteStart = i
		}
		offset += n
	}
	if start >= 0 {
		tokens = append(tokens, Token{Text: d.text[byteStart:], Start: start, End: offset})
	}
	return tokens
}

// Words returns only the token texts, in order.
func (d Document) Words() []string {
	tokens := d.Tokens()
	words := make([]string, len(tokens))
	for i, t := range tokens {
		words[i] = t.Text
	}
	return words
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
