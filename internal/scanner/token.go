// Package scanner turns C/C++ source text into a comment-free token stream that keeps the
// line and column of every token.
package scanner

import (
	"fmt"

	"github.com/origadmin/dirgen/internal/model"
)

// TokenKind identifies the category of a token.
type TokenKind int

const (
	Ident  TokenKind = iota + 1 // identifier or keyword
	Number                      // numeric literal, suffixes included
	String                      // "..." literal, quotes kept
	Char                        // '...' literal, quotes kept
	Punct                       // any other single character
	Preprocessor                // whole #-line, continuations included
)

func (k TokenKind) String() string {
	switch k {
	case Ident:
		return "identifier"
	case Number:
		return "number"
	case String:
		return "string"
	case Char:
		return "char"
	case Punct:
		return "punctuation"
	case Preprocessor:
		return "preprocessor"
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// Token is a single lexeme with its source position.
type Token struct {
	Kind     TokenKind
	Text     string
	Location model.Location
}

// Is reports whether the token is a punctuation character or identifier with the given text.
func (t Token) Is(text string) bool {
	return (t.Kind == Punct || t.Kind == Ident) && t.Text == text
}

// Unquote returns the contents of a string literal without the surrounding quotes.
// Escapes are kept verbatim.
func (t Token) Unquote() string {
	if t.Kind != String || len(t.Text) < 2 {
		return t.Text
	}
	return t.Text[1 : len(t.Text)-1]
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q at %s", t.Kind, t.Text, t.Location)
}
