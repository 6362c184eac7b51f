package scanner

import (
	"bytes"
	"strings"

	"github.com/origadmin/dirgen/internal/model"
)

// lexer holds all mutable state for a single scanning pass over src.
type lexer struct {
	file string
	src  []byte
	pos  int // index of the next byte to consume
	line int // current 1-based line
	col  int // current 1-based column, counted in runes
	bol  bool // only whitespace or comments since the last newline

	tokens   []Token
	comments [][2]int // byte spans of skipped comments
}

func newLexer(file string, src []byte) *lexer {
	return &lexer{file: file, src: src, line: 1, col: 1, bol: true}
}

// Scan tokenizes src, dropping line and block comments. Comment markers inside string and
// character literals are part of the literal. A line starting with '#' becomes a single
// Preprocessor token whose text is not tokenized further. An unterminated comment or literal
// is reported as a lexical Diagnostic.
func Scan(file string, src []byte) ([]Token, error) {
	l := newLexer(file, src)
	if err := l.run(); err != nil {
		return nil, err
	}
	return l.tokens, nil
}

// Strip returns src with every comment replaced by a single space. Newlines inside block
// comments are kept so line numbers do not move.
func Strip(file string, src []byte) ([]byte, error) {
	l := newLexer(file, src)
	if err := l.run(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.Grow(len(src))
	last := 0
	for _, span := range l.comments {
		out.Write(src[last:span[0]])
		out.WriteByte(' ')
		out.Write(bytes.Repeat([]byte{'\n'}, bytes.Count(src[span[0]:span[1]], []byte{'\n'})))
		last = span[1]
	}
	out.Write(src[last:])
	return out.Bytes(), nil
}

func (l *lexer) location() model.Location {
	return model.Location{File: l.file, Line: l.line, Col: l.col}
}

func (l *lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) peek2() byte {
	if l.pos+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos+1]
}

// advance consumes one byte, keeping line and column current.
func (l *lexer) advance() byte {
	b := l.src[l.pos]
	l.pos++
	switch {
	case b == '\n':
		l.line++
		l.col = 1
	case b&0xC0 != 0x80:
		// continuation bytes of a multi-byte rune do not start a new column
		l.col++
	}
	return b
}

func (l *lexer) run() error {
	for l.pos < len(l.src) {
		b := l.peek()
		switch {
		case b == '\n':
			l.advance()
			l.bol = true
		case b == ' ' || b == '\t' || b == '\r' || b == '\v' || b == '\f':
			l.advance()
		case b == '\\' && l.peek2() == '\n':
			l.advance()
			l.advance()
		case b == '/' && l.peek2() == '/':
			l.skipLineComment()
		case b == '/' && l.peek2() == '*':
			if err := l.skipBlockComment(); err != nil {
				return err
			}
		case b == '#' && l.bol:
			if err := l.scanPreprocessor(); err != nil {
				return err
			}
		case b == '"' || b == '\'':
			if err := l.scanQuoted(b); err != nil {
				return err
			}
		case isIdentStart(b):
			l.scanRun(Ident, isIdentPart)
		case isDigit(b) || (b == '.' && isDigit(l.peek2())):
			l.scanRun(Number, isNumberPart)
		default:
			l.scanPunct()
		}
	}
	return nil
}

// skipLineComment discards everything up to the end of the line. A backslash-newline
// continues the comment onto the next line.
func (l *lexer) skipLineComment() {
	start := l.pos
	for l.pos < len(l.src) {
		b := l.peek()
		if b == '\n' {
			break
		}
		if b == '\\' && l.peek2() == '\n' {
			l.advance()
		}
		l.advance()
	}
	l.comments = append(l.comments, [2]int{start, l.pos})
}

func (l *lexer) skipBlockComment() error {
	start := l.pos
	opened := l.location()
	l.advance() // /
	l.advance() // *
	for l.pos < len(l.src) {
		if l.peek() == '*' && l.peek2() == '/' {
			l.advance()
			l.advance()
			l.comments = append(l.comments, [2]int{start, l.pos})
			return nil
		}
		l.advance()
	}
	return model.Errorf(model.KindLexical, opened, "unterminated block comment")
}

// scanPreprocessor collects a preprocessor line up to its unescaped newline. Quotes on the
// line are not matched, so `#error don't` is fine. Comments still end or interrupt it.
// The line is never evaluated; only a literal `#if 0` group is skipped as raw text.
func (l *lexer) scanPreprocessor() error {
	loc := l.location()
	var text []byte
	start := l.pos
scan:
	for l.pos < len(l.src) {
		b := l.peek()
		switch {
		case b == '\n':
			break scan
		case b == '\\' && l.peek2() == '\n':
			l.advance()
			l.advance()
		case b == '/' && l.peek2() == '/':
			text = append(text, l.src[start:l.pos]...)
			start = -1
			l.skipLineComment()
			break scan
		case b == '/' && l.peek2() == '*':
			text = append(text, l.src[start:l.pos]...)
			text = append(text, ' ')
			if err := l.skipBlockComment(); err != nil {
				return err
			}
			start = l.pos
		default:
			l.advance()
		}
	}
	if start >= 0 {
		text = append(text, l.src[start:l.pos]...)
	}

	line := string(bytes.TrimRight(text, " \t\r"))
	l.emitText(Preprocessor, line, loc)
	if name, rest := directive(line); name == "if" && (rest == "0" || rest == "(0)") {
		l.skipDisabledGroup()
	}
	return nil
}

// skipDisabledGroup advances past the lines of an `#if 0` group, stopping at the start of
// the #else, #elif or #endif line that closes it. Nested conditionals are counted.
func (l *lexer) skipDisabledGroup() {
	depth := 0
	for l.pos < len(l.src) {
		if l.peek() == '\n' {
			l.advance()
		}
		end := bytes.IndexByte(l.src[l.pos:], '\n')
		if end < 0 {
			end = len(l.src)
		} else {
			end += l.pos
		}
		switch name, _ := directive(string(bytes.TrimSpace(l.src[l.pos:end]))); name {
		case "if", "ifdef", "ifndef":
			depth++
		case "else", "elif", "elifdef", "elifndef":
			if depth == 0 {
				l.bol = true
				return
			}
		case "endif":
			if depth == 0 {
				l.bol = true
				return
			}
			depth--
		}
		for l.pos < end {
			l.advance()
		}
	}
}

// directive splits a preprocessor line into its keyword and the trimmed remainder.
// It returns an empty name for lines that do not start with '#'.
func directive(line string) (string, string) {
	rest, ok := strings.CutPrefix(line, "#")
	if !ok {
		return "", ""
	}
	rest = strings.TrimLeft(rest, " \t")
	n := 0
	for n < len(rest) && isIdentPart(rest[n]) {
		n++
	}
	return rest[:n], strings.TrimSpace(rest[n:])
}

// scanQuoted collects a string or character literal including its quotes.
func (l *lexer) scanQuoted(quote byte) error {
	loc := l.location()
	start := l.pos
	kind, what := String, "string"
	if quote == '\'' {
		kind, what = Char, "character"
	}

	l.advance()
	for l.pos < len(l.src) {
		b := l.peek()
		switch b {
		case '\\':
			l.advance()
			if l.pos < len(l.src) {
				l.advance()
			}
			continue
		case '\n':
			return model.Errorf(model.KindLexical, loc, "unterminated %s literal", what)
		case quote:
			l.advance()
			l.emit(kind, start, loc)
			return nil
		}
		l.advance()
	}
	return model.Errorf(model.KindLexical, loc, "unterminated %s literal", what)
}

func (l *lexer) scanRun(kind TokenKind, part func(byte) bool) {
	loc := l.location()
	start := l.pos
	l.advance()
	for l.pos < len(l.src) && part(l.peek()) {
		l.advance()
	}
	l.emit(kind, start, loc)
}

func (l *lexer) scanPunct() {
	loc := l.location()
	start := l.pos
	l.advance()
	for l.pos < len(l.src) && l.src[l.pos]&0xC0 == 0x80 {
		l.advance()
	}
	l.emit(Punct, start, loc)
}

func (l *lexer) emit(kind TokenKind, start int, loc model.Location) {
	l.emitText(kind, string(l.src[start:l.pos]), loc)
}

func (l *lexer) emitText(kind TokenKind, text string, loc model.Location) {
	l.tokens = append(l.tokens, Token{Kind: kind, Text: text, Location: loc})
	l.bol = false
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentPart(b byte) bool {
	return isIdentStart(b) || isDigit(b)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isNumberPart(b byte) bool {
	return isIdentPart(b) || b == '.'
}
