package extract

import (
	"log/slog"
	"strings"

	"github.com/origadmin/dirgen/internal/model"
	"github.com/origadmin/dirgen/internal/scanner"
)

// Table is a well-formed directive table and its entries in source order.
type Table struct {
	Name     string
	Location model.Location
	Entries  []model.RawEntry
}

// Parser recognizes directive tables of one Shape. It holds no per-parse state and may be
// shared between goroutines.
type Parser struct {
	shape Shape
}

// NewParser creates a Parser for the given table shape.
func NewParser(shape Shape) *Parser {
	return &Parser{shape: shape}
}

// Shape returns the table layout the parser recognizes.
func (p *Parser) Shape() Shape {
	return p.shape
}

// Parse scans toks for directive tables. Tokens that are not part of a table declaration are
// skipped, and so are preprocessor lines anywhere, including inside a table. A malformed table
// yields a structural Diagnostic and no entries; parsing resumes after it.
func (p *Parser) Parse(toks []scanner.Token) ([]Table, []*model.Diagnostic) {
	toks = withoutPreprocessor(toks)
	var (
		tables []Table
		diags  []*model.Diagnostic
	)
	for i := 0; i < len(toks); {
		if toks[i].Kind != scanner.Ident || toks[i].Text != p.shape.TableType {
			i++
			continue
		}
		name, open, ok := p.matchHeader(toks, i)
		if !ok {
			i++
			continue
		}

		table, next, diag := p.parseTable(toks, name, open)
		if diag != nil {
			slog.Debug("Parser: Directive table rejected", "table", name, "error", diag)
			diags = append(diags, diag)
		} else {
			slog.Debug("Parser: Directive table parsed", "table", name, "location", table.Location, "entries", len(table.Entries))
			tables = append(tables, table)
		}
		i = next
	}
	return tables, diags
}

// withoutPreprocessor drops preprocessor lines. Conditionals are not evaluated, so entries
// from every branch of an #if stay in the stream.
func withoutPreprocessor(toks []scanner.Token) []scanner.Token {
	out := toks[:0:0]
	for _, tok := range toks {
		if tok.Kind != scanner.Preprocessor {
			out = append(out, tok)
		}
	}
	return out
}

// matchHeader matches `<type> <name> [ <size>? ] = {` starting at i and returns the table
// name and the index of the opening brace.
func (p *Parser) matchHeader(toks []scanner.Token, i int) (string, int, bool) {
	j := i + 1
	if j >= len(toks) || toks[j].Kind != scanner.Ident {
		return "", 0, false
	}
	name := toks[j].Text
	j++
	if j >= len(toks) || !toks[j].Is("[") {
		return "", 0, false
	}
	for j++; j < len(toks) && !toks[j].Is("]"); j++ {
		if toks[j].Is(";") || toks[j].Is("{") || toks[j].Is("=") {
			return "", 0, false
		}
	}
	if j+2 >= len(toks) || !toks[j+1].Is("=") || !toks[j+2].Is("{") {
		return "", 0, false
	}
	return name, j + 2, true
}

// parseTable parses the body of a table whose opening brace is at open. It returns the index
// where scanning should resume.
func (p *Parser) parseTable(toks []scanner.Token, name string, open int) (Table, int, *model.Diagnostic) {
	loc := toks[open].Location
	tableErr := func(at model.Location, format string, args ...any) *model.Diagnostic {
		d := model.Errorf(model.KindStructural, at, format, args...)
		d.Table = name
		return d
	}

	closing := matchBrace(toks, open)
	if closing < 0 {
		return Table{}, len(toks), tableErr(loc, "unterminated table: no closing brace")
	}
	next := closing + 1
	if next < len(toks) && toks[next].Is(";") {
		next++
	}

	table := Table{Name: name, Location: loc}
	elements := splitTopLevel(toks[open+1 : closing])
	if n := len(elements); n > 0 && len(elements[n-1]) == 0 {
		elements = elements[:n-1]
	}

	terminated := false
	for _, elem := range elements {
		if len(elem) == 0 {
			return Table{}, next, tableErr(toks[closing].Location, "empty table element")
		}
		at := elem[0].Location
		if terminated {
			return Table{}, next, tableErr(at, "element after %s", p.shape.Sentinel)
		}
		if len(elem) == 1 && elem[0].Kind == scanner.Ident && elem[0].Text == p.shape.Sentinel {
			terminated = true
			continue
		}

		entry, sentinel, diag := p.parseElement(elem)
		if diag != nil {
			diag.Table = name
			return Table{}, next, diag
		}
		if sentinel {
			terminated = true
			continue
		}
		entry.Table = name
		table.Entries = append(table.Entries, entry)
	}

	if !terminated {
		return Table{}, next, tableErr(toks[closing].Location, "table is not terminated by %s", p.shape.Sentinel)
	}
	return table, next, nil
}

// parseElement parses one braced record. It reports sentinel=true for the expanded form of
// the sentinel, whose name field is NullName.
func (p *Parser) parseElement(elem []scanner.Token) (model.RawEntry, bool, *model.Diagnostic) {
	at := elem[0].Location
	if !elem[0].Is("{") || matchBrace(elem, 0) != len(elem)-1 {
		return model.RawEntry{}, false, model.Errorf(model.KindStructural, at,
			"table element %q is not a braced record", joinText(elem, 6))
	}

	fields := splitTopLevel(elem[1 : len(elem)-1])
	if n := len(fields); n > 1 && len(fields[n-1]) == 0 {
		fields = fields[:n-1]
	}
	if p.shape.NullName != "" && len(fields) > 0 && len(fields[0]) == 1 && fields[0][0].Is(p.shape.NullName) {
		return model.RawEntry{}, true, nil
	}
	if len(fields) != p.shape.Fields {
		return model.RawEntry{}, false, model.Errorf(model.KindStructural, at,
			"record has %d fields, want %d", len(fields), p.shape.Fields)
	}

	name, diag := p.parseName(fields[0], at)
	if diag != nil {
		return model.RawEntry{}, false, diag
	}
	bitmask, diag := parseBitmask(fields[1], at)
	if diag != nil {
		diag.Directive = name
		return model.RawEntry{}, false, diag
	}
	for i, field := range fields[2:] {
		if len(field) == 0 {
			d := model.Errorf(model.KindStructural, at, "field %d is empty", i+3)
			d.Directive = name
			return model.RawEntry{}, false, d
		}
	}
	return model.RawEntry{Name: name, Bitmask: bitmask, Location: at}, false, nil
}

// parseName matches `NameMacro ( "..." )` and returns the literal's contents verbatim.
func (p *Parser) parseName(field []scanner.Token, at model.Location) (string, *model.Diagnostic) {
	if len(field) == 4 &&
		field[0].Kind == scanner.Ident && field[0].Text == p.shape.NameMacro &&
		field[1].Is("(") && field[2].Kind == scanner.String && field[3].Is(")") {
		return field[2].Unquote(), nil
	}
	if len(field) > 0 {
		at = field[0].Location
	}
	return "", model.Errorf(model.KindStructural, at,
		"name field must be %s(\"...\"), found %q", p.shape.NameMacro, joinText(field, 8))
}

// parseBitmask matches `IDENT ( | IDENT )*`, optionally wrapped in one pair of parentheses.
func parseBitmask(field []scanner.Token, at model.Location) ([]model.BitmaskToken, *model.Diagnostic) {
	if len(field) >= 2 && field[0].Is("(") && matchBrace(field, 0) == len(field)-1 {
		field = field[1 : len(field)-1]
	}
	if len(field) == 0 {
		return nil, model.Errorf(model.KindStructural, at, "bitmask is empty")
	}

	var out []model.BitmaskToken
	for i, tok := range field {
		wantIdent := i%2 == 0
		switch {
		case wantIdent && tok.Kind == scanner.Ident:
			out = append(out, model.BitmaskToken{Text: tok.Text, Location: tok.Location})
		case !wantIdent && tok.Is("|"):
		default:
			return nil, model.Errorf(model.KindStructural, tok.Location,
				"malformed bitmask %q: unexpected %s %q", joinText(field, 12), tok.Kind, tok.Text)
		}
	}
	if len(field)%2 == 0 {
		last := field[len(field)-1]
		return nil, model.Errorf(model.KindStructural, last.Location,
			"malformed bitmask %q: dangling %q", joinText(field, 12), last.Text)
	}
	return out, nil
}

var closers = map[string]string{"(": ")", "[": "]", "{": "}"}

// matchBrace returns the index of the bracket closing toks[open], or -1.
func matchBrace(toks []scanner.Token, open int) int {
	var stack []string
	for i := open; i < len(toks); i++ {
		if toks[i].Kind != scanner.Punct {
			continue
		}
		if closer, ok := closers[toks[i].Text]; ok {
			stack = append(stack, closer)
			continue
		}
		if len(stack) > 0 && toks[i].Text == stack[len(stack)-1] {
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits toks on commas that are not nested inside brackets.
func splitTopLevel(toks []scanner.Token) [][]scanner.Token {
	if len(toks) == 0 {
		return nil
	}
	var (
		out   [][]scanner.Token
		depth int
		start int
	)
	for i, tok := range toks {
		if tok.Kind != scanner.Punct {
			continue
		}
		switch tok.Text {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
		case ",":
			if depth == 0 {
				out = append(out, toks[start:i])
				start = i + 1
			}
		}
	}
	return append(out, toks[start:])
}

func joinText(toks []scanner.Token, limit int) string {
	parts := make([]string, 0, min(len(toks), limit)+1)
	for i, tok := range toks {
		if i == limit {
			parts = append(parts, "...")
			break
		}
		parts = append(parts, tok.Text)
	}
	return strings.Join(parts, " ")
}
