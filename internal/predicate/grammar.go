package predicate

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// astExpr is an OR of AND terms. AND binds tighter than OR.
type astExpr struct {
	Or []*astAnd `parser:"@@ ('OR' @@)*"`
}

type astAnd struct {
	And []*astTerm `parser:"@@ ('AND' @@)*"`
}

type astTerm struct {
	Not     *astTerm       `parser:"  'NOT' @@"`
	Grouped *astExpr       `parser:"| '(' @@ ')'"`
	Compare *astComparison `parser:"| @@"`
}

type astComparison struct {
	Field string      `parser:"@Ident"`
	Op    string      `parser:"@('>=' | '<=' | '!=' | '=' | '>' | '<' | 'CONTAINS')"`
	Value *astLiteral `parser:"@@"`
}

type astLiteral struct {
	Number *float64    `parser:"  @Number"`
	String *string     `parser:"| @String"`
	Bool   *astBoolean `parser:"| @('TRUE' | 'FALSE')"`
	Null   bool        `parser:"| @'NULL'"`
}

// astBoolean captures TRUE or FALSE by value. A plain bool would be set by
// any match.
type astBoolean bool

func (b *astBoolean) Capture(values []string) error {
	*b = astBoolean(strings.EqualFold(values[0], "TRUE"))
	return nil
}

var (
	filterLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Keyword", Pattern: `(?i)\b(AND|OR|NOT|TRUE|FALSE|NULL|CONTAINS)\b`},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
		{Name: "Number", Pattern: `[-+]?\d*\.?\d+`},
		{Name: "String", Pattern: `'[^']*'|"[^"]*"`},
		{Name: "Operator", Pattern: `>=|<=|!=|[=<>]`},
		{Name: "Punct", Pattern: `[()]`},
		{Name: "Whitespace", Pattern: `\s+`},
	})

	filterParser = participle.MustBuild[astExpr](
		participle.Lexer(filterLexer),
		participle.Unquote("String"),
		participle.CaseInsensitive("Keyword"),
		participle.Elide("Whitespace"),
		participle.UseLookahead(2),
	)
)
