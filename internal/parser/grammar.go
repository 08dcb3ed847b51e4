// Package parser turns Datalog surface syntax into the core AST. The
// grammar is declarative: each struct below is one production, with the
// participle tags describing the concrete syntax.
package parser

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var dlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "Float", Pattern: `\d+\.\d+([eE][-+]?\d+)?`},
	{Name: "Number", Pattern: `\d+u?`},
	{Name: "String", Pattern: `"(\\.|[^"])*"`},
	{Name: "Directive", Pattern: `\.(type|decl(fun)?|input|output|printsize|comp|init|override)\b`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Operator", Pattern: `<:|:-|!=|<=|>=|[-+*/%^=<>!|.,:;()\[\]{}$@]`},
})

var fileParser = participle.MustBuild[fileGrammar](
	participle.Lexer(dlLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(1024),
	participle.Unquote("String"),
)

type fileGrammar struct {
	Items []*itemGrammar `@@*`
}

type itemGrammar struct {
	Type      *typeDeclGrammar  `  @@`
	Functor   *functorGrammar   `| @@`
	Relation  *relationGrammar  `| @@`
	IO        *ioGrammar        `| @@`
	Component *componentGrammar `| @@`
	Init      *initGrammar      `| @@`
	Override  *overrideGrammar  `| @@`
	Clause    *clauseGrammar    `| @@`
}

type qnameGrammar struct {
	Parts []string `@Ident ("." @Ident)*`
}

type typeDeclGrammar struct {
	Pos    lexer.Position
	Name   qnameGrammar    `".type" @@`
	Subset *string         `( "<:" @("number"|"unsigned"|"float"|"symbol")`
	Fields []*fieldGrammar `| "=" ( "[" ( @@ ("," @@)* )? "]"`
	Alts   []*altGrammar   `     | @@ ("|" @@)* ) )`
}

type fieldGrammar struct {
	Name string       `@Ident`
	Type qnameGrammar `":" @@`
}

// altGrammar is one "|"-separated alternative of a type equation: a plain
// name makes the declaration a union, a name with payload a sum branch.
type altGrammar struct {
	Pos     lexer.Position
	Name    qnameGrammar  `@@`
	Payload *qnameGrammar `( "=" @@ )?`
}

type functorGrammar struct {
	Pos  lexer.Position
	Name string   `".declfun" @Ident`
	Args []string `"(" ( @("number"|"unsigned"|"float"|"symbol") ("," @("number"|"unsigned"|"float"|"symbol"))* )? ")"`
	Ret  string   `":" @("number"|"unsigned"|"float"|"symbol")`
}

type relationGrammar struct {
	Pos   lexer.Position
	Name  qnameGrammar   `".decl" @@`
	Attrs []*attrGrammar `"(" ( @@ ("," @@)* )? ")"`
}

type attrGrammar struct {
	Pos  lexer.Position
	Name string       `@Ident`
	Type qnameGrammar `":" @@`
}

type ioGrammar struct {
	Pos  lexer.Position
	Kind string       `@(".input" | ".output" | ".printsize")`
	Name qnameGrammar `@@`
}

type compTypeGrammar struct {
	Pos    lexer.Position
	Name   string         `@Ident`
	Params []qnameGrammar `( "<" @@ ("," @@)* ">" )?`
}

type componentGrammar struct {
	Pos   lexer.Position
	Head  *compTypeGrammar   `".comp" @@`
	Bases []*compTypeGrammar `( ":" @@ ("," @@)* )?`
	Items []*itemGrammar     `"{" @@* "}"`
}

type initGrammar struct {
	Pos  lexer.Position
	Name qnameGrammar     `".init" @@`
	Type *compTypeGrammar `"=" @@`
}

type overrideGrammar struct {
	Pos  lexer.Position
	Name string `".override" @Ident`
}

type clauseGrammar struct {
	Pos  lexer.Position
	Head *atomGrammar      `@@`
	Body []*literalGrammar `( ":-" @@ ("," @@)* )? "."`
}

type literalGrammar struct {
	Pos        lexer.Position
	Neg        *atomGrammar       `  "!" @@`
	Constraint *constraintGrammar `| @@`
	Atom       *atomGrammar       `| @@`
}

type atomGrammar struct {
	Pos  lexer.Position
	Name qnameGrammar   `@@`
	Args []*exprGrammar `"(" ( @@ ("," @@)* )? ")"`
}

type constraintGrammar struct {
	Pos lexer.Position
	LHS *exprGrammar `@@`
	Op  string       `@("=" | "!=" | "<=" | ">=" | "<" | ">")`
	RHS *exprGrammar `@@`
}

// exprGrammar implements two precedence levels: additive over
// multiplicative, both left associative.
type exprGrammar struct {
	Pos  lexer.Position
	Left *termGrammar     `@@`
	Rest []*exprOpGrammar `@@*`
}

type exprOpGrammar struct {
	Op   string       `@("+" | "-")`
	Term *termGrammar `@@`
}

type termGrammar struct {
	Pos  lexer.Position
	Left *factorGrammar   `@@`
	Rest []*termOpGrammar `@@*`
}

type termOpGrammar struct {
	Op     string         `@("*" | "/" | "%" | "^")`
	Factor *factorGrammar `@@`
}

type factorGrammar struct {
	Pos        lexer.Position
	Float      *string            `  @Float`
	Number     *string            `| @Number`
	Str        *string            `| @String`
	Counter    bool               `| @"$"`
	Nil        bool               `| @"nil"`
	Cast       *castGrammar       `| @@`
	Agg        *aggGrammar        `| @@`
	Intrinsic  *callGrammar       `| @@`
	User       *userCallGrammar   `| @@`
	SumInit    *sumInitGrammar    `| @@`
	RecordInit *recordInitGrammar `| @@`
	Paren      *exprGrammar       `| "(" @@ ")"`
	Var        *string            `| @Ident`
}

type castGrammar struct {
	Pos   lexer.Position
	Value *exprGrammar `"as" "(" @@`
	Type  qnameGrammar `"," @@ ")"`
}

type aggGrammar struct {
	Pos  lexer.Position
	Op   string            `@("min" | "max" | "sum" | "count" | "mean")`
	Expr *exprGrammar      `@@?`
	Body []*literalGrammar `":" ( "{" @@ ("," @@)* "}" | @@ )`
}

type callGrammar struct {
	Pos  lexer.Position
	Name string         `@("ord" | "strlen" | "cat" | "substr" | "to_number" | "to_string" | "neg")`
	Args []*exprGrammar `"(" ( @@ ("," @@)* )? ")"`
}

type userCallGrammar struct {
	Pos  lexer.Position
	Name string         `"@" @Ident`
	Args []*exprGrammar `"(" ( @@ ("," @@)* )? ")"`
}

type sumInitGrammar struct {
	Pos    lexer.Position
	Type   qnameGrammar `"@" @@`
	Branch string       `@Ident`
	Arg    *exprGrammar `"[" @@ "]"`
}

type recordInitGrammar struct {
	Pos  lexer.Position
	Type *qnameGrammar  `@@?`
	Args []*exprGrammar `"[" ( @@ ("," @@)* )? "]"`
}
