package parser

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/funvibe/datalog/internal/ast"
	"github.com/funvibe/datalog/internal/diagnostics"
	"github.com/funvibe/datalog/internal/pipeline"
	"github.com/funvibe/datalog/internal/token"
)

// Parse turns source text into a program AST.
func Parse(filePath, source string) (*ast.Program, error) {
	file, err := fileParser.ParseString(filePath, source)
	if err != nil {
		return nil, err
	}
	return convertFile(file)
}

// Processor adapts the parser to the pipeline, reporting syntax errors
// into the shared report.
type Processor struct{}

func (pp *Processor) Process(tu *pipeline.TranslationUnit) *pipeline.TranslationUnit {
	program, err := Parse(tu.FilePath, tu.Source)
	if err != nil {
		loc := token.Token{File: tu.FilePath}
		if perr, ok := err.(participle.Error); ok {
			loc = tok(perr.Position(), "")
		}
		tu.Report.AddError(diagnostics.ErrP001, loc, err.Error())
		return tu
	}
	tu.Program = program
	return tu
}

func tok(pos lexer.Position, lexeme string) token.Token {
	return token.Token{Lexeme: lexeme, File: pos.Filename, Line: pos.Line, Column: pos.Column}
}

func qname(g qnameGrammar) ast.QualifiedName {
	return ast.NewQualifiedName(g.Parts...)
}

func rootAttr(name string) ast.RootAttr {
	switch name {
	case "unsigned":
		return ast.RootUnsigned
	case "float":
		return ast.RootFloat
	case "symbol":
		return ast.RootSymbol
	}
	return ast.RootSigned
}

// bundle is the flattened contents of one item list; program and component
// bodies share it.
type bundle struct {
	types      []ast.TypeDecl
	functors   []*ast.FunctorDeclaration
	relations  []*ast.Relation
	clauses    []*ast.Clause
	loads      []*ast.Load
	printSizes []*ast.PrintSize
	stores     []*ast.Store
	components []*ast.Component
	inits      []*ast.ComponentInit
	overrides  []string
}

func convertFile(file *fileGrammar) (*ast.Program, error) {
	b, err := convertItems(file.Items)
	if err != nil {
		return nil, err
	}

	program := ast.NewProgram()
	program.Types = b.types
	program.Functors = b.functors
	for _, rel := range b.relations {
		program.AddRelation(rel)
	}
	program.Clauses = b.clauses
	program.Loads = b.loads
	program.PrintSizes = b.printSizes
	program.Stores = b.stores
	program.Components = b.components
	program.Instantiations = b.inits
	return program, nil
}

func convertItems(items []*itemGrammar) (bundle, error) {
	var b bundle
	for _, item := range items {
		switch {
		case item.Type != nil:
			decl, err := convertTypeDecl(item.Type)
			if err != nil {
				return b, err
			}
			b.types = append(b.types, decl)
		case item.Functor != nil:
			b.functors = append(b.functors, convertFunctorDecl(item.Functor))
		case item.Relation != nil:
			b.relations = append(b.relations, convertRelation(item.Relation))
		case item.IO != nil:
			g := item.IO
			switch g.Kind {
			case ".input":
				b.loads = append(b.loads, &ast.Load{Token: tok(g.Pos, g.Kind), Name: qname(g.Name)})
			case ".printsize":
				b.printSizes = append(b.printSizes, &ast.PrintSize{Token: tok(g.Pos, g.Kind), Name: qname(g.Name)})
			default:
				b.stores = append(b.stores, &ast.Store{Token: tok(g.Pos, g.Kind), Name: qname(g.Name)})
			}
		case item.Component != nil:
			comp, err := convertComponent(item.Component)
			if err != nil {
				return b, err
			}
			b.components = append(b.components, comp)
		case item.Init != nil:
			g := item.Init
			b.inits = append(b.inits, &ast.ComponentInit{
				Token:        tok(g.Pos, ".init"),
				InstanceName: qname(g.Name),
				Type:         convertCompType(g.Type),
			})
		case item.Override != nil:
			b.overrides = append(b.overrides, item.Override.Name)
		case item.Clause != nil:
			clause, err := convertClause(item.Clause)
			if err != nil {
				return b, err
			}
			b.clauses = append(b.clauses, clause)
		}
	}
	return b, nil
}

func convertTypeDecl(g *typeDeclGrammar) (ast.TypeDecl, error) {
	name := qname(g.Name)
	t := tok(g.Pos, ".type")

	if g.Subset != nil {
		return &ast.SubsetType{Token: t, Name: name, Base: rootAttr(*g.Subset)}, nil
	}

	if len(g.Alts) > 0 {
		hasPayload := false
		for _, alt := range g.Alts {
			if alt.Payload != nil {
				hasPayload = true
				break
			}
		}
		if hasPayload {
			sum := &ast.SumType{Token: t, Name: name}
			for _, alt := range g.Alts {
				if alt.Payload == nil {
					return nil, fmt.Errorf("%s: sum type %s mixes branches and union members", alt.Pos, name)
				}
				parts := alt.Name.Parts
				sum.Branches = append(sum.Branches, ast.SumBranch{
					Name: parts[len(parts)-1],
					Type: qname(*alt.Payload),
				})
			}
			return sum, nil
		}
		union := &ast.UnionType{Token: t, Name: name}
		for _, alt := range g.Alts {
			union.Elements = append(union.Elements, qname(alt.Name))
		}
		return union, nil
	}

	// record declaration, possibly with an empty field list
	record := &ast.RecordType{Token: t, Name: name}
	for _, field := range g.Fields {
		record.Fields = append(record.Fields, ast.TypeField{Name: field.Name, Type: qname(field.Type)})
	}
	return record, nil
}

func convertFunctorDecl(g *functorGrammar) *ast.FunctorDeclaration {
	decl := &ast.FunctorDeclaration{
		Token:      tok(g.Pos, ".declfun"),
		Name:       g.Name,
		ReturnType: rootAttr(g.Ret),
	}
	for _, arg := range g.Args {
		decl.ArgTypes = append(decl.ArgTypes, rootAttr(arg))
	}
	return decl
}

func convertRelation(g *relationGrammar) *ast.Relation {
	rel := &ast.Relation{Token: tok(g.Pos, ".decl"), Name: qname(g.Name)}
	for _, attr := range g.Attrs {
		rel.Attributes = append(rel.Attributes, &ast.Attribute{
			Token:    tok(attr.Pos, attr.Name),
			Name:     attr.Name,
			TypeName: qname(attr.Type),
		})
	}
	return rel
}

func convertCompType(g *compTypeGrammar) *ast.ComponentType {
	ct := &ast.ComponentType{Token: tok(g.Pos, g.Name), Name: g.Name}
	for _, p := range g.Params {
		ct.TypeParams = append(ct.TypeParams, qname(p))
	}
	return ct
}

func convertComponent(g *componentGrammar) (*ast.Component, error) {
	b, err := convertItems(g.Items)
	if err != nil {
		return nil, err
	}

	comp := &ast.Component{
		Token: tok(g.Pos, ".comp"),
		Type:  convertCompType(g.Head),
	}
	for _, base := range g.Bases {
		comp.BaseComponents = append(comp.BaseComponents, convertCompType(base))
	}
	comp.Overridden = b.overrides
	comp.Types = b.types
	comp.Relations = b.relations
	comp.Clauses = b.clauses
	comp.Loads = b.loads
	comp.PrintSizes = b.printSizes
	comp.Stores = b.stores
	comp.Components = b.components
	comp.Instantiations = b.inits
	return comp, nil
}

func convertClause(g *clauseGrammar) (*ast.Clause, error) {
	head, err := convertAtom(g.Head)
	if err != nil {
		return nil, err
	}
	clause := &ast.Clause{Token: tok(g.Pos, ""), Head: head}
	for _, lit := range g.Body {
		l, err := convertLiteral(lit)
		if err != nil {
			return nil, err
		}
		clause.Body = append(clause.Body, l)
	}
	return clause, nil
}

func convertLiteral(g *literalGrammar) (ast.Literal, error) {
	switch {
	case g.Neg != nil:
		atom, err := convertAtom(g.Neg)
		if err != nil {
			return nil, err
		}
		return &ast.Negation{Token: tok(g.Pos, "!"), Atom: atom}, nil
	case g.Constraint != nil:
		lhs, err := convertExpr(g.Constraint.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := convertExpr(g.Constraint.RHS)
		if err != nil {
			return nil, err
		}
		return &ast.BinaryConstraint{
			Token: tok(g.Constraint.Pos, g.Constraint.Op),
			Op:    ast.ConstraintOp(g.Constraint.Op),
			LHS:   lhs,
			RHS:   rhs,
		}, nil
	default:
		return convertAtom(g.Atom)
	}
}

func convertAtom(g *atomGrammar) (*ast.Atom, error) {
	atom := &ast.Atom{Token: tok(g.Pos, strings.Join(g.Name.Parts, ".")), Name: qname(g.Name)}
	for _, arg := range g.Args {
		converted, err := convertExpr(arg)
		if err != nil {
			return nil, err
		}
		atom.AddArgument(converted)
	}
	return atom, nil
}

func binaryOp(op string) ast.FunctorOp {
	return ast.FunctorOp(op)
}

func convertExpr(g *exprGrammar) (ast.Argument, error) {
	left, err := convertTerm(g.Left)
	if err != nil {
		return nil, err
	}
	for _, rest := range g.Rest {
		right, err := convertTerm(rest.Term)
		if err != nil {
			return nil, err
		}
		left = &ast.IntrinsicFunctor{
			Token: tok(g.Pos, rest.Op),
			Op:    binaryOp(rest.Op),
			Args:  []ast.Argument{left, right},
		}
	}
	return left, nil
}

func convertTerm(g *termGrammar) (ast.Argument, error) {
	left, err := convertFactor(g.Left)
	if err != nil {
		return nil, err
	}
	for _, rest := range g.Rest {
		right, err := convertFactor(rest.Factor)
		if err != nil {
			return nil, err
		}
		left = &ast.IntrinsicFunctor{
			Token: tok(g.Pos, rest.Op),
			Op:    binaryOp(rest.Op),
			Args:  []ast.Argument{left, right},
		}
	}
	return left, nil
}

func intrinsicOp(name string) ast.FunctorOp {
	return ast.FunctorOp(name)
}

func convertFactor(g *factorGrammar) (ast.Argument, error) {
	switch {
	case g.Float != nil:
		return &ast.NumericConstant{Token: tok(g.Pos, *g.Float), Value: *g.Float, Kind: ast.NumericFloat}, nil

	case g.Number != nil:
		kind := ast.NumericSigned
		if strings.HasSuffix(*g.Number, "u") {
			kind = ast.NumericUnsigned
		}
		return &ast.NumericConstant{Token: tok(g.Pos, *g.Number), Value: *g.Number, Kind: kind}, nil

	case g.Str != nil:
		return &ast.StringConstant{Token: tok(g.Pos, *g.Str), Value: *g.Str}, nil

	case g.Counter:
		return &ast.Counter{Token: tok(g.Pos, "$")}, nil

	case g.Nil:
		return &ast.NilConstant{Token: tok(g.Pos, "nil")}, nil

	case g.Cast != nil:
		value, err := convertExpr(g.Cast.Value)
		if err != nil {
			return nil, err
		}
		return &ast.TypeCast{Token: tok(g.Cast.Pos, "as"), Value: value, Type: qname(g.Cast.Type)}, nil

	case g.Agg != nil:
		return convertAggregator(g.Agg)

	case g.Intrinsic != nil:
		fun := &ast.IntrinsicFunctor{
			Token: tok(g.Intrinsic.Pos, g.Intrinsic.Name),
			Op:    intrinsicOp(g.Intrinsic.Name),
		}
		for _, arg := range g.Intrinsic.Args {
			converted, err := convertExpr(arg)
			if err != nil {
				return nil, err
			}
			fun.Args = append(fun.Args, converted)
		}
		return fun, nil

	case g.User != nil:
		fun := &ast.UserFunctor{Token: tok(g.User.Pos, g.User.Name), Name: g.User.Name}
		for _, arg := range g.User.Args {
			converted, err := convertExpr(arg)
			if err != nil {
				return nil, err
			}
			fun.Args = append(fun.Args, converted)
		}
		return fun, nil

	case g.SumInit != nil:
		arg, err := convertExpr(g.SumInit.Arg)
		if err != nil {
			return nil, err
		}
		return &ast.SumInit{
			Token:  tok(g.SumInit.Pos, "@"),
			Type:   qname(g.SumInit.Type),
			Branch: g.SumInit.Branch,
			Arg:    arg,
		}, nil

	case g.RecordInit != nil:
		init := &ast.RecordInit{Token: tok(g.RecordInit.Pos, "[")}
		if g.RecordInit.Type != nil {
			init.SetType(qname(*g.RecordInit.Type))
		}
		for _, arg := range g.RecordInit.Args {
			converted, err := convertExpr(arg)
			if err != nil {
				return nil, err
			}
			init.Args = append(init.Args, converted)
		}
		return init, nil

	case g.Paren != nil:
		return convertExpr(g.Paren)

	case g.Var != nil:
		if *g.Var == "_" {
			return &ast.UnnamedVariable{Token: tok(g.Pos, "_")}, nil
		}
		return &ast.Variable{Token: tok(g.Pos, *g.Var), Name: *g.Var}, nil
	}
	return nil, fmt.Errorf("%s: empty argument", g.Pos)
}

func convertAggregator(g *aggGrammar) (ast.Argument, error) {
	agg := &ast.Aggregator{Token: tok(g.Pos, g.Op), Op: ast.AggregateOp(g.Op)}
	if g.Expr != nil {
		expr, err := convertExpr(g.Expr)
		if err != nil {
			return nil, err
		}
		agg.Expr = expr
	}
	for _, lit := range g.Body {
		l, err := convertLiteral(lit)
		if err != nil {
			return nil, err
		}
		agg.Body = append(agg.Body, l)
	}
	return agg, nil
}
