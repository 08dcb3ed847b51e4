package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/datalog/internal/ast"
	"github.com/funvibe/datalog/internal/diagnostics"
	"github.com/funvibe/datalog/internal/parser"
	"github.com/funvibe/datalog/internal/typesystem"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	program, err := parser.Parse("test.dl", src)
	require.NoError(t, err)
	return program
}

// analyzeFirstClause builds the environment and analyses the first clause
// of the named relation, attaching free clauses first.
func analyzeFirstClause(t *testing.T, src, relName string) (
	*ast.Clause, map[ast.Argument]typesystem.TypeSet, *diagnostics.Report) {
	t.Helper()

	program := parse(t, src)
	report := diagnostics.NewReport()

	// attach free clauses to their relations the way the instantiator does
	for _, clause := range program.Clauses {
		rel := program.Relation(clause.Head.Name)
		require.NotNil(t, rel, "relation %s not declared", clause.Head.Name)
		rel.AddClause(clause)
	}
	program.Clauses = nil

	env := BuildEnvironment(program)

	rel := program.Relation(ast.ParseQualifiedName(relName))
	require.NotNil(t, rel)
	require.NotEmpty(t, rel.Clauses)

	clause := rel.Clauses[0]
	types := AnalyseClauseTypes(env, clause, program)

	analysis := NewTypeAnalysis()
	analysis.ArgumentTypes[clause] = types
	analysis.checkClause(clause, types, report)

	return clause, types, report
}

func headArg(clause *ast.Clause, i int) ast.Argument {
	return clause.Head.Args[i]
}

func typeNames(s typesystem.TypeSet) []string {
	var names []string
	for _, t := range s.Types() {
		names = append(names, t.Name().String())
	}
	return names
}

func TestPrimitiveInference(t *testing.T) {
	// S1: the head argument narrows to the declared subset type
	src := `
.type N <: number
.decl r(x:N)
r(1).
r(2).
`
	clause, types, report := analyzeFirstClause(t, src, "r")

	assert.Equal(t, []string{"N"}, typeNames(types[headArg(clause, 0)]))
	assert.Zero(t, report.Errors())
}

func TestUnionInference(t *testing.T) {
	// S2: the subtype constraint against the union holds in one sweep
	src := `
.type A <: number
.type B <: number
.type AB = A | B
.decl r(x:AB)
r(1).
`
	clause, types, report := analyzeFirstClause(t, src, "r")

	assert.Equal(t, []string{"AB"}, typeNames(types[headArg(clause, 0)]))
	assert.Zero(t, report.Errors())
}

func TestRecordInference(t *testing.T) {
	// S3: the record init and its elements resolve against the record type
	src := `
.type P = [a:number, b:symbol]
.decl r(p:P)
r([1,"x"]).
`
	clause, types, report := analyzeFirstClause(t, src, "r")

	init, ok := headArg(clause, 0).(*ast.RecordInit)
	require.True(t, ok, "head argument should be a record init")

	assert.Equal(t, []string{"P"}, typeNames(types[init]))
	assert.Equal(t, []string{"number"}, typeNames(types[init.Args[0]]))
	assert.Equal(t, []string{"symbol"}, typeNames(types[init.Args[1]]))
	assert.Zero(t, report.Errors())
}

func TestIllTypedConstant(t *testing.T) {
	// S6: a numeric constant in a symbol position collapses to empty
	src := `
.type S <: symbol
.decl r(x:S)
r(1).
`
	clause, types, report := analyzeFirstClause(t, src, "r")

	assert.True(t, types[headArg(clause, 0)].Empty())
	require.Equal(t, 1, report.Errors())
	assert.Equal(t, diagnostics.ErrT001, report.All()[0].Code)
}

func TestMismatchedConstantThroughEquality(t *testing.T) {
	// y is pinned to number by the atoms; the unsigned constant flowing
	// into it through the equality collapses the meet to empty
	src := `
.decl r(x:number)
r(y) :- y = 1u, r(y).
`
	program := parse(t, src)
	report := diagnostics.NewReport()
	rel := program.Relation(ast.ParseQualifiedName("r"))
	rel.AddClause(program.Clauses[0])
	program.Clauses = nil

	env := BuildEnvironment(program)
	analysis := NewTypeAnalysis()
	analysis.Run(program, env, report, false)

	assert.NotZero(t, report.Errors())
}

func TestAmbiguousConstant(t *testing.T) {
	// an unannotated constant reached by no atom constraint keeps all
	// three numeric roots; more than one minimal type is ambiguous
	src := `
.decl r(x:number)
r(1) :- u = 2, r(1).
`
	program := parse(t, src)
	rel := program.Relation(ast.ParseQualifiedName("r"))
	rel.AddClause(program.Clauses[0])
	program.Clauses = nil

	// strip the parser's spelling classification so the constant admits
	// every numeric root, the shape a synthesized constant has
	ast.Walk(rel.Clauses[0], func(n ast.Node) {
		if c, ok := n.(*ast.NumericConstant); ok && c.Value == "2" {
			c.Kind = ast.NumericUnknown
		}
	})

	report := diagnostics.NewReport()
	env := BuildEnvironment(program)
	analysis := NewTypeAnalysis()
	analysis.Run(program, env, report, false)

	require.NotZero(t, report.Errors())
	found := false
	for _, d := range report.All() {
		if d.Code == diagnostics.ErrT002 {
			found = true
		}
	}
	assert.True(t, found, "expected an ambiguous-type diagnostic")
}

func TestNegationWeakensToSupertype(t *testing.T) {
	src := `
.type N <: number
.decl r(x:N)
.decl s(x:number)
s(x) :- s(x), !r(x).
`
	program := parse(t, src)
	report := diagnostics.NewReport()
	rel := program.Relation(ast.ParseQualifiedName("s"))
	rel.AddClause(program.Clauses[0])
	program.Clauses = nil

	env := BuildEnvironment(program)
	clause := rel.Clauses[0]
	types := AnalyseClauseTypes(env, clause, program)

	// the positive occurrence pins x to number; the negated occurrence
	// must not narrow it to N
	x := clause.Head.Args[0]
	assert.Equal(t, []string{"number"}, typeNames(types[x]))
	assert.Zero(t, report.Errors())
}

func TestOverloadedFunctorSharesBase(t *testing.T) {
	src := `
.type N <: number
.decl r(x:N, y:N)
r(x, x+1) :- r(x, _).
`
	program := parse(t, src)
	rel := program.Relation(ast.ParseQualifiedName("r"))
	rel.AddClause(program.Clauses[0])
	program.Clauses = nil

	env := BuildEnvironment(program)
	clause := rel.Clauses[0]
	types := AnalyseClauseTypes(env, clause, program)

	fun, ok := clause.Head.Args[1].(*ast.IntrinsicFunctor)
	require.True(t, ok)

	// the functor result is pinned by the attribute, the operands keep
	// number-rooted types
	assert.Equal(t, []string{"N"}, typeNames(types[fun]))
	for _, arg := range fun.Args {
		s := types[arg]
		require.False(t, s.Empty(), "operand of + must keep a type")
		for _, typ := range s.Types() {
			assert.True(t, typesystem.IsNumberType(typ))
		}
	}
}

func TestOrdLeavesArgumentOpen(t *testing.T) {
	src := `
.decl r(x:number)
.decl s(x:symbol)
r(ord(y)) :- s(y).
`
	program := parse(t, src)
	report := diagnostics.NewReport()
	rel := program.Relation(ast.ParseQualifiedName("r"))
	rel.AddClause(program.Clauses[0])
	program.Clauses = nil

	env := BuildEnvironment(program)
	clause := rel.Clauses[0]
	types := AnalyseClauseTypes(env, clause, program)

	fun := clause.Head.Args[0].(*ast.IntrinsicFunctor)
	assert.Equal(t, []string{"number"}, typeNames(types[fun]))
	// the argument is typed by the body atom alone
	assert.Equal(t, []string{"symbol"}, typeNames(types[fun.Args[0]]))
	assert.Zero(t, report.Errors())
}

func TestAggregatorTyping(t *testing.T) {
	src := `
.decl edge(x:number, y:number)
.decl total(n:number)
total(n) :- n = count : edge(_, _).
`
	program := parse(t, src)
	report := diagnostics.NewReport()
	rel := program.Relation(ast.ParseQualifiedName("total"))
	rel.AddClause(program.Clauses[0])
	program.Clauses = nil

	env := BuildEnvironment(program)
	clause := rel.Clauses[0]
	types := AnalyseClauseTypes(env, clause, program)

	var agg *ast.Aggregator
	ast.Walk(clause, func(n ast.Node) {
		if a, ok := n.(*ast.Aggregator); ok {
			agg = a
		}
	})
	require.NotNil(t, agg)
	assert.Equal(t, []string{"number"}, typeNames(types[agg]))
	assert.Zero(t, report.Errors())
}

func TestSumInitInference(t *testing.T) {
	src := `
.type Val <: number
.type Sh = circle = Val | none = symbol
.decl r(s:Sh)
r(@Sh circle[3]).
`
	clause, types, report := analyzeFirstClause(t, src, "r")

	init, ok := headArg(clause, 0).(*ast.SumInit)
	require.True(t, ok)
	assert.Equal(t, []string{"Sh"}, typeNames(types[init]))
	assert.Equal(t, []string{"Val"}, typeNames(types[init.Arg]))
	assert.Zero(t, report.Errors())
}

func TestUserFunctorTyping(t *testing.T) {
	src := `
.declfun f(number): symbol
.decl r(x:symbol)
r(@f(1)).
`
	clause, types, report := analyzeFirstClause(t, src, "r")

	fun, ok := headArg(clause, 0).(*ast.UserFunctor)
	require.True(t, ok)
	assert.Equal(t, []string{"symbol"}, typeNames(types[fun]))
	assert.Equal(t, []string{"number"}, typeNames(types[fun.Args[0]]))
	assert.Zero(t, report.Errors())
}

func TestSolverIdempotence(t *testing.T) {
	src := `
.type A <: number
.type B <: number
.type AB = A | B
.decl r(x:AB, y:A)
r(x, y) :- r(x, y), x = y.
`
	program := parse(t, src)
	rel := program.Relation(ast.ParseQualifiedName("r"))
	rel.AddClause(program.Clauses[0])
	program.Clauses = nil

	env := BuildEnvironment(program)
	clause := rel.Clauses[0]

	first := AnalyseClauseTypes(env, clause, program)
	second := AnalyseClauseTypes(env, clause, program)

	require.Equal(t, len(first), len(second))
	for arg, s := range first {
		assert.True(t, s.Equal(second[arg]), "assignment differs for %s", arg)
	}
}

func TestEnvironmentBuilderIdempotence(t *testing.T) {
	src := `
.type A <: number
.type AB = A | B
.type B <: number
.type P = [a:A, tail:P]
.type Sh = mk = P | other = B
.decl r(x:AB)
`
	program := parse(t, src)

	first := BuildEnvironment(program)
	second := BuildEnvironment(program)

	firstTypes := first.AllTypes()
	secondTypes := second.AllTypes()
	require.Equal(t, len(firstTypes), len(secondTypes))
	for i, typ := range firstTypes {
		other := secondTypes[i]
		assert.Equal(t, typ.Name(), other.Name())
		assert.Equal(t, first.Qualifier(typ), second.Qualifier(other))
	}
}

func TestBuilderToleratesBadInput(t *testing.T) {
	src := `
.type A <: number
.type A <: symbol
.type U = A | Missing
.decl r(x:U, y:Nope)
`
	program := parse(t, src)
	report := diagnostics.NewReport()
	env := BuildEnvironment(program)

	// the first definition of A wins, the duplicate is skipped silently
	a, ok := env.GetType(ast.ParseQualifiedName("A")).(*typesystem.Primitive)
	require.True(t, ok)
	assert.Equal(t, env.NumberType(), typesystem.Type(a.Base()))

	// the unresolved union member is dropped, the union remains usable
	u, ok := env.GetType(ast.ParseQualifiedName("U")).(*typesystem.Union)
	require.True(t, ok)
	assert.Len(t, u.Elements(), 1)
	assert.Zero(t, report.Errors(), "the builder itself reports nothing")

	// validation reports the dangling references
	ValidateReferences(program, env, report)
	assert.Equal(t, 2, report.Errors())
}

func TestAnnotatedClauseRendersTypeSets(t *testing.T) {
	src := `
.type N <: number
.decl r(x:N)
r(x) :- r(x).
`
	program := parse(t, src)
	rel := program.Relation(ast.ParseQualifiedName("r"))
	rel.AddClause(program.Clauses[0])
	program.Clauses = nil

	env := BuildEnvironment(program)
	clause := rel.Clauses[0]
	types := AnalyseClauseTypes(env, clause, program)

	rendered := AnnotatedClause(clause, types)
	assert.Contains(t, rendered, "x∈{N}")
	// the original clause is untouched
	assert.Equal(t, "r(x) :- r(x).", clause.String())
}
