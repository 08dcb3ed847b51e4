package analyzer

import (
	"fmt"
	"strings"

	"github.com/funvibe/datalog/internal/ast"
	"github.com/funvibe/datalog/internal/diagnostics"
	"github.com/funvibe/datalog/internal/typesystem"
)

// TypeAnalysis computes, for every argument occurrence of every clause, the
// set of types it may belong to. An empty set or an ambiguous constant is
// an ill-typed program and reported; the analysis itself always finishes.
type TypeAnalysis struct {
	// ArgumentTypes caches the per-clause result maps, keyed by clause and
	// argument node identity.
	ArgumentTypes map[*ast.Clause]map[ast.Argument]typesystem.TypeSet

	// AnnotatedClauses is the debug rendering of each analyzed clause with
	// variables annotated by their inferred sets; filled when requested.
	AnnotatedClauses []string
}

func NewTypeAnalysis() *TypeAnalysis {
	return &TypeAnalysis{
		ArgumentTypes: make(map[*ast.Clause]map[ast.Argument]typesystem.TypeSet),
	}
}

// Run analyses every clause attached to a relation of the program.
func (ta *TypeAnalysis) Run(program *ast.Program, env *typesystem.Environment,
	report *diagnostics.Report, annotate bool) {
	for _, rel := range program.RelationList() {
		for _, clause := range rel.Clauses {
			types := AnalyseClauseTypes(env, clause, program)
			ta.ArgumentTypes[clause] = types
			ta.checkClause(clause, types, report)
			if annotate {
				ta.AnnotatedClauses = append(ta.AnnotatedClauses, AnnotatedClause(clause, types))
			}
		}
	}
}

// TypesOf returns the cached result map for a clause.
func (ta *TypeAnalysis) TypesOf(clause *ast.Clause) map[ast.Argument]typesystem.TypeSet {
	return ta.ArgumentTypes[clause]
}

// AnalyseClauseTypes emits the constraints of a single clause and solves
// them to a fixed point on the type lattice.
func AnalyseClauseTypes(env *typesystem.Environment, clause *ast.Clause,
	program *ast.Program) map[ast.Argument]typesystem.TypeSet {
	a := &clauseAnalysis{
		env:     env,
		program: program,
		sol:     newSolver(env),
		negated: make(map[*ast.Atom]bool),
	}
	return a.analyse(clause)
}

type clauseAnalysis struct {
	env     *typesystem.Environment
	program *ast.Program
	sol     *solver
	negated map[*ast.Atom]bool
}

func (a *clauseAnalysis) analyse(clause *ast.Clause) map[ast.Argument]typesystem.TypeSet {
	// register every argument occurrence so the result covers them all
	var occurrences []ast.Argument
	ast.WalkArguments(clause, func(arg ast.Argument) {
		occurrences = append(occurrences, arg)
		a.sol.getVar(arg)
	})

	// negated atoms weaken their constraints; collect them up front
	ast.Walk(clause, func(n ast.Node) {
		if neg, ok := n.(*ast.Negation); ok && neg.Atom != nil {
			a.negated[neg.Atom] = true
		}
	})

	ast.Walk(clause, func(n ast.Node) {
		a.visit(n)
	})

	solution := a.sol.solve()

	// project the solution back onto every occurrence; occurrences of one
	// named variable share their constraint variable's set
	res := make(map[ast.Argument]typesystem.TypeSet, len(occurrences))
	for _, occ := range occurrences {
		res[occ] = solution[a.sol.getVar(occ)]
	}
	return res
}

func (a *clauseAnalysis) visit(n ast.Node) {
	switch cur := n.(type) {
	case *ast.Atom:
		a.visitAtom(cur)
	case *ast.StringConstant:
		a.sol.addConstraint(isSubtypeOf(a.sol.getVar(cur), a.env.SymbolType()))
	case *ast.NumericConstant:
		a.visitNumericConstant(cur)
	case *ast.Counter:
		a.sol.addConstraint(isSubtypeOf(a.sol.getVar(cur), a.env.NumberType()))
	case *ast.BinaryConstraint:
		lhs := a.sol.getVar(cur.LHS)
		rhs := a.sol.getVar(cur.RHS)
		a.sol.addConstraint(isSubtypeOfVar(lhs, rhs))
		a.sol.addConstraint(isSubtypeOfVar(rhs, lhs))
	case *ast.IntrinsicFunctor:
		a.visitIntrinsicFunctor(cur)
	case *ast.UserFunctor:
		a.visitUserFunctor(cur)
	case *ast.RecordInit:
		a.visitRecordInit(cur)
	case *ast.SumInit:
		a.visitSumInit(cur)
	case *ast.TypeCast:
		if a.env.IsType(cur.Type) {
			a.sol.addConstraint(isSubtypeOf(a.sol.getVar(cur), a.env.GetType(cur.Type)))
		}
	case *ast.Aggregator:
		a.visitAggregator(cur)
	}
}

func (a *clauseAnalysis) visitAtom(atom *ast.Atom) {
	rel := a.program.Relation(atom.Name)
	if rel == nil {
		return // error in input program
	}
	if rel.Arity() != atom.Arity() {
		return // error in input program
	}

	// the attribute types bound the argument types
	for i, arg := range atom.Args {
		typeName := rel.Attributes[i].TypeName
		if !a.env.IsType(typeName) {
			continue
		}
		v := a.sol.getVar(arg)
		if !a.negated[atom] {
			a.sol.addConstraint(isSubtypeOf(v, a.env.GetType(typeName)))
		} else {
			a.sol.addConstraint(isSupertypeOf(v, a.env.GetType(typeName)))
		}
	}
}

func (a *clauseAnalysis) visitNumericConstant(cnst *ast.NumericConstant) {
	possible := typesystem.NewTypeSet()

	switch cnst.Kind {
	case ast.NumericSigned:
		if cnst.CanParseSigned() {
			possible.Insert(a.env.NumberType())
		}
	case ast.NumericUnsigned:
		if cnst.CanParseUnsigned() {
			possible.Insert(a.env.UnsignedType())
		}
	case ast.NumericFloat:
		if cnst.CanParseFloat() {
			possible.Insert(a.env.FloatType())
		}
	default:
		// unannotated spelling: every numeric root it parses as is valid
		if cnst.CanParseSigned() {
			possible.Insert(a.env.NumberType())
		}
		if cnst.CanParseUnsigned() {
			possible.Insert(a.env.UnsignedType())
		}
		if cnst.CanParseFloat() {
			possible.Insert(a.env.FloatType())
		}
	}

	a.sol.addConstraint(hasSuperTypeInSet(a.sol.getVar(cnst), possible))
}

func (a *clauseAnalysis) visitIntrinsicFunctor(fun *ast.IntrinsicFunctor) {
	funVar := a.sol.getVar(fun)

	// Overloaded functors tie each operand to the result with the
	// same-base-type constraint: all of them end up subtypes of one shared
	// base type.
	if fun.Op.IsOverloaded() {
		for _, arg := range fun.Args {
			a.sol.addConstraint(subtypesOfTheSameBaseType(a.sol.getVar(arg), funVar))
		}
		return
	}

	ret, ok := fun.ReturnType()
	if !ok {
		return
	}
	a.sol.addConstraint(isSubtypeOf(funVar, a.env.RootType(ret)))

	// ord is unconstrained in its argument
	if fun.Op == ast.OpOrd {
		return
	}

	for i, arg := range fun.Args {
		root, ok := fun.ArgType(i)
		if !ok {
			continue
		}
		a.sol.addConstraint(isSubtypeOf(a.sol.getVar(arg), a.env.RootType(root)))
	}
}

func (a *clauseAnalysis) visitUserFunctor(fun *ast.UserFunctor) {
	decl := a.program.Functor(fun.Name)
	if decl == nil {
		return // unresolved, reported by validation
	}

	funVar := a.sol.getVar(fun)
	a.sol.addConstraint(isSubtypeOf(funVar, a.env.RootType(decl.ReturnType)))

	for i, arg := range fun.Args {
		if i >= len(decl.ArgTypes) {
			break
		}
		a.sol.addConstraint(isSubtypeOf(a.sol.getVar(arg), a.env.RootType(decl.ArgTypes[i])))
	}
}

func (a *clauseAnalysis) visitRecordInit(init *ast.RecordInit) {
	rec := a.sol.getVar(init)

	// the value is a record of exactly this arity
	a.sol.addConstraint(hasArity(rec, len(init.Args)))

	// a declared type pins the record both ways
	if init.Type != nil && a.env.IsType(*init.Type) {
		declared := a.env.GetType(*init.Type)
		a.sol.addConstraint(isSubtypeOf(rec, declared))
		a.sol.addConstraint(isSupertypeOf(rec, declared))
	}

	// link element types with sub-values
	for i, value := range init.Args {
		a.sol.addConstraint(isSubtypeOfComponent(a.sol.getVar(value), rec, i))
	}
}

func (a *clauseAnalysis) visitSumInit(init *ast.SumInit) {
	v := a.sol.getVar(init)

	sum, ok := a.env.GetType(init.Type).(*typesystem.Sum)
	if !ok {
		return // unresolved or not a sum, reported by validation
	}

	a.sol.addConstraint(isSubtypeOf(v, sum))
	a.sol.addConstraint(isSupertypeOf(v, sum))

	if branch, ok := sum.Branch(init.Branch); ok {
		a.sol.addConstraint(isSubtypeOf(a.sol.getVar(init.Arg), branch.Type))
	}
}

func (a *clauseAnalysis) visitAggregator(agg *ast.Aggregator) {
	aggVar := a.sol.getVar(agg)

	switch agg.Op {
	case ast.AggCount:
		a.sol.addConstraint(isSubtypeOf(aggVar, a.env.NumberType()))
	case ast.AggMean:
		a.sol.addConstraint(isSubtypeOf(aggVar, a.env.FloatType()))
	default:
		a.sol.addConstraint(hasSuperTypeInSet(aggVar, a.env.NumericRootTypes()))
	}

	// the target expression shares the aggregator's type
	if agg.Expr != nil {
		exprVar := a.sol.getVar(agg.Expr)
		a.sol.addConstraint(isSubtypeOfVar(exprVar, aggVar))
		a.sol.addConstraint(isSubtypeOfVar(aggVar, exprVar))
	}
}

// minimalTypes filters a set to its minima under the subtype relation.
func minimalTypes(s typesystem.TypeSet) []typesystem.Type {
	var res []typesystem.Type
	types := s.Types()
	for _, t := range types {
		minimal := true
		for _, other := range types {
			if other != t && typesystem.IsSubtypeOf(other, t) {
				minimal = false
				break
			}
		}
		if minimal {
			res = append(res, t)
		}
	}
	return res
}

func isConstant(arg ast.Argument) bool {
	switch arg.(type) {
	case *ast.StringConstant, *ast.NumericConstant, *ast.NilConstant:
		return true
	}
	return false
}

// checkClause reports ill-typed arguments: an empty set is a type
// mismatch, a constant with more than one minimal type is ambiguous.
func (ta *TypeAnalysis) checkClause(clause *ast.Clause,
	types map[ast.Argument]typesystem.TypeSet, report *diagnostics.Report) {
	ast.WalkArguments(clause, func(arg ast.Argument) {
		s, ok := types[arg]
		if !ok {
			return
		}
		if s.Empty() {
			report.AddError(diagnostics.ErrT001, arg.GetToken(), arg.String())
			return
		}
		if isConstant(arg) && !s.IsAll() {
			if min := minimalTypes(s); len(min) > 1 {
				names := make([]string, len(min))
				for i, t := range min {
					names[i] = t.Name().String()
				}
				report.AddError(diagnostics.ErrT002, arg.GetToken(),
					arg.String(), strings.Join(names, ", "))
			}
		}
	})
}

// AnnotatedClause renders a clause with each variable annotated by its
// inferred type set. The result map is keyed by node identity, so the
// types are carried over to the clone through parallel traversal before
// annotating.
func AnnotatedClause(clause *ast.Clause, types map[ast.Argument]typesystem.TypeSet) string {
	annotated := clause.Clone().(*ast.Clause)

	var originals, clones []ast.Argument
	ast.WalkArguments(clause, func(arg ast.Argument) { originals = append(originals, arg) })
	ast.WalkArguments(annotated, func(arg ast.Argument) { clones = append(clones, arg) })

	cloneTypes := make(map[ast.Argument]typesystem.TypeSet, len(clones))
	for i, orig := range originals {
		if i < len(clones) {
			cloneTypes[clones[i]] = types[orig]
		}
	}

	var annotator ast.MapperFunc
	annotator = func(n ast.Node) ast.Node {
		switch v := n.(type) {
		case *ast.Variable:
			return &ast.Variable{Token: v.Token,
				Name: fmt.Sprintf("%s∈%s", v.Name, cloneTypes[v])}
		case *ast.UnnamedVariable:
			return &ast.Variable{Token: v.Token,
				Name: fmt.Sprintf("_∈%s", cloneTypes[v])}
		}
		n.Apply(annotator)
		return n
	}
	annotated.Apply(annotator)
	return annotated.String()
}
