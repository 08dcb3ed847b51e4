package analyzer

import (
	"github.com/funvibe/datalog/internal/ast"
	"github.com/funvibe/datalog/internal/typesystem"
)

// Variables of the constraint system are argument nodes, addressed by
// identity; the value domain is TypeSet with the universal set as the
// initial value. Every constraint update except the supertype seed shrinks
// a set via the lattice meets, and the supertype seed fires at most once,
// so the round-robin solve terminates.

type assignment map[ast.Argument]typesystem.TypeSet

type constraintKind int

const (
	// kindSubVar narrows a to the pairwise greatest common subtypes of a and b.
	kindSubVar constraintKind = iota
	// kindSubType narrows a against a fixed type.
	kindSubType
	// kindSupType widens a toward a fixed type; seed-only, fires once.
	kindSupType
	// kindHasSuperIn keeps only types with a supertype among the values.
	kindHasSuperIn
	// kindSameBase forces both variables to subtypes of a shared base type.
	kindSameBase
	// kindFieldOf links a record variable's field to an element variable.
	kindFieldOf
	// kindArity restricts a variable to record types of a fixed arity.
	kindArity
)

// constraint captures one or two variables plus a type, a type set or an
// index, and a kind tag dispatched on in update.
type constraint struct {
	kind   constraintKind
	a, b   ast.Argument
	typ    typesystem.Type
	values typesystem.TypeSet
	index  int
	fired  bool
}

func isSubtypeOfVar(a, b ast.Argument) *constraint {
	return &constraint{kind: kindSubVar, a: a, b: b}
}

func isSubtypeOf(a ast.Argument, t typesystem.Type) *constraint {
	return &constraint{kind: kindSubType, a: a, typ: t}
}

func isSupertypeOf(a ast.Argument, t typesystem.Type) *constraint {
	return &constraint{kind: kindSupType, a: a, typ: t}
}

func hasSuperTypeInSet(a ast.Argument, values typesystem.TypeSet) *constraint {
	return &constraint{kind: kindHasSuperIn, a: a, values: values}
}

func subtypesOfTheSameBaseType(left, right ast.Argument) *constraint {
	return &constraint{kind: kindSameBase, a: left, b: right}
}

func isSubtypeOfComponent(a, record ast.Argument, index int) *constraint {
	return &constraint{kind: kindFieldOf, a: a, b: record, index: index}
}

func hasArity(record ast.Argument, arity int) *constraint {
	return &constraint{kind: kindArity, a: record, index: arity}
}

// solver iterates the constraints in insertion order until a full sweep
// reports no change.
type solver struct {
	env         *typesystem.Environment
	constraints []*constraint
	ass         assignment

	// named variables share one constraint variable across occurrences;
	// the first occurrence is the canonical node
	named map[string]ast.Argument
}

func newSolver(env *typesystem.Environment) *solver {
	return &solver{env: env, ass: make(assignment), named: make(map[string]ast.Argument)}
}

// getVar registers the argument as a constraint variable, initialized to
// the universal set. Occurrences of the same named variable always map to
// the same constraint variable.
func (s *solver) getVar(arg ast.Argument) ast.Argument {
	if v, ok := arg.(*ast.Variable); ok {
		if canonical, ok := s.named[v.Name]; ok {
			return canonical
		}
		s.named[v.Name] = arg
	}
	if _, ok := s.ass[arg]; !ok {
		s.ass[arg] = typesystem.AllTypes()
	}
	return arg
}

func (s *solver) addConstraint(c *constraint) {
	s.constraints = append(s.constraints, c)
}

func (s *solver) solve() assignment {
	for {
		changed := false
		for _, c := range s.constraints {
			if s.update(c) {
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return s.ass
}

func (s *solver) update(c *constraint) bool {
	switch c.kind {
	case kindSubVar:
		res := typesystem.PairwiseGreatestCommonSubtypes(s.ass[c.a], s.ass[c.b])
		if res.Equal(s.ass[c.a]) {
			return false
		}
		s.ass[c.a] = res
		return true

	case kindSubType:
		cur := s.ass[c.a]
		if cur.IsAll() {
			s.ass[c.a] = typesystem.NewTypeSet(c.typ)
			return true
		}
		res := typesystem.PairwiseGreatestCommonSubtypes(cur, typesystem.NewTypeSet(c.typ))
		if res.Equal(cur) {
			return false
		}
		s.ass[c.a] = res
		return true

	case kindSupType:
		// supertype constraints seed only; they must not fight the
		// narrowing done by subtype constraints
		if c.fired {
			return false
		}
		c.fired = true
		cur := s.ass[c.a]
		if cur.IsAll() {
			s.ass[c.a] = typesystem.NewTypeSet(c.typ)
			return true
		}
		res := typesystem.PairwiseLeastCommonSupertypes(cur, typesystem.NewTypeSet(c.typ))
		if res.Equal(cur) {
			return false
		}
		s.ass[c.a] = res
		return true

	case kindHasSuperIn:
		cur := s.ass[c.a]
		if cur.IsAll() {
			s.ass[c.a] = c.values.Copy()
			return true
		}
		res := typesystem.NewTypeSet()
		for _, t := range cur.Types() {
			for _, v := range c.values.Types() {
				if typesystem.IsSubtypeOf(t, v) {
					res.Insert(t)
					break
				}
			}
		}
		if res.Equal(cur) {
			return false
		}
		s.ass[c.a] = res
		return true

	case kindSameBase:
		return s.updateSameBase(c)

	case kindFieldOf:
		return s.updateFieldOf(c)

	case kindArity:
		cur := s.ass[c.a]
		res := typesystem.NewTypeSet()
		if cur.IsAll() {
			for _, t := range s.env.AllTypes() {
				if rec, ok := t.(*typesystem.Record); ok && rec.Arity() == c.index {
					res.Insert(rec)
				}
			}
		} else {
			for _, t := range cur.Types() {
				if rec, ok := t.(*typesystem.Record); ok && rec.Arity() == c.index {
					res.Insert(rec)
				}
			}
		}
		if res.Equal(cur) {
			return false
		}
		s.ass[c.a] = res
		return true
	}
	return false
}

// rootOf follows a primitive's base chain up to its root; nil for
// non-primitive types.
func rootOf(t typesystem.Type) typesystem.Type {
	p, ok := t.(*typesystem.Primitive)
	if !ok {
		return nil
	}
	for !p.IsRoot() {
		base, ok := p.Base().(*typesystem.Primitive)
		if !ok {
			return nil
		}
		p = base
	}
	return p
}

func baseTypesOf(s typesystem.TypeSet) typesystem.TypeSet {
	res := typesystem.NewTypeSet()
	for _, t := range s.Types() {
		if root := rootOf(t); root != nil {
			res.Insert(root)
		}
	}
	return res
}

// updateSameBase forces both sides to subtypes of a base type they share.
// An overloaded functor types its operands and result this way.
func (s *solver) updateSameBase(c *constraint) bool {
	left := s.ass[c.a]
	right := s.ass[c.b]

	if left.IsAll() && right.IsAll() {
		return false
	}
	if left.IsAll() {
		s.ass[c.a] = baseTypesOf(right)
		return true
	}
	if right.IsAll() {
		s.ass[c.b] = baseTypesOf(left)
		return true
	}

	baseTypes := typesystem.Intersection(baseTypesOf(left), baseTypesOf(right))

	keep := func(side typesystem.TypeSet) typesystem.TypeSet {
		res := typesystem.NewTypeSet()
		for _, t := range side.Types() {
			for _, base := range baseTypes.Types() {
				if typesystem.IsSubtypeOf(t, base) {
					res.Insert(t)
					break
				}
			}
		}
		return res
	}

	resLeft := keep(left)
	resRight := keep(right)

	if resLeft.Equal(left) && resRight.Equal(right) {
		return false
	}
	s.ass[c.a] = resLeft
	s.ass[c.b] = resRight
	return true
}

// updateFieldOf restricts the record variable to record types wide enough
// for the field index, and intersects the projected field types into the
// element variable. Both variables update in lockstep.
func (s *solver) updateFieldOf(c *constraint) bool {
	recs := s.ass[c.b]

	// not yet constrained => skip
	if recs.IsAll() {
		return false
	}

	typesA := typesystem.NewTypeSet()
	typesB := typesystem.NewTypeSet()

	for _, t := range recs.Types() {
		rec, ok := t.(*typesystem.Record)
		if !ok {
			continue
		}
		if rec.Arity() <= c.index {
			continue
		}
		typesB.Insert(rec)
		typesA.Insert(rec.Fields()[c.index].Type)
	}

	typesA = typesystem.PairwiseGreatestCommonSubtypes(s.ass[c.a], typesA)

	changed := false
	if !recs.Equal(typesB) {
		s.ass[c.b] = typesB
		changed = true
	}
	if !s.ass[c.a].Equal(typesA) {
		s.ass[c.a] = typesA
		changed = true
	}
	return changed
}
