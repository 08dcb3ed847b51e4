// Package typesystem implements the registry of named types and the subtype
// lattice the clause type analysis runs on.
package typesystem

import (
	"fmt"
	"sort"
	"strings"

	"github.com/funvibe/datalog/internal/ast"
)

// Type is the interface for all types owned by an Environment. Identity is
// pointer identity: two types are the same type iff they are the same
// registry entry.
type Type interface {
	Name() ast.QualifiedName
	Env() *Environment
	fmt.Stringer
}

// Primitive is one of the four pre-created roots (number, unsigned, float,
// symbol) or a user-declared primitive derived from a root.
type Primitive struct {
	env  *Environment
	name ast.QualifiedName
	base Type // nil for the four roots
}

func (p *Primitive) Name() ast.QualifiedName { return p.name }
func (p *Primitive) Env() *Environment       { return p.env }

// IsRoot reports whether this is one of the four built-in roots.
func (p *Primitive) IsRoot() bool { return p.base == nil }

// Base returns the type this primitive derives from, nil for roots.
func (p *Primitive) Base() Type { return p.base }

func (p *Primitive) String() string {
	if p.base == nil {
		return p.name.String()
	}
	return fmt.Sprintf("%s <: %s", p.name, p.base.Name())
}

// Union combines an ordered list of member types.
type Union struct {
	env      *Environment
	name     ast.QualifiedName
	elements []Type
}

func (u *Union) Name() ast.QualifiedName { return u.name }
func (u *Union) Env() *Environment       { return u.env }

// Add appends a member type in declaration order.
func (u *Union) Add(t Type) { u.elements = append(u.elements, t) }

func (u *Union) Elements() []Type { return u.elements }

func (u *Union) String() string {
	elems := make([]string, len(u.elements))
	for i, e := range u.elements {
		elems[i] = e.Name().String()
	}
	return fmt.Sprintf("%s = %s", u.name, strings.Join(elems, " | "))
}

// Field is a named field of a record type.
type Field struct {
	Name string
	Type Type
}

// Record combines an ordered list of fields.
type Record struct {
	env    *Environment
	name   ast.QualifiedName
	fields []Field
}

func (r *Record) Name() ast.QualifiedName { return r.name }
func (r *Record) Env() *Environment       { return r.env }

// Add appends a field in declaration order.
func (r *Record) Add(name string, t Type) {
	r.fields = append(r.fields, Field{Name: name, Type: t})
}

func (r *Record) Fields() []Field { return r.fields }

func (r *Record) Arity() int { return len(r.fields) }

func (r *Record) String() string {
	if len(r.fields) == 0 {
		return fmt.Sprintf("%s = ()", r.name)
	}
	fields := make([]string, len(r.fields))
	for i, f := range r.fields {
		fields[i] = fmt.Sprintf("%s : %s", f.Name, f.Type.Name())
	}
	return fmt.Sprintf("%s = ( %s )", r.name, strings.Join(fields, " , "))
}

// Branch is a named branch of a sum type carrying a payload type.
type Branch struct {
	Name string
	Type Type
}

// Sum combines an ordered list of branches with unique names.
type Sum struct {
	env      *Environment
	name     ast.QualifiedName
	branches []Branch
}

func (s *Sum) Name() ast.QualifiedName { return s.name }
func (s *Sum) Env() *Environment       { return s.env }

// Add appends a branch in declaration order; it reports false when the
// branch name is already taken.
func (s *Sum) Add(name string, t Type) bool {
	for _, b := range s.branches {
		if b.Name == name {
			return false
		}
	}
	s.branches = append(s.branches, Branch{Name: name, Type: t})
	return true
}

func (s *Sum) Branches() []Branch { return s.branches }

// Branch looks up a branch by name.
func (s *Sum) Branch(name string) (Branch, bool) {
	for _, b := range s.branches {
		if b.Name == name {
			return b, true
		}
	}
	return Branch{}, false
}

func (s *Sum) String() string {
	branches := make([]string, len(s.branches))
	for i, b := range s.branches {
		branches[i] = fmt.Sprintf("%s = %s", b.Name, b.Type.Name())
	}
	return fmt.Sprintf("%s = %s", s.name, strings.Join(branches, " | "))
}

// Environment owns every type of a translation unit. It pre-creates the
// four root primitives; all other entries are created by the environment
// builder. References between types always go through registry entries, so
// recursive records, sums and unions are representable.
type Environment struct {
	types map[string]Type

	number   *Primitive
	unsigned *Primitive
	float    *Primitive
	symbol   *Primitive

	qualifierMemo map[Type]string
}

func NewEnvironment() *Environment {
	env := &Environment{
		types:         make(map[string]Type),
		qualifierMemo: make(map[Type]string),
	}
	env.number = env.createRoot("number")
	env.unsigned = env.createRoot("unsigned")
	env.float = env.createRoot("float")
	env.symbol = env.createRoot("symbol")
	return env
}

func (e *Environment) createRoot(name string) *Primitive {
	root := &Primitive{env: e, name: ast.NewQualifiedName(name)}
	e.types[name] = root
	return root
}

func (e *Environment) NumberType() *Primitive   { return e.number }
func (e *Environment) UnsignedType() *Primitive { return e.unsigned }
func (e *Environment) FloatType() *Primitive    { return e.float }
func (e *Environment) SymbolType() *Primitive   { return e.symbol }

// RootType maps an attribute-level root name to its registry entry.
func (e *Environment) RootType(attr ast.RootAttr) *Primitive {
	switch attr {
	case ast.RootSigned:
		return e.number
	case ast.RootUnsigned:
		return e.unsigned
	case ast.RootFloat:
		return e.float
	case ast.RootSymbol:
		return e.symbol
	}
	return nil
}

// NumericRootTypes returns the set of the three numeric roots.
func (e *Environment) NumericRootTypes() TypeSet {
	return NewTypeSet(e.number, e.unsigned, e.float)
}

func (e *Environment) IsType(name ast.QualifiedName) bool {
	_, ok := e.types[name.Key()]
	return ok
}

// GetType returns the registered type under the name, nil when absent.
func (e *Environment) GetType(name ast.QualifiedName) Type {
	return e.types[name.Key()]
}

// CreatePrimitive registers a user primitive derived from the given root.
// If the name is already bound the existing entry is returned instead; the
// environment builder relies on this to tolerate duplicate declarations.
func (e *Environment) CreatePrimitive(name ast.QualifiedName, base ast.RootAttr) *Primitive {
	if existing, ok := e.types[name.Key()]; ok {
		p, _ := existing.(*Primitive)
		return p
	}
	p := &Primitive{env: e, name: name, base: e.RootType(base)}
	e.types[name.Key()] = p
	return p
}

// CreateUnion registers an empty union type under the name.
func (e *Environment) CreateUnion(name ast.QualifiedName) *Union {
	if existing, ok := e.types[name.Key()]; ok {
		u, _ := existing.(*Union)
		return u
	}
	u := &Union{env: e, name: name}
	e.types[name.Key()] = u
	return u
}

// CreateRecord registers an empty record type under the name.
func (e *Environment) CreateRecord(name ast.QualifiedName) *Record {
	if existing, ok := e.types[name.Key()]; ok {
		r, _ := existing.(*Record)
		return r
	}
	r := &Record{env: e, name: name}
	e.types[name.Key()] = r
	return r
}

// CreateSum registers an empty sum type under the name.
func (e *Environment) CreateSum(name ast.QualifiedName) *Sum {
	if existing, ok := e.types[name.Key()]; ok {
		s, _ := existing.(*Sum)
		return s
	}
	s := &Sum{env: e, name: name}
	e.types[name.Key()] = s
	return s
}

// AllTypes returns every registered type sorted by name.
func (e *Environment) AllTypes() []Type {
	res := make([]Type, 0, len(e.types))
	for _, t := range e.types {
		res = append(res, t)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Name().Key() < res[j].Name().Key()
	})
	return res
}

func (e *Environment) String() string {
	var sb strings.Builder
	sb.WriteString("Types:\n")
	for _, t := range e.AllTypes() {
		sb.WriteString("\t")
		sb.WriteString(t.String())
		sb.WriteString("\n")
	}
	return sb.String()
}
