package ast

import (
	"fmt"
	"sort"
	"strings"

	"github.com/funvibe/datalog/internal/token"
)

// Node is the base interface for all AST nodes.
type Node interface {
	// GetToken returns the node's primary token, used for error reporting.
	GetToken() token.Token
	// Children returns the directly embedded child nodes.
	Children() []Node
	// Clone produces a deep copy of the node.
	Clone() Node
	// Apply rewrites the direct children in place through the mapper.
	Apply(m Mapper)
	fmt.Stringer
}

// Mapper transforms nodes during an in-place rewrite. Implementations must
// return a node of the same interface category they were given (an Argument
// for an Argument, a Literal for a Literal).
type Mapper interface {
	Map(n Node) Node
}

// Argument is a term occurring at an argument position in an atom.
type Argument interface {
	Node
	argumentNode()
}

// Literal is an element of a clause body.
type Literal interface {
	Node
	literalNode()
}

// QualifiedName is a dotted sequence of identifiers, e.g. A.B.C.
// The order of qualifiers is significant.
type QualifiedName struct {
	qualifiers []string
}

func NewQualifiedName(parts ...string) QualifiedName {
	qs := make([]string, len(parts))
	copy(qs, parts)
	return QualifiedName{qualifiers: qs}
}

// ParseQualifiedName splits a dotted name into its qualifiers.
func ParseQualifiedName(s string) QualifiedName {
	if s == "" {
		return QualifiedName{}
	}
	return QualifiedName{qualifiers: strings.Split(s, ".")}
}

func (q QualifiedName) Qualifiers() []string { return q.qualifiers }

func (q QualifiedName) Empty() bool { return len(q.qualifiers) == 0 }

// Concat appends the qualifiers of other to this name. Instance mangling
// builds names this way: instance name first, original name after.
func (q QualifiedName) Concat(other QualifiedName) QualifiedName {
	qs := make([]string, 0, len(q.qualifiers)+len(other.qualifiers))
	qs = append(qs, q.qualifiers...)
	qs = append(qs, other.qualifiers...)
	return QualifiedName{qualifiers: qs}
}

func (q QualifiedName) Equal(other QualifiedName) bool {
	if len(q.qualifiers) != len(other.qualifiers) {
		return false
	}
	for i, s := range q.qualifiers {
		if other.qualifiers[i] != s {
			return false
		}
	}
	return true
}

func (q QualifiedName) String() string { return strings.Join(q.qualifiers, ".") }

// Key returns the map-key form of the name.
func (q QualifiedName) Key() string { return q.String() }

// Program is the root of the AST. Relations are keyed by qualified name;
// Clauses holds the free clause list prior to instantiation and only the
// unbound clauses afterwards.
type Program struct {
	Token          token.Token
	Types          []TypeDecl
	Functors       []*FunctorDeclaration
	Relations      map[string]*Relation
	Clauses        []*Clause
	Components     []*Component
	Instantiations []*ComponentInit
	Loads          []*Load
	PrintSizes     []*PrintSize
	Stores         []*Store
}

// Functor looks up a user functor declaration by name, nil when absent.
func (p *Program) Functor(name string) *FunctorDeclaration {
	for _, f := range p.Functors {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func NewProgram() *Program {
	return &Program{Relations: make(map[string]*Relation)}
}

// Relation looks up a relation by qualified name, nil when absent.
func (p *Program) Relation(name QualifiedName) *Relation {
	return p.Relations[name.Key()]
}

func (p *Program) AddRelation(rel *Relation) {
	p.Relations[rel.Name.Key()] = rel
}

// RelationList returns the relations sorted by name. Passes iterate this to
// keep analysis output deterministic.
func (p *Program) RelationList() []*Relation {
	rels := make([]*Relation, 0, len(p.Relations))
	for _, rel := range p.Relations {
		rels = append(rels, rel)
	}
	sort.Slice(rels, func(i, j int) bool { return rels[i].Name.Key() < rels[j].Name.Key() })
	return rels
}

func (p *Program) GetToken() token.Token { return p.Token }

func (p *Program) Children() []Node {
	var res []Node
	for _, t := range p.Types {
		res = append(res, t)
	}
	for _, f := range p.Functors {
		res = append(res, f)
	}
	for _, rel := range p.RelationList() {
		res = append(res, rel)
	}
	for _, c := range p.Clauses {
		res = append(res, c)
	}
	for _, c := range p.Components {
		res = append(res, c)
	}
	for _, i := range p.Instantiations {
		res = append(res, i)
	}
	for _, io := range p.Loads {
		res = append(res, io)
	}
	for _, io := range p.PrintSizes {
		res = append(res, io)
	}
	for _, io := range p.Stores {
		res = append(res, io)
	}
	return res
}

func (p *Program) Clone() Node {
	res := NewProgram()
	res.Token = p.Token
	for _, t := range p.Types {
		res.Types = append(res.Types, t.Clone().(TypeDecl))
	}
	for _, f := range p.Functors {
		res.Functors = append(res.Functors, f.Clone().(*FunctorDeclaration))
	}
	for _, rel := range p.RelationList() {
		res.AddRelation(rel.Clone().(*Relation))
	}
	for _, c := range p.Clauses {
		res.Clauses = append(res.Clauses, c.Clone().(*Clause))
	}
	for _, c := range p.Components {
		res.Components = append(res.Components, c.Clone().(*Component))
	}
	for _, i := range p.Instantiations {
		res.Instantiations = append(res.Instantiations, i.Clone().(*ComponentInit))
	}
	for _, io := range p.Loads {
		res.Loads = append(res.Loads, io.Clone().(*Load))
	}
	for _, io := range p.PrintSizes {
		res.PrintSizes = append(res.PrintSizes, io.Clone().(*PrintSize))
	}
	for _, io := range p.Stores {
		res.Stores = append(res.Stores, io.Clone().(*Store))
	}
	return res
}

func (p *Program) Apply(m Mapper) {
	for i, t := range p.Types {
		p.Types[i] = m.Map(t).(TypeDecl)
	}
	for i, f := range p.Functors {
		p.Functors[i] = m.Map(f).(*FunctorDeclaration)
	}
	for key, rel := range p.Relations {
		p.Relations[key] = m.Map(rel).(*Relation)
	}
	for i, c := range p.Clauses {
		p.Clauses[i] = m.Map(c).(*Clause)
	}
	for i, c := range p.Components {
		p.Components[i] = m.Map(c).(*Component)
	}
	for i, in := range p.Instantiations {
		p.Instantiations[i] = m.Map(in).(*ComponentInit)
	}
	for i, io := range p.Loads {
		p.Loads[i] = m.Map(io).(*Load)
	}
	for i, io := range p.PrintSizes {
		p.PrintSizes[i] = m.Map(io).(*PrintSize)
	}
	for i, io := range p.Stores {
		p.Stores[i] = m.Map(io).(*Store)
	}
}

func (p *Program) String() string {
	var sb strings.Builder
	for _, t := range p.Types {
		sb.WriteString(t.String())
		sb.WriteString("\n")
	}
	for _, rel := range p.RelationList() {
		sb.WriteString(rel.String())
		sb.WriteString("\n")
	}
	for _, c := range p.Clauses {
		sb.WriteString(c.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Attribute is a named, typed column of a relation.
type Attribute struct {
	Token    token.Token
	Name     string
	TypeName QualifiedName
}

func (a *Attribute) GetToken() token.Token { return a.Token }
func (a *Attribute) Children() []Node      { return nil }
func (a *Attribute) Apply(Mapper)          {}

func (a *Attribute) SetTypeName(name QualifiedName) { a.TypeName = name }

func (a *Attribute) Clone() Node {
	return &Attribute{Token: a.Token, Name: a.Name, TypeName: a.TypeName}
}

func (a *Attribute) String() string {
	return fmt.Sprintf("%s:%s", a.Name, a.TypeName)
}

// Relation declares a named relation and owns its clauses after
// instantiation has attached them.
type Relation struct {
	Token      token.Token
	Name       QualifiedName
	Attributes []*Attribute
	Clauses    []*Clause
}

func (r *Relation) GetToken() token.Token { return r.Token }

func (r *Relation) SetName(name QualifiedName) { r.Name = name }

func (r *Relation) Arity() int { return len(r.Attributes) }

func (r *Relation) AddClause(c *Clause) { r.Clauses = append(r.Clauses, c) }

func (r *Relation) Children() []Node {
	res := make([]Node, 0, len(r.Attributes)+len(r.Clauses))
	for _, a := range r.Attributes {
		res = append(res, a)
	}
	for _, c := range r.Clauses {
		res = append(res, c)
	}
	return res
}

func (r *Relation) Clone() Node {
	res := &Relation{Token: r.Token, Name: r.Name}
	for _, a := range r.Attributes {
		res.Attributes = append(res.Attributes, a.Clone().(*Attribute))
	}
	for _, c := range r.Clauses {
		res.Clauses = append(res.Clauses, c.Clone().(*Clause))
	}
	return res
}

func (r *Relation) Apply(m Mapper) {
	for i, a := range r.Attributes {
		r.Attributes[i] = m.Map(a).(*Attribute)
	}
	for i, c := range r.Clauses {
		r.Clauses[i] = m.Map(c).(*Clause)
	}
}

func (r *Relation) String() string {
	attrs := make([]string, len(r.Attributes))
	for i, a := range r.Attributes {
		attrs[i] = a.String()
	}
	return fmt.Sprintf(".decl %s(%s)", r.Name, strings.Join(attrs, ", "))
}

// Clause is a head atom with an ordered body of literals. A clause without
// body literals is a fact.
type Clause struct {
	Token token.Token
	Head  *Atom
	Body  []Literal
}

func (c *Clause) GetToken() token.Token { return c.Token }

func (c *Clause) AddToBody(l Literal) { c.Body = append(c.Body, l) }

func (c *Clause) Children() []Node {
	res := make([]Node, 0, 1+len(c.Body))
	if c.Head != nil {
		res = append(res, c.Head)
	}
	for _, l := range c.Body {
		res = append(res, l)
	}
	return res
}

func (c *Clause) Clone() Node {
	res := &Clause{Token: c.Token}
	if c.Head != nil {
		res.Head = c.Head.Clone().(*Atom)
	}
	for _, l := range c.Body {
		res.Body = append(res.Body, l.Clone().(Literal))
	}
	return res
}

func (c *Clause) Apply(m Mapper) {
	if c.Head != nil {
		c.Head = m.Map(c.Head).(*Atom)
	}
	for i, l := range c.Body {
		c.Body[i] = m.Map(l).(Literal)
	}
}

func (c *Clause) String() string {
	head := "?"
	if c.Head != nil {
		head = c.Head.String()
	}
	if len(c.Body) == 0 {
		return head + "."
	}
	body := make([]string, len(c.Body))
	for i, l := range c.Body {
		body[i] = l.String()
	}
	return fmt.Sprintf("%s :- %s.", head, strings.Join(body, ", "))
}

// Atom is a relation name applied to a tuple of arguments.
type Atom struct {
	Token token.Token
	Name  QualifiedName
	Args  []Argument
}

func (a *Atom) GetToken() token.Token { return a.Token }
func (a *Atom) literalNode()          {}

func (a *Atom) SetName(name QualifiedName) { a.Name = name }

func (a *Atom) Arity() int { return len(a.Args) }

func (a *Atom) AddArgument(arg Argument) { a.Args = append(a.Args, arg) }

func (a *Atom) Children() []Node {
	res := make([]Node, len(a.Args))
	for i, arg := range a.Args {
		res[i] = arg
	}
	return res
}

func (a *Atom) Clone() Node {
	res := &Atom{Token: a.Token, Name: a.Name}
	for _, arg := range a.Args {
		res.Args = append(res.Args, arg.Clone().(Argument))
	}
	return res
}

func (a *Atom) Apply(m Mapper) {
	for i, arg := range a.Args {
		a.Args[i] = m.Map(arg).(Argument)
	}
}

func (a *Atom) String() string {
	args := make([]string, len(a.Args))
	for i, arg := range a.Args {
		args[i] = arg.String()
	}
	return fmt.Sprintf("%s(%s)", a.Name, strings.Join(args, ","))
}

// Negation wraps a negated atom in a clause body.
type Negation struct {
	Token token.Token
	Atom  *Atom
}

func (n *Negation) GetToken() token.Token { return n.Token }
func (n *Negation) literalNode()          {}

func (n *Negation) Children() []Node {
	if n.Atom == nil {
		return nil
	}
	return []Node{n.Atom}
}

func (n *Negation) Clone() Node {
	res := &Negation{Token: n.Token}
	if n.Atom != nil {
		res.Atom = n.Atom.Clone().(*Atom)
	}
	return res
}

func (n *Negation) Apply(m Mapper) {
	if n.Atom != nil {
		n.Atom = m.Map(n.Atom).(*Atom)
	}
}

func (n *Negation) String() string { return "!" + n.Atom.String() }

// ConstraintOp is a binary comparison operator in a body constraint.
type ConstraintOp string

const (
	OpEq ConstraintOp = "="
	OpNe ConstraintOp = "!="
	OpLt ConstraintOp = "<"
	OpLe ConstraintOp = "<="
	OpGt ConstraintOp = ">"
	OpGe ConstraintOp = ">="
)

// BinaryConstraint compares two arguments in a clause body.
type BinaryConstraint struct {
	Token token.Token
	Op    ConstraintOp
	LHS   Argument
	RHS   Argument
}

func (b *BinaryConstraint) GetToken() token.Token { return b.Token }
func (b *BinaryConstraint) literalNode()          {}

func (b *BinaryConstraint) Children() []Node { return []Node{b.LHS, b.RHS} }

func (b *BinaryConstraint) Clone() Node {
	return &BinaryConstraint{
		Token: b.Token,
		Op:    b.Op,
		LHS:   b.LHS.Clone().(Argument),
		RHS:   b.RHS.Clone().(Argument),
	}
}

func (b *BinaryConstraint) Apply(m Mapper) {
	b.LHS = m.Map(b.LHS).(Argument)
	b.RHS = m.Map(b.RHS).(Argument)
}

func (b *BinaryConstraint) String() string {
	return fmt.Sprintf("%s %s %s", b.LHS, b.Op, b.RHS)
}

// Load is an .input directive naming a relation to read.
type Load struct {
	Token token.Token
	Name  QualifiedName
}

func (l *Load) GetToken() token.Token      { return l.Token }
func (l *Load) Children() []Node           { return nil }
func (l *Load) Apply(Mapper)               {}
func (l *Load) SetName(name QualifiedName) { l.Name = name }
func (l *Load) Clone() Node                { return &Load{Token: l.Token, Name: l.Name} }
func (l *Load) String() string             { return ".input " + l.Name.String() }

// PrintSize is a .printsize directive naming a relation to count.
type PrintSize struct {
	Token token.Token
	Name  QualifiedName
}

func (p *PrintSize) GetToken() token.Token      { return p.Token }
func (p *PrintSize) Children() []Node           { return nil }
func (p *PrintSize) Apply(Mapper)               {}
func (p *PrintSize) SetName(name QualifiedName) { p.Name = name }
func (p *PrintSize) Clone() Node                { return &PrintSize{Token: p.Token, Name: p.Name} }
func (p *PrintSize) String() string             { return ".printsize " + p.Name.String() }

// Store is an .output directive naming a relation to write.
type Store struct {
	Token token.Token
	Name  QualifiedName
}

func (s *Store) GetToken() token.Token      { return s.Token }
func (s *Store) Children() []Node           { return nil }
func (s *Store) Apply(Mapper)               {}
func (s *Store) SetName(name QualifiedName) { s.Name = name }
func (s *Store) Clone() Node                { return &Store{Token: s.Token, Name: s.Name} }
func (s *Store) String() string             { return ".output " + s.Name.String() }
