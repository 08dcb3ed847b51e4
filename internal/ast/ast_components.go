package ast

import (
	"fmt"
	"strings"

	"github.com/funvibe/datalog/internal/token"
)

// ComponentType names a component together with its type parameters: on a
// definition these are the formal parameter names, on a base reference or
// instantiation the actual arguments.
type ComponentType struct {
	Token      token.Token
	Name       string
	TypeParams []QualifiedName
}

func (c *ComponentType) GetToken() token.Token { return c.Token }
func (c *ComponentType) Children() []Node      { return nil }
func (c *ComponentType) Apply(Mapper)          {}

func (c *ComponentType) Clone() Node {
	return &ComponentType{
		Token:      c.Token,
		Name:       c.Name,
		TypeParams: append([]QualifiedName(nil), c.TypeParams...),
	}
}

func (c *ComponentType) String() string {
	if len(c.TypeParams) == 0 {
		return c.Name
	}
	params := make([]string, len(c.TypeParams))
	for i, p := range c.TypeParams {
		params[i] = p.String()
	}
	return fmt.Sprintf("%s<%s>", c.Name, strings.Join(params, ","))
}

// Component is a parameterized template of types, relations and clauses.
// Instantiation flattens it into the program.
type Component struct {
	Token          token.Token
	Type           *ComponentType
	BaseComponents []*ComponentType
	Overridden     []string // head relation identifiers suppressed from parents
	Types          []TypeDecl
	Relations      []*Relation
	Clauses        []*Clause
	Loads          []*Load
	PrintSizes     []*PrintSize
	Stores         []*Store
	Components     []*Component // nested component definitions
	Instantiations []*ComponentInit
}

func (c *Component) GetToken() token.Token { return c.Token }

// Overrides reports whether the component suppresses parent clauses on the
// given head relation identifier.
func (c *Component) Overrides(name string) bool {
	for _, o := range c.Overridden {
		if o == name {
			return true
		}
	}
	return false
}

func (c *Component) Children() []Node {
	var res []Node
	if c.Type != nil {
		res = append(res, c.Type)
	}
	for _, b := range c.BaseComponents {
		res = append(res, b)
	}
	for _, t := range c.Types {
		res = append(res, t)
	}
	for _, r := range c.Relations {
		res = append(res, r)
	}
	for _, cl := range c.Clauses {
		res = append(res, cl)
	}
	for _, io := range c.Loads {
		res = append(res, io)
	}
	for _, io := range c.PrintSizes {
		res = append(res, io)
	}
	for _, io := range c.Stores {
		res = append(res, io)
	}
	for _, n := range c.Components {
		res = append(res, n)
	}
	for _, i := range c.Instantiations {
		res = append(res, i)
	}
	return res
}

func (c *Component) Clone() Node {
	res := &Component{Token: c.Token}
	if c.Type != nil {
		res.Type = c.Type.Clone().(*ComponentType)
	}
	for _, b := range c.BaseComponents {
		res.BaseComponents = append(res.BaseComponents, b.Clone().(*ComponentType))
	}
	res.Overridden = append([]string(nil), c.Overridden...)
	for _, t := range c.Types {
		res.Types = append(res.Types, t.Clone().(TypeDecl))
	}
	for _, r := range c.Relations {
		res.Relations = append(res.Relations, r.Clone().(*Relation))
	}
	for _, cl := range c.Clauses {
		res.Clauses = append(res.Clauses, cl.Clone().(*Clause))
	}
	for _, io := range c.Loads {
		res.Loads = append(res.Loads, io.Clone().(*Load))
	}
	for _, io := range c.PrintSizes {
		res.PrintSizes = append(res.PrintSizes, io.Clone().(*PrintSize))
	}
	for _, io := range c.Stores {
		res.Stores = append(res.Stores, io.Clone().(*Store))
	}
	for _, n := range c.Components {
		res.Components = append(res.Components, n.Clone().(*Component))
	}
	for _, i := range c.Instantiations {
		res.Instantiations = append(res.Instantiations, i.Clone().(*ComponentInit))
	}
	return res
}

func (c *Component) Apply(m Mapper) {
	for i, t := range c.Types {
		c.Types[i] = m.Map(t).(TypeDecl)
	}
	for i, r := range c.Relations {
		c.Relations[i] = m.Map(r).(*Relation)
	}
	for i, cl := range c.Clauses {
		c.Clauses[i] = m.Map(cl).(*Clause)
	}
	for i, io := range c.Loads {
		c.Loads[i] = m.Map(io).(*Load)
	}
	for i, io := range c.PrintSizes {
		c.PrintSizes[i] = m.Map(io).(*PrintSize)
	}
	for i, io := range c.Stores {
		c.Stores[i] = m.Map(io).(*Store)
	}
	for i, n := range c.Components {
		c.Components[i] = m.Map(n).(*Component)
	}
	for i, in := range c.Instantiations {
		c.Instantiations[i] = m.Map(in).(*ComponentInit)
	}
}

func (c *Component) String() string {
	var sb strings.Builder
	sb.WriteString(".comp " + c.Type.String())
	if len(c.BaseComponents) > 0 {
		bases := make([]string, len(c.BaseComponents))
		for i, b := range c.BaseComponents {
			bases[i] = b.String()
		}
		sb.WriteString(" : " + strings.Join(bases, ", "))
	}
	sb.WriteString(" { ... }")
	return sb.String()
}

// ComponentInit is a named application of a component to concrete type
// arguments: .init name = C<args>.
type ComponentInit struct {
	Token        token.Token
	InstanceName QualifiedName
	Type         *ComponentType
}

func (c *ComponentInit) GetToken() token.Token { return c.Token }

func (c *ComponentInit) Children() []Node {
	if c.Type == nil {
		return nil
	}
	return []Node{c.Type}
}

func (c *ComponentInit) Apply(Mapper) {}

func (c *ComponentInit) Clone() Node {
	res := &ComponentInit{Token: c.Token, InstanceName: c.InstanceName}
	if c.Type != nil {
		res.Type = c.Type.Clone().(*ComponentType)
	}
	return res
}

func (c *ComponentInit) String() string {
	return fmt.Sprintf(".init %s = %s", c.InstanceName, c.Type)
}
