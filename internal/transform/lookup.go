package transform

import (
	"github.com/funvibe/datalog/internal/ast"
)

// ComponentLookup resolves component names the way scoping demands: nested
// component definitions shadow outer ones, outer ones shadow globals. Type
// bindings participate because a type parameter may carry a component name.
type ComponentLookup struct {
	globals   map[string]*ast.Component
	enclosing map[*ast.Component]*ast.Component
}

func NewComponentLookup(program *ast.Program) *ComponentLookup {
	cl := &ComponentLookup{
		globals:   make(map[string]*ast.Component),
		enclosing: make(map[*ast.Component]*ast.Component),
	}
	for _, comp := range program.Components {
		cl.globals[comp.Type.Name] = comp
		cl.register(comp)
	}
	return cl
}

func (cl *ComponentLookup) register(parent *ast.Component) {
	for _, nested := range parent.Components {
		cl.enclosing[nested] = parent
		cl.register(nested)
	}
}

// GetComponent resolves a component name within the given scope, applying
// the type binding first. Returns nil when the component is not defined;
// the caller emits nothing and leaves reporting to validation.
func (cl *ComponentLookup) GetComponent(scope *ast.Component, name string, binding TypeBinding) *ast.Component {
	if bound := binding.Find(ast.ParseQualifiedName(name)); !bound.Empty() {
		name = bound.Key()
	}

	for cur := scope; cur != nil; cur = cl.enclosing[cur] {
		for _, nested := range cur.Components {
			if nested.Type.Name == name {
				return nested
			}
		}
	}
	return cl.globals[name]
}
