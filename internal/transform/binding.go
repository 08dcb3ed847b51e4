// Package transform expands component instantiations into concrete types,
// relations and clauses, removing components from the program.
package transform

import (
	"github.com/funvibe/datalog/internal/ast"
)

// TypeBinding maps formal type parameter names to actual type names. It is
// persistent: Extend returns a new binding and never mutates the receiver,
// so bindings of enclosing instantiations stay intact while recursing.
type TypeBinding struct {
	binding map[string]ast.QualifiedName
}

func NewTypeBinding() TypeBinding {
	return TypeBinding{binding: map[string]ast.QualifiedName{}}
}

// Find returns the bound actual for a name, or the zero name when unbound.
func (b TypeBinding) Find(name ast.QualifiedName) ast.QualifiedName {
	if actual, ok := b.binding[name.Key()]; ok {
		return actual
	}
	return ast.QualifiedName{}
}

// Extend binds the formal parameters to the actuals, resolving each actual
// through the current binding first so parameters can be forwarded through
// nested components.
func (b TypeBinding) Extend(formals, actuals []ast.QualifiedName) TypeBinding {
	res := TypeBinding{binding: make(map[string]ast.QualifiedName, len(b.binding)+len(formals))}
	for k, v := range b.binding {
		res.binding[k] = v
	}

	n := len(formals)
	if len(actuals) < n {
		n = len(actuals)
	}
	for i := 0; i < n; i++ {
		actual := actuals[i]
		if bound := b.Find(actual); !bound.Empty() {
			actual = bound
		}
		res.binding[formals[i].Key()] = actual
	}
	return res
}
