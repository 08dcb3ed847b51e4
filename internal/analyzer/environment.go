// Package analyzer builds the type environment and runs the clause type
// analysis over it.
package analyzer

import (
	"github.com/funvibe/datalog/internal/ast"
	"github.com/funvibe/datalog/internal/diagnostics"
	"github.com/funvibe/datalog/internal/typesystem"
)

// BuildEnvironment converts the program's type declarations into a fresh
// registry. Symbols are created in a first pass, references linked in a
// second, so forward and mutually recursive references resolve. Duplicate
// names, duplicate sum branches and unresolved references are skipped
// silently here; the reference validator reports the unresolved references
// and duplicate sum branches, but not duplicate type names. Running the builder
// twice over the same program yields registries of equal structure.
func BuildEnvironment(program *ast.Program) *typesystem.Environment {
	env := typesystem.NewEnvironment()

	// create all type symbols in a first step
	for _, decl := range program.Types {
		// support faulty codes with multiple definitions
		if env.IsType(decl.GetName()) {
			continue
		}

		switch t := decl.(type) {
		case *ast.SubsetType:
			env.CreatePrimitive(t.Name, t.Base)
		case *ast.UnionType:
			env.CreateUnion(t.Name)
		case *ast.RecordType:
			env.CreateRecord(t.Name)
		case *ast.SumType:
			env.CreateSum(t.Name)
		}
	}

	// link symbols in a second step
	for _, decl := range program.Types {
		switch t := decl.(type) {
		case *ast.UnionType:
			union, ok := env.GetType(t.Name).(*typesystem.Union)
			if !ok {
				continue // support faulty input
			}
			for _, elem := range t.Elements {
				if env.IsType(elem) {
					union.Add(env.GetType(elem))
				}
			}
		case *ast.RecordType:
			record, ok := env.GetType(t.Name).(*typesystem.Record)
			if !ok {
				continue
			}
			for _, field := range t.Fields {
				if env.IsType(field.Type) {
					record.Add(field.Name, env.GetType(field.Type))
				}
			}
		case *ast.SumType:
			sum, ok := env.GetType(t.Name).(*typesystem.Sum)
			if !ok {
				continue
			}
			for _, branch := range t.Branches {
				if !env.IsType(branch.Type) {
					continue
				}
				sum.Add(branch.Name, env.GetType(branch.Type))
			}
		}
	}

	return env
}

// ValidateReferences reports every type reference that does not name a
// registered type — union members, record fields, sum branch payloads and
// relation attribute types — and duplicate branch names within a sum. The
// builder itself stays silent on these so the analysis remains usable on
// partially valid input, and so rebuilding the environment does not repeat
// the diagnostics.
func ValidateReferences(program *ast.Program, env *typesystem.Environment, report *diagnostics.Report) {
	for _, decl := range program.Types {
		switch t := decl.(type) {
		case *ast.UnionType:
			for _, elem := range t.Elements {
				if !env.IsType(elem) {
					report.AddError(diagnostics.ErrR001, t.GetToken(), elem)
				}
			}
		case *ast.RecordType:
			for _, field := range t.Fields {
				if !env.IsType(field.Type) {
					report.AddError(diagnostics.ErrR001, t.GetToken(), field.Type)
				}
			}
		case *ast.SumType:
			seen := make(map[string]bool, len(t.Branches))
			for _, branch := range t.Branches {
				if !env.IsType(branch.Type) {
					report.AddError(diagnostics.ErrR001, t.GetToken(), branch.Type)
				}
				if seen[branch.Name] {
					report.AddError(diagnostics.ErrT003, t.GetToken(), branch.Name, t.Name)
				}
				seen[branch.Name] = true
			}
		}
	}

	for _, rel := range program.RelationList() {
		for _, attr := range rel.Attributes {
			if !env.IsType(attr.TypeName) {
				report.AddError(diagnostics.ErrR001, attr.GetToken(), attr.TypeName)
			}
		}
	}
}
