package transform

import (
	"github.com/funvibe/datalog/internal/ast"
	"github.com/funvibe/datalog/internal/config"
	"github.com/funvibe/datalog/internal/diagnostics"
	"github.com/funvibe/datalog/internal/pipeline"
)

// content accumulates the instantiated pieces of a component. The add
// methods detect duplicates where the language forbids them: types,
// relations, inputs and printsize directives error, outputs are accepted
// silently.
type content struct {
	types      []ast.TypeDecl
	relations  []*ast.Relation
	loads      []*ast.Load
	printSizes []*ast.PrintSize
	stores     []*ast.Store
}

func (c *content) addType(t ast.TypeDecl, report *diagnostics.Report) {
	for _, existing := range c.types {
		if existing.GetName().Equal(t.GetName()) {
			report.Add(diagnostics.NewError(diagnostics.ErrC001, t.GetToken(), t.GetName()).
				WithFollowup("previous definition", existing.GetToken()))
			break
		}
	}
	c.types = append(c.types, t)
}

func (c *content) addRelation(rel *ast.Relation, report *diagnostics.Report) {
	for _, existing := range c.relations {
		if existing.Name.Equal(rel.Name) {
			report.Add(diagnostics.NewError(diagnostics.ErrC002, rel.GetToken(), rel.Name).
				WithFollowup("previous definition", existing.GetToken()))
			break
		}
	}
	c.relations = append(c.relations, rel)
}

func (c *content) addLoad(io *ast.Load, report *diagnostics.Report) {
	for _, existing := range c.loads {
		if existing.Name.Equal(io.Name) {
			report.Add(diagnostics.NewError(diagnostics.ErrC003, io.GetToken(), io.Name).
				WithFollowup("previous definition", existing.GetToken()))
			break
		}
	}
	c.loads = append(c.loads, io)
}

func (c *content) addPrintSize(io *ast.PrintSize, report *diagnostics.Report) {
	for _, existing := range c.printSizes {
		if existing.Name.Equal(io.Name) {
			report.Add(diagnostics.NewError(diagnostics.ErrC003, io.GetToken(), io.Name).
				WithFollowup("previous definition", existing.GetToken()))
			break
		}
	}
	c.printSizes = append(c.printSizes, io)
}

func (c *content) addStore(io *ast.Store, _ *diagnostics.Report) {
	// duplicate outputs are accepted
	c.stores = append(c.stores, io)
}

func (c *content) merge(other content, report *diagnostics.Report) {
	for _, t := range other.types {
		c.addType(t, report)
	}
	for _, rel := range other.relations {
		c.addRelation(rel, report)
	}
	for _, io := range other.loads {
		c.addLoad(io, report)
	}
	for _, io := range other.printSizes {
		c.addPrintSize(io, report)
	}
	for _, io := range other.stores {
		c.addStore(io, report)
	}
}

// Transformer expands every top-level instantiation and installs the
// result into the program.
type Transformer struct {
	MaxDepth int
}

func NewTransformer() *Transformer {
	return &Transformer{MaxDepth: config.DefaultInstantiationDepth}
}

// bindTypeDecl applies the type binding to the reference positions of a
// cloned local type: union members, record field types, sum branch
// payloads.
func bindTypeDecl(decl ast.TypeDecl, binding TypeBinding) {
	switch t := decl.(type) {
	case *ast.UnionType:
		for i, elem := range t.Elements {
			if bound := binding.Find(elem); !bound.Empty() {
				t.SetElement(i, bound)
			}
		}
	case *ast.RecordType:
		for i, field := range t.Fields {
			if bound := binding.Find(field.Type); !bound.Empty() {
				t.SetFieldType(i, bound)
			}
		}
	case *ast.SumType:
		for i, branch := range t.Branches {
			if bound := binding.Find(branch.Type); !bound.Empty() {
				t.SetBranchType(i, bound)
			}
		}
	}
}

// collectContent gathers clones of all the content of the component and its
// base components. Overridden carries the union of the override sets of the
// derivation chain walked so far; parent clauses on those heads are
// dropped.
func (t *Transformer) collectContent(component *ast.Component, binding TypeBinding,
	enclosing *ast.Component, lookup *ComponentLookup, res *content,
	orphans *[]*ast.Clause, overridden map[string]bool,
	report *diagnostics.Report, maxDepth int) {

	// start with relations and clauses of the base components
	for _, base := range component.BaseComponents {
		comp := lookup.GetComponent(enclosing, base.Name, binding)
		if comp == nil {
			continue
		}

		// link formal with actual type parameters
		activeBinding := binding.Extend(comp.Type.TypeParams, base.TypeParams)

		// instantiate sub-components of the base first
		for _, cur := range comp.Instantiations {
			nested := t.instantiatedContent(cur, enclosing, lookup, orphans, report,
				activeBinding, maxDepth-1)
			res.merge(nested, report)
		}

		// collect definitions from the base, hiding overridden heads
		superOverridden := make(map[string]bool, len(overridden)+len(component.Overridden))
		for k := range overridden {
			superOverridden[k] = true
		}
		for _, o := range component.Overridden {
			superOverridden[o] = true
		}
		t.collectContent(comp, activeBinding, comp, lookup, res, orphans,
			superOverridden, report, maxDepth)
	}

	// and continue with the local types
	for _, cur := range component.Types {
		decl := cur.Clone().(ast.TypeDecl)
		bindTypeDecl(decl, binding)
		res.addType(decl, report)
	}

	// and the local relations
	for _, cur := range component.Relations {
		rel := cur.Clone().(*ast.Relation)
		for _, attr := range rel.Attributes {
			if bound := binding.Find(attr.TypeName); !bound.Empty() {
				attr.SetTypeName(bound)
			}
		}
		res.addRelation(rel, report)
	}

	// and the local io directives
	for _, cur := range component.Loads {
		res.addLoad(cur.Clone().(*ast.Load), report)
	}
	for _, cur := range component.PrintSizes {
		res.addPrintSize(cur.Clone().(*ast.PrintSize), report)
	}
	for _, cur := range component.Stores {
		res.addStore(cur.Clone().(*ast.Store), report)
	}

	// index the available relations
	index := make(map[string]*ast.Relation, len(res.relations))
	for _, rel := range res.relations {
		index[rel.Name.Key()] = rel
	}

	// add the local clauses whose head is not overridden
	for _, cur := range component.Clauses {
		if cur.Head == nil {
			continue
		}
		head := cur.Head.Name.Qualifiers()[0]
		if overridden[head] {
			continue
		}
		clause := cur.Clone().(*ast.Clause)
		if rel := index[clause.Head.Name.Key()]; rel != nil {
			rel.AddClause(clause)
		} else {
			*orphans = append(*orphans, clause)
		}
	}

	// resolve orphans that became attachable at this level
	remaining := (*orphans)[:0]
	for _, cur := range *orphans {
		if rel := index[cur.Head.Name.Key()]; rel != nil {
			rel.AddClause(cur)
		} else {
			remaining = append(remaining, cur)
		}
	}
	*orphans = remaining
}

// instantiatedContent computes the content introduced by one init
// statement: nested instantiations first, then the component's own
// derivation chain, then the renaming of every local type and relation to
// its mangled instance name.
func (t *Transformer) instantiatedContent(init *ast.ComponentInit,
	enclosing *ast.Component, lookup *ComponentLookup, orphans *[]*ast.Clause,
	report *diagnostics.Report, binding TypeBinding, maxDepth int) content {

	res := content{}

	if maxDepth <= 0 {
		report.AddError(diagnostics.ErrC004, init.GetToken())
		return res
	}

	component := lookup.GetComponent(enclosing, init.Type.Name, binding)
	if component == nil {
		// not defined; validation reports it
		return res
	}

	activeBinding := binding.Extend(component.Type.TypeParams, init.Type.TypeParams)

	// instantiate nested components
	for _, cur := range component.Instantiations {
		nested := t.instantiatedContent(cur, component, lookup, orphans, report,
			activeBinding, maxDepth-1)
		res.merge(nested, report)
	}

	// collect all content in this component
	t.collectContent(component, activeBinding, enclosing, lookup, &res, orphans,
		map[string]bool{}, report, maxDepth)

	// mangle type names
	typeMapping := make(map[string]ast.QualifiedName, len(res.types))
	for _, cur := range res.types {
		newName := init.InstanceName.Concat(cur.GetName())
		typeMapping[cur.GetName().Key()] = newName
		cur.SetName(newName)
	}

	// mangle relation names
	relationMapping := make(map[string]ast.QualifiedName, len(res.relations))
	for _, cur := range res.relations {
		newName := init.InstanceName.Concat(cur.Name)
		relationMapping[cur.Name.Key()] = newName
		cur.SetName(newName)
	}

	// rewrite every reference in the accumulated content
	for _, cur := range res.relations {
		fixNames(cur, typeMapping, relationMapping)
	}
	for _, cur := range *orphans {
		fixNames(cur, typeMapping, relationMapping)
	}
	for _, cur := range res.loads {
		fixNames(cur, typeMapping, relationMapping)
	}
	for _, cur := range res.printSizes {
		fixNames(cur, typeMapping, relationMapping)
	}
	for _, cur := range res.stores {
		fixNames(cur, typeMapping, relationMapping)
	}
	for _, cur := range res.types {
		fixNames(cur, typeMapping, relationMapping)
	}

	return res
}

// fixNames rewrites type and relation references below the node through
// the forward mappings: attribute types, atoms, io targets, record fields,
// sum branches, union members, record and sum init tags, casts.
func fixNames(node ast.Node, typeMapping, relationMapping map[string]ast.QualifiedName) {
	ast.Walk(node, func(n ast.Node) {
		switch cur := n.(type) {
		case *ast.Attribute:
			if mapped, ok := typeMapping[cur.TypeName.Key()]; ok {
				cur.SetTypeName(mapped)
			}
		case *ast.Atom:
			if mapped, ok := relationMapping[cur.Name.Key()]; ok {
				cur.SetName(mapped)
			}
		case *ast.Load:
			if mapped, ok := relationMapping[cur.Name.Key()]; ok {
				cur.SetName(mapped)
			}
		case *ast.PrintSize:
			if mapped, ok := relationMapping[cur.Name.Key()]; ok {
				cur.SetName(mapped)
			}
		case *ast.Store:
			if mapped, ok := relationMapping[cur.Name.Key()]; ok {
				cur.SetName(mapped)
			}
		case *ast.RecordType:
			for i, field := range cur.Fields {
				if mapped, ok := typeMapping[field.Type.Key()]; ok {
					cur.SetFieldType(i, mapped)
				}
			}
		case *ast.SumType:
			for i, branch := range cur.Branches {
				if mapped, ok := typeMapping[branch.Type.Key()]; ok {
					cur.SetBranchType(i, mapped)
				}
			}
		case *ast.UnionType:
			for i, elem := range cur.Elements {
				if mapped, ok := typeMapping[elem.Key()]; ok {
					cur.SetElement(i, mapped)
				}
			}
		case *ast.RecordInit:
			if cur.Type != nil {
				if mapped, ok := typeMapping[cur.Type.Key()]; ok {
					cur.SetType(mapped)
				}
			}
		case *ast.SumInit:
			if mapped, ok := typeMapping[cur.Type.Key()]; ok {
				cur.SetType(mapped)
			}
		case *ast.TypeCast:
			if mapped, ok := typeMapping[cur.Type.Key()]; ok {
				cur.SetType(mapped)
			}
		}
	})
}

// Transform expands every top-level instantiation, installs the
// accumulated types and relations, attaches clauses to their relations and
// clears components and instantiations from the program. Clauses whose
// head has no matching relation stay on the program's free clause list.
func (t *Transformer) Transform(program *ast.Program, report *diagnostics.Report) {
	lookup := NewComponentLookup(program)

	var unbound []*ast.Clause

	for _, cur := range program.Instantiations {
		var orphans []*ast.Clause

		res := t.instantiatedContent(cur, nil, lookup, &orphans, report,
			NewTypeBinding(), t.MaxDepth)

		program.Types = append(program.Types, res.types...)
		for _, rel := range res.relations {
			if program.Relation(rel.Name) == nil {
				program.AddRelation(rel)
			}
		}
		program.Loads = append(program.Loads, res.loads...)
		program.PrintSizes = append(program.PrintSizes, res.printSizes...)
		program.Stores = append(program.Stores, res.stores...)

		for _, orphan := range orphans {
			if rel := program.Relation(orphan.Head.Name); rel != nil {
				rel.AddClause(orphan)
			} else {
				unbound = append(unbound, orphan)
			}
		}
	}

	// attach the program's free clauses
	for _, cur := range program.Clauses {
		if cur.Head != nil {
			if rel := program.Relation(cur.Head.Name); rel != nil {
				rel.AddClause(cur)
				continue
			}
		}
		unbound = append(unbound, cur)
	}

	// remember the remaining orphan clauses
	program.Clauses = unbound
	program.Instantiations = nil
	program.Components = nil
}

// Processor adapts the transformer to the pipeline.
type Processor struct{}

func (p *Processor) Process(tu *pipeline.TranslationUnit) *pipeline.TranslationUnit {
	if tu.Program == nil {
		return tu
	}
	t := NewTransformer()
	if tu.Config != nil && tu.Config.InstantiationDepth > 0 {
		t.MaxDepth = tu.Config.InstantiationDepth
	}
	t.Transform(tu.Program, tu.Report)
	return tu
}
