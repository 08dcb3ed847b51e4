package ast

import (
	"testing"
)

func TestQualifiedName(t *testing.T) {
	abc := NewQualifiedName("a", "b", "c")
	if abc.String() != "a.b.c" {
		t.Errorf("String() = %q, want a.b.c", abc.String())
	}

	parsed := ParseQualifiedName("a.b.c")
	if !abc.Equal(parsed) {
		t.Errorf("parse/construct mismatch: %s vs %s", abc, parsed)
	}

	// order of qualifiers is significant
	cba := NewQualifiedName("c", "b", "a")
	if abc.Equal(cba) {
		t.Errorf("a.b.c must not equal c.b.a")
	}

	inst := NewQualifiedName("I").Concat(NewQualifiedName("q"))
	if inst.String() != "I.q" {
		t.Errorf("Concat = %q, want I.q", inst)
	}

	// concat copies; the operands stay intact
	if len(NewQualifiedName("I").Qualifiers()) != 1 {
		t.Errorf("Concat must not mutate its receiver")
	}

	var empty QualifiedName
	if !empty.Empty() {
		t.Errorf("zero name must be empty")
	}
}

func buildClause() *Clause {
	head := &Atom{Name: ParseQualifiedName("r")}
	head.AddArgument(&Variable{Name: "x"})
	head.AddArgument(&RecordInit{Args: []Argument{
		&NumericConstant{Value: "1", Kind: NumericSigned},
		&StringConstant{Value: "s"},
	}})

	body := &Atom{Name: ParseQualifiedName("q")}
	body.AddArgument(&Variable{Name: "x"})

	clause := &Clause{Head: head}
	clause.AddToBody(body)
	clause.AddToBody(&Negation{Atom: &Atom{Name: ParseQualifiedName("s")}})
	return clause
}

func TestCloneIsDeep(t *testing.T) {
	clause := buildClause()
	cloned := clause.Clone().(*Clause)

	if clause.String() != cloned.String() {
		t.Fatalf("clone differs: %s vs %s", clause, cloned)
	}

	// mutating the clone leaves the original alone
	cloned.Head.Args[0].(*Variable).SetName("y")
	if clause.Head.Args[0].(*Variable).Name != "x" {
		t.Errorf("clone shares variable state with the original")
	}

	cloned.Head.SetName(ParseQualifiedName("other"))
	if clause.Head.Name.String() != "r" {
		t.Errorf("clone shares the head atom")
	}
}

func TestApplyRewritesChildren(t *testing.T) {
	clause := buildClause()

	var rename MapperFunc
	rename = func(n Node) Node {
		if v, ok := n.(*Variable); ok {
			return &Variable{Token: v.Token, Name: "_" + v.Name}
		}
		n.Apply(rename)
		return n
	}
	clause.Apply(rename)

	if got := clause.Head.Args[0].(*Variable).Name; got != "_x" {
		t.Errorf("head variable not rewritten: %q", got)
	}
	if got := clause.Body[0].(*Atom).Args[0].(*Variable).Name; got != "_x" {
		t.Errorf("body variable not rewritten: %q", got)
	}
}

func TestWalkVisitsEveryArgument(t *testing.T) {
	clause := buildClause()

	count := 0
	WalkArguments(clause, func(Argument) { count++ })

	// x, record, 1, "s" in the head; x in the body
	if count != 5 {
		t.Errorf("visited %d arguments, want 5", count)
	}
}

func TestIsFact(t *testing.T) {
	fact := &Clause{Head: &Atom{Name: ParseQualifiedName("r")}}
	if !IsFact(fact) || IsRule(fact) {
		t.Errorf("clause without body must be a fact")
	}

	rule := buildClause()
	if IsFact(rule) || !IsRule(rule) {
		t.Errorf("clause with body must be a rule")
	}

	// an aggregator in the head disqualifies a fact
	agg := &Clause{Head: &Atom{Name: ParseQualifiedName("r")}}
	agg.Head.AddArgument(&Aggregator{Op: AggCount})
	if IsFact(agg) {
		t.Errorf("head aggregator must disqualify the fact")
	}
	if !IsRule(agg) {
		t.Errorf("head aggregator still makes a rule")
	}
}

func TestClauseNum(t *testing.T) {
	program := NewProgram()
	rel := &Relation{Name: ParseQualifiedName("r")}
	program.AddRelation(rel)

	mkFact := func() *Clause {
		return &Clause{Head: &Atom{Name: ParseQualifiedName("r")}}
	}
	mkRule := func() *Clause {
		c := mkFact()
		c.AddToBody(&Atom{Name: ParseQualifiedName("r")})
		return c
	}

	fact1 := mkFact()
	rule1 := mkRule()
	fact2 := mkFact()
	rule2 := mkRule()
	for _, c := range []*Clause{fact1, rule1, fact2, rule2} {
		rel.AddClause(c)
	}

	tests := []struct {
		clause *Clause
		want   int
	}{
		{fact1, 0},
		{rule1, 1},
		{fact2, 0},
		{rule2, 2},
	}
	for i, tt := range tests {
		got, ok := ClauseNum(program, tt.clause)
		if !ok {
			t.Fatalf("clause %d not found", i)
		}
		if got != tt.want {
			t.Errorf("clause %d numbered %d, want %d", i, got, tt.want)
		}
	}

	if _, ok := ClauseNum(program, mkFact()); ok {
		t.Errorf("unattached clause must not number")
	}
}

func TestIsRecursiveClause(t *testing.T) {
	rec := buildClause() // r(...) :- q(...), !s(...)
	if IsRecursiveClause(rec) {
		t.Errorf("clause without self reference is not recursive")
	}

	self := &Clause{Head: &Atom{Name: ParseQualifiedName("r")}}
	self.AddToBody(&Atom{Name: ParseQualifiedName("r")})
	if !IsRecursiveClause(self) {
		t.Errorf("self-referential clause must be recursive")
	}
}

func TestProgramRelationList(t *testing.T) {
	program := NewProgram()
	for _, name := range []string{"b", "a", "c"} {
		program.AddRelation(&Relation{Name: ParseQualifiedName(name)})
	}

	list := program.RelationList()
	if len(list) != 3 {
		t.Fatalf("want 3 relations, got %d", len(list))
	}
	for i, want := range []string{"a", "b", "c"} {
		if list[i].Name.String() != want {
			t.Errorf("position %d: got %s, want %s", i, list[i].Name, want)
		}
	}
}
