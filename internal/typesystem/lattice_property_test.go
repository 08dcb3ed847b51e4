package typesystem

import (
	"testing"

	"github.com/funvibe/datalog/internal/ast"
)

// buildSampleEnvironment assembles an environment exercising every type
// kind, including a recursive record.
func buildSampleEnvironment() *Environment {
	env := NewEnvironment()

	a := env.CreatePrimitive(qn("A"), ast.RootSigned)
	b := env.CreatePrimitive(qn("B"), ast.RootSigned)
	s := env.CreatePrimitive(qn("S"), ast.RootSymbol)
	f := env.CreatePrimitive(qn("F"), ast.RootFloat)
	u := env.CreatePrimitive(qn("W"), ast.RootUnsigned)

	ab := env.CreateUnion(qn("AB"))
	ab.Add(a)
	ab.Add(b)

	mixed := env.CreateUnion(qn("Mixed"))
	mixed.Add(a)
	mixed.Add(s)

	rec := env.CreateRecord(qn("Pair"))
	rec.Add("x", a)
	rec.Add("y", s)

	list := env.CreateRecord(qn("List"))
	list.Add("head", env.NumberType())
	list.Add("tail", list)

	sum := env.CreateSum(qn("Shape"))
	sum.Add("circle", f)
	sum.Add("square", u)

	return env
}

func TestSubtypeReflexivity(t *testing.T) {
	env := buildSampleEnvironment()
	for _, typ := range env.AllTypes() {
		if !IsSubtypeOf(typ, typ) {
			t.Errorf("%s is not a subtype of itself", typ.Name())
		}
	}
}

func TestPrimitiveRootDominance(t *testing.T) {
	env := buildSampleEnvironment()
	roots := map[string]Type{
		"A": env.NumberType(),
		"B": env.NumberType(),
		"S": env.SymbolType(),
		"F": env.FloatType(),
		"W": env.UnsignedType(),
	}
	for name, root := range roots {
		typ := env.GetType(qn(name))
		if !IsSubtypeOf(typ, root) {
			t.Errorf("%s must be a subtype of its root %s", name, root.Name())
		}
		gcs := GreatestCommonSubtypes(typ, root)
		if !gcs.Contains(typ) {
			t.Errorf("GCS(%s, %s) must contain %s, got %s", name, root.Name(), name, gcs)
		}
	}
}

func TestUnionMembership(t *testing.T) {
	env := buildSampleEnvironment()
	union := env.GetType(qn("AB")).(*Union)

	for _, member := range union.Elements() {
		if !IsSubtypeOf(member, union) {
			t.Errorf("member %s must be a subtype of its union", member.Name())
		}
	}

	// nothing outside the member closure sneaks in
	for _, name := range []string{"S", "F", "W", "Pair", "Shape", "Mixed"} {
		outsider := env.GetType(qn(name))
		if IsSubtypeOf(outsider, union) {
			t.Errorf("%s must not be a subtype of AB", name)
		}
	}
}

func TestLatticeLaws(t *testing.T) {
	env := buildSampleEnvironment()

	all := AllTypes()
	empty := NewTypeSet()

	for _, typ := range env.AllTypes() {
		single := NewTypeSet(typ)

		// ⊤ is the identity
		if got := PairwiseGreatestCommonSubtypes(single, all); !got.Equal(single) {
			t.Errorf("GCS({%s}, ⊤) = %s, want {%s}", typ.Name(), got, typ.Name())
		}

		// ∅ absorbs
		if got := PairwiseGreatestCommonSubtypes(single, empty); !got.Empty() {
			t.Errorf("GCS({%s}, ∅) = %s, want ∅", typ.Name(), got)
		}
	}

	// commutativity over all pairs
	types := env.AllTypes()
	for _, x := range types {
		for _, y := range types {
			lr := GreatestCommonSubtypes(x, y)
			rl := GreatestCommonSubtypes(y, x)
			if !lr.Equal(rl) {
				t.Errorf("GCS(%s,%s)=%s differs from GCS(%s,%s)=%s",
					x.Name(), y.Name(), lr, y.Name(), x.Name(), rl)
			}
		}
	}

	// applying GCS monotonically shrinks
	set := NewTypeSet(types...)
	for _, y := range types {
		next := PairwiseGreatestCommonSubtypes(set, NewTypeSet(y))
		for _, kept := range next.Types() {
			subsumed := false
			for _, prev := range set.Types() {
				if IsSubtypeOf(kept, prev) {
					subsumed = true
					break
				}
			}
			if !subsumed {
				t.Errorf("meet with %s introduced %s not below the previous set",
					y.Name(), kept.Name())
			}
		}
		set = next
	}
}

func TestQualifierEncoding(t *testing.T) {
	env := buildSampleEnvironment()

	tests := []struct {
		typ  string
		want string
	}{
		{"A", "i:A"},
		{"W", "u:W"},
		{"F", "f:F"},
		{"S", "s:S"},
		{"AB", "i:AB[i:A,i:B]"},
		{"Pair", "r:Pair{x#i:A,y#s:S}"},
		{"Shape", "+:Shape[circle=f:F;square=u:W]"},
		{"List", "r:List{head#i:number,tail#r:List}"},
	}
	for _, tt := range tests {
		typ := env.GetType(qn(tt.typ))
		if got := env.Qualifier(typ); got != tt.want {
			t.Errorf("Qualifier(%s) = %q, want %q", tt.typ, got, tt.want)
		}
	}

	// memoized: second lookup renders identically
	list := env.GetType(qn("List"))
	if first, second := env.Qualifier(list), env.Qualifier(list); first != second {
		t.Errorf("qualifier must be stable: %q vs %q", first, second)
	}
}
