package typesystem

import (
	"testing"

	"github.com/funvibe/datalog/internal/ast"
)

func qn(parts ...string) ast.QualifiedName {
	return ast.NewQualifiedName(parts...)
}

func TestEnvironmentBasic(t *testing.T) {
	env := NewEnvironment()

	a := env.CreatePrimitive(qn("A"), ast.RootSigned)
	b := env.CreatePrimitive(qn("B"), ast.RootSymbol)

	u := env.CreateUnion(qn("U"))
	u.Add(a)
	u.Add(b)

	r := env.CreateRecord(qn("R"))
	r.Add("a", a)
	r.Add("b", b)

	if got := a.String(); got != "A <: number" {
		t.Errorf("A.String() = %q, want %q", got, "A <: number")
	}
	if got := b.String(); got != "B <: symbol" {
		t.Errorf("B.String() = %q, want %q", got, "B <: symbol")
	}
	if got := u.String(); got != "U = A | B" {
		t.Errorf("U.String() = %q, want %q", got, "U = A | B")
	}
	if got := r.String(); got != "R = ( a : A , b : B )" {
		t.Errorf("R.String() = %q, want %q", got, "R = ( a : A , b : B )")
	}
}

func TestCreateReturnsExisting(t *testing.T) {
	env := NewEnvironment()

	a := env.CreatePrimitive(qn("A"), ast.RootSigned)
	again := env.CreatePrimitive(qn("A"), ast.RootSymbol)
	if a != again {
		t.Errorf("second create should return the existing entry")
	}
	if again.Base() != env.NumberType() {
		t.Errorf("existing entry must keep its original base")
	}

	// a name bound to another kind yields nil
	if u := env.CreateUnion(qn("A")); u != nil {
		t.Errorf("creating a union under a primitive name should yield nil, got %v", u)
	}
}

func TestRootsAlwaysExist(t *testing.T) {
	env := NewEnvironment()
	for _, name := range []string{"number", "unsigned", "float", "symbol"} {
		if !env.IsType(qn(name)) {
			t.Errorf("root %s missing from fresh environment", name)
		}
	}
	if len(env.AllTypes()) != 4 {
		t.Errorf("fresh environment should hold exactly the four roots")
	}
}

func TestIsNumberType(t *testing.T) {
	env := NewEnvironment()

	n := env.NumberType()
	a := env.CreatePrimitive(qn("A"), ast.RootSigned)
	b := env.CreatePrimitive(qn("B"), ast.RootSigned)
	c := env.CreatePrimitive(qn("C"), ast.RootSymbol)

	if !IsNumberType(n) || !IsNumberType(a) || !IsNumberType(b) {
		t.Errorf("number-rooted types must be number types")
	}
	if !IsSymbolType(c) {
		t.Errorf("C must be a symbol type")
	}
	if IsSymbolType(n) || IsSymbolType(a) || IsSymbolType(b) || IsNumberType(c) {
		t.Errorf("root classification must be exclusive")
	}

	// union classification follows the members
	u := env.CreateUnion(qn("U"))
	u.Add(a)
	if !IsNumberType(u) {
		t.Errorf("union of number types must be a number type")
	}
	u.Add(b)
	if !IsNumberType(u) {
		t.Errorf("union of number types must stay a number type")
	}
	u.Add(c)
	if IsNumberType(u) || IsSymbolType(u) {
		t.Errorf("mixed union is neither number nor symbol")
	}

	// recursive unions terminate
	u2 := env.CreateUnion(qn("U2"))
	u2.Add(a)
	if !IsNumberType(u2) {
		t.Errorf("U2 with only A must be a number type")
	}
	u2.Add(u2)
	if IsNumberType(u2) {
		t.Errorf("self-recursive union must not classify as number")
	}
}

func TestIsSubtypeOfBasic(t *testing.T) {
	env := NewEnvironment()

	num := env.NumberType()
	sym := env.SymbolType()

	a := env.CreatePrimitive(qn("A"), ast.RootSigned)
	b := env.CreatePrimitive(qn("B"), ast.RootSigned)

	tests := []struct {
		name string
		a, b Type
		want bool
	}{
		{"number <: number", num, num, true},
		{"symbol <: symbol", sym, sym, true},
		{"number <: symbol", num, sym, false},
		{"symbol <: number", sym, num, false},
		{"A <: A", a, a, true},
		{"A <: number", a, num, true},
		{"number <: A", num, a, false},
		{"A <: B", a, b, false},
		{"B <: A", b, a, false},
		{"A <: symbol", a, sym, false},
	}
	for _, tt := range tests {
		if got := IsSubtypeOf(tt.a, tt.b); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIsSubtypeOfUnions(t *testing.T) {
	env := NewEnvironment()

	a := env.CreatePrimitive(qn("A"), ast.RootSigned)
	b := env.CreatePrimitive(qn("B"), ast.RootSigned)
	c := env.CreatePrimitive(qn("C"), ast.RootSigned)

	u := env.CreateUnion(qn("U"))
	u.Add(a)
	u.Add(b)

	// nested union reaches its members transitively
	v := env.CreateUnion(qn("V"))
	v.Add(u)
	v.Add(c)

	if !IsSubtypeOf(a, u) || !IsSubtypeOf(b, u) {
		t.Errorf("members must be subtypes of their union")
	}
	if IsSubtypeOf(c, u) {
		t.Errorf("C is not a member of U")
	}
	if !IsSubtypeOf(a, v) || !IsSubtypeOf(c, v) {
		t.Errorf("nested members must be subtypes of the outer union")
	}
	if !IsSubtypeOf(u, v) {
		t.Errorf("U is an element of V")
	}
	if IsSubtypeOf(v, u) {
		t.Errorf("outer union is not a subtype of its element")
	}
	// a homogeneous union is a subtype of its root
	if !IsSubtypeOf(u, env.NumberType()) {
		t.Errorf("number union must be a subtype of the number root")
	}
}

func TestRecordsAreNominal(t *testing.T) {
	env := NewEnvironment()

	a := env.CreatePrimitive(qn("A"), ast.RootSigned)

	r1 := env.CreateRecord(qn("R1"))
	r1.Add("x", a)
	r2 := env.CreateRecord(qn("R2"))
	r2.Add("x", a)

	if !IsSubtypeOf(r1, r1) {
		t.Errorf("records must be subtypes of themselves")
	}
	if IsSubtypeOf(r1, r2) || IsSubtypeOf(r2, r1) {
		t.Errorf("structurally equal records must not be related")
	}
	if IsSubtypeOf(r1, env.NumberType()) || IsSubtypeOf(r1, env.SymbolType()) {
		t.Errorf("records are not covered by any root")
	}

	s1 := env.CreateSum(qn("S1"))
	s1.Add("mk", a)
	s2 := env.CreateSum(qn("S2"))
	s2.Add("mk", a)
	if IsSubtypeOf(s1, s2) || IsSubtypeOf(s2, s1) {
		t.Errorf("structurally equal sums must not be related")
	}
}

func TestSumBranchUniqueness(t *testing.T) {
	env := NewEnvironment()
	a := env.CreatePrimitive(qn("A"), ast.RootSigned)

	s := env.CreateSum(qn("S"))
	if !s.Add("left", a) {
		t.Fatalf("first branch must insert")
	}
	if s.Add("left", a) {
		t.Errorf("duplicate branch name must be rejected")
	}
	if len(s.Branches()) != 1 {
		t.Errorf("rejected branch must not appear")
	}
}

func TestGreatestCommonSubtypes(t *testing.T) {
	env := NewEnvironment()

	num := env.NumberType()
	a := env.CreatePrimitive(qn("A"), ast.RootSigned)
	b := env.CreatePrimitive(qn("B"), ast.RootSigned)

	// a type with itself
	if got := GreatestCommonSubtypes(a, a); !got.Equal(NewTypeSet(a)) {
		t.Errorf("GCS(A,A) = %s, want {A}", got)
	}

	// a subtype against its supertype
	if got := GreatestCommonSubtypes(a, num); !got.Equal(NewTypeSet(a)) {
		t.Errorf("GCS(A,number) = %s, want {A}", got)
	}
	if got := GreatestCommonSubtypes(num, a); !got.Equal(NewTypeSet(a)) {
		t.Errorf("GCS(number,A) = %s, want {A}", got)
	}

	// unrelated primitives share nothing
	if got := GreatestCommonSubtypes(a, b); !got.Empty() {
		t.Errorf("GCS(A,B) = %s, want empty", got)
	}

	// two unions share their common members
	u := env.CreateUnion(qn("U"))
	u.Add(a)
	u.Add(b)
	v := env.CreateUnion(qn("V"))
	v.Add(b)

	if got := GreatestCommonSubtypes(u, v); !got.Equal(NewTypeSet(b)) {
		t.Errorf("GCS(U,V) = %s, want {B}", got)
	}

	// nested unions flatten during collection
	w := env.CreateUnion(qn("W"))
	w.Add(u)
	if got := GreatestCommonSubtypes(w, v); !got.Equal(NewTypeSet(b)) {
		t.Errorf("GCS(W,V) = %s, want {B}", got)
	}
}

func TestLeastCommonSupertypes(t *testing.T) {
	env := NewEnvironment()

	num := env.NumberType()
	a := env.CreatePrimitive(qn("A"), ast.RootSigned)
	b := env.CreatePrimitive(qn("B"), ast.RootSigned)

	if got := LeastCommonSupertypes(a, a); !got.Equal(NewTypeSet(a)) {
		t.Errorf("LCS(A,A) = %s, want {A}", got)
	}
	if got := LeastCommonSupertypes(a, num); !got.Equal(NewTypeSet(num)) {
		t.Errorf("LCS(A,number) = %s, want {number}", got)
	}

	// two siblings meet at their root
	if got := LeastCommonSupertypes(a, b); !got.Equal(NewTypeSet(num)) {
		t.Errorf("LCS(A,B) = %s, want {number}", got)
	}

	// a union covering both is less than the root and wins
	u := env.CreateUnion(qn("U"))
	u.Add(a)
	u.Add(b)
	if got := LeastCommonSupertypes(a, b); !got.Equal(NewTypeSet(u)) {
		t.Errorf("LCS(A,B) with U present = %s, want {U}", got)
	}
}

func TestTypeSetOperations(t *testing.T) {
	env := NewEnvironment()
	a := env.CreatePrimitive(qn("A"), ast.RootSigned)
	b := env.CreatePrimitive(qn("B"), ast.RootSigned)

	s := NewTypeSet(a)
	if s.Empty() || s.IsAll() || s.Size() != 1 {
		t.Fatalf("singleton set misbehaves: %s", s)
	}
	s.Insert(b)
	s.Insert(b)
	if s.Size() != 2 {
		t.Errorf("insert must be idempotent, size = %d", s.Size())
	}

	all := AllTypes()
	if !all.Contains(a) || all.Empty() {
		t.Errorf("universal set contains everything")
	}
	all.Insert(a)
	if !all.IsAll() {
		t.Errorf("inserting into the universal set keeps it universal")
	}

	inter := Intersection(all, s)
	if !inter.Equal(s) {
		t.Errorf("intersection with the universal set is the identity")
	}

	var grown TypeSet
	grown.InsertSet(NewTypeSet(a))
	grown.InsertSet(AllTypes())
	if !grown.IsAll() {
		t.Errorf("inserting the universal set makes the target universal")
	}
}

func TestIsRecursiveType(t *testing.T) {
	env := NewEnvironment()
	num := env.NumberType()

	// list = [head:number, tail:list] through direct self reference
	list := env.CreateRecord(qn("list"))
	list.Add("head", num)
	list.Add("tail", list)
	if !IsRecursiveType(list) {
		t.Errorf("self-referential record must be recursive")
	}

	flat := env.CreateRecord(qn("flat"))
	flat.Add("x", num)
	if IsRecursiveType(flat) {
		t.Errorf("flat record must not be recursive")
	}

	// recursion through a union
	tree := env.CreateRecord(qn("tree"))
	forest := env.CreateUnion(qn("forest"))
	forest.Add(tree)
	tree.Add("children", forest)
	if !IsRecursiveType(tree) {
		t.Errorf("record recursive through a union must be recursive")
	}
}
