package typesystem

// isOfRootType determines whether a type is covered by the given root:
// roots match themselves, primitives follow their base chain, unions are of
// a root when every member is. Visited tracking terminates the traversal on
// recursive types.
func isOfRootType(t Type, root Type) bool {
	return isOfRootTypeVisited(t, root, make(map[Type]bool))
}

func isOfRootTypeVisited(t Type, root Type, seen map[Type]bool) bool {
	if seen[t] {
		return false
	}
	seen[t] = true

	switch cur := t.(type) {
	case *Primitive:
		if cur == root {
			return true
		}
		if cur.IsRoot() {
			return false
		}
		return cur.Base() == root || isOfRootTypeVisited(cur.Base(), root, seen)
	case *Union:
		if len(cur.Elements()) == 0 {
			return false
		}
		for _, elem := range cur.Elements() {
			if !isOfRootTypeVisited(elem, root, seen) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// IsNumberType determines whether the type is covered by the number root.
func IsNumberType(t Type) bool {
	return isOfRootType(t, t.Env().NumberType())
}

// IsUnsignedType determines whether the type is covered by the unsigned root.
func IsUnsignedType(t Type) bool {
	return isOfRootType(t, t.Env().UnsignedType())
}

// IsFloatType determines whether the type is covered by the float root.
func IsFloatType(t Type) bool {
	return isOfRootType(t, t.Env().FloatType())
}

// IsSymbolType determines whether the type is covered by the symbol root.
func IsSymbolType(t Type) bool {
	return isOfRootType(t, t.Env().SymbolType())
}

func IsRecordType(t Type) bool {
	_, ok := t.(*Record)
	return ok
}

func IsSumType(t Type) bool {
	_, ok := t.(*Sum)
	return ok
}

// IsNumericType determines whether the type is covered by any numeric root.
func IsNumericType(t Type) bool {
	return IsNumberType(t) || IsUnsignedType(t) || IsFloatType(t)
}

// isSubtypeOfUnion tests membership of a in the transitive closure of the
// union's elements, descending through nested unions.
func isSubtypeOfUnion(a Type, b *Union) bool {
	return unionReaches(b, a, make(map[Type]bool))
}

func unionReaches(from Type, target Type, seen map[Type]bool) bool {
	if from == target {
		return true
	}
	if seen[from] {
		return false
	}
	seen[from] = true
	if u, ok := from.(*Union); ok {
		for _, elem := range u.Elements() {
			if unionReaches(elem, target, seen) {
				return true
			}
		}
	}
	return false
}

// IsSubtypeOf determines whether a is a subtype of b. Records and sums are
// related by identity only; the nominal discipline is deliberate.
func IsSubtypeOf(a, b Type) bool {
	// a type is a subtype of itself
	if a == b {
		return true
	}

	// roots cover everything derived from them
	if p, ok := b.(*Primitive); ok && p.IsRoot() {
		return isOfRootType(a, p)
	}

	// primitive chains
	if p, ok := a.(*Primitive); ok && !p.IsRoot() {
		if IsSubtypeOf(p.Base(), b) {
			return true
		}
	}

	// union targets admit members transitively
	if u, ok := b.(*Union); ok {
		return isSubtypeOfUnion(a, u)
	}

	return false
}

// AreSubtypesOf determines whether every type of the set is a subtype of b.
func AreSubtypesOf(s TypeSet, b Type) bool {
	for _, t := range s.Types() {
		if !IsSubtypeOf(t, b) {
			return false
		}
	}
	return true
}

// IsRecursiveType determines whether a record or sum type contains itself.
func IsRecursiveType(t Type) bool {
	reaches := func(start []Type) bool {
		seen := make(map[Type]bool)
		var walk func(Type) bool
		walk = func(cur Type) bool {
			if cur == t {
				return true
			}
			if seen[cur] {
				return false
			}
			seen[cur] = true
			switch v := cur.(type) {
			case *Union:
				for _, e := range v.Elements() {
					if walk(e) {
						return true
					}
				}
			case *Record:
				for _, f := range v.Fields() {
					if walk(f.Type) {
						return true
					}
				}
			case *Sum:
				for _, b := range v.Branches() {
					if walk(b.Type) {
						return true
					}
				}
			}
			return false
		}
		for _, s := range start {
			if walk(s) {
				return true
			}
		}
		return false
	}

	switch v := t.(type) {
	case *Record:
		var start []Type
		for _, f := range v.Fields() {
			start = append(start, f.Type)
		}
		return reaches(start)
	case *Sum:
		var start []Type
		for _, b := range v.Branches() {
			start = append(start, b.Type)
		}
		return reaches(start)
	}
	return false
}

// GreatestCommonSubtypes computes the greatest common subtypes of two
// types. When both are unions this collects the union members of a that
// are subtypes of b, flattening nested unions; otherwise only equality and
// direct subtype relations contribute.
func GreatestCommonSubtypes(a, b Type) TypeSet {
	if a == b {
		return NewTypeSet(a)
	}

	if IsSubtypeOf(a, b) {
		return NewTypeSet(a)
	}
	if IsSubtypeOf(b, a) {
		return NewTypeSet(b)
	}

	res := NewTypeSet()
	if ua, okA := a.(*Union); okA {
		if _, okB := b.(*Union); okB {
			collectCommonSubtypes(ua, b, &res, make(map[Type]bool))
		}
	}
	return res
}

// collectCommonSubtypes descends into the union a, keeping every reachable
// type that is a subtype of b.
func collectCommonSubtypes(cur Type, b Type, res *TypeSet, seen map[Type]bool) {
	if seen[cur] {
		return
	}
	seen[cur] = true

	if IsSubtypeOf(cur, b) {
		res.Insert(cur)
		return
	}
	if u, ok := cur.(*Union); ok {
		for _, elem := range u.Elements() {
			collectCommonSubtypes(elem, b, res, seen)
		}
	}
}

// GreatestCommonSubtypesOfSet folds the pairwise computation over a set.
// The universal set yields the empty set: there is no common subtype of
// everything.
func GreatestCommonSubtypesOfSet(set TypeSet) TypeSet {
	if set.Empty() {
		return set.Copy()
	}
	if set.IsAll() {
		return NewTypeSet()
	}

	types := set.Types()
	res := NewTypeSet(types[0])
	for _, cur := range types[1:] {
		tmp := NewTypeSet()
		for _, r := range res.Types() {
			tmp.InsertSet(GreatestCommonSubtypes(r, cur))
		}
		res = tmp
	}
	return res
}

// PairwiseGreatestCommonSubtypes computes the set of pairwise greatest
// common subtypes of two sets. The empty set absorbs, the universal set is
// the identity.
func PairwiseGreatestCommonSubtypes(a, b TypeSet) TypeSet {
	if a.Empty() {
		return a.Copy()
	}
	if b.Empty() {
		return b.Copy()
	}
	if a.IsAll() {
		return b.Copy()
	}
	if b.IsAll() {
		return a.Copy()
	}

	res := NewTypeSet()
	for _, x := range a.Types() {
		for _, y := range b.Types() {
			res.InsertSet(GreatestCommonSubtypes(x, y))
		}
	}
	return res
}

// LeastCommonSupertypes computes the least common supertypes of two types.
// Without an obvious relation it scans every registered type for common
// supertypes and filters them to the minima.
func LeastCommonSupertypes(a, b Type) TypeSet {
	if a == b {
		return NewTypeSet(a)
	}

	if IsSubtypeOf(a, b) {
		return NewTypeSet(b)
	}
	if IsSubtypeOf(b, a) {
		return NewTypeSet(a)
	}

	superTypes := NewTypeSet()
	for _, cur := range a.Env().AllTypes() {
		if IsSubtypeOf(a, cur) && IsSubtypeOf(b, cur) {
			superTypes.Insert(cur)
		}
	}

	// filter out non-least supertypes
	res := NewTypeSet()
	for _, cur := range superTypes.Types() {
		least := true
		for _, other := range superTypes.Types() {
			if other != cur && IsSubtypeOf(other, cur) {
				least = false
				break
			}
		}
		if least {
			res.Insert(cur)
		}
	}
	return res
}

// LeastCommonSupertypesOfSet folds the pairwise computation over a set.
func LeastCommonSupertypesOfSet(set TypeSet) TypeSet {
	if set.Empty() {
		return set.Copy()
	}
	if set.IsAll() {
		return NewTypeSet()
	}

	types := set.Types()
	res := NewTypeSet(types[0])
	for _, cur := range types[1:] {
		tmp := NewTypeSet()
		for _, r := range res.Types() {
			tmp.InsertSet(LeastCommonSupertypes(r, cur))
		}
		res = tmp
	}
	return res
}

// PairwiseLeastCommonSupertypes computes the set of pairwise least common
// supertypes of two sets, with the same identity and absorption rules as
// the subtype direction.
func PairwiseLeastCommonSupertypes(a, b TypeSet) TypeSet {
	if a.Empty() {
		return a.Copy()
	}
	if b.Empty() {
		return b.Copy()
	}
	if a.IsAll() {
		return b.Copy()
	}
	if b.IsAll() {
		return a.Copy()
	}

	res := NewTypeSet()
	for _, x := range a.Types() {
		for _, y := range b.Types() {
			res.InsertSet(LeastCommonSupertypes(x, y))
		}
	}
	return res
}
