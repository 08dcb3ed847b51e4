package typesystem

import (
	"sort"
	"strings"
)

// TypeSet is a value-level set of types over the lattice. Besides ordinary
// set capabilities it can represent the set of all types — the universal
// set — without being able to enumerate it. It is the basic entity of the
// sub- and supertype computations.
type TypeSet struct {
	all   bool
	types map[Type]struct{}
}

// NewTypeSet builds a set holding exactly the given types.
func NewTypeSet(types ...Type) TypeSet {
	s := TypeSet{types: make(map[Type]struct{}, len(types))}
	for _, t := range types {
		s.types[t] = struct{}{}
	}
	return s
}

// AllTypes returns the universal set.
func AllTypes() TypeSet {
	return TypeSet{all: true}
}

// IsAll reports whether this is the universal set.
func (s TypeSet) IsAll() bool { return s.all }

// Empty reports whether the set holds no types and is not universal.
func (s TypeSet) Empty() bool { return !s.all && len(s.types) == 0 }

// Size returns the number of types; the universal set has no size.
func (s TypeSet) Size() int { return len(s.types) }

func (s TypeSet) Contains(t Type) bool {
	if s.all {
		return true
	}
	_, ok := s.types[t]
	return ok
}

// Insert adds the type; inserting into the universal set is a no-op.
func (s *TypeSet) Insert(t Type) {
	if s.all {
		return
	}
	if s.types == nil {
		s.types = make(map[Type]struct{})
	}
	s.types[t] = struct{}{}
}

// InsertSet adds every type of the other set; a universal other set makes
// this one universal.
func (s *TypeSet) InsertSet(other TypeSet) {
	if s.all {
		return
	}
	if other.all {
		s.all = true
		s.types = nil
		return
	}
	for t := range other.types {
		s.Insert(t)
	}
}

// Types returns the contained types sorted by name; nil for the universal
// set, which cannot be enumerated.
func (s TypeSet) Types() []Type {
	if s.all {
		return nil
	}
	res := make([]Type, 0, len(s.types))
	for t := range s.types {
		res = append(res, t)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Name().Key() < res[j].Name().Key()
	})
	return res
}

// Copy returns an independent copy of the set.
func (s TypeSet) Copy() TypeSet {
	if s.all {
		return AllTypes()
	}
	res := TypeSet{types: make(map[Type]struct{}, len(s.types))}
	for t := range s.types {
		res.types[t] = struct{}{}
	}
	return res
}

func (s TypeSet) Equal(other TypeSet) bool {
	if s.all != other.all {
		return false
	}
	if s.all {
		return true
	}
	if len(s.types) != len(other.types) {
		return false
	}
	for t := range s.types {
		if _, ok := other.types[t]; !ok {
			return false
		}
	}
	return true
}

// IsSubsetOf reports whether every type of this set is in the other.
func (s TypeSet) IsSubsetOf(other TypeSet) bool {
	if s.all {
		return other.all
	}
	for t := range s.types {
		if !other.Contains(t) {
			return false
		}
	}
	return true
}

// Intersection computes the set of types contained in both sets; the
// universal set is the identity.
func Intersection(left, right TypeSet) TypeSet {
	if left.IsAll() {
		return right.Copy()
	}
	if right.IsAll() {
		return left.Copy()
	}
	res := NewTypeSet()
	for t := range left.types {
		if right.Contains(t) {
			res.Insert(t)
		}
	}
	return res
}

func (s TypeSet) String() string {
	if s.all {
		return "{ - all types - }"
	}
	names := make([]string, 0, len(s.types))
	for _, t := range s.Types() {
		names = append(names, t.Name().String())
	}
	return "{" + strings.Join(names, ",") + "}"
}
