package typesystem

import "strings"

// attrPrefix returns the one-character class prefix of a type: i/u/f/s for
// the primitive roots, r for records, + for sums. Unions take the prefix of
// the root covering all their members; a malformed union gets "?".
func attrPrefix(t Type) string {
	switch t.(type) {
	case *Record:
		return "r"
	case *Sum:
		return "+"
	}
	switch {
	case IsNumberType(t):
		return "i"
	case IsUnsignedType(t):
		return "u"
	case IsFloatType(t):
		return "f"
	case IsSymbolType(t):
		return "s"
	}
	return "?"
}

// Qualifier renders the deterministic one-line encoding of a type, used as
// a stable key by later passes. Results are memoized per environment;
// recursive occurrences render as the short prefix form, which keeps the
// encoding finite on cyclic types.
func (e *Environment) Qualifier(t Type) string {
	if res, ok := e.qualifierMemo[t]; ok {
		return res
	}
	res := qualify(t, make(map[Type]string))
	e.qualifierMemo[t] = res
	return res
}

func qualify(t Type, inProgress map[Type]string) string {
	if short, ok := inProgress[t]; ok {
		return short
	}
	short := attrPrefix(t) + ":" + t.Name().String()
	inProgress[t] = short

	switch cur := t.(type) {
	case *Union:
		elems := make([]string, len(cur.Elements()))
		for i, e := range cur.Elements() {
			elems[i] = qualify(e, inProgress)
		}
		return short + "[" + strings.Join(elems, ",") + "]"
	case *Record:
		fields := make([]string, len(cur.Fields()))
		for i, f := range cur.Fields() {
			fields[i] = f.Name + "#" + qualify(f.Type, inProgress)
		}
		return short + "{" + strings.Join(fields, ",") + "}"
	case *Sum:
		branches := make([]string, len(cur.Branches()))
		for i, b := range cur.Branches() {
			branches[i] = b.Name + "=" + qualify(b.Type, inProgress)
		}
		return short + "[" + strings.Join(branches, ";") + "]"
	default:
		return short
	}
}
