package ast

// Variables collects every named variable below the given node.
func Variables(root Node) []*Variable {
	var vars []*Variable
	Walk(root, func(n Node) {
		if v, ok := n.(*Variable); ok {
			vars = append(vars, v)
		}
	})
	return vars
}

// Records collects every record initializer below the given node.
func Records(root Node) []*RecordInit {
	var recs []*RecordInit
	Walk(root, func(n Node) {
		if r, ok := n.(*RecordInit); ok {
			recs = append(recs, r)
		}
	})
	return recs
}

// IsFact reports whether the clause is a fact: a head, no body literals and
// no aggregators in the head.
func IsFact(clause *Clause) bool {
	if clause.Head == nil {
		return false
	}
	if len(clause.Body) > 0 {
		return false
	}
	hasAggregates := false
	Walk(clause.Head, func(n Node) {
		if _, ok := n.(*Aggregator); ok {
			hasAggregates = true
		}
	})
	return !hasAggregates
}

// IsRule reports whether the clause is a rule rather than a fact.
func IsRule(clause *Clause) bool {
	return clause.Head != nil && !IsFact(clause)
}

// ClauseNum returns the number of the clause within its relation. Facts are
// numbered 0; rules count from 1 in clause-list order. Provenance
// instrumentation keys on these numbers, so the fact/rule split must stay
// stable. The second result is false when the clause is not attached to a
// relation of the program.
func ClauseNum(program *Program, clause *Clause) (int, bool) {
	if clause.Head == nil {
		return 0, false
	}
	rel := program.Relation(clause.Head.Name)
	if rel == nil {
		return 0, false
	}

	num := 1
	for _, cur := range rel.Clauses {
		isFact := len(cur.Body) == 0
		if cur == clause {
			if isFact {
				return 0, true
			}
			return num, true
		}
		if !isFact {
			num++
		}
	}
	return 0, false
}

// IsRecursiveClause reports whether the clause's head relation occurs in
// its own body.
func IsRecursiveClause(clause *Clause) bool {
	if clause.Head == nil {
		return false
	}
	name := clause.Head.Name
	recursive := false
	for _, lit := range clause.Body {
		Walk(lit, func(n Node) {
			if atom, ok := n.(*Atom); ok && atom.Name.Equal(name) {
				recursive = true
			}
		})
	}
	return recursive
}
