package ast

import (
	"fmt"
	"strings"

	"github.com/funvibe/datalog/internal/token"
)

// TypeDecl is an AST-level type declaration. The environment builder turns
// these into registry entries.
type TypeDecl interface {
	Node
	GetName() QualifiedName
	SetName(name QualifiedName)
	typeDecl()
}

// SubsetType declares a user primitive derived from one of the four root
// types: .type N <: number.
type SubsetType struct {
	Token token.Token
	Name  QualifiedName
	Base  RootAttr
}

func (t *SubsetType) GetToken() token.Token       { return t.Token }
func (t *SubsetType) typeDecl()                   {}
func (t *SubsetType) GetName() QualifiedName      { return t.Name }
func (t *SubsetType) SetName(name QualifiedName)  { t.Name = name }
func (t *SubsetType) Children() []Node            { return nil }
func (t *SubsetType) Apply(Mapper)                {}

func (t *SubsetType) Clone() Node {
	return &SubsetType{Token: t.Token, Name: t.Name, Base: t.Base}
}

func (t *SubsetType) String() string {
	return fmt.Sprintf(".type %s <: %s", t.Name, t.Base)
}

// UnionType declares a union of previously declared types:
// .type U = A | B.
type UnionType struct {
	Token    token.Token
	Name     QualifiedName
	Elements []QualifiedName
}

func (t *UnionType) GetToken() token.Token      { return t.Token }
func (t *UnionType) typeDecl()                  {}
func (t *UnionType) GetName() QualifiedName     { return t.Name }
func (t *UnionType) SetName(name QualifiedName) { t.Name = name }
func (t *UnionType) Children() []Node           { return nil }
func (t *UnionType) Apply(Mapper)               {}

// SetElement rewrites element i. Instantiation uses this to apply type
// bindings and mangled names.
func (t *UnionType) SetElement(i int, name QualifiedName) { t.Elements[i] = name }

func (t *UnionType) Clone() Node {
	return &UnionType{
		Token:    t.Token,
		Name:     t.Name,
		Elements: append([]QualifiedName(nil), t.Elements...),
	}
}

func (t *UnionType) String() string {
	elems := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		elems[i] = e.String()
	}
	return fmt.Sprintf(".type %s = %s", t.Name, strings.Join(elems, " | "))
}

// TypeField is a named field of a record type declaration.
type TypeField struct {
	Name string
	Type QualifiedName
}

// RecordType declares a record: .type P = [a:number, b:symbol].
type RecordType struct {
	Token  token.Token
	Name   QualifiedName
	Fields []TypeField
}

func (t *RecordType) GetToken() token.Token      { return t.Token }
func (t *RecordType) typeDecl()                  {}
func (t *RecordType) GetName() QualifiedName     { return t.Name }
func (t *RecordType) SetName(name QualifiedName) { t.Name = name }
func (t *RecordType) Children() []Node           { return nil }
func (t *RecordType) Apply(Mapper)               {}

// SetFieldType rewrites the type of field i.
func (t *RecordType) SetFieldType(i int, name QualifiedName) { t.Fields[i].Type = name }

func (t *RecordType) Clone() Node {
	return &RecordType{
		Token:  t.Token,
		Name:   t.Name,
		Fields: append([]TypeField(nil), t.Fields...),
	}
}

func (t *RecordType) String() string {
	fields := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		fields[i] = fmt.Sprintf("%s:%s", f.Name, f.Type)
	}
	return fmt.Sprintf(".type %s = [%s]", t.Name, strings.Join(fields, ", "))
}

// SumBranch is a named branch of a sum type declaration.
type SumBranch struct {
	Name string
	Type QualifiedName
}

// SumType declares a sum: .type S = a = T1 | b = T2. Branch names are
// unique within the sum.
type SumType struct {
	Token    token.Token
	Name     QualifiedName
	Branches []SumBranch
}

func (t *SumType) GetToken() token.Token      { return t.Token }
func (t *SumType) typeDecl()                  {}
func (t *SumType) GetName() QualifiedName     { return t.Name }
func (t *SumType) SetName(name QualifiedName) { t.Name = name }
func (t *SumType) Children() []Node           { return nil }
func (t *SumType) Apply(Mapper)               {}

// SetBranchType rewrites the payload type of branch i.
func (t *SumType) SetBranchType(i int, name QualifiedName) { t.Branches[i].Type = name }

func (t *SumType) Clone() Node {
	return &SumType{
		Token:    t.Token,
		Name:     t.Name,
		Branches: append([]SumBranch(nil), t.Branches...),
	}
}

func (t *SumType) String() string {
	branches := make([]string, len(t.Branches))
	for i, b := range t.Branches {
		branches[i] = fmt.Sprintf("%s = %s", b.Name, b.Type)
	}
	return fmt.Sprintf(".type %s = %s", t.Name, strings.Join(branches, " | "))
}
