package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/funvibe/datalog/internal/token"
)

// Variable is a named variable occurring at an argument position.
type Variable struct {
	Token token.Token
	Name  string
}

func (v *Variable) GetToken() token.Token { return v.Token }
func (v *Variable) argumentNode()         {}
func (v *Variable) Children() []Node      { return nil }
func (v *Variable) Apply(Mapper)          {}

func (v *Variable) SetName(name string) { v.Name = name }

func (v *Variable) Clone() Node    { return &Variable{Token: v.Token, Name: v.Name} }
func (v *Variable) String() string { return v.Name }

// UnnamedVariable is the wildcard argument "_".
type UnnamedVariable struct {
	Token token.Token
}

func (u *UnnamedVariable) GetToken() token.Token { return u.Token }
func (u *UnnamedVariable) argumentNode()         {}
func (u *UnnamedVariable) Children() []Node      { return nil }
func (u *UnnamedVariable) Apply(Mapper)          {}
func (u *UnnamedVariable) Clone() Node           { return &UnnamedVariable{Token: u.Token} }
func (u *UnnamedVariable) String() string        { return "_" }

// Counter is the "$" auto-increment argument.
type Counter struct {
	Token token.Token
}

func (c *Counter) GetToken() token.Token { return c.Token }
func (c *Counter) argumentNode()         {}
func (c *Counter) Children() []Node      { return nil }
func (c *Counter) Apply(Mapper)          {}
func (c *Counter) Clone() Node           { return &Counter{Token: c.Token} }
func (c *Counter) String() string        { return "$" }

// StringConstant is a quoted symbol constant.
type StringConstant struct {
	Token token.Token
	Value string
}

func (s *StringConstant) GetToken() token.Token { return s.Token }
func (s *StringConstant) argumentNode()         {}
func (s *StringConstant) Children() []Node      { return nil }
func (s *StringConstant) Apply(Mapper)          {}

func (s *StringConstant) Clone() Node {
	return &StringConstant{Token: s.Token, Value: s.Value}
}

func (s *StringConstant) String() string { return strconv.Quote(s.Value) }

// NumericKind classifies a numeric constant's spelling.
type NumericKind int

const (
	// NumericUnknown admits any numeric root the spelling parses as.
	NumericUnknown NumericKind = iota
	NumericSigned
	NumericUnsigned
	NumericFloat
)

// NumericConstant keeps the raw spelling; admissibility as signed, unsigned
// or float is decided from the spelling during type analysis.
type NumericConstant struct {
	Token token.Token
	Value string
	Kind  NumericKind
}

func (n *NumericConstant) GetToken() token.Token { return n.Token }
func (n *NumericConstant) argumentNode()         {}
func (n *NumericConstant) Children() []Node      { return nil }
func (n *NumericConstant) Apply(Mapper)          {}

func (n *NumericConstant) Clone() Node {
	return &NumericConstant{Token: n.Token, Value: n.Value, Kind: n.Kind}
}

func (n *NumericConstant) String() string { return n.Value }

// CanParseSigned reports whether the spelling fits a signed 64-bit value.
func (n *NumericConstant) CanParseSigned() bool {
	_, err := strconv.ParseInt(n.Value, 10, 64)
	return err == nil
}

// CanParseUnsigned reports whether the spelling fits an unsigned 64-bit value.
func (n *NumericConstant) CanParseUnsigned() bool {
	v := strings.TrimSuffix(n.Value, "u")
	_, err := strconv.ParseUint(v, 10, 64)
	return err == nil
}

// CanParseFloat reports whether the spelling fits a float value.
func (n *NumericConstant) CanParseFloat() bool {
	_, err := strconv.ParseFloat(n.Value, 64)
	return err == nil
}

// NilConstant is the empty record constant "nil".
type NilConstant struct {
	Token token.Token
}

func (n *NilConstant) GetToken() token.Token { return n.Token }
func (n *NilConstant) argumentNode()         {}
func (n *NilConstant) Children() []Node      { return nil }
func (n *NilConstant) Apply(Mapper)          {}
func (n *NilConstant) Clone() Node           { return &NilConstant{Token: n.Token} }
func (n *NilConstant) String() string        { return "nil" }

// FunctorOp is an intrinsic functor operation.
type FunctorOp string

const (
	OpAdd    FunctorOp = "+"
	OpSub    FunctorOp = "-"
	OpMul    FunctorOp = "*"
	OpDiv    FunctorOp = "/"
	OpMod    FunctorOp = "%"
	OpExp    FunctorOp = "^"
	OpNeg    FunctorOp = "neg"
	OpOrd    FunctorOp = "ord"
	OpStrlen FunctorOp = "strlen"
	OpCat    FunctorOp = "cat"
	OpSubstr FunctorOp = "substr"
	OpToNum  FunctorOp = "to_number"
	OpToStr  FunctorOp = "to_string"
)

// IsOverloaded reports whether the functor is defined for more than one
// numeric root; the operands and result of an overloaded functor are forced
// to subtypes of a common base type.
func (op FunctorOp) IsOverloaded() bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpExp, OpNeg:
		return true
	}
	return false
}

// IsInfix reports whether the functor prints between its operands.
func (op FunctorOp) IsInfix() bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpExp:
		return true
	}
	return false
}

// RootAttr names one of the four built-in root types an attribute-level
// declaration can refer to.
type RootAttr int

const (
	RootSigned RootAttr = iota
	RootUnsigned
	RootFloat
	RootSymbol
)

func (r RootAttr) String() string {
	switch r {
	case RootSigned:
		return "number"
	case RootUnsigned:
		return "unsigned"
	case RootFloat:
		return "float"
	case RootSymbol:
		return "symbol"
	}
	return "?"
}

// nonOverloadedSignatures maps each non-overloaded intrinsic to its argument
// and return roots.
var nonOverloadedSignatures = map[FunctorOp]struct {
	args []RootAttr
	ret  RootAttr
}{
	OpOrd:    {args: []RootAttr{RootSymbol}, ret: RootSigned},
	OpStrlen: {args: []RootAttr{RootSymbol}, ret: RootSigned},
	OpCat:    {args: []RootAttr{RootSymbol, RootSymbol}, ret: RootSymbol},
	OpSubstr: {args: []RootAttr{RootSymbol, RootSigned, RootSigned}, ret: RootSymbol},
	OpToNum:  {args: []RootAttr{RootSymbol}, ret: RootSigned},
	OpToStr:  {args: []RootAttr{RootSigned}, ret: RootSymbol},
}

// IntrinsicFunctor applies a built-in functor to arguments.
type IntrinsicFunctor struct {
	Token token.Token
	Op    FunctorOp
	Args  []Argument
}

func (f *IntrinsicFunctor) GetToken() token.Token { return f.Token }
func (f *IntrinsicFunctor) argumentNode()         {}

func (f *IntrinsicFunctor) Children() []Node {
	res := make([]Node, len(f.Args))
	for i, a := range f.Args {
		res[i] = a
	}
	return res
}

func (f *IntrinsicFunctor) Clone() Node {
	res := &IntrinsicFunctor{Token: f.Token, Op: f.Op}
	for _, a := range f.Args {
		res.Args = append(res.Args, a.Clone().(Argument))
	}
	return res
}

func (f *IntrinsicFunctor) Apply(m Mapper) {
	for i, a := range f.Args {
		f.Args[i] = m.Map(a).(Argument)
	}
}

// ReturnType returns the return root of a non-overloaded functor; ok is
// false for overloaded functors, whose typing goes through the common-base
// constraint instead.
func (f *IntrinsicFunctor) ReturnType() (RootAttr, bool) {
	sig, ok := nonOverloadedSignatures[f.Op]
	if !ok {
		return 0, false
	}
	return sig.ret, true
}

// ArgType returns the declared root of argument i of a non-overloaded
// functor.
func (f *IntrinsicFunctor) ArgType(i int) (RootAttr, bool) {
	sig, ok := nonOverloadedSignatures[f.Op]
	if !ok || i >= len(sig.args) {
		return 0, false
	}
	return sig.args[i], true
}

func (f *IntrinsicFunctor) String() string {
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = a.String()
	}
	if f.Op.IsInfix() && len(args) == 2 {
		return fmt.Sprintf("(%s%s%s)", args[0], f.Op, args[1])
	}
	return fmt.Sprintf("%s(%s)", f.Op, strings.Join(args, ","))
}

// UserFunctor applies a user-declared functor. SetTypes can attach argument
// and return roots to the node; the type analysis does not read them and
// takes the roots from the program's matching FunctorDeclaration instead.
type UserFunctor struct {
	Token token.Token
	Name  string
	Args  []Argument

	argTypes   []RootAttr
	returnType RootAttr
	typed      bool
}

func (f *UserFunctor) GetToken() token.Token { return f.Token }
func (f *UserFunctor) argumentNode()         {}

func (f *UserFunctor) Children() []Node {
	res := make([]Node, len(f.Args))
	for i, a := range f.Args {
		res[i] = a
	}
	return res
}

func (f *UserFunctor) Clone() Node {
	res := &UserFunctor{Token: f.Token, Name: f.Name}
	for _, a := range f.Args {
		res.Args = append(res.Args, a.Clone().(Argument))
	}
	if f.typed {
		res.SetTypes(append([]RootAttr(nil), f.argTypes...), f.returnType)
	}
	return res
}

func (f *UserFunctor) Apply(m Mapper) {
	for i, a := range f.Args {
		f.Args[i] = m.Map(a).(Argument)
	}
}

// SetTypes attaches the declared argument and return roots.
func (f *UserFunctor) SetTypes(args []RootAttr, ret RootAttr) {
	f.argTypes = args
	f.returnType = ret
	f.typed = true
}

// Types returns the declared roots; ok is false until SetTypes ran.
func (f *UserFunctor) Types() (args []RootAttr, ret RootAttr, ok bool) {
	return f.argTypes, f.returnType, f.typed
}

func (f *UserFunctor) String() string {
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("@%s(%s)", f.Name, strings.Join(args, ","))
}

// FunctorDeclaration is a .declfun declaration giving a user functor its
// signature.
type FunctorDeclaration struct {
	Token      token.Token
	Name       string
	ArgTypes   []RootAttr
	ReturnType RootAttr
}

func (d *FunctorDeclaration) GetToken() token.Token { return d.Token }
func (d *FunctorDeclaration) Children() []Node      { return nil }
func (d *FunctorDeclaration) Apply(Mapper)          {}

func (d *FunctorDeclaration) Arity() int { return len(d.ArgTypes) }

func (d *FunctorDeclaration) Clone() Node {
	return &FunctorDeclaration{
		Token:      d.Token,
		Name:       d.Name,
		ArgTypes:   append([]RootAttr(nil), d.ArgTypes...),
		ReturnType: d.ReturnType,
	}
}

func (d *FunctorDeclaration) String() string {
	args := make([]string, len(d.ArgTypes))
	for i, a := range d.ArgTypes {
		args[i] = a.String()
	}
	return fmt.Sprintf(".declfun %s(%s): %s", d.Name, strings.Join(args, ","), d.ReturnType)
}

// RecordInit builds a record value [e1,...,ek]. Type is the declared record
// type when the source names one; when nil the type is inferred.
type RecordInit struct {
	Token token.Token
	Type  *QualifiedName
	Args  []Argument
}

func (r *RecordInit) GetToken() token.Token { return r.Token }
func (r *RecordInit) argumentNode()         {}

func (r *RecordInit) SetType(name QualifiedName) { r.Type = &name }

func (r *RecordInit) Children() []Node {
	res := make([]Node, len(r.Args))
	for i, a := range r.Args {
		res[i] = a
	}
	return res
}

func (r *RecordInit) Clone() Node {
	res := &RecordInit{Token: r.Token}
	if r.Type != nil {
		t := *r.Type
		res.Type = &t
	}
	for _, a := range r.Args {
		res.Args = append(res.Args, a.Clone().(Argument))
	}
	return res
}

func (r *RecordInit) Apply(m Mapper) {
	for i, a := range r.Args {
		r.Args[i] = m.Map(a).(Argument)
	}
}

func (r *RecordInit) String() string {
	args := make([]string, len(r.Args))
	for i, a := range r.Args {
		args[i] = a.String()
	}
	if r.Type != nil {
		return fmt.Sprintf("%s [%s]", r.Type, strings.Join(args, ","))
	}
	return fmt.Sprintf("[%s]", strings.Join(args, ","))
}

// SumInit injects a value into a branch of a sum type.
type SumInit struct {
	Token  token.Token
	Type   QualifiedName
	Branch string
	Arg    Argument
}

func (s *SumInit) GetToken() token.Token { return s.Token }
func (s *SumInit) argumentNode()         {}

func (s *SumInit) SetType(name QualifiedName) { s.Type = name }

func (s *SumInit) Children() []Node { return []Node{s.Arg} }

func (s *SumInit) Clone() Node {
	return &SumInit{Token: s.Token, Type: s.Type, Branch: s.Branch, Arg: s.Arg.Clone().(Argument)}
}

func (s *SumInit) Apply(m Mapper) {
	s.Arg = m.Map(s.Arg).(Argument)
}

func (s *SumInit) String() string {
	return fmt.Sprintf("@%s %s[%s]", s.Type, s.Branch, s.Arg)
}

// TypeCast converts a value into the named type.
type TypeCast struct {
	Token token.Token
	Value Argument
	Type  QualifiedName
}

func (t *TypeCast) GetToken() token.Token { return t.Token }
func (t *TypeCast) argumentNode()         {}

func (t *TypeCast) SetType(name QualifiedName) { t.Type = name }

func (t *TypeCast) Children() []Node { return []Node{t.Value} }

func (t *TypeCast) Clone() Node {
	return &TypeCast{Token: t.Token, Value: t.Value.Clone().(Argument), Type: t.Type}
}

func (t *TypeCast) Apply(m Mapper) {
	t.Value = m.Map(t.Value).(Argument)
}

func (t *TypeCast) String() string {
	return fmt.Sprintf("as(%s,%s)", t.Value, t.Type)
}

// AggregateOp is the operator of an aggregation.
type AggregateOp string

const (
	AggMin   AggregateOp = "min"
	AggMax   AggregateOp = "max"
	AggSum   AggregateOp = "sum"
	AggCount AggregateOp = "count"
	AggMean  AggregateOp = "mean"
)

// Aggregator computes a value over a sub-query. Expr is the aggregated
// target expression, absent for count.
type Aggregator struct {
	Token token.Token
	Op    AggregateOp
	Expr  Argument
	Body  []Literal
}

func (a *Aggregator) GetToken() token.Token { return a.Token }
func (a *Aggregator) argumentNode()         {}

func (a *Aggregator) Children() []Node {
	var res []Node
	if a.Expr != nil {
		res = append(res, a.Expr)
	}
	for _, l := range a.Body {
		res = append(res, l)
	}
	return res
}

func (a *Aggregator) Clone() Node {
	res := &Aggregator{Token: a.Token, Op: a.Op}
	if a.Expr != nil {
		res.Expr = a.Expr.Clone().(Argument)
	}
	for _, l := range a.Body {
		res.Body = append(res.Body, l.Clone().(Literal))
	}
	return res
}

func (a *Aggregator) Apply(m Mapper) {
	if a.Expr != nil {
		a.Expr = m.Map(a.Expr).(Argument)
	}
	for i, l := range a.Body {
		a.Body[i] = m.Map(l).(Literal)
	}
}

func (a *Aggregator) String() string {
	var sb strings.Builder
	sb.WriteString(string(a.Op))
	if a.Expr != nil {
		sb.WriteString(" ")
		sb.WriteString(a.Expr.String())
	}
	sb.WriteString(" : ")
	body := make([]string, len(a.Body))
	for i, l := range a.Body {
		body[i] = l.String()
	}
	if len(body) > 1 {
		sb.WriteString("{ " + strings.Join(body, ", ") + " }")
	} else {
		sb.WriteString(strings.Join(body, ", "))
	}
	return sb.String()
}

// SubroutineArgument refers to an argument of an enclosing subroutine by
// index; used by later instrumentation passes.
type SubroutineArgument struct {
	Token token.Token
	Index int
}

func (s *SubroutineArgument) GetToken() token.Token { return s.Token }
func (s *SubroutineArgument) argumentNode()         {}
func (s *SubroutineArgument) Children() []Node      { return nil }
func (s *SubroutineArgument) Apply(Mapper)          {}

func (s *SubroutineArgument) Clone() Node {
	return &SubroutineArgument{Token: s.Token, Index: s.Index}
}

func (s *SubroutineArgument) String() string { return fmt.Sprintf("arg_%d", s.Index) }
