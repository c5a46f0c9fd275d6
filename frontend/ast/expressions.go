package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/impalago/infersema/frontend/types"
)

func (*EmptyExpr) exprNode()                 {}
func (*LiteralExpr) exprNode()               {}
func (*CharExpr) exprNode()                  {}
func (*StrExpr) exprNode()                   {}
func (*FnExpr) exprNode()                    {}
func (*PathExpr) exprNode()                  {}
func (*PrefixExpr) exprNode()                {}
func (*InfixExpr) exprNode()                 {}
func (*PostfixExpr) exprNode()               {}
func (*CastExpr) exprNode()                  {}
func (*DefiniteArrayExpr) exprNode()         {}
func (*RepeatedDefiniteArrayExpr) exprNode() {}
func (*IndefiniteArrayExpr) exprNode()       {}
func (*SimdExpr) exprNode()                  {}
func (*TupleExpr) exprNode()                 {}
func (*StructExpr) exprNode()                {}
func (*FieldExpr) exprNode()                 {}
func (*MapExpr) exprNode()                   {}
func (*BlockExpr) exprNode()                 {}
func (*IfExpr) exprNode()                    {}
func (*WhileExpr) exprNode()                 {}
func (*ForExpr) exprNode()                   {}

// EmptyExpr is the absent expression, such as a missing else branch
type EmptyExpr struct {
	Range
	Typed
}

func (e *EmptyExpr) Describe() string { return "()" }

type LiteralExpr struct {
	Range
	Typed
	Kind  types.PrimKind
	Value string
}

func (e *LiteralExpr) Describe() string { return e.Value + e.Kind.String() }

// Uint64 is the literal's value as an unsigned integer, if it is one
func (e *LiteralExpr) Uint64() (uint64, bool) {
	if !e.Kind.IsIntegral() {
		return 0, false
	}
	v, err := strconv.ParseUint(e.Value, 0, 64)
	return v, err == nil
}

type CharExpr struct {
	Range
	Typed
	Value byte
}

func (e *CharExpr) Describe() string { return strconv.QuoteRune(rune(e.Value)) }

type StrExpr struct {
	Range
	Typed
	Value string
}

func (e *StrExpr) Describe() string { return strconv.Quote(e.Value) }

// FnExpr is a lambda. Like FnDecl, when it returns, its last parameter is
// the synthesized return continuation.
type FnExpr struct {
	Range
	Typed
	Params []*LocalDecl
	Body   Expr
}

func (e *FnExpr) Describe() string {
	return fmt.Sprintf("|%s| %s", describeParams(e.Params), describeOrNil(e.Body))
}

func (e *FnExpr) ReturnParam() *LocalDecl { return returnParam(e.Params) }

type PathExpr struct {
	Range
	Typed
	Name string
	// Decl is nil when the name could not be resolved
	Decl ValueDecl
}

func (e *PathExpr) Describe() string { return e.Name }

type PrefixExpr struct {
	Range
	Typed
	Op  PrefixOp
	Rhs Expr
}

func (e *PrefixExpr) Describe() string { return e.Op.String() + describeOrNil(e.Rhs) }

// NewDeref wraps operand in an implicit dereference
func NewDeref(operand Expr) *PrefixExpr {
	return &PrefixExpr{Range: RangeOf(operand), Op: Deref, Rhs: operand}
}

type InfixExpr struct {
	Range
	Typed
	Op  InfixOp
	Lhs Expr
	Rhs Expr
}

func (e *InfixExpr) Describe() string {
	return fmt.Sprintf("%s %v %s", describeOrNil(e.Lhs), e.Op, describeOrNil(e.Rhs))
}

type PostfixExpr struct {
	Range
	Typed
	Op  PostfixOp
	Lhs Expr
}

func (e *PostfixExpr) Describe() string { return describeOrNil(e.Lhs) + e.Op.String() }

type CastExpr struct {
	Range
	Typed
	Lhs Expr
	To  ASTType
}

func (e *CastExpr) Describe() string {
	return fmt.Sprintf("%s as %s", describeOrNil(e.Lhs), describeOrNil(e.To))
}

type DefiniteArrayExpr struct {
	Range
	Typed
	Elems []Expr
}

func (e *DefiniteArrayExpr) Describe() string { return "[" + describeAll(e.Elems) + "]" }

type RepeatedDefiniteArrayExpr struct {
	Range
	Typed
	Value Expr
	Count uint64
}

func (e *RepeatedDefiniteArrayExpr) Describe() string {
	return fmt.Sprintf("[%s, ..%d]", describeOrNil(e.Value), e.Count)
}

type IndefiniteArrayExpr struct {
	Range
	Typed
	Dim  Expr
	Elem ASTType
}

func (e *IndefiniteArrayExpr) Describe() string {
	return fmt.Sprintf("[%s: %s]", describeOrNil(e.Dim), describeOrNil(e.Elem))
}

type SimdExpr struct {
	Range
	Typed
	Elems []Expr
}

func (e *SimdExpr) Describe() string { return "simd[" + describeAll(e.Elems) + "]" }

type TupleExpr struct {
	Range
	Typed
	Elems []Expr
}

func (e *TupleExpr) Describe() string { return "(" + describeAll(e.Elems) + ")" }

// FieldInit is a `name: value` pair inside a StructExpr
type FieldInit struct {
	Range
	Name  string
	Value Expr
}

func (f *FieldInit) Describe() string { return f.Name + ": " + describeOrNil(f.Value) }

type StructExpr struct {
	Range
	Typed
	Name     string
	Decl     *StructDecl
	TypeArgs []ASTType
	Fields   []*FieldInit

	// InstArgs are the inferred type arguments, one per type parameter of Decl
	InstArgs []types.Type
}

func (e *StructExpr) Describe() string {
	fields := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		fields[i] = f.Describe()
	}
	return fmt.Sprintf("%s%s { %s }", e.Name, describeTypeArgs(e.TypeArgs), strings.Join(fields, ", "))
}

type FieldExpr struct {
	Range
	Typed
	Lhs  Expr
	Name string
}

func (e *FieldExpr) Describe() string { return describeOrNil(e.Lhs) + "." + e.Name }

// MapExpr is a call when Lhs is a function, and an index otherwise
type MapExpr struct {
	Range
	Typed
	Lhs      Expr
	TypeArgs []ASTType
	Args     []Expr

	// FnMono is the instantiated type of Lhs at this call
	FnMono types.Type
	// InstArgs are the inferred type arguments of Lhs at this call
	InstArgs []types.Type
}

func (e *MapExpr) Describe() string {
	return fmt.Sprintf("%s%s(%s)", describeOrNil(e.Lhs), describeTypeArgs(e.TypeArgs), describeAll(e.Args))
}

type BlockExpr struct {
	Range
	Typed
	Stmts []Stmt
	// Expr is the trailing expression, nil if the block yields unit
	Expr Expr
}

func (e *BlockExpr) Describe() string {
	parts := make([]string, 0, len(e.Stmts)+1)
	for _, s := range e.Stmts {
		parts = append(parts, s.Describe()+";")
	}
	if e.Expr != nil {
		parts = append(parts, e.Expr.Describe())
	}
	return "{ " + strings.Join(parts, " ") + " }"
}

type IfExpr struct {
	Range
	Typed
	Cond Expr
	Then Expr
	// Else is nil when there is no else branch
	Else Expr
}

func (e *IfExpr) Describe() string {
	if e.Else == nil {
		return fmt.Sprintf("if %s %s", describeOrNil(e.Cond), describeOrNil(e.Then))
	}
	return fmt.Sprintf("if %s %s else %s", describeOrNil(e.Cond), describeOrNil(e.Then), describeOrNil(e.Else))
}

type WhileExpr struct {
	Range
	Typed
	Cond     Expr
	Break    *LocalDecl
	Continue *LocalDecl
	Body     Expr
}

func (e *WhileExpr) Describe() string {
	return fmt.Sprintf("while %s %s", describeOrNil(e.Cond), describeOrNil(e.Body))
}

// ForExpr is sugar for calling Call with Body appended as the last argument.
type ForExpr struct {
	Range
	Typed
	Call  *MapExpr
	Body  *FnExpr
	Break *LocalDecl
}

func (e *ForExpr) Describe() string {
	return fmt.Sprintf("for %s in %s %s", describeParams(e.Body.Params), e.Call.Describe(), describeOrNil(e.Body.Body))
}

func describeOrNil(n Node) string {
	if n == nil {
		return "<nil>"
	}
	return n.Describe()
}

func describeAll[N Node](nodes []N) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = describeOrNil(n)
	}
	return strings.Join(parts, ", ")
}

func describeTypeArgs(args []ASTType) string {
	if len(args) == 0 {
		return ""
	}
	return "[" + describeAll(args) + "]"
}

func describeParams(params []*LocalDecl) string {
	var parts []string
	for _, p := range params {
		if p.IsReturn {
			continue
		}
		parts = append(parts, p.Describe())
	}
	return strings.Join(parts, ", ")
}

func returnParam(params []*LocalDecl) *LocalDecl {
	if len(params) == 0 || !params[len(params)-1].IsReturn {
		return nil
	}
	return params[len(params)-1]
}
