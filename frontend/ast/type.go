package ast

import (
	"fmt"

	"github.com/impalago/infersema/frontend/types"
)

func (*ErrorASTType) astType()           {}
func (*PrimASTType) astType()            {}
func (*PtrASTType) astType()             {}
func (*IndefiniteArrayASTType) astType() {}
func (*DefiniteArrayASTType) astType()   {}
func (*SimdASTType) astType()            {}
func (*TupleASTType) astType()           {}
func (*FnASTType) astType()              {}
func (*TypeofASTType) astType()          {}
func (*ASTTypeApp) astType()             {}

// ErrorASTType is produced for types the parser could not make sense of
type ErrorASTType struct {
	Range
}

func (t *ErrorASTType) Describe() string { return "<error>" }

type PrimASTType struct {
	Range
	Kind types.PrimKind
}

func (t *PrimASTType) Describe() string { return t.Kind.String() }

type PtrASTType struct {
	Range
	Mode       types.PtrMode
	AddrSpace  int
	Referenced ASTType
}

func (t *PtrASTType) Describe() string {
	prefix := "&"
	switch t.Mode {
	case types.Mutable:
		prefix = "&mut "
	case types.Owned:
		prefix = "~"
	}
	return prefix + describeOrNil(t.Referenced)
}

type IndefiniteArrayASTType struct {
	Range
	Elem ASTType
}

func (t *IndefiniteArrayASTType) Describe() string { return "[" + describeOrNil(t.Elem) + "]" }

type DefiniteArrayASTType struct {
	Range
	Elem ASTType
	Dim  uint64
}

func (t *DefiniteArrayASTType) Describe() string {
	return fmt.Sprintf("[%s * %d]", describeOrNil(t.Elem), t.Dim)
}

type SimdASTType struct {
	Range
	Elem ASTType
	Size uint64
}

func (t *SimdASTType) Describe() string {
	return fmt.Sprintf("simd[%s * %d]", describeOrNil(t.Elem), t.Size)
}

type TupleASTType struct {
	Range
	Elems []ASTType
}

func (t *TupleASTType) Describe() string { return "(" + describeAll(t.Elems) + ")" }

// FnASTType lists every parameter, including a trailing continuation
type FnASTType struct {
	Range
	TypeParams []*ASTTypeParam
	Params     []ASTType
}

func (t *FnASTType) Describe() string {
	return fmt.Sprintf("fn%s(%s)", describeTypeParams(t.TypeParams), describeAll(t.Params))
}

type TypeofASTType struct {
	Range
	Expr Expr
}

func (t *TypeofASTType) Describe() string { return "typeof(" + describeOrNil(t.Expr) + ")" }

// ASTTypeApp names a struct or a type parameter, applied to Args
type ASTTypeApp struct {
	Range
	Name string
	// Decl is nil when the name could not be resolved
	Decl TypeDecl
	Args []ASTType
}

func (t *ASTTypeApp) Describe() string { return t.Name + describeTypeArgs(t.Args) }
