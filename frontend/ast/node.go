package ast

import (
	"github.com/impalago/infersema/frontend/types"
)

// Node is the base interface for all AST nodes.
type Node interface {
	Positioner
	// Describe renders the node compactly, for diagnostics and logs
	Describe() string
}

// Typed is the type cell of a node. The zero value holds no type yet;
// inference treats that as unknown.
type Typed struct {
	typ types.Type
}

func (t *Typed) Type() types.Type     { return t.typ }
func (t *Typed) SetType(v types.Type) { t.typ = v }

// TypedNode is a Node owning a type cell.
type TypedNode interface {
	Node
	Type() types.Type
	SetType(types.Type)
}

type Expr interface {
	TypedNode
	exprNode()
}

type Stmt interface {
	Node
	stmtNode()
}

type Item interface {
	Node
	itemNode()
}

// ValueDecl is anything a PathExpr can refer to.
type ValueDecl interface {
	TypedNode
	DeclName() string
	valueDecl()
}

// TypeDecl is anything an ASTTypeApp can refer to.
type TypeDecl interface {
	TypedNode
	DeclName() string
	typeDecl()
}

// ASTType is a type as written in the source.
type ASTType interface {
	Node
	astType()
}
