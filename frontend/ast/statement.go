package ast

import (
	"fmt"
	"strings"
)

func (*ExprStmt) stmtNode() {}
func (*ItemStmt) stmtNode() {}
func (*LetStmt) stmtNode()  {}

type ExprStmt struct {
	Range
	Expr Expr
}

func (s *ExprStmt) Describe() string { return describeOrNil(s.Expr) }

type ItemStmt struct {
	Range
	Item Item
}

func (s *ItemStmt) Describe() string { return describeOrNil(s.Item) }

type LetStmt struct {
	Range
	Local *LocalDecl
	// Init is nil for `let x: T;`
	Init Expr
}

func (s *LetStmt) Describe() string {
	if s.Init == nil {
		return "let " + s.Local.Describe()
	}
	return fmt.Sprintf("let %s = %s", s.Local.Describe(), s.Init.Describe())
}

// ModContents is the list of items of a module, and the root of the graph
// inference runs on.
type ModContents struct {
	Range
	Items []Item
}

func (m *ModContents) Describe() string {
	parts := make([]string, len(m.Items))
	for i, item := range m.Items {
		parts[i] = item.Describe()
	}
	return strings.Join(parts, "\n")
}

func (*ModDecl) itemNode()     {}
func (*ExternBlock) itemNode() {}
func (*FnDecl) itemNode()      {}
func (*StructDecl) itemNode()  {}
func (*StaticItem) itemNode()  {}

type ModDecl struct {
	Range
	Name     string
	Contents *ModContents
}

func (m *ModDecl) Describe() string { return "mod " + m.Name }

type ExternBlock struct {
	Range
	ABI string
	Fns []*FnDecl
}

func (e *ExternBlock) Describe() string { return fmt.Sprintf("extern %q", e.ABI) }

func (*FnDecl) valueDecl()     {}
func (*StaticItem) valueDecl() {}
func (*LocalDecl) valueDecl()  {}

// FnDecl is a named function. When it returns, its last parameter is the
// synthesized return continuation, named `return`.
type FnDecl struct {
	Range
	Typed
	Name       string
	TypeParams []*ASTTypeParam
	Params     []*LocalDecl
	// Body is nil for extern functions
	Body Expr
}

func (d *FnDecl) DeclName() string        { return d.Name }
func (d *FnDecl) ReturnParam() *LocalDecl { return returnParam(d.Params) }
func (d *FnDecl) Describe() string {
	return fmt.Sprintf("fn %s%s(%s)", d.Name, describeTypeParams(d.TypeParams), describeParams(d.Params))
}

type StaticItem struct {
	Range
	Typed
	Name    string
	Mutable bool
	// Annot is nil when not annotated
	Annot ASTType
	Init  Expr
}

func (d *StaticItem) DeclName() string { return d.Name }
func (d *StaticItem) Describe() string { return "static " + d.Name }

// LocalDecl is a let binding, a parameter, or a binding synthesized by the
// parser such as `return`, `break` and `continue`.
type LocalDecl struct {
	Range
	Typed
	Name    string
	Mutable bool
	// Annot is nil when not annotated
	Annot    ASTType
	IsReturn bool
}

func (d *LocalDecl) DeclName() string { return d.Name }
func (d *LocalDecl) Describe() string {
	name := d.Name
	if d.Mutable {
		name = "mut " + name
	}
	if d.Annot == nil {
		return name
	}
	return name + ": " + d.Annot.Describe()
}

func (*StructDecl) typeDecl()   {}
func (*ASTTypeParam) typeDecl() {}

type StructDecl struct {
	Range
	Typed
	Name       string
	TypeParams []*ASTTypeParam
	Fields     []*FieldDecl
}

func (d *StructDecl) DeclName() string { return d.Name }
func (d *StructDecl) Describe() string {
	return fmt.Sprintf("struct %s%s", d.Name, describeTypeParams(d.TypeParams))
}

type FieldDecl struct {
	Range
	Typed
	Name  string
	Annot ASTType
	Index int
}

func (d *FieldDecl) Describe() string { return d.Name + ": " + describeOrNil(d.Annot) }

type ASTTypeParam struct {
	Range
	Typed
	Name  string
	Index int
}

func (d *ASTTypeParam) DeclName() string { return d.Name }
func (d *ASTTypeParam) Describe() string { return d.Name }

func describeTypeParams(params []*ASTTypeParam) string {
	if len(params) == 0 {
		return ""
	}
	return "[" + describeAll(params) + "]"
}
