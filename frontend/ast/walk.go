package ast

import (
	"github.com/impalago/infersema/util"
)

// Inspect traverses the graph rooted at root in depth-first pre-order,
// calling f for every node. Children of n are skipped when f(n) is false.
// References such as PathExpr.Decl are not followed.
func Inspect(root Node, f func(Node) bool) {
	if root == nil {
		return
	}
	stack := &util.Stack[Node]{}
	stack.Push(root)
	for {
		n, ok := stack.Pop()
		if !ok {
			return
		}
		if !f(n) {
			continue
		}
		for child := range util.Reverse(Children(n)) {
			stack.Push(child)
		}
	}
}

// Children lists the direct children of n in source order
func Children(n Node) []Node {
	c := &childList{}
	switch n := n.(type) {
	case *ModContents:
		for _, item := range n.Items {
			c.add(item)
		}
	case *ModDecl:
		if n.Contents != nil {
			c.add(n.Contents)
		}
	case *ExternBlock:
		for _, fn := range n.Fns {
			c.add(fn)
		}
	case *FnDecl:
		c.typeParams(n.TypeParams)
		c.locals(n.Params)
		c.add(n.Body)
	case *StructDecl:
		c.typeParams(n.TypeParams)
		for _, f := range n.Fields {
			c.add(f)
		}
	case *FieldDecl:
		c.add(n.Annot)
	case *StaticItem:
		c.add(n.Annot, n.Init)
	case *LocalDecl:
		c.add(n.Annot)

	case *ExprStmt:
		c.add(n.Expr)
	case *ItemStmt:
		c.add(n.Item)
	case *LetStmt:
		c.locals([]*LocalDecl{n.Local})
		c.add(n.Init)

	case *FnExpr:
		c.locals(n.Params)
		c.add(n.Body)
	case *PrefixExpr:
		c.add(n.Rhs)
	case *InfixExpr:
		c.add(n.Lhs, n.Rhs)
	case *PostfixExpr:
		c.add(n.Lhs)
	case *CastExpr:
		c.add(n.Lhs, n.To)
	case *DefiniteArrayExpr:
		c.exprs(n.Elems)
	case *RepeatedDefiniteArrayExpr:
		c.add(n.Value)
	case *IndefiniteArrayExpr:
		c.add(n.Dim, n.Elem)
	case *SimdExpr:
		c.exprs(n.Elems)
	case *TupleExpr:
		c.exprs(n.Elems)
	case *StructExpr:
		c.astTypes(n.TypeArgs)
		for _, f := range n.Fields {
			c.add(f)
		}
	case *FieldInit:
		c.add(n.Value)
	case *FieldExpr:
		c.add(n.Lhs)
	case *MapExpr:
		c.add(n.Lhs)
		c.astTypes(n.TypeArgs)
		c.exprs(n.Args)
	case *BlockExpr:
		for _, s := range n.Stmts {
			c.add(s)
		}
		c.add(n.Expr)
	case *IfExpr:
		c.add(n.Cond, n.Then, n.Else)
	case *WhileExpr:
		c.add(n.Cond)
		c.locals([]*LocalDecl{n.Break, n.Continue})
		c.add(n.Body)
	case *ForExpr:
		if n.Call != nil {
			c.add(n.Call)
		}
		c.locals([]*LocalDecl{n.Break})
		if n.Body != nil {
			c.add(n.Body)
		}

	case *PtrASTType:
		c.add(n.Referenced)
	case *IndefiniteArrayASTType:
		c.add(n.Elem)
	case *DefiniteArrayASTType:
		c.add(n.Elem)
	case *SimdASTType:
		c.add(n.Elem)
	case *TupleASTType:
		c.astTypes(n.Elems)
	case *FnASTType:
		c.typeParams(n.TypeParams)
		c.astTypes(n.Params)
	case *TypeofASTType:
		c.add(n.Expr)
	case *ASTTypeApp:
		c.astTypes(n.Args)
	}
	return c.nodes
}

type childList struct {
	nodes []Node
}

// add skips nil interfaces; typed nil pointers must be filtered by the caller
func (c *childList) add(nodes ...Node) {
	for _, n := range nodes {
		if n != nil {
			c.nodes = append(c.nodes, n)
		}
	}
}

func (c *childList) exprs(es []Expr) {
	for _, e := range es {
		if e != nil {
			c.nodes = append(c.nodes, e)
		}
	}
}

func (c *childList) astTypes(ts []ASTType) {
	for _, t := range ts {
		if t != nil {
			c.nodes = append(c.nodes, t)
		}
	}
}

func (c *childList) locals(ls []*LocalDecl) {
	for _, l := range ls {
		if l != nil {
			c.nodes = append(c.nodes, l)
		}
	}
}

func (c *childList) typeParams(ps []*ASTTypeParam) {
	for _, p := range ps {
		if p != nil {
			c.nodes = append(c.nodes, p)
		}
	}
}
