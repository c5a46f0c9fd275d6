package infer

import (
	"github.com/impalago/infersema/frontend/ast"
	"github.com/impalago/infersema/frontend/ilerr"
	"github.com/impalago/infersema/frontend/types"
)

// checkModContents checks every item of a module, in declaration order
func (s *Sema) checkModContents(m *ast.ModContents) {
	for _, item := range m.Items {
		s.checkItem(item)
	}
}

func (s *Sema) checkItem(item ast.Item) {
	switch item := item.(type) {
	case *ast.ModDecl:
		if item.Contents != nil {
			s.checkModContents(item.Contents)
		}

	case *ast.ExternBlock:
		for _, fn := range item.Fns {
			s.checkFnDecl(fn)
		}

	case *ast.FnDecl:
		s.checkFnDecl(item)

	case *ast.StructDecl:
		s.checkStructDecl(item)

	case *ast.StaticItem:
		if item.Annot != nil {
			s.constrain(item, item, s.astType(item.Annot))
		}
		initT := s.check(item.Init, s.typeOf(item))
		if item.Init != nil {
			s.constrain(item.Init, item, initT)
		}

	default:
		s.logger.Error("no inference rule for item", "item", item)
	}
}

func (s *Sema) checkFnDecl(fn *ast.FnDecl) {
	typeParams := make([]*types.TypeParamType, len(fn.TypeParams))
	for i, p := range fn.TypeParams {
		typeParams[i] = s.typeParamOf(p)
	}
	params := make([]types.Type, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = s.checkLocal(p)
	}
	s.constrain(fn, fn, s.store.Fn(params, typeParams))
	s.checkFnBody(fn.Params, fn.ReturnParam(), fn.Body)
}

func (s *Sema) checkStructDecl(decl *ast.StructDecl) {
	abstract := s.abstractOf(decl)
	for _, f := range decl.Fields {
		t := s.astType(f.Annot)
		if t == nil {
			continue
		}
		if abstract.Field(f.Index) != t {
			abstract.SetField(f.Index, t)
			s.todo = true
		}
		s.constrain(f, f, t)
	}
	s.constrain(decl, decl, abstract)
}

func (s *Sema) checkStmt(stmt ast.Stmt) {
	switch stmt := stmt.(type) {
	case *ast.ExprStmt:
		s.checkPersisted(stmt.Expr)
	case *ast.ItemStmt:
		s.checkItem(stmt.Item)
	case *ast.LetStmt:
		want := s.checkLocal(stmt.Local)
		if stmt.Init == nil {
			return
		}
		initT := s.check(stmt.Init, want)
		s.constrain(stmt.Init, stmt.Local, initT)
	default:
		s.logger.Error("no inference rule for statement", "stmt", stmt)
	}
}

// checkLocal applies the annotation of l, if any, and returns l's type
func (s *Sema) checkLocal(l *ast.LocalDecl) types.Type {
	if l.Annot == nil {
		return s.typeOf(l)
	}
	return s.constrain(l, l, s.astType(l.Annot))
}

// abstractOf is the one struct type declared by decl
func (s *Sema) abstractOf(decl *ast.StructDecl) *types.StructAbstractType {
	if abstract, ok := s.abstracts[decl]; ok {
		return abstract
	}
	typeParams := make([]*types.TypeParamType, len(decl.TypeParams))
	for i, p := range decl.TypeParams {
		typeParams[i] = s.typeParamOf(p)
	}
	names := make([]string, len(decl.Fields))
	for i, f := range decl.Fields {
		names[i] = f.Name
	}
	abstract := s.store.NewStructAbstract(decl.Name, typeParams, names)
	s.abstracts[decl] = abstract
	return abstract
}

func (s *Sema) typeParamOf(p *ast.ASTTypeParam) *types.TypeParamType {
	if tp, ok := p.Type().(*types.TypeParamType); ok {
		return tp
	}
	tp := s.store.NewTypeParam(p.Name, p.Index)
	p.SetType(tp)
	return tp
}

// astType converts a type written in the source. It returns nil only for a
// missing annotation.
func (s *Sema) astType(t ast.ASTType) types.Type {
	switch t := t.(type) {
	case nil:
		return nil

	case *ast.ErrorASTType:
		return s.store.Error()

	case *ast.PrimASTType:
		return s.store.Prim(t.Kind)

	case *ast.PtrASTType:
		return s.ptrTo(t.Mode, t.AddrSpace, s.astType(t.Referenced))

	case *ast.IndefiniteArrayASTType:
		if elem := s.astType(t.Elem); elem != nil {
			return s.store.IndefiniteArray(elem)
		}
		return nil

	case *ast.DefiniteArrayASTType:
		if elem := s.astType(t.Elem); elem != nil {
			return s.store.DefiniteArray(elem, t.Dim)
		}
		return nil

	case *ast.SimdASTType:
		if elem := s.astType(t.Elem); elem != nil {
			return s.store.Simd(elem, t.Size)
		}
		return nil

	case *ast.TupleASTType:
		elems := make([]types.Type, len(t.Elems))
		for i, elem := range t.Elems {
			if elems[i] = s.astType(elem); elems[i] == nil {
				return nil
			}
		}
		return s.store.Tuple(elems...)

	case *ast.FnASTType:
		typeParams := make([]*types.TypeParamType, len(t.TypeParams))
		for i, p := range t.TypeParams {
			typeParams[i] = s.typeParamOf(p)
		}
		params := make([]types.Type, len(t.Params))
		for i, p := range t.Params {
			if params[i] = s.astType(p); params[i] == nil {
				return nil
			}
		}
		return s.store.Fn(params, typeParams)

	case *ast.TypeofASTType:
		return s.checkPersisted(t.Expr)

	case *ast.ASTTypeApp:
		return s.typeApp(t)

	default:
		s.logger.Error("no conversion for type", "type", t)
		return s.store.Error()
	}
}

func (s *Sema) typeApp(t *ast.ASTTypeApp) types.Type {
	args := make([]types.Type, len(t.Args))
	for i, arg := range t.Args {
		if args[i] = s.astType(arg); args[i] == nil {
			return nil
		}
	}
	switch decl := t.Decl.(type) {
	case *ast.StructDecl:
		return s.instantiate(t, t.Name, s.abstractOf(decl), args)
	case *ast.ASTTypeParam:
		if len(args) != 0 {
			s.report(t, ilerr.New(ilerr.NewArity{Positioner: t, Of: t.Name, Want: 0, Got: len(args)}))
			return s.store.Error()
		}
		return s.typeParamOf(decl)
	default:
		s.report(t, ilerr.New(ilerr.NewUnresolvedType{Positioner: t, Name: t.Name}))
		return s.store.Error()
	}
}
