package infer

import (
	"github.com/impalago/infersema/frontend/ast"
	"github.com/impalago/infersema/frontend/ilerr"
	"github.com/impalago/infersema/frontend/types"
)

// infer computes the type of e from the current state of its children and
// the hint expected. It may return nil when there is not enough
// information yet. It must be safe to call any number of times.
func (s *Sema) infer(e ast.Expr, expected types.Type) types.Type {
	switch e := e.(type) {
	case *ast.EmptyExpr:
		return s.store.Unit()

	case *ast.LiteralExpr:
		return s.store.Prim(e.Kind)

	case *ast.CharExpr:
		return s.store.U8()

	case *ast.StrExpr:
		return s.store.DefiniteArray(s.store.U8(), uint64(len(e.Value)))

	case *ast.FnExpr:
		return s.inferFnExpr(e, expected)

	case *ast.PathExpr:
		if e.Decl == nil {
			s.report(e, ilerr.New(ilerr.NewUndefinedVariable{Positioner: e, Name: e.Name}))
			return s.store.Error()
		}
		declared := s.typeOf(e.Decl)
		if expected != nil {
			if _, ok := s.unify(declared, expected, false); !ok {
				// the use is wrong, not the declaration. The enclosing rule
				// reports it.
				return declared
			}
		}
		return s.constrain(e, e.Decl, expected)

	case *ast.PrefixExpr:
		return s.inferPrefix(e, expected)

	case *ast.InfixExpr:
		return s.inferInfix(e, expected)

	case *ast.PostfixExpr:
		return s.check(e.Lhs, expected)

	case *ast.CastExpr:
		s.checkPersisted(e.Lhs)
		return s.astType(e.To)

	case *ast.DefiniteArrayExpr:
		elem := s.unifyElems(e.Elems, s.argOf(expected, 0), true)
		if elem == nil {
			elem = s.placeholder(e)
		}
		return s.store.DefiniteArray(elem, uint64(len(e.Elems)))

	case *ast.SimdExpr:
		elem := s.unifyElems(e.Elems, s.argOf(expected, 0), false)
		if elem == nil {
			elem = s.placeholder(e)
		}
		return s.store.Simd(elem, uint64(len(e.Elems)))

	case *ast.RepeatedDefiniteArrayExpr:
		elem := s.check(e.Value, s.argOf(expected, 0))
		return s.store.DefiniteArray(elem, e.Count)

	case *ast.IndefiniteArrayExpr:
		dim := s.checkPersisted(e.Dim)
		if dim != nil && dim.IsKnown() && !types.IsIntegral(dim) && !types.IsError(dim) {
			s.report(e.Dim, ilerr.New(ilerr.NewNotIntegral{Positioner: e.Dim, Found: dim}))
		}
		elem := s.astType(e.Elem)
		if elem == nil {
			return nil
		}
		return s.store.IndefiniteArray(elem)

	case *ast.TupleExpr:
		elems := make([]types.Type, len(e.Elems))
		for i, elem := range e.Elems {
			elems[i] = s.check(elem, s.argOf(expected, i))
		}
		return s.store.Tuple(elems...)

	case *ast.StructExpr:
		return s.inferStruct(e, expected)

	case *ast.FieldExpr:
		return s.inferField(e)

	case *ast.MapExpr:
		return s.inferMap(e, expected)

	case *ast.BlockExpr:
		for _, stmt := range e.Stmts {
			s.checkStmt(stmt)
		}
		if e.Expr == nil {
			return s.store.Unit()
		}
		return s.check(e.Expr, expected)

	case *ast.IfExpr:
		s.force(e.Cond, s.store.Bool())
		var elseT types.Type = s.store.Unit()
		if e.Else != nil {
			elseT = s.typeOf(e.Else)
		}
		thenT := s.check(e.Then, s.hint(expected, elseT))
		if e.Else != nil {
			elseT = s.check(e.Else, s.hint(expected, thenT))
		}
		return s.join(e, thenT, elseT)

	case *ast.WhileExpr:
		s.force(e.Cond, s.store.Bool())
		if e.Break != nil {
			s.checkLocal(e.Break)
		}
		if e.Continue != nil {
			s.checkLocal(e.Continue)
		}
		s.force(e.Body, s.store.Unit())
		return s.store.Unit()

	case *ast.ForExpr:
		return s.inferFor(e, expected)

	default:
		s.logger.Error("no inference rule for expression", "expr", e)
		return s.store.Error()
	}
}

// unifyElems finds the element type shared by peers, such as the elements
// of an array literal, and checks every peer against it. Each peer's known
// type narrows the hint before its siblings are checked, so that a later
// sibling does not commit to something unrelated first.
func (s *Sema) unifyElems(elems []ast.Expr, elem types.Type, twoRounds bool) types.Type {
	n := len(elems)
	for i, e := range elems {
		s.refine(&elem, s.typeOf(elems[(i+1)%n]))
		s.check(e, elem)
	}
	if twoRounds {
		for _, e := range elems {
			s.refine(&elem, s.typeOf(e))
		}
		for _, e := range elems {
			s.check(e, elem)
		}
	}
	for _, e := range elems {
		if merged := s.constrain(e, e, elem); elem == nil {
			elem = merged
		}
	}
	return s.Resolve(elem)
}

func (s *Sema) inferPrefix(e *ast.PrefixExpr, expected types.Type) types.Type {
	switch e.Op {
	case ast.Ref:
		referenced := s.check(e.Rhs, s.argOf(expected, 0))
		return s.ptrTo(types.Borrowed, 0, referenced)
	case ast.Owned:
		referenced := s.check(e.Rhs, s.argOf(expected, 0))
		return s.ptrTo(types.Owned, 0, referenced)
	case ast.Deref:
		mode, addrSpace := types.Borrowed, 0
		if ptr, ok := s.typeOf(e.Rhs).(*types.PtrType); ok {
			mode, addrSpace = ptr.Mode, ptr.AddrSpace
		}
		var hint types.Type
		if expected != nil {
			hint = s.store.Ptr(mode, addrSpace, expected)
		}
		switch operand := s.check(e.Rhs, hint).(type) {
		case *types.PtrType:
			return operand.Referenced
		case *types.UnknownType:
			return nil
		case *types.ErrorType:
			return operand
		default:
			s.report(e, ilerr.New(ilerr.NewNotDereferenceable{Positioner: e, Of: operand}))
			return s.store.Error()
		}
	default:
		return s.check(e.Rhs, expected)
	}
}

func (s *Sema) ptrTo(mode types.PtrMode, addrSpace int, referenced types.Type) types.Type {
	if referenced == nil {
		return nil
	}
	return s.store.Ptr(mode, addrSpace, referenced)
}

func (s *Sema) inferInfix(e *ast.InfixExpr, expected types.Type) types.Type {
	switch {
	case e.Op.IsLogical():
		s.force(e.Lhs, s.store.Bool())
		s.force(e.Rhs, s.store.Bool())
		return s.store.Bool()

	case e.Op.IsComparison():
		lhs := s.check(e.Lhs, s.hint(nil, s.typeOf(e.Rhs)))
		rhs := s.check(e.Rhs, lhs)
		if types.IsError(s.join(e, lhs, rhs)) {
			return s.store.Error()
		}
		return s.store.Bool()

	case e.Op.IsAssignment():
		lhs := s.check(e.Lhs, s.hint(nil, s.typeOf(e.Rhs)))
		rhs := s.check(e.Rhs, lhs)
		if types.IsError(s.join(e, lhs, rhs)) {
			return s.store.Error()
		}
		return s.store.Unit()

	default:
		lhs := s.check(e.Lhs, s.hint(expected, s.typeOf(e.Rhs)))
		rhs := s.check(e.Rhs, lhs)
		return s.join(e, lhs, rhs)
	}
}

// inferFnExpr types a lambda from the function type it is expected to have
func (s *Sema) inferFnExpr(e *ast.FnExpr, expected types.Type) types.Type {
	params := make([]types.Type, len(e.Params))
	for i, p := range e.Params {
		s.checkLocal(p)
		params[i] = s.constrain(p, p, s.argOf(expected, i))
	}
	s.checkFnBody(e.Params, e.ReturnParam(), e.Body)
	for i, p := range e.Params {
		params[i] = s.typeOf(p)
	}
	return s.store.Fn(params, nil)
}

// checkFnBody checks body against the return type the parameters imply.
// When that type is not known yet it is learned from the body.
func (s *Sema) checkFnBody(params []*ast.LocalDecl, ret *ast.LocalDecl, body ast.Expr) {
	if body == nil {
		return
	}
	paramTypes := make([]types.Type, len(params))
	for i, p := range params {
		paramTypes[i] = s.typeOf(p)
	}
	fn, _ := s.store.Fn(paramTypes, nil).(*types.FnType)
	var want types.Type
	if fn != nil {
		want, _ = s.store.ReturnType(fn)
	}
	got := s.check(body, want)
	if got == nil || types.IsNoReturn(got) {
		return
	}
	switch {
	case want != nil && !types.IsNoReturn(want):
		s.constrain(body, body, want)
	case want == nil && ret != nil && !types.IsUnknown(got):
		s.constrain(body, ret, s.store.Continuation(got))
	}
}
