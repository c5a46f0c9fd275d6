package infer

import (
	"github.com/impalago/infersema/frontend/ast"
	"github.com/impalago/infersema/frontend/ilerr"
	"github.com/impalago/infersema/frontend/types"
	"github.com/impalago/infersema/util"
	"github.com/pkg/errors"
)

// fillTypeArgs sizes slots to k type arguments and merges into each one the
// explicit argument written at that position, if any, and the corresponding
// argument of expected, if any. Slots without either stay unknown.
func (s *Sema) fillTypeArgs(at ast.Positioner, slots *[]types.Type, k int, explicit []ast.ASTType, expected []types.Type) []types.Type {
	if len(*slots) != k {
		resized := make([]types.Type, k)
		copy(resized, *slots)
		*slots = resized
	}
	args := make([]types.Type, k)
	for i := range *slots {
		cell := slotCell{&(*slots)[i]}
		if i < len(explicit) {
			s.constrain(at, cell, s.astType(explicit[i]))
		}
		if i < len(expected) {
			s.constrain(at, cell, expected[i])
		}
		args[i] = s.typeOf(cell)
	}
	return args
}

// instantiate reports an arity diagnostic at `at` when args does not fit poly
func (s *Sema) instantiate(at ast.Positioner, name string, poly types.Type, args []types.Type) types.Type {
	inst, err := s.store.Instantiate(poly, args)
	if err != nil {
		var arity types.ArityError
		if !errors.As(err, &arity) {
			s.report(at, ilerr.New(ilerr.Unclassified{Positioner: at, From: err}))
			return s.store.Error()
		}
		s.report(at, ilerr.New(ilerr.NewArity{Positioner: at, Of: name, Want: arity.Want, Got: arity.Got}))
		return s.store.Error()
	}
	return inst
}

func (s *Sema) inferStruct(e *ast.StructExpr, expected types.Type) types.Type {
	if e.Decl == nil {
		s.report(e, ilerr.New(ilerr.NewUnresolvedType{Positioner: e, Name: e.Name}))
		s.checkFieldInits(e.Fields, nil)
		return s.store.Error()
	}
	abstract := s.abstractOf(e.Decl)
	k := len(abstract.TypeParams)
	if len(e.TypeArgs) > k {
		s.report(e, ilerr.New(ilerr.NewArity{Positioner: e, Of: e.Name, Want: k, Got: len(e.TypeArgs)}))
		s.checkFieldInits(e.Fields, nil)
		return s.store.Error()
	}

	var expectedArgs []types.Type
	if app, ok := s.Resolve(expected).(*types.StructAppType); ok && app.Abstract == abstract {
		expectedArgs = app.TypeArgs
	}
	args := s.fillTypeArgs(e, &e.InstArgs, k, e.TypeArgs, expectedArgs)
	inst := s.instantiate(e, e.Name, abstract, args)
	app, ok := inst.(*types.StructAppType)
	if !ok {
		s.checkFieldInits(e.Fields, nil)
		return inst
	}
	s.checkFieldInits(e.Fields, app)
	return app
}

func (s *Sema) checkFieldInits(fields []*ast.FieldInit, app *types.StructAppType) {
	for _, f := range fields {
		if app == nil {
			s.checkPersisted(f.Value)
			continue
		}
		i := app.Abstract.FieldIndex(f.Name)
		if i < 0 {
			s.report(f, ilerr.New(ilerr.NewUnresolvedField{Positioner: f, Of: app, Name: f.Name}))
			s.checkPersisted(f.Value)
			continue
		}
		want := s.store.FieldType(app, i)
		s.check(f.Value, want)
		s.constrain(f.Value, f.Value, want)
	}
}

// derefBase inserts an implicit dereference in front of a pointer-typed
// base and returns the type of the new base
func (s *Sema) derefBase(base *ast.Expr) types.Type {
	t := s.checkPersisted(*base)
	if _, ok := t.(*types.PtrType); !ok {
		return t
	}
	*base = ast.NewDeref(*base)
	s.logger.Debug("inserted implicit dereference", "base", *base)
	return s.checkPersisted(*base)
}

func (s *Sema) inferField(e *ast.FieldExpr) types.Type {
	switch base := s.derefBase(&e.Lhs).(type) {
	case *types.StructAppType:
		i := base.Abstract.FieldIndex(e.Name)
		if i < 0 {
			s.report(e, ilerr.New(ilerr.NewUnresolvedField{Positioner: e, Of: base, Name: e.Name}))
			return s.store.Error()
		}
		return s.store.FieldType(base, i)
	case *types.UnknownType:
		return nil
	case *types.ErrorType:
		return base
	default:
		s.report(e, ilerr.New(ilerr.NewUnresolvedField{Positioner: e, Of: base, Name: e.Name}))
		return s.store.Error()
	}
}

func (s *Sema) inferMap(e *ast.MapExpr, expected types.Type) types.Type {
	switch base := s.derefBase(&e.Lhs).(type) {
	case *types.FnType:
		return s.checkCall(e, &e.FnMono, &e.InstArgs, e.TypeArgs, base, e.Args, expected)
	case *types.UnknownType:
		s.checkArgs(e.Args)
		return nil
	case *types.ErrorType:
		s.checkArgs(e.Args)
		return base
	case *types.DefiniteArrayType:
		return s.checkIndex(e, base, base.Elem)
	case *types.IndefiniteArrayType:
		return s.checkIndex(e, base, base.Elem)
	case *types.SimdType:
		return s.checkIndex(e, base, base.Elem)
	case *types.TupleType:
		return s.checkProjection(e, base)
	default:
		s.checkArgs(e.Args)
		s.report(e, ilerr.New(ilerr.NewNotIndexable{Positioner: e, Of: base}))
		return s.store.Error()
	}
}

func (s *Sema) checkArgs(args []ast.Expr) {
	for _, arg := range args {
		s.checkPersisted(arg)
	}
}

func (s *Sema) checkIndex(e *ast.MapExpr, base, elem types.Type) types.Type {
	s.checkArgs(e.Args)
	if len(e.Args) != 1 {
		s.report(e, ilerr.New(ilerr.NewNotIndexable{Positioner: e, Of: base, Reason: "exactly one index is required"}))
		return s.store.Error()
	}
	index := s.typeOf(e.Args[0])
	if index.IsKnown() && !types.IsIntegral(index) && !types.IsError(index) {
		s.report(e.Args[0], ilerr.New(ilerr.NewNotIntegral{Positioner: e.Args[0], Found: index}))
	}
	return elem
}

// checkProjection indexes a tuple, which needs a constant index
func (s *Sema) checkProjection(e *ast.MapExpr, tuple *types.TupleType) types.Type {
	s.checkArgs(e.Args)
	if len(e.Args) != 1 {
		s.report(e, ilerr.New(ilerr.NewNotIndexable{Positioner: e, Of: tuple, Reason: "exactly one index is required"}))
		return s.store.Error()
	}
	lit, ok := e.Args[0].(*ast.LiteralExpr)
	if !ok {
		s.report(e, ilerr.New(ilerr.NewNotIndexable{Positioner: e, Of: tuple, Reason: "tuples need a constant index"}))
		return s.store.Error()
	}
	i, ok := lit.Uint64()
	if !ok || i >= uint64(len(tuple.Elems)) {
		s.report(e, ilerr.New(ilerr.NewNotIndexable{Positioner: e, Of: tuple, Reason: "index " + lit.Value + " is out of range"}))
		return s.store.Error()
	}
	return tuple.Elems[i]
}

// checkCall resolves a call of a (possibly generic) function of type poly.
// mono and inst are the per-call-site slots holding the instantiated
// function type and its type arguments.
//
// When the call passes one argument less than poly has parameters, the
// missing trailing parameter is the continuation receiving the call's
// result, and the call yields what is passed to it. A call passing every
// parameter never returns.
func (s *Sema) checkCall(
	at ast.Positioner,
	mono *types.Type,
	inst *[]types.Type,
	explicit []ast.ASTType,
	poly *types.FnType,
	args []ast.Expr,
	expected types.Type,
) types.Type {
	k := len(poly.TypeParams)
	if len(explicit) > k {
		s.report(at, ilerr.New(ilerr.NewArity{Positioner: at, Of: poly.String(), Want: k, Got: len(explicit)}))
		s.checkArgs(args)
		return s.store.Error()
	}
	// expected is the call's result, whose arguments are not poly's type arguments
	typeArgs := s.fillTypeArgs(at, inst, k, explicit, nil)
	monoCell := slotCell{mono}
	fn, ok := s.constrain(at, monoCell, s.instantiate(at, poly.String(), poly, typeArgs)).(*types.FnType)
	if !ok {
		s.checkArgs(args)
		return s.store.Error()
	}

	n := min(len(args), len(fn.Params))
	returning := len(args)+1 == len(fn.Params)
	for i := range n {
		s.constrain(args[i], args[i], fn.Params[i])
	}
	if result := s.usefulHint(expected); returning && result != nil && !types.IsNoReturn(result) {
		spliced := append(util.Map(fn.Params[:len(fn.Params)-1], s.Resolve), s.store.Continuation(result))
		if fn, ok = s.constrain(at, monoCell, s.store.Fn(spliced, nil)).(*types.FnType); !ok {
			s.checkArgs(args)
			return s.store.Error()
		}
	}
	for i := range n {
		s.check(args[i], fn.Params[i])
	}
	for _, arg := range args[n:] {
		s.checkPersisted(arg)
	}

	switch {
	case returning:
		resolved, ok := s.Resolve(fn).(*types.FnType)
		if !ok {
			return s.store.Error()
		}
		ret, ok := s.store.ReturnType(resolved)
		if !ok {
			return nil
		}
		return ret
	case len(args) == len(fn.Params):
		return s.store.NoReturn()
	default:
		s.report(at, ilerr.New(ilerr.NewArgumentCount{Positioner: at, Callee: fn, Want: len(fn.Params) - 1, Got: len(args)}))
		return s.store.Error()
	}
}

// inferFor checks `for params in f(args) body` as the call f(args, |params| body)
func (s *Sema) inferFor(e *ast.ForExpr, expected types.Type) types.Type {
	call := e.Call
	switch callee := s.derefBase(&call.Lhs).(type) {
	case *types.FnType:
		if len(callee.Params) == 0 {
			return s.store.Unit()
		}
		switch ret := callee.Params[len(callee.Params)-1].(type) {
		case *types.FnType:
			// break leaves the loop like returning from the callee does
			if e.Break != nil {
				s.constrain(e.Break, e.Break, ret)
			}
		case *types.UnknownType:
			return nil
		default:
			return s.store.Unit()
		}
		args := append(append([]ast.Expr(nil), call.Args...), e.Body)
		return s.checkCall(e, &call.FnMono, &call.InstArgs, call.TypeArgs, callee, args, expected)
	case *types.UnknownType:
		return nil
	case *types.ErrorType:
		return callee
	default:
		s.report(call, ilerr.New(ilerr.NewNotIndexable{Positioner: call, Of: callee, Reason: "for loops need a function to call"}))
		return s.store.Error()
	}
}
