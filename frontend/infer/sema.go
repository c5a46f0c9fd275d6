package infer

import (
	"log/slog"

	"github.com/hashicorp/go-set/v3"
	"github.com/impalago/infersema/frontend/ast"
	"github.com/impalago/infersema/frontend/ilerr"
	"github.com/impalago/infersema/frontend/types"
	"github.com/impalago/infersema/internal/log"
)

var logger = log.DefaultLogger.With("section", "inference")

// Cell is a mutable type slot. Cells start out empty, which reads as a
// fresh unknown that is then kept for the lifetime of the cell.
type Cell interface {
	Type() types.Type
	SetType(types.Type)
}

// slotCell adapts a plain type slot, such as an entry of MapExpr.InstArgs
type slotCell struct {
	slot *types.Type
}

func (c slotCell) Type() types.Type     { return *c.slot }
func (c slotCell) SetType(t types.Type) { *c.slot = t }

type reportKey struct {
	at   ast.Positioner
	code ilerr.ErrCode
}

// Sema holds the state that persists across fixpoint passes: the bindings of
// unknowns, the expected-type hints of expressions and what was already
// reported. It is single-threaded.
type Sema struct {
	store *types.Store

	// reps binds unknowns to what they were unified with
	reps map[*types.UnknownType]types.Type
	// expected is the persistent hint for expressions checked without one
	expected map[ast.Expr]types.Type
	// placeholders are unknowns owned by nodes that are not cells themselves
	placeholders map[ast.Node]*types.UnknownType
	abstracts    map[*ast.StructDecl]*types.StructAbstractType

	todo     bool
	errs     *ilerr.Errors
	reported *set.Set[reportKey]
	logger   *slog.Logger
}

func NewSema(store *types.Store) *Sema {
	return &Sema{
		store:        store,
		reps:         make(map[*types.UnknownType]types.Type),
		expected:     make(map[ast.Expr]types.Type),
		placeholders: make(map[ast.Node]*types.UnknownType),
		abstracts:    make(map[*ast.StructDecl]*types.StructAbstractType),
		reported:     set.New[reportKey](8),
		logger:       ast.NodeLogger(logger),
	}
}

func (s *Sema) Store() *types.Store   { return s.store }
func (s *Sema) Errors() *ilerr.Errors { return s.errs }

// report records err unless the same kind of diagnostic was already
// reported at the node at
func (s *Sema) report(at ast.Positioner, err ilerr.IleError) {
	if !s.reported.Insert(reportKey{at: at, code: err.Code()}) {
		return
	}
	s.logger.Warn("type error", "at", ast.RangeOf(err), "error", ilerr.FormatWithCode(err))
	s.errs = s.errs.With(err)
}

// Resolve replaces every bound unknown inside t by what it is bound to
func (s *Sema) Resolve(t types.Type) types.Type {
	if t == nil {
		return nil
	}
	if u, ok := t.(*types.UnknownType); ok {
		bound, ok := s.reps[u]
		if !ok {
			return u
		}
		resolved := s.Resolve(bound)
		s.reps[u] = resolved
		return resolved
	}
	if t.IsKnown() {
		return t
	}
	args := t.Args()
	changed := false
	newArgs := make([]types.Type, len(args))
	for i, arg := range args {
		newArgs[i] = s.Resolve(arg)
		changed = changed || newArgs[i] != arg
	}
	if !changed {
		return t
	}
	return s.store.WithArgs(t, newArgs)
}

// typeOf reads a cell, giving it its own unknown if it is still empty
func (s *Sema) typeOf(c Cell) types.Type {
	t := c.Type()
	if t == nil {
		u := s.store.Unknown()
		c.SetType(u)
		return u
	}
	resolved := s.Resolve(t)
	if resolved != t {
		c.SetType(resolved)
	}
	return resolved
}

// placeholder is a persistent unknown owned by n
func (s *Sema) placeholder(n ast.Node) types.Type {
	if u, ok := s.placeholders[n]; ok {
		return s.Resolve(u)
	}
	u := s.store.Unknown()
	s.placeholders[n] = u
	return u
}

// unify computes the most specific type consistent with a and b. When commit
// is set, unknowns are bound so that they resolve to the result. ok is false
// when a and b conflict.
func (s *Sema) unify(a, b types.Type, commit bool) (types.Type, bool) {
	a, b = s.Resolve(a), s.Resolve(b)
	if a == b {
		return a, true
	}
	if types.IsError(a) || types.IsError(b) {
		return s.store.Error(), true
	}
	if ub, ok := b.(*types.UnknownType); ok {
		return s.bind(ub, a, commit), true
	}
	if ua, ok := a.(*types.UnknownType); ok {
		return s.bind(ua, b, commit), true
	}
	if !types.SameShape(a, b) {
		return nil, false
	}
	aArgs, bArgs := a.Args(), b.Args()
	args := make([]types.Type, len(aArgs))
	for i := range aArgs {
		arg, ok := s.unify(aArgs[i], bArgs[i], commit)
		if !ok {
			return nil, false
		}
		args[i] = arg
	}
	return s.store.WithArgs(a, args), true
}

// bind records that u stands for t. A binding that would make u part of
// its own definition is skipped, so such a type keeps growing every pass
// until the pass cap stops it.
func (s *Sema) bind(u *types.UnknownType, t types.Type, commit bool) types.Type {
	if !commit {
		return t
	}
	if types.Occurs(u, t) {
		s.logger.Debug("skipping cyclic binding", "unknown", u, "type", t)
		return t
	}
	s.reps[u] = t
	if !types.IsUnknown(t) {
		s.todo = true
	}
	return t
}

// constrain merges incoming into the cell c, reporting a mismatch at `at`
// on conflict. A nil incoming leaves the cell unchanged.
func (s *Sema) constrain(at ast.Positioner, c Cell, incoming types.Type) types.Type {
	current := s.typeOf(c)
	if incoming == nil {
		return current
	}
	merged, ok := s.unify(current, incoming, true)
	if !ok {
		s.report(at, ilerr.New(ilerr.NewTypeMismatch{
			Positioner: at,
			Expected:   current,
			Found:      s.Resolve(incoming),
		}))
		merged = s.store.Error()
	}
	if s.Resolve(current) != merged {
		s.logger.Debug("cell changed", "at", ast.RangeOf(at), "from", current, "to", merged)
		s.todo = true
	}
	c.SetType(merged)
	return merged
}

// refine narrows the local hint with what a peer already knows, without
// binding anything. Conflicting peers leave the hint as it is.
func (s *Sema) refine(hint *types.Type, peer types.Type) {
	if peer == nil {
		return
	}
	if *hint == nil {
		*hint = s.Resolve(peer)
		return
	}
	if refined, ok := s.unify(*hint, peer, false); ok && !types.IsError(refined) {
		*hint = refined
	}
}

// join is the common type of two branches. NoReturn gives way to the other
// side, an unknown gives way to the other side, and a conflict is reported
// at `at`.
func (s *Sema) join(at ast.Positioner, a, b types.Type) types.Type {
	if a == nil {
		return s.Resolve(b)
	}
	if b == nil {
		return s.Resolve(a)
	}
	a, b = s.Resolve(a), s.Resolve(b)
	switch {
	case types.IsError(a) || types.IsError(b):
		return s.store.Error()
	case types.IsNoReturn(a):
		return b
	case types.IsNoReturn(b):
		return a
	}
	joined, ok := s.unify(a, b, false)
	if !ok {
		s.report(at, ilerr.New(ilerr.NewJoinMismatch{Positioner: at, First: a, Second: b}))
		return s.store.Error()
	}
	return joined
}

// hint merges two optional hints without reporting anything. Bare unknowns
// carry no information and are dropped.
func (s *Sema) hint(a, b types.Type) types.Type {
	a, b = s.usefulHint(a), s.usefulHint(b)
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if joined, ok := s.unify(a, b, false); ok && !types.IsError(joined) {
		return joined
	}
	return a
}

func (s *Sema) usefulHint(t types.Type) types.Type {
	t = s.Resolve(t)
	if t == nil || types.IsUnknown(t) || types.IsError(t) {
		return nil
	}
	return t
}

// argOf is the i-th structural argument of t, if t has one
func (s *Sema) argOf(t types.Type, i int) types.Type {
	t = s.Resolve(t)
	if t == nil {
		return nil
	}
	if args := t.Args(); i < len(args) {
		return args[i]
	}
	return nil
}

// check infers e under the hint expected and merges the result into e's cell
func (s *Sema) check(e ast.Expr, expected types.Type) types.Type {
	if e == nil {
		return nil
	}
	expected = s.Resolve(expected)
	if types.IsError(expected) {
		expected = nil
	}
	inferred := s.infer(e, expected)
	s.logger.Debug("checked", "expr", e, "expected", types.Slog(expected), "inferred", types.Slog(inferred))
	return s.constrain(e, e, inferred)
}

// checkPersisted checks e against a hint that survives across passes
func (s *Sema) checkPersisted(e ast.Expr) types.Type {
	if e == nil {
		return nil
	}
	hint, ok := s.expected[e]
	if !ok {
		hint = s.store.Unknown()
		s.expected[e] = hint
	}
	return s.check(e, hint)
}

// force checks e and then requires its type to be want
func (s *Sema) force(e ast.Expr, want types.Type) types.Type {
	s.check(e, want)
	return s.constrain(e, e, want)
}
