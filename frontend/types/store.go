package types

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	sortedset "github.com/xtgo/set"
)

// Store interns types so that structurally equal types are the same value.
// A Store is not safe for concurrent use.
type Store struct {
	nextID   int
	interned map[string]Type

	errorType    *ErrorType
	noReturnType *NoReturnType
	prims        map[PrimKind]*PrimType
}

func NewStore() *Store {
	s := &Store{
		interned: make(map[string]Type),
		prims:    make(map[PrimKind]*PrimType),
	}
	s.errorType = &ErrorType{typeBase{id: s.newID(), known: true}}
	s.noReturnType = &NoReturnType{typeBase{id: s.newID(), known: true}}
	return s
}

func (s *Store) newID() int {
	s.nextID++
	return s.nextID
}

func (s *Store) intern(key string, args []Type, mk func(base typeBase) Type) Type {
	if existing, ok := s.interned[key]; ok {
		return existing
	}
	known := true
	for _, arg := range args {
		known = known && arg.IsKnown()
	}
	t := mk(typeBase{id: s.newID(), known: known})
	s.interned[key] = t
	return t
}

func idsOf(ts []Type) string {
	sb := &strings.Builder{}
	for i, t := range ts {
		if i > 0 {
			sb.WriteByte(',')
		}
		_, _ = fmt.Fprint(sb, t.ID())
	}
	return sb.String()
}

func anyError(ts ...Type) bool {
	for _, t := range ts {
		if IsError(t) {
			return true
		}
	}
	return false
}

// Unknown returns a fresh placeholder, distinct from every other
func (s *Store) Unknown() *UnknownType {
	return &UnknownType{typeBase{id: s.newID()}}
}

func (s *Store) Error() Type    { return s.errorType }
func (s *Store) NoReturn() Type { return s.noReturnType }
func (s *Store) Unit() Type     { return s.Tuple() }
func (s *Store) Bool() Type     { return s.Prim(Bool) }
func (s *Store) I32() Type      { return s.Prim(I32) }
func (s *Store) U8() Type       { return s.Prim(U8) }

func (s *Store) Prim(kind PrimKind) Type {
	if p, ok := s.prims[kind]; ok {
		return p
	}
	p := &PrimType{typeBase: typeBase{id: s.newID(), known: true}, Kind: kind}
	s.prims[kind] = p
	return p
}

func (s *Store) Ptr(mode PtrMode, addrSpace int, referenced Type) Type {
	if anyError(referenced) {
		return s.errorType
	}
	args := []Type{referenced}
	key := fmt.Sprintf("ptr:%d:%d:%s", mode, addrSpace, idsOf(args))
	return s.intern(key, args, func(base typeBase) Type {
		return &PtrType{typeBase: base, Mode: mode, AddrSpace: addrSpace, Referenced: referenced}
	})
}

func (s *Store) Tuple(elems ...Type) Type {
	if anyError(elems...) {
		return s.errorType
	}
	elems = append([]Type(nil), elems...)
	return s.intern("tuple:"+idsOf(elems), elems, func(base typeBase) Type {
		return &TupleType{typeBase: base, Elems: elems}
	})
}

type byIndex []*TypeParamType

func (b byIndex) Len() int      { return len(b) }
func (b byIndex) Swap(i, j int) { b[i], b[j] = b[j], b[i] }
func (b byIndex) Less(i, j int) bool {
	if b[i].Index != b[j].Index {
		return b[i].Index < b[j].Index
	}
	return b[i].id < b[j].id
}

// Fn builds a function type. typeParams is treated as a set ordered by
// parameter index.
func (s *Store) Fn(params []Type, typeParams []*TypeParamType) Type {
	if anyError(params...) {
		return s.errorType
	}
	params = append([]Type(nil), params...)
	var bound []*TypeParamType
	if len(typeParams) > 0 {
		bound = append([]*TypeParamType(nil), typeParams...)
		sort.Sort(byIndex(bound))
		bound = bound[:sortedset.Uniq(byIndex(bound))]
	}
	boundIDs := make([]string, len(bound))
	for i, p := range bound {
		boundIDs[i] = fmt.Sprint(p.id)
	}
	key := fmt.Sprintf("fn:[%s]:%s", strings.Join(boundIDs, ","), idsOf(params))
	return s.intern(key, params, func(base typeBase) Type {
		return &FnType{typeBase: base, Params: params, TypeParams: bound}
	})
}

func (s *Store) DefiniteArray(elem Type, dim uint64) Type {
	if anyError(elem) {
		return s.errorType
	}
	args := []Type{elem}
	return s.intern(fmt.Sprintf("darray:%d:%s", dim, idsOf(args)), args, func(base typeBase) Type {
		return &DefiniteArrayType{typeBase: base, Elem: elem, Dim: dim}
	})
}

func (s *Store) IndefiniteArray(elem Type) Type {
	if anyError(elem) {
		return s.errorType
	}
	args := []Type{elem}
	return s.intern("iarray:"+idsOf(args), args, func(base typeBase) Type {
		return &IndefiniteArrayType{typeBase: base, Elem: elem}
	})
}

func (s *Store) Simd(elem Type, size uint64) Type {
	if anyError(elem) {
		return s.errorType
	}
	args := []Type{elem}
	return s.intern(fmt.Sprintf("simd:%d:%s", size, idsOf(args)), args, func(base typeBase) Type {
		return &SimdType{typeBase: base, Elem: elem, Size: size}
	})
}

// NewTypeParam returns a type parameter distinct from every other, even
// those sharing its name.
func (s *Store) NewTypeParam(name string, index int) *TypeParamType {
	return &TypeParamType{typeBase: typeBase{id: s.newID(), known: true}, Name: name, Index: index}
}

func (s *Store) NewStructAbstract(name string, typeParams []*TypeParamType, fieldNames []string) *StructAbstractType {
	return &StructAbstractType{
		typeBase:   typeBase{id: s.newID(), known: true},
		Name:       name,
		TypeParams: typeParams,
		FieldNames: fieldNames,
		fields:     make([]Type, len(fieldNames)),
	}
}

func (s *Store) StructApp(abstract *StructAbstractType, typeArgs []Type) Type {
	if anyError(typeArgs...) {
		return s.errorType
	}
	typeArgs = append([]Type(nil), typeArgs...)
	key := fmt.Sprintf("app:%d:%s", abstract.id, idsOf(typeArgs))
	return s.intern(key, typeArgs, func(base typeBase) Type {
		return &StructAppType{typeBase: base, Abstract: abstract, TypeArgs: typeArgs}
	})
}

// WithArgs rebuilds t with the same shape but different structural children.
// len(args) must equal len(t.Args()).
func (s *Store) WithArgs(t Type, args []Type) Type {
	switch t := t.(type) {
	case *PtrType:
		return s.Ptr(t.Mode, t.AddrSpace, args[0])
	case *TupleType:
		return s.Tuple(args...)
	case *FnType:
		return s.Fn(args, t.TypeParams)
	case *DefiniteArrayType:
		return s.DefiniteArray(args[0], t.Dim)
	case *IndefiniteArrayType:
		return s.IndefiniteArray(args[0])
	case *SimdType:
		return s.Simd(args[0], t.Size)
	case *StructAppType:
		return s.StructApp(t.Abstract, args)
	default:
		return t
	}
}

// SameShape reports whether a and b only differ in their Args, so that
// unifying them reduces to unifying their Args pairwise.
func SameShape(a, b Type) bool {
	switch a := a.(type) {
	case *PtrType:
		b, ok := b.(*PtrType)
		return ok && a.Mode == b.Mode && a.AddrSpace == b.AddrSpace
	case *TupleType:
		b, ok := b.(*TupleType)
		return ok && len(a.Elems) == len(b.Elems)
	case *FnType:
		b, ok := b.(*FnType)
		if !ok || len(a.Params) != len(b.Params) || len(a.TypeParams) != len(b.TypeParams) {
			return false
		}
		for i := range a.TypeParams {
			if a.TypeParams[i] != b.TypeParams[i] {
				return false
			}
		}
		return true
	case *DefiniteArrayType:
		b, ok := b.(*DefiniteArrayType)
		return ok && a.Dim == b.Dim
	case *IndefiniteArrayType:
		_, ok := b.(*IndefiniteArrayType)
		return ok
	case *SimdType:
		b, ok := b.(*SimdType)
		return ok && a.Size == b.Size
	case *StructAppType:
		b, ok := b.(*StructAppType)
		return ok && a.Abstract == b.Abstract && len(a.TypeArgs) == len(b.TypeArgs)
	case *PrimType:
		b, ok := b.(*PrimType)
		return ok && a.Kind == b.Kind
	default:
		return a == b
	}
}

// Occurs reports whether u appears inside t
func Occurs(u *UnknownType, t Type) bool {
	if t == Type(u) {
		return true
	}
	if t == nil || t.IsKnown() {
		return false
	}
	for _, arg := range t.Args() {
		if Occurs(u, arg) {
			return true
		}
	}
	return false
}

// ArityError is returned when a generic type is instantiated with the wrong
// number of type arguments.
type ArityError struct {
	Of   Type
	Want int
	Got  int
}

func (e ArityError) Error() string {
	return fmt.Sprintf("'%v' expects %d type arguments, but %d were given", e.Of, e.Want, e.Got)
}

// Substitute replaces type parameters in t according to mapping
func (s *Store) Substitute(t Type, mapping map[*TypeParamType]Type) Type {
	if t == nil || len(mapping) == 0 {
		return t
	}
	switch t := t.(type) {
	case *TypeParamType:
		if replacement, ok := mapping[t]; ok {
			return replacement
		}
		return t
	case *FnType:
		params := make([]Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = s.Substitute(p, mapping)
		}
		var remaining []*TypeParamType
		for _, p := range t.TypeParams {
			if _, ok := mapping[p]; !ok {
				remaining = append(remaining, p)
			}
		}
		return s.Fn(params, remaining)
	}
	args := t.Args()
	if len(args) == 0 {
		return t
	}
	newArgs := make([]Type, len(args))
	for i, arg := range args {
		newArgs[i] = s.Substitute(arg, mapping)
	}
	return s.WithArgs(t, newArgs)
}

// Instantiate substitutes the type parameters of a generic function or
// struct declaration with args.
func (s *Store) Instantiate(t Type, args []Type) (Type, error) {
	var params []*TypeParamType
	switch t := t.(type) {
	case *FnType:
		params = t.TypeParams
	case *StructAbstractType:
		params = t.TypeParams
	}
	if len(args) != len(params) {
		return s.errorType, errors.WithStack(ArityError{Of: t, Want: len(params), Got: len(args)})
	}
	if abstract, ok := t.(*StructAbstractType); ok {
		return s.StructApp(abstract, args), nil
	}
	if anyError(args...) {
		return s.errorType, nil
	}
	mapping := make(map[*TypeParamType]Type, len(params))
	for i, p := range params {
		mapping[p] = args[i]
	}
	return s.Substitute(t, mapping), nil
}

// FieldType is the type of field i inside the instantiation app, or nil if
// the declaration has not been typed yet.
func (s *Store) FieldType(app *StructAppType, i int) Type {
	field := app.Abstract.Field(i)
	if field == nil {
		return nil
	}
	mapping := make(map[*TypeParamType]Type, len(app.TypeArgs))
	for j, p := range app.Abstract.TypeParams {
		if j < len(app.TypeArgs) {
			mapping[p] = app.TypeArgs[j]
		}
	}
	return s.Substitute(field, mapping)
}

// Continuation is the type of the trailing parameter a function returning t
// receives. Tuples are passed spread out.
func (s *Store) Continuation(t Type) Type {
	if tuple, ok := t.(*TupleType); ok {
		return s.Fn(tuple.Elems, nil)
	}
	return s.Fn([]Type{t}, nil)
}

// ReturnType inverts Continuation on the last parameter of fn. It is not ok
// when that parameter is still unknown. A function without a trailing
// continuation never returns.
func (s *Store) ReturnType(fn *FnType) (Type, bool) {
	if len(fn.Params) == 0 {
		return s.noReturnType, true
	}
	switch last := fn.Params[len(fn.Params)-1].(type) {
	case *UnknownType:
		return nil, false
	case *FnType:
		if len(last.Params) == 1 {
			return last.Params[0], true
		}
		return s.Tuple(last.Params...), true
	default:
		return s.noReturnType, true
	}
}

type byID []*UnknownType

func (b byID) Len() int           { return len(b) }
func (b byID) Swap(i, j int)      { b[i], b[j] = b[j], b[i] }
func (b byID) Less(i, j int) bool { return b[i].id < b[j].id }

// UnknownsIn lists the distinct unknowns occurring in ts, ordered by ID
func UnknownsIn(ts ...Type) []*UnknownType {
	var found byID
	var collect func(t Type)
	collect = func(t Type) {
		if t == nil || t.IsKnown() {
			return
		}
		if u, ok := t.(*UnknownType); ok {
			found = append(found, u)
			return
		}
		for _, arg := range t.Args() {
			collect(arg)
		}
	}
	for _, t := range ts {
		collect(t)
	}
	sort.Sort(found)
	return found[:sortedset.Uniq(found)]
}
