package types

import (
	"fmt"
	"strings"
)

// Type is a canonical type value handed out by a Store.
//
// Two Types obtained from the same Store are structurally equal iff they are
// the same value, so they can be compared with ==. The exceptions are
// UnknownType and TypeParamType, which are unique per construction, and
// StructAbstractType, which is nominal.
type Type interface {
	fmt.Stringer
	// ID is unique per Store
	ID() int
	// Args are the structural children that unification recurses into
	Args() []Type
	// IsKnown is false if an UnknownType occurs anywhere in this type
	IsKnown() bool
	isType()
}

type typeBase struct {
	id    int
	known bool
}

func (t *typeBase) ID() int       { return t.id }
func (t *typeBase) IsKnown() bool { return t.known }
func (t *typeBase) isType()       {}

// UnknownType is a placeholder for a type that is not determined yet.
// It is never interned.
type UnknownType struct {
	typeBase
}

func (t *UnknownType) Args() []Type   { return nil }
func (t *UnknownType) String() string { return fmt.Sprintf("?%d", t.id) }

// ErrorType poisons every type built from it.
type ErrorType struct {
	typeBase
}

func (t *ErrorType) Args() []Type   { return nil }
func (t *ErrorType) String() string { return "<error>" }

// NoReturnType is the type of expressions that never yield control back.
type NoReturnType struct {
	typeBase
}

func (t *NoReturnType) Args() []Type   { return nil }
func (t *NoReturnType) String() string { return "!" }

type PrimKind int

const (
	Bool PrimKind = iota
	I8
	I16
	I32
	I64
	U8
	U16
	U32
	U64
	F16
	F32
	F64
)

var primNames = [...]string{
	Bool: "bool",
	I8:   "i8",
	I16:  "i16",
	I32:  "i32",
	I64:  "i64",
	U8:   "u8",
	U16:  "u16",
	U32:  "u32",
	U64:  "u64",
	F16:  "f16",
	F32:  "f32",
	F64:  "f64",
}

func (k PrimKind) String() string {
	if int(k) < len(primNames) {
		return primNames[k]
	}
	return fmt.Sprintf("prim(%d)", int(k))
}

func (k PrimKind) IsIntegral() bool { return k >= I8 && k <= U64 }
func (k PrimKind) IsFloat() bool    { return k >= F16 && k <= F64 }

// PrimKindByName looks up a primitive by its source spelling.
func PrimKindByName(name string) (PrimKind, bool) {
	for k, n := range primNames {
		if n == name {
			return PrimKind(k), true
		}
	}
	return 0, false
}

type PrimType struct {
	typeBase
	Kind PrimKind
}

func (t *PrimType) Args() []Type   { return nil }
func (t *PrimType) String() string { return t.Kind.String() }

type PtrMode int

const (
	Borrowed PtrMode = iota
	Mutable
	Owned
)

type PtrType struct {
	typeBase
	Mode       PtrMode
	AddrSpace  int
	Referenced Type
}

func (t *PtrType) Args() []Type { return []Type{t.Referenced} }
func (t *PtrType) String() string {
	prefix := "&"
	switch t.Mode {
	case Mutable:
		prefix = "&mut"
	case Owned:
		prefix = "~"
	}
	if t.AddrSpace != 0 {
		prefix = fmt.Sprintf("%s[%d]", prefix, t.AddrSpace)
	}
	if t.Mode == Mutable || t.AddrSpace != 0 {
		prefix += " "
	}
	return prefix + t.Referenced.String()
}

// TupleType with no elements is the unit type.
type TupleType struct {
	typeBase
	Elems []Type
}

func (t *TupleType) Args() []Type { return t.Elems }
func (t *TupleType) String() string {
	return "(" + join(t.Elems) + ")"
}

// FnType is a function in continuation-passing form: when the function
// returns, its last parameter is the continuation receiving the result.
type FnType struct {
	typeBase
	Params     []Type
	TypeParams []*TypeParamType
}

func (t *FnType) Args() []Type { return t.Params }
func (t *FnType) String() string {
	sb := &strings.Builder{}
	sb.WriteString("fn")
	if len(t.TypeParams) > 0 {
		sb.WriteString("[")
		for i, p := range t.TypeParams {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(p.String())
		}
		sb.WriteString("]")
	}
	sb.WriteString("(")
	sb.WriteString(join(t.Params))
	sb.WriteString(")")
	return sb.String()
}

type DefiniteArrayType struct {
	typeBase
	Elem Type
	Dim  uint64
}

func (t *DefiniteArrayType) Args() []Type { return []Type{t.Elem} }
func (t *DefiniteArrayType) String() string {
	return fmt.Sprintf("[%v * %d]", t.Elem, t.Dim)
}

type IndefiniteArrayType struct {
	typeBase
	Elem Type
}

func (t *IndefiniteArrayType) Args() []Type   { return []Type{t.Elem} }
func (t *IndefiniteArrayType) String() string { return fmt.Sprintf("[%v]", t.Elem) }

type SimdType struct {
	typeBase
	Elem Type
	Size uint64
}

func (t *SimdType) Args() []Type { return []Type{t.Elem} }
func (t *SimdType) String() string {
	return fmt.Sprintf("simd[%v * %d]", t.Elem, t.Size)
}

// TypeParamType stands for a generic parameter of an enclosing declaration.
type TypeParamType struct {
	typeBase
	Name  string
	Index int
}

func (t *TypeParamType) Args() []Type   { return nil }
func (t *TypeParamType) String() string { return t.Name }

// StructAbstractType is a struct declaration. Field types are filled in as
// inference learns them and may be nil until then.
type StructAbstractType struct {
	typeBase
	Name       string
	TypeParams []*TypeParamType
	FieldNames []string
	fields     []Type
}

func (t *StructAbstractType) Args() []Type   { return nil }
func (t *StructAbstractType) String() string { return t.Name }

func (t *StructAbstractType) NumFields() int         { return len(t.fields) }
func (t *StructAbstractType) Field(i int) Type       { return t.fields[i] }
func (t *StructAbstractType) SetField(i int, f Type) { t.fields[i] = f }

// FieldIndex returns -1 when the struct has no such field
func (t *StructAbstractType) FieldIndex(name string) int {
	for i, n := range t.FieldNames {
		if n == name {
			return i
		}
	}
	return -1
}

// StructAppType is a (possibly non-generic) instantiation of a struct.
type StructAppType struct {
	typeBase
	Abstract *StructAbstractType
	TypeArgs []Type
}

func (t *StructAppType) Args() []Type { return t.TypeArgs }
func (t *StructAppType) String() string {
	if len(t.TypeArgs) == 0 {
		return t.Abstract.Name
	}
	return fmt.Sprintf("%s[%s]", t.Abstract.Name, join(t.TypeArgs))
}

func join(ts []Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		if t == nil {
			parts[i] = "<nil>"
			continue
		}
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

func IsUnknown(t Type) bool {
	_, ok := t.(*UnknownType)
	return ok
}

func IsError(t Type) bool {
	_, ok := t.(*ErrorType)
	return ok
}

func IsNoReturn(t Type) bool {
	_, ok := t.(*NoReturnType)
	return ok
}

func IsUnit(t Type) bool {
	tuple, ok := t.(*TupleType)
	return ok && len(tuple.Elems) == 0
}

// IsIntegral reports whether t is one of the fixed-width integer kinds
func IsIntegral(t Type) bool {
	prim, ok := t.(*PrimType)
	return ok && prim.Kind.IsIntegral()
}
