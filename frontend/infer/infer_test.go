package infer

import (
	"testing"

	"github.com/impalago/infersema/frontend/ast"
	"github.com/impalago/infersema/frontend/astyaml"
	"github.com/impalago/infersema/frontend/ilerr"
	"github.com/impalago/infersema/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, src string) *ast.ModContents {
	t.Helper()
	prog, errs, err := astyaml.Load("test.yaml", []byte(src))
	require.NoError(t, err)
	require.False(t, errs.HasError(), "program does not load: %v", errs.Errors())
	return prog.Mod
}

// typeOfLocal is the type of the first local or parameter named name
func typeOfLocal(t *testing.T, mod *ast.ModContents, name string) types.Type {
	t.Helper()
	var found *ast.LocalDecl
	ast.Inspect(mod, func(n ast.Node) bool {
		if l, ok := n.(*ast.LocalDecl); ok && l.Name == name && found == nil {
			found = l
		}
		return found == nil
	})
	require.NotNil(t, found, "no local %s", name)
	require.NotNil(t, found.Type(), "local %s was never typed", name)
	return found.Type()
}

func typeString(t *testing.T, mod *ast.ModContents, name string) string {
	t.Helper()
	return typeOfLocal(t, mod, name).String()
}

func TestScalars(t *testing.T) {
	mod := load(t, `
items:
  - fn: main
    body:
      block:
        - {let: x, init: 1}
        - {let: y, type: bool, init: {infix: "==", lhs: x, rhs: x}}
`)
	res := Infer(mod)
	assert.True(t, res.Converged())
	assert.False(t, res.Errors.HasError(), "%v", res.Errors.Errors())
	assert.Equal(t, "i32", typeString(t, mod, "x"))
	assert.Equal(t, "bool", typeString(t, mod, "y"))
	assert.Zero(t, res.Unresolved)
}

func TestArrayElementsAgree(t *testing.T) {
	mod := load(t, `
items:
  - fn: main
    body:
      block:
        - {let: a}
        - {let: b}
        - {let: arr, init: {array: [a, 1u8, b]}}
        - {let: first, init: {index: arr, args: [0]}}
`)
	res := Infer(mod)
	require.True(t, res.Converged())
	assert.False(t, res.Errors.HasError(), "%v", res.Errors.Errors())
	assert.Equal(t, "u8", typeString(t, mod, "a"))
	assert.Equal(t, "u8", typeString(t, mod, "b"))
	assert.Equal(t, "[u8 * 3]", typeString(t, mod, "arr"))
	assert.Equal(t, "u8", typeString(t, mod, "first"))
}

func TestSingleDiagnostic(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code ilerr.ErrCode
	}{
		{
			name: "too many explicit type arguments",
			src: `
items:
  - fn: pair
    type_params: [A, B]
    params: [{name: a, type: A}, {name: b, type: B}]
    ret: {tuple: [A, B]}
    body: {tuple: [a, b]}
  - fn: main
    body:
      block:
        - {let: p, init: {call: pair, type_args: [i32, bool, u8], args: [1, true]}}
`,
			code: ilerr.Arity,
		},
		{
			name: "if arms disagree",
			src: `
items:
  - fn: main
    params: [{name: cond, type: bool}]
    body:
      block:
        - {let: r, init: {if: cond, then: 1, else: true}}
        - {let: s, init: {infix: "+", lhs: r, rhs: 1}}
`,
			code: ilerr.JoinMismatch,
		},
		{
			name: "argument of the wrong type",
			src: `
items:
  - fn: id
    type_params: [T]
    params: [{name: x, type: T}]
    ret: T
    body: x
  - fn: main
    body:
      block:
        - {let: c, type: bool, init: {call: id, args: [1]}}
`,
			code: ilerr.TypeMismatch,
		},
		{
			name: "while condition",
			src: `
items:
  - fn: main
    body: {while: 1, do: ()}
`,
			code: ilerr.TypeMismatch,
		},
		{
			name: "undefined variable",
			src: `
items:
  - fn: main
    body:
      block:
        - {let: z, init: {infix: "+", lhs: nope, rhs: 1}}
`,
			code: ilerr.UndefinedVariable,
		},
		{
			name: "dereferencing a number",
			src: `
items:
  - fn: main
    body:
      block:
        - {let: d, init: {prefix: "*", rhs: 1}}
`,
			code: ilerr.NotDereferenceable,
		},
		{
			name: "non-integral index",
			src: `
items:
  - fn: main
    body:
      block:
        - {let: arr, init: {array: [1, 2]}}
        - {let: e, init: {index: arr, args: [true]}}
`,
			code: ilerr.NotIntegral,
		},
		{
			name: "unknown field",
			src: `
items:
  - struct: P
    fields: [{name: x, type: i32}]
  - fn: main
    body:
      block:
        - {let: p, init: {struct: P, fields: {x: 1}}}
        - {let: f, init: {field: p, name: y}}
`,
			code: ilerr.UnresolvedField,
		},
		{
			name: "two arguments short",
			src: `
items:
  - fn: add
    params: [{name: a, type: i32}, {name: b, type: i32}]
    ret: i32
    body: {infix: "+", lhs: a, rhs: b}
  - fn: main
    body:
      block:
        - {call: add}
`,
			code: ilerr.ArgumentCount,
		},
		{
			name: "comparing a typed local with a bool",
			src: `
items:
  - fn: main
    body:
      block:
        - {let: x, type: i32, init: 1}
        - {let: b, init: {infix: "==", lhs: x, rhs: true}}
        - {let: y, init: {infix: "+", lhs: x, rhs: 2}}
`,
			code: ilerr.JoinMismatch,
		},
		{
			name: "adding a bool to a typed local",
			src: `
items:
  - fn: main
    body:
      block:
        - {let: x, type: i32, init: 1}
        - {let: b, init: {infix: "+", lhs: x, rhs: true}}
        - {let: y, init: {infix: "+", lhs: x, rhs: 2}}
`,
			code: ilerr.JoinMismatch,
		},
		{
			name: "assigning a bool to a typed local",
			src: `
items:
  - fn: main
    body:
      block:
        - {let: x, mut: true, type: i32, init: 1}
        - {infix: "=", lhs: x, rhs: true}
        - {let: y, init: {infix: "+", lhs: x, rhs: 2}}
`,
			code: ilerr.JoinMismatch,
		},
		{
			name: "explicit type argument disagrees with the expected result",
			src: `
items:
  - fn: id
    type_params: [T]
    params: [{name: x, type: T}]
    ret: T
    body: x
  - fn: main
    body:
      block:
        - {let: c, type: i64, init: {call: id, type_args: [i32], args: [1]}}
`,
			code: ilerr.TypeMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Infer(load(t, tt.src))
			assert.True(t, res.Converged())
			require.Len(t, res.Errors.Errors(), 1, "%v", res.Errors.Errors())
			assert.Equal(t, tt.code, res.Errors.Errors()[0].Code())
		})
	}
}

func TestOperandConflictKeepsDeclaration(t *testing.T) {
	for _, op := range []string{"==", "+", "="} {
		t.Run(op, func(t *testing.T) {
			mod := load(t, `
items:
  - fn: main
    body:
      block:
        - {let: x, mut: true, type: i32, init: 1}
        - {let: b, init: {infix: "`+op+`", lhs: x, rhs: true}}
        - {let: y, init: {infix: "+", lhs: x, rhs: 2}}
`)
			res := Infer(mod)
			require.True(t, res.Converged())
			require.Len(t, res.Errors.Errors(), 1, "%v", res.Errors.Errors())
			assert.Equal(t, "i32", typeString(t, mod, "x"))
			assert.Equal(t, "i32", typeString(t, mod, "y"))
			assert.True(t, types.IsError(typeOfLocal(t, mod, "b")))
		})
	}
}

func TestJoinIsOrderIndependent(t *testing.T) {
	store := types.NewStore()
	s := NewSema(store)
	unknown := store.Unknown()
	named := []struct {
		name string
		t    types.Type
	}{
		{"unknown", unknown},
		{"noreturn", store.NoReturn()},
		{"i32", store.I32()},
		{"bool", store.Bool()},
		{"error", store.Error()},
	}
	join := func(a, b types.Type) types.Type { return s.join(&ast.EmptyExpr{}, a, b) }

	for _, a := range named {
		for _, b := range named {
			assert.Same(t, join(a.t, b.t), join(b.t, a.t), "join(%s, %s)", a.name, b.name)
			for _, c := range named {
				left := join(join(a.t, b.t), c.t)
				right := join(a.t, join(b.t, c.t))
				assert.Same(t, left, right, "join over %s, %s, %s", a.name, b.name, c.name)
			}
		}
	}

	assert.Same(t, store.I32(), join(unknown, store.I32()))
	assert.Same(t, store.Bool(), join(store.NoReturn(), store.Bool()))
	assert.Same(t, unknown, join(store.NoReturn(), unknown))
	assert.Same(t, store.Error(), join(store.I32(), store.Bool()))
	assert.Same(t, store.Error(), join(store.Error(), store.NoReturn()))
	assert.Same(t, unknown, s.Resolve(unknown), "join never binds")
}

func TestNestedIfArms(t *testing.T) {
	tests := []struct {
		name string
		init string
	}{
		{"conflict in the then arm", `{if: c, then: {if: c, then: 1, else: true}, else: 2}`},
		{"conflict in the else arm", `{if: c, then: 1, else: {if: c, then: true, else: 2}}`},
		{"conflict against the outer arm", `{if: c, then: {if: c, then: 1, else: 2}, else: true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mod := load(t, `
items:
  - fn: main
    params: [{name: c, type: bool}]
    body:
      block:
        - {let: r, init: `+tt.init+`}
`)
			res := Infer(mod)
			require.True(t, res.Converged())
			require.Len(t, res.Errors.Errors(), 1, "%v", res.Errors.Errors())
			assert.Equal(t, ilerr.JoinMismatch, res.Errors.Errors()[0].Code())
			assert.True(t, types.IsError(typeOfLocal(t, mod, "r")))
		})
	}

	t.Run("agreeing arms", func(t *testing.T) {
		mod := load(t, `
items:
  - fn: main
    params: [{name: c, type: bool}]
    body:
      block:
        - {let: r, init: {if: c, then: {if: c, then: 1, else: 2}, else: 3}}
`)
		res := Infer(mod)
		assert.False(t, res.Errors.HasError(), "%v", res.Errors.Errors())
		assert.Equal(t, "i32", typeString(t, mod, "r"))
	})
}

func TestErrorIsAbsorbed(t *testing.T) {
	mod := load(t, `
items:
  - fn: take
    params: [{name: v, type: bool}]
    ret: bool
    body: v
  - fn: main
    body:
      block:
        - {let: e, init: nope}
        - {let: c, init: {infix: "==", lhs: e, rhs: 1}}
        - {let: t, init: {tuple: [e, 1]}}
        - {let: d, type: bool, init: e}
        - {let: r, init: {call: take, args: [e]}}
        - {let: s, init: {infix: "+", lhs: e, rhs: true}}
`)
	res := Infer(mod)
	require.True(t, res.Converged())
	require.Len(t, res.Errors.Errors(), 1, "%v", res.Errors.Errors())
	assert.Equal(t, ilerr.UndefinedVariable, res.Errors.Errors()[0].Code())
	for _, name := range []string{"e", "c", "s"} {
		assert.True(t, types.IsError(typeOfLocal(t, mod, name)), "%s is not an error", name)
	}
	assert.Equal(t, "bool", typeString(t, mod, "r"))
}

func TestExplicitTypeArgsIgnoreResultShape(t *testing.T) {
	mod := load(t, `
items:
  - fn: tag
    type_params: [T]
    params: [{name: x, type: T}]
    ret: {tuple: [i32, T]}
    body: {tuple: [0, x]}
  - fn: main
    body:
      block:
        - {let: r, type: {tuple: [i32, bool]}, init: {call: tag, type_args: [bool], args: [true]}}
`)
	res := Infer(mod)
	require.True(t, res.Converged())
	assert.False(t, res.Errors.HasError(), "%v", res.Errors.Errors())
	assert.Equal(t, "(i32, bool)", typeString(t, mod, "r"))
}

func TestNonConvergence(t *testing.T) {
	prog, _, err := astyaml.LoadFile("../astyaml/testdata/nonconvergent.yaml")
	require.NoError(t, err)

	res := Infer(prog.Mod)
	assert.Equal(t, Capped, res.State)
	assert.Equal(t, DefaultMaxPasses, res.Passes)
	require.Len(t, res.Errors.Errors(), 1)
	assert.Equal(t, ilerr.NonConvergence, res.Errors.Errors()[0].Code())

	t.Run("the cap is configurable", func(t *testing.T) {
		prog, _, err := astyaml.LoadFile("../astyaml/testdata/nonconvergent.yaml")
		require.NoError(t, err)
		res := Infer(prog.Mod, WithMaxPasses(7))
		assert.Equal(t, 7, res.Passes)
		assert.Len(t, res.Errors.WithCode(ilerr.NonConvergence), 1)
	})
}

func TestCalls(t *testing.T) {
	mod := load(t, `
items:
  - fn: id
    type_params: [T]
    params: [{name: x, type: T}]
    ret: T
    body: x
  - fn: inc
    params: [{name: x, type: i32}]
    ret: i32
    body: {infix: "+", lhs: x, rhs: 1}
  - fn: main
    body:
      block:
        - {let: a, init: {call: id, args: [1u8]}}
        - {let: b, type: bool, init: {call: id, args: [true]}}
        - {let: c, init: {call: inc, args: [{call: id, args: [41]}]}}
        - {let: d, init: {call: id, type_args: [i64], args: [{lit: 0, kind: i64}]}}
        - {let: f, init: {lambda: [y], body: {infix: "*", lhs: y, rhs: 2}}}
        - {let: g, init: {call: f, args: [3]}}
`)
	res := Infer(mod)
	require.True(t, res.Converged())
	assert.False(t, res.Errors.HasError(), "%v", res.Errors.Errors())

	assert.Equal(t, "u8", typeString(t, mod, "a"))
	assert.Equal(t, "bool", typeString(t, mod, "b"))
	assert.Equal(t, "i32", typeString(t, mod, "c"))
	assert.Equal(t, "i64", typeString(t, mod, "d"))
	assert.Equal(t, "fn(i32, fn(i32))", typeString(t, mod, "f"))
	assert.Equal(t, "i32", typeString(t, mod, "g"))

	t.Run("call sites record their instantiation", func(t *testing.T) {
		var calls []*ast.MapExpr
		ast.Inspect(mod, func(n ast.Node) bool {
			if call, ok := n.(*ast.MapExpr); ok {
				if path, ok := call.Lhs.(*ast.PathExpr); ok && path.Name == "id" {
					calls = append(calls, call)
				}
			}
			return true
		})
		require.NotEmpty(t, calls)
		first := calls[0]
		require.Len(t, first.InstArgs, 1)
		assert.Equal(t, "u8", first.InstArgs[0].String())
		assert.Equal(t, "fn(u8, fn(u8))", first.FnMono.String())
	})
}

func TestStructsAndImplicitDeref(t *testing.T) {
	prog, errs, err := astyaml.LoadFile("../astyaml/testdata/generic.yaml")
	require.NoError(t, err)
	require.False(t, errs.HasError())
	mod := prog.Mod

	res := Infer(mod)
	require.True(t, res.Converged())
	assert.False(t, res.Errors.HasError(), "%v", res.Errors.Errors())
	assert.Equal(t, "Pair[i32, bool]", typeString(t, mod, "p"))
	assert.Equal(t, "&Pair[i32, bool]", typeString(t, mod, "q"))
	assert.Equal(t, "bool", typeString(t, mod, "s"))

	var field *ast.FieldExpr
	ast.Inspect(mod, func(n ast.Node) bool {
		if f, ok := n.(*ast.FieldExpr); ok {
			field = f
		}
		return true
	})
	require.NotNil(t, field)
	deref, ok := field.Lhs.(*ast.PrefixExpr)
	require.True(t, ok, "a dereference is inserted in front of the pointer")
	assert.Equal(t, ast.Deref, deref.Op)
	assert.Equal(t, "Pair[i32, bool]", deref.Type().String())
}

func TestLoops(t *testing.T) {
	t.Run("while", func(t *testing.T) {
		prog, errs, err := astyaml.LoadFile("../astyaml/testdata/modules.yaml")
		require.NoError(t, err)
		require.False(t, errs.HasError())

		res := Infer(prog.Mod)
		require.True(t, res.Converged())
		assert.False(t, res.Errors.HasError(), "%v", res.Errors.Errors())
		assert.Equal(t, "i32", typeString(t, prog.Mod, "n"))
		assert.Equal(t, "fn()", typeString(t, prog.Mod, "break"))
	})

	t.Run("for", func(t *testing.T) {
		mod := load(t, `
items:
  - fn: range
    params:
      - {name: lo, type: i32}
      - {name: hi, type: i32}
      - {name: body, type: {fn: [i32], ret: ()}}
    body: {block: []}
  - fn: main
    body:
      block:
        - for: [i]
          in: {call: range, args: [0, 10]}
          do:
            block:
              - {if: {infix: "==", lhs: i, rhs: 5}, then: {call: break}}
              - {let: j, init: i}
`)
		res := Infer(mod)
		require.True(t, res.Converged())
		assert.False(t, res.Errors.HasError(), "%v", res.Errors.Errors())
		assert.Equal(t, "i32", typeString(t, mod, "i"))
		assert.Equal(t, "i32", typeString(t, mod, "j"))
		assert.Equal(t, "fn()", typeString(t, mod, "continue"))
	})
}

func TestDriver(t *testing.T) {
	src := `
items:
  - fn: main
    body:
      block:
        - {let: a}
        - {let: arr, init: {array: [a, 2, a]}}
        - {let: t, init: {tuple: [arr, {prefix: "&", rhs: a}]}}
        - {let: u, init: {index: t, args: [1]}}
`

	t.Run("known types never change between passes", func(t *testing.T) {
		mod := load(t, src)
		seen := make(map[ast.Node]types.Type)
		hook := func(d *Driver, pass int) {
			ast.Inspect(mod, func(n ast.Node) bool {
				typed, ok := n.(ast.TypedNode)
				if !ok || typed.Type() == nil {
					return true
				}
				now := d.Resolve(typed.Type())
				if before, ok := seen[n]; ok {
					assert.Same(t, before, now, "type of %s changed in pass %d", n.Describe(), pass)
				}
				if now.IsKnown() {
					seen[n] = now
				}
				return true
			})
		}
		res := Infer(mod, WithPassHook(hook))
		require.True(t, res.Converged())
		assert.Equal(t, "&i32", typeString(t, mod, "u"))
	})

	t.Run("rerunning a converged module takes one pass", func(t *testing.T) {
		mod := load(t, src)
		d := NewDriver(types.NewStore())
		first := d.Run(mod)
		require.True(t, first.Converged())
		assert.Greater(t, first.Passes, 1)

		second := d.Run(mod)
		assert.True(t, second.Converged())
		assert.Equal(t, 1, second.Passes)
		assert.Equal(t, first.Errors.Errors(), second.Errors.Errors())
		assert.Equal(t, "[i32 * 3]", typeString(t, mod, "arr"))
	})

	t.Run("diagnostics are not repeated by reruns", func(t *testing.T) {
		prog, _, err := astyaml.LoadFile("../astyaml/testdata/nonconvergent.yaml")
		require.NoError(t, err)
		d := NewDriver(types.NewStore(), WithMaxPasses(3))
		d.Run(prog.Mod)
		res := d.Run(prog.Mod)
		assert.Equal(t, Capped, d.State())
		assert.Len(t, res.Errors.Errors(), 1)
	})
}
