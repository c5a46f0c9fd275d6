package astyaml

import (
	"github.com/impalago/infersema/frontend/ast"
	"github.com/impalago/infersema/frontend/types"
	"gopkg.in/yaml.v3"
)

func (l *loader) optType(n *yaml.Node, sc *scope) ast.ASTType {
	if n == nil {
		return nil
	}
	return l.typ(n, sc)
}

// typ loads a written type. Scalars are primitive type names, `()` or the
// name of a struct or type parameter in scope.
func (l *loader) typ(n *yaml.Node, sc *scope) ast.ASTType {
	at := l.rangeOf(n)
	if n == nil {
		l.fail(n, "missing type")
		return &ast.ErrorASTType{Range: at}
	}
	if n.Kind == yaml.ScalarNode {
		if n.Value == "()" {
			return &ast.TupleASTType{Range: at}
		}
		if kind, ok := types.PrimKindByName(n.Value); ok {
			return &ast.PrimASTType{Range: at, Kind: kind}
		}
		return l.typeApp(n, n, nil, sc)
	}

	kind, value := form(n)
	switch kind {
	case "ptr":
		ptr := &ast.PtrASTType{Range: at, Referenced: l.typ(value, sc)}
		switch mode := l.field(n, "mode"); {
		case mode == nil || mode.Value == "borrowed":
			ptr.Mode = types.Borrowed
		case mode.Value == "mut":
			ptr.Mode = types.Mutable
		case mode.Value == "owned":
			ptr.Mode = types.Owned
		default:
			l.failHint(mode, "unknown pointer mode "+mode.Value, "use borrowed, mut or owned")
		}
		if space := l.field(n, "addr_space"); space != nil {
			ptr.AddrSpace = int(l.uint(space, "address space"))
		}
		return ptr

	case "array":
		elem := l.typ(value, sc)
		if dim := l.field(n, "dim"); dim != nil {
			return &ast.DefiniteArrayASTType{Range: at, Elem: elem, Dim: l.uint(dim, "array dimension")}
		}
		return &ast.IndefiniteArrayASTType{Range: at, Elem: elem}

	case "simd":
		return &ast.SimdASTType{Range: at, Elem: l.typ(value, sc), Size: l.uint(l.field(n, "size"), "simd size")}

	case "tuple":
		elems := l.seq(value)
		t := &ast.TupleASTType{Range: at, Elems: make([]ast.ASTType, len(elems))}
		for i, elem := range elems {
			t.Elems[i] = l.typ(elem, sc)
		}
		return t

	case "fn":
		// a function type only gets a continuation when `ret` is written
		fn := &ast.FnASTType{Range: at}
		fn.TypeParams, sc = l.typeParams(l.seq(l.field(n, "type_params")), sc)
		for _, p := range l.seq(value) {
			fn.Params = append(fn.Params, l.typ(p, sc))
		}
		if ret := l.field(n, "ret"); ret != nil {
			fn.Params = append(fn.Params, continuation(l.typ(ret, sc)))
		}
		return fn

	case "app":
		return l.typeApp(n, value, l.seq(l.field(n, "args")), sc)

	case "typeof":
		return &ast.TypeofASTType{Range: at, Expr: l.expr(value, sc)}

	default:
		l.failHint(n, "expected a type", "types are names or one of ptr, array, simd, tuple, fn, app, typeof")
		return &ast.ErrorASTType{Range: at}
	}
}

func (l *loader) typeApp(n, name *yaml.Node, args []*yaml.Node, sc *scope) ast.ASTType {
	app := &ast.ASTTypeApp{Range: l.rangeOf(n), Name: l.name(name, "type")}
	if decl, ok := sc.lookupType(app.Name); ok {
		app.Decl = decl
	}
	for _, arg := range args {
		app.Args = append(app.Args, l.typ(arg, sc))
	}
	return app
}

func (l *loader) typeArgs(n *yaml.Node, sc *scope) []ast.ASTType {
	var args []ast.ASTType
	for _, arg := range l.seq(n) {
		args = append(args, l.typ(arg, sc))
	}
	return args
}
