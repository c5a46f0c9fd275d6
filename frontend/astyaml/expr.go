package astyaml

import (
	"strings"

	"github.com/impalago/infersema/frontend/ast"
	"github.com/impalago/infersema/frontend/types"
	"gopkg.in/yaml.v3"
)

func (l *loader) expr(n *yaml.Node, sc *scope) ast.Expr {
	at := l.rangeOf(n)
	if n == nil {
		l.fail(n, "missing expression")
		return &ast.EmptyExpr{Range: at}
	}
	if n.Kind == yaml.AliasNode {
		return l.expr(n.Alias, sc)
	}
	if n.Kind == yaml.ScalarNode {
		return l.scalar(n, sc)
	}
	if n.Kind != yaml.MappingNode {
		l.failHint(n, "expected an expression", "sequences are only valid inside array, tuple and block forms")
		return &ast.EmptyExpr{Range: at}
	}

	kind, value := form(n)
	switch kind {
	case "lit":
		lit := &ast.LiteralExpr{Range: at, Kind: types.I32, Value: value.Value}
		if k := l.field(n, "kind"); k != nil {
			kind, ok := types.PrimKindByName(k.Value)
			if !ok {
				l.fail(k, "unknown literal kind "+k.Value)
			}
			lit.Kind = kind
		}
		return lit

	case "char":
		if len(value.Value) != 1 {
			l.fail(value, "a char literal holds exactly one byte")
			return &ast.CharExpr{Range: at}
		}
		return &ast.CharExpr{Range: at, Value: value.Value[0]}

	case "str":
		return &ast.StrExpr{Range: at, Value: value.Value}

	case "path":
		return l.path(value, sc)

	case "prefix":
		op, ok := ast.ParsePrefixOp(value.Value)
		if !ok {
			l.fail(value, "unknown prefix operator "+value.Value)
		}
		return &ast.PrefixExpr{Range: at, Op: op, Rhs: l.expr(l.field(n, "rhs"), sc)}

	case "infix":
		op, ok := ast.ParseInfixOp(value.Value)
		if !ok {
			l.fail(value, "unknown infix operator "+value.Value)
		}
		return &ast.InfixExpr{Range: at, Op: op, Lhs: l.expr(l.field(n, "lhs"), sc), Rhs: l.expr(l.field(n, "rhs"), sc)}

	case "postfix":
		op := ast.PostInc
		switch value.Value {
		case "++":
		case "--":
			op = ast.PostDec
		default:
			l.fail(value, "unknown postfix operator "+value.Value)
		}
		return &ast.PostfixExpr{Range: at, Op: op, Lhs: l.expr(l.field(n, "lhs"), sc)}

	case "cast":
		return &ast.CastExpr{Range: at, Lhs: l.expr(value, sc), To: l.typ(l.field(n, "to"), sc)}

	case "array":
		return &ast.DefiniteArrayExpr{Range: at, Elems: l.exprs(value, sc)}

	case "repeat":
		return &ast.RepeatedDefiniteArrayExpr{Range: at, Value: l.expr(value, sc), Count: l.uint(l.field(n, "count"), "repeat count")}

	case "indefinite_array":
		return &ast.IndefiniteArrayExpr{Range: at, Elem: l.typ(value, sc), Dim: l.expr(l.field(n, "dim"), sc)}

	case "simd":
		return &ast.SimdExpr{Range: at, Elems: l.exprs(value, sc)}

	case "tuple":
		return &ast.TupleExpr{Range: at, Elems: l.exprs(value, sc)}

	case "struct":
		return l.structExpr(n, value, sc)

	case "field":
		return &ast.FieldExpr{Range: at, Lhs: l.expr(value, sc), Name: l.name(l.field(n, "name"), "field")}

	case "call", "index":
		return l.mapExpr(n, value, sc)

	case "block":
		return l.block(n, value, sc)

	case "if":
		e := &ast.IfExpr{Range: at, Cond: l.expr(value, sc), Then: l.expr(l.field(n, "then"), sc)}
		if els := l.field(n, "else"); els != nil {
			e.Else = l.expr(els, sc)
		}
		return e

	case "while":
		e := &ast.WhileExpr{Range: at, Cond: l.expr(value, sc)}
		e.Break = loopLocal("break", at)
		e.Continue = loopLocal("continue", at)
		e.Body = l.expr(l.field(n, "do"), sc.withValue(e.Break).withValue(e.Continue))
		return e

	case "for":
		return l.forExpr(n, value, sc)

	case "lambda":
		fn := &ast.FnExpr{Range: at}
		fn.Params, sc = l.params(l.seq(value), sc)
		if ret, ok := l.returnParam(n, l.field(n, "ret"), sc, true); ok {
			fn.Params = append(fn.Params, ret)
			sc = sc.withValue(ret)
		}
		fn.Body = l.expr(l.field(n, "body"), sc)
		return fn

	default:
		l.failHint(n, "unknown expression form "+kind, "the first key of a mapping names its construct")
		return &ast.EmptyExpr{Range: at}
	}
}

// scalar loads the shorthand forms: booleans, numbers with an optional
// type suffix, `()` and names
func (l *loader) scalar(n *yaml.Node, sc *scope) ast.Expr {
	at := l.rangeOf(n)
	switch n.Tag {
	case "!!bool":
		return &ast.LiteralExpr{Range: at, Kind: types.Bool, Value: n.Value}
	case "!!int":
		return &ast.LiteralExpr{Range: at, Kind: types.I32, Value: n.Value}
	case "!!float":
		return &ast.LiteralExpr{Range: at, Kind: types.F64, Value: n.Value}
	case "!!null":
		l.fail(n, "missing expression")
		return &ast.EmptyExpr{Range: at}
	}
	if n.Value == "()" {
		return &ast.EmptyExpr{Range: at}
	}
	if lit, ok := suffixedLiteral(n.Value); ok {
		lit.Range = at
		return lit
	}
	return l.path(n, sc)
}

// suffixedLiteral recognizes numbers such as 1u8 and 2.5f32
func suffixedLiteral(s string) (*ast.LiteralExpr, bool) {
	if s == "" || s[0] < '0' || s[0] > '9' {
		return nil, false
	}
	for k := types.I8; k <= types.F64; k++ {
		if value, ok := strings.CutSuffix(s, k.String()); ok && value != "" {
			return &ast.LiteralExpr{Kind: k, Value: value}, true
		}
	}
	return nil, false
}

func (l *loader) path(n *yaml.Node, sc *scope) *ast.PathExpr {
	p := &ast.PathExpr{Range: l.rangeOf(n), Name: l.name(n, "path")}
	if decl, ok := sc.lookupValue(p.Name); ok {
		p.Decl = decl
	}
	return p
}

func (l *loader) exprs(n *yaml.Node, sc *scope) []ast.Expr {
	nodes := l.seq(n)
	exprs := make([]ast.Expr, len(nodes))
	for i, e := range nodes {
		exprs[i] = l.expr(e, sc)
	}
	return exprs
}

func (l *loader) structExpr(n, name *yaml.Node, sc *scope) *ast.StructExpr {
	e := &ast.StructExpr{
		Range:    l.rangeOf(n),
		Name:     l.name(name, "struct"),
		TypeArgs: l.typeArgs(l.field(n, "type_args"), sc),
	}
	if decl, ok := sc.lookupType(e.Name); ok {
		if s, ok := decl.(*ast.StructDecl); ok {
			e.Decl = s
		}
	}
	fields := l.field(n, "fields")
	if fields != nil && fields.Kind != yaml.MappingNode {
		l.fail(fields, "struct fields must be a mapping from names to values")
		return e
	}
	if fields == nil {
		return e
	}
	for i := 0; i+1 < len(fields.Content); i += 2 {
		key, value := fields.Content[i], fields.Content[i+1]
		e.Fields = append(e.Fields, &ast.FieldInit{
			Range: ast.Range{PosStart: l.pos(key), PosEnd: l.end(value)},
			Name:  key.Value,
			Value: l.expr(value, sc),
		})
	}
	return e
}

func (l *loader) mapExpr(n, callee *yaml.Node, sc *scope) *ast.MapExpr {
	return &ast.MapExpr{
		Range:    l.rangeOf(n),
		Lhs:      l.expr(callee, sc),
		TypeArgs: l.typeArgs(l.field(n, "type_args"), sc),
		Args:     l.exprs(l.field(n, "args"), sc),
	}
}

// forExpr loads `for: [params], in: {call: ...}, do: body`. The body becomes
// a lambda whose continuation is `continue`, passed as the last argument of
// the call. `break` leaves the whole call.
func (l *loader) forExpr(n, params *yaml.Node, sc *scope) ast.Expr {
	at := l.rangeOf(n)
	e := &ast.ForExpr{Range: at, Break: &ast.LocalDecl{Range: at, Name: "break"}}

	callNode := l.field(n, "in")
	call, ok := l.expr(callNode, sc).(*ast.MapExpr)
	if !ok {
		l.failHint(callNode, "a for loop iterates over a call", "write `in: {call: f, args: [...]}`")
		call = &ast.MapExpr{Range: l.rangeOf(callNode), Lhs: &ast.EmptyExpr{Range: l.rangeOf(callNode)}}
	}
	e.Call = call

	body := &ast.FnExpr{Range: at}
	bodyScope := sc.withValue(e.Break)
	body.Params, bodyScope = l.params(l.seq(params), bodyScope)
	cont := &ast.LocalDecl{Range: at, Name: "continue", IsReturn: true}
	body.Params = append(body.Params, cont)
	body.Body = l.expr(l.field(n, "do"), bodyScope.withValue(cont))
	e.Body = body
	return e
}

// loopLocal is the continuation bound to break or continue in a while loop
func loopLocal(name string, at ast.Range) *ast.LocalDecl {
	return &ast.LocalDecl{Range: at, Name: name, Annot: &ast.FnASTType{Range: at}}
}

// block loads a sequence of statements. Items in the block see each other
// but no let bindings. A let binding is visible from its own initializer
// onwards.
func (l *loader) block(n, stmts *yaml.Node, sc *scope) *ast.BlockExpr {
	b := &ast.BlockExpr{Range: l.rangeOf(n)}
	nodes := l.seq(stmts)

	declaredItems := make(map[*yaml.Node]declared)
	for _, s := range nodes {
		if kind, value := form(s); kind == "item" {
			if d, ok := l.declare(value); ok {
				declaredItems[value] = d
				sc = d.exports(sc)
			}
		}
	}
	itemScope := sc

	for _, s := range nodes {
		kind, value := form(s)
		switch kind {
		case "item":
			if d, ok := declaredItems[value]; ok {
				d.fill(itemScope)
				b.Stmts = append(b.Stmts, &ast.ItemStmt{Range: l.rangeOf(s), Item: d.item})
			}
		case "let":
			local := &ast.LocalDecl{
				Range:   l.rangeOf(value),
				Name:    l.name(value, "let binding"),
				Mutable: l.bool(l.field(s, "mut")),
				Annot:   l.optType(l.field(s, "type"), sc),
			}
			sc = sc.withValue(local)
			let := &ast.LetStmt{Range: l.rangeOf(s), Local: local}
			if init := l.field(s, "init"); init != nil {
				let.Init = l.expr(init, sc)
			}
			b.Stmts = append(b.Stmts, let)
		default:
			e := l.expr(s, sc)
			b.Stmts = append(b.Stmts, &ast.ExprStmt{Range: ast.RangeOf(e), Expr: e})
		}
	}
	if result := l.field(n, "result"); result != nil {
		b.Expr = l.expr(result, sc)
	}
	return b
}
