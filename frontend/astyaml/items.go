package astyaml

import (
	"github.com/impalago/infersema/frontend/ast"
	"gopkg.in/yaml.v3"
)

// declared is an item whose name is known but whose contents are loaded
// later, once every sibling item is in scope
type declared struct {
	item ast.Item
	// exports are the bindings the item adds to its enclosing scope
	exports func(*scope) *scope
	fill    func(*scope)
}

// module loads a list of items that all see each other
func (l *loader) module(nodes []*yaml.Node, outer *scope) []ast.Item {
	decls := l.declareAll(nodes)
	sc := outer
	for _, d := range decls {
		sc = d.exports(sc)
	}
	items := make([]ast.Item, 0, len(decls))
	for _, d := range decls {
		d.fill(sc)
		items = append(items, d.item)
	}
	return items
}

func (l *loader) declareAll(nodes []*yaml.Node) []declared {
	decls := make([]declared, 0, len(nodes))
	for _, n := range nodes {
		if d, ok := l.declare(n); ok {
			decls = append(decls, d)
		}
	}
	return decls
}

func (l *loader) declare(n *yaml.Node) (declared, bool) {
	kind, value := form(n)
	switch kind {
	case "fn":
		fn := &ast.FnDecl{Range: l.rangeOf(n), Name: l.name(value, "function")}
		return declared{
			item:    fn,
			exports: func(sc *scope) *scope { return sc.withValue(fn) },
			fill:    func(sc *scope) { l.fillFn(fn, n, sc) },
		}, true

	case "struct":
		decl := &ast.StructDecl{Range: l.rangeOf(n), Name: l.name(value, "struct")}
		return declared{
			item:    decl,
			exports: func(sc *scope) *scope { return sc.withType(decl) },
			fill:    func(sc *scope) { l.fillStruct(decl, n, sc) },
		}, true

	case "static":
		static := &ast.StaticItem{
			Range:   l.rangeOf(n),
			Name:    l.name(value, "static"),
			Mutable: l.bool(l.field(n, "mut")),
		}
		return declared{
			item:    static,
			exports: func(sc *scope) *scope { return sc.withValue(static) },
			fill: func(sc *scope) {
				static.Annot = l.optType(l.field(n, "type"), sc)
				static.Init = l.expr(l.field(n, "init"), sc)
			},
		}, true

	case "mod":
		mod := &ast.ModDecl{Range: l.rangeOf(n), Name: l.name(value, "module")}
		mod.Contents = &ast.ModContents{Range: l.rangeOf(n)}
		inner := l.declareAll(l.seq(l.field(n, "items")))
		exports := newScope()
		for _, d := range inner {
			exports = d.exports(exports)
		}
		return declared{
			item:    mod,
			exports: func(sc *scope) *scope { return sc.withMod(mod.Name, exports) },
			fill: func(sc *scope) {
				sc = sc.merge(exports)
				for _, d := range inner {
					d.fill(sc)
					mod.Contents.Items = append(mod.Contents.Items, d.item)
				}
			},
		}, true

	case "extern":
		block := &ast.ExternBlock{Range: l.rangeOf(n), ABI: value.Value}
		var fns []*yaml.Node
		for _, fnNode := range l.seq(l.field(n, "fns")) {
			if k, _ := form(fnNode); k != "fn" {
				l.fail(fnNode, "extern blocks only hold functions")
				continue
			}
			fns = append(fns, fnNode)
		}
		for _, fnNode := range fns {
			_, name := form(fnNode)
			block.Fns = append(block.Fns, &ast.FnDecl{Range: l.rangeOf(fnNode), Name: l.name(name, "function")})
		}
		return declared{
			item: block,
			exports: func(sc *scope) *scope {
				for _, fn := range block.Fns {
					sc = sc.withValue(fn)
				}
				return sc
			},
			fill: func(sc *scope) {
				for i, fn := range block.Fns {
					l.fillFn(fn, fns[i], sc)
				}
			},
		}, true

	default:
		l.failHint(n, "expected an item", "items start with one of fn, struct, static, mod, extern")
		return declared{}, false
	}
}

func (l *loader) typeParams(nodes []*yaml.Node, sc *scope) ([]*ast.ASTTypeParam, *scope) {
	params := make([]*ast.ASTTypeParam, len(nodes))
	for i, n := range nodes {
		params[i] = &ast.ASTTypeParam{Range: l.rangeOf(n), Name: l.name(n, "type parameter"), Index: i}
		sc = sc.withType(params[i])
	}
	return params, sc
}

func (l *loader) fillFn(fn *ast.FnDecl, n *yaml.Node, sc *scope) {
	fn.TypeParams, sc = l.typeParams(l.seq(l.field(n, "type_params")), sc)
	fn.Params, sc = l.params(l.seq(l.field(n, "params")), sc)
	ret, hasRet := l.returnParam(n, l.field(n, "ret"), sc, false)
	if hasRet {
		fn.Params = append(fn.Params, ret)
		sc = sc.withValue(ret)
	}
	if body := l.field(n, "body"); body != nil {
		fn.Body = l.expr(body, sc)
	}
}

func (l *loader) fillStruct(decl *ast.StructDecl, n *yaml.Node, sc *scope) {
	decl.TypeParams, sc = l.typeParams(l.seq(l.field(n, "type_params")), sc)
	for i, f := range l.seq(l.field(n, "fields")) {
		decl.Fields = append(decl.Fields, &ast.FieldDecl{
			Range: l.rangeOf(f),
			Name:  l.name(l.field(f, "name"), "field"),
			Annot: l.typ(l.field(f, "type"), sc),
			Index: i,
		})
	}
}

// params loads a parameter list. A parameter is either a bare name or a
// mapping with `name` and an optional `type`.
func (l *loader) params(nodes []*yaml.Node, sc *scope) ([]*ast.LocalDecl, *scope) {
	params := make([]*ast.LocalDecl, 0, len(nodes))
	for _, n := range nodes {
		p := &ast.LocalDecl{Range: l.rangeOf(n)}
		if n.Kind == yaml.ScalarNode {
			p.Name = l.name(n, "parameter")
		} else {
			p.Name = l.name(l.field(n, "name"), "parameter")
			p.Mutable = l.bool(l.field(n, "mut"))
			p.Annot = l.optType(l.field(n, "type"), sc)
		}
		params = append(params, p)
		sc = sc.withValue(p)
	}
	return params, sc
}

// returnParam synthesizes the `return` continuation from `ret`. A missing
// `ret` means unit unless inferByDefault is set.
func (l *loader) returnParam(owner, ret *yaml.Node, sc *scope, inferByDefault bool) (*ast.LocalDecl, bool) {
	p := &ast.LocalDecl{Range: l.rangeOf(owner), Name: "return", IsReturn: true}
	switch {
	case ret == nil && inferByDefault:
		return p, true
	case ret == nil:
		p.Annot = &ast.FnASTType{Range: p.Range}
		return p, true
	case ret.Kind == yaml.ScalarNode && ret.Value == "!":
		return nil, false
	case ret.Kind == yaml.ScalarNode && ret.Value == "_":
		p.Range = l.rangeOf(ret)
		return p, true
	default:
		p.Range = l.rangeOf(ret)
		p.Annot = continuation(l.typ(ret, sc))
		return p, true
	}
}

// continuation is the type of the parameter receiving a value of type t.
// Tuples are received spread out.
func continuation(t ast.ASTType) *ast.FnASTType {
	if tuple, ok := t.(*ast.TupleASTType); ok {
		return &ast.FnASTType{Range: tuple.Range, Params: tuple.Elems}
	}
	return &ast.FnASTType{Range: ast.RangeOf(t), Params: []ast.ASTType{t}}
}
