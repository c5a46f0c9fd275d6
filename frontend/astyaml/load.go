// Package astyaml decodes programs written as YAML documents into the AST
// graph, with names resolved and positions recorded.
//
// A document is a mapping with a single `items` sequence. The first key of
// every mapping names the construct it holds, for example
//
//	items:
//	  - fn: id
//	    type_params: [T]
//	    params: [{name: x, type: T}]
//	    ret: T
//	    body: x
//
// Function declarations return unit when `ret` is absent, never return when
// it is `!` and have their return type inferred when it is `_`. Lambdas
// default to `_`.
package astyaml

import (
	"bytes"
	"go/token"
	"os"

	"github.com/impalago/infersema/frontend/ast"
	"github.com/impalago/infersema/frontend/ilerr"
	"github.com/impalago/infersema/internal/log"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var logger = log.DefaultLogger.With("section", "loader")

// Program is a loaded document
type Program struct {
	Fset *token.FileSet
	File *token.File
	Mod  *ast.ModContents
}

// LoadFile reads and loads the document at path
func LoadFile(path string) (*Program, *ilerr.Errors, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading program")
	}
	return Load(path, src)
}

// Load decodes src into a module. Malformed constructs are reported as
// diagnostics. The returned error is only set when src is not YAML at all.
func Load(name string, src []byte) (*Program, *ilerr.Errors, error) {
	var doc yaml.Node
	dec := yaml.NewDecoder(bytes.NewReader(src))
	if err := dec.Decode(&doc); err != nil {
		return nil, nil, errors.Wrapf(err, "decoding %s", name)
	}

	fset := token.NewFileSet()
	file := fset.AddFile(name, -1, len(src))
	file.SetLinesForContent(src)
	l := &loader{file: file}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	mod := &ast.ModContents{Range: l.rangeOf(root)}
	switch {
	case root.Kind != yaml.MappingNode:
		l.fail(root, "a program must be a mapping with an `items` sequence")
	case l.field(root, "items") == nil:
		l.fail(root, "missing `items`")
	default:
		items := l.field(root, "items")
		mod.Items = l.module(l.seq(items), newScope())
	}
	logger.Debug("loaded program", "file", name, "items", len(mod.Items), "diagnostics", l.errs.Errors())
	return &Program{Fset: fset, File: file, Mod: mod}, l.errs, nil
}

type loader struct {
	file *token.File
	errs *ilerr.Errors
}

func (l *loader) fail(n *yaml.Node, msg string) {
	l.failHint(n, msg, "")
}

func (l *loader) failHint(n *yaml.Node, msg, hint string) {
	at := l.rangeOf(n)
	l.errs = l.errs.With(ilerr.New(ilerr.NewParse{Positioner: at, ParserMessage: msg, Hint: hint}))
}

func (l *loader) pos(n *yaml.Node) token.Pos {
	if n == nil || n.Line < 1 || n.Line > l.file.LineCount() {
		return token.NoPos
	}
	offset := l.file.Offset(l.file.LineStart(n.Line)) + n.Column - 1
	return l.file.Pos(min(offset, l.file.Size()))
}

func (l *loader) end(n *yaml.Node) token.Pos {
	if n == nil {
		return token.NoPos
	}
	if len(n.Content) > 0 {
		return l.end(n.Content[len(n.Content)-1])
	}
	start := l.pos(n)
	if !start.IsValid() {
		return start
	}
	offset := l.file.Offset(start) + len(n.Value)
	return l.file.Pos(min(offset, l.file.Size()))
}

func (l *loader) rangeOf(n *yaml.Node) ast.Range {
	return ast.Range{PosStart: l.pos(n), PosEnd: l.end(n)}
}

// field is the value of key in the mapping n, nil if absent
func (l *loader) field(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

// form is the first key of the mapping n, which names its construct
func form(n *yaml.Node) (string, *yaml.Node) {
	if n.Kind != yaml.MappingNode || len(n.Content) < 2 {
		return "", nil
	}
	return n.Content[0].Value, n.Content[1]
}

func (l *loader) seq(n *yaml.Node) []*yaml.Node {
	switch {
	case n == nil:
		return nil
	case n.Kind == yaml.AliasNode:
		return l.seq(n.Alias)
	case n.Kind == yaml.SequenceNode:
		return n.Content
	case n.Kind == yaml.ScalarNode && n.Tag == "!!null":
		return nil
	default:
		l.fail(n, "expected a sequence")
		return nil
	}
}

func (l *loader) name(n *yaml.Node, what string) string {
	if n == nil || n.Kind != yaml.ScalarNode || n.Value == "" {
		l.fail(n, "expected a name for "+what)
		return "<error>"
	}
	return n.Value
}

func (l *loader) uint(n *yaml.Node, what string) uint64 {
	var v uint64
	if n == nil {
		l.fail(n, "missing "+what)
		return 0
	}
	if err := n.Decode(&v); err != nil {
		l.fail(n, what+" must be a non-negative integer")
		return 0
	}
	return v
}

func (l *loader) bool(n *yaml.Node) bool {
	var v bool
	if n == nil {
		return false
	}
	if err := n.Decode(&v); err != nil {
		l.fail(n, "expected true or false")
	}
	return v
}
