package astyaml

import (
	"strings"

	"github.com/benbjohnson/immutable"
	"github.com/impalago/infersema/frontend/ast"
)

// scope is a persistent lexical environment: extending it leaves the scope
// it was extended from untouched, so sibling blocks never see each other's
// bindings.
type scope struct {
	values *immutable.Map[string, ast.ValueDecl]
	types  *immutable.Map[string, ast.TypeDecl]
	mods   *immutable.Map[string, *scope]
}

func newScope() *scope {
	return &scope{
		values: immutable.NewMap[string, ast.ValueDecl](nil),
		types:  immutable.NewMap[string, ast.TypeDecl](nil),
		mods:   immutable.NewMap[string, *scope](nil),
	}
}

func (s *scope) withValue(d ast.ValueDecl) *scope {
	next := *s
	next.values = s.values.Set(d.DeclName(), d)
	return &next
}

func (s *scope) withType(d ast.TypeDecl) *scope {
	next := *s
	next.types = s.types.Set(d.DeclName(), d)
	return &next
}

func (s *scope) withMod(name string, exports *scope) *scope {
	next := *s
	next.mods = s.mods.Set(name, exports)
	return &next
}

// merge adds every binding of other on top of s
func (s *scope) merge(other *scope) *scope {
	next := *s
	for it := other.values.Iterator(); !it.Done(); {
		k, v, _ := it.Next()
		next.values = next.values.Set(k, v)
	}
	for it := other.types.Iterator(); !it.Done(); {
		k, v, _ := it.Next()
		next.types = next.types.Set(k, v)
	}
	for it := other.mods.Iterator(); !it.Done(); {
		k, v, _ := it.Next()
		next.mods = next.mods.Set(k, v)
	}
	return &next
}

// module follows a `a::b::` qualifier down to the scope exporting the last
// segment of name
func (s *scope) module(name string) (*scope, string, bool) {
	parts := strings.Split(name, "::")
	current := s
	for _, part := range parts[:len(parts)-1] {
		next, ok := current.mods.Get(part)
		if !ok {
			return nil, "", false
		}
		current = next
	}
	return current, parts[len(parts)-1], true
}

func (s *scope) lookupValue(name string) (ast.ValueDecl, bool) {
	mod, last, ok := s.module(name)
	if !ok {
		return nil, false
	}
	return mod.values.Get(last)
}

func (s *scope) lookupType(name string) (ast.TypeDecl, bool) {
	mod, last, ok := s.module(name)
	if !ok {
		return nil, false
	}
	return mod.types.Get(last)
}
