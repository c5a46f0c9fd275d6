package ilerr

import (
	"fmt"
	"go/token"
	"runtime/debug"
	"strings"

	"github.com/impalago/infersema/frontend/ast"
	"github.com/impalago/infersema/frontend/types"
)

// DebugStacks makes errors include the location that created them when printed
var DebugStacks = false

// debugFullStacktrace prints the whole stack rather than the creating frame
const debugFullStacktrace = false

type ErrCode int

const (
	None ErrCode = iota
	Parse
	TypeMismatch
	JoinMismatch
	Arity
	ArgumentCount
	UndefinedVariable
	UnresolvedType
	UnresolvedField
	NotIndexable
	NotDereferenceable
	NotIntegral
	NonConvergence
)

type IleError interface {
	Error() string
	Code() ErrCode
	ast.Positioner

	withStack([]byte) IleError
	getStack() []byte
}

func FormatWithCode(e IleError) string {
	if DebugStacks && e.getStack() != nil {
		stack := string(e.getStack())
		if !debugFullStacktrace {
			// frame of the caller of New
			if lines := strings.Split(stack, "\n"); len(lines) > 6 {
				stack = strings.TrimSpace(lines[6])
			}
		}
		return fmt.Sprintf("%s:(E%03d) %s", stack, e.Code(), e.Error())
	}
	return fmt.Sprintf("(E%03d) %s", e.Code(), e.Error())
}

// FormatWithPosition prefixes the error with its file:line:column in fset
func FormatWithPosition(e IleError, fset *token.FileSet) string {
	if fset != nil && e.Pos().IsValid() {
		return fmt.Sprintf("%v: %s", fset.Position(e.Pos()), FormatWithCode(e))
	}
	return FormatWithCode(e)
}

func New[E IleError](err E) IleError {
	return err.withStack(debug.Stack())
}

type Unclassified struct {
	From error
	ast.Positioner
	stack []byte
}

func (e Unclassified) Error() string {
	return fmt.Sprintf("unclassified error: %v", e.From)
}
func (e Unclassified) Code() ErrCode    { return None }
func (e Unclassified) getStack() []byte { return e.stack }
func (e Unclassified) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewParse struct {
	ast.Positioner
	ParserMessage string
	Hint          string
	stack         []byte
}

func (e NewParse) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s (hint: %s)", e.ParserMessage, e.Hint)
	}
	return e.ParserMessage
}
func (e NewParse) Code() ErrCode    { return Parse }
func (e NewParse) getStack() []byte { return e.stack }
func (e NewParse) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewTypeMismatch struct {
	ast.Positioner
	Expected types.Type
	Found    types.Type
	stack    []byte
}

func (e NewTypeMismatch) Error() string {
	return fmt.Sprintf("type mismatch: expected type '%v', but found a different type '%v'", e.Expected, e.Found)
}
func (e NewTypeMismatch) Code() ErrCode    { return TypeMismatch }
func (e NewTypeMismatch) getStack() []byte { return e.stack }
func (e NewTypeMismatch) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewJoinMismatch struct {
	ast.Positioner
	First  types.Type
	Second types.Type
	stack  []byte
}

func (e NewJoinMismatch) Error() string {
	return fmt.Sprintf("incompatible types '%v' and '%v' cannot be merged", e.First, e.Second)
}
func (e NewJoinMismatch) Code() ErrCode    { return JoinMismatch }
func (e NewJoinMismatch) getStack() []byte { return e.stack }
func (e NewJoinMismatch) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewArity struct {
	ast.Positioner
	Of    string
	Want  int
	Got   int
	stack []byte
}

func (e NewArity) Error() string {
	return fmt.Sprintf("wrong number of type arguments for '%s': expected %d, got %d", e.Of, e.Want, e.Got)
}
func (e NewArity) Code() ErrCode    { return Arity }
func (e NewArity) getStack() []byte { return e.stack }
func (e NewArity) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewArgumentCount struct {
	ast.Positioner
	Callee types.Type
	Want   int
	Got    int
	stack  []byte
}

func (e NewArgumentCount) Error() string {
	return fmt.Sprintf("wrong number of arguments calling '%v': expected %d, got %d", e.Callee, e.Want, e.Got)
}
func (e NewArgumentCount) Code() ErrCode    { return ArgumentCount }
func (e NewArgumentCount) getStack() []byte { return e.stack }
func (e NewArgumentCount) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewUndefinedVariable struct {
	ast.Positioner
	Name  string
	stack []byte
}

func (e NewUndefinedVariable) Code() ErrCode { return UndefinedVariable }
func (e NewUndefinedVariable) Error() string {
	return fmt.Sprintf("variable '%s' is not defined", e.Name)
}
func (e NewUndefinedVariable) getStack() []byte { return e.stack }
func (e NewUndefinedVariable) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewUnresolvedType struct {
	ast.Positioner
	Name  string
	stack []byte
}

func (e NewUnresolvedType) Code() ErrCode { return UnresolvedType }
func (e NewUnresolvedType) Error() string {
	return fmt.Sprintf("type '%s' is not defined", e.Name)
}
func (e NewUnresolvedType) getStack() []byte { return e.stack }
func (e NewUnresolvedType) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewUnresolvedField struct {
	ast.Positioner
	Of    types.Type
	Name  string
	stack []byte
}

func (e NewUnresolvedField) Code() ErrCode { return UnresolvedField }
func (e NewUnresolvedField) Error() string {
	return fmt.Sprintf("type '%v' has no field '%s'", e.Of, e.Name)
}
func (e NewUnresolvedField) getStack() []byte { return e.stack }
func (e NewUnresolvedField) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewNotIndexable struct {
	ast.Positioner
	Of     types.Type
	Reason string
	stack  []byte
}

func (e NewNotIndexable) Code() ErrCode { return NotIndexable }
func (e NewNotIndexable) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot index or call a value of type '%v': %s", e.Of, e.Reason)
	}
	return fmt.Sprintf("cannot index or call a value of type '%v'", e.Of)
}
func (e NewNotIndexable) getStack() []byte { return e.stack }
func (e NewNotIndexable) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewNotDereferenceable struct {
	ast.Positioner
	Of    types.Type
	stack []byte
}

func (e NewNotDereferenceable) Code() ErrCode { return NotDereferenceable }
func (e NewNotDereferenceable) Error() string {
	return fmt.Sprintf("cannot dereference a value of non-pointer type '%v'", e.Of)
}
func (e NewNotDereferenceable) getStack() []byte { return e.stack }
func (e NewNotDereferenceable) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewNotIntegral struct {
	ast.Positioner
	Found types.Type
	stack []byte
}

func (e NewNotIntegral) Code() ErrCode { return NotIntegral }
func (e NewNotIntegral) Error() string {
	return fmt.Sprintf("expected an integer type, but found '%v'", e.Found)
}
func (e NewNotIntegral) getStack() []byte { return e.stack }
func (e NewNotIntegral) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewNonConvergence struct {
	ast.Positioner
	Passes int
	stack  []byte
}

func (e NewNonConvergence) Code() ErrCode { return NonConvergence }
func (e NewNonConvergence) Error() string {
	return fmt.Sprintf("type inference did not converge after %d passes", e.Passes)
}
func (e NewNonConvergence) getStack() []byte { return e.stack }
func (e NewNonConvergence) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}
