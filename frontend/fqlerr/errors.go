package fqlerr

import (
	"fmt"
	"github.com/cottand/fql/frontend/ast"
	"github.com/cottand/fql/frontend/types"
	"runtime/debug"
	"strings"
)

// enableDebugErrorPrinting makes errors include the line that raised them when printed
var enableDebugErrorPrinting = false

const enableDebugFullStacktrace bool = false

type ErrCode int

const (
	None ErrCode = iota
	Parse
	UndefinedVariable
	ManyPackageNamesInPackage
	TypeMismatch
	ImportFailed
	ReturnOutsideFunction
	MissingReturn
	InvalidType
	DuplicateDeclaration
)

type FqlError interface {
	Error() string
	Code() ErrCode
	ast.Positioner

	withStack([]byte) FqlError
	getStack() []byte
}

func FormatWithCode(e FqlError) string {
	if enableDebugErrorPrinting && e.getStack() != nil {
		stack := string(e.getStack())
		if !enableDebugFullStacktrace {
			if lines := strings.Split(stack, "\n"); len(lines) > 6 {
				stack = strings.TrimSpace(lines[6])
			}
		}
		return fmt.Sprintf("%s:(E%03d) %s", stack, e.Code(), e.Error())
	}
	return fmt.Sprintf("(E%03d) %s", e.Code(), e.Error())
}

// New records where err was raised, for debugging
func New[E FqlError](err E) FqlError {
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
func (e Unclassified) withStack(stack []byte) FqlError {
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
		return e.ParserMessage + " (" + e.Hint + ")"
	}
	return e.ParserMessage
}
func (e NewParse) Code() ErrCode    { return Parse }
func (e NewParse) getStack() []byte { return e.stack }
func (e NewParse) withStack(stack []byte) FqlError {
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
	return fmt.Sprintf("undefined identifier %s", e.Name)
}
func (e NewUndefinedVariable) getStack() []byte { return e.stack }
func (e NewUndefinedVariable) withStack(stack []byte) FqlError {
	e.stack = stack
	return e
}

// NewManyPackageNamesInPackage is raised when the files of a package disagree on its name
type NewManyPackageNamesInPackage struct {
	ast.Positioner
	Path  string
	Names []string
	Files []string
	stack []byte
}

func (e NewManyPackageNamesInPackage) Error() string {
	return fmt.Sprintf("multiple package names in package %s: %s (in files %s)",
		e.Path, strings.Join(e.Names, ", "), strings.Join(e.Files, ", "))
}
func (e NewManyPackageNamesInPackage) Code() ErrCode {
	return ManyPackageNamesInPackage
}
func (e NewManyPackageNamesInPackage) getStack() []byte { return e.stack }
func (e NewManyPackageNamesInPackage) withStack(stack []byte) FqlError {
	e.stack = stack
	return e
}

// NewTypeMismatch wraps a failure of the type engine found at some node
type NewTypeMismatch struct {
	ast.Positioner
	Err   *types.TypeError
	stack []byte
}

func (e NewTypeMismatch) Error() string    { return e.Err.Error() }
func (e NewTypeMismatch) Unwrap() error    { return e.Err }
func (e NewTypeMismatch) Code() ErrCode    { return TypeMismatch }
func (e NewTypeMismatch) getStack() []byte { return e.stack }
func (e NewTypeMismatch) withStack(stack []byte) FqlError {
	e.stack = stack
	return e
}

type NewImportFailed struct {
	ast.Positioner
	Path  string
	Err   error
	stack []byte
}

func (e NewImportFailed) Error() string {
	return fmt.Sprintf("cannot import %q: %v", e.Path, e.Err)
}
func (e NewImportFailed) Unwrap() error    { return e.Err }
func (e NewImportFailed) Code() ErrCode    { return ImportFailed }
func (e NewImportFailed) getStack() []byte { return e.stack }
func (e NewImportFailed) withStack(stack []byte) FqlError {
	e.stack = stack
	return e
}

type NewReturnOutsideFunction struct {
	ast.Positioner
	stack []byte
}

func (e NewReturnOutsideFunction) Error() string    { return "return outside of a function body" }
func (e NewReturnOutsideFunction) Code() ErrCode    { return ReturnOutsideFunction }
func (e NewReturnOutsideFunction) getStack() []byte { return e.stack }
func (e NewReturnOutsideFunction) withStack(stack []byte) FqlError {
	e.stack = stack
	return e
}

type NewMissingReturn struct {
	ast.Positioner
	stack []byte
}

func (e NewMissingReturn) Error() string    { return "function block does not end in a return statement" }
func (e NewMissingReturn) Code() ErrCode    { return MissingReturn }
func (e NewMissingReturn) getStack() []byte { return e.stack }
func (e NewMissingReturn) withStack(stack []byte) FqlError {
	e.stack = stack
	return e
}

// NewInvalidType is raised for type expressions that do not denote a type,
// like an unknown scalar name or kind
type NewInvalidType struct {
	ast.Positioner
	Message string
	stack   []byte
}

func (e NewInvalidType) Error() string    { return "invalid type: " + e.Message }
func (e NewInvalidType) Code() ErrCode    { return InvalidType }
func (e NewInvalidType) getStack() []byte { return e.stack }
func (e NewInvalidType) withStack(stack []byte) FqlError {
	e.stack = stack
	return e
}

type NewDuplicateDeclaration struct {
	ast.Positioner
	Name  string
	stack []byte
}

func (e NewDuplicateDeclaration) Error() string {
	return fmt.Sprintf("%s is declared more than once in this package", e.Name)
}
func (e NewDuplicateDeclaration) Code() ErrCode    { return DuplicateDeclaration }
func (e NewDuplicateDeclaration) getStack() []byte { return e.stack }
func (e NewDuplicateDeclaration) withStack(stack []byte) FqlError {
	e.stack = stack
	return e
}
