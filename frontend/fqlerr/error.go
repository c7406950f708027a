package fqlerr

import (
	"fmt"
	"go/token"
	"log/slog"
	"slices"
	"strings"
)

type Errors struct {
	errs []FqlError
}

func (r *Errors) With(err ...FqlError) *Errors {
	if r == nil {
		return &Errors{errs: err}
	}
	r.errs = append(r.errs, err...)
	return r
}

func (r *Errors) Merge(err *Errors) *Errors {
	if r == nil {
		return err
	}
	if err == nil {
		return r
	}
	if len(err.errs) == 0 {
		return r
	}
	return r.With(err.errs...)
}

func (r *Errors) Errors() []FqlError {
	if r == nil {
		return nil
	}
	return r.errs
}

func (r *Errors) HasError() bool {
	if r == nil {
		return false
	}
	return len(r.errs) > 0
}

func (r *Errors) LogValue() slog.Value {
	var vals []slog.Attr
	for i, v := range r.Errors() {
		vals = append(vals, slog.Attr{
			Key: fmt.Sprint("e", i),
			Value: slog.GroupValue(
				slog.Attr{
					Key:   "msg",
					Value: slog.StringValue(FormatWithCode(v)),
				},
			),
		})
	}
	return slog.GroupValue(vals...)
}

// FileErrors are the diagnostics found in a single file
type FileErrors struct {
	File string
	// Source is the text of File, kept to show the offending lines.
	// It may be empty.
	Source string
	Fset   *token.FileSet
	Errors *Errors
	// Pretty renders diagnostics with the source line they point to
	Pretty bool
}

func (e *FileErrors) Error() string {
	sb := &strings.Builder{}
	for i, err := range e.sorted() {
		if i > 0 {
			sb.WriteString("\n")
		}
		if e.Pretty {
			sb.WriteString(FormatWithCodeAndSource(err, e.Fset, e.Source))
		} else {
			sb.WriteString(e.position(err))
			sb.WriteString(": ")
			sb.WriteString(FormatWithCode(err))
		}
	}
	return sb.String()
}

func (e *FileErrors) LogValue() slog.Value {
	return slog.GroupValue(slog.String("file", e.File), slog.Any("errors", e.Errors))
}

func (e *FileErrors) position(err FqlError) string {
	if e.Fset == nil || err.Pos() == token.NoPos {
		return e.File
	}
	return e.Fset.Position(err.Pos()).String()
}

// sorted returns the diagnostics ordered by where they occur in the file
func (e *FileErrors) sorted() []FqlError {
	errs := slices.Clone(e.Errors.Errors())
	slices.SortStableFunc(errs, func(a, b FqlError) int {
		return int(a.Pos()) - int(b.Pos())
	})
	return errs
}

// PackageErrors bundles the FileErrors of every file of a package which failed to check
type PackageErrors struct {
	Path  string
	Files []*FileErrors
}

func (e *PackageErrors) Error() string {
	msgs := make([]string, 0, len(e.Files))
	for _, f := range e.Files {
		msgs = append(msgs, f.Error())
	}
	return strings.Join(msgs, "\n")
}

// Count is the total number of diagnostics across files
func (e *PackageErrors) Count() int {
	n := 0
	for _, f := range e.Files {
		n += len(f.Errors.Errors())
	}
	return n
}

// FormatWithCodeAndSource renders err with the line of source it points to and
// a caret under the offending column
func FormatWithCodeAndSource(err FqlError, fset *token.FileSet, source string) string {
	if fset == nil || err.Pos() == token.NoPos {
		return FormatWithCode(err)
	}
	pos := fset.Position(err.Pos())
	lines := strings.Split(source, "\n")
	sb := &strings.Builder{}
	sb.WriteString(pos.String())
	sb.WriteString(": ")
	sb.WriteString(FormatWithCode(err))
	if pos.Line < 1 || pos.Line > len(lines) {
		return sb.String()
	}
	line := lines[pos.Line-1]
	gutter := fmt.Sprintf("%4d | ", pos.Line)
	sb.WriteString("\n")
	sb.WriteString(gutter)
	sb.WriteString(line)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat(" ", len(gutter)))
	width := 1
	if err.End() > err.Pos() {
		end := fset.Position(err.End())
		if end.Line == pos.Line {
			width = end.Column - pos.Column
		}
	}
	if pos.Column > 1 {
		sb.WriteString(strings.Repeat(" ", min(pos.Column-1, len(line))))
	}
	sb.WriteString(strings.Repeat("^", max(width, 1)))
	return sb.String()
}
