package script

import (
	"context"

	"github.com/rotisserie/eris"
	"go.starlark.net/starlark"
	starsyntax "go.starlark.net/syntax"

	"github.com/shakfu/makefilegen/pkg/makefile"
)

// Option describes an option() declaration from a script.
type Option struct {
	DefaultValue starlark.String
	Help         string
}

// Default returns the declared default as a plain string.
func (o Option) Default() string {
	return o.DefaultValue.GoString()
}

// scriptCtx is the per-evaluation state shared by all builtins via the
// thread locals.
type scriptCtx struct {
	ctx            context.Context
	gen            *makefile.Generator
	options        map[string]Option
	optionValues   map[string]string
	envOverrides   map[string]string
	yamlCache      map[string]interface{}
	filepath       string
	projectRoot    string
	configurePhase bool
}

func getCtx(thread *starlark.Thread) *scriptCtx {
	return thread.Local("scriptCtx").(*scriptCtx)
}

// Path is a filesystem path as a Starlark value, produced by
// resolve_path().
type Path string

func (p Path) String() string {
	return starlark.String(p).String()
}

func (p Path) Type() string {
	return "path"
}

func (p Path) Freeze() {}

func (p Path) Truth() starlark.Bool {
	return p != ""
}

func (p Path) Hash() (uint32, error) {
	return starlark.String(p).Hash()
}

func (p Path) CompareSameType(op starsyntax.Token, y_ starlark.Value, depth int) (bool, error) {
	y := y_.(Path)

	switch op {
	case starsyntax.EQL:
		return p == y, nil
	case starsyntax.NEQ:
		return p != y, nil
	case starsyntax.LT:
		return p < y, nil
	case starsyntax.LE:
		return p <= y, nil
	case starsyntax.GT:
		return p > y, nil
	case starsyntax.GE:
		return p >= y, nil
	}

	return false, eris.Errorf("unknown operator %v", op)
}

func (p Path) Index(i int) starlark.Value {
	return starlark.String(p[i])
}

func (p Path) Len() int {
	return len(p)
}

func (p Path) Slice(start, end, step int) starlark.Value {
	return starlark.String(p).Slice(start, end, step)
}
