package script

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rotisserie/eris"
	"go.starlark.net/starlark"

	"github.com/shakfu/makefilegen/pkg/logctx"
	"github.com/shakfu/makefilegen/pkg/makefile"
)

// Result of a script evaluation.
type Result struct {
	// Generator holds the Makefile model declared by configure().
	Generator *makefile.Generator
	// Options are the option() declarations encountered in the global scope.
	Options map[string]Option
	// OptionValues are the effective values (defaults merged with overrides).
	OptionValues map[string]string
}

// RunScript evaluates a Starlark build script. The global scope runs first
// (option declarations, environment setup); the script's configure function
// is then called and populates the returned Makefile model. options supplies
// key=value overrides for option() calls; strict turns duplicate
// declarations into errors.
func RunScript(ctx context.Context, filename, projectRoot string, options map[string]string, strict bool) (*Result, error) {
	projectRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, err
	}

	filename, err = filepath.Abs(filename)
	if err != nil {
		return nil, err
	}

	gen := makefile.NewGenerator()
	gen.Strict = strict
	threadCtx := &scriptCtx{
		ctx:          ctx,
		gen:          gen,
		filepath:     filename,
		projectRoot:  projectRoot,
		options:      make(map[string]Option),
		optionValues: options,
		envOverrides: make(map[string]string),
		yamlCache:    make(map[string]interface{}),
	}

	builtins := starlark.StringDict{
		"OS":           starlark.String(runtime.GOOS),
		"ARCH":         starlark.String(runtime.GOARCH),
		"option":       starlark.NewBuiltin("option", starOption),
		"var":          starlark.NewBuiltin("var", starVar),
		"include_dirs": starlark.NewBuiltin("include_dirs", dirsBuiltin(gen.AddIncludeDirs, gen.AddIncludeDirVar)),
		"link_dirs":    starlark.NewBuiltin("link_dirs", dirsBuiltin(gen.AddLinkDirs, gen.AddLinkDirVar)),
		"cflags":       starlark.NewBuiltin("cflags", flagsBuiltin(gen.AddCFlags)),
		"cxxflags":     starlark.NewBuiltin("cxxflags", flagsBuiltin(gen.AddCXXFlags)),
		"ldflags":      starlark.NewBuiltin("ldflags", flagsBuiltin(gen.AddLDFlags)),
		"ldlibs":       starlark.NewBuiltin("ldlibs", flagsBuiltin(gen.AddLDLibs)),
		"target":       starlark.NewBuiltin("target", starTarget),
		"pattern_rule": starlark.NewBuiltin("pattern_rule", starPatternRule),
		"phony":        starlark.NewBuiltin("phony", starPhony),
		"clean":        starlark.NewBuiltin("clean", starClean),
		"getenv":       starlark.NewBuiltin("getenv", starGetenv),
		"setenv":       starlark.NewBuiltin("setenv", starSetenv),
		"prepend_path": starlark.NewBuiltin("prepend_path", starPrependPath),
		"read_yaml":    starlark.NewBuiltin("read_yaml", starReadYaml),
		"isdir":        starlark.NewBuiltin("isdir", starIsdir),
		"isfile":       starlark.NewBuiltin("isfile", starIsfile),
		"resolve_path": starlark.NewBuiltin("resolve_path", starResolvePath),
		"execute":      starlark.NewBuiltin("execute", starExecute),
		"python":       starlark.NewBuiltin("python", starPython),
		"info":         starlark.NewBuiltin("info", starInfo),
		"warn":         starlark.NewBuiltin("warn", starWarn),
		"error":        starlark.NewBuiltin("error", starError),
	}

	thread := &starlark.Thread{
		Name: "main",
		Print: func(thread *starlark.Thread, msg string) {
			logctx.Log(ctx).Info().Str("thread", thread.Name).Msg(msg)
		},
	}
	thread.SetLocal("scriptCtx", threadCtx)

	source, err := os.ReadFile(filename)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read %s", filename)
	}

	globals, err := starlark.ExecFile(thread, simplifyPath(threadCtx, filename), source, builtins)
	if err != nil {
		if evalError, ok := err.(*starlark.EvalError); ok {
			return nil, eris.Errorf("failed to execute %s:\n%s", simplifyPath(threadCtx, filename), evalError.Backtrace())
		}
		return nil, eris.Wrapf(err, "failed to execute %s", simplifyPath(threadCtx, filename))
	}

	configure, ok := globals["configure"]
	if !ok {
		return nil, eris.Errorf("%s did not declare a configure function", simplifyPath(threadCtx, filename))
	}

	configureFunc, ok := configure.(starlark.Callable)
	if !ok {
		return nil, eris.Errorf("%s declared a configure value but it's not a function", simplifyPath(threadCtx, filename))
	}

	threadCtx.configurePhase = true
	_, err = starlark.Call(thread, configureFunc, nil, nil)
	if err != nil {
		if evalError, ok := err.(*starlark.EvalError); ok {
			return nil, eris.New(evalError.Backtrace())
		}
		return nil, eris.Wrapf(err, "failed configure call in %s", simplifyPath(threadCtx, filename))
	}

	values := make(map[string]string, len(threadCtx.options))
	for name, opt := range threadCtx.options {
		if value, ok := options[name]; ok {
			values[name] = value
		} else {
			values[name] = opt.Default()
		}
	}

	return &Result{
		Generator:    gen,
		Options:      threadCtx.options,
		OptionValues: values,
	}, nil
}
