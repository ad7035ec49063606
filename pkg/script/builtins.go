package script

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aidarkhanov/nanoid"
	"github.com/rotisserie/eris"
	"go.starlark.net/starlark"
	"gopkg.in/yaml.v3"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/shakfu/makefilegen/pkg/logctx"
	"github.com/shakfu/makefilegen/pkg/makefile"
	"github.com/shakfu/makefilegen/pkg/pyconfig"
)

// requireConfigure guards the declaration builtins: they may only run
// inside the script's configure function.
func requireConfigure(thread *starlark.Thread, fn *starlark.Builtin) (*scriptCtx, error) {
	ctx := getCtx(thread)
	if !ctx.configurePhase {
		return nil, eris.Errorf("%s can only be called inside configure()", fn.Name())
	}
	return ctx, nil
}

func starOption(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	var defaultValue starlark.String
	var help string

	err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name", &name, "default?", &defaultValue, "help?", &help)
	if err != nil {
		return nil, err
	}

	ctx := getCtx(thread)
	if ctx.configurePhase {
		return nil, eris.New("option can only be called during the init phase (in the global scope)")
	}

	ctx.options[name] = Option{
		DefaultValue: defaultValue,
		Help:         help,
	}

	if value, ok := ctx.optionValues[name]; ok {
		return starlark.String(value), nil
	}

	return defaultValue, nil
}

func starVar(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	var value starlark.Value
	var kind string

	err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name", &name, "value", &value, "kind?", &kind)
	if err != nil {
		return nil, err
	}

	ctx, err := requireConfigure(thread, fn)
	if err != nil {
		return nil, err
	}

	op, err := makefile.AssignOpFromKind(kind)
	if err != nil {
		return nil, err
	}

	var values []string
	switch value := value.(type) {
	case starlark.String:
		values = []string{value.GoString()}
	case Path:
		values = []string{string(value)}
	case starlarkIterable:
		values, err = iterableToStrings(value, "value")
		if err != nil {
			return nil, err
		}
	default:
		return nil, eris.Errorf("%s: unexpected value type %s", fn.Name(), value.Type())
	}

	v, err := makefile.NewVarOp(name, op, values...)
	if err != nil {
		return nil, err
	}
	return starlark.None, ctx.gen.AddVar(v)
}

// dirsBuiltin handles include_dirs() and link_dirs(): positional entries
// plus KEY=path keyword arguments that declare a variable and reference it.
func dirsBuiltin(addDirs func(...string) error, addVar func(string, string) error) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		ctx, err := requireConfigure(thread, fn)
		if err != nil {
			return nil, err
		}

		entries, err := stringArgs(fn, args)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if err := addDirs(normalizePath(ctx, entry)); err != nil {
				return nil, err
			}
		}

		for _, kv := range kwargs {
			key := kv[0].(starlark.String).GoString()

			var path string
			switch value := kv[1].(type) {
			case starlark.String:
				path = value.GoString()
			case Path:
				path = string(value)
			default:
				return nil, eris.Errorf("%s: invalid type %s for keyword %s, expected string or path", fn.Name(), kv[1].Type(), key)
			}

			if err := addVar(key, normalizePath(ctx, path)); err != nil {
				return nil, err
			}
		}

		return starlark.None, nil
	}
}

// flagsBuiltin handles cflags(), cxxflags(), ldflags() and ldlibs().
func flagsBuiltin(add func(...string) error) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if _, err := requireConfigure(thread, fn); err != nil {
			return nil, err
		}
		if len(kwargs) > 0 {
			return nil, eris.Errorf("%s accepts no keyword arguments", fn.Name())
		}

		flags, err := stringArgs(fn, args)
		if err != nil {
			return nil, err
		}
		return starlark.None, add(flags...)
	}
}

func starTarget(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	var recipe string
	var deps *starlark.List

	err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name?", &name, "recipe?", &recipe, "deps?", &deps)
	if err != nil {
		return nil, err
	}

	ctx, err := requireConfigure(thread, fn)
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = "auto_" + nanoid.New()
	}

	depList, err := iterableToStrings(deps, "deps")
	if err != nil {
		return nil, err
	}

	return starlark.String(name), ctx.gen.AddTarget(name, recipe, depList)
}

func starPatternRule(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var target, source, recipe string

	err := starlark.UnpackArgs(fn.Name(), args, kwargs, "target", &target, "source", &source, "recipe", &recipe)
	if err != nil {
		return nil, err
	}

	ctx, err := requireConfigure(thread, fn)
	if err != nil {
		return nil, err
	}

	return starlark.None, ctx.gen.AddPatternRule(target, source, recipe)
}

func starPhony(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	ctx, err := requireConfigure(thread, fn)
	if err != nil {
		return nil, err
	}

	names, err := stringArgs(fn, args)
	if err != nil {
		return nil, err
	}
	ctx.gen.AddPhony(names...)
	return starlark.None, nil
}

func starClean(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	ctx, err := requireConfigure(thread, fn)
	if err != nil {
		return nil, err
	}

	entries, err := stringArgs(fn, args)
	if err != nil {
		return nil, err
	}
	ctx.gen.AddClean(entries...)
	return starlark.None, nil
}

func starGetenv(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var key string

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &key)
	if err != nil {
		return nil, err
	}

	envOverrides := getCtx(thread).envOverrides
	value, ok := envOverrides[key]
	if !ok {
		value = os.Getenv(key)
	}

	return starlark.String(value), nil
}

func starSetenv(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var key string
	var value string

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 2, &key, &value)
	if err != nil {
		return nil, err
	}

	getCtx(thread).envOverrides[key] = value
	return starlark.True, nil
}

func starPrependPath(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var pathDir string

	if len(args) != 1 {
		return nil, eris.Errorf("%s: got %d arguments, want 1", fn.Name(), len(args))
	}

	switch value := args[0].(type) {
	case starlark.String:
		pathDir = value.GoString()
	case Path:
		pathDir = string(value)
	default:
		return nil, eris.Errorf("for parameter 1: got %s, want path or string", args[0].Type())
	}

	ctx := getCtx(thread)
	path, ok := ctx.envOverrides["PATH"]
	if !ok {
		path = os.Getenv("PATH")
	}

	ctx.envOverrides["PATH"] = normalizePath(ctx, pathDir) + string(os.PathListSeparator) + path
	return starlark.String(ctx.envOverrides["PATH"]), nil
}

func starReadYaml(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var yamlFile string
	var yamlKey string
	var defaultValue starlark.Value = starlark.None

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 2, &yamlFile, &yamlKey, &defaultValue)
	if err != nil {
		return nil, err
	}

	ctx := getCtx(thread)
	yamlFile = normalizePath(ctx, yamlFile)

	doc, loaded := ctx.yamlCache[yamlFile]
	if !loaded {
		content, err := os.ReadFile(yamlFile)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to open file %s", yamlFile)
		}

		if err := yaml.Unmarshal(content, &doc); err != nil {
			return nil, eris.Wrapf(err, "failed to parse file %s", yamlFile)
		}
		ctx.yamlCache[yamlFile] = doc
	}

	value := doc
	for _, key := range strings.Split(yamlKey, ".") {
		switch current := value.(type) {
		case map[string]interface{}:
			value = current[key]
		case []interface{}:
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= len(current) {
				value = nil
			} else {
				value = current[idx]
			}
		default:
			value = nil
		}
		if value == nil {
			return defaultValue, nil
		}
	}

	return interfaceToStarlark(value)
}

func starIsdir(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var dirPath string

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &dirPath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(normalizePath(getCtx(thread), dirPath))
	return starlark.Bool(err == nil && info.IsDir()), nil
}

func starIsfile(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var filePath string

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &filePath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(normalizePath(getCtx(thread), filePath))
	return starlark.Bool(err == nil && info.Mode().IsRegular()), nil
}

func starResolvePath(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	ctx := getCtx(thread)
	base := ""

	for _, kv := range kwargs {
		key := kv[0].(starlark.String).GoString()
		if key != "base" {
			return nil, eris.Errorf("unexpected keyword argument %s", key)
		}

		switch value := kv[1].(type) {
		case starlark.String:
			base = normalizePath(ctx, value.GoString())
		case Path:
			base = normalizePath(ctx, string(value))
		default:
			return nil, eris.Errorf("invalid type %s for keyword base, expected string or path", kv[1].Type())
		}
	}

	if len(args) < 1 {
		return nil, eris.New("expects at least one argument")
	}

	parts, err := stringArgs(fn, args)
	if err != nil {
		return nil, err
	}

	normPath := normalizePath(ctx, parts...)
	if base != "" {
		relPath, err := filepath.Rel(base, normPath)
		if err != nil {
			return nil, err
		}
		normPath = relPath
	}

	return Path(normPath), nil
}

func starPython(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(args) > 0 || len(kwargs) > 0 {
		return nil, eris.Errorf("%s takes no arguments", fn.Name())
	}

	py, err := pyconfig.Probe()
	if err != nil {
		return nil, err
	}

	return interfaceToStarlark(py.Map())
}

func starInfo(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var message string

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &message)
	if err != nil {
		return nil, err
	}

	info(thread, "%s", message)
	return starlark.None, nil
}

func starWarn(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var message string

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &message)
	if err != nil {
		return nil, err
	}

	warn(thread, "%s", message)
	return starlark.None, nil
}

func starError(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var message string

	err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &message)
	if err != nil {
		return nil, err
	}

	return nil, eris.New(message)
}

// processCmdParts turns a tuple/list command into a single shell call with
// every argument quoted as needed.
func processCmdParts(parts []string) (*syntax.CallExpr, error) {
	if len(parts) == 0 {
		return nil, eris.New("empty command")
	}

	cmd := new(syntax.CallExpr)
	cmd.Args = make([]*syntax.Word, len(parts))
	for idx, part := range parts {
		var wordPart syntax.WordPart

		if strings.ContainsAny(part, " $'\"") {
			node := new(syntax.SglQuoted)
			node.Value = part
			wordPart = node
		} else {
			node := new(syntax.Lit)
			node.Value = part
			wordPart = node
		}

		cmd.Args[idx] = &syntax.Word{Parts: []syntax.WordPart{wordPart}}
	}

	return cmd, nil
}

func starExecute(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var command starlark.Value
	var outputFormat string
	var showError bool

	err := starlark.UnpackArgs(fn.Name(), args, kwargs, "command", &command, "format?", &outputFormat, "show_error?", &showError)
	if err != nil {
		return nil, err
	}

	if outputFormat == "" {
		outputFormat = "text"
	}
	if outputFormat != "text" && outputFormat != "json" {
		return nil, eris.Errorf("unsupported format %s", outputFormat)
	}

	ctx := getCtx(thread)

	var shellCmd []syntax.Node
	switch command := command.(type) {
	case starlark.String:
		parser := syntax.NewParser()
		prog, err := parser.Parse(strings.NewReader(command.GoString()), fn.Name())
		if err != nil {
			return nil, eris.Wrapf(err, "failed to parse command %s", command.GoString())
		}

		shellCmd = make([]syntax.Node, len(prog.Stmts))
		for idx, stmt := range prog.Stmts {
			shellCmd[idx] = stmt
		}
	case starlarkIterable:
		parts, err := iterableToStrings(command, "command")
		if err != nil {
			return nil, err
		}

		expr, err := processCmdParts(parts)
		if err != nil {
			return nil, err
		}
		shellCmd = []syntax.Node{expr}
	default:
		return nil, eris.Errorf("unexpected type %s for command parameter, only strings, tuples and lists are valid", command.Type())
	}

	outputBuffer := strings.Builder{}
	var errOut *os.File
	if showError {
		errOut = os.Stderr
	}

	runner, err := interp.New(
		interp.Dir(filepath.Dir(ctx.filepath)),
		interp.Env(expand.ListEnviron(getEnvVars(ctx)...)),
		interp.StdIO(nil, &outputBuffer, errOut),
		interp.Params("-e"),
	)
	if err != nil {
		return nil, eris.Wrap(err, "failed to initialize runner")
	}

	for _, cmd := range shellCmd {
		if err := runner.Run(ctx.ctx, cmd); err != nil {
			if showError {
				logctx.Log(ctx.ctx).Error().Err(err).Msg("shell error")
			}
			return starlark.False, nil
		}
	}

	if outputFormat == "json" {
		var decoded interface{}
		if err := json.Unmarshal([]byte(outputBuffer.String()), &decoded); err != nil {
			return nil, eris.Wrap(err, "failed to parse command output")
		}

		return interfaceToStarlark(decoded)
	}

	return starlark.String(outputBuffer.String()), nil
}
