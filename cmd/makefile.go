package cmd

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/shakfu/makefilegen/pkg"
	"github.com/shakfu/makefilegen/pkg/makefile"
	"github.com/shakfu/makefilegen/pkg/pyconfig"
	"github.com/shakfu/makefilegen/pkg/script"
)

var makefileCmd = &cobra.Command{
	Use:   "makefile [key=value...]",
	Short: "Generate a Makefile from flags or a build script",
	Long: `Builds a Makefile model from the command line flags, or evaluates a
Starlark build script (--script) whose configure() function declares the
model. key=value arguments set script options; configured values persist in
` + script.CacheName + ` next to the script.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmdContext(cmd)
		flags := cmd.Flags()

		output, _ := flags.GetString("output")
		scriptPath, _ := flags.GetString("script")

		var gen *makefile.Generator
		if scriptPath != "" {
			for _, name := range modelFlagNames {
				if flags.Changed(name) {
					return eris.Errorf("--%s cannot be combined with --script; declare it in the script instead", name)
				}
			}

			options := map[string]string{}
			for _, part := range args {
				key, value, found := strings.Cut(part, "=")
				if !found {
					return eris.Errorf("expected key=value, got %q", part)
				}
				options[key] = value
			}

			cacheFile := filepath.Join(filepath.Dir(scriptPath), script.CacheName)
			if len(options) == 0 {
				cached, err := script.ReadOptionCache(cacheFile)
				if err != nil {
					return err
				}
				options = cached
			}

			root, err := pkg.FindProjectRoot(filepath.Dir(scriptPath))
			if err != nil {
				return err
			}

			strict, _ := flags.GetBool("strict")
			result, err := script.RunScript(ctx, scriptPath, root, options, strict)
			if err != nil {
				return err
			}

			if err := script.WriteOptionCache(cacheFile, result.OptionValues); err != nil {
				return err
			}
			gen = result.Generator
		} else {
			if len(args) > 0 {
				return eris.New("key=value arguments are only valid together with --script")
			}

			var err error
			gen, err = generatorFromFlags(cmd)
			if err != nil {
				return err
			}
		}

		if pythonExt, _ := flags.GetBool("python-ext"); pythonExt {
			if err := applyPythonExtGen(gen); err != nil {
				return err
			}
		}

		if err := gen.GenerateFile(output); err != nil {
			return err
		}

		logger.Info().Str("path", output).Msgf("generated Makefile: %s", output)
		return nil
	},
}

// modelFlagNames are the flags that feed the flag-based generator; they
// conflict with --script, which declares the whole model itself.
var modelFlagNames = []string{
	"cxx", "include-dirs", "cflags", "cxxflags", "link-dirs", "ldflags",
	"ldlibs", "variables", "targets", "pattern-rules", "phony", "clean",
}

func generatorFromFlags(cmd *cobra.Command) (*makefile.Generator, error) {
	flags := cmd.Flags()

	gen := makefile.NewGenerator()
	gen.CXX = toolConfig.CXX
	gen.Strict, _ = flags.GetBool("strict")

	if cxx, _ := flags.GetString("cxx"); cxx != "" {
		gen.CXX = cxx
	}

	type listFlag struct {
		name string
		add  func(...string) error
	}
	for _, lf := range []listFlag{
		{"include-dirs", gen.AddIncludeDirs},
		{"cflags", gen.AddCFlags},
		{"cxxflags", gen.AddCXXFlags},
		{"link-dirs", gen.AddLinkDirs},
		{"ldflags", gen.AddLDFlags},
		{"ldlibs", gen.AddLDLibs},
	} {
		values, err := flags.GetStringArray(lf.name)
		if err != nil {
			return nil, err
		}
		if err := lf.add(splitFlagValues(values)...); err != nil {
			return nil, err
		}
	}

	variables, _ := flags.GetStringArray("variables")
	for _, varDef := range variables {
		key, value, found := strings.Cut(varDef, "=")
		if !found {
			return nil, eris.Errorf("variable must have KEY=VALUE format, got %q", varDef)
		}
		if err := gen.AddVariable(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return nil, err
		}
	}

	targets, _ := flags.GetStringArray("targets")
	for _, targetDef := range targets {
		parts := strings.SplitN(targetDef, ":", 3)
		name := strings.TrimSpace(parts[0])

		var deps []string
		if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
			deps = strings.Fields(parts[1])
		}
		recipe := ""
		if len(parts) > 2 {
			recipe = strings.TrimSpace(parts[2])
		}

		if err := gen.AddTarget(name, recipe, deps); err != nil {
			return nil, err
		}
	}

	rules, _ := flags.GetStringArray("pattern-rules")
	for _, patternDef := range rules {
		parts := strings.SplitN(patternDef, ":", 3)
		if len(parts) != 3 {
			return nil, eris.Errorf("pattern rule must have target:source:recipe format, got %q", patternDef)
		}
		err := gen.AddPatternRule(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2]))
		if err != nil {
			return nil, err
		}
	}

	phony, _ := flags.GetStringArray("phony")
	gen.AddPhony(splitFlagValues(phony)...)

	clean, _ := flags.GetStringArray("clean")
	gen.AddClean(splitFlagValues(clean)...)

	return gen, nil
}

// applyPythonExtGen wires the host Python toolchain into a Makefile model.
func applyPythonExtGen(gen *makefile.Generator) error {
	py, err := pyconfig.Probe()
	if err != nil {
		return err
	}

	if py.IncludeDir != "" {
		if err := gen.AddIncludeDirVar("PY_INCLUDE", py.IncludeDir); err != nil {
			return err
		}
	}
	if py.LibPL != "" {
		if err := gen.AddLinkDirVar("PY_LIBPL", py.LibPL); err != nil {
			return err
		}
	}
	return gen.AddLDLibs(py.LinkLib())
}

func init() {
	f := makefileCmd.Flags()
	f.StringP("output", "o", "Makefile", "output Makefile path")
	f.String("cxx", "", "C++ compiler")
	f.StringArrayP("include-dirs", "I", nil, "include directories")
	f.StringArray("cflags", nil, "C compiler flags")
	f.StringArray("cxxflags", nil, "C++ compiler flags")
	f.StringArrayP("link-dirs", "L", nil, "link directories")
	f.StringArray("ldflags", nil, "linker flags")
	f.StringArrayP("ldlibs", "l", nil, "link libraries")
	f.StringArrayP("variables", "D", nil, "variables (KEY=VALUE format)")
	f.StringArrayP("targets", "t", nil, "targets (name:deps:recipe format)")
	f.StringArrayP("pattern-rules", "p", nil, "pattern rules (target:source:recipe format)")
	f.StringArray("phony", nil, "phony target names")
	f.StringArray("clean", nil, "clean patterns/files")
	f.String("script", "", "Starlark build script to evaluate")
	f.Bool("python-ext", false, "add the host Python's include/link configuration")
	f.Bool("strict", false, "fail on duplicate entries")

	rootCmd.AddCommand(makefileCmd)
}
