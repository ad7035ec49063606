package cmd

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/shakfu/makefilegen/pkg/builder"
	"github.com/shakfu/makefilegen/pkg/pyconfig"
)

var buildCmd = &cobra.Command{
	Use:   "build TARGET",
	Short: "Compile directly, without generating a Makefile",
	Long: `Assembles a compile-and-link command line from the given sources and flag
sets and executes it through the embedded shell. The compiler's exit status
propagates unchanged.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmdContext(cmd)
		flags := cmd.Flags()

		b := builder.New(args[0])
		b.SetCC(toolConfig.CC)
		b.SetCXX(toolConfig.CXX)
		b.Strict, _ = flags.GetBool("strict")

		if cc, _ := flags.GetString("cc"); cc != "" {
			b.SetCC(cc)
		}
		if cxx, _ := flags.GetString("cxx"); cxx != "" {
			b.SetCXX(cxx)
		}

		type listFlag struct {
			name string
			add  func(...string) error
		}
		for _, lf := range []listFlag{
			{"cppfiles", b.AddCppFiles},
			{"hppfiles", b.AddHppFiles},
			{"include-dirs", b.AddIncludeDirs},
			{"cflags", b.AddCFlags},
			{"cxxflags", b.AddCXXFlags},
			{"link-dirs", b.AddLinkDirs},
			{"ldflags", b.AddLDFlags},
			{"ldlibs", b.AddLDLibs},
			{"cleanup", b.AddCleanupPatterns},
		} {
			values, err := flags.GetStringArray(lf.name)
			if err != nil {
				return err
			}
			if err := lf.add(splitFlagValues(values)...); err != nil {
				return err
			}
		}

		if pythonExt, _ := flags.GetBool("python-ext"); pythonExt {
			if err := applyPythonExt(b); err != nil {
				return err
			}
		}

		dryRun, _ := flags.GetBool("dry-run")
		watch, _ := flags.GetBool("watch")
		run, _ := flags.GetBool("run")

		if watch {
			if dryRun {
				return eris.New("--watch and --dry-run are mutually exclusive")
			}
			return b.Watch(ctx)
		}

		if err := b.Build(ctx, dryRun); err != nil {
			return err
		}

		if run && !dryRun {
			return b.RunExecutable(ctx)
		}
		return nil
	},
}

// applyPythonExt wires the host Python's include dir, library dir and link
// libraries into the builder for compiling C extensions.
func applyPythonExt(b *builder.Builder) error {
	py, err := pyconfig.Probe()
	if err != nil {
		return err
	}

	if py.IncludeDir != "" {
		if err := b.AddIncludeDirs(py.IncludeDir); err != nil {
			return err
		}
	}
	if py.LibPL != "" {
		if err := b.AddLinkDirs(py.LibPL); err != nil {
			return err
		}
	}
	return b.AddLDLibs(py.LinkLib())
}

func init() {
	f := buildCmd.Flags()
	f.StringArrayP("cppfiles", "c", nil, "C++ source files")
	f.StringArray("hppfiles", nil, "header files (watched in --watch mode)")
	f.String("cc", "", "C compiler")
	f.String("cxx", "", "C++ compiler")
	f.StringArrayP("include-dirs", "I", nil, "include directories")
	f.StringArray("cflags", nil, "C compiler flags")
	f.StringArray("cxxflags", nil, "C++ compiler flags")
	f.StringArrayP("link-dirs", "L", nil, "link directories")
	f.StringArray("ldflags", nil, "linker flags")
	f.StringArrayP("ldlibs", "l", nil, "link libraries")
	f.StringArray("cleanup", nil, "post-build cleanup glob patterns")
	f.Bool("python-ext", false, "add the host Python's include/link configuration")
	f.Bool("dry-run", false, "show the command without executing it")
	f.Bool("run", false, "run the produced binary after a successful build")
	f.Bool("watch", false, "rebuild whenever a source file changes")
	f.Bool("strict", false, "fail on duplicate entries")

	rootCmd.AddCommand(buildCmd)
}
