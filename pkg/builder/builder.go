package builder

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/shakfu/makefilegen/pkg/makefile"
)

// Builder configures and executes compiler invocations.
type Builder struct {
	// Target is the path of the binary or extension to produce.
	Target string
	// Strict turns duplicate entries into errors.
	Strict bool

	cc  string
	cxx string

	cppFiles    *makefile.UniqueList
	hppFiles    *makefile.UniqueList
	includeDirs *makefile.UniqueList
	cflags      *makefile.UniqueList
	cxxflags    *makefile.UniqueList
	linkDirs    *makefile.UniqueList
	ldlibs      *makefile.UniqueList
	ldflags     *makefile.UniqueList

	// post-build cleanup by glob pattern and by literal path
	cleanupPatterns *makefile.UniqueList
	cleanupTargets  *makefile.UniqueList

	configured bool
}

// New returns a Builder for the given target with gcc/g++ as the default
// toolchain.
func New(target string) *Builder {
	return &Builder{
		Target:          target,
		cc:              "gcc",
		cxx:             "g++",
		cppFiles:        makefile.NewUniqueList(),
		hppFiles:        makefile.NewUniqueList(),
		includeDirs:     makefile.NewUniqueList(),
		cflags:          makefile.NewUniqueList(),
		cxxflags:        makefile.NewUniqueList(),
		linkDirs:        makefile.NewUniqueList(),
		ldlibs:          makefile.NewUniqueList(),
		ldflags:         makefile.NewUniqueList(),
		cleanupPatterns: makefile.NewUniqueList(),
		cleanupTargets:  makefile.NewUniqueList(),
	}
}

// CC returns the configured C compiler.
func (b *Builder) CC() string { return b.cc }

// SetCC overrides the C compiler.
func (b *Builder) SetCC(cc string) { b.cc = cc }

// CXX returns the configured C++ compiler.
func (b *Builder) CXX() string { return b.cxx }

// SetCXX overrides the C++ compiler.
func (b *Builder) SetCXX(cxx string) { b.cxx = cxx }

func (b *Builder) add(list *makefile.UniqueList, prefix string, checkDir bool, entries []string) error {
	for _, entry := range entries {
		if checkDir {
			info, err := os.Stat(entry)
			if err != nil || !info.IsDir() {
				return eris.Errorf("not a directory: %s", entry)
			}
		}
		prefixed := prefix + entry
		if list.Contains(prefixed) {
			if b.Strict {
				return eris.Errorf("entry %s already exists", prefixed)
			}
			continue
		}
		list.Add(prefixed)
	}
	return nil
}

// AddCppFiles adds C++ source files.
func (b *Builder) AddCppFiles(files ...string) error {
	return b.add(b.cppFiles, "", false, files)
}

// AddHppFiles adds header files. They only matter for watch mode.
func (b *Builder) AddHppFiles(files ...string) error {
	return b.add(b.hppFiles, "", false, files)
}

// AddIncludeDirs adds -I entries; every entry must be an existing directory.
func (b *Builder) AddIncludeDirs(dirs ...string) error {
	return b.add(b.includeDirs, "-I", true, dirs)
}

// AddCFlags adds C compiler flags.
func (b *Builder) AddCFlags(flags ...string) error {
	return b.add(b.cflags, "", false, flags)
}

// AddCXXFlags adds C++ compiler flags.
func (b *Builder) AddCXXFlags(flags ...string) error {
	return b.add(b.cxxflags, "", false, flags)
}

// AddLinkDirs adds -L entries; every entry must be an existing directory.
func (b *Builder) AddLinkDirs(dirs ...string) error {
	return b.add(b.linkDirs, "-L", true, dirs)
}

// AddLDLibs adds link libraries.
func (b *Builder) AddLDLibs(libs ...string) error {
	return b.add(b.ldlibs, "", false, libs)
}

// AddLDFlags adds linker flags.
func (b *Builder) AddLDFlags(flags ...string) error {
	return b.add(b.ldflags, "", false, flags)
}

// AddCleanupPatterns adds post-build cleanup glob patterns.
func (b *Builder) AddCleanupPatterns(patterns ...string) error {
	return b.add(b.cleanupPatterns, "", false, patterns)
}

// AddCleanupTargets adds post-build cleanup paths.
func (b *Builder) AddCleanupTargets(targets ...string) error {
	return b.add(b.cleanupTargets, "", false, targets)
}

// SourceFiles returns all configured source and header files.
func (b *Builder) SourceFiles() []string {
	files := append([]string{}, b.cppFiles.Items()...)
	return append(files, b.hppFiles.Items()...)
}

// Configure applies the default configuration. It runs at most once.
func (b *Builder) Configure() error {
	if b.configured {
		return nil
	}
	b.configured = true

	cwd, err := os.Getwd()
	if err != nil {
		return eris.Wrap(err, "failed to determine the working directory")
	}
	return b.AddIncludeDirs(cwd)
}

// BuildCmd returns the full compile-and-link command line.
func (b *Builder) BuildCmd() string {
	parts := []string{b.cxx}
	parts = appendJoined(parts, b.cxxflags)
	parts = appendJoined(parts, b.includeDirs)
	parts = appendJoined(parts, b.cppFiles)
	parts = appendJoined(parts, b.ldlibs)
	parts = appendJoined(parts, b.ldflags)
	parts = appendJoined(parts, b.linkDirs)
	parts = append(parts, "-o", b.Target)
	return strings.Join(parts, " ")
}

func appendJoined(parts []string, list *makefile.UniqueList) []string {
	if list.Len() == 0 {
		return parts
	}
	return append(parts, list.Join(" "))
}

// Build configures the builder and runs the build command. With dryRun the
// command is only logged. A failing compiler propagates its exit status as
// an error; no retries, no interpretation. After a successful build the
// cleanup lists are processed.
func (b *Builder) Build(ctx context.Context, dryRun bool) error {
	if err := b.Configure(); err != nil {
		return err
	}

	cmd := b.BuildCmd()
	log(ctx).Info().Bool("command", true).Msg(cmd)
	if dryRun {
		return nil
	}

	if err := runShell(ctx, ".", cmd, os.Stdout, os.Stderr); err != nil {
		return eris.Wrapf(err, "build failed for %s", b.Target)
	}

	if b.cleanupPatterns.Len() > 0 || b.cleanupTargets.Len() > 0 {
		return b.Clean(ctx)
	}
	return nil
}

// Clean removes everything matched by the cleanup patterns plus the literal
// cleanup targets. Directories are removed recursively; missing entries are
// ignored.
func (b *Builder) Clean(ctx context.Context) error {
	matches, err := ResolvePatterns(".", b.cleanupPatterns.Items())
	if err != nil {
		return eris.Wrap(err, "failed to resolve cleanup patterns")
	}

	matches = append(matches, b.cleanupTargets.Items()...)
	for _, item := range matches {
		log(ctx).Debug().Str("path", item).Msg("removing")
		if err := os.RemoveAll(item); err != nil {
			return eris.Wrapf(err, "could not delete %s", item)
		}
	}
	return nil
}

// RunExecutable runs the produced binary and forwards its exit status
// unchanged.
func (b *Builder) RunExecutable(ctx context.Context) error {
	log(ctx).Info().Msgf("running %s", b.Target)

	target := b.Target
	if !strings.Contains(target, "/") {
		target = "./" + target
	}
	return runShell(ctx, ".", target, os.Stdout, os.Stderr)
}
