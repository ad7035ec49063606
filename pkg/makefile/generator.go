package makefile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// varRefPattern matches a $(NAME) reference inside a path entry.
var varRefPattern = regexp.MustCompile(`.*\$+\((.+)\).*`)

// varRefDefaults are the variable references accepted in directory entries
// without a prior declaration.
var varRefDefaults = map[string]string{
	"HOME":   "$(HOME)",
	"PWD":    "$(PWD)",
	"CURDIR": "$(CURDIR)",
}

// Generator accumulates a Makefile model and renders it. In strict mode,
// re-adding an existing entry or variable is an error instead of a silent
// skip.
type Generator struct {
	CXX    string
	Strict bool

	vars     map[string]Var
	varOrder *UniqueList

	includeDirs  *UniqueList
	cflags       *UniqueList
	cxxflags     *UniqueList
	linkDirs     *UniqueList
	ldlibs       *UniqueList
	ldflags      *UniqueList
	targets      *UniqueList
	patternRules *UniqueList
	phony        *UniqueList
	clean        *UniqueList
}

// NewGenerator returns an empty Makefile model with g++ as the default
// compiler.
func NewGenerator() *Generator {
	return &Generator{
		CXX:          "g++",
		vars:         map[string]Var{},
		varOrder:     NewUniqueList(),
		includeDirs:  NewUniqueList(),
		cflags:       NewUniqueList(),
		cxxflags:     NewUniqueList(),
		linkDirs:     NewUniqueList(),
		ldlibs:       NewUniqueList(),
		ldflags:      NewUniqueList(),
		targets:      NewUniqueList(),
		patternRules: NewUniqueList(),
		phony:        NewUniqueList(),
		clean:        NewUniqueList(),
	}
}

// checkDir validates a directory entry. Plain paths must exist; $(VAR)
// references must name a builtin default or a declared variable whose value
// is an existing directory.
func (g *Generator) checkDir(path string) error {
	for _, ref := range varRefDefaults {
		if path == ref {
			return nil
		}
	}

	if match := varRefPattern.FindStringSubmatch(path); match != nil {
		key := match[1]
		if _, ok := varRefDefaults[key]; ok {
			return nil
		}

		decl, ok := g.vars[key]
		if !ok {
			return eris.Errorf("invalid variable reference %s: %s is not declared", path, key)
		}

		info, err := os.Stat(decl.Value)
		if err != nil || !info.IsDir() {
			return eris.Errorf("value of variable %s is not a directory: %s", key, decl.Value)
		}
		return nil
	}

	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return eris.Errorf("not a directory: %s", path)
	}
	return nil
}

// normalizePath rewrites the current and home directories to their Make
// variable equivalents.
func normalizePath(path string) string {
	if cwd, err := os.Getwd(); err == nil {
		path = strings.ReplaceAll(path, cwd, "$(CURDIR)")
	}
	if home, err := os.UserHomeDir(); err == nil {
		path = strings.ReplaceAll(path, home, "$(HOME)")
	}
	return path
}

func (g *Generator) addEntries(list *UniqueList, prefix string, check func(string) error, entries ...string) error {
	for _, entry := range entries {
		if check != nil {
			if err := check(entry); err != nil {
				return err
			}
		}
		prefixed := prefix + entry
		if list.Contains(prefixed) {
			if g.Strict {
				return eris.Errorf("entry %s already exists", prefixed)
			}
			continue
		}
		list.Add(prefixed)
	}
	return nil
}

// AddVar registers a pre-built variable.
func (g *Generator) AddVar(v Var) error {
	if _, exists := g.vars[v.Key]; exists {
		if g.Strict {
			return eris.Errorf("variable %s already exists", v.Key)
		}
		return nil
	}
	g.vars[v.Key] = v
	g.varOrder.Add(v.Key)
	return nil
}

// AddVariable declares a recursively expanded KEY = VALUE variable.
func (g *Generator) AddVariable(key, value string) error {
	v, err := NewVar(key, value)
	if err != nil {
		return err
	}
	return g.AddVar(v)
}

// AddIncludeDirs adds -I entries. Every entry must be a valid directory or
// variable reference.
func (g *Generator) AddIncludeDirs(dirs ...string) error {
	return g.addEntries(g.includeDirs, "-I", g.checkDir, dirs...)
}

// AddIncludeDirVar declares KEY = value and adds -I$(KEY).
func (g *Generator) AddIncludeDirVar(key, value string) error {
	if err := g.checkDir(value); err != nil {
		return err
	}
	if err := g.AddVariable(key, value); err != nil {
		return err
	}
	return g.addEntries(g.includeDirs, "-I", nil, fmt.Sprintf("$(%s)", key))
}

// AddLinkDirs adds -L entries, validated like include directories.
func (g *Generator) AddLinkDirs(dirs ...string) error {
	return g.addEntries(g.linkDirs, "-L", g.checkDir, dirs...)
}

// AddLinkDirVar declares KEY = value and adds -L$(KEY).
func (g *Generator) AddLinkDirVar(key, value string) error {
	if err := g.checkDir(value); err != nil {
		return err
	}
	if err := g.AddVariable(key, value); err != nil {
		return err
	}
	return g.addEntries(g.linkDirs, "-L", nil, fmt.Sprintf("$(%s)", key))
}

// AddCFlags adds C compiler flags.
func (g *Generator) AddCFlags(flags ...string) error {
	return g.addEntries(g.cflags, "", nil, flags...)
}

// AddCXXFlags adds C++ compiler flags.
func (g *Generator) AddCXXFlags(flags ...string) error {
	return g.addEntries(g.cxxflags, "", nil, flags...)
}

// AddLDFlags adds linker flags.
func (g *Generator) AddLDFlags(flags ...string) error {
	return g.addEntries(g.ldflags, "", nil, flags...)
}

// AddLDLibs adds link libraries.
func (g *Generator) AddLDLibs(libs ...string) error {
	return g.addEntries(g.ldlibs, "", nil, libs...)
}

// AddTarget declares a file target. At least one of recipe and deps is
// required; a duplicate definition is always an error.
func (g *Generator) AddTarget(name, recipe string, deps []string) error {
	if name == "" {
		return eris.New("target name must not be empty")
	}
	if recipe == "" && len(deps) == 0 {
		return eris.New("either recipe or dependencies must be provided")
	}

	var target string
	switch {
	case recipe != "" && len(deps) > 0:
		target = fmt.Sprintf("%s: %s\n\t%s", name, strings.Join(deps, " "), recipe)
	case recipe != "":
		target = fmt.Sprintf("%s:\n\t%s", name, recipe)
	default:
		target = fmt.Sprintf("%s: %s", name, strings.Join(deps, " "))
	}

	if g.targets.Contains(target) {
		return eris.Errorf("target %q already exists", name)
	}
	g.targets.Add(target)
	return nil
}

// AddPatternRule declares a rule like `%.o: %.cpp`. Both patterns must
// contain the % wildcard.
func (g *Generator) AddPatternRule(targetPattern, sourcePattern, recipe string) error {
	if targetPattern == "" || sourcePattern == "" || recipe == "" {
		return eris.New("target pattern, source pattern and recipe are all required")
	}
	if !strings.Contains(targetPattern, "%") {
		return eris.New("target pattern must contain the '%' wildcard")
	}
	if !strings.Contains(sourcePattern, "%") {
		return eris.New("source pattern must contain the '%' wildcard")
	}

	rule := fmt.Sprintf("%s: %s\n\t%s", targetPattern, sourcePattern, recipe)
	if g.patternRules.Contains(rule) {
		return eris.Errorf("pattern rule %q already exists", targetPattern)
	}
	g.patternRules.Add(rule)
	return nil
}

// AddPhony marks target names as phony.
func (g *Generator) AddPhony(names ...string) {
	for _, name := range names {
		if name != "" {
			g.phony.Add(name)
		}
	}
}

// AddClean appends entries to the clean target.
func (g *Generator) AddClean(entries ...string) {
	for _, entry := range entries {
		if entry != "" {
			g.clean.Add(entry)
		}
	}
}

// Targets returns the declared file targets in declaration order.
func (g *Generator) Targets() []string {
	return g.targets.Items()
}

// Generate renders the Makefile to w.
func (g *Generator) Generate(w io.Writer) error {
	// CURDIR is the absolute path to the directory make runs in
	if err := g.AddIncludeDirs("$(CURDIR)"); err != nil {
		return err
	}

	version := MakeVersion()

	write := func(lines ...string) {
		for _, line := range lines {
			fmt.Fprintln(w, line)
		}
		if len(lines) == 0 {
			fmt.Fprintln(w)
		}
	}

	write("# project variables")
	for _, key := range g.varOrder.Items() {
		write(g.vars[key].Render(version))
	}
	write()

	if g.includeDirs.Len() > 0 {
		write("INCLUDEDIRS = " + g.includeDirs.Join(" "))
	}
	if g.linkDirs.Len() > 0 {
		write("LINKDIRS = " + g.linkDirs.Join(" "))
	}
	write()

	write("CXX = " + g.CXX)
	if g.cflags.Len() > 0 {
		write("CFLAGS += " + g.cflags.Join(" ") + " $(INCLUDEDIRS)")
	}
	if g.cxxflags.Len() > 0 {
		write("CXXFLAGS += " + g.cxxflags.Join(" ") + " $(INCLUDEDIRS)")
	}
	if g.ldflags.Len() > 0 || g.linkDirs.Len() > 0 {
		write("LDFLAGS += " + strings.TrimSpace(g.ldflags.Join(" ")+" $(LINKDIRS)"))
	}
	if g.ldlibs.Len() > 0 {
		write("LDLIBS = " + g.ldlibs.Join(" "))
	}
	write()

	if g.phony.Len() > 0 {
		write()
		write(".PHONY: " + g.phony.Join(" "))
		write()
	}

	if g.patternRules.Len() > 0 {
		write("# pattern rules")
		for _, rule := range g.patternRules.Items() {
			write(rule)
			write()
		}
	}

	targets := append([]string{}, g.targets.Items()...)
	sort.Strings(targets)
	for _, target := range targets {
		write(target)
		write()
	}

	if g.clean.Len() > 0 {
		write("clean:\n\t@rm -rf " + g.clean.Join(" "))
		write()
	}

	return nil
}

// GenerateFile renders the Makefile to the given path, normalizing the
// current and home directory in every written line.
func (g *Generator) GenerateFile(path string) error {
	var buf strings.Builder
	if err := g.Generate(&buf); err != nil {
		return err
	}

	content := normalizePath(buf.String())
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "failed to create directory for %s", path)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return eris.Wrapf(err, "failed to write %s", path)
	}
	return nil
}
