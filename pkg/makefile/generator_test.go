package makefile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorCheckDir(t *testing.T) {
	g := NewGenerator()
	dir := t.TempDir()

	require.NoError(t, g.AddIncludeDirs(dir))
	assert.Error(t, g.AddIncludeDirs(filepath.Join(dir, "missing")))

	// builtin references need no declaration
	require.NoError(t, g.AddIncludeDirs("$(HOME)", "$(PWD)", "$(CURDIR)"))

	// custom references must be declared and point at a directory
	assert.Error(t, g.AddLinkDirs("$(LIBDIR)"))
	require.NoError(t, g.AddVariable("LIBDIR", dir))
	require.NoError(t, g.AddLinkDirs("$(LIBDIR)"))

	require.NoError(t, g.AddVariable("BROKEN", filepath.Join(dir, "missing")))
	assert.Error(t, g.AddLinkDirs("$(BROKEN)"))
}

func TestGeneratorStrictMode(t *testing.T) {
	g := NewGenerator()
	require.NoError(t, g.AddCXXFlags("-Wall"))
	require.NoError(t, g.AddCXXFlags("-Wall"))
	require.NoError(t, g.AddVariable("NAME", "a"))
	require.NoError(t, g.AddVariable("NAME", "b"))

	g = NewGenerator()
	g.Strict = true
	require.NoError(t, g.AddCXXFlags("-Wall"))
	assert.Error(t, g.AddCXXFlags("-Wall"))
	require.NoError(t, g.AddVariable("NAME", "a"))
	assert.Error(t, g.AddVariable("NAME", "b"))
}

func TestGeneratorTargetValidation(t *testing.T) {
	g := NewGenerator()

	assert.Error(t, g.AddTarget("", "recipe", nil))
	assert.Error(t, g.AddTarget("name", "", nil))

	require.NoError(t, g.AddTarget("all", "", []string{"build"}))
	assert.Error(t, g.AddTarget("all", "", []string{"build"}))

	assert.Error(t, g.AddPatternRule("%.o", "", "recipe"))
	assert.Error(t, g.AddPatternRule("out.o", "%.cpp", "recipe"))
	assert.Error(t, g.AddPatternRule("%.o", "in.cpp", "recipe"))
	require.NoError(t, g.AddPatternRule("%.o", "%.cpp", "$(CXX) $(CXXFLAGS) -c $< -o $@"))
}

func TestGeneratorAddIncludeDirVar(t *testing.T) {
	g := NewGenerator()
	dir := t.TempDir()

	require.NoError(t, g.AddIncludeDirVar("PY_INCLUDE", dir))

	var buf strings.Builder
	require.NoError(t, g.Generate(&buf))
	out := buf.String()

	assert.Contains(t, out, "PY_INCLUDE = "+dir)
	assert.Contains(t, out, "-I$(PY_INCLUDE)")
}

func TestGeneratorGenerate(t *testing.T) {
	g := NewGenerator()
	dir := t.TempDir()

	require.NoError(t, g.AddVariable("NAME", "tool.exe"))
	require.NoError(t, g.AddIncludeDirs(dir))
	require.NoError(t, g.AddCXXFlags("-std=c++17", "-Wall"))
	require.NoError(t, g.AddLDLibs("-lpthread"))
	require.NoError(t, g.AddPatternRule("%.o", "%.cpp", "$(CXX) $(CXXFLAGS) -c $< -o $@"))
	require.NoError(t, g.AddTarget("all", "", []string{"build"}))
	require.NoError(t, g.AddTarget("build", "", []string{"$(NAME)"}))
	require.NoError(t, g.AddTarget("$(NAME)", "$(CXX) $(LDFLAGS) a.o b.o $(LDLIBS) -o $(NAME)", []string{"a.o", "b.o"}))
	require.NoError(t, g.AddTarget("test", "@pytest", []string{"build"}))
	require.NoError(t, g.AddTarget("dump", "@echo $(CXXFLAGS)", nil))
	g.AddPhony("all", "build", "test", "dump", "clean")
	g.AddClean("$(NAME)", "*.o")

	var buf strings.Builder
	require.NoError(t, g.Generate(&buf))

	expected := "# project variables\n" +
		"NAME = tool.exe\n" +
		"\n" +
		"INCLUDEDIRS = -I" + dir + " -I$(CURDIR)\n" +
		"\n" +
		"CXX = g++\n" +
		"CXXFLAGS += -std=c++17 -Wall $(INCLUDEDIRS)\n" +
		"LDLIBS = -lpthread\n" +
		"\n" +
		"\n" +
		".PHONY: all build test dump clean\n" +
		"\n" +
		"# pattern rules\n" +
		"%.o: %.cpp\n\t$(CXX) $(CXXFLAGS) -c $< -o $@\n" +
		"\n" +
		"$(NAME): a.o b.o\n\t$(CXX) $(LDFLAGS) a.o b.o $(LDLIBS) -o $(NAME)\n" +
		"\n" +
		"all: build\n" +
		"\n" +
		"build: $(NAME)\n" +
		"\n" +
		"dump:\n\t@echo $(CXXFLAGS)\n" +
		"\n" +
		"test: build\n\t@pytest\n" +
		"\n" +
		"clean:\n\t@rm -rf $(NAME) *.o\n" +
		"\n"

	assert.Equal(t, expected, buf.String())
}

func TestGeneratorLinkDirs(t *testing.T) {
	g := NewGenerator()
	dir := t.TempDir()

	require.NoError(t, g.AddLinkDirs(dir))
	require.NoError(t, g.AddLDFlags("-shared"))

	var buf strings.Builder
	require.NoError(t, g.Generate(&buf))
	out := buf.String()

	assert.Contains(t, out, "LINKDIRS = -L"+dir)
	assert.Contains(t, out, "LDFLAGS += -shared $(LINKDIRS)")
}

func TestGeneratorGenerateFile(t *testing.T) {
	g := NewGenerator()
	cwd, err := os.Getwd()
	require.NoError(t, err)

	dir, err := os.MkdirTemp(cwd, "include")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	require.NoError(t, g.AddIncludeDirs(dir))
	require.NoError(t, g.AddTarget("all", "@echo done", nil))

	out := filepath.Join(t.TempDir(), "out", "Makefile")
	require.NoError(t, g.GenerateFile(out))

	content, err := os.ReadFile(out)
	require.NoError(t, err)

	// paths under the working directory are rewritten to $(CURDIR)
	assert.NotContains(t, string(content), "-I"+dir)
	assert.Contains(t, string(content), "-I$(CURDIR)/"+filepath.Base(dir))
}
