package builder

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shakfu/makefilegen/pkg/logctx"
)

func testContext() context.Context {
	logger := zerolog.Nop()
	return logctx.WithLogger(context.Background(), &logger)
}

func TestBuilderBuildCmd(t *testing.T) {
	b := New("tool.exe")
	dir := t.TempDir()

	require.NoError(t, b.AddCXXFlags("-std=c++17", "-Wall"))
	require.NoError(t, b.AddIncludeDirs(dir))
	require.NoError(t, b.AddCppFiles("a.cpp", "b.cpp"))
	require.NoError(t, b.AddLDLibs("-lpthread"))
	require.NoError(t, b.AddLDFlags("-shared"))
	require.NoError(t, b.AddLinkDirs(dir))

	cmd := b.BuildCmd()
	assert.Equal(t, "g++ -std=c++17 -Wall -I"+dir+" a.cpp b.cpp -lpthread -shared -L"+dir+" -o tool.exe", cmd)
}

func TestBuilderBuildCmdMinimal(t *testing.T) {
	b := New("hello")
	require.NoError(t, b.AddCppFiles("hello.cpp"))

	assert.Equal(t, "g++ hello.cpp -o hello", b.BuildCmd())
}

func TestBuilderCompilerOverride(t *testing.T) {
	b := New("hello")
	b.SetCC("clang")
	b.SetCXX("clang++")
	require.NoError(t, b.AddCppFiles("hello.cpp"))

	assert.Equal(t, "clang", b.CC())
	assert.True(t, strings.HasPrefix(b.BuildCmd(), "clang++ "))
}

func TestBuilderDirValidation(t *testing.T) {
	b := New("tool")
	dir := t.TempDir()

	require.NoError(t, b.AddIncludeDirs(dir))
	assert.Error(t, b.AddIncludeDirs(filepath.Join(dir, "missing")))
	assert.Error(t, b.AddLinkDirs(filepath.Join(dir, "missing")))
}

func TestBuilderStrictMode(t *testing.T) {
	b := New("tool")
	require.NoError(t, b.AddCppFiles("a.cpp"))
	require.NoError(t, b.AddCppFiles("a.cpp"))

	b = New("tool")
	b.Strict = true
	require.NoError(t, b.AddCppFiles("a.cpp"))
	assert.Error(t, b.AddCppFiles("a.cpp"))
}

func TestBuilderConfigureAddsCwd(t *testing.T) {
	b := New("tool")
	require.NoError(t, b.Configure())
	require.NoError(t, b.Configure())

	cwd, err := os.Getwd()
	require.NoError(t, err)

	cmd := b.BuildCmd()
	assert.Equal(t, 1, strings.Count(cmd, "-I"+cwd))
}

func TestBuilderSourceFiles(t *testing.T) {
	b := New("tool")
	require.NoError(t, b.AddCppFiles("a.cpp", "b.cpp"))
	require.NoError(t, b.AddHppFiles("a.hpp"))

	assert.Equal(t, []string{"a.cpp", "b.cpp", "a.hpp"}, b.SourceFiles())
}

func TestBuilderBuildDryRun(t *testing.T) {
	b := New("tool")
	require.NoError(t, b.AddCppFiles("missing.cpp"))

	// dry-run must not invoke a compiler
	require.NoError(t, b.Build(testContext(), true))
}

func TestBuilderClean(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(cwd) })

	for _, name := range []string{"a.o", "b.o", "keep.cpp"} {
		require.NoError(t, os.WriteFile(name, []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir("build", 0o755))

	b := New("tool")
	require.NoError(t, b.AddCleanupPatterns("*.o"))
	require.NoError(t, b.AddCleanupTargets("build"))
	require.NoError(t, b.Clean(testContext()))

	for _, name := range []string{"a.o", "b.o", "build"} {
		_, err := os.Stat(name)
		assert.True(t, os.IsNotExist(err), name)
	}
	_, err = os.Stat("keep.cpp")
	assert.NoError(t, err)
}

func TestRunShell(t *testing.T) {
	dir := t.TempDir()
	var out strings.Builder

	err := RunShell(testContext(), dir, "echo hello > greeting.txt && cat greeting.txt", &out, &out)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out.String())

	// -e stops at the first failing command
	err = RunShell(testContext(), dir, "false; echo unreachable", &out, &out)
	assert.Error(t, err)
	assert.NotContains(t, out.String(), "unreachable")
}

func TestResolvePatterns(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	for _, name := range []string{"a.o", "b.o", "sub/c.o", "main.cpp"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	matches, err := ResolvePatterns(dir, []string{"*.o"})
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	matches, err = ResolvePatterns(dir, []string{"**/*.o"})
	require.NoError(t, err)
	assert.Len(t, matches, 3)

	// unmatched patterns resolve to nothing
	matches, err = ResolvePatterns(dir, []string{"*.nope"})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestResolvePatternsBaseWithSpaces(t *testing.T) {
	base := filepath.Join(t.TempDir(), "my project")
	require.NoError(t, os.MkdirAll(base, 0o755))
	for _, name := range []string{"a.o", "b.o", "main.cpp"} {
		require.NoError(t, os.WriteFile(filepath.Join(base, name), []byte("x"), 0o644))
	}

	matches, err := ResolvePatterns(base, []string{"*.o"})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	for _, match := range matches {
		assert.Contains(t, match, "my project")
	}
}
