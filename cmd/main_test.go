package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitFlagValues(t *testing.T) {
	assert.Equal(t, []string{"-Wall", "-O3"}, splitFlagValues([]string{"-Wall,-O3"}))
	assert.Equal(t, []string{"-Wall", "-O3"}, splitFlagValues([]string{"-Wall", "-O3"}))
	assert.Equal(t, []string{"-Wall"}, splitFlagValues([]string{",-Wall,"}))
	assert.Empty(t, splitFlagValues(nil))
}

func TestFallbackLoggerWrites(t *testing.T) {
	var out strings.Builder

	l := fallbackLogger(&out)
	l.Error().Err(eris.New("boom")).Msg("command failed")

	assert.Contains(t, out.String(), "command failed")
	assert.Contains(t, out.String(), "boom")
}

func TestPreRunErrorsReachExecute(t *testing.T) {
	// errors raised before the logger is configured must still surface;
	// with SilenceErrors set that means Execute has to receive them
	rootCmd.SetArgs([]string{"--bogus-flag", "makefile"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus-flag")
}

func TestMakefileScriptRejectsModelFlags(t *testing.T) {
	rootCmd.SetArgs([]string{"makefile", "--script", "build.star", "--cxxflags=-Wall"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--script")
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, "gcc", cfg.CC)
	assert.Equal(t, "g++", cfg.CXX)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.JSON)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("MAKEFILEGEN_CXX", "clang++")
	t.Setenv("MAKEFILEGEN_LOG_LEVEL", "debug")

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, "clang++", cfg.CXX)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(cwd) })

	content := "cc = \"clang\"\n[log]\nlevel = \"warn\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".makefilegen.toml"), []byte(content), 0o644))

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, "clang", cfg.CC)
	assert.Equal(t, "warn", cfg.Log.Level)
}
