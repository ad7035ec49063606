package builder

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/shakfu/makefilegen/pkg/logctx"
)

func log(ctx context.Context) *zerolog.Logger {
	return logctx.Log(ctx)
}

// execRewriter routes mv, rm and mkdir through this binary's own
// cross-platform implementations so recipes behave consistently everywhere.
func execRewriter(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		if len(args) > 0 {
			switch args[0] {
			case "mv", "rm", "mkdir":
				if exe, err := os.Executable(); err == nil {
					args = append([]string{exe}, args...)
				}
			}
		}

		return next(ctx, args)
	}
}

func openHandler(ctx context.Context, path string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	if path == "/dev/null" {
		path = os.DevNull
	}

	return interp.DefaultOpenHandler()(ctx, path, flag, perm)
}

// RunShell parses and executes a shell snippet in dir, writing output to
// stdout/stderr. The exit status of a failing command propagates as the
// returned error.
func RunShell(ctx context.Context, dir, command string, stdout, stderr io.Writer) error {
	return runShell(ctx, dir, command, stdout, stderr)
}

func runShell(ctx context.Context, dir, command string, stdout, stderr io.Writer) error {
	parser := syntax.NewParser()
	prog, err := parser.Parse(strings.NewReader(command), "command")
	if err != nil {
		return eris.Wrapf(err, "failed to parse command %s", command)
	}

	runner, err := interp.New(
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(os.Environ()...)),
		interp.ExecHandlers(execRewriter),
		interp.OpenHandler(openHandler),
		interp.StdIO(nil, stdout, stderr),
		interp.Params("-e"),
	)
	if err != nil {
		return eris.Wrap(err, "failed to initialize the shell runner")
	}

	return runner.Run(ctx, prog)
}

// escapeWordBreaks backslash-escapes everything the shell word parser would
// split or interpret, leaving the glob metacharacters intact. Each pattern
// is exactly one word, whitespace in paths included.
func escapeWordBreaks(pattern string) string {
	var sb strings.Builder
	for _, r := range pattern {
		switch r {
		case ' ', '\t', '\'', '"', '$', '`', '\\', '(', ')', ';', '&', '|', '<', '>':
			sb.WriteRune('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// ResolvePatterns expands shell glob patterns (with globstar) relative to
// base. Patterns that match nothing are dropped.
func ResolvePatterns(base string, patterns []string) ([]string, error) {
	result := []string{}
	cfg := expand.Config{
		ReadDir2: func(path string) ([]os.DirEntry, error) {
			if path == "" {
				path = "."
			}
			return os.ReadDir(path)
		},
		GlobStar: true,
	}

	parser := syntax.NewParser()
	for _, item := range patterns {
		if !filepath.IsAbs(item) {
			item = filepath.Join(base, item)
		}
		item = escapeWordBreaks(filepath.ToSlash(item))

		words := make([]*syntax.Word, 0)
		err := parser.Words(strings.NewReader(item), func(w *syntax.Word) bool {
			words = append(words, w)
			return true
		})
		if err != nil {
			return nil, eris.Wrapf(err, "failed to parse pattern %s", item)
		}

		matches, err := expand.Fields(&cfg, words...)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to resolve pattern %s", item)
		}

		for _, match := range matches {
			// an unmatched pattern is returned verbatim, skip it
			if !strings.Contains(match, "*") {
				result = append(result, match)
			}
		}
	}
	return result, nil
}
