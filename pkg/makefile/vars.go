package makefile

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
)

// AssignOp is a GNU Make variable assignment operator.
type AssignOp string

const (
	// Recursive variables (`=`) are expanded every time they are referenced.
	Recursive AssignOp = "="
	// Simple variables (`:=`) are expanded once, at assignment.
	Simple AssignOp = ":="
	// Immediate variables (`:::=`) are expanded immediately and re-escaped.
	Immediate AssignOp = ":::="
	// Conditional variables (`?=`) are only assigned if still undefined.
	Conditional AssignOp = "?="
	// Append variables (`+=`) extend a previous assignment.
	Append AssignOp = "+="
)

// AssignOpFromKind maps the script-level kind names to assignment operators.
func AssignOpFromKind(kind string) (AssignOp, error) {
	switch kind {
	case "", "recursive":
		return Recursive, nil
	case "simple":
		return Simple, nil
	case "immediate":
		return Immediate, nil
	case "conditional":
		return Conditional, nil
	case "append":
		return Append, nil
	}
	return "", eris.Errorf("unknown variable kind %q", kind)
}

// Var is a single Makefile variable. Multi-line values render as
// define/endef blocks.
type Var struct {
	Key   string
	Value string
	Op    AssignOp
}

// NewVar creates a recursively expanded variable. Multiple values are
// joined with newlines and will render as a define block.
func NewVar(key string, values ...string) (Var, error) {
	return NewVarOp(key, Recursive, values...)
}

// NewVarOp creates a variable with an explicit assignment operator.
func NewVarOp(key string, op AssignOp, values ...string) (Var, error) {
	if key == "" {
		return Var{}, eris.New("variable key must not be empty")
	}
	if len(values) == 0 {
		return Var{}, eris.New("must enter at least one value")
	}
	return Var{Key: key, Value: strings.Join(values, "\n"), Op: op}, nil
}

// Render returns the variable as it appears in a Makefile. makeVersion
// decides whether define blocks carry the assignment operator, which GNU
// Make only understands after 3.81.
func (v Var) Render(makeVersion float64) string {
	if strings.Contains(v.Value, "\n") {
		if makeVersion > 3.81 {
			return fmt.Sprintf("define %s %s\n%s\nendef\n", v.Key, v.Op, v.Value)
		}
		return fmt.Sprintf("define %s\n%s\nendef\n", v.Key, v.Value)
	}
	return fmt.Sprintf("%s %s %s", v.Key, v.Op, v.Value)
}

var (
	makeVersionOnce sync.Once
	makeVersion     float64
)

// MakeVersion returns the version of the GNU Make found on PATH, probed
// once per process. When make is unavailable or unparsable a current 4.x
// version is assumed; generating a Makefile should not require make itself.
func MakeVersion() float64 {
	makeVersionOnce.Do(func() {
		makeVersion = 4.0

		out, err := exec.Command("make", "-v").Output()
		if err != nil {
			return
		}

		line, _, _ := strings.Cut(string(out), "\n")
		version := strings.TrimPrefix(strings.TrimSpace(line), "GNU Make ")
		if parsed, err := strconv.ParseFloat(version, 64); err == nil {
			makeVersion = parsed
		}
	})

	return makeVersion
}
