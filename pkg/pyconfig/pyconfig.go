// Package pyconfig inspects the host Python installation. The interpreter
// is queried once per process through a small sysconfig one-liner; all
// derived names (link libraries, platform-specific suffixes) are computed
// from the decoded result.
package pyconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
)

// probeScript prints the sysconfig facts we care about as a single JSON
// object.
const probeScript = `import json, os, sys, sysconfig
print(json.dumps({
    "major": sys.version_info[0],
    "minor": sys.version_info[1],
    "patch": sys.version_info[2],
    "prefix": sysconfig.get_config_var("prefix") or "",
    "include_dir": sysconfig.get_config_var("INCLUDEPY") or "",
    "config_h_dir": os.path.dirname(sysconfig.get_config_h_filename()),
    "base_cflags": sysconfig.get_config_var("BASECFLAGS") or "",
    "libs": sysconfig.get_config_var("LIBS") or "",
    "syslibs": sysconfig.get_config_var("SYSLIBS") or "",
    "enable_shared": bool(sysconfig.get_config_var("Py_ENABLE_SHARED")),
    "libpl": sysconfig.get_config_var("LIBPL") or "",
    "ext_suffix": sysconfig.get_config_var("EXT_SUFFIX") or "",
}))`

// Python describes the host Python toolchain.
type Python struct {
	Major        int    `json:"major"`
	Minor        int    `json:"minor"`
	Patch        int    `json:"patch"`
	Prefix       string `json:"prefix"`
	IncludeDir   string `json:"include_dir"`
	ConfigHDir   string `json:"config_h_dir"`
	BaseCflags   string `json:"base_cflags"`
	Libs         string `json:"libs"`
	SysLibs      string `json:"syslibs"`
	EnableShared bool   `json:"enable_shared"`
	LibPL        string `json:"libpl"`
	ExtSuffix    string `json:"ext_suffix"`

	goos string
}

var (
	probeOnce   sync.Once
	probeResult *Python
	probeErr    error
)

// Probe queries the host interpreter (python3, or $MAKEFILEGEN_PYTHON) and
// caches the result for the rest of the process.
func Probe() (*Python, error) {
	probeOnce.Do(func() {
		python := os.Getenv("MAKEFILEGEN_PYTHON")
		if python == "" {
			python = "python3"
		}

		out, err := exec.Command(python, "-c", probeScript).Output()
		if err != nil {
			probeErr = eris.Wrapf(err, "failed to query %s", python)
			return
		}

		probeResult, probeErr = Decode(out)
	})

	return probeResult, probeErr
}

// Decode parses the JSON emitted by the probe script.
func Decode(data []byte) (*Python, error) {
	py := &Python{goos: runtime.GOOS}
	if err := json.Unmarshal(data, py); err != nil {
		return nil, eris.Wrap(err, "failed to decode the python probe output")
	}
	if py.Major == 0 {
		return nil, eris.New("python probe output is missing the version")
	}
	return py, nil
}

// Version is the full semantic version, e.g. "3.11.7".
func (p *Python) Version() string {
	return fmt.Sprintf("%d.%d.%d", p.Major, p.Minor, p.Patch)
}

// Ver is the short major.minor version, e.g. "3.11".
func (p *Python) Ver() string {
	return fmt.Sprintf("%d.%d", p.Major, p.Minor)
}

// VerNodot is the concatenated major and minor version, e.g. "311".
func (p *Python) VerNodot() string {
	return strings.ReplaceAll(p.Ver(), ".", "")
}

// NameVersion is e.g. "Python-3.11.7".
func (p *Python) NameVersion() string {
	return "Python-" + p.Version()
}

// NameVer is e.g. "python3.11".
func (p *Python) NameVer() string {
	return "python" + p.Ver()
}

// ExecutableName is the interpreter binary name for the current platform.
func (p *Python) ExecutableName() string {
	if p.goos == "windows" {
		return "python.exe"
	}
	return "python"
}

// LibName is the library name prefix, e.g. "libpython3.11".
func (p *Python) LibName() string {
	return "lib" + p.NameVer()
}

// LinkLib is the -l flag for linking against the interpreter.
func (p *Python) LinkLib() string {
	return "-l" + p.NameVer()
}

// StaticLibName is the static library file name.
func (p *Python) StaticLibName() string {
	if p.goos == "windows" {
		return p.LibName() + ".lib"
	}
	return p.LibName() + ".a"
}

// DylibName is the shared library file name for the current platform.
func (p *Python) DylibName() string {
	switch p.goos {
	case "windows":
		return p.LibName() + ".dll"
	case "darwin":
		return p.LibName() + ".dylib"
	default:
		return p.LibName() + ".so"
	}
}

// DylibLinkName is the symlink name the linker resolves.
func (p *Python) DylibLinkName() string {
	if p.goos == "darwin" {
		return p.LibName() + ".dylib"
	}
	return p.LibName() + ".so"
}

// Map returns the probe facts and derived names as a flat string map, used
// by the python() script builtin.
func (p *Python) Map() map[string]string {
	return map[string]string{
		"version":         p.Version(),
		"ver":             p.Ver(),
		"ver_nodot":       p.VerNodot(),
		"name_version":    p.NameVersion(),
		"name_ver":        p.NameVer(),
		"executable":      p.ExecutableName(),
		"libname":         p.LibName(),
		"linklib":         p.LinkLib(),
		"staticlib_name":  p.StaticLibName(),
		"dylib_name":      p.DylibName(),
		"dylib_link_name": p.DylibLinkName(),
		"prefix":          p.Prefix,
		"include_dir":     p.IncludeDir,
		"config_h_dir":    p.ConfigHDir,
		"base_cflags":     p.BaseCflags,
		"libs":            p.Libs,
		"syslibs":         p.SysLibs,
		"libpl":           p.LibPL,
		"ext_suffix":      p.ExtSuffix,
	}
}
