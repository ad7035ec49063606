package pyconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const probeOutput = `{
	"major": 3,
	"minor": 11,
	"patch": 7,
	"prefix": "/usr",
	"include_dir": "/usr/include/python3.11",
	"config_h_dir": "/usr/include/python3.11",
	"base_cflags": "-Wsign-compare",
	"libs": "-ldl -lm",
	"syslibs": "-lm",
	"enable_shared": true,
	"libpl": "/usr/lib/python3.11/config-3.11-x86_64-linux-gnu",
	"ext_suffix": ".cpython-311-x86_64-linux-gnu.so"
}`

func TestDecode(t *testing.T) {
	py, err := Decode([]byte(probeOutput))
	require.NoError(t, err)

	assert.Equal(t, "3.11.7", py.Version())
	assert.Equal(t, "3.11", py.Ver())
	assert.Equal(t, "311", py.VerNodot())
	assert.Equal(t, "Python-3.11.7", py.NameVersion())
	assert.Equal(t, "python3.11", py.NameVer())
	assert.Equal(t, "libpython3.11", py.LibName())
	assert.Equal(t, "-lpython3.11", py.LinkLib())
	assert.Equal(t, "/usr/include/python3.11", py.IncludeDir)
	assert.True(t, py.EnableShared)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"prefix": "/usr"}`))
	assert.Error(t, err)
}

func TestPlatformNames(t *testing.T) {
	py, err := Decode([]byte(probeOutput))
	require.NoError(t, err)

	py.goos = "linux"
	assert.Equal(t, "python", py.ExecutableName())
	assert.Equal(t, "libpython3.11.a", py.StaticLibName())
	assert.Equal(t, "libpython3.11.so", py.DylibName())
	assert.Equal(t, "libpython3.11.so", py.DylibLinkName())

	py.goos = "darwin"
	assert.Equal(t, "libpython3.11.dylib", py.DylibName())
	assert.Equal(t, "libpython3.11.dylib", py.DylibLinkName())

	py.goos = "windows"
	assert.Equal(t, "python.exe", py.ExecutableName())
	assert.Equal(t, "libpython3.11.lib", py.StaticLibName())
	assert.Equal(t, "libpython3.11.dll", py.DylibName())
}

func TestMap(t *testing.T) {
	py, err := Decode([]byte(probeOutput))
	require.NoError(t, err)
	py.goos = "linux"

	m := py.Map()
	assert.Equal(t, "3.11.7", m["version"])
	assert.Equal(t, "-lpython3.11", m["linklib"])
	assert.Equal(t, "/usr/lib/python3.11/config-3.11-x86_64-linux-gnu", m["libpl"])
	assert.Equal(t, ".cpython-311-x86_64-linux-gnu.so", m["ext_suffix"])
}
