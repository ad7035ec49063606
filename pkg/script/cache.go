package script

import (
	"encoding/gob"
	"os"

	"github.com/rotisserie/eris"
)

// CacheName is the file that remembers configured option values, stored
// next to the build script.
const CacheName = ".makefilegen.cache"

// WriteOptionCache persists the configured option values so later runs can
// reuse them without repeating key=value arguments.
func WriteOptionCache(file string, options map[string]string) error {
	handle, err := os.Create(file)
	if err != nil {
		return eris.Wrapf(err, "failed to create %s", file)
	}
	defer handle.Close()

	return gob.NewEncoder(handle).Encode(options)
}

// ReadOptionCache loads previously configured option values. A missing
// cache yields an empty map.
func ReadOptionCache(file string) (map[string]string, error) {
	handle, err := os.Open(file)
	if err != nil {
		if eris.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, eris.Wrapf(err, "failed to open %s", file)
	}
	defer handle.Close()

	var options map[string]string
	if err := gob.NewDecoder(handle).Decode(&options); err != nil {
		return nil, eris.Wrapf(err, "failed to decode %s", file)
	}

	return options, nil
}
