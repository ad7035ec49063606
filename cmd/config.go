package cmd

import (
	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigtoml"
	"github.com/rotisserie/eris"
)

// Config holds the tool-wide defaults, loaded from .makefilegen.toml and
// MAKEFILEGEN_* environment variables. CLI flags take precedence.
type Config struct {
	CC  string `default:"gcc" usage:"Default C compiler"`
	CXX string `default:"g++" usage:"Default C++ compiler"`
	Log struct {
		Level string `default:"info" usage:"Log level (debug, info, warn, error)"`
		JSON  bool   `default:"false" usage:"Output JSONND instead of pretty console messages"`
	}
	NoColor bool `default:"false" usage:"Disable colored output"`
}

func loadConfig() (Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		SkipFlags:          true,
		AllowUnknownFields: true,
		EnvPrefix:          "MAKEFILEGEN",
		Files:              []string{".makefilegen.toml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".toml": aconfigtoml.New(),
		},
	})

	if err := loader.Load(); err != nil {
		return cfg, eris.Wrap(err, "failed to load configuration")
	}
	return cfg, nil
}
