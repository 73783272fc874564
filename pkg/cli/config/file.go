package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
)

// File is the optional TOML configuration file. Flags that are set
// explicitly take precedence over its values.
type File struct {
	Source         string   `toml:"source"`
	Target         string   `toml:"target"`
	TFMs           []string `toml:"tfms"`
	PackageVersion string   `toml:"package_version"`
	TempDir        string   `toml:"temp_dir"`
	FeedURL        string   `toml:"feed_url"`
}

// LoadFile reads and parses a TOML configuration file
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V("path", path))
	}

	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, goerr.Wrap(err, "failed to parse config file", goerr.V("path", path))
	}

	return &f, nil
}
