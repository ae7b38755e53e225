package plan

import (
	"encoding/json"
	"io/ioutil"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/itchio/setup/installer/bfs"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// DefaultConfigNames are looked up, in order, when Find is given a directory
var DefaultConfigNames = []string{"setup.toml", "setup.json"}

// Find returns the path of the setup description in dir
func Find(dir string) (string, error) {
	for _, name := range DefaultConfigNames {
		candidate := filepath.Join(dir, name)
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", errors.Errorf("no setup description (%s) found in %s", strings.Join(DefaultConfigNames, ", "), dir)
}

// Resolve returns the absolute path of a setup description, given
// either its path or the directory containing it.
func Resolve(setupPath string) (string, error) {
	if setupPath == "" {
		setupPath = "."
	}

	// sources are resolved against the setup's directory, and must be absolute
	setupPath, err := filepath.Abs(setupPath)
	if err != nil {
		return "", errors.WithStack(err)
	}

	if bfs.IsDir(setupPath) {
		return Find(setupPath)
	}
	if !fileExists(setupPath) {
		return "", errors.Errorf("no setup description at %s", setupPath)
	}
	return setupPath, nil
}

// Load reads and validates a setup description. Files ending in .json
// are read as JSON, anything else as TOML. Unknown keys are logged
// and otherwise ignored.
func Load(configPath string) (*Config, error) {
	configPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var intermediate map[string]interface{}
	if strings.EqualFold(filepath.Ext(configPath), ".json") {
		contents, err := ioutil.ReadFile(configPath)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		err = json.Unmarshal(contents, &intermediate)
		if err != nil {
			return nil, errors.Wrap(err, "parsing setup description")
		}
	} else {
		_, err = toml.DecodeFile(configPath, &intermediate)
		if err != nil {
			return nil, errors.Wrap(err, "parsing setup description")
		}
	}

	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      cfg,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	err = decoder.Decode(intermediate)
	if err != nil {
		warnOnly := false
		if mse, ok := err.(*mapstructure.Error); ok {
			warnOnly = true
			for _, e := range mse.Errors {
				if strings.Contains(e, "has invalid keys") {
					// cool!
				} else {
					warnOnly = false
					break
				}
			}
		}

		if !warnOnly {
			return nil, errors.Wrap(err, "decoding setup description")
		}
		slog.Warn("Ignoring unknown keys in setup description", "path", configPath, "error", err.Error())
	}

	cfg.BaseDir = filepath.Dir(configPath)

	err = cfg.Validate()
	if err != nil {
		return nil, errors.Wrapf(err, "invalid setup description %s", configPath)
	}

	slog.Debug("Loaded setup description",
		"path", configPath,
		"name", cfg.Name,
		"features", len(cfg.Features),
		"dependencies", len(cfg.Dependencies),
	)
	return cfg, nil
}

// ResolvePath returns p made absolute against the config's directory
func (c *Config) ResolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir, filepath.FromSlash(p))
}

// SourceDir returns the absolute directory the files to install live in
func (c *Config) SourceDir() string {
	if c.Source == "" {
		return c.ResolvePath("install")
	}
	return c.ResolvePath(c.Source)
}

// ReadText returns the contents of a text file referenced by the config
// (about, license), or an empty string if p is empty.
func (c *Config) ReadText(p string) (string, error) {
	if p == "" {
		return "", nil
	}

	contents, err := ioutil.ReadFile(c.ResolvePath(p))
	if err != nil {
		return "", errors.WithStack(err)
	}
	return string(contents), nil
}
