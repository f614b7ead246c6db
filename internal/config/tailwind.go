package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// TailwindConfig is the [package.metadata.tailwind] table of Cargo.toml.
type TailwindConfig struct {
	Input          []string `toml:"tw-input"`
	Output         string   `toml:"tw-output"`
	WatchEnabled   bool     `toml:"tw-watch-enabled"`
	WatchAlways    bool     `toml:"tw-watch-always"`
	OptimizeMinify bool     `toml:"tw-optimize-minify"`
	OptimizeMap    bool     `toml:"tw-optimize-map"`
}

type cargoManifest struct {
	Package *struct {
		Metadata *struct {
			Tailwind *TailwindConfig `toml:"tailwind"`
		} `toml:"metadata"`
	} `toml:"package"`
}

// ReadTailwind parses the Tailwind table from the Cargo manifest at path. It
// returns nil without error when the manifest or the table is absent.
func ReadTailwind(path string) (*TailwindConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var manifest cargoManifest
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if manifest.Package == nil || manifest.Package.Metadata == nil {
		return nil, nil
	}
	return manifest.Package.Metadata.Tailwind, nil
}

// Args builds the tailwindcss command line arguments.
func (c *TailwindConfig) Args() []string {
	var args []string
	// Only the first input is passed; tailwindcss accepts a single -i.
	if len(c.Input) > 0 {
		args = append(args, "-i", c.Input[0])
	}
	args = append(args, "-o", c.Output)

	if c.WatchEnabled {
		if c.WatchAlways {
			args = append(args, "-w=always")
		} else {
			args = append(args, "-w")
		}
	}
	if c.OptimizeMinify {
		args = append(args, "-m")
	}
	if c.OptimizeMap {
		args = append(args, "--map")
	}
	return args
}

// WatcherConfig tells the dev supervisor whether to run the secondary
// watcher and with which arguments.
type WatcherConfig struct {
	Enabled bool
	Args    []string
}

// TailwindProbe reads the secondary watcher configuration from a Cargo
// manifest.
type TailwindProbe struct {
	Path string
}

// ReadSecondary returns the watcher configuration, or nil when Cargo.toml has
// no Tailwind table.
func (p TailwindProbe) ReadSecondary() (*WatcherConfig, error) {
	path := p.Path
	if path == "" {
		path = DefaultCargoToml
	}
	cfg, err := ReadTailwind(path)
	if err != nil || cfg == nil {
		return nil, err
	}
	return &WatcherConfig{Enabled: cfg.WatchEnabled, Args: cfg.Args()}, nil
}
