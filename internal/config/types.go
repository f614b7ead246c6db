package config

import (
	"fmt"
	"time"
)

// Default settings used when unc.yaml is absent or leaves a field unset.
const (
	DefaultPollInterval = 100 * time.Millisecond
	DefaultSettleDelay  = 500 * time.Millisecond
	DefaultStopTimeout  = 2 * time.Second
	DefaultCargoToml    = "Cargo.toml"
	DefaultTemplateRepo = "erickweyunga/uncovr-templates"
	DefaultBranch       = "main"
	DefaultTemplate     = "default"
	DefaultRuntime      = "process"
)

// Duration wraps time.Duration for YAML unmarshalling.
type Duration struct {
	time.Duration
	explicit bool
}

// UnmarshalText parses a textual duration, accepting empty strings.
func (d *Duration) UnmarshalText(text []byte) error {
	d.explicit = true
	if len(text) == 0 {
		d.Duration = 0
		return nil
	}
	dur, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = dur
	return nil
}

// MarshalText renders the duration using time.Duration formatting.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// IsSet reports whether the duration was explicitly provided or non-zero.
func (d Duration) IsSet() bool {
	return d.explicit || d.Duration != 0
}

// Settings mirrors the unc.yaml document structure.
type Settings struct {
	Dev      DevSettings      `yaml:"dev"`
	Template TemplateSettings `yaml:"template"`
}

// DevSettings configures the dev command's watchers and timings.
type DevSettings struct {
	PollInterval Duration `yaml:"pollInterval"`
	SettleDelay  Duration `yaml:"settleDelay"`
	StopTimeout  Duration `yaml:"stopTimeout"`
	CargoToml    string   `yaml:"cargoToml"`
	// Runtime names the registered spawner that starts the watchers.
	Runtime string `yaml:"runtime"`
	// Primary is the build-and-rerun command line.
	Primary []string `yaml:"primary"`
	// Secondary is the command prefix for the CSS watcher; the Tailwind
	// arguments from Cargo.toml are appended to it.
	Secondary []string `yaml:"secondary"`
}

// TemplateSettings holds defaults for create-app.
type TemplateSettings struct {
	Repo   string `yaml:"repo"`
	Branch string `yaml:"branch"`
	Name   string `yaml:"name"`
}

// Default returns settings with every field populated.
func Default() *Settings {
	s := &Settings{}
	s.ApplyDefaults()
	return s
}

// ApplyDefaults fills unset fields.
func (s *Settings) ApplyDefaults() {
	d := &s.Dev
	if !d.PollInterval.IsSet() {
		d.PollInterval.Duration = DefaultPollInterval
	}
	if !d.SettleDelay.IsSet() {
		d.SettleDelay.Duration = DefaultSettleDelay
	}
	if !d.StopTimeout.IsSet() {
		d.StopTimeout.Duration = DefaultStopTimeout
	}
	if d.CargoToml == "" {
		d.CargoToml = DefaultCargoToml
	}
	if d.Runtime == "" {
		d.Runtime = DefaultRuntime
	}
	if len(d.Primary) == 0 {
		d.Primary = []string{"cargo", "watch", "-x", "run"}
	}
	if len(d.Secondary) == 0 {
		d.Secondary = []string{"npx", "tailwindcss"}
	}

	t := &s.Template
	if t.Repo == "" {
		t.Repo = DefaultTemplateRepo
	}
	if t.Branch == "" {
		t.Branch = DefaultBranch
	}
	if t.Name == "" {
		t.Name = DefaultTemplate
	}
}

// Validate reports configuration errors that cannot be defaulted away.
func (s *Settings) Validate() error {
	if s.Dev.PollInterval.Duration <= 0 {
		return fmt.Errorf("dev.pollInterval: must be positive, got %s", s.Dev.PollInterval.Duration)
	}
	if s.Dev.SettleDelay.Duration < 0 {
		return fmt.Errorf("dev.settleDelay: must not be negative, got %s", s.Dev.SettleDelay.Duration)
	}
	if s.Dev.StopTimeout.Duration < 0 {
		return fmt.Errorf("dev.stopTimeout: must not be negative, got %s", s.Dev.StopTimeout.Duration)
	}
	for i, arg := range s.Dev.Primary {
		if arg == "" {
			return fmt.Errorf("dev.primary[%d]: must not be empty", i)
		}
	}
	for i, arg := range s.Dev.Secondary {
		if arg == "" {
			return fmt.Errorf("dev.secondary[%d]: must not be empty", i)
		}
	}
	return nil
}
