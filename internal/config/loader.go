package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override unc.yaml.
const (
	EnvPollInterval = "UNC_POLL_INTERVAL"
	EnvStopTimeout  = "UNC_STOP_TIMEOUT"
	EnvTemplateRepo = "UNC_TEMPLATE_REPO"
)

// Load reads settings from path. A missing file yields the defaults.
func Load(path string) (*Settings, error) {
	s, err := LoadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		s = &Settings{}
		if err := applyEnv(s); err != nil {
			return nil, err
		}
		s.ApplyDefaults()
		if err := s.Validate(); err != nil {
			return nil, err
		}
		return s, nil
	}
	return s, err
}

// LoadFile reads settings from path and fails if the file does not exist.
func LoadFile(path string) (*Settings, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve settings path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("open settings file: %w", err)
	}

	s, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}
	if err := applyEnv(s); err != nil {
		return nil, err
	}
	s.ApplyDefaults()
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}
	if s.Dev.CargoToml != "" && !filepath.IsAbs(s.Dev.CargoToml) {
		s.Dev.CargoToml = filepath.Join(filepath.Dir(absPath), s.Dev.CargoToml)
	}
	return s, nil
}

func decode(data []byte) (*Settings, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if raw != nil {
		if err := validateAgainstSchema(raw); err != nil {
			return nil, err
		}
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	var s Settings
	if err := decoder.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &s, nil
}

func applyEnv(s *Settings) error {
	if value := os.Getenv(EnvPollInterval); value != "" {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPollInterval, err)
		}
		s.Dev.PollInterval = Duration{Duration: d, explicit: true}
	}
	if value := os.Getenv(EnvStopTimeout); value != "" {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvStopTimeout, err)
		}
		s.Dev.StopTimeout = Duration{Duration: d, explicit: true}
	}
	if value := os.Getenv(EnvTemplateRepo); value != "" {
		s.Template.Repo = value
	}
	return nil
}
