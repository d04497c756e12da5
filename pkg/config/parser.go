package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// Parse reads a configuration file on top of Default(). The file is checked
// against the JSON schema first.
func Parse(configFile string) (Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config file: %w", err)
	}

	if err := ValidateBytes(data); err != nil {
		return Config{}, err
	}

	cfg := Default()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Load returns Default() for an empty path and Parse(path) otherwise
func Load(configFile string) (Config, error) {
	if configFile == "" {
		return Default(), nil
	}
	return Parse(configFile)
}
