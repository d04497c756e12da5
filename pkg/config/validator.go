package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidConfig is returned when a configuration document fails schema validation
var ErrInvalidConfig = errors.New("configuration file is not valid")

// Validate validates a configuration file against the JSON schema
func Validate(configFile string) error {
	path, err := filepath.Abs(configFile)
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	return validate(gojsonschema.NewReferenceLoader("file://" + filepath.ToSlash(path)))
}

// Check validates values that may have been overridden after parsing
func (c Config) Check() error {
	if !ValidHandler(c.Log.Handler) {
		return fmt.Errorf("%w: log handler %q (expected one of %v)", ErrInvalidConfig, c.Log.Handler, Handlers)
	}
	return nil
}

// ValidateBytes validates an in-memory configuration document
func ValidateBytes(data []byte) error {
	return validate(gojsonschema.NewBytesLoader(data))
}

func validate(documentLoader gojsonschema.JSONLoader) error {
	schemaLoader := gojsonschema.NewStringLoader(Schema)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("failed to validate schema: %w", err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
	}

	return nil
}
