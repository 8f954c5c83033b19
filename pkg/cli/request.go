package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile decodes a YAML or JSON file into v. The path "-" reads stdin.
func LoadFile(path string, v any) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Decode(data, path, v)
}

// Decode picks the format from the file extension. Unknown extensions try
// JSON first, then YAML.
func Decode(data []byte, filename string, v any) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		jerr := json.Unmarshal(data, v)
		if jerr == nil {
			return nil
		}
		if yerr := yaml.Unmarshal(data, v); yerr != nil {
			return fmt.Errorf("failed to parse input (tried JSON and YAML): %w", errors.Join(jerr, yerr))
		}
	}
	return nil
}
