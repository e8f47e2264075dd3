package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// maxConfigFileSize bounds how large a config file we are willing to parse.
const maxConfigFileSize = 1 * 1024 * 1024 // 1MB

// LoadJSON overlays parameters from a JSON file onto the config. Fields
// omitted from the file keep their current values, so partial configs are
// safe. The returned warnings cover deprecated keys and parameter
// inconsistencies detected after the overlay; they never abort the load.
func (c *Config) LoadJSON(path string) ([]string, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return c.ApplyJSON(data)
}

// ApplyJSON overlays a JSON document onto the config under the config lock.
// Used both for startup files and runtime reconfigure requests. Unknown keys
// are ignored by the decoder; deprecated keys produce warnings.
func (c *Config) ApplyJSON(data []byte) ([]string, error) {
	keys, err := flatKeys(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	warnings := CheckDeprecated(keys)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := json.Unmarshal(data, c); err != nil {
		return warnings, fmt.Errorf("failed to apply config JSON: %w", err)
	}
	warnings = append(warnings, c.CheckParameters()...)
	return warnings, nil
}

// flatKeys collects every leaf key name in the document, ignoring nesting,
// so deprecated names are caught wherever they appear.
func flatKeys(data []byte) ([]string, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	var keys []string
	for k, v := range doc {
		keys = append(keys, k)
		var nested map[string]json.RawMessage
		if len(v) > 0 && v[0] == '{' {
			if err := json.Unmarshal(v, &nested); err == nil {
				for nk := range nested {
					keys = append(keys, nk)
				}
			}
		}
	}
	return keys, nil
}
