package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Rana718/pbinit/internal/types"
	"gopkg.in/yaml.v3"
)

// fileSet is the document shape of a collection file. A bare list is
// accepted as well.
type fileSet struct {
	Collections []types.CollectionDefinition `json:"collections" yaml:"collections"`
}

// LoadFile reads collection definitions from a .json, .yaml or .yml file
// and validates them.
func LoadFile(path string) ([]types.CollectionDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}

	defs, err := Decode(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema file %s: %w", path, err)
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("schema file %s declares no collections", path)
	}
	if err := Validate(defs); err != nil {
		return nil, err
	}
	return defs, nil
}

// Decode parses a collection document; ext selects YAML (.yaml/.yml) or JSON.
func Decode(data []byte, ext string) ([]types.CollectionDefinition, error) {
	trimmed := bytes.TrimSpace(data)
	isList := len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '-')

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if isList {
			var defs []types.CollectionDefinition
			err := yaml.Unmarshal(data, &defs)
			return defs, err
		}
		var set fileSet
		err := yaml.Unmarshal(data, &set)
		return set.Collections, err
	default:
		if isList {
			var defs []types.CollectionDefinition
			err := json.Unmarshal(data, &defs)
			return defs, err
		}
		var set fileSet
		err := json.Unmarshal(data, &set)
		return set.Collections, err
	}
}

// Load returns the definitions from path, or the built-in set when path is empty.
func Load(path string) ([]types.CollectionDefinition, error) {
	if path == "" {
		return Builtin(), nil
	}
	return LoadFile(path)
}
