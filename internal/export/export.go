// Package export writes collection definitions to a file that the schema
// loader can read back.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Rana718/pbinit/internal/types"
	"gopkg.in/yaml.v3"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"

	DefaultDir = "pb_schema"
)

type document struct {
	Collections []types.CollectionDefinition `json:"collections" yaml:"collections"`
}

// PerformExport writes defs and returns the written path. out may be a file
// (its extension picks the format when format is empty) or a directory, in
// which case a timestamped file is created inside it.
func PerformExport(defs []types.CollectionDefinition, out, format string) (string, error) {
	if len(defs) == 0 {
		return "", nil
	}

	format, err := resolveFormat(out, format)
	if err != nil {
		return "", err
	}

	filePath := out
	if filePath == "" || filepath.Ext(filePath) == "" {
		dir := out
		if dir == "" {
			dir = DefaultDir
		}
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		filePath = filepath.Join(dir, fmt.Sprintf("collections_%s.%s", timestamp, format))
	}

	data, err := Encode(defs, format)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return filePath, nil
}

// Encode renders defs as a {collections: [...]} document.
func Encode(defs []types.CollectionDefinition, format string) ([]byte, error) {
	doc := document{Collections: defs}
	switch format {
	case FormatYAML:
		data, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal yaml: %w", err)
		}
		return data, nil
	case FormatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal json: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q (want json or yaml)", format)
	}
}

func resolveFormat(out, format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	ext := strings.ToLower(filepath.Ext(out))

	if format == "" {
		switch ext {
		case ".yaml", ".yml":
			return FormatYAML, nil
		default:
			return FormatJSON, nil
		}
	}
	if format == "yml" {
		format = FormatYAML
	}
	if format != FormatJSON && format != FormatYAML {
		return "", fmt.Errorf("unsupported export format %q (want json or yaml)", format)
	}
	return format, nil
}
