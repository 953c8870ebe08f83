package inventory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format names an on-disk encoding for inventory documents.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension. Anything that is
// not .yaml/.yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode reads one document from r into v.
func Decode(r io.Reader, format Format, v any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read inventory: %w", err)
	}
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("decode yaml inventory: %w", err)
		}
	default:
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("decode json inventory: %w", err)
		}
	}
	return nil
}

// LoadFile decodes the file at path into v, choosing the format by extension.
func LoadFile(path string, v any) error {
	f, err := os.Open(path) //nolint:gosec // path is operator supplied
	if err != nil {
		return fmt.Errorf("open inventory %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return Decode(f, FormatFromPath(path), v)
}

type hostDocument struct {
	Hosts []Host `json:"hosts" yaml:"hosts"`
}

// DecodeHosts accepts either a bare list of hosts or an object with a
// "hosts" key.
func DecodeHosts(r io.Reader, format Format) ([]Host, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read inventory: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if format == FormatJSON && len(trimmed) > 0 && trimmed[0] == '[' {
		var hosts []Host
		if err := Decode(bytes.NewReader(trimmed), format, &hosts); err != nil {
			return nil, err
		}
		return hosts, nil
	}

	if format == FormatYAML {
		var node yaml.Node
		if err := yaml.Unmarshal(trimmed, &node); err != nil {
			return nil, fmt.Errorf("decode yaml inventory: %w", err)
		}
		if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
			var hosts []Host
			if err := node.Content[0].Decode(&hosts); err != nil {
				return nil, fmt.Errorf("decode yaml inventory: %w", err)
			}
			return hosts, nil
		}
	}

	var doc hostDocument
	if err := Decode(bytes.NewReader(trimmed), format, &doc); err != nil {
		return nil, err
	}
	return doc.Hosts, nil
}

// LoadHosts reads a host inventory file (JSON or YAML).
func LoadHosts(path string) ([]Host, error) {
	f, err := os.Open(path) //nolint:gosec // path is operator supplied
	if err != nil {
		return nil, fmt.Errorf("open inventory %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	hosts, err := DecodeHosts(f, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return hosts, nil
}
