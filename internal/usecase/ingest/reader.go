package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Record is one catalog entry as it appears in an ingest file.
type Record struct {
	Category    string `yaml:"category"    json:"category"`
	ID          string `yaml:"id"          json:"id"`
	Name        string `yaml:"name"        json:"name"`
	Price       string `yaml:"price"       json:"price"`
	ImageURL    string `yaml:"image_url"   json:"image_url"`
	Description string `yaml:"description" json:"description"`
}

// Format selects the ingest file encoding.
type Format string

const (
	// FormatYAML is a YAML document with a top-level "items" list, or a bare list.
	FormatYAML Format = "yaml"
	// FormatJSONL is one JSON object per line.
	FormatJSONL Format = "jsonl"
)

// maxLineBytes bounds one JSONL record.
const maxLineBytes = 1 << 20

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	default:
		return "", fmt.Errorf("unsupported ingest file %q: want .yaml, .yml or .jsonl", path)
	}
}

// ReadRecords decodes every record from r.
func ReadRecords(r io.Reader, format Format) ([]Record, error) {
	switch format {
	case FormatYAML:
		return readYAML(r)
	case FormatJSONL:
		return readJSONL(r)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

func readYAML(r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read yaml: %w", err)
	}

	var doc struct {
		Items []Record `yaml:"items"`
	}
	if err := yaml.Unmarshal(data, &doc); err == nil && doc.Items != nil {
		return doc.Items, nil
	}

	var list []Record
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return list, nil
}

func readJSONL(r io.Reader) ([]Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var out []Record
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 || b[0] == '#' {
			continue
		}
		var rec Record
		if err := json.Unmarshal(b, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, fmt.Errorf("line %d exceeds %d bytes: %w", line+1, maxLineBytes, err)
		}
		return nil, fmt.Errorf("read jsonl: %w", err)
	}
	return out, nil
}
