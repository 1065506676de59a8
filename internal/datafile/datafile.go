// Package datafile loads item lists from JSON and TOML files.
//
// Items are decoded as map[string]interface{}. JSON strings that parse as
// RFC 3339 timestamps become time.Time so they classify as DateTime; TOML
// carries native datetimes and 64-bit integers.
package datafile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Formats
const (
	FormatJSON = "json"
	FormatTOML = "toml"
	FormatLua  = "lua"
)

var (
	// ErrUnknownFormat is returned for files whose format cannot be determined.
	ErrUnknownFormat = errors.New("unknown data format")

	// ErrNotItem is returned when a decoded element is not an object.
	ErrNotItem = errors.New("element is not an object")
)

// FormatOf returns format, or the format implied by the file extension
// when format is empty.
func FormatOf(path, format string) (string, error) {
	if format != "" {
		return format, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	case ".lua":
		return FormatLua, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// Load reads the items of a JSON or TOML file.
func Load(path, format string) ([]interface{}, error) {
	format, err := FormatOf(path, format)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []interface{}
	switch format {
	case FormatJSON:
		items, err = DecodeJSON(bytes.NewReader(data))
	case FormatTOML:
		items, err = DecodeTOML(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%w: %s holds %s", ErrUnknownFormat, path, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return items, nil
}

// DecodeJSON reads a JSON array of objects, or an object whose "items"
// member is such an array.
func DecodeJSON(r io.Reader) ([]interface{}, error) {
	var doc interface{}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	var raw []interface{}
	switch d := doc.(type) {
	case []interface{}:
		raw = d
	case map[string]interface{}:
		list, ok := d["items"].([]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: no items array", ErrNotItem)
		}
		raw = list
	default:
		return nil, fmt.Errorf("%w: top level is %T", ErrNotItem, doc)
	}

	items := make([]interface{}, len(raw))
	for i, elem := range raw {
		obj, ok := elem.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: item %d is %T", ErrNotItem, i, elem)
		}
		for k, v := range obj {
			if s, ok := v.(string); ok {
				if t, err := time.Parse(time.RFC3339, s); err == nil {
					obj[k] = t
				}
			}
		}
		items[i] = obj
	}
	return items, nil
}

// tomlDoc is the layout of a TOML item file.
type tomlDoc struct {
	Items []map[string]interface{} `toml:"items"`
}

// DecodeTOML reads the [[items]] tables of a TOML document.
func DecodeTOML(r io.Reader) ([]interface{}, error) {
	var doc tomlDoc
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	items := make([]interface{}, len(doc.Items))
	for i, m := range doc.Items {
		items[i] = m
	}
	return items, nil
}
