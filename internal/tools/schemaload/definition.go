package schemaload

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Definition is one schema file as read from the catalog.
type Definition struct {
	File    string
	Name    string
	Version int
	// Raw is the file content exactly as read; it is sent as the schema spec.
	Raw []byte
	// Problem is set when the definition cannot be registered.
	Problem string
}

// Malformed reports whether the definition lacks a usable name or version.
func (d Definition) Malformed() bool {
	return d.Problem != ""
}

// WireVersion is the version string the registry expects, "v{version}.0".
func (d Definition) WireVersion() string {
	return fmt.Sprintf("v%d.0", d.Version)
}

// ParseDefinition extracts name and version from raw without altering it.
func ParseDefinition(file string, raw []byte) Definition {
	def := Definition{File: file, Raw: raw}
	if !gjson.ValidBytes(raw) {
		def.Problem = "not valid JSON"
		return def
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		def.Problem = "not a JSON object"
		return def
	}

	name := doc.Get("name")
	version := doc.Get("version")
	if name.Type != gjson.String || strings.TrimSpace(name.String()) == "" || !version.Exists() {
		def.Problem = "missing name or version"
		return def
	}
	def.Name = name.String()

	n, err := parseVersion(version)
	if err != nil {
		def.Problem = err.Error()
		return def
	}
	def.Version = n
	return def
}

func parseVersion(v gjson.Result) (int, error) {
	switch v.Type {
	case gjson.Number:
		f := v.Float()
		if f != math.Trunc(f) || f < 1 || f > math.MaxInt32 {
			return 0, fmt.Errorf("version %s is not a positive integer", v.Raw)
		}
		return int(f), nil
	case gjson.String:
		n, err := strconv.Atoi(strings.TrimSpace(v.String()))
		if err != nil || n < 1 {
			return 0, fmt.Errorf("version %q is not a positive integer", v.String())
		}
		return n, nil
	default:
		return 0, fmt.Errorf("version %s is not a positive integer", v.Raw)
	}
}

// ActiveSet maps schema name to its active version ("" when unknown).
type ActiveSet map[string]string

// Has reports whether name is active.
func (a ActiveSet) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// Major returns the major component of the active version of name, parsing
// forms like "v2.0", "v2.1.3" and "2".
func (a ActiveSet) Major(name string) (int, bool) {
	version, ok := a[name]
	if !ok {
		return 0, false
	}
	version = strings.TrimPrefix(strings.TrimSpace(version), "v")
	major, _, _ := strings.Cut(version, ".")
	n, err := strconv.Atoi(major)
	if err != nil {
		return 0, false
	}
	return n, true
}
