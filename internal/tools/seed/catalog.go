package seed

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/jsonc"
	"golang.org/x/text/language"
)

//go:embed catalogs/sections.jsonc
var builtinCatalogs embed.FS

const (
	defaultCatalogFile = "catalogs/sections.jsonc"
	defaultType        = "core/section"
	defaultLanguage    = "sv-se"
)

// Catalog is an ordered list of seed documents. Entries may reference
// earlier entries as their parent.
type Catalog struct {
	Name     string        `json:"name"`
	Defaults EntryDefaults `json:"defaults"`
	Entries  []Entry       `json:"entries"`
}

// EntryDefaults fill fields entries leave empty.
type EntryDefaults struct {
	Type     string `json:"type,omitempty"`
	Language string `json:"language,omitempty"`
}

// Entry declares one seed document. Key identifies the entry within the
// catalog and defaults to Code.
type Entry struct {
	Key      string `json:"key,omitempty"`
	Type     string `json:"type,omitempty"`
	Title    string `json:"title"`
	Code     string `json:"code"`
	Language string `json:"language,omitempty"`
	Parent   string `json:"parent,omitempty"`
}

// NaturalKey identifies the entry across runs.
func (e Entry) NaturalKey() string {
	return e.Type + ":" + e.Key
}

// DefaultCatalog returns the built-in sections catalog.
func DefaultCatalog() (Catalog, error) {
	raw, err := builtinCatalogs.ReadFile(defaultCatalogFile)
	if err != nil {
		return Catalog{}, fmt.Errorf("read built-in catalog: %w", err)
	}
	return ParseCatalog(raw)
}

// LoadCatalog reads a catalog file, or the built-in catalog when path is
// empty.
func LoadCatalog(path string) (Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultCatalog()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	catalog, err := ParseCatalog(raw)
	if err != nil {
		return Catalog{}, fmt.Errorf("%s: %w", path, err)
	}
	return catalog, nil
}

// ParseCatalog decodes JSON with comments and trailing commas, applies
// defaults, and validates the entries.
func ParseCatalog(raw []byte) (Catalog, error) {
	var catalog Catalog
	if err := json.Unmarshal(jsonc.ToJSON(raw), &catalog); err != nil {
		return Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	if err := catalog.normalize(); err != nil {
		return Catalog{}, err
	}
	return catalog, nil
}

func (c *Catalog) normalize() error {
	if len(c.Entries) == 0 {
		return fmt.Errorf("catalog has no entries")
	}
	typ := strings.TrimSpace(c.Defaults.Type)
	if typ == "" {
		typ = defaultType
	}
	lang := strings.TrimSpace(c.Defaults.Language)
	if lang == "" {
		lang = defaultLanguage
	}

	seen := make(map[string]bool, len(c.Entries))
	for i := range c.Entries {
		e := &c.Entries[i]
		e.Title = strings.TrimSpace(e.Title)
		e.Code = strings.TrimSpace(e.Code)
		e.Key = strings.TrimSpace(e.Key)
		e.Parent = strings.TrimSpace(e.Parent)
		if e.Key == "" {
			e.Key = e.Code
		}
		if e.Type = strings.TrimSpace(e.Type); e.Type == "" {
			e.Type = typ
		}
		if e.Language = strings.TrimSpace(e.Language); e.Language == "" {
			e.Language = lang
		}

		if e.Title == "" {
			return fmt.Errorf("entry %d: title is required", i)
		}
		if e.Key == "" {
			return fmt.Errorf("entry %q: key or code is required", e.Title)
		}
		if seen[e.Key] {
			return fmt.Errorf("entry %q: duplicate key", e.Key)
		}
		if _, _, err := SplitType(e.Type); err != nil {
			return fmt.Errorf("entry %q: %w", e.Key, err)
		}
		normalized, err := NormalizeLanguage(e.Language)
		if err != nil {
			return fmt.Errorf("entry %q: %w", e.Key, err)
		}
		e.Language = normalized
		if e.Parent != "" && !seen[e.Parent] {
			return fmt.Errorf("entry %q: parent %q must be declared earlier", e.Key, e.Parent)
		}
		seen[e.Key] = true
	}
	return nil
}

// NormalizeLanguage validates a BCP 47 tag and returns it in the lowercase
// form the repository stores, e.g. "sv-se".
func NormalizeLanguage(raw string) (string, error) {
	tag, err := language.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid language %q: %w", raw, err)
	}
	return strings.ToLower(tag.String()), nil
}

// SplitType splits a document type like "core/section" into its scheme and
// kind.
func SplitType(typ string) (scheme, kind string, err error) {
	scheme, kind, ok := strings.Cut(typ, "/")
	if !ok || scheme == "" || kind == "" || strings.Contains(kind, "/") {
		return "", "", fmt.Errorf("invalid document type %q", typ)
	}
	return scheme, kind, nil
}
