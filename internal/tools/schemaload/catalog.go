package schemaload

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// catalogRoot is the root of the filesystem handed to NewCatalog; production
// code chroots an OS filesystem at the schema directory.
const catalogRoot = "/"

// Catalog enumerates schema definition files.
type Catalog struct {
	fs      billy.Filesystem
	include []string
	exclude []string
	// recursive is set when an include pattern can match a nested path.
	recursive bool
}

// NewCatalog returns a catalog over fsys. Patterns are doublestar globs
// matched against slash-separated paths relative to the root; a file is
// listed when it matches any include pattern and no exclude pattern.
// Subdirectories are only read when an include pattern contains "/" or "**".
func NewCatalog(fsys billy.Filesystem, include, exclude []string) (*Catalog, error) {
	if fsys == nil {
		return nil, fmt.Errorf("catalog filesystem is required")
	}
	if len(include) == 0 {
		return nil, fmt.Errorf("at least one include pattern is required")
	}
	for _, pattern := range append(append([]string(nil), include...), exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid pattern %q", pattern)
		}
	}
	c := &Catalog{fs: fsys, include: include, exclude: exclude}
	for _, pattern := range include {
		if strings.Contains(pattern, "/") || strings.Contains(pattern, "**") {
			c.recursive = true
		}
	}
	return c, nil
}

// Files returns the matching files sorted by path.
func (c *Catalog) Files() ([]string, error) {
	var files []string
	if err := c.walk("", &files); err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func (c *Catalog) walk(dir string, files *[]string) error {
	entries, err := c.fs.ReadDir(c.fs.Join(catalogRoot, dir))
	if err != nil {
		if dir == "" {
			return fmt.Errorf("read schema directory: %w", err)
		}
		return fmt.Errorf("read schema directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		rel := path.Join(dir, entry.Name())
		if c.excluded(rel) {
			continue
		}
		if entry.IsDir() {
			if !c.recursive {
				continue
			}
			if err := c.walk(rel, files); err != nil {
				return err
			}
			continue
		}
		if c.included(rel) {
			*files = append(*files, rel)
		}
	}
	return nil
}

// Read returns the raw content of file.
func (c *Catalog) Read(file string) ([]byte, error) {
	raw, err := util.ReadFile(c.fs, c.fs.Join(catalogRoot, file))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	return raw, nil
}

func (c *Catalog) included(rel string) bool {
	return matchAny(c.include, rel)
}

func (c *Catalog) excluded(rel string) bool {
	return matchAny(c.exclude, rel)
}

func matchAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
