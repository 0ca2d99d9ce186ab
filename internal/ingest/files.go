package ingest

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LatestDatedDir returns the most recent YYYY-MM-DD subdirectory of base, or
// base itself when there is none. Missing base also returns base; the caller
// sees the error when it tries to read it.
func LatestDatedDir(base string) string {
	entries, err := os.ReadDir(base)
	if err != nil {
		return base
	}
	var dated []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() && len(name) >= 4 && allDigits(name[:4]) {
			dated = append(dated, name)
		}
	}
	if len(dated) == 0 {
		return base
	}
	sort.Strings(dated)
	return filepath.Join(base, dated[len(dated)-1])
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// CleanupJSON creates dir if needed and removes every *.json in it.
func CleanupJSON(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// LoadSearchURLs reads the urls list from a yaml file. A missing file or a
// file without a urls list yields nil.
func LoadSearchURLs(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var doc struct {
		URLs []string `yaml:"urls"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return doc.URLs, nil
}
