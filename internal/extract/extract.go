// Package extract pulls job listings out of saved search-result pages. The
// pages embed their state as a window.__NUXT__ JSON object in a script tag;
// we parse that statically rather than executing the page.
package extract

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const nuxtMarker = "window.__NUXT__="

// JobsFromHTML parses one saved page and returns the raw job objects found
// in its embedded state. No state object or no jobs yields an empty slice.
func JobsFromHTML(r io.Reader) ([]map[string]any, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var nuxt map[string]any
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		idx := strings.Index(text, nuxtMarker)
		if idx < 0 {
			return true
		}
		raw, ok := jsonObjectAfter(text, idx+len(nuxtMarker))
		if !ok {
			return true
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(raw), &obj); err != nil {
			return true
		}
		nuxt = obj
		return false
	})
	if nuxt == nil {
		return []map[string]any{}, nil
	}
	return jobsFromState(nuxt), nil
}

// jobsFromState walks the known state shapes, then falls back to scanning
// for any top-level list whose first element looks like a job.
func jobsFromState(nuxt map[string]any) []map[string]any {
	var candidates []any

	if state, ok := nuxt["state"].(map[string]any); ok {
		if js, ok := state["jobsSearch"].(map[string]any); ok {
			candidates = append(candidates, js["jobs"])
		}
		if fbm, ok := state["feedBestMatch"].(map[string]any); ok {
			candidates = append(candidates, fbm["jobs"])
		}
	}
	for _, v := range nuxt {
		list, ok := v.([]any)
		if !ok || len(list) == 0 {
			continue
		}
		first, ok := list[0].(map[string]any)
		if !ok {
			continue
		}
		if _, has := first["jobId"]; has {
			candidates = append(candidates, v)
			continue
		}
		if _, has := first["uid"]; has {
			candidates = append(candidates, v)
			continue
		}
		if _, has := first["title"]; has {
			candidates = append(candidates, v)
		}
	}

	for _, cand := range candidates {
		list, ok := cand.([]any)
		if !ok {
			continue
		}
		out := make([]map[string]any, 0, len(list))
		for _, item := range list {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return []map[string]any{}
}

// jsonObjectAfter returns the balanced {...} starting at or after start,
// honoring string literals and escapes.
func jsonObjectAfter(s string, start int) (string, bool) {
	i := start
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n') {
		i++
	}
	if i >= len(s) || s[i] != '{' {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for j := i; j < len(s); j++ {
		c := s[j]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[i : j+1], true
			}
		}
	}
	return "", false
}

// Dir extracts every *.html in inputDir into a {"jobs": [...]} JSON file in
// outputDir, mirroring the input stem. One bad page logs and skips; only an
// unreadable directory fails the pass. Returns the number of pages written.
func Dir(inputDir, outputDir string) (int, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return 0, fmt.Errorf("read dir %s: %w", inputDir, err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return 0, err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".html") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	written := 0
	for _, name := range names {
		path := filepath.Join(inputDir, name)
		f, err := os.Open(path)
		if err != nil {
			log.Printf("[ingest] %s: open: %v", name, err)
			continue
		}
		jobs, err := JobsFromHTML(f)
		f.Close()
		if err != nil {
			log.Printf("[ingest] %s: %v", name, err)
			continue
		}

		stem := strings.TrimSuffix(name, ".html")
		out := filepath.Join(outputDir, stem+".json")
		b, err := json.Marshal(map[string]any{"jobs": jobs})
		if err != nil {
			log.Printf("[ingest] %s: encode: %v", name, err)
			continue
		}
		if err := os.WriteFile(out, b, 0o644); err != nil {
			log.Printf("[ingest] %s: write: %v", name, err)
			continue
		}
		written++
	}
	return written, nil
}
