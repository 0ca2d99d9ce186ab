package normalize

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"upjobs-engine/internal/domain"
)

// Filenames look like <timestamp-digits>-<query>-page<digits>.json, with a
// relaxed variant whose page number is missing.
var (
	strictNameRe  = regexp.MustCompile(`^(\d{14,17})-(.*?)-page(\d+)\.json$`)
	relaxedNameRe = regexp.MustCompile(`^(\d{14,17})-(.*?)-page(?:\.json)?$`)
)

// ParseFilenameMeta derives the batch identity from a source filename.
// It never fails: unknown shapes fall back to the bare filename stem with
// query, page and timestamp all unset.
func ParseFilenameMeta(path string) domain.ScrapeRequest {
	name := filepath.Base(path)

	digits, query, pageStr := "", "", ""
	if m := strictNameRe.FindStringSubmatch(name); m != nil {
		digits, query, pageStr = m[1], m[2], m[3]
	} else if m := relaxedNameRe.FindStringSubmatch(name); m != nil {
		digits, query = m[1], m[2]
	} else {
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		return domain.ScrapeRequest{SearchID: stem, Filepath: path}
	}

	req := domain.ScrapeRequest{Filepath: path, Query: &query}

	// The composite is the real grouping key: files sharing the digit run but
	// differing in query or page are distinct batches.
	if pageStr != "" {
		page, _ := strconv.Atoi(pageStr)
		req.Page = &page
		req.SearchID = digits + "-" + query + "-page" + pageStr
	} else {
		req.SearchID = digits + "-" + query + "-page"
	}

	if ts, ok := parseBatchTimestamp(digits); ok {
		req.QueryTimestamp = &ts
	}
	return req
}

// parseBatchTimestamp reads YYYYMMDDHHMMSS plus 1-3 trailing digits of
// sub-second precision. A bare 14-digit run has no fractional part and is
// treated as unparseable, matching upstream behavior.
func parseBatchTimestamp(digits string) (time.Time, bool) {
	if len(digits) < 15 {
		return time.Time{}, false
	}
	base, err := time.Parse("20060102150405", digits[:14])
	if err != nil {
		return time.Time{}, false
	}
	frac := digits[14:]
	padded := frac + strings.Repeat("0", 6-len(frac))
	micros, err := strconv.Atoi(padded)
	if err != nil {
		return time.Time{}, false
	}
	return base.Add(time.Duration(micros) * time.Microsecond).UTC(), true
}
