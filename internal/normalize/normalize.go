// Package normalize turns raw scraped payloads into canonical records.
// Everything here is pure: no I/O, no errors. Malformed input degrades the
// affected field to nil/empty instead of failing the record.
package normalize

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"upjobs-engine/internal/domain"
)

var htmlTagRe = regexp.MustCompile(`<.*?>`)

// Flatten maps one raw job payload (a decoded JSON object) onto a canonical
// Job. The result always comes back; a record whose identity could not be
// recovered has JobID == "" and must be filtered by the caller.
func Flatten(raw map[string]any) *domain.Job {
	j := &domain.Job{Skills: []string{}}

	// Identity: uid > jobId > id.
	j.JobID = firstNonEmpty(
		stringify(raw["uid"]),
		stringify(raw["jobId"]),
		stringify(raw["id"]),
	)

	// URL: ciphertext fragment wins, then the raw url fields.
	if ct := stringify(raw["ciphertext"]); ct != "" {
		j.URL = strPtr("https://www.upwork.com/jobs/" + ct)
	} else if u := firstNonEmpty(stringify(raw["url"]), stringify(raw["jobLink"])); u != "" {
		j.URL = strPtr(u)
	}

	j.Title = stripHTMLPtr(raw["title"])
	j.Description = stripHTMLPtr(raw["description"])
	j.Skills = extractSkills(raw)
	j.CreatedOn = strFieldPtr(raw["createdOn"])
	j.PublishedOn = strFieldPtr(raw["publishedOn"])
	j.RenewedOn = strFieldPtr(raw["renewedOn"])
	j.DurationLabel = strFieldPtr(raw["durationLabel"])
	j.ConnectPrice = toFloatPtr(raw["connectPrice"])
	j.JobType = jobTypeLabel(raw["type"])

	engagement := stringify(raw["engagement"])
	if engagement == "" {
		if posting, ok := raw["posting"].(map[string]any); ok {
			engagement = stringify(posting["engagement"])
		}
	}
	if engagement != "" {
		j.Engagement = strPtr(afterLastDot(engagement))
	}
	if pt := stringify(raw["proposalsTier"]); pt != "" {
		j.ProposalsTier = strPtr(afterLastDot(pt))
	}
	if tt := stringify(raw["tierText"]); tt != "" {
		j.TierText = strPtr(betweenUnderscores(tt))
	}

	// Budgets.
	amount, _ := raw["amount"].(map[string]any)
	hourly, _ := raw["hourlyBudget"].(map[string]any)
	j.FixedBudget = toFloatPtr(amount["amount"])
	if weekly, ok := raw["weeklyBudget"].(map[string]any); ok {
		j.WeeklyBudget = toFloatPtr(weekly["amount"])
	}
	j.HourlyBudgetMin = toFloatPtr(hourly["min"])
	j.HourlyBudgetMax = toFloatPtr(hourly["max"])

	// Currency: amount block, then hourly block, then USD.
	j.Currency = firstNonEmpty(
		stringify(amount["currencyCode"]),
		stringify(hourly["currencyCode"]),
		"USD",
	)

	flattenClient(raw, j)

	sts := raw["isSTSVectorSearchResult"]
	if sts == nil {
		sts = raw["isStsVectorSearchResult"]
	}
	if b, ok := sts.(bool); ok {
		j.IsSTSVectorSearchResult = &b
	}

	// relevanceEncoded may arrive as a JSON-encoded string; keep the raw
	// string when it doesn't parse.
	if rel := raw["relevanceEncoded"]; rel != nil {
		if s, ok := rel.(string); ok {
			var decoded any
			if err := json.Unmarshal([]byte(s), &decoded); err == nil {
				j.RelevanceEncoded = decoded
			} else {
				j.RelevanceEncoded = s
			}
		} else {
			j.RelevanceEncoded = rel
		}
	}

	j.IsApplied = truthy(raw["isApplied"])
	return j
}

func flattenClient(raw map[string]any, j *domain.Job) {
	client, ok := raw["client"].(map[string]any)
	if !ok {
		return
	}
	if loc, ok := client["location"].(map[string]any); ok {
		j.ClientCountry = strFieldPtr(loc["country"])
	} else {
		j.ClientCountry = strFieldPtr(client["country"])
	}
	j.ClientTotalSpent = toFloatPtr(client["totalSpent"])

	if b, ok := client["isPaymentVerified"].(bool); ok {
		j.ClientPaymentVerified = &b
	} else if status, present := client["paymentVerificationStatus"]; present {
		verified := status == "VERIFIED" || status == true
		j.ClientPaymentVerified = &verified
	}

	j.ClientTotalReviews = toFloatPtr(client["totalReviews"])
	if fb := toFloatPtr(client["totalFeedback"]); fb != nil && *fb != 0 {
		j.ClientAvgFeedback = fb
	} else {
		j.ClientAvgFeedback = toFloatPtr(client["rating"])
	}
}

// extractSkills prefers attrs[].prettyName, falling back to the alternate
// skills[] shape where either prettyName or name may carry the label.
func extractSkills(raw map[string]any) []string {
	out := []string{}
	if attrs, ok := raw["attrs"].([]any); ok {
		for _, a := range attrs {
			m, ok := a.(map[string]any)
			if !ok {
				continue
			}
			if name := stringify(m["prettyName"]); name != "" {
				out = append(out, name)
			}
		}
	}
	if len(out) > 0 {
		return out
	}
	if skills, ok := raw["skills"].([]any); ok {
		for _, s := range skills {
			m, ok := s.(map[string]any)
			if !ok {
				continue
			}
			name := firstNonEmpty(stringify(m["prettyName"]), stringify(m["name"]))
			if name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

// jobTypeLabel maps the upstream small-integer job type onto its label.
// Unknown codes yield nil, not an error.
func jobTypeLabel(v any) *string {
	f, ok := toFloat(v)
	if !ok {
		return nil
	}
	switch f {
	case 1:
		return strPtr("fixed")
	case 2:
		return strPtr("hourly")
	}
	return nil
}

// afterLastDot strips upstream enum namespacing: keep only the substring
// after the final '.'. Strings without a dot pass through unchanged.
func afterLastDot(s string) string {
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// betweenUnderscores keeps only the second underscore-delimited segment when
// there are more than two; anything shorter passes through unchanged. This
// reproduces an upstream vocabulary quirk exactly.
func betweenUnderscores(s string) string {
	parts := strings.Split(s, "_")
	if len(parts) > 2 {
		return parts[1]
	}
	return s
}

// stripHTML removes anything matching <...> (non-greedy). No entity
// decoding is performed.
func stripHTML(s string) string {
	return htmlTagRe.ReplaceAllString(s, "")
}

// DeriveCreateDate fills CreateDate (YYYY-MM-DD) from CreatedOn when unset.
// Unparseable timestamps leave it unset.
func DeriveCreateDate(j *domain.Job) {
	if j.CreateDate != nil || j.CreatedOn == nil {
		return
	}
	iso := strings.Replace(*j.CreatedOn, "Z", "+00:00", 1)
	for _, layout := range []string{
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02T15:04:05-07:00",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, iso); err == nil {
			d := t.Format("2006-01-02")
			j.CreateDate = &d
			return
		}
	}
}

// ---- small value helpers ----

func strPtr(s string) *string { return &s }

func stripHTMLPtr(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	out := stripHTML(s)
	return &out
}

func strFieldPtr(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

// stringify renders scalar identity-ish values as strings. Numbers use the
// shortest round-trip form, so a JSON 123 becomes "123".
func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case json.Number:
		return x.String()
	}
	return ""
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

func toFloatPtr(v any) *float64 {
	if f, ok := toFloat(v); ok {
		return &f
	}
	return nil
}

// truthy mirrors the upstream existence checks: false/0/""/nil and empty
// collections are absent, everything else counts.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	case int:
		return x != 0
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	}
	return true
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
