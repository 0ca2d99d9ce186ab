// Package airtable pushes job rows to an Airtable base with upsert-by-job_id
// semantics. The base needs a job_id field to serve as the external key.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"upjobs-engine/internal/domain"
	"upjobs-engine/internal/mirror"
)

const batchSize = 10

type Client struct {
	apiKey  string
	baseID  string
	table   string
	baseURL string
	hc      *http.Client
	limiter *rate.Limiter
}

func New(apiKey, baseID, table string, reqPerSec float64) (*Client, error) {
	if apiKey == "" || baseID == "" {
		return nil, fmt.Errorf("airtable not configured: set AIRTABLE_API_KEY and airtable.base_id")
	}
	return &Client{
		apiKey:  apiKey,
		baseID:  baseID,
		table:   table,
		baseURL: "https://api.airtable.com/v0",
		hc:      &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(reqPerSec), 1),
	}, nil
}

type record struct {
	Fields map[string]any `json:"fields"`
}

type upsertRequest struct {
	PerformUpsert struct {
		FieldsToMergeOn []string `json:"fieldsToMergeOn"`
	} `json:"performUpsert"`
	Records []record `json:"records"`
}

// UpsertJobs sends the jobs in chunks of 10 (the API's per-request limit),
// merging on job_id. Nil fields are dropped rather than sent as nulls.
func (c *Client) UpsertJobs(ctx context.Context, jobs []*domain.Job) error {
	var records []record
	for _, j := range jobs {
		if j.JobID == "" {
			continue
		}
		records = append(records, record{Fields: airtableFields(j)})
	}
	for start := 0; start < len(records); start += batchSize {
		end := min(start+batchSize, len(records))
		if err := c.upsertChunk(ctx, records[start:end]); err != nil {
			return fmt.Errorf("airtable upsert rows %d-%d: %w", start, end, err)
		}
	}
	return nil
}

func (c *Client) upsertChunk(ctx context.Context, records []record) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var body upsertRequest
	body.PerformUpsert.FieldsToMergeOn = []string{"job_id"}
	body.Records = records
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, c.baseID, url.PathEscape(c.table))
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
		return fmt.Errorf("status %d: %s", res.StatusCode, msg)
	}
	return nil
}

// airtableFields projects a job the same way the sheet does (lists joined,
// maps as JSON) and drops unset fields.
func airtableFields(j *domain.Job) map[string]any {
	fields := make(map[string]any)
	for k, v := range j.Row() {
		if v == nil {
			continue
		}
		fields[k] = mirror.CellValue(v)
	}
	return fields
}
