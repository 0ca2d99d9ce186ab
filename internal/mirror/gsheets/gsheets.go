// Package gsheets backs the mirror interfaces with the Google Sheets v4 API.
// Auth is the installed-app OAuth flow: a credentials.json from the cloud
// console plus a previously granted token.json on disk.
package gsheets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"upjobs-engine/internal/mirror"
)

type Client struct {
	svc           *sheets.Service
	spreadsheetID string
	limiter       *rate.Limiter
	ctx           context.Context
}

func NewClient(ctx context.Context, credentialsFile, tokenFile, spreadsheetID string, reqPerSec float64) (*Client, error) {
	creds, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	conf, err := google.ConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	tb, err := os.ReadFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("read token (run the auth flow first): %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(tb, &tok); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx, &tok)))
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		limiter:       rate.NewLimiter(rate.Limit(reqPerSec), 1),
		ctx:           ctx,
	}, nil
}

// Worksheet returns the tab with the given title, creating it when missing.
func (c *Client) Worksheet(title string, cols int) (mirror.Worksheet, error) {
	if err := c.limiter.Wait(c.ctx); err != nil {
		return nil, err
	}
	meta, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(c.ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("spreadsheet %s: get: %w", c.spreadsheetID, err)
	}
	for _, sh := range meta.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return &worksheet{client: c, title: title}, nil
		}
	}

	if err := c.limiter.Wait(c.ctx); err != nil {
		return nil, err
	}
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{
					Title: title,
					GridProperties: &sheets.GridProperties{
						RowCount:    1000,
						ColumnCount: int64(cols),
					},
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(c.ctx).Do(); err != nil {
		return nil, fmt.Errorf("add sheet %q: %w", title, err)
	}
	return &worksheet{client: c, title: title}, nil
}

type worksheet struct {
	client *Client
	title  string
}

func (w *worksheet) Title() string { return w.title }

func (w *worksheet) Values() ([][]string, error) {
	c := w.client
	if err := c.limiter.Wait(c.ctx); err != nil {
		return nil, err
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, quote(w.title)).Context(c.ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheet %s: values: %w", w.title, err)
	}
	out := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprint(v)
		}
		out[i] = cells
	}
	return out, nil
}

func (w *worksheet) WriteHeader(headers []string) error {
	c := w.client
	if err := c.limiter.Wait(c.ctx); err != nil {
		return err
	}
	row := make([]any, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	vr := &sheets.ValueRange{Values: [][]any{row}}
	_, err := c.svc.Spreadsheets.Values.
		Update(c.spreadsheetID, fmt.Sprintf("%s!A1", quote(w.title)), vr).
		ValueInputOption("RAW").
		Context(c.ctx).Do()
	if err != nil {
		return fmt.Errorf("sheet %s: write header: %w", w.title, err)
	}
	return nil
}

func (w *worksheet) BatchUpdateRows(updates []mirror.RowUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	c := w.client
	if err := c.limiter.Wait(c.ctx); err != nil {
		return err
	}
	data := make([]*sheets.ValueRange, len(updates))
	for i, u := range updates {
		data[i] = &sheets.ValueRange{
			Range:  fmt.Sprintf("%s!A%d", quote(w.title), u.Row),
			Values: [][]any{sanitizeRow(u.Values)},
		}
	}
	req := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "USER_ENTERED",
		Data:             data,
	}
	if _, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, req).Context(c.ctx).Do(); err != nil {
		return fmt.Errorf("sheet %s: batch update: %w", w.title, err)
	}
	return nil
}

func (w *worksheet) AppendRows(rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	c := w.client
	if err := c.limiter.Wait(c.ctx); err != nil {
		return err
	}
	vals := make([][]any, len(rows))
	for i, r := range rows {
		vals[i] = sanitizeRow(r)
	}
	vr := &sheets.ValueRange{Values: vals}
	_, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, fmt.Sprintf("%s!A1", quote(w.title)), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(c.ctx).Do()
	if err != nil {
		return fmt.Errorf("sheet %s: append: %w", w.title, err)
	}
	return nil
}

// The API skips null cells in updates, which would leave stale content
// behind; blank them explicitly.
func sanitizeRow(vals []any) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		if v == nil {
			out[i] = ""
		} else {
			out[i] = v
		}
	}
	return out
}

func quote(title string) string {
	return "'" + title + "'"
}
