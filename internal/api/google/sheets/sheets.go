// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package sheets wraps the parts of Google Sheets and Drive APIs needed to
// use a single worksheet as an append-only table.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// ErrNotFound is returned by [Client.Open] when no spreadsheet has the
// requested name.
var ErrNotFound = errors.New("sheets: spreadsheet not found")

// Client talks to Sheets and Drive APIs.
type Client struct {
	sheets *sheets.Service
	drive  *drive.Service
}

// New returns a new Client. Pass [option.WithTokenSource] for
// authentication or [option.WithHTTPClient] in tests.
func New(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	ss, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	ds, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}
	return &Client{sheets: ss, drive: ds}, nil
}

// Open finds the spreadsheet by name and returns a handle to one of its
// worksheets.
func (c *Client) Open(ctx context.Context, spreadsheet, worksheet string) (*Worksheet, error) {
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escapeQuery(spreadsheet), spreadsheetMimeType)
	list, err := c.drive.Files.List().Q(q).Fields("files(id, name)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("looking up spreadsheet %q: %w", spreadsheet, err)
	}
	if len(list.Files) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, spreadsheet)
	}
	return &Worksheet{
		ID:    list.Files[0].Id,
		Sheet: worksheet,
		c:     c,
	}, nil
}

func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

// Worksheet is one sheet of a spreadsheet.
type Worksheet struct {
	ID    string // spreadsheet ID
	Sheet string // worksheet title

	c *Client
}

// Values returns all non-empty rows of the worksheet as strings, header
// included. Rows are returned as the API returns them, so trailing empty
// cells are omitted.
func (w *Worksheet) Values(ctx context.Context) ([][]string, error) {
	vr, err := w.c.sheets.Spreadsheets.Values.Get(w.ID, w.Sheet).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", w.Sheet, err)
	}
	rows := make([][]string, 0, len(vr.Values))
	for _, r := range vr.Values {
		row := make([]string, len(r))
		for i, v := range r {
			row[i] = fmt.Sprint(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Append adds rows after the last row of the worksheet. Values are stored
// as is, without parsing.
func (w *Worksheet) Append(ctx context.Context, rows ...[]string) error {
	vr := &sheets.ValueRange{Values: make([][]any, 0, len(rows))}
	for _, r := range rows {
		row := make([]any, len(r))
		for i, v := range r {
			row[i] = v
		}
		vr.Values = append(vr.Values, row)
	}
	_, err := w.c.sheets.Spreadsheets.Values.Append(w.ID, w.Sheet, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("appending to %s: %w", w.Sheet, err)
	}
	return nil
}
