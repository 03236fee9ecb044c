// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package history

import (
	"cmp"
	"context"
	"fmt"
	"net/http"

	"go.astrophena.name/kazuto/internal/api/google/serviceaccount"
	"go.astrophena.name/kazuto/internal/api/google/sheets"

	"google.golang.org/api/option"
)

// Defaults for [SheetsConfig].
const (
	DefaultSpreadsheet = "YokoiKazuto_ChatHistory"
	DefaultWorksheet   = "Sheet1"
)

// SheetsConfig configures the Google Sheets backend.
type SheetsConfig struct {
	// ServiceAccountKey is a base64-encoded JSON service account key.
	ServiceAccountKey string
	// Spreadsheet is the name of the spreadsheet, looked up in Drive.
	Spreadsheet string
	// Worksheet is the title of the sheet inside the spreadsheet.
	Worksheet string
	// HTTPClient is used for token exchange and API calls. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client
	// ClientOptions replace authentication entirely when set. Used in tests.
	ClientOptions []option.ClientOption
}

// SheetsStore keeps history in a Google Sheets worksheet.
type SheetsStore struct {
	ws *sheets.Worksheet
}

// OpenSheets authenticates, locates the spreadsheet and makes sure the
// worksheet starts with a header row.
func OpenSheets(ctx context.Context, c SheetsConfig) (*SheetsStore, error) {
	opts := c.ClientOptions
	if len(opts) == 0 {
		if c.ServiceAccountKey == "" {
			return nil, fmt.Errorf("%w: service account key is empty", ErrNoCredentials)
		}
		key, err := serviceaccount.LoadBase64Key(c.ServiceAccountKey)
		if err != nil {
			return nil, err
		}
		// The token source outlives the operation that opened the store.
		ts := key.TokenSource(context.WithoutCancel(ctx), c.HTTPClient, serviceaccount.ScopeSpreadsheets, serviceaccount.ScopeDriveReadonly)
		opts = []option.ClientOption{option.WithTokenSource(ts)}
	}

	client, err := sheets.New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	ws, err := client.Open(ctx, cmp.Or(c.Spreadsheet, DefaultSpreadsheet), cmp.Or(c.Worksheet, DefaultWorksheet))
	if err != nil {
		return nil, err
	}

	values, err := ws.Values(ctx)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		if err := ws.Append(ctx, Columns); err != nil {
			return nil, fmt.Errorf("writing header: %w", err)
		}
	}

	return &SheetsStore{ws: ws}, nil
}

// Append appends the record as a new row.
func (s *SheetsStore) Append(ctx context.Context, r Record) error {
	return s.ws.Append(ctx, r.row())
}

// Rows reads the worksheet and maps every row after the header to column
// names taken from the header. Short rows are padded with empty strings.
func (s *SheetsStore) Rows(ctx context.Context) ([]Row, error) {
	values, err := s.ws.Values(ctx)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}
	header := values[0]
	rows := make([]Row, 0, len(values)-1)
	for _, v := range values[1:] {
		row := make(Row, len(header))
		for i, col := range header {
			if col == "" {
				continue
			}
			if i < len(v) {
				row[col] = v[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
