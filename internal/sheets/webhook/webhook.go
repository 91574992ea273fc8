// Package webhook posts export rows to a caller-configured
// spreadsheet endpoint (typically a deployed Apps Script web app).
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"fairpos/internal/export"
)

type Config struct {
	EndpointURL string
	SheetID     string // optional spreadsheet override
	SheetName   string // defaults to "Sales"
	AuthToken   string // optional bearer token checked by the endpoint
}

type Client struct {
	cfg Config
	hc  *http.Client
}

func New(cfg Config) (*Client, error) {
	if cfg.EndpointURL == "" {
		return nil, errors.New("missing endpoint URL for spreadsheet export")
	}
	if cfg.SheetName == "" {
		cfg.SheetName = "Sales"
	}
	return &Client{
		cfg: cfg,
		hc:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type payload struct {
	Rows      []export.Row `json:"rows"`
	SheetID   string       `json:"sheetId,omitempty"`
	SheetName string       `json:"sheetName"`
}

// AppendRows ships all rows in a single request. A non-2xx response
// is an error carrying the status and the response body, which is
// where Apps Script puts its failure reason.
func (c *Client) AppendRows(ctx context.Context, rows []export.Row) error {
	body, err := json.Marshal(payload{
		Rows:      rows,
		SheetID:   c.cfg.SheetID,
		SheetName: c.cfg.SheetName,
	})
	if err != nil {
		return fmt.Errorf("encode export payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.EndpointURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build export request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.AuthToken)
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("post export rows: %w", err)
	}
	defer res.Body.Close()

	text, _ := io.ReadAll(io.LimitReader(res.Body, 16<<10))
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("sheets export failed: %d %s: %s", res.StatusCode, http.StatusText(res.StatusCode), text)
	}
	return nil
}
