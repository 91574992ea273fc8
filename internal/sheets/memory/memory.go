// Package memory is an in-process RowAppender for tests and for
// running without any spreadsheet backend configured.
package memory

import (
	"context"
	"sync"

	"fairpos/internal/export"
	ports "fairpos/internal/sheets"
)

type Client struct {
	mu   sync.Mutex
	rows []export.Row

	// Err, when set, is returned by every AppendRows call.
	Err error
}

var _ ports.RowAppender = (*Client)(nil)

func New() *Client {
	return &Client{}
}

func (c *Client) AppendRows(ctx context.Context, rows []export.Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.rows = append(c.rows, rows...)
	return nil
}

// Rows returns a copy of everything appended so far.
func (c *Client) Rows() []export.Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]export.Row, len(c.rows))
	copy(out, c.rows)
	return out
}
