package sheets

import (
	"context"

	"fairpos/internal/export"
)

// RowAppender is the outbound port for spreadsheet sync. Adapters:
// webhook (Apps Script endpoint), google (Sheets API), memory (tests).
type RowAppender interface {
	AppendRows(ctx context.Context, rows []export.Row) error
}
