package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

var csvHeader = []string{
	"eventName",
	"eventId",
	"date",
	"time",
	"timestampISO",
	"salesOrderNumber",
	"total",
	"itemsList",
	"itemsJSON",
	"notes",
}

// WriteCSV emits one row per sale. encoding/csv handles the RFC 4180
// quoting of fields containing commas, quotes or newlines.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.EventName,
			r.EventID,
			r.Date,
			r.Time,
			r.TimestampISO,
			r.SalesOrderNumber,
			r.Total.String(),
			r.ItemsList,
			r.ItemsJSON,
			r.Notes,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
