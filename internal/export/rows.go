// Package export renders recorded sales and snapshots into the
// formats the vendor hands out: CSV, XLSX, PDF, and the row payloads
// the spreadsheet sync ships.
package export

import (
	"encoding/json"
	"fmt"
	"strings"

	"fairpos/internal/core"
)

// Row is one exported sale. Field names match the spreadsheet
// endpoint's expected payload.
type Row struct {
	EventName        string     `json:"eventName"`
	EventID          string     `json:"eventId"`
	Date             string     `json:"date"`
	Time             string     `json:"time"`
	TimestampISO     string     `json:"timestampISO"`
	SalesOrderNumber string     `json:"salesOrderNumber"`
	Total            core.Money `json:"total"`
	ItemsList        string     `json:"itemsList"`
	ItemsJSON        string     `json:"itemsJSON"`
	Notes            string     `json:"notes"`
}

// FabricNamer resolves a nullable fabric reference to a display name.
// An empty result omits the fabric from the items summary.
type FabricNamer func(id *string) string

// BuildRows flattens sales into export rows, one per sale.
func BuildRows(evt core.Event, sales []core.Sale, fabricName FabricNamer) ([]Row, error) {
	if fabricName == nil {
		fabricName = func(*string) string { return "" }
	}
	rows := make([]Row, 0, len(sales))
	for _, s := range sales {
		itemsJSON, err := json.Marshal(s.Items)
		if err != nil {
			return nil, fmt.Errorf("encode items for %s: %w", s.ID, err)
		}
		rows = append(rows, Row{
			EventName:        evt.Name,
			EventID:          evt.ID,
			Date:             s.CreatedAt.Format("2006-01-02"),
			Time:             s.CreatedAt.Format("15:04"),
			TimestampISO:     s.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
			SalesOrderNumber: core.BuildOrderNumber(evt.Name, s.CreatedAt),
			Total:            s.Total,
			ItemsList:        humanItems(s.Items, fabricName),
			ItemsJSON:        string(itemsJSON),
			Notes:            s.Note,
		})
	}
	return rows, nil
}

// humanItems renders "2× Keychain — Daisy Dot • 1× Sticker".
func humanItems(items []core.CartLine, fabricName FabricNamer) string {
	parts := make([]string, 0, len(items))
	for _, l := range items {
		name := l.Name
		if name == "" {
			name = "Item"
		}
		part := fmt.Sprintf("%d× %s", l.Qty, name)
		if l.FabricID != nil {
			if fab := fabricName(l.FabricID); fab != "" {
				part += " — " + fab
			}
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, " • ")
}
