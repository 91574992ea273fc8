package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"fairpos/internal/core"
)

func testEvent() core.Event {
	return core.Event{
		ID:        "evt-1",
		Name:      "Fall Craft Fair",
		Date:      "2024-10-05",
		StartedAt: time.Date(2024, 10, 5, 9, 0, 0, 0, time.UTC),
	}
}

func TestBuildRows(t *testing.T) {
	fab := "fab-1"
	sales := []core.Sale{{
		ID:        "SO-1",
		CreatedAt: time.Date(2024, 10, 5, 14, 5, 0, 0, time.UTC),
		Items: []core.CartLine{
			{Name: "Keychain", UnitPrice: core.Money{Cents: 800}, Qty: 2, FabricID: &fab},
			{Name: "Sticker", UnitPrice: core.Money{Cents: 300}, Qty: 1},
		},
		Total: core.Money{Cents: 1900},
		Note:  "repeat customer",
	}}

	rows, err := BuildRows(testEvent(), sales, func(id *string) string {
		if id != nil && *id == "fab-1" {
			return "Daisy Dot"
		}
		return ""
	})
	if err != nil {
		t.Fatalf("build rows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	r := rows[0]
	if r.EventName != "Fall Craft Fair" || r.EventID != "evt-1" {
		t.Fatalf("event fields wrong: %+v", r)
	}
	if r.Date != "2024-10-05" || r.Time != "14:05" {
		t.Fatalf("date/time wrong: %q %q", r.Date, r.Time)
	}
	if r.SalesOrderNumber != "FallCraftFair-241005-1405" {
		t.Fatalf("order number wrong: %q", r.SalesOrderNumber)
	}
	if r.ItemsList != "2× Keychain — Daisy Dot • 1× Sticker" {
		t.Fatalf("items summary wrong: %q", r.ItemsList)
	}
	if !strings.Contains(r.ItemsJSON, `"Keychain"`) {
		t.Fatalf("items JSON missing data: %s", r.ItemsJSON)
	}
}

func TestWriteCSVQuotesSpecialCharacters(t *testing.T) {
	sales := []core.Sale{{
		ID:        "SO-1",
		CreatedAt: time.Date(2024, 10, 5, 14, 5, 0, 0, time.UTC),
		Items: []core.CartLine{
			{Name: `Mug, "handmade"`, UnitPrice: core.Money{Cents: 1500}, Qty: 1},
		},
		Total: core.Money{Cents: 1500},
	}}
	rows, err := BuildRows(testEvent(), sales, nil)
	if err != nil {
		t.Fatalf("build rows: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	out := buf.String()

	// The comma-bearing summary must be quoted with doubled quotes.
	if !strings.Contains(out, `"1× Mug, ""handmade"""`) {
		t.Fatalf("items field not RFC4180 quoted:\n%s", out)
	}

	// And the output must parse back to the same fields.
	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("re-parse csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header + 1 record, got %d", len(records))
	}
	if records[0][0] != "eventName" || len(records[0]) != 10 {
		t.Fatalf("header wrong: %v", records[0])
	}
	rec := records[1]
	if rec[7] != `1× Mug, "handmade"` {
		t.Fatalf("items field corrupted: %q", rec[7])
	}
	if rec[6] != "15.00" {
		t.Fatalf("total wrong: %q", rec[6])
	}
}

func TestWriteCSVEmptyLedger(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if strings.TrimSpace(buf.String()) != strings.Join(csvHeader, ",") {
		t.Fatalf("expected header only, got %q", buf.String())
	}
}
