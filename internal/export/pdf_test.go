package export

import (
	"bytes"
	"testing"
	"time"

	"fairpos/internal/core"
)

func TestSnapshotPDFFilename(t *testing.T) {
	cases := []struct {
		evt  core.Event
		want string
	}{
		{core.Event{Name: "Fall Craft Fair", Date: "2024-10-05", Location: "Portland Expo"}, "Fall_Craft_Fair_2024-10-05_Portland_Expo_snapshot.pdf"},
		{core.Event{Name: "Fair"}, "Fair_snapshot.pdf"},
		{core.Event{}, "Event_snapshot.pdf"},
	}
	for _, tc := range cases {
		if got := SnapshotPDFFilename(tc.evt); got != tc.want {
			t.Fatalf("%+v: expected %q, got %q", tc.evt, tc.want, got)
		}
	}
}

func TestWritePDFProducesDocument(t *testing.T) {
	snap := core.Snapshot{
		ID:        "snap_evt-1_1",
		CreatedAt: time.Date(2024, 10, 5, 17, 0, 0, 0, time.UTC),
		Event:     core.Event{ID: "evt-1", Name: "Fall Craft Fair", Date: "2024-10-05"},
		Lines: []core.SnapshotLine{
			{Name: "Keychain", UnitPrice: core.Money{Cents: 800}, Qty: 3, Revenue: core.Money{Cents: 2400}},
		},
		Totals: core.SnapshotTotals{Gross: core.Money{Cents: 2400}},
	}

	var buf bytes.Buffer
	if err := WritePDF(&buf, snap, nil); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatalf("output is not a PDF: %q", buf.Bytes()[:8])
	}
}

func TestWritePDFEmptySnapshot(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePDF(&buf, core.Snapshot{Event: core.Event{Name: "Fair"}}, nil); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatalf("empty output")
	}
}
