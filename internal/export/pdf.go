package export

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/go-pdf/fpdf"

	"fairpos/internal/core"
)

var whitespaceRE = regexp.MustCompile(`\s+`)

// SnapshotPDFFilename builds the download name from the event's
// metadata, e.g. "Fall_Craft_Fair_2024-10-05_Portland_Expo_snapshot.pdf".
func SnapshotPDFFilename(evt core.Event) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{evt.Name, evt.Date, evt.Location} {
		if s := sanitizeFilePart(p); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "Event")
	}
	return strings.Join(parts, "_") + "_snapshot.pdf"
}

func sanitizeFilePart(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), "_")
}

// WritePDF renders the snapshot onto a single A4 page: event header,
// gross total, then one line per rollup row. Content is top-anchored
// and centered horizontally.
func WritePDF(w io.Writer, snap core.Snapshot, fabricName FabricNamer) error {
	if fabricName == nil {
		fabricName = func(*string) string { return "" }
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(48, 24, 48)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 96

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(contentW, 24, fmt.Sprintf("%s — Snapshot", fallback(snap.Event.Name, "Event")), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	meta := snap.Event.Date
	if snap.Event.Location != "" {
		meta = strings.TrimSpace(meta + " • " + snap.Event.Location)
	}
	if meta != "" {
		pdf.CellFormat(contentW, 14, meta, "", 1, "C", false, 0, "")
	}
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 18, "Gross Sales: $"+snap.Totals.Gross.String(), "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(contentW*0.6, 16, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(contentW*0.15, 16, "Qty", "B", 0, "R", false, 0, "")
	pdf.CellFormat(contentW*0.25, 16, "Revenue", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	for _, l := range snap.Lines {
		name := l.Name
		if l.FabricID != nil {
			if fab := fabricName(l.FabricID); fab != "" {
				name += " — " + fab
			}
		}
		pdf.CellFormat(contentW*0.6, 15, name, "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.15, 15, fmt.Sprintf("%d", l.Qty), "", 0, "R", false, 0, "")
		pdf.CellFormat(contentW*0.25, 15, "$"+l.Revenue.String(), "", 1, "R", false, 0, "")
	}
	if len(snap.Lines) == 0 {
		pdf.CellFormat(contentW, 15, "No items sold.", "", 1, "C", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render snapshot pdf: %w", err)
	}
	return nil
}

func fallback(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
