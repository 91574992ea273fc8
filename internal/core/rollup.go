package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SalesInWindow returns the sales whose CreatedAt falls inside the
// event's half-open window [StartedAt, EndedAt). An event that has not
// ended has an unbounded upper edge. A sale stamped exactly at EndedAt
// belongs to the next event, not this one, which is what makes
// back-to-back events partition the ledger cleanly.
func SalesInWindow(evt Event, sales []Sale) []Sale {
	var out []Sale
	for _, s := range sales {
		if s.CreatedAt.Before(evt.StartedAt) {
			continue
		}
		if evt.EndedAt != nil && !s.CreatedAt.Before(*evt.EndedAt) {
			continue
		}
		out = append(out, s)
	}
	return out
}

type rollupKey struct {
	name     string
	fabricID string
	cents    int64
}

// ComputeRollup aggregates the sales inside the event's window into
// per-product totals and a grand total. Lines group on the triple
// (name, fabric, unit price): the same product sold at two prices
// stays on two rows so historical pricing survives catalog edits.
// Output order is first-seen, so repeated runs over the same ledger
// produce identical lines and totals. Each snapshot gets a fresh
// random id; two snapshots recorded in the same millisecond must not
// collide in storage.
func ComputeRollup(evt Event, sales []Sale, now time.Time) Snapshot {
	idx := make(map[rollupKey]int)
	var lines []SnapshotLine
	for _, order := range SalesInWindow(evt, sales) {
		for _, l := range order.Items {
			key := rollupKey{name: l.Name, cents: l.UnitPrice.Cents}
			if l.FabricID != nil {
				key.fabricID = *l.FabricID
			}
			i, ok := idx[key]
			if !ok {
				i = len(lines)
				idx[key] = i
				lines = append(lines, SnapshotLine{
					Name:      l.Name,
					FabricID:  l.FabricID,
					UnitPrice: l.UnitPrice,
				})
			}
			lines[i].Qty += l.Qty
		}
	}
	var gross Money
	for i := range lines {
		lines[i].Revenue = lines[i].UnitPrice.Mul(int64(lines[i].Qty))
		gross = gross.Add(lines[i].Revenue)
	}
	return Snapshot{
		ID:        fmt.Sprintf("snap_%s_%s", evt.ID, strings.ReplaceAll(uuid.NewString(), "-", "")[:8]),
		CreatedAt: now,
		Event:     evt,
		Lines:     lines,
		Totals:    SnapshotTotals{Gross: gross},
	}
}
