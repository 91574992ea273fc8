package core

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidPrice     = errors.New("invalid price")
	ErrInvalidQty       = errors.New("invalid quantity")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrNotFound         = errors.New("not found")
	ErrEventActive      = errors.New("an event is already active")
	ErrNoActiveEvent    = errors.New("no active event")
	ErrEmptyCart        = errors.New("cart is empty")
)

type (
	// ProductType is a sellable product kind in the catalog.
	ProductType struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		DefaultPrice Money  `json:"defaultPrice"`
		UnitLabel    string `json:"unitLabel"`
		PackSize     int    `json:"packSize"`
		IsActive     bool   `json:"isActive"`
	}

	// Series groups fabrics. Deleting a series does not delete its
	// fabrics; they become unsorted (nil SeriesID).
	Series struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		IsActive bool   `json:"isActive"`
	}

	Fabric struct {
		ID       string  `json:"id"`
		Name     string  `json:"name"`
		SeriesID *string `json:"seriesId"`
		IsActive bool    `json:"isActive"`
	}

	// CartLine is one pending line item. Name and UnitPrice are
	// snapshots taken at add time; later catalog edits do not reach
	// back into carts or recorded sales.
	CartLine struct {
		ID            string  `json:"id"`
		ProductTypeID string  `json:"productTypeId"`
		Name          string  `json:"name"`
		UnitPrice     Money   `json:"unitPrice"`
		Qty           int     `json:"qty"`
		FabricID      *string `json:"fabricId"`
	}

	// Sale is a finalized order. Immutable once created except for
	// deletion.
	Sale struct {
		ID        string     `json:"id"`
		CreatedAt time.Time  `json:"createdAt"`
		Customer  string     `json:"customer"`
		Items     []CartLine `json:"items"`
		Subtotal  Money      `json:"subtotal"`
		Total     Money      `json:"total"`
		Note      string     `json:"note"`
	}

	// Event is a named, time-boxed sales period. A nil EndedAt means
	// the event is still running.
	Event struct {
		ID        string     `json:"id"`
		Name      string     `json:"name"`
		Date      string     `json:"date"`
		Location  string     `json:"location"`
		StartedAt time.Time  `json:"startedAt"`
		EndedAt   *time.Time `json:"endedAt"`
	}

	// SnapshotLine is one aggregated rollup row: all order lines that
	// share a product name, fabric and unit price.
	SnapshotLine struct {
		Name      string  `json:"name"`
		FabricID  *string `json:"fabricId"`
		UnitPrice Money   `json:"unitPrice"`
		Qty       int     `json:"qty"`
		Revenue   Money   `json:"revenue"`
	}

	SnapshotTotals struct {
		Gross Money `json:"gross"`
	}

	// Snapshot is a point-in-time rollup of the sales that fall inside
	// an event's window.
	Snapshot struct {
		ID        string         `json:"id"`
		CreatedAt time.Time      `json:"createdAt"`
		Event     Event          `json:"event"`
		Lines     []SnapshotLine `json:"lines"`
		Totals    SnapshotTotals `json:"totals"`
	}
)

// Active reports whether the event has not ended yet.
func (e Event) Active() bool {
	return e.EndedAt == nil
}

// LineTotal is the extended price of the line in cents.
func (l CartLine) LineTotal() Money {
	return l.UnitPrice.Mul(int64(l.Qty))
}

func (p ProductType) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if p.DefaultPrice.Cents < 0 {
		return ErrInvalidPrice
	}
	if p.PackSize < 1 {
		return ErrInvalidQty
	}
	return nil
}

func (l CartLine) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return ErrEmptyName
	}
	if l.UnitPrice.Cents < 0 {
		return ErrInvalidPrice
	}
	if l.Qty < 1 {
		return ErrInvalidQty
	}
	return nil
}

func (s Sale) Validate() error {
	if s.CreatedAt.IsZero() {
		return ErrInvalidTimestamp
	}
	for _, l := range s.Items {
		if err := l.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of the sale. Checkout and snapshot export
// both rely on this so that later mutation of the source cannot leak
// into recorded data.
func (s Sale) Clone() Sale {
	out := s
	out.Items = CloneLines(s.Items)
	return out
}

// CloneLines deep-copies cart lines, including the nullable fabric
// reference.
func CloneLines(lines []CartLine) []CartLine {
	if lines == nil {
		return nil
	}
	out := make([]CartLine, len(lines))
	for i, l := range lines {
		out[i] = l
		if l.FabricID != nil {
			id := *l.FabricID
			out[i].FabricID = &id
		}
	}
	return out
}

// Clone returns a deep copy of the snapshot.
func (sn Snapshot) Clone() Snapshot {
	out := sn
	if sn.Event.EndedAt != nil {
		t := *sn.Event.EndedAt
		out.Event.EndedAt = &t
	}
	out.Lines = make([]SnapshotLine, len(sn.Lines))
	for i, l := range sn.Lines {
		out.Lines[i] = l
		if l.FabricID != nil {
			id := *l.FabricID
			out.Lines[i].FabricID = &id
		}
	}
	return out
}
