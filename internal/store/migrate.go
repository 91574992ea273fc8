package store

import (
	"encoding/json"
	"strings"
	"time"

	"fairpos/internal/core"
)

// Data is the single persisted blob backing the catalog, the cart and
// the sales ledger. Unknown top-level keys found in older blobs are
// carried through load/save untouched.
type Data struct {
	ProductTypes []core.ProductType
	Series       []core.Series
	Fabrics      []core.Fabric
	Cart         []core.CartLine
	Sales        []core.Sale

	extra map[string]json.RawMessage
}

func (d Data) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.extra)+5)
	for k, v := range d.extra {
		out[k] = v
	}
	out["productTypes"] = emptyIfNil(d.ProductTypes)
	out["series"] = emptyIfNil(d.Series)
	out["fabrics"] = emptyIfNil(d.Fabrics)
	out["cart"] = emptyIfNil(d.Cart)
	out["sales"] = emptyIfNil(d.Sales)
	return json.Marshal(out)
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Migrate upgrades a raw persisted blob to the current schema: missing
// arrays become empty, product types get unitLabel "each" and packSize
// 1 defaults, and loosely shaped legacy sale records are normalized
// into typed sales exactly once, here. Sales whose timestamp cannot be
// parsed are dropped; the count of dropped records is returned so the
// caller can log it. Only malformed JSON is an error.
func Migrate(raw []byte) (Data, int, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return Data{}, 0, err
	}

	var d Data
	d.ProductTypes = migrateProducts(top["productTypes"])
	d.Series = migrateSeries(top["series"])
	d.Fabrics = migrateFabrics(top["fabrics"])
	d.Cart = migrateCart(top["cart"])

	var dropped int
	d.Sales, dropped = migrateSales(top["sales"])

	for _, k := range []string{"productTypes", "series", "fabrics", "cart", "sales"} {
		delete(top, k)
	}
	if len(top) > 0 {
		d.extra = top
	}
	return d, dropped, nil
}

type rawProduct struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	DefaultPrice json.RawMessage `json:"defaultPrice"`
	UnitLabel    string          `json:"unitLabel"`
	PackSize     *int            `json:"packSize"`
	IsActive     *bool           `json:"isActive"`
}

func migrateProducts(raw json.RawMessage) []core.ProductType {
	var in []rawProduct
	if raw == nil || json.Unmarshal(raw, &in) != nil {
		return nil
	}
	out := make([]core.ProductType, 0, len(in))
	for _, p := range in {
		pack := 1
		if p.PackSize != nil && *p.PackSize > 1 {
			pack = *p.PackSize
		}
		unit := strings.TrimSpace(p.UnitLabel)
		if unit == "" {
			unit = "each"
		}
		out = append(out, core.ProductType{
			ID:           p.ID,
			Name:         p.Name,
			DefaultPrice: lenientMoney(p.DefaultPrice),
			UnitLabel:    unit,
			PackSize:     pack,
			IsActive:     p.IsActive == nil || *p.IsActive,
		})
	}
	return out
}

func migrateSeries(raw json.RawMessage) []core.Series {
	var in []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		IsActive *bool  `json:"isActive"`
	}
	if raw == nil || json.Unmarshal(raw, &in) != nil {
		return nil
	}
	out := make([]core.Series, 0, len(in))
	for _, s := range in {
		out = append(out, core.Series{ID: s.ID, Name: s.Name, IsActive: s.IsActive == nil || *s.IsActive})
	}
	return out
}

func migrateFabrics(raw json.RawMessage) []core.Fabric {
	var in []struct {
		ID       string  `json:"id"`
		Name     string  `json:"name"`
		SeriesID *string `json:"seriesId"`
		IsActive *bool   `json:"isActive"`
	}
	if raw == nil || json.Unmarshal(raw, &in) != nil {
		return nil
	}
	out := make([]core.Fabric, 0, len(in))
	for _, f := range in {
		out = append(out, core.Fabric{ID: f.ID, Name: f.Name, SeriesID: f.SeriesID, IsActive: f.IsActive == nil || *f.IsActive})
	}
	return out
}

// rawLine tolerates the alternate field names older records used for
// the same data (productName/name, price/unitPrice, quantity/qty).
type rawLine struct {
	ID            string          `json:"id"`
	ProductTypeID string          `json:"productTypeId"`
	Name          string          `json:"name"`
	ProductName   string          `json:"productName"`
	UnitPrice     json.RawMessage `json:"unitPrice"`
	Price         json.RawMessage `json:"price"`
	Qty           *int            `json:"qty"`
	Quantity      *int            `json:"quantity"`
	FabricID      *string         `json:"fabricId"`
}

func (l rawLine) normalize() core.CartLine {
	name := l.Name
	if name == "" {
		name = l.ProductName
	}
	if name == "" {
		name = "Item"
	}
	price := l.UnitPrice
	if price == nil {
		price = l.Price
	}
	qty := 1
	switch {
	case l.Qty != nil:
		qty = *l.Qty
	case l.Quantity != nil:
		qty = *l.Quantity
	}
	return core.CartLine{
		ID:            l.ID,
		ProductTypeID: l.ProductTypeID,
		Name:          name,
		UnitPrice:     lenientMoney(price),
		Qty:           qty,
		FabricID:      l.FabricID,
	}
}

func migrateCart(raw json.RawMessage) []core.CartLine {
	var in []rawLine
	if raw == nil || json.Unmarshal(raw, &in) != nil {
		return nil
	}
	out := make([]core.CartLine, 0, len(in))
	for _, l := range in {
		out = append(out, l.normalize())
	}
	return out
}

type rawSale struct {
	ID            string          `json:"id"`
	CreatedAt     string          `json:"createdAt"`
	RecordedAtISO string          `json:"recordedAtISO"`
	CreatedAtISO  string          `json:"createdAtISO"`
	TimestampISO  string          `json:"timestampISO"`
	Timestamp     string          `json:"timestamp"`
	Date          string          `json:"date"`
	Customer      string          `json:"customer"`
	Items         []rawLine       `json:"items"`
	Lines         []rawLine       `json:"lines"`
	Subtotal      json.RawMessage `json:"subtotal"`
	Total         json.RawMessage `json:"total"`
	Note          string          `json:"note"`
}

func migrateSales(raw json.RawMessage) ([]core.Sale, int) {
	var in []rawSale
	if raw == nil || json.Unmarshal(raw, &in) != nil {
		return nil, 0
	}
	out := make([]core.Sale, 0, len(in))
	dropped := 0
	for _, s := range in {
		sale, ok := s.normalize()
		if !ok {
			dropped++
			continue
		}
		out = append(out, sale)
	}
	return out, dropped
}

func (s rawSale) normalize() (core.Sale, bool) {
	createdAt, ok := parseSaleTimestamp(s.CreatedAt, s.RecordedAtISO, s.CreatedAtISO, s.TimestampISO, s.Timestamp, s.Date)
	if !ok {
		return core.Sale{}, false
	}
	rawItems := s.Items
	if rawItems == nil {
		rawItems = s.Lines
	}
	items := make([]core.CartLine, 0, len(rawItems))
	for _, l := range rawItems {
		items = append(items, l.normalize())
	}
	subtotal := lenientMoney(s.Subtotal)
	total := lenientMoney(s.Total)
	if s.Subtotal == nil && s.Total == nil {
		for _, l := range items {
			subtotal = subtotal.Add(l.LineTotal())
		}
		total = subtotal
	} else if s.Total == nil {
		total = subtotal
	} else if s.Subtotal == nil {
		subtotal = total
	}
	return core.Sale{
		ID:        s.ID,
		CreatedAt: createdAt,
		Customer:  s.Customer,
		Items:     items,
		Subtotal:  subtotal,
		Total:     total,
		Note:      s.Note,
	}, true
}

// parseSaleTimestamp takes the first candidate that parses. No epoch
// fallback: a record with no usable timestamp is rejected rather than
// silently sorted before every event window.
func parseSaleTimestamp(candidates ...string) (time.Time, bool) {
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, c); err == nil {
			return t, true
		}
		if t, err := time.Parse("2006-01-02", c); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// lenientMoney mirrors the legacy blobs' defensive numeric coercion:
// anything unparseable loads as zero. New input entering through the
// API is validated strictly instead.
func lenientMoney(raw json.RawMessage) core.Money {
	if raw == nil {
		return core.Money{}
	}
	var m core.Money
	if err := json.Unmarshal(raw, &m); err != nil {
		return core.Money{}
	}
	return m
}
