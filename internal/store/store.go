// Package store holds the vendor's working state: the product/fabric
// catalog, the open cart and the sales ledger, all persisted as one
// JSON blob through an injected Repository.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"fairpos/internal/core"
)

// Storage keys, one blob per logical store.
const (
	KeyStore       = "store"
	KeyEvents      = "events"
	KeyActiveEvent = "active_event"
)

// Repository is the persistence boundary. Implementations must return
// ok=false (not an error) when a key has never been written.
type Repository interface {
	Load(ctx context.Context, key string) (value []byte, ok bool, err error)
	Save(ctx context.Context, key string, value []byte) error
}

// Store is safe for concurrent use. Every successful mutation is
// written through to the repository; if the write fails the in-memory
// change stands and the error is returned so the caller can surface
// it.
type Store struct {
	mu   sync.Mutex
	repo Repository
	data Data
	now  func() time.Time
}

func New(repo Repository) *Store {
	return &Store{repo: repo, data: Seed(), now: time.Now}
}

// Open loads the persisted blob, migrates it and applies the seed
// fallback for empty catalog arrays. A missing blob starts from seed.
func (s *Store) Open(ctx context.Context) error {
	raw, ok, err := s.repo.Load(ctx, KeyStore)
	if err != nil {
		return fmt.Errorf("load store: %w", err)
	}
	if !ok {
		s.mu.Lock()
		s.data = Seed()
		s.mu.Unlock()
		return s.persist(ctx)
	}
	d, dropped, err := Migrate(raw)
	if err != nil {
		return fmt.Errorf("migrate store: %w", err)
	}
	if dropped > 0 {
		slog.WarnContext(ctx, "Dropped sales with unparseable timestamps during load", "count", dropped)
	}
	s.mu.Lock()
	s.data = applySeedFallback(d)
	s.mu.Unlock()
	return nil
}

// persist holds the lock across marshal and Save so blobs reach the
// repository in mutation order. Releasing between the two lets a stale
// blob land after a newer one and silently drop the newer mutation.
func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	blob, err := json.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	if err := s.repo.Save(ctx, KeyStore, blob); err != nil {
		return fmt.Errorf("persist store: %w", err)
	}
	return nil
}

// ---------- Series ----------

func (s *Store) AddSeries(ctx context.Context, name string) (core.Series, error) {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return core.Series{}, core.ErrEmptyName
	}
	ser := core.Series{ID: newID("ser"), Name: clean, IsActive: true}
	s.mu.Lock()
	s.data.Series = append(s.data.Series, ser)
	s.mu.Unlock()
	return ser, s.persist(ctx)
}

type SeriesPatch struct {
	Name     *string
	IsActive *bool
}

func (s *Store) UpdateSeries(ctx context.Context, id string, patch SeriesPatch) (core.Series, error) {
	s.mu.Lock()
	var updated *core.Series
	for i := range s.data.Series {
		if s.data.Series[i].ID != id {
			continue
		}
		if patch.Name != nil {
			if clean := strings.TrimSpace(*patch.Name); clean != "" {
				s.data.Series[i].Name = clean
			}
		}
		if patch.IsActive != nil {
			s.data.Series[i].IsActive = *patch.IsActive
		}
		updated = &s.data.Series[i]
		break
	}
	if updated == nil {
		s.mu.Unlock()
		return core.Series{}, core.ErrNotFound
	}
	out := *updated
	s.mu.Unlock()
	return out, s.persist(ctx)
}

// RemoveSeries deletes the series and reassigns its fabrics to
// unsorted (nil SeriesID). The fabrics themselves survive.
func (s *Store) RemoveSeries(ctx context.Context, id string) error {
	s.mu.Lock()
	kept := s.data.Series[:0]
	found := false
	for _, ser := range s.data.Series {
		if ser.ID == id {
			found = true
			continue
		}
		kept = append(kept, ser)
	}
	s.data.Series = kept
	for i := range s.data.Fabrics {
		if s.data.Fabrics[i].SeriesID != nil && *s.data.Fabrics[i].SeriesID == id {
			s.data.Fabrics[i].SeriesID = nil
		}
	}
	s.mu.Unlock()
	if !found {
		return core.ErrNotFound
	}
	return s.persist(ctx)
}

// ---------- Product types ----------

type ProductTypeInput struct {
	Name         string
	DefaultPrice core.Money
	UnitLabel    string
	PackSize     int
}

func (s *Store) AddProductType(ctx context.Context, in ProductTypeInput) (core.ProductType, error) {
	pt := core.ProductType{
		ID:           newID("pt"),
		Name:         strings.TrimSpace(in.Name),
		DefaultPrice: in.DefaultPrice,
		UnitLabel:    strings.TrimSpace(in.UnitLabel),
		PackSize:     in.PackSize,
		IsActive:     true,
	}
	if pt.Name == "" {
		pt.Name = "New Product"
	}
	if pt.UnitLabel == "" {
		pt.UnitLabel = "each"
	}
	if pt.PackSize < 1 {
		pt.PackSize = 1
	}
	if pt.DefaultPrice.Cents < 0 {
		return core.ProductType{}, core.ErrInvalidPrice
	}
	s.mu.Lock()
	s.data.ProductTypes = append(s.data.ProductTypes, pt)
	s.mu.Unlock()
	return pt, s.persist(ctx)
}

type ProductTypePatch struct {
	Name         *string
	DefaultPrice *core.Money
	UnitLabel    *string
	PackSize     *int
	IsActive     *bool
}

func (s *Store) UpdateProductType(ctx context.Context, id string, patch ProductTypePatch) (core.ProductType, error) {
	if patch.DefaultPrice != nil && patch.DefaultPrice.Cents < 0 {
		return core.ProductType{}, core.ErrInvalidPrice
	}
	s.mu.Lock()
	var updated *core.ProductType
	for i := range s.data.ProductTypes {
		if s.data.ProductTypes[i].ID != id {
			continue
		}
		p := &s.data.ProductTypes[i]
		if patch.Name != nil {
			if clean := strings.TrimSpace(*patch.Name); clean != "" {
				p.Name = clean
			}
		}
		if patch.DefaultPrice != nil {
			p.DefaultPrice = *patch.DefaultPrice
		}
		if patch.UnitLabel != nil {
			if clean := strings.TrimSpace(*patch.UnitLabel); clean != "" {
				p.UnitLabel = clean
			}
		}
		if patch.PackSize != nil && *patch.PackSize >= 1 {
			p.PackSize = *patch.PackSize
		}
		if patch.IsActive != nil {
			p.IsActive = *patch.IsActive
		}
		updated = p
		break
	}
	if updated == nil {
		s.mu.Unlock()
		return core.ProductType{}, core.ErrNotFound
	}
	out := *updated
	s.mu.Unlock()
	return out, s.persist(ctx)
}

// RemoveProductType deletes the catalog record outright. Historical
// sales keep their denormalized name/price snapshots.
func (s *Store) RemoveProductType(ctx context.Context, id string) error {
	s.mu.Lock()
	kept := s.data.ProductTypes[:0]
	found := false
	for _, p := range s.data.ProductTypes {
		if p.ID == id {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	s.data.ProductTypes = kept
	s.mu.Unlock()
	if !found {
		return core.ErrNotFound
	}
	return s.persist(ctx)
}

// ---------- Fabrics ----------

type FabricInput struct {
	Name     string
	SeriesID *string
}

func (s *Store) AddFabric(ctx context.Context, in FabricInput) (core.Fabric, error) {
	clean := strings.TrimSpace(in.Name)
	if clean == "" {
		return core.Fabric{}, core.ErrEmptyName
	}
	f := core.Fabric{ID: newID("fab"), Name: clean, SeriesID: in.SeriesID, IsActive: true}
	s.mu.Lock()
	s.data.Fabrics = append(s.data.Fabrics, f)
	s.mu.Unlock()
	return f, s.persist(ctx)
}

type FabricPatch struct {
	Name     *string
	SeriesID **string
	IsActive *bool
}

func (s *Store) UpdateFabric(ctx context.Context, id string, patch FabricPatch) (core.Fabric, error) {
	s.mu.Lock()
	var updated *core.Fabric
	for i := range s.data.Fabrics {
		if s.data.Fabrics[i].ID != id {
			continue
		}
		f := &s.data.Fabrics[i]
		if patch.Name != nil {
			if clean := strings.TrimSpace(*patch.Name); clean != "" {
				f.Name = clean
			}
		}
		if patch.SeriesID != nil {
			f.SeriesID = *patch.SeriesID
		}
		if patch.IsActive != nil {
			f.IsActive = *patch.IsActive
		}
		updated = f
		break
	}
	if updated == nil {
		s.mu.Unlock()
		return core.Fabric{}, core.ErrNotFound
	}
	out := *updated
	s.mu.Unlock()
	return out, s.persist(ctx)
}

func (s *Store) RemoveFabric(ctx context.Context, id string) error {
	s.mu.Lock()
	kept := s.data.Fabrics[:0]
	found := false
	for _, f := range s.data.Fabrics {
		if f.ID == id {
			found = true
			continue
		}
		kept = append(kept, f)
	}
	s.data.Fabrics = kept
	s.mu.Unlock()
	if !found {
		return core.ErrNotFound
	}
	return s.persist(ctx)
}

// ---------- Cart ----------

type CartLineInput struct {
	ProductTypeID string
	Name          string
	UnitPrice     core.Money
	Qty           int
	FabricID      *string
}

func (s *Store) AddCartLine(ctx context.Context, in CartLineInput) (core.CartLine, error) {
	l := core.CartLine{
		ID:            newID("line"),
		ProductTypeID: in.ProductTypeID,
		Name:          strings.TrimSpace(in.Name),
		UnitPrice:     in.UnitPrice,
		Qty:           in.Qty,
		FabricID:      in.FabricID,
	}
	if l.Qty < 1 {
		l.Qty = 1
	}
	if err := l.Validate(); err != nil {
		return core.CartLine{}, err
	}
	s.mu.Lock()
	s.data.Cart = append(s.data.Cart, l)
	s.mu.Unlock()
	return l, s.persist(ctx)
}

type CartLinePatch struct {
	Qty       *int
	UnitPrice *core.Money
	FabricID  **string
}

func (s *Store) UpdateCartLine(ctx context.Context, id string, patch CartLinePatch) (core.CartLine, error) {
	if patch.Qty != nil && *patch.Qty < 1 {
		return core.CartLine{}, core.ErrInvalidQty
	}
	if patch.UnitPrice != nil && patch.UnitPrice.Cents < 0 {
		return core.CartLine{}, core.ErrInvalidPrice
	}
	s.mu.Lock()
	var updated *core.CartLine
	for i := range s.data.Cart {
		if s.data.Cart[i].ID != id {
			continue
		}
		l := &s.data.Cart[i]
		if patch.Qty != nil {
			l.Qty = *patch.Qty
		}
		if patch.UnitPrice != nil {
			l.UnitPrice = *patch.UnitPrice
		}
		if patch.FabricID != nil {
			l.FabricID = *patch.FabricID
		}
		updated = l
		break
	}
	if updated == nil {
		s.mu.Unlock()
		return core.CartLine{}, core.ErrNotFound
	}
	out := *updated
	s.mu.Unlock()
	return out, s.persist(ctx)
}

func (s *Store) RemoveCartLine(ctx context.Context, id string) error {
	s.mu.Lock()
	kept := s.data.Cart[:0]
	found := false
	for _, l := range s.data.Cart {
		if l.ID == id {
			found = true
			continue
		}
		kept = append(kept, l)
	}
	s.data.Cart = kept
	s.mu.Unlock()
	if !found {
		return core.ErrNotFound
	}
	return s.persist(ctx)
}

func (s *Store) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	s.data.Cart = s.data.Cart[:0]
	s.mu.Unlock()
	return s.persist(ctx)
}

func (s *Store) CartSubtotal() core.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum core.Money
	for _, l := range s.data.Cart {
		sum = sum.Add(l.LineTotal())
	}
	return sum
}

// ---------- Sales ----------

// CheckoutCart snapshots the cart into a new sale at the head of the
// ledger and clears the cart. The items are deep copies: catalog or
// cart edits after checkout never reach recorded orders.
func (s *Store) CheckoutCart(ctx context.Context, customer, note string) (core.Sale, error) {
	now := s.now()
	s.mu.Lock()
	if len(s.data.Cart) == 0 {
		s.mu.Unlock()
		return core.Sale{}, core.ErrEmptyCart
	}
	var subtotal core.Money
	for _, l := range s.data.Cart {
		subtotal = subtotal.Add(l.LineTotal())
	}
	sale := core.Sale{
		ID:        newID("SO"),
		CreatedAt: now,
		Customer:  strings.TrimSpace(customer),
		Items:     core.CloneLines(s.data.Cart),
		Subtotal:  subtotal,
		Total:     subtotal, // tax/discount may land here later
		Note:      strings.TrimSpace(note),
	}
	s.data.Sales = append([]core.Sale{sale}, s.data.Sales...)
	s.data.Cart = s.data.Cart[:0]
	s.mu.Unlock()
	return sale.Clone(), s.persist(ctx)
}

func (s *Store) DeleteSale(ctx context.Context, id string) error {
	s.mu.Lock()
	kept := s.data.Sales[:0]
	found := false
	for _, o := range s.data.Sales {
		if o.ID == id {
			found = true
			continue
		}
		kept = append(kept, o)
	}
	s.data.Sales = kept
	s.mu.Unlock()
	if !found {
		return core.ErrNotFound
	}
	return s.persist(ctx)
}

// ---------- Getters ----------

func (s *Store) ProductTypes() []core.ProductType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.ProductType(nil), s.data.ProductTypes...)
}

func (s *Store) Series() []core.Series {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Series(nil), s.data.Series...)
}

func (s *Store) Fabrics() []core.Fabric {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Fabric(nil), s.data.Fabrics...)
}

func (s *Store) Cart() []core.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.CloneLines(s.data.Cart)
}

// Sales returns a deep copy of the ledger, newest first.
func (s *Store) Sales() []core.Sale {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Sale, len(s.data.Sales))
	for i, o := range s.data.Sales {
		out[i] = o.Clone()
	}
	return out
}

func (s *Store) GetProductType(id string) (core.ProductType, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.data.ProductTypes {
		if p.ID == id {
			return p, true
		}
	}
	return core.ProductType{}, false
}

func (s *Store) GetFabric(id string) (core.Fabric, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.data.Fabrics {
		if f.ID == id {
			return f, true
		}
	}
	return core.Fabric{}, false
}

// FabricName resolves a nullable fabric reference for display,
// falling back to the raw id when the fabric is gone.
func (s *Store) FabricName(id *string) string {
	if id == nil {
		return ""
	}
	if f, ok := s.GetFabric(*id); ok {
		return f.Name
	}
	return *id
}

// ---------- Backup / restore ----------

// ExportJSON serializes the full store, unknown legacy keys included.
func (s *Store) ExportJSON() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.MarshalIndent(s.data, "", "  ")
}

// ImportJSON replaces the store from a backup blob. It fails closed:
// malformed JSON leaves the current state untouched and returns false.
func (s *Store) ImportJSON(ctx context.Context, raw []byte) bool {
	d, dropped, err := Migrate(raw)
	if err != nil {
		return false
	}
	if dropped > 0 {
		slog.WarnContext(ctx, "Dropped sales with unparseable timestamps during import", "count", dropped)
	}
	s.mu.Lock()
	s.data = applySeedFallback(d)
	s.mu.Unlock()
	if err := s.persist(ctx); err != nil {
		slog.ErrorContext(ctx, "Failed to persist imported store", "error", err)
	}
	return true
}
