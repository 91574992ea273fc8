package store

import (
	"context"
	"encoding/json"
	"testing"

	"fairpos/internal/core"
	"fairpos/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(storage.NewMemoryRepository())
	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s
}

func TestOpenSeedsFreshStore(t *testing.T) {
	s := newTestStore(t)
	pts := s.ProductTypes()
	if len(pts) != 2 {
		t.Fatalf("expected seed catalog, got %d products", len(pts))
	}
	if pts[0].Name != "Keychain" || pts[0].DefaultPrice.Cents != 800 {
		t.Fatalf("unexpected seed product: %+v", pts[0])
	}
}

func TestProductTypeCRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	pt, err := s.AddProductType(ctx, ProductTypeInput{Name: "  Tote Bag ", DefaultPrice: core.Money{Cents: 2200}})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if pt.Name != "Tote Bag" || pt.UnitLabel != "each" || pt.PackSize != 1 || !pt.IsActive {
		t.Fatalf("defaults not applied: %+v", pt)
	}

	newPrice := core.Money{Cents: 2500}
	updated, err := s.UpdateProductType(ctx, pt.ID, ProductTypePatch{DefaultPrice: &newPrice})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.DefaultPrice.Cents != 2500 {
		t.Fatalf("price not updated: %+v", updated)
	}

	if err := s.RemoveProductType(ctx, pt.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok := s.GetProductType(pt.ID); ok {
		t.Fatalf("product still present after removal")
	}
	if err := s.RemoveProductType(ctx, pt.ID); err != core.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddProductTypeRejectsNegativePrice(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddProductType(context.Background(), ProductTypeInput{Name: "X", DefaultPrice: core.Money{Cents: -1}})
	if err != core.ErrInvalidPrice {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
}

func TestRemoveSeriesReassignsFabrics(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ser, err := s.AddSeries(ctx, "Spring Florals")
	if err != nil {
		t.Fatalf("add series: %v", err)
	}
	fab, err := s.AddFabric(ctx, FabricInput{Name: "Daisy Dot", SeriesID: &ser.ID})
	if err != nil {
		t.Fatalf("add fabric: %v", err)
	}

	if err := s.RemoveSeries(ctx, ser.ID); err != nil {
		t.Fatalf("remove series: %v", err)
	}
	got, ok := s.GetFabric(fab.ID)
	if !ok {
		t.Fatalf("fabric deleted with its series")
	}
	if got.SeriesID != nil {
		t.Fatalf("fabric should be unsorted, still points at %q", *got.SeriesID)
	}
}

func TestCartAndSubtotal(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a, err := s.AddCartLine(ctx, CartLineInput{ProductTypeID: "pt-keychain", Name: "Keychain", UnitPrice: core.Money{Cents: 800}, Qty: 2})
	if err != nil {
		t.Fatalf("add line: %v", err)
	}
	if _, err := s.AddCartLine(ctx, CartLineInput{ProductTypeID: "pt-sticker", Name: "Sticker", UnitPrice: core.Money{Cents: 300}}); err != nil {
		t.Fatalf("add line: %v", err)
	}

	// Missing qty defaults to 1: 2*800 + 1*300.
	if got := s.CartSubtotal(); got.Cents != 1900 {
		t.Fatalf("expected subtotal 1900, got %d", got.Cents)
	}

	qty := 3
	if _, err := s.UpdateCartLine(ctx, a.ID, CartLinePatch{Qty: &qty}); err != nil {
		t.Fatalf("update line: %v", err)
	}
	if got := s.CartSubtotal(); got.Cents != 2700 {
		t.Fatalf("expected subtotal 2700, got %d", got.Cents)
	}

	bad := 0
	if _, err := s.UpdateCartLine(ctx, a.ID, CartLinePatch{Qty: &bad}); err != core.ErrInvalidQty {
		t.Fatalf("expected ErrInvalidQty, got %v", err)
	}

	if err := s.RemoveCartLine(ctx, a.ID); err != nil {
		t.Fatalf("remove line: %v", err)
	}
	if err := s.ClearCart(ctx); err != nil {
		t.Fatalf("clear cart: %v", err)
	}
	if len(s.Cart()) != 0 {
		t.Fatalf("cart not cleared")
	}
}

func TestCheckoutCart(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.CheckoutCart(ctx, "", ""); err != core.ErrEmptyCart {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}

	if _, err := s.AddCartLine(ctx, CartLineInput{Name: "Keychain", UnitPrice: core.Money{Cents: 800}, Qty: 2}); err != nil {
		t.Fatalf("add line: %v", err)
	}
	sale, err := s.CheckoutCart(ctx, "  Dana ", "cash")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if sale.Customer != "Dana" || sale.Total.Cents != 1600 || len(sale.Items) != 1 {
		t.Fatalf("unexpected sale: %+v", sale)
	}
	if len(s.Cart()) != 0 {
		t.Fatalf("cart should be cleared by checkout")
	}
	if got := s.Sales(); len(got) != 1 || got[0].ID != sale.ID {
		t.Fatalf("sale not at head of ledger: %+v", got)
	}
}

func TestDeletingCatalogDoesNotTouchSales(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	fab, _ := s.AddFabric(ctx, FabricInput{Name: "Daisy Dot"})
	pt, _ := s.AddProductType(ctx, ProductTypeInput{Name: "Tote", DefaultPrice: core.Money{Cents: 2000}})
	if _, err := s.AddCartLine(ctx, CartLineInput{ProductTypeID: pt.ID, Name: pt.Name, UnitPrice: pt.DefaultPrice, Qty: 1, FabricID: &fab.ID}); err != nil {
		t.Fatalf("add line: %v", err)
	}
	sale, err := s.CheckoutCart(ctx, "", "")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if err := s.RemoveProductType(ctx, pt.ID); err != nil {
		t.Fatalf("remove product: %v", err)
	}
	if err := s.RemoveFabric(ctx, fab.ID); err != nil {
		t.Fatalf("remove fabric: %v", err)
	}
	renamed := "Changed"
	// Editing another product must not matter either; the sale holds
	// its own snapshot.
	if _, err := s.UpdateProductType(ctx, "pt-keychain", ProductTypePatch{Name: &renamed}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got := s.Sales()
	if len(got) != 1 {
		t.Fatalf("sale disappeared")
	}
	item := got[0].Items[0]
	if item.Name != "Tote" || item.UnitPrice.Cents != 2000 || item.FabricID == nil || *item.FabricID != fab.ID {
		t.Fatalf("historical sale mutated: %+v", item)
	}
	if got[0].ID != sale.ID {
		t.Fatalf("wrong sale: %+v", got[0])
	}
}

func TestDeleteSale(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.AddCartLine(ctx, CartLineInput{Name: "Keychain", UnitPrice: core.Money{Cents: 800}, Qty: 1})
	sale, _ := s.CheckoutCart(ctx, "", "")

	if err := s.DeleteSale(ctx, sale.ID); err != nil {
		t.Fatalf("delete sale: %v", err)
	}
	if len(s.Sales()) != 0 {
		t.Fatalf("sale still present")
	}
	if err := s.DeleteSale(ctx, sale.ID); err != core.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ser, _ := s.AddSeries(ctx, "Spring")
	s.AddFabric(ctx, FabricInput{Name: "Daisy", SeriesID: &ser.ID})
	s.AddCartLine(ctx, CartLineInput{Name: "Keychain", UnitPrice: core.Money{Cents: 800}, Qty: 2})
	s.CheckoutCart(ctx, "Dana", "")
	s.AddCartLine(ctx, CartLineInput{Name: "Sticker", UnitPrice: core.Money{Cents: 300}, Qty: 1})

	blob, err := s.ExportJSON()
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	other := newTestStore(t)
	if !other.ImportJSON(ctx, blob) {
		t.Fatalf("import rejected valid blob")
	}

	reblob, err := other.ExportJSON()
	if err != nil {
		t.Fatalf("re-export: %v", err)
	}
	var a, b map[string]any
	if err := json.Unmarshal(blob, &a); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := json.Unmarshal(reblob, &b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"productTypes", "series", "fabrics", "cart", "sales"} {
		aj, _ := json.Marshal(a[key])
		bj, _ := json.Marshal(b[key])
		if string(aj) != string(bj) {
			t.Fatalf("round trip changed %s:\n%s\nvs\n%s", key, aj, bj)
		}
	}
}

func TestImportJSONFailsClosed(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.AddSeries(ctx, "Keep Me")

	if s.ImportJSON(ctx, []byte("{not json")) {
		t.Fatalf("malformed JSON should return false")
	}
	if len(s.Series()) != 1 {
		t.Fatalf("failed import must leave state untouched")
	}
}

func TestImportAppliesSeedFallback(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if !s.ImportJSON(ctx, []byte(`{"productTypes":[],"sales":[]}`)) {
		t.Fatalf("import rejected")
	}
	if len(s.ProductTypes()) != 2 {
		t.Fatalf("empty catalog should fall back to seed")
	}
	if len(s.Sales()) != 0 {
		t.Fatalf("sales must not be seeded")
	}
}

func TestPersistenceSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemoryRepository()

	s := New(repo)
	if err := s.Open(ctx); err != nil {
		t.Fatalf("open: %v", err)
	}
	ser, _ := s.AddSeries(ctx, "Spring")

	reopened := New(repo)
	if err := reopened.Open(ctx); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	found := false
	for _, got := range reopened.Series() {
		if got.ID == ser.ID && got.Name == "Spring" {
			found = true
		}
	}
	if !found {
		t.Fatalf("series lost across reopen: %+v", reopened.Series())
	}
}
