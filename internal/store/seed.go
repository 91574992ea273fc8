package store

import "fairpos/internal/core"

// Seed is the starter catalog a fresh (or emptied) install falls back
// to, so the cart screen is never blank on first run.
func Seed() Data {
	return Data{
		ProductTypes: []core.ProductType{
			{ID: "pt-keychain", Name: "Keychain", DefaultPrice: core.Money{Cents: 800}, UnitLabel: "each", PackSize: 1, IsActive: true},
			{ID: "pt-sticker", Name: "Sticker", DefaultPrice: core.Money{Cents: 300}, UnitLabel: "each", PackSize: 1, IsActive: true},
		},
		Series:  []core.Series{},
		Fabrics: []core.Fabric{},
		Cart:    []core.CartLine{},
		Sales:   []core.Sale{},
	}
}

// applySeedFallback replaces any catalog array left empty after
// migration with its seed counterpart. Cart and sales stay as loaded.
func applySeedFallback(d Data) Data {
	seed := Seed()
	if len(d.ProductTypes) == 0 {
		d.ProductTypes = seed.ProductTypes
	}
	if len(d.Series) == 0 {
		d.Series = seed.Series
	}
	if len(d.Fabrics) == 0 {
		d.Fabrics = seed.Fabrics
	}
	return d
}
