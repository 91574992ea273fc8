package http

import (
	"net/http"

	"fairpos/internal/core"
	"fairpos/internal/store"
)

type cartResponse struct {
	Lines    []core.CartLine `json:"lines"`
	Subtotal core.Money      `json:"subtotal"`
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, cartResponse{
		Lines:    s.store.Cart(),
		Subtotal: s.store.CartSubtotal(),
	})
}

type cartLineRequest struct {
	ProductTypeID string         `json:"productTypeId"`
	Name          string         `json:"name"`
	UnitPrice     *core.Money    `json:"unitPrice"`
	Qty           *int           `json:"qty"`
	FabricID      optionalString `json:"fabricId"`
}

func (s *Server) handleAddCartLine(w http.ResponseWriter, r *http.Request) {
	var req cartLineRequest
	if !decodeBody(w, r, &req) {
		return
	}

	in := store.CartLineInput{
		ProductTypeID: req.ProductTypeID,
		Name:          sanitizeInput(req.Name),
		FabricID:      req.FabricID.Value,
	}
	// Fall back to the catalog for name and price when only a product
	// type is given.
	if pt, ok := s.store.GetProductType(req.ProductTypeID); ok {
		if in.Name == "" {
			in.Name = pt.Name
		}
		if req.UnitPrice == nil {
			in.UnitPrice = pt.DefaultPrice
		}
	}
	if req.UnitPrice != nil {
		in.UnitPrice = *req.UnitPrice
	}
	if req.Qty != nil {
		in.Qty = *req.Qty
	}

	line, err := s.store.AddCartLine(r.Context(), in)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, line)
}

func (s *Server) handleUpdateCartLine(w http.ResponseWriter, r *http.Request) {
	var req cartLineRequest
	if !decodeBody(w, r, &req) {
		return
	}
	patch := store.CartLinePatch{
		Qty:       req.Qty,
		UnitPrice: req.UnitPrice,
	}
	if req.FabricID.Set {
		patch.FabricID = &req.FabricID.Value
	}
	line, err := s.store.UpdateCartLine(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, line)
}

func (s *Server) handleRemoveCartLine(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RemoveCartLine(r.Context(), r.PathValue("id")); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ClearCart(r.Context()); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

type checkoutRequest struct {
	Customer string `json:"customer"`
	Note     string `json:"note"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	sale, err := s.store.CheckoutCart(r.Context(), sanitizeInput(req.Customer), sanitizeInput(req.Note))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	eventName := ""
	if evt, ok := s.events.ActiveEvent(); ok {
		eventName = evt.Name
	}
	s.logs.LogSaleRecorded(r.Context(), sale.ID, core.BuildOrderNumber(eventName, sale.CreatedAt), sale.Total.Cents)

	respondJSON(w, http.StatusCreated, sale)
}
