package http

import (
	"encoding/json"
	"net/http"

	"fairpos/internal/core"
	"fairpos/internal/store"
)

// optionalString distinguishes "field absent" from "field set to null"
// so PUT bodies can clear nullable references like a fabric's series.
type optionalString struct {
	Set   bool
	Value *string
}

func (o *optionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// ---------- Products ----------

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.store.ProductTypes())
}

type productRequest struct {
	Name         string      `json:"name"`
	DefaultPrice *core.Money `json:"defaultPrice"`
	UnitLabel    *string     `json:"unitLabel"`
	PackSize     *int        `json:"packSize"`
	IsActive     *bool       `json:"isActive"`
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeBody(w, r, &req) {
		return
	}
	in := store.ProductTypeInput{Name: sanitizeInput(req.Name)}
	if req.DefaultPrice != nil {
		in.DefaultPrice = *req.DefaultPrice
	}
	if req.UnitLabel != nil {
		in.UnitLabel = sanitizeInput(*req.UnitLabel)
	}
	if req.PackSize != nil {
		in.PackSize = *req.PackSize
	}
	pt, err := s.store.AddProductType(r.Context(), in)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, pt)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeBody(w, r, &req) {
		return
	}
	patch := store.ProductTypePatch{
		DefaultPrice: req.DefaultPrice,
		PackSize:     req.PackSize,
		IsActive:     req.IsActive,
	}
	if req.Name != "" {
		name := sanitizeInput(req.Name)
		patch.Name = &name
	}
	if req.UnitLabel != nil {
		label := sanitizeInput(*req.UnitLabel)
		patch.UnitLabel = &label
	}
	pt, err := s.store.UpdateProductType(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, pt)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RemoveProductType(r.Context(), r.PathValue("id")); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// ---------- Series ----------

func (s *Server) handleListSeries(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.store.Series())
}

type seriesRequest struct {
	Name     string `json:"name"`
	IsActive *bool  `json:"isActive"`
}

func (s *Server) handleCreateSeries(w http.ResponseWriter, r *http.Request) {
	var req seriesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ser, err := s.store.AddSeries(r.Context(), sanitizeInput(req.Name))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, ser)
}

func (s *Server) handleUpdateSeries(w http.ResponseWriter, r *http.Request) {
	var req seriesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	patch := store.SeriesPatch{IsActive: req.IsActive}
	if req.Name != "" {
		name := sanitizeInput(req.Name)
		patch.Name = &name
	}
	ser, err := s.store.UpdateSeries(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ser)
}

func (s *Server) handleDeleteSeries(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RemoveSeries(r.Context(), r.PathValue("id")); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// ---------- Fabrics ----------

func (s *Server) handleListFabrics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.store.Fabrics())
}

type fabricRequest struct {
	Name     string         `json:"name"`
	SeriesID optionalString `json:"seriesId"`
	IsActive *bool          `json:"isActive"`
}

func (s *Server) handleCreateFabric(w http.ResponseWriter, r *http.Request) {
	var req fabricRequest
	if !decodeBody(w, r, &req) {
		return
	}
	fab, err := s.store.AddFabric(r.Context(), store.FabricInput{
		Name:     sanitizeInput(req.Name),
		SeriesID: req.SeriesID.Value,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, fab)
}

func (s *Server) handleUpdateFabric(w http.ResponseWriter, r *http.Request) {
	var req fabricRequest
	if !decodeBody(w, r, &req) {
		return
	}
	patch := store.FabricPatch{IsActive: req.IsActive}
	if req.Name != "" {
		name := sanitizeInput(req.Name)
		patch.Name = &name
	}
	if req.SeriesID.Set {
		patch.SeriesID = &req.SeriesID.Value
	}
	fab, err := s.store.UpdateFabric(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, fab)
}

func (s *Server) handleDeleteFabric(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RemoveFabric(r.Context(), r.PathValue("id")); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
