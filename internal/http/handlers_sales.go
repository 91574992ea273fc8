package http

import (
	"net/http"
)

func (s *Server) handleListSales(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.store.Sales())
}

func (s *Server) handleDeleteSale(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteSale(r.Context(), r.PathValue("id")); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
