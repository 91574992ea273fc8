package http

import (
	"net/http"

	"fairpos/internal/core"
	"fairpos/internal/store"
)

type eventsResponse struct {
	Events []core.Event `json:"events"`
	Active *core.Event  `json:"active"`
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	resp := eventsResponse{Events: s.events.Events()}
	if evt, ok := s.events.ActiveEvent(); ok {
		resp.Active = &evt
	}
	respondJSON(w, http.StatusOK, resp)
}

type startEventRequest struct {
	Name     string `json:"name"`
	Date     string `json:"date"`
	Location string `json:"location"`
}

func (s *Server) handleStartEvent(w http.ResponseWriter, r *http.Request) {
	var req startEventRequest
	if !decodeBody(w, r, &req) {
		return
	}
	evt, err := s.events.StartEvent(r.Context(), store.StartEventInput{
		Name:     sanitizeInput(req.Name),
		Date:     sanitizeInput(req.Date),
		Location: sanitizeInput(req.Location),
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, evt)
}

func (s *Server) handleEndEvent(w http.ResponseWriter, r *http.Request) {
	evt, err := s.events.EndEvent(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, evt)
}

func (s *Server) handleRestoreEvent(w http.ResponseWriter, r *http.Request) {
	evt, err := s.events.RestoreEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, evt)
}

func (s *Server) handleEventRollup(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshots.RollupFor(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleLiveRollup(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshots.LiveRollup(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}
