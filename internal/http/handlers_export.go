package http

import (
	"bytes"
	"io"
	"net/http"

	"fairpos/internal/core"
	"fairpos/internal/export"
)

// exportEvent resolves which event an export request targets: an
// explicit eventId query parameter, else the active event.
func (s *Server) exportEvent(r *http.Request) (core.Event, error) {
	if id := r.URL.Query().Get("eventId"); id != "" {
		evt, ok := s.events.Get(id)
		if !ok {
			return core.Event{}, core.ErrNotFound
		}
		return evt, nil
	}
	evt, ok := s.events.ActiveEvent()
	if !ok {
		return core.Event{}, core.ErrNoActiveEvent
	}
	return evt, nil
}

func (s *Server) exportRows(r *http.Request) (core.Event, []export.Row, error) {
	evt, err := s.exportEvent(r)
	if err != nil {
		return core.Event{}, nil, err
	}
	rows, err := export.BuildRows(evt, core.SalesInWindow(evt, s.store.Sales()), s.store.FabricName)
	if err != nil {
		return core.Event{}, nil, err
	}
	return evt, rows, nil
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	evt, rows, err := s.exportRows(r)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	// Render before writing headers so a failure can still be a 500.
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, rows); err != nil {
		respondDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+core.SlugifyEventName(evt.Name)+`_sales.csv"`)
	_, _ = io.Copy(w, &buf)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	evt, rows, err := s.exportRows(r)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, "Sales", rows); err != nil {
		respondDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+core.SlugifyEventName(evt.Name)+`_sales.xlsx"`)
	_, _ = io.Copy(w, &buf)
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	evt, err := s.exportEvent(r)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	snap, err := s.snapshots.RollupFor(r.Context(), evt.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WritePDF(&buf, snap, s.store.FabricName); err != nil {
		respondDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.SnapshotPDFFilename(evt)+`"`)
	_, _ = io.Copy(w, &buf)
}

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	blob, err := s.store.ExportJSON()
	if err != nil {
		respondDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="fairpos_backup.json"`)
	_, _ = w.Write(blob)
}

type restoreResponse struct {
	OK bool `json:"ok"`
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}
	if !s.store.ImportJSON(r.Context(), raw) {
		respondError(w, http.StatusBadRequest, "malformed backup payload; store unchanged")
		return
	}
	respondJSON(w, http.StatusOK, restoreResponse{OK: true})
}
