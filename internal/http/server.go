// Package http exposes the POS over a JSON API: catalog, cart,
// checkout, sales ledger, events, rollups, snapshots and exports.
package http

import (
	"context"
	"net/http"
	"sync"

	applog "fairpos/internal/log"
	"fairpos/internal/middleware/ratelimit"
	"fairpos/internal/middleware/security"
	"fairpos/internal/middleware/trace"
	"fairpos/internal/services"
	"fairpos/internal/store"
)

type Server struct {
	http.Server

	store     *store.Store
	events    *store.EventRegistry
	snapshots *services.SnapshotService

	logs     *applog.StructuredLogger
	limiter  *ratelimit.Limiter
	detector *security.Detector

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a
// ready-to-run http.Server.
func NewServer(addr string, st *store.Store, events *store.EventRegistry, snapshots *services.SnapshotService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		store:     st,
		events:    events,
		snapshots: snapshots,
		logs:      applog.NewStructuredLogger(applog.New(applog.DefaultConfig())),
		limiter:   ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector:  security.NewDetector(),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/products", s.handleListProducts)
	mux.HandleFunc("POST /api/products", s.handleCreateProduct)
	mux.HandleFunc("PUT /api/products/{id}", s.handleUpdateProduct)
	mux.HandleFunc("DELETE /api/products/{id}", s.handleDeleteProduct)

	mux.HandleFunc("GET /api/series", s.handleListSeries)
	mux.HandleFunc("POST /api/series", s.handleCreateSeries)
	mux.HandleFunc("PUT /api/series/{id}", s.handleUpdateSeries)
	mux.HandleFunc("DELETE /api/series/{id}", s.handleDeleteSeries)

	mux.HandleFunc("GET /api/fabrics", s.handleListFabrics)
	mux.HandleFunc("POST /api/fabrics", s.handleCreateFabric)
	mux.HandleFunc("PUT /api/fabrics/{id}", s.handleUpdateFabric)
	mux.HandleFunc("DELETE /api/fabrics/{id}", s.handleDeleteFabric)

	mux.HandleFunc("GET /api/cart", s.handleGetCart)
	mux.HandleFunc("POST /api/cart", s.handleAddCartLine)
	mux.HandleFunc("PUT /api/cart/{id}", s.handleUpdateCartLine)
	mux.HandleFunc("DELETE /api/cart/{id}", s.handleRemoveCartLine)
	mux.HandleFunc("DELETE /api/cart", s.handleClearCart)
	mux.HandleFunc("POST /api/checkout", s.handleCheckout)

	mux.HandleFunc("GET /api/sales", s.handleListSales)
	mux.HandleFunc("DELETE /api/sales/{id}", s.handleDeleteSale)

	mux.HandleFunc("GET /api/events", s.handleListEvents)
	mux.HandleFunc("POST /api/events", s.handleStartEvent)
	mux.HandleFunc("POST /api/events/end", s.handleEndEvent)
	mux.HandleFunc("POST /api/events/{id}/restore", s.handleRestoreEvent)
	mux.HandleFunc("GET /api/events/{id}/rollup", s.handleEventRollup)
	mux.HandleFunc("GET /api/rollup", s.handleLiveRollup)

	mux.HandleFunc("POST /api/snapshots", s.handleRecordSnapshot)
	mux.HandleFunc("GET /api/snapshots", s.handleListSnapshots)
	mux.HandleFunc("GET /api/snapshots/{id}", s.handleGetSnapshot)

	mux.HandleFunc("GET /api/export/csv", s.handleExportCSV)
	mux.HandleFunc("GET /api/export/xlsx", s.handleExportXLSX)
	mux.HandleFunc("GET /api/export/pdf", s.handleExportPDF)

	mux.HandleFunc("GET /api/backup", s.handleBackup)
	mux.HandleFunc("POST /api/restore", s.handleRestore)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(s.detector.ExtractClientIP, s.detector.Suspicious, s.logs)
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, nil)

	s.Server = http.Server{
		Addr:    addr,
		Handler: tracer.Middleware(headers.Middleware(limited(mux))),
	}

	return s
}

// Shutdown stops background cleanup and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
