package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"strconv"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/gorilla/mux"

	"github.com/elys-network/yieldzap/internal/config"
	"github.com/elys-network/yieldzap/internal/ledger"
	"github.com/elys-network/yieldzap/internal/logger"
	"github.com/elys-network/yieldzap/internal/state"
	"github.com/elys-network/yieldzap/internal/types"
)

var webLogger = logger.GetForComponent("web_server")

// Quoter prices swaps against a deployed zap contract. *zap.Client satisfies it.
type Quoter interface {
	GetSwapQuote(ctx context.Context, tokenIn, tokenOut ledger.Address, amountIn sdkmath.Int, route types.Route) (sdkmath.Int, error)
}

// Options wires the optional backends of the server.
type Options struct {
	Addr     string
	Registry *config.Registry
	Journal  state.Journal
	Metrics  http.Handler
	// Quoters maps an environment to the zap contract serving its quotes.
	Quoters map[types.Environment]Quoter
	// Health reports the state of external dependencies such as the database.
	Health func(ctx context.Context) error
}

// WebServer serves the read-only deployment, quote and journal API.
type WebServer struct {
	router  *mux.Router
	addr    string
	opts    Options
	started time.Time
}

// NewWebServer creates a new web server instance
func NewWebServer(opts Options) *WebServer {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.Registry == nil {
		opts.Registry = config.NewRegistry()
	}

	server := &WebServer{
		router:  mux.NewRouter(),
		addr:    opts.Addr,
		opts:    opts,
		started: time.Now(),
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")
	if ws.opts.Metrics != nil {
		ws.router.Handle("/metrics", ws.opts.Metrics).Methods("GET")
	}

	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/networks", ws.handleGetNetworks).Methods("GET")
	api.HandleFunc("/networks/{network}", ws.handleGetNetwork).Methods("GET")
	api.HandleFunc("/networks/{network}/vaults", ws.handleGetAvailableVaults).Methods("GET")
	api.HandleFunc("/networks/{network}/quote", ws.handleGetQuote).Methods("GET")
	api.HandleFunc("/receipts", ws.handleGetReceipts).Methods("GET")
	// Registered before /receipts/{id} so "stats" is not taken for an id.
	api.HandleFunc("/receipts/stats", ws.handleGetVaultStats).Methods("GET")
	api.HandleFunc("/receipts/{id}", ws.handleGetReceipt).Methods("GET")

	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Handler returns the routed handler, for embedding and tests.
func (ws *WebServer) Handler() http.Handler { return ws.router }

// Start serves until ctx is cancelled, then shuts down gracefully.
func (ws *WebServer) Start(ctx context.Context) error {
	webLogger.Info().Str("addr", ws.addr).Msg("Starting web server")

	server := &http.Server{
		Addr:         ws.addr,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		webLogger.Info().Msg("Shutting down web server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

// handleHealth returns server health status
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	dependenciesHealthy := true
	var dependencyError string
	if ws.opts.Health != nil {
		if err := ws.opts.Health(r.Context()); err != nil {
			dependenciesHealthy = false
			dependencyError = err.Error()
		}
	}

	overallStatus := "OK"
	statusCode := http.StatusOK
	if !dependenciesHealthy {
		overallStatus = "DEGRADED"
		statusCode = http.StatusServiceUnavailable
	}

	response := map[string]interface{}{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system": map[string]interface{}{
			"version":          runtime.Version(),
			"goroutines_count": runtime.NumGoroutine(),
			"alloc_bytes":      memStats.Alloc,
			"sys_bytes":        memStats.Sys,
			"gc_cycles":        memStats.NumGC,
			"uptime_seconds":   int64(time.Since(ws.started).Seconds()),
		},
		"component": map[string]interface{}{
			"name":    "yieldzap",
			"version": "1.0.0",
		},
		"zap_status": map[string]interface{}{
			"dependencies_healthy": dependenciesHealthy,
			"dependency_error":     dependencyError,
			"journal_enabled":      ws.opts.Journal != nil,
			"quote_networks":       len(ws.opts.Quoters),
		},
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// handleGetNetworks lists every environment with its resolution status
func (ws *WebServer) handleGetNetworks(w http.ResponseWriter, r *http.Request) {
	networks := make([]map[string]interface{}, 0)
	for _, env := range ws.opts.Registry.Environments() {
		entry := map[string]interface{}{"environment": env}
		if d, err := ws.opts.Registry.Resolve(env); err != nil {
			entry["usable"] = false
			entry["reason"] = err.Error()
		} else {
			entry["usable"] = true
			entry["unpublished"] = d.Unpublished
		}
		networks = append(networks, entry)
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"networks": networks,
		"count":    len(networks),
	})
}

// handleGetNetwork returns the resolved deployment of one environment
func (ws *WebServer) handleGetNetwork(w http.ResponseWriter, r *http.Request) {
	d, ok := ws.resolve(w, r)
	if !ok {
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, d)
}

// handleGetAvailableVaults lists the vaults accepting ?asset=
func (ws *WebServer) handleGetAvailableVaults(w http.ResponseWriter, r *http.Request) {
	d, ok := ws.resolve(w, r)
	if !ok {
		return
	}
	asset := ledger.Address(r.URL.Query().Get("asset"))
	if asset.IsZero() {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Missing asset parameter")
		return
	}

	vaults := d.AvailableVaults(asset)
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"asset":  asset,
		"vaults": vaults,
		"count":  len(vaults),
	})
}

// handleGetQuote prices ?amount= of ?from= in ?to= through the zap contract
func (ws *WebServer) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	d, ok := ws.resolve(w, r)
	if !ok {
		return
	}
	quoter, ok := ws.opts.Quoters[d.Environment]
	if !ok {
		ws.writeErrorResponse(w, http.StatusServiceUnavailable, "Quotes are not served for this network")
		return
	}

	q := r.URL.Query()
	from, to := ledger.Address(q.Get("from")), ledger.Address(q.Get("to"))
	amountIn, parsed := sdkmath.NewIntFromString(q.Get("amount"))
	if from.IsZero() || to.IsZero() || !parsed || !amountIn.IsPositive() {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Quote requires from, to and a positive amount")
		return
	}

	out, err := quoter.GetSwapQuote(r.Context(), from, to, amountIn, types.Route{})
	if err != nil {
		webLogger.Error().Err(err).Str("network", string(d.Environment)).Msg("Failed to get swap quote")
		ws.writeErrorResponse(w, http.StatusBadGateway, "Failed to get swap quote")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"from":       from,
		"to":         to,
		"amount_in":  amountIn,
		"amount_out": out,
	})
}

// handleGetReceipts returns the most recent zap receipts
func (ws *WebServer) handleGetReceipts(w http.ResponseWriter, r *http.Request) {
	if !ws.requireJournal(w) {
		return
	}
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 100 {
			limit = parsedLimit
		}
	}

	receipts, err := ws.opts.Journal.RecentReceipts(r.Context(), limit)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get recent receipts")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve receipts")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"receipts": receipts,
		"count":    len(receipts),
		"limit":    limit,
	})
}

// handleGetReceipt returns the receipt of one invocation
func (ws *WebServer) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	if !ws.requireJournal(w) {
		return
	}
	id := mux.Vars(r)["id"]

	receipt, err := ws.opts.Journal.ReceiptByID(r.Context(), id)
	if errors.Is(err, state.ErrReceiptNotFound) {
		ws.writeErrorResponse(w, http.StatusNotFound, "Receipt not found")
		return
	}
	if err != nil {
		webLogger.Error().Err(err).Str("invocationId", id).Msg("Failed to get receipt")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve receipt")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, receipt)
}

// handleGetVaultStats returns per-vault zap aggregates
func (ws *WebServer) handleGetVaultStats(w http.ResponseWriter, r *http.Request) {
	if !ws.requireJournal(w) {
		return
	}
	stats, err := ws.opts.Journal.VaultStats(r.Context())
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get vault stats")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve vault stats")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"vaults": stats,
		"count":  len(stats),
	})
}

func (ws *WebServer) resolve(w http.ResponseWriter, r *http.Request) (config.Deployment, bool) {
	env, err := types.ParseEnvironment(mux.Vars(r)["network"])
	if err != nil {
		ws.writeErrorResponse(w, http.StatusNotFound, "Unknown network")
		return config.Deployment{}, false
	}
	d, err := ws.opts.Registry.Resolve(env)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusConflict, err.Error())
		return config.Deployment{}, false
	}
	return d, true
}

func (ws *WebServer) requireJournal(w http.ResponseWriter) bool {
	if ws.opts.Journal == nil {
		ws.writeErrorResponse(w, http.StatusServiceUnavailable, "Journal is not enabled")
		return false
	}
	return true
}

// writeJSONResponse writes a JSON response
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC(),
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// corsMiddleware adds CORS headers
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		webLogger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
