package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	migratordistributor "humanity/contexts/finance-core/migrator-distributor"
	distributorerrors "humanity/contexts/finance-core/migrator-distributor/domain/errors"
	distributorhttp "humanity/contexts/finance-core/migrator-distributor/transport/http"
	"humanity/internal/platform/ledgerbridge"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "humanity/internal/platform/httpserver/docs"
)

const callerHeader = "X-Caller-Address"

type Server struct {
	mux         *http.ServeMux
	http        *http.Server
	logger      *slog.Logger
	addr        string
	distributor migratordistributor.Module
	ledgers     *ledgerbridge.Directory
	metrics     http.Handler
}

func New(
	distributor migratordistributor.Module,
	ledgers *ledgerbridge.Directory,
	metrics http.Handler,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}
	if ledgers == nil {
		ledgers = ledgerbridge.NewDirectory()
	}

	s := &Server{
		mux:         http.NewServeMux(),
		logger:      logger,
		addr:        addr,
		distributor: distributor,
		ledgers:     ledgers,
		metrics:     metrics,
	}
	s.registerRoutes()
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server stopping",
		"event", "http_server_stopping",
		"module", "internal/platform/httpserver",
		"layer", "platform",
	)
	return s.http.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("GET /api/hmn/v1/state", s.handleGetDistributorState)
	s.mux.HandleFunc("PUT /api/hmn/v1/config/tax", s.handleConfigureTax)
	s.mux.HandleFunc("PUT /api/hmn/v1/config/addresses", s.handleConfigureAddresses)
	s.mux.HandleFunc("PUT /api/hmn/v1/token-pair", s.handleSetTokenPair)
	s.mux.HandleFunc("POST /api/hmn/v1/migration-reserve", s.handleAddToReserve)
	s.mux.HandleFunc("POST /api/hmn/v1/fees/distribute", s.handleDistributeFees)
	s.mux.HandleFunc("POST /api/hmn/v1/migrations", s.handleMigrate)

	s.registerLedgerRoutes()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetDistributorState(w http.ResponseWriter, r *http.Request) {
	resp, err := s.distributor.Handler.GetStateHandler(r.Context())
	if err != nil {
		writeDistributorDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleConfigureTax(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req distributorhttp.ConfigureTaxRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.distributor.Handler.ConfigureTaxHandler(r.Context(), caller, req)
	if err != nil {
		writeDistributorDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleConfigureAddresses(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req distributorhttp.ConfigureAddressesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.distributor.Handler.ConfigureAddressesHandler(r.Context(), caller, req)
	if err != nil {
		writeDistributorDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetTokenPair(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req distributorhttp.SetTokenPairRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.distributor.Handler.SetTokenPairHandler(r.Context(), caller, req)
	if err != nil {
		writeDistributorDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddToReserve(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req distributorhttp.AmountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.distributor.Handler.AddToReserveHandler(r.Context(), caller, req)
	if err != nil {
		writeDistributorDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDistributeFees(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req distributorhttp.DistributeFeesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.distributor.Handler.DistributeFeesHandler(r.Context(), caller, req)
	if err != nil {
		writeDistributorDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMigrate(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req distributorhttp.AmountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.distributor.Handler.MigrateHandler(r.Context(), caller, req)
	if err != nil {
		writeDistributorDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeDistributorDomainError(w http.ResponseWriter, err error) {
	switch distributorerrors.KindOf(err) {
	case distributorerrors.KindAuthorization:
		writeError(w, http.StatusForbidden, "caller_not_owner", err.Error())
	case distributorerrors.KindValidation:
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case distributorerrors.KindInsufficientReserve:
		writeError(w, http.StatusConflict, "insufficient_reserve", err.Error())
	case distributorerrors.KindTransferCapExceeded:
		writeError(w, http.StatusUnprocessableEntity, "HMN01", err.Error())
	case distributorerrors.KindExternalCall:
		writeError(w, http.StatusFailedDependency, "external_call_failed", err.Error())
	case distributorerrors.KindReentrancy:
		writeError(w, http.StatusConflict, "reentrant_call", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func requireCaller(w http.ResponseWriter, r *http.Request) (string, bool) {
	caller := strings.TrimSpace(r.Header.Get(callerHeader))
	if caller == "" {
		writeError(w, http.StatusUnauthorized, "missing_caller", callerHeader+" header is required")
		return "", false
	}
	return caller, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, distributorhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
