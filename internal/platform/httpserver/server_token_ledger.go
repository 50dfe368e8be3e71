package httpserver

import (
	"errors"
	"net/http"

	ledgerhttpadapter "humanity/contexts/finance-core/token-ledger/adapters/http"
	ledgererrors "humanity/contexts/finance-core/token-ledger/domain/errors"
	ledgerhttp "humanity/contexts/finance-core/token-ledger/transport/http"
)

func (s *Server) registerLedgerRoutes() {
	s.mux.HandleFunc("GET /api/ledger/v1/tokens/{token}", s.handleGetToken)
	s.mux.HandleFunc("GET /api/ledger/v1/tokens/{token}/balances/{account}", s.handleGetBalance)
	s.mux.HandleFunc("POST /api/ledger/v1/tokens/{token}/transfer", s.handleTransfer)
	s.mux.HandleFunc("POST /api/ledger/v1/tokens/{token}/transfer-from", s.handleTransferFrom)
	s.mux.HandleFunc("POST /api/ledger/v1/tokens/{token}/approve", s.handleApprove)
	s.mux.HandleFunc("PUT /api/ledger/v1/tokens/{token}/router", s.handleSetRouter)
	s.mux.HandleFunc("POST /api/ledger/v1/tokens/{token}/pause", s.handlePause)
	s.mux.HandleFunc("POST /api/ledger/v1/tokens/{token}/unpause", s.handleUnpause)
}

// ledgerHandler resolves the {token} path segment to a registered ledger.
func (s *Server) ledgerHandler(w http.ResponseWriter, r *http.Request) (ledgerhttpadapter.Handler, bool) {
	token, err := ledgerhttpadapter.ParseAddress(r.PathValue("token"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return ledgerhttpadapter.Handler{}, false
	}
	service, ok := s.ledgers.Service(token)
	if !ok {
		writeError(w, http.StatusNotFound, "token_not_found", ledgererrors.ErrTokenNotFound.Error())
		return ledgerhttpadapter.Handler{}, false
	}
	return ledgerhttpadapter.Handler{Service: service, Logger: s.logger}, true
}

func (s *Server) handleGetToken(w http.ResponseWriter, r *http.Request) {
	handler, ok := s.ledgerHandler(w, r)
	if !ok {
		return
	}
	resp, err := handler.GetTokenHandler(r.Context())
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	handler, ok := s.ledgerHandler(w, r)
	if !ok {
		return
	}
	resp, err := handler.BalanceHandler(r.Context(), r.PathValue("account"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	handler, ok := s.ledgerHandler(w, r)
	if !ok {
		return
	}
	var req ledgerhttp.TransferRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := handler.TransferHandler(r.Context(), caller, req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTransferFrom(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	handler, ok := s.ledgerHandler(w, r)
	if !ok {
		return
	}
	var req ledgerhttp.TransferFromRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := handler.TransferFromHandler(r.Context(), caller, req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	handler, ok := s.ledgerHandler(w, r)
	if !ok {
		return
	}
	var req ledgerhttp.ApproveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := handler.ApproveHandler(r.Context(), caller, req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetRouter(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	handler, ok := s.ledgerHandler(w, r)
	if !ok {
		return
	}
	var req ledgerhttp.SetRouterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := handler.SetRouterHandler(r.Context(), caller, req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	handler, ok := s.ledgerHandler(w, r)
	if !ok {
		return
	}
	resp, err := handler.PauseHandler(r.Context(), caller)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUnpause(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	handler, ok := s.ledgerHandler(w, r)
	if !ok {
		return
	}
	resp, err := handler.UnpauseHandler(r.Context(), caller)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeLedgerDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledgererrors.ErrTransferCapExceeded):
		writeLedgerError(w, http.StatusUnprocessableEntity, "HMN01", err.Error())
	case errors.Is(err, ledgererrors.ErrCallerNotOwner):
		writeLedgerError(w, http.StatusForbidden, "caller_not_owner", err.Error())
	case errors.Is(err, ledgererrors.ErrTokenNotFound):
		writeLedgerError(w, http.StatusNotFound, "token_not_found", err.Error())
	case errors.Is(err, ledgererrors.ErrPaused),
		errors.Is(err, ledgererrors.ErrAlreadyPaused),
		errors.Is(err, ledgererrors.ErrNotPaused):
		writeLedgerError(w, http.StatusConflict, "pause_state", err.Error())
	case errors.Is(err, ledgererrors.ErrInsufficientBalance),
		errors.Is(err, ledgererrors.ErrInsufficientAllowance):
		writeLedgerError(w, http.StatusConflict, "insufficient_funds", err.Error())
	case errors.Is(err, ledgererrors.ErrZeroAddress),
		errors.Is(err, ledgererrors.ErrInvalidAmount),
		errors.Is(err, ledgererrors.ErrInvalidInput):
		writeLedgerError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeLedgerError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeLedgerError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ledgerhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
