package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"

	"github.com/opensurety/flightsurety-backend/api"
	"github.com/opensurety/flightsurety-backend/interfaces"
	"github.com/opensurety/flightsurety-backend/ledger"
	"github.com/opensurety/flightsurety-backend/metrics"
)

// maxBodySize is the maximum allowed request body size (1MB).
const maxBodySize = 1024 * 1024

// Handler translates HTTP requests into ledger entry points.
type Handler struct {
	ledger *ledger.Ledger
	log    *slog.Logger
}

// NewHandler creates a request handler around the ledger.
func NewHandler(l *ledger.Ledger, log *slog.Logger) *Handler {
	return &Handler{
		ledger: l,
		log:    log,
	}
}

// HandleIsOperational reports the contract-wide operational gate.
//
// URL format: GET /api/public/operational
func (h *Handler) HandleIsOperational(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, api.OperationalResponse{Operational: h.ledger.IsOperational()})
}

// HandleSetOperational flips the operational gate. Admin only.
//
// URL format: POST /api/admin/operational
// Request body: {"mode": true|false}
func (h *Handler) HandleSetOperational(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.callerFrom(w, r)
	if !ok {
		return
	}

	var req api.SetOperationalRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	if err := h.ledger.SetOperatingStatus(r.Context(), caller, req.Mode); err != nil {
		h.writeError(w, "set_operational", err)
		return
	}
	metrics.LedgerOps.WithLabelValues("set_operational", "ok").Inc()
	h.writeJSON(w, api.OperationalResponse{Operational: req.Mode})
}

// HandleAuthorizeCaller whitelists an application contract. Admin only.
//
// URL format: POST /api/admin/callers/{address}
func (h *Handler) HandleAuthorizeCaller(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.callerFrom(w, r)
	if !ok {
		return
	}
	identity, ok := h.addressParam(w, r)
	if !ok {
		return
	}

	if err := h.ledger.AuthorizeCaller(r.Context(), caller, identity); err != nil {
		h.writeError(w, "authorize_caller", err)
		return
	}
	metrics.LedgerOps.WithLabelValues("authorize_caller", "ok").Inc()
	w.WriteHeader(http.StatusNoContent)
}

// HandleDeauthorizeCaller removes an application contract from the
// whitelist. Admin only.
//
// URL format: DELETE /api/admin/callers/{address}
func (h *Handler) HandleDeauthorizeCaller(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.callerFrom(w, r)
	if !ok {
		return
	}
	identity, ok := h.addressParam(w, r)
	if !ok {
		return
	}

	if err := h.ledger.DeauthorizeCaller(r.Context(), caller, identity); err != nil {
		h.writeError(w, "deauthorize_caller", err)
		return
	}
	metrics.LedgerOps.WithLabelValues("deauthorize_caller", "ok").Inc()
	w.WriteHeader(http.StatusNoContent)
}

// HandleAirlineStatus reports an airline's membership state.
//
// URL format: GET /api/public/airlines/{address}
func (h *Handler) HandleAirlineStatus(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.addressParam(w, r)
	if !ok {
		return
	}

	h.writeJSON(w, api.AirlineStatusResponse{
		Registered: h.ledger.IsRegisteredAirline(identity),
		Funded:     h.ledger.IsFundedAirline(identity),
	})
}

// HandleAirlineCount reports how many airlines are registered.
//
// URL format: GET /api/public/airlines
func (h *Handler) HandleAirlineCount(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, api.AirlineCountResponse{Count: h.ledger.RegisteredAirlineCount()})
}

// HandleRegisterAirline nominates a candidate airline. The caller must be a
// whitelisted application contract acting for the origin airline.
//
// URL format: POST /api/airlines/register
// Request body: {"origin": "<hex address>", "candidate": "<hex address>"}
func (h *Handler) HandleRegisterAirline(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.callerFrom(w, r)
	if !ok {
		return
	}

	var req api.RegisterAirlineRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	registered, votes, err := h.ledger.RegisterAirline(r.Context(), caller, req.Origin, req.Candidate)
	if err != nil {
		h.writeError(w, "register_airline", err)
		return
	}
	metrics.LedgerOps.WithLabelValues("register_airline", "ok").Inc()
	h.writeJSON(w, api.RegisterAirlineResponse{Registered: registered, Votes: votes})
}

// HandleFund submits the calling airline's registration ante.
//
// URL format: POST /api/airlines/fund
// Request body: {"payment": "<hex amount>"}
func (h *Handler) HandleFund(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.callerFrom(w, r)
	if !ok {
		return
	}

	var req api.FundRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	refund, err := h.ledger.Fund(r.Context(), caller, req.Payment.ToInt())
	if err != nil {
		h.writeError(w, "fund", err)
		return
	}
	metrics.LedgerOps.WithLabelValues("fund", "ok").Inc()

	resp := api.FundResponse{Funded: true}
	if refund != nil && refund.Sign() > 0 {
		resp.Refund = (*hexutil.Big)(refund)
	}
	h.writeJSON(w, resp)
}

// HandleBuy purchases insurance on a flight for the caller.
//
// URL format: POST /api/insurance/buy
// Request body: {"flight": {...}, "payment": "<hex amount>"}
func (h *Handler) HandleBuy(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.callerFrom(w, r)
	if !ok {
		return
	}

	var req api.BuyRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	if err := h.ledger.Buy(r.Context(), caller, req.Flight.Flight(), req.Payment.ToInt()); err != nil {
		h.writeError(w, "buy", err)
		return
	}
	metrics.LedgerOps.WithLabelValues("buy", "ok").Inc()
	w.WriteHeader(http.StatusNoContent)
}

// HandleInsuranceAmount reports the caller's accumulated premium on one
// flight.
//
// URL format: GET /api/public/insurance?airline=<hex>&number=AA123&departure=<unix>
func (h *Handler) HandleInsuranceAmount(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.callerFrom(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	airline, err := interfaces.NewIdentityFromHex(q.Get("airline"))
	if err != nil {
		h.badRequest(w, fmt.Errorf("invalid airline address: %w", err))
		return
	}
	departure, err := strconv.ParseInt(q.Get("departure"), 10, 64)
	if err != nil {
		h.badRequest(w, fmt.Errorf("invalid departure timestamp: %w", err))
		return
	}
	flight := interfaces.Flight{Airline: airline, Number: q.Get("number"), Departure: departure}

	amount := h.ledger.InsuranceAmount(caller, flight)
	h.writeJSON(w, api.PolicyResponse{Amount: (*hexutil.Big)(amount)})
}

// HandleCreditInsurees settles a flight. The caller must be a whitelisted
// application contract.
//
// URL format: POST /api/insurance/credit
// Request body: {"flight": {...}, "multiplier": 3, "divider": 2}
func (h *Handler) HandleCreditInsurees(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.callerFrom(w, r)
	if !ok {
		return
	}

	var req api.CreditInsureesRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	insurees, err := h.ledger.CreditInsurees(r.Context(), caller, req.Flight.Flight(), req.Multiplier, req.Divider)
	if err != nil {
		h.writeError(w, "credit_insurees", err)
		return
	}
	metrics.LedgerOps.WithLabelValues("credit_insurees", "ok").Inc()
	h.writeJSON(w, api.CreditInsureesResponse{Insurees: insurees})
}

// HandleCreditBalance reports a passenger's withdrawable credit.
//
// URL format: GET /api/public/credits/{address}
func (h *Handler) HandleCreditBalance(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.addressParam(w, r)
	if !ok {
		return
	}

	credit := h.ledger.CreditBalance(identity)
	h.writeJSON(w, api.CreditResponse{Credit: (*hexutil.Big)(credit)})
}

// HandlePay withdraws the caller's entire credit balance.
//
// URL format: POST /api/insurance/pay
func (h *Handler) HandlePay(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.callerFrom(w, r)
	if !ok {
		return
	}

	paid, err := h.ledger.Pay(r.Context(), caller)
	if err != nil {
		h.writeError(w, "pay", err)
		return
	}
	metrics.LedgerOps.WithLabelValues("pay", "ok").Inc()
	h.writeJSON(w, api.PayResponse{Paid: (*hexutil.Big)(paid)})
}

func (h *Handler) callerFrom(w http.ResponseWriter, r *http.Request) (interfaces.Identity, bool) {
	raw := r.Header.Get(api.CallerHeader)
	if raw == "" {
		h.badRequest(w, fmt.Errorf("missing %s header", api.CallerHeader))
		return interfaces.Identity{}, false
	}
	caller, err := interfaces.NewIdentityFromHex(raw)
	if err != nil {
		h.badRequest(w, fmt.Errorf("invalid caller address: %w", err))
		return interfaces.Identity{}, false
	}
	return caller, true
}

func (h *Handler) addressParam(w http.ResponseWriter, r *http.Request) (interfaces.Identity, bool) {
	identity, err := interfaces.NewIdentityFromHex(chi.URLParam(r, "address"))
	if err != nil {
		h.badRequest(w, fmt.Errorf("invalid address: %w", err))
		return interfaces.Identity{}, false
	}
	return identity, true
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(dst); err != nil {
		h.badRequest(w, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func (h *Handler) badRequest(w http.ResponseWriter, err error) {
	h.log.Debug("Rejected malformed request", "err", err)
	writeErrorBody(w, http.StatusBadRequest, err)
}

// writeError maps ledger sentinel errors to HTTP status codes and records
// the rejected operation.
func (h *Handler) writeError(w http.ResponseWriter, operation string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, interfaces.ErrGateClosed):
		status = http.StatusServiceUnavailable
	case errors.Is(err, interfaces.ErrNotAuthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, interfaces.ErrInsufficientPayment):
		status = http.StatusBadRequest
	case errors.Is(err, interfaces.ErrNotRegistered),
		errors.Is(err, interfaces.ErrNotFunded),
		errors.Is(err, interfaces.ErrAlreadyRegistered),
		errors.Is(err, interfaces.ErrAlreadyFunded),
		errors.Is(err, interfaces.ErrDuplicateVote),
		errors.Is(err, interfaces.ErrLimitExceeded),
		errors.Is(err, interfaces.ErrNoCredit):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.log.Error("Ledger operation failed", slog.String("operation", operation), "err", err)
	} else {
		h.log.Debug("Ledger operation rejected", slog.String("operation", operation), "err", err)
	}
	metrics.LedgerOps.WithLabelValues(operation, "rejected").Inc()
	writeErrorBody(w, status, err)
}

func (h *Handler) writeJSON(w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

func writeErrorBody(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: err.Error()})
}
