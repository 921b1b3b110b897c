package api

import (
	"encoding/json"
	"net/http"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"github.com/sheikh-saqib/token-ledger/internal/host"
	"github.com/sheikh-saqib/token-ledger/internal/ledger"
	"github.com/sheikh-saqib/token-ledger/internal/metrics"
	"github.com/sheikh-saqib/token-ledger/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CallerHeader carries the base58 id of the account invoking a mutating call.
const CallerHeader = "X-Caller"

type Server struct {
	host    *host.Host
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewServer(h *host.Host, m *metrics.Metrics, logger *zap.Logger) *Server {
	return &Server{host: h, metrics: m, logger: logger}
}

// Handler returns the routed API. An empty corsOrigins disables CORS headers.
func (s *Server) Handler(corsOrigins []string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /token", s.handleToken)
	mux.HandleFunc("GET /accounts/balance", s.handleBalance)
	mux.HandleFunc("GET /allowance", s.handleAllowance)
	mux.HandleFunc("POST /transfers", s.handleTransfer)
	mux.HandleFunc("POST /transfers/delegated", s.handleTransferFrom)
	mux.HandleFunc("POST /approvals", s.handleApprove)
	mux.HandleFunc("GET /supply/audit", s.handleAudit)
	mux.Handle("GET /metrics", s.metrics.Handler())

	if len(corsOrigins) == 0 {
		return mux
	}
	return cors.New(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", CallerHeader},
	}).Handler(mux)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// badRequest marks client input errors.
type badRequest struct{ error }

type unauthorized struct{ error }

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		bad    badRequest
		unauth unauthorized
	)
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &bad):
		status = http.StatusBadRequest
	case errors.As(err, &unauth):
		status = http.StatusUnauthorized
	case errors.Is(err, ledger.ErrInsufficientBalance), errors.Is(err, ledger.ErrInsufficientAllowance):
		status = http.StatusUnprocessableEntity
	default:
		s.logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func parseAccount(field, value string) (models.AccountID, error) {
	if value == "" {
		return models.AccountID{}, badRequest{errors.Errorf("%s is a mandatory field", field)}
	}
	id, err := models.ParseAccountID(value)
	if err != nil {
		return models.AccountID{}, badRequest{errors.Wrap(err, field)}
	}
	return id, nil
}

func parseAmount(field, value string) (uint256.Int, error) {
	if value == "" {
		return uint256.Int{}, badRequest{errors.Errorf("%s is a mandatory field", field)}
	}
	v, err := uint256.FromDecimal(value)
	if err != nil {
		return uint256.Int{}, badRequest{errors.Wrapf(err, "%s must be a non-negative integer", field)}
	}
	return *v, nil
}

func callerOf(r *http.Request) (models.AccountID, error) {
	value := r.Header.Get(CallerHeader)
	if value == "" {
		return models.AccountID{}, unauthorized{errors.Errorf("%s header is required", CallerHeader)}
	}
	id, err := models.ParseAccountID(value)
	if err != nil {
		return models.AccountID{}, unauthorized{errors.Wrap(err, CallerHeader)}
	}
	return id, nil
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest{errors.Wrap(err, "invalid request body")}
	}
	return nil
}

// displayAmount scales a raw amount by the token's decimals.
func displayAmount(v uint256.Int, decimals uint8) string {
	return decimal.NewFromBigInt(v.ToBig(), -int32(decimals)).String()
}
