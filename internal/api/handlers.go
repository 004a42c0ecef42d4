package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/fintrack/portfolio-service/internal/database"
	"github.com/fintrack/portfolio-service/internal/kafka"
	"github.com/fintrack/portfolio-service/internal/ledger"
	"github.com/fintrack/portfolio-service/internal/marketdata"
	"github.com/fintrack/portfolio-service/internal/models"
	"github.com/fintrack/portfolio-service/internal/portfolio"
)

const defaultRSIPeriod = 14

var symbolPattern = regexp.MustCompile(`^[A-Z]{1,5}$`)

// Store defines the read queries handlers use directly.
type Store interface {
	ListTransactionsByOwner(ownerID string) ([]*models.Transaction, error)
	ListTransactionsBySymbol(ownerID, symbol string) ([]*models.Transaction, error)
	GetPosition(ownerID, symbol string) (*models.Position, error)
	ListPositions(ownerID string) ([]*models.Position, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	ledger       *ledger.Service
	valuer       *portfolio.Valuer
	indicators   *portfolio.Indicators
	store        Store
	prices       marketdata.Provider
	demo         *marketdata.DemoProvider
	producer     *kafka.Producer
	lookbackDays int
}

// NewHandler creates a new Handler
func NewHandler(
	ledgerSvc *ledger.Service,
	valuer *portfolio.Valuer,
	indicators *portfolio.Indicators,
	store Store,
	prices marketdata.Provider,
	demo *marketdata.DemoProvider,
	producer *kafka.Producer,
	lookbackDays int,
) *Handler {
	if lookbackDays <= 0 {
		lookbackDays = 100
	}
	return &Handler{
		ledger:       ledgerSvc,
		valuer:       valuer,
		indicators:   indicators,
		store:        store,
		prices:       prices,
		demo:         demo,
		producer:     producer,
		lookbackDays: lookbackDays,
	}
}

// CreateTransaction handles POST /transactions
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	var req struct {
		Symbol        string          `json:"symbol"`
		CompanyName   string          `json:"company_name"`
		Side          string          `json:"side"`
		Quantity      int64           `json:"quantity"`
		PricePerShare decimal.Decimal `json:"price_per_share"`
		Fees          decimal.Decimal `json:"fees"`
		Notes         string          `json:"notes"`
		ExecutedAt    time.Time       `json:"executed_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tx, err := h.ledger.CreateTransaction(ledger.CreateTransactionRequest{
		OwnerID:       ownerID,
		Symbol:        req.Symbol,
		CompanyName:   req.CompanyName,
		Side:          strings.ToUpper(strings.TrimSpace(req.Side)),
		Quantity:      req.Quantity,
		PricePerShare: req.PricePerShare,
		Fees:          req.Fees,
		Notes:         req.Notes,
		ExecutedAt:    req.ExecutedAt,
	})
	if err != nil {
		respondLedgerError(w, err)
		return
	}

	h.publishTransactionEvents(r, tx, false)
	respondJSON(w, http.StatusCreated, tx)
}

// DeleteTransaction handles DELETE /transactions/{id}
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	tx, err := h.ledger.DeleteTransaction(ownerID, id)
	if err != nil {
		respondLedgerError(w, err)
		return
	}

	h.publishTransactionEvents(r, tx, true)
	w.WriteHeader(http.StatusNoContent)
}

// GetTransactions handles GET /transactions
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	transactions, err := h.store.ListTransactionsByOwner(ownerID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if transactions == nil {
		transactions = []*models.Transaction{}
	}
	respondJSON(w, http.StatusOK, transactions)
}

// GetTransactionsBySymbol handles GET /transactions/{symbol}
func (h *Handler) GetTransactionsBySymbol(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	symbol, ok := requireSymbol(w, mux.Vars(r)["symbol"])
	if !ok {
		return
	}

	transactions, err := h.store.ListTransactionsBySymbol(ownerID, symbol)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if transactions == nil {
		transactions = []*models.Transaction{}
	}
	respondJSON(w, http.StatusOK, transactions)
}

// GetPortfolio handles GET /portfolio
func (h *Handler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	positions, err := h.store.ListPositions(ownerID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if positions == nil {
		positions = []*models.Position{}
	}
	respondJSON(w, http.StatusOK, positions)
}

// GetPosition handles GET /portfolio/{symbol}
func (h *Handler) GetPosition(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	symbol, ok := requireSymbol(w, mux.Vars(r)["symbol"])
	if !ok {
		return
	}

	position, err := h.store.GetPosition(ownerID, symbol)
	if errors.Is(err, database.ErrPositionNotFound) {
		respondError(w, http.StatusNotFound, "no position for symbol "+symbol)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, position)
}

// GetPortfolioSummary handles GET /portfolio/summary
func (h *Handler) GetPortfolioSummary(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	summary, err := h.valuer.Summarize(ownerID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// RefreshPrices handles POST /portfolio/refresh
func (h *Handler) RefreshPrices(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.ownerID(w, r)
	if !ok {
		return
	}

	refreshed, err := h.valuer.RefreshPrices(r.Context(), ownerID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"refreshed": refreshed})
}

// GetDailySeries handles GET /stocks/{symbol}/daily
func (h *Handler) GetDailySeries(w http.ResponseWriter, r *http.Request) {
	symbol, ok := requireSymbol(w, mux.Vars(r)["symbol"])
	if !ok {
		return
	}

	series, err := marketdata.SeriesWithFallback(r.Context(), h.prices, h.demo, symbol, h.lookbackDays)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, series)
}

// GetRSI handles GET /stocks/{symbol}/rsi
func (h *Handler) GetRSI(w http.ResponseWriter, r *http.Request) {
	symbol, ok := requireSymbol(w, mux.Vars(r)["symbol"])
	if !ok {
		return
	}

	period := defaultRSIPeriod
	if raw := r.URL.Query().Get("period"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p <= 0 {
			respondError(w, http.StatusBadRequest, "period must be a positive integer")
			return
		}
		period = p
	}

	respondJSON(w, http.StatusOK, h.indicators.RSI(r.Context(), symbol, period))
}

// GetMACD handles GET /stocks/{symbol}/macd
func (h *Handler) GetMACD(w http.ResponseWriter, r *http.Request) {
	symbol, ok := requireSymbol(w, mux.Vars(r)["symbol"])
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, h.indicators.MACD(r.Context(), symbol))
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// publishTransactionEvents emits the transaction event plus the resulting
// position state. Publish failures are logged, never surfaced to the caller.
func (h *Handler) publishTransactionEvents(r *http.Request, tx *models.Transaction, deleted bool) {
	if h.producer == nil {
		return
	}
	ctx := r.Context()

	publish := h.producer.PublishTransactionCreated
	if deleted {
		publish = h.producer.PublishTransactionDeleted
	}
	if err := publish(ctx, tx); err != nil {
		log.Printf("failed to publish transaction event: %v", err)
	}

	position, err := h.store.GetPosition(tx.OwnerID, tx.Symbol)
	if errors.Is(err, database.ErrPositionNotFound) {
		if err := h.producer.PublishPositionClosed(ctx, tx.OwnerID, tx.Symbol); err != nil {
			log.Printf("failed to publish position event: %v", err)
		}
		return
	}
	if err != nil {
		log.Printf("failed to load position for event: %v", err)
		return
	}
	if err := h.producer.PublishPositionUpdated(ctx, position); err != nil {
		log.Printf("failed to publish position event: %v", err)
	}
}

func (h *Handler) ownerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	ownerID := r.Header.Get("X-User-ID")
	if ownerID == "" {
		respondError(w, http.StatusUnauthorized, "X-User-ID header is required")
		return "", false
	}
	return ownerID, true
}

func requireSymbol(w http.ResponseWriter, raw string) (string, bool) {
	symbol := strings.ToUpper(strings.TrimSpace(raw))
	if !symbolPattern.MatchString(symbol) {
		respondError(w, http.StatusBadRequest, "symbol must be 1-5 letters")
		return "", false
	}
	return symbol, true
}

func respondLedgerError(w http.ResponseWriter, err error) {
	var insufficientErr *ledger.InsufficientPositionError
	var invalidErr *ledger.InvalidInputError
	switch {
	case errors.As(err, &insufficientErr), errors.As(err, &invalidErr):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrTransactionNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error":     message,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
