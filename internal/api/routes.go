package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Transaction routes
	api.HandleFunc("/transactions", handler.CreateTransaction).Methods("POST")
	api.HandleFunc("/transactions", handler.GetTransactions).Methods("GET")
	api.HandleFunc("/transactions/{id:[0-9]+}", handler.DeleteTransaction).Methods("DELETE")
	api.HandleFunc("/transactions/{symbol}", handler.GetTransactionsBySymbol).Methods("GET")

	// Portfolio routes; fixed paths register before the symbol wildcard
	api.HandleFunc("/portfolio", handler.GetPortfolio).Methods("GET")
	api.HandleFunc("/portfolio/summary", handler.GetPortfolioSummary).Methods("GET")
	api.HandleFunc("/portfolio/refresh", handler.RefreshPrices).Methods("POST")
	api.HandleFunc("/portfolio/{symbol}", handler.GetPosition).Methods("GET")

	// Market data and indicator routes
	api.HandleFunc("/stocks/{symbol}/daily", handler.GetDailySeries).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/rsi", handler.GetRSI).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/macd", handler.GetMACD).Methods("GET")

	return r
}
