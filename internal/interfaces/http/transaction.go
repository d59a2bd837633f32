package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/elleon003/thrivebase/internal/domain/transaction"
	"github.com/elleon003/thrivebase/internal/shared/middleware"
)

// TransactionHandler serves the append-only transaction log.
type TransactionHandler struct {
	service *transaction.Service
}

func NewTransactionHandler(service *transaction.Service) *TransactionHandler {
	return &TransactionHandler{service: service}
}

type StoreTransactionsRequest struct {
	Transactions []transaction.Entry `json:"transactions"`
}

type StoreTransactionsResponse struct {
	Stored int `json:"stored"`
}

// HandleStoreTransactions validates and stores a batch of transactions
func (h *TransactionHandler) HandleStoreTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req StoreTransactionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.StoreBatch(r.Context(), userID, req.Transactions); err != nil {
		if errors.Is(err, transaction.ErrMissingAccountID) || errors.Is(err, transaction.ErrMissingDate) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("Error storing transactions for user %s: %v", userID, err)
		http.Error(w, "Failed to store transactions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(StoreTransactionsResponse{Stored: len(req.Transactions)})
}

// HandleUserTransactions lists the user's transactions, optionally
// filtered by account_id
func (h *TransactionHandler) HandleUserTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	accountID := r.URL.Query().Get("account_id")

	transactions, err := h.service.ListByUser(r.Context(), userID, accountID)
	if err != nil {
		log.Printf("Error listing transactions for user %s: %v", userID, err)
		http.Error(w, "Failed to list transactions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(transactions)
}
