package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/elleon003/thrivebase/internal/domain/account"
	"github.com/elleon003/thrivebase/internal/domain/linking"
	"github.com/elleon003/thrivebase/internal/shared/middleware"
)

// PlaidHandler serves the institution link lifecycle endpoints.
type PlaidHandler struct {
	linking  *linking.Service
	accounts account.Repository
}

func NewPlaidHandler(linkingService *linking.Service, accounts account.Repository) *PlaidHandler {
	return &PlaidHandler{linking: linkingService, accounts: accounts}
}

type LinkTokenResponse struct {
	LinkToken string `json:"link_token"`
}

type ExchangeRequest struct {
	PublicToken string `json:"public_token"`
}

type ExchangeResponse struct {
	ItemID          string `json:"item_id"`
	InstitutionName string `json:"institution_name"`
	AccountsAdded   int    `json:"accounts_added"`
}

// HandleCreateLinkToken creates a link token for the provider's
// linking widget
func (h *PlaidHandler) HandleCreateLinkToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	linkToken, err := h.linking.CreateLinkToken(r.Context(), userID)
	if err != nil {
		log.Printf("Error creating link token for user %s: %v", userID, err)
		http.Error(w, "Failed to create link token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LinkTokenResponse{LinkToken: linkToken})
}

// HandleExchangePublicToken completes a link and stores the item's
// accounts
func (h *PlaidHandler) HandleExchangePublicToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req ExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.PublicToken == "" {
		http.Error(w, "Public token is required", http.StatusBadRequest)
		return
	}

	summary, err := h.linking.Exchange(r.Context(), userID, req.PublicToken)
	if err != nil {
		log.Printf("Error exchanging public token for user %s: %v", userID, err)
		http.Error(w, "Failed to link institution", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ExchangeResponse{
		ItemID:          summary.ItemID,
		InstitutionName: summary.InstitutionName,
		AccountsAdded:   summary.AccountsAdded,
	})
}

// HandleListAccounts returns the user's stored account rows
func (h *PlaidHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	accounts, err := h.accounts.ListByUser(r.Context(), userID)
	if err != nil {
		log.Printf("Error listing accounts for user %s: %v", userID, err)
		http.Error(w, "Failed to list accounts", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(accounts)
}

type RefreshResponse struct {
	ItemID          string `json:"item_id"`
	AccountsUpdated int    `json:"accounts_updated"`
}

// HandleRefreshAccounts re-fetches an item's balances and patches the
// stored rows
func (h *PlaidHandler) HandleRefreshAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	itemID := r.PathValue("itemID")
	if itemID == "" {
		http.Error(w, "Item ID is required", http.StatusBadRequest)
		return
	}

	updated, err := h.linking.RefreshAccounts(r.Context(), userID, itemID)
	if err != nil {
		if errors.Is(err, linking.ErrItemNotLinked) {
			http.Error(w, "Item not linked", http.StatusNotFound)
			return
		}
		log.Printf("Error refreshing accounts for item %s: %v", itemID, err)
		http.Error(w, "Failed to refresh accounts", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(RefreshResponse{ItemID: itemID, AccountsUpdated: updated})
}

// HandleDisconnect removes an institution link and its account rows
func (h *PlaidHandler) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	itemID := r.PathValue("itemID")
	if itemID == "" {
		http.Error(w, "Item ID is required", http.StatusBadRequest)
		return
	}

	if err := h.linking.Disconnect(r.Context(), userID, itemID); err != nil {
		log.Printf("Error disconnecting item %s for user %s: %v", itemID, userID, err)
		http.Error(w, "Failed to disconnect institution", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type InstitutionResponse struct {
	ItemID          string `json:"item_id"`
	InstitutionID   string `json:"institution_id"`
	InstitutionName string `json:"institution_name"`
	Status          string `json:"status"`
}

// HandleConnectedInstitutions lists the user's active institution links
func (h *PlaidHandler) HandleConnectedInstitutions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	institutions, err := h.linking.ConnectedInstitutions(r.Context(), userID)
	if err != nil {
		log.Printf("Error listing institutions for user %s: %v", userID, err)
		http.Error(w, "Failed to list institutions", http.StatusInternalServerError)
		return
	}

	response := make([]InstitutionResponse, 0, len(institutions))
	for _, inst := range institutions {
		response = append(response, InstitutionResponse{
			ItemID:          inst.ItemID,
			InstitutionID:   inst.InstitutionID,
			InstitutionName: inst.InstitutionName,
			Status:          string(inst.Status),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
