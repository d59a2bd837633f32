package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/elleon003/thrivebase/internal/domain/account"
	"github.com/elleon003/thrivebase/internal/shared/middleware"
)

// AccountHandler serves the read-only balance aggregation endpoints.
type AccountHandler struct {
	view *account.View
}

func NewAccountHandler(view *account.View) *AccountHandler {
	return &AccountHandler{view: view}
}

// SummaryTotals mirrors the client's expected summary shape: totals as
// plain floats, exactness is only needed store-side.
type SummaryTotals struct {
	TotalCurrentBalance   float64 `json:"total_current_balance"`
	TotalAvailableBalance float64 `json:"total_available_balance"`
	TotalAccounts         int     `json:"total_accounts"`
}

type SummaryResponse struct {
	Accounts []*account.Account `json:"accounts"`
	Summary  SummaryTotals      `json:"summary"`
}

// HandleAccountSummary returns all accounts with their balance totals
func (h *AccountHandler) HandleAccountSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	summary, err := h.view.Summary(r.Context(), userID)
	if err != nil {
		log.Printf("Error summarizing accounts for user %s: %v", userID, err)
		http.Error(w, "Failed to summarize accounts", http.StatusInternalServerError)
		return
	}

	response := SummaryResponse{
		Accounts: summary.Accounts,
		Summary: SummaryTotals{
			TotalCurrentBalance:   summary.Totals.Current.InexactFloat64(),
			TotalAvailableBalance: summary.Totals.Available.InexactFloat64(),
			TotalAccounts:         summary.Totals.Count,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
