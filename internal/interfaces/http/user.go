package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/elleon003/thrivebase/internal/domain/account"
	"github.com/elleon003/thrivebase/internal/domain/user"
	"github.com/elleon003/thrivebase/internal/shared/auth"
	"github.com/elleon003/thrivebase/internal/shared/middleware"
)

// UserHandler serves the current-user surface: profile, grouped
// account listing, and full data erasure.
type UserHandler struct {
	users  user.Repository
	view   *account.View
	eraser *user.Eraser
}

func NewUserHandler(users user.Repository, view *account.View, eraser *user.Eraser) *UserHandler {
	return &UserHandler{users: users, view: view, eraser: eraser}
}

// HandleMe returns the authenticated user's profile
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	found, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		log.Printf("Error loading user %s: %v", userID, err)
		http.Error(w, "Failed to load profile", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(found)
}

type UpdateProfileRequest struct {
	Email           string `json:"email"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// HandleUpdateProfile changes the authenticated user's email and/or
// password. Any change requires the current password.
func (h *UserHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" && req.NewPassword == "" {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "success"})
		return
	}
	if req.Email != "" && !strings.Contains(req.Email, "@") {
		http.Error(w, "Valid email is required", http.StatusBadRequest)
		return
	}
	if req.NewPassword != "" && len(req.NewPassword) < 8 {
		http.Error(w, "Password must be at least 8 characters", http.StatusBadRequest)
		return
	}

	found, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		log.Printf("Error loading user %s: %v", userID, err)
		http.Error(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}

	if err := auth.VerifyPassword(found.PasswordHash, req.CurrentPassword); err != nil {
		http.Error(w, "Current password is incorrect", http.StatusUnauthorized)
		return
	}

	params := user.UpdateParams{}
	if req.Email != "" && req.Email != found.Email {
		existing, err := h.users.GetByEmail(r.Context(), req.Email)
		if err != nil && !errors.Is(err, user.ErrNotFound) {
			log.Printf("Error checking email for user %s: %v", userID, err)
			http.Error(w, "Failed to update profile", http.StatusInternalServerError)
			return
		}
		if existing != nil && existing.ID != userID {
			http.Error(w, "Email already registered", http.StatusConflict)
			return
		}
		params.Email = req.Email
	}
	if req.NewPassword != "" {
		hash, err := auth.HashPassword(req.NewPassword)
		if err != nil {
			log.Printf("Error hashing password: %v", err)
			http.Error(w, "Failed to update profile", http.StatusInternalServerError)
			return
		}
		params.PasswordHash = hash
	}

	if err := h.users.UpdateCredentials(r.Context(), userID, params); err != nil {
		log.Printf("Error updating profile for user %s: %v", userID, err)
		http.Error(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "success"})
}

type ConnectedAccountsResponse struct {
	Institutions []InstitutionGroupResponse `json:"institutions"`
}

type InstitutionGroupResponse struct {
	InstitutionName string             `json:"institution_name"`
	InstitutionID   string             `json:"institution_id,omitempty"`
	Accounts        []*account.Account `json:"accounts"`
}

// HandleConnectedAccounts returns the user's accounts grouped by
// institution
func (h *UserHandler) HandleConnectedAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	groups, err := h.view.ByInstitution(r.Context(), userID)
	if err != nil {
		log.Printf("Error grouping accounts for user %s: %v", userID, err)
		http.Error(w, "Failed to list connected accounts", http.StatusInternalServerError)
		return
	}

	response := ConnectedAccountsResponse{Institutions: make([]InstitutionGroupResponse, 0, len(groups))}
	for _, g := range groups {
		response.Institutions = append(response.Institutions, InstitutionGroupResponse{
			InstitutionName: g.InstitutionName,
			InstitutionID:   g.InstitutionID,
			Accounts:        g.Accounts,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// HandleDeleteUserData erases everything the user owns. The path user
// id must match the session identity; mismatches are rejected before
// any row is touched.
func (h *UserHandler) HandleDeleteUserData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionUserID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	targetUserID := r.PathValue("userID")
	if targetUserID == "" {
		http.Error(w, "User ID is required", http.StatusBadRequest)
		return
	}
	if targetUserID != sessionUserID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if err := h.eraser.Erase(r.Context(), sessionUserID); err != nil {
		log.Printf("Error erasing data for user %s: %v", sessionUserID, err)
		http.Error(w, "Failed to delete user data", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
