package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/elleon003/thrivebase/internal/domain/newsletter"
)

// NewsletterHandler serves the public newsletter signup endpoint.
type NewsletterHandler struct {
	service *newsletter.Service
}

func NewNewsletterHandler(service *newsletter.Service) *NewsletterHandler {
	return &NewsletterHandler{service: service}
}

type NewsletterSignupRequest struct {
	Email string `json:"email"`
}

// HandleSignup stores a newsletter signup. No session required.
func (h *NewsletterHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req NewsletterSignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.Signup(r.Context(), req.Email); err != nil {
		if errors.Is(err, newsletter.ErrInvalidEmail) {
			http.Error(w, "Valid email is required", http.StatusBadRequest)
			return
		}
		log.Printf("Error storing newsletter signup: %v", err)
		http.Error(w, "Failed to sign up", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
}
