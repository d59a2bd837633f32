package main

import (
	"log"
	"net/http"

	httphandlers "github.com/elleon003/thrivebase/internal/interfaces/http"
	"github.com/elleon003/thrivebase/internal/shared/config"
	"github.com/elleon003/thrivebase/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", httphandlers.HandleHealth)

	// Public auth routes
	mux.HandleFunc("/api/auth/register", deps.AuthHandler.HandleRegister)
	mux.HandleFunc("/api/auth/login", deps.AuthHandler.HandleLogin)
	mux.HandleFunc("/api/auth/logout", deps.AuthHandler.HandleLogout)

	// Public newsletter signup
	mux.HandleFunc("/api/v1/baserow/newsletter-signup", deps.NewsletterHandler.HandleSignup)

	// Protected routes
	authMiddleware := middleware.Auth(deps.JWT)

	mux.Handle("/api/users/me", authMiddleware(http.HandlerFunc(deps.UserHandler.HandleMe)))

	mux.Handle("/api/v1/plaid/create_link_token", authMiddleware(http.HandlerFunc(deps.PlaidHandler.HandleCreateLinkToken)))
	mux.Handle("/api/v1/plaid/exchange_public_token", authMiddleware(http.HandlerFunc(deps.PlaidHandler.HandleExchangePublicToken)))
	mux.Handle("/api/v1/plaid/accounts", authMiddleware(http.HandlerFunc(deps.PlaidHandler.HandleListAccounts)))
	mux.Handle("/api/v1/plaid/accounts/update/{itemID}", authMiddleware(http.HandlerFunc(deps.PlaidHandler.HandleRefreshAccounts)))
	mux.Handle("/api/v1/plaid/disconnect/{itemID}", authMiddleware(http.HandlerFunc(deps.PlaidHandler.HandleDisconnect)))
	mux.Handle("/api/v1/plaid/connected-institutions", authMiddleware(http.HandlerFunc(deps.PlaidHandler.HandleConnectedInstitutions)))

	mux.Handle("/api/v1/baserow/account-summary", authMiddleware(http.HandlerFunc(deps.AccountHandler.HandleAccountSummary)))
	mux.Handle("/api/v1/baserow/store-transactions", authMiddleware(http.HandlerFunc(deps.TransactionHandler.HandleStoreTransactions)))
	mux.Handle("/api/v1/baserow/user-transactions", authMiddleware(http.HandlerFunc(deps.TransactionHandler.HandleUserTransactions)))
	mux.Handle("/api/v1/baserow/user-data/{userID}", authMiddleware(http.HandlerFunc(deps.UserHandler.HandleDeleteUserData)))

	mux.Handle("/api/v1/users/connected-accounts", authMiddleware(http.HandlerFunc(deps.UserHandler.HandleConnectedAccounts)))
	mux.Handle("/api/v1/users/profile", authMiddleware(http.HandlerFunc(deps.UserHandler.HandleUpdateProfile)))

	// Apply global middleware
	handler := middleware.Tracing(middleware.Logging(middleware.CORS(cfg.Server.AllowedHosts)(mux)))

	// Apply security middleware when TLS is enabled
	if cfg.TLS.Enabled {
		handler = middleware.HSTS(middleware.SecureCookies(handler))
		log.Println("TLS security middleware enabled (HSTS + SecureCookies)")
	}

	return handler
}
