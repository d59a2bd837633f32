package main

import (
	"github.com/elleon003/thrivebase/internal/domain/account"
	"github.com/elleon003/thrivebase/internal/domain/linking"
	"github.com/elleon003/thrivebase/internal/domain/newsletter"
	"github.com/elleon003/thrivebase/internal/domain/token"
	"github.com/elleon003/thrivebase/internal/domain/transaction"
	"github.com/elleon003/thrivebase/internal/domain/user"
	"github.com/elleon003/thrivebase/internal/infrastructure/baserow"
	"github.com/elleon003/thrivebase/internal/infrastructure/crypto"
	"github.com/elleon003/thrivebase/internal/infrastructure/plaid"
	httphandlers "github.com/elleon003/thrivebase/internal/interfaces/http"
	"github.com/elleon003/thrivebase/internal/shared/auth"
	"github.com/elleon003/thrivebase/internal/shared/config"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	// Handlers
	AuthHandler        *httphandlers.AuthHandler
	UserHandler        *httphandlers.UserHandler
	AccountHandler     *httphandlers.AccountHandler
	PlaidHandler       *httphandlers.PlaidHandler
	TransactionHandler *httphandlers.TransactionHandler
	NewsletterHandler  *httphandlers.NewsletterHandler

	// Auth
	JWT *auth.JWT
}

// NewDependencies initializes all application dependencies.
func NewDependencies(cfg *config.Config) (*Dependencies, error) {
	// Initialize encryptor
	encryptor, err := crypto.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		return nil, err
	}

	// Initialize row store client and repositories
	store := baserow.NewClient(cfg.Baserow.APIURL, cfg.Baserow.APIToken)
	tokenRepo := baserow.NewTokenRepository(store, cfg.Baserow.TokensTableID)
	accountRepo := baserow.NewAccountRepository(store, cfg.Baserow.AccountsTableID)
	transactionRepo := baserow.NewTransactionRepository(store, cfg.Baserow.TransactionsTableID)
	newsletterRepo := baserow.NewNewsletterRepository(store, cfg.Baserow.NewsletterTableID)
	userRepo := baserow.NewUserRepository(store, cfg.Baserow.UsersTableID)

	// Initialize aggregation provider client
	provider := plaid.NewClient(cfg.Plaid.ClientID, cfg.Plaid.Secret, cfg.Plaid.Environment, cfg.Plaid.ClientName)

	// Initialize domain services
	vault := token.NewVault(tokenRepo, encryptor)
	accountView := account.NewView(accountRepo, vault)
	linkingService := linking.NewService(provider, vault, accountRepo)
	transactionService := transaction.NewService(transactionRepo)
	newsletterService := newsletter.NewService(newsletterRepo)
	eraser := user.NewEraser(transactionRepo, accountRepo, vault)

	// Initialize auth components
	jwt := auth.NewJWT(cfg.JWT.Secret)

	// Initialize handlers
	authHandler := httphandlers.NewAuthHandler(userRepo, jwt)
	userHandler := httphandlers.NewUserHandler(userRepo, accountView, eraser)
	accountHandler := httphandlers.NewAccountHandler(accountView)
	plaidHandler := httphandlers.NewPlaidHandler(linkingService, accountRepo)
	transactionHandler := httphandlers.NewTransactionHandler(transactionService)
	newsletterHandler := httphandlers.NewNewsletterHandler(newsletterService)

	return &Dependencies{
		AuthHandler:        authHandler,
		UserHandler:        userHandler,
		AccountHandler:     accountHandler,
		PlaidHandler:       plaidHandler,
		TransactionHandler: transactionHandler,
		NewsletterHandler:  newsletterHandler,
		JWT:                jwt,
	}, nil
}
