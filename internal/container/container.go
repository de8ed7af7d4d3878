package container

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"user-account-service/app/hash"
	"user-account-service/config"
	"user-account-service/internal/api/account"
)

// Container holds all application dependencies.
type Container struct {
	Config         *config.Config
	Logger         *slog.Logger
	Pool           *pgxpool.Pool
	AccountService account.AccountService
	AccountHandler *account.AccountHandler
}

// NewContainer wires repositories, services and handlers around an already
// initialized connection pool.
func NewContainer(cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) *Container {
	accountRepo := account.NewPostgresAccountRepo(pool, logger)
	hasher := hash.NewBcryptHasher()
	accountService := account.NewAccountService(accountRepo, hasher, logger)
	accountHandler := account.NewAccountHandler(accountService, logger)

	return &Container{
		Config:         cfg,
		Logger:         logger,
		Pool:           pool,
		AccountService: accountService,
		AccountHandler: accountHandler,
	}
}
