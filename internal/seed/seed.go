package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"user-account-service/internal/api/account"
)

func strPtr(s string) *string { return &s }

var defaults = []account.RegisterParams{
	{
		Username:  "admin",
		Password:  "admin123",
		Email:     "admin@example.com",
		FirstName: strPtr("System"),
		LastName:  strPtr("Administrator"),
	},
	{
		Username:  "testuser",
		Password:  "test123",
		Email:     "test@example.com",
		FirstName: strPtr("Test"),
		LastName:  strPtr("User"),
	},
}

// Run registers the development seed accounts when they are not present yet.
// Only called in non-production mode; the credentials are logged on creation
// so a fresh local database is usable immediately.
func Run(ctx context.Context, svc account.AccountService, logger *slog.Logger) error {
	for _, params := range defaults {
		_, err := svc.GetByUsername(ctx, params.Username)
		if err == nil {
			continue
		}
		if !errors.Is(err, account.ErrNotFound) {
			return fmt.Errorf("seed lookup for %q failed: %w", params.Username, err)
		}

		if err := svc.Register(ctx, params); err != nil {
			if errors.Is(err, account.ErrConflict) {
				// Another instance seeded first.
				continue
			}
			return fmt.Errorf("seeding account %q failed: %w", params.Username, err)
		}
		logger.Info("Seed account created",
			slog.String("username", params.Username),
			slog.String("password", params.Password),
		)
	}
	return nil
}
