package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"user-account-service/app/hash"
	"user-account-service/app/observability/metrics"
)

// Ensure implementation satisfies the interface
var _ AccountService = (*AccountServiceImpl)(nil)

// AccountService defines the business logic contract for account operations.
type AccountService interface {
	// Register creates a new active account after checking username and email
	// availability. Returns ErrUsernameTaken or ErrEmailTaken on duplicates.
	Register(ctx context.Context, params RegisterParams) error

	// Authenticate matches identifier against username or email and verifies
	// the password. False for a missing account, an inactive account, or a
	// hash mismatch. No lockout or rate limiting.
	Authenticate(ctx context.Context, identifier, password string) (bool, error)

	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByUsername(ctx context.Context, username string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)

	ListAll(ctx context.Context) ([]Account, error)
	ListActive(ctx context.Context) ([]Account, error)

	// UpdateProfile applies only the non-nil fields of params (partial update).
	UpdateProfile(ctx context.Context, id uuid.UUID, params UpdateProfileParams) error

	// SetActive toggles the active flag. Idempotent: setting the current
	// value still succeeds.
	SetActive(ctx context.Context, id uuid.UUID, active bool) error

	// ChangePassword verifies oldPassword before storing the hash of
	// newPassword. Returns ErrUnauthenticated when the old password fails.
	ChangePassword(ctx context.Context, id uuid.UUID, oldPassword, newPassword string) error

	SearchByName(ctx context.Context, keyword string) ([]Account, error)

	Delete(ctx context.Context, id uuid.UUID) error
}

// AccountServiceImpl provides the implementation for AccountService.
type AccountServiceImpl struct {
	logger *slog.Logger
	repo   AccountRepo
	hasher hash.Hasher
}

// NewAccountService creates a new account service instance. The store and
// hasher are constructor-provided collaborators, never ambient lookups.
func NewAccountService(repo AccountRepo, hasher hash.Hasher, logger *slog.Logger) *AccountServiceImpl {
	return &AccountServiceImpl{
		logger: logger,
		repo:   repo,
		hasher: hasher,
	}
}

func (s *AccountServiceImpl) Register(ctx context.Context, params RegisterParams) error {
	ctx, span := otel.Tracer("AccountService").Start(ctx, "Register", trace.WithAttributes(
		attribute.String("account.username", params.Username),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Register"), slog.String("username", params.Username))
	start := time.Now()
	m := metrics.Get()
	outcome := "error"
	defer func() {
		m.RegisterRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
		m.RegisterDurationSeconds.Record(ctx, time.Since(start).Seconds())
	}()

	// Fast-path duplicate checks. These are user-friendly error producers,
	// not the correctness guarantee: a concurrent registration can pass both
	// and lose the race at the unique index, which Insert maps back to the
	// same sentinel errors.
	usernameTaken, err := s.repo.ExistsByUsername(ctx, params.Username)
	if err != nil {
		l.ErrorContext(ctx, "Username existence check failed", slog.Any("error", err))
		m.DbQueryErrorsTotal.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "username existence check failed")
		return fmt.Errorf("error checking username: %w", err)
	}
	if usernameTaken {
		l.InfoContext(ctx, "Registration rejected, username taken")
		outcome = "username_taken"
		return ErrUsernameTaken
	}

	emailTaken, err := s.repo.ExistsByEmail(ctx, params.Email)
	if err != nil {
		l.ErrorContext(ctx, "Email existence check failed", slog.Any("error", err))
		m.DbQueryErrorsTotal.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "email existence check failed")
		return fmt.Errorf("error checking email: %w", err)
	}
	if emailTaken {
		l.InfoContext(ctx, "Registration rejected, email taken")
		outcome = "email_taken"
		return ErrEmailTaken
	}

	passwordHash, err := s.hasher.Hash(params.Password)
	if err != nil {
		l.ErrorContext(ctx, "Password hashing failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "password hashing failed")
		return fmt.Errorf("error hashing password: %w", err)
	}

	acc := &Account{
		ID:           uuid.New(),
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: passwordHash,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		IsActive:     true,
	}

	if err := s.repo.Insert(ctx, acc); err != nil {
		if errors.Is(err, ErrConflict) {
			l.InfoContext(ctx, "Registration lost uniqueness race", slog.Any("error", err))
			outcome = "conflict"
			return err
		}
		l.ErrorContext(ctx, "Failed to insert account", slog.Any("error", err))
		m.DbQueryErrorsTotal.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "account insert failed")
		return fmt.Errorf("error registering account: %w", err)
	}

	l.InfoContext(ctx, "Account registered", slog.String("accountID", acc.ID.String()))
	outcome = "success"
	span.SetStatus(codes.Ok, "account registered")
	return nil
}

func (s *AccountServiceImpl) Authenticate(ctx context.Context, identifier, password string) (bool, error) {
	ctx, span := otel.Tracer("AccountService").Start(ctx, "Authenticate")
	defer span.End()

	l := s.logger.With(slog.String("method", "Authenticate"))
	m := metrics.Get()

	acc, err := s.repo.GetByUsernameOrEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			m.LoginAttemptsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "unknown_account")))
			return false, nil
		}
		l.ErrorContext(ctx, "Failed to resolve login identifier", slog.Any("error", err))
		m.DbQueryErrorsTotal.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "identifier lookup failed")
		return false, fmt.Errorf("error resolving login identifier: %w", err)
	}

	if !acc.IsActive {
		l.InfoContext(ctx, "Login rejected for inactive account", slog.String("accountID", acc.ID.String()))
		m.LoginAttemptsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "inactive")))
		return false, nil
	}

	ok := s.hasher.Verify(acc.PasswordHash, password)
	result := "failure"
	if ok {
		result = "success"
	}
	m.LoginAttemptsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	return ok, nil
}

func (s *AccountServiceImpl) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	acc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error fetching account by id: %w", err)
	}
	return acc, nil
}

func (s *AccountServiceImpl) GetByUsername(ctx context.Context, username string) (*Account, error) {
	acc, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("error fetching account by username: %w", err)
	}
	return acc, nil
}

func (s *AccountServiceImpl) GetByEmail(ctx context.Context, email string) (*Account, error) {
	acc, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error fetching account by email: %w", err)
	}
	return acc, nil
}

func (s *AccountServiceImpl) ListAll(ctx context.Context) ([]Account, error) {
	accounts, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing accounts: %w", err)
	}
	return accounts, nil
}

func (s *AccountServiceImpl) ListActive(ctx context.Context) ([]Account, error) {
	accounts, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing active accounts: %w", err)
	}
	return accounts, nil
}

func (s *AccountServiceImpl) UpdateProfile(ctx context.Context, id uuid.UUID, params UpdateProfileParams) error {
	l := s.logger.With(slog.String("method", "UpdateProfile"), slog.String("accountID", id.String()))

	// Email uniqueness is deliberately not re-checked here; the unique index
	// is the only guard on the update path.
	err := s.repo.UpdateProfile(ctx, id, params)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
			return err
		}
		l.ErrorContext(ctx, "Failed to update profile", slog.Any("error", err))
		return fmt.Errorf("error updating profile: %w", err)
	}

	l.InfoContext(ctx, "Profile updated")
	return nil
}

func (s *AccountServiceImpl) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	l := s.logger.With(slog.String("method", "SetActive"), slog.String("accountID", id.String()), slog.Bool("active", active))

	err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		l.ErrorContext(ctx, "Failed to set active flag", slog.Any("error", err))
		return fmt.Errorf("error setting active flag: %w", err)
	}

	l.InfoContext(ctx, "Active flag set")
	return nil
}

func (s *AccountServiceImpl) ChangePassword(ctx context.Context, id uuid.UUID, oldPassword, newPassword string) error {
	ctx, span := otel.Tracer("AccountService").Start(ctx, "ChangePassword", trace.WithAttributes(
		attribute.String("account.id", id.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "ChangePassword"), slog.String("accountID", id.String()))

	acc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		l.ErrorContext(ctx, "Failed to fetch account", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "account fetch failed")
		return fmt.Errorf("error fetching account: %w", err)
	}

	if !s.hasher.Verify(acc.PasswordHash, oldPassword) {
		l.InfoContext(ctx, "Password change rejected, old password mismatch")
		return ErrUnauthenticated
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		l.ErrorContext(ctx, "Password hashing failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "password hashing failed")
		return fmt.Errorf("error hashing new password: %w", err)
	}

	if err := s.repo.UpdatePasswordHash(ctx, id, newHash); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		l.ErrorContext(ctx, "Failed to store new password hash", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "password update failed")
		return fmt.Errorf("error updating password: %w", err)
	}

	l.InfoContext(ctx, "Password changed")
	span.SetStatus(codes.Ok, "password changed")
	return nil
}

func (s *AccountServiceImpl) SearchByName(ctx context.Context, keyword string) ([]Account, error) {
	accounts, err := s.repo.SearchByName(ctx, keyword)
	if err != nil {
		return nil, fmt.Errorf("error searching accounts by name: %w", err)
	}
	return accounts, nil
}

func (s *AccountServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	l := s.logger.With(slog.String("method", "Delete"), slog.String("accountID", id.String()))

	err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		l.ErrorContext(ctx, "Failed to delete account", slog.Any("error", err))
		return fmt.Errorf("error deleting account: %w", err)
	}

	l.InfoContext(ctx, "Account deleted")
	return nil
}
