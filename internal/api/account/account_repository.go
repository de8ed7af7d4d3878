package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var _ AccountRepo = (*PostgresAccountRepo)(nil)

// PgxPool is the subset of *pgxpool.Pool the repository needs. pgxmock
// satisfies it too, which is what the repository tests run against.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountRepo defines the contract for account persistence.
type AccountRepo interface {
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Insert persists a new account. A unique-index violation is mapped back
	// to ErrUsernameTaken / ErrEmailTaken; the index is the correctness
	// backstop for the racy check-then-insert at the service level.
	Insert(ctx context.Context, acc *Account) error

	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByUsername(ctx context.Context, username string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// GetByUsernameOrEmail resolves a login identifier against both columns.
	GetByUsernameOrEmail(ctx context.Context, identifier string) (*Account, error)

	ListAll(ctx context.Context) ([]Account, error)
	ListActive(ctx context.Context) ([]Account, error)

	// UpdateProfile applies only the non-nil fields of params.
	// Returns ErrNotFound if no account with id exists.
	UpdateProfile(ctx context.Context, id uuid.UUID, params UpdateProfileParams) error

	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error

	// SearchByName matches first_name or last_name containing keyword as a
	// substring. Case-sensitive (Postgres LIKE under the default collation).
	SearchByName(ctx context.Context, keyword string) ([]Account, error)

	Delete(ctx context.Context, id uuid.UUID) error
}

type PostgresAccountRepo struct {
	logger *slog.Logger
	pgpool PgxPool
}

func NewPostgresAccountRepo(pgpool PgxPool, logger *slog.Logger) *PostgresAccountRepo {
	return &PostgresAccountRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const accountColumns = "id, username, email, password_hash, first_name, last_name, is_active, created_at, updated_at"

func scanAccount(row pgx.Row) (*Account, error) {
	var acc Account
	err := row.Scan(
		&acc.ID,
		&acc.Username,
		&acc.Email,
		&acc.PasswordHash,
		&acc.FirstName,
		&acc.LastName,
		&acc.IsActive,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("account scan failed: %w", err)
	}
	return &acc, nil
}

func (r *PostgresAccountRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pgpool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)",
		username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("username existence check failed: %w", err)
	}
	return exists, nil
}

func (r *PostgresAccountRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pgpool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)",
		email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("email existence check failed: %w", err)
	}
	return exists, nil
}

func (r *PostgresAccountRepo) Insert(ctx context.Context, acc *Account) error {
	now := time.Now()
	_, err := r.pgpool.Exec(ctx,
		`INSERT INTO users (id, username, email, password_hash, first_name, last_name, is_active, created_at, updated_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		acc.ID, acc.Username, acc.Email, acc.PasswordHash, acc.FirstName, acc.LastName, acc.IsActive, now, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique violation
			switch pgErr.ConstraintName {
			case "users_username_key":
				return ErrUsernameTaken
			case "users_email_key":
				return ErrEmailTaken
			default:
				return fmt.Errorf("insert account: %w", ErrConflict)
			}
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}
	acc.CreatedAt = now
	acc.UpdatedAt = now
	return nil
}

func (r *PostgresAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	row := r.pgpool.QueryRow(ctx,
		"SELECT "+accountColumns+" FROM users WHERE id = $1", id)
	return scanAccount(row)
}

func (r *PostgresAccountRepo) GetByUsername(ctx context.Context, username string) (*Account, error) {
	row := r.pgpool.QueryRow(ctx,
		"SELECT "+accountColumns+" FROM users WHERE username = $1", username)
	return scanAccount(row)
}

func (r *PostgresAccountRepo) GetByEmail(ctx context.Context, email string) (*Account, error) {
	row := r.pgpool.QueryRow(ctx,
		"SELECT "+accountColumns+" FROM users WHERE email = $1", email)
	return scanAccount(row)
}

func (r *PostgresAccountRepo) GetByUsernameOrEmail(ctx context.Context, identifier string) (*Account, error) {
	row := r.pgpool.QueryRow(ctx,
		"SELECT "+accountColumns+" FROM users WHERE username = $1 OR email = $1", identifier)
	return scanAccount(row)
}

func (r *PostgresAccountRepo) collectAccounts(rows pgx.Rows) ([]Account, error) {
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var acc Account
		err := rows.Scan(
			&acc.ID,
			&acc.Username,
			&acc.Email,
			&acc.PasswordHash,
			&acc.FirstName,
			&acc.LastName,
			&acc.IsActive,
			&acc.CreatedAt,
			&acc.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("account row scan failed: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("account rows iteration failed: %w", err)
	}
	return accounts, nil
}

func (r *PostgresAccountRepo) ListAll(ctx context.Context) ([]Account, error) {
	rows, err := r.pgpool.Query(ctx, "SELECT "+accountColumns+" FROM users")
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return r.collectAccounts(rows)
}

func (r *PostgresAccountRepo) ListActive(ctx context.Context) ([]Account, error) {
	rows, err := r.pgpool.Query(ctx, "SELECT "+accountColumns+" FROM users WHERE is_active = TRUE")
	if err != nil {
		return nil, fmt.Errorf("failed to list active accounts: %w", err)
	}
	return r.collectAccounts(rows)
}

func (r *PostgresAccountRepo) UpdateProfile(ctx context.Context, id uuid.UUID, params UpdateProfileParams) error {
	var setClauses []string
	var args []interface{}
	argID := 1

	if params.FirstName != nil {
		setClauses = append(setClauses, fmt.Sprintf("first_name = $%d", argID))
		args = append(args, *params.FirstName)
		argID++
	}
	if params.LastName != nil {
		setClauses = append(setClauses, fmt.Sprintf("last_name = $%d", argID))
		args = append(args, *params.LastName)
		argID++
	}
	if params.Email != nil {
		setClauses = append(setClauses, fmt.Sprintf("email = $%d", argID))
		args = append(args, *params.Email)
		argID++
	}

	// Nothing to update is a no-op, but the caller still expects a not-found
	// error for a missing account.
	if len(setClauses) == 0 {
		var exists bool
		err := r.pgpool.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)", id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("account existence check failed: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		return nil
	}

	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", argID))
	args = append(args, time.Now())
	argID++

	args = append(args, id)
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d",
		strings.Join(setClauses, ", "), argID)

	tag, err := r.pgpool.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique violation
			// Email uniqueness is not pre-checked on update; the index fires.
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	r.logger.DebugContext(ctx, "profile updated",
		slog.String("accountID", id.String()),
		slog.Int("fields", len(setClauses)-1))
	return nil
}

func (r *PostgresAccountRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.pgpool.Exec(ctx,
		"UPDATE users SET is_active = $1, updated_at = $2 WHERE id = $3",
		active, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set active flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresAccountRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := r.pgpool.Exec(ctx,
		"UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3",
		passwordHash, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresAccountRepo) SearchByName(ctx context.Context, keyword string) ([]Account, error) {
	rows, err := r.pgpool.Query(ctx,
		"SELECT "+accountColumns+` FROM users
         WHERE first_name LIKE '%' || $1 || '%' OR last_name LIKE '%' || $1 || '%'`,
		keyword)
	if err != nil {
		return nil, fmt.Errorf("failed to search accounts by name: %w", err)
	}
	return r.collectAccounts(rows)
}

func (r *PostgresAccountRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
