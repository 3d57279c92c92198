// Package postgres implements the domain repositories on database/sql
// with the lib/pq driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/quickcab/ride-hailing/internal/domain/account"
)

const uniqueViolation = "23505"

// AccountRepository handles database operations for accounts
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates an account repository
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account
func (r *AccountRepository) Create(ctx context.Context, acct *account.Account) error {
	var vehicleType, vehicleNumber sql.NullString
	if acct.VehicleDetails != nil {
		vehicleType = sql.NullString{String: acct.VehicleDetails.VehicleType, Valid: true}
		vehicleNumber = sql.NullString{String: acct.VehicleDetails.VehicleNumber, Valid: true}
	}

	query := `
		INSERT INTO accounts (
			id, name, email, password_hash, phone, role,
			vehicle_type, vehicle_number, is_available
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		acct.ID, acct.Name, acct.Email, acct.PasswordHash, acct.Phone,
		acct.Role, vehicleType, vehicleNumber, acct.IsAvailable,
	).Scan(&acct.CreatedAt, &acct.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return account.ErrEmailExists
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return r.getBy(ctx, "id = $1", id)
}

// GetByEmail retrieves an account by email
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	return r.getBy(ctx, "email = $1", email)
}

func (r *AccountRepository) getBy(ctx context.Context, where string, arg interface{}) (*account.Account, error) {
	query := fmt.Sprintf(`
		SELECT id, name, email, password_hash, phone, role,
		       vehicle_type, vehicle_number, is_available,
		       created_at, updated_at
		FROM accounts
		WHERE %s
	`, where)

	acct := &account.Account{}
	var phone, vehicleType, vehicleNumber sql.NullString

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&acct.ID, &acct.Name, &acct.Email, &acct.PasswordHash, &phone,
		&acct.Role, &vehicleType, &vehicleNumber, &acct.IsAvailable,
		&acct.CreatedAt, &acct.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, account.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	acct.Phone = phone.String
	if vehicleType.Valid || vehicleNumber.Valid {
		acct.VehicleDetails = &account.VehicleDetails{
			VehicleType:   vehicleType.String,
			VehicleNumber: vehicleNumber.String,
		}
	}

	return acct, nil
}

// SetAvailability flips a driver's availability flag. Conditional on the
// flag currently holding the opposite value, so a concurrent claim loses
// instead of overwriting.
func (r *AccountRepository) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	query := `
		UPDATE accounts
		SET is_available = $2, updated_at = NOW()
		WHERE id = $1 AND role = 'driver' AND is_available = $3
	`

	res, err := r.db.ExecContext(ctx, query, id, available, !available)
	if err != nil {
		return fmt.Errorf("failed to update driver availability: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		var exists bool
		probe := r.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1 AND role = 'driver')`, id,
		).Scan(&exists)
		if probe != nil || !exists {
			return account.ErrNotFound
		}
		return account.ErrAvailabilityConflict
	}

	return nil
}
