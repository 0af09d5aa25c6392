package postgres

import (
	"context"
	"database/sql"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const userColumns = `id, first_name, last_name, email, password_hash, phone_number, aadhaar_number, pan_number,
	address, city, state, role, profile_image, created_at, updated_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	var image sql.NullString
	err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.PhoneNumber,
		&user.AadhaarNumber,
		&user.PANNumber,
		&user.Address,
		&user.City,
		&user.State,
		&user.Role,
		&image,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if image.Valid {
		user.ProfileImage = &image.String
	}
	return user, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `INSERT INTO users (id, first_name, last_name, email, password_hash, phone_number, aadhaar_number,
		pan_number, address, city, state, role, profile_image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.PhoneNumber,
		user.AadhaarNumber,
		user.PANNumber,
		user.Address,
		user.City,
		user.State,
		user.Role,
		user.ProfileImage,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, mapError(err, "user")
	}
	return user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "user")
	}
	return user, nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, mapError(err, "user")
	}
	return user, nil
}

func (r *UserRepository) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error) {
	if len(ids) == 0 {
		return []*domain.User{}, nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1::uuid[])`
	return r.queryUsers(ctx, query, pq.Array(raw))
}

func (r *UserRepository) GetUsersByRole(ctx context.Context, role domain.UserRole) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY first_name, last_name`
	return r.queryUsers(ctx, query, role)
}

func (r *UserRepository) queryUsers(ctx context.Context, query string, args ...any) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUser writes every mutable column. Email and creation time never change.
func (r *UserRepository) UpdateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `UPDATE users
		SET
			first_name = $1,
			last_name = $2,
			password_hash = $3,
			phone_number = $4,
			address = $5,
			city = $6,
			state = $7,
			role = $8,
			profile_image = $9,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $10
		RETURNING ` + userColumns

	updated, err := scanUser(r.db.QueryRowContext(ctx, query,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.PhoneNumber,
		user.Address,
		user.City,
		user.State,
		user.Role,
		user.ProfileImage,
		user.ID,
	))
	if err != nil {
		return nil, mapError(err, "user")
	}
	return updated, nil
}
