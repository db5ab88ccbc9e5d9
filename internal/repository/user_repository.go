package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/vuxuanquyet204/webantoan/internal/db"
	"github.com/vuxuanquyet204/webantoan/internal/db/queries"
	"github.com/vuxuanquyet204/webantoan/internal/models"
)

// ErrDuplicateUsername is returned when the username is already taken
var ErrDuplicateUsername = errors.New("username already exists")

const uniqueViolation = "23505"

// UserRepository handles database operations for users
type UserRepository struct {
	db *db.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(database *db.DB) *UserRepository {
	return &UserRepository{db: database}
}

// Create inserts a user and fills in its id and creation time
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	params, err := json.Marshal(user.Params)
	if err != nil {
		return fmt.Errorf("failed to encode user params: %w", err)
	}
	if user.Params == nil {
		params = []byte("{}")
	}

	err = r.db.QueryRowContext(ctx, queries.CreateUserQuery,
		user.Username,
		user.Email,
		user.Hash,
		user.Algorithm,
		user.Salt,
		params,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicateUsername, user.Username)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user, returning nil when it does not exist
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, queries.GetUserByIDQuery, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByUsername retrieves a user by name, returning nil when it does not exist
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, queries.GetUserByUsernameQuery, username))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return user, nil
}

// List returns every user, newest first
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, queries.ListUsersQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// Delete removes a user and reports whether a row was removed
func (r *UserRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, queries.DeleteUserQuery, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	return affected(result)
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var salt sql.NullString
	var params []byte

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Hash,
		&user.Algorithm,
		&salt,
		&params,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Salt = stringPtr(salt)
	if len(params) > 0 {
		if err := json.Unmarshal(params, &user.Params); err != nil {
			return nil, fmt.Errorf("failed to decode user params: %w", err)
		}
	}
	return user, nil
}
