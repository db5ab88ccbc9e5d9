package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vuxuanquyet204/webantoan/internal/hashing"
	"github.com/vuxuanquyet204/webantoan/internal/models"
	"github.com/vuxuanquyet204/webantoan/internal/repository"
	"github.com/vuxuanquyet204/webantoan/pkg/debug"
)

// ErrValidation is returned for malformed user input
var ErrValidation = errors.New("validation failed")

// UserService registers users whose stored credentials become crack targets
type UserService struct {
	users UserStore
}

// NewUserService creates a new user service
func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

// Register hashes the password with the requested algorithm and stores the user
func (s *UserService) Register(ctx context.Context, req *models.RegisterUserRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrValidation)
	}
	algorithm := req.Algorithm
	if algorithm == "" {
		algorithm = hashing.AlgorithmBcrypt
	}
	if !hashing.Supported(algorithm) {
		return nil, fmt.Errorf("%w: %w: %s", ErrValidation, hashing.ErrUnsupportedAlgorithm, algorithm)
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrUserExists, username)
	}

	hashed, err := hashing.Generate(algorithm, req.Password, hashing.Params(req.Params))
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:  username,
		Email:     strings.TrimSpace(req.Email),
		Hash:      hashed.Hash,
		Algorithm: algorithm,
		Params:    hashed.Params,
	}
	if hashed.Salt != "" {
		salt := hashed.Salt
		user.Salt = &salt
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, fmt.Errorf("%w: %s", ErrUserExists, username)
		}
		return nil, err
	}
	debug.Info("Registered user %s (id=%d, algorithm=%s)", user.Username, user.ID, user.Algorithm)
	return user, nil
}

// Login verifies a password against the stored credential
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUser, req.Username)
	}

	cred := user.Credential()
	ok, err := hashing.Compare(cred.Algorithm, req.Password, cred.Hash, cred.Salt, hashing.Params(cred.Params))
	if err != nil {
		return nil, err
	}
	return &models.LoginResult{Username: user.Username, Algorithm: user.Algorithm, Success: ok}, nil
}

// List returns every user
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

// Get returns one user
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownUser, id)
	}
	return user, nil
}

// Delete removes a user and, through the foreign key, its jobs
func (s *UserService) Delete(ctx context.Context, id int64) error {
	ok, err := s.users.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownUser, id)
	}
	debug.Info("Deleted user %d", id)
	return nil
}
