package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/nkiryanov/identity/internal/apperrors"
	"github.com/nkiryanov/identity/internal/models"
	"github.com/nkiryanov/identity/internal/repository"
)

// Password hashed to compare with when user is unknown, so login takes the same time
const dummyPassword = "dummy-password-to-spend-time-on"

type CreateUserParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type UserService struct {
	hasher   PasswordHasher
	userRepo repository.UserRepo

	dummyOnce sync.Once
	dummyHash string
}

func NewService(hasher PasswordHasher, userRepo repository.UserRepo) *UserService {
	if hasher == nil {
		hasher = DefaultHasher
	}

	return &UserService{
		hasher:   hasher,
		userRepo: userRepo,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create user with customer role
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (models.User, error) {
	if params.Password == "" {
		return models.User{}, fmt.Errorf("%w: password must not be empty", apperrors.ErrValidationFailed)
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("can't use this as password. Err: %w", err)
	}

	user, err := s.userRepo.CreateUser(ctx, repository.CreateUserParams{
		Email:          NormalizeEmail(params.Email),
		FirstName:      params.FirstName,
		LastName:       params.LastName,
		Role:           models.RoleCustomer,
		HashedPassword: hash,
	})
	if err != nil {
		return models.User{}, fmt.Errorf("can't create user. Err: %w", err)
	}

	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.userRepo.GetUserByID(ctx, userID)
}

// Return user if email and password match
// Unknown email and wrong password both return apperrors.ErrAuthenticationFailed
func (s *UserService) CheckCredentials(ctx context.Context, email string, password string) (models.User, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, NormalizeEmail(email))
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		_, _ = s.hasher.Verify(s.dummy(), password)
		return models.User{}, apperrors.ErrAuthenticationFailed
	case err != nil:
		return models.User{}, err
	}

	ok, err := s.hasher.Verify(user.HashedPassword, password)
	if err != nil {
		return models.User{}, err
	}
	if !ok {
		return models.User{}, apperrors.ErrAuthenticationFailed
	}

	return user, nil
}

func (s *UserService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash(dummyPassword)
	})
	return s.dummyHash
}
