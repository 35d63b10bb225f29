// Package service holds the business rules behind the GraphQL operations.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"goyfeed/internal/auth"
	"goyfeed/internal/models"
	"goyfeed/internal/repository"
	"goyfeed/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// AuthResult is returned by signup and login.
type AuthResult struct {
	Token string
	User  *models.User
}

// AuthService registers users and exchanges credentials for tokens.
type AuthService struct {
	userRepo   repository.UserRepository
	tokens     *auth.TokenManager
	bcryptCost int
}

func NewAuthService(userRepo repository.UserRepository, tokens *auth.TokenManager, bcryptCost int) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{userRepo: userRepo, tokens: tokens, bcryptCost: bcryptCost}
}

// Signup validates the input, rejects taken usernames and emails, stores the
// bcrypt hash and issues a token. A concurrent signup that wins the race on
// the unique index surfaces as a conflict from the repository.
func (s *AuthService) Signup(ctx context.Context, in validation.SignupInput) (*AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Email already in use", nil)
	}
	existing, err = s.userRepo.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Username already taken", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Name:     in.Name,
		Password: string(hash),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.issue(user)
}

// Login checks the password against the stored hash. An unknown email is
// NOT_FOUND and a wrong password is UNAUTHORIZED.
func (s *AuthService) Login(ctx context.Context, in validation.LoginInput) (*AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User with email", in.Email)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, models.NewUnauthorizedError("Invalid password")
		}
		return nil, fmt.Errorf("compare password: %w", err)
	}

	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{Token: token, User: user}, nil
}
