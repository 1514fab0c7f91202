package service

import (
	"context"
	"errors"
	"strings"

	"social/internal/models"
	"social/internal/observability"
	"social/internal/repository"
	"social/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// AuthService registers accounts and exchanges credentials for tokens.
type AuthService struct {
	users  repository.UserRepository
	tokens *TokenService
	log    *observability.ServiceLogger
}

// RegisterInput is the registration form.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	Password2 string
}

// LoginInput is the token obtain form.
type LoginInput struct {
	Username string
	Password string
}

// NewAuthService wires the auth service.
func NewAuthService(users repository.UserRepository, tokens *TokenService) *AuthService {
	return &AuthService{users: users, tokens: tokens, log: observability.NewServiceLogger("auth")}
}

var errBadCredentials = models.NewUnauthorizedError("No active account found with the given credentials")

// Register validates the form and creates the user. The profile is created
// on first access.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	fields := map[string]string{}
	if err := validation.ValidateUsername(in.Username); err != nil {
		fields["username"] = err.Error()
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		fields["email"] = err.Error()
	}
	if in.Password != in.Password2 {
		fields["password"] = "Passwords must match."
	} else if err := validation.ValidatePassword(in.Password); err != nil {
		fields["password"] = err.Error()
	}
	if len(fields) > 0 {
		return nil, models.NewFieldsError(fields)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{Username: in.Username, Email: in.Email, Password: string(hash)}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, models.NewConflictError("A user with that username or email already exists.")
		}
		return nil, err
	}
	created("user")
	s.log.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Obtain checks credentials and returns a token pair.
func (s *AuthService) Obtain(ctx context.Context, in LoginInput) (TokenPair, error) {
	user, err := s.users.GetByUsername(ctx, in.Username)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return TokenPair{}, errBadCredentials
		}
		return TokenPair{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)) != nil {
		return TokenPair{}, errBadCredentials
	}
	pair, err := s.tokens.Issue(user)
	if err != nil {
		return TokenPair{}, models.NewInternalError(err)
	}
	return pair, nil
}

// Refresh exchanges a valid refresh token for a new access token. The user is
// reloaded so a staff change takes effect on refresh.
func (s *AuthService) Refresh(ctx context.Context, refresh string) (string, error) {
	claims, err := s.tokens.Verify(ctx, refresh, TokenTypeRefresh)
	if err != nil {
		return "", err
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return "", models.NewUnauthorizedError("User not found")
		}
		return "", err
	}
	access, err := s.tokens.IssueAccess(user)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return access, nil
}

// Revoke blacklists a refresh token.
func (s *AuthService) Revoke(ctx context.Context, refresh string) error {
	claims, err := s.tokens.Verify(ctx, refresh, TokenTypeRefresh)
	if err != nil {
		return err
	}
	if err := s.tokens.Revoke(ctx, claims); err != nil {
		return err
	}
	s.log.Info(ctx, "refresh token revoked", "user_id", claims.UserID)
	return nil
}
