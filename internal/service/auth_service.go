package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/newsdesk-api/internal/auth"
	"github.com/newsdesk-api/internal/models"
	"github.com/newsdesk-api/internal/repository"
	"github.com/newsdesk-api/internal/validation"
	"github.com/rs/zerolog"
)

// LoginResult is returned by a successful login or refresh
type LoginResult struct {
	User         models.Identity `json:"user"`
	AccessToken  string          `json:"token"`
	RefreshToken string          `json:"refresh,omitempty"`
	ExpiresAt    time.Time       `json:"expires_at"`
}

// authService is the concrete implementation of AuthService
type authService struct {
	repos   *repository.Repositories
	tokens  *auth.TokenManager
	revoker auth.Revoker
	now     func() time.Time
	log     zerolog.Logger
}

// newAuthService creates a new AuthService
func newAuthService(repos *repository.Repositories, tokens *auth.TokenManager, revoker auth.Revoker, now func() time.Time, log zerolog.Logger) *authService {
	if revoker == nil {
		revoker = auth.NewMemoryRevoker().WithClock(now)
	}
	return &authService{
		repos:   repos,
		tokens:  tokens,
		revoker: revoker,
		now:     now,
		log:     log.With().Str("service", "auth").Logger(),
	}
}

// Login verifies credentials and issues an access/refresh token pair.
// Unknown users, wrong passwords and inactive accounts fail identically.
func (s *authService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.repos.User.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		auth.CompareDummy(password)
		s.log.Warn().Str("username", username).Msg("Login failed")
		return nil, ErrInvalidCredentials
	}
	if !auth.CheckPassword(user.PasswordHash, password) || !user.Active {
		s.log.Warn().Str("username", username).Msg("Login failed")
		return nil, ErrInvalidCredentials
	}

	access, claims, err := s.tokens.Issue(user, auth.AccessToken)
	if err != nil {
		return nil, err
	}
	refresh, _, err := s.tokens.Issue(user, auth.RefreshToken)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("username", user.Username).Str("role", string(user.Role)).Msg("Login successful")

	return &LoginResult{
		User:         models.IdentityOf(user),
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    claims.Expiry(),
	}, nil
}

// Authenticate validates an access token and checks it has not been revoked
func (s *authService) Authenticate(ctx context.Context, accessToken string) (*auth.Claims, error) {
	if accessToken == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := s.tokens.Parse(accessToken, auth.AccessToken)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Refresh exchanges a refresh token for a new access token. The user is
// reloaded so that deactivated accounts and role changes take effect.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := s.tokens.Parse(refreshToken, auth.RefreshToken)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}

	user, err := s.repos.User.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil || !user.Active {
		return nil, ErrUnauthenticated
	}

	access, accessClaims, err := s.tokens.Issue(user, auth.AccessToken)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		User:        models.IdentityOf(user),
		AccessToken: access,
		ExpiresAt:   accessClaims.Expiry(),
	}, nil
}

// Logout revokes the presented access token and, when given, the refresh token
func (s *authService) Logout(ctx context.Context, claims *auth.Claims, refreshToken string) error {
	if claims == nil {
		return ErrUnauthenticated
	}
	if err := s.revoker.Revoke(ctx, claims.ID, claims.Expiry()); err != nil {
		return fmt.Errorf("failed to revoke access token: %w", err)
	}

	if refreshToken != "" {
		refresh, err := s.tokens.Parse(refreshToken, auth.RefreshToken)
		if err != nil {
			return invalid("Invalid refresh token.")
		}
		if refresh.UserID != claims.UserID {
			return ErrForbidden
		}
		if err := s.revoker.Revoke(ctx, refresh.ID, refresh.Expiry()); err != nil {
			return fmt.Errorf("failed to revoke refresh token: %w", err)
		}
	}

	s.log.Info().Str("username", claims.Username).Msg("User logged out")
	return nil
}

// CreateUser registers a user with a bcrypt-hashed password
func (s *authService) CreateUser(ctx context.Context, username, password string, role models.Role) (*models.User, error) {
	now := s.now()
	user := &models.User{
		Username:  username,
		Role:      role,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := fromValidation(validation.ValidateUser(user, password)); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = hash

	if err := s.repos.User.Create(ctx, user); err != nil {
		return nil, conflictError(err, map[string]string{"users_username_key": "username"})
	}

	s.log.Info().Int64("user_id", user.ID).Str("role", string(role)).Msg("User created")
	return user, nil
}

func (s *authService) checkRevoked(ctx context.Context, claims *auth.Claims) error {
	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		// fail closed when the revocation store is unreachable
		s.log.Error().Err(err).Msg("Revocation check failed")
		return errors.Join(ErrUnauthenticated, err)
	}
	if revoked {
		return ErrUnauthenticated
	}
	return nil
}
