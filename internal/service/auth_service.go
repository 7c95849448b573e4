package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/infrawatch/auth-service/internal/config"
	"github.com/infrawatch/auth-service/internal/domain"
	"github.com/infrawatch/auth-service/internal/metrics"
	"github.com/infrawatch/auth-service/internal/repository"
	"github.com/infrawatch/auth-service/internal/token"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// RegisterAction marks the action token minted after a successful
// registration, consumed by the follow-up verification flow.
const RegisterAction = "register"

// TokenService owns the token lifecycle: paired access/refresh issuance on
// login, lazy refresh rotation with revocation bookkeeping, and logout.
type TokenService struct {
	users        repository.UserRepository
	sessions     repository.SessionRepository
	tx           repository.TxManager
	verification *VerificationService
	codec        *token.Codec
	clock        Clock
	cfg          *config.Config
}

func NewTokenService(repos *repository.Repositories, verification *VerificationService, codec *token.Codec, clock Clock, cfg *config.Config) *TokenService {
	return &TokenService{
		users:        repos.User,
		sessions:     repos.Session,
		tx:           repos.Tx,
		verification: verification,
		codec:        codec,
		clock:        clock,
		cfg:          cfg,
	}
}

type LoginInput struct {
	Email     string
	Password  string
	Device    string
	UserAgent string
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// TokenPair carries the minted credentials. RefreshToken is empty when the
// caller should keep using the refresh token it already holds.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type RegisterResult struct {
	ActionToken string
	User        *domain.User
}

// Login verifies the password and mints an access/refresh pair. Unknown
// email and wrong password are indistinguishable to the caller.
func (s *TokenService) Login(ctx context.Context, input LoginInput) (*TokenPair, error) {
	if input.Email == "" || input.Password == "" {
		return nil, domain.ErrInvalidRequest
	}

	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.Logins.WithLabelValues("unauthorized").Inc()
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		metrics.Logins.WithLabelValues("unauthorized").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	accessToken, err := s.mintAccessToken(user)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	session := &domain.RefreshSession{
		ID:         uuid.New(),
		UserID:     user.ID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.cfg.RefreshTokenTTL),
		LastUsedAt: now,
		Device:     orUnknown(input.Device),
		UserAgent:  orUnknown(input.UserAgent),
	}

	// Availability over auditability: the access token works without the
	// session row, so a failed write must not fail the login.
	if err := s.sessions.Create(ctx, session); err != nil {
		log.Printf("ERROR [service.TokenService.Login] failed to persist refresh session: %v", err)
	}

	refreshToken, err := s.codec.Sign(token.RefreshClaims(user.ID.String(), session.ID.String()), s.cfg.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}

	metrics.Logins.WithLabelValues("ok").Inc()
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Refresh exchanges a valid refresh token for a new access token. When the
// session is inside the rotation window a replacement session is created and
// the old one revoked in a single transaction; outside the window only the
// last-used timestamp is touched and no refresh token is re-issued.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.codec.Verify(refreshToken)
	if err != nil {
		metrics.Refreshes.WithLabelValues("unauthorized").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	sessionID, err := uuid.Parse(claims.SessionID())
	if err != nil {
		metrics.Refreshes.WithLabelValues("unauthorized").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.Refreshes.WithLabelValues("unauthorized").Inc()
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if session.Revoked {
		metrics.Refreshes.WithLabelValues("unauthorized").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		metrics.Refreshes.WithLabelValues("unauthorized").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.Refreshes.WithLabelValues("unauthorized").Inc()
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}

	accessToken, err := s.mintAccessToken(user)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if session.ExpiresAt.Sub(now) < s.cfg.RotationWindow {
		newRefreshToken, err := s.rotate(ctx, user, session, now)
		if err != nil {
			if errors.Is(err, domain.ErrSessionRevoked) {
				metrics.Refreshes.WithLabelValues("unauthorized").Inc()
				return nil, domain.ErrInvalidCredentials
			}
			return nil, err
		}
		metrics.Refreshes.WithLabelValues("ok").Inc()
		return &TokenPair{AccessToken: accessToken, RefreshToken: newRefreshToken}, nil
	}

	if err := s.sessions.TouchLastUsed(ctx, session.ID, now); err != nil {
		log.Printf("ERROR [service.TokenService.Refresh] failed to touch session %s: %v", session.ID, err)
	}

	metrics.Refreshes.WithLabelValues("ok").Inc()
	return &TokenPair{AccessToken: accessToken}, nil
}

// rotate creates the replacement session and revokes the old one atomically.
// The conditional revoke decides the winner of concurrent rotations; the
// loser's new session is rolled back and it observes the revoked error.
func (s *TokenService) rotate(ctx context.Context, user *domain.User, old *domain.RefreshSession, now time.Time) (string, error) {
	next := &domain.RefreshSession{
		ID:         uuid.New(),
		UserID:     user.ID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.cfg.RefreshTokenTTL),
		LastUsedAt: now,
		Device:     old.Device,
		UserAgent:  old.UserAgent,
	}

	err := s.tx.Transaction(ctx, func(repos *repository.Repositories) error {
		if err := repos.Session.Create(ctx, next); err != nil {
			return fmt.Errorf("creating rotated session: %w", err)
		}
		revoked, err := repos.Session.Revoke(ctx, old.ID, now)
		if err != nil {
			return fmt.Errorf("revoking session: %w", err)
		}
		if !revoked {
			return domain.ErrSessionRevoked
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	metrics.Rotations.Inc()
	return s.codec.Sign(token.RefreshClaims(user.ID.String(), next.ID.String()), s.cfg.RefreshTokenTTL)
}

// Register creates the user together with their first verification code in
// one transaction, then enqueues the notification outside it. The returned
// action token is short-lived and scoped to the registration flow.
func (s *TokenService) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	if input.Name == "" || input.Password == "" {
		return nil, domain.ErrInvalidRequest
	}

	if input.Email != "" {
		existing, err := s.users.GetByEmail(ctx, input.Email)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("checking email: %w", err)
		}
		if existing != nil {
			return nil, domain.ErrEmailExists
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Name:         input.Name,
		PasswordHash: string(hashedPassword),
		Status:       domain.UserStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if input.Email != "" {
		email := input.Email
		user.Email = &email
	}

	var code string
	err = s.tx.Transaction(ctx, func(repos *repository.Repositories) error {
		if err := repos.User.Create(ctx, user); err != nil {
			return fmt.Errorf("creating user: %w", err)
		}
		code, err = s.verification.IssueOTP(ctx, repos.OTP, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	// Outside the transaction: enqueue failures are logged, never propagated.
	if user.Email != nil {
		s.verification.sendCode(ctx, user.Name, *user.Email, code)
	}

	actionToken, err := s.codec.Sign(token.ActionClaims(user.ID.String(), input.Email, RegisterAction), s.cfg.ActionTokenTTL)
	if err != nil {
		return nil, err
	}

	return &RegisterResult{ActionToken: actionToken, User: user}, nil
}

// Logout revokes the session behind the presented refresh token. Revoking a
// session that is already revoked is not an error.
func (s *TokenService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.codec.Verify(refreshToken)
	if err != nil {
		return domain.ErrInvalidCredentials
	}

	sessionID, err := uuid.Parse(claims.SessionID())
	if err != nil {
		return domain.ErrInvalidCredentials
	}

	if _, err := s.sessions.Revoke(ctx, sessionID, s.clock.Now()); err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}
	return nil
}

func (s *TokenService) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *TokenService) mintAccessToken(user *domain.User) (string, error) {
	claims := token.AccessClaims(user.ID.String(), user.Name, user.EmailOrEmpty(), user.Role, string(user.Status))
	return s.codec.Sign(claims, s.cfg.AccessTokenTTL)
}

func orUnknown(v string) string {
	if v == "" {
		return "Unknown"
	}
	return v
}
