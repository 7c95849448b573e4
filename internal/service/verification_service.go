package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/infrawatch/auth-service/internal/config"
	"github.com/infrawatch/auth-service/internal/domain"
	"github.com/infrawatch/auth-service/internal/metrics"
	"github.com/infrawatch/auth-service/internal/notify"
	"github.com/infrawatch/auth-service/internal/otp"
	"github.com/infrawatch/auth-service/internal/repository"
	"gorm.io/gorm"
)

// VerificationService owns the one-time-passcode flow: issuing codes during
// registration, verifying them, and resending on request.
type VerificationService struct {
	users repository.UserRepository
	otps  repository.OTPRepository
	gen   otp.Generator
	sink  notify.Sink
	clock Clock
	cfg   *config.Config
}

func NewVerificationService(users repository.UserRepository, otps repository.OTPRepository, gen otp.Generator, sink notify.Sink, clock Clock, cfg *config.Config) *VerificationService {
	return &VerificationService{
		users: users,
		otps:  otps,
		gen:   gen,
		sink:  sink,
		clock: clock,
		cfg:   cfg,
	}
}

// IssueOTP generates and stores the user's first verification code. The otps
// argument lets registration run the insert inside its own transaction.
func (s *VerificationService) IssueOTP(ctx context.Context, otps repository.OTPRepository, userID uuid.UUID) (string, error) {
	code, err := s.gen.Next()
	if err != nil {
		return "", err
	}

	now := s.clock.Now()
	record := &domain.OTPRecord{
		ID:        userID,
		UserID:    userID,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.OTPTTL),
	}
	if err := otps.Create(ctx, record); err != nil {
		return "", fmt.Errorf("creating otp record: %w", err)
	}
	return code, nil
}

// Verify consumes a code. On success every code belonging to that user is
// deleted so nothing stale can be replayed. User status is left untouched.
func (s *VerificationService) Verify(ctx context.Context, code string) error {
	record, err := s.otps.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.Verifications.WithLabelValues("invalid").Inc()
			return domain.ErrInvalidCode
		}
		return fmt.Errorf("loading otp record: %w", err)
	}

	if record.ExpiresAt.Before(s.clock.Now()) {
		metrics.Verifications.WithLabelValues("expired").Inc()
		return domain.ErrCodeExpired
	}

	if err := s.otps.DeleteByUserID(ctx, record.UserID); err != nil {
		return fmt.Errorf("consuming otp record: %w", err)
	}

	metrics.Verifications.WithLabelValues("ok").Inc()
	return nil
}

// Resend overwrites the user's current code and enqueues a fresh email. The
// upsert keeps the one-live-code-per-user invariant across repeated calls.
func (s *VerificationService) Resend(ctx context.Context, userID uuid.UUID, email string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("loading user: %w", err)
	}

	code, err := s.gen.Next()
	if err != nil {
		return err
	}

	now := s.clock.Now()
	record := &domain.OTPRecord{
		ID:        user.ID,
		UserID:    user.ID,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.OTPTTL),
	}
	if err := s.otps.Upsert(ctx, record); err != nil {
		return fmt.Errorf("upserting otp record: %w", err)
	}

	to := email
	if to == "" {
		to = user.EmailOrEmpty()
	}
	if to != "" {
		s.sendCode(ctx, user.Name, to, code)
	}
	return nil
}

// sendCode enqueues the verification email. Failures are logged and dropped;
// the code is already persisted and a resend can always follow.
func (s *VerificationService) sendCode(ctx context.Context, name, email, code string) {
	msg := notify.OTPEmail(s.cfg.EmailFrom, email, name, code)
	if err := s.sink.Enqueue(ctx, msg); err != nil {
		log.Printf("ERROR [service.VerificationService] failed to enqueue otp email: %v", err)
	}
}
