package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/infrawatch/auth-service/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type SessionRepository interface {
	Create(ctx context.Context, session *domain.RefreshSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.RefreshSession, error)
	// Revoke flips revoked=false to true for the given session. It reports
	// false when the session was already revoked or does not exist, which is
	// how concurrent rotations decide a single winner.
	Revoke(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error
}

type OTPRepository interface {
	Create(ctx context.Context, record *domain.OTPRecord) error
	GetByCode(ctx context.Context, code string) (*domain.OTPRecord, error)
	// Upsert overwrites the user's current code if one exists, creating the
	// row otherwise. Repeated resends therefore leave exactly one live code.
	Upsert(ctx context.Context, record *domain.OTPRecord) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

// TxManager scopes a group of repository writes to a single transaction.
// The callback receives repositories bound to the transaction; returning an
// error rolls everything back.
type TxManager interface {
	Transaction(ctx context.Context, fn func(repos *Repositories) error) error
}

type Repositories struct {
	User    UserRepository
	Session SessionRepository
	OTP     OTPRepository
	Tx      TxManager
}
