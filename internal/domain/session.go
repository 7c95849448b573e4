package domain

import (
	"time"

	"github.com/google/uuid"
)

// RefreshSession tracks one outstanding refresh-token grant. The ID doubles
// as the token's jti claim, so the session can be looked up straight from a
// verified refresh token. Sessions are revoked, never deleted.
type RefreshSession struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	UserID     uuid.UUID  `json:"userId" gorm:"type:uuid;not null;index"`
	CreatedAt  time.Time  `json:"createdAt"`
	ExpiresAt  time.Time  `json:"expiresAt" gorm:"not null"`
	Revoked    bool       `json:"revoked" gorm:"not null;default:false"`
	RevokedAt  *time.Time `json:"revokedAt"`
	LastUsedAt time.Time  `json:"lastUsedAt"`
	Device     string     `json:"device"`
	UserAgent  string     `json:"userAgent"`
}

// OTPRecord holds the current one-time verification code for a user. The
// primary key is the user's ID, which is what guarantees at most one live
// code per user across create and resend.
type OTPRecord struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;not null"`
	Code      string    `json:"-" gorm:"not null;index"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"not null"`
}
