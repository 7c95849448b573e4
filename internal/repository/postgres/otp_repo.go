package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/infrawatch/auth-service/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type otpRepository struct {
	db *gorm.DB
}

func NewOTPRepository(db *gorm.DB) *otpRepository {
	return &otpRepository{db: db}
}

func (r *otpRepository) Create(ctx context.Context, record *domain.OTPRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *otpRepository) GetByCode(ctx context.Context, code string) (*domain.OTPRecord, error) {
	var record domain.OTPRecord
	err := r.db.WithContext(ctx).First(&record, "code = ?", code).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *otpRepository) Upsert(ctx context.Context, record *domain.OTPRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"code", "created_at", "expires_at"}),
		}).
		Create(record).Error
}

func (r *otpRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.OTPRecord{}, "user_id = ?", userID).Error
}
