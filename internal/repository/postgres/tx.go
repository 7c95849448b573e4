package postgres

import (
	"context"

	"github.com/infrawatch/auth-service/internal/repository"
	"gorm.io/gorm"
)

type txManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) *txManager {
	return &txManager{db: db}
}

// Transaction runs fn against repositories bound to one database
// transaction. fn returning an error rolls back every write in the scope.
func (m *txManager) Transaction(ctx context.Context, fn func(repos *repository.Repositories) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
