package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/infrawatch/auth-service/internal/domain"
	"github.com/infrawatch/auth-service/internal/repository"
	"github.com/infrawatch/auth-service/internal/repository/postgres"
	"github.com/infrawatch/auth-service/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }

func TestUserRepository_Create(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	tests := []struct {
		name    string
		user    *domain.User
		wantErr bool
	}{
		{
			name: "successful creation",
			user: &domain.User{
				ID:           uuid.New(),
				Name:         "Ana",
				Email:        strPtr("ana@example.com"),
				PasswordHash: "hashedpassword",
				Status:       domain.UserStatusPending,
				CreatedAt:    time.Now(),
				UpdatedAt:    time.Now(),
			},
			wantErr: false,
		},
		{
			name: "duplicate email",
			user: &domain.User{
				ID:           uuid.New(),
				Name:         "Other",
				Email:        strPtr("ana@example.com"), // Same as above
				PasswordHash: "hashedpassword2",
				Status:       domain.UserStatusPending,
				CreatedAt:    time.Now(),
				UpdatedAt:    time.Now(),
			},
			wantErr: true,
		},
		{
			name: "email is optional",
			user: &domain.User{
				ID:           uuid.New(),
				Name:         "NoEmail",
				PasswordHash: "hashedpassword3",
				Status:       domain.UserStatusPending,
				CreatedAt:    time.Now(),
				UpdatedAt:    time.Now(),
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(ctx, tt.user)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestUserRepository_GetByEmail(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	created, _ := testutil.NewUserBuilder().WithEmail("lookup@example.com").Build(t, repo)

	found, err := repo.GetByEmail(ctx, "lookup@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.GetByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTxManager_RollsBackOnError(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	ctx := context.Background()

	userID := uuid.New()
	err := repos.Tx.Transaction(ctx, func(txRepos *repository.Repositories) error {
		if err := txRepos.User.Create(ctx, &domain.User{
			ID:           userID,
			Name:         "Ana",
			Email:        strPtr("tx@example.com"),
			PasswordHash: "hash",
			Status:       domain.UserStatusPending,
		}); err != nil {
			return err
		}
		if err := txRepos.OTP.Create(ctx, &domain.OTPRecord{ID: userID, UserID: userID, Code: "111111"}); err != nil {
			return err
		}
		// Duplicate primary key forces the whole scope to roll back
		return txRepos.OTP.Create(ctx, &domain.OTPRecord{ID: userID, UserID: userID, Code: "222222"})
	})
	require.Error(t, err)

	_, err = repos.User.GetByID(ctx, userID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
