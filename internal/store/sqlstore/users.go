package sqlstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/whoabuu/task-manager/internal/store"
)

// CreateUser はユーザーを保存します。
func (s *Store) CreateUser(ctx context.Context, user *store.User) error {
	now := time.Now().UTC()
	rec := userRecord{
		ID:           uuid.NewString(),
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return store.ErrDuplicateEmail
		}
		return err
	}
	*user = *rec.toUser()
	return nil
}

// FindUserByEmail はメールアドレスでユーザーを検索します。
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*store.User, error) {
	var rec userRecord
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&rec).Error; err != nil {
		return nil, notFound(err)
	}
	return rec.toUser(), nil
}

// FindUserByID は ID でユーザーを検索します。
func (s *Store) FindUserByID(ctx context.Context, id string) (*store.User, error) {
	var rec userRecord
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, notFound(err)
	}
	return rec.toUser(), nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return err
}
