package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/whoabuu/task-manager/internal/store"
)

// CreateUser はユーザーを保存します。一意インデックス違反は ErrDuplicateEmail になります。
func (s *Store) CreateUser(ctx context.Context, user *store.User) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := userDocument{
		ID:        primitive.NewObjectID(),
		Name:      user.Name,
		Email:     user.Email,
		Password:  user.PasswordHash,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicateEmail
		}
		return err
	}
	*user = *doc.toUser()
	return nil
}

// FindUserByEmail はメールアドレスでユーザーを検索します。
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*store.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

// FindUserByID は ID でユーザーを検索します。
func (s *Store) FindUserByID(ctx context.Context, id string) (*store.User, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.findUser(ctx, bson.M{"_id": oid})
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*store.User, error) {
	var doc userDocument
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return doc.toUser(), nil
}
