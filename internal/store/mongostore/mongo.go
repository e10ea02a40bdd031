// Package mongostore は MongoDB による store.Store の実装です。
// コレクション名とフィールド名は既存データ（users / tasks）と互換です。
package mongostore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/whoabuu/task-manager/internal/store"
)

const (
	usersCollection = "users"
	tasksCollection = "tasks"

	connectTimeout = 10 * time.Second
)

// Store は users / tasks コレクションを扱います。
type Store struct {
	client *mongo.Client
	users  *mongo.Collection
	tasks  *mongo.Collection
}

var _ store.Store = (*Store)(nil)

// IsMongoURL は URL が MongoDB の接続文字列かどうかを返します。
func IsMongoURL(url string) bool {
	return strings.HasPrefix(url, "mongodb://") || strings.HasPrefix(url, "mongodb+srv://")
}

// Open は MongoDB に接続し、疎通を確認します。
// URI にデータベース名が含まれない場合は defaultDB を使います。
func Open(ctx context.Context, uri, defaultDB string) (*Store, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, fmt.Errorf("mongostore: parse uri: %w", err)
	}
	dbName := cs.Database
	if dbName == "" {
		dbName = defaultDB
	}
	if dbName == "" {
		return nil, fmt.Errorf("mongostore: database name is empty")
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongostore: ping: %w", err)
	}

	db := client.Database(dbName)
	return &Store{
		client: client,
		users:  db.Collection(usersCollection),
		tasks:  db.Collection(tasksCollection),
	}, nil
}

// Migrate はメールアドレスの一意インデックスと一覧用インデックスを作成します。
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("mongostore: create users index: %w", err)
	}
	_, err = s.tasks.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("mongostore: create tasks index: %w", err)
	}
	return nil
}

// Close は接続を切断します。
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// parseID は 16 進の ObjectID を解釈します。形式が不正な ID は存在しないものとして扱います。
func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, store.ErrNotFound
	}
	return oid, nil
}
