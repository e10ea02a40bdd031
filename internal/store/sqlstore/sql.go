// Package sqlstore は gorm + SQLite による store.Store の実装です。ローカル開発とテストで使います。
package sqlstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/whoabuu/task-manager/internal/store"
)

// Scheme は DATABASE_URL でこのバックエンドを選ぶ接頭辞です。
const Scheme = "sqlite://"

// Store は gorm で users / tasks テーブルを扱います。
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// Open は sqlite://<path> 形式の URL から SQLite データベースを開きます。
func Open(url string, log zerolog.Logger) (*Store, error) {
	path := strings.TrimPrefix(url, Scheme)
	if path == "" {
		return nil, fmt.Errorf("sqlstore: database path is empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlstore: create db dir: %w", err)
		}
	}

	gormLogger := logger.New(
		gormWriter{log: log.With().Str("component", "gorm").Logger()},
		logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlstore: get sql db: %w", err)
	}
	// SQLite は書き込みが単一接続なので並列数を絞る
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	_, _ = sqlDB.Exec("PRAGMA journal_mode = WAL;")

	return &Store{db: db}, nil
}

// gormWriter は gorm のログを zerolog に流します。
type gormWriter struct {
	log zerolog.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Warn().Msgf(format, args...)
}

// Migrate はテーブルとインデックスを作成します。
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&userRecord{}, &taskRecord{}); err != nil {
		return fmt.Errorf("sqlstore: auto migrate: %w", err)
	}
	return nil
}

// Close は接続を閉じます。
func (s *Store) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
