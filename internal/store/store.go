// Package store はユーザーとタスクの永続化モデルと、バックエンドが実装するインターフェースを定義します。
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound は対象のレコードが存在しないことを表します。
	ErrNotFound = errors.New("store: record not found")
	// ErrDuplicateEmail はメールアドレスの一意制約違反を表します。
	ErrDuplicateEmail = errors.New("store: email already registered")
)

// TaskStatus はタスクの進捗状態です。
type TaskStatus string

const (
	StatusPending    TaskStatus = "Pending"
	StatusInProgress TaskStatus = "In Progress"
	StatusCompleted  TaskStatus = "Completed"
)

// Valid は定義済みの状態かどうかを返します。
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// User は登録済みユーザーです。PasswordHash はレスポンスに含めません。
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Task はユーザーが所有するタスクです。UserID は作成後に変更されません。
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	UserID      string     `json:"user"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskPatch はタスクの部分更新です。nil のフィールドは変更しません。
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *TaskStatus
}

// UserRepository はユーザーの永続化を担います。
type UserRepository interface {
	// CreateUser は ID とタイムスタンプを設定して保存します。
	// メールアドレスが重複している場合は ErrDuplicateEmail を返します。
	CreateUser(ctx context.Context, user *User) error
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	FindUserByID(ctx context.Context, id string) (*User, error)
}

// TaskRepository はタスクの永続化を担います。所有者の検証は呼び出し側の責務です。
type TaskRepository interface {
	// ListTasks は所有者のタスクを作成日時の降順で返します。
	ListTasks(ctx context.Context, ownerID string) ([]Task, error)
	CreateTask(ctx context.Context, task *Task) error
	GetTask(ctx context.Context, id string) (*Task, error)
	UpdateTask(ctx context.Context, id string, patch TaskPatch) (*Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// Store はアプリケーションが利用するバックエンド全体です。
type Store interface {
	UserRepository
	TaskRepository

	// Migrate はインデックスやテーブルを作成します。何度呼んでも安全です。
	Migrate(ctx context.Context) error
	Close(ctx context.Context) error
}
