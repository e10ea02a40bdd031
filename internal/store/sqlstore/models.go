package sqlstore

import (
	"time"

	"github.com/whoabuu/task-manager/internal/store"
)

type userRecord struct {
	ID           string `gorm:"primaryKey;size:36"`
	Name         string `gorm:"size:120;not null"`
	Email        string `gorm:"size:320;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userRecord) TableName() string { return "users" }

func (r *userRecord) toUser() *store.User {
	return &store.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type taskRecord struct {
	ID          string    `gorm:"primaryKey;size:36"`
	Title       string    `gorm:"not null"`
	Description string    `gorm:"not null;default:''"`
	Status      string    `gorm:"size:32;not null;default:'Pending'"`
	UserID      string    `gorm:"size:36;not null;index:idx_tasks_user_created,priority:1"`
	CreatedAt   time.Time `gorm:"index:idx_tasks_user_created,priority:2"`
	UpdatedAt   time.Time
}

func (taskRecord) TableName() string { return "tasks" }

func (r *taskRecord) toTask() store.Task {
	return store.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Status:      store.TaskStatus(r.Status),
		UserID:      r.UserID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
