package sqlstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/whoabuu/task-manager/internal/store"
)

// ListTasks は所有者のタスクを新しい順に返します。
func (s *Store) ListTasks(ctx context.Context, ownerID string) ([]store.Task, error) {
	var recs []taskRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Order("rowid DESC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	tasks := make([]store.Task, len(recs))
	for i := range recs {
		tasks[i] = recs[i].toTask()
	}
	return tasks, nil
}

// CreateTask はタスクを保存し、ID とタイムスタンプを設定します。
func (s *Store) CreateTask(ctx context.Context, task *store.Task) error {
	now := time.Now().UTC()
	rec := taskRecord{
		ID:          uuid.NewString(),
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		UserID:      task.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return err
	}
	*task = rec.toTask()
	return nil
}

// GetTask は ID でタスクを取得します。
func (s *Store) GetTask(ctx context.Context, id string) (*store.Task, error) {
	var rec taskRecord
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, notFound(err)
	}
	task := rec.toTask()
	return &task, nil
}

// UpdateTask は patch の非 nil フィールドだけを更新します。
func (s *Store) UpdateTask(ctx context.Context, id string, patch store.TaskPatch) (*store.Task, error) {
	updates := map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Status != nil {
		updates["status"] = string(*patch.Status)
	}

	res := s.db.WithContext(ctx).Model(&taskRecord{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetTask(ctx, id)
}

// DeleteTask はタスクを削除します。
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&taskRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
