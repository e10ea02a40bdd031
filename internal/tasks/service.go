// Package tasks はユーザーごとのタスク管理と、その所有者チェックを提供します。
package tasks

import (
	"context"
	"errors"
	"strings"

	"github.com/whoabuu/task-manager/internal/apperr"
	"github.com/whoabuu/task-manager/internal/store"
)

var (
	errTaskNotFound  = apperr.NotFound("Task not found")
	errNotTaskOwner  = apperr.Authorization("Not authorized to modify this task")
	errTitleRequired = apperr.Validation("Please provide a task title")
	errInvalidStatus = apperr.Validation("Status must be one of Pending, In Progress, Completed")
)

// CreateInput はタスク作成時の入力です。Description と Status は省略できます。
type CreateInput struct {
	Title       string
	Description *string
	Status      *store.TaskStatus
}

// Service はタスクの取得・作成と、所有者に限定した更新・削除を行います。
type Service struct {
	repo store.TaskRepository
}

// NewService は Service を作成します。
func NewService(repo store.TaskRepository) (*Service, error) {
	if repo == nil {
		return nil, errors.New("task repository is nil")
	}
	return &Service{repo: repo}, nil
}

// List は所有者のタスクを新しい順に返します。
func (s *Service) List(ctx context.Context, ownerID string) ([]store.Task, error) {
	tasks, err := s.repo.ListTasks(ctx, ownerID)
	if err != nil {
		return nil, apperr.Internal("failed to list tasks", err)
	}
	if tasks == nil {
		tasks = []store.Task{}
	}
	return tasks, nil
}

// Create は ownerID を所有者としてタスクを作成します。
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*store.Task, error) {
	task := &store.Task{
		Title:  strings.TrimSpace(in.Title),
		Status: store.StatusPending,
		UserID: ownerID,
	}
	if task.Title == "" {
		return nil, errTitleRequired
	}
	if in.Description != nil {
		task.Description = strings.TrimSpace(*in.Description)
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, errInvalidStatus
		}
		task.Status = *in.Status
	}

	if err := s.repo.CreateTask(ctx, task); err != nil {
		return nil, apperr.Internal("failed to create task", err)
	}
	return task, nil
}

// Update は所有者であることを確認してから patch を検証し、適用します。
func (s *Service) Update(ctx context.Context, requesterID, taskID string, patch store.TaskPatch) (*store.Task, error) {
	if _, err := s.authorize(ctx, requesterID, taskID); err != nil {
		return nil, err
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, errTitleRequired
		}
		patch.Title = &title
	}
	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		patch.Description = &description
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, errInvalidStatus
	}

	task, err := s.repo.UpdateTask(ctx, taskID, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errTaskNotFound
		}
		return nil, apperr.Internal("failed to update task", err)
	}
	return task, nil
}

// Delete は所有者であることを確認してからタスクを削除します。
func (s *Service) Delete(ctx context.Context, requesterID, taskID string) error {
	if _, err := s.authorize(ctx, requesterID, taskID); err != nil {
		return err
	}
	if err := s.repo.DeleteTask(ctx, taskID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errTaskNotFound
		}
		return apperr.Internal("failed to delete task", err)
	}
	return nil
}

// authorize はタスクを取得し、requesterID が所有者でなければ拒否します。
func (s *Service) authorize(ctx context.Context, requesterID, taskID string) (*store.Task, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errTaskNotFound
		}
		return nil, apperr.Internal("failed to load task", err)
	}
	if task.UserID != requesterID {
		return nil, errNotTaskOwner
	}
	return task, nil
}
