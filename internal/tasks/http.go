package tasks

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/whoabuu/task-manager/internal/apperr"
	"github.com/whoabuu/task-manager/internal/auth"
	"github.com/whoabuu/task-manager/internal/httpx"
	"github.com/whoabuu/task-manager/internal/store"
)

// Lister はログインユーザーのタスク一覧を返します。
type Lister interface {
	List(ctx context.Context, ownerID string) ([]store.Task, error)
}

// Creator はタスクを作成します。
type Creator interface {
	Create(ctx context.Context, ownerID string, in CreateInput) (*store.Task, error)
}

// Updater は所有者チェック付きでタスクを更新します。
type Updater interface {
	Update(ctx context.Context, requesterID, taskID string, patch store.TaskPatch) (*store.Task, error)
}

// Deleter は所有者チェック付きでタスクを削除します。
type Deleter interface {
	Delete(ctx context.Context, requesterID, taskID string) error
}

type createRequest struct {
	Title       string            `json:"title"`
	Description *string           `json:"description"`
	Status      *store.TaskStatus `json:"status"`
}

type updateRequest struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Status      *store.TaskStatus `json:"status"`
}

// ListHandler は GET /api/tasks のハンドラーを返します。
func ListHandler(svc Lister) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}
		tasks, err := svc.List(c.Request.Context(), user.ID)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, tasks)
	}
}

// CreateHandler は POST /api/tasks のハンドラーを返します。
func CreateHandler(svc Creator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}
		var req createRequest
		if err := httpx.BindJSON(c, &req, false); err != nil {
			apperr.Respond(c, err)
			return
		}

		task, err := svc.Create(c.Request.Context(), user.ID, CreateInput{
			Title:       req.Title,
			Description: req.Description,
			Status:      req.Status,
		})
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, task)
	}
}

// UpdateHandler は PUT /api/tasks/:id のハンドラーを返します。空のボディは何も変更しません。
func UpdateHandler(svc Updater) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}
		var req updateRequest
		if err := httpx.BindJSON(c, &req, true); err != nil {
			apperr.Respond(c, err)
			return
		}

		task, err := svc.Update(c.Request.Context(), user.ID, c.Param("id"), store.TaskPatch{
			Title:       req.Title,
			Description: req.Description,
			Status:      req.Status,
		})
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, task)
	}
}

// DeleteHandler は DELETE /api/tasks/:id のハンドラーを返します。
func DeleteHandler(svc Deleter) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}
		id := c.Param("id")
		if err := svc.Delete(c.Request.Context(), user.ID, id); err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":      id,
			"message": "Task deleted successfully",
		})
	}
}

// currentUser はログインユーザーを返します。RequireLogin を通っていない場合は 401 を返します。
func currentUser(c *gin.Context) (*store.User, bool) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		apperr.Abort(c, apperr.Authentication("NO_TOKEN", "Not authorized, no token provided"))
		return nil, false
	}
	return user, true
}
