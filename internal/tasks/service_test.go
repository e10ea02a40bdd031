package tasks

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whoabuu/task-manager/internal/apperr"
	"github.com/whoabuu/task-manager/internal/store"
)

// memoryTasks はテスト用の TaskRepository です。
type memoryTasks struct {
	mu     sync.Mutex
	byID   map[string]store.Task
	seq    int
	writes int
	err    error
}

func newMemoryTasks() *memoryTasks {
	return &memoryTasks{byID: make(map[string]store.Task)}
}

func (m *memoryTasks) ListTasks(_ context.Context, ownerID string) ([]store.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []store.Task
	for _, t := range m.byID {
		if t.UserID == ownerID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryTasks) CreateTask(_ context.Context, task *store.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.seq++
	now := time.Unix(int64(m.seq), 0).UTC()
	task.ID = "task-" + strconv.Itoa(m.seq)
	task.CreatedAt = now
	task.UpdatedAt = now
	m.byID[task.ID] = *task
	m.writes++
	return nil
}

func (m *memoryTasks) GetTask(_ context.Context, id string) (*store.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	t, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &t, nil
}

func (m *memoryTasks) UpdateTask(_ context.Context, id string, patch store.TaskPatch) (*store.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	t.UpdatedAt = t.UpdatedAt.Add(time.Second)
	m.byID[id] = t
	m.writes++
	return &t, nil
}

func (m *memoryTasks) DeleteTask(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.byID, id)
	m.writes++
	return nil
}

func newTestService(t *testing.T) (*Service, *memoryTasks) {
	t.Helper()
	repo := newMemoryTasks()
	svc, err := NewService(repo)
	require.NoError(t, err)
	return svc, repo
}

func strPtr(s string) *string { return &s }

func statusPtr(s store.TaskStatus) *store.TaskStatus { return &s }

func TestNewServiceRequiresRepository(t *testing.T) {
	_, err := NewService(nil)
	assert.Error(t, err)
}

func TestCreateDefaults(t *testing.T) {
	svc, _ := newTestService(t)

	task, err := svc.Create(context.Background(), "alice", CreateInput{Title: "  Buy milk  "})
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "Buy milk", task.Title)
	assert.Equal(t, "", task.Description)
	assert.Equal(t, store.StatusPending, task.Status)
	assert.Equal(t, "alice", task.UserID)
}

func TestCreateValidation(t *testing.T) {
	svc, repo := newTestService(t)

	_, err := svc.Create(context.Background(), "alice", CreateInput{Title: "   "})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Create(context.Background(), "alice", CreateInput{Title: "x", Status: statusPtr("Done")})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Zero(t, repo.writes)

	task, err := svc.Create(context.Background(), "alice", CreateInput{
		Title:       "x",
		Description: strPtr(" details "),
		Status:      statusPtr(store.StatusInProgress),
	})
	require.NoError(t, err)
	assert.Equal(t, "details", task.Description)
	assert.Equal(t, store.StatusInProgress, task.Status)
}

func TestListScopedToOwner(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	empty, err := svc.List(ctx, "alice")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	first, err := svc.Create(ctx, "alice", CreateInput{Title: "first"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, "alice", CreateInput{Title: "second"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "bob", CreateInput{Title: "bob's"})
	require.NoError(t, err)

	tasks, err := svc.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, second.ID, tasks[0].ID)
	assert.Equal(t, first.ID, tasks[1].ID)
}

func TestUpdateByOwner(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	task, err := svc.Create(ctx, "alice", CreateInput{Title: "Buy milk"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "alice", task.ID, store.TaskPatch{Status: statusPtr(store.StatusCompleted)})
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, updated.Status)
	assert.Equal(t, "Buy milk", updated.Title)
	assert.True(t, updated.UpdatedAt.After(task.UpdatedAt))
}

func TestUpdateRejectsNonOwner(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	task, err := svc.Create(ctx, "alice", CreateInput{Title: "Buy milk"})
	require.NoError(t, err)
	writes := repo.writes

	_, err = svc.Update(ctx, "mallory", task.ID, store.TaskPatch{Title: strPtr("pwned")})
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
	assert.Equal(t, writes, repo.writes)

	stored, err := repo.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", stored.Title)
}

func TestUpdateChecksOwnershipBeforeInput(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	task, err := svc.Create(ctx, "alice", CreateInput{Title: "Buy milk"})
	require.NoError(t, err)
	writes := repo.writes

	_, err = svc.Update(ctx, "mallory", task.ID, store.TaskPatch{Title: strPtr("   ")})
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
	_, err = svc.Update(ctx, "mallory", task.ID, store.TaskPatch{Status: statusPtr("Bogus")})
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))

	_, err = svc.Update(ctx, "alice", "missing", store.TaskPatch{Status: statusPtr("Bogus")})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, writes, repo.writes)
}

func TestUpdateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	task, err := svc.Create(ctx, "alice", CreateInput{Title: "Buy milk"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, "alice", task.ID, store.TaskPatch{Title: strPtr(" ")})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Update(ctx, "alice", task.ID, store.TaskPatch{Status: statusPtr("Archived")})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Update(ctx, "alice", "missing", store.TaskPatch{})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	task, err := svc.Create(ctx, "alice", CreateInput{Title: "Buy milk"})
	require.NoError(t, err)

	err = svc.Delete(ctx, "bob", task.ID)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))

	require.NoError(t, svc.Delete(ctx, "alice", task.ID))

	for i := 0; i < 3; i++ {
		err = svc.Delete(ctx, "alice", task.ID)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	}
}

func TestRepositoryFailureIsInternal(t *testing.T) {
	svc, repo := newTestService(t)
	repo.err = errors.New("disk full")

	_, err := svc.List(context.Background(), "alice")
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	_, err = svc.Create(context.Background(), "alice", CreateInput{Title: "x"})
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	err = svc.Delete(context.Background(), "alice", "task-1")
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}
