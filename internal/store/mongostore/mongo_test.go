package mongostore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/whoabuu/task-manager/internal/store"
)

func TestIsMongoURL(t *testing.T) {
	assert.True(t, IsMongoURL("mongodb://localhost:27017/tasks"))
	assert.True(t, IsMongoURL("mongodb+srv://cluster.example.net"))
	assert.False(t, IsMongoURL("sqlite://tasks.db"))
	assert.False(t, IsMongoURL("postgres://localhost"))
}

func TestParseIDTreatsMalformedAsNotFound(t *testing.T) {
	_, err := parseID("not-an-object-id")
	assert.ErrorIs(t, err, store.ErrNotFound)

	oid := primitive.NewObjectID()
	got, err := parseID(oid.Hex())
	require.NoError(t, err)
	assert.Equal(t, oid, got)
}

func TestTaskDocumentConversion(t *testing.T) {
	owner := primitive.NewObjectID()
	doc := taskDocument{
		ID:     primitive.NewObjectID(),
		Title:  "Buy milk",
		Status: "Pending",
		User:   owner,
	}
	task := doc.toTask()
	assert.Equal(t, doc.ID.Hex(), task.ID)
	assert.Equal(t, owner.Hex(), task.UserID)
	assert.Equal(t, store.StatusPending, task.Status)
}

// MONGO_TEST_URI が設定されている場合のみ実サーバーで確認します。
func openIntegrationStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI is not set")
	}
	ctx := context.Background()
	dbName := fmt.Sprintf("taskmanager_test_%d", time.Now().UnixNano())
	st, err := Open(ctx, uri, dbName)
	require.NoError(t, err)
	require.NoError(t, st.Migrate(ctx))
	t.Cleanup(func() {
		_ = st.users.Database().Drop(context.Background())
		_ = st.Close(context.Background())
	})
	return st
}

func TestIntegrationUserAndTaskLifecycle(t *testing.T) {
	st := openIntegrationStore(t)
	ctx := context.Background()

	user := &store.User{Name: "Alice", Email: "a@x.com", PasswordHash: "hash"}
	require.NoError(t, st.CreateUser(ctx, user))
	err := st.CreateUser(ctx, &store.User{Name: "Dup", Email: "a@x.com", PasswordHash: "hash"})
	assert.ErrorIs(t, err, store.ErrDuplicateEmail)

	task := &store.Task{Title: "Buy milk", Status: store.StatusPending, UserID: user.ID}
	require.NoError(t, st.CreateTask(ctx, task))

	completed := store.StatusCompleted
	updated, err := st.UpdateTask(ctx, task.ID, store.TaskPatch{Status: &completed})
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, updated.Status)

	tasks, err := st.ListTasks(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)

	require.NoError(t, st.DeleteTask(ctx, task.ID))
	assert.ErrorIs(t, st.DeleteTask(ctx, task.ID), store.ErrNotFound)
}
