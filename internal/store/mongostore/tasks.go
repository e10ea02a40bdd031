package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/whoabuu/task-manager/internal/store"
)

// ListTasks は所有者のタスクを作成日時の降順で返します。
func (s *Store) ListTasks(ctx context.Context, ownerID string) ([]store.Task, error) {
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return []store.Task{}, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.tasks.Find(ctx, bson.M{"user": owner}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []taskDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	tasks := make([]store.Task, len(docs))
	for i := range docs {
		tasks[i] = docs[i].toTask()
	}
	return tasks, nil
}

// CreateTask はタスクを保存します。
func (s *Store) CreateTask(ctx context.Context, task *store.Task) error {
	owner, err := primitive.ObjectIDFromHex(task.UserID)
	if err != nil {
		return errors.New("mongostore: task owner is not a valid ObjectID")
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := taskDocument{
		ID:          primitive.NewObjectID(),
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		User:        owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.tasks.InsertOne(ctx, doc); err != nil {
		return err
	}
	*task = doc.toTask()
	return nil
}

// GetTask は ID でタスクを取得します。
func (s *Store) GetTask(ctx context.Context, id string) (*store.Task, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var doc taskDocument
	if err := s.tasks.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	task := doc.toTask()
	return &task, nil
}

// UpdateTask は patch の非 nil フィールドを $set し、更新後のドキュメントを返します。
func (s *Store) UpdateTask(ctx context.Context, id string, patch store.TaskPatch) (*store.Task, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updatedAt": time.Now().UTC().Truncate(time.Millisecond)}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Status != nil {
		set["status"] = string(*patch.Status)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc taskDocument
	err = s.tasks.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	task := doc.toTask()
	return &task, nil
}

// DeleteTask はタスクを削除します。
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := s.tasks.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
