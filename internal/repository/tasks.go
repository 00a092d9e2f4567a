package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/chetan-code/taskflow/internal/models"
)

// TaskRepo keeps each identity's tasks in its own partition.
type TaskRepo struct {
	docs *DocumentRepo
}

func NewTaskRepo(docs *DocumentRepo) *TaskRepo {
	return &TaskRepo{docs: docs}
}

// TaskPartition is the partition holding the tasks of one identity.
func TaskPartition(userID string) string {
	return "users/" + userID + "/tasks"
}

func (r *TaskRepo) Create(ctx context.Context, userID string, task models.Task) error {
	return r.docs.Write(ctx, TaskPartition(userID), task.ID, models.NewTaskRecord(task))
}

func (r *TaskRepo) ListByUser(ctx context.Context, userID string) ([]models.Task, error) {
	docs, err := r.docs.ListAll(ctx, TaskPartition(userID))
	if err != nil {
		return nil, err
	}
	tasks := make([]models.Task, 0, len(docs))
	for _, doc := range docs {
		var rec models.TaskRecord
		if err := json.Unmarshal(doc.Body, &rec); err != nil {
			// one bad record should not hide the rest of the list
			slog.Error("task_record_decode_failed", "user", userID, "id", doc.ID, "error", err)
			continue
		}
		tasks = append(tasks, rec.Task(doc.ID, doc.CreatedAt))
	}
	return tasks, nil
}

func (r *TaskRepo) UpdateStatus(ctx context.Context, userID, taskID string, status models.Status) error {
	if err := r.docs.Update(ctx, TaskPartition(userID), taskID, models.StatusPatch(status)); err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	return nil
}
