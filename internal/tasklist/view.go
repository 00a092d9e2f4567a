// Package tasklist is the dashboard's view of one identity's tasks: a single
// fetch, a derived filter and inline status edits.
package tasklist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chetan-code/taskflow/internal/models"
)

const (
	LoadFailedNotice   = "Failed to load tasks. Please try again."
	UpdateFailedNotice = "Failed to update task status. Please try again."
)

// TaskStore reads and edits the tasks of one partition.
type TaskStore interface {
	ListByUser(ctx context.Context, userID string) ([]models.Task, error)
	UpdateStatus(ctx context.Context, userID, taskID string, status models.Status) error
}

// Stats counts tasks per status.
type Stats struct {
	Total      int
	Todo       int
	InProgress int
	Completed  int
}

type View struct {
	store TaskStore

	owner  string
	loaded bool
	tasks  []models.Task

	Filter Filter
	// Notice is the user-facing message of the last failure, if any.
	Notice string
}

func NewView(store TaskStore) *View {
	return &View{store: store, Filter: Filter{Category: All, Status: All}}
}

// Load fetches the owner's tasks. Repeated calls for the same owner do
// nothing; a different owner replaces the loaded set.
func (v *View) Load(ctx context.Context, owner models.Identity) error {
	if v.loaded && v.owner == owner.ID {
		return nil
	}
	v.owner = owner.ID
	v.loaded = false
	v.tasks = nil

	tasks, err := v.store.ListByUser(ctx, owner.ID)
	if err != nil {
		slog.ErrorContext(ctx, "task_list_load_failed", "uid", owner.ID, "error", err)
		v.Notice = LoadFailedNotice
		return fmt.Errorf("load tasks: %w", err)
	}
	v.tasks = tasks
	v.loaded = true
	return nil
}

// Visible is the loaded set narrowed by the current filter.
func (v *View) Visible() []models.Task {
	return v.Filter.Apply(v.tasks)
}

// Tasks returns a copy of the full loaded set.
func (v *View) Tasks() []models.Task {
	return append([]models.Task(nil), v.tasks...)
}

// UpdateStatus writes the new status to the backend and only then updates
// the loaded task. On failure the loaded task keeps its old status.
func (v *View) UpdateStatus(ctx context.Context, taskID string, status models.Status) error {
	if !v.loaded {
		return errors.New("update task status: no tasks loaded")
	}
	if err := v.store.UpdateStatus(ctx, v.owner, taskID, status); err != nil {
		slog.ErrorContext(ctx, "task_status_update_failed", "uid", v.owner, "id", taskID, "error", err)
		v.Notice = UpdateFailedNotice
		return err
	}

	for i := range v.tasks {
		if v.tasks[i].ID == taskID {
			v.tasks[i].Status = status
		}
	}
	slog.InfoContext(ctx, "task_status_updated", "uid", v.owner, "id", taskID, "status", status)
	return nil
}

func (v *View) Stats() Stats {
	st := Stats{Total: len(v.tasks)}
	for _, t := range v.tasks {
		switch t.Status {
		case models.StatusTodo:
			st.Todo++
		case models.StatusInProgress:
			st.InProgress++
		case models.StatusCompleted:
			st.Completed++
		}
	}
	return st
}

// EmptyCaption is shown when nothing is visible.
func (v *View) EmptyCaption() string {
	if v.Filter.Active() {
		return "No tasks match your filters"
	}
	return "No tasks available"
}
