package taskform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/chetan-code/taskflow/internal/models"
)

var (
	ErrSubmitInProgress = errors.New("a task submission is already in progress")
	ErrSubmitFailed     = errors.New("failed to create task")
)

// TaskCreator writes a new task under its owner's partition.
type TaskCreator interface {
	Create(ctx context.Context, userID string, task models.Task) error
}

// Submitter turns valid forms into stored tasks, one submission per identity
// at a time.
type Submitter struct {
	tasks TaskCreator
	newID func() string

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewSubmitter(tasks TaskCreator) *Submitter {
	return &Submitter{
		tasks:    tasks,
		newID:    uuid.NewString,
		inFlight: make(map[string]struct{}),
	}
}

// Submit validates f and stores it as a task owned by owner. On success the
// form is reset. A validation failure returns Errors and a backend failure
// wraps ErrSubmitFailed; in both cases f is left as submitted.
func (s *Submitter) Submit(ctx context.Context, owner models.Identity, f *Form) (models.Task, error) {
	if owner.ID == "" {
		return models.Task{}, errors.New("submit task: no signed-in identity")
	}
	if errs := f.Validate(); errs != nil {
		return models.Task{}, errs
	}
	if !s.acquire(owner.ID) {
		return models.Task{}, ErrSubmitInProgress
	}
	defer s.release(owner.ID)

	task := f.Task(s.newID())
	if err := s.tasks.Create(ctx, owner.ID, task); err != nil {
		slog.ErrorContext(ctx, "task_create_failed", "uid", owner.ID, "error", err)
		return models.Task{}, fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}

	slog.InfoContext(ctx, "task_created", "uid", owner.ID, "id", task.ID)
	f.Reset()
	return task, nil
}

func (s *Submitter) acquire(uid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[uid]; busy {
		return false
	}
	s.inFlight[uid] = struct{}{}
	return true
}

func (s *Submitter) release(uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, uid)
}
