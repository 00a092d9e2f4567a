package models

import (
	"strings"
	"time"
)

// Category groups a task as work or personal.
type Category string

const (
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
)

// Categories lists the selectable categories in display order.
var Categories = []Category{CategoryWork, CategoryPersonal}

// ParseCategory reports whether s names one of the fixed categories.
func ParseCategory(s string) (Category, bool) {
	switch c := Category(strings.TrimSpace(s)); c {
	case CategoryWork, CategoryPersonal:
		return c, true
	}
	return "", false
}

// Status is the workflow state of a task.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists every status in workflow order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusCompleted}

// ParseStatus reports whether s names one of the fixed statuses.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(strings.TrimSpace(s)); st {
	case StatusTodo, StatusInProgress, StatusCompleted:
		return st, true
	}
	return "", false
}

// Label is the human readable form used in selects.
func (s Status) Label() string {
	switch s {
	case StatusTodo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusCompleted:
		return "Completed"
	}
	return string(s)
}

// DateLayout is the calendar date format used for due dates.
const DateLayout = "2006-01-02"

// Task is one personal task owned by a single identity.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	DueDate     time.Time `json:"due_date"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// DueLabel formats the due date for display, or "" when unset.
func (t Task) DueLabel() string {
	if t.DueDate.IsZero() {
		return ""
	}
	return t.DueDate.Format("Jan 2, 2006")
}
