package models

import (
	"strings"
	"time"
)

// RecordVersion is the version written by this application. Version 0
// records predate the status field and carry only the completed flag.
const RecordVersion = 2

// TaskRecord is the stored document shape of a task.
type TaskRecord struct {
	Version     int    `json:"version,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	DueDate     string `json:"dueDate,omitempty"`
	Status      string `json:"status,omitempty"`
	Completed   bool   `json:"completed"`
}

// NewTaskRecord builds the current record shape for t. Completed mirrors
// the status so readers of the legacy flag stay correct.
func NewTaskRecord(t Task) TaskRecord {
	rec := TaskRecord{
		Version:     RecordVersion,
		Title:       t.Title,
		Description: t.Description,
		Category:    string(t.Category),
		Status:      string(t.Status),
		Completed:   t.Status == StatusCompleted,
	}
	if !t.DueDate.IsZero() {
		rec.DueDate = t.DueDate.Format(DateLayout)
	}
	return rec
}

// Task decodes the record, applying the defaulting rules for older shapes.
func (r TaskRecord) Task(id string, createdAt time.Time) Task {
	t := Task{
		ID:          id,
		Title:       r.Title,
		Description: r.Description,
		Category:    Category(r.Category),
		DueDate:     parseDueDate(r.DueDate),
		CreatedAt:   createdAt,
	}
	if st, ok := ParseStatus(r.Status); ok {
		t.Status = st
	} else if r.Completed {
		t.Status = StatusCompleted
	} else {
		t.Status = StatusTodo
	}
	return t
}

// StatusPatch is the partial record written by a status edit.
func StatusPatch(s Status) map[string]any {
	return map[string]any{
		"status":    string(s),
		"completed": s == StatusCompleted,
	}
}

func parseDueDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	if d, err := time.Parse(DateLayout, raw); err == nil {
		return d
	}
	// legacy records stored a full timestamp
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		y, m, d := ts.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return time.Time{}
}
