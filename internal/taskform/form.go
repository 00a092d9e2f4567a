// Package taskform decodes, validates and submits the new task form.
package taskform

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/chetan-code/taskflow/internal/models"
)

// Field names a form input. The values double as the HTML input names.
type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldCategory    Field = "category"
	FieldStatus      Field = "status"
	FieldDueDate     Field = "dueDate"
)

// Form is the raw user input of the new task page.
type Form struct {
	Title       string
	Description string
	Category    string
	Status      string
	DueDate     string
}

// Decode reads a submitted form. Every category value is applied in order,
// so the last known category wins.
func Decode(v url.Values) Form {
	f := Form{
		Title:       v.Get(string(FieldTitle)),
		Description: v.Get(string(FieldDescription)),
		Status:      v.Get(string(FieldStatus)),
		DueDate:     v.Get(string(FieldDueDate)),
	}
	for _, c := range v[string(FieldCategory)] {
		f.SelectCategory(c)
	}
	return f
}

// SelectCategory selects c and deselects the other category. Unknown values
// leave the selection alone.
func (f *Form) SelectCategory(c string) {
	if cat, ok := models.ParseCategory(c); ok {
		f.Category = string(cat)
	}
}

// Selected reports whether c is the current category, for the toggle buttons.
func (f Form) Selected(c models.Category) bool {
	return f.Category == string(c)
}

// Validate checks every required field and returns all violations, or nil.
func (f Form) Validate() Errors {
	errs := Errors{}
	if strings.TrimSpace(f.Title) == "" {
		errs[FieldTitle] = "Title is required"
	}
	if _, ok := models.ParseCategory(f.Category); !ok {
		errs[FieldCategory] = "Category is required"
	}
	if _, ok := models.ParseStatus(f.Status); !ok {
		errs[FieldStatus] = "Status is required"
	}
	if _, err := time.Parse(models.DateLayout, strings.TrimSpace(f.DueDate)); err != nil {
		errs[FieldDueDate] = "Select a due date"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Task converts a valid form into a task with the given id.
func (f Form) Task(id string) models.Task {
	cat, _ := models.ParseCategory(f.Category)
	st, _ := models.ParseStatus(f.Status)
	due, _ := time.Parse(models.DateLayout, strings.TrimSpace(f.DueDate))
	return models.Task{
		ID:          id,
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		Category:    cat,
		DueDate:     due,
		Status:      st,
	}
}

// Reset returns the form to its empty state.
func (f *Form) Reset() {
	*f = Form{}
}

// Errors maps each invalid field to its message.
type Errors map[Field]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, string(f))
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, e[Field(f)])
	}
	return "invalid task: " + strings.Join(msgs, "; ")
}

// For returns the message for field, or "".
func (e Errors) For(field string) string {
	return e[Field(field)]
}
