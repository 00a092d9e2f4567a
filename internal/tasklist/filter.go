package tasklist

import (
	"net/url"
	"strings"

	"golang.org/x/text/cases"

	"github.com/chetan-code/taskflow/internal/models"
)

// All is the wildcard value of the category and status selectors.
const All = "all"

// Filter is the search box plus the two selectors of the task list.
type Filter struct {
	Query    string
	Category string
	Status   string
}

// ParseFilter reads the filter from dashboard query parameters.
func ParseFilter(v url.Values) Filter {
	f := Filter{
		Query:    strings.TrimSpace(v.Get("q")),
		Category: v.Get("category"),
		Status:   v.Get("status"),
	}
	if f.Category == "" {
		f.Category = All
	}
	if f.Status == "" {
		f.Status = All
	}
	return f
}

// Values encodes f back into query parameters, omitting wildcards.
func (f Filter) Values() url.Values {
	v := url.Values{}
	if f.Query != "" {
		v.Set("q", f.Query)
	}
	if !wildcard(f.Category) {
		v.Set("category", f.Category)
	}
	if !wildcard(f.Status) {
		v.Set("status", f.Status)
	}
	return v
}

// Active reports whether any predicate narrows the list.
func (f Filter) Active() bool {
	return f.Query != "" || !wildcard(f.Category) || !wildcard(f.Status)
}

// Matches reports whether t satisfies all three predicates.
func (f Filter) Matches(t models.Task) bool {
	return f.matches(t, cases.Fold())
}

// Apply returns the matching tasks in input order. tasks is not modified.
func (f Filter) Apply(tasks []models.Task) []models.Task {
	fold := cases.Fold()
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.matches(t, fold) {
			out = append(out, t)
		}
	}
	return out
}

func (f Filter) matches(t models.Task, fold cases.Caser) bool {
	if !wildcard(f.Category) && string(t.Category) != f.Category {
		return false
	}
	if !wildcard(f.Status) && string(t.Status) != f.Status {
		return false
	}
	if f.Query == "" {
		return true
	}

	q := fold.String(f.Query)
	for _, field := range []string{t.Title, t.Description, string(t.Category)} {
		if strings.Contains(fold.String(field), q) {
			return true
		}
	}
	return false
}

func wildcard(v string) bool {
	return v == "" || v == All
}
