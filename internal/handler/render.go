package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/chetan-code/taskflow/internal/models"
	"github.com/chetan-code/taskflow/internal/taskform"
	"github.com/chetan-code/taskflow/internal/tasklist"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pageLogin     = "login.html"
	pageSignup    = "signup.html"
	pageDashboard = "dashboard.html"
	pageAddTask   = "addtask.html"
)

var funcs = template.FuncMap{
	"title": func(v any) string {
		return cases.Title(language.English).String(fmt.Sprint(v))
	},
}

// every page gets its own set so each can define "content"
func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template)
	for _, page := range []string{pageLogin, pageSignup, pageDashboard, pageAddTask} {
		t, err := template.New(page).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		pages[page] = t
	}
	return pages, nil
}

type authPage struct {
	Title           string
	Email           string
	Notice          string
	Info            string
	ProviderEnabled bool
}

type dashboardPage struct {
	Title        string
	Name         string
	Photo        string
	Notice       string
	Filter       tasklist.Filter
	Tasks        []models.Task
	Stats        tasklist.Stats
	EmptyCaption string
	Categories   []models.Category
	Statuses     []models.Status
}

func newDashboardPage(name, photo string, v *tasklist.View) dashboardPage {
	return dashboardPage{
		Title:        "Dashboard",
		Name:         name,
		Photo:        photo,
		Notice:       v.Notice,
		Filter:       v.Filter,
		Tasks:        v.Visible(),
		Stats:        v.Stats(),
		EmptyCaption: v.EmptyCaption(),
		Categories:   models.Categories,
		Statuses:     models.Statuses,
	}
}

// StatusURL is the status edit endpoint of a task, carrying the current
// filter so the list comes back filtered the same way.
func (p dashboardPage) StatusURL(id string) string {
	u := "/dashboard/tasks/" + url.PathEscape(id) + "/status"
	if q := p.Filter.Values().Encode(); q != "" {
		u += "?" + q
	}
	return u
}

type addTaskPage struct {
	Title      string
	Form       taskform.Form
	Errors     taskform.Errors
	Notice     string
	Categories []models.Category
	Statuses   []models.Status
}

func newAddTaskPage(f taskform.Form, errs taskform.Errors, notice string) addTaskPage {
	return addTaskPage{
		Title:      "Add Task",
		Form:       f,
		Errors:     errs,
		Notice:     notice,
		Categories: models.Categories,
		Statuses:   models.Statuses,
	}
}

// render executes one named template of a page into a buffer first, so a
// template error never leaves a half written response.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page, name string, data any) {
	var buf bytes.Buffer
	if err := h.pages[page].ExecuteTemplate(&buf, name, data); err != nil {
		slog.ErrorContext(r.Context(), "template_render_failed", "page", page, "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeHTML(w, status, &buf)
}

// renderTaskList writes the task list plus an out of band stats update.
func (h *Handler) renderTaskList(w http.ResponseWriter, r *http.Request, status int, data dashboardPage) {
	var buf bytes.Buffer
	tmpl := h.pages[pageDashboard]
	err := tmpl.ExecuteTemplate(&buf, "task-list", data)
	if err == nil {
		//find element with "stats-container" id and replace it
		fmt.Fprint(&buf, `<div id="stats-container" hx-swap-oob="true" style="display: flex; gap: 20px; margin-bottom: 1rem; font-size: 0.9rem;">`)
		err = tmpl.ExecuteTemplate(&buf, "stats-container", data)
		fmt.Fprint(&buf, `</div>`)
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "template_render_failed", "page", pageDashboard, "template", "task-list", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeHTML(w, status, &buf)
}

func writeHTML(w http.ResponseWriter, status int, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// htmx requests get HX-Redirect so the browser navigates instead of swapping
func redirect(w http.ResponseWriter, r *http.Request, to string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", to)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}
