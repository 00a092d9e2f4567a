package handler

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/markbates/goth"

	"github.com/chetan-code/taskflow/internal/identity"
	"github.com/chetan-code/taskflow/internal/models"
	"github.com/chetan-code/taskflow/internal/repository"
	"github.com/chetan-code/taskflow/internal/session"
	"github.com/chetan-code/taskflow/internal/taskform"
	"github.com/chetan-code/taskflow/internal/tasklist"
)

const (
	createFailedNotice   = "Failed to create task. Please try again."
	submitPendingNotice  = "Your task is still being created."
	invalidStatusMessage = "Unknown task status"
)

// Authenticator is the identity service as seen by the handlers.
type Authenticator interface {
	Register(ctx context.Context, email, password string) (models.Identity, error)
	Authenticate(ctx context.Context, email, password string) (models.Identity, string, error)
	AuthenticateViaProvider(ctx context.Context, user goth.User) (models.Identity, string, error)
	SignOut(ctx context.Context, id models.Identity)
}

// TaskStore reads, creates and edits tasks in an identity's partition.
type TaskStore interface {
	tasklist.TaskStore
	taskform.TaskCreator
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the collaborators of Handler. Provider may be nil, which turns
// provider sign-in off.
type Deps struct {
	Auth     Authenticator
	Tasks    TaskStore
	Provider identity.Provider
	DB       Pinger
}

type Handler struct {
	auth      Authenticator
	tasks     TaskStore
	provider  identity.Provider
	db        Pinger
	submitter *taskform.Submitter
	pages     map[string]*template.Template
}

func New(d Deps) (*Handler, error) {
	if d.Auth == nil || d.Tasks == nil {
		return nil, errors.New("handler: auth and tasks are required")
	}
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	return &Handler{
		auth:      d.Auth,
		tasks:     d.Tasks,
		provider:  d.Provider,
		db:        d.DB,
		submitter: taskform.NewSubmitter(d.Tasks),
		pages:     pages,
	}, nil
}

func HomeRedirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			slog.Error("health_check_failed", "error", err)
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Write([]byte("ok"))
}

// gated routes only run after authgate granted, so the identity is there
func currentIdentity(r *http.Request) (*session.Store, models.Identity) {
	s := session.MustFromContext(r.Context())
	id, ok := s.Identity()
	if !ok {
		panic("handler: gated route reached without an identity")
	}
	return s, id
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	s, id := currentIdentity(r)

	view := tasklist.NewView(h.tasks)
	view.Filter = tasklist.ParseFilter(r.URL.Query())

	status := http.StatusOK
	if err := view.Load(r.Context(), id); err != nil {
		status = http.StatusBadGateway
	}

	data := newDashboardPage(s.DisplayName(), s.Photo(), view)
	//check if we have htmx request - and update the part
	if isHTMX(r) {
		h.render(w, r, status, pageDashboard, "task-list", data)
		return
	}
	h.render(w, r, status, pageDashboard, "layout", data)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	s, id := currentIdentity(r)
	taskID := chi.URLParam(r, "id")

	next, ok := models.ParseStatus(r.PostFormValue("status"))
	if !ok {
		slog.Error("invalid_task_status",
			"method", r.Method,
			"path", r.URL.Path,
			"uid", id.ID,
			"status", r.PostFormValue("status"))
		http.Error(w, invalidStatusMessage, http.StatusBadRequest)
		return
	}

	// the filter rides on the query string, the form only carries the new status
	view := tasklist.NewView(h.tasks)
	view.Filter = tasklist.ParseFilter(r.URL.Query())

	status := http.StatusOK
	if err := view.Load(r.Context(), id); err != nil {
		status = http.StatusBadGateway
	} else if err := view.UpdateStatus(r.Context(), taskID, next); err != nil {
		status = http.StatusBadGateway
		if errors.Is(err, repository.ErrNotFound) {
			status = http.StatusNotFound
		}
	}

	data := newDashboardPage(s.DisplayName(), s.Photo(), view)
	if isHTMX(r) {
		h.renderTaskList(w, r, status, data)
		return
	}
	if status != http.StatusOK {
		h.render(w, r, status, pageDashboard, "layout", data)
		return
	}

	to := "/dashboard"
	if q := view.Filter.Values().Encode(); q != "" {
		to += "?" + q
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func (h *Handler) AddTaskPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageAddTask, "layout", newAddTaskPage(taskform.Form{}, nil, ""))
}

func (h *Handler) AddTask(w http.ResponseWriter, r *http.Request) {
	_, id := currentIdentity(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	form := taskform.Decode(r.PostForm)
	_, err := h.submitter.Submit(r.Context(), id, &form)

	var (
		errs   taskform.Errors
		status int
		notice string
	)
	switch {
	case err == nil:
		redirect(w, r, "/dashboard")
		return
	case errors.As(err, &errs):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, taskform.ErrSubmitInProgress):
		status = http.StatusConflict
		notice = submitPendingNotice
	default:
		status = http.StatusBadGateway
		notice = createFailedNotice
	}

	data := newAddTaskPage(form, errs, notice)
	if isHTMX(r) {
		h.render(w, r, status, pageAddTask, "task-form", data)
		return
	}
	h.render(w, r, status, pageAddTask, "layout", data)
}
