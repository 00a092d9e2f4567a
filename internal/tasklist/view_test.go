package tasklist

import (
	"context"
	"errors"
	"net/url"
	"reflect"
	"testing"

	"github.com/chetan-code/taskflow/internal/models"
)

var sample = []models.Task{
	{ID: "1", Title: "Buy milk", Category: models.CategoryPersonal, Status: models.StatusTodo},
	{ID: "2", Title: "Write report", Category: models.CategoryWork, Status: models.StatusCompleted},
	{ID: "3", Title: "Ship release", Description: "Tag and publish the STRASSE build", Category: models.CategoryWork, Status: models.StatusInProgress},
}

func ids(tasks []models.Task) []string {
	out := []string{}
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestFilterApply(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"no filter", Filter{}, []string{"1", "2", "3"}},
		{"wildcards", Filter{Category: All, Status: All}, []string{"1", "2", "3"}},
		{"category work", Filter{Category: "work", Status: All}, []string{"2", "3"}},
		{"status", Filter{Status: "todo"}, []string{"1"}},
		{"query title case-insensitive", Filter{Query: "MILK"}, []string{"1"}},
		{"query description", Filter{Query: "publish"}, []string{"3"}},
		{"query category", Filter{Query: "perso"}, []string{"1"}},
		{"query folds unicode", Filter{Query: "straße"}, []string{"3"}},
		{"and of predicates", Filter{Query: "re", Category: "work", Status: "completed"}, []string{"2"}},
		{"no match", Filter{Query: "zebra"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(tt.filter.Apply(sample))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterByWorkCategory(t *testing.T) {
	tasks := sample[:2]
	got := Filter{Category: "work", Status: All}.Apply(tasks)
	if len(got) != 1 || got[0].Title != "Write report" {
		t.Fatalf("got %+v", got)
	}
}

func TestFilterIsIdempotentAndPure(t *testing.T) {
	f := Filter{Query: "r", Category: "work"}
	in := append([]models.Task(nil), sample...)
	once := f.Apply(in)
	twice := f.Apply(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("not idempotent: %v vs %v", ids(once), ids(twice))
	}
	if !reflect.DeepEqual(in, sample) {
		t.Error("Apply mutated its input")
	}
}

func TestParseFilterRoundTrip(t *testing.T) {
	f := ParseFilter(url.Values{"q": {"  milk "}, "category": {"personal"}})
	if f.Query != "milk" || f.Category != "personal" || f.Status != All {
		t.Fatalf("parsed %+v", f)
	}
	if !f.Active() {
		t.Error("expected active filter")
	}
	if got := f.Values().Encode(); got != "category=personal&q=milk" {
		t.Errorf("encoded %q", got)
	}
	if ParseFilter(url.Values{}).Active() {
		t.Error("empty params should not filter")
	}
}

type fakeStore struct {
	tasks     map[string][]models.Task
	lists     int
	listErr   error
	updateErr error
	updates   []string
}

func (f *fakeStore) ListByUser(ctx context.Context, userID string) ([]models.Task, error) {
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.Task(nil), f.tasks[userID]...), nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, userID, taskID string, status models.Status) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, userID+"/"+taskID+"="+string(status))
	return nil
}

var (
	ada = models.Identity{ID: "uid-ada"}
	bob = models.Identity{ID: "uid-bob"}
)

func TestLoadFetchesOncePerIdentity(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{tasks: map[string][]models.Task{
		ada.ID: sample,
		bob.ID: sample[:1],
	}}
	v := NewView(store)

	for i := 0; i < 3; i++ {
		if err := v.Load(ctx, ada); err != nil {
			t.Fatalf("load: %v", err)
		}
	}
	if store.lists != 1 {
		t.Errorf("fetched %d times, want 1", store.lists)
	}
	if len(v.Tasks()) != 3 {
		t.Errorf("loaded %d tasks", len(v.Tasks()))
	}

	if err := v.Load(ctx, bob); err != nil {
		t.Fatalf("load: %v", err)
	}
	if store.lists != 2 || len(v.Tasks()) != 1 {
		t.Errorf("identity change should refetch: lists=%d tasks=%d", store.lists, len(v.Tasks()))
	}
}

func TestLoadFailureSetsNotice(t *testing.T) {
	store := &fakeStore{listErr: errors.New("db down")}
	v := NewView(store)
	if err := v.Load(context.Background(), ada); err == nil {
		t.Fatal("expected error")
	}
	if v.Notice != LoadFailedNotice {
		t.Errorf("notice = %q", v.Notice)
	}
	if len(v.Visible()) != 0 {
		t.Error("nothing should be visible after a failed load")
	}
}

func TestUpdateStatusAfterBackend(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{tasks: map[string][]models.Task{ada.ID: sample}}
	v := NewView(store)
	if err := v.Load(ctx, ada); err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := v.UpdateStatus(ctx, "1", models.StatusCompleted); err != nil {
		t.Fatalf("update: %v", err)
	}
	if v.Tasks()[0].Status != models.StatusCompleted {
		t.Error("expected in-memory status to follow a successful update")
	}
	if len(store.updates) != 1 || store.updates[0] != "uid-ada/1=completed" {
		t.Errorf("updates = %v", store.updates)
	}
	if st := v.Stats(); st != (Stats{Total: 3, InProgress: 1, Completed: 2}) {
		t.Errorf("stats = %+v", st)
	}
}

func TestUpdateStatusFailureLeavesRow(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{tasks: map[string][]models.Task{ada.ID: sample}}
	v := NewView(store)
	if err := v.Load(ctx, ada); err != nil {
		t.Fatalf("load: %v", err)
	}

	store.updateErr = errors.New("permission denied")
	if err := v.UpdateStatus(ctx, "1", models.StatusCompleted); err == nil {
		t.Fatal("expected error")
	}
	if v.Tasks()[0].Status != models.StatusTodo {
		t.Error("row should keep its previous status")
	}
	if v.Notice != UpdateFailedNotice {
		t.Errorf("notice = %q", v.Notice)
	}
}

func TestUpdateStatusRequiresLoad(t *testing.T) {
	v := NewView(&fakeStore{})
	if err := v.UpdateStatus(context.Background(), "1", models.StatusTodo); err == nil {
		t.Fatal("expected error before load")
	}
}

func TestEmptyCaption(t *testing.T) {
	v := NewView(&fakeStore{})
	if v.EmptyCaption() != "No tasks available" {
		t.Errorf("caption = %q", v.EmptyCaption())
	}
	v.Filter.Query = "x"
	if v.EmptyCaption() != "No tasks match your filters" {
		t.Errorf("caption = %q", v.EmptyCaption())
	}
}
