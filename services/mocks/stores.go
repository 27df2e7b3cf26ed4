package mocks

import (
	"context"
	"sync"
	"time"

	catalogRepo "concierge/database/repository/catalog"
	taskRepo "concierge/database/repository/tasks"
	"concierge/models"

	"github.com/hibiken/asynq"
)

// FakeTaskRepo keeps tasks in memory.
type FakeTaskRepo struct {
	mu    sync.Mutex
	Tasks []*models.StaffTask
}

func (f *FakeTaskRepo) FindOpenByIdentity(_ context.Context, conversationID, identity string, since time.Time) (*models.StaffTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.Tasks) - 1; i >= 0; i-- {
		t := f.Tasks[i]
		if t.ConversationID == conversationID && t.ItemIdentity == identity &&
			t.Status == models.TaskStatusOpen && !t.CreatedAt.Before(since) {
			c := *t
			return &c, nil
		}
	}
	return nil, nil
}

func (f *FakeTaskRepo) GetByID(_ context.Context, id string) (*models.StaffTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.Tasks {
		if t.ID == id {
			c := *t
			return &c, nil
		}
	}
	return nil, taskRepo.ErrNotFound
}

func (f *FakeTaskRepo) Create(_ context.Context, task *models.StaffTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *task
	f.Tasks = append(f.Tasks, &c)
	return nil
}

func (f *FakeTaskRepo) UpdateQuantity(_ context.Context, id string, quantity int, metadata map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.Tasks {
		if t.ID != id {
			continue
		}
		t.Quantity = quantity
		if len(metadata) > 0 && t.Metadata == nil {
			t.Metadata = map[string]string{}
		}
		for k, v := range metadata {
			t.Metadata[k] = v
		}
		return nil
	}
	return taskRepo.ErrNotFound
}

// Snapshot returns copies of the stored tasks.
func (f *FakeTaskRepo) Snapshot() []models.StaffTask {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.StaffTask, 0, len(f.Tasks))
	for _, t := range f.Tasks {
		out = append(out, *t)
	}
	return out
}

// FakeQueue records enqueued asynq tasks.
type FakeQueue struct {
	mu    sync.Mutex
	Tasks []*asynq.Task
}

func (q *FakeQueue) Enqueue(task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Tasks = append(q.Tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

// Len returns the number of enqueued tasks.
func (q *FakeQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.Tasks)
}

// FakeCatalogRepo serves a fixed catalog; Err fails every call.
type FakeCatalogRepo struct {
	Catalog models.CatalogSnapshot
	Err     error
}

var _ catalogRepo.CatalogRepository = (*FakeCatalogRepo)(nil)

func (f *FakeCatalogRepo) ListServices(context.Context, string) ([]models.Service, error) {
	return f.Catalog.Services, f.Err
}

func (f *FakeCatalogRepo) ListMenuItems(_ context.Context, _ string, mealType string) ([]models.MenuItem, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	var out []models.MenuItem
	for _, m := range f.Catalog.MenuItems {
		if !m.Available {
			continue
		}
		if mealType == "" || m.MealType == mealType || m.MealType == "all_day" {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *FakeCatalogRepo) ListRequestItems(context.Context, string) ([]models.RequestItem, error) {
	return f.Catalog.RequestItems, f.Err
}

// FakeRulesRepo serves fixed rules and required-field overrides keyed by category.
type FakeRulesRepo struct {
	Rules    []models.BusinessRule
	Required map[models.ServiceCategory][]string
}

func (f *FakeRulesRepo) ListBusinessRules(context.Context, string) ([]models.BusinessRule, error) {
	return f.Rules, nil
}

func (f *FakeRulesRepo) GetRequiredFields(_ context.Context, _ string, category models.ServiceCategory, _ string) ([]string, error) {
	return f.Required[category], nil
}

// FakeFAQRepo serves fixed FAQ entries and counts hits.
type FakeFAQRepo struct {
	mu      sync.Mutex
	Entries []models.FAQEntry
	Hits    map[string]int
}

func (f *FakeFAQRepo) ListByTenant(context.Context, string) ([]models.FAQEntry, error) {
	return f.Entries, nil
}

func (f *FakeFAQRepo) RecordHit(_ context.Context, id string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Hits == nil {
		f.Hits = map[string]int{}
	}
	f.Hits[id]++
	return nil
}

// FakeStays returns one stay for every guest.
type FakeStays struct {
	Stay *models.Stay
}

func (f *FakeStays) FindRelevantStay(context.Context, string, string, time.Time) (*models.Stay, error) {
	return f.Stay, nil
}
