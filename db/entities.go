// ABOUTME: Entity store for clients, opportunities and tasks
// ABOUTME: Keeps collections in memory and persists a full snapshot on every mutation
package db

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/harperreed/agentcrm/models"
	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"
)

// EntityStore owns the client, opportunity and task collections.
// Memory is only replaced after the snapshot write succeeds.
type EntityStore struct {
	mu            sync.RWMutex
	storage       Storage
	logger        *zap.Logger
	now           func() time.Time
	clients       []models.Client
	opportunities []models.Opportunity
	tasks         []models.Task
}

func NewEntityStore(storage Storage, logger *zap.Logger) *EntityStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EntityStore{
		storage:       storage,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
		clients:       []models.Client{},
		opportunities: []models.Opportunity{},
		tasks:         []models.Task{},
	}
}

// Load replaces the in-memory collections with what storage holds.
func (s *EntityStore) Load() {
	clients := LoadSnapshot[models.Client](s.storage, KeyClients, s.logger)
	opps := LoadSnapshot[models.Opportunity](s.storage, KeyOpportunities, s.logger)
	tasks := LoadSnapshot[models.Task](s.storage, KeyTasks, s.logger)

	s.mu.Lock()
	s.clients, s.opportunities, s.tasks = clients, opps, tasks
	s.mu.Unlock()

	s.logger.Debug("entity store loaded",
		zap.Int("clients", len(clients)),
		zap.Int("opportunities", len(opps)),
		zap.Int("tasks", len(tasks)))
}

// --- clients ---

func (s *EntityStore) AddClient(c models.Client) (models.Client, error) {
	if strings.TrimSpace(c.FullName) == "" {
		return models.Client{}, fmt.Errorf("%w: client name is required", ErrInvalid)
	}
	if c.PotentialValue < 0 {
		return models.Client{}, fmt.Errorf("%w: potential value must not be negative", ErrInvalid)
	}
	if c.Status == "" {
		c.Status = models.ClientStatusNew
	}
	c.ID = models.NewID()
	c.CreatedAt = s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	next := append(cloneSlice(s.clients), c)
	if err := SaveSnapshot(s.storage, KeyClients, next); err != nil {
		return models.Client{}, err
	}
	s.clients = next
	return c, nil
}

// UpdateClient replaces the client with the same id. It reports false when the id is unknown.
func (s *EntityStore) UpdateClient(c models.Client) (bool, error) {
	if c.PotentialValue < 0 {
		return false, fmt.Errorf("%w: potential value must not be negative", ErrInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOf(s.clients, func(x models.Client) bool { return x.ID == c.ID })
	if idx < 0 {
		return false, nil
	}
	next := cloneSlice(s.clients)
	next[idx] = c
	if err := SaveSnapshot(s.storage, KeyClients, next); err != nil {
		return false, err
	}
	s.clients = next
	return true, nil
}

func (s *EntityStore) DeleteClient(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := without(s.clients, func(x models.Client) bool { return x.ID == id })
	if !ok {
		return false, nil
	}
	if err := SaveSnapshot(s.storage, KeyClients, next); err != nil {
		return false, err
	}
	s.clients = next
	return true, nil
}

func (s *EntityStore) Clients() []models.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.clients)
}

func (s *EntityStore) Client(id string) (models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := indexOf(s.clients, func(x models.Client) bool { return x.ID == id })
	if idx < 0 {
		return models.Client{}, ErrNotFound
	}
	return s.clients[idx], nil
}

// ClientsByName returns every client whose full name equals name exactly, in insertion order.
func (s *EntityStore) ClientsByName(name string) []models.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Client
	for _, c := range s.clients {
		if models.SameName(c.FullName, name) {
			out = append(out, c)
		}
	}
	return out
}

type clientNames []models.Client

func (c clientNames) String(i int) string { return c[i].FullName + " " + c[i].Email }
func (c clientNames) Len() int            { return len(c) }

// FindClients fuzzy-matches query against client names and emails, best match first.
// An empty query returns every client. limit <= 0 means no limit.
func (s *EntityStore) FindClients(query string, limit int) []models.Client {
	all := s.Clients()
	if strings.TrimSpace(query) == "" {
		return truncate(all, limit)
	}

	matches := fuzzy.FindFrom(query, clientNames(all))
	out := make([]models.Client, 0, len(matches))
	for _, m := range matches {
		out = append(out, all[m.Index])
	}
	return truncate(out, limit)
}

// --- opportunities ---

func (s *EntityStore) AddOpportunity(o models.Opportunity) (models.Opportunity, error) {
	if strings.TrimSpace(o.Name) == "" {
		return models.Opportunity{}, fmt.Errorf("%w: opportunity name is required", ErrInvalid)
	}
	if o.Stage == "" {
		o.Stage = models.StageNewLead
	}
	if !models.IsValidStage(o.Stage) {
		return models.Opportunity{}, fmt.Errorf("%w: unknown stage %q", ErrInvalid, o.Stage)
	}
	o.ID = models.NewID()
	o.CreatedAt = s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	next := append(cloneSlice(s.opportunities), o)
	if err := SaveSnapshot(s.storage, KeyOpportunities, next); err != nil {
		return models.Opportunity{}, err
	}
	s.opportunities = next
	return o, nil
}

func (s *EntityStore) UpdateOpportunity(o models.Opportunity) (bool, error) {
	if !models.IsValidStage(o.Stage) {
		return false, fmt.Errorf("%w: unknown stage %q", ErrInvalid, o.Stage)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOf(s.opportunities, func(x models.Opportunity) bool { return x.ID == o.ID })
	if idx < 0 {
		return false, nil
	}
	next := cloneSlice(s.opportunities)
	next[idx] = o
	if err := SaveSnapshot(s.storage, KeyOpportunities, next); err != nil {
		return false, err
	}
	s.opportunities = next
	return true, nil
}

func (s *EntityStore) DeleteOpportunity(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := without(s.opportunities, func(x models.Opportunity) bool { return x.ID == id })
	if !ok {
		return false, nil
	}
	if err := SaveSnapshot(s.storage, KeyOpportunities, next); err != nil {
		return false, err
	}
	s.opportunities = next
	return true, nil
}

func (s *EntityStore) Opportunities() []models.Opportunity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.opportunities)
}

func (s *EntityStore) Opportunity(id string) (models.Opportunity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := indexOf(s.opportunities, func(x models.Opportunity) bool { return x.ID == id })
	if idx < 0 {
		return models.Opportunity{}, ErrNotFound
	}
	return s.opportunities[idx], nil
}

// OpportunitiesForClient returns opportunities linked to the client by id, or by
// exact name for opportunities that carry no client id.
func (s *EntityStore) OpportunitiesForClient(clientID string) []models.Opportunity {
	client, err := s.Client(clientID)
	if err != nil {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Opportunity
	for _, o := range s.opportunities {
		if o.ClientID == clientID || (o.ClientID == "" && models.SameName(o.ClientName, client.FullName)) {
			out = append(out, o)
		}
	}
	return out
}

// --- tasks ---

func (s *EntityStore) AddTask(t models.Task) (models.Task, error) {
	if strings.TrimSpace(t.Name) == "" {
		return models.Task{}, fmt.Errorf("%w: task name is required", ErrInvalid)
	}
	if t.Status == "" {
		t.Status = models.TaskStatusPending
	}
	if t.Priority == "" {
		t.Priority = models.TaskPriorityMedium
	}
	t.ID = models.NewID()
	t.CreatedAt = s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	next := append(cloneSlice(s.tasks), t)
	if err := SaveSnapshot(s.storage, KeyTasks, next); err != nil {
		return models.Task{}, err
	}
	s.tasks = next
	return t, nil
}

func (s *EntityStore) UpdateTask(t models.Task) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOf(s.tasks, func(x models.Task) bool { return x.ID == t.ID })
	if idx < 0 {
		return false, nil
	}
	next := cloneSlice(s.tasks)
	next[idx] = t
	if err := SaveSnapshot(s.storage, KeyTasks, next); err != nil {
		return false, err
	}
	s.tasks = next
	return true, nil
}

func (s *EntityStore) DeleteTask(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := without(s.tasks, func(x models.Task) bool { return x.ID == id })
	if !ok {
		return false, nil
	}
	if err := SaveSnapshot(s.storage, KeyTasks, next); err != nil {
		return false, err
	}
	s.tasks = next
	return true, nil
}

func (s *EntityStore) Tasks() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.tasks)
}

func (s *EntityStore) Task(id string) (models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := indexOf(s.tasks, func(x models.Task) bool { return x.ID == id })
	if idx < 0 {
		return models.Task{}, ErrNotFound
	}
	return s.tasks[idx], nil
}

func indexOf[T any](items []T, match func(T) bool) int {
	for i, item := range items {
		if match(item) {
			return i
		}
	}
	return -1
}

// without returns a copy of items minus every element match accepts.
func without[T any](items []T, match func(T) bool) ([]T, bool) {
	out := make([]T, 0, len(items))
	removed := false
	for _, item := range items {
		if match(item) {
			removed = true
			continue
		}
		out = append(out, item)
	}
	return out, removed
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
