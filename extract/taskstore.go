package extract

import (
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
)

// TaskStore is the only writable home of task state. The orchestrator and
// the API both go through it; neither ever holds a live *Task.
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*Task
	idGen *snowflake.Node
	now   func() time.Time
}

func NewTaskStore(nodeID int64) (*TaskStore, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node: %w", err)
	}

	return &TaskStore{
		tasks: make(map[string]*Task),
		idGen: node,
		now:   time.Now,
	}, nil
}

// Create validates the request, allocates an id and persists a pending task.
func (s *TaskStore) Create(requirements, targetURL, userID string) (Task, error) {
	if requirements == "" {
		return Task{}, fmt.Errorf("%w: empty requirements", ErrInvalidArgument)
	}
	if targetURL == "" {
		return Task{}, fmt.Errorf("%w: empty target url", ErrInvalidArgument)
	}
	u, err := url.Parse(targetURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return Task{}, fmt.Errorf("%w: target url must be absolute: %q", ErrInvalidArgument, targetURL)
	}

	now := s.now()
	t := &Task{
		ID:           s.idGen.Generate().String(),
		Requirements: requirements,
		TargetURL:    targetURL,
		UserID:       userID,
		Status:       StatusPending,
		Progress:     0,
		Message:      "task created",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.mu.Lock()
	s.tasks[t.ID] = t
	s.mu.Unlock()

	return *t, nil
}

// Get returns a copy; Result is deep-copied so readers cannot reach into
// stored state.
func (s *TaskStore) Get(id string) (Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	out := *t
	out.Result = t.Result.Clone()
	return out, nil
}

// Update atomically applies mutate to the stored task and bumps UpdatedAt.
// UpdatedAt strictly increases on every call so stream readers can use it as
// a change-detection key even under coarse clocks.
func (s *TaskStore) Update(id string, mutate func(*Task)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	mutate(t)

	now := s.now()
	if !now.After(t.UpdatedAt) {
		now = t.UpdatedAt.Add(time.Nanosecond)
	}
	t.UpdatedAt = now

	return nil
}

// Delete removes the task; deleting an absent id is a no-op, not an error.
func (s *TaskStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return false
	}
	delete(s.tasks, id)
	return true
}

// Len reports how many tasks are held, live and terminal alike.
func (s *TaskStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}
