package extract

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskStoreCreate(t *testing.T) {
	s, err := NewTaskStore(1)
	require.NoError(t, err)

	task, err := s.Create("list of all archived posts", "https://example.com/archive", "u1")
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, StatusPending, task.Status)
	assert.Equal(t, 0, task.Progress)
	assert.Equal(t, task.CreatedAt, task.UpdatedAt)

	got, err := s.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)
}

func TestTaskStoreCreateInvalid(t *testing.T) {
	s, err := NewTaskStore(1)
	require.NoError(t, err)

	tests := []struct {
		name         string
		requirements string
		url          string
	}{
		{name: "empty requirements", requirements: "", url: "https://example.com"},
		{name: "empty url", requirements: "anything", url: ""},
		{name: "relative url", requirements: "anything", url: "/archive"},
		{name: "no host", requirements: "anything", url: "https://"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(tt.requirements, tt.url, "")
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
	assert.Equal(t, 0, s.Len())
}

func TestTaskStoreUpdate(t *testing.T) {
	s, err := NewTaskStore(1)
	require.NoError(t, err)
	task, err := s.Create("r", "https://example.com", "")
	require.NoError(t, err)

	require.NoError(t, s.Update(task.ID, func(t *Task) {
		t.Status = StatusDiscovery
		t.Progress = 10
		t.CurrentAgent = AgentPageDiscovery
	}))

	got, err := s.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDiscovery, got.Status)
	assert.Equal(t, 10, got.Progress)
	assert.True(t, got.UpdatedAt.After(task.UpdatedAt), "UpdatedAt must strictly increase")

	assert.ErrorIs(t, s.Update("12345", func(*Task) {}), ErrTaskNotFound)
}

func TestTaskStoreUpdatedAtMonotonic(t *testing.T) {
	s, err := NewTaskStore(1)
	require.NoError(t, err)
	task, err := s.Create("r", "https://example.com", "")
	require.NoError(t, err)

	prev := task.UpdatedAt
	for i := 0; i < 100; i++ {
		require.NoError(t, s.Update(task.ID, func(t *Task) { t.Progress++ }))
		got, err := s.Get(task.ID)
		require.NoError(t, err)
		require.True(t, got.UpdatedAt.After(prev))
		prev = got.UpdatedAt
	}
}

func TestTaskStoreDelete(t *testing.T) {
	s, err := NewTaskStore(1)
	require.NoError(t, err)
	task, err := s.Create("r", "https://example.com", "")
	require.NoError(t, err)

	assert.True(t, s.Delete(task.ID))
	assert.False(t, s.Delete(task.ID), "second delete is a no-op")
	assert.False(t, s.Delete("never-created"))

	_, err = s.Get(task.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestTaskStoreGetCopies(t *testing.T) {
	s, err := NewTaskStore(1)
	require.NoError(t, err)
	task, err := s.Create("r", "https://example.com", "")
	require.NoError(t, err)

	require.NoError(t, s.Update(task.ID, func(t *Task) {
		t.Result = &Dataset{Records: []map[string]string{{"name": "a"}}}
	}))

	got, err := s.Get(task.ID)
	require.NoError(t, err)
	got.Result.Records[0]["name"] = "mutated"

	again, err := s.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", again.Result.Records[0]["name"])
}

func TestTaskStoreConcurrent(t *testing.T) {
	s, err := NewTaskStore(1)
	require.NoError(t, err)
	task, err := s.Create("r", "https://example.com", "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = s.Update(task.ID, func(t *Task) { t.Progress = j % 100 })
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = s.Get(task.ID)
			}
		}()
	}
	wg.Wait()
}
