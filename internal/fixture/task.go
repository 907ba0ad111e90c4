// Package fixture models the task-manager UI that the verifier targets: a
// list of training tasks, each rendered as a .task-item with its actions.
package fixture

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
)

// Status is a task's lifecycle state.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusStopped   Status = "stopped"
)

// DefaultTaskName is used when a command carries no --task= argument.
const DefaultTaskName = "Training Task"

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusQueued, StatusRunning, StatusCompleted, StatusFailed, StatusStopped:
		return true
	}
	return false
}

// Task is one entry in the task list.
type Task struct {
	ID         string     `json:"id" toml:"id"`
	Name       string     `json:"name" toml:"name"`
	Command    string     `json:"command" toml:"command"`
	Status     Status     `json:"status" toml:"status"`
	CreatedAt  time.Time  `json:"created_at" toml:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty" toml:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" toml:"finished_at"`
	LogPath    string     `json:"log_path,omitempty" toml:"log_path"`
}

// Running reports whether the task can be stopped.
func (t Task) Running() bool {
	return t.Status == StatusRunning
}

// HasOutput reports whether the task finished and produced output to download.
func (t Task) HasOutput() bool {
	return t.Status == StatusCompleted || t.Status == StatusFailed
}

// ExtractTaskName returns the value of the first --task= argument in command.
func ExtractTaskName(command string) string {
	for _, part := range strings.Fields(command) {
		if name, ok := strings.CutPrefix(part, "--task="); ok && name != "" {
			return name
		}
	}
	return DefaultTaskName
}

// Store is an in-memory task list safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	tasks map[string]Task
	now   func() time.Time
}

// NewStore creates a store seeded with tasks.
func NewStore(tasks ...Task) *Store {
	s := &Store{tasks: make(map[string]Task), now: time.Now}
	for _, t := range tasks {
		s.Add(t)
	}
	return s
}

// Add inserts t, filling in ID, name, status and creation time when missing.
func (s *Store) Add(t Task) Task {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Name == "" {
		t.Name = ExtractTaskName(t.Command)
	}
	if t.Status == "" {
		t.Status = StatusQueued
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now().UTC()
	}

	s.mu.Lock()
	s.tasks[t.ID] = t
	s.mu.Unlock()
	return t
}

// Get returns the task with the given ID.
func (s *Store) Get(id string) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	return t, ok
}

// List returns all tasks, newest first.
func (s *Store) List() []Task {
	s.mu.RLock()
	out := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// taskFile is the on-disk seed format.
type taskFile struct {
	Tasks []Task `toml:"tasks"`
}

// LoadFile reads a TOML file of [[tasks]] entries.
func LoadFile(path string) ([]Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tasks file %s: %w", path, err)
	}

	var f taskFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse tasks file %s: %w", path, err)
	}
	for i, t := range f.Tasks {
		if t.Status != "" && !t.Status.Valid() {
			return nil, fmt.Errorf("tasks file %s: task %d has unknown status %q", path, i+1, t.Status)
		}
	}
	return f.Tasks, nil
}

// DefaultTasks is the seed used when no tasks file is configured. It contains
// the completed "My Test Task" the verifier looks for by default.
func DefaultTasks(now time.Time) []Task {
	at := func(d time.Duration) *time.Time {
		t := now.Add(-d).UTC()
		return &t
	}
	return []Task{
		{
			Name:       "My Test Task",
			Command:    "python scripts/train.py --task=My-Test-Task --headless",
			Status:     StatusCompleted,
			CreatedAt:  now.Add(-3 * time.Hour).UTC(),
			StartedAt:  at(3 * time.Hour),
			FinishedAt: at(time.Hour),
		},
		{
			Command:   "python scripts/train.py --task=Isaac-Cartpole-v0 --headless",
			Status:    StatusRunning,
			CreatedAt: now.Add(-30 * time.Minute).UTC(),
			StartedAt: at(30 * time.Minute),
		},
		{
			Command:   "python scripts/train.py --headless",
			Status:    StatusQueued,
			CreatedAt: now.Add(-5 * time.Minute).UTC(),
		},
	}
}

// TailLines returns the last n lines of content.
func TailLines(content string, n int) string {
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
