package fixture

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTaskName(t *testing.T) {
	tests := []struct {
		command string
		want    string
	}{
		{"python train.py --task=Isaac-Ant-v0 --headless", "Isaac-Ant-v0"},
		{"python train.py --headless", DefaultTaskName},
		{"python train.py --task= --task=Second", "Second"},
		{"", DefaultTaskName},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractTaskName(tt.command), tt.command)
	}
}

func TestStore_AddFillsDefaults(t *testing.T) {
	s := NewStore()
	got := s.Add(Task{Command: "python train.py --task=Humanoid"})

	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "Humanoid", got.Name)
	assert.Equal(t, StatusQueued, got.Status)
	assert.False(t, got.CreatedAt.IsZero())

	stored, ok := s.Get(got.ID)
	require.True(t, ok)
	assert.Equal(t, got, stored)

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestStore_ListNewestFirst(t *testing.T) {
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := NewStore(
		Task{ID: "old", Name: "old", CreatedAt: base},
		Task{ID: "new", Name: "new", CreatedAt: base.Add(time.Hour)},
		Task{ID: "mid", Name: "mid", CreatedAt: base.Add(time.Minute)},
	)

	var ids []string
	for _, task := range s.List() {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []string{"new", "mid", "old"}, ids)
}

func TestTaskActions(t *testing.T) {
	assert.True(t, Task{Status: StatusRunning}.Running())
	assert.False(t, Task{Status: StatusQueued}.Running())
	assert.True(t, Task{Status: StatusCompleted}.HasOutput())
	assert.True(t, Task{Status: StatusFailed}.HasOutput())
	assert.False(t, Task{Status: StatusStopped}.HasOutput())
}

func TestDefaultTasks_ContainsVerifiedTask(t *testing.T) {
	tasks := DefaultTasks(time.Now())
	require.NotEmpty(t, tasks)
	assert.Equal(t, "My Test Task", tasks[0].Name)
	assert.True(t, tasks[0].HasOutput())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.toml")
	content := `
[[tasks]]
name = "My Test Task"
command = "python train.py"
status = "completed"
log_path = "/tmp/my.log"

[[tasks]]
command = "python train.py --task=Ant"
status = "running"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	tasks, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "My Test Task", tasks[0].Name)
	assert.Equal(t, StatusCompleted, tasks[0].Status)
	assert.Equal(t, "/tmp/my.log", tasks[0].LogPath)
	assert.Equal(t, StatusRunning, tasks[1].Status)
}

func TestLoadFile_UnknownStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[tasks]]\nname = \"x\"\nstatus = \"paused\"\n"), 0644))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "paused")
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile("/nonexistent/tasks.toml")
	assert.Error(t, err)
}

func TestTailLines(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 250; i++ {
		b.WriteString("line\n")
	}
	out := TailLines(b.String(), 200)
	assert.Len(t, strings.Split(out, "\n"), 200)

	assert.Equal(t, "a\nb", TailLines("a\nb\n", 200))
	assert.Equal(t, "c", TailLines("a\nb\nc", 1))
}

func TestLoadFile_ShippedSeed(t *testing.T) {
	tasks, err := LoadFile(filepath.Join("..", "..", "config", "tasks.toml"))
	require.NoError(t, err)
	require.Len(t, tasks, 3)

	store := NewStore(tasks...)
	var names []string
	for _, task := range store.List() {
		names = append(names, task.Name)
	}
	assert.Equal(t, []string{"Isaac-Cartpole-v0", "My Test Task", "Broken Run"}, names)
}
