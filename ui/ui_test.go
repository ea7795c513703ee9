package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/montrey/ftpseek/search"
)

func TestRenderTree(t *testing.T) {
	paths := []string{
		"/pub",
		"/pub/linux",
		"/pub/linux/kernel",
		"/pub/bsd",
		"/srv/data/archive",
	}
	out := RenderTree(paths, TreeOptions{})
	lines := strings.Split(out, "\n")

	require.Len(t, lines, 5)
	assert.Equal(t, "/", lines[0])
	assert.Contains(t, lines[1], "├── pub")
	assert.Contains(t, lines[2], "│   ├── linux/kernel")
	assert.Contains(t, lines[3], "│   └── bsd")
	// Single-child chains collapse into one line.
	assert.Contains(t, lines[4], "└── srv/data/archive")
}

func TestRenderTreeMarks(t *testing.T) {
	paths := []string{"/a", "/a/b", "/a/b/c", "/d"}
	out := RenderTree(paths, TreeOptions{
		Found:  "/a/b",
		Failed: map[string]bool{"/d": true},
	})

	assert.Contains(t, out, "a/b  ◀ found")
	assert.NotContains(t, out, "a/b/c")
	assert.Contains(t, out, "└── c")
	assert.Contains(t, out, "d  (unreadable)")
}

func TestRenderTreeFoundAtRoot(t *testing.T) {
	out := RenderTree(nil, TreeOptions{Found: "/"})
	assert.Equal(t, "/  ◀ found", out)
}

func TestRenderTreeMaxLines(t *testing.T) {
	paths := []string{"/a", "/b", "/c", "/d", "/e"}
	out := RenderTree(paths, TreeOptions{MaxLines: 3})
	lines := strings.Split(out, "\n")

	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "a")
	assert.Contains(t, lines[2], "… 4 more")
}

func update(t *testing.T, m ProgressModel, msg tea.Msg) ProgressModel {
	t.Helper()
	next, _ := m.Update(msg)
	pm, ok := next.(ProgressModel)
	require.True(t, ok)
	return pm
}

func TestProgressModelEvents(t *testing.T) {
	m := NewProgressModel("ftp.example.org", "target.cfg", nil)

	m = update(t, m, EventMsg{Kind: search.EventList, Path: ""})
	m = update(t, m, EventMsg{Kind: search.EventLevel, Level: 1, Candidates: 3})
	m = update(t, m, EventMsg{Kind: search.EventList, Level: 1, Path: "/pub/linux"})
	m = update(t, m, EventMsg{Kind: search.EventListFailed, Level: 1, Path: "/pub/private"})
	m = update(t, m, EventMsg{Kind: search.EventExcluded, Level: 1, Path: "/pub/.git"})

	view := m.View()
	assert.Contains(t, view, "Searching ftp.example.org for")
	assert.Contains(t, view, "target.cfg")
	assert.Contains(t, view, "level 1 · 3 candidates · 2 listed · 1 excluded")
	assert.Contains(t, view, "/pub/linux")
	assert.Equal(t, []string{"/pub/linux"}, m.visited)
	assert.True(t, m.failed["/pub/private"])
}

func TestProgressModelDone(t *testing.T) {
	m := NewProgressModel("ftp.example.org", "target.cfg", nil)
	m = update(t, m, EventMsg{Kind: search.EventList, Path: "/pub/linux"})

	next, cmd := m.Update(DoneMsg{Result: search.Result{Outcome: search.Found, Path: "/pub/linux", Depth: 2}})
	require.NotNil(t, cmd)
	_, isQuit := cmd().(tea.QuitMsg)
	assert.True(t, isQuit)

	pm := next.(ProgressModel)
	res, err := pm.Result()
	require.NoError(t, err)
	assert.Equal(t, "/pub/linux", res.Path)
	assert.Contains(t, pm.View(), "found in")
	assert.Contains(t, pm.View(), "pub/linux  ◀ found")
}

func TestProgressModelFailedSummary(t *testing.T) {
	m := NewProgressModel("h", "f", nil)
	m = update(t, m, DoneMsg{Err: errors.New("boom")})
	assert.Contains(t, m.View(), "Search failed: boom")

	m = NewProgressModel("h", "f", nil)
	m = update(t, m, DoneMsg{Err: context.Canceled})
	assert.Contains(t, m.View(), "Search stopped")

	m = NewProgressModel("h", "f", nil)
	m = update(t, m, DoneMsg{Result: search.Result{Outcome: search.NotFoundBounded}})
	assert.Contains(t, m.View(), "not found within depth limit")
}

func TestProgressModelQuitCancels(t *testing.T) {
	calls := 0
	m := NewProgressModel("h", "f", func() { calls++ })

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})

	assert.Equal(t, 1, calls)
	assert.True(t, m.cancelling)
	assert.False(t, m.done, "the model waits for DoneMsg")
	assert.Contains(t, m.View(), "Stopping")
}
