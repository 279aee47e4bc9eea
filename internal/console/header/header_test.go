package header

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func label(s string) func() string { return func() string { return s } }

func TestNewEntry_ClampsNegativeWidth(t *testing.T) {
	e := NewEntry(label("x"), label("FFFFFF"), 0, -4)
	assert.Equal(t, 0, e.Width)
}

func TestAdd_OrdersByPriorityAndIgnoresDuplicates(t *testing.T) {
	changes := 0
	h := New(func() { changes++ })
	assert.True(t, h.ShowTitle())

	cpu := NewEntry(label("cpu"), label("00FF00"), 5, 90)
	fps := NewEntry(label("fps"), label("FFFFFF"), 10, 50)
	low := NewEntry(label("low"), label("FFFFFF"), 5, 10)
	h.Add(cpu)
	h.Add(fps)
	h.Add(low)
	h.Add(fps)

	got := h.Entries()
	require.Len(t, got, 3)
	assert.Same(t, fps, got[0])
	assert.Same(t, cpu, got[1])
	assert.Same(t, low, got[2])
	assert.False(t, h.ShowTitle())
	assert.Equal(t, 3, changes)
}

func TestManage(t *testing.T) {
	h := New(nil)
	e := NewEntry(label("fps"), label("FFFFFF"), 10, 50)
	h.Manage(e, true)
	assert.Len(t, h.Entries(), 1)
	h.Manage(e, false)
	assert.Empty(t, h.Entries())
	h.Remove(e)
	assert.True(t, h.ShowTitle())
}
