package workset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type item struct {
	ID   string
	Tags []string
}

func newSet() *Set[item] {
	return New(func(i item) string { return i.ID }, func(i item) item {
		i.Tags = append([]string(nil), i.Tags...)
		return i
	})
}

func ids(items []item) []string {
	var out []string
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestReplaceKeepsOrderAndCopies(t *testing.T) {
	s := newSet()
	src := []item{{ID: "a", Tags: []string{"x"}}, {ID: "b"}}
	s.Replace(src)
	src[0].Tags[0] = "mutated"

	got, ok := s.Get("a")
	assert.True(t, ok)
	assert.Equal(t, []string{"x"}, got.Tags)
	assert.Equal(t, []string{"a", "b"}, ids(s.Items()))
}

func TestPatchAndUndo(t *testing.T) {
	s := newSet()
	s.Replace([]item{{ID: "a", Tags: []string{"pending"}}})

	undo, ok := s.Patch("a", func(i *item) { i.Tags = []string{"approved"} })
	assert.True(t, ok)
	got, _ := s.Get("a")
	assert.Equal(t, []string{"approved"}, got.Tags)

	undo()
	got, _ = s.Get("a")
	assert.Equal(t, []string{"pending"}, got.Tags)

	_, ok = s.Patch("missing", func(*item) {})
	assert.False(t, ok)
}

func TestRemoveAndUndoRestoresPosition(t *testing.T) {
	s := newSet()
	s.Replace([]item{{ID: "a"}, {ID: "b"}, {ID: "c"}})

	undo, ok := s.Remove("b")
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "c"}, ids(s.Items()))

	undo()
	assert.Equal(t, []string{"a", "b", "c"}, ids(s.Items()))
	undo()
	assert.Equal(t, 3, s.Len())
}

func TestPutReplacesOrAppends(t *testing.T) {
	s := newSet()
	s.Replace([]item{{ID: "a"}})
	s.Put(item{ID: "a", Tags: []string{"new"}})
	s.Put(item{ID: "b"})

	assert.Equal(t, []string{"a", "b"}, ids(s.Items()))
	got, _ := s.Get("a")
	assert.Equal(t, []string{"new"}, got.Tags)
}
