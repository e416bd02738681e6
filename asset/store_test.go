package asset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreAddGet(t *testing.T) {
	s := NewStore[string]()
	a := s.Add("first")
	b := s.Add("second")

	assert.NotEqual(t, a, b)

	v, ok := s.Get(a)
	assert.True(t, ok)
	assert.Equal(t, "first", v)

	v, ok = s.Get(b)
	assert.True(t, ok)
	assert.Equal(t, "second", v)
	assert.Equal(t, 2, s.Len())
}

func TestStoreAddEmptyThenReplace(t *testing.T) {
	s := NewStore[int]()
	id := s.AddEmpty()

	_, ok := s.Get(id)
	assert.False(t, ok, "empty slot should report absence")
	assert.Equal(t, 0, s.Len())

	s.Replace(id, 42)
	v, ok := s.Get(id)
	assert.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestStoreReplaceOverwrites(t *testing.T) {
	s := NewStore[int]()
	id := s.Add(1)
	s.Replace(id, 2)

	v, ok := s.Get(id)
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, s.Len())
}

func TestStoreRemove(t *testing.T) {
	s := NewStore[string]()
	id := s.Add("gone")

	v, ok := s.Remove(id)
	assert.True(t, ok)
	assert.Equal(t, "gone", v)

	_, ok = s.Get(id)
	assert.False(t, ok)

	_, ok = s.Remove(id)
	assert.False(t, ok, "second remove should report absence")
}

func TestStoreIdsAreMapKeys(t *testing.T) {
	s := NewStore[float64]()
	seen := make(map[Id[float64]]bool)
	for i := 0; i < 4; i++ {
		seen[s.Add(float64(i))] = true
	}
	assert.Len(t, seen, 4, "every Add should produce a distinct id")
}
