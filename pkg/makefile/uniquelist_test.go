package makefile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUniqueListAdd(t *testing.T) {
	l := NewUniqueList("a", "b")
	l.Add("b", "c")

	assert.Equal(t, []string{"a", "b", "c"}, l.Items())
	assert.Equal(t, 3, l.Len())

	l.Extend([]string{"c", "d"})
	assert.Equal(t, []string{"a", "b", "c", "d"}, l.Items())
}

func TestUniqueListContains(t *testing.T) {
	l := NewUniqueList("x")

	assert.True(t, l.Contains("x"))
	assert.False(t, l.Contains("y"))
}

func TestUniqueListInsert(t *testing.T) {
	l := NewUniqueList("a", "c")
	l.Insert(1, "b")

	assert.Equal(t, []string{"a", "b", "c"}, l.Items())

	// duplicates are dropped, out-of-range indices append
	l.Insert(0, "b")
	l.Insert(10, "d")
	assert.Equal(t, []string{"a", "b", "c", "d"}, l.Items())

	l.Insert(-5, "z")
	assert.Equal(t, []string{"z", "a", "b", "c", "d"}, l.Items())
}

func TestUniqueListFirstLast(t *testing.T) {
	l := NewUniqueList()

	_, ok := l.First()
	assert.False(t, ok)
	_, ok = l.Last()
	assert.False(t, ok)

	l.Add("one", "two", "three")

	first, ok := l.First()
	assert.True(t, ok)
	assert.Equal(t, "one", first)

	last, ok := l.Last()
	assert.True(t, ok)
	assert.Equal(t, "three", last)
}

func TestUniqueListJoin(t *testing.T) {
	l := NewUniqueList("-Wall", "-O2", "-Wall")

	assert.Equal(t, "-Wall -O2", l.Join(" "))
	assert.Equal(t, "[-Wall -O2]", l.String())
}

func TestUniqueListZeroValue(t *testing.T) {
	var l UniqueList
	l.Add("a")

	assert.Equal(t, []string{"a"}, l.Items())
}
