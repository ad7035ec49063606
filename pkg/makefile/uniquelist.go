package makefile

import "strings"

// UniqueList is an ordered list of strings that silently drops duplicates.
// The zero value is ready to use.
type UniqueList struct {
	items []string
	seen  map[string]struct{}
}

// NewUniqueList returns a list seeded with the given items.
func NewUniqueList(items ...string) *UniqueList {
	l := &UniqueList{}
	l.Add(items...)
	return l
}

// Add appends every item that isn't already present and returns the list.
func (l *UniqueList) Add(items ...string) *UniqueList {
	for _, item := range items {
		if l.Contains(item) {
			continue
		}
		l.seen[item] = struct{}{}
		l.items = append(l.items, item)
	}
	return l
}

// Extend appends every item of the given slice, dropping duplicates.
func (l *UniqueList) Extend(items []string) *UniqueList {
	return l.Add(items...)
}

// Insert places item at the given index unless it is already present.
// An index past the end behaves like Add.
func (l *UniqueList) Insert(index int, item string) {
	if l.Contains(item) {
		return
	}
	if index >= len(l.items) {
		l.Add(item)
		return
	}
	if index < 0 {
		index = 0
	}
	l.seen[item] = struct{}{}
	l.items = append(l.items[:index], append([]string{item}, l.items[index:]...)...)
}

// Contains reports whether item is in the list.
func (l *UniqueList) Contains(item string) bool {
	if l.seen == nil {
		l.seen = map[string]struct{}{}
	}
	_, ok := l.seen[item]
	return ok
}

// Items returns the underlying slice. Callers must not modify it.
func (l *UniqueList) Items() []string {
	return l.items
}

// Len returns the number of items.
func (l *UniqueList) Len() int {
	return len(l.items)
}

// First returns the first item, if any.
func (l *UniqueList) First() (string, bool) {
	if len(l.items) == 0 {
		return "", false
	}
	return l.items[0], true
}

// Last returns the last item, if any.
func (l *UniqueList) Last() (string, bool) {
	if len(l.items) == 0 {
		return "", false
	}
	return l.items[len(l.items)-1], true
}

// Join concatenates the items with the given separator.
func (l *UniqueList) Join(sep string) string {
	return strings.Join(l.items, sep)
}

func (l *UniqueList) String() string {
	return "[" + l.Join(" ") + "]"
}
