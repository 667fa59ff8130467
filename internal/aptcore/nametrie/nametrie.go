// Package nametrie is a typed wrapper around a radix tree keyed by package
// name, used by the resolver to support the "glob pattern allowed" lookup
// described in spec §4.4.1. It exists so call sites never need to type-assert
// the radix tree's interface{} values.
package nametrie

import radix "github.com/armon/go-radix"

// Trie maps package names to a value of type T via a radix tree, giving
// fast longest-prefix / glob-style first-match lookups over the candidate
// universe.
type Trie[T any] struct {
	t *radix.Tree
}

// New returns an empty Trie.
func New[T any]() Trie[T] {
	return Trie[T]{t: radix.New()}
}

// Insert adds or updates the value stored under name.
func (t Trie[T]) Insert(name string, v T) {
	t.t.Insert(name, v)
}

// Get looks up an exact name.
func (t Trie[T]) Get(name string) (T, bool) {
	v, ok := t.t.Get(name)
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// LongestPrefix returns the longest key in the trie that is a prefix of
// name. The resolver's glob-style target lookup does not use it; it matches
// patterns against the sorted name list instead.
func (t Trie[T]) LongestPrefix(name string) (string, T, bool) {
	k, v, ok := t.t.LongestPrefix(name)
	if !ok {
		var zero T
		return "", zero, false
	}
	return k, v.(T), true
}

// WalkPrefix visits every key with the given prefix in lexical order,
// stopping early if fn returns true.
func (t Trie[T]) WalkPrefix(prefix string, fn func(name string, v T) bool) {
	t.t.WalkPrefix(prefix, func(s string, v interface{}) bool {
		return fn(s, v.(T))
	})
}

// Len reports the number of entries.
func (t Trie[T]) Len() int { return t.t.Len() }
