package util

import (
	"sort"
)

// SortedStringKeys returns the map's keys in sorted order.
func SortedStringKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// SortedSet returns a string set as a sorted slice.
func SortedSet(set map[string]struct{}) []string {
	return SortedStringKeys(set)
}
