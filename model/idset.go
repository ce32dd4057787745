package model

import "sort"

// IDSet is an unordered id collection with deterministic Sorted
// output for anything user-visible or hashed.
type IDSet map[int]struct{}

func NewIDSet(ids ...int) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Add(id int) { s[id] = struct{}{} }

func (s IDSet) Has(id int) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Union(other IDSet) {
	for id := range other {
		s[id] = struct{}{}
	}
}

func (s IDSet) Subtract(other IDSet) {
	for id := range other {
		delete(s, id)
	}
}

func (s IDSet) Clone() IDSet {
	out := make(IDSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

func (s IDSet) Sorted() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (s IDSet) Len() int { return len(s) }
