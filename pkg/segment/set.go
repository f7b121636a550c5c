package segment

import "fmt"

// Set is an insertion-ordered collection of segments keyed by name.
// It is rebuilt on every load and never shared between loads.
type Set struct {
	order  []string
	byName map[string]*Segment
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{byName: make(map[string]*Segment)}
}

// Add inserts s, renaming it with a numeric suffix ("name_2", "name_3",
// ...) if the name is already taken. It returns the name s was stored
// under.
func (st *Set) Add(s *Segment) string {
	name := s.Name
	for n := 2; st.byName[name] != nil; n++ {
		name = fmt.Sprintf("%s_%d", s.Name, n)
	}
	if name != s.Name {
		s.Name = name
		if s.Mesh != nil {
			s.Mesh.PartName = name
		}
	}
	st.order = append(st.order, name)
	st.byName[name] = s
	return name
}

// Get returns the segment with the given name, or nil.
func (st *Set) Get(name string) *Segment {
	if st == nil {
		return nil
	}
	return st.byName[name]
}

// Len returns the number of segments.
func (st *Set) Len() int {
	if st == nil {
		return 0
	}
	return len(st.order)
}

// Names returns segment names in insertion order.
func (st *Set) Names() []string {
	if st == nil {
		return nil
	}
	return append([]string(nil), st.order...)
}

// All returns the segments in insertion order.
func (st *Set) All() []*Segment {
	if st == nil {
		return nil
	}
	out := make([]*Segment, 0, len(st.order))
	for _, name := range st.order {
		out = append(out, st.byName[name])
	}
	return out
}

// TriangleCount returns the total number of triangles over all segments.
func (st *Set) TriangleCount() int {
	total := 0
	for _, s := range st.All() {
		total += s.TriangleCount()
	}
	return total
}
