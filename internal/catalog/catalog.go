package catalog

import (
	"fmt"
	"sort"
)

// Catalog is an immutable snapshot of the course catalog. Once built it is
// never mutated; concurrent readers share the same snapshot and reloads swap
// in a fresh one.
type Catalog struct {
	courses []Course
	byID    map[string]Course
}

// New builds a Catalog snapshot from the given courses. Records are validated
// and duplicate IDs rejected.
func New(courses []Course) (*Catalog, error) {
	byID := make(map[string]Course, len(courses))
	ordered := make([]Course, 0, len(courses))

	for _, c := range courses {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if _, dup := byID[c.ID]; dup {
			return nil, fmt.Errorf("duplicate course ID %s", c.ID)
		}
		byID[c.ID] = c
		ordered = append(ordered, c)
	}

	// Stable ID order makes indexing and listing deterministic regardless
	// of source file ordering.
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	return &Catalog{courses: ordered, byID: byID}, nil
}

// Len returns the number of courses in the snapshot.
func (c *Catalog) Len() int {
	return len(c.courses)
}

// Courses returns the snapshot's courses in ID order. Callers must not
// mutate the returned slice.
func (c *Catalog) Courses() []Course {
	return c.courses
}

// Lookup returns the course with the given ID.
func (c *Catalog) Lookup(id string) (Course, bool) {
	course, ok := c.byID[id]
	return course, ok
}

// ValidIDs returns the set of course IDs present in the snapshot. The
// returned map is freshly allocated; callers may mutate it.
func (c *Catalog) ValidIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(c.byID))
	for id := range c.byID {
		ids[id] = struct{}{}
	}
	return ids
}

// ByCategory returns the snapshot's courses in the given category.
func (c *Catalog) ByCategory(category string) []Course {
	var out []Course
	for _, course := range c.courses {
		if course.Category == category {
			out = append(out, course)
		}
	}
	return out
}
