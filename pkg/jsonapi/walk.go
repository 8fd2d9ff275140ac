package jsonapi

import (
	"maps"
	"slices"
)

// Related returns the relationship fields of r, sorted by name. A field is a
// relationship field when it holds a Resource or a []Resource.
func (r Resource) Related() []string {
	var names []string
	for _, name := range slices.Sorted(maps.Keys(r)) {
		switch r[name].(type) {
		case Resource, []Resource:
			names = append(names, name)
		}
	}
	return names
}

// Walk visits every resource reachable from roots once, breadth first.
// Resources are deduplicated by identifier, so when a root and a related
// field hold different instances for one identifier, the root wins.
// Walk stops at the first error returned by fn.
func Walk(roots []Resource, fn func(Resource) error) error {
	seen := make(map[Identifier]bool)
	queue := make([]Resource, 0, len(roots))
	for _, r := range roots {
		if r != nil {
			queue = append(queue, r)
		}
	}
	for len(queue) > 0 {
		r := queue[0]
		queue = queue[1:]
		key := r.Identifier()
		if seen[key] {
			continue
		}
		seen[key] = true
		if err := fn(r); err != nil {
			return err
		}
		for _, name := range r.Related() {
			switch v := r[name].(type) {
			case Resource:
				if v != nil {
					queue = append(queue, v)
				}
			case []Resource:
				for _, item := range v {
					if item != nil {
						queue = append(queue, item)
					}
				}
			}
		}
	}
	return nil
}

// Count returns the number of distinct resources reachable from roots.
func Count(roots []Resource) int {
	n := 0
	_ = Walk(roots, func(Resource) error {
		n++
		return nil
	})
	return n
}
