package analysis

import (
	"sort"

	"github.com/baseguide/baseguide/internal/schema"
)

// CycleError reports that the dependency graph contains a cycle and the
// alphabetical fallback order was used instead of a topological one.
type CycleError struct {
	Fallback []string
}

func (e *CycleError) Error() string {
	return "cycle detected in table dependency graph"
}

// creationOrder derives a table creation sequence using Kahn's algorithm
// over the full table-id universe. Ties are broken alphabetically by table
// name at seed time and at every enqueue wave, so identical input always
// yields an identical order.
//
// When the graph is cyclic the partial order is discarded and all table
// names are returned sorted alphabetically, together with a *CycleError
// the caller can log. The returned order is always total.
func creationOrder(tables []schema.Table, dependencies map[string]map[string]struct{}, tableNames map[string]string) ([]string, error) {
	indegree := make(map[string]int, len(tables))
	dependents := make(map[string][]string)

	for _, table := range tables {
		if _, ok := indegree[table.ID]; !ok {
			indegree[table.ID] = 0
		}
	}
	for tableID, deps := range dependencies {
		for dep := range deps {
			if _, ok := indegree[dep]; !ok {
				indegree[dep] = 0
			}
			dependents[dep] = append(dependents[dep], tableID)
			indegree[tableID]++
		}
	}

	nameOf := func(id string) string {
		if name, ok := tableNames[id]; ok {
			return name
		}
		return id
	}
	byName := func(ids []string) {
		sort.Slice(ids, func(i, j int) bool { return nameOf(ids[i]) < nameOf(ids[j]) })
	}

	var queue []string
	for id, degree := range indegree {
		if degree == 0 {
			queue = append(queue, id)
		}
	}
	byName(queue)

	var ordered []string
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		ordered = append(ordered, nameOf(current))

		var released []string
		for _, dependent := range dependents[current] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				released = append(released, dependent)
			}
		}
		byName(released)
		queue = append(queue, released...)
	}

	if len(ordered) != len(indegree) {
		fallback := make([]string, 0, len(tables))
		for _, table := range tables {
			fallback = append(fallback, table.Name)
		}
		sort.Strings(fallback)
		return fallback, &CycleError{Fallback: fallback}
	}

	return ordered, nil
}
