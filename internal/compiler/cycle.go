package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/plansql/internal/model"
)

// CycleWarning represents a cycle in the entity reference graph.
//
// Cycles through primary-key references make key flattening impossible and
// are reported as errors. Cycles through plain relationships are legal
// (a Person with a Manager who is a Person) and are reported as info.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["A", "B", "A"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "error" or "info"
}

// AnalyzeKeyCycles reports cycles formed only by primary-key relationship
// properties. Inherited key properties count for the derived entity.
func AnalyzeKeyCycles(types []*model.TypeDescriptor) []CycleWarning {
	return analyze(types, true, "error")
}

// AnalyzeReferenceCycles reports cycles formed by any relationship
// property.
func AnalyzeReferenceCycles(types []*model.TypeDescriptor) []CycleWarning {
	return analyze(types, false, "info")
}

func analyze(types []*model.TypeDescriptor, keysOnly bool, level string) []CycleWarning {
	if len(types) == 0 {
		return []CycleWarning{}
	}

	graph, order := buildReferenceGraph(types, keysOnly)
	sccs := tarjanSCC(graph, order)

	warnings := []CycleWarning{}
	for _, scc := range sccs {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph, order, keysOnly, level))
		}
	}
	return warnings
}

// referenceGraph maps entity name → referenced entity names.
type referenceGraph map[string][]string

// buildReferenceGraph builds the graph and returns node names in declaration
// order so the analysis is deterministic.
func buildReferenceGraph(types []*model.TypeDescriptor, keysOnly bool) (referenceGraph, []string) {
	byName := make(map[string]*model.TypeDescriptor, len(types))
	order := make([]string, 0, len(types))
	for _, td := range types {
		if _, dup := byName[td.Name]; dup {
			continue
		}
		byName[td.Name] = td
		order = append(order, td.Name)
	}

	graph := make(referenceGraph, len(order))
	for _, name := range order {
		graph[name] = []string{}
		seen := map[string]bool{}
		// Walk the base chain; inherited properties belong to the derived type.
		for td := byName[name]; td != nil && !seen[td.Name]; td = byName[td.BaseType] {
			seen[td.Name] = true
			for _, p := range td.Properties {
				if !p.IsRelationship() || (keysOnly && !p.PrimaryKey) {
					continue
				}
				if _, ok := byName[p.ReferencedType]; !ok {
					continue
				}
				graph[name] = append(graph[name], p.ReferencedType)
			}
		}
	}
	return graph, order
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph referenceGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm,
// visiting roots in the given order.
func tarjanSCC(graph referenceGraph, order []string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// cycleSCCToWarning converts an SCC to a CycleWarning. The path starts at
// the member declared first.
func cycleSCCToWarning(scc []string, graph referenceGraph, order []string, keysOnly bool, level string) CycleWarning {
	what := "Reference cycle"
	if keysOnly {
		what = "Primary key references itself"
	}

	if len(scc) == 1 {
		name := scc[0]
		return CycleWarning{
			Path:    []string{name, name},
			Message: fmt.Sprintf("%s: %s -> %s", what, name, name),
			Level:   level,
		}
	}

	path := reconstructCyclePath(firstDeclared(scc, order), scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("%s: %s", what, strings.Join(path, " -> ")),
		Level:   level,
	}
}

func firstDeclared(scc []string, order []string) string {
	members := make(map[string]bool, len(scc))
	for _, n := range scc {
		members[n] = true
	}
	for _, n := range order {
		if members[n] {
			return n
		}
	}
	return scc[0]
}

// reconstructCyclePath follows edges within the SCC from start until it
// returns to start.
func reconstructCyclePath(start string, scc []string, graph referenceGraph) []string {
	sccSet := make(map[string]bool, len(scc))
	for _, node := range scc {
		sccSet[node] = true
	}

	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if neighbor == start && len(path) > 1 {
				next = neighbor
				break
			}
			if sccSet[neighbor] && !visited[neighbor] {
				next = neighbor
				break
			}
		}
		if next == "" {
			// Dead end inside the SCC; close the loop explicitly.
			path = append(path, start)
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
