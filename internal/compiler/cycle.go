package compiler

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// CycleWarning represents an include cycle.
//
// Cycles are warnings, not errors: the parser's visited set already makes
// them terminate, and each file still yields exactly one module.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["a.rt", "b.rt", "a.rt"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning" or "info"
}

// AnalyzeIncludeCycles reports every cycle in an include graph.
//
// The algorithm:
//  1. Treat the include graph (file → included files) as a directed graph
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or a self-include as a cycle
//
// Nodes are visited in sorted order so the result is deterministic.
// An acyclic graph returns an empty list.
func AnalyzeIncludeCycles(includes map[string][]string) []CycleWarning {
	graph := make(includeGraph, len(includes))
	for from, tos := range includes {
		graph[from] = append(graph[from], tos...)
		for _, to := range tos {
			if _, ok := graph[to]; !ok {
				graph[to] = nil
			}
		}
	}

	warnings := []CycleWarning{}
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}
	return warnings
}

// includeGraph maps a source path to the paths it includes.
type includeGraph map[string][]string

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph includeGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
//
// Returns a list of SCCs, each sorted, in discovery order.
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(graph includeGraph) [][]string {
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

		// If v is a root node, pop the stack and create an SCC
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
			slices.Sort(scc)
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)

	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// cycleSCCToWarning converts an SCC to a CycleWarning.
func cycleSCCToWarning(scc []string, graph includeGraph) CycleWarning {
	if len(scc) == 1 {
		file := scc[0]
		return CycleWarning{
			Path:    []string{file, file},
			Message: fmt.Sprintf("File includes itself: %s", filepath.Base(file)),
			Level:   "warning",
		}
	}

	path := reconstructCyclePath(scc, graph)
	names := make([]string, len(path))
	for i, p := range path {
		names[i] = filepath.Base(p)
	}
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("Include cycle detected: %s", strings.Join(names, " → ")),
		Level:   "warning",
	}
}

// reconstructCyclePath builds a cycle path from an SCC.
//
// Strategy: Start at the first node in the SCC, follow edges to other SCC
// members, continue until we return to the start node.
func reconstructCyclePath(scc []string, graph includeGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	sccSet := make(map[string]bool, len(scc))
	for _, node := range scc {
		sccSet[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}

		if next == "" {
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
