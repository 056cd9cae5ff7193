package graphcheck

// firstOnCycle peels sources (Kahn) and then sinks off the graph. Whatever
// survives both passes sits on a cycle or between cycles; the first such node
// in payload order is reported.
func firstOnCycle(g *ConceptGraph) (string, bool) {
	out := make(map[string][]string, len(g.Nodes))
	in := make(map[string][]string, len(g.Nodes))
	indeg := make(map[string]int, len(g.Nodes))
	outdeg := make(map[string]int, len(g.Nodes))
	for _, e := range g.Edges {
		out[e.From] = append(out[e.From], e.To)
		in[e.To] = append(in[e.To], e.From)
		indeg[e.To]++
		outdeg[e.From]++
	}

	removed := make(map[string]bool, len(g.Nodes))

	queue := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if indeg[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		removed[id] = true
		for _, to := range out[id] {
			outdeg[id]--
			indeg[to]--
			if indeg[to] == 0 {
				queue = append(queue, to)
			}
		}
	}
	if len(removed) == len(g.Nodes) {
		return "", false
	}

	for _, n := range g.Nodes {
		if !removed[n.ID] && outdeg[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		removed[id] = true
		for _, from := range in[id] {
			if removed[from] {
				continue
			}
			outdeg[from]--
			if outdeg[from] == 0 {
				queue = append(queue, from)
			}
		}
	}

	for _, n := range g.Nodes {
		if !removed[n.ID] {
			return n.ID, true
		}
	}
	return "", false
}
