package ir

// CyclicEntities returns the entities that lie on a cycle of the graph.
//
// An entity is cyclic when it can reach itself by following links: it belongs
// to a strongly connected component with more than one member, or it has a
// link to itself. The tree builder uses this set to bound mandatory-include
// injection, which would otherwise recurse forever on a cyclic graph.
//
// The algorithm is Tarjan's; a DAG returns an empty set.
func (g *AssociationGraph) CyclicEntities() map[*Entity]bool {
	cyclic := make(map[*Entity]bool)
	if g == nil {
		return cyclic
	}

	for _, scc := range g.stronglyConnected() {
		if len(scc) > 1 {
			for _, e := range scc {
				cyclic[e] = true
			}
			continue
		}
		if g.hasSelfLoop(scc[0]) {
			cyclic[scc[0]] = true
		}
	}
	return cyclic
}

func (g *AssociationGraph) hasSelfLoop(e *Entity) bool {
	for _, l := range g.links[e] {
		if l.Target == e {
			return true
		}
	}
	return false
}

// stronglyConnected finds strongly connected components. Entities that only
// appear as link targets are visited too, so every reachable entity is
// assigned to a component.
func (g *AssociationGraph) stronglyConnected() [][]*Entity {
	var (
		index   = 0
		stack   []*Entity
		indices = make(map[*Entity]int)
		lowlink = make(map[*Entity]int)
		onStack = make(map[*Entity]bool)
		sccs    [][]*Entity
	)

	var strongConnect func(*Entity)
	strongConnect = func(v *Entity) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, l := range g.links[v] {
			w := l.Target
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []*Entity
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

	// Declaration order keeps the result deterministic.
	for _, e := range g.order {
		if _, visited := indices[e]; !visited {
			strongConnect(e)
		}
	}
	return sccs
}
