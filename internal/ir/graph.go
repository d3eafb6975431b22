package ir

// Link is one entry of an AssociationGraph: the related entity and the alias
// it is attached under.
type Link struct {
	Target   *Entity
	Alias    string
	Required bool

	// Association is the full record when the link came from the DSL parser.
	// Graphs built by hand may leave it nil.
	Association *Association
}

// AssociationGraph maps a source entity to the ordered list of its links.
//
// Declaration order is preserved both for the links of one entity and for
// the entities themselves. The zero value is not usable; use NewGraph.
// A nil *AssociationGraph behaves as an empty graph for reads.
type AssociationGraph struct {
	order []*Entity
	links map[*Entity][]Link
}

// NewGraph creates an empty graph.
func NewGraph() *AssociationGraph {
	return &AssociationGraph{links: make(map[*Entity][]Link)}
}

// Add appends a link to the source entity's list.
func (g *AssociationGraph) Add(source *Entity, link Link) {
	if _, ok := g.links[source]; !ok {
		g.order = append(g.order, source)
	}
	g.links[source] = append(g.links[source], link)
}

// Get returns the links declared for the entity, in declaration order.
// Returns nil when the entity has none.
func (g *AssociationGraph) Get(source *Entity) []Link {
	if g == nil {
		return nil
	}
	return g.links[source]
}

// Find returns the first link of source with the given alias.
func (g *AssociationGraph) Find(source *Entity, alias string) (Link, bool) {
	for _, l := range g.Get(source) {
		if l.Alias == alias {
			return l, true
		}
	}
	return Link{}, false
}

// Entities returns source entities in first-declaration order.
func (g *AssociationGraph) Entities() []*Entity {
	if g == nil {
		return nil
	}
	out := make([]*Entity, len(g.order))
	copy(out, g.order)
	return out
}

// Len returns the total number of links in the graph.
func (g *AssociationGraph) Len() int {
	if g == nil {
		return 0
	}
	n := 0
	for _, ls := range g.links {
		n += len(ls)
	}
	return n
}

// SplitPolicy decides whether a link belongs to the mandatory graph.
type SplitPolicy func(source *Entity, link Link) bool

// Split partitions the graph into mandatory and optional graphs.
// Links for which policy returns true go to mandatory; all others to
// optional. Relative order is preserved in both outputs.
func (g *AssociationGraph) Split(policy SplitPolicy) (mandatory, optional *AssociationGraph) {
	mandatory, optional = NewGraph(), NewGraph()
	if g == nil {
		return mandatory, optional
	}
	for _, src := range g.order {
		for _, l := range g.links[src] {
			if policy != nil && policy(src, l) {
				mandatory.Add(src, l)
			} else {
				optional.Add(src, l)
			}
		}
	}
	return mandatory, optional
}

// MandatoryAliases builds a SplitPolicy from "Entity.alias" pairs.
func MandatoryAliases(pairs ...string) SplitPolicy {
	set := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		set[p] = true
	}
	return func(source *Entity, link Link) bool {
		return set[source.Name+"."+link.Alias]
	}
}
