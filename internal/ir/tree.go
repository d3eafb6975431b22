package ir

import "strings"

// IncludeNode is one level of an inclusion tree.
//
// Children are keyed by alias: no two entries of Include share an alias.
// Nodes are only ever extended (Include grows, Where is merged), never
// removed, for the lifetime of a builder session.
type IncludeNode struct {
	Entity   *Entity
	Alias    string
	Required bool
	Where    IRObject // nil = no filter
	Include  []*IncludeNode
}

// Child returns the direct child with the given alias, or nil.
func (n *IncludeNode) Child(alias string) *IncludeNode {
	for _, c := range n.Include {
		if c.Alias == alias {
			return c
		}
	}
	return nil
}

// Lookup walks a dotted alias path ("posts.comments") from n.
// Returns nil when any segment is missing. The empty path returns n.
func (n *IncludeNode) Lookup(path string) *IncludeNode {
	if path == "" {
		return n
	}
	cur := n
	for _, seg := range strings.Split(path, ".") {
		cur = cur.Child(seg)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Paths returns the dotted alias path of every descendant, depth first in
// include order. The receiver itself is not listed.
func (n *IncludeNode) Paths() []string {
	var out []string
	var walk func(prefix string, node *IncludeNode)
	walk = func(prefix string, node *IncludeNode) {
		for _, c := range node.Include {
			p := c.Alias
			if prefix != "" {
				p = prefix + "." + c.Alias
			}
			out = append(out, p)
			walk(p, c)
		}
	}
	walk("", n)
	return out
}

// Clone returns a deep copy of the node and its descendants.
// Entities are shared (they are handles).
func (n *IncludeNode) Clone() *IncludeNode {
	if n == nil {
		return nil
	}
	out := &IncludeNode{
		Entity:   n.Entity,
		Alias:    n.Alias,
		Required: n.Required,
		Where:    n.Where.Clone(),
	}
	if n.Include != nil {
		out.Include = make([]*IncludeNode, len(n.Include))
		for i, c := range n.Include {
			out.Include[i] = c.Clone()
		}
	}
	return out
}

// toObject renders the node in the query-boundary shape:
// {entity, alias, required, where?, include: [...]}.
func (n *IncludeNode) toObject() IRObject {
	obj := IRObject{
		"alias":    IRString(n.Alias),
		"required": IRBool(n.Required),
		"include":  includeArray(n.Include),
	}
	if n.Entity != nil {
		obj["entity"] = IRString(n.Entity.Name)
	}
	if n.Where != nil {
		obj["where"] = n.Where
	}
	return obj
}

func includeArray(nodes []*IncludeNode) IRArray {
	arr := make(IRArray, len(nodes))
	for i, c := range nodes {
		arr[i] = c.toObject()
	}
	return arr
}

// QueryTree is the root of a query: an IncludeNode plus top-level
// passthrough fields (limit, order, attributes, ...) that this module
// carries but never interprets.
type QueryTree struct {
	IncludeNode
	Extra IRObject
}

// NewQueryTree creates an empty tree rooted at entity. The entity may be nil
// when the root is supplied later by a builder.
func NewQueryTree(root *Entity) *QueryTree {
	return &QueryTree{IncludeNode: IncludeNode{Entity: root}}
}

// Clone returns a deep copy of the tree.
func (t *QueryTree) Clone() *QueryTree {
	if t == nil {
		return nil
	}
	return &QueryTree{
		IncludeNode: *t.IncludeNode.Clone(),
		Extra:       t.Extra.Clone(),
	}
}

// ToObject renders the tree in the query-boundary shape:
// {where?, include: [...], ...extra}. The root alias and required flag are
// not part of the boundary shape; the root entity is emitted as "entity"
// when known.
func (t *QueryTree) ToObject() IRObject {
	obj := make(IRObject, len(t.Extra)+3)
	for k, v := range t.Extra {
		obj[k] = Clone(v)
	}
	obj["include"] = includeArray(t.Include)
	if t.Entity != nil {
		obj["entity"] = IRString(t.Entity.Name)
	}
	if t.Where != nil {
		obj["where"] = t.Where.Clone()
	}
	return obj
}

// MarshalJSON encodes the tree as canonical JSON in the boundary shape.
func (t *QueryTree) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(t.ToObject())
}
