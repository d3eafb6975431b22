package ir

import "fmt"

// NodeSpec is the serialized form of an IncludeNode, with the entity given
// by name. It is what YAML scenario files and `populate --initial` decode.
type NodeSpec struct {
	Entity   string         `yaml:"entity" json:"entity"`
	Alias    string         `yaml:"alias" json:"alias"`
	Required bool           `yaml:"required,omitempty" json:"required,omitempty"`
	Where    map[string]any `yaml:"where,omitempty" json:"where,omitempty"`
	Include  []NodeSpec     `yaml:"include,omitempty" json:"include,omitempty"`
}

// TreeSpec is the serialized form of a QueryTree.
// Unknown top-level keys are kept in Extra.
type TreeSpec struct {
	Where   map[string]any `yaml:"where,omitempty" json:"where,omitempty"`
	Include []NodeSpec     `yaml:"include,omitempty" json:"include,omitempty"`
	Extra   map[string]any `yaml:",inline" json:"-"`
}

// EntityLookup resolves an entity name.
type EntityLookup func(name string) (*Entity, bool)

// Resolve converts the spec into a QueryTree rooted at root, resolving
// entity names through lookup.
func (s TreeSpec) Resolve(root *Entity, lookup EntityLookup) (*QueryTree, error) {
	tree := NewQueryTree(root)

	where, err := ObjectFromGo(s.Where)
	if err != nil {
		return nil, fmt.Errorf("where: %w", err)
	}
	tree.Where = where

	if len(s.Extra) > 0 {
		extra, err := ObjectFromGo(s.Extra)
		if err != nil {
			return nil, fmt.Errorf("extra: %w", err)
		}
		tree.Extra = extra
	}

	for _, ns := range s.Include {
		child, err := ns.resolve(lookup, "")
		if err != nil {
			return nil, err
		}
		tree.Include = append(tree.Include, child)
	}
	return tree, nil
}

func (s NodeSpec) resolve(lookup EntityLookup, prefix string) (*IncludeNode, error) {
	path := s.Alias
	if prefix != "" {
		path = prefix + "." + s.Alias
	}

	entity, ok := lookup(s.Entity)
	if !ok {
		return nil, fmt.Errorf("include %q: unknown entity %q", path, s.Entity)
	}
	where, err := ObjectFromGo(s.Where)
	if err != nil {
		return nil, fmt.Errorf("include %q: where: %w", path, err)
	}

	node := &IncludeNode{
		Entity:   entity,
		Alias:    s.Alias,
		Required: s.Required,
		Where:    where,
	}
	for _, cs := range s.Include {
		child, err := cs.resolve(lookup, path)
		if err != nil {
			return nil, err
		}
		node.Include = append(node.Include, child)
	}
	return node, nil
}
