package schema

import (
	"strings"

	"xtd/internal/xmltree"
)

// WalkOptions controls what the tree walk records.
type WalkOptions struct {
	// SuppressAttributes skips columns generated from element attributes.
	SuppressAttributes bool
}

// Walk visits root depth-first in document order and records every element
// in reg: its table, attribute column types, the "value" column for its text,
// and per-instance child tag counts merged by maximum into its foreign keys.
func Walk(root *xmltree.Node, reg *Registry, opts WalkOptions) {
	if root == nil {
		return
	}
	w := walker{reg: reg, opts: opts}
	w.visit(root)
}

type walker struct {
	reg  *Registry
	opts WalkOptions
}

func (w walker) visit(n *xmltree.Node) {
	table := w.reg.Ensure(n.Tag)
	if !w.opts.SuppressAttributes {
		for _, a := range n.Attrs {
			table.Widen(strings.ToLower(a.Name), attributeType(a.Value))
		}
	}

	counts := w.visitChildren(n)

	if strings.TrimSpace(n.Text) != "" {
		table.Widen(ValueColumn, textType(n.Text))
	}
	for _, ref := range counts.keys() {
		c, _ := counts.get(ref)
		table.MergeForeignKey(ref, c)
	}
}

// visitChildren walks each child and returns how often each child tag
// occurs under this one element instance.
func (w walker) visitChildren(n *xmltree.Node) columns[int] {
	counts := newColumns[int]()
	for _, child := range n.Children {
		tag := strings.ToLower(child.Tag)
		c, _ := counts.get(tag)
		counts.set(tag, c+1)
		w.visit(child)
	}
	return counts
}
