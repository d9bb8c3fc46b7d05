package tecs

import (
	"github.com/TheBitDrifter/mask"
)

type Operation int

const (
	OpAnd Operation = iota
	OpOr
	OpNot
)

type compositeNode struct {
	op         Operation
	children   []QueryNode
	components []Component
	cache      maskCache
}

type leafNode struct {
	components []Component
	cache      maskCache
}

// maskCache memoizes a node's component mask for one engine. It is rebuilt
// whenever the engine registers a new component type.
type maskCache struct {
	engine   *engine
	epoch    int
	mask     mask.Mask
	complete bool
}

func (c *maskCache) resolve(eng *engine, components []Component) (mask.Mask, bool) {
	if c.engine != eng || c.epoch != eng.typeEpoch {
		c.mask, c.complete = eng.maskFor(components)
		c.engine = eng
		c.epoch = eng.typeEpoch
	}
	return c.mask, c.complete
}

type query struct {
	root QueryNode
}

func newQuery() Query {
	return &query{}
}

func newCompositeNode(op Operation, components []Component) *compositeNode {
	return &compositeNode{
		op:         op,
		children:   make([]QueryNode, 0),
		components: components,
	}
}

func newLeafNode(components []Component) *leafNode {
	return &leafNode{components: components}
}

func (n *compositeNode) Evaluate(signature mask.Mask, eng Engine) bool {
	nodeMask, complete := n.cache.resolve(eng.(*engine), n.components)

	switch n.op {
	case OpAnd:
		if !complete || !signature.ContainsAll(nodeMask) {
			return false
		}
		for _, child := range n.children {
			if !child.Evaluate(signature, eng) {
				return false
			}
		}
		return true

	case OpOr:
		if signature.ContainsAny(nodeMask) {
			return true
		}
		for _, child := range n.children {
			if child.Evaluate(signature, eng) {
				return true
			}
		}
		return false

	case OpNot:
		for _, child := range n.children {
			if child.Evaluate(signature, eng) {
				return false
			}
		}
		return signature.ContainsNone(nodeMask)
	}
	return false
}

func (n *leafNode) Evaluate(signature mask.Mask, eng Engine) bool {
	nodeMask, complete := n.cache.resolve(eng.(*engine), n.components)
	return complete && signature.ContainsAll(nodeMask)
}

func (q *query) And(items ...interface{}) QueryNode {
	components, children := q.processItems(items...)
	node := newCompositeNode(OpAnd, components)
	node.children = children
	q.root = node
	return node
}

func (q *query) Or(items ...interface{}) QueryNode {
	components, children := q.processItems(items...)
	node := newCompositeNode(OpOr, components)
	node.children = children
	q.root = node
	return node
}

func (q *query) Not(items ...interface{}) QueryNode {
	components, children := q.processItems(items...)
	node := newCompositeNode(OpNot, components)
	node.children = children
	q.root = node
	return node
}

// processItems splits builder arguments into components and child nodes.
// A bare []Component becomes a leaf requiring all of them.
func (q *query) processItems(items ...interface{}) ([]Component, []QueryNode) {
	components := make([]Component, 0)
	children := make([]QueryNode, 0)

	for _, item := range items {
		switch v := item.(type) {
		case Component:
			components = append(components, v)
		case []Component:
			children = append(children, newLeafNode(v))
		case QueryNode:
			children = append(children, v)
		}
	}

	return components, children
}

func (q *query) Evaluate(signature mask.Mask, eng Engine) bool {
	if q.root == nil {
		return false
	}
	return q.root.Evaluate(signature, eng)
}

// requiredComponents collects the components every match must carry. Only
// And nodes and leaves contribute; Or and Not branches cannot narrow the set.
func requiredComponents(node QueryNode) []Component {
	switch n := node.(type) {
	case *query:
		if n.root == nil {
			return nil
		}
		return requiredComponents(n.root)
	case *leafNode:
		return n.components
	case *compositeNode:
		if n.op != OpAnd {
			return nil
		}
		required := append([]Component(nil), n.components...)
		for _, child := range n.children {
			required = append(required, requiredComponents(child)...)
		}
		return required
	}
	return nil
}
