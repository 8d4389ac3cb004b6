package silo

// Node is a lightweight cursor pairing a silo with one packed node offset.
// Nodes are created on demand by traversal and query operations; two Nodes
// over the same offset are distinct instances and do not share their data
// maps. Traversal returns nil on absence, never an error.
type Node struct {
	silo *Silo
	off  uint32
	data map[string][]byte
}

func newNode(s *Silo, off uint32) *Node {
	return &Node{silo: s, off: off}
}

// Silo returns the silo the node belongs to.
func (n *Node) Silo() *Silo {
	if n == nil {
		return nil
	}
	return n.silo
}

// Root returns a view of the silo's root node, or nil for an empty silo.
func (n *Node) Root() *Node {
	if n == nil {
		return nil
	}
	return n.silo.Root()
}

// Parent returns the parent node, or nil at the root.
func (n *Node) Parent() *Node {
	if n == nil {
		return nil
	}
	off := n.silo.nodeParent(n.off)
	if off == offNone {
		return nil
	}
	return newNode(n.silo, off)
}

// Next returns the following sibling under the same parent, or nil when
// the node is the last sibling.
func (n *Node) Next() *Node {
	if n == nil {
		return nil
	}
	off := n.silo.nodeNext(n.off)
	if off == offNone {
		return nil
	}
	return newNode(n.silo, off)
}

// Child returns the first child, or nil for a leaf.
func (n *Node) Child() *Node {
	if n == nil {
		return nil
	}
	off := n.silo.nodeChild(n.off)
	if off == offNone {
		return nil
	}
	return newNode(n.silo, off)
}

// Children returns all direct children in document order.
func (n *Node) Children() []*Node {
	var out []*Node
	for c := n.Child(); c != nil; c = c.Next() {
		out = append(out, c)
	}
	return out
}

// Element returns the element's local name.
func (n *Node) Element() string {
	if n == nil {
		return ""
	}
	return n.silo.nodeElement(n.off)
}

// Text returns the element's immediate text content, or "" when unset.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	text, _ := n.silo.nodeText(n.off)
	return text
}

// Attr returns the value of the named attribute, or "" when missing.
// Lookup is case-sensitive and linear in the attribute count.
func (n *Node) Attr(name string) string {
	if n == nil || name == "" {
		return ""
	}
	val, _ := n.silo.nodeAttr(n.off, name)
	return val
}

// Depth returns the node's distance from the root, 0 for the root itself.
func (n *Node) Depth() uint {
	if n == nil {
		return 0
	}
	return uint(n.silo.nodeDepth(n.off))
}

// GetData returns bytes previously attached with SetData, or nil. The
// returned slice is shared with the node; callers must not modify it.
func (n *Node) GetData(key string) []byte {
	if n == nil || key == "" {
		return nil
	}
	return n.data[key]
}

// SetData attaches arbitrary bytes to this node instance under key,
// replacing any previous entry. The map belongs to the instance: other
// Nodes over the same offset do not see it.
func (n *Node) SetData(key string, blob []byte) {
	if n == nil || key == "" || blob == nil {
		return
	}
	if n.data == nil {
		n.data = make(map[string][]byte)
	}
	n.data[key] = blob
}

// Export serialises the subtree rooted at this node back to XML.
func (n *Node) Export(flags ExportFlag) (string, error) {
	if n == nil {
		return "", invalidArgf("export of nil node")
	}
	return n.silo.exportSubtree(n.off, flags)
}
