package csavtree

// Node is one in-memory node of a CSAV tree: a name, an opaque data blob
// (a serialized internal/objsys System, or any other node payload — the
// container format is agnostic to what it holds) and child nodes in
// declaration order.
type Node struct {
	Name     string
	Data     []byte
	Children []*Node
}

// NewNode returns a childless node holding data.
func NewNode(name string, data []byte) *Node {
	return &Node{Name: name, Data: append([]byte(nil), data...)}
}

// AddChild appends child to n's children, in order.
func (n *Node) AddChild(child *Node) {
	n.Children = append(n.Children, child)
}

// Tree is a loaded (or newly built) CSAV container: its version block,
// preserved verbatim for a byte-identical re-save, and its root node.
type Tree struct {
	Version Version
	Root    *Node
}

// NewTree returns an empty tree with the given version block and a root
// node of the given name.
func NewTree(version Version, rootName string) *Tree {
	return &Tree{Version: version, Root: &Node{Name: rootName}}
}

// Walk visits n and every descendant in pre-order.
func (n *Node) Walk(visit func(*Node)) {
	visit(n)
	for _, c := range n.Children {
		c.Walk(visit)
	}
}
