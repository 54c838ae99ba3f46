// Package tree holds the mutable concrete syntax tree shared by the parser,
// the rewrite passes and the printer.
//
// Nodes live in an arena owned by a Tree and are addressed by NodeID. Links
// between nodes (parent, previous sibling, next sibling, first and last
// child) are ids into the same arena, so a splice never leaves a dangling
// reference behind: a detached node simply has its link fields zeroed.
//
// Comments and whitespace are not nodes. They are hidden tokens chained in
// front of and behind a node and travel with it when it is moved.
package tree

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
)

// NodeID addresses a node in a Tree. The zero value means "no node".
type NodeID uint32

const NoNode NodeID = 0

// Node is one entry in the arena. Link fields are private; use the Tree
// methods to read and change them.
type Node struct {
	Kind   Kind
	Text   string
	Line   int
	Column int

	parent NodeID
	prev   NodeID
	next   NodeID
	first  NodeID
	last   NodeID

	before    HiddenID
	after     HiddenID
	synthetic bool
}

// Tree is an arena of nodes and hidden tokens plus the root id.
// A Tree is not safe for concurrent use.
type Tree struct {
	nodes  []Node
	hidden []Hidden
	root   NodeID
}

func New() *Tree {
	return &Tree{
		nodes:  make([]Node, 0, 256),
		hidden: make([]Hidden, 0, 256),
	}
}

func (t *Tree) Root() NodeID { return t.root }

func (t *Tree) SetRoot(id NodeID) {
	t.root = id
}

// Len returns the number of nodes ever allocated, reachable or not.
func (t *Tree) Len() int { return len(t.nodes) }

func (t *Tree) alloc(n Node) NodeID {
	t.nodes = append(t.nodes, n)
	id, err := safecast.Conv[uint32](len(t.nodes))
	if err != nil {
		panic(fmt.Sprintf("tree: node arena overflow: %v", err))
	}
	return NodeID(id)
}

func (t *Tree) get(id NodeID) *Node {
	if id == NoNode || int(id) > len(t.nodes) {
		panic(fmt.Sprintf("tree: invalid node id %d", id))
	}
	return &t.nodes[id-1]
}

// NewNode allocates a parsed node at a source position.
func (t *Tree) NewNode(kind Kind, text string, line, column int) NodeID {
	return t.alloc(Node{Kind: kind, Text: text, Line: line, Column: column})
}

// New allocates a synthetic node. Synthetic nodes have no source position.
func (t *Tree) New(kind Kind, text string) NodeID {
	return t.alloc(Node{Kind: kind, Text: text, synthetic: true})
}

func (t *Tree) Kind(id NodeID) Kind { return t.get(id).Kind }
func (t *Tree) Token(id NodeID) string { return t.get(id).Text }
func (t *Tree) Parent(id NodeID) NodeID { return t.get(id).parent }
func (t *Tree) Next(id NodeID) NodeID { return t.get(id).next }
func (t *Tree) Prev(id NodeID) NodeID { return t.get(id).prev }
func (t *Tree) FirstChild(id NodeID) NodeID { return t.get(id).first }
func (t *Tree) LastChild(id NodeID) NodeID { return t.get(id).last }
func (t *Tree) IsSynthetic(id NodeID) bool { return t.get(id).synthetic }

// Pos returns the 1-based line and column of a node. Synthetic nodes report
// the position they were given with SetPos, or zeros.
func (t *Tree) Pos(id NodeID) (line, column int) {
	n := t.get(id)
	return n.Line, n.Column
}

func (t *Tree) SetPos(id NodeID, line, column int) {
	n := t.get(id)
	n.Line, n.Column = line, column
}

func (t *Tree) SetText(id NodeID, text string) {
	t.get(id).Text = text
}

func (t *Tree) SetKind(id NodeID, kind Kind) {
	t.get(id).Kind = kind
}

// Children returns a snapshot of the child list.
func (t *Tree) Children(id NodeID) []NodeID {
	var out []NodeID
	for c := t.get(id).first; c != NoNode; c = t.get(c).next {
		out = append(out, c)
	}
	return out
}

// ChildrenOfKind returns the direct children with the given kind.
func (t *Tree) ChildrenOfKind(id NodeID, kind Kind) []NodeID {
	var out []NodeID
	for c := t.get(id).first; c != NoNode; c = t.get(c).next {
		if t.get(c).Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// FirstChildOfKind returns the first direct child with the given kind.
func (t *Tree) FirstChildOfKind(id NodeID, kind Kind) NodeID {
	for c := t.get(id).first; c != NoNode; c = t.get(c).next {
		if t.get(c).Kind == kind {
			return c
		}
	}
	return NoNode
}

// Attached reports whether id is reachable from the root.
func (t *Tree) Attached(id NodeID) bool {
	for n := id; n != NoNode; n = t.get(n).parent {
		if n == t.root {
			return true
		}
	}
	return false
}

// Append links child as the last child of parent. The child must be detached.
func (t *Tree) Append(parent, child NodeID) {
	t.mustBeDetached("Append", child)
	p := t.get(parent)
	c := t.get(child)
	c.parent = parent
	c.prev = p.last
	if p.last != NoNode {
		t.get(p.last).next = child
	} else {
		p.first = child
	}
	p.last = child
}

// Prepend links child as the first child of parent. The child must be detached.
func (t *Tree) Prepend(parent, child NodeID) {
	t.mustBeDetached("Prepend", child)
	p := t.get(parent)
	c := t.get(child)
	c.parent = parent
	c.next = p.first
	if p.first != NoNode {
		t.get(p.first).prev = child
	} else {
		p.last = child
	}
	p.first = child
}

// InsertBefore links n as the previous sibling of ref.
func (t *Tree) InsertBefore(ref, n NodeID) {
	t.mustBeDetached("InsertBefore", n)
	r := t.get(ref)
	if r.parent == NoNode {
		panic("tree: InsertBefore on a node without parent")
	}
	x := t.get(n)
	x.parent = r.parent
	x.next = ref
	x.prev = r.prev
	if r.prev != NoNode {
		t.get(r.prev).next = n
	} else {
		t.get(r.parent).first = n
	}
	r.prev = n
}

// InsertAfter links n as the next sibling of ref.
func (t *Tree) InsertAfter(ref, n NodeID) {
	t.mustBeDetached("InsertAfter", n)
	r := t.get(ref)
	if r.parent == NoNode {
		panic("tree: InsertAfter on a node without parent")
	}
	x := t.get(n)
	x.parent = r.parent
	x.prev = ref
	x.next = r.next
	if r.next != NoNode {
		t.get(r.next).prev = n
	} else {
		t.get(r.parent).last = n
	}
	r.next = n
}

// Detach unlinks id from its parent and siblings and clears its parent,
// prev and next links. Its first and last child links are left alone, so
// a detached node carries its whole subtree, hidden tokens included, and
// can be spliced back in with Append or Replace.
func (t *Tree) Detach(id NodeID) {
	n := t.get(id)
	if n.parent != NoNode {
		p := t.get(n.parent)
		if n.prev != NoNode {
			t.get(n.prev).next = n.next
		} else {
			p.first = n.next
		}
		if n.next != NoNode {
			t.get(n.next).prev = n.prev
		} else {
			p.last = n.prev
		}
	}
	if t.root == id {
		t.root = NoNode
	}
	n.parent, n.prev, n.next = NoNode, NoNode, NoNode
}

// Replace splices repl into the position of old. The hidden tokens attached
// to old move onto repl, in front of the ones repl already carries; call
// MoveHidden beforehand to send them elsewhere. old ends up detached.
func (t *Tree) Replace(old, repl NodeID) {
	t.mustBeDetached("Replace", repl)
	o := t.get(old)
	switch {
	case o.parent != NoNode:
		t.InsertBefore(old, repl)
	case t.root == old:
		t.root = repl
	default:
		panic("tree: Replace of a detached node")
	}
	t.MoveHidden(old, repl)
	t.Detach(old)
}

func (t *Tree) mustBeDetached(op string, id NodeID) {
	n := t.get(id)
	if n.parent != NoNode || n.prev != NoNode || n.next != NoNode || t.root == id {
		panic(fmt.Sprintf("tree: %s of attached node %d (%s)", op, id, n.Kind))
	}
}

// Clone copies the subtree rooted at id into fresh nodes. Hidden tokens are
// copied only when withHidden is set. The copy is detached and synthetic.
func (t *Tree) Clone(id NodeID, withHidden bool) NodeID {
	return t.copyFrom(t, id, withHidden)
}

// Graft copies the subtree id of another tree, hidden tokens included, into t
// and returns the detached copy. Passes use it to build synthetic code from
// parsed templates.
func (t *Tree) Graft(src *Tree, id NodeID) NodeID {
	return t.copyFrom(src, id, true)
}

func (t *Tree) copyFrom(src *Tree, id NodeID, withHidden bool) NodeID {
	n := *src.get(id)
	c := t.New(n.Kind, n.Text)
	if withHidden {
		for _, h := range src.Before(id) {
			x := src.HiddenAt(h)
			t.AddBefore(c, t.NewHidden(x.Kind, x.Text))
		}
		for _, h := range src.After(id) {
			x := src.HiddenAt(h)
			t.AddAfter(c, t.NewHidden(x.Kind, x.Text))
		}
	}
	for child := src.FirstChild(id); child != NoNode; child = src.Next(child) {
		t.Append(c, t.copyFrom(src, child, withHidden))
	}
	return c
}

// Leaves returns the token nodes under id in source order.
func (t *Tree) Leaves(id NodeID) []NodeID {
	var out []NodeID
	var rec func(NodeID)
	rec = func(n NodeID) {
		if t.get(n).Kind.IsToken() {
			out = append(out, n)
			return
		}
		for c := t.get(n).first; c != NoNode; c = t.get(c).next {
			rec(c)
		}
	}
	rec(id)
	return out
}

// FirstLeaf returns the first token node under id, or NoNode.
func (t *Tree) FirstLeaf(id NodeID) NodeID {
	if t.get(id).Kind.IsToken() {
		return id
	}
	for c := t.get(id).first; c != NoNode; c = t.get(c).next {
		if l := t.FirstLeaf(c); l != NoNode {
			return l
		}
	}
	return NoNode
}

// LastLeaf returns the last token node under id, or NoNode.
func (t *Tree) LastLeaf(id NodeID) NodeID {
	if t.get(id).Kind.IsToken() {
		return id
	}
	for c := t.get(id).last; c != NoNode; c = t.get(c).prev {
		if l := t.LastLeaf(c); l != NoNode {
			return l
		}
	}
	return NoNode
}

// Text concatenates the token text under id, collapsing each run of hidden
// tokens between two leaves into a single space.
// It is a comparison key, not a rendering.
func (t *Tree) Text(id NodeID) string {
	var sb strings.Builder
	prev := NoNode
	for _, l := range t.Leaves(id) {
		if prev != NoNode && (t.get(prev).after != 0 || t.get(l).before != 0) {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.get(l).Text)
		prev = l
	}
	return sb.String()
}

// String renders the subtree as an indented outline for debugging and tests.
func (t *Tree) String() string {
	if t.root == NoNode {
		return ""
	}
	return t.Dump(t.root)
}

func (t *Tree) Dump(id NodeID) string {
	var sb strings.Builder
	var rec func(NodeID, int)
	rec = func(n NodeID, depth int) {
		sb.WriteString(strings.Repeat("  ", depth))
		x := t.get(n)
		sb.WriteString(x.Kind.String())
		if x.Text != "" {
			sb.WriteString(" ")
			sb.WriteString(x.Text)
		}
		sb.WriteString("\n")
		for c := x.first; c != NoNode; c = t.get(c).next {
			rec(c, depth+1)
		}
	}
	rec(id, 0)
	return sb.String()
}
