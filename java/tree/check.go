package tree

import "fmt"

// Check verifies the structural invariants of the whole arena:
//
//   - every node reachable from the root is visited exactly once;
//   - every child names its parent, and prev/next links agree both ways;
//   - the parent's last link is the end of its child list;
//   - a node not reachable from the root has no parent or sibling links,
//     unless it is inside a detached subtree whose root is itself clean;
//   - hidden tokens point back at the node that holds them.
func (t *Tree) Check() error {
	seen := make([]bool, len(t.nodes)+1)
	if t.root != NoNode {
		if r := t.get(t.root); r.parent != NoNode || r.prev != NoNode || r.next != NoNode {
			return &PreconditionError{Op: "Check", Node: t.root, Got: r.Kind, Msg: "root has links"}
		}
		if err := t.checkSubtree(t.root, seen); err != nil {
			return err
		}
	}
	for i := range t.nodes {
		id := NodeID(i + 1)
		if seen[id] {
			continue
		}
		n := &t.nodes[i]
		if n.parent == NoNode && (n.prev != NoNode || n.next != NoNode) {
			return &PreconditionError{Op: "Check", Node: id, Got: n.Kind, Msg: "detached node keeps sibling links"}
		}
		if n.parent != NoNode && !t.hasChild(n.parent, id) {
			return &PreconditionError{Op: "Check", Node: id, Got: n.Kind, Msg: fmt.Sprintf("parent %d does not list it", n.parent)}
		}
	}
	return nil
}

func (t *Tree) hasChild(parent, child NodeID) bool {
	for c := t.get(parent).first; c != NoNode; c = t.get(c).next {
		if c == child {
			return true
		}
	}
	return false
}

func (t *Tree) checkSubtree(id NodeID, seen []bool) error {
	if seen[id] {
		return &PreconditionError{Op: "Check", Node: id, Got: t.get(id).Kind, Msg: "visited twice"}
	}
	seen[id] = true
	n := t.get(id)
	if err := t.checkHidden(id, sideBefore); err != nil {
		return err
	}
	if err := t.checkHidden(id, sideAfter); err != nil {
		return err
	}
	var prev NodeID
	for c := n.first; c != NoNode; c = t.get(c).next {
		cn := t.get(c)
		if cn.parent != id {
			return &PreconditionError{Op: "Check", Node: c, Got: cn.Kind, Msg: fmt.Sprintf("parent is %d, want %d", cn.parent, id)}
		}
		if cn.prev != prev {
			return &PreconditionError{Op: "Check", Node: c, Got: cn.Kind, Msg: fmt.Sprintf("prev is %d, want %d", cn.prev, prev)}
		}
		if err := t.checkSubtree(c, seen); err != nil {
			return err
		}
		prev = c
	}
	if n.last != prev {
		return &PreconditionError{Op: "Check", Node: id, Got: n.Kind, Msg: fmt.Sprintf("last child is %d, want %d", n.last, prev)}
	}
	return nil
}

func (t *Tree) checkHidden(id NodeID, s side) error {
	var prev HiddenID
	for h := *t.head(id, s); h != NoHidden; h = t.hget(h).next {
		x := t.hget(h)
		if x.owner != id || x.side != s || x.prev != prev {
			return &PreconditionError{Op: "Check", Node: id, Got: t.get(id).Kind, Msg: fmt.Sprintf("hidden token %d is inconsistent", h)}
		}
		prev = h
	}
	return nil
}
