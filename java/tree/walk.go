package tree

// Walker drives a depth-first, left-to-right traversal. Visit is called for
// each node before its children.
//
// Stop is sticky: once a visit calls it, no further node is visited and the
// walker stays stopped until Reset is called.
type Walker struct {
	Tree  *Tree
	Visit func(w *Walker, id NodeID)

	stopped bool
	skip    bool
}

func NewWalker(t *Tree, visit func(w *Walker, id NodeID)) *Walker {
	return &Walker{Tree: t, Visit: visit}
}

// Stop ends the traversal after the current visit returns.
func (w *Walker) Stop() { w.stopped = true }

func (w *Walker) Stopped() bool { return w.stopped }

// Reset clears the stop flag so the walker can be reused.
func (w *Walker) Reset() {
	w.stopped = false
	w.skip = false
}

// SkipChildren keeps the traversal from descending into the node currently
// being visited.
func (w *Walker) SkipChildren() { w.skip = true }

// Walk traverses the subtree rooted at id. The next sibling is read before
// a node's subtree is walked, so a visit may detach the node it is given.
func (w *Walker) Walk(id NodeID) {
	if id == NoNode || w.stopped {
		return
	}
	w.walk(id)
}

func (w *Walker) walk(id NodeID) {
	if w.stopped {
		return
	}
	w.skip = false
	w.Visit(w, id)
	if w.stopped || w.skip {
		w.skip = false
		return
	}
	for c := w.Tree.FirstChild(id); c != NoNode; {
		next := w.Tree.Next(c)
		w.walk(c)
		if w.stopped {
			return
		}
		c = next
	}
}

// Inspect calls f for every node under id in depth-first order. Returning
// false from f skips the node's children. It is a convenience over Walker
// for read-only traversals.
func (t *Tree) Inspect(id NodeID, f func(NodeID) bool) {
	if id == NoNode {
		return
	}
	if !f(id) {
		return
	}
	for c := t.FirstChild(id); c != NoNode; c = t.Next(c) {
		t.Inspect(c, f)
	}
}

// Ancestor returns the closest ancestor of id with one of the given kinds.
func (t *Tree) Ancestor(id NodeID, kinds ...Kind) NodeID {
	for p := t.Parent(id); p != NoNode; p = t.Parent(p) {
		k := t.Kind(p)
		for _, want := range kinds {
			if k == want {
				return p
			}
		}
	}
	return NoNode
}
