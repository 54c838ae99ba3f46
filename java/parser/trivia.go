package parser

import "github.com/dhamidi/groom/java/tree"

// anchor reports whether hidden tokens at the edges of a node should hang
// off the node itself rather than its first and last leaves. Anchors are
// the units passes move around: declarations, imports, members, enum
// constants, statements and switch cases.
func anchor(k tree.Kind) bool {
	switch k {
	case tree.KindPackageDecl, tree.KindImportDecl, tree.KindEnumConstant, tree.KindCase:
		return true
	}
	return k.IsMember() || k.IsStatement()
}

// hoistTrivia moves the leading chain of each anchor's first leaf and the
// trailing chain of its last leaf onto the anchor. Outer anchors go first,
// so trivia shared by nested anchors ends up on the outermost one. The
// rendered text does not change.
func hoistTrivia(t *tree.Tree, root tree.NodeID) {
	t.Inspect(root, func(n tree.NodeID) bool {
		if !anchor(t.Kind(n)) {
			return true
		}
		if first := t.FirstLeaf(n); first != tree.NoNode {
			t.MoveBefore(first, n)
		}
		if last := t.LastLeaf(n); last != tree.NoNode {
			t.MoveAfter(last, n)
		}
		return true
	})
}
