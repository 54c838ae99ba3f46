package parser

import (
	"strings"

	"github.com/dhamidi/groom/java/tree"
)

// collectIdentifiers gathers the identifier chains referenced by the code.
// A chain is a run of sibling leaves Ident { "." Ident } that does not itself
// follow a "."; member selections on expressions therefore do not count.
func collectIdentifiers(t *tree.Tree, root tree.NodeID) (qualified, unqualified []string) {
	q := newOrderedSet()
	u := newOrderedSet()
	t.Inspect(root, func(n tree.NodeID) bool {
		switch t.Kind(n) {
		case tree.KindPackageDecl, tree.KindImportDecl, tree.KindModuleDecl:
			return false
		}
		if t.Kind(n).IsToken() {
			return false
		}
		for c := t.FirstChild(n); c != tree.NoNode; c = t.Next(c) {
			if t.Kind(c) != tree.KindIdent {
				continue
			}
			if prev := t.Prev(c); prev != tree.NoNode && t.Token(prev) == "." {
				continue
			}
			parts := []string{t.Token(c)}
			for next := t.Next(c); next != tree.NoNode && t.Token(next) == "."; {
				id := t.Next(next)
				if id == tree.NoNode || t.Kind(id) != tree.KindIdent {
					break
				}
				parts = append(parts, t.Token(id))
				next = t.Next(id)
			}
			u.add(parts[0])
			if len(parts) > 1 {
				q.add(strings.Join(parts, "."))
			}
		}
		return true
	})
	return q.items, u.items
}

type orderedSet struct {
	seen  map[string]bool
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: map[string]bool{}}
}

func (s *orderedSet) add(v string) {
	if s.seen[v] {
		return
	}
	s.seen[v] = true
	s.items = append(s.items, v)
}
