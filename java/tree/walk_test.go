package tree

import (
	"strings"
	"testing"
)

// nested builds  Block(a, Block(b, c), d).
func nested() (*Tree, map[string]NodeID) {
	tr := New()
	ids := map[string]NodeID{}
	root := tr.New(KindBlock, "root")
	inner := tr.New(KindBlock, "inner")
	tr.SetRoot(root)
	for _, n := range []string{"a", "b", "c", "d"} {
		ids[n] = tr.New(KindIdent, n)
	}
	tr.Append(root, ids["a"])
	tr.Append(root, inner)
	tr.Append(inner, ids["b"])
	tr.Append(inner, ids["c"])
	tr.Append(root, ids["d"])
	ids["root"], ids["inner"] = root, inner
	return tr, ids
}

func TestWalkOrder(t *testing.T) {
	tr, _ := nested()
	var seen []string
	w := NewWalker(tr, func(w *Walker, id NodeID) {
		seen = append(seen, tr.Token(id))
	})
	w.Walk(tr.Root())
	if got, want := strings.Join(seen, " "), "root a inner b c d"; got != want {
		t.Errorf("order = %q, want %q", got, want)
	}
}

func TestWalkStop(t *testing.T) {
	tr, _ := nested()
	var seen []string
	w := NewWalker(tr, func(w *Walker, id NodeID) {
		seen = append(seen, tr.Token(id))
		if tr.Token(id) == "b" {
			w.Stop()
		}
	})
	w.Walk(tr.Root())
	if got, want := strings.Join(seen, " "), "root a inner b"; got != want {
		t.Errorf("order = %q, want %q", got, want)
	}
	if !w.Stopped() {
		t.Errorf("Stopped() = false after Stop")
	}

	seen = nil
	w.Walk(tr.Root())
	if len(seen) != 0 {
		t.Errorf("stopped walker visited %v without Reset", seen)
	}

	w.Reset()
	w.Walk(tr.Root())
	if len(seen) == 0 {
		t.Errorf("walker did not run after Reset")
	}
}

func TestWalkStopBeforeDescending(t *testing.T) {
	tr, _ := nested()
	var seen []string
	w := NewWalker(tr, func(w *Walker, id NodeID) {
		seen = append(seen, tr.Token(id))
		if tr.Token(id) == "inner" {
			w.Stop()
		}
	})
	w.Walk(tr.Root())
	if got, want := strings.Join(seen, " "), "root a inner"; got != want {
		t.Errorf("order = %q, want %q", got, want)
	}
}

func TestWalkSkipChildren(t *testing.T) {
	tr, _ := nested()
	var seen []string
	w := NewWalker(tr, func(w *Walker, id NodeID) {
		seen = append(seen, tr.Token(id))
		if tr.Token(id) == "inner" {
			w.SkipChildren()
		}
	})
	w.Walk(tr.Root())
	if got, want := strings.Join(seen, " "), "root a inner d"; got != want {
		t.Errorf("order = %q, want %q", got, want)
	}
}

func TestWalkSurvivesDetachOfVisitedNode(t *testing.T) {
	tr, _ := nested()
	var seen []string
	w := NewWalker(tr, func(w *Walker, id NodeID) {
		seen = append(seen, tr.Token(id))
		if tr.Token(id) == "a" {
			tr.Detach(id)
		}
	})
	w.Walk(tr.Root())
	if got, want := strings.Join(seen, " "), "root a inner b c d"; got != want {
		t.Errorf("order = %q, want %q", got, want)
	}
}

// After arbitrary splices every reachable node is visited exactly once and
// sibling links stay mutually consistent.
func TestWalkVisitsEachNodeOnceAfterSplices(t *testing.T) {
	tr, ids := nested()
	tr.Detach(ids["c"])
	tr.InsertBefore(ids["a"], ids["c"])
	tr.Detach(ids["inner"])
	tr.Append(ids["root"], ids["inner"])
	tr.Replace(ids["d"], tr.New(KindIdent, "e"))

	count := map[NodeID]int{}
	w := NewWalker(tr, func(w *Walker, id NodeID) {
		count[id]++
		if p := tr.Prev(id); p != NoNode && tr.Next(p) != id {
			t.Errorf("node %d: prev %d does not point back", id, p)
		}
		if n := tr.Next(id); n != NoNode && tr.Prev(n) != id {
			t.Errorf("node %d: next %d does not point back", id, n)
		}
	})
	w.Walk(tr.Root())
	for id, n := range count {
		if n != 1 {
			t.Errorf("node %d visited %d times", id, n)
		}
	}
	if _, ok := count[ids["d"]]; ok {
		t.Errorf("replaced node still reachable")
	}
	if err := tr.Check(); err != nil {
		t.Errorf("Check() = %v", err)
	}
}
