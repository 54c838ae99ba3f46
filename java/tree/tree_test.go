package tree

import (
	"errors"
	"strings"
	"testing"
)

// buildList returns a tree with a Body root holding one Ident per name.
func buildList(names ...string) (*Tree, NodeID, []NodeID) {
	t := New()
	root := t.New(KindBody, "")
	t.SetRoot(root)
	var ids []NodeID
	for _, n := range names {
		id := t.New(KindIdent, n)
		t.Append(root, id)
		ids = append(ids, id)
	}
	return t, root, ids
}

func childTexts(t *Tree, parent NodeID) string {
	var parts []string
	for _, c := range t.Children(parent) {
		parts = append(parts, t.Token(c))
	}
	return strings.Join(parts, ",")
}

func TestLinkOperations(t *testing.T) {
	tests := []struct {
		name string
		edit func(tr *Tree, root NodeID, ids []NodeID)
		want string
	}{
		{
			name: "append",
			edit: func(tr *Tree, root NodeID, ids []NodeID) { tr.Append(root, tr.New(KindIdent, "d")) },
			want: "a,b,c,d",
		},
		{
			name: "prepend",
			edit: func(tr *Tree, root NodeID, ids []NodeID) { tr.Prepend(root, tr.New(KindIdent, "z")) },
			want: "z,a,b,c",
		},
		{
			name: "insert before first",
			edit: func(tr *Tree, root NodeID, ids []NodeID) { tr.InsertBefore(ids[0], tr.New(KindIdent, "x")) },
			want: "x,a,b,c",
		},
		{
			name: "insert after last",
			edit: func(tr *Tree, root NodeID, ids []NodeID) { tr.InsertAfter(ids[2], tr.New(KindIdent, "x")) },
			want: "a,b,c,x",
		},
		{
			name: "detach middle",
			edit: func(tr *Tree, root NodeID, ids []NodeID) { tr.Detach(ids[1]) },
			want: "a,c",
		},
		{
			name: "replace last",
			edit: func(tr *Tree, root NodeID, ids []NodeID) { tr.Replace(ids[2], tr.New(KindIdent, "y")) },
			want: "a,b,y",
		},
		{
			name: "move first to end",
			edit: func(tr *Tree, root NodeID, ids []NodeID) {
				tr.Detach(ids[0])
				tr.Append(root, ids[0])
			},
			want: "b,c,a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, root, ids := buildList("a", "b", "c")
			tt.edit(tr, root, ids)
			if got := childTexts(tr, root); got != tt.want {
				t.Errorf("children = %q, want %q", got, tt.want)
			}
			if err := tr.Check(); err != nil {
				t.Errorf("Check() = %v", err)
			}
		})
	}
}

func TestDetachClearsLinks(t *testing.T) {
	tr, _, ids := buildList("a", "b", "c")
	tr.Detach(ids[1])
	if tr.Parent(ids[1]) != NoNode || tr.Prev(ids[1]) != NoNode || tr.Next(ids[1]) != NoNode {
		t.Errorf("detached node keeps links: parent=%d prev=%d next=%d",
			tr.Parent(ids[1]), tr.Prev(ids[1]), tr.Next(ids[1]))
	}
	if tr.Attached(ids[1]) {
		t.Errorf("detached node is still reachable from the root")
	}
	if tr.Next(ids[0]) != ids[2] || tr.Prev(ids[2]) != ids[0] {
		t.Errorf("siblings not relinked")
	}
}

func TestDetachKeepsSubtree(t *testing.T) {
	tr, root, ids := buildList("a", "b")
	inner := tr.New(KindBlock, "")
	x, y := tr.New(KindIdent, "x"), tr.New(KindIdent, "y")
	tr.Append(inner, x)
	tr.Append(inner, y)
	tr.Append(root, inner)

	tr.Detach(inner)
	if got := childTexts(tr, inner); got != "x,y" {
		t.Errorf("detached node children = %q, want %q", got, "x,y")
	}
	if tr.Parent(x) != inner || tr.Parent(y) != inner {
		t.Errorf("children lost their parent: %d, %d", tr.Parent(x), tr.Parent(y))
	}
	if got := childTexts(tr, root); got != "a,b" {
		t.Errorf("root children = %q, want %q", got, "a,b")
	}

	tr.Append(ids[0], inner)
	if tr.Parent(inner) != ids[0] || !tr.Attached(x) {
		t.Errorf("reattached subtree not reachable from the root")
	}
}

func TestAppendAttachedPanics(t *testing.T) {
	tr, root, ids := buildList("a", "b")
	defer func() {
		if recover() == nil {
			t.Errorf("Append of an attached node did not panic")
		}
	}()
	tr.Append(root, ids[0])
}

func TestReplaceMovesHiddenTokens(t *testing.T) {
	tr, root, ids := buildList("a", "b")
	tr.AddBefore(ids[1], tr.NewHidden(HiddenLineComment, "// old"))
	tr.AddAfter(ids[1], tr.NewHidden(HiddenWhitespace, "\n"))

	repl := tr.New(KindIdent, "c")
	tr.AddBefore(repl, tr.NewHidden(HiddenBlockComment, "/* new */"))
	tr.Replace(ids[1], repl)

	if got := tr.HiddenText(tr.Before(repl)); got != "// old/* new */" {
		t.Errorf("before = %q, want %q", got, "// old/* new */")
	}
	if got := tr.HiddenText(tr.After(repl)); got != "\n" {
		t.Errorf("after = %q, want %q", got, "\n")
	}
	if len(tr.Before(ids[1])) != 0 || len(tr.After(ids[1])) != 0 {
		t.Errorf("replaced node keeps hidden tokens")
	}
	if got := childTexts(tr, root); got != "a,c" {
		t.Errorf("children = %q, want %q", got, "a,c")
	}
	if err := tr.Check(); err != nil {
		t.Errorf("Check() = %v", err)
	}
}

func TestReplaceRoot(t *testing.T) {
	tr, root, _ := buildList("a")
	repl := tr.New(KindBody, "")
	tr.Replace(root, repl)
	if tr.Root() != repl {
		t.Errorf("Root() = %d, want %d", tr.Root(), repl)
	}
	if err := tr.Check(); err != nil {
		t.Errorf("Check() = %v", err)
	}
}

func TestHiddenChain(t *testing.T) {
	tr, _, ids := buildList("a")
	n := ids[0]
	h1 := tr.NewHidden(HiddenWhitespace, " ")
	h2 := tr.NewHidden(HiddenLineComment, "// x")
	h3 := tr.NewHidden(HiddenWhitespace, "\n")
	tr.AddBefore(n, h1)
	tr.AddBefore(n, h3)
	tr.InsertHiddenAfter(h1, h2)
	if got := tr.HiddenText(tr.Before(n)); got != " // x\n" {
		t.Fatalf("before = %q", got)
	}

	tr.RemoveHidden(h2)
	if got := tr.HiddenText(tr.Before(n)); got != " \n" {
		t.Errorf("after remove = %q", got)
	}
	if owner, _ := tr.Owner(h2); owner != NoNode {
		t.Errorf("removed token still owned by %d", owner)
	}

	tr.AddBefore(n, h2)
	removed := tr.StripBefore(n, HiddenLineComment)
	if len(removed) != 1 || removed[0] != h2 {
		t.Errorf("StripBefore removed %v, want [%d]", removed, h2)
	}
	if err := tr.Check(); err != nil {
		t.Errorf("Check() = %v", err)
	}
}

func TestMoveHidden(t *testing.T) {
	tr, _, ids := buildList("a", "b")
	tr.AddBefore(ids[0], tr.NewHidden(HiddenDocComment, "/** a */"))
	tr.AddBefore(ids[1], tr.NewHidden(HiddenWhitespace, "\n"))
	tr.MoveHidden(ids[0], ids[1])
	if got := tr.HiddenText(tr.Before(ids[1])); got != "/** a */\n" {
		t.Errorf("before = %q", got)
	}
	if len(tr.Before(ids[0])) != 0 {
		t.Errorf("source chain not emptied")
	}
	if err := tr.Check(); err != nil {
		t.Errorf("Check() = %v", err)
	}
}

func TestIndent(t *testing.T) {
	tr, _, ids := buildList("a")
	tr.AddBefore(ids[0], tr.NewHidden(HiddenWhitespace, "\n\n    "))
	tr.AddBefore(ids[0], tr.NewHidden(HiddenDocComment, "/** doc */"))
	tr.AddBefore(ids[0], tr.NewHidden(HiddenWhitespace, "\n\t"))
	if got := tr.Indent(ids[0]); got != "\t" {
		t.Errorf("Indent() = %q, want %q", got, "\t")
	}
}

func TestIndentAfterTrailingBreak(t *testing.T) {
	tr, _, ids := buildList("a", "b", "c")
	tr.AddAfter(ids[0], tr.NewHidden(HiddenWhitespace, "\n"))
	tr.AddBefore(ids[1], tr.NewHidden(HiddenWhitespace, "    "))
	tr.AddBefore(ids[2], tr.NewHidden(HiddenWhitespace, " "))
	tests := []struct {
		id    NodeID
		want  string
		start bool
	}{
		{ids[0], "", true},
		{ids[1], "    ", true},
		{ids[2], "", false},
	}
	for _, tt := range tests {
		if got := tr.Indent(tt.id); got != tt.want {
			t.Errorf("Indent(%s) = %q, want %q", tr.Token(tt.id), got, tt.want)
		}
		if got := tr.StartsLine(tt.id); got != tt.start {
			t.Errorf("StartsLine(%s) = %v, want %v", tr.Token(tt.id), got, tt.start)
		}
	}
}

func TestClone(t *testing.T) {
	tr := New()
	root := tr.New(KindExpr, "")
	tr.SetRoot(root)
	a := tr.New(KindIdent, "log")
	tr.AddBefore(a, tr.NewHidden(HiddenWhitespace, "  "))
	tr.Append(root, a)
	tr.Append(root, tr.New(KindSeparator, "."))
	tr.Append(root, tr.New(KindIdent, "debug"))

	c := tr.Clone(root, false)
	if tr.Text(c) != "log.debug" {
		t.Errorf("clone text = %q", tr.Text(c))
	}
	if tr.Parent(c) != NoNode {
		t.Errorf("clone is attached")
	}
	if len(tr.Before(tr.FirstChild(c))) != 0 {
		t.Errorf("hidden tokens copied without request")
	}
	ch := tr.Clone(root, true)
	if got := tr.HiddenText(tr.Before(tr.FirstChild(ch))); got != "  " {
		t.Errorf("hidden copy = %q", got)
	}
	if tr.FirstChild(c) == a {
		t.Errorf("clone shares node ids with the original")
	}
}

func TestGraft(t *testing.T) {
	src := New()
	root := src.New(KindExpr, "")
	src.SetRoot(root)
	id := src.New(KindIdent, "serialVersionUID")
	src.AddBefore(id, src.NewHidden(HiddenDocComment, "/** uid */"))
	src.AddAfter(id, src.NewHidden(HiddenLineComment, "// x"))
	src.Append(root, id)

	dst := New()
	dstRoot := dst.New(KindBody, "")
	dst.SetRoot(dstRoot)
	dst.Append(dstRoot, dst.New(KindIdent, "a"))

	g := dst.Graft(src, root)
	if dst.Parent(g) != NoNode {
		t.Errorf("graft is attached")
	}
	if !dst.IsSynthetic(g) {
		t.Errorf("graft is not synthetic")
	}
	leaf := dst.FirstChild(g)
	if dst.Token(leaf) != "serialVersionUID" {
		t.Errorf("graft text = %q", dst.Token(leaf))
	}
	if got := dst.HiddenText(dst.Before(leaf)); got != "/** uid */" {
		t.Errorf("graft before = %q", got)
	}
	if got := dst.HiddenText(dst.After(leaf)); got != "// x" {
		t.Errorf("graft after = %q", got)
	}
	dst.Append(dstRoot, g)
	if err := dst.Check(); err != nil {
		t.Errorf("Check() after graft = %v", err)
	}
	if got := dst.Text(dstRoot); got != "a serialVersionUID" {
		t.Errorf("Text() = %q", got)
	}
}

func TestCheckDetectsBrokenLinks(t *testing.T) {
	tr, _, ids := buildList("a", "b", "c")
	tr.get(ids[2]).prev = ids[0]
	err := tr.Check()
	var pe *PreconditionError
	if !errors.As(err, &pe) {
		t.Fatalf("Check() = %v, want *PreconditionError", err)
	}
	if pe.Node != ids[2] {
		t.Errorf("error names node %d, want %d", pe.Node, ids[2])
	}
}

func TestAccessorPrecondition(t *testing.T) {
	tr, root, _ := buildList("a")
	_, err := tr.Members(tr.FirstChild(root))
	var pe *PreconditionError
	if !errors.As(err, &pe) {
		t.Fatalf("Members(ident) = %v, want *PreconditionError", err)
	}
	if pe.Got != KindIdent || len(pe.Want) != 1 || pe.Want[0] != KindBody {
		t.Errorf("error = %+v", pe)
	}
	if _, err := tr.Members(root); err != nil {
		t.Errorf("Members(body) = %v", err)
	}
}
