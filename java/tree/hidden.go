package tree

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
)

// HiddenID addresses a hidden token in a Tree. Zero means "none".
type HiddenID uint32

const NoHidden HiddenID = 0

type side uint8

const (
	sideNone side = iota
	sideBefore
	sideAfter
)

// Hidden is a comment or whitespace run attached in front of or behind a node.
type Hidden struct {
	Kind   HiddenKind
	Text   string
	Line   int
	Column int

	prev  HiddenID
	next  HiddenID
	owner NodeID
	side  side
}

func (t *Tree) allocHidden(h Hidden) HiddenID {
	t.hidden = append(t.hidden, h)
	id, err := safecast.Conv[uint32](len(t.hidden))
	if err != nil {
		panic(fmt.Sprintf("tree: hidden arena overflow: %v", err))
	}
	return HiddenID(id)
}

func (t *Tree) hget(id HiddenID) *Hidden {
	if id == NoHidden || int(id) > len(t.hidden) {
		panic(fmt.Sprintf("tree: invalid hidden id %d", id))
	}
	return &t.hidden[id-1]
}

// NewHidden allocates a detached hidden token.
func (t *Tree) NewHidden(kind HiddenKind, text string) HiddenID {
	return t.allocHidden(Hidden{Kind: kind, Text: text})
}

// NewHiddenAt allocates a detached hidden token with a source position.
func (t *Tree) NewHiddenAt(kind HiddenKind, text string, line, column int) HiddenID {
	return t.allocHidden(Hidden{Kind: kind, Text: text, Line: line, Column: column})
}

// HiddenAt returns a copy of the hidden token.
func (t *Tree) HiddenAt(id HiddenID) Hidden {
	return *t.hget(id)
}

func (t *Tree) SetHiddenText(id HiddenID, text string) {
	t.hget(id).Text = text
}

// Owner returns the node a hidden token is attached to and whether it sits
// in front of it.
func (t *Tree) Owner(id HiddenID) (NodeID, bool) {
	h := t.hget(id)
	return h.owner, h.side == sideBefore
}

func (t *Tree) head(n NodeID, s side) *HiddenID {
	if s == sideBefore {
		return &t.get(n).before
	}
	return &t.get(n).after
}

func (t *Tree) chain(n NodeID, s side) []HiddenID {
	var out []HiddenID
	for h := *t.head(n, s); h != NoHidden; h = t.hget(h).next {
		out = append(out, h)
	}
	return out
}

// Before returns the hidden tokens in front of n, in source order.
func (t *Tree) Before(n NodeID) []HiddenID { return t.chain(n, sideBefore) }

// After returns the hidden tokens behind n, in source order.
func (t *Tree) After(n NodeID) []HiddenID { return t.chain(n, sideAfter) }

func (t *Tree) tail(n NodeID, s side) HiddenID {
	h := *t.head(n, s)
	if h == NoHidden {
		return NoHidden
	}
	for t.hget(h).next != NoHidden {
		h = t.hget(h).next
	}
	return h
}

func (t *Tree) mustBeFree(op string, id HiddenID) {
	h := t.hget(id)
	if h.owner != NoNode || h.prev != NoHidden || h.next != NoHidden {
		panic(fmt.Sprintf("tree: %s of attached hidden token %d", op, id))
	}
}

func (t *Tree) appendHidden(n NodeID, s side, id HiddenID) {
	h := t.hget(id)
	h.owner, h.side = n, s
	last := t.tail(n, s)
	if last == NoHidden {
		*t.head(n, s) = id
		return
	}
	t.hget(last).next = id
	h.prev = last
}

// AddBefore appends a hidden token to the chain in front of n.
func (t *Tree) AddBefore(n NodeID, id HiddenID) {
	t.mustBeFree("AddBefore", id)
	t.appendHidden(n, sideBefore, id)
}

// AddAfter appends a hidden token to the chain behind n.
func (t *Tree) AddAfter(n NodeID, id HiddenID) {
	t.mustBeFree("AddAfter", id)
	t.appendHidden(n, sideAfter, id)
}

// PrependBefore inserts a hidden token at the start of the chain in front of n.
func (t *Tree) PrependBefore(n NodeID, id HiddenID) {
	t.mustBeFree("PrependBefore", id)
	h := t.hget(id)
	h.owner, h.side = n, sideBefore
	head := t.head(n, sideBefore)
	if *head != NoHidden {
		t.hget(*head).prev = id
		h.next = *head
	}
	*head = id
}

// InsertHiddenAfter links id right behind ref in ref's chain.
func (t *Tree) InsertHiddenAfter(ref, id HiddenID) {
	t.mustBeFree("InsertHiddenAfter", id)
	r := t.hget(ref)
	if r.owner == NoNode {
		panic("tree: InsertHiddenAfter on a free hidden token")
	}
	h := t.hget(id)
	h.owner, h.side = r.owner, r.side
	h.prev = ref
	h.next = r.next
	if r.next != NoHidden {
		t.hget(r.next).prev = id
	}
	r.next = id
}

// InsertHiddenBefore links id right in front of ref in ref's chain.
func (t *Tree) InsertHiddenBefore(ref, id HiddenID) {
	t.mustBeFree("InsertHiddenBefore", id)
	r := t.hget(ref)
	if r.owner == NoNode {
		panic("tree: InsertHiddenBefore on a free hidden token")
	}
	h := t.hget(id)
	h.owner, h.side = r.owner, r.side
	h.next = ref
	h.prev = r.prev
	if r.prev != NoHidden {
		t.hget(r.prev).next = id
	} else {
		*t.head(r.owner, r.side) = id
	}
	r.prev = id
}

// RemoveHidden unlinks a hidden token from its chain in constant time.
func (t *Tree) RemoveHidden(id HiddenID) {
	h := t.hget(id)
	if h.owner == NoNode {
		return
	}
	if h.prev != NoHidden {
		t.hget(h.prev).next = h.next
	} else {
		*t.head(h.owner, h.side) = h.next
	}
	if h.next != NoHidden {
		t.hget(h.next).prev = h.prev
	}
	h.prev, h.next, h.owner, h.side = NoHidden, NoHidden, NoNode, sideNone
}

// MoveHidden moves both hidden chains of from onto to. The moved tokens go in
// front of the ones to already carries on each side.
func (t *Tree) MoveHidden(from, to NodeID) {
	if from == to {
		return
	}
	t.moveChain(from, to, sideBefore)
	t.moveChain(from, to, sideAfter)
}

// MoveBefore moves the leading chain of from onto the front of to's leading chain.
func (t *Tree) MoveBefore(from, to NodeID) {
	if from != to {
		t.moveChain(from, to, sideBefore)
	}
}

// MoveAfter moves the trailing chain of from to the end of to's trailing chain.
func (t *Tree) MoveAfter(from, to NodeID) {
	if from == to {
		return
	}
	for _, h := range t.After(from) {
		t.RemoveHidden(h)
		t.appendHidden(to, sideAfter, h)
	}
}

func (t *Tree) moveChain(from, to NodeID, s side) {
	moved := t.chain(from, s)
	if len(moved) == 0 {
		return
	}
	for _, h := range moved {
		t.hget(h).owner = to
	}
	last := moved[len(moved)-1]
	head := t.head(to, s)
	if *head != NoHidden {
		t.hget(last).next = *head
		t.hget(*head).prev = last
	}
	*head = moved[0]
	*t.head(from, s) = NoHidden
}

// StripBefore removes the hidden tokens in front of n whose kind is listed,
// or all of them when no kind is given. The removed ids are returned.
func (t *Tree) StripBefore(n NodeID, kinds ...HiddenKind) []HiddenID {
	return t.strip(n, sideBefore, kinds)
}

// StripAfter is StripBefore for the trailing chain.
func (t *Tree) StripAfter(n NodeID, kinds ...HiddenKind) []HiddenID {
	return t.strip(n, sideAfter, kinds)
}

func (t *Tree) strip(n NodeID, s side, kinds []HiddenKind) []HiddenID {
	var removed []HiddenID
	for _, h := range t.chain(n, s) {
		if len(kinds) == 0 || hasKind(kinds, t.hget(h).Kind) {
			t.RemoveHidden(h)
			removed = append(removed, h)
		}
	}
	return removed
}

func hasKind(kinds []HiddenKind, k HiddenKind) bool {
	for _, x := range kinds {
		if x == k {
			return true
		}
	}
	return false
}

// HiddenText concatenates the text of a list of hidden tokens.
func (t *Tree) HiddenText(ids []HiddenID) string {
	var sb strings.Builder
	for _, h := range ids {
		sb.WriteString(t.hget(h).Text)
	}
	return sb.String()
}

// Comments returns the comment tokens among ids.
func (t *Tree) Comments(ids []HiddenID) []HiddenID {
	var out []HiddenID
	for _, h := range ids {
		if t.hget(h).Kind.IsComment() {
			out = append(out, h)
		}
	}
	return out
}

// Indent returns the indentation of the line n starts on, or "" when
// something other than whitespace precedes n on that line. The line break
// in front of a node usually trails the previous node, so the chains of
// the preceding nodes are consulted when n's own chain has none.
func (t *Tree) Indent(n NodeID) string {
	text := t.HiddenText(t.Before(n))
	if i := strings.LastIndexAny(text, "\r\n"); i >= 0 {
		return leadingBlanks(text[i+1:])
	}
	if !t.precededByBreak(n) {
		return ""
	}
	return leadingBlanks(text)
}

// StartsLine reports whether only whitespace separates n from the start of
// its line.
func (t *Tree) StartsLine(n NodeID) bool {
	text := t.HiddenText(t.Before(n))
	i := strings.LastIndexAny(text, "\r\n")
	if i < 0 {
		return strings.TrimLeft(text, " \t") == "" && t.precededByBreak(n)
	}
	return strings.TrimLeft(text[i+1:], " \t") == ""
}

func leadingBlanks(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t"))]
}

// precededByBreak reports whether the output in front of n's leading chain
// ends with a line break. The start of the file counts as one.
func (t *Tree) precededByBreak(n NodeID) bool {
	for p := n; p != NoNode; p = t.Parent(p) {
		if s := t.Prev(p); s != NoNode {
			return t.endsWithBreak(s)
		}
		parent := t.Parent(p)
		if parent == NoNode {
			return true
		}
		if b := t.HiddenText(t.Before(parent)); b != "" {
			return strings.HasSuffix(b, "\n") || strings.HasSuffix(b, "\r")
		}
	}
	return true
}

// endsWithBreak reports whether the output of n's subtree ends with a line
// break. Empty subtrees defer to what precedes them.
func (t *Tree) endsWithBreak(n NodeID) bool {
	if a := t.HiddenText(t.After(n)); a != "" {
		return strings.HasSuffix(a, "\n") || strings.HasSuffix(a, "\r")
	}
	for c := t.LastChild(n); c != NoNode; c = t.Prev(c) {
		if t.FirstLeaf(c) != NoNode || len(t.After(c)) > 0 || len(t.Before(c)) > 0 {
			return t.endsWithBreak(c)
		}
	}
	if t.Kind(n).IsToken() && t.Token(n) != "" {
		return false
	}
	if b := t.HiddenText(t.Before(n)); b != "" {
		return strings.HasSuffix(b, "\n") || strings.HasSuffix(b, "\r")
	}
	return t.precededByBreak(n)
}
