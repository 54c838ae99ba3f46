package tree

import "fmt"

// PreconditionError reports a node of the wrong kind, or a broken link,
// handed to an operation that requires a specific shape.
type PreconditionError struct {
	Op   string
	Node NodeID
	Got  Kind
	Want []Kind
	Msg  string
}

func (e *PreconditionError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("tree: %s: node %d: %s", e.Op, e.Node, e.Msg)
	}
	if len(e.Want) == 1 {
		return fmt.Sprintf("tree: %s: node %d is %s, want %s", e.Op, e.Node, e.Got, e.Want[0])
	}
	return fmt.Sprintf("tree: %s: node %d is %s, want one of %v", e.Op, e.Node, e.Got, e.Want)
}

// Expect returns a *PreconditionError unless id has one of the given kinds.
func (t *Tree) Expect(op string, id NodeID, kinds ...Kind) error {
	if id == NoNode {
		return &PreconditionError{Op: op, Want: kinds, Msg: "no node"}
	}
	got := t.Kind(id)
	for _, k := range kinds {
		if got == k {
			return nil
		}
	}
	return &PreconditionError{Op: op, Node: id, Got: got, Want: kinds}
}
