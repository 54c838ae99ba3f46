package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/groom/java/tree"
)

type TreeJSONEncoder struct {
	w      io.Writer
	hidden bool
}

// NewTreeJSONEncoder returns an encoder that dumps a tree as indented JSON.
// Hidden tokens are included when withHidden is set.
func NewTreeJSONEncoder(w io.Writer, withHidden bool) *TreeJSONEncoder {
	return &TreeJSONEncoder{w: w, hidden: withHidden}
}

func (e *TreeJSONEncoder) Encode(t *tree.Tree, root tree.NodeID) error {
	text, err := e.MarshalText(t, root)
	if err != nil {
		return err
	}
	_, err = e.w.Write(append(text, '\n'))
	return err
}

func (e *TreeJSONEncoder) MarshalText(t *tree.Tree, root tree.NodeID) ([]byte, error) {
	return json.MarshalIndent(e.nodeToJSON(t, root), "", "  ")
}

type treeJSONNode struct {
	Kind      string           `json:"kind"`
	Line      int              `json:"line,omitempty"`
	Column    int              `json:"column,omitempty"`
	Token     string           `json:"token,omitempty"`
	Synthetic bool             `json:"synthetic,omitempty"`
	Before    []treeJSONHidden `json:"before,omitempty"`
	After     []treeJSONHidden `json:"after,omitempty"`
	Children  []*treeJSONNode  `json:"children,omitempty"`
}

type treeJSONHidden struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

func (e *TreeJSONEncoder) nodeToJSON(t *tree.Tree, n tree.NodeID) *treeJSONNode {
	jn := &treeJSONNode{
		Kind:      t.Kind(n).String(),
		Token:     t.Token(n),
		Synthetic: t.IsSynthetic(n),
	}
	jn.Line, jn.Column = t.Pos(n)

	if e.hidden {
		jn.Before = hiddenToJSON(t, t.Before(n))
		jn.After = hiddenToJSON(t, t.After(n))
	}

	for c := t.FirstChild(n); c != tree.NoNode; c = t.Next(c) {
		jn.Children = append(jn.Children, e.nodeToJSON(t, c))
	}
	return jn
}

func hiddenToJSON(t *tree.Tree, ids []tree.HiddenID) []treeJSONHidden {
	var out []treeJSONHidden
	for _, id := range ids {
		h := t.HiddenAt(id)
		out = append(out, treeJSONHidden{Kind: h.Kind.String(), Text: h.Text})
	}
	return out
}
