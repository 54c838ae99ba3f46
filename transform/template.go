package transform

import (
	"fmt"
	"strings"

	"github.com/dhamidi/groom/java/parser"
	"github.com/dhamidi/groom/java/tree"
)

// Synthetic code is written as Java, parsed, and grafted into the tree being
// rewritten. The wrappers below give a snippet the context it needs to parse.

const templateFile = "<template>"

// graftImport parses an import declaration and copies it into dst.
func graftImport(dst *tree.Tree, src string) (tree.NodeID, error) {
	res, err := parser.Parse([]byte(src+"\nclass $ {}\n"), templateFile)
	if err != nil {
		return tree.NoNode, fmt.Errorf("import template %q: %w", src, err)
	}
	imp := res.Tree.FirstChildOfKind(res.Tree.Root(), tree.KindImportDecl)
	if imp == tree.NoNode {
		return tree.NoNode, fmt.Errorf("import template %q: no import", src)
	}
	return graft(dst, res.Tree, imp), nil
}

// graftMember parses a class member and copies it into dst.
func graftMember(dst *tree.Tree, src string) (tree.NodeID, error) {
	res, err := parser.Parse([]byte("class $ {\n"+src+"\n}\n"), templateFile)
	if err != nil {
		return tree.NoNode, fmt.Errorf("member template %q: %w", src, err)
	}
	members, err := templateMembers(res.Tree)
	if err != nil || len(members) == 0 {
		return tree.NoNode, fmt.Errorf("member template %q: no member", src)
	}
	return graft(dst, res.Tree, members[0]), nil
}

// graftStatement parses a statement and copies it into dst.
func graftStatement(dst *tree.Tree, src string) (tree.NodeID, error) {
	res, err := parser.Parse([]byte("class $ {\nvoid $() {\n"+src+"\n}\n}\n"), templateFile)
	if err != nil {
		return tree.NoNode, fmt.Errorf("statement template %q: %w", src, err)
	}
	members, err := templateMembers(res.Tree)
	if err != nil || len(members) == 0 {
		return tree.NoNode, fmt.Errorf("statement template %q: no method", src)
	}
	block := res.Tree.FirstChildOfKind(members[0], tree.KindBlock)
	for c := res.Tree.FirstChild(block); c != tree.NoNode; c = res.Tree.Next(c) {
		if res.Tree.Kind(c).IsStatement() {
			return graft(dst, res.Tree, c), nil
		}
	}
	return tree.NoNode, fmt.Errorf("statement template %q: no statement", src)
}

func templateMembers(t *tree.Tree) ([]tree.NodeID, error) {
	decls := t.TypeDecls(t.Root())
	if len(decls) == 0 {
		return nil, fmt.Errorf("no class")
	}
	body, err := t.Body(decls[0])
	if err != nil {
		return nil, err
	}
	return t.Members(body)
}

// graft copies id into dst without the line breaks the wrapper put around it.
func graft(dst, src *tree.Tree, id tree.NodeID) tree.NodeID {
	n := dst.Graft(src, id)
	dst.StripBefore(n, tree.HiddenWhitespace)
	dst.StripAfter(n, tree.HiddenWhitespace)
	return n
}

func whitespace(t *tree.Tree, text string) tree.HiddenID {
	return t.NewHidden(tree.HiddenWhitespace, text)
}

// indentUnit returns one indentation level in the style of indent.
func indentUnit(indent string, size int) string {
	if strings.Contains(indent, "\t") {
		return "\t"
	}
	if size <= 0 {
		size = 4
	}
	return strings.Repeat(" ", size)
}

// lineBreak reports whether the hidden chain contains a line break.
func lineBreak(t *tree.Tree, ids []tree.HiddenID) bool {
	return strings.ContainsAny(t.HiddenText(ids), "\r\n")
}

// lineBreaks counts the line terminators in s.
func lineBreaks(s string) int {
	return strings.Count(s, "\n") + strings.Count(s, "\r") - strings.Count(s, "\r\n")
}
