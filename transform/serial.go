package transform

import (
	"fmt"

	"github.com/dhamidi/groom/diag"
	"github.com/dhamidi/groom/java/tree"
	"github.com/dhamidi/groom/settings"
)

const serialField = "serialVersionUID"

// SerialVersionUID adds a serialVersionUID field to every class that
// declares it implements Serializable and lacks one. The value is the one
// the JVM would compute from the compiled class, so inserting it does not
// change the serialized form. Classes info knows nothing about are left
// alone with a warning.
func SerialVersionUID(u *Unit, info TypeInfo, cfg settings.Serial) (*diag.Bag, error) {
	bag := diag.NewBag()
	t := u.Tree
	var decls []tree.NodeID
	t.Inspect(t.Root(), func(n tree.NodeID) bool {
		if t.Kind(n) == tree.KindClassDecl {
			decls = append(decls, n)
		}
		return true
	})
	for _, decl := range decls {
		ok, err := needsSerialVersion(t, decl)
		if err != nil {
			return bag, err
		}
		name := t.BinaryName(decl)
		if !ok || name == "" {
			continue
		}
		uid, err := info.SerialVersionUID(name)
		if err != nil {
			u.at(bag, decl).Warnf(diag.CodeSerialUnresolved, "no serialVersionUID added to %s: %v", name, err)
			continue
		}
		if err := insertSerialVersion(u, decl, uid, cfg.Comment); err != nil {
			return bag, err
		}
		u.at(bag, decl).Infof(diag.CodeSerialInserted, "added serialVersionUID = %dL to %s", uid, name)
	}
	return bag, nil
}

func needsSerialVersion(t *tree.Tree, decl tree.NodeID) (bool, error) {
	supers, err := t.SuperTypes(decl)
	if err != nil {
		return false, err
	}
	serializable := false
	for _, s := range supers {
		serializable = serializable || s == "Serializable" || s == "java.io.Serializable"
	}
	if !serializable {
		return false, nil
	}
	body, err := t.Body(decl)
	if err != nil {
		return false, err
	}
	members, err := t.Members(body)
	if err != nil {
		return false, err
	}
	for _, m := range members {
		if t.Kind(m) != tree.KindFieldDecl {
			continue
		}
		names, err := t.FieldNames(m)
		if err != nil {
			return false, err
		}
		for _, n := range names {
			if n == serialField {
				return false, nil
			}
		}
	}
	return true, nil
}

// insertSerialVersion puts the field first in the body, behind whatever
// trails the opening brace on its line.
func insertSerialVersion(u *Unit, decl tree.NodeID, uid int64, comment string) error {
	t := u.Tree
	field, err := graftMember(t, fmt.Sprintf("private static final long %s = %dL;", serialField, uid))
	if err != nil {
		return err
	}
	body, err := t.Body(decl)
	if err != nil {
		return err
	}
	open := t.OpenBrace(body)
	if open == tree.NoNode {
		return fmt.Errorf("class %s has no opening brace", t.BinaryName(decl))
	}
	members, err := t.Members(body)
	if err != nil {
		return err
	}

	outer := t.Indent(decl)
	indent := outer + indentUnit(outer, u.IndentSize)
	if len(members) > 0 {
		indent = t.Indent(members[0])
	}
	if !lineBreak(t, t.After(open)) {
		t.AddBefore(field, whitespace(t, "\n"))
	}
	t.AddBefore(field, whitespace(t, indent))
	if comment != "" {
		t.AddBefore(field, t.NewHidden(tree.HiddenDocComment, comment))
		t.AddBefore(field, whitespace(t, "\n"+indent))
	}
	t.AddAfter(field, whitespace(t, "\n"))
	t.InsertAfter(open, field)

	switch {
	case len(members) > 0:
		if before := t.Before(members[0]); len(before) > 0 && t.HiddenAt(before[0]).Kind == tree.HiddenWhitespace {
			if !lineBreak(t, before[:1]) {
				t.SetHiddenText(before[0], "\n"+t.HiddenAt(before[0]).Text)
			}
		} else {
			t.PrependBefore(members[0], whitespace(t, "\n"+indent))
		}
	case t.CloseBrace(body) != tree.NoNode:
		closing := t.CloseBrace(body)
		if !lineBreak(t, t.Before(closing)) {
			t.StripBefore(closing, tree.HiddenWhitespace)
			if outer != "" {
				t.PrependBefore(closing, whitespace(t, outer))
			}
		}
	}
	return nil
}
