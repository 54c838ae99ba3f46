package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/groom/java/tree"
)

// LineEncoder writes one tab separated line per declaration of a compilation
// unit: type declarations by binary name, then their members. Nested types
// follow their enclosing type's members.
type LineEncoder struct {
	w io.Writer
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

func (e *LineEncoder) Encode(t *tree.Tree) error {
	text, err := e.MarshalText(t)
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *LineEncoder) MarshalText(t *tree.Tree) ([]byte, error) {
	var sb strings.Builder
	for _, decl := range t.TypeDecls(t.Root()) {
		if err := e.writeType(&sb, t, decl); err != nil {
			return nil, err
		}
	}
	return []byte(sb.String()), nil
}

func (e *LineEncoder) writeType(sb *strings.Builder, t *tree.Tree, decl tree.NodeID) error {
	fmt.Fprintf(sb, "%s\t%s\t%s\n", declKind(t.Kind(decl)), t.BinaryName(decl), modifiersStr(t, decl))

	body, err := t.Body(decl)
	if err != nil {
		return err
	}
	if t.Kind(decl) == tree.KindEnumDecl {
		consts, err := t.EnumConstants(body)
		if err != nil {
			return err
		}
		for _, c := range consts {
			name, _ := t.Name(c)
			fmt.Fprintf(sb, "constant\t%s\n", name)
		}
	}
	members, err := t.Members(body)
	if err != nil {
		return err
	}
	var nested []tree.NodeID
	for _, m := range members {
		switch k := t.Kind(m); {
		case k == tree.KindFieldDecl:
			names, err := t.FieldNames(m)
			if err != nil {
				return err
			}
			ty, err := t.TypeText(m)
			if err != nil {
				return err
			}
			fmt.Fprintf(sb, "field\t%s\t%s\t%s\n", strings.Join(names, ","), ty, modifiersStr(t, m))
		case k == tree.KindMethodDecl || k == tree.KindConstructorDecl:
			name, err := t.Name(m)
			if err != nil {
				return err
			}
			params, err := t.ParamTypes(m)
			if err != nil {
				return err
			}
			kind := "method"
			if k == tree.KindConstructorDecl {
				kind = "constructor"
			}
			fmt.Fprintf(sb, "%s\t%s\t%s\t%s\n", kind, name, listStr(params), modifiersStr(t, m))
		case k == tree.KindInitializer:
			fmt.Fprintf(sb, "initializer\t%s\n", modifiersStr(t, m))
		case k.IsTypeDecl():
			nested = append(nested, m)
		default:
			// empty declarations
		}
	}
	for _, n := range nested {
		if err := e.writeType(sb, t, n); err != nil {
			return err
		}
	}
	return nil
}

func declKind(k tree.Kind) string {
	switch k {
	case tree.KindInterfaceDecl:
		return "interface"
	case tree.KindEnumDecl:
		return "enum"
	case tree.KindRecordDecl:
		return "record"
	case tree.KindAnnotationDecl:
		return "annotation"
	default:
		return "class"
	}
}

func modifiersStr(t *tree.Tree, decl tree.NodeID) string {
	words, err := t.ModifierWords(decl)
	if err != nil {
		return "-"
	}
	return listStr(words)
}

func listStr(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ",")
}
