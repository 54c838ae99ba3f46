package tree

import "strings"

// Accessors over declaration nodes. They return a *PreconditionError when
// handed a node of the wrong kind.

var declKinds = []Kind{
	KindClassDecl, KindInterfaceDecl, KindEnumDecl, KindRecordDecl, KindAnnotationDecl,
	KindFieldDecl, KindMethodDecl, KindConstructorDecl, KindInitializer,
	KindLocalVar, KindParameter, KindEnumConstant,
}

var typeDeclKinds = []Kind{
	KindClassDecl, KindInterfaceDecl, KindEnumDecl, KindRecordDecl, KindAnnotationDecl,
}

// Modifiers returns the Modifiers child of a declaration.
func (t *Tree) Modifiers(decl NodeID) (NodeID, error) {
	if err := t.Expect("Modifiers", decl, declKinds...); err != nil {
		return NoNode, err
	}
	m := t.FirstChildOfKind(decl, KindModifiers)
	if m == NoNode {
		return NoNode, &PreconditionError{Op: "Modifiers", Node: decl, Got: t.Kind(decl), Msg: "missing modifiers"}
	}
	return m, nil
}

// ModifierWords returns the keyword modifiers of a declaration in source order.
// Annotations are not included.
func (t *Tree) ModifierWords(decl NodeID) ([]string, error) {
	m, err := t.Modifiers(decl)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, c := range t.ChildrenOfKind(m, KindKeyword) {
		out = append(out, t.Token(c))
	}
	return out, nil
}

// HasModifier reports whether decl carries the keyword modifier word.
func (t *Tree) HasModifier(decl NodeID, word string) bool {
	words, err := t.ModifierWords(decl)
	if err != nil {
		return false
	}
	for _, w := range words {
		if w == word {
			return true
		}
	}
	return false
}

// NameNode returns the identifier token naming a type, method, constructor,
// enum constant or parameter.
func (t *Tree) NameNode(decl NodeID) (NodeID, error) {
	if err := t.Expect("Name", decl, KindClassDecl, KindInterfaceDecl, KindEnumDecl,
		KindRecordDecl, KindAnnotationDecl, KindMethodDecl, KindConstructorDecl,
		KindEnumConstant, KindParameter, KindVariable); err != nil {
		return NoNode, err
	}
	var id NodeID
	for c := t.FirstChild(decl); c != NoNode; c = t.Next(c) {
		if t.Kind(c) == KindIdent {
			id = c
			if t.Kind(decl) != KindParameter {
				break
			}
		}
	}
	if id == NoNode {
		return NoNode, &PreconditionError{Op: "Name", Node: decl, Got: t.Kind(decl), Msg: "missing identifier"}
	}
	return id, nil
}

// Name returns the declared name of a type, method, constructor, enum
// constant or parameter.
func (t *Tree) Name(decl NodeID) (string, error) {
	id, err := t.NameNode(decl)
	if err != nil {
		return "", err
	}
	return t.Token(id), nil
}

// Body returns the Body child of a type declaration or enum constant.
func (t *Tree) Body(decl NodeID) (NodeID, error) {
	if err := t.Expect("Body", decl, append(typeDeclKinds, KindEnumConstant)...); err != nil {
		return NoNode, err
	}
	b := t.FirstChildOfKind(decl, KindBody)
	if b == NoNode && t.Kind(decl) != KindEnumConstant {
		return NoNode, &PreconditionError{Op: "Body", Node: decl, Got: t.Kind(decl), Msg: "missing body"}
	}
	return b, nil
}

// Members returns the member declarations of a type body in source order.
// Enum constants and separators are not members.
func (t *Tree) Members(body NodeID) ([]NodeID, error) {
	if err := t.Expect("Members", body, KindBody); err != nil {
		return nil, err
	}
	var out []NodeID
	for c := t.FirstChild(body); c != NoNode; c = t.Next(c) {
		if t.Kind(c).IsMember() {
			out = append(out, c)
		}
	}
	return out, nil
}

// EnumConstants returns the constants of an enum body in source order.
func (t *Tree) EnumConstants(body NodeID) ([]NodeID, error) {
	if err := t.Expect("EnumConstants", body, KindBody); err != nil {
		return nil, err
	}
	return t.ChildrenOfKind(body, KindEnumConstant), nil
}

// OpenBrace and CloseBrace return the brace tokens of a body or block.
func (t *Tree) OpenBrace(body NodeID) NodeID {
	if c := t.FirstChild(body); c != NoNode && t.Token(c) == "{" {
		return c
	}
	return NoNode
}

func (t *Tree) CloseBrace(body NodeID) NodeID {
	if c := t.LastChild(body); c != NoNode && t.Token(c) == "}" {
		return c
	}
	return NoNode
}

// Variables returns the declared variables of a field or local variable.
func (t *Tree) Variables(decl NodeID) ([]NodeID, error) {
	if err := t.Expect("Variables", decl, KindFieldDecl, KindLocalVar); err != nil {
		return nil, err
	}
	return t.ChildrenOfKind(decl, KindVariable), nil
}

// FieldNames returns the names declared by a field or local variable.
func (t *Tree) FieldNames(decl NodeID) ([]string, error) {
	vars, err := t.Variables(decl)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(vars))
	for _, v := range vars {
		if id := t.FirstChildOfKind(v, KindIdent); id != NoNode {
			out = append(out, t.Token(id))
		}
	}
	return out, nil
}

// Initializer returns the initializer expression of a variable, if any.
func (t *Tree) Initializer(variable NodeID) NodeID {
	for c := t.FirstChild(variable); c != NoNode; c = t.Next(c) {
		if t.Kind(c) == KindOperator && t.Token(c) == "=" {
			return t.Next(c)
		}
	}
	return NoNode
}

// TypeText returns the source text of the declared type of a field, local
// variable, method or parameter without hidden tokens.
func (t *Tree) TypeText(decl NodeID) (string, error) {
	if err := t.Expect("Type", decl, KindFieldDecl, KindLocalVar, KindMethodDecl, KindParameter); err != nil {
		return "", err
	}
	ty := t.FirstChildOfKind(decl, KindType)
	if ty == NoNode {
		return "", &PreconditionError{Op: "Type", Node: decl, Got: t.Kind(decl), Msg: "missing type"}
	}
	return t.Text(ty), nil
}

// Params returns the parameters of a method, constructor or record.
func (t *Tree) Params(decl NodeID) ([]NodeID, error) {
	if err := t.Expect("Params", decl, KindMethodDecl, KindConstructorDecl, KindRecordDecl); err != nil {
		return nil, err
	}
	ps := t.FirstChildOfKind(decl, KindParameters)
	if ps == NoNode {
		return nil, nil
	}
	return t.ChildrenOfKind(ps, KindParameter), nil
}

// ParamTypes returns the type text of each parameter, varargs marked with "...".
func (t *Tree) ParamTypes(decl NodeID) ([]string, error) {
	ps, err := t.Params(decl)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		ty, err := t.TypeText(p)
		if err != nil {
			return nil, err
		}
		for c := t.FirstChild(p); c != NoNode; c = t.Next(c) {
			if t.Token(c) == "..." {
				ty += "..."
			}
		}
		out = append(out, ty)
	}
	return out, nil
}

// SuperTypes returns the type texts listed after implements (for classes,
// enums and records) or extends (for interfaces).
func (t *Tree) SuperTypes(decl NodeID) ([]string, error) {
	if err := t.Expect("SuperTypes", decl, typeDeclKinds...); err != nil {
		return nil, err
	}
	clause := KindImplements
	if t.Kind(decl) == KindInterfaceDecl {
		clause = KindExtends
	}
	c := t.FirstChildOfKind(decl, clause)
	if c == NoNode {
		return nil, nil
	}
	var out []string
	for _, ty := range t.ChildrenOfKind(c, KindType) {
		out = append(out, t.Text(ty))
	}
	return out, nil
}

// PackageName returns the package declared by the compilation unit, or "".
func (t *Tree) PackageName(root NodeID) string {
	if root == NoNode || t.Kind(root) != KindCompilationUnit {
		return ""
	}
	pkg := t.FirstChildOfKind(root, KindPackageDecl)
	if pkg == NoNode {
		return ""
	}
	return t.dotted(t.FirstChildOfKind(pkg, KindName))
}

// ImportName returns the imported name without the trailing ".*" and whether
// the import is static and on demand.
func (t *Tree) ImportName(imp NodeID) (name string, static, wildcard bool, err error) {
	if err := t.Expect("ImportName", imp, KindImportDecl); err != nil {
		return "", false, false, err
	}
	for c := t.FirstChild(imp); c != NoNode; c = t.Next(c) {
		switch t.Kind(c) {
		case KindKeyword:
			if t.Token(c) == "static" {
				static = true
			}
		case KindName:
			name = t.dotted(c)
		case KindOperator:
			if t.Token(c) == "*" {
				wildcard = true
			}
		default:
			// import keyword, dots and the semicolon carry no information
		}
	}
	return name, static, wildcard, nil
}

// TypeDecls returns the top-level type declarations of a compilation unit.
func (t *Tree) TypeDecls(root NodeID) []NodeID {
	var out []NodeID
	for c := t.FirstChild(root); c != NoNode; c = t.Next(c) {
		if t.Kind(c).IsTypeDecl() {
			out = append(out, c)
		}
	}
	return out
}

// BinaryName returns the binary name of a type declaration, nested types
// joined with '$'. Local and anonymous classes return "".
func (t *Tree) BinaryName(decl NodeID) string {
	var parts []string
	for n := decl; n != NoNode; {
		name, err := t.Name(n)
		if err != nil {
			return ""
		}
		parts = append(parts, name)
		body := t.Parent(n)
		if body == NoNode || t.Kind(body) != KindBody {
			if body != NoNode && t.Kind(body) != KindCompilationUnit {
				return ""
			}
			break
		}
		n = t.Parent(body)
		if n == NoNode || !t.Kind(n).IsTypeDecl() {
			return ""
		}
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	name := strings.Join(parts, "$")
	if pkg := t.PackageName(t.Root()); pkg != "" {
		name = pkg + "." + name
	}
	return name
}

// dotted joins the leaves of a Name without the whitespace Text would keep.
func (t *Tree) dotted(name NodeID) string {
	var sb strings.Builder
	for _, l := range t.Leaves(name) {
		sb.WriteString(t.Token(l))
	}
	return sb.String()
}
