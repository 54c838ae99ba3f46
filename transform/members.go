package transform

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/dhamidi/groom/diag"
	"github.com/dhamidi/groom/java/tree"
	"github.com/dhamidi/groom/settings"
)

// SortMembers reorders the members of every type body into the groups of
// cfg.Order, sorting within a group as configured. Nested bodies are
// sorted before the bodies that contain them. Enum constants stay first.
//
// The whitespace in front of a member belongs to its slot, not to the
// member, so blank-line layout survives a reorder.
func SortMembers(u *Unit, cfg settings.Members) (*diag.Bag, error) {
	bag := diag.NewBag()
	if !cfg.Sort {
		return bag, nil
	}
	t := u.Tree
	var bodies []tree.NodeID
	t.Inspect(t.Root(), func(n tree.NodeID) bool {
		if t.Kind(n).IsTypeDecl() {
			if b := t.FirstChildOfKind(n, tree.KindBody); b != tree.NoNode {
				bodies = append(bodies, b)
			}
		}
		return true
	})
	s := &sorter{u: u, bag: bag, cfg: cfg}
	for i := len(bodies) - 1; i >= 0; i-- {
		if err := s.sortBody(bodies[i]); err != nil {
			return bag, err
		}
	}
	return bag, nil
}

type sorter struct {
	u   *Unit
	bag *diag.Bag
	cfg settings.Members
	// iface is set while sorting the body of an interface or annotation,
	// whose members are implicitly public.
	iface bool
	// pos is the source index of each member of the current body.
	pos map[tree.NodeID]int
}

func (s *sorter) sortBody(body tree.NodeID) error {
	t := s.u.Tree
	members, err := t.Members(body)
	if err != nil || len(members) == 0 {
		return err
	}
	k := t.Kind(t.Parent(body))
	s.iface = k == tree.KindInterfaceDecl || k == tree.KindAnnotationDecl
	s.pos = make(map[tree.NodeID]int, len(members))
	for i, m := range members {
		s.pos[m] = i
	}

	buckets := map[settings.Group][]tree.NodeID{}
	var rest []tree.NodeID
	for _, m := range members {
		g, ok := s.group(m)
		if !ok {
			rest = append(rest, m)
			continue
		}
		buckets[g] = append(buckets[g], m)
	}

	fields, blocks, err := s.sortFields(buckets[settings.GroupStatic])
	if err != nil {
		return err
	}
	buckets[settings.GroupStatic] = append(fields, blocks...)
	instance := append(buckets[settings.GroupFields], buckets[settings.GroupInitializers]...)
	sort.SliceStable(instance, func(i, j int) bool { return s.pos[instance[i]] < s.pos[instance[j]] })
	if fields, blocks, err = s.sortFields(instance); err != nil {
		return err
	}
	buckets[settings.GroupFields], buckets[settings.GroupInitializers] = fields, blocks

	if s.cfg.SortConstructors {
		s.sortBy(buckets[settings.GroupConstructors], s.paramCount)
	}
	if s.cfg.SortMethods {
		s.sortBy(buckets[settings.GroupMethods], s.methodName, s.paramCount)
	}
	if s.cfg.SortTypes {
		for _, g := range []settings.Group{settings.GroupInterfaces, settings.GroupClasses, settings.GroupAnnotations, settings.GroupEnums} {
			s.sortBy(buckets[g], s.declName)
		}
	}

	var sorted []tree.NodeID
	firsts := map[tree.NodeID]settings.Group{}
	for _, g := range s.order() {
		list := buckets[g]
		if len(list) == 0 {
			continue
		}
		firsts[list[0]] = g
		sorted = append(sorted, list...)
	}
	sorted = append(sorted, rest...)

	if !sameOrder(members, sorted) {
		s.reorder(body, members, sorted)
	}
	if s.cfg.Banners {
		s.banners(sorted, firsts)
	}
	return nil
}

// order returns cfg.Order followed by any group it leaves out.
func (s *sorter) order() []settings.Group {
	out := append([]settings.Group(nil), s.cfg.Order...)
	for _, g := range settings.DefaultOrder {
		found := false
		for _, x := range out {
			found = found || x == g
		}
		if !found {
			out = append(out, g)
		}
	}
	return out
}

func (s *sorter) group(m tree.NodeID) (settings.Group, bool) {
	t := s.u.Tree
	switch t.Kind(m) {
	case tree.KindFieldDecl:
		if s.iface || t.HasModifier(m, "static") {
			return settings.GroupStatic, true
		}
		return settings.GroupFields, true
	case tree.KindInitializer:
		if t.HasModifier(m, "static") {
			return settings.GroupStatic, true
		}
		return settings.GroupInitializers, true
	case tree.KindConstructorDecl:
		return settings.GroupConstructors, true
	case tree.KindMethodDecl:
		return settings.GroupMethods, true
	case tree.KindInterfaceDecl:
		return settings.GroupInterfaces, true
	case tree.KindClassDecl, tree.KindRecordDecl:
		return settings.GroupClasses, true
	case tree.KindAnnotationDecl:
		return settings.GroupAnnotations, true
	case tree.KindEnumDecl:
		return settings.GroupEnums, true
	}
	return "", false
}

// sortFields splits a group into fields and initializer blocks, both in
// source order, and sorts the fields. Initializers run interleaved with
// field initializers, so when a field with an initializer follows a block
// nothing is sorted and the whole group comes back as fields.
func (s *sorter) sortFields(group []tree.NodeID) (fields, blocks []tree.NodeID, err error) {
	t := s.u.Tree
	interleaved := false
	for _, m := range group {
		if t.Kind(m) == tree.KindInitializer {
			blocks = append(blocks, m)
			continue
		}
		if len(blocks) > 0 && s.initialized(m) {
			interleaved = true
		}
		fields = append(fields, m)
	}
	if interleaved {
		return group, nil, nil
	}
	if s.cfg.SortFields {
		s.sortBy(fields, s.typeText, s.declName)
		if fields, err = s.forwardReferences(fields); err != nil {
			return nil, nil, err
		}
	}
	return fields, blocks, nil
}

func (s *sorter) initialized(field tree.NodeID) bool {
	vars, _ := s.u.Tree.Variables(field)
	for _, v := range vars {
		if s.u.Tree.Initializer(v) != tree.NoNode {
			return true
		}
	}
	return false
}

// forwardReferences moves fields behind the fields their initializers
// refer to by simple name. Among the fields that are free to go next, the
// sorted order decides. A cycle leaves the remaining fields as sorted.
func (s *sorter) forwardReferences(fields []tree.NodeID) ([]tree.NodeID, error) {
	t := s.u.Tree
	declares := map[string]tree.NodeID{}
	for _, f := range fields {
		names, err := t.FieldNames(f)
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			declares[n] = f
		}
	}
	pos := map[tree.NodeID]int{}
	for i, f := range fields {
		pos[f] = i
	}
	deps := map[tree.NodeID][]tree.NodeID{}
	for _, f := range fields {
		for _, ref := range s.references(f) {
			if g, ok := declares[ref]; ok && g != f {
				deps[f] = append(deps[f], g)
			}
		}
	}
	if len(deps) == 0 {
		return fields, nil
	}

	out := make([]tree.NodeID, 0, len(fields))
	placed := map[tree.NodeID]bool{}
	for len(out) < len(fields) {
		next := tree.NoNode
		for _, f := range fields {
			if placed[f] {
				continue
			}
			ready := true
			for _, d := range deps[f] {
				ready = ready && placed[d]
			}
			if ready {
				next = f
				break
			}
		}
		if next == tree.NoNode {
			for _, f := range fields {
				if !placed[f] {
					out = append(out, f)
					placed[f] = true
				}
			}
			break
		}
		out = append(out, next)
		placed[next] = true
	}

	for _, f := range fields {
		for _, d := range deps[f] {
			if pos[d] > pos[f] {
				name, _ := t.FieldNames(f)
				dep, _ := t.FieldNames(d)
				s.u.at(s.bag, f).Infof(diag.CodeMemberForwardRef, "field %s kept after %s, which its initializer references",
					strings.Join(name, ", "), strings.Join(dep, ", "))
				break
			}
		}
	}
	return out, nil
}

// references returns the simple names used in the initializers of a field.
func (s *sorter) references(field tree.NodeID) []string {
	t := s.u.Tree
	var out []string
	vars, _ := t.Variables(field)
	for _, v := range vars {
		init := t.Initializer(v)
		if init == tree.NoNode {
			continue
		}
		for _, l := range t.Leaves(init) {
			if t.Kind(l) != tree.KindIdent {
				continue
			}
			if p := t.Prev(l); p != tree.NoNode && t.Token(p) == "." {
				continue
			}
			out = append(out, t.Token(l))
		}
	}
	return out
}

// sortBy stably sorts members by their modifiers, then by each key in turn.
func (s *sorter) sortBy(members []tree.NodeID, keys ...func(tree.NodeID) string) {
	sort.SliceStable(members, func(i, j int) bool {
		a, b := members[i], members[j]
		if c := s.compareModifiers(a, b); c != 0 {
			return c < 0
		}
		for _, key := range keys {
			if ka, kb := key(a), key(b); ka != kb {
				return ka < kb
			}
		}
		return false
	})
}

// compareModifiers walks the modifier rules in order. The first enabled rule
// only one of the members satisfies puts that member first.
func (s *sorter) compareModifiers(a, b tree.NodeID) int {
	for _, r := range s.cfg.Modifiers {
		if !r.Sort {
			continue
		}
		ha, hb := s.has(a, r.Modifier), s.has(b, r.Modifier)
		switch {
		case ha && !hb:
			return -1
		case hb && !ha:
			return 1
		}
	}
	return 0
}

func (s *sorter) has(m tree.NodeID, modifier string) bool {
	switch modifier {
	case "public", "protected", "private", "package":
		return s.access(m) == modifier
	}
	return s.u.Tree.HasModifier(m, modifier)
}

func (s *sorter) access(m tree.NodeID) string {
	words, _ := s.u.Tree.ModifierWords(m)
	for _, w := range words {
		switch w {
		case "public", "protected", "private":
			return w
		}
	}
	if s.iface {
		return "public"
	}
	return "package"
}

func (s *sorter) declName(m tree.NodeID) string {
	t := s.u.Tree
	if t.Kind(m) == tree.KindFieldDecl {
		if names, _ := t.FieldNames(m); len(names) > 0 {
			return names[0]
		}
		return ""
	}
	name, _ := t.Name(m)
	return name
}

func (s *sorter) typeText(m tree.NodeID) string {
	text, _ := s.u.Tree.TypeText(m)
	return text
}

// paramCount sorts as a fixed-width number.
func (s *sorter) paramCount(m tree.NodeID) string {
	ps, _ := s.u.Tree.Params(m)
	return fmt.Sprintf("%04d", len(ps))
}

func (s *sorter) methodName(m tree.NodeID) string {
	name := s.declName(m)
	if s.cfg.BeanNames {
		name = beanName(name)
	}
	return name
}

// beanName strips a get, set or is prefix from an accessor name, so that
// getName, isName and setName sort together under "name".
func beanName(name string) string {
	for _, p := range []string{"get", "set", "is"} {
		rest, ok := strings.CutPrefix(name, p)
		if !ok || rest == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(rest)
		if unicode.IsUpper(r) {
			return string(unicode.ToLower(r)) + rest[size:]
		}
	}
	return name
}

func sameOrder(a, b []tree.NodeID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// reorder puts sorted into the body in place of members. The leading
// whitespace of each member stays with its slot.
func (s *sorter) reorder(body tree.NodeID, members, sorted []tree.NodeID) {
	t := s.u.Tree
	type lead struct {
		text string
		ok   bool
	}
	leads := make([]lead, len(members))
	for i, m := range members {
		if before := t.Before(m); len(before) > 0 && t.HiddenAt(before[0]).Kind == tree.HiddenWhitespace {
			leads[i] = lead{t.HiddenAt(before[0]).Text, true}
			t.RemoveHidden(before[0])
		}
		t.Detach(m)
	}
	closing := t.CloseBrace(body)
	for i, m := range sorted {
		if leads[i].ok {
			t.PrependBefore(m, whitespace(t, leads[i].text))
		}
		if closing != tree.NoNode {
			t.InsertBefore(closing, m)
		} else {
			t.Append(body, m)
		}
	}
}

// banners puts a separator comment in front of the first member of each
// group, replacing the separators an earlier run inserted.
func (s *sorter) banners(sorted []tree.NodeID, firsts map[tree.NodeID]settings.Group) {
	t := s.u.Tree
	for i, m := range sorted {
		stripBanners(t, m)
		g, ok := firsts[m]
		if !ok {
			continue
		}
		indent := t.Indent(m)
		banner := t.NewHidden(tree.HiddenBanner, s.bannerText(g, indent))
		gap := whitespace(t, "\n\n"+indent)
		before := t.Before(m)
		if len(before) == 0 || t.HiddenAt(before[0]).Kind != tree.HiddenWhitespace {
			t.PrependBefore(m, gap)
			t.PrependBefore(m, banner)
			continue
		}
		if i > 0 && !lineBreak(t, before[:1]) {
			t.SetHiddenText(before[0], "\n"+t.HiddenAt(before[0]).Text)
		}
		t.InsertHiddenAfter(before[0], banner)
		t.InsertHiddenAfter(banner, gap)
	}
}

// stripBanners removes banner comments in front of m together with the
// whitespace that follows each of them.
func stripBanners(t *tree.Tree, m tree.NodeID) {
	before := t.Before(m)
	for i := 0; i < len(before); i++ {
		if t.HiddenAt(before[i]).Kind != tree.HiddenBanner {
			continue
		}
		t.RemoveHidden(before[i])
		if i+1 < len(before) && t.HiddenAt(before[i+1]).Kind == tree.HiddenWhitespace {
			t.RemoveHidden(before[i+1])
			i++
		}
	}
}

// bannerText fills "//~ Title " up to the configured line length.
func (s *sorter) bannerText(g settings.Group, indent string) string {
	fill := s.cfg.BannerFill
	if fill == "" {
		fill = "-"
	}
	text := "//~ " + s.cfg.Title(g) + " "
	used := columns(indent, s.u.IndentSize) + runewidth.StringWidth(text)
	n := (s.cfg.LineLength - used) / max(runewidth.StringWidth(fill), 1)
	return text + strings.Repeat(fill, max(n, 1))
}

// columns returns the display width of an indentation string.
func columns(indent string, tabWidth int) int {
	if tabWidth <= 0 {
		tabWidth = 4
	}
	w := 0
	for _, r := range indent {
		if r == '\t' {
			w += tabWidth - w%tabWidth
			continue
		}
		w += runewidth.RuneWidth(r)
	}
	return w
}
