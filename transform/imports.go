package transform

import (
	"sort"
	"strings"

	"github.com/dhamidi/groom/diag"
	"github.com/dhamidi/groom/java/tree"
	"github.com/dhamidi/groom/settings"
)

// importEntry is one import of the normalized header. sources are the
// import nodes it replaces; their comments move onto the rebuilt node.
type importEntry struct {
	name     string
	static   bool
	wildcard bool
	sources  []tree.NodeID
	// anchor positions diagnostics for entries that have no source.
	anchor tree.NodeID
}

func (e *importEntry) String() string {
	var sb strings.Builder
	if e.static {
		sb.WriteString("static ")
	}
	sb.WriteString(e.name)
	if e.wildcard {
		sb.WriteString(".*")
	}
	return sb.String()
}

func (e *importEntry) source() string {
	return "import " + e.String() + ";"
}

// pkg returns the package (or enclosing class) the entry draws names from.
func (e *importEntry) pkg() string {
	if e.wildcard {
		return e.name
	}
	return parentName(e.name)
}

func (e *importEntry) simple() string {
	return e.name[strings.LastIndexByte(e.name, '.')+1:]
}

func (e *importEntry) node() tree.NodeID {
	if len(e.sources) > 0 {
		return e.sources[0]
	}
	return e.anchor
}

func parentName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return ""
}

type importer struct {
	u    *Unit
	bag  *diag.Bag
	idx  TypeIndex
	pkg  string
	used map[string]bool
	// changed is set by every step that adds, drops or renames an entry.
	changed bool
}

func (im *importer) infof(e *importEntry, code diag.Code, format string, args ...any) {
	im.u.at(im.bag, e.node()).Infof(code, format, args...)
}

func (im *importer) warnf(e *importEntry, code diag.Code, format string, args ...any) {
	im.u.at(im.bag, e.node()).Warnf(code, format, args...)
}

// Imports normalizes the import header: it removes duplicates, applies the
// on-demand policy, drops obsolete and unused imports, orders what is left
// by cfg.Groups and rebuilds the header. idx may be nil; the steps that need
// type information are skipped then.
func Imports(u *Unit, idx TypeIndex, cfg settings.Imports) (*diag.Bag, error) {
	bag := diag.NewBag()
	t := u.Tree
	nodes := headerImports(t)
	if len(nodes) == 0 {
		return bag, nil
	}
	im := &importer{u: u, bag: bag, idx: idx, pkg: t.PackageName(t.Root()), used: map[string]bool{}}
	for _, id := range u.Unqualified {
		im.used[id] = true
	}

	entries, err := im.collect(nodes)
	if err != nil {
		return bag, err
	}
	known := idx != nil && !idx.IsEmpty()
	if known {
		im.repairInner(entries)
	}
	if cfg.Policy != settings.LeaveAsIs {
		entries = im.prune(entries)
	}
	switch {
	case !known:
	case cfg.Policy == settings.Expand:
		entries = im.expand(entries)
	case cfg.Policy == settings.Collapse:
		entries = im.collapse(entries)
	}

	if cfg.Sort {
		sortImports(entries, cfg.Groups)
	}
	breaks := im.breaks(entries, cfg)
	if !im.changed && sameLayout(t, nodes, entries, breaks) {
		return bag, nil
	}
	return bag, im.rebuild(nodes, entries, breaks)
}

// headerImports returns the import declarations in front of the first type
// declaration.
func headerImports(t *tree.Tree) []tree.NodeID {
	var nodes []tree.NodeID
	root := t.Root()
	w := tree.NewWalker(t, func(w *tree.Walker, n tree.NodeID) {
		switch k := t.Kind(n); {
		case n == root:
		case k == tree.KindImportDecl:
			nodes = append(nodes, n)
			w.SkipChildren()
		case k.IsTypeDecl():
			w.Stop()
		default:
			w.SkipChildren()
		}
	})
	w.Walk(root)
	return nodes
}

// collect reads the import nodes and folds textual duplicates into the
// first occurrence.
func (im *importer) collect(nodes []tree.NodeID) ([]*importEntry, error) {
	t := im.u.Tree
	var entries []*importEntry
	seen := map[string]*importEntry{}
	for _, n := range nodes {
		name, static, wildcard, err := t.ImportName(n)
		if err != nil {
			return nil, err
		}
		e := &importEntry{name: name, static: static, wildcard: wildcard, sources: []tree.NodeID{n}}
		if prev, ok := seen[e.String()]; ok {
			im.u.at(im.bag, n).Infof(diag.CodeDuplicateImport, "duplicate import %s removed", e)
			prev.sources = append(prev.sources, n)
			im.changed = true
			continue
		}
		seen[e.String()] = e
		entries = append(entries, e)
	}
	return entries, nil
}

// repairInner rewrites imports spelled with binary names, such as a.B$C,
// to the canonical a.B.C when the repository knows the latter.
func (im *importer) repairInner(entries []*importEntry) {
	for _, e := range entries {
		if e.static || !strings.Contains(e.name, "$") {
			continue
		}
		fixed := strings.ReplaceAll(e.name, "$", ".")
		ok := im.idx.Contains(fixed)
		if e.wildcard {
			ok = im.idx.HasPackage(fixed)
		}
		if !ok {
			continue
		}
		im.infof(e, diag.CodeInnerClassImport, "import %s names an inner class, rewritten to %s", e, strings.ReplaceAll(e.String(), "$", "."))
		e.name = fixed
		im.changed = true
	}
}

// prune drops imports of the file's own package and of java.lang, and
// single-type imports no identifier refers to. Static imports are kept.
func (im *importer) prune(entries []*importEntry) []*importEntry {
	out := entries[:0]
	for _, e := range entries {
		switch {
		case e.static:
		case e.pkg() == "java.lang" || (im.pkg != "" && e.pkg() == im.pkg):
			im.infof(e, diag.CodeObsoleteImport, "obsolete import %s removed", e)
			im.changed = true
			continue
		case !e.wildcard && !im.used[e.simple()]:
			im.infof(e, diag.CodeUnusedImport, "unused import %s removed", e)
			im.changed = true
			continue
		}
		out = append(out, e)
	}
	return out
}

// expand replaces each on-demand import of a known package by single-type
// imports of the names the file uses from it. A name two wildcards provide
// is left to them: those wildcards are kept as written and nothing is
// expanded from them. A name the file's own package declares needs no
// import at all.
func (im *importer) expand(entries []*importEntry) []*importEntry {
	var wild []*importEntry
	explicit := map[string]bool{}
	for _, e := range entries {
		switch {
		case e.static:
		case e.wildcard && im.idx.HasPackage(e.name):
			wild = append(wild, e)
		case !e.wildcard:
			explicit[e.simple()] = true
		}
	}
	if len(wild) == 0 {
		return entries
	}

	keep := map[*importEntry]bool{}
	found := map[*importEntry][]*importEntry{}
	for _, id := range im.u.Unqualified {
		if explicit[id] || im.ownPackageHas(id) {
			continue
		}
		var cands []*importEntry
		for _, w := range wild {
			if im.idx.Contains(w.name + "." + id) {
				cands = append(cands, w)
			}
		}
		switch len(cands) {
		case 0:
		case 1:
			w := cands[0]
			found[w] = append(found[w], &importEntry{name: w.name + "." + id, anchor: w.node()})
		default:
			pkgs := make([]string, len(cands))
			for i, c := range cands {
				pkgs[i] = c.name
				keep[c] = true
			}
			im.warnf(cands[0], diag.CodeImportConflict, "%s is declared in %s; on-demand imports kept",
				id, strings.Join(pkgs, " and "))
		}
	}

	var out []*importEntry
	for _, e := range entries {
		if !containsEntry(wild, e) {
			out = append(out, e)
			continue
		}
		singles := found[e]
		sort.Slice(singles, func(i, j int) bool { return singles[i].name < singles[j].name })
		if keep[e] {
			out = append(out, e)
			continue
		}
		im.changed = true
		if len(singles) == 0 {
			im.infof(e, diag.CodeUnusedImport, "unused import %s removed", e)
			continue
		}
		singles[0].sources = e.sources
		out = append(out, singles...)
	}
	return out
}

func (im *importer) ownPackageHas(id string) bool {
	if im.pkg != "" && im.idx.Contains(im.pkg+"."+id) {
		return true
	}
	t := im.u.Tree
	for _, d := range t.TypeDecls(t.Root()) {
		if name, _ := t.Name(d); name == id {
			return true
		}
	}
	return false
}

func containsEntry(list []*importEntry, e *importEntry) bool {
	for _, x := range list {
		if x == e {
			return true
		}
	}
	return false
}

// importGroup gathers the imports drawing from one package.
type importGroup struct {
	pkg     string
	wild    *importEntry
	singles []*importEntry
}

// collapse replaces the single-type imports of each package by one on-demand
// import, unless a name the file uses is declared both in that package and
// in another one the file sees. Such a package keeps its imports as written.
func (im *importer) collapse(entries []*importEntry) []*importEntry {
	groups := map[string]*importGroup{}
	var order []*importGroup
	member := map[*importEntry]*importGroup{}
	for _, e := range entries {
		if e.static || e.pkg() == "" {
			continue
		}
		g := groups[e.pkg()]
		if g == nil {
			g = &importGroup{pkg: e.pkg()}
			groups[g.pkg] = g
			order = append(order, g)
		}
		if e.wildcard {
			g.wild = e
		} else {
			g.singles = append(g.singles, e)
		}
		member[e] = g
	}

	visible := []string{"java.lang"}
	if im.pkg != "" {
		visible = append(visible, im.pkg)
	}
	for _, g := range order {
		visible = append(visible, g.pkg)
	}

	collapsed := map[*importGroup]bool{}
	for _, g := range order {
		if len(g.singles) == 0 || !im.collapsible(g, visible) {
			continue
		}
		collapsed[g] = true
		if g.wild == nil {
			g.wild = &importEntry{name: g.pkg, wildcard: true, anchor: g.singles[0].node()}
		}
		for _, s := range g.singles {
			g.wild.sources = append(g.wild.sources, s.sources...)
		}
		im.changed = true
	}

	var out []*importEntry
	emitted := map[*importGroup]bool{}
	for _, e := range entries {
		g := member[e]
		if g == nil || !collapsed[g] {
			out = append(out, e)
			continue
		}
		if !emitted[g] {
			emitted[g] = true
			out = append(out, g.wild)
		}
	}
	return out
}

func (im *importer) collapsible(g *importGroup, visible []string) bool {
	if !im.idx.HasPackage(g.pkg) {
		return false
	}
	for _, member := range im.idx.PackageMembers(g.pkg) {
		name := strings.TrimPrefix(member, g.pkg+".")
		if !im.used[name] {
			continue
		}
		for _, other := range visible {
			if other != g.pkg && im.idx.Contains(other+"."+name) {
				im.infof(g.singles[0], diag.CodeImportConflict,
					"imports of %s not collapsed: %s is also declared in %s", g.pkg, name, other)
				return false
			}
		}
	}
	return true
}

// groupRank returns the index of the longest prefix in groups matching name.
// Names no prefix matches rank at the position of "*", or after all
// groups when there is none.
func groupRank(name string, groups []string) int {
	best, bestLen, star := -1, -1, len(groups)
	for i, g := range groups {
		if g == "*" {
			star = i
			continue
		}
		if (name == g || strings.HasPrefix(name, g+".")) && len(g) > bestLen {
			best, bestLen = i, len(g)
		}
	}
	if best < 0 {
		return star
	}
	return best
}

// sortImports orders non-static imports before static ones, then by group
// rank, then by text.
func sortImports(entries []*importEntry, groups []string) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.static != b.static {
			return !a.static
		}
		if ra, rb := groupRank(a.name, groups), groupRank(b.name, groups); ra != rb {
			return ra < rb
		}
		return a.String() < b.String()
	})
}

// breaks reports, per entry, whether an empty line goes in front of it.
// When sorting, empty lines separate groups; otherwise the ones the source
// had are kept.
func (im *importer) breaks(entries []*importEntry, cfg settings.Imports) []bool {
	out := make([]bool, len(entries))
	for i := 1; i < len(entries); i++ {
		if cfg.Sort {
			a, b := entries[i-1], entries[i]
			out[i] = cfg.BlankLines && (a.static != b.static ||
				groupRank(a.name, cfg.Groups) != groupRank(b.name, cfg.Groups))
			continue
		}
		if len(entries[i].sources) > 0 {
			out[i] = blankBefore(im.u.Tree, entries[i].sources[0])
		}
	}
	return out
}

// blankBefore reports whether an empty line precedes n. The line break that
// ends the previous line is part of the previous node, so any line break in
// front of n makes an empty line.
func blankBefore(t *tree.Tree, n tree.NodeID) bool {
	before := t.Before(n)
	return len(before) > 0 && t.HiddenAt(before[0]).Kind == tree.HiddenWhitespace &&
		lineBreak(t, before[:1])
}

func sameLayout(t *tree.Tree, nodes []tree.NodeID, entries []*importEntry, breaks []bool) bool {
	if len(nodes) != len(entries) {
		return false
	}
	for i, e := range entries {
		if len(e.sources) != 1 || e.sources[0] != nodes[i] {
			return false
		}
		if i > 0 && blankBefore(t, nodes[i]) != breaks[i] {
			return false
		}
	}
	return true
}

// rebuild replaces the import nodes by fresh ones built from entries. The
// first rebuilt import takes the place, position and leading trivia of the
// first original one.
func (im *importer) rebuild(nodes []tree.NodeID, entries []*importEntry, breaks []bool) error {
	t := im.u.Tree
	first := nodes[0]
	line, col := t.Pos(first)
	header := im.header(first)

	for i, e := range entries {
		n, err := graftImport(t, e.source())
		if err != nil {
			return err
		}
		if i == 0 {
			t.SetPos(n, line, col)
			for _, h := range header {
				t.RemoveHidden(h)
				t.AddBefore(n, h)
			}
		} else if breaks[i] {
			t.AddBefore(n, whitespace(t, "\n"))
		}
		for _, src := range e.sources {
			for _, h := range t.Comments(t.Before(src)) {
				t.RemoveHidden(h)
				t.AddBefore(n, h)
				t.AddBefore(n, whitespace(t, "\n"))
			}
		}
		for _, src := range e.sources {
			for _, h := range t.Comments(t.After(src)) {
				t.RemoveHidden(h)
				t.AddAfter(n, whitespace(t, " "))
				t.AddAfter(n, h)
			}
		}
		t.AddAfter(n, whitespace(t, "\n"))
		t.InsertBefore(first, n)
	}
	if len(entries) == 0 {
		im.keepHeader(nodes[len(nodes)-1], header)
	}
	for _, n := range nodes {
		t.Detach(n)
	}
	return nil
}

// keepHeader moves a header that carries comments onto whatever follows the
// import section once every import is gone.
func (im *importer) keepHeader(last tree.NodeID, header []tree.HiddenID) {
	t := im.u.Tree
	next := t.Next(last)
	if next == tree.NoNode || len(t.Comments(header)) == 0 {
		return
	}
	if before := t.Before(next); len(before) > 0 && t.HiddenAt(before[0]).Kind == tree.HiddenWhitespace {
		t.RemoveHidden(before[0])
	}
	for i := len(header) - 1; i >= 0; i-- {
		t.RemoveHidden(header[i])
		t.PrependBefore(next, header[i])
	}
}

// header returns the leading trivia of the first import that belongs to the
// file rather than to the import: the whitespace in front of it and, when
// there is no package declaration, everything up to the last empty line,
// which is where license headers live.
func (im *importer) header(first tree.NodeID) []tree.HiddenID {
	t := im.u.Tree
	chain := t.Before(first)
	cut := 0
	for i, h := range chain {
		if t.HiddenAt(h).Kind != tree.HiddenWhitespace {
			break
		}
		cut = i + 1
	}
	if t.FirstChildOfKind(t.Root(), tree.KindPackageDecl) == tree.NoNode {
		for i, h := range chain {
			x := t.HiddenAt(h)
			if x.Kind == tree.HiddenWhitespace && lineBreaks(x.Text) >= 2 {
				cut = max(cut, i+1)
			}
		}
	}
	return chain[:cut]
}
