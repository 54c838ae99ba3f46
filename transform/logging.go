package transform

import (
	"strings"

	"github.com/dhamidi/groom/diag"
	"github.com/dhamidi/groom/java/tree"
	"github.com/dhamidi/groom/settings"
)

// logCall is a logging statement waiting for its guard.
type logCall struct {
	stmt      tree.NodeID
	receiver  string
	method    string
	predicate string
}

// LoggingGuards wraps logging calls such as log.debug(...) in a check of the
// matching predicate, if (log.isDebugEnabled()) { ... }, unless the
// statement already sits in an if that tests it. cfg.Predicates maps the
// logging method to its predicate.
func LoggingGuards(u *Unit, cfg settings.Logging) (*diag.Bag, error) {
	bag := diag.NewBag()
	if len(cfg.Predicates) == 0 {
		return bag, nil
	}
	t := u.Tree

	var calls []logCall
	w := tree.NewWalker(t, func(w *tree.Walker, n tree.NodeID) {
		if t.Kind(n) != tree.KindExprStmt {
			return
		}
		call, ok := loggingCall(t, n, cfg.Predicates)
		if ok && !guarded(t, n, call.receiver+"."+call.predicate+"(") {
			calls = append(calls, call)
		}
	})
	w.Walk(t.Root())

	for _, c := range calls {
		if err := guard(u, c); err != nil {
			return bag, err
		}
		u.at(bag, c.stmt).Infof(diag.CodeLoggingGuard, "guarded %s.%s call with %s.%s()",
			c.receiver, c.method, c.receiver, c.predicate)
	}
	return bag, nil
}

// loggingCall matches an expression statement of the form recv.name(args);
// where name has a predicate. Assignments do not match.
func loggingCall(t *tree.Tree, stmt tree.NodeID, predicates map[string]string) (logCall, bool) {
	expr := t.FirstChildOfKind(stmt, tree.KindExpr)
	if expr == tree.NoNode {
		return logCall{}, false
	}
	parts := t.Children(expr)
	for _, p := range parts {
		if t.Kind(p) == tree.KindOperator && isAssignment(t.Token(p)) {
			return logCall{}, false
		}
	}
	n := len(parts)
	if n < 4 || t.Kind(parts[n-1]) != tree.KindParens || t.Kind(parts[n-2]) != tree.KindIdent || t.Token(parts[n-3]) != "." {
		return logCall{}, false
	}
	method := t.Token(parts[n-2])
	pred, ok := predicates[method]
	if !ok {
		return logCall{}, false
	}
	var recv strings.Builder
	for _, p := range parts[:n-3] {
		recv.WriteString(compact(t, p))
	}
	return logCall{stmt: stmt, receiver: recv.String(), method: method, predicate: pred}, true
}

func isAssignment(op string) bool {
	switch op {
	case "=", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<=", ">>=", ">>>=":
		return true
	}
	return false
}

// compact returns the token text under n with all hidden tokens dropped.
func compact(t *tree.Tree, n tree.NodeID) string {
	var sb strings.Builder
	for _, l := range t.Leaves(n) {
		sb.WriteString(t.Token(l))
	}
	return sb.String()
}

// guarded reports whether the closest enclosing if, looking through blocks,
// has stmt in its then branch and a condition that calls test without
// negating it.
func guarded(t *tree.Tree, stmt tree.NodeID, test string) bool {
	p := t.Parent(stmt)
	for p != tree.NoNode && t.Kind(p) == tree.KindBlock {
		p = t.Parent(p)
	}
	if p == tree.NoNode || t.Kind(p) != tree.KindIfStmt {
		return false
	}
	cond := t.FirstChildOfKind(p, tree.KindParens)
	if cond == tree.NoNode {
		return false
	}
	text := compact(t, cond)
	for off := 0; ; {
		i := strings.Index(text[off:], test)
		if i < 0 {
			return false
		}
		i += off
		if !negated(text[:i]) {
			return true
		}
		off = i + len(test)
	}
}

// negated reports whether the expression ending at the end of prefix is
// under a logical not, possibly behind opening parentheses.
func negated(prefix string) bool {
	prefix = strings.TrimRight(prefix, "(")
	return strings.HasSuffix(prefix, "!")
}

// guard replaces the statement with an if testing the predicate and moves
// the statement into its block. Where the statement is the whole body of an
// if, loop or arrow case, the guard itself goes into a new block so that no
// else changes owner.
func guard(u *Unit, c logCall) error {
	t := u.Tree
	ifStmt, err := graftStatement(t, "if ("+c.receiver+"."+c.predicate+"()) {}")
	if err != nil {
		return err
	}
	block := t.FirstChildOfKind(ifStmt, tree.KindBlock)
	line, col := t.Pos(c.stmt)
	t.SetPos(ifStmt, line, col)

	base := enclosingIndent(t, c.stmt)
	unit := indentUnit(base+t.Indent(c.stmt), u.IndentSize)
	if needsBlock(t, c.stmt) {
		indent := base + unit
		t.Replace(c.stmt, ifStmt)
		fill(t, block, c.stmt, indent, unit)

		outer := t.New(tree.KindBlock, "")
		open := t.New(tree.KindSeparator, "{")
		end := t.New(tree.KindSeparator, "}")
		t.Replace(ifStmt, outer)
		t.Append(outer, open)
		t.Append(outer, ifStmt)
		t.Append(outer, end)
		comments := t.StripBefore(outer, tree.HiddenLineComment, tree.HiddenBlockComment, tree.HiddenDocComment, tree.HiddenBanner)
		t.StripBefore(outer, tree.HiddenWhitespace)
		t.PrependBefore(outer, whitespace(t, " "))
		if prev := t.Prev(outer); prev != tree.NoNode {
			if last := t.LastLeaf(prev); last != tree.NoNode && len(t.Comments(t.After(last))) == 0 {
				t.StripAfter(last, tree.HiddenWhitespace)
			}
		}
		if len(t.After(outer)) == 0 && t.Next(outer) != tree.NoNode {
			t.AddAfter(outer, whitespace(t, " "))
		}
		t.AddAfter(open, whitespace(t, "\n"))
		t.AddAfter(ifStmt, whitespace(t, "\n"))
		t.AddBefore(ifStmt, whitespace(t, indent))
		for _, h := range comments {
			t.AddBefore(ifStmt, h)
			t.AddBefore(ifStmt, whitespace(t, "\n"+indent))
		}
		t.AddBefore(end, whitespace(t, base))
		return nil
	}

	indent := base + unit
	if t.StartsLine(c.stmt) {
		indent = t.Indent(c.stmt)
	}
	ended := lineBreak(t, t.After(c.stmt))
	t.Replace(c.stmt, ifStmt)
	t.MoveAfter(ifStmt, c.stmt)
	if ended {
		t.AddAfter(ifStmt, whitespace(t, "\n"))
	}
	fill(t, block, c.stmt, indent, unit)
	return nil
}

// fill puts stmt on its own line inside block, which opens a line indented
// by indent.
func fill(t *tree.Tree, block, stmt tree.NodeID, indent, unit string) {
	closing := t.CloseBrace(block)
	t.AddAfter(t.OpenBrace(block), whitespace(t, "\n"))
	t.StripBefore(stmt, tree.HiddenWhitespace)
	t.PrependBefore(stmt, whitespace(t, indent+unit))
	if !lineBreak(t, t.After(stmt)) {
		t.AddAfter(stmt, whitespace(t, "\n"))
	}
	t.AddBefore(closing, whitespace(t, indent))
	t.InsertBefore(closing, stmt)
}

// needsBlock reports whether stmt is the single statement of an if, else,
// loop, label or arrow case.
func needsBlock(t *tree.Tree, stmt tree.NodeID) bool {
	p := t.Parent(stmt)
	switch t.Kind(p) {
	case tree.KindIfStmt, tree.KindElse, tree.KindWhileStmt, tree.KindDoStmt, tree.KindForStmt, tree.KindLabeledStmt:
		return true
	case tree.KindCase:
		prev := t.Prev(stmt)
		return prev != tree.NoNode && t.Token(prev) == "->"
	}
	return false
}

// enclosingIndent returns the indentation of the closest ancestor of n that
// starts a line.
func enclosingIndent(t *tree.Tree, n tree.NodeID) string {
	for p := t.Parent(n); p != tree.NoNode; p = t.Parent(p) {
		if t.StartsLine(p) {
			return t.Indent(p)
		}
	}
	return ""
}
