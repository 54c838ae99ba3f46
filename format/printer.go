package format

import (
	"io"
	"strings"

	"github.com/dhamidi/groom/java/tree"
)

// Printer writes a tree back to source text. Leaves and hidden tokens are
// written in document order, so a tree nobody touched comes out exactly as
// it went in, modulo line endings.
type Printer struct {
	w          io.Writer
	lineEnding string
	expand     *strings.Replacer

	last      byte
	pendingCR bool
	err       error
}

func NewPrinter(w io.Writer, lineEnding string) *Printer {
	if lineEnding == "" {
		lineEnding = "\n"
	}
	return &Printer{w: w, lineEnding: lineEnding}
}

// Expand makes the printer substitute ${key} placeholders in comments of
// synthetic nodes with values from env.
func (p *Printer) Expand(env map[string]string) {
	var pairs []string
	for k, v := range env {
		pairs = append(pairs, "${"+k+"}", v)
	}
	if len(pairs) > 0 {
		p.expand = strings.NewReplacer(pairs...)
	}
}

func (p *Printer) Print(t *tree.Tree, root tree.NodeID) error {
	if root != tree.NoNode {
		p.printNode(t, root)
	}
	return p.err
}

func (p *Printer) printNode(t *tree.Tree, n tree.NodeID) {
	synthetic := t.IsSynthetic(n)
	p.printHidden(t, t.Before(n), synthetic)
	if t.Kind(n).IsToken() {
		p.printToken(t.Token(n))
	}
	for c := t.FirstChild(n); c != tree.NoNode; c = t.Next(c) {
		p.printNode(t, c)
	}
	p.printHidden(t, t.After(n), synthetic)
}

func (p *Printer) printHidden(t *tree.Tree, ids []tree.HiddenID, synthetic bool) {
	for _, id := range ids {
		h := t.HiddenAt(id)
		text := h.Text
		if synthetic && p.expand != nil && h.Kind.IsComment() {
			text = p.expand.Replace(text)
		}
		p.write(text)
	}
}

// printToken separates two word tokens that ended up adjacent, which only
// happens around synthetic nodes.
func (p *Printer) printToken(text string) {
	if text == "" {
		return
	}
	if isWordByte(p.last) && isWordByte(text[0]) {
		p.write(" ")
	}
	p.write(text)
}

func isWordByte(b byte) bool {
	return b == '_' || b == '$' || b >= 0x80 ||
		('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9')
}

// write emits s with every line break converted to the printer's line ending.
func (p *Printer) write(s string) {
	if p.err != nil || s == "" {
		return
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\n' && p.pendingCR:
			p.pendingCR = false
		case c == '\n':
			sb.WriteString(p.lineEnding)
		case c == '\r':
			sb.WriteString(p.lineEnding)
			p.pendingCR = true
		default:
			sb.WriteByte(c)
			p.pendingCR = false
		}
	}
	p.last = s[len(s)-1]
	_, p.err = io.WriteString(p.w, sb.String())
}
