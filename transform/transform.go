// Package transform holds the rewrite passes groom applies to a parsed
// compilation unit, in this order: import normalization, member sort,
// serialVersionUID insertion and logging-guard insertion.
//
// Passes edit the tree in place and report what they did, or could not do,
// through a diag.Bag. They never log and never decide the outcome of a run.
package transform

import (
	"fmt"

	"github.com/dhamidi/groom/diag"
	"github.com/dhamidi/groom/java/parser"
	"github.com/dhamidi/groom/java/tree"
	"github.com/dhamidi/groom/settings"
)

// TypeIndex answers the type-name lookups import normalization needs.
// *repository.Repository implements it.
type TypeIndex interface {
	IsEmpty() bool
	Contains(name string) bool
	HasPackage(pkg string) bool
	// PackageMembers lists the qualified names of the types directly
	// inside pkg, e.g. "a.Foo" for pkg "a".
	PackageMembers(pkg string) []string
}

// TypeInfo supplies facts only a compiled class can give.
// *classfile.SerialVersionProvider implements it.
type TypeInfo interface {
	SerialVersionUID(binaryName string) (int64, error)
}

// Unit is one parsed compilation unit.
type Unit struct {
	File        string
	Tree        *tree.Tree
	Qualified   []string
	Unqualified []string
	// IndentSize is the width of one indentation level in synthesized code.
	IndentSize int
}

// NewUnit wraps a parse result.
func NewUnit(file string, res *parser.Result, indentSize int) *Unit {
	return &Unit{
		File:        file,
		Tree:        res.Tree,
		Qualified:   res.Qualified,
		Unqualified: res.Unqualified,
		IndentSize:  indentSize,
	}
}

// at returns a reporter positioned at n.
func (u *Unit) at(b *diag.Bag, n tree.NodeID) diag.Reporter {
	line, col := u.Tree.Pos(n)
	return b.At(u.File, line, col)
}

// Deps are the collaborators passes consult. Either may be nil, which
// disables the steps that need it.
type Deps struct {
	Index TypeIndex
	Info  TypeInfo
}

// A Pass rewrites a unit.
type Pass struct {
	Name string
	Run  func(u *Unit, cfg *settings.Settings, deps Deps) (*diag.Bag, error)
}

// Pipeline lists the passes in the order they run.
var Pipeline = []Pass{
	{"imports", func(u *Unit, cfg *settings.Settings, deps Deps) (*diag.Bag, error) {
		return Imports(u, deps.Index, cfg.Imports)
	}},
	{"members", func(u *Unit, cfg *settings.Settings, _ Deps) (*diag.Bag, error) {
		return SortMembers(u, cfg.Members)
	}},
	{"serial", func(u *Unit, cfg *settings.Settings, deps Deps) (*diag.Bag, error) {
		if !cfg.Serial.Insert || deps.Info == nil {
			return nil, nil
		}
		return SerialVersionUID(u, deps.Info, cfg.Serial)
	}},
	{"logging", func(u *Unit, cfg *settings.Settings, _ Deps) (*diag.Bag, error) {
		if !cfg.Logging.Insert {
			return nil, nil
		}
		return LoggingGuards(u, cfg.Logging)
	}},
}

// Run applies every pass of the pipeline and merges their diagnostics. It
// stops at the first pass that fails; the diagnostics gathered so far are
// returned with the error.
func Run(u *Unit, cfg *settings.Settings, deps Deps) (*diag.Bag, error) {
	all := diag.NewBag()
	for _, p := range Pipeline {
		bag, err := p.Run(u, cfg, deps)
		all.Merge(bag)
		if err != nil {
			return all, fmt.Errorf("%s pass: %w", p.Name, err)
		}
	}
	return all, nil
}
