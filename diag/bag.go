package diag

import (
	"fmt"
	"sort"
)

// Bag collects the diagnostics of one pass or one run.
type Bag struct {
	items []Diagnostic
}

func NewBag() *Bag {
	return &Bag{}
}

func (b *Bag) Add(d Diagnostic) {
	b.items = append(b.items, d)
}

// At returns a Reporter that stamps every diagnostic with file and position.
func (b *Bag) At(file string, line, column int) Reporter {
	return Reporter{bag: b, file: file, line: line, column: column}
}

func (b *Bag) Infof(code Code, format string, args ...any) {
	b.At("", 0, 0).Infof(code, format, args...)
}

func (b *Bag) Warnf(code Code, format string, args ...any) {
	b.At("", 0, 0).Warnf(code, format, args...)
}

func (b *Bag) Errorf(code Code, format string, args ...any) {
	b.At("", 0, 0).Errorf(code, format, args...)
}

// HasErrors reports whether any diagnostic has severity Error.
func (b *Bag) HasErrors() bool {
	return b.Max() >= SevError
}

// HasWarnings reports whether any diagnostic has severity Warning or above.
func (b *Bag) HasWarnings() bool {
	return b.Max() >= SevWarning
}

// Max returns the highest severity in the bag, SevInfo when it is empty.
func (b *Bag) Max() Severity {
	top := SevInfo
	if b == nil {
		return top
	}
	for i := range b.items {
		if b.items[i].Severity > top {
			top = b.items[i].Severity
		}
	}
	return top
}

func (b *Bag) Len() int {
	if b == nil {
		return 0
	}
	return len(b.items)
}

// Items returns the diagnostics in insertion order. The slice is shared.
func (b *Bag) Items() []Diagnostic {
	if b == nil {
		return nil
	}
	return b.items
}

// Merge appends the diagnostics of other. A nil other is ignored.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	b.items = append(b.items, other.items...)
}

// Sort orders diagnostics by file, position, severity (highest first) and code.
func (b *Bag) Sort() {
	sort.SliceStable(b.items, func(i, j int) bool {
		di, dj := b.items[i], b.items[j]
		if di.File != dj.File {
			return di.File < dj.File
		}
		if di.Line != dj.Line {
			return di.Line < dj.Line
		}
		if di.Column != dj.Column {
			return di.Column < dj.Column
		}
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		return di.Code < dj.Code
	})
}

// Reporter adds diagnostics anchored at one position.
type Reporter struct {
	bag          *Bag
	file         string
	line, column int
}

func (r Reporter) report(sev Severity, code Code, format string, args []any) {
	r.bag.Add(Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		File:     r.file,
		Line:     r.line,
		Column:   r.column,
	})
}

func (r Reporter) Infof(code Code, format string, args ...any) {
	r.report(SevInfo, code, format, args)
}

func (r Reporter) Warnf(code Code, format string, args ...any) {
	r.report(SevWarning, code, format, args)
}

func (r Reporter) Errorf(code Code, format string, args ...any) {
	r.report(SevError, code, format, args)
}
