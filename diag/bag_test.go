package diag

import "testing"

func TestBagSeverity(t *testing.T) {
	tests := []struct {
		name         string
		add          func(b *Bag)
		wantErrors   bool
		wantWarnings bool
	}{
		{"empty", func(b *Bag) {}, false, false},
		{"info", func(b *Bag) { b.Infof(CodeUnusedImport, "removed %s", "a.B") }, false, false},
		{"warning", func(b *Bag) { b.Warnf(CodeImportConflict, "conflict") }, false, true},
		{"error", func(b *Bag) { b.Errorf(CodeSyntax, "bad") }, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBag()
			tt.add(b)
			if got := b.HasErrors(); got != tt.wantErrors {
				t.Errorf("HasErrors() = %v, want %v", got, tt.wantErrors)
			}
			if got := b.HasWarnings(); got != tt.wantWarnings {
				t.Errorf("HasWarnings() = %v, want %v", got, tt.wantWarnings)
			}
		})
	}
}

func TestBagMergeAndSort(t *testing.T) {
	a := NewBag()
	a.At("B.java", 3, 1).Infof(CodeUnusedImport, "unused")
	b := NewBag()
	b.At("A.java", 7, 2).Warnf(CodeSerialUnresolved, "missing")
	b.At("A.java", 7, 2).Errorf(CodeIO, "write failed")
	a.Merge(b)
	a.Merge(nil)
	a.Sort()

	items := a.Items()
	if len(items) != 3 {
		t.Fatalf("Len() = %d, want 3", len(items))
	}
	wantCodes := []Code{CodeIO, CodeSerialUnresolved, CodeUnusedImport}
	for i, want := range wantCodes {
		if items[i].Code != want {
			t.Errorf("items[%d].Code = %q, want %q", i, items[i].Code, want)
		}
	}
	if got := items[0].String(); got != "A.java:7:2: ERROR [io] write failed" {
		t.Errorf("String() = %q", got)
	}
}

func TestNilBag(t *testing.T) {
	var b *Bag
	if b.Len() != 0 || b.Items() != nil {
		t.Errorf("nil bag not empty")
	}
}
