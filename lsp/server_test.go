package lsp

import (
	"context"
	"testing"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/dhamidi/groom/diag"
	"github.com/dhamidi/groom/settings"
)

const unsorted = "package a;\n\nimport org.x.Y;\nimport java.util.List;\n\nclass A {\n    List<Y> l;\n}\n"

func testServer() *Server {
	cfg := settings.Default()
	cfg.Imports.BlankLines = false
	return NewServer("test", WithSettings(cfg))
}

func TestFormatting(t *testing.T) {
	s := testServer()
	uri := "file:///src/a/A.java"
	var notified []protocol.PublishDiagnosticsParams
	ctx := &glsp.Context{Notify: func(method string, params any) {
		if method == protocol.ServerTextDocumentPublishDiagnostics {
			notified = append(notified, params.(protocol.PublishDiagnosticsParams))
		}
	}}
	err := s.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, Text: unsorted},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(notified) != 1 || notified[0].URI != uri || len(notified[0].Diagnostics) != 0 {
		t.Errorf("published %+v, want one empty diagnostics list", notified)
	}

	edits, err := s.textDocumentFormatting(ctx, &protocol.DocumentFormattingParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(edits) != 1 {
		t.Fatalf("got %d edits, want 1", len(edits))
	}
	want := "package a;\n\nimport java.util.List;\nimport org.x.Y;\n\nclass A {\n    List<Y> l;\n}\n"
	if edits[0].NewText != want {
		t.Errorf("NewText =\n%s\nwant\n%s", edits[0].NewText, want)
	}
	if end := edits[0].Range.End; end.Line != 8 || end.Character != 0 {
		t.Errorf("Range.End = %+v, want line 8 character 0", end)
	}

	s.setDocument(uri, want)
	edits, err = s.textDocumentFormatting(ctx, &protocol.DocumentFormattingParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	if err != nil || len(edits) != 0 {
		t.Errorf("formatting a formatted document = %v, %v; want no edits", edits, err)
	}
}

func TestFormattingUnknownDocument(t *testing.T) {
	s := testServer()
	edits, err := s.textDocumentFormatting(&glsp.Context{}, &protocol.DocumentFormattingParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///nowhere.java"},
	})
	if err != nil || edits != nil {
		t.Errorf("textDocumentFormatting() = %v, %v; want nil, nil", edits, err)
	}
}

func TestFormatSyntaxError(t *testing.T) {
	s := testServer()
	_, diags, err := s.Format(context.Background(), "file:///B.java", "class {\n", 0)
	if err == nil {
		t.Fatal("Format() error = nil, want a syntax error")
	}
	ps := toProtocol(diags)
	if len(ps) != 1 || *ps[0].Severity != protocol.DiagnosticSeverityError || ps[0].Range.Start.Line != 0 {
		t.Errorf("toProtocol() = %+v", ps)
	}
}

func TestFormatIndentSize(t *testing.T) {
	cfg := settings.Default()
	cfg.Serial.Insert = true
	s := NewServer("test", WithSettings(cfg), WithTypeInfo(fixedUID(7)))
	src := "class A implements Serializable {}\n"
	got, _, err := s.Format(context.Background(), "A.java", src, 2)
	if err != nil {
		t.Fatal(err)
	}
	want := "class A implements Serializable {\n  /** Use serialVersionUID for interoperability. */\n  private static final long serialVersionUID = 7L;\n}\n"
	if got != want {
		t.Errorf("Format() =\n%s\nwant\n%s", got, want)
	}
}

type fixedUID int64

func (f fixedUID) SerialVersionUID(string) (int64, error) {
	return int64(f), nil
}

func TestWholeRange(t *testing.T) {
	tests := []struct {
		text      string
		line, col protocol.UInteger
	}{
		{"", 0, 0},
		{"abc", 0, 3},
		{"a\nb", 1, 1},
		{"a\r\nbc\r\n", 2, 0},
		{"x\n😀é", 1, 3},
	}
	for _, tt := range tests {
		end := wholeRange(tt.text).End
		if end.Line != tt.line || end.Character != tt.col {
			t.Errorf("wholeRange(%q).End = %d:%d, want %d:%d", tt.text, end.Line, end.Character, tt.line, tt.col)
		}
	}
}

func TestSeverity(t *testing.T) {
	tests := []struct {
		in   diag.Severity
		want protocol.DiagnosticSeverity
	}{
		{diag.SevInfo, protocol.DiagnosticSeverityInformation},
		{diag.SevWarning, protocol.DiagnosticSeverityWarning},
		{diag.SevError, protocol.DiagnosticSeverityError},
	}
	for _, tt := range tests {
		if got := severity(tt.in); got != tt.want {
			t.Errorf("severity(%s) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestTabSize(t *testing.T) {
	if got := tabSize(protocol.FormattingOptions{protocol.FormattingOptionTabSize: float64(2)}); got != 2 {
		t.Errorf("tabSize() = %d, want 2", got)
	}
	if got := tabSize(nil); got != 0 {
		t.Errorf("tabSize(nil) = %d, want 0", got)
	}
}
