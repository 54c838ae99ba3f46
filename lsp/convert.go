package lsp

import (
	"unicode/utf16"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/dhamidi/groom/diag"
)

const source = "groom"

// wholeRange spans text from its start to its end, with columns counted in
// UTF-16 code units.
func wholeRange(text string) protocol.Range {
	var line, col protocol.UInteger
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size
		if r == '\n' {
			line++
			col = 0
			continue
		}
		col += protocol.UInteger(utf16.RuneLen(r))
	}
	return protocol.Range{
		Start: protocol.Position{Line: 0, Character: 0},
		End:   protocol.Position{Line: line, Character: col},
	}
}

func toProtocol(ds []diag.Diagnostic) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(ds))
	for _, d := range ds {
		sev := severity(d.Severity)
		src := source
		var line, col protocol.UInteger
		if d.Line > 0 {
			line = protocol.UInteger(d.Line - 1)
		}
		if d.Column > 0 {
			col = protocol.UInteger(d.Column - 1)
		}
		pos := protocol.Position{Line: line, Character: col}
		out = append(out, protocol.Diagnostic{
			Range:    protocol.Range{Start: pos, End: pos},
			Severity: &sev,
			Code:     &protocol.IntegerOrString{Value: string(d.Code)},
			Source:   &src,
			Message:  d.Message,
		})
	}
	return out
}

func severity(s diag.Severity) protocol.DiagnosticSeverity {
	switch s {
	case diag.SevError:
		return protocol.DiagnosticSeverityError
	case diag.SevWarning:
		return protocol.DiagnosticSeverityWarning
	}
	return protocol.DiagnosticSeverityInformation
}
