package parser

import (
	"fmt"
	"strings"
	"testing"
)

// visible tokenizes src and describes every visible token but EOF as
// "Kind literal", joined by " | ".
func visible(src string) string {
	var parts []string
	for _, tok := range NewLexer([]byte(src), "T.java").Tokenize() {
		if tok.Kind == TokenEOF {
			break
		}
		parts = append(parts, fmt.Sprintf("%v %s", tok.Kind, tok.Literal))
	}
	return strings.Join(parts, " | ")
}

func TestLexerStartPosition(t *testing.T) {
	pos := NewLexer([]byte("class Foo {}"), "Test.java").Position()
	want := Position{File: "Test.java", Line: 1, Column: 1}
	if pos != want {
		t.Errorf("Position() = %+v, want %+v", pos, want)
	}
}

func TestLexerSequences(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "declaration",
			src:  "public final class Foo extends Bar {}",
			want: "public public | final final | class class | Identifier Foo | extends extends | Identifier Bar | { { | } }",
		},
		{
			name: "nested generics close one by one",
			src:  "Map<K, List<V>>",
			want: "Identifier Map | < < | Identifier K | , , | Identifier List | < < | Identifier V | > > | > >",
		},
		{
			name: "unsigned shift assignment is four tokens",
			src:  "a>>>=b",
			want: "Identifier a | > > | > > | > > | = = | Identifier b",
		},
		{
			name: "greater or equal splits too",
			src:  "i >= 0",
			want: "Identifier i | > > | = = | IntLiteral 0",
		},
		{
			name: "left shifts stay whole",
			src:  "x <<= 1 << 2",
			want: "Identifier x | <<= <<= | IntLiteral 1 | << << | IntLiteral 2",
		},
		{
			name: "lambda and method reference",
			src:  "s -> s::trim",
			want: "Identifier s | -> -> | Identifier s | :: :: | Identifier trim",
		},
		{
			name: "varargs and annotation",
			src:  "@SafeVarargs void f(T... ts)",
			want: "@ @ | Identifier SafeVarargs | void void | Identifier f | ( ( | Identifier T | ... ... | Identifier ts | ) )",
		},
		{
			name: "compound assignments",
			src:  "a += b -= c *= d /= e %= f &= g |= h ^= i",
			want: "Identifier a | += += | Identifier b | -= -= | Identifier c | *= *= | Identifier d | /= /= | Identifier e | %= %= | Identifier f | &= &= | Identifier g | |= |= | Identifier h | ^= ^= | Identifier i",
		},
		{
			name: "logic and increments",
			src:  "!a && b || ~c != d++ - --e",
			want: "! ! | Identifier a | && && | Identifier b | || || | ~ ~ | Identifier c | != != | Identifier d | ++ ++ | - - | -- -- | Identifier e",
		},
		{
			name: "ternary",
			src:  "c ? x : y",
			want: "Identifier c | ? ? | Identifier x | : : | Identifier y",
		},
		{
			name: "member access on an int",
			src:  "1.foo",
			want: "IntLiteral 1 | . . | Identifier foo",
		},
		{
			name: "range dots",
			src:  "1..2",
			want: "IntLiteral 1 | . . | FloatLiteral .2",
		},
		{
			name: "non-sealed",
			src:  "non-sealed class",
			want: "non-sealed non-sealed | class class",
		},
		{
			name: "non minus ident",
			src:  "non-sealedX",
			want: "Identifier non | - - | Identifier sealedX",
		},
		{
			name: "contextual keywords are identifiers",
			src:  "var record yield",
			want: "Identifier var | Identifier record | Identifier yield",
		},
		{
			name: "unknown character",
			src:  "a # b",
			want: "Identifier a | Error # | Identifier b",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := visible(tt.src); got != tt.want {
				t.Errorf("tokens of %q =\n%s\nwant\n%s", tt.src, got, tt.want)
			}
		})
	}
}

func TestLexerLiterals(t *testing.T) {
	tests := []struct {
		src  string
		kind TokenKind
	}{
		{"0", TokenIntLiteral},
		{"1_000_000", TokenIntLiteral},
		{"42L", TokenIntLiteral},
		{"0xDEAD_BEEF", TokenIntLiteral},
		{"0b1010_1010L", TokenIntLiteral},
		{"3.14", TokenFloatLiteral},
		{"2f", TokenFloatLiteral},
		{"1.", TokenFloatLiteral},
		{"1.5e-10", TokenFloatLiteral},
		{"1E+3d", TokenFloatLiteral},
		{".5", TokenFloatLiteral},
		{"0x1.8p1", TokenFloatLiteral},
		{`'a'`, TokenCharLiteral},
		{`'\''`, TokenCharLiteral},
		{`""`, TokenStringLiteral},
		{`"say \"hi\""`, TokenStringLiteral},
		{"\"\"\"\n    one\n    \\\"\"\"\n    \"\"\"", TokenTextBlock},
		{"true", TokenTrue},
		{"null", TokenNull},
		{`"open`, TokenError},
		{`'a`, TokenError},
		{"\"\"\"never closed", TokenError},
		{"\"line\nbreak\"", TokenError},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			tok := NewLexer([]byte(tt.src), "T.java").NextToken()
			if tok.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tok.Kind, tt.kind)
			}
			if tt.kind != TokenError && tok.Literal != tt.src {
				t.Errorf("Literal = %q, want %q", tok.Literal, tt.src)
			}
		})
	}
}

func TestLexerHiddenTokens(t *testing.T) {
	tests := []struct {
		name string
		src  string
		// hidden lists the kinds of the hidden tokens carried by the first
		// visible token.
		hidden []TokenKind
		lit    []string
	}{
		{
			name:   "whitespace",
			src:    " \t\f\n x",
			hidden: []TokenKind{TokenWhitespace},
			lit:    []string{" \t\f\n "},
		},
		{
			name:   "line comment ends before the break",
			src:    "// note\r\nx",
			hidden: []TokenKind{TokenLineComment, TokenWhitespace},
			lit:    []string{"// note", "\r\n"},
		},
		{
			name:   "doc comment",
			src:    "/** Doc. */ x",
			hidden: []TokenKind{TokenDocComment, TokenWhitespace},
			lit:    []string{"/** Doc. */", " "},
		},
		{
			name:   "empty block comment is plain",
			src:    "/**/x",
			hidden: []TokenKind{TokenComment},
			lit:    []string{"/**/"},
		},
		{
			name:   "banner is plain",
			src:    "/* *\n * * */\nx",
			hidden: []TokenKind{TokenComment, TokenWhitespace},
			lit:    []string{"/* *\n * * */", "\n"},
		},
		{
			name:   "comment between comments",
			src:    "/*a*/ //b\n/**c*/x",
			hidden: []TokenKind{TokenComment, TokenWhitespace, TokenLineComment, TokenWhitespace, TokenDocComment},
			lit:    []string{"/*a*/", " ", "//b", "\n", "/**c*/"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := NewLexer([]byte(tt.src), "T.java").Tokenize()
			first := toks[0]
			if first.Kind != TokenIdent {
				t.Fatalf("first visible token = %v %q, want the identifier", first.Kind, first.Literal)
			}
			if len(first.Hidden) != len(tt.hidden) {
				t.Fatalf("hidden = %v, want %d tokens", first.Hidden, len(tt.hidden))
			}
			for i, h := range first.Hidden {
				if h.Kind != tt.hidden[i] || h.Literal != tt.lit[i] {
					t.Errorf("hidden[%d] = %v %q, want %v %q", i, h.Kind, h.Literal, tt.hidden[i], tt.lit[i])
				}
				if !h.Kind.IsHidden() {
					t.Errorf("hidden[%d] kind %v does not report IsHidden", i, h.Kind)
				}
			}
		})
	}
}

func TestLexerUnterminatedComment(t *testing.T) {
	toks := NewLexer([]byte("x /* open"), "T.java").Tokenize()
	if len(toks) < 2 || toks[1].Kind != TokenError {
		t.Fatalf("tokens = %v, want an error after x", toks)
	}
	if toks[1].Literal != "/* open" {
		t.Errorf("error literal = %q, want the rest of the input", toks[1].Literal)
	}
}

func TestLexerPositions(t *testing.T) {
	tests := []struct {
		name         string
		src          string
		line, column int
	}{
		{"same line", "ab cd", 1, 4},
		{"after LF", "ab\ncd", 2, 1},
		{"after CRLF", "ab\r\ncd", 2, 1},
		{"after CR", "ab\rcd", 2, 1},
		{"after a comment spanning lines", "ab /*\n\n*/ cd", 3, 4},
		{"counts runes", "größe cd", 1, 7},
		{"inside a text block", "\"\"\"\nx\n\"\"\" cd", 3, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := NewLexer([]byte(tt.src), "T.java").Tokenize()
			second := toks[1]
			if second.Literal != "cd" {
				t.Fatalf("second token = %q, want cd", second.Literal)
			}
			if got := second.Span.Start; got.Line != tt.line || got.Column != tt.column {
				t.Errorf("cd starts at %d:%d, want %d:%d", got.Line, got.Column, tt.line, tt.column)
			}
			if second.Span.End.Offset-second.Span.Start.Offset != 2 {
				t.Errorf("span = %+v, want two bytes", second.Span)
			}
		})
	}
}

func TestLexerKeywordKinds(t *testing.T) {
	for word, kind := range keywords {
		tok := NewLexer([]byte(word), "T.java").NextToken()
		if tok.Kind != kind {
			t.Errorf("%s: Kind = %v, want %v", word, tok.Kind, kind)
		}
		if kind != TokenTrue && kind != TokenFalse && kind != TokenNull && !kind.IsKeyword() {
			t.Errorf("%s: IsKeyword() = false", word)
		}
	}
}

func TestTokenizeKeepsEveryByte(t *testing.T) {
	input := "/* head */\npackage a.b;\r\n\n// note\nclass X { int y = 1 >> 2; }  \n"
	toks := NewLexer([]byte(input), "X.java").Tokenize()
	var got strings.Builder
	for _, tok := range toks {
		for _, h := range tok.Hidden {
			got.WriteString(h.Literal)
		}
		got.WriteString(tok.Literal)
	}
	if got.String() != input {
		t.Errorf("concatenated tokens = %q, want %q", got.String(), input)
	}
	if last := toks[len(toks)-1]; last.Kind != TokenEOF || len(last.Hidden) != 1 {
		t.Errorf("EOF token = %+v, want EOF carrying the trailing whitespace", last)
	}
}

func TestTokenizeEmpty(t *testing.T) {
	toks := NewLexer(nil, "T.java").Tokenize()
	if len(toks) != 1 || toks[0].Kind != TokenEOF || len(toks[0].Hidden) != 0 {
		t.Errorf("Tokenize() of empty input = %+v, want a bare EOF", toks)
	}
}
