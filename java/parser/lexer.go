package parser

import (
	"unicode"
	"unicode/utf8"
)

// Lexer splits Java source into tokens. Whitespace and comments are tokens
// too; nothing in the input is dropped, so concatenating every literal
// reproduces the source.
type Lexer struct {
	input  []byte
	file   string
	pos    int
	line   int
	column int
}

func NewLexer(input []byte, file string) *Lexer {
	return &Lexer{
		input:  input,
		file:   file,
		line:   1,
		column: 1,
	}
}

func (l *Lexer) Position() Position {
	return Position{
		File:   l.file,
		Offset: l.pos,
		Line:   l.line,
		Column: l.column,
	}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) peekN(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

func (l *Lexer) advance() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	ch := l.input[l.pos]
	l.pos++
	switch {
	case ch == '\n':
		l.line++
		l.column = 1
	case ch == '\r' && l.peek() != '\n':
		l.line++
		l.column = 1
	case ch < utf8.RuneSelf || utf8.RuneStart(ch):
		l.column++
	}
	return ch
}

func (l *Lexer) advanceN(n int) {
	for i := 0; i < n; i++ {
		l.advance()
	}
}

func (l *Lexer) atEnd() bool { return l.pos >= len(l.input) }

// Tokenize returns the visible tokens of the input, each carrying the hidden
// tokens that precede it. The final token is EOF and holds the trailing
// whitespace and comments of the file.
func (l *Lexer) Tokenize() []Token {
	var out []Token
	var hidden []Token
	for {
		tok := l.NextToken()
		if tok.Kind.IsHidden() {
			hidden = append(hidden, tok)
			continue
		}
		tok.Hidden = hidden
		hidden = nil
		out = append(out, tok)
		if tok.Kind == TokenEOF {
			return out
		}
	}
}

func (l *Lexer) NextToken() Token {
	startPos := l.Position()

	if l.atEnd() {
		return Token{Kind: TokenEOF, Span: Span{Start: startPos, End: startPos}}
	}

	ch := l.peek()

	if ch == '/' && l.peekN(1) == '/' {
		return l.scanLineComment(startPos)
	}
	if ch == '/' && l.peekN(1) == '*' {
		return l.scanBlockComment(startPos)
	}

	if isSpace(ch) {
		return l.scanWhitespace(startPos)
	}

	if r, _ := utf8.DecodeRune(l.input[l.pos:]); isJavaLetter(r) {
		return l.scanIdentOrKeyword(startPos)
	}

	if isDigit(ch) || (ch == '.' && isDigit(l.peekN(1))) {
		return l.scanNumber(startPos)
	}

	if ch == '\'' {
		return l.scanCharLiteral(startPos)
	}

	if ch == '"' {
		if l.peekN(1) == '"' && l.peekN(2) == '"' {
			return l.scanTextBlock(startPos)
		}
		return l.scanStringLiteral(startPos)
	}

	return l.scanOperator(startPos)
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' || ch == '\f'
}

func (l *Lexer) scanWhitespace(start Position) Token {
	for isSpace(l.peek()) {
		l.advance()
	}
	return l.token(TokenWhitespace, start)
}

// scanLineComment stops in front of the line break.
func (l *Lexer) scanLineComment(start Position) Token {
	l.advanceN(2)
	for !l.atEnd() && l.peek() != '\n' && l.peek() != '\r' {
		l.advance()
	}
	return l.token(TokenLineComment, start)
}

func (l *Lexer) scanBlockComment(start Position) Token {
	l.advanceN(2)
	kind := TokenComment
	if l.peek() == '*' && l.peekN(1) != '/' {
		kind = TokenDocComment
	}
	for !l.atEnd() {
		if l.peek() == '*' && l.peekN(1) == '/' {
			l.advanceN(2)
			return l.token(kind, start)
		}
		l.advance()
	}
	return l.token(TokenError, start)
}

func (l *Lexer) scanIdentOrKeyword(start Position) Token {
	for !l.atEnd() {
		r, size := utf8.DecodeRune(l.input[l.pos:])
		if !isJavaLetterOrDigit(r) {
			break
		}
		l.advanceN(size)
	}
	literal := string(l.input[start.Offset:l.pos])

	if literal == "non" && l.peek() == '-' {
		remaining := l.input[l.pos:]
		if len(remaining) >= 7 && string(remaining[:7]) == "-sealed" {
			if len(remaining) == 7 || !isJavaLetterOrDigit(rune(remaining[7])) {
				l.advanceN(7)
				return l.token(TokenNonSealed, start)
			}
		}
	}

	return l.token(LookupKeyword(literal), start)
}

func (l *Lexer) scanNumber(start Position) Token {
	if l.peek() == '0' && (l.peekN(1) == 'x' || l.peekN(1) == 'X') {
		return l.scanHexNumber(start)
	}
	if l.peek() == '0' && (l.peekN(1) == 'b' || l.peekN(1) == 'B') {
		return l.scanBinaryNumber(start)
	}

	isFloat := false
	for isDigit(l.peek()) || l.peek() == '_' {
		l.advance()
	}

	if l.peek() == '.' && isDigit(l.peekN(1)) {
		isFloat = true
		l.advance()
		for isDigit(l.peek()) || l.peek() == '_' {
			l.advance()
		}
	} else if l.peek() == '.' && !isJavaLetter(rune(l.peekN(1))) && l.peekN(1) != '.' {
		// 1. is a double literal; 1.foo and 1..2 are not
		isFloat = true
		l.advance()
	}

	if l.peek() == 'e' || l.peek() == 'E' {
		isFloat = true
		l.advance()
		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}
		for isDigit(l.peek()) || l.peek() == '_' {
			l.advance()
		}
	}

	switch l.peek() {
	case 'f', 'F', 'd', 'D':
		isFloat = true
		l.advance()
	case 'l', 'L':
		l.advance()
	}

	if isFloat {
		return l.token(TokenFloatLiteral, start)
	}
	return l.token(TokenIntLiteral, start)
}

func (l *Lexer) scanHexNumber(start Position) Token {
	l.advanceN(2)
	for isHexDigit(l.peek()) || l.peek() == '_' {
		l.advance()
	}
	isFloat := false
	if l.peek() == '.' {
		isFloat = true
		l.advance()
		for isHexDigit(l.peek()) || l.peek() == '_' {
			l.advance()
		}
	}
	if l.peek() == 'p' || l.peek() == 'P' {
		isFloat = true
		l.advance()
		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}
		for isDigit(l.peek()) || l.peek() == '_' {
			l.advance()
		}
	}
	if isFloat {
		if l.peek() == 'f' || l.peek() == 'F' || l.peek() == 'd' || l.peek() == 'D' {
			l.advance()
		}
		return l.token(TokenFloatLiteral, start)
	}
	if l.peek() == 'l' || l.peek() == 'L' {
		l.advance()
	}
	return l.token(TokenIntLiteral, start)
}

func (l *Lexer) scanBinaryNumber(start Position) Token {
	l.advanceN(2)
	for l.peek() == '0' || l.peek() == '1' || l.peek() == '_' {
		l.advance()
	}
	if l.peek() == 'l' || l.peek() == 'L' {
		l.advance()
	}
	return l.token(TokenIntLiteral, start)
}

func (l *Lexer) scanCharLiteral(start Position) Token {
	l.advance()
	for !l.atEnd() && l.peek() != '\'' && l.peek() != '\n' {
		if l.peek() == '\\' {
			l.advance()
		}
		l.advance()
	}
	if l.peek() != '\'' {
		return l.token(TokenError, start)
	}
	l.advance()
	return l.token(TokenCharLiteral, start)
}

func (l *Lexer) scanStringLiteral(start Position) Token {
	l.advance()
	for !l.atEnd() && l.peek() != '"' && l.peek() != '\n' {
		if l.peek() == '\\' {
			l.advance()
		}
		l.advance()
	}
	if l.peek() != '"' {
		return l.token(TokenError, start)
	}
	l.advance()
	return l.token(TokenStringLiteral, start)
}

func (l *Lexer) scanTextBlock(start Position) Token {
	l.advanceN(3)
	for !l.atEnd() {
		if l.peek() == '"' && l.peekN(1) == '"' && l.peekN(2) == '"' {
			l.advanceN(3)
			return l.token(TokenTextBlock, start)
		}
		if l.peek() == '\\' {
			l.advance()
		}
		l.advance()
	}
	return l.token(TokenError, start)
}

var singleCharTokens = map[byte]TokenKind{
	'(': TokenLParen, ')': TokenRParen,
	'{': TokenLBrace, '}': TokenRBrace,
	'[': TokenLBracket, ']': TokenRBracket,
	';': TokenSemicolon, ',': TokenComma,
	'@': TokenAt, '~': TokenBitNot, '?': TokenQuestion,
	'>': TokenGT,
}

func (l *Lexer) scanOperator(start Position) Token {
	ch := l.peek()
	next := l.peekN(1)

	if kind, ok := singleCharTokens[ch]; ok {
		l.advance()
		return l.token(kind, start)
	}

	switch ch {
	case '.':
		if next == '.' && l.peekN(2) == '.' {
			l.advanceN(3)
			return l.token(TokenEllipsis, start)
		}
		return l.op1(TokenDot, start)
	case ':':
		if next == ':' {
			return l.op2(TokenColonColon, start)
		}
		return l.op1(TokenColon, start)
	case '=':
		if next == '=' {
			return l.op2(TokenEQ, start)
		}
		return l.op1(TokenAssign, start)
	case '!':
		if next == '=' {
			return l.op2(TokenNE, start)
		}
		return l.op1(TokenNot, start)
	case '<':
		if next == '<' {
			if l.peekN(2) == '=' {
				l.advanceN(3)
				return l.token(TokenShlAssign, start)
			}
			return l.op2(TokenShl, start)
		}
		if next == '=' {
			return l.op2(TokenLE, start)
		}
		return l.op1(TokenLT, start)
	case '&':
		switch next {
		case '&':
			return l.op2(TokenAnd, start)
		case '=':
			return l.op2(TokenAndAssign, start)
		}
		return l.op1(TokenBitAnd, start)
	case '|':
		switch next {
		case '|':
			return l.op2(TokenOr, start)
		case '=':
			return l.op2(TokenOrAssign, start)
		}
		return l.op1(TokenBitOr, start)
	case '^':
		if next == '=' {
			return l.op2(TokenXorAssign, start)
		}
		return l.op1(TokenBitXor, start)
	case '+':
		switch next {
		case '+':
			return l.op2(TokenIncrement, start)
		case '=':
			return l.op2(TokenPlusAssign, start)
		}
		return l.op1(TokenPlus, start)
	case '-':
		switch next {
		case '-':
			return l.op2(TokenDecrement, start)
		case '=':
			return l.op2(TokenMinusAssign, start)
		case '>':
			return l.op2(TokenArrow, start)
		}
		return l.op1(TokenMinus, start)
	case '*':
		if next == '=' {
			return l.op2(TokenStarAssign, start)
		}
		return l.op1(TokenStar, start)
	case '/':
		if next == '=' {
			return l.op2(TokenSlashAssign, start)
		}
		return l.op1(TokenSlash, start)
	case '%':
		if next == '=' {
			return l.op2(TokenPercentAssign, start)
		}
		return l.op1(TokenPercent, start)
	}

	_, size := utf8.DecodeRune(l.input[l.pos:])
	l.advanceN(size)
	return l.token(TokenError, start)
}

func (l *Lexer) op1(kind TokenKind, start Position) Token {
	l.advance()
	return l.token(kind, start)
}

func (l *Lexer) op2(kind TokenKind, start Position) Token {
	l.advanceN(2)
	return l.token(kind, start)
}

func (l *Lexer) token(kind TokenKind, start Position) Token {
	end := l.Position()
	return Token{
		Kind:    kind,
		Span:    Span{Start: start, End: end},
		Literal: string(l.input[start.Offset:end.Offset]),
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func isJavaLetter(r rune) bool {
	if r >= utf8.RuneSelf {
		return unicode.IsLetter(r)
	}
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_' || r == '$'
}

func isJavaLetterOrDigit(r rune) bool {
	if r >= utf8.RuneSelf {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}
	return isJavaLetter(r) || (r >= '0' && r <= '9')
}
