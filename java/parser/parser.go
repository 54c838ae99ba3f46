package parser

import (
	"fmt"
	"strings"

	"github.com/dhamidi/groom/java/tree"
)

// Result is what a parse hands to the rewrite passes.
type Result struct {
	Tree *tree.Tree
	// Qualified holds every dotted identifier chain referenced outside the
	// package and import declarations; Unqualified holds the first segment of
	// every chain. Both are ordered and free of duplicates.
	Qualified   []string
	Unqualified []string
	// LineEnding is the line terminator used by most lines of the source.
	LineEnding string
}

// SyntaxError reports the first token the parser could not place.
type SyntaxError struct {
	Pos Position
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: syntax error: %s", e.Pos, e.Msg)
}

type Option func(*Parser)

func WithFile(path string) Option {
	return func(p *Parser) {
		p.file = path
	}
}

type Parser struct {
	file   string
	input  []byte
	tokens []Token
	pos    int
	t      *tree.Tree

	// last leaf built, receives the same-line part of the next token's
	// hidden tokens
	lastLeaf tree.NodeID
}

type bailout struct{ err *SyntaxError }

// Parse parses a compilation unit. It satisfies the engine's parser contract.
func Parse(src []byte, filename string) (*Result, error) {
	return New(src, WithFile(filename)).Parse()
}

func New(src []byte, opts ...Option) *Parser {
	p := &Parser{input: src}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Parser) Parse() (res *Result, err error) {
	p.t = tree.New()
	p.tokens = NewLexer(p.input, p.file).Tokenize()
	p.pos = 0
	p.lastLeaf = tree.NoNode

	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			res, err = nil, b.err
		}
	}()

	root := p.parseCompilationUnit()
	p.t.SetRoot(root)
	hoistTrivia(p.t, root)
	qualified, unqualified := collectIdentifiers(p.t, root)
	return &Result{
		Tree:        p.t,
		Qualified:   qualified,
		Unqualified: unqualified,
		LineEnding:  DetectLineEnding(p.input),
	}, nil
}

func (p *Parser) fail(format string, args ...any) {
	tok := p.peek()
	msg := fmt.Sprintf(format, args...)
	if tok.Kind == TokenEOF {
		msg += ", got end of file"
	} else {
		msg += fmt.Sprintf(", got %q", tok.Literal)
	}
	panic(bailout{&SyntaxError{Pos: tok.Span.Start, Msg: msg}})
}

func (p *Parser) peek() Token {
	return p.peekN(0)
}

func (p *Parser) peekN(n int) Token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

func (p *Parser) check(kind TokenKind) bool {
	return p.peek().Kind == kind
}

func (p *Parser) match(kinds ...TokenKind) bool {
	for _, kind := range kinds {
		if p.check(kind) {
			return true
		}
	}
	return false
}

// checkWord reports whether the next token is the identifier word, used for
// contextual keywords.
func (p *Parser) checkWord(word string) bool {
	tok := p.peek()
	return tok.Kind == TokenIdent && tok.Literal == word
}

func (p *Parser) open(kind tree.Kind) tree.NodeID {
	tok := p.peek()
	return p.t.NewNode(kind, "", tok.Span.Start.Line, tok.Span.Start.Column)
}

// take consumes the next token as a leaf of parent.
func (p *Parser) take(parent tree.NodeID) tree.NodeID {
	return p.takeAs(parent, p.peek().Kind.TreeKind())
}

func (p *Parser) takeAs(parent tree.NodeID, kind tree.Kind) tree.NodeID {
	tok := p.peek()
	if tok.Kind == TokenEOF {
		p.fail("unexpected end of file")
	}
	if tok.Kind == TokenError {
		p.fail("invalid token")
	}
	p.pos++
	leaf := p.t.NewNode(kind, tok.Literal, tok.Span.Start.Line, tok.Span.Start.Column)
	p.attachHidden(leaf, tok.Hidden)
	p.lastLeaf = leaf
	p.t.Append(parent, leaf)
	return leaf
}

func (p *Parser) expect(parent tree.NodeID, kind TokenKind) tree.NodeID {
	if !p.check(kind) {
		p.fail("expected %s", kind)
	}
	return p.take(parent)
}

func (p *Parser) expectIdent(parent tree.NodeID) tree.NodeID {
	if !p.check(TokenIdent) {
		p.fail("expected identifier")
	}
	return p.take(parent)
}

func (p *Parser) parseCompilationUnit() tree.NodeID {
	root := p.open(tree.KindCompilationUnit)

	if p.isModuleDecl() {
		p.parseModuleDecl(root)
		p.finish(root)
		return root
	}

	if p.check(TokenPackage) || p.isAnnotatedPackage() {
		p.parsePackageDecl(root)
	}
	for p.check(TokenImport) || (p.check(TokenSemicolon) && p.peekN(1).Kind == TokenImport) {
		if p.check(TokenSemicolon) {
			p.parseEmptyDecl(root)
			continue
		}
		p.parseImportDecl(root)
	}
	for !p.check(TokenEOF) {
		if p.check(TokenSemicolon) {
			p.parseEmptyDecl(root)
			continue
		}
		p.parseTypeDecl(root, p.parseModifiers())
	}
	p.finish(root)
	return root
}

// finish hands the hidden tokens in front of EOF to the last leaf, or to the
// root when the file has no visible token.
func (p *Parser) finish(root tree.NodeID) {
	eof := p.peek()
	if p.lastLeaf == tree.NoNode {
		for _, h := range eof.Hidden {
			p.t.AddBefore(root, p.hidden(h))
		}
		return
	}
	for _, h := range eof.Hidden {
		p.t.AddAfter(p.lastLeaf, p.hidden(h))
	}
}

func (p *Parser) isModuleDecl() bool {
	i := p.skipAnnotations(0)
	tok := p.peekN(i)
	if tok.Kind == TokenIdent && tok.Literal == "open" {
		i++
		tok = p.peekN(i)
	}
	return tok.Kind == TokenIdent && tok.Literal == "module" && p.peekN(i+1).Kind == TokenIdent
}

// parseModuleDecl keeps a module declaration as a flat token run; no pass
// rewrites module-info files.
func (p *Parser) parseModuleDecl(root tree.NodeID) {
	mod := p.open(tree.KindModuleDecl)
	p.t.Append(root, mod)
	for !p.check(TokenEOF) {
		p.take(mod)
	}
}

func (p *Parser) isAnnotatedPackage() bool {
	if !p.check(TokenAt) || p.peekN(1).Kind == TokenInterface {
		return false
	}
	return p.peekN(p.skipAnnotations(0)).Kind == TokenPackage
}

func (p *Parser) parsePackageDecl(root tree.NodeID) {
	pkg := p.open(tree.KindPackageDecl)
	p.t.Append(root, pkg)
	for p.check(TokenAt) {
		p.parseAnnotation(pkg)
	}
	p.expect(pkg, TokenPackage)
	p.parseName(pkg)
	p.expect(pkg, TokenSemicolon)
}

func (p *Parser) parseImportDecl(root tree.NodeID) {
	imp := p.open(tree.KindImportDecl)
	p.t.Append(root, imp)
	p.expect(imp, TokenImport)
	if p.check(TokenStatic) {
		p.take(imp)
	}
	p.parseName(imp)
	if p.check(TokenDot) && p.peekN(1).Kind == TokenStar {
		p.take(imp)
		p.take(imp)
	}
	p.expect(imp, TokenSemicolon)
}

func (p *Parser) parseEmptyDecl(parent tree.NodeID) {
	n := p.open(tree.KindEmptyDecl)
	p.t.Append(parent, n)
	p.take(n)
}

// parseName parses Ident { "." Ident }, stopping in front of ".*".
func (p *Parser) parseName(parent tree.NodeID) tree.NodeID {
	name := p.open(tree.KindName)
	p.t.Append(parent, name)
	p.expectIdent(name)
	for p.check(TokenDot) && p.peekN(1).Kind == TokenIdent {
		p.take(name)
		p.take(name)
	}
	return name
}

// parseModifiers returns a detached Modifiers node; the caller links it into
// the declaration once the declaration kind is known.
func (p *Parser) parseModifiers() tree.NodeID {
	mods := p.open(tree.KindModifiers)
	for {
		switch {
		case modifierKinds[p.peek().Kind] && !(p.check(TokenDefault) && p.isDefaultLabel()):
			p.takeAs(mods, tree.KindKeyword)
		case p.check(TokenAt) && p.peekN(1).Kind != TokenInterface:
			p.parseAnnotation(mods)
		case p.isContextualModifier():
			p.takeAs(mods, tree.KindKeyword)
		default:
			return mods
		}
	}
}

func (p *Parser) isDefaultLabel() bool {
	next := p.peekN(1).Kind
	return next == TokenColon || next == TokenArrow
}

func (p *Parser) isContextualModifier() bool {
	if !p.checkWord("sealed") {
		return false
	}
	next := p.peekN(1)
	return next.Kind.IsKeyword() || next.Kind == TokenAt ||
		(next.Kind == TokenIdent && (next.Literal == "record" || next.Literal == "sealed"))
}

func (p *Parser) parseAnnotation(parent tree.NodeID) {
	ann := p.open(tree.KindAnnotation)
	p.t.Append(parent, ann)
	p.expect(ann, TokenAt)
	p.parseName(ann)
	if p.check(TokenLParen) {
		p.parseGroup(ann, tree.KindParens, TokenRParen)
	}
}

// isTypeDeclStart reports whether the next tokens start a class, interface,
// enum, record or annotation type after the modifiers.
func (p *Parser) isTypeDeclStart() bool {
	switch p.peek().Kind {
	case TokenClass, TokenInterface, TokenEnum:
		return true
	case TokenAt:
		return p.peekN(1).Kind == TokenInterface
	}
	return p.isRecordStart()
}

func (p *Parser) isRecordStart() bool {
	if !p.checkWord("record") || p.peekN(1).Kind != TokenIdent {
		return false
	}
	next := p.peekN(2).Kind
	return next == TokenLParen || next == TokenLT
}

func (p *Parser) parseTypeDecl(parent, mods tree.NodeID) tree.NodeID {
	var kind tree.Kind
	switch {
	case p.check(TokenClass):
		kind = tree.KindClassDecl
	case p.check(TokenInterface):
		kind = tree.KindInterfaceDecl
	case p.check(TokenEnum):
		kind = tree.KindEnumDecl
	case p.check(TokenAt) && p.peekN(1).Kind == TokenInterface:
		kind = tree.KindAnnotationDecl
	case p.isRecordStart():
		kind = tree.KindRecordDecl
	default:
		p.fail("expected type declaration")
	}

	decl := p.declNode(kind, mods)
	p.t.Append(parent, decl)

	switch kind {
	case tree.KindAnnotationDecl:
		p.take(decl)
		p.take(decl)
	case tree.KindRecordDecl:
		p.takeAs(decl, tree.KindKeyword)
	default:
		p.take(decl)
	}
	p.expectIdent(decl)

	if p.check(TokenLT) {
		p.parseTypeParameters(decl)
	}
	if kind == tree.KindRecordDecl {
		p.parseParameters(decl)
	}
	if p.check(TokenExtends) {
		p.parseTypeList(decl, tree.KindExtends)
	}
	if p.check(TokenImplements) {
		p.parseTypeList(decl, tree.KindImplements)
	}
	if p.checkWord("permits") {
		p.parseTypeList(decl, tree.KindPermits)
	}
	p.parseBody(decl, kind)
	return decl
}

// declNode opens a declaration node at the position of its first token and
// links the already parsed modifiers into it.
func (p *Parser) declNode(kind tree.Kind, mods tree.NodeID) tree.NodeID {
	decl := p.open(kind)
	if p.t.FirstChild(mods) != tree.NoNode {
		line, col := p.t.Pos(mods)
		p.t.SetPos(decl, line, col)
	}
	p.t.Append(decl, mods)
	return decl
}

func (p *Parser) parseTypeList(parent tree.NodeID, kind tree.Kind) {
	list := p.open(kind)
	p.t.Append(parent, list)
	p.takeAs(list, tree.KindKeyword)
	p.parseType(list)
	for p.check(TokenComma) {
		p.take(list)
		p.parseType(list)
	}
}

// parseTypeParameters keeps the parameter list as a flat token run. With no
// parent the node is returned detached.
func (p *Parser) parseTypeParameters(parent tree.NodeID) tree.NodeID {
	tp := p.open(tree.KindTypeParameters)
	if parent != tree.NoNode {
		p.t.Append(parent, tp)
	}
	p.expect(tp, TokenLT)
	depth := 1
	for depth > 0 {
		switch p.peek().Kind {
		case TokenLT:
			depth++
		case TokenGT:
			depth--
		case TokenEOF, TokenLBrace, TokenSemicolon:
			p.fail("unterminated type parameters")
		}
		if p.check(TokenAt) {
			p.parseAnnotation(tp)
			continue
		}
		p.take(tp)
	}
	return tp
}

// parseType parses an optionally annotated primitive or reference type with
// type arguments and array dimensions.
func (p *Parser) parseType(parent tree.NodeID) tree.NodeID {
	ty := p.open(tree.KindType)
	p.t.Append(parent, ty)
	for p.check(TokenAt) {
		p.parseAnnotation(ty)
	}
	switch {
	case primitiveKinds[p.peek().Kind]:
		p.take(ty)
	case p.check(TokenIdent):
		p.take(ty)
		if p.check(TokenLT) {
			p.parseTypeArguments(ty)
		}
		for p.check(TokenDot) && (p.peekN(1).Kind == TokenIdent || p.peekN(1).Kind == TokenAt) {
			p.take(ty)
			for p.check(TokenAt) {
				p.parseAnnotation(ty)
			}
			p.expectIdent(ty)
			if p.check(TokenLT) {
				p.parseTypeArguments(ty)
			}
		}
	default:
		p.fail("expected type")
	}
	p.parseDims(ty)
	return ty
}

func (p *Parser) parseDims(parent tree.NodeID) {
	for {
		i := p.skipAnnotations(0)
		if p.peekN(i).Kind != TokenLBracket || p.peekN(i+1).Kind != TokenRBracket {
			return
		}
		for p.check(TokenAt) {
			p.parseAnnotation(parent)
		}
		p.take(parent)
		p.take(parent)
	}
}

func (p *Parser) parseTypeArguments(parent tree.NodeID) {
	args := p.open(tree.KindTypeArguments)
	p.t.Append(parent, args)
	p.expect(args, TokenLT)
	for !p.check(TokenGT) {
		for p.check(TokenAt) {
			p.parseAnnotation(args)
		}
		if p.check(TokenQuestion) {
			p.take(args)
			if p.match(TokenExtends, TokenSuper) {
				p.take(args)
				p.parseType(args)
			}
		} else {
			p.parseType(args)
		}
		if !p.check(TokenComma) {
			break
		}
		p.take(args)
	}
	p.expect(args, TokenGT)
}

func (p *Parser) parseParameters(parent tree.NodeID) {
	params := p.open(tree.KindParameters)
	p.t.Append(parent, params)
	p.expect(params, TokenLParen)
	for !p.check(TokenRParen) {
		p.parseParameter(params)
		if !p.check(TokenComma) {
			break
		}
		p.take(params)
	}
	p.expect(params, TokenRParen)
}

func (p *Parser) parseParameter(parent tree.NodeID) {
	mods := p.parseModifiers()
	param := p.declNode(tree.KindParameter, mods)
	p.t.Append(parent, param)
	p.parseType(param)
	for p.check(TokenAt) {
		p.parseAnnotation(param)
	}
	if p.check(TokenEllipsis) {
		p.take(param)
	}
	// receiver parameter: Type [Outer .] this
	if p.check(TokenIdent) && p.peekN(1).Kind == TokenDot && p.peekN(2).Kind == TokenThis {
		p.take(param)
		p.take(param)
	}
	if p.check(TokenThis) {
		p.take(param)
		return
	}
	p.expectIdent(param)
	p.parseDims(param)
}

func (p *Parser) parseBody(parent tree.NodeID, owner tree.Kind) tree.NodeID {
	body := p.open(tree.KindBody)
	p.t.Append(parent, body)
	p.expect(body, TokenLBrace)
	if owner == tree.KindEnumDecl {
		p.parseEnumConstants(body)
	}
	for !p.check(TokenRBrace) {
		if p.check(TokenEOF) {
			p.fail("expected }")
		}
		p.parseMember(body, owner)
	}
	p.expect(body, TokenRBrace)
	return body
}

func (p *Parser) parseEnumConstants(body tree.NodeID) {
	for !p.match(TokenSemicolon, TokenRBrace) {
		mods := p.parseModifiers()
		c := p.declNode(tree.KindEnumConstant, mods)
		p.t.Append(body, c)
		p.expectIdent(c)
		if p.check(TokenLParen) {
			p.parseGroup(c, tree.KindParens, TokenRParen)
		}
		if p.check(TokenLBrace) {
			p.parseBody(c, tree.KindClassDecl)
		}
		if !p.check(TokenComma) {
			break
		}
		p.take(body)
	}
	if p.check(TokenSemicolon) {
		p.take(body)
	}
}

func (p *Parser) parseMember(body tree.NodeID, owner tree.Kind) {
	if p.check(TokenSemicolon) {
		p.parseEmptyDecl(body)
		return
	}
	if p.check(TokenLBrace) || (p.check(TokenStatic) && p.peekN(1).Kind == TokenLBrace) {
		mods := p.open(tree.KindModifiers)
		if p.check(TokenStatic) {
			p.take(mods)
		}
		init := p.declNode(tree.KindInitializer, mods)
		p.t.Append(body, init)
		p.parseBlock(init)
		return
	}

	mods := p.parseModifiers()
	if p.isTypeDeclStart() {
		p.parseTypeDecl(body, mods)
		return
	}

	var typeParams tree.NodeID
	if p.check(TokenLT) {
		typeParams = p.parseTypeParameters(tree.NoNode)
	}

	switch {
	case p.check(TokenIdent) && p.peekN(1).Kind == TokenLParen:
		p.parseConstructor(body, mods, typeParams)
	case owner == tree.KindRecordDecl && p.check(TokenIdent) && p.peekN(1).Kind == TokenLBrace:
		p.parseConstructor(body, mods, typeParams)
	default:
		p.parseMethodOrField(body, mods, typeParams)
	}
}

func (p *Parser) parseConstructor(body, mods, typeParams tree.NodeID) {
	ctor := p.declNode(tree.KindConstructorDecl, mods)
	p.t.Append(body, ctor)
	if typeParams != tree.NoNode {
		p.t.Append(ctor, typeParams)
	}
	p.expectIdent(ctor)
	if p.check(TokenLParen) {
		p.parseParameters(ctor)
	}
	if p.check(TokenThrows) {
		p.parseTypeList(ctor, tree.KindThrows)
	}
	p.parseBlock(ctor)
}

func (p *Parser) parseMethodOrField(body, mods, typeParams tree.NodeID) {
	if typeParams == tree.NoNode && !(p.check(TokenIdent) && p.peekN(1).Kind == TokenLParen) {
		if p.isFieldAhead() {
			p.parseField(body, mods)
			return
		}
	}
	m := p.declNode(tree.KindMethodDecl, mods)
	p.t.Append(body, m)
	if typeParams != tree.NoNode {
		p.t.Append(m, typeParams)
	}
	p.parseType(m)
	p.expectIdent(m)
	p.parseParameters(m)
	p.parseDims(m)
	if p.check(TokenThrows) {
		p.parseTypeList(m, tree.KindThrows)
	}
	if p.check(TokenDefault) {
		dv := p.open(tree.KindDefaultValue)
		p.t.Append(m, dv)
		p.take(dv)
		p.parseExpr(dv, stopAt(TokenSemicolon))
	}
	if p.check(TokenLBrace) {
		p.parseBlock(m)
		return
	}
	p.expect(m, TokenSemicolon)
}

// isFieldAhead reports whether a type followed by an identifier and then
// something other than "(" comes next.
func (p *Parser) isFieldAhead() bool {
	i, ok := p.skipType(0)
	if !ok || p.peekN(i).Kind != TokenIdent {
		return false
	}
	return p.peekN(i+1).Kind != TokenLParen
}

func (p *Parser) parseField(body, mods tree.NodeID) {
	f := p.declNode(tree.KindFieldDecl, mods)
	p.t.Append(body, f)
	p.parseVariables(f)
	p.expect(f, TokenSemicolon)
}

// parseVariables parses Type Variable {"," Variable}.
func (p *Parser) parseVariables(decl tree.NodeID) {
	p.parseType(decl)
	for {
		v := p.open(tree.KindVariable)
		p.t.Append(decl, v)
		p.expectIdent(v)
		p.parseDims(v)
		if p.check(TokenAssign) {
			p.take(v)
			if p.check(TokenLBrace) {
				p.parseGroup(v, tree.KindArrayInit, TokenRBrace)
			} else {
				p.parseExpr(v, stopAt(TokenComma, TokenSemicolon))
			}
		}
		if !p.check(TokenComma) {
			return
		}
		p.take(decl)
	}
}

// skipType scans a type starting n tokens ahead without building nodes and
// returns the offset just behind it.
func (p *Parser) skipType(n int) (int, bool) {
	i := p.skipAnnotations(n)
	tok := p.peekN(i)
	switch {
	case primitiveKinds[tok.Kind]:
		i++
	case tok.Kind == TokenIdent:
		i++
		var ok bool
		if i, ok = p.skipTypeArguments(i); !ok {
			return 0, false
		}
		for p.peekN(i).Kind == TokenDot && p.peekN(i+1).Kind == TokenIdent {
			i += 2
			if i, ok = p.skipTypeArguments(i); !ok {
				return 0, false
			}
		}
	default:
		return 0, false
	}
	for {
		j := p.skipAnnotations(i)
		if p.peekN(j).Kind != TokenLBracket || p.peekN(j+1).Kind != TokenRBracket {
			return i, true
		}
		i = j + 2
	}
}

func (p *Parser) skipTypeArguments(i int) (int, bool) {
	if p.peekN(i).Kind != TokenLT {
		return i, true
	}
	depth := 0
	for {
		switch tok := p.peekN(i); {
		case tok.Kind == TokenLT:
			depth++
		case tok.Kind == TokenGT:
			depth--
			if depth == 0 {
				return i + 1, true
			}
		case tok.Kind == TokenAt:
			i = p.skipAnnotations(i)
			continue
		case tok.Kind == TokenIdent, tok.Kind == TokenDot, tok.Kind == TokenComma,
			tok.Kind == TokenQuestion, tok.Kind == TokenExtends, tok.Kind == TokenSuper,
			tok.Kind == TokenBitAnd, tok.Kind == TokenLBracket, tok.Kind == TokenRBracket,
			primitiveKinds[tok.Kind]:
		default:
			return 0, false
		}
		i++
	}
}

// skipAnnotations returns the offset behind any annotations starting n
// tokens ahead. "@interface" is not an annotation.
func (p *Parser) skipAnnotations(n int) int {
	i := n
	for p.peekN(i).Kind == TokenAt && p.peekN(i+1).Kind == TokenIdent {
		i += 2
		for p.peekN(i).Kind == TokenDot && p.peekN(i+1).Kind == TokenIdent {
			i += 2
		}
		if p.peekN(i).Kind == TokenLParen {
			i = p.skipBalanced(i)
		}
	}
	return i
}

// skipBalanced skips a bracketed run starting at offset i.
func (p *Parser) skipBalanced(i int) int {
	depth := 0
	for {
		switch p.peekN(i).Kind {
		case TokenLParen, TokenLBracket, TokenLBrace:
			depth++
		case TokenRParen, TokenRBracket, TokenRBrace:
			depth--
			if depth == 0 {
				return i + 1
			}
		case TokenEOF:
			return i
		}
		i++
	}
}

func (p *Parser) parseBlock(parent tree.NodeID) tree.NodeID {
	block := p.open(tree.KindBlock)
	p.t.Append(parent, block)
	p.expect(block, TokenLBrace)
	for !p.check(TokenRBrace) {
		if p.check(TokenEOF) {
			p.fail("expected }")
		}
		p.parseStatement(block)
	}
	p.expect(block, TokenRBrace)
	return block
}

func (p *Parser) parseStatement(parent tree.NodeID) {
	switch p.peek().Kind {
	case TokenLBrace:
		p.parseBlock(parent)
	case TokenSemicolon:
		n := p.open(tree.KindEmptyStmt)
		p.t.Append(parent, n)
		p.take(n)
	case TokenIf:
		p.parseIf(parent)
	case TokenWhile:
		n := p.stmt(parent, tree.KindWhileStmt)
		p.parseGroup(n, tree.KindParens, TokenRParen)
		p.parseStatement(n)
	case TokenDo:
		n := p.stmt(parent, tree.KindDoStmt)
		p.parseStatement(n)
		p.expect(n, TokenWhile)
		p.parseGroup(n, tree.KindParens, TokenRParen)
		p.expect(n, TokenSemicolon)
	case TokenFor:
		n := p.stmt(parent, tree.KindForStmt)
		p.parseGroup(n, tree.KindParens, TokenRParen)
		p.parseStatement(n)
	case TokenSwitch:
		n := p.stmt(parent, tree.KindSwitchStmt)
		p.parseGroup(n, tree.KindParens, TokenRParen)
		p.parseSwitchBody(n)
	case TokenTry:
		p.parseTry(parent)
	case TokenReturn:
		n := p.stmt(parent, tree.KindReturnStmt)
		if !p.check(TokenSemicolon) {
			p.parseExpr(n, stopAt(TokenSemicolon))
		}
		p.expect(n, TokenSemicolon)
	case TokenThrow:
		n := p.stmt(parent, tree.KindThrowStmt)
		p.parseExpr(n, stopAt(TokenSemicolon))
		p.expect(n, TokenSemicolon)
	case TokenBreak, TokenContinue:
		kind := tree.KindBreakStmt
		if p.check(TokenContinue) {
			kind = tree.KindContinueStmt
		}
		n := p.stmt(parent, kind)
		if p.check(TokenIdent) {
			p.take(n)
		}
		p.expect(n, TokenSemicolon)
	case TokenSynchronized:
		n := p.stmt(parent, tree.KindSyncStmt)
		p.parseGroup(n, tree.KindParens, TokenRParen)
		p.parseBlock(n)
	case TokenAssert:
		n := p.stmt(parent, tree.KindAssertStmt)
		p.parseExpr(n, stopAt(TokenSemicolon))
		p.expect(n, TokenSemicolon)
	case TokenIdent:
		switch {
		case p.isYield():
			n := p.open(tree.KindYieldStmt)
			p.t.Append(parent, n)
			p.takeAs(n, tree.KindKeyword)
			p.parseExpr(n, stopAt(TokenSemicolon))
			p.expect(n, TokenSemicolon)
		case p.peekN(1).Kind == TokenColon:
			n := p.open(tree.KindLabeledStmt)
			p.t.Append(parent, n)
			p.take(n)
			p.take(n)
			p.parseStatement(n)
		default:
			p.parseLocalOrExpr(parent)
		}
	default:
		p.parseLocalOrExpr(parent)
	}
}

// stmt opens a statement node and consumes its leading keyword.
func (p *Parser) stmt(parent tree.NodeID, kind tree.Kind) tree.NodeID {
	n := p.open(kind)
	p.t.Append(parent, n)
	p.take(n)
	return n
}

func (p *Parser) isYield() bool {
	if !p.checkWord("yield") {
		return false
	}
	switch p.peekN(1).Kind {
	case TokenAssign, TokenDot, TokenLBracket, TokenIncrement, TokenDecrement,
		TokenPlusAssign, TokenMinusAssign, TokenStarAssign, TokenSlashAssign,
		TokenPercentAssign, TokenAndAssign, TokenOrAssign, TokenXorAssign, TokenShlAssign,
		TokenColon, TokenSemicolon, TokenArrow, TokenColonColon:
		return false
	}
	return true
}

func (p *Parser) parseIf(parent tree.NodeID) {
	n := p.stmt(parent, tree.KindIfStmt)
	p.parseGroup(n, tree.KindParens, TokenRParen)
	p.parseStatement(n)
	if p.check(TokenElse) {
		e := p.open(tree.KindElse)
		p.t.Append(n, e)
		p.take(e)
		p.parseStatement(e)
	}
}

func (p *Parser) parseTry(parent tree.NodeID) {
	n := p.stmt(parent, tree.KindTryStmt)
	if p.check(TokenLParen) {
		p.parseGroup(n, tree.KindResources, TokenRParen)
	}
	p.parseBlock(n)
	for p.check(TokenCatch) {
		c := p.open(tree.KindCatch)
		p.t.Append(n, c)
		p.take(c)
		p.parseGroup(c, tree.KindParens, TokenRParen)
		p.parseBlock(c)
	}
	if p.check(TokenFinally) {
		f := p.open(tree.KindFinally)
		p.t.Append(n, f)
		p.take(f)
		p.parseBlock(f)
	}
}

func (p *Parser) parseSwitchBody(parent tree.NodeID) {
	body := p.open(tree.KindSwitchBody)
	p.t.Append(parent, body)
	p.expect(body, TokenLBrace)
	for !p.check(TokenRBrace) {
		if !p.match(TokenCase, TokenDefault) {
			p.fail("expected case or default")
		}
		p.parseCase(body)
	}
	p.expect(body, TokenRBrace)
}

func (p *Parser) parseCase(body tree.NodeID) {
	c := p.open(tree.KindCase)
	p.t.Append(body, c)
	if p.check(TokenCase) {
		p.take(c)
		p.parseExpr(c, stopAt(TokenColon, TokenArrow))
	} else {
		p.take(c)
	}
	if p.check(TokenArrow) {
		p.take(c)
		switch {
		case p.check(TokenLBrace):
			p.parseBlock(c)
		case p.check(TokenThrow):
			p.parseStatement(c)
		default:
			n := p.open(tree.KindExprStmt)
			p.t.Append(c, n)
			p.parseExpr(n, stopAt(TokenSemicolon))
			p.expect(n, TokenSemicolon)
		}
		return
	}
	p.expect(c, TokenColon)
	for !p.match(TokenCase, TokenRBrace) && !(p.check(TokenDefault) && p.isDefaultLabel()) {
		if p.check(TokenEOF) {
			p.fail("expected }")
		}
		p.parseStatement(c)
	}
}

func (p *Parser) parseLocalOrExpr(parent tree.NodeID) {
	if p.isLocalTypeDecl() || p.isLocalVarDecl() {
		p.parseLocalDecl(parent)
		return
	}
	n := p.open(tree.KindExprStmt)
	p.t.Append(parent, n)
	p.parseExpr(n, stopAt(TokenSemicolon))
	p.expect(n, TokenSemicolon)
}

func (p *Parser) isLocalTypeDecl() bool {
	i := 0
	for {
		tok := p.peekN(i)
		switch {
		case tok.Kind == TokenAt:
			j := p.skipAnnotations(i)
			if j == i {
				return false
			}
			i = j
		case tok.Kind == TokenFinal || tok.Kind == TokenAbstract || tok.Kind == TokenStatic ||
			tok.Kind == TokenStrictfp || tok.Kind == TokenNonSealed ||
			(tok.Kind == TokenIdent && tok.Literal == "sealed" && p.peekN(i+1).Kind.IsKeyword()):
			i++
		case tok.Kind == TokenClass || tok.Kind == TokenInterface || tok.Kind == TokenEnum:
			return true
		case tok.Kind == TokenIdent && tok.Literal == "record":
			next := p.peekN(i + 2).Kind
			return p.peekN(i+1).Kind == TokenIdent && (next == TokenLParen || next == TokenLT)
		default:
			return false
		}
	}
}

func (p *Parser) isLocalVarDecl() bool {
	i := 0
	for {
		tok := p.peekN(i)
		if tok.Kind == TokenFinal {
			i++
			continue
		}
		if tok.Kind == TokenAt {
			j := p.skipAnnotations(i)
			if j == i {
				return false
			}
			i = j
			continue
		}
		break
	}
	i, ok := p.skipType(i)
	if !ok || p.peekN(i).Kind != TokenIdent {
		return false
	}
	switch p.peekN(i + 1).Kind {
	case TokenAssign, TokenSemicolon, TokenComma, TokenLBracket:
		return true
	}
	return false
}

func (p *Parser) parseLocalDecl(parent tree.NodeID) {
	mods := p.parseModifiers()
	if p.isTypeDeclStart() {
		p.parseTypeDecl(parent, mods)
		return
	}
	n := p.declNode(tree.KindLocalVar, mods)
	p.t.Append(parent, n)
	p.parseVariables(n)
	p.expect(n, TokenSemicolon)
}

type stopFunc func(Token) bool

func stopAt(kinds ...TokenKind) stopFunc {
	return func(tok Token) bool {
		for _, k := range kinds {
			if tok.Kind == k {
				return true
			}
		}
		return false
	}
}

// parseExpr builds a flat Expr node. Brackets become nested groups; a brace
// opens a lambda block, an anonymous class body, a switch body or an array
// initializer depending on what precedes it.
func (p *Parser) parseExpr(parent tree.NodeID, stop stopFunc) tree.NodeID {
	expr := p.open(tree.KindExpr)
	p.t.Append(parent, expr)
	p.parseElements(expr, stop)
	if p.t.FirstChild(expr) == tree.NoNode {
		p.fail("expected expression")
	}
	return expr
}

func (p *Parser) parseElements(parent tree.NodeID, stop stopFunc) {
	sawNew := false
	for {
		tok := p.peek()
		if stop(tok) {
			return
		}
		switch tok.Kind {
		case TokenEOF:
			p.fail("unexpected end of file in expression")
		case TokenRParen, TokenRBracket, TokenRBrace:
			return
		case TokenLParen:
			p.parseGroup(parent, tree.KindParens, TokenRParen)
		case TokenLBracket:
			p.parseGroup(parent, tree.KindBrackets, TokenRBracket)
		case TokenLBrace:
			p.parseBrace(parent, sawNew)
			sawNew = false
		case TokenNew:
			sawNew = true
			p.take(parent)
		default:
			p.take(parent)
		}
	}
}

func (p *Parser) parseBrace(parent tree.NodeID, sawNew bool) {
	last := p.t.LastChild(parent)
	switch {
	case last != tree.NoNode && p.t.Token(last) == "->":
		p.parseBlock(parent)
	case last != tree.NoNode && p.t.Kind(last) == tree.KindParens:
		before := p.t.Prev(last)
		if before != tree.NoNode && p.t.Token(before) == "switch" {
			p.parseSwitchBody(parent)
			return
		}
		if sawNew {
			p.parseBody(parent, tree.KindClassDecl)
			return
		}
		p.parseGroup(parent, tree.KindArrayInit, TokenRBrace)
	default:
		p.parseGroup(parent, tree.KindArrayInit, TokenRBrace)
	}
}

// parseGroup parses a bracketed run of expression elements into a node of
// the given kind; the brackets are the first and last leaves.
func (p *Parser) parseGroup(parent tree.NodeID, kind tree.Kind, closer TokenKind) tree.NodeID {
	g := p.open(kind)
	p.t.Append(parent, g)
	p.take(g)
	p.parseElements(g, func(Token) bool { return false })
	p.expect(g, closer)
	return g
}

// attachHidden splits the hidden tokens in front of a leaf: everything up to
// and including the first line break trails the previous leaf, the rest
// leads this one.
func (p *Parser) attachHidden(leaf tree.NodeID, hidden []Token) {
	if p.lastLeaf == tree.NoNode {
		for _, h := range hidden {
			p.t.AddBefore(leaf, p.hidden(h))
		}
		return
	}
	for i, h := range hidden {
		nl := -1
		if h.Kind == TokenWhitespace {
			nl = lineBreak(h.Literal)
		}
		if nl < 0 {
			p.t.AddAfter(p.lastLeaf, p.hidden(h))
			continue
		}
		line, col := h.Span.Start.Line, h.Span.Start.Column
		p.t.AddAfter(p.lastLeaf, p.t.NewHiddenAt(tree.HiddenWhitespace, h.Literal[:nl], line, col))
		if rest := h.Literal[nl:]; rest != "" {
			p.t.AddBefore(leaf, p.t.NewHiddenAt(tree.HiddenWhitespace, rest, line+1, 1))
		}
		for _, h := range hidden[i+1:] {
			p.t.AddBefore(leaf, p.hidden(h))
		}
		return
	}
}

// lineBreak returns the offset just behind the first line break in s, or -1.
func lineBreak(s string) int {
	i := strings.IndexAny(s, "\r\n")
	if i < 0 {
		return -1
	}
	if s[i] == '\r' && i+1 < len(s) && s[i+1] == '\n' {
		return i + 2
	}
	return i + 1
}

func (p *Parser) hidden(tok Token) tree.HiddenID {
	var kind tree.HiddenKind
	switch tok.Kind {
	case TokenWhitespace:
		kind = tree.HiddenWhitespace
	case TokenLineComment:
		kind = tree.HiddenLineComment
		if strings.HasPrefix(tok.Literal, "//~") {
			kind = tree.HiddenBanner
		}
	case TokenDocComment:
		kind = tree.HiddenDocComment
	default:
		kind = tree.HiddenBlockComment
	}
	return p.t.NewHiddenAt(kind, tok.Literal, tok.Span.Start.Line, tok.Span.Start.Column)
}

// DetectLineEnding returns the line terminator used by most lines of src,
// "\n" when there is none.
func DetectLineEnding(src []byte) string {
	var crlf, lf, cr int
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '\r':
			if i+1 < len(src) && src[i+1] == '\n' {
				crlf++
				i++
			} else {
				cr++
			}
		case '\n':
			lf++
		}
	}
	switch {
	case crlf > lf && crlf >= cr:
		return "\r\n"
	case cr > lf && cr > crlf:
		return "\r"
	default:
		return "\n"
	}
}
