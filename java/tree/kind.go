package tree

// Kind tags a node. The set is closed: passes switch over it and the
// parser never produces a kind outside this list.
type Kind uint16

const (
	KindInvalid Kind = iota

	// Compilation unit level
	KindCompilationUnit
	KindPackageDecl
	KindImportDecl
	KindName
	KindModuleDecl

	// Type declarations
	KindClassDecl
	KindInterfaceDecl
	KindEnumDecl
	KindRecordDecl
	KindAnnotationDecl
	KindBody
	KindEnumConstant

	// Members
	KindFieldDecl
	KindMethodDecl
	KindConstructorDecl
	KindInitializer
	KindEmptyDecl

	// Declaration parts
	KindModifiers
	KindAnnotation
	KindTypeParameters
	KindType
	KindExtends
	KindImplements
	KindPermits
	KindThrows
	KindParameters
	KindParameter
	KindVariable
	KindDefaultValue

	// Statements
	KindBlock
	KindLocalVar
	KindExprStmt
	KindIfStmt
	KindElse
	KindWhileStmt
	KindDoStmt
	KindForStmt
	KindSwitchStmt
	KindSwitchBody
	KindCase
	KindTryStmt
	KindResources
	KindCatch
	KindFinally
	KindReturnStmt
	KindThrowStmt
	KindBreakStmt
	KindContinueStmt
	KindYieldStmt
	KindSyncStmt
	KindLabeledStmt
	KindAssertStmt
	KindEmptyStmt

	// Expressions
	KindExpr
	KindParens
	KindBrackets
	KindArrayInit
	KindTypeArguments

	// Tokens
	KindIdent
	KindKeyword
	KindLiteral
	KindOperator
	KindSeparator

	kindCount
)

var kindNames = [...]string{
	KindInvalid:         "Invalid",
	KindCompilationUnit: "CompilationUnit",
	KindPackageDecl:     "PackageDecl",
	KindImportDecl:      "ImportDecl",
	KindName:            "Name",
	KindModuleDecl:      "ModuleDecl",
	KindClassDecl:       "ClassDecl",
	KindInterfaceDecl:   "InterfaceDecl",
	KindEnumDecl:        "EnumDecl",
	KindRecordDecl:      "RecordDecl",
	KindAnnotationDecl:  "AnnotationDecl",
	KindBody:            "Body",
	KindEnumConstant:    "EnumConstant",
	KindFieldDecl:       "FieldDecl",
	KindMethodDecl:      "MethodDecl",
	KindConstructorDecl: "ConstructorDecl",
	KindInitializer:     "Initializer",
	KindEmptyDecl:       "EmptyDecl",
	KindModifiers:       "Modifiers",
	KindAnnotation:      "Annotation",
	KindTypeParameters:  "TypeParameters",
	KindType:            "Type",
	KindExtends:         "Extends",
	KindImplements:      "Implements",
	KindPermits:         "Permits",
	KindThrows:          "Throws",
	KindParameters:      "Parameters",
	KindParameter:       "Parameter",
	KindVariable:        "Variable",
	KindDefaultValue:    "DefaultValue",
	KindBlock:           "Block",
	KindLocalVar:        "LocalVar",
	KindExprStmt:        "ExprStmt",
	KindIfStmt:          "IfStmt",
	KindElse:            "Else",
	KindWhileStmt:       "WhileStmt",
	KindDoStmt:          "DoStmt",
	KindForStmt:         "ForStmt",
	KindSwitchStmt:      "SwitchStmt",
	KindSwitchBody:      "SwitchBody",
	KindCase:            "Case",
	KindTryStmt:         "TryStmt",
	KindResources:       "Resources",
	KindCatch:           "Catch",
	KindFinally:         "Finally",
	KindReturnStmt:      "ReturnStmt",
	KindThrowStmt:       "ThrowStmt",
	KindBreakStmt:       "BreakStmt",
	KindContinueStmt:    "ContinueStmt",
	KindYieldStmt:       "YieldStmt",
	KindSyncStmt:        "SyncStmt",
	KindLabeledStmt:     "LabeledStmt",
	KindAssertStmt:      "AssertStmt",
	KindEmptyStmt:       "EmptyStmt",
	KindExpr:            "Expr",
	KindParens:          "Parens",
	KindBrackets:        "Brackets",
	KindArrayInit:       "ArrayInit",
	KindTypeArguments:   "TypeArguments",
	KindIdent:           "Ident",
	KindKeyword:         "Keyword",
	KindLiteral:         "Literal",
	KindOperator:        "Operator",
	KindSeparator:       "Separator",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return "Unknown"
}

// IsToken reports whether nodes of this kind carry source text and no children.
func (k Kind) IsToken() bool {
	switch k {
	case KindIdent, KindKeyword, KindLiteral, KindOperator, KindSeparator:
		return true
	}
	return false
}

func (k Kind) IsTypeDecl() bool {
	switch k {
	case KindClassDecl, KindInterfaceDecl, KindEnumDecl, KindRecordDecl, KindAnnotationDecl:
		return true
	}
	return false
}

// IsMember reports whether the kind may appear as a member of a type body.
func (k Kind) IsMember() bool {
	switch k {
	case KindFieldDecl, KindMethodDecl, KindConstructorDecl, KindInitializer, KindEmptyDecl:
		return true
	}
	return k.IsTypeDecl()
}

func (k Kind) IsStatement() bool {
	switch k {
	case KindBlock, KindLocalVar, KindExprStmt, KindIfStmt, KindWhileStmt,
		KindDoStmt, KindForStmt, KindSwitchStmt, KindTryStmt, KindReturnStmt, KindThrowStmt,
		KindBreakStmt, KindContinueStmt, KindYieldStmt, KindSyncStmt, KindLabeledStmt,
		KindAssertStmt, KindEmptyStmt:
		return true
	}
	return false
}

// HiddenKind tags a hidden token.
type HiddenKind uint8

const (
	HiddenWhitespace HiddenKind = iota
	HiddenLineComment
	HiddenBlockComment
	HiddenDocComment
	HiddenBanner
)

func (k HiddenKind) String() string {
	switch k {
	case HiddenWhitespace:
		return "Whitespace"
	case HiddenLineComment:
		return "LineComment"
	case HiddenBlockComment:
		return "BlockComment"
	case HiddenDocComment:
		return "DocComment"
	case HiddenBanner:
		return "Banner"
	}
	return "Unknown"
}

// IsComment reports whether the hidden token is any kind of comment.
func (k HiddenKind) IsComment() bool {
	return k != HiddenWhitespace
}
