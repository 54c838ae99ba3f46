// Package parser turns Java source into a tree.Tree.
//
// # Overview
//
// The lexer keeps every byte of the input: whitespace and comments come out
// as tokens like any other. The parser builds declarations and statements as
// structured nodes and keeps expressions as flat token runs with nested
// bracket groups, which is all the rewrite passes need.
//
//	┌─────────────┐     ┌─────────────┐     ┌─────────────┐
//	│   Input     │────▶│   Lexer     │────▶│   Parser    │
//	│  (bytes)    │     │  (tokens)   │     │ (tree.Tree) │
//	└─────────────┘     └─────────────┘     └─────────────┘
//
// # Hidden tokens
//
// Whitespace and comments between two visible tokens are split at the first
// line break. The part up to and including the line break trails the earlier
// token; the rest leads the later one. After parsing, the chains at the edges
// of declarations, imports and statements are hoisted onto those nodes, so
// moving a member moves its comments with it.
//
// Rendering every leaf with its hidden tokens reproduces the input byte for
// byte.
//
// # Identifier lists
//
// Besides the tree, a parse yields the identifier chains referenced outside
// the package and import declarations (see Result). Import normalization
// decides which imports are used from these lists alone.
package parser
