// Package ir provides the literal value model shared by the query IR,
// the dialect renderers and the builder.
//
// This package contains value types only. Every other internal package
// imports ir; ir imports nothing internal.
//
// Key design constraints:
//   - Value is a sealed interface; renderers switch over it exhaustively
//   - Strings are NFC normalized before they are escaped into SQL text
//   - Func carries raw SQL and is the only value emitted verbatim
package ir
