// Package macro resolves portable function markers embedded in SQL text.
//
// A marker is the Marker character followed by an identifier and an
// optional parenthesized argument list:
//
//	&CurrentTimestamp
//	&DateAdd(created_at, 7, 'd')
//	&Max(&Sum(amount))
//
// Resolve hands each marker to a Translator, normally the active SQL
// dialect, and splices the returned fragment into the text. Scanning
// restarts one character past the start of every splice, so a marker left
// unresolved inside another marker's arguments is found on a later step of
// the same scan. Nested calls resolve without the resolver recursing.
//
// Two consecutive markers are an escape. They are skipped during the scan
// and collapsed to a single literal marker once scanning is complete. Use
// Escape on any text that must reach the database unchanged.
//
// Unknown markers pass through untouched. Remaining reports the markers that
// a translator left unresolved so tests and tooling can flag them.
package macro
