package queryir

import (
	"fmt"
	"strings"

	"github.com/roach88/metasql/internal/ir"
)

// Temporary selects the lifetime of a created or dropped table.
type Temporary int

const (
	TempNormal Temporary = iota
	TempLocal
	TempGlobal
)

// ParseTemporary maps "", "local", "global" (and "temporary"/"temp" as
// aliases for local) to a Temporary.
func ParseTemporary(s string) (Temporary, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return TempNormal, nil
	case "local", "temporary", "temp":
		return TempLocal, nil
	case "global":
		return TempGlobal, nil
	default:
		return TempNormal, fmt.Errorf("unknown temporary mode %q", s)
	}
}

// ColumnDefinition describes one table column.
//
// Length is the type's parameter list as written, e.g. "255" or "10,2".
// Default nil means no DEFAULT clause; ir.Func renders verbatim
// (CURRENT_TIMESTAMP), other values are escaped literals.
type ColumnDefinition struct {
	Name            string
	Type            string
	Length          string
	Nullable        bool
	AutoIncrement   bool
	Default         ir.Value
	IsPrimary       bool
	IsUnique        bool
	HasIndex        bool
	Check           string
	ReferenceTable  string
	ReferenceColumn string
}

// ColumnRequest is the kind of change an AlterTable applies to a column.
type ColumnRequest int

const (
	ColumnAdd ColumnRequest = iota
	ColumnDrop
	ColumnModify
	ColumnRename
)

// ParseColumnRequest maps "add", "drop", "modify", "rename".
func ParseColumnRequest(s string) (ColumnRequest, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "add":
		return ColumnAdd, nil
	case "drop":
		return ColumnDrop, nil
	case "modify", "change", "alter":
		return ColumnModify, nil
	case "rename":
		return ColumnRename, nil
	default:
		return ColumnAdd, fmt.Errorf("unknown column request %q", s)
	}
}

// ColumnChange is one column operation of an AlterTable.
// Drop and Rename only need Column.Name; Rename also needs NewName.
type ColumnChange struct {
	Request ColumnRequest
	Column  ColumnDefinition
	NewName string
}

// IndexKind identifies an index or table constraint. The *Key and *Index
// variants only differ in the MySQL keyword they render.
type IndexKind int

const (
	IndexPlain IndexKind = iota
	IndexKey
	IndexUnique
	IndexUniqueKey
	IndexUniqueIndex
	IndexFulltext
	IndexFulltextKey
	IndexFulltextIndex
	IndexSpatial
	IndexSpatialKey
	IndexSpatialIndex
	IndexPrimary
	IndexForeignKey
	IndexCheck
)

var indexCodes = map[string]IndexKind{
	"":               IndexPlain,
	"index":          IndexPlain,
	"key":            IndexKey,
	"unique":         IndexUnique,
	"unique-key":     IndexUniqueKey,
	"unique-index":   IndexUniqueIndex,
	"fulltext":       IndexFulltext,
	"fulltext-key":   IndexFulltextKey,
	"fulltext-index": IndexFulltextIndex,
	"spatial":        IndexSpatial,
	"spatial-key":    IndexSpatialKey,
	"spatial-index":  IndexSpatialIndex,
	"primary":        IndexPrimary,
	"primary-key":    IndexPrimary,
	"foreign":        IndexForeignKey,
	"foreign-key":    IndexForeignKey,
	"check":          IndexCheck,
}

// ParseIndexKind maps an index-kind code to an IndexKind.
func ParseIndexKind(code string) (IndexKind, error) {
	k, ok := indexCodes[strings.ToLower(strings.TrimSpace(code))]
	if !ok {
		return IndexPlain, fmt.Errorf("unknown index kind %q", code)
	}
	return k, nil
}

// IsUnique reports whether the kind is one of the unique variants.
func (k IndexKind) IsUnique() bool {
	return k == IndexUnique || k == IndexUniqueKey || k == IndexUniqueIndex
}

// IsFulltext reports whether the kind is one of the fulltext variants.
func (k IndexKind) IsFulltext() bool {
	return k == IndexFulltext || k == IndexFulltextKey || k == IndexFulltextIndex
}

// IsSpatial reports whether the kind is one of the spatial variants.
func (k IndexKind) IsSpatial() bool {
	return k == IndexSpatial || k == IndexSpatialKey || k == IndexSpatialIndex
}

// IsPlain reports whether the kind is a non-unique, non-special index.
func (k IndexKind) IsPlain() bool {
	return k == IndexPlain || k == IndexKey
}

// IsConstraint reports whether the kind is expressed as a table constraint
// (rather than an index) in standard SQL.
func (k IndexKind) IsConstraint() bool {
	return k == IndexPrimary || k == IndexForeignKey || k == IndexCheck || k.IsUnique()
}

// Request is the kind of change applied to an index in an AlterTable.
type Request int

const (
	RequestAdd Request = iota
	RequestDrop
	RequestRename
)

// ParseRequest maps "add", "drop", "rename".
func ParseRequest(s string) (Request, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "add":
		return RequestAdd, nil
	case "drop":
		return RequestDrop, nil
	case "rename":
		return RequestRename, nil
	default:
		return RequestAdd, fmt.Errorf("unknown index request %q", s)
	}
}

// IndexDefinition describes an index or table constraint.
type IndexDefinition struct {
	Name             string
	Kind             IndexKind
	Columns          []string
	Check            string
	ReferenceTable   string
	ReferenceColumns []string
	Request          Request
	NewName          string
}
