package compiler

import (
	"errors"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/metasql/internal/queryir"
)

// CompileCUE compiles a CUE value holding one query document.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// Document errors carry the position of the offending field:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`operation: "select", tables: ["users"]`)
//	stmt, err := CompileCUE(v, nest)
func CompileCUE(v cue.Value, nest Nester) (queryir.Statement, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	// Documents must be concrete; constraints without values are errors.
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var doc map[string]any
	if err := v.Decode(&doc); err != nil {
		return nil, formatCUEError(err)
	}

	stmt, err := Compile(doc, nest)
	if err != nil {
		return nil, withPosition(v, err)
	}
	return stmt, nil
}

// CompileCUEBytes compiles CUE source. filename only labels positions.
func CompileCUEBytes(filename string, data []byte, nest Nester) (queryir.Statement, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	return CompileCUE(v, nest)
}

// withPosition sets the source position of a CompileError from the field
// path it names, falling back to the closest existing parent.
func withPosition(v cue.Value, err error) error {
	var ce *CompileError
	if !errors.As(err, &ce) || ce.Pos.IsValid() {
		return err
	}
	for field := ce.Field; field != ""; field = parent(field) {
		p := cue.ParsePath(field)
		if p.Err() != nil {
			continue
		}
		if fv := v.LookupPath(p); fv.Exists() {
			ce.Pos = fv.Pos()
			return ce
		}
	}
	ce.Pos = v.Pos()
	return ce
}

// parent drops the last selector of a field path: "a.b[1]" -> "a.b" -> "a".
func parent(field string) string {
	for i := len(field) - 1; i >= 0; i-- {
		if field[i] == '.' || field[i] == '[' {
			return field[:i]
		}
	}
	return ""
}
