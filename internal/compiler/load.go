package compiler

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/roach88/metasql/internal/queryir"
)

// CompileFile reads a query document from fs and compiles it by extension:
// .yaml/.yml as YAML, .cue as CUE.
func CompileFile(fs afero.Fs, path string, nest Nester) (queryir.Statement, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read query document: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return CompileYAML(data, nest)
	case ".cue":
		return CompileCUEBytes(path, data, nest)
	default:
		return nil, fmt.Errorf("unsupported query document %q: want .yaml, .yml or .cue", path)
	}
}
