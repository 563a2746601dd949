package compiler

import (
	"gopkg.in/yaml.v3"

	"github.com/roach88/metasql/internal/queryir"
)

// CompileYAML compiles a YAML query document.
func CompileYAML(data []byte, nest Nester) (queryir.Statement, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &CompileError{Field: "yaml", Message: err.Error()}
	}
	if doc == nil {
		return nil, &CompileError{Field: "yaml", Message: "empty document"}
	}
	return Compile(doc, nest)
}
