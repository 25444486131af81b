package generator

import "sort"

// ImportManager tracks the set of import paths one generated file
// needs and renders them as a single deduplicated, sorted import
// block.
type ImportManager struct {
	paths map[string]bool
}

func NewImportManager() *ImportManager {
	return &ImportManager{paths: make(map[string]bool)}
}

func (im *ImportManager) Add(path string) {
	im.paths[path] = true
}

// GenerateImports writes the `import (...)` block to b, or nothing if
// no imports were requested.
func (im *ImportManager) GenerateImports(b *WriteableBuffer) {
	if len(im.paths) == 0 {
		return
	}
	ordered := make([]string, 0, len(im.paths))
	for p := range im.paths {
		ordered = append(ordered, p)
	}
	sort.Strings(ordered)

	if len(ordered) == 1 {
		b.P("import %q", ordered[0])
		b.P0()
		return
	}
	b.P("import (")
	b.Indent()
	for _, p := range ordered {
		b.P("%q", p)
	}
	b.Unindent()
	b.P(")")
	b.P0()
}
