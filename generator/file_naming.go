package generator

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FileNaming computes the output file name for a .proto input,
// following protoc-gen-go's own convention: strip .proto, append the
// generator's own suffix.
type FileNaming struct{}

func NewFileNaming() *FileNaming {
	return &FileNaming{}
}

// GenerateOutputFileName returns e.g. "catalog/item.proto" -> "catalog/item.pb.bcl.go".
func (fn *FileNaming) GenerateOutputFileName(protoFileName string) string {
	dir := filepath.Dir(protoFileName)
	base := strings.TrimSuffix(filepath.Base(protoFileName), ".proto")
	if dir == "." {
		return fmt.Sprintf("%s.pb.bcl.go", base)
	}
	return fmt.Sprintf("%s/%s.pb.bcl.go", dir, base)
}
