package generator

import "strings"

// packageToGoPackage converts a proto package name into a Go package
// name suitable for a generated file's `package` clause: the last
// dotted segment, lowercased, with underscores removed.
// Example: "bcl.catalog.v1" -> "v1".
func packageToGoPackage(protoPackage string) string {
	if protoPackage == "" {
		return "bclgen"
	}
	parts := strings.Split(protoPackage, ".")
	last := parts[len(parts)-1]
	last = strings.ReplaceAll(last, "_", "")
	return sanitizeKeyword(strings.ToLower(last))
}
