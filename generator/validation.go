package generator

import "errors"

// checkSyntaxVersion validates the protobuf syntax version: this
// generator only understands proto3's field presence and map-entry
// conventions.
func checkSyntaxVersion(v string) error {
	if v != "proto3" {
		return errors.New("must use syntax = \"proto3\";")
	}
	return nil
}
