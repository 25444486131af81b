// protoc-gen-bcl is a protoc plugin: protoc invokes it with a
// serialized CodeGeneratorRequest on stdin and expects a serialized
// CodeGeneratorResponse on stdout (spec §1, §6).
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/pluginpb"

	"github.com/bclproto/bclproto/extractor"
	"github.com/bclproto/bclproto/generator"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ERROR: protoc-gen-bcl: %v", err)
		os.Exit(1)
	}
}

func run() error {
	input, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("reading request: %w", err)
	}

	req := &pluginpb.CodeGeneratorRequest{}
	if err := proto.Unmarshal(input, req); err != nil {
		return fmt.Errorf("unmarshaling request: %w", err)
	}

	// The annotation catalog that carries data_form/packed/
	// collection_kind/derived/tuple is built upstream of protoc from
	// the user's own source-level attributes (out of scope for this
	// generator, spec §1) and is not wired into the stdin protocol
	// here; callers embedding this generator directly should use
	// generator.Generate with their own catalog instead of this CLI
	// entry point.
	resp, err := generator.Generate(req, extractor.NewAnnotationCatalog())
	if err != nil {
		resp = &pluginpb.CodeGeneratorResponse{Error: proto.String(err.Error())}
	}

	out, err := proto.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshaling response: %w", err)
	}
	if _, err := os.Stdout.Write(out); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}
	return nil
}
