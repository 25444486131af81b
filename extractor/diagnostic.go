package extractor

import "fmt"

// Diagnostic is a schema-time validation failure. It never aborts the
// whole generation run: the offending message is excluded from the
// schema and the generator moves on (spec §4.4, §4.6). The exceptions
// are a bad derived edge, which drops only that edge, and a tag shared
// between own fields and derived edges, which leaves the message in
// the schema (see Extract).
type Diagnostic struct {
	Message string // qualified name of the message the diagnostic concerns
	Field   string // field name, empty for message-level diagnostics
	Reason  string
}

func (d Diagnostic) String() string {
	if d.Field == "" {
		return fmt.Sprintf("%s: %s", d.Message, d.Reason)
	}
	return fmt.Sprintf("%s.%s: %s", d.Message, d.Field, d.Reason)
}
