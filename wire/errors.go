package wire

import "errors"

// ErrTruncatedInput is returned when a primitive read runs out of
// bytes before it can complete.
var ErrTruncatedInput = errors.New("wire: truncated input")

// ErrMalformed is returned when the bytes on the wire are
// structurally invalid: a varint wider than its declared width, or a
// wire type outside {0,1,2,5}.
var ErrMalformed = errors.New("wire: malformed input")

// ErrLimitExceeded is returned when a length prefix would read past
// the end of the enclosing view.
var ErrLimitExceeded = errors.New("wire: length prefix exceeds enclosing view")

// ErrIntegerOverflow is returned when a varint decodes to a value
// that overflows the requested integer width.
var ErrIntegerOverflow = errors.New("wire: integer overflow")
