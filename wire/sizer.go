package wire

// SizeCalculator mirrors StreamWriter's API but only accumulates the
// byte count an equivalent write would produce — it never allocates
// or touches a sink. Generated SizeOf<M> routines use it to compute
// sub-message lengths up front, which is what lets Write<M> emit a
// precise length prefix without ever back-patching (spec §4.2
// "size-prefix problem", strategy 1).
type SizeCalculator struct {
	n int
}

// NewSizeCalculator returns a zeroed SizeCalculator.
func NewSizeCalculator() *SizeCalculator {
	return &SizeCalculator{}
}

// Size returns the accumulated byte count.
func (s *SizeCalculator) Size() int {
	return s.n
}

// Reset zeroes the accumulator for reuse.
func (s *SizeCalculator) Reset() {
	s.n = 0
}

// SizeOfVarint64 returns the number of bytes a base-128 varint
// encoding of v occupies.
func SizeOfVarint64(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// SizeOfTag returns the encoded size of a (field_number, wire_type)
// tag.
func SizeOfTag(fieldNumber int32, wt WireType) int {
	return SizeOfVarint64((uint64(fieldNumber) << 3) | uint64(wt))
}

// AddTag accounts for a field tag.
func (s *SizeCalculator) AddTag(fieldNumber int32, wt WireType) {
	s.n += SizeOfTag(fieldNumber, wt)
}

// AddVarint64 accounts for a 64-bit varint.
func (s *SizeCalculator) AddVarint64(v uint64) {
	s.n += SizeOfVarint64(v)
}

// AddVarint32 accounts for a 32-bit varint, zero-extended to 64 bits
// per the reference implementation's convention.
func (s *SizeCalculator) AddVarint32(v uint32) {
	s.n += SizeOfVarint64(uint64(v))
}

// AddZigZag64 accounts for a zigzag-mapped 64-bit signed integer.
func (s *SizeCalculator) AddZigZag64(v int64) {
	s.n += SizeOfVarint64(uint64(v<<1) ^ uint64(v>>63))
}

// AddZigZag32 accounts for a zigzag-mapped 32-bit signed integer.
func (s *SizeCalculator) AddZigZag32(v int32) {
	s.n += SizeOfVarint64(uint64(uint32(v<<1) ^ uint32(v>>31)))
}

// AddBool accounts for a one-byte varint boolean.
func (s *SizeCalculator) AddBool() {
	s.n++
}

// AddChar16 accounts for a 16-bit character encoded as a varint.
func (s *SizeCalculator) AddChar16(v uint16) {
	s.n += SizeOfVarint64(uint64(v))
}

// AddFixed32 accounts for 4 fixed-width bytes.
func (s *SizeCalculator) AddFixed32() {
	s.n += 4
}

// AddFixed64 accounts for 8 fixed-width bytes.
func (s *SizeCalculator) AddFixed64() {
	s.n += 8
}

// AddFloat32 accounts for an IEEE-754 32-bit float.
func (s *SizeCalculator) AddFloat32() {
	s.AddFixed32()
}

// AddFloat64 accounts for an IEEE-754 64-bit float.
func (s *SizeCalculator) AddFloat64() {
	s.AddFixed64()
}

// AddRaw accounts for n bytes whose encoding the caller already
// computed itself — used by generated code to fold a nested message's
// or map entry's precomputed body length into the running total.
func (s *SizeCalculator) AddRaw(n int) {
	s.n += n
}

// AddLengthDelimitedHeader accounts for the varint length prefix of a
// length-delimited field whose body is n bytes.
func (s *SizeCalculator) AddLengthDelimitedHeader(n int) {
	s.n += SizeOfVarint64(uint64(n))
}

// AddBytesField accounts for a length-delimited bytes field: its
// length prefix plus its raw bytes.
func (s *SizeCalculator) AddBytesField(p []byte) {
	s.AddLengthDelimitedHeader(len(p))
	s.n += len(p)
}

// AddString accounts for a length-delimited UTF-8 string: its length
// prefix plus its encoded bytes.
func (s *SizeCalculator) AddString(str string) {
	s.AddLengthDelimitedHeader(len(str))
	s.n += len(str)
}
