package insts

// bits extracts a size-wide field starting at bit position start.
func bits(word uint32, start, size uint) uint32 {
	return (word >> start) & (1<<size - 1)
}

// signExtend sign-extends a width-bit value to int64.
func signExtend(value uint32, width uint) int64 {
	shift := 64 - width
	return int64(uint64(value)<<shift) >> shift
}
