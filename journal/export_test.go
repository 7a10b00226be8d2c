package journal

// Seq returns the sequence number of p.
func Seq(p Position) uint64 {
	return p.seq
}

// AppendFrame appends the encoded frame of a record to b.
func AppendFrame(b []byte, seq uint64, payload []byte) []byte {
	return appendFrame(b, seq, payload)
}
