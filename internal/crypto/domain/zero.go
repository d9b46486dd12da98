package domain

// Zero overwrites a byte slice with zero bytes to clear key material from
// memory. The overwrite is unconditional and covers every byte, so a caller
// never observes a partially cleared key.
func Zero(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}
