package common

// WipeByteArray overwrites b with zeros. It is a no-op for nil slices.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
