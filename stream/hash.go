package stream

import (
	"github.com/zeebo/blake3"
)

// Digest returns the hex BLAKE3 digest of the block body. Two blocks with
// the same digest hold byte-identical snapshots.
func (b *Block) Digest() string {
	return HashToHex(DigestBytes([]byte(b.Body)))
}

// DigestBytes computes BLAKE3-256 of raw bytes.
func DigestBytes(data []byte) [32]byte {
	return blake3.Sum256(data)
}

// HashToHex converts a 32-byte hash to lowercase hex string.
func HashToHex(h [32]byte) string {
	const hextable = "0123456789abcdef"
	var buf [64]byte
	for i, b := range h {
		buf[i*2] = hextable[b>>4]
		buf[i*2+1] = hextable[b&0x0f]
	}
	return string(buf[:])
}
