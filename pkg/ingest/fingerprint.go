package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Fingerprint derives a stable cache key for the windows built from source with b
func Fingerprint(source string, b Builder) string {
	parts := []string{
		source,
		strconv.Itoa(b.SeqLen),
		strconv.Itoa(b.SeqStep),
		strconv.Itoa(b.TimeBinSeconds),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}
