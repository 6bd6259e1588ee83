package invitation

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const (
	CodeLength = 10
	// CodeAlphabet leaves out characters that are easy to misread (0/O, 1/I/L).
	CodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
)

// GenerateCode returns a random invitation code drawn uniformly from CodeAlphabet.
func GenerateCode() (string, error) {
	n := len(CodeAlphabet)
	limit := 256 - (256 % n)

	var sb strings.Builder
	sb.Grow(CodeLength)
	buf := make([]byte, CodeLength*2)
	for sb.Len() < CodeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			sb.WriteByte(CodeAlphabet[int(b)%n])
			if sb.Len() == CodeLength {
				break
			}
		}
	}
	return sb.String(), nil
}

// NormalizeCode makes user-typed codes comparable to stored ones.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
