package invitation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, CodeLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(CodeAlphabet, r), "unexpected rune %q", r)
		}
		seen[code] = struct{}{}
	}
	assert.Len(t, seen, 200)
}

func TestCodeAlphabetIsUnambiguous(t *testing.T) {
	for _, r := range "01ILO" {
		assert.False(t, strings.ContainsRune(CodeAlphabet, r), "alphabet contains %q", r)
	}
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "ABCD234XYZ", NormalizeCode("  abcd234xyz\n"))
}
