package identity

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() { BcryptCost = bcrypt.MinCost }

func TestNewOpaqueID_FormatAndUniqueness(t *testing.T) {
	hexRe := regexp.MustCompile(`^[0-9a-f]{32}$`)
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id, err := NewOpaqueID()
		require.NoError(t, err)
		assert.Regexp(t, hexRe, id)
		_, dup := seen[id]
		assert.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestNewVerificationKey_URLSafe(t *testing.T) {
	k1, err := NewVerificationKey()
	require.NoError(t, err)
	k2, err := NewVerificationKey()
	require.NoError(t, err)

	assert.Len(t, k1, 43)
	assert.Regexp(t, `^[A-Za-z0-9_-]+$`, k1)
	assert.NotEqual(t, k1, k2)
}

func TestHashSecret_VerifyRoundTrip(t *testing.T) {
	hash, err := HashSecret("S3cret!pass")
	require.NoError(t, err)
	assert.NotEqual(t, "S3cret!pass", hash)

	assert.True(t, VerifySecret("S3cret!pass", hash))
	assert.False(t, VerifySecret("s3cret!pass", hash))
	assert.False(t, VerifySecret("", hash))
	assert.False(t, VerifySecret("S3cret!pass", ""))
}

func TestHashSecret_Empty(t *testing.T) {
	_, err := HashSecret("")
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestValidateSecretPolicy(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		unmet int
	}{
		{"ok", "Abcdef1!", 0},
		{"short", "Ab1!", 1},
		{"no upper", "abcdef1!", 1},
		{"no lower", "ABCDEF1!", 1},
		{"no digit", "Abcdefg!", 1},
		{"no symbol", "Abcdefg1", 1},
		{"only lower", "abc", 4},
		{"72 bytes", "Aa1!" + strings.Repeat("x", 68), 0},
		{"over 72 bytes", "Aa1!" + strings.Repeat("x", 80), 1},
		{"multibyte over 72 bytes", "Aa1!" + strings.Repeat("ж", 35), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateSecretPolicy(tc.raw)
			if tc.unmet == 0 {
				assert.NoError(t, err)
				return
			}
			var pe *PolicyError
			require.True(t, errors.As(err, &pe), "expected PolicyError, got %v", err)
			assert.Len(t, pe.Unmet, tc.unmet)
		})
	}

	assert.ErrorIs(t, ValidateSecretPolicy(""), ErrEmptySecret)

	// всё, что прошло политику, bcrypt принимает
	_, err := HashSecret("Aa1!" + strings.Repeat("x", 68))
	assert.NoError(t, err)
}
