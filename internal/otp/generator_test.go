package otp_test

import (
	"strconv"
	"testing"

	"github.com/infrawatch/auth-service/internal/otp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCryptoGenerator_Next(t *testing.T) {
	gen := otp.NewCryptoGenerator()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := gen.Next()
		require.NoError(t, err)
		assert.Len(t, code, 6)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)

		seen[code] = true
	}

	// 100 draws from a 900k space should not all collide
	assert.Greater(t, len(seen), 1)
}
