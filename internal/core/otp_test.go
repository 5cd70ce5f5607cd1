// AngelaMos | 2026
// otp_test.go

package core

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGenerateOTP_Range(t *testing.T) {
	for range 200 {
		code, err := GenerateOTP()
		require.NoError(t, err)
		require.Len(t, code, 6)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, otpMin)
		assert.LessOrEqual(t, n, otpMax)
	}
}

func TestHashOTP_UsesBcryptCost(t *testing.T) {
	hash, err := HashOTP("123456", bcrypt.MinCost)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$2a$"))

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}

func TestHashOTP_DefaultsLowCost(t *testing.T) {
	hash, err := HashOTP("123456", 0)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, DefaultOTPCost, cost)
}

func TestCompareOTP(t *testing.T) {
	hash, err := HashOTP("654321", bcrypt.MinCost)
	require.NoError(t, err)

	ok, err := CompareOTP(hash, "654321")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CompareOTP(hash, "111111")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = CompareOTP("not-a-hash", "111111")
	require.Error(t, err)
}

func TestMonthStart(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	at := time.Date(2026, time.March, 31, 23, 59, 0, 0, loc)

	got := MonthStart(at)
	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, loc), got)
	assert.Equal(t, loc, got.Location())
}

func TestToday(t *testing.T) {
	at := time.Date(2026, time.July, 4, 18, 30, 12, 99, time.UTC)
	assert.Equal(t, time.Date(2026, time.July, 4, 0, 0, 0, 0, time.UTC), Today(at))
}
