package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test-secret", time.Hour)

	token, err := manager.Issue("user-123")
	req.NoError(err)
	req.NotEmpty(token)

	userID, err := manager.Verify(token)
	req.NoError(err)
	req.Equal("user-123", userID)
}

func TestVerify_RejectsEverythingTheSameWay(t *testing.T) {
	manager := NewTokenManager("test-secret", time.Hour)

	expired := NewTokenManager("test-secret", -time.Minute)
	expiredToken, err := expired.Issue("user-123")
	require.NoError(t, err)

	otherSecret := NewTokenManager("other-secret", time.Hour)
	foreignToken, err := otherSecret.Issue("user-123")
	require.NoError(t, err)

	missingClaim := NewTokenManager("test-secret", time.Hour)
	emptyUserToken, err := missingClaim.Issue("")
	require.NoError(t, err)

	cases := map[string]string{
		"malformed":     "not-a-token",
		"empty":         "",
		"expired":       expiredToken,
		"bad signature": foreignToken,
		"no user claim": emptyUserToken,
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := manager.Verify(token)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestPasswordHashing(t *testing.T) {
	req := require.New(t)

	hash, err := HashPassword("hunter2hunter2")
	req.NoError(err)
	req.NotEqual("hunter2hunter2", hash)

	req.True(CheckPassword("hunter2hunter2", hash))
	req.False(CheckPassword("wrong-password", hash))
	req.False(CheckPassword("hunter2hunter2", "not-a-hash"))
}
