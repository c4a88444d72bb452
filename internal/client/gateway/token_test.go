package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACTokenSource_MintsVerifiableToken(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	ts := &HMACTokenSource{Secret: []byte("s3cret"), Subject: "operator", Role: "console", TTL: 10 * time.Minute,
		Now: func() time.Time { return now }}

	tok, err := ts.Token()
	require.NoError(t, err)

	claims, err := ParseToken(tok, []byte("s3cret"))
	require.NoError(t, err)
	assert.Equal(t, "operator", claims.Subject)
	assert.Equal(t, "console", claims.Role)
	assert.Equal(t, now.Add(10*time.Minute).Unix(), claims.ExpiresAt.Unix())

	_, err = ParseToken(tok, []byte("other"))
	assert.Error(t, err)
}

func TestHMACTokenSource_CachesUntilNearExpiry(t *testing.T) {
	now := time.Now()
	ts := &HMACTokenSource{Secret: []byte("k"), TTL: 5 * time.Minute, Now: func() time.Time { return now }}

	a, err := ts.Token()
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	b, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, a, b)

	now = now.Add(150 * time.Second)
	c, err := ts.Token()
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestStaticToken(t *testing.T) {
	tok, err := StaticToken("  t  ").Token()
	require.NoError(t, err)
	assert.Equal(t, "t", tok)
}
