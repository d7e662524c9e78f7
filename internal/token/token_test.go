package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/cardgate/internal/config"
)

func testService() *Service {
	return NewService(config.Token{
		Secret: []byte("0123456789abcdef0123456789abcdef"),
		Issuer: "cardgate",
		TTL:    30 * time.Minute,
	})
}

func TestIssueAndVerify(t *testing.T) {
	svc := testService()
	tok, err := svc.Issue("42", time.Hour)
	require.NoError(t, err)

	sub, err := svc.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "42", sub)
}

func TestVerifyAfterClockAdvance(t *testing.T) {
	svc := testService()
	base := time.Now()
	svc.now = func() time.Time { return base }

	tok, err := svc.Issue("42", time.Hour)
	require.NoError(t, err)

	_, err = svc.Verify(tok)
	require.NoError(t, err)

	svc.now = func() time.Time { return base.Add(time.Hour + time.Minute) }
	_, err = svc.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNegativeTTLIsImmediatelyInvalid(t *testing.T) {
	svc := testService()
	tok, err := svc.Issue("42", -time.Second)
	require.NoError(t, err)

	_, err = svc.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestZeroTTLUsesDefault(t *testing.T) {
	svc := testService()
	tok, err := svc.Issue("42", 0)
	require.NoError(t, err)

	sub, err := svc.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "42", sub)
}

func TestTamperedSignatureFails(t *testing.T) {
	svc := testService()
	tok, err := svc.Issue("42", time.Hour)
	require.NoError(t, err)

	// flip one byte inside the signature segment
	dot := strings.LastIndex(tok, ".")
	require.Greater(t, dot, 0)
	sig := []byte(tok[dot+1:])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := tok[:dot+1] + string(sig)

	_, err = svc.Verify(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGarbageInputFailsIdentically(t *testing.T) {
	svc := testService()
	for _, in := range []string{"", "garbage", "a.b.c", "ey.ey.ey"} {
		_, err := svc.Verify(in)
		assert.ErrorIs(t, err, ErrInvalidToken, "input %q", in)
	}
}

func TestWrongSecretFails(t *testing.T) {
	svc := testService()
	other := NewService(config.Token{
		Secret: []byte("ffffffffffffffffffffffffffffffff"),
		Issuer: "cardgate",
	})
	tok, err := other.Issue("42", time.Hour)
	require.NoError(t, err)

	_, err = svc.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
