package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	m, err := NewManager("test-secret", time.Minute)
	require.NoError(t, err)

	tok, err := m.Issue("admin")
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	login, err := m.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, "admin", login)
}

func TestVerifyExpiredToken(t *testing.T) {
	m, err := NewManager("test-secret", time.Minute)
	require.NoError(t, err)

	issued := time.Now().Add(-time.Hour)
	m.now = func() time.Time { return issued }
	tok, err := m.Issue("admin")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Verify(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	a, err := NewManager("secret-a", time.Minute)
	require.NoError(t, err)
	b, err := NewManager("secret-b", time.Minute)
	require.NoError(t, err)

	tok, err := a.Issue("admin")
	require.NoError(t, err)

	_, err = b.Verify(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewManagerRequiresSecret(t *testing.T) {
	_, err := NewManager("  ", time.Minute)
	require.Error(t, err)
}

func TestIssueRequiresLogin(t *testing.T) {
	m, err := NewManager("s", time.Minute)
	require.NoError(t, err)
	_, err = m.Issue("")
	require.Error(t, err)
}
