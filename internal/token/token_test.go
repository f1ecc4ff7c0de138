package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService("test-secret", 0, 0)
	require.NoError(t, err)
	return svc
}

func TestNewService_RequiresSecret(t *testing.T) {
	_, err := NewService("", 0, 0)
	assert.Error(t, err)
}

func TestIssueValidate_RoundTrip(t *testing.T) {
	svc := newTestService(t)

	signed, expiresAt, err := svc.Issue(KindReservationCancel, "res-1", "rest-1")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.Validate(signed, KindReservationCancel)
	require.NoError(t, err)
	assert.Equal(t, KindReservationCancel, claims.Kind)
	assert.Equal(t, "res-1", claims.SubjectID)
	assert.Equal(t, "rest-1", claims.SecondarySubjectID)
}

func TestValidate_WrongKind(t *testing.T) {
	svc := newTestService(t)

	signed, _, err := svc.Issue(KindPasswordReset, "user-1", "")
	require.NoError(t, err)

	_, err = svc.Validate(signed, KindReservationCancel)
	assert.ErrorIs(t, err, ErrWrongKind)
	assert.EqualError(t, err, "Invalid token type")
}

func TestValidate_Expired(t *testing.T) {
	svc, err := NewService("test-secret", -time.Hour, -time.Hour)
	require.NoError(t, err)

	signed, _, err := svc.Issue(KindPasswordReset, "user-1", "")
	require.NoError(t, err)

	_, err = svc.Validate(signed, KindPasswordReset)
	assert.ErrorIs(t, err, ErrExpired)
	assert.EqualError(t, err, "Token expired")
}

func TestValidate_Garbage(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Validate("not-a-token", KindPasswordReset)
	assert.ErrorIs(t, err, ErrMalformed)
	assert.EqualError(t, err, "Invalid token")
}

func TestValidate_ExpiredBeatsWrongKind(t *testing.T) {
	// Signature and expiry are checked before kind, so an expired token of
	// the wrong kind reports Expired, not WrongKind.
	svc, err := NewService("test-secret", -time.Hour, -time.Hour)
	require.NoError(t, err)

	signed, _, err := svc.Issue(KindPasswordReset, "user-1", "")
	require.NoError(t, err)

	_, err = svc.Validate(signed, KindReservationCancel)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestValidate_TamperedPayload(t *testing.T) {
	svc := newTestService(t)

	signed, _, err := svc.Issue(KindReservationCancel, "R1", "T1")
	require.NoError(t, err)

	// Rewriting any claim breaks the signature.
	parts := strings.Split(signed, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + flipLastChar(parts[1]) + "." + parts[2]

	_, err = svc.Validate(tampered, KindReservationCancel)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestValidate_WrongSecret(t *testing.T) {
	issuer := newTestService(t)
	other, err := NewService("other-secret", 0, 0)
	require.NoError(t, err)

	signed, _, err := issuer.Issue(KindPasswordReset, "user-1", "")
	require.NoError(t, err)

	_, err = other.Validate(signed, KindPasswordReset)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestIssue_UnknownKind(t *testing.T) {
	svc := newTestService(t)

	_, _, err := svc.Issue(Kind("session"), "user-1", "")
	assert.Error(t, err)
}

func flipLastChar(s string) string {
	if s == "" {
		return s
	}
	last := s[len(s)-1]
	replacement := byte('A')
	if last == 'A' {
		replacement = 'B'
	}
	return s[:len(s)-1] + string(replacement)
}
