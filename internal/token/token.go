package token

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Kind discriminates the purpose a token was issued for. Validation matches
// the kind after signature verification, so a validly-signed token can never
// authorize an action of a different purpose.
type Kind string

const (
	KindPasswordReset     Kind = "password_reset"
	KindReservationCancel Kind = "reservation_cancel"
)

// Default TTLs per kind, measured from issuance.
const (
	DefaultPasswordResetTTL     = 24 * time.Hour
	DefaultReservationCancelTTL = 48 * time.Hour
)

// Validation errors. Messages are caller-visible so users can be guided
// differently for a garbage token, an outdated link, and a misused one.
var (
	ErrMalformed = errors.New("Invalid token")
	ErrExpired   = errors.New("Token expired")
	ErrWrongKind = errors.New("Invalid token type")
)

// Claims is the signed token payload. SecondarySubjectID carries the tenant
// for reservation-cancel tokens; any modification invalidates the signature.
type Claims struct {
	Kind               Kind   `json:"kind"`
	SubjectID          string `json:"sub_id"`
	SecondarySubjectID string `json:"sec_id,omitempty"`
	jwt.RegisteredClaims
}

// Service issues and validates purpose-bound HS256 tokens. It is stateless:
// tokens are never persisted and there is no revocation list, so a consumed
// token stays valid until natural expiry.
type Service struct {
	secret    []byte
	resetTTL  time.Duration
	cancelTTL time.Duration
}

// NewService builds the service. The secret is mandatory; callers must fail
// startup on error rather than fall back to unsigned tokens.
func NewService(secret string, resetTTL, cancelTTL time.Duration) (*Service, error) {
	if secret == "" {
		return nil, errors.New("token secret required")
	}
	if resetTTL == 0 {
		resetTTL = DefaultPasswordResetTTL
	}
	if cancelTTL == 0 {
		cancelTTL = DefaultReservationCancelTTL
	}
	return &Service{secret: []byte(secret), resetTTL: resetTTL, cancelTTL: cancelTTL}, nil
}

// Issue builds and signs a token of the given kind. TTL is fixed per kind
// and absolute, not sliding.
func (s *Service) Issue(kind Kind, subjectID, secondarySubjectID string) (string, time.Time, error) {
	var ttl time.Duration
	switch kind {
	case KindPasswordReset:
		ttl = s.resetTTL
	case KindReservationCancel:
		ttl = s.cancelTTL
	default:
		return "", time.Time{}, fmt.Errorf("unknown token kind %q", kind)
	}

	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		Kind:               kind,
		SubjectID:          subjectID,
		SecondarySubjectID: secondarySubjectID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Validate verifies signature, expiry and kind, in that order. A token whose
// signature does not verify is Malformed regardless of its payload; a signed
// but stale token is Expired; a signed, fresh token of another kind is
// WrongKind.
func (s *Service) Validate(tokenStr string, expected Kind) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrMalformed
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformed
	}

	switch claims.Kind {
	case KindPasswordReset, KindReservationCancel:
	default:
		return nil, ErrMalformed
	}
	if claims.Kind != expected {
		return nil, ErrWrongKind
	}
	return claims, nil
}
