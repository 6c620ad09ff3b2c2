// Package webhooksig verifies signatures on inbound callbacks. Every check
// runs over the exact raw body bytes.
package webhooksig

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/indevian-dev/stuwin-api/internal/ports"
)

var (
	ErrMissingSignature = errors.New("missing signature")
	ErrNoKeys           = errors.New("no signing keys configured")
	ErrSignatureInvalid = errors.New("signature invalid")
)

// QueueClaims are the claims carried by a queue delivery signature. Body is
// the unpadded base64url SHA-256 of the request body.
type QueueClaims struct {
	Body string `json:"body"`
	jwt.RegisteredClaims
}

// QueueVerifier checks HS256 JWT signatures from the queue relay against the
// current and next signing keys.
type QueueVerifier struct {
	keys   [][]byte
	issuer string
	leeway time.Duration
	now    func() time.Time
}

var _ ports.SignatureVerifier = (*QueueVerifier)(nil)

// QueueVerifierOptions groups dependencies for NewQueueVerifier.
type QueueVerifierOptions struct {
	Keys   []string
	Issuer string
	Leeway time.Duration
	Now    func() time.Time
}

// NewQueueVerifier creates a verifier. Keys are tried in order.
func NewQueueVerifier(opts QueueVerifierOptions) *QueueVerifier {
	v := &QueueVerifier{issuer: opts.Issuer, leeway: opts.Leeway, now: opts.Now}
	for _, k := range opts.Keys {
		if k != "" {
			v.keys = append(v.keys, []byte(k))
		}
	}
	if v.now == nil {
		v.now = time.Now
	}
	return v
}

func (v *QueueVerifier) Verify(ctx context.Context, req ports.SignedRequest) error {
	if strings.TrimSpace(req.Signature) == "" {
		return ErrMissingSignature
	}
	if len(v.keys) == 0 {
		return ErrNoKeys
	}

	var errs []error
	for _, key := range v.keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := v.verifyWithKey(req, key)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	return fmt.Errorf("%w: %w", ErrSignatureInvalid, errors.Join(errs...))
}

func (v *QueueVerifier) verifyWithKey(req ports.SignedRequest, key []byte) error {
	claims := &QueueClaims{}
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.issuer))
	}
	if req.URL != "" {
		parserOpts = append(parserOpts, jwt.WithSubject(req.URL))
	}

	_, err := jwt.ParseWithClaims(req.Signature, claims, func(*jwt.Token) (any, error) {
		return key, nil
	}, parserOpts...)
	if err != nil {
		return fmt.Errorf("parse token: %w", err)
	}

	want := bodyHash(req.Body)
	got := strings.TrimRight(claims.Body, "=")
	if !hmac.Equal([]byte(got), []byte(want)) {
		return errors.New("body hash mismatch")
	}
	return nil
}

func bodyHash(body []byte) string {
	sum := sha256.Sum256(body)
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// SignQueue produces a signature the QueueVerifier accepts. The relay and
// tests use it.
func SignQueue(key, issuer, url string, body []byte, now time.Time, ttl time.Duration) (string, error) {
	claims := QueueClaims{
		Body: bodyHash(body),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   url,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
}
