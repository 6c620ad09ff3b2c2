package webhooksig

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/indevian-dev/stuwin-api/internal/ports"
)

// PaymentVerifier checks hex HMAC-SHA256 signatures from the payment
// provider. The header may carry a "sha256=" prefix.
type PaymentVerifier struct {
	secrets [][]byte
}

var _ ports.SignatureVerifier = (*PaymentVerifier)(nil)

// NewPaymentVerifier accepts a signature made with any of secrets.
func NewPaymentVerifier(secrets []string) *PaymentVerifier {
	v := &PaymentVerifier{}
	for _, s := range secrets {
		if s != "" {
			v.secrets = append(v.secrets, []byte(s))
		}
	}
	return v
}

func (v *PaymentVerifier) Verify(ctx context.Context, req ports.SignedRequest) error {
	sig := strings.TrimPrefix(strings.TrimSpace(req.Signature), "sha256=")
	if sig == "" {
		return ErrMissingSignature
	}
	if len(v.secrets) == 0 {
		return ErrNoKeys
	}
	given, err := hex.DecodeString(sig)
	if err != nil {
		return ErrSignatureInvalid
	}
	for _, secret := range v.secrets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if hmac.Equal(given, mac(secret, req.Body)) {
			return nil
		}
	}
	return ErrSignatureInvalid
}

func mac(secret, body []byte) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write(body)
	return h.Sum(nil)
}

// SignPayment returns the hex signature for body.
func SignPayment(secret string, body []byte) string {
	return hex.EncodeToString(mac([]byte(secret), body))
}
