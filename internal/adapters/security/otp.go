package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"math/big"
	"strings"
)

// OTPDigits is the length of generated one-time codes.
const OTPDigits = 6

var otpSpace = big.NewInt(1_000_000)

// GenerateOTP returns a uniformly random six-digit code.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpace)
	if err != nil {
		return "", err
	}
	s := n.String()
	return strings.Repeat("0", OTPDigits-len(s)) + s, nil
}

// HashOTP binds code to the session it was issued for so a stored hash is
// useless for any other session.
func HashOTP(sessionID, code string) string {
	h := sha256.Sum256([]byte(sessionID + ":" + code))
	return hex.EncodeToString(h[:])
}

// OTPEqual compares a submitted code against a stored hash in constant time.
func OTPEqual(sessionID, code, storedHash string) bool {
	got := HashOTP(sessionID, strings.TrimSpace(code))
	return subtle.ConstantTimeCompare([]byte(got), []byte(storedHash)) == 1
}
