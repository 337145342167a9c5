package chapa

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Webhook signature headers, Chapa sends both with the same value.
const (
	HeaderSignature       = "Chapa-Signature"
	HeaderSignatureLegacy = "X-Chapa-Signature"
)

// SignatureVerifier checks the hex HMAC-SHA256 of a webhook body.
type SignatureVerifier struct {
	secret []byte
}

func NewSignatureVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{secret: []byte(secret)}
}

// Verify reports whether signature is the HMAC of payload under the shared
// secret. An unset secret or empty signature never verifies.
func (v *SignatureVerifier) Verify(payload []byte, signature string) bool {
	if len(v.secret) == 0 {
		return false
	}
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(got) != sha256.Size {
		return false
	}
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), got)
}

// Sign returns the signature Verify expects for payload.
func (v *SignatureVerifier) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
