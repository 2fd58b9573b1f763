package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// VerifySignature checks an HMAC-SHA256 hex signature over the raw request
// body. An optional "sha256=" prefix on the header value is accepted.
// Comparison is constant-time.
func VerifySignature(payload []byte, signatureHeader, secret string) bool {
	sig := strings.TrimSpace(signatureHeader)
	sec := strings.TrimSpace(secret)
	if sig == "" || sec == "" {
		return false
	}
	sig = strings.TrimPrefix(strings.ToLower(sig), "sha256=")

	decodedSig, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(sec))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), decodedSig)
}

// VerifyAPIKey compares a provided static key with the configured one in
// constant time. Empty configuration never matches.
func VerifyAPIKey(provided, configured string) bool {
	p := strings.TrimSpace(provided)
	c := strings.TrimSpace(configured)
	if p == "" || c == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(p), []byte(c)) == 1
}
