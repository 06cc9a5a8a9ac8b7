// Package pixhook authenticates inbound PIX payment webhooks via
// HMAC-SHA256 signatures over the raw request body.
package pixhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body.
const SignatureHeader = "x-pix-signature"

// Sign returns the lowercase-hex HMAC-SHA256 digest of body under secret.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether providedHex is the correct signature for body
// under secret. The comparison is constant-time.
//
// body must be the raw, unparsed request bytes: re-serializing parsed
// JSON is not guaranteed to reproduce the bytes that were signed, so
// verification has to happen before any decoding.
func Verify(body []byte, providedHex, secret string) bool {
	expected := Sign(body, secret)
	return hmac.Equal([]byte(expected), []byte(providedHex))
}
