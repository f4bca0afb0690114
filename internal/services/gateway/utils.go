package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

// Hmac512 returns the hex-encoded HMAC-SHA512 of body under key.
func Hmac512(body, key []byte) string {
	hash := hmac.New(sha512.New, key)
	hash.Write(body)
	return hex.EncodeToString(hash.Sum(nil))
}

// VerifySignature checks a webhook signature against the exact received body
// bytes. The comparison is constant time.
func VerifySignature(body, key []byte, signature string) bool {
	expected := Hmac512(body, key)
	return hmac.Equal([]byte(signature), []byte(expected))
}
