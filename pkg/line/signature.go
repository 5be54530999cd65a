// TopicBot - LINE topic bot
// License: MIT
//
// Copyright (c) 2026 TopicBot contributors

package line

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

const SignatureHeader = "X-Line-Signature"

// ValidateSignature checks the X-Line-Signature header: base64 of
// HMAC-SHA256 over the raw body keyed by the channel secret.
func ValidateSignature(channelSecret string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(body)

	return hmac.Equal(decoded, mac.Sum(nil))
}

// Sign computes the signature LINE would send for body.
func Sign(channelSecret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
