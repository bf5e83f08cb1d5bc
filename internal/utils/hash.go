package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// HashString computes an HMAC-SHA256 signature over the given string
// using the provided hash key and returns the result as a hex-encoded string.
//
// Used to remember the application code without storing it in clear text.
//
// Example usage:
//
//	signature := utils.HashString("APP-CODE", "device-secret")
func HashString(data string, hashKey string) string {
	hasher := hmac.New(sha256.New, []byte(hashKey))
	hasher.Write([]byte(data))
	return hex.EncodeToString(hasher.Sum(nil))
}

// Fingerprint returns the hex-encoded SHA-256 digest of the JSON encoding of
// v. Map keys are encoded in sorted order, so equal values always produce
// the same fingerprint.
//
// Example usage:
//
//	hash, err := utils.Fingerprint(systemData)
func Fingerprint(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode fingerprint input: %w", err)
	}

	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
