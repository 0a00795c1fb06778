package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign returns the hex HMAC-SHA256 of message under secret.
func Sign(secret, message string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidSignature compares in constant time. An empty secret never validates.
func ValidSignature(secret, message, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	return hmac.Equal([]byte(Sign(secret, message)), []byte(signature))
}

func checkoutMessage(gatewayOrderID, paymentID string) string {
	return gatewayOrderID + "|" + paymentID
}
