package utils

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// randomDigits returns n random decimal digits from a cryptographically
// secure source.
func randomDigits(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random digits: %w", err)
	}
	var builder strings.Builder
	for _, b := range buf {
		builder.WriteByte(b%10 + '0')
	}
	return builder.String(), nil
}

// GenerateCardNumber generates a card number with the specified prefix and length.
func GenerateCardNumber(prefix string, length int) (string, error) {
	if length < len(prefix) || length > 19 {
		return "", fmt.Errorf("invalid card number length: %d", length)
	}
	digits, err := randomDigits(length - len(prefix))
	if err != nil {
		return "", err
	}
	return prefix + digits, nil
}

// GenerateAccountNumber generates a 10-digit account number. The first digit
// is never zero so the number keeps its length when displayed numerically.
func GenerateAccountNumber() (string, error) {
	first := make([]byte, 1)
	if _, err := rand.Read(first); err != nil {
		return "", fmt.Errorf("failed to generate account number: %w", err)
	}
	rest, err := randomDigits(9)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d%s", first[0]%9+1, rest), nil
}

// GenerateExpiryDate generates a card expiry date (MM/YY), 4 years out.
func GenerateExpiryDate() string {
	expiry := time.Now().AddDate(4, 0, 0)
	return fmt.Sprintf("%02d/%02d", expiry.Month(), expiry.Year()%100)
}

// GenerateCVV generates a 3-digit CVV code.
func GenerateCVV() (string, error) {
	return randomDigits(3)
}

// GeneratePIN generates a 4-digit PIN for transaction authentication.
func GeneratePIN() (string, error) {
	return randomDigits(4)
}

// GenerateHMAC generates an HMAC over card details for integrity checks.
func GenerateHMAC(cardNumber, expiryDate, cvv, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(cardNumber + expiryDate + cvv))
	return hex.EncodeToString(h.Sum(nil))
}
