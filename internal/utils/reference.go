package utils

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const referenceCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ReferenceSuffix returns n random uppercase alphanumeric characters from a
// cryptographically secure source.
func ReferenceSuffix(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate reference: %w", err)
	}
	var builder strings.Builder
	for _, b := range buf {
		builder.WriteByte(referenceCharset[int(b)%len(referenceCharset)])
	}
	return builder.String(), nil
}

// ReceiptReference builds a receipt reference number: the uppercased
// transaction kind, a dash, and 8 random uppercase alphanumeric characters.
func ReceiptReference(kind string) (string, error) {
	suffix, err := ReferenceSuffix(8)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(kind) + "-" + suffix, nil
}
