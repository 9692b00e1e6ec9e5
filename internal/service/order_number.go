package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
)

var orderNumberPattern = regexp.MustCompile(`^[A-Z]{2}\d{8}$`)

// newOrderNumber genera el código visible para el cliente: dos letras
// mayúsculas y ocho dígitos, ej. "KQ00412345".
func newOrderNumber() (string, error) {
	letters := make([]byte, 2)
	for i := range letters {
		n, err := rand.Int(rand.Reader, big.NewInt(26))
		if err != nil {
			return "", err
		}
		letters[i] = byte('A' + n.Int64())
	}

	digits, err := rand.Int(rand.Reader, big.NewInt(100_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%08d", letters, digits.Int64()), nil
}

func isOrderNumber(s string) bool {
	return orderNumberPattern.MatchString(s)
}
