package service

import (
	"crypto/rand"
	"math/big"
)

const (
	inviteAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	inviteCodeLength = 6
)

// CodeGenerator produces invite codes.
type CodeGenerator func() (string, error)

// RandomCode draws six independent, uniformly distributed symbols from A-Z0-9.
// Uniqueness is left to the invite_codes primary key.
func RandomCode() (string, error) {
	max := big.NewInt(int64(len(inviteAlphabet)))
	buf := make([]byte, inviteCodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = inviteAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// ValidCodeFormat reports whether code could have been produced by RandomCode.
func ValidCodeFormat(code string) bool {
	if len(code) != inviteCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
