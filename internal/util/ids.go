package util

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// URL-safe alphabet, nanoid style.
const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"

const (
	sessionIDLength = 12
	idLength        = 21
)

func randomID(length int) string {
	chars := []byte(idAlphabet)
	out := make([]byte, length)
	for i := 0; i < length; i++ {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		out[i] = chars[n.Int64()]
	}
	return string(out)
}

// GenerateSessionID returns a short URL-safe session identifier.
func GenerateSessionID() string {
	return randomID(sessionIDLength)
}

// GenerateID returns an opaque identifier for venues and votes.
func GenerateID() string {
	return randomID(idLength)
}

// GeneratePINCode returns a 4-digit numeric PIN in [1000, 9999].
func GeneratePINCode() string {
	n, _ := rand.Int(rand.Reader, big.NewInt(9000))
	return fmt.Sprintf("%d", 1000+n.Int64())
}
