package tokens

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"strconv"

	"github.com/google/uuid"
)

const (
	codeMin = 1000
	codeMax = 9999
)

// NewSessionID returns a random identifier for a two-factor session.
func NewSessionID() string {
	return uuid.NewString()
}

// NewCode returns a uniformly random four digit one-time code in [1000, 9999].
func NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+codeMin, 10), nil
}

// NewAuthToken returns an opaque 256-bit token, hex encoded.
func NewAuthToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
