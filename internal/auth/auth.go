// SPDX-License-Identifier: MIT

// Package auth derives the per-user, per-day session material required by the
// upstream API. Derivation is pure except for the clock; the sign-in call that
// completes the credential lives in the fourgtv client.
package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Embedded sign-in secret, shipped encrypted at build time. The plaintext is
// recovered at runtime with AES-CBC and folded into the daily signature.
const (
	sealedSecret = "PyPJU25iI2IQCMWq7kblwh9sGCypqsxMp4sKjJo95SK43h08ff+j1nbWliTySSB+N67BnXrYv9DfwK+ue5wWkg=="
	cipherKey    = "ilyB29ZdruuQjC45JhBBR7o2Z8WJ26Vg"
	cipherIV     = "JUMxvVMmszqUTeKn"
)

// ErrBadPadding reports a failed decrypt of the embedded secret. It is fatal:
// no credential can be derived from a corrupt build.
var ErrBadPadding = errors.New("auth: invalid padding in embedded secret")

// Material is the locally derived half of a session credential. It is stable
// for one user and one UTC calendar day and must be re-derived after the date
// rolls over.
type Material struct {
	// EncKey doubles as content-derived identifier and encryption-key
	// parameter of the sign-in call.
	EncKey string
	// Signature authenticates every API call for the current day.
	Signature string
}

// Derive computes the session material for user at the given instant.
func Derive(user string, now time.Time) (Material, error) {
	sig, err := signature(now)
	if err != nil {
		return Material{}, err
	}
	return Material{
		EncKey:    EncryptionKey(user, now),
		Signature: sig,
	}, nil
}

// EncryptionKey returns the uppercased name-based UUID of the user combined
// with the UTC calendar date. Different users, or the same user on different
// days, get different keys.
func EncryptionKey(user string, now time.Time) string {
	name := user + "-" + now.UTC().Format("2006-01-02")
	return strings.ToUpper(uuid.NewSHA1(uuid.NameSpaceDNS, []byte(name)).String())
}

// signature hashes the UTC date (YYYYMMDD) concatenated with the unsealed
// secret using SHA-512 and returns the base64 form.
func signature(now time.Time) (string, error) {
	secret, err := unseal()
	if err != nil {
		return "", err
	}
	sum := sha512.Sum512([]byte(now.UTC().Format("20060102") + secret))
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}

// unseal decrypts the embedded secret with AES-CBC and strips PKCS#7 padding.
func unseal() (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealedSecret)
	if err != nil {
		return "", fmt.Errorf("auth: decode embedded secret: %w", err)
	}
	block, err := aes.NewCipher([]byte(cipherKey))
	if err != nil {
		return "", fmt.Errorf("auth: init cipher: %w", err)
	}
	if len(raw) == 0 || len(raw)%aes.BlockSize != 0 {
		return "", ErrBadPadding
	}
	buf := make([]byte, len(raw))
	cipher.NewCBCDecrypter(block, []byte(cipherIV)).CryptBlocks(buf, raw)

	plain, err := pkcs7Unpad(buf, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, ErrBadPadding
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, ErrBadPadding
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, ErrBadPadding
		}
	}
	return data[:len(data)-n], nil
}
