// Package uniuri generates random strings for initial passwords and similar secrets.
package uniuri

import (
	"crypto/rand"
	"errors"
	"fmt"
)

// StdLen gives about 95 bits of entropy with StdChars.
const StdLen = 16

// StdChars are the characters used by NewLen.
var StdChars = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789") //nolint:gochecknoglobals

// ErrCharset is returned for a charset shorter than 2 or longer than 256 characters.
var ErrCharset = errors.New("uniuri: charset must hold between 2 and 256 characters")

// NewLen returns a random string of length characters from StdChars.
// It panics only if the system random source fails.
func NewLen(length int) string {
	s, err := NewLenChars(length, StdChars)
	if err != nil {
		panic(err)
	}

	return s
}

// NewLenChars returns a random string of length characters taken from chars.
func NewLenChars(length int, chars []byte) (string, error) {
	if len(chars) < 2 || len(chars) > 256 {
		return "", ErrCharset
	}

	if length <= 0 {
		return "", nil
	}

	// bytes at or above limit are dropped so every character is equally likely
	limit := 256 - 256%len(chars)
	out := make([]byte, 0, length)
	buf := make([]byte, length+length/2)

	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("uniuri: read random bytes: %w", err)
		}

		for _, b := range buf {
			if int(b) >= limit {
				continue
			}

			out = append(out, chars[int(b)%len(chars)])
			if len(out) == length {
				break
			}
		}
	}

	return string(out), nil
}
