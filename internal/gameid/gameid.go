// Package gameid generates identifiers for game instances.
//
// IDs are UUIDv7 values written as 26 characters of Crockford base32, so they
// sort by creation time. Every engine carries one; orchestrators compare it
// against in-flight agent results to drop answers meant for a game that has
// since been restarted.
package gameid

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	alphabet = "0123456789abcdefghjkmnpqrstvwxyz"
	// Length is the encoded size: 128 bits left-padded to 130 and split into 5-bit groups.
	Length = 26
)

// New returns a fresh time-ordered game ID.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the system entropy source does.
		panic("gameid: " + err.Error())
	}
	return Encode(id)
}

// Encode writes a UUID in the game ID alphabet.
func Encode(id uuid.UUID) string {
	var sb strings.Builder
	sb.Grow(Length)
	for i := 0; i < Length; i++ {
		var v byte
		for b := 0; b < 5; b++ {
			v = v<<1 | bit(id, i*5+b)
		}
		sb.WriteByte(alphabet[v])
	}
	return sb.String()
}

// bit returns bit n of the 130-bit big-endian value whose top two bits are zero.
func bit(id uuid.UUID, n int) byte {
	if n < 2 {
		return 0
	}
	n -= 2
	return (id[n/8] >> (7 - n%8)) & 1
}

// Parse decodes a game ID back into its UUID.
func Parse(s string) (uuid.UUID, error) {
	if err := Validate(s); err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	for i := 0; i < Length; i++ {
		v := strings.IndexByte(alphabet, s[i])
		for b := 0; b < 5; b++ {
			n := i*5 + b - 2
			if n < 0 {
				continue
			}
			if (v>>(4-b))&1 == 1 {
				id[n/8] |= 1 << (7 - n%8)
			}
		}
	}
	return id, nil
}

// Validate checks that s is a well-formed game ID.
func Validate(s string) error {
	if len(s) != Length {
		return fmt.Errorf("game ID must be exactly %d characters, got %d", Length, len(s))
	}
	if s[0] > '7' {
		return fmt.Errorf("game ID first character must be 0-7, got %c", s[0])
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(alphabet, s[i]) < 0 {
			return fmt.Errorf("invalid character %c at position %d", s[i], i)
		}
	}
	return nil
}
