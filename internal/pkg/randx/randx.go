/*
Package randx generates identifiers: UUIDs for participants and messages, and short
cryptographically random Base62 tokens for transport connections.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

const (
	// Base62Chars defines the character set used for Base62 encoding (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the number of characters in Base62Chars.
	Base62Len = int64(len(Base62Chars))

	// ConnectionIDLength is the length of a generated connection identifier.
	ConnectionIDLength = 20
)

// Base62 returns a random Base62 string of the given length read from crypto/rand.
func Base62(length int) (string, error) {
	result := make([]byte, length)
	limit := big.NewInt(Base62Len)

	for i := range length {
		num, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to generate random Base62 character: %w", err)
		}

		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}

// ConnectionID generates the opaque identifier assigned to a transport connection.
func ConnectionID() (string, error) {
	return Base62(ConnectionIDLength)
}

// ParticipantID generates a fresh participant identifier. IDs are never reused.
func ParticipantID() string {
	return uuid.NewString()
}

// MessageID generates a UUID v4 string identifying a message.
func MessageID() string {
	return uuid.NewString()
}
