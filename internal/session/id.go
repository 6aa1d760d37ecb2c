package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// NewSessionId generates the opaque identifier a client presents when
// polling. Random UUIDs keep it unguessable.
func NewSessionId() string {
	return uuid.New().String()
}

// NewReferenceKey generates the on-chain marker the payer embeds in the
// transfer. 32 bytes = 256 bits of entropy, generated independently of the
// session id so one can never be derived from the other.
func NewReferenceKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("unable to generate reference key: %w", err)
	}
	return hex.EncodeToString(b), nil
}
