package testutil

import (
	"journal/internal/encryption"
	"journal/internal/journal"
)

// NewTestEncryptor creates a new test encryptor for testing.
func NewTestEncryptor() journal.Encryptor {
	return encryption.NewTestEncryptor()
}
