package journal

import "io"

// Encryptor protects exported snapshots with a passphrase.
type Encryptor interface {
	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(passphrase string, r io.Reader, w io.Writer) error

	// Decrypt reads ciphertext from r and writes plaintext to w.
	// Returns an error if the passphrase is incorrect.
	Decrypt(passphrase string, r io.Reader, w io.Writer) error
}
