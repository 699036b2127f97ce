package encryption

import (
	"bytes"
	"fmt"
	"io"

	"journal/internal/journal"
)

// testHeader is prepended to data by TestEncryptor to make encrypted output
// clearly different from plaintext while remaining deterministic and reversible.
var testHeader = []byte("JNLENC\x00\x00")

// TestEncryptor is a simple, deterministic encryptor for testing.
// It writes a fixed header followed by the passphrase length and the
// passphrase, then the plaintext. Decrypt checks both, so a wrong passphrase
// fails the same way it does with age, without any crypto cost.
type TestEncryptor struct{}

var _ journal.Encryptor = (*TestEncryptor)(nil)

// NewTestEncryptor creates a new TestEncryptor.
func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

func (e *TestEncryptor) Encrypt(passphrase string, r io.Reader, w io.Writer) error {
	if passphrase == "" {
		return fmt.Errorf("passphrase can't be empty")
	}
	if _, err := w.Write(testHeader); err != nil {
		return fmt.Errorf("writing test header: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%d:%s", len(passphrase), passphrase); err != nil {
		return fmt.Errorf("writing test passphrase: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (e *TestEncryptor) Decrypt(passphrase string, r io.Reader, w io.Writer) error {
	header := make([]byte, len(testHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading test header: %w", err)
	}
	if !bytes.Equal(header, testHeader) {
		return fmt.Errorf("invalid test encryption header")
	}

	want := fmt.Sprintf("%d:%s", len(passphrase), passphrase)
	got := make([]byte, len(want))
	if _, err := io.ReadFull(r, got); err != nil || string(got) != want {
		return fmt.Errorf("incorrect passphrase")
	}

	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
