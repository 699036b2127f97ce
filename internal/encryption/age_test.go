package encryption

import (
	"bytes"
	"testing"

	"journal/internal/config"
)

// newTestAgeEncryptor uses a low scrypt work factor to keep tests fast.
func newTestAgeEncryptor(t *testing.T) *AgeEncryptor {
	t.Helper()
	return NewAgeEncryptor(config.EncryptionConfig{Type: "age", WorkFactor: 10})
}

func TestAgeEncryptor_EncryptDecryptRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "simple text", input: []byte("hello world")},
		{name: "empty", input: []byte{}},
		{name: "binary data", input: []byte{0x00, 0xff, 0x01, 0xfe}},
		{name: "large data", input: bytes.Repeat([]byte("abcdef"), 10000)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			passphrase := "test-passphrase"
			e := newTestAgeEncryptor(t)

			var encrypted bytes.Buffer
			if err := e.Encrypt(passphrase, bytes.NewReader(tt.input), &encrypted); err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}

			if len(tt.input) > 0 && bytes.Contains(encrypted.Bytes(), tt.input) {
				t.Error("encrypted output contains the plaintext")
			}

			var decrypted bytes.Buffer
			if err := e.Decrypt(passphrase, bytes.NewReader(encrypted.Bytes()), &decrypted); err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}

			if !bytes.Equal(decrypted.Bytes(), tt.input) {
				t.Errorf("round-trip failed: got %d bytes, want %d bytes", decrypted.Len(), len(tt.input))
			}
		})
	}
}

func TestAgeEncryptor_DecryptWrongPassphrase(t *testing.T) {
	t.Parallel()

	e := newTestAgeEncryptor(t)
	var encrypted bytes.Buffer
	if err := e.Encrypt("correct-passphrase", bytes.NewReader([]byte("secret")), &encrypted); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	var out bytes.Buffer
	if err := e.Decrypt("wrong-passphrase", bytes.NewReader(encrypted.Bytes()), &out); err == nil {
		t.Error("Decrypt() with wrong passphrase should return error")
	}
}

func TestAgeEncryptor_EmptyPassphrase(t *testing.T) {
	t.Parallel()

	e := newTestAgeEncryptor(t)
	var buf bytes.Buffer
	if err := e.Encrypt("", bytes.NewReader([]byte("data")), &buf); err == nil {
		t.Error("Encrypt() with empty passphrase should return error")
	}
}

func TestAgeEncryptor_DecryptGarbage(t *testing.T) {
	t.Parallel()

	e := newTestAgeEncryptor(t)
	var out bytes.Buffer
	if err := e.Decrypt("passphrase", bytes.NewReader([]byte("not an age file")), &out); err == nil {
		t.Error("Decrypt() of non-age input should return error")
	}
}
