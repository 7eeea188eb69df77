package vault

import (
	"errors"
	"testing"

	v1 "github.com/vultisig/commondata/go/vultisig/vault/v1"
)

func TestEncryptDecryptEnvelope_RoundTrip(t *testing.T) {
	plaintext := []byte("a marshalled vault goes here")
	envelope, err := encryptEnvelope(plaintext, "correct horse battery staple")
	if err != nil {
		t.Fatalf("encryptEnvelope: %v", err)
	}

	got, err := decryptEnvelope(envelope, "correct horse battery staple")
	if err != nil {
		t.Fatalf("decryptEnvelope: %v", err)
	}
	if string(got) != string(plaintext) {
		t.Errorf("expected %q, got %q", plaintext, got)
	}
}

func TestDecryptArgon2Envelope_WrongPassword(t *testing.T) {
	envelope, err := encryptEnvelope([]byte("secret"), "right-password")
	if err != nil {
		t.Fatalf("encryptEnvelope: %v", err)
	}

	_, err = decryptEnvelope(envelope, "wrong-password")
	if !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
}

func TestDecryptArgon2Envelope_IntegrityFailure(t *testing.T) {
	envelope, err := encryptEnvelope([]byte("secret"), "right-password")
	if err != nil {
		t.Fatalf("encryptEnvelope: %v", err)
	}

	// Flip a byte in the ciphertext, after the key-check value, so the
	// password still derives the right key but the GCM tag no longer
	// matches.
	tampered := make([]byte, len(envelope))
	copy(tampered, envelope)
	tampered[len(tampered)-1] ^= 0xFF

	_, err = decryptEnvelope(tampered, "right-password")
	if !errors.Is(err, ErrIntegrityFailure) {
		t.Fatalf("expected ErrIntegrityFailure, got %v", err)
	}
}

func TestDecryptEnvelope_MalformedContainer(t *testing.T) {
	_, err := decryptEnvelope([]byte{0x01, 0x02}, "whatever")
	if !errors.Is(err, ErrMalformedContainer) {
		t.Fatalf("expected ErrMalformedContainer, got %v", err)
	}
}

func TestCheckVersion(t *testing.T) {
	ok := &v1.VaultContainer{Version: supportedContainerVersion}
	if err := CheckVersion(ok); err != nil {
		t.Errorf("expected supported version to pass, got %v", err)
	}

	bad := &v1.VaultContainer{Version: supportedContainerVersion + 1}
	if err := CheckVersion(bad); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestEncodeVaultFile_WritesSupportedVersion(t *testing.T) {
	vault := &v1.Vault{Name: "test-vault"}
	encoded, err := EncodeVaultFile(vault, "")
	if err != nil {
		t.Fatalf("EncodeVaultFile: %v", err)
	}
	if len(encoded) == 0 {
		t.Fatal("expected non-empty encoded vault")
	}
}
