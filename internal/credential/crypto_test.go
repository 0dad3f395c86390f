package credential

import "testing"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	encoded, err := Encrypt("sk-test-12345", "master-key")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	got, err := Decrypt(encoded, "master-key")
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if got != "sk-test-12345" {
		t.Errorf("round trip mismatch: got %q", got)
	}
}

func TestDecrypt_WrongPassphraseFails(t *testing.T) {
	encoded, err := Encrypt("secret-value", "correct-key")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := Decrypt(encoded, "wrong-key"); err == nil {
		t.Error("expected decrypt with wrong passphrase to fail")
	}
}

func TestDecrypt_MalformedCiphertext(t *testing.T) {
	if _, err := Decrypt("dG9vc2hvcnQ=", "any-key"); err != ErrMalformedCiphertext {
		t.Errorf("expected ErrMalformedCiphertext, got %v", err)
	}
}

func TestEncrypt_SaltIsRandomPerCall(t *testing.T) {
	a, err := Encrypt("same-plaintext", "key")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	b, err := Encrypt("same-plaintext", "key")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if a == b {
		t.Error("expected distinct ciphertexts for the same plaintext due to random salt/nonce")
	}
}
