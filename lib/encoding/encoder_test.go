package encoding

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testEntries() map[string]any {
	return map[string]any{
		"name":            "Alice",
		"email":           "",
		"address.street1": "1 Main",
	}
}

func TestSignedRoundTrip(t *testing.T) {
	enc, err := NewEncoder([]byte("short key"))
	if err != nil {
		t.Fatal(err)
	}

	encoded, err := enc.Encode(testEntries(), false)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(encoded, ".") {
		t.Error("signed encoding missing signature separator")
	}

	decoded, err := enc.Decode(encoded, false)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(testEntries(), decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncryptedRoundTrip(t *testing.T) {
	enc, err := NewEncoder(make([]byte, 32))
	if err != nil {
		t.Fatal(err)
	}

	encoded, err := enc.Encode(testEntries(), true)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if strings.Contains(encoded, "Alice") {
		t.Error("encrypted encoding leaks plaintext")
	}

	decoded, err := enc.Decode(encoded, true)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(testEntries(), decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestTamperedSignatureRejected(t *testing.T) {
	enc, _ := NewEncoder([]byte("key"))
	encoded, _ := enc.Encode(testEntries(), false)

	parts := strings.SplitN(encoded, ".", 2)
	tampered := parts[0] + "x." + parts[1]

	if _, err := enc.Decode(tampered, false); !errors.Is(err, ErrSignatureInvalid) && !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("tampered decode = %v, want signature/format error", err)
	}
}

func TestMissingSignatureRejected(t *testing.T) {
	enc, _ := NewEncoder([]byte("key"))
	if _, err := enc.Decode("no-separator-here", false); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("decode = %v, want ErrInvalidFormat", err)
	}
}

func TestTamperedCiphertextRejected(t *testing.T) {
	enc, _ := NewEncoder([]byte("key"))
	encoded, _ := enc.Encode(testEntries(), true)

	tampered := []byte(encoded)
	tampered[len(tampered)-1] ^= 1

	if _, err := enc.Decode(string(tampered), true); !errors.Is(err, ErrDecryptFailed) && !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("tampered decode = %v, want decrypt/format error", err)
	}
}

func TestWrongKeyRejected(t *testing.T) {
	a, _ := NewEncoder([]byte("key-a"))
	b, _ := NewEncoder([]byte("key-b"))

	signed, _ := a.Encode(testEntries(), false)
	if _, err := b.Decode(signed, false); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("cross-key signed decode = %v, want ErrSignatureInvalid", err)
	}

	sealed, _ := a.Encode(testEntries(), true)
	if _, err := b.Decode(sealed, true); !errors.Is(err, ErrDecryptFailed) {
		t.Errorf("cross-key encrypted decode = %v, want ErrDecryptFailed", err)
	}
}
