package dkim

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"math/big"
	"testing"
)

// signHeader produces a key descriptor and signature vector for header
// using a throwaway RSA-2048 key.
func signHeader(t *testing.T, header []byte) (*PublicKey, *Signature) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, ModulusBits)
	if err != nil {
		t.Fatalf("rsa key generation failed: %v", err)
	}
	digest := sha256.Sum256(header)
	raw, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, digest[:])
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}
	key, err := NewPublicKey(priv.N)
	if err != nil {
		t.Fatalf("NewPublicKey failed: %v", err)
	}
	return key, NewSignatureFromBytes(raw)
}

func TestVerifyRoundTrip(t *testing.T) {
	header := []byte("from:Alice <alice@co.io>\r\nsubject:review\r\n")
	key, sig := signHeader(t, header)
	if err := Verify(header, key, sig); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
}

func TestVerifyTamperedHeader(t *testing.T) {
	header := []byte("from:Alice <alice@co.io>\r\n")
	key, sig := signHeader(t, header)
	tampered := append([]byte{}, header...)
	tampered[0] ^= 0x01
	if err := Verify(tampered, key, sig); !errors.Is(err, ErrVerify) {
		t.Fatalf("tampered header accepted: %v", err)
	}
}

func TestVerifyTamperedSignature(t *testing.T) {
	header := []byte("from:Alice <alice@co.io>\r\n")
	key, sig := signHeader(t, header)
	sig.Limbs[0] = new(big.Int).Add(sig.Limbs[0], big.NewInt(1))
	if err := Verify(header, key, sig); !errors.Is(err, ErrVerify) {
		t.Fatalf("tampered signature accepted: %v", err)
	}
}

func TestLimbRoundTrip(t *testing.T) {
	v, _ := new(big.Int).SetString("123456789012345678901234567890123456789012345678901234567890", 10)
	sig := NewSignature(v)
	if sig.Int().Cmp(v) != 0 {
		t.Fatalf("limb split/join changed the value")
	}
	for _, l := range sig.Limbs {
		if l.BitLen() > LimbBits {
			t.Fatalf("limb wider than %d bits", LimbBits)
		}
	}
}

func TestLocateField(t *testing.T) {
	header := []byte("subject:hi\r\nfrom:Alice <alice@co.io>\r\n")
	headerSpan := Span{Offset: 12, Length: 24}
	addrSpan := Span{Offset: 24, Length: 11}

	raw, err := LocateField(header, headerSpan, addrSpan, "from")
	if err != nil {
		t.Fatalf("LocateField failed: %v", err)
	}
	if string(raw) != "alice@co.io" {
		t.Fatalf("located %q", raw)
	}
}

func TestLocateFieldMalformedSpans(t *testing.T) {
	header := []byte("from:Alice <alice@co.io>\r\n")
	cases := []struct {
		name       string
		headerSpan Span
		addrSpan   Span
	}{
		{"negative offset", Span{-1, 10}, Span{0, 5}},
		{"zero length", Span{0, 0}, Span{0, 5}},
		{"past end", Span{0, 1000}, Span{0, 5}},
		{"address outside field", Span{0, 24}, Span{20, 10}},
		{"address before field", Span{5, 19}, Span{0, 5}},
	}
	for _, tc := range cases {
		if _, err := LocateField(header, tc.headerSpan, tc.addrSpan, "from"); !errors.Is(err, ErrSpan) {
			t.Errorf("%s: expected ErrSpan, got %v", tc.name, err)
		}
	}
}

func TestLocateFieldWrongName(t *testing.T) {
	header := []byte("subject:hello world\r\n")
	if _, err := LocateField(header, Span{0, 19}, Span{8, 5}, "from"); !errors.Is(err, ErrSpan) {
		t.Fatalf("expected ErrSpan for wrong field name, got %v", err)
	}
}
