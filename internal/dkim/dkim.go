// dkim.go - DKIM-style signature verification and header field location.
//
// Keys and signatures are carried as fixed-width vectors of 120-bit limbs,
// the same shape the proof layer consumes. Verification is RSASSA-PKCS1-v1_5
// over SHA-256 of the raw header bytes.

package dkim

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const (
	// LimbBits is the width of one limb of a key or signature vector.
	LimbBits = 120
	// KeyLimbs is the fixed limb count of an RSA-2048 modulus vector.
	KeyLimbs = 18
	// SignatureLimbs is the fixed limb count of a signature vector.
	SignatureLimbs = 18
	// ModulusBits is the RSA modulus size.
	ModulusBits = 2048
	// MaxHeaderBytes bounds the signed header input.
	MaxHeaderBytes = 1024
)

var (
	// ErrVerify is returned when a signature does not verify.
	ErrVerify = errors.New("dkim: signature does not verify")
	// ErrSpan is returned for a malformed span descriptor.
	ErrSpan = errors.New("dkim: malformed span")
)

// pkcs1SHA256Prefix is the DER DigestInfo prefix for SHA-256.
var pkcs1SHA256Prefix = []byte{
	0x30, 0x31, 0x30, 0x0d, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01,
	0x65, 0x03, 0x04, 0x02, 0x01, 0x05, 0x00, 0x04, 0x20,
}

// Signature is a fixed-width numeric signature vector, least significant
// limb first.
type Signature struct {
	Limbs [SignatureLimbs]*big.Int
}

// NewSignature splits a signature integer into the fixed limb vector.
func NewSignature(s *big.Int) *Signature {
	sig := &Signature{}
	limbs := splitLimbs(s, SignatureLimbs)
	copy(sig.Limbs[:], limbs)
	return sig
}

// NewSignatureFromBytes builds a signature vector from big-endian bytes,
// as produced by an RSA signer.
func NewSignatureFromBytes(raw []byte) *Signature {
	return NewSignature(new(big.Int).SetBytes(raw))
}

// Int reassembles the signature integer from its limbs.
func (s *Signature) Int() *big.Int {
	return joinLimbs(s.Limbs[:])
}

// PublicKey is a signing key descriptor: the modulus as a fixed limb
// vector together with its Barrett reduction parameter in the same form,
// and the public exponent.
type PublicKey struct {
	Modulus  [KeyLimbs]*big.Int
	Redc     [KeyLimbs]*big.Int
	Exponent uint64
}

// NewPublicKey builds a key descriptor from an RSA modulus, deriving the
// reduction parameter floor(2^(2*ModulusBits) / n).
func NewPublicKey(n *big.Int) (*PublicKey, error) {
	if n.Sign() <= 0 || n.BitLen() > ModulusBits {
		return nil, fmt.Errorf("dkim: modulus out of range (%d bits)", n.BitLen())
	}
	redc := new(big.Int).Lsh(big.NewInt(1), 2*ModulusBits)
	redc.Quo(redc, n)

	key := &PublicKey{Exponent: 65537}
	copy(key.Modulus[:], splitLimbs(n, KeyLimbs))
	copy(key.Redc[:], splitLimbs(redc, KeyLimbs))
	return key, nil
}

// ModulusInt reassembles the modulus from its limbs.
func (k *PublicKey) ModulusInt() *big.Int {
	return joinLimbs(k.Modulus[:])
}

// Verify checks an RSASSA-PKCS1-v1_5 signature over SHA-256 of header.
// Any mismatch is reported as ErrVerify; callers treat it as fatal.
func Verify(header []byte, key *PublicKey, sig *Signature) error {
	if len(header) > MaxHeaderBytes {
		return fmt.Errorf("dkim: header exceeds %d bytes", MaxHeaderBytes)
	}
	n := key.ModulusInt()
	s := sig.Int()
	if s.Sign() <= 0 || s.Cmp(n) >= 0 {
		return ErrVerify
	}

	e := new(big.Int).SetUint64(key.Exponent)
	m := new(big.Int).Exp(s, e, n)

	k := ModulusBits / 8
	em := m.FillBytes(make([]byte, k))
	expected := encodePKCS1(header, k)
	if subtle.ConstantTimeCompare(em, expected) != 1 {
		return ErrVerify
	}
	return nil
}

// encodePKCS1 builds the EMSA-PKCS1-v1_5 encoding of SHA-256(header).
func encodePKCS1(header []byte, k int) []byte {
	digest := sha256.Sum256(header)
	t := append(append([]byte{}, pkcs1SHA256Prefix...), digest[:]...)
	em := make([]byte, k)
	em[0] = 0x00
	em[1] = 0x01
	psLen := k - len(t) - 3
	for i := 0; i < psLen; i++ {
		em[2+i] = 0xff
	}
	em[2+psLen] = 0x00
	copy(em[3+psLen:], t)
	return em
}

// Span locates a substring as an (offset, length) pair.
type Span struct {
	Offset int `json:"offset"`
	Length int `json:"length"`
}

// LocateField resolves the raw address bytes named by two spans: the
// header-field span selects "<fieldName>:..." within the header, and the
// address span selects the address inside that field. Both offsets are
// absolute. Malformed spans are fatal for the caller.
func LocateField(header []byte, headerSpan, addrSpan Span, fieldName string) ([]byte, error) {
	if headerSpan.Offset < 0 || headerSpan.Length <= 0 ||
		headerSpan.Offset+headerSpan.Length > len(header) {
		return nil, fmt.Errorf("%w: header field span [%d,%d) outside %d header bytes",
			ErrSpan, headerSpan.Offset, headerSpan.Offset+headerSpan.Length, len(header))
	}
	if addrSpan.Offset < headerSpan.Offset || addrSpan.Length <= 0 ||
		addrSpan.Offset+addrSpan.Length > headerSpan.Offset+headerSpan.Length {
		return nil, fmt.Errorf("%w: address span [%d,%d) outside header field span",
			ErrSpan, addrSpan.Offset, addrSpan.Offset+addrSpan.Length)
	}

	field := header[headerSpan.Offset : headerSpan.Offset+headerSpan.Length]
	want := fieldName + ":"
	if len(field) < len(want) || !strings.EqualFold(string(field[:len(want)]), want) {
		return nil, fmt.Errorf("%w: span does not select a %q field", ErrSpan, fieldName)
	}

	return header[addrSpan.Offset : addrSpan.Offset+addrSpan.Length], nil
}

// splitLimbs cuts v into count limbs of LimbBits, least significant first.
// Bits beyond the vector's width are discarded.
func splitLimbs(v *big.Int, count int) []*big.Int {
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), LimbBits), big.NewInt(1))
	rest := new(big.Int).Set(v)
	limbs := make([]*big.Int, count)
	for i := 0; i < count; i++ {
		limbs[i] = new(big.Int).And(rest, mask)
		rest.Rsh(rest, LimbBits)
	}
	return limbs
}

// joinLimbs reassembles an integer from least-significant-first limbs.
func joinLimbs(limbs []*big.Int) *big.Int {
	out := new(big.Int)
	for i := len(limbs) - 1; i >= 0; i-- {
		out.Lsh(out, LimbBits)
		if limbs[i] != nil {
			out.Add(out, limbs[i])
		}
	}
	return out
}
