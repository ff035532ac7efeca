// commit.go - Deterministic MiMC commitments for anonymous grouping and
// duplicate detection.
//
// Every input is encoded as a sequence of full field elements before
// hashing, one element per logical slot, so the native hashes line up
// with the in-circuit MiMC which consumes one variable per Write.

package commit

import (
	"math/big"

	fr "github.com/consensys/gnark-crypto/ecc/bw6-761/fr"
	mimcNative "github.com/consensys/gnark-crypto/ecc/bw6-761/fr/mimc"

	"zkreview/internal/buffer"
	"zkreview/internal/dkim"
	"zkreview/internal/redact"
)

// Domain commits to a domain buffer: all DomainCapacity slots are hashed,
// actual bytes for positions below the length and zeros for the rest.
// The zero padding is part of the hash input, so two domains with the
// same leading bytes but different actual lengths commit differently.
// That property is load-bearing for grouping and must not be optimized
// away.
func Domain(domain *buffer.Bytes) *big.Int {
	h := mimcNative.NewMiMC()
	for i := 0; i < redact.DomainCapacity; i++ {
		writeUint(h, uint64(domain.Get(i)))
	}
	return new(big.Int).SetBytes(h.Sum(nil))
}

// Nullifier derives the duplicate-detection scalar from the full
// fixed-width signature vector. Pure and deterministic; whoever holds
// the same verified signature derives the same nullifier.
func Nullifier(sig *dkim.Signature) *big.Int {
	h := mimcNative.NewMiMC()
	for _, limb := range sig.Limbs {
		writeBig(h, limb)
	}
	return new(big.Int).SetBytes(h.Sum(nil))
}

// SigningKey commits to a structured key descriptor: modulus limbs
// followed by the reduction parameter limbs.
func SigningKey(key *dkim.PublicKey) *big.Int {
	h := mimcNative.NewMiMC()
	for _, limb := range key.Modulus {
		writeBig(h, limb)
	}
	for _, limb := range key.Redc {
		writeBig(h, limb)
	}
	return new(big.Int).SetBytes(h.Sum(nil))
}

// writeBig feeds one value to the hash as a single canonical field element.
func writeBig(h interface{ Write([]byte) (int, error) }, v *big.Int) {
	var e fr.Element
	if v != nil {
		e.SetBigInt(v)
	}
	b := e.Bytes()
	h.Write(b[:])
}

func writeUint(h interface{ Write([]byte) (int, error) }, v uint64) {
	var e fr.Element
	e.SetUint64(v)
	b := e.Bytes()
	h.Write(b[:])
}
