package submission

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"

	"zkreview/internal/buffer"
	"zkreview/internal/dkim"
	"zkreview/internal/redact"
)

// Circuit proves that the public triple and masked address were derived
// from a private address and signature by the exact pipeline the native
// code runs: same one-way latch over the full address capacity, same
// zero-padded domain slots, same truncation at DomainCapacity.
type Circuit struct {
	// Public inputs
	DomainCommitment frontend.Variable                       `gnark:",public"`
	Nullifier        frontend.Variable                       `gnark:",public"`
	KeyCommitment    frontend.Variable                       `gnark:",public"`
	MaskedAddress    [redact.EmailCapacity]frontend.Variable `gnark:",public"`

	// Private inputs
	Address    [redact.EmailCapacity]frontend.Variable
	LenBits    [redact.EmailCapacity]frontend.Variable // 1 while i < length, then 0
	Signature  [dkim.SignatureLimbs]frontend.Variable
	KeyModulus [dkim.KeyLimbs]frontend.Variable
	KeyRedc    [dkim.KeyLimbs]frontend.Variable
}

func (c *Circuit) Define(api frontend.API) error {
	// Step 1: Length bits are boolean, monotone non-increasing, and the
	// padding beyond the length is zero (the hash-input convention).
	for i := 0; i < redact.EmailCapacity; i++ {
		api.AssertIsBoolean(c.LenBits[i])
		api.AssertIsEqual(api.Mul(c.Address[i], api.Sub(1, c.LenBits[i])), 0)
	}
	for i := 0; i+1 < redact.EmailCapacity; i++ {
		api.AssertIsEqual(api.Mul(c.LenBits[i+1], api.Sub(1, c.LenBits[i])), 0)
	}

	// Step 2: Latch scan over the full capacity. found flips at the first
	// separator and never resets; idx counts appended domain bytes so each
	// lands in its slot, bytes past DomainCapacity falling off silently.
	var slots [redact.DomainCapacity]frontend.Variable
	for j := range slots {
		slots[j] = 0
	}
	found := frontend.Variable(0)
	idx := frontend.Variable(0)
	for i := 0; i < redact.EmailCapacity; i++ {
		isSep := api.IsZero(api.Sub(c.Address[i], int(redact.Separator)))
		isSep = api.Mul(isSep, c.LenBits[i])
		found = api.Sub(api.Add(found, isSep), api.Mul(found, isSep))

		appended := api.Mul(found, c.LenBits[i])
		for j := 0; j < redact.DomainCapacity; j++ {
			eq := api.IsZero(api.Sub(idx, j))
			slots[j] = api.Add(slots[j], api.Mul(appended, eq, c.Address[i]))
		}
		idx = api.Add(idx, appended)

		// Step 3: Masked address: revealed positions keep their byte,
		// hidden in-length positions carry the placeholder, padding is zero.
		masked := api.Mul(c.LenBits[i], api.Select(appended, c.Address[i], int(redact.Placeholder)))
		api.AssertIsEqual(c.MaskedAddress[i], masked)
	}

	// Step 4: Domain commitment over all slots, zero padding included.
	hasher, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	for j := 0; j < redact.DomainCapacity; j++ {
		hasher.Write(slots[j])
	}
	api.AssertIsEqual(c.DomainCommitment, hasher.Sum())

	// Step 5: Nullifier over the full signature vector.
	hasher.Reset()
	for _, limb := range c.Signature {
		hasher.Write(limb)
	}
	api.AssertIsEqual(c.Nullifier, hasher.Sum())

	// Step 6: Signing-key commitment over modulus then reduction limbs.
	hasher.Reset()
	for _, limb := range c.KeyModulus {
		hasher.Write(limb)
	}
	for _, limb := range c.KeyRedc {
		hasher.Write(limb)
	}
	api.AssertIsEqual(c.KeyCommitment, hasher.Sum())

	return nil
}

// NewAssignment builds a full witness from the native pipeline artifacts.
func NewAssignment(addr *buffer.Bytes, sig *dkim.Signature, key *dkim.PublicKey,
	outputs *PublicOutputs, masked *buffer.Bytes) *Circuit {

	w := &Circuit{
		DomainCommitment: outputs.DomainCommitment.String(),
		Nullifier:        outputs.Nullifier.String(),
		KeyCommitment:    outputs.KeyCommitment.String(),
	}
	for i := 0; i < redact.EmailCapacity; i++ {
		w.MaskedAddress[i] = int(masked.Get(i))
		w.Address[i] = int(addr.Get(i))
		if i < addr.Len() {
			w.LenBits[i] = 1
		} else {
			w.LenBits[i] = 0
		}
	}
	for i, limb := range sig.Limbs {
		w.Signature[i] = limb.String()
	}
	for i, limb := range key.Modulus {
		w.KeyModulus[i] = limb.String()
	}
	for i, limb := range key.Redc {
		w.KeyRedc[i] = limb.String()
	}
	return w
}

// NewPublicAssignment builds the public-only witness used for
// verification.
func NewPublicAssignment(outputs *PublicOutputs, masked *buffer.Bytes) *Circuit {
	w := &Circuit{
		DomainCommitment: outputs.DomainCommitment.String(),
		Nullifier:        outputs.Nullifier.String(),
		KeyCommitment:    outputs.KeyCommitment.String(),
	}
	for i := 0; i < redact.EmailCapacity; i++ {
		w.MaskedAddress[i] = int(masked.Get(i))
	}
	return w
}
