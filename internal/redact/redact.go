// redact.go - Domain extraction and selective-disclosure masking.
//
// Turns a verified email address into the pieces that may be disclosed:
// the employer domain (everything from the first '@' onward) and a reveal
// mask over the address bytes. The username bytes are never copied out.
//
// NOTE: every scan below runs over the full declared capacity, not the
// actual length, so the step count does not depend on the secret content.

package redact

import "zkreview/internal/buffer"

const (
	// EmailCapacity is the fixed capacity of an address buffer.
	EmailCapacity = 64
	// DomainCapacity is the fixed capacity of a domain buffer. A domain
	// longer than this is silently truncated, while the reveal mask still
	// covers the full address; see BuildMask.
	DomainCapacity = 32
	// Separator is the byte that starts the domain suffix.
	Separator = byte('@')
	// Placeholder is the byte substituted for hidden positions.
	Placeholder = byte('*')
)

// RevealMask marks which address positions are disclosed. It is
// index-aligned with the full EmailCapacity, true meaning revealed.
type RevealMask [EmailCapacity]bool

// NewEmail builds an address buffer from raw located bytes.
func NewEmail(raw []byte) *buffer.Bytes {
	return buffer.NewBytes(EmailCapacity, raw)
}

// ExtractDomain isolates the domain suffix of an address, including the
// separator itself. A one-way latch flips at the first '@' and every byte
// from there up to the address's actual length is appended to the output,
// subject to the domain buffer's own truncation at DomainCapacity. An
// address without a separator yields an empty domain. Later '@' bytes are
// ordinary content; the latch never resets.
func ExtractDomain(addr *buffer.Bytes) *buffer.Bytes {
	domain := buffer.New[byte](DomainCapacity)
	found := false
	for i := 0; i < EmailCapacity; i++ { // full capacity, never early-exit
		b := addr.Get(i)
		inLen := i < addr.Len()
		if inLen && b == Separator {
			found = true
		}
		if found && inLen {
			domain.Append(b)
		}
	}
	return domain
}

// BuildMask computes the reveal mask for an address: false for every
// username byte, true from the first separator through the last actual
// byte, false again for unused capacity. Padding is always hidden, even
// after the latch has flipped.
//
// The mask spans the full EmailCapacity while ExtractDomain truncates at
// DomainCapacity, so a masked address can reveal bytes the committed
// domain dropped. That asymmetry is deliberate and kept as-is.
func BuildMask(addr *buffer.Bytes) RevealMask {
	var mask RevealMask
	found := false
	for i := 0; i < EmailCapacity; i++ {
		b := addr.Get(i)
		inLen := i < addr.Len()
		if inLen && b == Separator {
			found = true
		}
		mask[i] = found && inLen
	}
	return mask
}

// ApplyMask produces the disclosable form of an address: revealed
// positions keep their byte, hidden positions within the actual length
// become the placeholder. Capacity and length metadata are preserved;
// padding stays logically zero.
func ApplyMask(addr *buffer.Bytes, mask RevealMask) *buffer.Bytes {
	out := buffer.New[byte](EmailCapacity)
	for i := 0; i < EmailCapacity; i++ {
		if i >= addr.Len() {
			continue
		}
		if mask[i] {
			out.Append(addr.Get(i))
		} else {
			out.Append(Placeholder)
		}
	}
	return out
}
