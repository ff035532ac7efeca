package commit

import (
	"math/big"
	"testing"

	"zkreview/internal/buffer"
	"zkreview/internal/dkim"
	"zkreview/internal/redact"
)

func domainOf(s string) *buffer.Bytes {
	return buffer.NewBytes(redact.DomainCapacity, []byte(s))
}

func TestDomainDeterministic(t *testing.T) {
	a := Domain(domainOf("@co.io"))
	b := Domain(domainOf("@co.io"))
	if a.Cmp(b) != 0 {
		t.Fatalf("same domain content committed differently")
	}
	if a.Sign() == 0 {
		t.Fatalf("commitment is zero")
	}
}

func TestDomainContentSensitive(t *testing.T) {
	a := Domain(domainOf("@co.io"))
	b := Domain(domainOf("@co.iq"))
	if a.Cmp(b) == 0 {
		t.Fatalf("different domains committed identically")
	}
}

func TestDomainLengthSensitive(t *testing.T) {
	// Identical prefixes with different actual lengths must commit
	// differently: the zero padding is hashed too.
	a := Domain(domainOf("@co.io"))
	b := Domain(domainOf("@co.io "))
	if a.Cmp(b) == 0 {
		t.Fatalf("trailing-length difference did not change the commitment")
	}
}

func TestDomainEmptyIsDefined(t *testing.T) {
	a := Domain(domainOf(""))
	b := Domain(domainOf(""))
	if a.Cmp(b) != 0 {
		t.Fatalf("empty domain commitment not deterministic")
	}
}

func sigFrom(seed int64) *dkim.Signature {
	v := new(big.Int).Exp(big.NewInt(seed), big.NewInt(31), nil)
	return dkim.NewSignature(v)
}

func TestNullifierPure(t *testing.T) {
	s := sigFrom(7919)
	a := Nullifier(s)
	b := Nullifier(s)
	if a.Cmp(b) != 0 {
		t.Fatalf("nullifier not pure: repeated calls differ")
	}
}

func TestNullifierDistinguishesSignatures(t *testing.T) {
	a := Nullifier(sigFrom(7919))
	b := Nullifier(sigFrom(7920))
	if a.Cmp(b) == 0 {
		t.Fatalf("distinct signatures produced the same nullifier")
	}
}

func TestSigningKeyCommitment(t *testing.T) {
	n := new(big.Int).Lsh(big.NewInt(1), dkim.ModulusBits-1)
	n.Add(n, big.NewInt(12345))
	key, err := dkim.NewPublicKey(n)
	if err != nil {
		t.Fatalf("NewPublicKey: %v", err)
	}
	a := SigningKey(key)
	b := SigningKey(key)
	if a.Cmp(b) != 0 {
		t.Fatalf("key commitment not deterministic")
	}

	n2 := new(big.Int).Add(n, big.NewInt(2))
	key2, err := dkim.NewPublicKey(n2)
	if err != nil {
		t.Fatalf("NewPublicKey: %v", err)
	}
	if a.Cmp(SigningKey(key2)) == 0 {
		t.Fatalf("distinct keys committed identically")
	}
}
