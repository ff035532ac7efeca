// submission.go - The privacy-transform pipeline for verified workplace
// reviews.
//
// A single linear pass turns a DKIM-verified header and signature into
// the public triple (domain commitment, nullifier, signing-key
// commitment) and the private submission record. All-or-nothing: the two
// external checks abort the whole operation with no partial output, and
// every derivation step after them is total.

package submission

import (
	"errors"
	"fmt"
	"math/big"

	"zkreview/internal/buffer"
	"zkreview/internal/commit"
	"zkreview/internal/dkim"
	"zkreview/internal/redact"
)

const (
	// MaxHeaderBytes bounds the raw signed header.
	MaxHeaderBytes = dkim.MaxHeaderBytes
	// MaxReviewBytes bounds the review text.
	MaxReviewBytes = 1024

	// fromField is the header field the address is located in.
	fromField = "from"
)

var (
	// ErrSignatureInvalid aborts processing before any derivation.
	ErrSignatureInvalid = errors.New("submission: signature verification failed")
	// ErrFieldLocation aborts processing on malformed span descriptors.
	ErrFieldLocation = errors.New("submission: field location invalid")
	// ErrCapacity rejects inputs whose declared bounds exceed the fixed
	// maxima. Distinct from buffer truncation, which is silent and not
	// an error.
	ErrCapacity = errors.New("submission: input exceeds fixed capacity")
)

// PublicOutputs is the only triple intended for external disclosure.
type PublicOutputs struct {
	DomainCommitment *big.Int
	Nullifier        *big.Int
	KeyCommitment    *big.Int
}

// ReviewSubmission is the private record assembled once per invocation
// and never reused across invocations.
type ReviewSubmission struct {
	Review           *buffer.Bytes
	DomainCommitment *big.Int
	MaskedAddress    *buffer.Bytes
	Nullifier        *big.Int
}

// Process runs the full pipeline. On any failure it returns no outputs
// at all; callers must not observe zero or garbage scalars from a failed
// invocation. No state is retained between invocations, so concurrent
// calls are independent.
func Process(header []byte, key *dkim.PublicKey, sig *dkim.Signature,
	headerSpan, addrSpan dkim.Span, review []byte) (*PublicOutputs, *ReviewSubmission, error) {

	if len(header) > MaxHeaderBytes {
		return nil, nil, fmt.Errorf("%w: header %d > %d bytes", ErrCapacity, len(header), MaxHeaderBytes)
	}
	if len(review) > MaxReviewBytes {
		return nil, nil, fmt.Errorf("%w: review %d > %d bytes", ErrCapacity, len(review), MaxReviewBytes)
	}

	// Step 1: Verify the signature over the raw header. Fatal on mismatch.
	if err := dkim.Verify(header, key, sig); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}

	// Step 2: Locate the address bytes inside the named header field.
	raw, err := dkim.LocateField(header, headerSpan, addrSpan, fromField)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrFieldLocation, err)
	}
	addr := redact.NewEmail(raw)

	// Step 3: Extract the domain and commit to it.
	domain := redact.ExtractDomain(addr)
	domainCommitment := commit.Domain(domain)

	// Step 4: Build the reveal mask and produce the masked address.
	mask := redact.BuildMask(addr)
	masked := redact.ApplyMask(addr, mask)

	// Step 5: Derive the nullifier from the signature vector.
	nullifier := commit.Nullifier(sig)

	// Step 6: Commit to the signing key descriptor.
	keyCommitment := commit.SigningKey(key)

	// Step 7: Assemble outputs.
	outputs := &PublicOutputs{
		DomainCommitment: domainCommitment,
		Nullifier:        nullifier,
		KeyCommitment:    keyCommitment,
	}
	record := &ReviewSubmission{
		Review:           buffer.NewBytes(MaxReviewBytes, review),
		DomainCommitment: domainCommitment,
		MaskedAddress:    masked,
		Nullifier:        nullifier,
	}
	return outputs, record, nil
}

// Assignment builds the circuit witness for a processed submission by
// re-locating the address from the original inputs.
func Assignment(header []byte, key *dkim.PublicKey, sig *dkim.Signature,
	headerSpan, addrSpan dkim.Span, outputs *PublicOutputs, record *ReviewSubmission) (*Circuit, error) {

	raw, err := dkim.LocateField(header, headerSpan, addrSpan, fromField)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFieldLocation, err)
	}
	return NewAssignment(redact.NewEmail(raw), sig, key, outputs, record.MaskedAddress), nil
}
