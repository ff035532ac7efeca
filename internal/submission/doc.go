// Package submission assembles verified workplace reviews into anonymous,
// duplicate-detectable artifacts.
//
// Overview:
//   - Verifies a DKIM-style signature over the raw header, locates the
//     address, and derives the public triple (domain commitment, nullifier,
//     signing-key commitment) plus the private submission record
//   - The pipeline is a single linear pass with no retained state; failed
//     verification or location aborts with no partial output
//   - A gnark circuit (Groth16, BW6-761) re-derives the same outputs from
//     the private address and signature for zero-knowledge disclosure
//
// Security Model:
//   - Uses MiMC hash for the domain commitment, nullifier, and key commitment
//   - Domain padding is hashed, so commitments are length-sensitive
//   - All buffer scans run the full declared capacity so step count does not
//     depend on the secret content length
//   - The nullifier is a pure function of the signature; an external registry
//     uses it to reject duplicate submissions from the same identity
//
// Usage:
//   - Call Process for the native pipeline; Compile, SetupOrLoadKeys, Prove,
//     and VerifyProof for the proof layer
package submission
