// handler.go - HTTP API for anonymous review submission.
package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"zkreview/internal/buffer"
	"zkreview/internal/dkim"
	"zkreview/internal/metrics"
	"zkreview/internal/registry"
	"zkreview/internal/submission"
)

// Prover holds the compiled circuit and proving key used to attach a
// Groth16 proof to each accepted submission.
type Prover struct {
	ccs constraint.ConstraintSystem
	pk  groth16.ProvingKey
}

// NewProver bundles a compiled constraint system with its proving key.
func NewProver(ccs constraint.ConstraintSystem, pk groth16.ProvingKey) *Prover {
	return &Prover{ccs: ccs, pk: pk}
}

// Handler serves the submission API. Each request runs one independent
// pipeline invocation; the only shared state is the nullifier registry
// and the stored records.
type Handler struct {
	registry registry.Registry
	limiter  *ClientRateLimiter
	metrics  *metrics.Metrics
	prover   *Prover
	log      zerolog.Logger

	mu    sync.RWMutex
	store map[string]*StoredSubmission
}

// NewHandler wires the submission API. limiter may be nil to disable
// rate limiting (tests).
func NewHandler(reg registry.Registry, limiter *ClientRateLimiter, m *metrics.Metrics, log zerolog.Logger) *Handler {
	return &Handler{
		registry: reg,
		limiter:  limiter,
		metrics:  m,
		log:      log,
		store:    make(map[string]*StoredSubmission),
	}
}

// WithProver enables proof generation for accepted submissions.
func (h *Handler) WithProver(p *Prover) *Handler {
	h.prover = p
	return h
}

// RegisterRoutes mounts the API on a chi router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/v1/submissions", h.submit)
	r.Get("/v1/submissions/{id}", h.get)
}

// SubmissionRequest is the wire form of one review submission. The
// header travels base64-encoded; key modulus and signature are decimal
// integers expanded server-side into their fixed limb vectors.
type SubmissionRequest struct {
	Header      []byte    `json:"header"`
	HeaderSpan  dkim.Span `json:"header_span"`
	AddressSpan dkim.Span `json:"address_span"`
	KeyModulus  string    `json:"key_modulus"`
	Signature   string    `json:"signature"`
	Review      string    `json:"review"`
}

// SubmissionResponse carries the disclosed triple and the record id.
type SubmissionResponse struct {
	ID               string `json:"id"`
	DomainCommitment string `json:"domain_commitment"`
	Nullifier        string `json:"nullifier"`
	KeyCommitment    string `json:"key_commitment"`
}

// StoredSubmission is the retained record for one accepted submission.
// Proof is set only when the handler runs with a prover.
type StoredSubmission struct {
	ID               string    `json:"id"`
	DomainCommitment string    `json:"domain_commitment"`
	Nullifier        string    `json:"nullifier"`
	MaskedAddress    string    `json:"masked_address"`
	Review           string    `json:"review"`
	Proof            string    `json:"proof,omitempty"`
	SubmittedAt      time.Time `json:"submitted_at"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	if h.limiter != nil && !h.limiter.Allow(clientID(r)) {
		h.reject(w, "rate_limited", "Too many submissions", http.StatusTooManyRequests)
		return
	}

	var req SubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.reject(w, "bad_request", fmt.Sprintf("Failed to parse request: %v", err), http.StatusBadRequest)
		return
	}

	modulus, ok := new(big.Int).SetString(req.KeyModulus, 10)
	if !ok {
		h.reject(w, "bad_request", "Malformed key modulus", http.StatusBadRequest)
		return
	}
	sigInt, ok := new(big.Int).SetString(req.Signature, 10)
	if !ok {
		h.reject(w, "bad_request", "Malformed signature", http.StatusBadRequest)
		return
	}
	key, err := dkim.NewPublicKey(modulus)
	if err != nil {
		h.reject(w, "bad_request", fmt.Sprintf("Invalid signing key: %v", err), http.StatusBadRequest)
		return
	}
	sig := dkim.NewSignature(sigInt)

	start := time.Now()
	outputs, record, err := submission.Process(req.Header, key, sig,
		req.HeaderSpan, req.AddressSpan, []byte(req.Review))
	h.metrics.ProcessDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		switch {
		case errors.Is(err, submission.ErrCapacity):
			h.reject(w, "capacity", err.Error(), http.StatusBadRequest)
		case errors.Is(err, submission.ErrSignatureInvalid):
			h.reject(w, "signature", "Signature verification failed", http.StatusUnprocessableEntity)
		case errors.Is(err, submission.ErrFieldLocation):
			h.reject(w, "span", "Field location invalid", http.StatusUnprocessableEntity)
		default:
			h.reject(w, "internal", "Submission processing failed", http.StatusInternalServerError)
		}
		return
	}

	var proofB64 string
	if h.prover != nil {
		assignment, err := submission.Assignment(req.Header, key, sig,
			req.HeaderSpan, req.AddressSpan, outputs, record)
		if err != nil {
			h.reject(w, "internal", "Witness construction failed", http.StatusInternalServerError)
			return
		}
		proveStart := time.Now()
		proof, err := submission.Prove(h.prover.ccs, h.prover.pk, assignment)
		h.metrics.ProofDuration.Observe(time.Since(proveStart).Seconds())
		if err != nil {
			h.log.Error().Err(err).Msg("proof generation failed")
			h.reject(w, "internal", "Proof generation failed", http.StatusInternalServerError)
			return
		}
		proofB64 = base64.StdEncoding.EncodeToString(proof)
	}

	if err := h.registry.Spend(r.Context(), outputs.Nullifier); err != nil {
		if errors.Is(err, registry.ErrDuplicate) {
			h.reject(w, "duplicate", "A review from this identity already exists", http.StatusConflict)
			return
		}
		h.log.Error().Err(err).Msg("nullifier registry unavailable")
		h.reject(w, "internal", "Registry unavailable", http.StatusInternalServerError)
		return
	}

	stored := &StoredSubmission{
		ID:               uuid.NewString(),
		DomainCommitment: outputs.DomainCommitment.String(),
		Nullifier:        outputs.Nullifier.String(),
		MaskedAddress:    buffer.String(record.MaskedAddress),
		Review:           buffer.String(record.Review),
		Proof:            proofB64,
		SubmittedAt:      time.Now().UTC(),
	}
	h.mu.Lock()
	h.store[stored.ID] = stored
	h.mu.Unlock()

	h.metrics.SubmissionsAccepted.Inc()
	h.log.Info().
		Str("id", stored.ID).
		Str("masked_address", stored.MaskedAddress).
		Msg("submission accepted")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(SubmissionResponse{
		ID:               stored.ID,
		DomainCommitment: outputs.DomainCommitment.String(),
		Nullifier:        outputs.Nullifier.String(),
		KeyCommitment:    outputs.KeyCommitment.String(),
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.mu.RLock()
	stored, ok := h.store[id]
	h.mu.RUnlock()
	if !ok {
		http.Error(w, "Submission not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stored)
}

// reject counts and reports one rejected submission.
func (h *Handler) reject(w http.ResponseWriter, reason, msg string, code int) {
	h.metrics.SubmissionsRejected.WithLabelValues(reason).Inc()
	h.log.Debug().Str("reason", reason).Int("status", code).Msg("submission rejected")
	http.Error(w, msg, code)
}

// clientID keys the rate limiter by remote host.
func clientID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
