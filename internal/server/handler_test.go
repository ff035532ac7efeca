package server

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zkreview/internal/dkim"
	"zkreview/internal/metrics"
	"zkreview/internal/registry"
)

// Instruments register on the process-global registry, so share one set.
var testMetrics = metrics.New()

func newTestHandler(limiter *ClientRateLimiter) (*Handler, chi.Router) {
	h := NewHandler(registry.NewLedger(), limiter, testMetrics, zerolog.Nop())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return h, r
}

// newSignedRequest builds a valid submission request around addr.
func newSignedRequest(t *testing.T, addr, review string) SubmissionRequest {
	t.Helper()
	field := "from:Reviewer <" + addr + ">"
	header := []byte("subject:workplace review\r\n" + field + "\r\n")

	priv, err := rsa.GenerateKey(rand.Reader, dkim.ModulusBits)
	require.NoError(t, err)
	digest := sha256.Sum256(header)
	rawSig, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, digest[:])
	require.NoError(t, err)

	return SubmissionRequest{
		Header:      header,
		HeaderSpan:  dkim.Span{Offset: strings.Index(string(header), field), Length: len(field)},
		AddressSpan: dkim.Span{Offset: strings.Index(string(header), addr), Length: len(addr)},
		KeyModulus:  priv.N.String(),
		Signature:   dkim.NewSignatureFromBytes(rawSig).Int().String(),
		Review:      review,
	}
}

func postSubmission(r chi.Router, req SubmissionRequest) *httptest.ResponseRecorder {
	body, _ := json.Marshal(req)
	httpReq := httptest.NewRequest(http.MethodPost, "/v1/submissions", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httpReq)
	return rec
}

func TestSubmitAndFetch(t *testing.T) {
	_, router := newTestHandler(nil)
	req := newSignedRequest(t, "john.doe@company.com", "solid engineering culture")

	rec := postSubmission(router, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp SubmissionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.ID)
	assert.NotEmpty(t, resp.DomainCommitment)
	assert.NotEmpty(t, resp.Nullifier)
	assert.NotEmpty(t, resp.KeyCommitment)

	getReq := httptest.NewRequest(http.MethodGet, "/v1/submissions/"+resp.ID, nil)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, getReq)
	require.Equal(t, http.StatusOK, getRec.Code)

	var stored StoredSubmission
	require.NoError(t, json.NewDecoder(getRec.Body).Decode(&stored))
	assert.Equal(t, "********@company.com", stored.MaskedAddress)
	assert.Equal(t, "solid engineering culture", stored.Review)
	assert.Equal(t, resp.DomainCommitment, stored.DomainCommitment)
}

func TestSubmitDuplicateNullifier(t *testing.T) {
	_, router := newTestHandler(nil)
	req := newSignedRequest(t, "alice@co.io", "fine")

	first := postSubmission(router, req)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	second := postSubmission(router, req)
	assert.Equal(t, http.StatusConflict, second.Code)
}

func TestSubmitInvalidSignature(t *testing.T) {
	_, router := newTestHandler(nil)
	req := newSignedRequest(t, "alice@co.io", "fine")
	req.Header[0] ^= 0x01 // breaks the signature

	rec := postSubmission(router, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSubmitMalformedSpans(t *testing.T) {
	_, router := newTestHandler(nil)
	req := newSignedRequest(t, "alice@co.io", "fine")
	req.AddressSpan = dkim.Span{Offset: 0, Length: 100000}

	rec := postSubmission(router, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSubmitMalformedBody(t *testing.T) {
	_, router := newTestHandler(nil)
	httpReq := httptest.NewRequest(http.MethodPost, "/v1/submissions", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httpReq)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitRateLimited(t *testing.T) {
	limiter := NewClientRateLimiter(1, 1, time.Hour)
	_, router := newTestHandler(limiter)

	first := postSubmission(router, newSignedRequest(t, "a@b.co", "one"))
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	second := postSubmission(router, newSignedRequest(t, "c@d.co", "two"))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestFetchUnknownSubmission(t *testing.T) {
	_, router := newTestHandler(nil)
	req := httptest.NewRequest(http.MethodGet, "/v1/submissions/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
