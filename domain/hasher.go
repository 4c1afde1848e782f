package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// DigestLength is the number of hex characters in a SHA-512 digest.
const DigestLength = 128

var (
	// ErrEmptyInput is reported when the trimmed input has no characters.
	ErrEmptyInput = errors.New("input required")
	// ErrComputation is reported when the hashing primitive fails or is unavailable.
	ErrComputation = errors.New("digest computation failed")
	// ErrFormat is reported when a hash response lacks its digest field.
	ErrFormat = errors.New("invalid response format: hash not found")
)

// Digest is the lowercase hexadecimal encoding of a hash output.
type Digest string

// Valid reports whether d looks like a SHA-512 hex digest.
func (d Digest) Valid() bool {
	if len(d) != DigestLength {
		return false
	}
	for i := 0; i < len(d); i++ {
		c := d[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func (d Digest) String() string { return string(d) }

// Hasher is the core port for any hashing strategy.
type Hasher interface {
	ComputeDigest(ctx context.Context, text string) (Digest, error)
}

// HashPayload is the nested part of a hash response that carries the digest.
type HashPayload struct {
	Hash      string `json:"hash"`
	Timestamp string `json:"timestamp,omitempty"`
}

// HashEnvelope is the response shape produced by a hash-producing endpoint.
type HashEnvelope struct {
	Data    *HashPayload `json:"data"`
	Status  int          `json:"status"`
	Message string       `json:"message,omitempty"`
}

// ExtractDigest pulls the digest out of a hash response. A missing payload or
// an empty hash field yields ErrFormat.
func ExtractDigest(response HashEnvelope) (Digest, error) {
	if response.Data == nil || response.Data.Hash == "" {
		return "", ErrFormat
	}
	return Digest(response.Data.Hash), nil
}

// ExtractDigestJSON decodes raw into a HashEnvelope and extracts its digest.
func ExtractDigestJSON(raw []byte) (Digest, error) {
	var envelope HashEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return ExtractDigest(envelope)
}
