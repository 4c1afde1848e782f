package hasher

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"fmt"

	"github.com/satriahrh/cocoa-fruit/shagen/domain"
)

// New returns a domain.Hasher backed by SHA-512.
func New() domain.Hasher { return sha512Hasher{} }

type sha512Hasher struct{}

func (h sha512Hasher) ComputeDigest(ctx context.Context, text string) (domain.Digest, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrComputation, err)
	}
	sum := sha512.Sum512([]byte(text))
	return domain.Digest(hex.EncodeToString(sum[:])), nil
}
