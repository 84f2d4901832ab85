// Package hasher computes SHA-256 content fingerprints for catalog records.
package hasher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"fo-go/internal/fo"
)

// DefaultPrefixSize is how many leading bytes the prefix fingerprint covers.
const DefaultPrefixSize = 64 * 1024

// SHA256Hasher fingerprints files by streaming them through SHA-256.
type SHA256Hasher struct {
	prefixSize int64
}

// New returns a hasher whose prefix fingerprint covers prefixSize bytes.
// A non-positive prefixSize selects DefaultPrefixSize.
func New(prefixSize int64) *SHA256Hasher {
	if prefixSize <= 0 {
		prefixSize = DefaultPrefixSize
	}
	return &SHA256Hasher{prefixSize: prefixSize}
}

// PrefixSize returns the prefix length in bytes.
func (h *SHA256Hasher) PrefixSize() int64 {
	return h.prefixSize
}

// Fingerprint digests everything r yields.
func Fingerprint(r io.Reader) (string, error) {
	d := sha256.New()
	if _, err := io.Copy(d, r); err != nil {
		return "", fmt.Errorf("hashing content: %w", err)
	}
	return hex.EncodeToString(d.Sum(nil)), nil
}

// PrefixFingerprint digests at most the first n bytes of r.
func PrefixFingerprint(r io.Reader, n int64) (string, error) {
	return Fingerprint(io.LimitReader(r, n))
}

// FingerprintFile digests the full content of the file at path.
func (h *SHA256Hasher) FingerprintFile(path string) (string, error) {
	return fingerprintPath(context.Background(), path, -1)
}

// Fingerprints computes the full and prefix digests of a file. Files no
// larger than the prefix are read once and both digests are equal; larger
// files are read twice concurrently.
func (h *SHA256Hasher) Fingerprints(ctx context.Context, path string, size int64) (fo.Fingerprints, error) {
	if size <= h.prefixSize {
		full, err := fingerprintPath(ctx, path, -1)
		if err != nil {
			return fo.Fingerprints{}, err
		}
		return fo.Fingerprints{Full: full, Prefix: full}, nil
	}

	var fp fo.Fingerprints
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		fp.Full, err = fingerprintPath(gctx, path, -1)
		return err
	})
	g.Go(func() error {
		var err error
		fp.Prefix, err = fingerprintPath(gctx, path, h.prefixSize)
		return err
	})
	if err := g.Wait(); err != nil {
		return fo.Fingerprints{}, err
	}
	return fp, nil
}

// fingerprintPath digests the file at path, limited to n bytes when n >= 0.
func fingerprintPath(ctx context.Context, path string, n int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = &ctxReader{ctx: ctx, r: f}
	if n >= 0 {
		return PrefixFingerprint(r, n)
	}
	return Fingerprint(r)
}

// ctxReader stops a read loop once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// Compile-time check that SHA256Hasher implements fo.Hasher interface
var _ fo.Hasher = (*SHA256Hasher)(nil)
