// Package hash provides SHA-256 digests for reponimous.
//
// Digests serve two purposes: the fetch cache derives a short fingerprint of
// each repository locator so that two repositories sharing a base name never
// share a cache entry, and the archive command reports the digest of the
// tarball it wrote. A fake implementation is provided for tests.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// Hasher provides an abstraction for hashing operations.
type Hasher interface {
	// HashFile computes the hash of the file at the given path.
	HashFile(path string) (string, error)

	// HashString computes the hash of s.
	HashString(s string) string
}

// SHA256Hasher implements Hasher using SHA-256.
type SHA256Hasher struct{}

// NewSHA256Hasher creates a new SHA256Hasher.
func NewSHA256Hasher() *SHA256Hasher {
	return &SHA256Hasher{}
}

// HashFile computes the SHA-256 hash of the file at the given path.
func (h *SHA256Hasher) HashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	sum, err := sum(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return sum, nil
}

// HashString computes the SHA-256 hash of s.
func (h *SHA256Hasher) HashString(s string) string {
	// reading from a strings.Reader cannot fail
	digest, _ := sum(strings.NewReader(s))
	return digest
}

func sum(r io.Reader) (string, error) {
	hasher := sha256.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Short returns the first n characters of digest, or all of it if shorter.
func Short(digest string, n int) string {
	if len(digest) <= n {
		return digest
	}
	return digest[:n]
}

// FakeDigest is what FakeHasher returns for keys without a preset hash.
const FakeDigest = "fakehash"

// FakeHasher implements Hasher with deterministic hashes for testing.
type FakeHasher struct {
	hashes map[string]string
}

// NewFakeHasher creates a new FakeHasher.
func NewFakeHasher() *FakeHasher {
	return &FakeHasher{
		hashes: make(map[string]string),
	}
}

// SetHash sets the hash returned for a path or string.
func (h *FakeHasher) SetHash(key, hash string) {
	h.hashes[key] = hash
}

// HashFile returns the predetermined hash for the given path.
func (h *FakeHasher) HashFile(path string) (string, error) {
	if hash, ok := h.hashes[path]; ok {
		return hash, nil
	}
	return FakeDigest, nil
}

// HashString returns the predetermined hash for s.
func (h *FakeHasher) HashString(s string) string {
	if hash, ok := h.hashes[s]; ok {
		return hash
	}
	return FakeDigest
}
