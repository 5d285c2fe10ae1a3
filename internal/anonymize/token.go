package anonymize

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

const (
	// DefaultTokenLength matches the token width of existing mapping files.
	DefaultTokenLength = 8

	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// Largest multiple of len(tokenAlphabet) that fits in a byte; higher
	// bytes are rejected to keep the distribution uniform.
	rejectionLimit = 256 - 256%len(tokenAlphabet)

	maxTokenAttempts = 1000
)

// ErrTokenSpaceExhausted is returned when no unused token could be drawn.
var ErrTokenSpaceExhausted = errors.New("token space exhausted")

// TokenGenerator draws random alphanumeric tokens.
type TokenGenerator struct {
	length int
	source io.Reader
}

// GeneratorOption customizes a TokenGenerator.
type GeneratorOption func(*TokenGenerator)

// WithRandomSource replaces crypto/rand as the entropy source.
func WithRandomSource(r io.Reader) GeneratorOption {
	return func(g *TokenGenerator) {
		if r != nil {
			g.source = r
		}
	}
}

// NewTokenGenerator returns a generator producing tokens of the given length.
// Non-positive lengths fall back to DefaultTokenLength.
func NewTokenGenerator(length int, opts ...GeneratorOption) *TokenGenerator {
	if length <= 0 {
		length = DefaultTokenLength
	}
	g := &TokenGenerator{length: length, source: rand.Reader}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Length reports the configured token width.
func (g *TokenGenerator) Length() int {
	return g.length
}

// Generate draws tokens until one is not reported as taken.
func (g *TokenGenerator) Generate(taken func(string) bool) (string, error) {
	for range maxTokenAttempts {
		token, err := g.draw()
		if err != nil {
			return "", err
		}
		if taken == nil || !taken(token) {
			return token, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrTokenSpaceExhausted, maxTokenAttempts)
}

func (g *TokenGenerator) draw() (string, error) {
	out := make([]byte, 0, g.length)
	buf := make([]byte, g.length)
	for len(out) < g.length {
		if _, err := io.ReadFull(g.source, buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= rejectionLimit {
				continue
			}
			out = append(out, tokenAlphabet[int(b)%len(tokenAlphabet)])
			if len(out) == g.length {
				break
			}
		}
	}
	return string(out), nil
}
