// Package fingerprint computes SimHash content fingerprints.
//
// SimHash (Charikar) is locality preserving: texts that differ by a typo or
// a little OCR noise produce fingerprints a few bits apart, so their
// similarity is close to 1. Unrelated texts land near 0.5, the expectation
// for random bits, and essentially never near 0.
package fingerprint

import (
	"crypto/md5"
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"
	"strings"
	"unicode"
)

var (
	// ErrInvalidHashBits is returned for widths other than 64 or 128.
	ErrInvalidHashBits = errors.New("hash_bits must be 64 or 128")

	// ErrInvalidNgramSize is returned for shingle sizes below 1.
	ErrInvalidNgramSize = errors.New("ngram_size must be at least 1")
)

// Fingerprint is a 64 or 128 bit SimHash. Bits 0-63 live in Lo and bits
// 64-127 in Hi. The zero value marks empty text.
type Fingerprint struct {
	Hi uint64
	Lo uint64
}

// IsZero reports whether f is the empty-text sentinel.
func (f Fingerprint) IsZero() bool {
	return f.Hi == 0 && f.Lo == 0
}

// Bit reports whether bit i is set.
func (f Fingerprint) Bit(i int) bool {
	if i < 64 {
		return f.Lo&(1<<uint(i)) != 0
	}
	return f.Hi&(1<<uint(i-64)) != 0
}

// Distance returns the Hamming distance between two fingerprints.
func (f Fingerprint) Distance(other Fingerprint) int {
	return bits.OnesCount64(f.Hi^other.Hi) + bits.OnesCount64(f.Lo^other.Lo)
}

// String renders the fingerprint as 32 hex digits.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x%016x", f.Hi, f.Lo)
}

// Fingerprinter computes SimHash fingerprints over character n-grams.
type Fingerprinter struct {
	hashBits  int
	ngramSize int
	normalize bool
}

// New creates a fingerprinter. hashBits must be 64 or 128.
func New(hashBits, ngramSize int, normalize bool) (*Fingerprinter, error) {
	if hashBits != 64 && hashBits != 128 {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidHashBits, hashBits)
	}
	if ngramSize < 1 {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidNgramSize, ngramSize)
	}
	return &Fingerprinter{
		hashBits:  hashBits,
		ngramSize: ngramSize,
		normalize: normalize,
	}, nil
}

// NewDefault returns a 128-bit, trigram, normalizing fingerprinter.
func NewDefault() *Fingerprinter {
	return &Fingerprinter{hashBits: 128, ngramSize: 3, normalize: true}
}

// HashBits returns the fingerprint width.
func (f *Fingerprinter) HashBits() int {
	return f.hashBits
}

// NgramSize returns the shingle length in characters.
func (f *Fingerprinter) NgramSize() int {
	return f.ngramSize
}

// Fingerprint computes the SimHash of text. Empty text (after normalization)
// yields the zero fingerprint.
func (f *Fingerprinter) Fingerprint(text string) Fingerprint {
	if f.normalize {
		text = Normalize(text)
	}
	if text == "" {
		return Fingerprint{}
	}

	var weights [128]int
	for _, shingle := range f.shingle(text) {
		h := f.hashShingle(shingle)
		for i := 0; i < f.hashBits; i++ {
			if h.Bit(i) {
				weights[i]++
			} else {
				weights[i]--
			}
		}
	}

	var fp Fingerprint
	for i := 0; i < f.hashBits; i++ {
		if weights[i] <= 0 {
			continue
		}
		if i < 64 {
			fp.Lo |= 1 << uint(i)
		} else {
			fp.Hi |= 1 << uint(i-64)
		}
	}
	return fp
}

// Similarity returns 1 - hamming/hashBits. Two empty fingerprints are fully
// similar; one empty fingerprint is not similar to anything else.
func (f *Fingerprinter) Similarity(a, b Fingerprint) float64 {
	switch {
	case a.IsZero() && b.IsZero():
		return 1.0
	case a.IsZero() || b.IsZero():
		return 0.0
	}
	return 1.0 - float64(a.Distance(b))/float64(f.hashBits)
}

// Normalize lower-cases text, collapses whitespace runs to one space, drops
// everything but letters, digits, underscores and whitespace, then trims.
func Normalize(text string) string {
	text = strings.ToLower(text)
	text = strings.Join(strings.Fields(text), " ")

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == ' ' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// shingle splits text into overlapping rune n-grams. Text shorter than the
// n-gram size is a single shingle.
func (f *Fingerprinter) shingle(text string) []string {
	runes := []rune(text)
	if len(runes) < f.ngramSize {
		return []string{text}
	}
	out := make([]string, 0, len(runes)-f.ngramSize+1)
	for i := 0; i+f.ngramSize <= len(runes); i++ {
		out = append(out, string(runes[i:i+f.ngramSize]))
	}
	return out
}

// hashShingle reads the MD5 digest as a big-endian integer reduced modulo
// 2^hashBits.
func (f *Fingerprinter) hashShingle(shingle string) Fingerprint {
	sum := md5.Sum([]byte(shingle))
	h := Fingerprint{
		Hi: binary.BigEndian.Uint64(sum[:8]),
		Lo: binary.BigEndian.Uint64(sum[8:]),
	}
	if f.hashBits == 64 {
		h.Hi = 0
	}
	return h
}
