// Package hashkey implements the deterministic text-to-seed-to-id mapping
// described in spec.md §4.A. It is a pure, dependency-light package: every
// function is a total function of its input with no I/O, matching the
// "deterministic, non-secure mixer by design" constraint in spec.md §1.
package hashkey

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// salt is part of the on-disk contract (spec.md §4.A) and must never change:
// doing so would silently reshuffle every generated dimension id already on
// disk.
const salt = " :why_so_salty#LazyCrypto "

// generatedPrefix is prepended to a seed to form a GENERATED dimension id.
const generatedPrefix = "endlessdimensions:generated_"

var caser = cases.Lower(language.Und)

// Normalize trims surrounding whitespace and lowercases text in a
// locale-independent way (cases.Lower with the undetermined language tag,
// rather than strings.ToLower, which can apply locale-specific casing
// rules). Normalize is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	return caser.String(strings.TrimSpace(text))
}

// Seed32 runs the two 32-bit DJB2-style mixers described in spec.md §4.A
// over text+salt, combines and reduces them to a 32-bit value, replicates
// that value into a 32-byte buffer (buf[i] = byte at bit offset (i*8)&31 of
// the value, which repeats the 4 source bytes 8 times over), and reads the
// first 4 bytes of the buffer back as the seed — which reconstructs the
// 32-bit value itself, then masks off its sign bit.
func Seed32(text string) uint32 {
	v32 := uint32(combine(text) & 0xFFFFFFFF)
	buf := replicate(v32)
	return leUint32(buf[:4]) & 0x7FFFFFFF
}

// Seed64 reads the first 8 bytes of the same replicated buffer used by
// Seed32 — two back-to-back copies of the 32-bit value — and masks off the
// sign bit, so the result is always in [0, 2^63).
func Seed64(text string) int64 {
	v32 := uint32(combine(text) & 0xFFFFFFFF)
	buf := replicate(v32)
	v64 := leUint64(buf[:8])
	return int64(v64 & 0x7FFFFFFFFFFFFFFF)
}

// replicate fills a 32-byte buffer by repeating the little-endian bytes of
// v32 eight times, per spec.md §4.A.
func replicate(v32 uint32) [32]byte {
	var buf [32]byte
	for i := 0; i < 32; i++ {
		shift := uint((i * 8) & 31)
		buf[i] = byte(v32 >> shift)
	}
	return buf
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func leUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

// DimensionIDFromSeed computes the GENERATED dimension id for a seed, per
// spec.md §4.A. This string is part of the on-disk contract.
func DimensionIDFromSeed(seed int64) string {
	return fmt.Sprintf("%s%d", generatedPrefix, seed)
}

// combine runs the dual-hash mixer from spec.md §4.A over text+salt and
// folds the two 32-bit hashes into a single value the way the spec
// prescribes: ((h1 & 0xFFFFFFFF) << 12) + (h2 & 0xFFFFFFFF).
func combine(text string) uint64 {
	salted := text + salt
	h1 := djb2XorMix(salted, 5381)
	h2 := djb2XorMix(salted, 52711)
	return ((uint64(h1) & 0xFFFFFFFF) << 12) + (uint64(h2) & 0xFFFFFFFF)
}

// djb2XorMix implements hash = ((hash<<5)+hash) XOR ch over every UTF-16
// code unit of s, seeded with seed.
func djb2XorMix(s string, seed uint32) uint32 {
	hash := seed
	for _, r := range toUTF16(s) {
		hash = ((hash << 5) + hash) ^ uint32(r)
	}
	return hash
}

// toUTF16 encodes s as UTF-16 code units, matching the "code unit" wording
// in spec.md §4.A (the source system hashes UTF-16 strings).
func toUTF16(s string) []uint16 {
	units := make([]uint16, 0, len(s))
	for _, r := range s {
		if r <= 0xFFFF {
			units = append(units, uint16(r))
			continue
		}
		r -= 0x10000
		units = append(units, uint16(0xD800+(r>>10)), uint16(0xDC00+(r&0x3FF)))
	}
	return units
}
