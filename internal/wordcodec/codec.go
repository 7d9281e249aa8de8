// Package wordcodec converts between the trace RPC's wire representations of
// 256-bit words — big-endian hex strings, or four little-endian-ordered
// 64-bit limbs — and a fixed 32-byte array, and decodes ABI-packed uint256
// values out of raw memory slices (C1 in the design).
package wordcodec

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/amadimichael/evmsim/internal/simerrors"
)

// Word is the canonical big-endian 32-byte form every trace value is
// normalized to before the call-stack reducer or log extractor touch it.
type Word [32]byte

// LimbsToBEBytes reverses limb order and byte-swaps each limb, matching the
// trace's little-endian-limb / little-endian-byte-within-limb encoding:
// output byte i equals byte (31-i)%8 of limb 3-(i/8).
func LimbsToBEBytes(limbs [4]uint64) Word {
	var out Word
	for limbIdx := 0; limbIdx < 4; limbIdx++ {
		limb := limbs[3-limbIdx]
		for b := 0; b < 8; b++ {
			out[limbIdx*8+b] = byte(limb >> (8 * (7 - b)))
		}
	}
	return out
}

// HexWordToLimbs parses a big-endian hex word back into the four-limb form,
// the inverse of LimbsToBEBytes. It is provided for round-trip symmetry with
// clients that still speak the limb wire format.
func HexWordToLimbs(s string) ([4]uint64, error) {
	w, err := FromHex(s)
	if err != nil {
		return [4]uint64{}, err
	}
	var limbs [4]uint64
	for limbIdx := 0; limbIdx < 4; limbIdx++ {
		var v uint64
		base := limbIdx * 8
		for b := 0; b < 8; b++ {
			v |= uint64(w[base+b]) << (8 * (7 - b))
		}
		limbs[3-limbIdx] = v
	}
	return limbs, nil
}

// FromHex parses a lowercase hex string (with or without "0x" prefix) of up
// to 64 nibbles representing a big-endian 32-byte word. Shorter strings are
// left-padded with zero bytes, matching how struct-log stack/memory entries
// are usually rendered without leading zeros.
func FromHex(s string) (Word, error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s)%2 != 0 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Word{}, fmt.Errorf("%w: invalid hex word %q: %v", simerrors.ErrTraceMalformed, s, err)
	}
	if len(b) > 32 {
		return Word{}, fmt.Errorf("%w: hex word %q exceeds 32 bytes", simerrors.ErrTraceMalformed, s)
	}
	var w Word
	copy(w[32-len(b):], b)
	return w, nil
}

// Address returns the low 20 bytes (rightmost) of the word's big-endian form.
func (w Word) Address() common.Address {
	var a common.Address
	copy(a[:], w[12:])
	return a
}

// Uint256 interprets the word as a big-endian unsigned 256-bit integer.
func (w Word) Uint256() *uint256.Int {
	return new(uint256.Int).SetBytes(w[:])
}

// Hash reinterprets the word as a 32-byte event topic.
func (w Word) Hash() common.Hash {
	return common.Hash(w)
}

// Bytes returns the word's 32 big-endian bytes.
func (w Word) Bytes() []byte {
	out := make([]byte, 32)
	copy(out, w[:])
	return out
}

// DecodeUint256 reads 32 big-endian bytes at offset from buf and returns the
// decoded unsigned integer (C1's abi_decode_uint256).
func DecodeUint256(buf []byte, offset int) (*uint256.Int, error) {
	if offset < 0 || offset+32 > len(buf) {
		return nil, fmt.Errorf("%w: uint256 read [%d:%d] out of bounds (len %d)",
			simerrors.ErrABIDecode, offset, offset+32, len(buf))
	}
	return new(uint256.Int).SetBytes(buf[offset : offset+32]), nil
}
