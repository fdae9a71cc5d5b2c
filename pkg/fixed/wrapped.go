package fixed

import "github.com/holiman/uint256"

// WrappedI80F48 I80F48 exactly as it is laid out in account data:
// the raw i128, little-endian, two's complement.
type WrappedI80F48 struct {
	Value [16]byte
}

// Wrap fixed to wire form
func Wrap(a I80F48) WrappedI80F48 {
	var w WrappedI80F48
	w.Value = le128(&a.bits)
	return w
}

// Unwrap wire form to fixed. Every 16-byte pattern is a valid value.
func (w WrappedI80F48) Unwrap() I80F48 {
	var z I80F48
	z.bits = fromLE128(w.Value)
	return z
}

func (w WrappedI80F48) IsZero() bool {
	return w.Value == [16]byte{}
}

func (w WrappedI80F48) String() string {
	return w.Unwrap().String()
}

func (w WrappedI80F48) MarshalJSON() ([]byte, error) {
	return w.Unwrap().MarshalJSON()
}

// FromI128 integer stored as little-endian i128 to fixed
func FromI128(le [16]byte) (I80F48, error) {
	var z I80F48
	z.bits = fromLE128(le)
	if !inRange(&z.bits, 128-FracBits) {
		return Zero, ErrOverflow
	}
	z.bits.Lsh(&z.bits, FracBits)
	return z, nil
}

// I128 integer part (floor) as little-endian i128
func (a I80F48) I128() [16]byte {
	var z uint256.Int
	z.SRsh(&a.bits, FracBits)
	return le128(&z)
}

func fromLE128(le [16]byte) uint256.Int {
	var be [16]byte
	for i := range be {
		be[i] = le[15-i]
	}

	var z uint256.Int
	z.SetBytes(be[:])
	if be[0]&0x80 != 0 {
		z.Sub(&z, two128)
	}
	return z
}

func le128(v *uint256.Int) [16]byte {
	b := v.Bytes32()

	var le [16]byte
	for i := range le {
		le[i] = b[31-i]
	}
	return le
}
